package store

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"tasktree/app/models"
)

//go:embed snapshot.schema.json
var snapshotSchemaJSON string

var (
	snapshotSchemaOnce sync.Once
	snapshotSchema     *jsonschema.Schema
	snapshotSchemaErr  error
)

func compiledSnapshotSchema() (*jsonschema.Schema, error) {
	snapshotSchemaOnce.Do(func() {
		snapshotSchema, snapshotSchemaErr = jsonschema.CompileString("snapshot.schema.json", snapshotSchemaJSON)
	})
	return snapshotSchema, snapshotSchemaErr
}

// DecodeSnapshot validates raw snapshot JSON and decodes it. Empty input
// decodes to an empty collection.
func DecodeSnapshot(b []byte) ([]models.Task, error) {
	if len(bytes.TrimSpace(b)) == 0 {
		return []models.Task{}, nil
	}

	schema, err := compiledSnapshotSchema()
	if err != nil {
		return nil, fmt.Errorf("compile snapshot schema: %w", err)
	}

	var doc any
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("invalid snapshot: %w", err)
	}

	var tasks []models.Task
	if err := json.Unmarshal(b, &tasks); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	return tasks, nil
}

// EncodeSnapshot renders tasks in the snapshot wire format.
func EncodeSnapshot(tasks []models.Task) ([]byte, error) {
	if tasks == nil {
		tasks = []models.Task{}
	}
	b, err := json.MarshalIndent(tasks, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return b, nil
}
