package store

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"tasktree/app/models"
)

const (
	neo4jDeleteTasks = "MATCH (t:Task) DETACH DELETE t"
	neo4jCreateTasks = "UNWIND $tasks AS task " +
		"CREATE (t:Task) SET t = task"
	neo4jReadTasks = "MATCH (t:Task) " +
		"RETURN t.id AS id, t.name AS name, t.status AS status, t.parentId AS parent_id, t.expanded AS expanded " +
		"ORDER BY t.position"
)

// Neo4jStore mirrors the snapshot as (:Task) nodes. Parent links are kept
// as a parentId property so that dangling parents survive a round trip.
type Neo4jStore struct {
	driver   neo4j.DriverWithContext
	database string
}

// NewNeo4jStore creates a store on top of an initialized driver. An empty
// database selects the server default.
func NewNeo4jStore(driver neo4j.DriverWithContext, database string) *Neo4jStore {
	return &Neo4jStore{driver: driver, database: database}
}

func (s *Neo4jStore) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: mode, DatabaseName: s.database})
}

func (s *Neo4jStore) Load(ctx context.Context) ([]models.Task, error) {
	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, neo4jReadTasks, nil)
		if err != nil {
			return nil, err
		}

		tasks := []models.Task{}
		for res.Next(ctx) {
			task, err := taskFromValues(res.Record().Values)
			if err != nil {
				return nil, err
			}
			tasks = append(tasks, task)
		}
		if err := res.Err(); err != nil {
			return nil, err
		}
		return tasks, nil
	})
	if err != nil {
		return nil, fmt.Errorf("read tasks from neo4j: %w", err)
	}

	tasks, ok := result.([]models.Task)
	if !ok {
		return nil, fmt.Errorf("unexpected neo4j result type %T", result)
	}
	return tasks, nil
}

func (s *Neo4jStore) Save(ctx context.Context, tasks []models.Task) error {
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if _, err := tx.Run(ctx, neo4jDeleteTasks, nil); err != nil {
			return nil, err
		}
		if len(tasks) == 0 {
			return nil, nil
		}
		_, err := tx.Run(ctx, neo4jCreateTasks, map[string]any{"tasks": taskParams(tasks)})
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("write tasks to neo4j: %w", err)
	}
	return nil
}

// Close releases the driver.
func (s *Neo4jStore) Close() error {
	return s.driver.Close(context.Background())
}

func taskParams(tasks []models.Task) []any {
	out := make([]any, 0, len(tasks))
	for i, t := range tasks {
		props := map[string]any{
			"id":       t.ID,
			"name":     t.Name,
			"status":   string(t.Status),
			"expanded": t.Expanded,
			"position": int64(i),
		}
		if t.ParentID != nil {
			props["parentId"] = *t.ParentID
		}
		out = append(out, props)
	}
	return out
}

func taskFromValues(values []any) (models.Task, error) {
	if len(values) != 5 {
		return models.Task{}, fmt.Errorf("unexpected task record width %d", len(values))
	}

	id, ok := values[0].(string)
	if !ok || id == "" {
		return models.Task{}, fmt.Errorf("task record has invalid id %v", values[0])
	}
	name, _ := values[1].(string)

	rawStatus, _ := values[2].(string)
	status, ok := models.ParseStatus(rawStatus)
	if !ok {
		return models.Task{}, fmt.Errorf("task %s has invalid status %q", id, rawStatus)
	}

	var parentID *string
	if values[3] != nil {
		pid, ok := values[3].(string)
		if !ok {
			return models.Task{}, fmt.Errorf("task %s has invalid parent id %v", id, values[3])
		}
		if pid != "" {
			parentID = &pid
		}
	}

	expanded, _ := values[4].(bool)

	return models.Task{
		ID:       id,
		Name:     name,
		Status:   status,
		ParentID: parentID,
		Expanded: expanded,
	}, nil
}
