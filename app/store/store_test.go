package store

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"tasktree/app/models"
)

func sampleTasks() []models.Task {
	parent := "a"
	return []models.Task{
		{ID: "a", Name: "A", Status: models.StatusInProgress, Expanded: true},
		{ID: "b", Name: "B", Status: models.StatusDone, ParentID: &parent},
		{ID: "c", Name: "C", Status: models.StatusComplete},
	}
}

func roundTrip(t *testing.T, st Store) {
	t.Helper()
	ctx := context.Background()

	empty, err := st.Load(ctx)
	if err != nil {
		t.Fatalf("Load empty: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Fatalf("Load empty = %#v, want empty slice", empty)
	}

	want := sampleTasks()
	if err := st.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := st.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Load = %#v\nwant %#v", got, want)
	}

	if err := st.Save(ctx, want[:1]); err != nil {
		t.Fatalf("Save shrink: %v", err)
	}
	got, err = st.Load(ctx)
	if err != nil {
		t.Fatalf("Load shrink: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Load after shrink = %d tasks, want 1", len(got))
	}
}

func TestMemoryStore_RoundTrip(t *testing.T) {
	roundTrip(t, NewMemoryStore())
}

func TestFileStore_RoundTrip(t *testing.T) {
	roundTrip(t, NewFileStore(filepath.Join(t.TempDir(), "nested", "tasks.json")))
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	st, err := NewSQLiteStore(filepath.Join(t.TempDir(), "tasks.db"), "")
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer st.Close()
	roundTrip(t, st)
}

func TestSQLiteStore_KeysAreIndependent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.db")
	first, err := NewSQLiteStore(path, "first")
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer first.Close()
	if err := first.Save(context.Background(), sampleTasks()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	second, err := NewSQLiteStore(path, "second")
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer second.Close()
	got, err := second.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("second key sees %d tasks", len(got))
	}
}

func TestFileStore_ReadsLegacySnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	legacy := `[{"id":"a","name":"A","status":"IN PROGRESS","showNoTaskMessage":true},
	{"id":"b","name":"B","status":"DONE","parentId":"a","showNoTaskMessage":false}]`
	if err := os.WriteFile(path, []byte(legacy), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := NewFileStore(path).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 2 || !got[0].Expanded || got[1].ParentID == nil {
		t.Fatalf("Load = %#v", got)
	}
}

func TestFileStore_RejectsInvalidSnapshot(t *testing.T) {
	tests := map[string]string{
		"not an array":   `{"id":"a"}`,
		"missing status": `[{"id":"a","name":"A"}]`,
		"bad status":     `[{"id":"a","name":"A","status":"BLOCKED"}]`,
		"empty id":       `[{"id":"","name":"A","status":"DONE"}]`,
		"broken json":    `[{"id":`,
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "tasks.json")
			if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
				t.Fatalf("write: %v", err)
			}
			_, err := NewFileStore(path).Load(context.Background())
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), path) {
				t.Fatalf("error %q does not name the file", err)
			}
		})
	}
}

func TestFileStore_NoTempFilesLeft(t *testing.T) {
	dir := t.TempDir()
	st := NewFileStore(filepath.Join(dir, "tasks.json"))
	if err := st.Save(context.Background(), sampleTasks()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "tasks.json" {
		t.Fatalf("unexpected files: %v", entries)
	}
}

func TestNeo4jParamsRoundTrip(t *testing.T) {
	want := sampleTasks()
	params := taskParams(want)

	got := make([]models.Task, 0, len(params))
	for i, p := range params {
		props := p.(map[string]any)
		if props["position"] != int64(i) {
			t.Fatalf("position = %v, want %d", props["position"], i)
		}
		task, err := taskFromValues([]any{
			props["id"], props["name"], props["status"], props["parentId"], props["expanded"],
		})
		if err != nil {
			t.Fatalf("taskFromValues: %v", err)
		}
		got = append(got, task)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip = %#v\nwant %#v", got, want)
	}
}

func TestNeo4jRecordValidation(t *testing.T) {
	tests := map[string][]any{
		"short record": {"a", "A"},
		"missing id":   {nil, "A", "DONE", nil, false},
		"bad status":   {"a", "A", "BLOCKED", nil, false},
		"bad parent":   {"a", "A", "DONE", int64(3), false},
	}
	for name, values := range tests {
		if _, err := taskFromValues(values); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}
