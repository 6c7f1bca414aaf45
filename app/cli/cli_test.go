package cli

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

func run(t *testing.T, path string, args ...string) (string, error) {
	t.Helper()
	root, a := newRoot()
	a.stderr = &bytes.Buffer{}
	defer a.close()

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--store", "file", "--path", path}, args...))
	err := root.Execute()
	return out.String(), err
}

func createdID(t *testing.T, out string) string {
	t.Helper()
	i := strings.LastIndex(out, ": ")
	if i < 0 {
		t.Fatalf("no id in output %q", out)
	}
	return strings.TrimSpace(out[i+2:])
}

func TestCommandsPersistAcrossRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")

	out, err := run(t, path, "add", "Write report")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	rootID := createdID(t, out)

	out, err = run(t, path, "add", "--parent", rootID, "Collect data")
	if err != nil {
		t.Fatalf("add child: %v", err)
	}
	childID := createdID(t, out)

	if _, err := run(t, path, "toggle", rootID); err == nil || !strings.Contains(err.Error(), "not done") {
		t.Fatalf("toggle root with open child: err = %v", err)
	}

	out, err = run(t, path, "toggle", childID)
	if err != nil {
		t.Fatalf("toggle child: %v", err)
	}
	if !strings.Contains(out, "DONE") {
		t.Fatalf("toggle output = %q", out)
	}

	if _, err := run(t, path, "rename", rootID, "Write final report"); err != nil {
		t.Fatalf("rename: %v", err)
	}

	out, err = run(t, path, "list", "--all")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, want := range []string{"COMPLETE", "Write final report", "  " + childID, "page 1 of 1"} {
		if !strings.Contains(out, want) {
			t.Fatalf("list output missing %q:\n%s", want, out)
		}
	}

	out, err = run(t, path, "stats")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if !strings.Contains(out, "root tasks left: 0/1") || !strings.Contains(out, "in progress (all levels): 0") {
		t.Fatalf("stats output = %q", out)
	}

	out, err = run(t, path, "delete", rootID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !strings.Contains(out, `"Write final report" deleted`) {
		t.Fatalf("delete output = %q", out)
	}

	out, err = run(t, path, "list")
	if err != nil {
		t.Fatalf("list after delete: %v", err)
	}
	if strings.Contains(out, childID) {
		t.Fatalf("orphaned child should not be listed under roots:\n%s", out)
	}
}

func TestCommandErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")

	tests := []struct {
		args []string
		want string
	}{
		{[]string{"add", "  "}, "cannot be empty"},
		{[]string{"add", "--parent", "missing", "child"}, "does not exist"},
		{[]string{"rename", "missing", "x"}, "task not found"},
		{[]string{"expand", "missing"}, "task not found"},
		{[]string{"list", "--status", "blocked"}, "invalid status filter"},
		{[]string{"--store", "redis", "list"}, "unknown store"},
	}
	for _, tt := range tests {
		_, err := run(t, path, tt.args...)
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Errorf("%v: err = %v, want %q", tt.args, err, tt.want)
		}
	}
}
