package config

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tasktree/app/store"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Store != StoreFile || cfg.PageSize != 20 || !cfg.StrictCompletion {
		t.Fatalf("unexpected defaults: %#v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
}

func TestLoad_TOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasktree.toml")
	content := `
store = "sqlite"
path = "/tmp/tasks.db"
page_size = 5
strict_completion = false

[log]
level = "debug"

[neo4j]
uri = "neo4j://db:7687"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store != StoreSQLite || cfg.Path != "/tmp/tasks.db" || cfg.PageSize != 5 {
		t.Fatalf("unexpected config: %#v", cfg)
	}
	if cfg.StrictCompletion {
		t.Fatalf("strict_completion not applied")
	}
	if cfg.Log.Level != "debug" || cfg.Neo4j.URI != "neo4j://db:7687" {
		t.Fatalf("nested tables not applied: %#v", cfg)
	}
	if cfg.Addr != "0.0.0.0:8080" {
		t.Fatalf("default addr lost: %q", cfg.Addr)
	}
}

func TestLoad_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasktree.yaml")
	content := "store: memory\naddr: 127.0.0.1:9000\nlog:\n  format: json\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store != StoreMemory || cfg.Addr != "127.0.0.1:9000" || cfg.Log.Format != "json" {
		t.Fatalf("unexpected config: %#v", cfg)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatalf("expected error for missing explicit config file")
	}
}

func TestLoad_InvalidStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasktree.toml")
	if err := os.WriteFile(path, []byte(`store = "redis"`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "redis") {
		t.Fatalf("err = %v, want unknown store error", err)
	}
}

func TestLoadFromEnv(t *testing.T) {
	cfg := Default()
	err := loadFromEnv(&cfg, envMap(map[string]string{
		"TASKTREE_STORE":             "neo4j",
		"TASKTREE_PAGE_SIZE":         "50",
		"TASKTREE_STRICT_COMPLETION": "false",
		"NEO4J_PASSWORD":             "secret",
		"TASKTREE_ADDR":              "",
	}))
	if err != nil {
		t.Fatalf("loadFromEnv: %v", err)
	}
	if cfg.Store != StoreNeo4j || cfg.PageSize != 50 || cfg.StrictCompletion || cfg.Neo4j.Password != "secret" {
		t.Fatalf("env not applied: %#v", cfg)
	}
	if cfg.Addr != "0.0.0.0:8080" {
		t.Fatalf("empty env value overrode addr: %q", cfg.Addr)
	}

	bad := Default()
	if err := loadFromEnv(&bad, envMap(map[string]string{"TASKTREE_PAGE_SIZE": "many"})); err == nil {
		t.Fatalf("expected page size parse error")
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.PageSize = 0
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected page size error")
	}
	cfg = Default()
	cfg.Store = StoreSQLite
	cfg.Path = " "
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected path error")
	}
}

func TestNewLogger(t *testing.T) {
	cfg := Default()
	cfg.Log.Level = "warn"
	var buf bytes.Buffer
	logger, err := NewLogger(cfg, &buf)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown")
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Fatalf("unexpected log output %q", out)
	}

	cfg.Log.Format = "xml"
	if _, err := NewLogger(cfg, &buf); err == nil {
		t.Fatalf("expected unknown format error")
	}
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	cfg := Default()
	cfg.Store = StoreMemory
	st, err := OpenStore(ctx, cfg)
	if err != nil {
		t.Fatalf("OpenStore memory: %v", err)
	}
	if _, ok := st.(*store.MemoryStore); !ok {
		t.Fatalf("got %T, want *store.MemoryStore", st)
	}

	cfg.Store = StoreFile
	cfg.Path = filepath.Join(dir, "tasks.json")
	st, err = OpenStore(ctx, cfg)
	if err != nil {
		t.Fatalf("OpenStore file: %v", err)
	}
	if _, ok := st.(*store.FileStore); !ok {
		t.Fatalf("got %T, want *store.FileStore", st)
	}

	cfg.Store = StoreSQLite
	cfg.Path = filepath.Join(dir, "tasks.db")
	st, err = OpenStore(ctx, cfg)
	if err != nil {
		t.Fatalf("OpenStore sqlite: %v", err)
	}
	defer st.Close()
	if _, ok := st.(*store.SQLiteStore); !ok {
		t.Fatalf("got %T, want *store.SQLiteStore", st)
	}
}
