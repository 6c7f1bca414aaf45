// Package config loads settings from defaults, a TOML or YAML file and the
// environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const DefaultConfigFile = "tasktree.toml"

// Store kinds.
const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
	StoreNeo4j  = "neo4j"
	StoreMemory = "memory"
)

type Config struct {
	Store            string      `toml:"store" yaml:"store"`
	Path             string      `toml:"path" yaml:"path"`
	Key              string      `toml:"key" yaml:"key"`
	Addr             string      `toml:"addr" yaml:"addr"`
	PageSize         int         `toml:"page_size" yaml:"page_size"`
	StrictCompletion bool        `toml:"strict_completion" yaml:"strict_completion"`
	Log              LogConfig   `toml:"log" yaml:"log"`
	Neo4j            Neo4jConfig `toml:"neo4j" yaml:"neo4j"`
}

type LogConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"`
}

type Neo4jConfig struct {
	URI      string `toml:"uri" yaml:"uri"`
	Username string `toml:"username" yaml:"username"`
	Password string `toml:"password" yaml:"password"`
	Database string `toml:"database" yaml:"database"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Store:            StoreFile,
		Path:             defaultDataPath("tasks.json"),
		Key:              "tasks",
		Addr:             "0.0.0.0:8080",
		PageSize:         20,
		StrictCompletion: true,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Neo4j: Neo4jConfig{
			URI:      "neo4j://localhost:7687",
			Username: "neo4j",
			Password: "password",
		},
	}
}

// Load applies, in order: defaults, the config file at path (or
// DefaultConfigFile in the working directory when path is empty and the
// file exists), and environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}
	if err := loadFile(&cfg, path); err != nil {
		if explicit || !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	if err := loadFromEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(cfg *Config, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return fmt.Errorf("parse yaml: %w", err)
		}
	default:
		if _, err := toml.Decode(string(b), cfg); err != nil {
			return fmt.Errorf("parse toml: %w", err)
		}
	}
	return nil
}

func loadFromEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str("TASKTREE_STORE", &cfg.Store)
	str("TASKTREE_PATH", &cfg.Path)
	str("TASKTREE_KEY", &cfg.Key)
	str("TASKTREE_ADDR", &cfg.Addr)
	str("TASKTREE_LOG_LEVEL", &cfg.Log.Level)
	str("TASKTREE_LOG_FORMAT", &cfg.Log.Format)
	str("NEO4J_URI", &cfg.Neo4j.URI)
	str("NEO4J_USERNAME", &cfg.Neo4j.Username)
	str("NEO4J_PASSWORD", &cfg.Neo4j.Password)
	str("NEO4J_DATABASE", &cfg.Neo4j.Database)

	if v, ok := lookup("TASKTREE_PAGE_SIZE"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("TASKTREE_PAGE_SIZE: %w", err)
		}
		cfg.PageSize = n
	}
	if v, ok := lookup("TASKTREE_STRICT_COMPLETION"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("TASKTREE_STRICT_COMPLETION: %w", err)
		}
		cfg.StrictCompletion = b
	}
	return nil
}

// Validate checks that the settings are usable.
func (c Config) Validate() error {
	switch c.Store {
	case StoreFile, StoreSQLite, StoreNeo4j, StoreMemory:
	default:
		return fmt.Errorf("unknown store %q (want file, sqlite, neo4j or memory)", c.Store)
	}
	if (c.Store == StoreFile || c.Store == StoreSQLite) && strings.TrimSpace(c.Path) == "" {
		return fmt.Errorf("store %s requires a path", c.Store)
	}
	if c.PageSize < 1 {
		return fmt.Errorf("page_size must be positive, got %d", c.PageSize)
	}
	return nil
}

func defaultDataPath(name string) string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "tasktree", name)
	}
	return name
}
