package config

import (
	"context"

	"tasktree/app/store"
)

// OpenStore builds the persistence backend selected by cfg.Store.
func OpenStore(ctx context.Context, cfg Config) (store.Store, error) {
	switch cfg.Store {
	case StoreMemory:
		return store.NewMemoryStore(), nil
	case StoreSQLite:
		st, err := store.NewSQLiteStore(cfg.Path, cfg.Key)
		if err != nil {
			return nil, err
		}
		return st, nil
	case StoreNeo4j:
		driver, err := InitNeo4j(ctx, cfg.Neo4j)
		if err != nil {
			return nil, err
		}
		return store.NewNeo4jStore(driver, cfg.Neo4j.Database), nil
	default:
		return store.NewFileStore(cfg.Path), nil
	}
}
