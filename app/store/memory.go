package store

import (
	"context"
	"sync"

	"tasktree/app/models"
)

// MemoryStore keeps the last saved snapshot in memory.
type MemoryStore struct {
	mu    sync.Mutex
	tasks []models.Task
	saves int
}

// NewMemoryStore creates a MemoryStore seeded with tasks.
func NewMemoryStore(tasks ...models.Task) *MemoryStore {
	return &MemoryStore{tasks: cloneTasks(tasks)}
}

func (s *MemoryStore) Load(ctx context.Context) ([]models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneTasks(s.tasks), nil
}

func (s *MemoryStore) Save(ctx context.Context, tasks []models.Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = cloneTasks(tasks)
	s.saves++
	return nil
}

// Saves returns how many snapshots have been written.
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

func (s *MemoryStore) Close() error { return nil }
