// Package store persists snapshots of the task collection.
package store

import (
	"context"

	"tasktree/app/models"
)

// DefaultKey is the slot snapshots are stored under in key-value backends.
const DefaultKey = "tasks"

// Store loads and saves full snapshots of the task collection. A backend
// with nothing stored yet loads an empty, non-nil slice.
type Store interface {
	Load(ctx context.Context) ([]models.Task, error)
	Save(ctx context.Context, tasks []models.Task) error
	Close() error
}

func cloneTasks(tasks []models.Task) []models.Task {
	out := make([]models.Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}
