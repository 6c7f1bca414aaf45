package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"tasktree/app/models"
	"tasktree/app/store"
)

// TaskService owns the ordered task collection and applies the task rules
// to it. Every mutation is followed by a snapshot written to the store.
type TaskService struct {
	mu     sync.RWMutex
	tasks  []models.Task
	store  store.Store
	newID  func() string
	logger *log.Logger
	strict bool
}

// Option configures a TaskService.
type Option func(*TaskService)

// WithIDGenerator replaces the UUID generator used for new tasks.
func WithIDGenerator(gen func() string) Option {
	return func(s *TaskService) { s.newID = gen }
}

// WithLogger sets the logger mutations are reported to.
func WithLogger(logger *log.Logger) Option {
	return func(s *TaskService) { s.logger = logger }
}

// WithStrictCompletion makes ToggleStatus refuse tasks whose direct
// children are not all done.
func WithStrictCompletion(strict bool) Option {
	return func(s *TaskService) { s.strict = strict }
}

// NewTaskService creates a new instance of TaskService with an empty
// collection. Call Load to read the stored snapshot.
func NewTaskService(st store.Store, opts ...Option) *TaskService {
	if st == nil {
		st = store.NewMemoryStore()
	}
	s := &TaskService{
		tasks:  []models.Task{},
		store:  st,
		newID:  uuid.NewString,
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the collection with the snapshot held by the store.
func (s *TaskService) Load(ctx context.Context) error {
	tasks, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load tasks: %w", err)
	}
	if err := s.Restore(tasks); err != nil {
		return fmt.Errorf("load tasks: %w", err)
	}
	s.logger.Debug("tasks loaded", "count", len(tasks))
	return nil
}

// Snapshot returns a deep copy of the collection in display order.
func (s *TaskService) Snapshot() []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.tasks)
}

// Restore replaces the collection. It does not write to the store.
func (s *TaskService) Restore(tasks []models.Task) error {
	seen := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		if seen[t.ID] {
			return fmt.Errorf("%w: %q", ErrDuplicateID, t.ID)
		}
		seen[t.ID] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = cloneAll(tasks)
	return nil
}

// CreateTask appends a new in-progress task. A nil or empty parentID
// creates a root task.
func (s *TaskService) CreateTask(ctx context.Context, name string, parentID *string) (models.Task, error) {
	if strings.TrimSpace(name) == "" {
		return models.Task{}, ErrEmptyName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.newID()

	var parent *string
	if parentID != nil && *parentID != "" {
		pid := *parentID
		parent = &pid
	}

	if parent != nil {
		if s.hasCircularDependency(id, *parent) {
			return models.Task{}, fmt.Errorf("%w: %s under %s", ErrCircularDependency, id, *parent)
		}
		if s.indexOf(*parent) < 0 {
			return models.Task{}, fmt.Errorf("%w: %s", ErrParentNotFound, *parent)
		}
	}

	task := models.Task{
		ID:       id,
		Name:     name,
		Status:   models.StatusInProgress,
		ParentID: parent,
	}
	s.tasks = append(s.tasks, task)
	s.logger.Debug("task created", "id", id, "parent", derefOr(parent, ""))

	return task.Clone(), s.persist(ctx)
}

// hasCircularDependency walks the ancestor chain starting at parentID and
// reports whether it reaches id.
func (s *TaskService) hasCircularDependency(id, parentID string) bool {
	if id == parentID {
		return true
	}
	visited := map[string]bool{}
	cur := parentID
	for {
		i := s.indexOf(cur)
		if i < 0 {
			return false
		}
		if s.tasks[i].ID == id {
			return true
		}
		// Restored data may already contain a loop that excludes id.
		if visited[cur] {
			return false
		}
		visited[cur] = true
		if s.tasks[i].ParentID == nil {
			return false
		}
		cur = *s.tasks[i].ParentID
	}
}

// RenameTask replaces a task's name. Any string is accepted.
func (s *TaskService) RenameTask(ctx context.Context, id, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	s.tasks[i].Name = name
	s.logger.Debug("task renamed", "id", id)
	return s.persist(ctx)
}

// ToggleExpanded flips whether a task's children are shown.
func (s *TaskService) ToggleExpanded(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	s.tasks[i].Expanded = !s.tasks[i].Expanded
	return s.persist(ctx)
}

// DeleteTask removes exactly one task and returns it. Its children keep
// their parentId and become unreachable from the roots.
func (s *TaskService) DeleteTask(ctx context.Context, id string) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return models.Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	deleted := s.tasks[i]
	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	s.logger.Debug("task deleted", "id", id)
	return deleted, s.persist(ctx)
}

// ToggleStatus completes a root task, or flips a child task between done
// and in progress. If that leaves every child of the task's parent done,
// the parent is marked complete. Grandparents are not revisited.
func (s *TaskService) ToggleStatus(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	if s.strict && !s.allChildrenDone(id) {
		return fmt.Errorf("%w: %s", ErrChildrenIncomplete, id)
	}

	task := &s.tasks[i]
	switch {
	case task.IsRoot():
		task.Status = models.StatusComplete
	case task.Status == models.StatusDone:
		task.Status = models.StatusInProgress
	default:
		task.Status = models.StatusDone
	}
	s.logger.Debug("task status toggled", "id", id, "status", task.Status)

	if task.ParentID != nil {
		parentID := *task.ParentID
		if p := s.indexOf(parentID); p >= 0 && s.allChildrenDone(parentID) {
			s.tasks[p].Status = models.StatusComplete
			s.logger.Debug("parent completed", "id", parentID)
		}
	}

	return s.persist(ctx)
}

// AllChildrenDone reports whether every direct child of parentID is done.
// A task without children qualifies.
func (s *TaskService) AllChildrenDone(parentID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.allChildrenDone(parentID)
}

func (s *TaskService) allChildrenDone(parentID string) bool {
	for _, t := range s.tasks {
		if t.ParentID != nil && *t.ParentID == parentID && t.Status != models.StatusDone {
			return false
		}
	}
	return true
}

// HasChildren reports whether any task names id as its parent.
func (s *TaskService) HasChildren(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.tasks {
		if t.ParentID != nil && *t.ParentID == id {
			return true
		}
	}
	return false
}

// CountInProgress counts in-progress tasks at every level.
func (s *TaskService) CountInProgress() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, t := range s.tasks {
		if t.Status == models.StatusInProgress {
			n++
		}
	}
	return n
}

// RootStats counts root tasks.
type RootStats struct {
	Total      int `json:"total"`
	InProgress int `json:"inProgress"`
}

// RootStats returns how many root tasks exist and how many are still in
// progress.
func (s *TaskService) RootStats() RootStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var st RootStats
	for _, t := range s.tasks {
		if !t.IsRoot() {
			continue
		}
		st.Total++
		if t.Status == models.StatusInProgress {
			st.InProgress++
		}
	}
	return st
}

// GetTask retrieves a single task by its ID.
func (s *TaskService) GetTask(id string) (models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexOf(id)
	if i < 0 {
		return models.Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	return s.tasks[i].Clone(), nil
}

// Query returns the tasks passing filter in collection order, restricted to
// root tasks when rootOnly is set.
func (s *TaskService) Query(filter models.StatusFilter, rootOnly bool) []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Task{}
	for _, t := range s.tasks {
		if rootOnly && !t.IsRoot() {
			continue
		}
		if filter.Match(t.Status) {
			out = append(out, t.Clone())
		}
	}
	return out
}

// Children returns the direct children of parentID passing filter.
func (s *TaskService) Children(parentID string, filter models.StatusFilter) []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Task{}
	for _, t := range s.tasks {
		if t.ParentID != nil && *t.ParentID == parentID && filter.Match(t.Status) {
			out = append(out, t.Clone())
		}
	}
	return out
}

// Page is one page of root tasks.
type Page struct {
	Tasks      []models.Task `json:"tasks"`
	Page       int           `json:"page"`
	PageSize   int           `json:"pageSize"`
	TotalPages int           `json:"totalPages"`
}

// ListRoots returns one page of the root tasks passing filter. The page
// count covers all root tasks regardless of the filter.
func (s *TaskService) ListRoots(filter models.StatusFilter, page, pageSize int) Page {
	roots := s.Query(filter, true)
	total := s.RootStats().Total
	return Page{
		Tasks:      Paginate(roots, page, pageSize),
		Page:       page,
		PageSize:   pageSize,
		TotalPages: TotalPages(total, pageSize),
	}
}

// Paginate returns tasks[(page-1)*pageSize : page*pageSize], clamped to the
// slice. Pages are numbered from 1.
func Paginate(tasks []models.Task, page, pageSize int) []models.Task {
	if page < 1 || pageSize < 1 {
		return []models.Task{}
	}
	start := (page - 1) * pageSize
	if start >= len(tasks) {
		return []models.Task{}
	}
	end := start + pageSize
	if end > len(tasks) {
		end = len(tasks)
	}
	return append([]models.Task{}, tasks[start:end]...)
}

// TotalPages returns how many pages of pageSize are needed for count items.
func TotalPages(count, pageSize int) int {
	if count <= 0 || pageSize < 1 {
		return 0
	}
	return (count + pageSize - 1) / pageSize
}

// persist must be called with the write lock held.
func (s *TaskService) persist(ctx context.Context) error {
	if err := s.store.Save(ctx, cloneAll(s.tasks)); err != nil {
		s.logger.Error("failed to persist tasks", "err", err)
		return fmt.Errorf("persist tasks: %w", err)
	}
	return nil
}

func (s *TaskService) indexOf(id string) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneAll(tasks []models.Task) []models.Task {
	out := make([]models.Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}

func derefOr(p *string, fallback string) string {
	if p == nil {
		return fallback
	}
	return *p
}
