package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Status is the completion state of a task.
type Status string

const (
	StatusInProgress Status = "IN PROGRESS"
	StatusDone       Status = "DONE"
	StatusComplete   Status = "COMPLETE"
)

// ParseStatus validates and parses a status string. The underscore spelling
// of the in-progress literal is accepted as well.
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusInProgress, StatusDone, StatusComplete:
		return Status(s), true
	case "IN_PROGRESS":
		return StatusInProgress, true
	default:
		return "", false
	}
}

func (s *Status) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	parsed, ok := ParseStatus(raw)
	if !ok {
		return fmt.Errorf("unknown status %q", raw)
	}
	*s = parsed
	return nil
}

// StatusFilter selects tasks by status when listing.
type StatusFilter string

const (
	FilterAll        StatusFilter = "ALL"
	FilterInProgress StatusFilter = StatusFilter(StatusInProgress)
	FilterComplete   StatusFilter = StatusFilter(StatusComplete)
)

// ParseStatusFilter accepts ALL, IN PROGRESS (or IN_PROGRESS) and COMPLETE,
// case-insensitively. An empty string means ALL.
func ParseStatusFilter(s string) (StatusFilter, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "ALL":
		return FilterAll, nil
	case "IN PROGRESS", "IN_PROGRESS", "IN-PROGRESS":
		return FilterInProgress, nil
	case "COMPLETE":
		return FilterComplete, nil
	default:
		return "", fmt.Errorf("invalid status filter %q", s)
	}
}

// Match reports whether a task with status st passes the filter.
func (f StatusFilter) Match(st Status) bool {
	return f == FilterAll || f == "" || Status(f) == st
}

// Task represents a task with optional parent ID.
type Task struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Status   Status  `json:"status"`
	ParentID *string `json:"parentId,omitempty"`
	Expanded bool    `json:"expanded"`
}

// IsRoot reports whether the task has no parent.
func (t Task) IsRoot() bool {
	return t.ParentID == nil
}

// Clone returns a copy that shares no pointers with t.
func (t Task) Clone() Task {
	if t.ParentID != nil {
		pid := *t.ParentID
		t.ParentID = &pid
	}
	return t
}

// UnmarshalJSON also reads snapshots written before the expanded flag was
// renamed from showNoTaskMessage.
func (t *Task) UnmarshalJSON(b []byte) error {
	type plain Task
	var aux struct {
		plain
		Expanded          *bool `json:"expanded"`
		ShowNoTaskMessage *bool `json:"showNoTaskMessage"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*t = Task(aux.plain)
	switch {
	case aux.Expanded != nil:
		t.Expanded = *aux.Expanded
	case aux.ShowNoTaskMessage != nil:
		t.Expanded = *aux.ShowNoTaskMessage
	}
	if t.ParentID != nil && *t.ParentID == "" {
		t.ParentID = nil
	}
	return nil
}
