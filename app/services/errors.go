package services

import "errors"

var (
	ErrEmptyName          = errors.New("task name cannot be empty")
	ErrCircularDependency = errors.New("parent assignment creates a circular dependency")
	ErrParentNotFound     = errors.New("parent task does not exist")
	ErrTaskNotFound       = errors.New("task not found")
	ErrChildrenIncomplete = errors.New("task has children that are not done")
	ErrDuplicateID        = errors.New("duplicate task id")
)

// ErrorKind names the failure class of err, or returns "" for errors that
// did not originate from the task rules.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrEmptyName):
		return "EmptyName"
	case errors.Is(err, ErrCircularDependency):
		return "CircularDependency"
	case errors.Is(err, ErrParentNotFound):
		return "ParentNotFound"
	case errors.Is(err, ErrTaskNotFound):
		return "TaskNotFound"
	case errors.Is(err, ErrChildrenIncomplete):
		return "ChildrenIncomplete"
	case errors.Is(err, ErrDuplicateID):
		return "DuplicateID"
	default:
		return ""
	}
}

// IsBlocking reports whether err should interrupt the user rather than be
// shown as a passing notice.
func IsBlocking(err error) bool {
	return errors.Is(err, ErrCircularDependency) || errors.Is(err, ErrParentNotFound)
}
