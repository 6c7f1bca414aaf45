// Package tui is an interactive terminal front end for the task service.
package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"tasktree/app/models"
	"tasktree/app/services"
)

type inputMode int

const (
	modeBrowse inputMode = iota
	modeAdd
	modeRename
)

var filterCycle = []models.StatusFilter{models.FilterAll, models.FilterInProgress, models.FilterComplete}

// row is one visible line of the flattened tree.
type row struct {
	task       models.Task
	depth      int
	noChildren bool
}

type Model struct {
	ctx      context.Context
	svc      *services.TaskService
	pageSize int

	page   int
	filter models.StatusFilter
	rows   []row
	cursor int

	mode          inputMode
	input         textinput.Model
	pendingParent *string
	renamingID    string

	notice string
	alert  string
	width  int
}

// NewModel creates a model browsing svc, pageSize root tasks at a time.
func NewModel(ctx context.Context, svc *services.TaskService, pageSize int) Model {
	if pageSize < 1 {
		pageSize = 20
	}
	in := textinput.New()
	in.Placeholder = "Task Name"
	in.CharLimit = 256

	m := Model{
		ctx:      ctx,
		svc:      svc,
		pageSize: pageSize,
		page:     1,
		filter:   models.FilterAll,
		input:    in,
	}
	m.refresh()
	return m
}

// Start runs the interactive program until the user quits.
func Start(ctx context.Context, svc *services.TaskService, pageSize int) error {
	program := tea.NewProgram(NewModel(ctx, svc, pageSize), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.alert != "" {
			m.alert = ""
			return m, nil
		}
		if m.mode != modeBrowse {
			return m.updateInput(msg)
		}
		return m.updateBrowse(msg)
	}
	return m, nil
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.notice = ""
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
	case "left", "h":
		if m.page > 1 {
			m.page--
			m.cursor = 0
			m.refresh()
		}
	case "right", "l":
		if m.page < m.totalPages() {
			m.page++
			m.cursor = 0
			m.refresh()
		}
	case "f":
		m.filter = nextFilter(m.filter)
		m.page = 1
		m.cursor = 0
		m.refresh()
	case "enter", " ":
		if t, ok := m.selected(); ok {
			m.report(m.svc.ToggleExpanded(m.ctx, t.ID))
		}
	case "x":
		if t, ok := m.selected(); ok {
			if !m.svc.AllChildrenDone(t.ID) {
				m.notice = fmt.Sprintf("Finish the subtasks of %q first.", t.Name)
				break
			}
			m.report(m.svc.ToggleStatus(m.ctx, t.ID))
		}
	case "a":
		return m.beginInput(modeAdd, nil, "")
	case "c":
		if t, ok := m.selected(); ok {
			id := t.ID
			return m.beginInput(modeAdd, &id, "")
		}
	case "r":
		if t, ok := m.selected(); ok {
			m.renamingID = t.ID
			return m.beginInput(modeRename, nil, t.Name)
		}
	case "d":
		if t, ok := m.selected(); ok {
			deleted, err := m.svc.DeleteTask(m.ctx, t.ID)
			if m.pendingParent != nil && *m.pendingParent == t.ID {
				m.pendingParent = nil
			}
			if err == nil {
				m.notice = fmt.Sprintf("Task %q deleted!", deleted.Name)
			}
			m.report(err)
		}
	}
	return m, nil
}

func (m Model) beginInput(mode inputMode, parentID *string, value string) (tea.Model, tea.Cmd) {
	m.mode = mode
	m.pendingParent = parentID
	m.input.SetValue(value)
	m.input.CursorEnd()
	return m, m.input.Focus()
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.endInput()
		return m, nil
	case tea.KeyEnter:
		value := m.input.Value()
		switch m.mode {
		case modeAdd:
			task, err := m.svc.CreateTask(m.ctx, value, m.pendingParent)
			if errors.Is(err, services.ErrEmptyName) {
				// Keep the input open so the name can be fixed.
				m.report(err)
				return m, nil
			}
			if err == nil {
				if m.pendingParent != nil {
					m.expandParent(*m.pendingParent)
				}
				m.notice = fmt.Sprintf("New Task %q created!", task.Name)
			}
			m.report(err)
		case modeRename:
			m.report(m.svc.RenameTask(m.ctx, m.renamingID, value))
		}
		m.endInput()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) endInput() {
	m.mode = modeBrowse
	m.pendingParent = nil
	m.renamingID = ""
	m.input.Blur()
	m.input.SetValue("")
}

// expandParent opens a collapsed parent so a newly added child is visible.
func (m *Model) expandParent(id string) {
	parent, err := m.svc.GetTask(id)
	if err != nil || parent.Expanded {
		return
	}
	m.report(m.svc.ToggleExpanded(m.ctx, id))
}

// report surfaces err and rebuilds the visible rows.
func (m *Model) report(err error) {
	switch {
	case err == nil:
	case services.IsBlocking(err):
		m.alert = alertText(err)
	case errors.Is(err, services.ErrEmptyName):
		m.notice = "Task name cannot be empty!"
	default:
		m.notice = err.Error()
	}
	m.refresh()
}

func alertText(err error) string {
	if errors.Is(err, services.ErrCircularDependency) {
		return "Cannot set this parent task as it creates a circular dependency."
	}
	return "Selected parent task does not exist."
}

func (m Model) selected() (models.Task, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return models.Task{}, false
	}
	return m.rows[m.cursor].task, true
}

func (m Model) totalPages() int {
	return services.TotalPages(m.svc.RootStats().Total, m.pageSize)
}

// refresh rebuilds rows from the service: one page of roots, with the
// children of expanded tasks nested beneath them.
func (m *Model) refresh() {
	if total := m.totalPages(); total > 0 && m.page > total {
		m.page = total
	}
	page := m.svc.ListRoots(m.filter, m.page, m.pageSize)

	m.rows = nil
	visited := map[string]bool{}
	for _, t := range page.Tasks {
		m.appendRows(t, 0, visited)
	}
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) appendRows(t models.Task, depth int, visited map[string]bool) {
	if visited[t.ID] {
		return
	}
	visited[t.ID] = true

	r := row{task: t, depth: depth}
	if t.Expanded {
		r.noChildren = !m.svc.HasChildren(t.ID)
	}
	m.rows = append(m.rows, r)
	if !t.Expanded {
		return
	}
	for _, child := range m.svc.Children(t.ID, m.filter) {
		m.appendRows(child, depth+1, visited)
	}
}

func nextFilter(cur models.StatusFilter) models.StatusFilter {
	for i, f := range filterCycle {
		if f == cur {
			return filterCycle[(i+1)%len(filterCycle)]
		}
	}
	return models.FilterAll
}
