package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"tasktree/app/models"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("69"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	selectedStyle = lipgloss.NewStyle().Reverse(true).Bold(true)
	noticeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	alertStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("196")).
			Padding(0, 1)
)

func (m Model) View() string {
	var b strings.Builder

	stats := m.svc.RootStats()
	total := m.totalPages()
	page := m.page
	if total == 0 {
		page = 0
	}
	fmt.Fprintf(&b, "%s  %d / %d   %s   %s\n\n",
		titleStyle.Render("Tasks"),
		stats.InProgress, stats.Total,
		mutedStyle.Render("filter: "+string(m.filter)),
		mutedStyle.Render(fmt.Sprintf("page %d of %d", page, total)),
	)

	if len(m.rows) == 0 {
		b.WriteString(mutedStyle.Render("No tasks."))
		b.WriteString("\n")
	}
	for i, r := range m.rows {
		line := renderRow(m, r)
		if i == m.cursor {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
		if r.noChildren {
			b.WriteString(strings.Repeat("  ", r.depth+1))
			b.WriteString(mutedStyle.Render("No Task"))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	switch m.mode {
	case modeAdd:
		label := "New task"
		if m.pendingParent != nil {
			label = "New subtask"
		}
		fmt.Fprintf(&b, "%s: %s\n", label, m.input.View())
	case modeRename:
		fmt.Fprintf(&b, "Rename: %s\n", m.input.View())
	}

	if m.alert != "" {
		b.WriteString(alertStyle.Render(m.alert + "\n" + mutedStyle.Render("press any key")))
		b.WriteString("\n")
	} else if m.notice != "" {
		b.WriteString(noticeStyle.Render(m.notice))
		b.WriteString("\n")
	}

	b.WriteString(mutedStyle.Render(helpLine(m.mode)))
	return b.String()
}

func renderRow(m Model, r row) string {
	indicator := "+"
	if r.task.Expanded {
		indicator = "-"
	}
	return fmt.Sprintf("%s%s %s %s %s",
		strings.Repeat("  ", r.depth),
		indicator,
		checkbox(m, r.task),
		r.task.Name,
		mutedStyle.Render(string(r.task.Status)),
	)
}

// checkbox shows the completion state, or a lock while subtasks are open.
func checkbox(m Model, t models.Task) string {
	if t.Status == models.StatusDone || t.Status == models.StatusComplete {
		return "[x]"
	}
	if !m.svc.AllChildrenDone(t.ID) {
		return "[-]"
	}
	return "[ ]"
}

func helpLine(mode inputMode) string {
	if mode != modeBrowse {
		return "enter: save • esc: cancel"
	}
	return "↑/↓: move • ←/→: page • enter: expand • x: done • a: add • c: add subtask • r: rename • d: delete • f: filter • q: quit"
}
