package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Makepad-fr/todos/internal/model"
	"github.com/Makepad-fr/todos/internal/ui"
)

const emptyText = "No tasks found."

// listItem adapts a task to bubbles/list.Item
type listItem struct {
	task    model.Task
	pending bool
}

func (i listItem) FilterValue() string { return i.task.Title }

// Custom delegate to control how items render (single line)
type itemDelegate struct{}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(listItem)
	if !ok {
		return
	}
	t := ui.Current()

	box := t.Muted.Render(t.BoxUnchecked)
	text := ui.Truncate(it.task.Title, m.Width()-8)
	if it.task.Completed {
		box = t.Success.Render(t.BoxChecked)
		text = t.Done.Render(text)
	}
	if it.pending {
		text += " " + t.Muted.Render("…")
	}

	prefix := "  "
	if index == m.Index() {
		prefix = t.Selected.Render(">") + " "
	}
	fmt.Fprint(w, prefix+box+" "+text)
}

func (m *Model) View() string {
	t := ui.Current()
	done, open := m.tasks.Stats()

	var b strings.Builder
	b.WriteString(ui.Header(done, open) + "\n")
	b.WriteString(t.Muted.Render(ui.ProgressBar(done, done+open, 28)) + "\n\n")
	if m.tasks.Loading {
		b.WriteString(t.Muted.Render("loading...") + "\n")
	}
	if m.tasks.Err != "" {
		b.WriteString(t.Error.Render(m.tasks.Err) + "\n")
	}
	b.WriteString(m.inputView() + "\n")

	if m.tasks.Len() == 0 {
		b.WriteString(t.Error.Render(emptyText))
	} else {
		b.WriteString(m.list.View())
	}
	if m.notice != "" {
		b.WriteString("\n" + t.Accent.Render(m.notice))
	}
	return ui.PanelString(b.String())
}

func (m *Model) inputView() string {
	t := ui.Current()
	border := t.BorderColor
	if m.focus == focusInput {
		border = lipgloss.Color("12")
	}
	bar := lipgloss.NewStyle().
		Border(t.Border).
		BorderForeground(border).
		Padding(0, 1)
	return bar.Render(m.input.View())
}
