// Package tui is the interactive task list: a text input for new tasks and
// a list that toggles and deletes them against the remote collection.
package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Makepad-fr/todos/internal/model"
	"github.com/Makepad-fr/todos/internal/tasklist"
)

type focus int

const (
	focusInput focus = iota
	focusList
)

// Model is the Bubble Tea model for the task list view.
type Model struct {
	store  Store
	logger *slog.Logger

	// ctx lives as long as the view; quitting cancels every request.
	ctx    context.Context
	cancel context.CancelFunc

	tasks *tasklist.List
	list  list.Model
	input textinput.Model
	keys  keyMap
	focus focus

	// Transient notice (edit affordance), cleared by noticeExpiredMsg.
	notice    string
	noticeSeq int

	width, height int
}

// New builds the view. Requests use a child of parent that is cancelled
// when the view quits or Close is called.
func New(parent context.Context, store Store, logger *slog.Logger) *Model {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	ctx, cancel := context.WithCancel(parent)
	keys := defaultKeys()

	l := list.New(nil, itemDelegate{}, 80, 14)
	l.SetShowTitle(false)
	l.SetShowHelp(true)
	l.SetShowPagination(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.SetStatusBarItemName("task", "tasks")
	l.FilterInput.Prompt = "/ "
	l.KeyMap.Quit.SetEnabled(false)
	l.KeyMap.ForceQuit.SetEnabled(false)
	// "d" deletes here; keep the rest of the default paging keys.
	l.KeyMap.NextPage = key.NewBinding(
		key.WithKeys("right", "l", "pgdown", "f"),
		key.WithHelp("→/l/pgdn", "next page"),
	)
	l.AdditionalShortHelpKeys = keys.listKeys
	l.AdditionalFullHelpKeys = keys.listKeys

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Add a task"
	ti.CharLimit = 200
	ti.Focus()

	return &Model{
		store:  store,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
		tasks:  tasklist.New(),
		list:   l,
		input:  ti,
		keys:   keys,
		focus:  focusInput,
	}
}

// Run starts the interactive view and blocks until the user quits.
func Run(ctx context.Context, store Store, logger *slog.Logger) error {
	m := New(ctx, store, logger)
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run view: %w", err)
	}
	return nil
}

// Close cancels outstanding requests. Results that arrive later are dropped.
func (m *Model) Close() { m.cancel() }

// Init loads the collection once.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.loadCmd(), textinput.Blink)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tasksLoadedMsg, taskCreatedMsg, taskUpdatedMsg, taskDeletedMsg, opFailedMsg:
		if m.ctx.Err() != nil {
			return m, nil
		}
		return m, m.reconcile(msg)

	case noticeExpiredMsg:
		if msg.seq == m.noticeSeq {
			m.notice = ""
		}
		return m, nil
	}

	return m, m.forward(msg)
}

// reconcile folds one request result into local state.
func (m *Model) reconcile(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tasksLoadedMsg:
		m.tasks.Replace(msg.tasks)
		m.logger.Info("tasks loaded", "count", len(msg.tasks))

	case taskCreatedMsg:
		m.tasks.Loading = false
		m.tasks.Append(msg.task)
		m.input.Reset()
		m.logger.Info("task created", "task_id", msg.task.ID.String())

	case taskUpdatedMsg:
		m.tasks.Finish(msg.id)
		m.tasks.Merge(msg.id, msg.patch)

	case taskDeletedMsg:
		m.tasks.Finish(msg.id)
		m.tasks.Remove(msg.id)

	case opFailedMsg:
		switch msg.op {
		case tasklist.OpCreate:
			m.tasks.Loading = false
		case tasklist.OpToggle, tasklist.OpDelete:
			m.tasks.Finish(msg.id)
		}
		if errors.Is(msg.err, context.Canceled) {
			return m.syncList()
		}
		m.tasks.Fail(msg.op)
		args := []any{"op", msg.op.String(), "op_id", msg.opID, "error", msg.err}
		if msg.id != "" {
			args = append(args, "task_id", msg.id.String())
		}
		m.logger.Error("request failed", args...)
	}
	return m.syncList()
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Abort) {
		return m, m.quit()
	}

	if m.focus == focusInput {
		switch {
		case key.Matches(msg, m.keys.Submit):
			return m, m.submit()
		case key.Matches(msg, m.keys.Focus), msg.Type == tea.KeyEsc:
			return m, m.setFocus(focusList)
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	// While filtering, keys belong to the filter input; esc clears a filter.
	if m.list.FilterState() == list.Filtering ||
		(m.list.FilterState() == list.FilterApplied && msg.Type == tea.KeyEsc) {
		return m, m.forward(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, m.quit()
	case key.Matches(msg, m.keys.Focus):
		return m, m.setFocus(focusInput)
	case key.Matches(msg, m.keys.Toggle):
		return m, m.toggleSelected()
	case key.Matches(msg, m.keys.Delete):
		return m, m.deleteSelected()
	case key.Matches(msg, m.keys.Edit):
		return m, m.editSelected()
	}
	return m, m.forward(msg)
}

// submit sends the input buffer as a new task. Blank input and submits
// while a create is in flight do nothing.
func (m *Model) submit() tea.Cmd {
	title := m.input.Value()
	// One create at a time: Loading doubles as the guard, so a second
	// enter while a create is in flight is dropped rather than queued.
	if strings.TrimSpace(title) == "" || m.tasks.Loading {
		return nil
	}
	m.tasks.Loading = true
	m.tasks.ClearError()
	return m.createCmd(title)
}

func (m *Model) toggleSelected() tea.Cmd {
	id, ok := m.selectedID()
	if !ok {
		return nil
	}
	t, ok := m.tasks.Find(id)
	if !ok || !m.tasks.Begin(id) {
		return nil
	}
	return tea.Batch(m.syncList(), m.toggleCmd(id, !t.Completed))
}

func (m *Model) deleteSelected() tea.Cmd {
	id, ok := m.selectedID()
	if !ok || !m.tasks.Begin(id) {
		return nil
	}
	return tea.Batch(m.syncList(), m.deleteCmd(id))
}

// editSelected only announces the intent; titles are not editable.
func (m *Model) editSelected() tea.Cmd {
	id, ok := m.selectedID()
	if !ok {
		return nil
	}
	m.noticeSeq++
	m.notice = "Edit task: " + id.String()
	return expireNotice(m.noticeSeq)
}

func (m *Model) selectedID() (model.ID, bool) {
	it, ok := m.list.SelectedItem().(listItem)
	if !ok {
		return "", false
	}
	return it.task.ID, true
}

func (m *Model) setFocus(f focus) tea.Cmd {
	m.focus = f
	if f == focusInput {
		return m.input.Focus()
	}
	m.input.Blur()
	return nil
}

func (m *Model) forward(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	if m.focus == focusInput {
		m.input, cmd = m.input.Update(msg)
		return cmd
	}
	m.list, cmd = m.list.Update(msg)
	return cmd
}

func (m *Model) quit() tea.Cmd {
	m.cancel()
	return tea.Quit
}

// syncList rebuilds the list rows from local state.
func (m *Model) syncList() tea.Cmd {
	tasks := m.tasks.Tasks()
	items := make([]list.Item, 0, len(tasks))
	for _, t := range tasks {
		items = append(items, listItem{task: t, pending: m.tasks.Pending(t.ID)})
	}
	cmd := m.list.SetItems(items)
	if n := len(m.list.VisibleItems()); n > 0 && m.list.Index() >= n {
		m.list.Select(n - 1)
	}
	return cmd
}

func (m *Model) resize() {
	w := m.width - 4
	if w < 20 {
		w = 20
	}
	h := m.height - 14
	if h < 3 {
		h = 3
	}
	m.list.SetSize(w, h)
	m.input.Width = w - 6
}
