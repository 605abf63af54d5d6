package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/Makepad-fr/todos/internal/model"
	"github.com/Makepad-fr/todos/internal/tasklist"
)

// Store is the remote task collection the view drives.
type Store interface {
	List(ctx context.Context) ([]model.Task, error)
	Create(ctx context.Context, title string) (model.Task, error)
	SetCompleted(ctx context.Context, id model.ID, completed bool) (model.TaskPatch, error)
	Delete(ctx context.Context, id model.ID) error
}

// Message types
type tasksLoadedMsg struct{ tasks []model.Task }
type taskCreatedMsg struct{ task model.Task }
type taskUpdatedMsg struct {
	id    model.ID
	patch model.TaskPatch
}
type taskDeletedMsg struct{ id model.ID }

// opFailedMsg carries a failed request back to Update. opID ties the
// failure log line to the line logged when the request was sent.
type opFailedMsg struct {
	op   tasklist.Op
	id   model.ID
	opID string
	err  error
}

type noticeExpiredMsg struct{ seq int }

const noticeTTL = 3 * time.Second

func (m *Model) loadCmd() tea.Cmd {
	ctx, store := m.ctx, m.store
	opID := m.begin(tasklist.OpLoad, "")
	return func() tea.Msg {
		tasks, err := store.List(ctx)
		if err != nil {
			return opFailedMsg{op: tasklist.OpLoad, opID: opID, err: err}
		}
		return tasksLoadedMsg{tasks: tasks}
	}
}

func (m *Model) createCmd(title string) tea.Cmd {
	ctx, store := m.ctx, m.store
	opID := m.begin(tasklist.OpCreate, "")
	return func() tea.Msg {
		t, err := store.Create(ctx, title)
		if err != nil {
			return opFailedMsg{op: tasklist.OpCreate, opID: opID, err: err}
		}
		return taskCreatedMsg{task: t}
	}
}

func (m *Model) toggleCmd(id model.ID, completed bool) tea.Cmd {
	ctx, store := m.ctx, m.store
	opID := m.begin(tasklist.OpToggle, id)
	return func() tea.Msg {
		p, err := store.SetCompleted(ctx, id, completed)
		if err != nil {
			return opFailedMsg{op: tasklist.OpToggle, id: id, opID: opID, err: err}
		}
		return taskUpdatedMsg{id: id, patch: p}
	}
}

func (m *Model) deleteCmd(id model.ID) tea.Cmd {
	ctx, store := m.ctx, m.store
	opID := m.begin(tasklist.OpDelete, id)
	return func() tea.Msg {
		if err := store.Delete(ctx, id); err != nil {
			return opFailedMsg{op: tasklist.OpDelete, id: id, opID: opID, err: err}
		}
		return taskDeletedMsg{id: id}
	}
}

func expireNotice(seq int) tea.Cmd {
	return tea.Tick(noticeTTL, func(time.Time) tea.Msg { return noticeExpiredMsg{seq: seq} })
}

// begin logs the request and returns its correlation id.
func (m *Model) begin(op tasklist.Op, id model.ID) string {
	opID := uuid.NewString()
	args := []any{"op", op.String(), "op_id", opID}
	if id != "" {
		args = append(args, "task_id", id.String())
	}
	m.logger.Debug("request sent", args...)
	return opID
}
