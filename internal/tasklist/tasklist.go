// Package tasklist holds the local view of the remote task collection and
// the rules for folding server responses back into it.
package tasklist

import "github.com/Makepad-fr/todos/internal/model"

// Op names a user-facing operation against the remote collection.
type Op int

const (
	OpLoad Op = iota
	OpCreate
	OpToggle
	OpDelete
)

func (o Op) String() string {
	switch o {
	case OpLoad:
		return "load"
	case OpCreate:
		return "create"
	case OpToggle:
		return "toggle"
	case OpDelete:
		return "delete"
	}
	return "unknown"
}

// Messages shown in the error slot. Causes are logged, never displayed.
const (
	MsgCreateFailed = "An error occurred while adding the task."
	MsgToggleFailed = "An error occurred while updating the task."
	MsgDeleteFailed = "An error occurred while deleting the task."
)

// Message returns the error slot text for a failed op. Load failures
// are not surfaced, so OpLoad yields "".
func (o Op) Message() string {
	switch o {
	case OpCreate:
		return MsgCreateFailed
	case OpToggle:
		return MsgToggleFailed
	case OpDelete:
		return MsgDeleteFailed
	}
	return ""
}

// List is an ordered task list plus the status the view renders next to it.
// Not safe for concurrent use; the view mutates it from a single loop.
type List struct {
	tasks   []model.Task
	pending map[model.ID]struct{}

	// Loading is set while a create is in flight.
	Loading bool
	// Err holds at most one human-readable message.
	Err string
}

func New() *List {
	return &List{pending: make(map[model.ID]struct{})}
}

// Tasks returns a copy of the tasks in display order.
func (l *List) Tasks() []model.Task {
	out := make([]model.Task, len(l.tasks))
	copy(out, l.tasks)
	return out
}

func (l *List) Len() int { return len(l.tasks) }

// Replace swaps the whole list for tasks, keeping server order.
func (l *List) Replace(tasks []model.Task) {
	l.tasks = make([]model.Task, len(tasks))
	copy(l.tasks, tasks)
}

// Find looks a task up by id.
func (l *List) Find(id model.ID) (model.Task, bool) {
	if i := l.index(id); i >= 0 {
		return l.tasks[i], true
	}
	return model.Task{}, false
}

// Append adds a newly created task at the end.
func (l *List) Append(t model.Task) {
	l.tasks = append(l.tasks, t)
}

// Merge folds a server patch into every task with the given id.
// It reports whether any task was updated.
func (l *List) Merge(id model.ID, p model.TaskPatch) bool {
	found := false
	for i := range l.tasks {
		if l.tasks[i].ID == id {
			l.tasks[i] = p.Apply(l.tasks[i])
			found = true
		}
	}
	return found
}

// Remove drops every task with the given id, keeping the order of the rest.
func (l *List) Remove(id model.ID) bool {
	kept := l.tasks[:0]
	for _, t := range l.tasks {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	removed := len(kept) != len(l.tasks)
	clear(l.tasks[len(kept):])
	l.tasks = kept
	return removed
}

// Begin marks id as having a request in flight. It returns false when one
// is already outstanding, in which case the caller must not send another.
func (l *List) Begin(id model.ID) bool {
	if _, busy := l.pending[id]; busy {
		return false
	}
	l.pending[id] = struct{}{}
	return true
}

// Finish clears the in-flight mark for id.
func (l *List) Finish(id model.ID) { delete(l.pending, id) }

// Pending reports whether a request for id is outstanding.
func (l *List) Pending(id model.ID) bool {
	_, busy := l.pending[id]
	return busy
}

// Fail records the message for a failed op, overwriting any previous one.
func (l *List) Fail(op Op) {
	if msg := op.Message(); msg != "" {
		l.Err = msg
	}
}

func (l *List) ClearError() { l.Err = "" }

// Stats counts completed and open tasks.
func (l *List) Stats() (done, open int) {
	return Stats(l.tasks)
}

// Stats counts completed and open tasks in tasks.
func Stats(tasks []model.Task) (done, open int) {
	for _, t := range tasks {
		if t.Completed {
			done++
		} else {
			open++
		}
	}
	return
}

func (l *List) index(id model.ID) int {
	for i, t := range l.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}
