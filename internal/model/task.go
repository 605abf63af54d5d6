package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ID identifies a task. It is assigned by the remote API and treated as
// opaque: the wire form may be a JSON number or a JSON string.
type ID string

func (id ID) String() string { return string(id) }

// UnmarshalJSON accepts numbers and strings.
func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*id = ""
		return nil
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("task id: %w", err)
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("task id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// MarshalJSON writes numeric-looking ids as numbers and everything else as
// strings. Task remembers ids that were numeric-looking strings on the wire.
func (id ID) MarshalJSON() ([]byte, error) {
	if isNumber(string(id)) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func isNumber(s string) bool {
	if s == "" {
		return false
	}
	var n json.Number
	return json.Unmarshal([]byte(s), &n) == nil
}

// Task is the domain model for a todo entry.
type Task struct {
	ID        ID
	Title     string
	Completed bool

	// quotedID is set when a numeric-looking id arrived as a JSON string,
	// so it is written back as a string.
	quotedID bool
}

type taskJSON struct {
	ID        json.RawMessage `json:"id"`
	Title     string          `json:"title"`
	Completed bool            `json:"completed"`
}

func (t *Task) UnmarshalJSON(b []byte) error {
	var w taskJSON
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	var id ID
	if len(w.ID) > 0 {
		if err := id.UnmarshalJSON(w.ID); err != nil {
			return err
		}
	}
	raw := bytes.TrimSpace(w.ID)
	*t = Task{
		ID:        id,
		Title:     w.Title,
		Completed: w.Completed,
		quotedID:  len(raw) > 0 && raw[0] == '"' && isNumber(string(id)),
	}
	return nil
}

// MarshalJSON writes the id in the JSON kind it was received in.
func (t Task) MarshalJSON() ([]byte, error) {
	var (
		id  []byte
		err error
	)
	if t.quotedID {
		id, err = json.Marshal(string(t.ID))
	} else {
		id, err = t.ID.MarshalJSON()
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(taskJSON{ID: id, Title: t.Title, Completed: t.Completed})
}

// TaskPatch is the server's answer to a completion update. Only the
// completion flag is taken from it; titles are never edited here.
type TaskPatch struct {
	Completed *bool `json:"completed,omitempty"`
}

// Apply merges p into t. An absent flag leaves t alone.
func (p TaskPatch) Apply(t Task) Task {
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	return t
}
