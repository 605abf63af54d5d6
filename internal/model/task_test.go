package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestID_UnmarshalNumberAndString(t *testing.T) {
	var tasks []Task
	err := json.Unmarshal([]byte(`[
		{"id": 7, "title": "Buy milk", "completed": false},
		{"id": "a1b2", "title": "Walk dog", "completed": true}
	]`), &tasks)
	require.NoError(t, err)
	require.Len(t, tasks, 2)

	assert.Equal(t, ID("7"), tasks[0].ID)
	assert.Equal(t, ID("a1b2"), tasks[1].ID)
	assert.True(t, tasks[1].Completed)
}

func TestID_MarshalKeepsNumbers(t *testing.T) {
	b, err := json.Marshal(Task{ID: "7", Title: "Buy milk"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":7,"title":"Buy milk","completed":false}`, string(b))

	b, err = json.Marshal(Task{ID: "a1b2", Title: "Walk dog"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"a1b2","title":"Walk dog","completed":false}`, string(b))
}

func TestID_UnmarshalRejectsObjects(t *testing.T) {
	var id ID
	assert.Error(t, json.Unmarshal([]byte(`{"x":1}`), &id))
}

func TestTask_KeepsIDKindOnRoundTrip(t *testing.T) {
	for _, in := range []string{
		`{"id":"42","title":"Buy milk","completed":false}`,
		`{"id":42,"title":"Buy milk","completed":false}`,
		`{"id":"a1b2","title":"Buy milk","completed":true}`,
	} {
		var task Task
		require.NoError(t, json.Unmarshal([]byte(in), &task))
		out, err := json.Marshal(task)
		require.NoError(t, err)
		assert.JSONEq(t, in, string(out))
	}
}

func TestTask_QuotedIDSurvivesApply(t *testing.T) {
	var task Task
	require.NoError(t, json.Unmarshal([]byte(`{"id":"42","title":"Read","completed":false}`), &task))
	assert.Equal(t, ID("42"), task.ID)

	done := true
	out, err := json.Marshal(TaskPatch{Completed: &done}.Apply(task))
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"42","title":"Read","completed":true}`, string(out))
}

func TestTaskPatch_ApplyOnlyCompleted(t *testing.T) {
	orig := Task{ID: "3", Title: "Read", Completed: false}

	var p TaskPatch
	require.NoError(t, json.Unmarshal([]byte(`{"completed": true}`), &p))
	got := p.Apply(orig)
	assert.Equal(t, Task{ID: "3", Title: "Read", Completed: true}, got)

	// The echo may carry other fields; only the flag is merged.
	p = TaskPatch{}
	require.NoError(t, json.Unmarshal([]byte(`{"id": 99, "title": "Read more", "completed": false}`), &p))
	got = p.Apply(Task{ID: "3", Title: "Read", Completed: true})
	assert.Equal(t, Task{ID: "3", Title: "Read", Completed: false}, got)

	assert.Equal(t, orig, TaskPatch{}.Apply(orig))
}
