package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("nonsense"))
}

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Level: "info", Format: "json", Output: &buf})
	l.Debug("hidden")
	l.Error("create failed", "op", "create")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "create failed", entry["msg"])
	assert.Equal(t, "todos", entry["service"])
	assert.Equal(t, "create", entry["op"])
}

func TestNew_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Output: &buf})
	l.Info("loaded", "count", 3)
	assert.Contains(t, buf.String(), "msg=loaded")
	assert.Contains(t, buf.String(), "count=3")
}

func TestOpenFile_Appends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todos.log")
	for i := 0; i < 2; i++ {
		f, err := OpenFile(path)
		require.NoError(t, err)
		New(Options{Output: f}).Info("line")
		require.NoError(t, f.Close())
	}
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, bytes.Count(b, []byte("msg=line")))
}
