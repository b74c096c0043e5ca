package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		name      string
		verbose   bool
		wantDebug bool
	}{
		{name: "quiet by default", verbose: false, wantDebug: false},
		{name: "verbose enables debug", verbose: true, wantDebug: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := New(Config{Verbose: tt.verbose, Output: &buf})

			logger.Debug("scanned content", "files", 3)
			logger.Warn("ignoring unreadable .gitignore")

			assert.Equal(t, tt.wantDebug, bytes.Contains(buf.Bytes(), []byte("scanned content")))
			assert.Contains(t, buf.String(), "ignoring unreadable .gitignore")
		})
	}
}

func TestNewJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Format: FormatJSON, Output: &buf})
	logger.Warn("file watcher error", "error", "boom")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "file watcher error", entry["msg"])
	assert.Equal(t, "boom", entry["error"])
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	assert.False(t, logger.Enabled(t.Context(), slog.LevelError))
}
