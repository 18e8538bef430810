package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.jsonl")
	logger, err := New(Config{Level: "debug", Encoding: EncodingJSON, OutputPaths: []string{path}})
	require.NoError(t, err)

	logger.Named("runner").Debug("run finished")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, "sheetplan.runner", entry["logger"])
	assert.Equal(t, "run finished", entry["message"])
	assert.Contains(t, entry, "timestamp")
}

func TestNewFiltersByLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.jsonl")
	logger, err := New(Config{Level: "warn", Encoding: EncodingJSON, OutputPaths: []string{path}})
	require.NoError(t, err)

	logger.Info("dropped")
	logger.Warn("kept")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "dropped")
	assert.Contains(t, string(data), "kept")
}

func TestNewRejectsBadConfig(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	assert.Error(t, err)

	_, err = New(Config{Encoding: "xml"})
	assert.Error(t, err)
}

func TestNewDefaults(t *testing.T) {
	logger, err := New(Config{})
	require.NoError(t, err)
	assert.NotNil(t, logger)
	assert.NotNil(t, Nop())
}
