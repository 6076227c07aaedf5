package logger

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterLoggerFormatsPlainLines(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger(&buf)

	l.Info("events", "created event 42")

	out := buf.String()
	assert.Contains(t, out, "INFO")
	assert.Contains(t, out, "[EVENTS")
	assert.Contains(t, out, "created event 42")
	assert.NotContains(t, out, "\x1b[", "writer logger must not emit color codes")
}

func TestSetLevelDropsLowerEntries(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger(&buf)
	l.SetLevel(WARN)

	l.Debug("X", "debug line")
	l.Info("X", "info line")
	l.Warn("X", "warn line")

	assert.NotContains(t, buf.String(), "debug line")
	assert.NotContains(t, buf.String(), "info line")
	assert.Contains(t, buf.String(), "warn line")
}

func TestLogSync(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger(&buf)

	l.LogSync("event", "abc", "facebook.delete_post", errors.New("boom"))
	l.LogSync("event", "abc", "media.delete", nil)

	out := buf.String()
	assert.Contains(t, out, "WARN")
	assert.Contains(t, out, "facebook.delete_post failed (continuing): boom")
	assert.Contains(t, out, "media.delete ok")
}

func TestFatalCallsExit(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger(&buf)
	code := -1
	l.exit = func(c int) { code = c }

	l.Fatal("CONFIG", "MONGO_URI not set")

	assert.Equal(t, 1, code)
	assert.Contains(t, buf.String(), "FATAL")
}

func TestNilLoggerIsSafe(t *testing.T) {
	var l *Logger
	assert.NotPanics(t, func() {
		l.Info("X", "ignored")
		l.Close()
	})
}

func TestNewLoggerWritesJSONFile(t *testing.T) {
	dir := t.TempDir()
	l := NewLogger(dir)
	l.terminal = &bytes.Buffer{}

	l.Error("database", "connection lost")
	l.Close()

	matches, err := filepath.Glob(filepath.Join(dir, "aggies-attic-*.log"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	f, err := os.Open(matches[0])
	require.NoError(t, err)
	defer f.Close()

	var entries []LogEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e LogEntry
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &e))
		entries = append(entries, e)
	}
	require.NotEmpty(t, entries)

	found := false
	for _, e := range entries {
		if e.Category == "DATABASE" && e.Level == "ERROR" && e.Message == "connection lost" {
			found = true
		}
	}
	assert.True(t, found)
}
