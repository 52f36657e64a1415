package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"speedguard/internal/config"
)

func TestNewWriter_WritesAllLevels(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf)

	l.Info("track %d logged", 7)
	l.Warning("queue %s", "full")
	l.Error("smtp: %v", "timeout")

	out := buf.String()
	assert.Contains(t, out, "track 7 logged")
	assert.Contains(t, out, "queue full")
	assert.Contains(t, out, "smtp: timeout")
	assert.Empty(t, l.Dir())
}

func TestNewLogger_FilesPerLevel(t *testing.T) {
	dir := t.TempDir()
	l := NewLogger(&config.Config{LogDirectory: dir})

	l.Info("hello info")
	l.Error("hello error")

	info, err := os.ReadFile(filepath.Join(dir, "info.log"))
	require.NoError(t, err)
	assert.Contains(t, string(info), "hello info")

	errLog, err := os.ReadFile(filepath.Join(dir, "error.log"))
	require.NoError(t, err)
	assert.Contains(t, string(errLog), "hello error")
	assert.NotContains(t, string(errLog), "hello info")

	require.NoError(t, l.CleanLogs("error.log"))
	errLog, err = os.ReadFile(filepath.Join(dir, "error.log"))
	require.NoError(t, err)
	assert.Empty(t, errLog)
}
