package storage

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"speedguard/internal/config"
	"speedguard/internal/logger"
)

func newTestService(t *testing.T, maxMB int64) *FileService {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		UploadDirectory: filepath.Join(dir, "uploads"),
		ResultDirectory: filepath.Join(dir, "results"),
		MaxUploadMB:     maxMB,
		FileRetention:   time.Hour,
	}
	s, err := NewFileService(cfg, logger.NewWriter(io.Discard))
	require.NoError(t, err)
	return s
}

func TestSaveUpload(t *testing.T) {
	s := newTestService(t, 1)

	path, err := s.SaveUpload("../../etc/road.mp4", strings.NewReader("video"))
	require.NoError(t, err)
	assert.Equal(t, s.uploadDir, filepath.Dir(path))
	assert.True(t, strings.HasSuffix(path, "_road.mp4"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "video", string(data))

	other, err := s.SaveUpload("road.mp4", strings.NewReader("video"))
	require.NoError(t, err)
	assert.NotEqual(t, path, other, "names are unique")
}

func TestSaveUpload_TooLarge(t *testing.T) {
	s := newTestService(t, 1)

	_, err := s.SaveUpload("big.mp4", strings.NewReader(strings.Repeat("x", 1<<20+1)))
	assert.ErrorIs(t, err, ErrTooLarge)

	entries, err := os.ReadDir(s.uploadDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "partial file removed")
}

func TestResultPath(t *testing.T) {
	s := newTestService(t, 0)

	path, err := s.ResultPath("abc.mp4")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.resultDir, "abc.mp4"), path)

	for _, name := range []string{"", "../secret.db", "a/b.mp4", ".hidden"} {
		_, err := s.ResultPath(name)
		assert.ErrorIs(t, err, ErrInvalidName, name)
	}
}

func TestPrune(t *testing.T) {
	s := newTestService(t, 0)
	now := time.Now()

	old := filepath.Join(s.resultDir, "old.mp4")
	fresh := filepath.Join(s.uploadDir, "fresh.mp4")
	require.NoError(t, os.WriteFile(old, []byte("x"), 0644))
	require.NoError(t, os.WriteFile(fresh, []byte("x"), 0644))
	require.NoError(t, os.Chtimes(old, now.Add(-2*time.Hour), now.Add(-2*time.Hour)))

	assert.Equal(t, 1, s.Prune(now))
	assert.NoFileExists(t, old)
	assert.FileExists(t, fresh)
}

func TestRemove(t *testing.T) {
	s := newTestService(t, 0)
	path, err := s.SaveUpload("a.csv", strings.NewReader("frame"))
	require.NoError(t, err)

	s.Remove(path)
	assert.NoFileExists(t, path)
	s.Remove(path)
	s.Remove("")
}
