package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"speedguard/internal/config"
	"speedguard/internal/logger"
)

var (
	// ErrInvalidName is returned for file names that would escape the storage directories.
	ErrInvalidName = errors.New("invalid file name")
	// ErrTooLarge is returned when an upload exceeds the configured limit.
	ErrTooLarge = errors.New("file too large")
)

// FileService keeps uploaded videos and tracker files, and the annotated results.
type FileService struct {
	uploadDir string
	resultDir string
	maxBytes  int64
	retention time.Duration
	logger    *logger.Logger
}

func NewFileService(config *config.Config, logger *logger.Logger) (*FileService, error) {
	s := &FileService{
		uploadDir: config.UploadDirectory,
		resultDir: config.ResultDirectory,
		maxBytes:  config.MaxUploadMB << 20,
		retention: config.FileRetention,
		logger:    logger,
	}
	for _, dir := range []string{s.uploadDir, s.resultDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("error creating directory %s: %w", dir, err)
		}
	}
	return s, nil
}

// SaveUpload stores r under a unique name derived from the client's file name
// and returns the full path.
func (s *FileService) SaveUpload(name string, r io.Reader) (string, error) {
	base := filepath.Base(filepath.Clean("/" + name))
	if base == "/" || base == "." {
		base = "upload"
	}
	filename := fmt.Sprintf("%s_%s", uuid.New().String(), base)
	fullpath := filepath.Join(s.uploadDir, filename)

	f, err := os.Create(fullpath)
	if err != nil {
		return "", fmt.Errorf("error creating %s: %w", filename, err)
	}

	src := r
	if s.maxBytes > 0 {
		src = io.LimitReader(r, s.maxBytes+1)
	}
	n, err := io.Copy(f, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && s.maxBytes > 0 && n > s.maxBytes {
		err = ErrTooLarge
	}
	if err != nil {
		os.Remove(fullpath)
		return "", fmt.Errorf("error saving %s: %w", filename, err)
	}

	s.logger.Info("📥 Saved upload %s (%d bytes)", filename, n)
	return fullpath, nil
}

// ResultPath resolves a result file name inside the result directory.
func (s *FileService) ResultPath(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", ErrInvalidName
	}
	return filepath.Join(s.resultDir, name), nil
}

// Run prunes expired files on every tick until ctx is cancelled.
func (s *FileService) Run(ctx context.Context, interval time.Duration) {
	if s.retention <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Prune(time.Now())
		}
	}
}

// Prune removes uploads and results older than the retention period.
func (s *FileService) Prune(now time.Time) int {
	removed := 0
	for _, dir := range []string{s.uploadDir, s.resultDir} {
		entries, err := os.ReadDir(dir)
		if err != nil {
			s.logger.Error("Error reading directory %s: %v", dir, err)
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			info, err := entry.Info()
			if err != nil || now.Sub(info.ModTime()) < s.retention {
				continue
			}
			if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
				s.logger.Error("Error removing %s: %v", entry.Name(), err)
				continue
			}
			removed++
		}
	}

	if removed > 0 {
		s.logger.Info("🧹 Removed %d expired files", removed)
	}
	return removed
}

// Remove deletes an upload once its job no longer needs it.
func (s *FileService) Remove(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warning("⚠️  Could not remove %s: %v", filepath.Base(path), err)
	}
}
