package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// ErrNotFound is returned by Storage.Get for a missing key
var ErrNotFound = errors.New("key not found")

// Storage is a minimal key/value store
type Storage interface {
	Get(key string) ([]byte, error)
	Set(key string, data []byte) error
	Remove(key string) error
	Has(key string) bool
}

// FileStorage keeps one JSON file per key under a directory
type FileStorage struct {
	fs  afero.Fs
	dir string
}

// NewFileStorage creates a storage rooted at dir on fs
func NewFileStorage(fs afero.Fs, dir string) *FileStorage {
	return &FileStorage{fs: fs, dir: dir}
}

// Dir returns the storage directory
func (s *FileStorage) Dir() string {
	return s.dir
}

func (s *FileStorage) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// Get implements Storage
func (s *FileStorage) Get(key string) ([]byte, error) {
	data, err := afero.ReadFile(s.fs, s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return data, nil
}

// Set implements Storage. The write goes through a temp file and a rename so
// readers never see a partial record.
func (s *FileStorage) Set(key string, data []byte) error {
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	target := s.path(key)
	tmp := target + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := s.fs.Rename(tmp, target); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("failed to replace %s: %w", key, err)
	}
	return nil
}

// Remove implements Storage. Removing a missing key is not an error.
func (s *FileStorage) Remove(key string) error {
	err := s.fs.Remove(s.path(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}

// Has implements Storage
func (s *FileStorage) Has(key string) bool {
	ok, err := afero.Exists(s.fs, s.path(key))
	return err == nil && ok
}

// Watch calls fn whenever key is written or removed by any process. It
// blocks until ctx is done. Only works on the OS filesystem.
func (s *FileStorage) Watch(ctx context.Context, key string, fn func()) error {
	logger := zerolog.Ctx(ctx)

	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(s.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", s.dir, err)
	}

	target := filepath.Clean(s.path(key))
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				logger.Debug().Str("key", key).Str("op", event.Op.String()).Msg("session changed")
				fn()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn().Err(err).Msg("session watcher error")
		}
	}
}
