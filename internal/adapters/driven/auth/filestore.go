package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	json "github.com/goccy/go-json"

	"github.com/custodia-labs/stockline/internal/core/domain"
	"github.com/custodia-labs/stockline/internal/core/ports/driven"
	"github.com/custodia-labs/stockline/internal/logger"
)

// Ensure FileTokenStore implements the interface.
var _ driven.TokenStore = (*FileTokenStore)(nil)

// FileTokenStore keeps the token in a JSON file readable only by the owner.
// The parsed token is cached until the file changes on disk.
type FileTokenStore struct {
	path string

	mu      sync.Mutex
	cached  *domain.AuthToken
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewFileTokenStore creates a store at dir/token.json.
// If dir is empty, defaults to ~/.stockline.
func NewFileTokenStore(dir string) (*FileTokenStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(home, ".stockline")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}
	return &FileTokenStore{path: filepath.Join(dir, "token.json")}, nil
}

// Path returns the token file path.
func (s *FileTokenStore) Path() string {
	return s.path
}

// Load returns the stored token or domain.ErrAuthRequired.
func (s *FileTokenStore) Load(_ context.Context) (domain.AuthToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached != nil {
		return *s.cached, nil
	}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return domain.AuthToken{}, domain.ErrAuthRequired
	}
	if err != nil {
		return domain.AuthToken{}, fmt.Errorf("read token: %w", err)
	}
	var token domain.AuthToken
	if err := json.Unmarshal(data, &token); err != nil {
		return domain.AuthToken{}, fmt.Errorf("decode token: %w", err)
	}
	if token.AccessToken == "" {
		return domain.AuthToken{}, domain.ErrAuthRequired
	}
	s.cached = &token
	return token, nil
}

// Save writes token with restricted permissions.
func (s *FileTokenStore) Save(_ context.Context, token domain.AuthToken) error {
	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	s.cached = &token
	return nil
}

// Clear removes the token file.
func (s *FileTokenStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cached = nil
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove token: %w", err)
	}
	return nil
}

// Watch drops the cached token whenever the file is written, replaced or
// removed by another process. It watches the directory since Save replaces
// the file by rename.
func (s *FileTokenStore) Watch() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watcher != nil {
		return nil
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(s.path)); err != nil {
		w.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(s.path), err)
	}
	s.watcher = w
	s.done = make(chan struct{})
	go s.watchLoop(w, s.done)
	return nil
}

func (s *FileTokenStore) watchLoop(w *fsnotify.Watcher, done chan struct{}) {
	defer close(done)
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != s.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			s.mu.Lock()
			s.cached = nil
			s.mu.Unlock()
			logger.Debug("auth: token file changed (%s)", ev.Op)
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			logger.Warn("auth: token watcher: %v", err)
		}
	}
}

// Close stops watching.
func (s *FileTokenStore) Close() error {
	s.mu.Lock()
	w, done := s.watcher, s.done
	s.watcher, s.done = nil, nil
	s.mu.Unlock()
	if w == nil {
		return nil
	}
	err := w.Close()
	<-done
	return err
}
