package venue

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// FileSessionSource reads the credential bundle from a JSON file that
// the external authenticator keeps current. The file is re-read on
// every call so a token refresh lands without coordination.
type FileSessionSource struct {
	path string

	mu   sync.Mutex
	last Session // served if a re-read fails mid-refresh
}

// NewFileSessionSource creates a session source backed by path.
func NewFileSessionSource(path string) *FileSessionSource {
	return &FileSessionSource{path: path}
}

// Session returns the current credential bundle.
func (f *FileSessionSource) Session(ctx context.Context) (Session, error) {
	select {
	case <-ctx.Done():
		return Session{}, ctx.Err()
	default:
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		f.mu.Lock()
		last := f.last
		f.mu.Unlock()
		if last.Valid() {
			return last, nil
		}
		return Session{}, fmt.Errorf("read session file: %w", err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return Session{}, fmt.Errorf("parse session file: %w", err)
	}
	if !s.Valid() {
		return Session{}, fmt.Errorf("session file %s is incomplete", f.path)
	}

	f.mu.Lock()
	f.last = s
	f.mu.Unlock()

	return s, nil
}

// StaticSessionSource serves a fixed session. Used in tests and paper mode.
type StaticSessionSource struct {
	S Session
}

// Session returns the fixed session.
func (s StaticSessionSource) Session(ctx context.Context) (Session, error) {
	return s.S, nil
}
