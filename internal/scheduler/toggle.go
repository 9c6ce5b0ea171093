package scheduler

import (
	"fmt"
	"os"
	"sync/atomic"
)

// ForceExitToggle gates the scheduled force-exit. The in-memory flag
// answers the hot path; a control file on disk makes the setting
// survive restarts.
type ForceExitToggle struct {
	path    string
	enabled atomic.Bool
}

// NewForceExitToggle creates a toggle backed by the control file at
// path. The initial state is whether the file exists.
func NewForceExitToggle(path string) *ForceExitToggle {
	t := &ForceExitToggle{path: path}
	if _, err := os.Stat(path); err == nil {
		t.enabled.Store(true)
	}
	return t
}

// Enabled reports whether scheduled force-exit is active.
func (t *ForceExitToggle) Enabled() bool {
	return t.enabled.Load()
}

// Enable turns scheduled force-exit on and persists the control file.
func (t *ForceExitToggle) Enable() error {
	if err := os.WriteFile(t.path, []byte("on\n"), 0o644); err != nil {
		return fmt.Errorf("write control file: %w", err)
	}
	t.enabled.Store(true)
	return nil
}

// Disable turns scheduled force-exit off and removes the control file.
func (t *ForceExitToggle) Disable() error {
	if err := os.Remove(t.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove control file: %w", err)
	}
	t.enabled.Store(false)
	return nil
}
