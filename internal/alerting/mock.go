package alerting

import (
	"context"
	"sync"
)

// CapturedAlert is one alert received by a MockAlerter.
type CapturedAlert struct {
	Severity Severity
	Message  string
	Fields   map[string]string
}

// MockAlerter records alerts for assertions in tests.
type MockAlerter struct {
	mu      sync.Mutex
	alerts  []CapturedAlert
	FailErr error
}

func (m *MockAlerter) Alert(_ context.Context, severity Severity, message string, fields map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts = append(m.alerts, CapturedAlert{Severity: severity, Message: message, Fields: fields})
	return m.FailErr
}

// Alerts returns a copy of everything captured so far.
func (m *MockAlerter) Alerts() []CapturedAlert {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]CapturedAlert, len(m.alerts))
	copy(out, m.alerts)
	return out
}

// Reset clears captured alerts.
func (m *MockAlerter) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts = nil
}
