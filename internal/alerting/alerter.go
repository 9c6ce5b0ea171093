package alerting

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Severity indicates how urgent an alert is.
type Severity string

const (
	SeverityInfo     Severity = "INFO"
	SeverityWarning  Severity = "WARNING"
	SeverityCritical Severity = "CRITICAL"
)

// Alerter delivers operational notifications. Implementations must be
// safe for concurrent use; delivery failures are the caller's to log,
// never to retry trading decisions over.
type Alerter interface {
	Alert(ctx context.Context, severity Severity, message string, fields map[string]string) error
}

// FormatFields renders a fields map as "key=value" pairs in stable
// order for appending to a message.
func FormatFields(fields map[string]string) string {
	if len(fields) == 0 {
		return ""
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, fields[k]))
	}
	return strings.Join(parts, " ")
}
