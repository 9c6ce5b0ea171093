package alerting

import (
	"context"
	"log/slog"
)

// ConsoleAlerter writes alerts to the structured log. Used when no
// webhook is configured and as a local mirror alongside one.
type ConsoleAlerter struct {
	logger *slog.Logger
}

// NewConsoleAlerter creates a log-backed alerter.
func NewConsoleAlerter(logger *slog.Logger) *ConsoleAlerter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConsoleAlerter{logger: logger}
}

func (c *ConsoleAlerter) Alert(_ context.Context, severity Severity, message string, fields map[string]string) error {
	attrs := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		attrs = append(attrs, k, v)
	}

	switch severity {
	case SeverityCritical:
		c.logger.Error(message, attrs...)
	case SeverityWarning:
		c.logger.Warn(message, attrs...)
	default:
		c.logger.Info(message, attrs...)
	}

	return nil
}
