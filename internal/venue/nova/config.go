// Package nova provides connectivity to the Phillip Nova mobile-control
// API: open positions, order history and futures order placement.
package nova

import (
	"fmt"
	"time"
)

// Config holds Nova connection configuration.
type Config struct {
	// Platform is the venue subdomain, e.g. "nova2".
	Platform string

	// BaseURL overrides the platform-derived URL. Used in tests.
	BaseURL string

	// InstrumentCode is the futures instrument, e.g. "F.BMD.FCPO".
	InstrumentCode string

	// Timeouts
	RequestTimeout time.Duration

	// Retry bound for read endpoints. Order placement is never retried.
	MaxRetries int

	// Rate limiting
	RequestsPerSecond int
}

// DefaultConfig returns default Nova configuration.
func DefaultConfig(platform string) Config {
	return Config{
		Platform:          platform,
		InstrumentCode:    "F.BMD.FCPO",
		RequestTimeout:    15 * time.Second,
		MaxRetries:        10,
		RequestsPerSecond: 5,
	}
}

// URL returns the service endpoint root.
func (c Config) URL() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	return fmt.Sprintf("https://%s.phillipmobile.com/MobileControlService.svc", c.Platform)
}
