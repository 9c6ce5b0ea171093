// Package config handles configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/ericyong81/nova-trader/internal/types"
)

// Config represents the full application configuration.
type Config struct {
	Venue       VenueConfig       `yaml:"venue"`
	Trading     TradingConfig     `yaml:"trading"`
	Calendar    CalendarConfig    `yaml:"calendar"`
	Execution   ExecutionConfig   `yaml:"execution"`
	Persistence PersistenceConfig `yaml:"persistence"`
	Alerting    AlertingConfig    `yaml:"alerting"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Server      ServerConfig      `yaml:"server"`
	Scheduler   SchedulerConfig   `yaml:"scheduler"`
}

// VenueConfig holds venue connectivity settings.
type VenueConfig struct {
	Platform          string `yaml:"platform"`     // subdomain, e.g. "nova2"
	SessionFile       string `yaml:"session_file"` // credential bundle maintained by the authenticator
	RequestTimeoutSec int    `yaml:"request_timeout_sec"`
	MaxRetries        int    `yaml:"max_retries"`
	RequestsPerSecond int    `yaml:"requests_per_second"`
}

// TradingConfig holds instrument settings.
type TradingConfig struct {
	Symbol             string  `yaml:"symbol"`
	InstrumentCode     string  `yaml:"instrument_code"` // e.g. "F.BMD.FCPO"
	DefaultSeriesCode  string  `yaml:"default_series_code"`
	DefaultLotSize     int     `yaml:"default_lot_size"`
	ContractMultiplier float64 `yaml:"contract_multiplier"` // currency per point per lot
}

// CalendarConfig holds the market close schedule.
type CalendarConfig struct {
	Timezone          string              `yaml:"timezone"`
	ClosingTimes      map[string][]string `yaml:"closing_times"` // weekday name -> "HH:MM" closes
	TradeGuardMin     int                 `yaml:"trade_guard_min"`
	ForceExitGuardMin int                 `yaml:"force_exit_guard_min"`
}

// ExecutionConfig holds retry and confirmation settings.
type ExecutionConfig struct {
	FeedCheckRetries       int `yaml:"feed_check_retries"`
	FeedCheckDelaySec      int `yaml:"feed_check_delay_sec"`
	FillConfirmAttempts    int `yaml:"fill_confirm_attempts"`
	FillConfirmDelaySec    int `yaml:"fill_confirm_delay_sec"`
	HistoryConfirmAttempts int `yaml:"history_confirm_attempts"`
	HistoryConfirmDelaySec int `yaml:"history_confirm_delay_sec"`
}

// PersistenceConfig holds ledger store settings.
type PersistenceConfig struct {
	Path string `yaml:"path"`
}

// AlertingConfig holds notification settings.
type AlertingConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"` // Discord webhook
	TimeoutSec int    `yaml:"timeout_sec"`
}

// MetricsConfig holds metrics server settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Port    int    `yaml:"port"`
	Path    string `yaml:"path"`
}

// ServerConfig holds webhook server settings.
type ServerConfig struct {
	Port             int    `yaml:"port"`
	ForceExitControl string `yaml:"force_exit_control"` // control file toggling scheduled force-exit
}

// SchedulerConfig holds timer intervals.
type SchedulerConfig struct {
	CalendarCheckSec int `yaml:"calendar_check_sec"`
	HistorySyncSec   int `yaml:"history_sync_sec"`
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return LoadFromBytes(data)
}

// LoadFromBytes loads configuration from YAML bytes.
func LoadFromBytes(data []byte) (*Config, error) {
	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Default returns the configuration defaults before file overrides.
func Default() *Config {
	return &Config{
		Venue: VenueConfig{
			RequestTimeoutSec: 15,
			MaxRetries:        10,
			RequestsPerSecond: 5,
		},
		Trading: TradingConfig{
			Symbol:             "FCPO",
			InstrumentCode:     "F.BMD.FCPO",
			DefaultLotSize:     1,
			ContractMultiplier: 25,
		},
		Calendar: CalendarConfig{
			Timezone: "Asia/Kuala_Lumpur",
			ClosingTimes: map[string][]string{
				"monday":    {"12:30", "18:00", "23:30"},
				"tuesday":   {"12:30", "18:00", "23:30"},
				"wednesday": {"12:30", "18:00", "23:30"},
				"thursday":  {"12:30", "18:00", "23:30"},
				"friday":    {"12:30", "18:00"}, // no night session
			},
			TradeGuardMin:     6,
			ForceExitGuardMin: 5,
		},
		Execution: ExecutionConfig{
			FeedCheckRetries:       3,
			FeedCheckDelaySec:      5,
			FillConfirmAttempts:    5,
			FillConfirmDelaySec:    3,
			HistoryConfirmAttempts: 6,
			HistoryConfirmDelaySec: 5,
		},
		Persistence: PersistenceConfig{
			Path: "orders.db",
		},
		Alerting: AlertingConfig{
			TimeoutSec: 10,
		},
		Metrics: MetricsConfig{
			Port: 9090,
			Path: "/metrics",
		},
		Server: ServerConfig{
			Port:             3000,
			ForceExitControl: "autoshutoff.control",
		},
		Scheduler: SchedulerConfig{
			CalendarCheckSec: 60,
			HistorySyncSec:   300,
		},
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []string

	if c.Venue.Platform == "" {
		errs = append(errs, "venue.platform is required")
	}
	if c.Venue.SessionFile == "" {
		errs = append(errs, "venue.session_file is required")
	}
	if c.Venue.RequestTimeoutSec <= 0 {
		errs = append(errs, "venue.request_timeout_sec must be positive")
	}
	if c.Venue.MaxRetries < 0 {
		errs = append(errs, "venue.max_retries must not be negative")
	}

	if c.Trading.Symbol == "" {
		errs = append(errs, "trading.symbol is required")
	}
	if c.Trading.InstrumentCode == "" {
		errs = append(errs, "trading.instrument_code is required")
	}
	if c.Trading.DefaultLotSize <= 0 {
		errs = append(errs, "trading.default_lot_size must be positive")
	}
	if c.Trading.ContractMultiplier <= 0 {
		errs = append(errs, "trading.contract_multiplier must be positive")
	}

	if _, err := time.LoadLocation(c.Calendar.Timezone); err != nil {
		errs = append(errs, fmt.Sprintf("calendar.timezone %q is not a valid location", c.Calendar.Timezone))
	}
	for day, closes := range c.Calendar.ClosingTimes {
		if _, ok := weekdayNames[strings.ToLower(day)]; !ok {
			errs = append(errs, fmt.Sprintf("calendar.closing_times: unknown weekday %q", day))
		}
		for _, hhmm := range closes {
			if _, err := time.Parse("15:04", hhmm); err != nil {
				errs = append(errs, fmt.Sprintf("calendar.closing_times.%s: bad time %q", day, hhmm))
			}
		}
	}
	if c.Calendar.TradeGuardMin <= 0 {
		errs = append(errs, "calendar.trade_guard_min must be positive")
	}
	if c.Calendar.ForceExitGuardMin <= 0 {
		errs = append(errs, "calendar.force_exit_guard_min must be positive")
	}
	if c.Calendar.ForceExitGuardMin > c.Calendar.TradeGuardMin {
		errs = append(errs, "calendar.force_exit_guard_min must not exceed trade_guard_min")
	}

	if c.Execution.FeedCheckRetries <= 0 {
		errs = append(errs, "execution.feed_check_retries must be positive")
	}
	if c.Execution.FillConfirmAttempts <= 0 {
		errs = append(errs, "execution.fill_confirm_attempts must be positive")
	}
	if c.Execution.HistoryConfirmAttempts <= 0 {
		errs = append(errs, "execution.history_confirm_attempts must be positive")
	}

	if c.Persistence.Path == "" {
		errs = append(errs, "persistence.path is required")
	}

	if c.Alerting.Enabled && c.Alerting.WebhookURL == "" {
		errs = append(errs, "alerting.webhook_url is required when alerting is enabled")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, "server.port must be a valid port")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", types.ErrInvalidConfig, strings.Join(errs, "; "))
	}

	return nil
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ClosingSchedule converts the YAML weekday map into a schedule keyed by
// time.Weekday.
func (c *Config) ClosingSchedule() map[time.Weekday][]string {
	out := make(map[time.Weekday][]string, len(c.Calendar.ClosingTimes))
	for day, closes := range c.Calendar.ClosingTimes {
		wd, ok := weekdayNames[strings.ToLower(day)]
		if !ok {
			continue
		}
		out[wd] = closes
	}
	return out
}

// Location returns the calendar timezone. Validate guarantees it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Calendar.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Multiplier returns the contract multiplier as a decimal.
func (c *Config) Multiplier() decimal.Decimal {
	return decimal.NewFromFloat(c.Trading.ContractMultiplier)
}

// RequestTimeout returns the venue request timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Venue.RequestTimeoutSec) * time.Second
}

// FeedCheckDelay returns the delay between feed check retries.
func (c *Config) FeedCheckDelay() time.Duration {
	return time.Duration(c.Execution.FeedCheckDelaySec) * time.Second
}

// FillConfirmDelay returns the delay between fill confirmation polls.
func (c *Config) FillConfirmDelay() time.Duration {
	return time.Duration(c.Execution.FillConfirmDelaySec) * time.Second
}

// HistoryConfirmDelay returns the delay between history confirmation polls.
func (c *Config) HistoryConfirmDelay() time.Duration {
	return time.Duration(c.Execution.HistoryConfirmDelaySec) * time.Second
}

// AlertTimeout returns the notification delivery timeout.
func (c *Config) AlertTimeout() time.Duration {
	return time.Duration(c.Alerting.TimeoutSec) * time.Second
}

// CalendarCheckInterval returns the market-close check interval.
func (c *Config) CalendarCheckInterval() time.Duration {
	return time.Duration(c.Scheduler.CalendarCheckSec) * time.Second
}

// HistorySyncInterval returns the order-history sync interval.
func (c *Config) HistorySyncInterval() time.Duration {
	return time.Duration(c.Scheduler.HistorySyncSec) * time.Second
}
