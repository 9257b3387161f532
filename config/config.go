// Package config defines the service configuration and how it is loaded.
//
// Precedence (low -> high):
//  1. defaults (New)
//  2. YAML file named by --config or MARINA_CONFIG
//  3. environment, prefix MARINA_, "__" separating nested keys
//
// MARINA_POLICY__DAILY_WINDOW__END_HOUR=18 sets policy.daily_window.end_hour.
// A .env file in the working directory is read first if present.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/marinaops/staffdesk/generic"
	"github.com/marinaops/staffdesk/timeoff"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr is the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	Store  StoreConfig  `koanf:"store"`
	Roster RosterConfig `koanf:"roster"`
	Auth   AuthConfig   `koanf:"auth"`
	CORS   CORSConfig   `koanf:"cors"`
	Policy PolicyConfig `koanf:"policy"`

	// RecordDenied stores a denied record for rejected requests.
	RecordDenied bool `koanf:"record_denied"`
}

type StoreConfig struct {
	// Driver is one of memory, sqlite, jsonfile.
	Driver string `koanf:"driver"`
	Path   string `koanf:"path"`
}

type RosterConfig struct {
	// Source is an http(s) URL or a file path. Empty disables sync.
	Source        string        `koanf:"source"`
	Timeout       time.Duration `koanf:"timeout"`
	SyncOnStartup bool          `koanf:"sync_on_startup"`

	// RefreshInterval re-syncs in the background while serving. Zero disables it.
	RefreshInterval time.Duration `koanf:"refresh_interval"`
}

type AuthConfig struct {
	// Password is the shared login password. It is hashed at startup and
	// never kept in plain text after that. PasswordHash wins if both are set.
	Password     string        `koanf:"password"`
	PasswordHash string        `koanf:"password_hash"`
	Admins       []string      `koanf:"admins"`
	SessionTTL   time.Duration `koanf:"session_ttl"`

	// TokenSecret signs session tokens. When empty a random secret is drawn
	// at startup, so sessions do not survive a restart.
	TokenSecret string `koanf:"token_secret"`
}

type CORSConfig struct {
	AllowedOrigins []string `koanf:"allowed_origins"`
}

type DailyWindowConfig struct {
	StartHour int `koanf:"start_hour"`
	EndHour   int `koanf:"end_hour"`
}

type PolicyConfig struct {
	DailyWindow          DailyWindowConfig `koanf:"daily_window"`
	HoursPerFullDay      float64           `koanf:"hours_per_full_day"`
	MinPartialHours      float64           `koanf:"min_partial_hours"`
	LeadTimeDays         int               `koanf:"lead_time_days"`
	SummerCapDays        int               `koanf:"summer_cap_days"`
	SickVerificationDays int               `koanf:"sick_verification_days"`

	// Timezone is an IANA name such as America/Los_Angeles.
	Timezone string `koanf:"timezone"`
}

// New returns the defaults.
func New() *Config {
	return &Config{
		LogLevel: "info",
		Addr:     ":8080",
		Store: StoreConfig{
			Driver: "sqlite",
			Path:   "./data/marina.db",
		},
		Roster: RosterConfig{
			Source:        "./data/employees.json",
			Timeout:       10 * time.Second,
			SyncOnStartup: true,
		},
		Auth: AuthConfig{
			Password:   "Marina1",
			Admins:     []string{"Haak Wagner"},
			SessionTTL: 12 * time.Hour,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"http://localhost:*"},
		},
		Policy: PolicyConfig{
			DailyWindow:          DailyWindowConfig{StartHour: 8, EndHour: 16},
			HoursPerFullDay:      8,
			MinPartialHours:      0.5,
			LeadTimeDays:         14,
			SummerCapDays:        3,
			SickVerificationDays: 3,
			Timezone:             "UTC",
		},
	}
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr must not be empty: %w", ErrInvalidConfig)
	}
	switch c.Store.Driver {
	case "memory":
	case "sqlite", "jsonfile":
		if c.Store.Path == "" {
			return fmt.Errorf("store.path is required for driver %q: %w", c.Store.Driver, ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("unknown store.driver %q: %w", c.Store.Driver, ErrInvalidConfig)
	}
	if c.Auth.Password == "" && c.Auth.PasswordHash == "" {
		return fmt.Errorf("auth.password or auth.password_hash is required: %w", ErrInvalidConfig)
	}
	if c.Auth.SessionTTL <= 0 {
		return fmt.Errorf("auth.session_ttl must be positive: %w", ErrInvalidConfig)
	}
	if _, err := c.Policy.Policy(); err != nil {
		return err
	}
	return nil
}

// SlogLevel maps LogLevel to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Policy converts the configured values into the engine's rules.
func (p PolicyConfig) Policy() (timeoff.Policy, error) {
	loc := time.UTC
	if p.Timezone != "" {
		var err error
		if loc, err = time.LoadLocation(p.Timezone); err != nil {
			return timeoff.Policy{}, fmt.Errorf("policy.timezone %q: %w", p.Timezone, ErrInvalidConfig)
		}
	}

	policy := timeoff.Policy{
		DailyWindow: timeoff.DailyWindow{
			StartHour: p.DailyWindow.StartHour,
			EndHour:   p.DailyWindow.EndHour,
		},
		HoursPerFullDay:      decimal.NewFromFloat(p.HoursPerFullDay),
		MinPartialHours:      decimal.NewFromFloat(p.MinPartialHours),
		LeadTimeDays:         p.LeadTimeDays,
		SummerWindow:         generic.SummerWindow,
		SummerCapDays:        p.SummerCapDays,
		SickVerificationDays: p.SickVerificationDays,
		Location:             loc,
	}
	if err := policy.Validate(); err != nil {
		return timeoff.Policy{}, fmt.Errorf("policy: %v: %w", err, ErrInvalidConfig)
	}
	return policy, nil
}
