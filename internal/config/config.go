package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures environment driven configuration for the booking service.
// The Default* fields seed the settings row on first startup only; after that
// the snapshot is managed through the admin settings endpoint.
type Config struct {
	HTTPPort  int
	SQLiteDSN string

	CacheTTL        time.Duration
	CacheMaxEntries int

	DefaultGranularityMinutes      int
	DefaultMaxAdvanceDays          int
	DefaultMaxBookingDurationHours int
	DefaultMaxActiveBookings       int
}

// Load parses configuration values from the current process environment,
// applying defaults for optional fields and reporting every invalid entry at
// once.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:                       8080,
		SQLiteDSN:                      "file:roombooking.db",
		CacheTTL:                       30 * time.Second,
		CacheMaxEntries:                128,
		DefaultGranularityMinutes:      30,
		DefaultMaxAdvanceDays:          14,
		DefaultMaxBookingDurationHours: 4,
		DefaultMaxActiveBookings:       3,
	}

	invalid := make([]string, 0, 2)

	if value := strings.TrimSpace(os.Getenv("ROOMBOOKING_HTTP_PORT")); value != "" {
		port, err := strconv.Atoi(value)
		if err != nil || port <= 0 {
			invalid = append(invalid, "ROOMBOOKING_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("ROOMBOOKING_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if value := strings.TrimSpace(os.Getenv("ROOMBOOKING_CACHE_TTL")); value != "" {
		ttl, err := time.ParseDuration(value)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "ROOMBOOKING_CACHE_TTL")
		} else {
			cfg.CacheTTL = ttl
		}
	}

	intVars := []struct {
		name   string
		target *int
	}{
		{"ROOMBOOKING_CACHE_MAX_ENTRIES", &cfg.CacheMaxEntries},
		{"ROOMBOOKING_DEFAULT_GRANULARITY_MINUTES", &cfg.DefaultGranularityMinutes},
		{"ROOMBOOKING_DEFAULT_MAX_ADVANCE_DAYS", &cfg.DefaultMaxAdvanceDays},
		{"ROOMBOOKING_DEFAULT_MAX_DURATION_HOURS", &cfg.DefaultMaxBookingDurationHours},
		{"ROOMBOOKING_DEFAULT_MAX_ACTIVE_BOOKINGS", &cfg.DefaultMaxActiveBookings},
	}
	for _, v := range intVars {
		value := strings.TrimSpace(os.Getenv(v.name))
		if value == "" {
			continue
		}
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed <= 0 {
			invalid = append(invalid, v.name)
			continue
		}
		*v.target = parsed
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variables: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
