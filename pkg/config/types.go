package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Config represents the persistent cs configuration stored as config.toml
// in the .csf/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version   int             `toml:"version"`
	Build     BuildConfig     `toml:"build"`
	Storage   StorageConfig   `toml:"storage"`
	Ledger    LedgerConfig    `toml:"ledger"`
	Identity  IdentityConfig  `toml:"identity"`
	Dashboard DashboardConfig `toml:"dashboard"`
}

// BuildConfig holds executor settings.
type BuildConfig struct {
	Workers uint `toml:"workers,omitempty"`
}

// StorageConfig holds the attestation index location.
type StorageConfig struct {
	SQLitePath string `toml:"sqlite_path,omitempty"`
}

// LedgerConfig holds public ledger publishing settings. Publishing is
// off unless explicitly enabled.
type LedgerConfig struct {
	Enabled bool     `toml:"enabled,omitempty"`
	Brokers []string `toml:"brokers,omitempty"`
	Topic   string   `toml:"topic,omitempty"`
}

// IdentityConfig holds the signing identity location.
type IdentityConfig struct {
	Dir string `toml:"dir,omitempty"`
}

// DashboardConfig holds dashboard server settings.
type DashboardConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"build.workers": {
		get: func(c *Config) string {
			if c.Build.Workers == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Build.Workers), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil || n == 0 {
				return fmt.Errorf("invalid value for build.workers: %q", v)
			}
			c.Build.Workers = uint(n)
			return nil
		},
	},
	"storage.sqlite_path": {
		get: func(c *Config) string { return c.Storage.SQLitePath },
		set: func(c *Config, v string) error { c.Storage.SQLitePath = v; return nil },
	},
	"ledger.enabled": {
		get: func(c *Config) string { return strconv.FormatBool(c.Ledger.Enabled) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for ledger.enabled: %w", err)
			}
			c.Ledger.Enabled = b
			return nil
		},
	},
	"ledger.brokers": {
		get: func(c *Config) string { return strings.Join(c.Ledger.Brokers, ",") },
		set: func(c *Config, v string) error {
			c.Ledger.Brokers = nil
			for _, b := range strings.Split(v, ",") {
				if b = strings.TrimSpace(b); b != "" {
					c.Ledger.Brokers = append(c.Ledger.Brokers, b)
				}
			}
			return nil
		},
	},
	"ledger.topic": {
		get: func(c *Config) string { return c.Ledger.Topic },
		set: func(c *Config, v string) error { c.Ledger.Topic = v; return nil },
	},
	"identity.dir": {
		get: func(c *Config) string { return c.Identity.Dir },
		set: func(c *Config, v string) error { c.Identity.Dir = v; return nil },
	},
	"dashboard.listen": {
		get: func(c *Config) string { return c.Dashboard.Listen },
		set: func(c *Config, v string) error { c.Dashboard.Listen = v; return nil },
	},
}
