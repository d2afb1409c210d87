package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/composable-science/cli/pkg/dotdir"
)

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the CS_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound by the command)
//  2. Environment variables (CS_BUILD_WORKERS, CS_LEDGER_TOPIC, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	setViperDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil && !errors.Is(err, dotdir.ErrNoProject) {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix("CS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// Build
	v.SetDefault("build.workers", d.Build.Workers)

	// Storage
	v.SetDefault("storage.sqlite_path", d.Storage.SQLitePath)

	// Ledger
	v.SetDefault("ledger.enabled", d.Ledger.Enabled)
	v.SetDefault("ledger.brokers", d.Ledger.Brokers)
	v.SetDefault("ledger.topic", d.Ledger.Topic)

	// Identity
	v.SetDefault("identity.dir", d.Identity.Dir)

	// Dashboard
	v.SetDefault("dashboard.listen", d.Dashboard.Listen)
}
