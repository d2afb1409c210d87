// Package configcmder provides the config command for managing persistent
// cs configuration stored in the .csf/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent cs configuration.

Configuration is stored as config.toml in the .csf/ directory and provides
default values for command flags. CLI flags always take precedence over
config file values.

Keys use dotted notation matching the TOML section structure:
  build.workers, storage.sqlite_path,
  ledger.enabled, ledger.brokers, ledger.topic,
  identity.dir, dashboard.listen

Use subcommands to get, set, or list configuration values:
  cs config set <key> <value>    Set a configuration value
  cs config get <key>            Get a configuration value
  cs config list                 List all configuration values

Examples:
  cs config set build.workers 8
  cs config set ledger.enabled true
  cs config get dashboard.listen
  cs config list`

const configShortDesc string = "Manage persistent cs configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
