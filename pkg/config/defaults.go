package config

const (
	defaultWorkers = 4

	defaultSQLitePath = "attestations.db"

	defaultLedgerTopic = "csf.attestations"

	defaultDashboardListen = ":8090"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Build: BuildConfig{
			Workers: defaultWorkers,
		},
		Storage: StorageConfig{
			SQLitePath: defaultSQLitePath,
		},
		Ledger: LedgerConfig{
			Topic: defaultLedgerTopic,
		},
		Dashboard: DashboardConfig{
			Listen: defaultDashboardListen,
		},
	}
}
