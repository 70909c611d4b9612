package livestore

// Config holds configuration for the low-latency keyed store.
type Config struct {
	// DatabaseURL is the Realtime Database instance URL.
	DatabaseURL string `mapstructure:"database_url" default:""`
	// CredentialsFile is the path to a service account JSON file.
	// When empty, application default credentials are used.
	CredentialsFile string `mapstructure:"credentials_file" default:""`
	// Strategy selects the publish strategy: "blind" or "change_aware".
	Strategy string `mapstructure:"strategy" default:"change_aware"`
}
