package docstore

// Config holds configuration for the durable document store.
type Config struct {
	// ProjectID is the Google Cloud project hosting Firestore.
	ProjectID string `mapstructure:"project_id" default:""`
	// CredentialsFile is the path to a service account JSON file.
	// When empty, application default credentials are used.
	CredentialsFile string `mapstructure:"credentials_file" default:""`
	// CommitTimeoutSeconds bounds a single batch commit.
	CommitTimeoutSeconds int `mapstructure:"commit_timeout_seconds" default:"10"`
}
