package robotevents

import "strings"

// Config holds configuration for the RobotEvents API client.
type Config struct {
	// Keys is the comma- or newline-separated credential list.
	Keys string `mapstructure:"keys" default:""`
	// BaseURL is the API root.
	BaseURL string `mapstructure:"base_url" default:"https://www.robotevents.com/api/v2"`
	// TimeoutSeconds bounds a single API request.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
	// PaceMillis is the fixed delay applied after every successful call to
	// stay under the provider's aggregate quota.
	PaceMillis int `mapstructure:"pace_millis" default:"300"`
	// CooldownSeconds is how long a rate-limited key is excluded from rotation.
	CooldownSeconds int `mapstructure:"cooldown_seconds" default:"60"`
	// MaxWaitRounds is how many consecutive all-keys-unavailable waits are
	// tolerated before the operation fails fatally.
	MaxWaitRounds int `mapstructure:"max_wait_rounds" default:"10"`
}

// KeyList splits the configured credential list on commas and newlines,
// trimming whitespace and dropping empties.
func (c Config) KeyList() []string {
	fields := strings.FieldsFunc(c.Keys, func(r rune) bool {
		return r == ',' || r == '\n' || r == '\r'
	})
	keys := make([]string, 0, len(fields))
	for _, f := range fields {
		if k := strings.TrimSpace(f); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}
