// Package config provides configuration management for tournament-sync.
//
// It utilizes Viper for loading configuration from environment variables and
// an optional .env file (via godotenv).
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings,
// divided into subsections:
//   - API: RobotEvents credentials and pacing (API_KEYS, API_BASE_URL, ...)
//   - Sync: target season and live-mode budget (SYNC_SEASON, ...)
//   - Firestore: durable store project and credentials
//   - Livestore: Realtime Database URL and publish strategy
//   - Log: logging level and format
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Sync.Season)
package config
