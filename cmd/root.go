package cmd

import (
	"fmt"
	"os"

	"tournament-sync/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "tournament-sync",
	Short: "Tournament Data Sync Service",
	Long: `Tournament Sync harvests hierarchical tournament data (events, divisions,
rankings, matches, teams, skills) from the RobotEvents API and persists it
into Firestore, with sub-minute live updates pushed to the Realtime Database
during active events.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		// Use the application's standard logger for error reporting.
		// Console format with debug level gives readable ISO8601 timestamps
		// for a CLI invocation.
		cfg := &logger.Config{
			Level:  "debug",
			Format: "console",
		}

		l, logErr := logger.New(cfg)
		if logErr == nil {
			l.Error("command failed", zap.Error(err))
			_ = l.Sync()
		} else {
			// Absolute fallback if logger creation fails (rare)
			fmt.Println(err)
		}
		os.Exit(1)
	}
}
