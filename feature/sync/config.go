package sync

// Config holds configuration for the sync orchestrator.
type Config struct {
	// Season is the target season identifier. Each run assumes it owns its
	// target season; there is no cross-process coordination.
	Season string `mapstructure:"season" default:""`
	// LiveBudgetMinutes is the wall-clock budget of the live-mode driver.
	// Once it expires no new cycles are scheduled; the in-flight cycle
	// finishes naturally.
	LiveBudgetMinutes int `mapstructure:"live_budget_minutes" default:"50"`
	// LiveIntervalSeconds is the delay between live cycles.
	LiveIntervalSeconds int `mapstructure:"live_interval_seconds" default:"30"`
}
