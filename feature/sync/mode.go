package sync

import "fmt"

// Mode selects which events a run visits and where results are routed.
// A run executes exactly one mode to completion or failure; there are no
// runtime transitions between modes.
type Mode int

const (
	// ModeFull revisits every event of the season, re-processing ones whose
	// stored data looks incomplete.
	ModeFull Mode = iota
	// ModeNew only processes events that have no durable record yet.
	ModeNew
	// ModeLive refreshes rankings and matches of currently running events,
	// routed to the low-latency store.
	ModeLive
)

// ParseMode maps the CLI mode argument to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "full":
		return ModeFull, nil
	case "new":
		return ModeNew, nil
	case "live":
		return ModeLive, nil
	default:
		return ModeFull, fmt.Errorf("unknown mode %q (want full, new or live)", s)
	}
}

func (m Mode) String() string {
	switch m {
	case ModeFull:
		return "full"
	case ModeNew:
		return "new"
	case ModeLive:
		return "live"
	default:
		return "unknown"
	}
}
