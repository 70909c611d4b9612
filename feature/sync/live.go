package sync

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// RunLive drives live cycles until the wall-clock budget expires. The budget
// only stops new cycles from being scheduled; an in-flight cycle always
// finishes naturally. The publisher's cross-cycle change-detection cache
// lives for the whole loop, so later cycles skip remote calls for divisions
// whose content has not moved.
func (s *Service) RunLive(ctx context.Context, budget, interval time.Duration) error {
	deadline := s.now().Add(budget)
	cycle := 0

	for {
		if !s.now().Before(deadline) {
			s.logger.Info("Live budget exhausted, stopping",
				zap.Int("cycles", cycle))
			return nil
		}

		cycle++
		s.logger.Info("Live cycle started", zap.Int("cycle", cycle))
		if err := s.Run(ctx, ModeLive); err != nil {
			// Run only surfaces fatal errors; everything else is handled
			// per event inside.
			return err
		}

		s.sleep(interval)
	}
}
