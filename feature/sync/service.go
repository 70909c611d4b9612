package sync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tournament-sync/core/docstore"
	"tournament-sync/core/livestore"
	"tournament-sync/core/logger"
	"tournament-sync/feature/robotevents"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// completeMarker is the explicit per-event completeness field written after a
// full sync of an event finishes.
const completeMarker = "syncComplete"

// API is the slice of the RobotEvents client the orchestrator consumes.
type API interface {
	SeasonEvents(ctx context.Context, seasonID string) ([]map[string]any, error)
	EventDetail(ctx context.Context, eventID string) (map[string]any, error)
	EventTeams(ctx context.Context, eventID string) ([]map[string]any, error)
	EventSkills(ctx context.Context, eventID string) ([]map[string]any, error)
	DivisionMatches(ctx context.Context, eventID, divisionID string) ([]map[string]any, error)
	DivisionRankings(ctx context.Context, eventID, divisionID string) ([]map[string]any, error)
	DivisionFinalistRankings(ctx context.Context, eventID, divisionID string) ([]map[string]any, error)
}

// Service walks the event fan-out graph for one season and routes results to
// the durable writer and/or the live publisher, depending on mode.
type Service struct {
	api    API
	store  docstore.Client
	writer *docstore.Writer
	live   *livestore.Publisher
	cfg    Config
	logger *zap.Logger
	runID  string

	// Injectable for tests.
	now   func() time.Time
	sleep func(time.Duration)
}

// New creates a sync service. A fresh run identifier is attached to every log
// line and progress checkpoint.
func New(api API, store docstore.Client, writer *docstore.Writer, live *livestore.Publisher, cfg Config, log *zap.Logger) *Service {
	runID := uuid.NewString()
	return &Service{
		api:    api,
		store:  store,
		writer: writer,
		live:   live,
		cfg:    cfg,
		logger: logger.WithRun(log, runID),
		runID:  runID,
		now:    time.Now,
		sleep:  time.Sleep,
	}
}

// Run executes one mode to completion. Events are processed strictly
// sequentially, in listing order, so the aggregate request rate stays
// governable by the key pool. One event's failure never aborts the run;
// credential or rate-limit exhaustion does.
func (s *Service) Run(ctx context.Context, mode Mode) error {
	events, err := s.api.SeasonEvents(ctx, s.cfg.Season)
	if err != nil {
		return fmt.Errorf("listing events of season %s failed: %w", s.cfg.Season, err)
	}

	if mode == ModeLive {
		events = filterToday(events, s.now())
	}

	s.logger.Info("Sync run started",
		zap.String("mode", mode.String()),
		zap.String("season", s.cfg.Season),
		zap.Int("events", len(events)),
	)

	var processed, skipped, failed int
	for _, ev := range events {
		eventID := EventID(ev)
		if eventID == "" {
			s.logger.Warn("Event without usable identity, skipping")
			continue
		}

		if mode != ModeLive {
			skip, err := s.shouldSkip(ctx, mode, eventID)
			if err != nil {
				// An unreadable skip check falls through to processing.
				s.logger.Warn("Skip check failed, processing event anyway",
					zap.String("event", eventID), zap.Error(err))
			}
			if skip {
				skipped++
				continue
			}
		}

		if err := s.processEvent(ctx, mode, eventID, ev); err != nil {
			if fatal(err) {
				return err
			}
			failed++
			s.logger.Error("Event sync failed, continuing with next event",
				zap.String("event", eventID), zap.Error(err))
		} else {
			processed++
		}

		s.checkpoint(ctx, mode, eventID)
	}

	s.logger.Info("Sync run finished",
		zap.String("mode", mode.String()),
		zap.Int("processed", processed),
		zap.Int("skipped", skipped),
		zap.Int("failed", failed),
	)
	return nil
}

// shouldSkip implements the per-mode skip decision for an already stored
// event. "new" mode skips any stored event; "full" mode re-processes events
// whose previous sync looks incomplete.
func (s *Service) shouldSkip(ctx context.Context, mode Mode, eventID string) (bool, error) {
	data, exists, err := s.store.Get(ctx, eventDocPath(eventID))
	if err != nil {
		return false, err
	}
	if !exists {
		return false, nil
	}
	if mode == ModeNew {
		return true, nil
	}

	// Prefer the explicit marker; fall back to the identity-scheme heuristic
	// for events stored before the marker existed.
	if complete, ok := data[completeMarker].(bool); ok && complete {
		return true, nil
	}
	return s.finalistSchemeComplete(ctx, eventID)
}

// finalistSchemeComplete samples stored finalist rankings and reports whether
// they use the team-disambiguated identity scheme. Plain numeric identities
// mean the event predates the scheme and needs re-processing.
func (s *Service) finalistSchemeComplete(ctx context.Context, eventID string) (bool, error) {
	divIDs, err := s.store.ListIDs(ctx, divisionsPath(eventID), 10)
	if err != nil {
		return false, err
	}

	for _, divID := range divIDs {
		sample, err := s.store.ListIDs(ctx, finalistRankingsPath(eventID, divID), 5)
		if err != nil {
			return false, err
		}
		if len(sample) == 0 {
			continue
		}
		for _, id := range sample {
			if !strings.HasPrefix(id, "team_") {
				return false, nil
			}
		}
		return true, nil
	}

	// No finalist sample anywhere: nothing proves completeness.
	return false, nil
}

func (s *Service) processEvent(ctx context.Context, mode Mode, eventID string, ev map[string]any) error {
	if mode != ModeLive {
		if _, err := s.writer.Write(ctx, "events", []docstore.Record{{ID: eventID, Payload: ev}}, true); err != nil {
			return err
		}
	}

	detail, err := s.api.EventDetail(ctx, eventID)
	if err != nil {
		return err
	}
	divisions := divisionList(detail)

	if mode != ModeLive {
		if _, err := s.writer.Write(ctx, divisionsPath(eventID), toRecords(divisions, DivisionID), true); err != nil {
			return err
		}
	}

	for _, div := range divisions {
		divID := DivisionID(div)
		if divID == "" {
			s.logger.Warn("Division without usable identity, skipping",
				zap.String("event", eventID))
			continue
		}
		if err := s.syncDivision(ctx, mode, eventID, divID); err != nil {
			return err
		}
	}

	if mode == ModeLive {
		return nil
	}

	teams, err := s.api.EventTeams(ctx, eventID)
	if err != nil {
		return err
	}
	if _, err := s.writer.Write(ctx, teamsPath(eventID), toRecords(teams, TeamID), true); err != nil {
		return err
	}

	skills, err := s.api.EventSkills(ctx, eventID)
	if err != nil {
		return err
	}
	if _, err := s.writer.Write(ctx, skillsPath(eventID), toRecords(skills, SkillID), true); err != nil {
		return err
	}

	// Everything below the event landed; record that so future full runs can
	// skip without sampling sub-resources.
	_, err = s.writer.Write(ctx, "events", []docstore.Record{
		{ID: eventID, Payload: map[string]any{completeMarker: true}},
	}, true)
	return err
}

func (s *Service) syncDivision(ctx context.Context, mode Mode, eventID, divID string) error {
	rankings, err := s.api.DivisionRankings(ctx, eventID, divID)
	if err != nil {
		return err
	}
	rankingRecs := toRecords(rankings, RankingID)

	matches, err := s.api.DivisionMatches(ctx, eventID, divID)
	if err != nil {
		return err
	}
	matchRecs := toRecords(matches, MatchID)

	if mode == ModeLive {
		s.live.Publish(ctx, livePath(eventID, divID, "rankings"), rankingRecs)
		s.live.Publish(ctx, livePath(eventID, divID, "matches"), matchRecs)
		return nil
	}

	finalists, err := s.api.DivisionFinalistRankings(ctx, eventID, divID)
	if err != nil {
		return err
	}

	if _, err := s.writer.Write(ctx, rankingsPath(eventID, divID), rankingRecs, true); err != nil {
		return err
	}
	if _, err := s.writer.Write(ctx, finalistRankingsPath(eventID, divID), toRecords(finalists, RankingID), true); err != nil {
		return err
	}
	_, err = s.writer.Write(ctx, matchesPath(eventID, divID), matchRecs, true)
	return err
}

// checkpoint persists the progress singleton so an operator can see where a
// run stopped. A failed checkpoint is not worth failing the run over.
func (s *Service) checkpoint(ctx context.Context, mode Mode, lastEvent string) {
	rec := docstore.Record{ID: "progress", Payload: map[string]any{
		"mode":           mode.String(),
		"lastEvent":      lastEvent,
		"runId":          s.runID,
		"checkpointedAt": s.now().UTC().Format(time.RFC3339),
	}}
	if _, err := s.writer.Write(ctx, "sync", []docstore.Record{rec}, true); err != nil {
		s.logger.Warn("Progress checkpoint failed", zap.Error(err))
	}
}

// fatal reports errors that must abort the whole run.
func fatal(err error) bool {
	return errors.Is(err, robotevents.ErrAuthExhausted) ||
		errors.Is(err, robotevents.ErrRateLimitExhausted) ||
		errors.Is(err, robotevents.ErrNoKeys)
}

func toRecords(items []map[string]any, identity func(map[string]any) string) []docstore.Record {
	records := make([]docstore.Record, 0, len(items))
	for _, item := range items {
		id := identity(item)
		if id == "" {
			continue
		}
		records = append(records, docstore.Record{ID: id, Payload: item})
	}
	return records
}

// divisionList pulls the embedded division list out of an event detail.
// A missing or malformed field is zero divisions, not an error.
func divisionList(detail map[string]any) []map[string]any {
	raw, ok := detail["divisions"].([]any)
	if !ok {
		return nil
	}
	divisions := make([]map[string]any, 0, len(raw))
	for _, el := range raw {
		if div, ok := el.(map[string]any); ok {
			divisions = append(divisions, div)
		}
	}
	return divisions
}

// filterToday keeps events whose date range includes today.
func filterToday(events []map[string]any, now time.Time) []map[string]any {
	var out []map[string]any
	for _, ev := range events {
		if occursToday(ev, now) {
			out = append(out, ev)
		}
	}
	return out
}

func occursToday(ev map[string]any, now time.Time) bool {
	start, okStart := parseEventDate(fieldString(ev, "start"))
	end, okEnd := parseEventDate(fieldString(ev, "end"))
	if !okStart || !okEnd {
		return false
	}
	today := dateOnly(now)
	return !today.Before(dateOnly(start)) && !today.After(dateOnly(end))
}

func parseEventDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Durable store layout.

func eventDocPath(eventID string) string {
	return "events/" + eventID
}

func divisionsPath(eventID string) string {
	return "events/" + eventID + "/divisions"
}

func rankingsPath(eventID, divID string) string {
	return divisionsPath(eventID) + "/" + divID + "/rankings"
}

func finalistRankingsPath(eventID, divID string) string {
	return divisionsPath(eventID) + "/" + divID + "/finalistRankings"
}

func matchesPath(eventID, divID string) string {
	return divisionsPath(eventID) + "/" + divID + "/matches"
}

func teamsPath(eventID string) string {
	return "events/" + eventID + "/teams"
}

func skillsPath(eventID string) string {
	return "events/" + eventID + "/skills"
}

// Low-latency store layout.

func livePath(eventID, divID, resource string) string {
	return "live/" + eventID + "/" + divID + "/" + resource
}
