package sync

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"tournament-sync/core/docstore"
	"tournament-sync/core/livestore"
	"tournament-sync/feature/robotevents"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeStore is an in-memory docstore.Client that applies commits, so tests
// exercise real read-compare-write cycles.
type fakeStore struct {
	collections map[string]map[string]map[string]any
	commits     []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{collections: make(map[string]map[string]map[string]any)}
}

func (f *fakeStore) GetAll(_ context.Context, collectionPath string, ids []string) (map[string]map[string]any, error) {
	out := make(map[string]map[string]any)
	for _, id := range ids {
		if doc, ok := f.collections[collectionPath][id]; ok {
			out[id] = doc
		}
	}
	return out, nil
}

func (f *fakeStore) Commit(_ context.Context, collectionPath string, writes []docstore.StagedWrite) error {
	f.commits = append(f.commits, collectionPath)
	col := f.collections[collectionPath]
	if col == nil {
		col = make(map[string]map[string]any)
		f.collections[collectionPath] = col
	}
	for _, w := range writes {
		doc := col[w.ID]
		if doc == nil || !w.Merge {
			doc = make(map[string]any)
		}
		for k, v := range w.Data {
			doc[k] = v
		}
		doc[docstore.MetaUpdatedAt] = time.Now()
		col[w.ID] = doc
	}
	return nil
}

func (f *fakeStore) Get(_ context.Context, docPath string) (map[string]any, bool, error) {
	idx := strings.LastIndex(docPath, "/")
	col, id := docPath[:idx], docPath[idx+1:]
	doc, ok := f.collections[col][id]
	return doc, ok, nil
}

func (f *fakeStore) ListIDs(_ context.Context, collectionPath string, limit int) ([]string, error) {
	var ids []string
	for id := range f.collections[collectionPath] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (f *fakeStore) Close() error { return nil }

// fakeLive is an in-memory livestore.Client recording every update.
type fakeLive struct {
	data    map[string]map[string]map[string]any
	updated []string
}

func newFakeLive() *fakeLive {
	return &fakeLive{data: make(map[string]map[string]map[string]any)}
}

func (f *fakeLive) Get(_ context.Context, path string) (map[string]map[string]any, error) {
	out := f.data[path]
	if out == nil {
		out = map[string]map[string]any{}
	}
	return out, nil
}

func (f *fakeLive) Update(_ context.Context, path string, entries map[string]any) error {
	f.updated = append(f.updated, path)
	stored := f.data[path]
	if stored == nil {
		stored = make(map[string]map[string]any)
		f.data[path] = stored
	}
	for id, payload := range entries {
		if m, ok := payload.(map[string]any); ok {
			stored[id] = m
		}
	}
	return nil
}

// stubAPI serves canned responses and counts calls per method and event.
type stubAPI struct {
	events    []map[string]any
	details   map[string]map[string]any
	rankings  map[string][]map[string]any
	finalists map[string][]map[string]any
	matches   map[string][]map[string]any
	teams     map[string][]map[string]any
	skills    map[string][]map[string]any
	errDetail map[string]error
	calls     map[string]int
}

func newStubAPI() *stubAPI {
	return &stubAPI{
		details:   make(map[string]map[string]any),
		rankings:  make(map[string][]map[string]any),
		finalists: make(map[string][]map[string]any),
		matches:   make(map[string][]map[string]any),
		teams:     make(map[string][]map[string]any),
		skills:    make(map[string][]map[string]any),
		errDetail: make(map[string]error),
		calls:     make(map[string]int),
	}
}

func (s *stubAPI) SeasonEvents(context.Context, string) ([]map[string]any, error) {
	s.calls["SeasonEvents"]++
	return s.events, nil
}

func (s *stubAPI) EventDetail(_ context.Context, eventID string) (map[string]any, error) {
	s.calls["EventDetail:"+eventID]++
	if err := s.errDetail[eventID]; err != nil {
		return nil, err
	}
	return s.details[eventID], nil
}

func (s *stubAPI) EventTeams(_ context.Context, eventID string) ([]map[string]any, error) {
	s.calls["EventTeams:"+eventID]++
	return s.teams[eventID], nil
}

func (s *stubAPI) EventSkills(_ context.Context, eventID string) ([]map[string]any, error) {
	s.calls["EventSkills:"+eventID]++
	return s.skills[eventID], nil
}

func (s *stubAPI) DivisionMatches(_ context.Context, eventID, divID string) ([]map[string]any, error) {
	s.calls["DivisionMatches:"+eventID+"/"+divID]++
	return s.matches[eventID+"/"+divID], nil
}

func (s *stubAPI) DivisionRankings(_ context.Context, eventID, divID string) ([]map[string]any, error) {
	s.calls["DivisionRankings:"+eventID+"/"+divID]++
	return s.rankings[eventID+"/"+divID], nil
}

func (s *stubAPI) DivisionFinalistRankings(_ context.Context, eventID, divID string) ([]map[string]any, error) {
	s.calls["DivisionFinalistRankings:"+eventID+"/"+divID]++
	return s.finalists[eventID+"/"+divID], nil
}

func newTestService(api API, store docstore.Client, live *livestore.Publisher) *Service {
	writer := docstore.NewWriter(store, docstore.Config{CommitTimeoutSeconds: 10}, zap.NewNop())
	svc := New(api, store, writer, live, Config{Season: "190"}, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2026, 2, 14, 15, 0, 0, 0, time.UTC) }
	svc.sleep = func(time.Duration) {}
	return svc
}

// TestShouldSkip_NewModeSkipsStoredEvents tests that incremental mode skips
// any event with a durable record.
func TestShouldSkip_NewModeSkipsStoredEvents(t *testing.T) {
	store := newFakeStore()
	store.collections["events"] = map[string]map[string]any{
		"5": {"name": "Old Regional"},
	}
	svc := newTestService(newStubAPI(), store, nil)

	skip, err := svc.shouldSkip(context.Background(), ModeNew, "5")
	require.NoError(t, err)
	assert.True(t, skip)

	skip, err = svc.shouldSkip(context.Background(), ModeNew, "6")
	require.NoError(t, err)
	assert.False(t, skip)
}

// TestShouldSkip_FullModeHonorsExplicitMarker tests the consolidated
// per-event completeness field.
func TestShouldSkip_FullModeHonorsExplicitMarker(t *testing.T) {
	store := newFakeStore()
	store.collections["events"] = map[string]map[string]any{
		"5": {"name": "Done Regional", "syncComplete": true},
	}
	svc := newTestService(newStubAPI(), store, nil)

	skip, err := svc.shouldSkip(context.Background(), ModeFull, "5")
	require.NoError(t, err)
	assert.True(t, skip)
}

// TestShouldSkip_FullModeFinalistHeuristic tests the legacy fallback: plain
// numeric finalist identities mean an incomplete previous sync.
func TestShouldSkip_FullModeFinalistHeuristic(t *testing.T) {
	tests := []struct {
		name     string
		sample   []string
		wantSkip bool
	}{
		{name: "plain numeric identities", sample: []string{"1", "2", "3"}, wantSkip: false},
		{name: "team-disambiguated identities", sample: []string{"team_42", "team_97"}, wantSkip: true},
		{name: "no finalist records", sample: nil, wantSkip: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			store.collections["events"] = map[string]map[string]any{"5": {"name": "Regional"}}
			store.collections["events/5/divisions"] = map[string]map[string]any{"1": {"name": "Default"}}
			finals := make(map[string]map[string]any)
			for _, id := range tt.sample {
				finals[id] = map[string]any{"rank": float64(1)}
			}
			store.collections["events/5/divisions/1/finalistRankings"] = finals

			svc := newTestService(newStubAPI(), store, nil)
			skip, err := svc.shouldSkip(context.Background(), ModeFull, "5")
			require.NoError(t, err)
			assert.Equal(t, tt.wantSkip, skip)
		})
	}
}

// TestRun_FullModeStoresWholeGraphAndMarksComplete tests the fan-out
// pipeline end to end against the in-memory store.
func TestRun_FullModeStoresWholeGraphAndMarksComplete(t *testing.T) {
	api := newStubAPI()
	api.events = []map[string]any{
		{"id": float64(5), "name": "Spring Regional", "start": "2026-02-14", "end": "2026-02-15"},
	}
	api.details["5"] = map[string]any{
		"id":        float64(5),
		"divisions": []any{map[string]any{"id": float64(1), "name": "Default", "order": float64(1)}},
	}
	api.rankings["5/1"] = []map[string]any{
		{"id": float64(11), "rank": float64(1), "team": map[string]any{"id": float64(42)}},
	}
	api.finalists["5/1"] = []map[string]any{
		{"rank": float64(1), "team": map[string]any{"id": float64(42)}},
		{"rank": float64(1), "team": map[string]any{"id": float64(97)}},
	}
	api.matches["5/1"] = []map[string]any{
		{"id": float64(300), "matchnum": float64(1), "scored": true},
	}
	api.teams["5"] = []map[string]any{{"id": float64(42), "number": "1234A"}}
	api.skills["5"] = []map[string]any{{"type": "driver", "team": map[string]any{"id": float64(42)}}}

	store := newFakeStore()
	svc := newTestService(api, store, nil)

	require.NoError(t, svc.Run(context.Background(), ModeFull))

	// Alliance partners sharing a rank stay distinct records.
	finals := store.collections["events/5/divisions/1/finalistRankings"]
	assert.Contains(t, finals, "team_42")
	assert.Contains(t, finals, "team_97")

	assert.Contains(t, store.collections["events/5/divisions/1/rankings"], "11")
	assert.Contains(t, store.collections["events/5/divisions/1/matches"], "300")
	assert.Contains(t, store.collections["events/5/teams"], "42")
	assert.Contains(t, store.collections["events/5/skills"], "42_driver")

	// The explicit completeness marker lands on the event document.
	event := store.collections["events"]["5"]
	assert.Equal(t, true, event["syncComplete"])

	// Progress checkpoint recorded.
	progress := store.collections["sync"]["progress"]
	require.NotNil(t, progress)
	assert.Equal(t, "full", progress["mode"])
	assert.Equal(t, "5", progress["lastEvent"])

	// A second full run skips the event without refetching.
	require.NoError(t, svc.Run(context.Background(), ModeFull))
	assert.Equal(t, 1, api.calls["EventDetail:5"])
}

// TestRun_LiveModeTouchesOnlyLiveSubtrees is the end-to-end live scenario:
// one past event, one running today. Only the live event's rankings and
// matches may move, and only into the low-latency store.
func TestRun_LiveModeTouchesOnlyLiveSubtrees(t *testing.T) {
	api := newStubAPI()
	api.events = []map[string]any{
		// Ended three days before the fixed test clock.
		{"id": float64(20), "name": "Past Regional", "start": "2026-02-10", "end": "2026-02-11"},
		{"id": float64(10), "name": "Live Regional", "start": "2026-02-14", "end": "2026-02-15"},
	}
	api.details["10"] = map[string]any{
		"id":        float64(10),
		"divisions": []any{map[string]any{"id": float64(1)}},
	}
	api.rankings["10/1"] = []map[string]any{
		{"id": float64(70), "rank": float64(1)},
	}
	api.matches["10/1"] = []map[string]any{
		{"id": float64(500), "scored": false},
	}

	store := newFakeStore()
	live := newFakeLive()
	// Seed the live store so the change-aware read has something to compare.
	live.data["live/10/1/rankings"] = map[string]map[string]any{
		"70": {"id": float64(70), "rank": float64(2)},
	}

	publisher := livestore.NewPublisher(live, livestore.ChangeAware, zap.NewNop())
	svc := newTestService(api, store, publisher)

	require.NoError(t, svc.Run(context.Background(), ModeLive))

	// The past event was filtered out before any fetch.
	assert.Zero(t, api.calls["EventDetail:20"])
	assert.Equal(t, 1, api.calls["EventDetail:10"])

	// Teams, skills and finalist rankings are never fetched in live mode.
	assert.Zero(t, api.calls["EventTeams:10"])
	assert.Zero(t, api.calls["EventSkills:10"])
	assert.Zero(t, api.calls["DivisionFinalistRankings:10/1"])

	// Live subtrees received the refreshed records.
	assert.ElementsMatch(t, []string{"live/10/1/rankings", "live/10/1/matches"}, live.updated)
	assert.Equal(t, float64(1), live.data["live/10/1/rankings"]["70"]["rank"])

	// The durable store saw nothing but the progress checkpoint.
	for _, col := range store.commits {
		assert.Equal(t, "sync", col)
	}
	assert.Empty(t, store.collections["events/10/teams"])
	assert.Empty(t, store.collections["events/20/teams"])
}

// TestRun_LiveCacheSuppressesUnchangedCycles tests that a second identical
// cycle skips the remote live store entirely.
func TestRun_LiveCacheSuppressesUnchangedCycles(t *testing.T) {
	api := newStubAPI()
	api.events = []map[string]any{
		{"id": float64(10), "start": "2026-02-14", "end": "2026-02-15"},
	}
	api.details["10"] = map[string]any{
		"id":        float64(10),
		"divisions": []any{map[string]any{"id": float64(1)}},
	}
	api.rankings["10/1"] = []map[string]any{{"id": float64(70), "rank": float64(1)}}
	api.matches["10/1"] = []map[string]any{{"id": float64(500), "scored": false}}

	live := newFakeLive()
	publisher := livestore.NewPublisher(live, livestore.ChangeAware, zap.NewNop())
	svc := newTestService(api, newFakeStore(), publisher)

	require.NoError(t, svc.Run(context.Background(), ModeLive))
	require.NoError(t, svc.Run(context.Background(), ModeLive))

	// Two cycles, identical content: each path written exactly once.
	assert.Len(t, live.updated, 2)
}

// TestRun_EventFailureDoesNotAbortRun tests per-event failure isolation.
func TestRun_EventFailureDoesNotAbortRun(t *testing.T) {
	api := newStubAPI()
	api.events = []map[string]any{
		{"id": float64(1), "name": "Broken"},
		{"id": float64(2), "name": "Healthy"},
	}
	api.errDetail["1"] = errors.New("upstream hiccup")
	api.details["2"] = map[string]any{"id": float64(2), "divisions": []any{}}

	store := newFakeStore()
	svc := newTestService(api, store, nil)

	require.NoError(t, svc.Run(context.Background(), ModeFull))

	// The second event was still fully processed.
	assert.Equal(t, 1, api.calls["EventTeams:2"])
	assert.Equal(t, true, store.collections["events"]["2"]["syncComplete"])
	// The failed event has no completeness marker and will be retried.
	assert.Nil(t, store.collections["events"]["1"]["syncComplete"])
}

// TestRun_CredentialExhaustionIsFatal tests that key-pool exhaustion aborts
// the whole run instead of being swallowed per event.
func TestRun_CredentialExhaustionIsFatal(t *testing.T) {
	api := newStubAPI()
	api.events = []map[string]any{
		{"id": float64(1), "name": "First"},
		{"id": float64(2), "name": "Second"},
	}
	api.errDetail["1"] = robotevents.ErrAuthExhausted

	svc := newTestService(api, newFakeStore(), nil)

	err := svc.Run(context.Background(), ModeFull)
	assert.ErrorIs(t, err, robotevents.ErrAuthExhausted)
	assert.Zero(t, api.calls["EventDetail:2"])
}

// TestRunLive_StopsWhenBudgetExpires tests the wall-clock driver.
func TestRunLive_StopsWhenBudgetExpires(t *testing.T) {
	api := newStubAPI()

	svc := newTestService(api, newFakeStore(), nil)
	clock := time.Date(2026, 2, 14, 15, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return clock }
	svc.sleep = func(d time.Duration) { clock = clock.Add(d) }

	require.NoError(t, svc.RunLive(context.Background(), 2*time.Minute, 30*time.Second))

	// 4 sleeps of 30s exhaust the 2 minute budget: cycles at t=0, 30, 60, 90.
	assert.Equal(t, 4, api.calls["SeasonEvents"])
}

// TestOccursToday covers the live pre-filter date logic.
func TestOccursToday(t *testing.T) {
	now := time.Date(2026, 2, 14, 23, 30, 0, 0, time.UTC)

	tests := []struct {
		name  string
		start string
		end   string
		want  bool
	}{
		{name: "spans today", start: "2026-02-13", end: "2026-02-15", want: true},
		{name: "starts today", start: "2026-02-14", end: "2026-02-16", want: true},
		{name: "ends today", start: "2026-02-12", end: "2026-02-14", want: true},
		{name: "already over", start: "2026-02-10", end: "2026-02-11", want: false},
		{name: "not started", start: "2026-02-20", end: "2026-02-21", want: false},
		{name: "rfc3339 timestamps", start: "2026-02-14T08:00:00-05:00", end: "2026-02-15T18:00:00-05:00", want: true},
		{name: "missing dates", start: "", end: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := map[string]any{"start": tt.start, "end": tt.end}
			assert.Equal(t, tt.want, occursToday(ev, now))
		})
	}
}
