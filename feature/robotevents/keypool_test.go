package robotevents

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPool(t *testing.T, keys []string, cfg Config) (*KeyPool, *time.Time, *[]time.Duration) {
	t.Helper()
	pool := NewKeyPool(keys, cfg)

	now := time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC)
	var slept []time.Duration
	pool.now = func() time.Time { return now }
	pool.sleep = func(d time.Duration) {
		slept = append(slept, d)
		now = now.Add(d)
	}
	return pool, &now, &slept
}

// TestAcquire_FixedCyclicRotation tests that N healthy keys are returned
// exactly once each, in a fixed cyclic order.
func TestAcquire_FixedCyclicRotation(t *testing.T) {
	pool, _, _ := testPool(t, []string{"k1", "k2", "k3"}, Config{})

	var got []string
	for i := 0; i < 3; i++ {
		key, err := pool.Acquire()
		require.NoError(t, err)
		got = append(got, key)
	}
	assert.Equal(t, []string{"k1", "k2", "k3"}, got)

	// The cycle wraps.
	key, err := pool.Acquire()
	require.NoError(t, err)
	assert.Equal(t, "k1", key)
}

// TestAcquire_SkipsCoolingKeys tests that a rate-limited key is excluded
// from rotation until its cooldown expires.
func TestAcquire_SkipsCoolingKeys(t *testing.T) {
	pool, now, _ := testPool(t, []string{"k1", "k2"}, Config{CooldownSeconds: 60})

	pool.ReportRateLimited("k1")

	key, err := pool.Acquire()
	require.NoError(t, err)
	assert.Equal(t, "k2", key)

	// Just before expiry the key is still excluded.
	*now = now.Add(60*time.Second - time.Nanosecond)
	key, err = pool.Acquire()
	require.NoError(t, err)
	assert.Equal(t, "k2", key)
}

// TestAcquire_CooldownExpiresExactly tests that a key reported rate-limited
// at T becomes eligible again at exactly T + cooldown.
func TestAcquire_CooldownExpiresExactly(t *testing.T) {
	pool, now, _ := testPool(t, []string{"k1"}, Config{CooldownSeconds: 60})

	pool.ReportRateLimited("k1")
	*now = now.Add(60 * time.Second)

	key, err := pool.Acquire()
	require.NoError(t, err)
	assert.Equal(t, "k1", key)
}

// TestAcquire_WaitsForSoonestExpiry tests that with every key cooling the
// pool sleeps until the first expiry, then hands out that key.
func TestAcquire_WaitsForSoonestExpiry(t *testing.T) {
	pool, _, slept := testPool(t, []string{"k1"}, Config{CooldownSeconds: 30})

	pool.ReportRateLimited("k1")

	key, err := pool.Acquire()
	require.NoError(t, err)
	assert.Equal(t, "k1", key)
	require.Len(t, *slept, 1)
	assert.Equal(t, 30*time.Second, (*slept)[0])
}

// TestAcquire_FailsAfterWaitBudget tests that repeated all-keys-cooldown
// waits eventually fail fatally instead of stalling forever.
func TestAcquire_FailsAfterWaitBudget(t *testing.T) {
	pool, _, slept := testPool(t, []string{"k1"}, Config{CooldownSeconds: 60, MaxWaitRounds: 3})
	// Freeze the clock: sleeping must not bring the key back.
	pool.sleep = func(d time.Duration) { *slept = append(*slept, d) }

	pool.ReportRateLimited("k1")

	_, err := pool.Acquire()
	assert.ErrorIs(t, err, ErrRateLimitExhausted)
	assert.Len(t, *slept, 3)
}

// TestAcquire_AllBlacklistedIsFatal tests credential exhaustion.
func TestAcquire_AllBlacklistedIsFatal(t *testing.T) {
	pool, _, _ := testPool(t, []string{"k1", "k2"}, Config{})

	pool.ReportUnauthorized("k1")

	key, err := pool.Acquire()
	require.NoError(t, err)
	assert.Equal(t, "k2", key)

	pool.ReportUnauthorized("k2")
	_, err = pool.Acquire()
	assert.ErrorIs(t, err, ErrAuthExhausted)
}

// TestAcquire_NoKeysConfigured tests the empty credential list.
func TestAcquire_NoKeysConfigured(t *testing.T) {
	pool, _, _ := testPool(t, nil, Config{})

	_, err := pool.Acquire()
	assert.ErrorIs(t, err, ErrNoKeys)
}

// TestReportSuccess_AppliesGlobalPacing tests the fixed delay after every
// successful call.
func TestReportSuccess_AppliesGlobalPacing(t *testing.T) {
	pool, _, slept := testPool(t, []string{"k1"}, Config{PaceMillis: 300})

	pool.ReportSuccess("k1")

	require.Len(t, *slept, 1)
	assert.Equal(t, 300*time.Millisecond, (*slept)[0])
}

// TestKeyList_SplitsCommasAndNewlines tests credential list parsing.
func TestKeyList_SplitsCommasAndNewlines(t *testing.T) {
	cfg := Config{Keys: "alpha, beta\ngamma\r\n ,,delta "}
	assert.Equal(t, []string{"alpha", "beta", "gamma", "delta"}, cfg.KeyList())
}
