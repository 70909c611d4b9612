package robotevents

import (
	"errors"
	"sync"
	"time"
)

var (
	// ErrNoKeys means the credential list was empty to begin with.
	ErrNoKeys = errors.New("no API keys configured")
	// ErrAuthExhausted means every configured key has been blacklisted
	// after authorization failures. No usable credentials remain.
	ErrAuthExhausted = errors.New("all API keys blacklisted")
	// ErrRateLimitExhausted means every key stayed in cooldown across the
	// allowed number of consecutive waits.
	ErrRateLimitExhausted = errors.New("rate limit wait budget exhausted")
)

// Bounds for a single all-keys-unavailable wait.
const (
	minCooldownWait = 1 * time.Second
	maxCooldownWait = 60 * time.Second
)

// KeyPool owns the credential set: rotation order, blacklist, and per-key
// cooldown state. It is an explicit stateful service injected into the
// fetcher rather than package-level state, and serializes access internally
// so a concurrent caller extension stays safe.
type KeyPool struct {
	mu           sync.Mutex
	keys         []string
	cursor       int
	blacklisted  map[string]bool
	coolingUntil map[string]time.Time
	waitRounds   int

	cooldown      time.Duration
	pace          time.Duration
	maxWaitRounds int

	// Injectable for tests.
	now   func() time.Time
	sleep func(time.Duration)
}

// NewKeyPool creates a pool rotating over the given keys.
func NewKeyPool(keys []string, cfg Config) *KeyPool {
	cooldown := cfg.CooldownSeconds
	if cooldown <= 0 {
		cooldown = 60
	}
	maxWaitRounds := cfg.MaxWaitRounds
	if maxWaitRounds <= 0 {
		maxWaitRounds = 10
	}

	return &KeyPool{
		keys:          keys,
		blacklisted:   make(map[string]bool),
		coolingUntil:  make(map[string]time.Time),
		cooldown:      time.Duration(cooldown) * time.Second,
		pace:          time.Duration(cfg.PaceMillis) * time.Millisecond,
		maxWaitRounds: maxWaitRounds,
		now:           time.Now,
		sleep:         time.Sleep,
	}
}

// Acquire returns the next key that is neither blacklisted nor inside an
// active cooldown window. If no key is currently eligible it sleeps until the
// soonest cooldown expiry (bounded) and retries; after maxWaitRounds
// consecutive waits it fails with ErrRateLimitExhausted. When every key is
// blacklisted it fails with ErrAuthExhausted.
func (p *KeyPool) Acquire() (string, error) {
	for {
		p.mu.Lock()

		if len(p.keys) == 0 {
			p.mu.Unlock()
			return "", ErrNoKeys
		}
		if len(p.blacklisted) >= len(p.keys) {
			p.mu.Unlock()
			return "", ErrAuthExhausted
		}

		now := p.now()
		for i := 0; i < len(p.keys); i++ {
			idx := (p.cursor + i) % len(p.keys)
			key := p.keys[idx]
			if p.blacklisted[key] {
				continue
			}
			if until, cooling := p.coolingUntil[key]; cooling && now.Before(until) {
				continue
			}
			p.cursor = (idx + 1) % len(p.keys)
			p.waitRounds = 0
			p.mu.Unlock()
			return key, nil
		}

		// Every key is cooling down. Wait for the soonest expiry.
		p.waitRounds++
		if p.waitRounds > p.maxWaitRounds {
			p.mu.Unlock()
			return "", ErrRateLimitExhausted
		}

		wait := p.soonestExpiryLocked(now)
		p.mu.Unlock()
		p.sleep(wait)
	}
}

// soonestExpiryLocked returns how long to sleep until the first non-blacklisted
// key leaves cooldown, clamped between minCooldownWait and maxCooldownWait.
func (p *KeyPool) soonestExpiryLocked(now time.Time) time.Duration {
	wait := maxCooldownWait
	for _, key := range p.keys {
		if p.blacklisted[key] {
			continue
		}
		if until, ok := p.coolingUntil[key]; ok {
			if d := until.Sub(now); d < wait {
				wait = d
			}
		}
	}
	if wait < minCooldownWait {
		wait = minCooldownWait
	}
	return wait
}

// ReportUnauthorized permanently blacklists a key for the process lifetime.
func (p *KeyPool) ReportUnauthorized(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.blacklisted[key] = true
}

// ReportRateLimited places a key on cooldown. It becomes eligible again
// after the cooldown duration, without being blacklisted.
func (p *KeyPool) ReportRateLimited(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.coolingUntil[key] = p.now().Add(p.cooldown)
}

// ReportSuccess clears any soft backoff state for the key and applies the
// global pacing delay that keeps the aggregate request rate under the
// provider's quota even when every key is healthy.
func (p *KeyPool) ReportSuccess(key string) {
	p.mu.Lock()
	delete(p.coolingUntil, key)
	p.waitRounds = 0
	pace := p.pace
	sleep := p.sleep
	p.mu.Unlock()

	if pace > 0 {
		sleep(pace)
	}
}
