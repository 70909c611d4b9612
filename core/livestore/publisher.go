package livestore

import (
	"context"
	"sync"

	"tournament-sync/core/canonical"
	"tournament-sync/core/docstore"

	"go.uber.org/zap"
)

// Strategy selects how the publisher decides what to write.
type Strategy int

const (
	// Blind writes every record on every publish. Cheapest in read cost,
	// but every write is observable downstream even when nothing changed.
	Blind Strategy = iota
	// ChangeAware reads the current contents of the path once and writes
	// only the changed subset.
	ChangeAware
)

// ParseStrategy maps a config string to a Strategy, defaulting to ChangeAware.
func ParseStrategy(s string) Strategy {
	if s == "blind" {
		return Blind
	}
	return ChangeAware
}

// Publisher pushes records into the keyed store. It is best-effort: a missed
// live update is not fatal, so errors are logged and never propagated.
//
// A session-scoped cache remembers the content hash last published per path.
// When a later cycle produces identical content, the remote call is skipped
// entirely, which is cheaper than even a change-aware remote read. The cache
// is only valid within one continuous run and must not be shared across
// independently scheduled invocations.
type Publisher struct {
	client   Client
	logger   *zap.Logger
	strategy Strategy

	mu        sync.Mutex
	published map[string]string
}

// NewPublisher creates a publisher with the given strategy.
func NewPublisher(client Client, strategy Strategy, logger *zap.Logger) *Publisher {
	return &Publisher{
		client:    client,
		logger:    logger,
		strategy:  strategy,
		published: make(map[string]string),
	}
}

// Publish writes records under path. Errors are swallowed after logging.
func (p *Publisher) Publish(ctx context.Context, path string, records []docstore.Record) {
	if len(records) == 0 {
		return
	}

	hash := contentHash(records)
	p.mu.Lock()
	if p.published[path] == hash {
		p.mu.Unlock()
		p.logger.Debug("Publish suppressed, content unchanged since last cycle",
			zap.String("path", path))
		return
	}
	p.mu.Unlock()

	entries := make(map[string]any, len(records))
	for _, rec := range records {
		entries[rec.ID] = rec.Payload
	}

	if p.strategy == ChangeAware {
		existing, err := p.client.Get(ctx, path)
		if err != nil {
			// Fall back to writing everything; a stale read must not lose an update.
			p.logger.Warn("Live read failed, publishing blindly",
				zap.String("path", path), zap.Error(err))
		} else {
			for _, rec := range records {
				if stored, ok := existing[rec.ID]; ok && canonical.Equal(stored, rec.Payload) {
					delete(entries, rec.ID)
				}
			}
		}
	}

	if len(entries) > 0 {
		if err := p.client.Update(ctx, path, entries); err != nil {
			p.logger.Warn("Live publish failed",
				zap.String("path", path),
				zap.Int("records", len(entries)),
				zap.Error(err))
			return
		}
	}

	p.mu.Lock()
	p.published[path] = hash
	p.mu.Unlock()

	p.logger.Debug("Published live records",
		zap.String("path", path),
		zap.Int("written", len(entries)),
		zap.Int("skipped", len(records)-len(entries)),
	)
}

func contentHash(records []docstore.Record) string {
	payload := make(map[string]any, len(records))
	for _, rec := range records {
		payload[rec.ID] = rec.Payload
	}
	return canonical.Hash(payload)
}
