package docstore

import (
	"context"
	"time"

	"tournament-sync/core/canonical"

	"go.uber.org/zap"
)

// chunkSize is the store's atomic-group limit.
const chunkSize = 500

// Record pairs a stable identity with a semi-structured payload.
type Record struct {
	ID      string
	Payload map[string]any
}

// WriteStats reports how many records a Write call actually committed.
type WriteStats struct {
	Written int
	Skipped int
}

// Writer commits records to the durable store, skipping any whose stored
// content is already structurally equal to the incoming payload. Reads before
// writes trade store read cost for avoiding redundant writes and the update
// notifications they would trigger downstream.
type Writer struct {
	client        Client
	logger        *zap.Logger
	chunkSize     int
	commitTimeout time.Duration
}

// NewWriter creates a change-aware writer on top of a store client.
func NewWriter(client Client, cfg Config, logger *zap.Logger) *Writer {
	timeout := cfg.CommitTimeoutSeconds
	if timeout <= 0 {
		timeout = 10
	}
	return &Writer{
		client:        client,
		logger:        logger,
		chunkSize:     chunkSize,
		commitTimeout: time.Duration(timeout) * time.Second,
	}
}

// Write persists records into collectionPath in atomic groups of up to 500.
// A commit failure aborts the whole chunk and propagates to the caller.
func (w *Writer) Write(ctx context.Context, collectionPath string, records []Record, merge bool) (WriteStats, error) {
	var stats WriteStats

	for start := 0; start < len(records); start += w.chunkSize {
		end := start + w.chunkSize
		if end > len(records) {
			end = len(records)
		}

		written, skipped, err := w.writeChunk(ctx, collectionPath, records[start:end], merge)
		if err != nil {
			return stats, err
		}
		stats.Written += written
		stats.Skipped += skipped
	}

	if stats.Written > 0 || stats.Skipped > 0 {
		w.logger.Debug("Collection written",
			zap.String("collection", collectionPath),
			zap.Int("written", stats.Written),
			zap.Int("skipped", stats.Skipped),
		)
	}
	return stats, nil
}

func (w *Writer) writeChunk(ctx context.Context, collectionPath string, records []Record, merge bool) (int, int, error) {
	ids := make([]string, 0, len(records))
	for _, rec := range records {
		ids = append(ids, rec.ID)
	}

	existing, err := w.client.GetAll(ctx, collectionPath, ids)
	if err != nil {
		return 0, 0, err
	}

	staged := make([]StagedWrite, 0, len(records))
	skipped := 0
	for _, rec := range records {
		if stored, ok := existing[rec.ID]; ok && unchanged(stored, rec.Payload, merge) {
			skipped++
			continue
		}
		staged = append(staged, StagedWrite{ID: rec.ID, Data: rec.Payload, Merge: merge})
	}

	if len(staged) == 0 {
		return 0, skipped, nil
	}

	cctx, cancel := context.WithTimeout(ctx, w.commitTimeout)
	defer cancel()
	if err := w.client.Commit(cctx, collectionPath, staged); err != nil {
		return 0, skipped, err
	}
	return len(staged), skipped, nil
}

// unchanged compares a stored snapshot against an incoming payload, ignoring
// the server-assigned write-metadata field. Under merge semantics only the
// incoming fields would be overwritten, so only that subset of the stored
// document takes part in the comparison.
func unchanged(stored, incoming map[string]any, merge bool) bool {
	stripped := make(map[string]any, len(stored))
	for k, v := range stored {
		if k == MetaUpdatedAt {
			continue
		}
		if merge {
			if _, wanted := incoming[k]; !wanted {
				continue
			}
		}
		stripped[k] = v
	}
	return canonical.Equal(stripped, incoming)
}
