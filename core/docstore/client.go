package docstore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// MetaUpdatedAt is the write-metadata field stamped onto every document.
// It is server-assigned and must be ignored when comparing content.
const MetaUpdatedAt = "updatedAt"

// StagedWrite is a single pending document write within an atomic group.
type StagedWrite struct {
	// ID is the document identity within the collection.
	ID string
	// Data is the document payload.
	Data map[string]any
	// Merge selects merge semantics: only the given fields are overwritten,
	// siblings are left untouched.
	Merge bool
}

// Client defines the interface for durable store operations.
type Client interface {
	// GetAll reads current snapshots for the given identities in one batched
	// read. Missing documents are simply absent from the result map.
	GetAll(ctx context.Context, collectionPath string, ids []string) (map[string]map[string]any, error)
	// Commit atomically applies a group of staged writes to a collection,
	// stamping each document with a fresh server-assigned MetaUpdatedAt.
	Commit(ctx context.Context, collectionPath string, writes []StagedWrite) error
	// Get reads a single document. The second result reports existence.
	Get(ctx context.Context, docPath string) (map[string]any, bool, error)
	// ListIDs returns up to limit document identities from a collection.
	ListIDs(ctx context.Context, collectionPath string, limit int) ([]string, error)
	// Close releases the underlying connection.
	Close() error
}

// NewClient creates a Firestore-backed Client.
func NewClient(ctx context.Context, cfg Config) (Client, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	fs, err := firestore.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}

	return &firestoreClient{fs: fs}, nil
}

type firestoreClient struct {
	fs *firestore.Client
}

func (c *firestoreClient) GetAll(ctx context.Context, collectionPath string, ids []string) (map[string]map[string]any, error) {
	col := c.fs.Collection(collectionPath)
	refs := make([]*firestore.DocumentRef, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, col.Doc(id))
	}

	snaps, err := c.fs.GetAll(ctx, refs)
	if err != nil {
		return nil, fmt.Errorf("batched read of %s failed: %w", collectionPath, err)
	}

	out := make(map[string]map[string]any, len(snaps))
	for _, snap := range snaps {
		if snap.Exists() {
			out[snap.Ref.ID] = snap.Data()
		}
	}
	return out, nil
}

func (c *firestoreClient) Commit(ctx context.Context, collectionPath string, writes []StagedWrite) error {
	col := c.fs.Collection(collectionPath)
	batch := c.fs.Batch()
	for _, w := range writes {
		data := make(map[string]any, len(w.Data)+1)
		for k, v := range w.Data {
			data[k] = v
		}
		data[MetaUpdatedAt] = firestore.ServerTimestamp

		if w.Merge {
			batch.Set(col.Doc(w.ID), data, firestore.MergeAll)
		} else {
			batch.Set(col.Doc(w.ID), data)
		}
	}

	if _, err := batch.Commit(ctx); err != nil {
		return fmt.Errorf("commit of %d writes to %s failed: %w", len(writes), collectionPath, err)
	}
	return nil
}

func (c *firestoreClient) Get(ctx context.Context, docPath string) (map[string]any, bool, error) {
	snap, err := c.fs.Doc(docPath).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read of %s failed: %w", docPath, err)
	}
	return snap.Data(), true, nil
}

func (c *firestoreClient) ListIDs(ctx context.Context, collectionPath string, limit int) ([]string, error) {
	iter := c.fs.Collection(collectionPath).Limit(limit).Documents(ctx)
	defer iter.Stop()

	var ids []string
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("listing %s failed: %w", collectionPath, err)
		}
		ids = append(ids, snap.Ref.ID)
	}
	return ids, nil
}

func (c *firestoreClient) Close() error {
	return c.fs.Close()
}
