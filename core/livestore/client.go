package livestore

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/db"
	"google.golang.org/api/option"
)

// Client defines the interface for keyed store operations.
type Client interface {
	// Get reads all entries stored under path, keyed by child identity.
	// A missing path yields an empty map.
	Get(ctx context.Context, path string) (map[string]map[string]any, error)
	// Update writes the given entries under path in one multi-key update,
	// leaving sibling entries untouched.
	Update(ctx context.Context, path string, entries map[string]any) error
}

// NewClient creates a Realtime-Database-backed Client.
func NewClient(ctx context.Context, cfg Config) (Client, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{DatabaseURL: cfg.DatabaseURL}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firebase app: %w", err)
	}

	database, err := app.Database(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create database client: %w", err)
	}

	return &rtdbClient{db: database}, nil
}

type rtdbClient struct {
	db *db.Client
}

func (c *rtdbClient) Get(ctx context.Context, path string) (map[string]map[string]any, error) {
	var out map[string]map[string]any
	if err := c.db.NewRef(path).Get(ctx, &out); err != nil {
		return nil, fmt.Errorf("read of %s failed: %w", path, err)
	}
	if out == nil {
		out = map[string]map[string]any{}
	}
	return out, nil
}

func (c *rtdbClient) Update(ctx context.Context, path string, entries map[string]any) error {
	if err := c.db.NewRef(path).Update(ctx, entries); err != nil {
		return fmt.Errorf("update of %s failed: %w", path, err)
	}
	return nil
}
