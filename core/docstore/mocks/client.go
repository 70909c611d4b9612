package mocks

import (
	"context"

	"tournament-sync/core/docstore"

	"github.com/stretchr/testify/mock"
)

// Client is a mock implementation of docstore.Client
type Client struct {
	mock.Mock
}

func (m *Client) GetAll(ctx context.Context, collectionPath string, ids []string) (map[string]map[string]any, error) {
	args := m.Called(ctx, collectionPath, ids)
	if out, ok := args.Get(0).(map[string]map[string]any); ok {
		return out, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Client) Commit(ctx context.Context, collectionPath string, writes []docstore.StagedWrite) error {
	args := m.Called(ctx, collectionPath, writes)
	return args.Error(0)
}

func (m *Client) Get(ctx context.Context, docPath string) (map[string]any, bool, error) {
	args := m.Called(ctx, docPath)
	if out, ok := args.Get(0).(map[string]any); ok {
		return out, args.Bool(1), args.Error(2)
	}
	return nil, args.Bool(1), args.Error(2)
}

func (m *Client) ListIDs(ctx context.Context, collectionPath string, limit int) ([]string, error) {
	args := m.Called(ctx, collectionPath, limit)
	if out, ok := args.Get(0).([]string); ok {
		return out, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Client) Close() error {
	args := m.Called()
	return args.Error(0)
}
