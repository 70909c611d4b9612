package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// Client is a mock implementation of livestore.Client
type Client struct {
	mock.Mock
}

func (m *Client) Get(ctx context.Context, path string) (map[string]map[string]any, error) {
	args := m.Called(ctx, path)
	if out, ok := args.Get(0).(map[string]map[string]any); ok {
		return out, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Client) Update(ctx context.Context, path string, entries map[string]any) error {
	args := m.Called(ctx, path, entries)
	return args.Error(0)
}
