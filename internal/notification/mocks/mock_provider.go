// Package mocks provides testify mocks for the notification interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/tutorrio/icalsender/internal/notification"
)

// MockProvider is a mock implementation of notification.Provider.
type MockProvider struct {
	mock.Mock
}

//nolint:revive
func (m *MockProvider) Name() string {
	args := m.Called()
	return args.String(0)
}

//nolint:revive
func (m *MockProvider) Send(ctx context.Context, msg notification.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}
