// Package mocks provides testify mocks for the storage interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/tutorrio/icalsender/internal/storage"
)

// MockSequenceStore is a mock implementation of storage.SequenceStore.
type MockSequenceStore struct {
	mock.Mock
}

//nolint:revive
func (m *MockSequenceStore) Get(ctx context.Context, eventID string) (*storage.SequenceRecord, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.SequenceRecord), args.Error(1)
}

//nolint:revive
func (m *MockSequenceStore) Create(ctx context.Context, eventID, eventName string) error {
	args := m.Called(ctx, eventID, eventName)
	return args.Error(0)
}

//nolint:revive
func (m *MockSequenceStore) Bump(ctx context.Context, eventID string) (int, error) {
	args := m.Called(ctx, eventID)
	return args.Int(0), args.Error(1)
}

//nolint:revive
func (m *MockSequenceStore) Remove(ctx context.Context, eventID string) error {
	args := m.Called(ctx, eventID)
	return args.Error(0)
}

//nolint:revive
func (m *MockSequenceStore) NameOf(ctx context.Context, eventID string) (string, error) {
	args := m.Called(ctx, eventID)
	return args.String(0), args.Error(1)
}
