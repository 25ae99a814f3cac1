package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/rezzza07/artmart/models"
)

type MockCache struct {
	mock.Mock
}

func (m *MockCache) Publish(ctx context.Context, channel string, message []byte) error {
	args := m.Called(ctx, channel, message)
	return args.Error(0)
}

func (m *MockCache) Subscribe(ctx context.Context, channel string, handler func(message []byte)) error {
	args := m.Called(ctx, channel, handler)
	return args.Error(0)
}

func (m *MockCache) GetFeatured(ctx context.Context) ([]byte, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockCache) SetFeatured(ctx context.Context, payload []byte) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}

func (m *MockCache) InvalidateFeatured(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockCache) GetUserStats(ctx context.Context, email string) (models.UserStats, bool, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(models.UserStats), args.Bool(1), args.Error(2)
}

func (m *MockCache) SetUserStats(ctx context.Context, email string, stats models.UserStats) error {
	args := m.Called(ctx, email, stats)
	return args.Error(0)
}

func (m *MockCache) InvalidateUserStats(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}
