package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/rezzza07/artmart/models"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) CreateArtwork(ctx context.Context, artwork models.Artwork) (models.Artwork, error) {
	args := m.Called(ctx, artwork)
	return args.Get(0).(models.Artwork), args.Error(1)
}

func (m *MockStore) GetArtwork(ctx context.Context, artworkId string) (models.Artwork, error) {
	args := m.Called(ctx, artworkId)
	return args.Get(0).(models.Artwork), args.Error(1)
}

func (m *MockStore) UpdateArtwork(ctx context.Context, artwork models.Artwork, fields []string) (models.Artwork, error) {
	args := m.Called(ctx, artwork, fields)
	return args.Get(0).(models.Artwork), args.Error(1)
}

func (m *MockStore) DeleteArtwork(ctx context.Context, artworkId string) error {
	args := m.Called(ctx, artworkId)
	return args.Error(0)
}

func (m *MockStore) ListArtworksByOwner(ctx context.Context, ownerEmail string) ([]models.Artwork, error) {
	args := m.Called(ctx, ownerEmail)
	return args.Get(0).([]models.Artwork), args.Error(1)
}

func (m *MockStore) ListPublicArtworks(ctx context.Context, newestFirst bool, limit int32) ([]models.Artwork, error) {
	args := m.Called(ctx, newestFirst, limit)
	return args.Get(0).([]models.Artwork), args.Error(1)
}

func (m *MockStore) AdjustLikes(ctx context.Context, artworkId string, delta int) (int, error) {
	args := m.Called(ctx, artworkId, delta)
	return args.Int(0), args.Error(1)
}

func (m *MockStore) GetEngagement(ctx context.Context, artworkId string, userEmail string, kind models.EngagementKind) (models.Engagement, error) {
	args := m.Called(ctx, artworkId, userEmail, kind)
	return args.Get(0).(models.Engagement), args.Error(1)
}

func (m *MockStore) PutEngagement(ctx context.Context, engagement models.Engagement) error {
	args := m.Called(ctx, engagement)
	return args.Error(0)
}

func (m *MockStore) DeleteEngagement(ctx context.Context, artworkId string, userEmail string, kind models.EngagementKind) error {
	args := m.Called(ctx, artworkId, userEmail, kind)
	return args.Error(0)
}

func (m *MockStore) ListEngagedArtworkIds(ctx context.Context, userEmail string, kind models.EngagementKind) ([]string, error) {
	args := m.Called(ctx, userEmail, kind)
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockStore) CountEngagements(ctx context.Context, userEmail string, kind models.EngagementKind) (int, error) {
	args := m.Called(ctx, userEmail, kind)
	return args.Int(0), args.Error(1)
}

func (m *MockStore) DeleteArtworkEngagements(ctx context.Context, artworkId string) error {
	args := m.Called(ctx, artworkId)
	return args.Error(0)
}

func (m *MockStore) CreateUser(ctx context.Context, user models.User) (models.User, bool, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(models.User), args.Bool(1), args.Error(2)
}

func (m *MockStore) GetUser(ctx context.Context, email string) (models.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *MockStore) UpsertUser(ctx context.Context, user models.User, fields []string) (models.User, error) {
	args := m.Called(ctx, user, fields)
	return args.Get(0).(models.User), args.Error(1)
}
