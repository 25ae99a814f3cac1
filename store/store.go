package store

import (
	"context"
	"errors"

	"github.com/rezzza07/artmart/models"
)

type ArtmartStore interface {
	CreateArtwork(ctx context.Context, artwork models.Artwork) (models.Artwork, error)
	GetArtwork(ctx context.Context, artworkId string) (models.Artwork, error)
	UpdateArtwork(ctx context.Context, artwork models.Artwork, fields []string) (models.Artwork, error)
	DeleteArtwork(ctx context.Context, artworkId string) error
	ListArtworksByOwner(ctx context.Context, ownerEmail string) ([]models.Artwork, error)
	ListPublicArtworks(ctx context.Context, newestFirst bool, limit int32) ([]models.Artwork, error)

	AdjustLikes(ctx context.Context, artworkId string, delta int) (int, error)

	GetEngagement(ctx context.Context, artworkId string, userEmail string, kind models.EngagementKind) (models.Engagement, error)
	PutEngagement(ctx context.Context, engagement models.Engagement) error
	DeleteEngagement(ctx context.Context, artworkId string, userEmail string, kind models.EngagementKind) error
	ListEngagedArtworkIds(ctx context.Context, userEmail string, kind models.EngagementKind) ([]string, error)
	CountEngagements(ctx context.Context, userEmail string, kind models.EngagementKind) (int, error)
	DeleteArtworkEngagements(ctx context.Context, artworkId string) error

	CreateUser(ctx context.Context, user models.User) (models.User, bool, error)
	GetUser(ctx context.Context, email string) (models.User, error)
	UpsertUser(ctx context.Context, user models.User, fields []string) (models.User, error)
}

// Custom error types for clarity
var (
	ErrItemNotFound = errors.New("item does not exist")
	ErrItemExists   = errors.New("item already exists")
)
