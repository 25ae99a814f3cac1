package cache

import (
	"context"

	"github.com/rezzza07/artmart/models"
)

type ArtmartCache interface {
	Publish(ctx context.Context, channel string, message []byte) error
	Subscribe(ctx context.Context, channel string, handler func(message []byte)) error

	GetFeatured(ctx context.Context) ([]byte, error)
	SetFeatured(ctx context.Context, payload []byte) error
	InvalidateFeatured(ctx context.Context) error

	GetUserStats(ctx context.Context, email string) (models.UserStats, bool, error)
	SetUserStats(ctx context.Context, email string, stats models.UserStats) error
	InvalidateUserStats(ctx context.Context, email string) error
}
