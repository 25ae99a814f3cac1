package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rezzza07/artmart/models"
	"github.com/rezzza07/artmart/store"
)

type LikeStatus struct {
	Likes int  `json:"likes"`
	Liked bool `json:"liked"`
}

type likesUpdatedMessage struct {
	Type string           `json:"type"`
	Data likesUpdatedData `json:"data"`
}

type likesUpdatedData struct {
	ArtworkId string `json:"artworkId"`
	Likes     int    `json:"likes"`
}

// ToggleLike flips the caller's like on an artwork. The like row is the
// source of truth; the artwork's counter is adjusted atomically at the store
// and the post-mutation value is returned, never a value computed in-process.
func (s *Service) ToggleLike(ctx context.Context, artworkId string, userEmail string) (LikeStatus, error) {
	if err := ValidateArtworkId(artworkId); err != nil {
		return LikeStatus{}, err
	}
	if err := RequireEmail(userEmail); err != nil {
		return LikeStatus{}, err
	}

	_, err := s.Store.GetEngagement(ctx, artworkId, userEmail, models.EngagementLike)

	var likes int
	var liked bool

	switch {
	case err == nil:
		// Row exists: this toggle is an unlike. The counter only moves when
		// this call is the one that actually removed the row; a row already
		// deleted by a racing toggle was already counted down.
		delErr := s.Store.DeleteEngagement(ctx, artworkId, userEmail, models.EngagementLike)
		switch {
		case delErr == nil:
			likes, err = s.Store.AdjustLikes(ctx, artworkId, -1)
			if err != nil {
				if errors.Is(err, store.ErrItemNotFound) {
					return LikeStatus{}, ErrNotFound
				}
				return LikeStatus{}, fmt.Errorf("decrement likes failed: %w", err)
			}
		case errors.Is(delErr, store.ErrItemNotFound):
			likes, err = s.currentLikes(ctx, artworkId)
			if err != nil {
				return LikeStatus{}, err
			}
		default:
			return LikeStatus{}, fmt.Errorf("remove like failed: %w", delErr)
		}
		liked = false

	case errors.Is(err, store.ErrItemNotFound):
		// No row yet: this toggle is a like. Same rule in the other
		// direction: a conditional insert that lost to a concurrent toggle
		// (or a retry of a half-applied one) must not count the row twice.
		engagement := models.Engagement{
			ArtworkId: artworkId,
			UserEmail: userEmail,
			Kind:      models.EngagementLike,
		}
		putErr := s.Store.PutEngagement(ctx, engagement)
		switch {
		case putErr == nil:
			likes, err = s.Store.AdjustLikes(ctx, artworkId, 1)
			if err != nil {
				if errors.Is(err, store.ErrItemNotFound) {
					// Artwork is gone; compensate so no orphan like row survives
					if delErr := s.Store.DeleteEngagement(ctx, artworkId, userEmail, models.EngagementLike); delErr != nil && !errors.Is(delErr, store.ErrItemNotFound) {
						slog.Warn("failed to compensate like on missing artwork", "artworkId", artworkId, "error", delErr)
					}
					return LikeStatus{}, ErrNotFound
				}
				return LikeStatus{}, fmt.Errorf("increment likes failed: %w", err)
			}
		case errors.Is(putErr, store.ErrItemExists):
			likes, err = s.currentLikes(ctx, artworkId)
			if err != nil {
				return LikeStatus{}, err
			}
		default:
			return LikeStatus{}, fmt.Errorf("store like failed: %w", putErr)
		}
		liked = true

	default:
		return LikeStatus{}, fmt.Errorf("look up like failed: %w", err)
	}

	status := LikeStatus{Likes: likes, Liked: liked}

	// Async side-effects - return to caller as soon as the store operations are done
	go func() {
		msg := likesUpdatedMessage{
			Type: "likes_updated",
			Data: likesUpdatedData{ArtworkId: artworkId, Likes: status.Likes},
		}
		if msgBytes, err := json.Marshal(msg); err == nil {
			s.Cache.Publish(context.Background(), ArtworkChannel(artworkId), msgBytes)
		}
	}()

	return status, nil
}

// currentLikes reads the stored counter for a toggle that found its row
// mutation already applied, so the response reflects the count as-is.
func (s *Service) currentLikes(ctx context.Context, artworkId string) (int, error) {
	artwork, err := s.Store.GetArtwork(ctx, artworkId)
	if err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("read like count failed: %w", err)
	}
	return artwork.Likes, nil
}

const (
	FavoriteAdded   = "added"
	FavoriteRemoved = "removed"
)

// ToggleFavorite flips the caller's favorite on an artwork. Favorites carry
// no counter on the artwork; the result is a status tag, not a count.
func (s *Service) ToggleFavorite(ctx context.Context, artworkId string, userEmail string) (string, error) {
	if err := ValidateArtworkId(artworkId); err != nil {
		return "", err
	}
	if err := RequireEmail(userEmail); err != nil {
		return "", err
	}

	_, err := s.Store.GetEngagement(ctx, artworkId, userEmail, models.EngagementFavorite)

	var status string

	switch {
	case err == nil:
		if err := s.Store.DeleteEngagement(ctx, artworkId, userEmail, models.EngagementFavorite); err != nil && !errors.Is(err, store.ErrItemNotFound) {
			return "", fmt.Errorf("remove favorite failed: %w", err)
		}
		status = FavoriteRemoved

	case errors.Is(err, store.ErrItemNotFound):
		engagement := models.Engagement{
			ArtworkId: artworkId,
			UserEmail: userEmail,
			Kind:      models.EngagementFavorite,
		}
		if err := s.Store.PutEngagement(ctx, engagement); err != nil && !errors.Is(err, store.ErrItemExists) {
			return "", fmt.Errorf("store favorite failed: %w", err)
		}
		status = FavoriteAdded

	default:
		return "", fmt.Errorf("look up favorite failed: %w", err)
	}

	go func() {
		if err := s.Cache.InvalidateUserStats(context.Background(), userEmail); err != nil {
			slog.Warn("failed to invalidate user stats", "email", userEmail, "error", err)
		}
	}()

	return status, nil
}

func (s *Service) IsFavorite(ctx context.Context, artworkId string, userEmail string) (bool, error) {
	if err := ValidateArtworkId(artworkId); err != nil {
		return false, err
	}
	if err := RequireEmail(userEmail); err != nil {
		return false, err
	}

	_, err := s.Store.GetEngagement(ctx, artworkId, userEmail, models.EngagementFavorite)
	if err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("look up favorite failed: %w", err)
	}

	return true, nil
}

// ListFavorites resolves the caller's favorite rows into full artwork
// records. Rows pointing at artworks deleted since are skipped, and an empty
// favorite set is an empty list, not an error.
func (s *Service) ListFavorites(ctx context.Context, userEmail string) ([]models.Artwork, error) {
	if err := RequireEmail(userEmail); err != nil {
		return nil, err
	}

	artworkIds, err := s.Store.ListEngagedArtworkIds(ctx, userEmail, models.EngagementFavorite)
	if err != nil {
		return nil, fmt.Errorf("list favorites failed: %w", err)
	}

	artworks := make([]models.Artwork, 0, len(artworkIds))
	for _, artworkId := range artworkIds {
		artwork, err := s.Store.GetArtwork(ctx, artworkId)
		if err != nil {
			if errors.Is(err, store.ErrItemNotFound) {
				continue // orphan row, cleanup has not caught up yet
			}
			return nil, fmt.Errorf("resolve favorite %s failed: %w", artworkId, err)
		}
		artworks = append(artworks, artwork)
	}

	return artworks, nil
}

// UserStats aggregates a user's catalog: owned artwork count, favorite count
// and the sum of likes across owned artworks.
func (s *Service) UserStats(ctx context.Context, userEmail string) (models.UserStats, error) {
	if err := RequireEmail(userEmail); err != nil {
		return models.UserStats{}, err
	}

	if stats, ok, err := s.Cache.GetUserStats(ctx, userEmail); err == nil && ok {
		return stats, nil
	}

	artworks, err := s.Store.ListArtworksByOwner(ctx, userEmail)
	if err != nil {
		return models.UserStats{}, fmt.Errorf("list owned artworks failed: %w", err)
	}

	favorites, err := s.Store.CountEngagements(ctx, userEmail, models.EngagementFavorite)
	if err != nil {
		return models.UserStats{}, fmt.Errorf("count favorites failed: %w", err)
	}

	totalLikes := 0
	for _, artwork := range artworks {
		// A zero-value counter covers artworks that were never liked
		totalLikes += artwork.Likes
	}

	stats := models.UserStats{
		Artworks:   len(artworks),
		Favorites:  favorites,
		TotalLikes: totalLikes,
	}

	if err := s.Cache.SetUserStats(ctx, userEmail, stats); err != nil {
		slog.Warn("failed to cache user stats", "email", userEmail, "error", err)
	}

	return stats, nil
}
