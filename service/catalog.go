package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rezzza07/artmart/models"
	"github.com/rezzza07/artmart/store"
	"github.com/rezzza07/artmart/worker"
)

const featuredCount = 6

// CategoryAll is the sentinel category meaning "apply no category filter".
const CategoryAll = "all"

type ListParams struct {
	OwnerEmail string
	Category   string
	Limit      int
	Page       int
}

type ListResult struct {
	Artworks []models.Artwork
	// Total counts the whole filtered set, ignoring pagination, so callers
	// can compute a page count
	Total int
}

// ListArtworks returns the page of artworks matching params. With an owner
// filter the owner's whole catalog is visible regardless of visibility;
// without one only public artworks are returned.
func (s *Service) ListArtworks(ctx context.Context, params ListParams) (ListResult, error) {
	var artworks []models.Artwork
	var err error

	if params.OwnerEmail != "" {
		artworks, err = s.Store.ListArtworksByOwner(ctx, params.OwnerEmail)
	} else {
		artworks, err = s.Store.ListPublicArtworks(ctx, false, 0)
	}
	if err != nil {
		return ListResult{}, fmt.Errorf("list artworks failed: %w", err)
	}

	if params.Category != "" && params.Category != CategoryAll {
		filtered := make([]models.Artwork, 0, len(artworks))
		for _, artwork := range artworks {
			if artwork.Category == params.Category {
				filtered = append(filtered, artwork)
			}
		}
		artworks = filtered
	}

	total := len(artworks)

	if params.Limit > 0 {
		page := params.Page
		if page < 1 {
			page = 1
		}
		start := (page - 1) * params.Limit
		if start > len(artworks) {
			start = len(artworks)
		}
		end := start + params.Limit
		if end > len(artworks) {
			end = len(artworks)
		}
		artworks = artworks[start:end]
	}

	return ListResult{Artworks: artworks, Total: total}, nil
}

// FeaturedArtworks returns the newest public artworks as a fixed-size set.
// The set is cached as a marshalled blob since it is identical for everyone.
func (s *Service) FeaturedArtworks(ctx context.Context) ([]models.Artwork, error) {
	if payload, err := s.Cache.GetFeatured(ctx); err == nil && payload != nil {
		var artworks []models.Artwork
		if err := json.Unmarshal(payload, &artworks); err == nil {
			return artworks, nil
		}
	}

	artworks, err := s.Store.ListPublicArtworks(ctx, true, featuredCount)
	if err != nil {
		return nil, fmt.Errorf("featured artworks failed: %w", err)
	}

	if payload, err := json.Marshal(artworks); err == nil {
		if err := s.Cache.SetFeatured(ctx, payload); err != nil {
			slog.Warn("failed to cache featured artworks", "error", err)
		}
	}

	return artworks, nil
}

func (s *Service) GetArtwork(ctx context.Context, artworkId string) (models.Artwork, error) {
	if err := ValidateArtworkId(artworkId); err != nil {
		return models.Artwork{}, err
	}

	artwork, err := s.Store.GetArtwork(ctx, artworkId)
	if err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			return models.Artwork{}, ErrNotFound
		}
		return models.Artwork{}, fmt.Errorf("get artwork failed: %w", err)
	}

	return artwork, nil
}

type ArtworkInput struct {
	Title       string `json:"title"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Visibility  string `json:"visibility"`
}

// CreateArtwork stores a new artwork owned by the verified caller. The likes
// counter always starts at zero; clients cannot seed it.
func (s *Service) CreateArtwork(ctx context.Context, ownerEmail string, input ArtworkInput) (models.Artwork, error) {
	if err := RequireEmail(ownerEmail); err != nil {
		return models.Artwork{}, err
	}

	visibility := input.Visibility
	if visibility == "" {
		visibility = models.VisibilityPublic
	}

	artwork := models.Artwork{
		Owner:       ownerEmail,
		Title:       input.Title,
		Category:    input.Category,
		Description: input.Description,
		Visibility:  visibility,
		Likes:       0,
	}

	artwork, err := s.Store.CreateArtwork(ctx, artwork)
	if err != nil {
		return models.Artwork{}, fmt.Errorf("create artwork failed: %w", err)
	}

	// Async side-effects - return to caller as soon as the store operation is done
	go func() {
		ctx := context.Background()
		if err := s.Cache.InvalidateFeatured(ctx); err != nil {
			slog.Warn("failed to invalidate featured cache", "error", err)
		}
		if err := s.Cache.InvalidateUserStats(ctx, artwork.Owner); err != nil {
			slog.Warn("failed to invalidate user stats", "email", artwork.Owner, "error", err)
		}
	}()

	return artwork, nil
}

type ArtworkPatch struct {
	Title       *string `json:"title"`
	Category    *string `json:"category"`
	Description *string `json:"description"`
	Visibility  *string `json:"visibility"`
}

// UpdateArtwork applies a partial merge: fields absent from the patch keep
// their stored values. The likes counter, owner and creation time are not
// client-writable and never appear in the update set.
func (s *Service) UpdateArtwork(ctx context.Context, actorEmail string, artworkId string, patch ArtworkPatch) (models.Artwork, error) {
	if err := ValidateArtworkId(artworkId); err != nil {
		return models.Artwork{}, err
	}

	existing, err := s.GetArtwork(ctx, artworkId)
	if err != nil {
		return models.Artwork{}, err
	}
	if existing.Owner != actorEmail {
		return models.Artwork{}, ErrForbidden
	}

	artwork := existing
	var fields []string
	if patch.Title != nil {
		artwork.Title = *patch.Title
		fields = append(fields, "Title")
	}
	if patch.Category != nil {
		artwork.Category = *patch.Category
		fields = append(fields, "Category")
	}
	if patch.Description != nil {
		artwork.Description = *patch.Description
		fields = append(fields, "Description")
	}
	if patch.Visibility != nil {
		artwork.Visibility = *patch.Visibility
		fields = append(fields, "Visibility")
	}

	if len(fields) == 0 {
		return existing, nil
	}

	updated, err := s.Store.UpdateArtwork(ctx, artwork, fields)
	if err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			return models.Artwork{}, ErrNotFound
		}
		return models.Artwork{}, fmt.Errorf("update artwork failed: %w", err)
	}

	if patch.Visibility != nil {
		go func() {
			if err := s.Cache.InvalidateFeatured(context.Background()); err != nil {
				slog.Warn("failed to invalidate featured cache", "error", err)
			}
		}()
	}

	return updated, nil
}

type artworkDeletedMessage struct {
	Type      string `json:"type"`
	ArtworkId string `json:"artworkId"`
}

// DeleteArtwork removes the artwork row and kicks off asynchronous cleanup
// of its like/favorite rows through the cleanup queue.
func (s *Service) DeleteArtwork(ctx context.Context, actorEmail string, artworkId string) error {
	if err := ValidateArtworkId(artworkId); err != nil {
		return err
	}

	existing, err := s.GetArtwork(ctx, artworkId)
	if err != nil {
		return err
	}
	if existing.Owner != actorEmail {
		return ErrForbidden
	}

	if err := s.Store.DeleteArtwork(ctx, artworkId); err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete artwork failed: %w", err)
	}

	// Async side-effects - return to caller as soon as the store operation is done
	go func() {
		ctx := context.Background()

		deletedMsg := artworkDeletedMessage{Type: "artwork_deleted", ArtworkId: artworkId}
		if deletedMsgBytes, err := json.Marshal(deletedMsg); err == nil {
			s.Cache.Publish(ctx, ArtworkChannel(artworkId), deletedMsgBytes)
		}

		msg := worker.CleanupArtworkMessage{ArtworkId: artworkId}
		if msgBytes, err := json.Marshal(msg); err == nil {
			if err := s.CleanupQueue.Send(ctx, string(msgBytes)); err != nil {
				slog.Error("failed to enqueue artwork cleanup", "artworkId", artworkId, "error", err)
			}
		}

		if err := s.Cache.InvalidateFeatured(ctx); err != nil {
			slog.Warn("failed to invalidate featured cache", "error", err)
		}
		if err := s.Cache.InvalidateUserStats(ctx, existing.Owner); err != nil {
			slog.Warn("failed to invalidate user stats", "email", existing.Owner, "error", err)
		}
	}()

	return nil
}
