package service_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	cachemocks "github.com/rezzza07/artmart/cache/mocks"
	"github.com/rezzza07/artmart/models"
	mqmocks "github.com/rezzza07/artmart/mq/mocks"
	"github.com/rezzza07/artmart/service"
	"github.com/rezzza07/artmart/store"
	storemocks "github.com/rezzza07/artmart/store/mocks"
)

func setupService(t *testing.T) (*service.Service, *storemocks.MockStore, *cachemocks.MockCache, *mqmocks.MockMQ) {
	mockStore := new(storemocks.MockStore)
	mockCache := new(cachemocks.MockCache)
	mockMQ := new(mqmocks.MockMQ)

	svc, err := service.NewService(
		mockStore,
		mockCache,
		mockMQ,
		nil,
		[]byte("secret"),
	)
	assert.NoError(t, err)

	return svc, mockStore, mockCache, mockMQ
}

// Helper that creates a channel and wraps a mock call to signal when it's called
func wrapMockWithSignal(call *mock.Call) chan struct{} {
	done := make(chan struct{})
	call.Run(func(args mock.Arguments) {
		close(done)
	})
	return done
}

func waitForSignal(t *testing.T, done chan struct{}) {
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for async call")
	}
}

const (
	artId1 = "018e38d7-0000-7000-8000-000000000001"
	artId2 = "018e38d7-0000-7000-8000-000000000002"
)

func TestListArtworks_Public(t *testing.T) {
	svc, mockStore, _, _ := setupService(t)
	ctx := context.Background()

	artworks := []models.Artwork{
		{Id: artId1, Owner: "a@example.com", Category: "painting"},
		{Id: artId2, Owner: "b@example.com", Category: "sculpture"},
	}
	mockStore.On("ListPublicArtworks", ctx, false, int32(0)).Return(artworks, nil)

	result, err := svc.ListArtworks(ctx, service.ListParams{})
	assert.NoError(t, err)
	assert.Len(t, result.Artworks, 2)
	assert.Equal(t, 2, result.Total)

	mockStore.AssertNotCalled(t, "ListArtworksByOwner", mock.Anything, mock.Anything)
}

func TestListArtworks_OwnerFilter(t *testing.T) {
	svc, mockStore, _, _ := setupService(t)
	ctx := context.Background()

	owned := []models.Artwork{
		{Id: artId1, Owner: "a@example.com", Visibility: models.VisibilityPrivate},
	}
	mockStore.On("ListArtworksByOwner", ctx, "a@example.com").Return(owned, nil)

	// Owner view includes private artworks
	result, err := svc.ListArtworks(ctx, service.ListParams{OwnerEmail: "a@example.com"})
	assert.NoError(t, err)
	assert.Len(t, result.Artworks, 1)
	assert.Equal(t, models.VisibilityPrivate, result.Artworks[0].Visibility)

	mockStore.AssertNotCalled(t, "ListPublicArtworks", mock.Anything, mock.Anything, mock.Anything)
}

func TestListArtworks_CategoryFilter(t *testing.T) {
	svc, mockStore, _, _ := setupService(t)
	ctx := context.Background()

	artworks := []models.Artwork{
		{Id: artId1, Category: "painting"},
		{Id: artId2, Category: "sculpture"},
	}
	mockStore.On("ListPublicArtworks", ctx, false, int32(0)).Return(artworks, nil)

	result, err := svc.ListArtworks(ctx, service.ListParams{Category: "painting"})
	assert.NoError(t, err)
	assert.Len(t, result.Artworks, 1)
	assert.Equal(t, 1, result.Total)
	assert.Equal(t, artId1, result.Artworks[0].Id)

	// "all" disables the filter
	result, err = svc.ListArtworks(ctx, service.ListParams{Category: service.CategoryAll})
	assert.NoError(t, err)
	assert.Len(t, result.Artworks, 2)
	assert.Equal(t, 2, result.Total)
}

func TestListArtworks_Pagination(t *testing.T) {
	svc, mockStore, _, _ := setupService(t)
	ctx := context.Background()

	artworks := make([]models.Artwork, 5)
	for i := range artworks {
		artworks[i] = models.Artwork{Id: artId1, Title: string(rune('a' + i))}
	}
	mockStore.On("ListPublicArtworks", ctx, false, int32(0)).Return(artworks, nil)

	// Page 2 of size 2 holds items 3 and 4; total still counts everything
	result, err := svc.ListArtworks(ctx, service.ListParams{Limit: 2, Page: 2})
	assert.NoError(t, err)
	assert.Len(t, result.Artworks, 2)
	assert.Equal(t, "c", result.Artworks[0].Title)
	assert.Equal(t, "d", result.Artworks[1].Title)
	assert.Equal(t, 5, result.Total)

	// Page past the end is empty, not an error
	result, err = svc.ListArtworks(ctx, service.ListParams{Limit: 2, Page: 10})
	assert.NoError(t, err)
	assert.Len(t, result.Artworks, 0)
	assert.Equal(t, 5, result.Total)

	// Page unset defaults to the first page
	result, err = svc.ListArtworks(ctx, service.ListParams{Limit: 3})
	assert.NoError(t, err)
	assert.Len(t, result.Artworks, 3)
	assert.Equal(t, "a", result.Artworks[0].Title)
}

func TestFeaturedArtworks_CacheHit(t *testing.T) {
	svc, mockStore, mockCache, _ := setupService(t)
	ctx := context.Background()

	artworks := []models.Artwork{{Id: artId1, Title: "cached"}}
	payload, _ := json.Marshal(artworks)
	mockCache.On("GetFeatured", ctx).Return(payload, nil)

	result, err := svc.FeaturedArtworks(ctx)
	assert.NoError(t, err)
	assert.Len(t, result, 1)
	assert.Equal(t, "cached", result[0].Title)

	mockStore.AssertNotCalled(t, "ListPublicArtworks", mock.Anything, mock.Anything, mock.Anything)
}

func TestFeaturedArtworks_CacheMiss(t *testing.T) {
	svc, mockStore, mockCache, _ := setupService(t)
	ctx := context.Background()

	mockCache.On("GetFeatured", ctx).Return(nil, nil)

	artworks := []models.Artwork{{Id: artId1}, {Id: artId2}}
	mockStore.On("ListPublicArtworks", ctx, true, int32(6)).Return(artworks, nil)
	mockCache.On("SetFeatured", ctx, mock.Anything).Return(nil)

	result, err := svc.FeaturedArtworks(ctx)
	assert.NoError(t, err)
	assert.Len(t, result, 2)

	mockCache.AssertCalled(t, "SetFeatured", ctx, mock.Anything)
}

func TestGetArtwork_InvalidId(t *testing.T) {
	svc, mockStore, _, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.GetArtwork(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, service.ErrInvalidIdentifier)

	mockStore.AssertNotCalled(t, "GetArtwork", mock.Anything, mock.Anything)
}

func TestGetArtwork_NotFound(t *testing.T) {
	svc, mockStore, _, _ := setupService(t)
	ctx := context.Background()

	mockStore.On("GetArtwork", ctx, artId1).Return(models.Artwork{}, store.ErrItemNotFound)

	_, err := svc.GetArtwork(ctx, artId1)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestCreateArtwork(t *testing.T) {
	svc, mockStore, mockCache, _ := setupService(t)
	ctx := context.Background()

	stored := models.Artwork{Id: artId1, Owner: "a@example.com", Title: "Sunset", Visibility: models.VisibilityPublic}
	mockStore.On("CreateArtwork", ctx, mock.MatchedBy(func(artwork models.Artwork) bool {
		return artwork.Owner == "a@example.com" &&
			artwork.Likes == 0 &&
			artwork.Visibility == models.VisibilityPublic
	})).Return(stored, nil)

	featuredDone := wrapMockWithSignal(
		mockCache.On("InvalidateFeatured", mock.Anything).Return(nil),
	)
	mockCache.On("InvalidateUserStats", mock.Anything, "a@example.com").Return(nil).Maybe()

	artwork, err := svc.CreateArtwork(ctx, "a@example.com", service.ArtworkInput{Title: "Sunset"})
	assert.NoError(t, err)
	assert.Equal(t, artId1, artwork.Id)

	waitForSignal(t, featuredDone)
}

func TestCreateArtwork_MissingOwner(t *testing.T) {
	svc, mockStore, _, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.CreateArtwork(ctx, "", service.ArtworkInput{Title: "Sunset"})
	assert.ErrorIs(t, err, service.ErrMissingParameter)

	mockStore.AssertNotCalled(t, "CreateArtwork", mock.Anything, mock.Anything)
}

func TestUpdateArtwork_PartialMerge(t *testing.T) {
	svc, mockStore, _, _ := setupService(t)
	ctx := context.Background()

	existing := models.Artwork{Id: artId1, Owner: "a@example.com", Title: "Old", Category: "painting", Likes: 7}
	mockStore.On("GetArtwork", ctx, artId1).Return(existing, nil)

	updated := existing
	updated.Title = "New"
	mockStore.On("UpdateArtwork", ctx, mock.MatchedBy(func(artwork models.Artwork) bool {
		return artwork.Title == "New" && artwork.Category == "painting"
	}), []string{"Title"}).Return(updated, nil)

	title := "New"
	result, err := svc.UpdateArtwork(ctx, "a@example.com", artId1, service.ArtworkPatch{Title: &title})
	assert.NoError(t, err)
	assert.Equal(t, "New", result.Title)
	assert.Equal(t, "painting", result.Category)
	assert.Equal(t, 7, result.Likes)
}

func TestUpdateArtwork_EmptyPatch(t *testing.T) {
	svc, mockStore, _, _ := setupService(t)
	ctx := context.Background()

	existing := models.Artwork{Id: artId1, Owner: "a@example.com", Title: "Old"}
	mockStore.On("GetArtwork", ctx, artId1).Return(existing, nil)

	result, err := svc.UpdateArtwork(ctx, "a@example.com", artId1, service.ArtworkPatch{})
	assert.NoError(t, err)
	assert.Equal(t, existing, result)

	mockStore.AssertNotCalled(t, "UpdateArtwork", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateArtwork_NotOwner(t *testing.T) {
	svc, mockStore, _, _ := setupService(t)
	ctx := context.Background()

	existing := models.Artwork{Id: artId1, Owner: "a@example.com"}
	mockStore.On("GetArtwork", ctx, artId1).Return(existing, nil)

	title := "New"
	_, err := svc.UpdateArtwork(ctx, "intruder@example.com", artId1, service.ArtworkPatch{Title: &title})
	assert.ErrorIs(t, err, service.ErrForbidden)

	mockStore.AssertNotCalled(t, "UpdateArtwork", mock.Anything, mock.Anything, mock.Anything)
}

func TestDeleteArtwork(t *testing.T) {
	svc, mockStore, mockCache, mockMQ := setupService(t)
	ctx := context.Background()

	existing := models.Artwork{Id: artId1, Owner: "a@example.com"}
	mockStore.On("GetArtwork", ctx, artId1).Return(existing, nil)
	mockStore.On("DeleteArtwork", ctx, artId1).Return(nil)

	mockCache.On("Publish", mock.Anything, service.ArtworkChannel(artId1), mock.Anything).Return(nil).Maybe()
	mockCache.On("InvalidateFeatured", mock.Anything).Return(nil).Maybe()
	mockCache.On("InvalidateUserStats", mock.Anything, "a@example.com").Return(nil).Maybe()

	cleanupDone := wrapMockWithSignal(
		mockMQ.On("Send", mock.Anything, mock.MatchedBy(func(body string) bool {
			var msg map[string]string
			if err := json.Unmarshal([]byte(body), &msg); err != nil {
				return false
			}
			return msg["artworkId"] == artId1
		})).Return(nil),
	)

	err := svc.DeleteArtwork(ctx, "a@example.com", artId1)
	assert.NoError(t, err)

	waitForSignal(t, cleanupDone)
}

func TestDeleteArtwork_NotOwner(t *testing.T) {
	svc, mockStore, _, _ := setupService(t)
	ctx := context.Background()

	existing := models.Artwork{Id: artId1, Owner: "a@example.com"}
	mockStore.On("GetArtwork", ctx, artId1).Return(existing, nil)

	err := svc.DeleteArtwork(ctx, "intruder@example.com", artId1)
	assert.ErrorIs(t, err, service.ErrForbidden)

	mockStore.AssertNotCalled(t, "DeleteArtwork", mock.Anything, mock.Anything)
}
