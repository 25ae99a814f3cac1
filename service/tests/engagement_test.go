package service_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/rezzza07/artmart/models"
	"github.com/rezzza07/artmart/service"
	"github.com/rezzza07/artmart/store"
)

func TestToggleLike_Like(t *testing.T) {
	svc, mockStore, mockCache, _ := setupService(t)
	ctx := context.Background()
	email := "a@example.com"

	mockStore.On("GetEngagement", ctx, artId1, email, models.EngagementLike).
		Return(models.Engagement{}, store.ErrItemNotFound)
	mockStore.On("PutEngagement", ctx, mock.MatchedBy(func(engagement models.Engagement) bool {
		return engagement.ArtworkId == artId1 && engagement.UserEmail == email && engagement.Kind == models.EngagementLike
	})).Return(nil)
	mockStore.On("AdjustLikes", ctx, artId1, 1).Return(5, nil)

	publishDone := wrapMockWithSignal(
		mockCache.On("Publish", mock.Anything, service.ArtworkChannel(artId1), mock.MatchedBy(func(payload []byte) bool {
			var msg struct {
				Type string `json:"type"`
				Data struct {
					Likes int `json:"likes"`
				} `json:"data"`
			}
			if err := json.Unmarshal(payload, &msg); err != nil {
				return false
			}
			return msg.Type == "likes_updated" && msg.Data.Likes == 5
		})).Return(nil),
	)

	status, err := svc.ToggleLike(ctx, artId1, email)
	assert.NoError(t, err)
	assert.True(t, status.Liked)
	// The returned count is the store's post-increment value
	assert.Equal(t, 5, status.Likes)

	waitForSignal(t, publishDone)
}

func TestToggleLike_Unlike(t *testing.T) {
	svc, mockStore, mockCache, _ := setupService(t)
	ctx := context.Background()
	email := "a@example.com"

	engagement := models.Engagement{ArtworkId: artId1, UserEmail: email, Kind: models.EngagementLike}
	mockStore.On("GetEngagement", ctx, artId1, email, models.EngagementLike).Return(engagement, nil)
	mockStore.On("DeleteEngagement", ctx, artId1, email, models.EngagementLike).Return(nil)
	mockStore.On("AdjustLikes", ctx, artId1, -1).Return(4, nil)
	mockCache.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	status, err := svc.ToggleLike(ctx, artId1, email)
	assert.NoError(t, err)
	assert.False(t, status.Liked)
	assert.Equal(t, 4, status.Likes)

	mockStore.AssertNotCalled(t, "PutEngagement", mock.Anything, mock.Anything)
}

func TestToggleLike_ArtworkGone(t *testing.T) {
	svc, mockStore, mockCache, _ := setupService(t)
	ctx := context.Background()
	email := "a@example.com"

	mockStore.On("GetEngagement", ctx, artId1, email, models.EngagementLike).
		Return(models.Engagement{}, store.ErrItemNotFound)
	mockStore.On("PutEngagement", ctx, mock.Anything).Return(nil)
	mockStore.On("AdjustLikes", ctx, artId1, 1).Return(0, store.ErrItemNotFound)
	// The just-written like row must not outlive the missing artwork
	mockStore.On("DeleteEngagement", ctx, artId1, email, models.EngagementLike).Return(nil)
	mockCache.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	_, err := svc.ToggleLike(ctx, artId1, email)
	assert.ErrorIs(t, err, service.ErrNotFound)

	mockStore.AssertCalled(t, "DeleteEngagement", ctx, artId1, email, models.EngagementLike)
}

// A like whose conditional insert loses to an existing row must not move the
// counter again; the row was already counted once.
func TestToggleLike_RowAlreadyPresent(t *testing.T) {
	svc, mockStore, mockCache, _ := setupService(t)
	ctx := context.Background()
	email := "a@example.com"

	mockStore.On("GetEngagement", ctx, artId1, email, models.EngagementLike).
		Return(models.Engagement{}, store.ErrItemNotFound)
	mockStore.On("PutEngagement", ctx, mock.Anything).Return(store.ErrItemExists)
	mockStore.On("GetArtwork", ctx, artId1).Return(models.Artwork{Id: artId1, Likes: 1}, nil)
	mockCache.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	status, err := svc.ToggleLike(ctx, artId1, email)
	assert.NoError(t, err)
	assert.True(t, status.Liked)
	assert.Equal(t, 1, status.Likes)

	mockStore.AssertNotCalled(t, "AdjustLikes", mock.Anything, mock.Anything, mock.Anything)
}

// The mirror case: an unlike whose row was already removed by a racing toggle
// must not decrement a second time.
func TestToggleLike_RowAlreadyGone(t *testing.T) {
	svc, mockStore, mockCache, _ := setupService(t)
	ctx := context.Background()
	email := "a@example.com"

	engagement := models.Engagement{ArtworkId: artId1, UserEmail: email, Kind: models.EngagementLike}
	mockStore.On("GetEngagement", ctx, artId1, email, models.EngagementLike).Return(engagement, nil)
	mockStore.On("DeleteEngagement", ctx, artId1, email, models.EngagementLike).Return(store.ErrItemNotFound)
	mockStore.On("GetArtwork", ctx, artId1).Return(models.Artwork{Id: artId1, Likes: 3}, nil)
	mockCache.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	status, err := svc.ToggleLike(ctx, artId1, email)
	assert.NoError(t, err)
	assert.False(t, status.Liked)
	assert.Equal(t, 3, status.Likes)

	mockStore.AssertNotCalled(t, "AdjustLikes", mock.Anything, mock.Anything, mock.Anything)
}

func TestToggleLike_InvalidInput(t *testing.T) {
	svc, mockStore, _, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.ToggleLike(ctx, "junk", "a@example.com")
	assert.ErrorIs(t, err, service.ErrInvalidIdentifier)

	_, err = svc.ToggleLike(ctx, artId1, "")
	assert.ErrorIs(t, err, service.ErrMissingParameter)

	mockStore.AssertNotCalled(t, "GetEngagement", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestToggleFavorite_Add(t *testing.T) {
	svc, mockStore, mockCache, _ := setupService(t)
	ctx := context.Background()
	email := "a@example.com"

	mockStore.On("GetEngagement", ctx, artId1, email, models.EngagementFavorite).
		Return(models.Engagement{}, store.ErrItemNotFound)
	mockStore.On("PutEngagement", ctx, mock.MatchedBy(func(engagement models.Engagement) bool {
		return engagement.Kind == models.EngagementFavorite
	})).Return(nil)
	mockCache.On("InvalidateUserStats", mock.Anything, email).Return(nil).Maybe()

	status, err := svc.ToggleFavorite(ctx, artId1, email)
	assert.NoError(t, err)
	assert.Equal(t, service.FavoriteAdded, status)

	// Favorites never touch the like counter
	mockStore.AssertNotCalled(t, "AdjustLikes", mock.Anything, mock.Anything, mock.Anything)
}

func TestToggleFavorite_Remove(t *testing.T) {
	svc, mockStore, mockCache, _ := setupService(t)
	ctx := context.Background()
	email := "a@example.com"

	engagement := models.Engagement{ArtworkId: artId1, UserEmail: email, Kind: models.EngagementFavorite}
	mockStore.On("GetEngagement", ctx, artId1, email, models.EngagementFavorite).Return(engagement, nil)
	mockStore.On("DeleteEngagement", ctx, artId1, email, models.EngagementFavorite).Return(nil)
	mockCache.On("InvalidateUserStats", mock.Anything, email).Return(nil).Maybe()

	status, err := svc.ToggleFavorite(ctx, artId1, email)
	assert.NoError(t, err)
	assert.Equal(t, service.FavoriteRemoved, status)
}

func TestIsFavorite(t *testing.T) {
	svc, mockStore, _, _ := setupService(t)
	ctx := context.Background()
	email := "a@example.com"

	engagement := models.Engagement{ArtworkId: artId1, UserEmail: email, Kind: models.EngagementFavorite}
	mockStore.On("GetEngagement", ctx, artId1, email, models.EngagementFavorite).Return(engagement, nil).Once()

	isFavorite, err := svc.IsFavorite(ctx, artId1, email)
	assert.NoError(t, err)
	assert.True(t, isFavorite)

	mockStore.On("GetEngagement", ctx, artId1, email, models.EngagementFavorite).
		Return(models.Engagement{}, store.ErrItemNotFound).Once()

	isFavorite, err = svc.IsFavorite(ctx, artId1, email)
	assert.NoError(t, err)
	assert.False(t, isFavorite)
}

func TestListFavorites_SkipsOrphans(t *testing.T) {
	svc, mockStore, _, _ := setupService(t)
	ctx := context.Background()
	email := "a@example.com"

	mockStore.On("ListEngagedArtworkIds", ctx, email, models.EngagementFavorite).
		Return([]string{artId1, artId2}, nil)
	mockStore.On("GetArtwork", ctx, artId1).Return(models.Artwork{Id: artId1}, nil)
	// artId2 was deleted; its favorite row has not been cleaned up yet
	mockStore.On("GetArtwork", ctx, artId2).Return(models.Artwork{}, store.ErrItemNotFound)

	artworks, err := svc.ListFavorites(ctx, email)
	assert.NoError(t, err)
	assert.Len(t, artworks, 1)
	assert.Equal(t, artId1, artworks[0].Id)
}

func TestListFavorites_Empty(t *testing.T) {
	svc, mockStore, _, _ := setupService(t)
	ctx := context.Background()
	email := "a@example.com"

	mockStore.On("ListEngagedArtworkIds", ctx, email, models.EngagementFavorite).
		Return([]string{}, nil)

	artworks, err := svc.ListFavorites(ctx, email)
	assert.NoError(t, err)
	assert.NotNil(t, artworks)
	assert.Len(t, artworks, 0)
}

func TestUserStats_Compute(t *testing.T) {
	svc, mockStore, mockCache, _ := setupService(t)
	ctx := context.Background()
	email := "a@example.com"

	mockCache.On("GetUserStats", ctx, email).Return(models.UserStats{}, false, nil)

	owned := []models.Artwork{
		{Id: artId1, Owner: email, Likes: 3},
		{Id: artId2, Owner: email, Likes: 4},
	}
	mockStore.On("ListArtworksByOwner", ctx, email).Return(owned, nil)
	mockStore.On("CountEngagements", ctx, email, models.EngagementFavorite).Return(5, nil)

	expected := models.UserStats{Artworks: 2, Favorites: 5, TotalLikes: 7}
	mockCache.On("SetUserStats", ctx, email, expected).Return(nil)

	stats, err := svc.UserStats(ctx, email)
	assert.NoError(t, err)
	assert.Equal(t, expected, stats)

	mockCache.AssertCalled(t, "SetUserStats", ctx, email, expected)
}

func TestUserStats_CacheHit(t *testing.T) {
	svc, mockStore, mockCache, _ := setupService(t)
	ctx := context.Background()
	email := "a@example.com"

	cached := models.UserStats{Artworks: 1, Favorites: 2, TotalLikes: 3}
	mockCache.On("GetUserStats", ctx, email).Return(cached, true, nil)

	stats, err := svc.UserStats(ctx, email)
	assert.NoError(t, err)
	assert.Equal(t, cached, stats)

	mockStore.AssertNotCalled(t, "ListArtworksByOwner", mock.Anything, mock.Anything)
	mockStore.AssertNotCalled(t, "CountEngagements", mock.Anything, mock.Anything, mock.Anything)
}

// Walks one artwork through the whole engagement lifecycle: like, unlike,
// favorite, unfavorite.
func TestEngagementLifecycle(t *testing.T) {
	svc, mockStore, mockCache, _ := setupService(t)
	ctx := context.Background()
	email := "a@example.com"

	mockCache.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	mockCache.On("InvalidateUserStats", mock.Anything, email).Return(nil).Maybe()

	likeRow := models.Engagement{ArtworkId: artId1, UserEmail: email, Kind: models.EngagementLike}
	favRow := models.Engagement{ArtworkId: artId1, UserEmail: email, Kind: models.EngagementFavorite}

	// Like
	mockStore.On("GetEngagement", ctx, artId1, email, models.EngagementLike).
		Return(models.Engagement{}, store.ErrItemNotFound).Once()
	mockStore.On("PutEngagement", ctx, mock.Anything).Return(nil).Once()
	mockStore.On("AdjustLikes", ctx, artId1, 1).Return(1, nil).Once()

	status, err := svc.ToggleLike(ctx, artId1, email)
	assert.NoError(t, err)
	assert.True(t, status.Liked)
	assert.Equal(t, 1, status.Likes)

	// Unlike brings the counter back down
	mockStore.On("GetEngagement", ctx, artId1, email, models.EngagementLike).Return(likeRow, nil).Once()
	mockStore.On("DeleteEngagement", ctx, artId1, email, models.EngagementLike).Return(nil).Once()
	mockStore.On("AdjustLikes", ctx, artId1, -1).Return(0, nil).Once()

	status, err = svc.ToggleLike(ctx, artId1, email)
	assert.NoError(t, err)
	assert.False(t, status.Liked)
	assert.Equal(t, 0, status.Likes)

	// Favorite
	mockStore.On("GetEngagement", ctx, artId1, email, models.EngagementFavorite).
		Return(models.Engagement{}, store.ErrItemNotFound).Once()
	mockStore.On("PutEngagement", ctx, mock.Anything).Return(nil).Once()

	favStatus, err := svc.ToggleFavorite(ctx, artId1, email)
	assert.NoError(t, err)
	assert.Equal(t, service.FavoriteAdded, favStatus)

	// Unfavorite
	mockStore.On("GetEngagement", ctx, artId1, email, models.EngagementFavorite).Return(favRow, nil).Once()
	mockStore.On("DeleteEngagement", ctx, artId1, email, models.EngagementFavorite).Return(nil).Once()

	favStatus, err = svc.ToggleFavorite(ctx, artId1, email)
	assert.NoError(t, err)
	assert.Equal(t, service.FavoriteRemoved, favStatus)
}
