package service

import (
	"errors"

	"golang.org/x/oauth2"

	"github.com/rezzza07/artmart/cache"
	"github.com/rezzza07/artmart/mq"
	"github.com/rezzza07/artmart/store"
)

type Service struct {
	Store        store.ArtmartStore
	Cache        cache.ArtmartCache
	CleanupQueue mq.MessageQueue
	OAuthConfigs map[string]*oauth2.Config
	JWTSecret    []byte
}

// Failure conditions the REST layer translates to status codes. Store
// failures pass through untouched and end up as generic 500s.
var (
	ErrInvalidIdentifier = errors.New("invalid identifier")
	ErrMissingParameter  = errors.New("missing required parameter")
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
)

func NewService(
	artmartStore store.ArtmartStore,
	artmartCache cache.ArtmartCache,
	cleanupQueue mq.MessageQueue,
	oauthConfigs map[string]*oauth2.Config,
	jwtSecret []byte,
) (*Service, error) {
	oauthConfigs, err := addOauthEndpointsAndScopes(oauthConfigs)
	if err != nil {
		return nil, err
	}

	return &Service{
		Store:        artmartStore,
		Cache:        artmartCache,
		CleanupQueue: cleanupQueue,
		OAuthConfigs: oauthConfigs,
		JWTSecret:    jwtSecret,
	}, nil
}

// ArtworkChannel is the pub/sub channel carrying live events for one artwork.
func ArtworkChannel(artworkId string) string {
	return "art:" + artworkId
}
