package service

import (
	"github.com/gofrs/uuid/v5"
)

// ValidateArtworkId rejects malformed identifiers before any store round
// trip. Artwork ids are UUIDs assigned on creation.
func ValidateArtworkId(artworkId string) error {
	if _, err := uuid.FromString(artworkId); err != nil {
		return ErrInvalidIdentifier
	}
	return nil
}

// RequireEmail guards operations that act on behalf of a user.
func RequireEmail(email string) error {
	if email == "" {
		return ErrMissingParameter
	}
	return nil
}
