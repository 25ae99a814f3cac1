package service

import (
	"context"
	"fmt"

	"github.com/rezzza07/artmart/models"
)

// RegisterUser inserts a user record keyed by email. Registration is
// idempotent: if the email is already taken the existing record is returned
// and the bool result is false, never an error.
func (s *Service) RegisterUser(ctx context.Context, user models.User) (models.User, bool, error) {
	if err := RequireEmail(user.Email); err != nil {
		return models.User{}, false, err
	}

	user, created, err := s.Store.CreateUser(ctx, user)
	if err != nil {
		return models.User{}, false, fmt.Errorf("register user failed: %w", err)
	}

	return user, created, nil
}

type ProfilePatch struct {
	Name     *string `json:"name"`
	PhotoURL *string `json:"photoURL"`
	Address  *string `json:"address"`
}

// UpsertProfile updates the profile keyed by email, inserting it when
// absent. The verified caller identity must match the target email.
func (s *Service) UpsertProfile(ctx context.Context, actorEmail string, email string, patch ProfilePatch) (models.User, error) {
	if err := RequireEmail(email); err != nil {
		return models.User{}, err
	}
	if actorEmail != email {
		return models.User{}, ErrForbidden
	}

	user := models.User{Email: email}
	// Email always travels with the update so an upsert-created profile
	// carries it
	fields := []string{"Email"}
	if patch.Name != nil {
		user.Name = *patch.Name
		fields = append(fields, "Name")
	}
	if patch.PhotoURL != nil {
		user.PhotoURL = *patch.PhotoURL
		fields = append(fields, "PhotoURL")
	}
	if patch.Address != nil {
		user.Address = *patch.Address
		fields = append(fields, "Address")
	}

	updated, err := s.Store.UpsertUser(ctx, user, fields)
	if err != nil {
		return models.User{}, fmt.Errorf("upsert profile failed: %w", err)
	}

	return updated, nil
}
