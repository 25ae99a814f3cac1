package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rezzza07/artmart/service"
)

func TestValidateArtworkId(t *testing.T) {
	assert.NoError(t, service.ValidateArtworkId("018e38d7-0000-7000-8000-000000000001"))

	assert.ErrorIs(t, service.ValidateArtworkId(""), service.ErrInvalidIdentifier)
	assert.ErrorIs(t, service.ValidateArtworkId("not-a-uuid"), service.ErrInvalidIdentifier)
	assert.ErrorIs(t, service.ValidateArtworkId("018e38d7-0000-7000-8000"), service.ErrInvalidIdentifier)
}

func TestRequireEmail(t *testing.T) {
	assert.NoError(t, service.RequireEmail("a@example.com"))
	assert.ErrorIs(t, service.RequireEmail(""), service.ErrMissingParameter)
}
