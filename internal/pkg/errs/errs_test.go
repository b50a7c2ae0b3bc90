package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewErrorDefaultsStatus(t *testing.T) {
	err := NewError(ErrAccountCreation)

	assert.Equal(t, ErrAccountCreation, err.Code)
	assert.Equal(t, http.StatusOK, err.Status)
	assert.Nil(t, err.Cause)
}

func TestNewErrorUnknownCodeFallsBack(t *testing.T) {
	err := NewError(987654)

	assert.Equal(t, ErrUnknown, err.Code)
	assert.Equal(t, http.StatusInternalServerError, err.Status)
}

func TestWrapKeepsProviderText(t *testing.T) {
	cause := errors.New("email address is already registered")

	err := Wrap(ErrAccountCreation, cause)

	assert.Equal(t, "email address is already registered", err.Message)
	assert.ErrorIs(t, err, cause)
	assert.True(t, HasCode(err, ErrAccountCreation))
}

func TestWrapDoesNotDoubleWrapSameCode(t *testing.T) {
	first := Wrap(ErrStorageUpload, errors.New("connection reset"))

	assert.Same(t, first, Wrap(ErrStorageUpload, first))
}

func TestFromPreservesTaxonomyThroughWrapping(t *testing.T) {
	inner := Wrap(ErrInvalidCredentials, errors.New("invalid email or password"))
	outer := fmt.Errorf("sign in: %w", inner)

	got := From(outer)

	require.NotNil(t, got)
	assert.Equal(t, ErrInvalidCredentials, got.Code)
	assert.Equal(t, "invalid email or password", got.Message)
	assert.ErrorIs(t, outer, NewError(ErrInvalidCredentials))
}

func TestFromUnclassifiedIsUnknown(t *testing.T) {
	got := From(errors.New("boom"))

	assert.Equal(t, ErrUnknown, got.Code)
	assert.Nil(t, From(nil))
}
