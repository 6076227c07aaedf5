package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCodes(t *testing.T) {
	cases := []struct {
		err    error
		status int
		kind   Kind
	}{
		{Validation("bad"), http.StatusBadRequest, KindValidation},
		{NotFound("missing"), http.StatusNotFound, KindNotFound},
		{Auth("nope"), http.StatusUnauthorized, KindAuth},
		{Conflict("dup"), http.StatusConflict, KindConflict},
		{Remote("upload failed", errors.New("timeout")), http.StatusBadGateway, KindRemote},
	}
	for _, c := range cases {
		status, _, kind := Public(c.err)
		assert.Equal(t, c.status, status, c.err.Error())
		assert.Equal(t, c.kind, kind)
	}
}

func TestPublicHidesUnexpectedErrors(t *testing.T) {
	status, msg, kind := Public(errors.New("mongo: connection refused"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Internal server error", msg)
	assert.Equal(t, KindUnexpected, kind)

	status, msg, _ = Public(Unexpected("db write failed", errors.New("secret detail")))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Internal server error", msg)
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("update event: %w", NotFound("Event not found"))

	assert.True(t, Is(err, KindNotFound))
	assert.False(t, Is(err, KindValidation))
	assert.False(t, Is(nil, KindNotFound))

	status, msg, _ := Public(err)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Event not found", msg)
}

func TestErrorStringIncludesCause(t *testing.T) {
	cause := errors.New("cloudinary: 500")
	err := Remote("Image upload failed", cause)

	assert.Equal(t, "Image upload failed: cloudinary: 500", err.Error())
	assert.ErrorIs(t, err, cause)
}
