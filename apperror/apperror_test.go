package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindAndStatus(t *testing.T) {
	cases := map[Kind]int{
		Unauthenticated:    http.StatusUnauthorized,
		Forbidden:          http.StatusForbidden,
		NotFound:           http.StatusNotFound,
		Validation:         http.StatusBadRequest,
		Conflict:           http.StatusConflict,
		IntegrityViolation: http.StatusUnprocessableEntity,
		Internal:           http.StatusInternalServerError,
	}
	for kind, status := range cases {
		assert.Equal(t, status, Status(kind), kind)
	}
}

func TestWrappedErrorsKeepKind(t *testing.T) {
	err := fmt.Errorf("loading store: %w", NewNotFound("store"))
	assert.True(t, Is(err, NotFound))
	assert.True(t, errors.Is(err, E(NotFound, "")))
	assert.False(t, errors.Is(err, E(Conflict, "")))
	assert.Equal(t, "store not found", Message(err))
}

func TestInternalDetailIsHidden(t *testing.T) {
	cause := errors.New("disk I/O error: /var/lib/ratings.db")
	err := NewInternal(cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "internal server error", Message(err))

	plain := errors.New("unexpected")
	assert.Equal(t, Internal, KindOf(plain))
	assert.Equal(t, "internal server error", Message(plain))
	assert.False(t, Is(nil, Internal))
}
