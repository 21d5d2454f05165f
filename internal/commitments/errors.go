package commitments

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/JaimeStill/pledge/pkg/handlers"
	"github.com/JaimeStill/pledge/pkg/repository"
)

// Domain errors for commitment operations.
var (
	ErrNotFound         = errors.New("commitment not found")
	ErrDuplicate        = errors.New("commitment already exists")
	ErrInvalidInput     = errors.New("invalid commitment input")
	ErrClosed           = errors.New("commitment deadline is closed to changes")
	ErrStoreUnavailable = errors.New("commitment store unavailable")
)

// MapHTTPStatus maps commitment domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate), errors.Is(err, ErrClosed):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidInput), errors.Is(err, handlers.ErrInvalidBody):
		return http.StatusBadRequest
	case errors.Is(err, ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// mapStoreError classifies a database error into the domain taxonomy.
func mapStoreError(err error) error {
	if err == nil {
		return nil
	}
	if repository.IsUnavailable(err) {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return repository.MapError(err, ErrNotFound, ErrDuplicate)
}
