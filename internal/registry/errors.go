package registry

import (
	"errors"
	"fmt"

	"powder-inventory/internal/auth"
	"powder-inventory/internal/store"
)

var (
	// ErrConflict matches every *ConflictError.
	ErrConflict = errors.New("asset id already exists")
	// ErrNotFound is returned when the identifier being edited or read is absent.
	ErrNotFound = store.ErrNotFound
	// ErrUnavailable is returned when the store could not be reached.
	ErrUnavailable = store.ErrUnavailable
	// ErrUnauthorized is returned before any store access for a missing or
	// out-of-domain identity.
	ErrUnauthorized = auth.ErrUnauthorized
)

// ConflictError reports the derived identifier that another row already owns.
type ConflictError struct {
	AssetID string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("asset id already exists: %s", e.AssetID)
}

// Is makes errors.Is(err, ErrConflict) hold.
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// outcome labels an operation result for metrics and logs.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}
