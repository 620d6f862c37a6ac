package staff

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no identity matches the name within the role.
var ErrNotFound = errors.New("staff member not found")

// Directory resolves staff identities by display name. Implementations are
// read-only from the caller's point of view.
type Directory interface {
	// FindByUsername matches name case-insensitively against the full display
	// name of identities holding role. Partial matches never resolve.
	FindByUsername(ctx context.Context, name string, role Role) (Identity, error)
}
