// session/store.go
package session

import (
	"context"
	"time"
)

// DefaultTTL is the session lifetime applied by stores unless
// configured otherwise.
const DefaultTTL = time.Hour

// Store persists session records with a time-to-live. Implementations
// treat an expired record exactly like a missing one.
//
// Absence is not an error: Get returns (nil, nil) and the write
// operations return false when the session does not exist. Errors are
// reserved for the store itself being unreachable or a record failing
// to decode.
type Store interface {
	// Create persists a new record and starts its TTL.
	Create(ctx context.Context, rec *Record) error

	// Get returns the record, or (nil, nil) when the session is
	// missing or expired.
	Get(ctx context.Context, sessionID string) (*Record, error)

	// Save rewrites an existing record and resets its TTL. It returns
	// false when the session no longer exists.
	Save(ctx context.Context, rec *Record) (bool, error)

	// Extend resets the TTL to its full value without touching the
	// record. Extending never shortens the remaining lifetime.
	Extend(ctx context.Context, sessionID string) (bool, error)

	// Delete removes the session. Deleting an unknown session is not
	// an error and returns false.
	Delete(ctx context.Context, sessionID string) (bool, error)

	// ListByUser returns the live sessions belonging to a user, most
	// recently updated first. A limit of 0 means no limit.
	ListByUser(ctx context.Context, userID string, limit int) ([]*Record, error)
}
