// Package presence tracks which UIDs are online and under which character
// identity. Entries are leases: they lapse unless refreshed.
package presence

import (
	"context"
	"time"
)

// DefaultTTL — lease length when the caller passes zero.
const DefaultTTL = 60 * time.Second

// Tracker is the presence store. A miss is never an error; absence means
// offline.
type Tracker interface {
	Refresh(ctx context.Context, uid, identity string, ttl time.Duration) error
	Get(ctx context.Context, uid string) (identity string, ok bool, err error)
	// GetMany returns the identities of the online subset of uids.
	GetMany(ctx context.Context, uids []string) (map[string]string, error)
	Remove(ctx context.Context, uid string) error
}
