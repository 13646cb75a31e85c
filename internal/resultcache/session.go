package resultcache

import (
	"context"
	"fmt"

	"github.com/newhook/issuerun/internal/kvstore"
)

// StoreSessionDetector keeps the session flag under KeySessionStarted in a
// kvstore.Store. The flag stays set until Reset.
type StoreSessionDetector struct {
	store kvstore.Store
}

// NewStoreSessionDetector creates a detector backed by store.
func NewStoreSessionDetector(store kvstore.Store) *StoreSessionDetector {
	return &StoreSessionDetector{store: store}
}

// Begin sets the session flag and returns true when it was absent.
func (d *StoreSessionDetector) Begin(ctx context.Context) (bool, error) {
	_, started, err := d.store.Get(ctx, KeySessionStarted)
	if err != nil {
		return false, fmt.Errorf("failed to read session flag: %w", err)
	}
	if started {
		return false, nil
	}
	if err := d.store.Set(ctx, KeySessionStarted, sessionStartedMarker); err != nil {
		return false, fmt.Errorf("failed to set session flag: %w", err)
	}
	return true, nil
}

// Reset clears the session flag so the next Begin starts a new session.
func (d *StoreSessionDetector) Reset(ctx context.Context) error {
	return d.store.Delete(ctx, KeySessionStarted)
}
