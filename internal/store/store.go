// Package store persists the record archive and the notified-code set.
//
// The two stores are deliberately independent: a corrupted or missing
// archive must never widen re-notification, so the notified set lives in
// its own file (or Redis set) and the archive in its own file (or Postgres
// table). All writes are full-state, fail-soft operations — callers log
// failures and carry on.
package store

import (
	"context"

	"github.com/Can0Ngu1/bot-web/internal/dedup"
	"github.com/Can0Ngu1/bot-web/internal/model"
)

// Archive is the append-only, newest-first record archive. It exists for
// downstream display and export; the scan pipeline only prepends.
type Archive interface {
	// Prepend stores records ahead of everything already archived.
	Prepend(ctx context.Context, records []model.BidRecord) error
	// All returns the archive newest-first.
	All(ctx context.Context) ([]model.BidRecord, error)
}

// Notified is the durable set of bid codes already notified.
type Notified interface {
	// Load returns the current set. Backends with local state fall back to
	// an empty set on missing or unreadable data (accepting re-notification)
	// rather than failing every future cycle.
	Load(ctx context.Context) (dedup.Set, error)
	// Save persists the full set.
	Save(ctx context.Context, set dedup.Set) error
}
