// Package model defines shared data structures for the bid watcher.
package model

import (
	"time"
)

// Sentinel values used when an optional column is absent from a result row.
// Persisted records carry these literally, so changing them changes the
// archive format.
const (
	UnknownCloseDate = "unknown"
	UnknownOrg       = "unknown"
)

// BidRecord is one procurement announcement extracted from the search page.
// It is stored as-is in the record archive (JSON array or biddings table).
type BidRecord struct {
	Code      string `json:"code"`       // natural key, e.g. "IB2500123456"
	Title     string `json:"title"`      // announcement title
	PostDate  string `json:"post_date"`  // display string, dd/mm/yyyy
	CloseDate string `json:"close_date"` // display string or UnknownCloseDate
	Org       string `json:"org"`        // issuing organization or UnknownOrg
	Link      string `json:"link"`       // absolute detail URL, empty if none
	Status    Status `json:"status"`     // always StatusNew at creation
}

// CycleResult is the ephemeral outcome of one scan cycle. It is returned to
// whoever triggered the cycle (scheduler tick, manual trigger, CLI) and is
// never persisted.
type CycleResult struct {
	ID          string
	StartedAt   time.Time
	FinishedAt  time.Time
	NewRecords  []BidRecord
	SkippedRows int  // malformed rows dropped by the extractor
	Success     bool // false when the fetch step failed
	PersistOK   bool
	NotifyOK    bool
	Err         error
}

// NewCount is the number of records first seen in this cycle.
func (r CycleResult) NewCount() int { return len(r.NewRecords) }
