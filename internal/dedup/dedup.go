// Package dedup filters bid candidates against the set of codes already
// notified.
//
// The set is monotonic: codes are added and never evicted, so a bid is
// reported as new at most once for the record's lifetime. Unbounded growth
// is a known limit for multi-year deployments — adding expiry would
// re-notify old codes, so it is deliberately not done here.
package dedup

import (
	"sort"

	"github.com/Can0Ngu1/bot-web/internal/model"
)

// Set is the collection of bid codes already notified. Comparison is exact
// and case-sensitive.
type Set map[string]struct{}

// NewSet builds a Set from codes.
func NewSet(codes ...string) Set {
	s := make(Set, len(codes))
	for _, c := range codes {
		s[c] = struct{}{}
	}
	return s
}

// Has reports whether code was already notified.
func (s Set) Has(code string) bool {
	_, ok := s[code]
	return ok
}

// Add registers code.
func (s Set) Add(code string) { s[code] = struct{}{} }

// Len is the number of registered codes.
func (s Set) Len() int { return len(s) }

// Clone returns an independent copy.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for c := range s {
		out[c] = struct{}{}
	}
	return out
}

// Codes returns the registered codes sorted, for stable persistence.
func (s Set) Codes() []string {
	out := make([]string, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Filter returns the candidates whose code is not in seen, preserving input
// order, together with an updated set containing seen plus every yielded
// code. When the batch repeats a code, only its first occurrence is yielded.
// seen is never mutated; Filter performs no I/O.
func Filter(seen Set, candidates []model.BidRecord) ([]model.BidRecord, Set) {
	updated := seen.Clone()
	var fresh []model.BidRecord
	for _, c := range candidates {
		if updated.Has(c.Code) {
			continue
		}
		updated.Add(c.Code)
		fresh = append(fresh, c)
	}
	return fresh, updated
}
