package model

import "fmt"

// Status classifies a record for downstream viewers. The scan pipeline only
// ever produces StatusNew; reclassification belongs to whatever reads the
// archive (dashboard, export tooling) and is stored back without the core's
// involvement.
type Status string

const (
	StatusNew      Status = "NEW"
	StatusViewed   Status = "VIEWED"
	StatusArchived Status = "ARCHIVED"
)

// ParseStatus converts a raw string to a Status, returning an error for
// unknown values.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	switch st {
	case StatusNew, StatusViewed, StatusArchived:
		return st, nil
	}
	return "", fmt.Errorf("unknown record status %q", s)
}
