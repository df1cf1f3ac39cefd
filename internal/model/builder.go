package model

import (
	"fmt"
	"strings"
)

// Builder accumulates column values for one result row and emits a finalized
// BidRecord only once the required fields are confirmed present. Absent
// optional fields map to the sentinel constants, never to nulls.
type Builder struct {
	code      string
	title     string
	postDate  string
	closeDate string
	org       string
	link      string
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder { return &Builder{} }

func (b *Builder) Code(v string) *Builder      { b.code = strings.TrimSpace(v); return b }
func (b *Builder) Title(v string) *Builder     { b.title = strings.TrimSpace(v); return b }
func (b *Builder) PostDate(v string) *Builder  { b.postDate = strings.TrimSpace(v); return b }
func (b *Builder) CloseDate(v string) *Builder { b.closeDate = strings.TrimSpace(v); return b }
func (b *Builder) Org(v string) *Builder       { b.org = strings.TrimSpace(v); return b }
func (b *Builder) Link(v string) *Builder      { b.link = strings.TrimSpace(v); return b }

// Build validates the accumulated fields. Code, title and post date are
// required; a missing one fails the build and the row is discarded by the
// caller. CloseDate and Org default to their sentinels, Link to empty.
func (b *Builder) Build() (BidRecord, error) {
	switch {
	case b.code == "":
		return BidRecord{}, fmt.Errorf("row missing bid code")
	case b.title == "":
		return BidRecord{}, fmt.Errorf("row %s missing title", b.code)
	case b.postDate == "":
		return BidRecord{}, fmt.Errorf("row %s missing post date", b.code)
	}

	rec := BidRecord{
		Code:      b.code,
		Title:     b.title,
		PostDate:  b.postDate,
		CloseDate: b.closeDate,
		Org:       b.org,
		Link:      b.link,
		Status:    StatusNew,
	}
	if rec.CloseDate == "" {
		rec.CloseDate = UnknownCloseDate
	}
	if rec.Org == "" {
		rec.Org = UnknownOrg
	}
	return rec, nil
}
