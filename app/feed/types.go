package feed

import (
	"time"
)

type Metadata struct {
	Title       string
	Link        string
	Description string
	Language    string
}

// Entry is one feed item as the source exposes it. Any field may be absent;
// use the Has* accessors instead of comparing against zero values.
type Entry struct {
	GUID        string
	Title       string
	Link        string
	Description string
	Content     string
	UpdatedAt   *time.Time // UTC; falls back to the published date
}

func (e Entry) HasTitle() bool     { return e.Title != "" }
func (e Entry) HasLink() bool      { return e.Link != "" }
func (e Entry) HasTimestamp() bool { return e.UpdatedAt != nil && !e.UpdatedAt.IsZero() }
