package feed

import (
	"time"
)

type Metadata struct {
	Title       string
	Link        string
	Description string
	ImageURL    string
	Language    string

	// BuildMarker is the feed-level change marker (lastBuildDate for
	// RSS, updated for Atom), kept as an opaque string. An empty
	// marker means the feed never advertises changes and is processed
	// every iteration.
	BuildMarker string
}

type Item struct {
	GUID        string
	Title       string
	Link        string
	Description string
	Content     string
	PublishedAt time.Time
	UpdatedAt   *time.Time
	Authors     []string
	Categories  []string

	EnclosureURL    string
	EnclosureLength int64
	EnclosureType   string
}
