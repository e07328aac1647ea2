// Package subscription reconciles the source subscription list against
// the persisted registry, keeping republished feed identities stable
// across runs.
package subscription

import (
	"regexp"

	"github.com/google/uuid"
)

// Entry binds a source feed URL to its republished output identity.
// OutputID never changes for the lifetime of a source URL.
type Entry struct {
	OutputID string
	Filename string
	Title    string
}

// Registry maps source feed URLs to their output identities. It is the
// durable record loaded at startup and saved after every merge.
type Registry map[string]Entry

// Assignment pairs a source feed with its output identity, in
// subscription-list order. This order drives the claim phase.
type Assignment struct {
	SourceURL string
	Title     string
	OutputID  string
	Filename  string
}

var sanitizeRegex = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// SanitizeURL turns a feed URL into a filename-safe token.
func SanitizeURL(url string) string {
	return sanitizeRegex.ReplaceAllString(url, "_")
}

// MintFilename produces the output filename for a newly subscribed feed:
// a random UUID followed by the sanitized source URL, so the served path
// is unguessable but still tells an operator which feed it belongs to.
func MintFilename(sourceURL string) (string, string) {
	id := uuid.NewString()
	return id, id + SanitizeURL(sourceURL) + ".rss"
}
