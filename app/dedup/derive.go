// Package dedup derives stable identifiers for news items and keeps the
// claim table that decides which feed owns a story.
package dedup

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	uuidRegex   = regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[1-5][0-9a-fA-F]{3}-[89abAB][0-9a-fA-F]{3}-[0-9a-fA-F]{12}`)
	numberRegex = regexp.MustCompile(`[0-9][0-9_-]*`)
)

// minDigits is the smallest digit run accepted as a per-story ID. Short
// runs (dates, section numbers) are too ambiguous to dedup on.
const minDigits = 6

// Derive maps an item link to its deduplication identifier. Publishers
// embed a stable per-story token (a UUID or a long numeric ID) in
// otherwise-changing URLs, so the identifier anchors on that token plus
// the host; the host prevents cross-publisher collisions on short IDs.
//
// Derive is pure and never fails: a malformed link is its own
// identifier, an ID-less path degrades to the full path.
func Derive(link string) string {
	u, err := url.Parse(link)
	if err != nil || u.Host == "" {
		return link
	}

	// Query and fragment are stripped: tracking parameters must not
	// make the same story look new.
	body := u.Path
	if m := uuidRegex.FindString(u.Path); m != "" {
		body = m
	} else if m := findNumberToken(u.Path); m != "" {
		body = m
	}

	return u.Host + "|" + body
}

func findNumberToken(path string) string {
	for _, m := range numberRegex.FindAllString(path, -1) {
		m = strings.TrimRight(m, "_-")
		if digitCount(m) >= minDigits {
			return m
		}
	}
	return ""
}

func digitCount(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}
