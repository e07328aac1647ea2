package subscription

import (
	"fmt"
	"log/slog"

	"github.com/feedless/rss-dedup/app/opml"
)

// TitlePrefix marks republished feeds in the merged subscription list so
// readers can tell them apart from direct subscriptions.
const TitlePrefix = "DD_"

// Merge reconciles the freshly parsed subscription list against the
// previous registry. Source URLs already present keep their output
// identity unchanged; new ones get a freshly minted identity; URLs no
// longer listed are dropped and their identity is never reused.
//
// The previous registry is not modified. An empty source list is an
// error: a truncated subscription file must never wipe out the stable
// identities, so the caller keeps the previous registry in force.
func Merge(prev Registry, list []opml.Outline) (Registry, []Assignment, error) {
	if len(list) == 0 {
		return nil, nil, fmt.Errorf("subscription list is empty, keeping previous registry (%d feeds)", len(prev))
	}

	updated := make(Registry, len(list))
	assignments := make([]Assignment, 0, len(list))

	for _, o := range list {
		if _, dup := updated[o.XMLURL]; dup {
			slog.Warn("Duplicate source URL in subscription list, ignoring repeat", "url", o.XMLURL)
			continue
		}

		entry, ok := prev[o.XMLURL]
		if ok {
			// Title may be refreshed, identity never is.
			entry.Title = o.Title
		} else {
			id, filename := MintFilename(o.XMLURL)
			entry = Entry{OutputID: id, Filename: filename, Title: o.Title}
			slog.Info("New feed subscribed", "url", o.XMLURL, "filename", filename)
		}

		updated[o.XMLURL] = entry
		assignments = append(assignments, Assignment{
			SourceURL: o.XMLURL,
			Title:     entry.Title,
			OutputID:  entry.OutputID,
			Filename:  entry.Filename,
		})
	}

	for url := range prev {
		if _, ok := updated[url]; !ok {
			slog.Info("Feed unsubscribed, retiring output identity", "url", url)
		}
	}

	return updated, assignments, nil
}

// TargetOutlines expresses the merged subscription list for the external
// OPML writer: prefixed titles and republished URLs under baseURL.
func TargetOutlines(assignments []Assignment, baseURL string) []opml.Outline {
	outlines := make([]opml.Outline, 0, len(assignments))
	for _, a := range assignments {
		outlines = append(outlines, opml.Outline{
			Title:  TitlePrefix + a.Title,
			XMLURL: baseURL + "/feeds/" + a.Filename,
		})
	}
	return outlines
}
