package feed

import (
	"log/slog"
	"time"

	"github.com/feedless/rss-dedup/app/dedup"
	"github.com/feedless/rss-dedup/app/subscription"
)

// Processor runs the per-feed pass: change detection, identifier
// derivation and the claim decision for every item. It owns no state of
// its own; the claim table is shared and the build marker is handed
// back to the caller.
type Processor struct {
	parser   *Parser
	store    *dedup.Store[Item]
	settings *Settings
}

type Result struct {
	// Unchanged is set when the build marker matched the previous one.
	// No claims were made and the previous output stays in force.
	Unchanged bool

	Metadata    *Metadata
	Items       []Item
	BuildMarker string
}

func NewProcessor(parser *Parser, store *dedup.Store[Item], settings *Settings) *Processor {
	return &Processor{
		parser:   parser,
		store:    store,
		settings: settings,
	}
}

// Run processes one fetched feed document. Items are resolved against
// the claim table in document order; suppressed items are dropped, and
// stories the same feed re-published come back as their first-seen
// version. Callers must invoke Run strictly in subscription-list order,
// which makes the claim outcome deterministic for a fixed set of inputs.
func (p *Processor) Run(a subscription.Assignment, data []byte, prevMarker string) (*Result, error) {
	metadata, items, err := p.parser.Run(data)
	if err != nil {
		return nil, err
	}

	if metadata.BuildMarker != "" && metadata.BuildMarker == prevMarker {
		slog.Debug("Feed unchanged since last iteration", "feed", a.SourceURL)
		return &Result{Unchanged: true, Metadata: metadata, BuildMarker: metadata.BuildMarker}, nil
	}

	maxAge := p.settings.GetMaxItemAge(a.SourceURL)
	now := time.Now()

	published := make([]Item, 0, len(items))
	prunedCount := 0
	suppressedCount := 0
	replacedCount := 0

	for _, item := range items {
		if maxAge > 0 && (item.PublishedAt.IsZero() || now.Sub(item.PublishedAt) > maxAge) {
			prunedCount++
			continue
		}

		id := dedup.Derive(item.Link)
		decision := p.store.TryClaim(id, a.OutputID, item)

		switch decision.Kind {
		case dedup.Publish:
			published = append(published, item)
		case dedup.PublishOriginal:
			// Same feed re-published a developing story: keep the
			// version readers may have already seen.
			published = append(published, decision.Item)
			replacedCount++
		case dedup.Suppress:
			suppressedCount++
		}
	}

	slog.Debug("Feed processed",
		"feed", a.SourceURL,
		"total", len(items),
		"published", len(published),
		"suppressed", suppressedCount,
		"replaced", replacedCount,
		"pruned", prunedCount)

	return &Result{
		Metadata:    metadata,
		Items:       published,
		BuildMarker: metadata.BuildMarker,
	}, nil
}
