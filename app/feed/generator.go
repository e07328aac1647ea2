package feed

import (
	"bytes"
	"cmp"
	"encoding/xml"
	"fmt"
	"html"
	"time"

	"github.com/feedless/rss-dedup/app/cfg"
	"github.com/feedless/rss-dedup/app/subscription"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Run serializes a deduplicated feed back into an RSS 2.0 document.
func (g *Generator) Run(a subscription.Assignment, metadata *Metadata, items []Item) string {
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/" xmlns:atom="http://www.w3.org/2005/Atom">`)
	buf.WriteString("\n  <channel>\n")

	g.writeElement(&buf, "title", cmp.Or(metadata.Title, a.Title), 4)
	g.writeElement(&buf, "link", metadata.Link, 4)
	description := metadata.Description
	if description == "" {
		description = fmt.Sprintf("Deduplicated feed from %s", a.SourceURL)
	}
	g.writeElement(&buf, "description", description, 4)

	var selfLink string
	if cfg.Get().BaseUrl != "" {
		selfLink = fmt.Sprintf("%s/feeds/%s", cfg.Get().BaseUrl, a.Filename)
	} else {
		selfLink = fmt.Sprintf("http://localhost:%s/feeds/%s", cfg.Get().Port, a.Filename)
	}
	buf.WriteString(fmt.Sprintf("    <atom:link href=\"%s\" rel=\"self\" type=\"application/rss+xml\" />\n",
		html.EscapeString(selfLink)))

	lastBuildDate := metadata.BuildMarker
	if lastBuildDate == "" {
		lastBuildDate = time.Now().In(time.Local).Format(time.RFC1123Z)
	}
	g.writeElement(&buf, "lastBuildDate", lastBuildDate, 4)
	g.writeElement(&buf, "generator", fmt.Sprintf("RSS-Dedup/%s", cfg.Get().Version), 4)
	if metadata.Language != "" {
		g.writeElement(&buf, "language", metadata.Language, 4)
	}

	if metadata.ImageURL != "" {
		buf.WriteString("    <image>\n")
		g.writeElement(&buf, "url", metadata.ImageURL, 6)
		g.writeElement(&buf, "title", metadata.Title, 6)
		g.writeElement(&buf, "link", metadata.Link, 6)
		buf.WriteString("    </image>\n")
	}

	for _, item := range items {
		g.writeItem(&buf, item)
	}

	buf.WriteString("  </channel>\n</rss>")

	return buf.String()
}

func (g *Generator) writeItem(buf *bytes.Buffer, item Item) {
	buf.WriteString("    <item>\n")

	if item.GUID != "" {
		buf.WriteString(fmt.Sprintf("      <guid isPermaLink=\"%t\">", g.isURL(item.GUID)))
		xml.EscapeText(buf, []byte(item.GUID))
		buf.WriteString("</guid>\n")
	}

	if item.Title != "" {
		g.writeElement(buf, "title", item.Title, 6)
	}

	if item.Link != "" {
		g.writeElement(buf, "link", item.Link, 6)
	}

	g.writeElement(buf, "description", cmp.Or(item.Description, "No description available"), 6)

	if item.Content != "" && item.Content != item.Description {
		buf.WriteString("      <content:encoded><![CDATA[")
		buf.WriteString(item.Content)
		buf.WriteString("]]></content:encoded>\n")
	}

	if !item.PublishedAt.IsZero() {
		g.writeElement(buf, "pubDate", item.PublishedAt.Format(time.RFC1123Z), 6)
	}

	if len(item.Authors) > 0 && item.Authors[0] != "" {
		g.writeElement(buf, "author", item.Authors[0], 6)
	}

	for _, category := range item.Categories {
		if category != "" {
			g.writeElement(buf, "category", category, 6)
		}
	}

	// Add enclosure element if present (RSS 2.0 spec: url, length, type are required)
	if item.EnclosureURL != "" && item.EnclosureType != "" {
		buf.WriteString(fmt.Sprintf("      <enclosure url=\"%s\" length=\"%d\" type=\"%s\" />\n",
			html.EscapeString(item.EnclosureURL),
			item.EnclosureLength,
			html.EscapeString(item.EnclosureType)))
	}

	buf.WriteString("    </item>\n")
}

func (g *Generator) writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}

	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}

func (g *Generator) isURL(s string) bool {
	return (len(s) > 7 && s[:7] == "http://") || (len(s) > 8 && s[:8] == "https://")
}
