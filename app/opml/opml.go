// Package opml reads and writes OPML subscription lists.
package opml

import (
	"bytes"
	"cmp"
	"encoding/xml"
	"fmt"
	"time"
)

// Outline is a single subscribed feed. Order follows the source document.
type Outline struct {
	Title  string
	XMLURL string
}

type Document struct {
	Title    string
	Outlines []Outline
}

type xmlOutline struct {
	Text     string       `xml:"text,attr"`
	Title    string       `xml:"title,attr"`
	XMLURL   string       `xml:"xmlUrl,attr"`
	Children []xmlOutline `xml:"outline"`
}

type xmlOPML struct {
	XMLName xml.Name `xml:"opml"`
	Head    struct {
		Title string `xml:"title"`
	} `xml:"head"`
	Body struct {
		Outlines []xmlOutline `xml:"outline"`
	} `xml:"body"`
}

// Parse reads an OPML document into an ordered subscription list.
// Nested outlines (folders) are flattened in document order. Outlines
// without an xmlUrl attribute are containers and carry no feed.
func Parse(data []byte) (*Document, error) {
	var root xmlOPML
	if err := xml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse OPML: %w", err)
	}

	doc := &Document{Title: root.Head.Title}
	for _, o := range root.Body.Outlines {
		collectOutlines(o, &doc.Outlines)
	}

	return doc, nil
}

func collectOutlines(o xmlOutline, out *[]Outline) {
	if o.XMLURL != "" {
		*out = append(*out, Outline{
			Title:  cmp.Or(o.Title, o.Text, o.XMLURL),
			XMLURL: o.XMLURL,
		})
	}
	for _, child := range o.Children {
		collectOutlines(child, out)
	}
}

// Render produces an OPML 2.0 document listing the given outlines. Used
// for the merged subscription list pointing at the republished feeds.
func Render(title string, outlines []Outline) string {
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n<opml version=\"2.0\">\n")
	buf.WriteString("  <head>\n    <title>")
	xml.EscapeText(&buf, []byte(title))
	buf.WriteString("</title>\n    <dateModified>")
	buf.WriteString(time.Now().Format(time.RFC1123Z))
	buf.WriteString("</dateModified>\n  </head>\n")
	buf.WriteString("  <body>\n")

	for _, o := range outlines {
		buf.WriteString(`    <outline type="rss" text="`)
		xml.EscapeText(&buf, []byte(o.Title))
		buf.WriteString(`" title="`)
		xml.EscapeText(&buf, []byte(o.Title))
		buf.WriteString(`" xmlUrl="`)
		xml.EscapeText(&buf, []byte(o.XMLURL))
		buf.WriteString("\" />\n")
	}

	buf.WriteString("  </body>\n</opml>\n")

	return buf.String()
}
