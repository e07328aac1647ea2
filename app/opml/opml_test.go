package opml

import (
	"strings"
	"testing"
)

const sampleOPML = `<?xml version="1.0" encoding="UTF-8"?>
<opml version="2.0">
  <head>
    <title>My Subscriptions</title>
  </head>
  <body>
    <outline text="News" title="News">
      <outline type="rss" text="Feed A" title="Feed A" xmlUrl="https://a.example/rss" htmlUrl="https://a.example/"/>
      <outline type="rss" text="Feed B" title="Feed B" xmlUrl="https://b.example/rss"/>
    </outline>
    <outline type="rss" text="Feed C" xmlUrl="https://c.example/rss"/>
  </body>
</opml>`

func TestParse_FlattensNestedOutlines(t *testing.T) {
	doc, err := Parse([]byte(sampleOPML))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if doc.Title != "My Subscriptions" {
		t.Errorf("Expected title 'My Subscriptions', got %q", doc.Title)
	}
	if len(doc.Outlines) != 3 {
		t.Fatalf("Expected 3 feeds, got %d", len(doc.Outlines))
	}

	// Document order, folders flattened
	wantURLs := []string{"https://a.example/rss", "https://b.example/rss", "https://c.example/rss"}
	for i, want := range wantURLs {
		if doc.Outlines[i].XMLURL != want {
			t.Errorf("Outline %d: expected %q, got %q", i, want, doc.Outlines[i].XMLURL)
		}
	}
}

func TestParse_TitleFallsBackToText(t *testing.T) {
	doc, err := Parse([]byte(sampleOPML))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if doc.Outlines[2].Title != "Feed C" {
		t.Errorf("Expected text attribute as title fallback, got %q", doc.Outlines[2].Title)
	}
}

func TestParse_InvalidXML(t *testing.T) {
	_, err := Parse([]byte("<opml><body><outline"))
	if err == nil {
		t.Error("Expected an error for truncated XML")
	}
}

func TestRender(t *testing.T) {
	outlines := []Outline{
		{Title: "DD_Feed A", XMLURL: "https://feeds.example.com/feeds/abc.rss"},
		{Title: `DD_Quotes & "Such"`, XMLURL: "https://feeds.example.com/feeds/def.rss"},
	}

	out := Render("My Subscriptions", outlines)

	if !strings.Contains(out, "<title>My Subscriptions</title>") {
		t.Error("Rendered OPML should contain the document title")
	}
	if !strings.Contains(out, `xmlUrl="https://feeds.example.com/feeds/abc.rss"`) {
		t.Error("Rendered OPML should contain the republished URL")
	}
	if !strings.Contains(out, "DD_Quotes &amp; &#34;Such&#34;") {
		t.Errorf("Titles should be XML escaped, got:\n%s", out)
	}
}

func TestRender_RoundTrip(t *testing.T) {
	outlines := []Outline{
		{Title: "DD_Feed A", XMLURL: "https://feeds.example.com/feeds/abc.rss"},
	}

	doc, err := Parse([]byte(Render("Subscriptions", outlines)))
	if err != nil {
		t.Fatalf("Rendered OPML should parse back: %v", err)
	}
	if len(doc.Outlines) != 1 {
		t.Fatalf("Expected 1 outline after round trip, got %d", len(doc.Outlines))
	}
	if doc.Outlines[0] != outlines[0] {
		t.Errorf("Round trip changed the outline: %+v", doc.Outlines[0])
	}
}
