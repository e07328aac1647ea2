package subscription

import (
	"strings"
	"testing"

	"github.com/feedless/rss-dedup/app/opml"
)

func TestMerge_MintsIdentitiesForNewFeeds(t *testing.T) {
	list := []opml.Outline{
		{Title: "Feed A", XMLURL: "https://a.example/rss"},
		{Title: "Feed B", XMLURL: "https://b.example/rss"},
	}

	updated, assignments, err := Merge(Registry{}, list)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(updated) != 2 {
		t.Errorf("Expected 2 registry entries, got %d", len(updated))
	}
	if len(assignments) != 2 {
		t.Fatalf("Expected 2 assignments, got %d", len(assignments))
	}
	if assignments[0].SourceURL != "https://a.example/rss" || assignments[1].SourceURL != "https://b.example/rss" {
		t.Error("Assignments must preserve subscription-list order")
	}
	if assignments[0].OutputID == assignments[1].OutputID {
		t.Error("Each feed must get a distinct output identity")
	}
}

func TestMerge_StableAcrossRepeatedMerges(t *testing.T) {
	list := []opml.Outline{{Title: "Feed A", XMLURL: "https://a.example/rss"}}

	first, _, err := Merge(Registry{}, list)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	second, _, err := Merge(first, list)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if first["https://a.example/rss"].OutputID != second["https://a.example/rss"].OutputID {
		t.Error("Output identity must survive repeated merges")
	}
	if first["https://a.example/rss"].Filename != second["https://a.example/rss"].Filename {
		t.Error("Filename must survive repeated merges")
	}
}

func TestMerge_RemovedFeedIsDropped(t *testing.T) {
	list := []opml.Outline{
		{Title: "Feed A", XMLURL: "https://a.example/rss"},
		{Title: "Feed B", XMLURL: "https://b.example/rss"},
	}
	prev, _, err := Merge(Registry{}, list)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	updated, assignments, err := Merge(prev, list[:1])
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(updated) != 1 {
		t.Errorf("Expected 1 registry entry after unsubscribe, got %d", len(updated))
	}
	if _, ok := updated["https://b.example/rss"]; ok {
		t.Error("Unsubscribed feed should be dropped from the registry")
	}
	if len(assignments) != 1 {
		t.Errorf("Expected 1 assignment, got %d", len(assignments))
	}
}

func TestMerge_AddedFeedLeavesOthersUnchanged(t *testing.T) {
	prev, _, err := Merge(Registry{}, []opml.Outline{{Title: "Feed A", XMLURL: "https://a.example/rss"}})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	prevID := prev["https://a.example/rss"].OutputID

	updated, _, err := Merge(prev, []opml.Outline{
		{Title: "Feed A", XMLURL: "https://a.example/rss"},
		{Title: "Feed C", XMLURL: "https://c.example/rss"},
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if updated["https://a.example/rss"].OutputID != prevID {
		t.Error("Existing identity changed when a new feed was added")
	}
	if updated["https://c.example/rss"].OutputID == "" {
		t.Error("New feed did not get an output identity")
	}
}

func TestMerge_TitleRefreshed(t *testing.T) {
	prev, _, err := Merge(Registry{}, []opml.Outline{{Title: "Old Title", XMLURL: "https://a.example/rss"}})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	updated, _, err := Merge(prev, []opml.Outline{{Title: "New Title", XMLURL: "https://a.example/rss"}})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if updated["https://a.example/rss"].Title != "New Title" {
		t.Errorf("Expected refreshed title, got %q", updated["https://a.example/rss"].Title)
	}
}

func TestMerge_EmptyListIsAnError(t *testing.T) {
	prev := Registry{"https://a.example/rss": {OutputID: "id", Filename: "f.rss", Title: "A"}}

	_, _, err := Merge(prev, nil)
	if err == nil {
		t.Fatal("Expected an error for an empty subscription list")
	}
	if _, ok := prev["https://a.example/rss"]; !ok {
		t.Error("Previous registry must be left untouched")
	}
}

func TestSanitizeURL(t *testing.T) {
	got := SanitizeURL("https://www.faz.net/aktuell/finanzen/")
	want := "https_www_faz_net_aktuell_finanzen_"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestMintFilename(t *testing.T) {
	id, filename := MintFilename("https://www.faz.net/aktuell/finanzen/")
	if len(id) != 36 {
		t.Errorf("Expected a 36 character UUID, got %q", id)
	}
	if !strings.HasPrefix(filename, id) {
		t.Errorf("Filename should start with the UUID: %q", filename)
	}
	if !strings.HasSuffix(filename, "https_www_faz_net_aktuell_finanzen_.rss") {
		t.Errorf("Filename should end with the sanitized URL: %q", filename)
	}
}

func TestTargetOutlines(t *testing.T) {
	assignments := []Assignment{
		{SourceURL: "https://a.example/rss", Title: "Feed A", OutputID: "id-a", Filename: "id-a_feed.rss"},
	}

	outlines := TargetOutlines(assignments, "https://feeds.example.com")
	if len(outlines) != 1 {
		t.Fatalf("Expected 1 outline, got %d", len(outlines))
	}
	if outlines[0].Title != "DD_Feed A" {
		t.Errorf("Expected prefixed title, got %q", outlines[0].Title)
	}
	if outlines[0].XMLURL != "https://feeds.example.com/feeds/id-a_feed.rss" {
		t.Errorf("Unexpected republished URL: %q", outlines[0].XMLURL)
	}
}
