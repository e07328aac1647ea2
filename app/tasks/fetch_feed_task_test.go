package tasks

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/feedless/rss-dedup/app/subscription"
)

func TestFetchFeedTask_Execute(t *testing.T) {
	var gotUserAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		w.Write([]byte("<rss></rss>"))
	}))
	defer server.Close()

	a := subscription.Assignment{SourceURL: server.URL, OutputID: "id-a", Filename: "a.rss"}
	task := NewFetchFeedTask(a, server.Client(), 5*time.Second, "Test Agent/1.0")

	data, err := task.Execute(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if string(data) != "<rss></rss>" {
		t.Errorf("Unexpected body: %q", string(data))
	}
	if gotUserAgent != "Test Agent/1.0" {
		t.Errorf("Expected the configured user agent, got %q", gotUserAgent)
	}
}

func TestFetchFeedTask_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	a := subscription.Assignment{SourceURL: server.URL, OutputID: "id-a", Filename: "a.rss"}
	task := NewFetchFeedTask(a, server.Client(), 5*time.Second, "Test Agent/1.0")

	if _, err := task.Execute(context.Background()); err == nil {
		t.Error("Expected an error for a 500 response")
	}
}

func TestFetchFeedTask_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	a := subscription.Assignment{SourceURL: server.URL, OutputID: "id-a", Filename: "a.rss"}
	task := NewFetchFeedTask(a, server.Client(), 10*time.Millisecond, "Test Agent/1.0")

	if _, err := task.Execute(context.Background()); err == nil {
		t.Error("Expected an error when the fetch exceeds its timeout")
	}
}

func TestNewTask(t *testing.T) {
	first := NewTask(TaskTypeFetchFeed, "https://a.example/rss")
	second := NewTask(TaskTypeFetchFeed, "https://a.example/rss")

	if first.GetID() == "" || first.GetID() == second.GetID() {
		t.Errorf("Expected distinct non-empty task IDs, got %q and %q", first.GetID(), second.GetID())
	}
	if first.GetType() != TaskTypeFetchFeed {
		t.Errorf("Unexpected task type: %s", first.GetType())
	}
	if first.GetDuration() != 0 {
		t.Error("Expected zero duration before Start")
	}

	first.Start()
	if first.StartedAt == nil {
		t.Error("Expected StartedAt to be set after Start")
	}
}
