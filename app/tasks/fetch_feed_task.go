package tasks

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/feedless/rss-dedup/app/subscription"
)

// FetchFeedTask downloads one feed document into memory. Fetching is
// the only concurrent part of an iteration; the claim phase replays the
// results sequentially in subscription order.
type FetchFeedTask struct {
	Task
	Assignment subscription.Assignment
	httpClient *http.Client
	timeout    time.Duration
	userAgent  string
}

func NewFetchFeedTask(a subscription.Assignment, httpClient *http.Client, timeout time.Duration, userAgent string) *FetchFeedTask {
	return &FetchFeedTask{
		Task:       NewTask(TaskTypeFetchFeed, a.SourceURL),
		Assignment: a,
		httpClient: httpClient,
		timeout:    timeout,
		userAgent:  userAgent,
	}
}

func (t *FetchFeedTask) Execute(ctx context.Context) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", t.Assignment.SourceURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", t.userAgent)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}
