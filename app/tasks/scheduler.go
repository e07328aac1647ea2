package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/feedless/rss-dedup/app/cfg"
	"github.com/feedless/rss-dedup/app/database"
	"github.com/feedless/rss-dedup/app/dedup"
	"github.com/feedless/rss-dedup/app/feed"
	"github.com/feedless/rss-dedup/app/opml"
	"github.com/feedless/rss-dedup/app/subscription"
)

var _ OrchestratorInterface = (*Scheduler)(nil)

// Scheduler owns the iteration loop: merge subscriptions when the
// source list changed, purge the claim table at day boundaries, fetch
// all feeds concurrently, then replay the claim phase sequentially in
// subscription order and write the republished files.
//
// The claim table and the registry are only touched from the scheduler
// goroutine, which is the single-writer discipline the deterministic
// claim order depends on.
type Scheduler struct {
	registryRepo database.RegistryRepository
	store        *dedup.Store[feed.Item]
	processor    *feed.Processor
	generator    *feed.Generator
	settings     *feed.Settings
	httpClient   *http.Client

	sourceOPML    string
	targetOPML    string
	outputDir     string
	baseURL       string
	userAgent     string
	interval      time.Duration
	maxIterations int
	workerCount   int

	// Iteration state, owned by the scheduler goroutine. The mutex
	// only guards the snapshot read by GetStats.
	registry      subscription.Registry
	assignments   []subscription.Assignment
	markers       map[string]string
	sourceModTime time.Time
	lastPurge     time.Time
	iterations    uint64
	mu            sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	done   chan struct{}
}

type fetchResult struct {
	data []byte
	err  error
}

func NewScheduler(registryRepo database.RegistryRepository, store *dedup.Store[feed.Item],
	processor *feed.Processor, generator *feed.Generator, settings *feed.Settings,
	registry subscription.Registry, lastPurge time.Time) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	c := cfg.Get()

	baseURL := c.BaseUrl
	if baseURL == "" {
		baseURL = "http://localhost:" + c.Port
	}

	return &Scheduler{
		registryRepo:  registryRepo,
		store:         store,
		processor:     processor,
		generator:     generator,
		settings:      settings,
		httpClient:    &http.Client{},
		sourceOPML:    c.SourceOPML,
		targetOPML:    c.TargetOPML,
		outputDir:     c.OutputDir,
		baseURL:       baseURL,
		userAgent:     c.UserAgent,
		interval:      time.Duration(c.Interval) * time.Second,
		maxIterations: c.MaxIterations,
		workerCount:   c.WorkerCount,
		registry:      registry,
		markers:       make(map[string]string),
		lastPurge:     lastPurge,
		ctx:           ctx,
		cancel:        cancel,
		done:          make(chan struct{}),
	}
}

func (s *Scheduler) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			s.runIteration(s.ctx)

			s.mu.RLock()
			count := s.iterations
			s.mu.RUnlock()
			if s.maxIterations > 0 && count >= uint64(s.maxIterations) {
				slog.Info("Iteration budget exhausted, stopping", "iterations", count)
				close(s.done)
				return
			}

			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) Done() <-chan struct{} {
	return s.done
}

func (s *Scheduler) GetStats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{
		Feeds:      len(s.assignments),
		Claims:     s.store.Len(),
		Iterations: s.iterations,
		LastPurge:  s.lastPurge,
	}
}

func (s *Scheduler) runIteration(ctx context.Context) {
	s.mu.Lock()
	s.iterations++
	iteration := s.iterations
	s.mu.Unlock()

	started := time.Now()
	slog.Info("Iteration started", "iteration", iteration)

	// A failed merge is fatal to this iteration's merge only: the
	// previous registry and assignments stay in force and the next
	// tick retries.
	if err := s.syncSubscriptions(); err != nil {
		slog.Error("Subscription merge failed, keeping previous registry", "error", err)
	}

	s.checkPurge(time.Now())

	s.mu.RLock()
	assignments := s.assignments
	s.mu.RUnlock()

	if len(assignments) == 0 {
		slog.Warn("No feeds subscribed, nothing to process")
		return
	}

	results := s.fetchAll(ctx, assignments)

	// Claim phase: strictly in subscription order, regardless of fetch
	// completion order.
	processed := 0
	for i, a := range assignments {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if results[i].err != nil {
			slog.Error("Feed skipped for this iteration", "feed", a.SourceURL, "error", results[i].err)
			continue
		}

		if s.processFeed(a, results[i].data) {
			processed++
		}
	}

	slog.Info("Iteration finished",
		"iteration", iteration,
		"duration", time.Since(started),
		"feeds", len(assignments),
		"republished", processed)
}

// syncSubscriptions re-reads the source OPML when its modification time
// changed, merges it against the registry, persists the result and
// rewrites the target OPML.
func (s *Scheduler) syncSubscriptions() error {
	info, err := os.Stat(s.sourceOPML)
	if err != nil {
		return fmt.Errorf("failed to stat source OPML: %w", err)
	}

	s.mu.RLock()
	unchanged := !s.sourceModTime.IsZero() && info.ModTime().Equal(s.sourceModTime) && len(s.assignments) > 0
	s.mu.RUnlock()
	if unchanged {
		return nil
	}

	data, err := os.ReadFile(s.sourceOPML)
	if err != nil {
		return fmt.Errorf("failed to read source OPML: %w", err)
	}

	doc, err := opml.Parse(data)
	if err != nil {
		return err
	}

	s.mu.RLock()
	prev := s.registry
	s.mu.RUnlock()

	updated, assignments, err := subscription.Merge(prev, doc.Outlines)
	if err != nil {
		return err
	}

	if err := s.registryRepo.Replace(updated); err != nil {
		return fmt.Errorf("failed to persist registry: %w", err)
	}

	target := opml.Render(doc.Title, subscription.TargetOutlines(assignments, s.baseURL))
	if err := atomicWrite(s.targetOPML, []byte(target)); err != nil {
		return fmt.Errorf("failed to write target OPML: %w", err)
	}

	s.mu.Lock()
	s.registry = updated
	s.assignments = assignments
	s.sourceModTime = info.ModTime()
	s.mu.Unlock()

	slog.Info("Subscriptions merged", "feeds", len(assignments), "target_opml", s.targetOPML)

	return nil
}

func (s *Scheduler) checkPurge(now time.Time) {
	s.mu.RLock()
	last := s.lastPurge
	s.mu.RUnlock()

	if !dedup.ShouldPurge(now, last) {
		return
	}

	claims := s.store.Len()
	s.store.Purge()
	if err := s.registryRepo.SetLastPurge(now); err != nil {
		slog.Error("Failed to persist purge time", "error", err)
	}

	s.mu.Lock()
	s.lastPurge = now
	s.mu.Unlock()

	slog.Info("Claim table purged", "dropped", claims)
}

// fetchAll downloads all feeds concurrently into memory. Results come
// back indexed by assignment position so the caller can replay them in
// subscription order.
func (s *Scheduler) fetchAll(ctx context.Context, assignments []subscription.Assignment) []fetchResult {
	results := make([]fetchResult, len(assignments))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < s.workerCount; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				task := NewFetchFeedTask(assignments[i], s.httpClient, s.settings.GetFetchTimeout(), s.userAgent)
				task.Start()
				data, err := task.Execute(ctx)
				if err == nil {
					slog.Debug("Feed fetched", "feed", task.GetFeedURL(), "bytes", len(data), "duration", task.GetDuration())
				}
				results[i] = fetchResult{data: data, err: err}
			}
		}()
	}

	for i := range assignments {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return results
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	return results
}

// processFeed runs the claim phase for one fetched document and writes
// the republished file. The build marker is only advanced after a
// successful write, so a failed feed keeps its previous output and
// earns no dedup priority.
func (s *Scheduler) processFeed(a subscription.Assignment, data []byte) bool {
	prevMarker := s.markers[a.SourceURL]

	result, err := s.processor.Run(a, data, prevMarker)
	if err != nil {
		slog.Error("Feed processing failed", "feed", a.SourceURL, "error", err)
		return false
	}

	if result.Unchanged {
		slog.Debug("Feed not updated since last iteration", "feed", a.SourceURL)
		return false
	}

	content := s.generator.Run(a, result.Metadata, result.Items)
	path := filepath.Join(s.outputDir, a.Filename)
	if err := atomicWrite(path, []byte(content)); err != nil {
		slog.Error("Failed to write republished feed", "feed", a.SourceURL, "path", path, "error", err)
		return false
	}

	s.markers[a.SourceURL] = result.BuildMarker

	slog.Info("Feed republished", "feed", a.SourceURL, "file", a.Filename, "items", len(result.Items))

	return true
}

// atomicWrite writes via a temp file and rename so readers never see a
// half-written document.
func atomicWrite(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
