package dedup

import (
	"sync"
	"time"
)

type Kind int

const (
	// Publish means the item is new: claim it and republish it as-is.
	Publish Kind = iota
	// PublishOriginal means the same feed re-published the story:
	// readers keep the first-seen version instead of a rewritten one.
	PublishOriginal
	// Suppress means another feed already owns the story.
	Suppress
)

type entry[T any] struct {
	owner string
	item  T
}

// Store is the process-wide claim table from derived identifier to the
// owning output identity and the first-seen item content. It is rebuilt
// from scratch at process start and cleared wholesale at each purge.
//
// Claim order is authoritative: the feed that claims first (in
// subscription-list order) keeps the story for the rest of the epoch,
// so callers must serialize TryClaim in that order.
type Store[T any] struct {
	mu      sync.Mutex
	entries map[string]entry[T]
}

type Decision[T any] struct {
	Kind Kind
	Item T
}

func NewStore[T any]() *Store[T] {
	return &Store[T]{entries: make(map[string]entry[T])}
}

// TryClaim resolves one item against the table. Absent identifiers are
// inserted and published; identifiers owned by the same feed return the
// stored first-seen item; identifiers owned by another feed suppress.
func (s *Store[T]) TryClaim(id, owner string, item T) Decision[T] {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		s.entries[id] = entry[T]{owner: owner, item: item}
		return Decision[T]{Kind: Publish, Item: item}
	}

	if e.owner == owner {
		return Decision[T]{Kind: PublishOriginal, Item: e.item}
	}

	var zero T
	return Decision[T]{Kind: Suppress, Item: zero}
}

// Purge clears the whole table. Idempotent.
func (s *Store[T]) Purge() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]entry[T])
}

func (s *Store[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// ShouldPurge reports whether the daily purge boundary has been crossed
// since the last purge. The boundary is local midnight, so a story can
// be re-admitted the day after it was first claimed; that residual
// duplication is the price of bounded memory. A zero lastPurge (first
// run) is always due, which is harmless against an empty table.
func ShouldPurge(now, lastPurge time.Time) bool {
	ny, nm, nd := now.Local().Date()
	ly, lm, ld := lastPurge.Local().Date()
	return ny != ly || nm != lm || nd != ld
}
