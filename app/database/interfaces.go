package database

import (
	"time"

	"github.com/feedless/rss-dedup/app/subscription"
)

// RegistryRepository persists the subscription registry and the
// last-purge date. The registry must survive restarts verbatim so
// output identities stay stable; the last-purge date makes the daily
// purge restart-safe.
type RegistryRepository interface {
	GetAll() (subscription.Registry, error)
	Replace(reg subscription.Registry) error

	GetLastPurge() (time.Time, error)
	SetLastPurge(t time.Time) error
}
