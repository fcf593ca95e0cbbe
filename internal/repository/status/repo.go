// Package status persists operational status records (readiness reports,
// run counters) in the key-value surface of the document database.
package status

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fieldline/equipcat/internal/db"
	"github.com/fieldline/equipcat/internal/domain"
)

// Keys under the equipcat namespace.
const (
	lastReportKey    = domain.KeyPrefix + "readiness:last_report"
	runCounterPrefix = domain.KeyPrefix + "readiness:runs:"
)

const (
	defaultReportTTL  = 24 * time.Hour
	defaultCounterTTL = 48 * time.Hour
)

// store is the consumer interface for status operations (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	IncrBy(ctx context.Context, key string, val int64) error
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}

// Repo stores the latest readiness report and a per-day run counter.
type Repo struct {
	store      store
	reportTTL  time.Duration
	counterTTL time.Duration
}

// New creates a status repository with default TTLs: reports expire after
// 24h, daily run counters after 48h.
func New(s store) *Repo {
	return &Repo{store: s, reportTTL: defaultReportTTL, counterTTL: defaultCounterTTL}
}

// SaveLast stores the serialized report and bumps the run counter for the
// day of the run.
func (r *Repo) SaveLast(ctx context.Context, data []byte, at time.Time) error {
	if err := r.store.SetWithTTL(ctx, lastReportKey, data, r.reportTTL); err != nil {
		return fmt.Errorf("status SET %s: %w", lastReportKey, err)
	}

	counterKey := runCounterPrefix + at.UTC().Format("2006-01-02")
	if err := r.store.IncrBy(ctx, counterKey, 1); err != nil {
		return fmt.Errorf("status INCRBY %s: %w", counterKey, err)
	}
	// Set TTL only if the key has no expiry yet (NX).
	if err := r.store.Expire(ctx, counterKey, r.counterTTL, true); err != nil {
		return fmt.Errorf("status EXPIRE %s: %w", counterKey, err)
	}
	return nil
}

// Last returns the most recent stored report payload.
func (r *Repo) Last(ctx context.Context) ([]byte, error) {
	data, err := r.store.Get(ctx, lastReportKey)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, fmt.Errorf("no readiness report recorded: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("status GET %s: %w", lastReportKey, err)
	}
	return data, nil
}
