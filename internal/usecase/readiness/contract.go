package readiness

import (
	"context"
	"time"

	"github.com/fieldline/equipcat/internal/domain/model"
	"github.com/fieldline/equipcat/internal/domain/query"
	"github.com/fieldline/equipcat/internal/domain/similarity"
)

// Catalog runs the attribute queries the probes exercise.
type Catalog interface {
	Query(ctx context.Context, expr query.Expression) ([]model.Model, error)
}

// Models reads the raw model set for integrity checks.
type Models interface {
	List(ctx context.Context) ([]model.Model, error)
}

// Similar runs similarity lookups for the latency probe.
type Similar interface {
	Find(ctx context.Context, referenceID string, req similarity.Request) ([]similarity.Match, error)
}

// ReportStore persists the most recent readiness report. The payload is the
// serialized report; at is when the run finished.
type ReportStore interface {
	SaveLast(ctx context.Context, data []byte, at time.Time) error
	Last(ctx context.Context) ([]byte, error)
}
