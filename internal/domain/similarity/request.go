package similarity

import (
	"fmt"

	"github.com/fieldline/equipcat/internal/domain/query"
)

// Similar request limits.
const (
	DefaultTopK  = 10
	MaxTopK      = 500
	DefaultLimit = 20
	MaxLimit     = 100
)

// Request is a validated "find similar models" query.
type Request struct {
	filters  query.Expression
	topK     int
	limit    int
	minScore float64
}

// NewRequest validates and normalizes similar request parameters.
// Defaults: topK=10, limit=20. Limit is clamped to topK.
func NewRequest(filters query.Expression, topK, limit int, minScore float64) (Request, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if topK > MaxTopK {
		topK = MaxTopK
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if limit > topK {
		limit = topK
	}
	if minScore < 0 || minScore > 1 {
		return Request{}, fmt.Errorf("min_score must be between 0 and 1")
	}
	return Request{filters: filters, topK: topK, limit: limit, minScore: minScore}, nil
}

// Filters returns the candidate pre-filter expression.
func (r *Request) Filters() query.Expression { return r.filters }

// TopK returns the number of candidates to score.
func (r *Request) TopK() int { return r.topK }

// Limit returns the maximum matches to return.
func (r *Request) Limit() int { return r.limit }

// MinScore returns the minimum similarity threshold.
func (r *Request) MinScore() float64 { return r.minScore }
