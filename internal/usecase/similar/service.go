// Package similar implements the "find similar models" use case: load a
// reference model, pre-filter candidates, and rank them by similarity.
package similar

import (
	"context"
	"fmt"

	"github.com/fieldline/equipcat/internal/domain"
	"github.com/fieldline/equipcat/internal/domain/model"
	"github.com/fieldline/equipcat/internal/domain/similarity"
)

// Service ranks catalog models by similarity to a reference.
type Service struct {
	models Repository
	scorer Scorer
}

// New creates a similar-models service.
func New(models Repository, scorer Scorer) *Service {
	return &Service{models: models, scorer: scorer}
}

// Find loads the reference model, gathers candidates matching the request
// filters (the reference itself is always excluded), ranks them, and applies
// the top-k, min-score and limit cuts in that order.
func (s *Service) Find(ctx context.Context, referenceID string, req similarity.Request) ([]similarity.Match, error) {
	ref, err := s.models.Get(ctx, referenceID)
	if err != nil {
		return nil, fmt.Errorf("get reference model: %w", err)
	}

	filters := req.Filters()
	if err := filters.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidQuery, err)
	}

	all, err := s.models.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list candidate models: %w", err)
	}

	candidates := make([]model.Model, 0, len(all))
	for i := range all {
		if all[i].ID() == ref.ID() {
			continue
		}
		if !filters.Matches(&all[i]) {
			continue
		}
		candidates = append(candidates, all[i])
	}

	matches, err := s.scorer.Rank(ref, candidates)
	if err != nil {
		return nil, fmt.Errorf("rank candidates: %w", err)
	}

	if len(matches) > req.TopK() {
		matches = matches[:req.TopK()]
	}

	out := make([]similarity.Match, 0, req.Limit())
	for i := range matches {
		if matches[i].Score() < req.MinScore() {
			// Ranked descending: everything after is below threshold too.
			break
		}
		out = append(out, matches[i])
		if len(out) == req.Limit() {
			break
		}
	}
	return out, nil
}
