package similar

import (
	"context"

	"github.com/fieldline/equipcat/internal/domain/model"
	"github.com/fieldline/equipcat/internal/domain/similarity"
)

// Repository reads equipment models for similarity ranking.
type Repository interface {
	Get(ctx context.Context, id string) (model.Model, error)
	List(ctx context.Context) ([]model.Model, error)
}

// Scorer ranks candidate models against a reference.
type Scorer interface {
	Rank(reference model.Model, candidates []model.Model) ([]similarity.Match, error)
}
