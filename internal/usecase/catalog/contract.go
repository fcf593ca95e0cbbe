package catalog

import (
	"context"

	dommfr "github.com/fieldline/equipcat/internal/domain/manufacturer"
	"github.com/fieldline/equipcat/internal/domain/model"
)

// Repository defines the storage contract for equipment models.
type Repository interface {
	Upsert(ctx context.Context, m *model.Model) (created bool, err error)
	Get(ctx context.Context, id string) (model.Model, error)
	List(ctx context.Context) ([]model.Model, error)
	Count(ctx context.Context) (int, error)
	Delete(ctx context.Context, id string) error
}

// ManufacturerRepository defines the storage contract for manufacturer entries.
type ManufacturerRepository interface {
	Upsert(ctx context.Context, m *dommfr.Manufacturer) (created bool, err error)
	Get(ctx context.Context, name string) (dommfr.Manufacturer, error)
	List(ctx context.Context) ([]dommfr.Manufacturer, error)
	Delete(ctx context.Context, name string) error
}
