// Package catalog implements the equipment catalog use cases: model and
// manufacturer CRUD, attribute queries, and catalog summaries.
package catalog

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/fieldline/equipcat/internal/domain"
	dommfr "github.com/fieldline/equipcat/internal/domain/manufacturer"
	"github.com/fieldline/equipcat/internal/domain/model"
	"github.com/fieldline/equipcat/internal/domain/query"
)

// Service handles catalog operations over models and manufacturers.
type Service struct {
	models          Repository
	manufacturers   ManufacturerRepository
	defaultPageSize int
	maxPageSize     int
}

// New creates a catalog service.
func New(models Repository, manufacturers ManufacturerRepository) *Service {
	return &Service{
		models:          models,
		manufacturers:   manufacturers,
		defaultPageSize: 20,
		maxPageSize:     100,
	}
}

// WithPagination configures page size limits.
func (s *Service) WithPagination(defaultPageSize, maxPageSize int) *Service {
	if defaultPageSize > 0 {
		s.defaultPageSize = defaultPageSize
	}
	if maxPageSize > 0 {
		s.maxPageSize = maxPageSize
	}
	return s
}

// Upsert validates and stores a model. An empty ID gets a generated one.
// Returns the stored model and true if it was created rather than updated.
func (s *Service) Upsert(ctx context.Context, attrs model.Attributes) (model.Model, bool, error) {
	if attrs.ID == "" {
		attrs.ID = uuid.NewString()
	}

	m, err := model.New(attrs)
	if err != nil {
		return model.Model{}, false, err
	}

	created, err := s.models.Upsert(ctx, &m)
	if err != nil {
		return model.Model{}, false, fmt.Errorf("upsert model: %w", err)
	}
	return m, created, nil
}

// Get retrieves a model by ID.
func (s *Service) Get(ctx context.Context, id string) (model.Model, error) {
	m, err := s.models.Get(ctx, id)
	if err != nil {
		return model.Model{}, fmt.Errorf("get model: %w", err)
	}
	return m, nil
}

// List returns a page of models ordered by ID. The cursor is the last ID of
// the previous page; an empty next cursor means the listing is exhausted.
func (s *Service) List(ctx context.Context, cursor string, limit int) ([]model.Model, string, error) {
	if limit <= 0 {
		limit = s.defaultPageSize
	}
	if limit > s.maxPageSize {
		limit = s.maxPageSize
	}

	all, err := s.models.List(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("list models: %w", err)
	}

	start := 0
	if cursor != "" {
		start = sort.Search(len(all), func(i int) bool { return all[i].ID() > cursor })
	}

	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	page := all[start:end]

	nextCursor := ""
	if end < len(all) && len(page) > 0 {
		nextCursor = page[len(page)-1].ID()
	}
	return page, nextCursor, nil
}

// Delete removes a model.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.models.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete model: %w", err)
	}
	return nil
}

// Query returns every model matching the expression, ordered by ID. The
// whole catalog is fetched and evaluated in memory; catalogs here are
// prototype-sized, not production-sized.
func (s *Service) Query(ctx context.Context, expr query.Expression) ([]model.Model, error) {
	if err := expr.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidQuery, err)
	}

	all, err := s.models.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}

	matched := make([]model.Model, 0, len(all))
	for i := range all {
		if expr.Matches(&all[i]) {
			matched = append(matched, all[i])
		}
	}
	return matched, nil
}

// Summary aggregates catalog-wide statistics.
type Summary struct {
	TotalModels        int
	TotalManufacturers int
	ByCategory         map[string]int
	ByManufacturer     map[string]int
	AvgRatedPowerHP    float64
	AvgMSRPBaseUSD     float64
}

// Summary computes catalog statistics across all stored models. MSRP
// averages skip records without a price.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	all, err := s.models.List(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("list models: %w", err)
	}

	mfrs, err := s.manufacturers.List(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("list manufacturers: %w", err)
	}

	sum := Summary{
		TotalModels:        len(all),
		TotalManufacturers: len(mfrs),
		ByCategory:         make(map[string]int),
		ByManufacturer:     make(map[string]int),
	}

	var hpTotal, msrpTotal float64
	var msrpCount int
	for i := range all {
		m := &all[i]
		sum.ByCategory[string(m.Category())]++
		sum.ByManufacturer[m.Manufacturer()]++
		hpTotal += m.RatedPowerHP()
		if msrp := m.MSRPBaseUSD(); msrp > 0 {
			msrpTotal += msrp
			msrpCount++
		}
	}
	if len(all) > 0 {
		sum.AvgRatedPowerHP = hpTotal / float64(len(all))
	}
	if msrpCount > 0 {
		sum.AvgMSRPBaseUSD = msrpTotal / float64(msrpCount)
	}
	return sum, nil
}

// UpsertManufacturer validates and stores a manufacturer entry.
func (s *Service) UpsertManufacturer(
	ctx context.Context, name, country string, foundedYear int, headquarters, website string,
) (dommfr.Manufacturer, bool, error) {
	m, err := dommfr.New(name, country, foundedYear, headquarters, website)
	if err != nil {
		return dommfr.Manufacturer{}, false, err
	}

	created, err := s.manufacturers.Upsert(ctx, &m)
	if err != nil {
		return dommfr.Manufacturer{}, false, fmt.Errorf("upsert manufacturer: %w", err)
	}
	return m, created, nil
}

// GetManufacturer retrieves a manufacturer by name.
func (s *Service) GetManufacturer(ctx context.Context, name string) (dommfr.Manufacturer, error) {
	m, err := s.manufacturers.Get(ctx, name)
	if err != nil {
		return dommfr.Manufacturer{}, fmt.Errorf("get manufacturer: %w", err)
	}
	return m, nil
}

// ListManufacturers returns every manufacturer entry.
func (s *Service) ListManufacturers(ctx context.Context) ([]dommfr.Manufacturer, error) {
	mfrs, err := s.manufacturers.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list manufacturers: %w", err)
	}
	return mfrs, nil
}

// DeleteManufacturer removes a manufacturer entry.
func (s *Service) DeleteManufacturer(ctx context.Context, name string) error {
	if err := s.manufacturers.Delete(ctx, name); err != nil {
		return fmt.Errorf("delete manufacturer: %w", err)
	}
	return nil
}
