package catalog

import (
	"context"
	"testing"

	dommfr "github.com/fieldline/equipcat/internal/domain/manufacturer"
	"github.com/fieldline/equipcat/internal/domain/model"
)

// mockRepo implements Repository with function fields.
type mockRepo struct {
	upsertFn func(ctx context.Context, m *model.Model) (bool, error)
	getFn    func(ctx context.Context, id string) (model.Model, error)
	listFn   func(ctx context.Context) ([]model.Model, error)
	countFn  func(ctx context.Context) (int, error)
	deleteFn func(ctx context.Context, id string) error
}

func (r *mockRepo) Upsert(ctx context.Context, m *model.Model) (bool, error) {
	if r.upsertFn != nil {
		return r.upsertFn(ctx, m)
	}
	return true, nil
}

func (r *mockRepo) Get(ctx context.Context, id string) (model.Model, error) {
	if r.getFn != nil {
		return r.getFn(ctx, id)
	}
	return model.Model{}, nil
}

func (r *mockRepo) List(ctx context.Context) ([]model.Model, error) {
	if r.listFn != nil {
		return r.listFn(ctx)
	}
	return nil, nil
}

func (r *mockRepo) Count(ctx context.Context) (int, error) {
	if r.countFn != nil {
		return r.countFn(ctx)
	}
	return 0, nil
}

func (r *mockRepo) Delete(ctx context.Context, id string) error {
	if r.deleteFn != nil {
		return r.deleteFn(ctx, id)
	}
	return nil
}

// mockMfrRepo implements ManufacturerRepository with function fields.
type mockMfrRepo struct {
	upsertFn func(ctx context.Context, m *dommfr.Manufacturer) (bool, error)
	getFn    func(ctx context.Context, name string) (dommfr.Manufacturer, error)
	listFn   func(ctx context.Context) ([]dommfr.Manufacturer, error)
	deleteFn func(ctx context.Context, name string) error
}

func (r *mockMfrRepo) Upsert(ctx context.Context, m *dommfr.Manufacturer) (bool, error) {
	if r.upsertFn != nil {
		return r.upsertFn(ctx, m)
	}
	return true, nil
}

func (r *mockMfrRepo) Get(ctx context.Context, name string) (dommfr.Manufacturer, error) {
	if r.getFn != nil {
		return r.getFn(ctx, name)
	}
	return dommfr.Manufacturer{}, nil
}

func (r *mockMfrRepo) List(ctx context.Context) ([]dommfr.Manufacturer, error) {
	if r.listFn != nil {
		return r.listFn(ctx)
	}
	return nil, nil
}

func (r *mockMfrRepo) Delete(ctx context.Context, name string) error {
	if r.deleteFn != nil {
		return r.deleteFn(ctx, name)
	}
	return nil
}

func newTestService(t *testing.T) (*Service, *mockRepo, *mockMfrRepo) {
	t.Helper()
	repo := &mockRepo{}
	mfrs := &mockMfrRepo{}
	return New(repo, mfrs), repo, mfrs
}

// fixtureModel builds a validated model for tests.
func fixtureModel(t *testing.T, id string, category model.Category, hp float64) model.Model {
	t.Helper()
	m, err := model.New(model.Attributes{
		ID:           id,
		Manufacturer: "John Deere",
		Name:         "Test " + id,
		Year:         2024,
		Category:     category,
		RatedPowerHP: hp,
	})
	if err != nil {
		t.Fatalf("model.New: %v", err)
	}
	return m
}
