package catalog

import (
	"context"
	"testing"

	"github.com/fieldline/equipcat/internal/domain/model"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	jsonSetFn func(ctx context.Context, key, path string, data []byte) error
	jsonGetFn func(ctx context.Context, key string, paths ...string) ([]byte, error)
	delFn     func(ctx context.Context, key string) error
	existsFn  func(ctx context.Context, key string) (bool, error)
	scanFn    func(ctx context.Context, pattern string) ([]string, error)
}

func (m *mockStore) JSONSet(ctx context.Context, key, path string, data []byte) error {
	if m.jsonSetFn != nil {
		return m.jsonSetFn(ctx, key, path, data)
	}
	return nil
}

func (m *mockStore) JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error) {
	if m.jsonGetFn != nil {
		return m.jsonGetFn(ctx, key, paths...)
	}
	return []byte(`[{}]`), nil
}

func (m *mockStore) Del(ctx context.Context, key string) error {
	if m.delFn != nil {
		return m.delFn(ctx, key)
	}
	return nil
}

func (m *mockStore) Exists(ctx context.Context, key string) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, key)
	}
	return false, nil
}

func (m *mockStore) Scan(ctx context.Context, pattern string) ([]string, error) {
	if m.scanFn != nil {
		return m.scanFn(ctx, pattern)
	}
	return nil, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms), ms
}

func testModel(t *testing.T) model.Model {
	t.Helper()
	m, err := model.New(model.Attributes{
		ID:           "jd-8r-370",
		Manufacturer: "John Deere",
		Name:         "8R 370",
		Year:         2024,
		Series:       "8R Series",
		Category:     model.CategoryRowCrop,
		RatedPowerHP: 370,
		PTOPowerHP:   320,
		Transmission: model.TransmissionIVT,
		MSRPBaseUSD:  385000,
	})
	if err != nil {
		t.Fatalf("model.New: %v", err)
	}
	return m
}
