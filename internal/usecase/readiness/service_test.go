package readiness

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fieldline/equipcat/internal/domain"
	"github.com/fieldline/equipcat/internal/domain/model"
	"github.com/fieldline/equipcat/internal/domain/query"
	"github.com/fieldline/equipcat/internal/domain/similarity"
)

// --- Mocks ---

type mockCatalog struct {
	queryFn func(ctx context.Context, expr query.Expression) ([]model.Model, error)
}

func (m *mockCatalog) Query(ctx context.Context, expr query.Expression) ([]model.Model, error) {
	if m.queryFn != nil {
		return m.queryFn(ctx, expr)
	}
	return nil, nil
}

type mockModels struct {
	listFn func(ctx context.Context) ([]model.Model, error)
}

func (m *mockModels) List(ctx context.Context) ([]model.Model, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

type mockSimilar struct {
	findFn func(ctx context.Context, referenceID string, req similarity.Request) ([]similarity.Match, error)
}

func (m *mockSimilar) Find(ctx context.Context, referenceID string, req similarity.Request) ([]similarity.Match, error) {
	if m.findFn != nil {
		return m.findFn(ctx, referenceID, req)
	}
	return nil, nil
}

// --- Fixtures ---

func machine(t *testing.T, id string, category model.Category, hp, pto float64) model.Model {
	t.Helper()
	m, err := model.New(model.Attributes{
		ID:              id,
		Manufacturer:    "John Deere",
		Name:            "Test " + id,
		Year:            2024,
		Category:        category,
		RatedPowerHP:    hp,
		PTOPowerHP:      pto,
		ProductionStart: "2022-01-01",
	})
	if err != nil {
		t.Fatalf("model.New: %v", err)
	}
	return m
}

// healthyFleet spans four categories with clean records.
func healthyFleet(t *testing.T) []model.Model {
	t.Helper()
	return []model.Model{
		machine(t, "a", model.CategoryRowCrop, 370, 320),
		machine(t, "b", model.CategoryCombine, 473, 0),
		machine(t, "c", model.CategoryExcavator, 162, 0),
		machine(t, "d", model.CategoryDozer, 215, 0),
	}
}

func newTestService(t *testing.T, fleet []model.Model) (*Service, *mockCatalog) {
	t.Helper()
	cat := &mockCatalog{}
	models := &mockModels{listFn: func(_ context.Context) ([]model.Model, error) { return fleet, nil }}
	return New(cat, models, &mockSimilar{}, Config{Workers: 2, Iterations: 2}), cat
}

func findCheck(t *testing.T, r Report, name string) Check {
	t.Helper()
	for _, c := range r.Checks {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("check %q missing from report", name)
	return Check{}
}

// --- Tests ---

func TestRun_AllPass(t *testing.T) {
	svc, _ := newTestService(t, healthyFleet(t))

	r, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !r.Ready {
		t.Fatalf("expected ready report, got checks: %+v", r.Checks)
	}
	if len(r.Checks) != 5 {
		t.Fatalf("expected 5 checks, got %d", len(r.Checks))
	}
	for _, c := range r.Checks {
		if c.Status != Pass {
			t.Errorf("check %s failed: %s", c.Name, c.Detail)
		}
	}
}

func TestRun_QueryLatencyFail(t *testing.T) {
	cat := &mockCatalog{queryFn: func(_ context.Context, _ query.Expression) ([]model.Model, error) {
		time.Sleep(20 * time.Millisecond)
		return nil, nil
	}}
	fleet := healthyFleet(t)
	models := &mockModels{listFn: func(_ context.Context) ([]model.Model, error) { return fleet, nil }}
	svc := New(cat, models, &mockSimilar{}, Config{
		QueryLatencyMax: time.Millisecond,
		Workers:         1,
		Iterations:      1,
	})

	r, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Ready {
		t.Fatal("expected not-ready report")
	}
	if c := findCheck(t, r, "query_latency"); c.Status != Fail {
		t.Errorf("expected query_latency to fail, got %s", c.Status)
	}
}

func TestRun_ConcurrentReadsFail(t *testing.T) {
	var calls atomic.Int64
	cat := &mockCatalog{queryFn: func(_ context.Context, _ query.Expression) ([]model.Model, error) {
		if calls.Add(1)%2 == 0 {
			return nil, errors.New("connection reset")
		}
		return nil, nil
	}}
	fleet := healthyFleet(t)
	models := &mockModels{listFn: func(_ context.Context) ([]model.Model, error) { return fleet, nil }}
	svc := New(cat, models, &mockSimilar{}, Config{Workers: 4, Iterations: 3})

	r, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c := findCheck(t, r, "concurrent_reads"); c.Status != Fail {
		t.Errorf("expected concurrent_reads to fail, got %s: %s", c.Status, c.Detail)
	}
}

func TestRun_DataIntegrityFail(t *testing.T) {
	fleet := healthyFleet(t)
	// PTO above rated power cannot pass model.New, so hydrate it the way a
	// corrupt stored record would arrive.
	fleet = append(fleet, model.Reconstruct(model.Attributes{
		ID:              "corrupt",
		Manufacturer:    "John Deere",
		Name:            "Broken",
		Year:            2024,
		Category:        model.CategoryRowCrop,
		RatedPowerHP:    100,
		PTOPowerHP:      150,
		ProductionStart: "2022-01-01",
	}))
	svc, _ := newTestService(t, fleet)

	r, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c := findCheck(t, r, "data_integrity")
	if c.Status != Fail {
		t.Fatalf("expected data_integrity to fail, got %s", c.Status)
	}
	if want := "corrupt: PTO power 150 exceeds rated power 100"; !strings.Contains(c.Detail, want) {
		t.Errorf("detail %q missing %q", c.Detail, want)
	}
}

func TestRun_DataIntegrityAcceptsBoundaryYears(t *testing.T) {
	// Years 1900 and 2100 are valid records and must not trip the probe.
	fleet := healthyFleet(t)
	oldest, err := model.New(model.Attributes{
		ID:              "oldest",
		Manufacturer:    "John Deere",
		Name:            "Antique",
		Year:            model.MinModelYear,
		Category:        model.CategoryRowCrop,
		RatedPowerHP:    40,
		ProductionStart: "1900-01-01",
	})
	if err != nil {
		t.Fatalf("model.New: %v", err)
	}
	newest, err := model.New(model.Attributes{
		ID:              "newest",
		Manufacturer:    "John Deere",
		Name:            "Concept",
		Year:            model.MaxModelYear,
		Category:        model.CategoryRowCrop,
		RatedPowerHP:    600,
		ProductionStart: "2099-01-01",
	})
	if err != nil {
		t.Fatalf("model.New: %v", err)
	}
	fleet = append(fleet, oldest, newest)
	svc, _ := newTestService(t, fleet)

	r, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c := findCheck(t, r, "data_integrity")
	if c.Status != Pass {
		t.Fatalf("expected data_integrity to pass, got %s: %s", c.Status, c.Detail)
	}
}

func TestRun_SchemaFlexibilityFail(t *testing.T) {
	fleet := []model.Model{
		machine(t, "a", model.CategoryRowCrop, 370, 320),
		machine(t, "b", model.CategoryRowCrop, 250, 210),
	}
	svc, _ := newTestService(t, fleet)

	r, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c := findCheck(t, r, "schema_flexibility"); c.Status != Fail {
		t.Errorf("expected schema_flexibility to fail, got %s", c.Status)
	}
}

func TestRun_LifecycleMetadataFail(t *testing.T) {
	fleet := healthyFleet(t)
	fleet = append(fleet, model.Reconstruct(model.Attributes{
		ID:           "undated",
		Manufacturer: "Kubota",
		Name:         "Undated",
		Year:         2023,
		Category:     model.CategoryBaler,
		RatedPowerHP: 120,
	}))
	svc, _ := newTestService(t, fleet)

	r, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c := findCheck(t, r, "lifecycle_metadata")
	if c.Status != Fail {
		t.Fatalf("expected lifecycle_metadata to fail, got %s", c.Status)
	}
	if !strings.Contains(c.Detail, "undated") {
		t.Errorf("detail %q should name the undated record", c.Detail)
	}
}

func TestRun_ListError(t *testing.T) {
	cat := &mockCatalog{}
	models := &mockModels{listFn: func(_ context.Context) ([]model.Model, error) {
		return nil, errors.New("db down")
	}}
	svc := New(cat, models, &mockSimilar{}, Config{})

	if _, err := svc.Run(context.Background()); err == nil {
		t.Fatal("expected error when the model list is unavailable")
	}
}

type mockReportStore struct {
	saveFn func(ctx context.Context, data []byte, at time.Time) error
	lastFn func(ctx context.Context) ([]byte, error)
}

func (m *mockReportStore) SaveLast(ctx context.Context, data []byte, at time.Time) error {
	if m.saveFn != nil {
		return m.saveFn(ctx, data, at)
	}
	return nil
}

func (m *mockReportStore) Last(ctx context.Context) ([]byte, error) {
	if m.lastFn != nil {
		return m.lastFn(ctx)
	}
	return nil, domain.ErrNotFound
}

func TestRun_PersistsReport(t *testing.T) {
	var saved []byte
	store := &mockReportStore{
		saveFn: func(_ context.Context, data []byte, at time.Time) error {
			saved = data
			if at.IsZero() {
				t.Error("expected a run timestamp")
			}
			return nil
		},
		lastFn: func(_ context.Context) ([]byte, error) { return saved, nil },
	}
	svc, _ := newTestService(t, healthyFleet(t))
	svc = svc.WithReportStore(store)

	ran, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(saved) == 0 {
		t.Fatal("report was not persisted")
	}

	got, err := svc.Last(context.Background())
	if err != nil {
		t.Fatalf("Last: %v", err)
	}
	if got.Ready != ran.Ready || len(got.Checks) != len(ran.Checks) {
		t.Errorf("stored report does not round-trip: got %+v, ran %+v", got, ran)
	}
	if got.RanAt.IsZero() {
		t.Error("stored report lost the run timestamp")
	}
}

func TestRun_SaveReportError(t *testing.T) {
	store := &mockReportStore{
		saveFn: func(context.Context, []byte, time.Time) error {
			return errors.New("write failed")
		},
	}
	svc, _ := newTestService(t, healthyFleet(t))
	svc = svc.WithReportStore(store)

	if _, err := svc.Run(context.Background()); err == nil {
		t.Fatal("expected error when the report cannot be persisted")
	}
}

func TestLast_NoStore(t *testing.T) {
	svc, _ := newTestService(t, healthyFleet(t))
	if _, err := svc.Last(context.Background()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
