package equipcat

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fieldline/equipcat/internal/db"
	"github.com/fieldline/equipcat/internal/domain"
	"github.com/fieldline/equipcat/internal/domain/similarity"
)

func fakeParams(hp, category, transmission float64) similarity.Params {
	return similarity.Params{
		HPTolerance: 50,
		Weights:     similarity.Weights{HP: hp, Category: category, Transmission: transmission},
	}
}

func TestNew_NoAddress(t *testing.T) {
	_, err := New()
	if err == nil {
		t.Fatal("expected error when no address is configured")
	}
	if !strings.Contains(err.Error(), "database address required") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestOptions_SetConfig(t *testing.T) {
	cfg := &clientConfig{}

	WithAddrs("localhost:6379", "localhost:6380")(cfg)
	WithAuth("svc", "secret")(cfg)
	WithDB(3)(cfg)
	WithHPTolerance(75)(cfg)
	WithScoringWeights(0.6, 0.25, 0.15)(cfg)
	WithPagination(10, 50)(cfg)
	WithReadinessConfig(ReadinessConfig{Workers: 4, Iterations: 2})(cfg)

	if len(cfg.addrs) != 2 || cfg.addrs[0] != "localhost:6379" {
		t.Errorf("addrs = %v", cfg.addrs)
	}
	if cfg.username != "svc" || cfg.password != "secret" {
		t.Error("auth not applied")
	}
	if cfg.database != 3 {
		t.Errorf("database = %d, want 3", cfg.database)
	}
	if cfg.scoring.HPTolerance != 75 {
		t.Errorf("hp tolerance = %g, want 75", cfg.scoring.HPTolerance)
	}
	if cfg.scoring.Weights.HP != 0.6 || cfg.scoring.Weights.Category != 0.25 || cfg.scoring.Weights.Transmission != 0.15 {
		t.Errorf("weights = %+v", cfg.scoring.Weights)
	}
	if cfg.defaultPageSize != 10 || cfg.maxPageSize != 50 {
		t.Errorf("pagination = %d/%d", cfg.defaultPageSize, cfg.maxPageSize)
	}
	if cfg.readiness.Workers != 4 || cfg.readiness.Iterations != 2 {
		t.Errorf("readiness = %+v", cfg.readiness)
	}
}

func TestClient_Close_NilStore(t *testing.T) {
	c := &Client{}
	c.Close() // must not panic
}

func TestWireClient_InvalidWeights(t *testing.T) {
	store := newFakeStore()
	cfg := &clientConfig{scoring: fakeParams(0.9, 0.9, 0.9)}

	_, err := wireClient(store, cfg)
	if err == nil {
		t.Fatal("expected configuration error for weights not summing to 1.0")
	}
	if !store.closed {
		t.Error("store not closed after wiring failure")
	}
}

func TestClient_EndToEnd_InMemory(t *testing.T) {
	store := newFakeStore()
	cfg := &clientConfig{scoring: fakeParams(0.5, 0.3, 0.2)}
	client, err := wireClient(store, cfg)
	if err != nil {
		t.Fatalf("wireClient: %v", err)
	}
	defer client.Close()

	ctx := context.Background()

	_, created, err := client.UpsertModel(ctx, Model{
		ID:           "jd-8r-370",
		Manufacturer: "John Deere",
		Name:         "8R 370",
		Year:         2023,
		Category:     "row-crop",
		RatedPowerHP: 370,
		Transmission: "ivt",
	})
	if err != nil {
		t.Fatalf("UpsertModel: %v", err)
	}
	if !created {
		t.Error("expected created=true on first upsert")
	}

	if _, _, err := client.UpsertModel(ctx, Model{
		ID:           "caseih-magnum-340",
		Manufacturer: "Case IH",
		Name:         "Magnum 340",
		Year:         2023,
		Category:     "row-crop",
		RatedPowerHP: 340,
		Transmission: "cvt",
	}); err != nil {
		t.Fatalf("UpsertModel: %v", err)
	}

	got, err := client.GetModel(ctx, "jd-8r-370")
	if err != nil {
		t.Fatalf("GetModel: %v", err)
	}
	if got.RatedPowerHP != 370 {
		t.Errorf("RatedPowerHP = %g, want 370", got.RatedPowerHP)
	}

	models, next, err := client.ListModels(ctx, "", 10)
	if err != nil {
		t.Fatalf("ListModels: %v", err)
	}
	if len(models) != 2 || next != "" {
		t.Errorf("ListModels = %d models, next %q", len(models), next)
	}

	min := 350.0
	matched, err := client.QueryModels(ctx, Filter{
		Must: []Condition{{Key: "rated_power_hp", GTE: &min}},
	})
	if err != nil {
		t.Fatalf("QueryModels: %v", err)
	}
	if len(matched) != 1 || matched[0].ID != "jd-8r-370" {
		t.Errorf("QueryModels = %+v", matched)
	}

	similar, err := client.Similar(ctx, "jd-8r-370", SimilarOptions{})
	if err != nil {
		t.Fatalf("Similar: %v", err)
	}
	if len(similar) != 1 || similar[0].Model.ID != "caseih-magnum-340" {
		t.Fatalf("Similar = %+v", similar)
	}
	if similar[0].Score <= 0 || similar[0].Score >= 1 {
		t.Errorf("Score = %g, want in (0, 1)", similar[0].Score)
	}

	if _, err := client.UpsertManufacturer(ctx, Manufacturer{
		Name: "John Deere", Country: "USA", FoundedYear: 1837,
	}); err != nil {
		t.Fatalf("UpsertManufacturer: %v", err)
	}

	summary, err := client.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if summary.TotalModels != 2 || summary.TotalManufacturers != 1 {
		t.Errorf("Summary = %+v", summary)
	}

	healthy, checks := client.Health(ctx)
	if !healthy {
		t.Errorf("Health = false, checks %v", checks)
	}

	if err := client.DeleteModel(ctx, "caseih-magnum-340"); err != nil {
		t.Fatalf("DeleteModel: %v", err)
	}
	if _, err := client.GetModel(ctx, "caseih-magnum-340"); err == nil {
		t.Error("expected not-found after delete")
	}
}

func TestClient_Seed(t *testing.T) {
	store := newFakeStore()
	client, err := wireClient(store, &clientConfig{scoring: fakeParams(0.5, 0.3, 0.2)})
	if err != nil {
		t.Fatalf("wireClient: %v", err)
	}
	defer client.Close()

	ctx := context.Background()
	if err := client.Seed(ctx); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	summary, err := client.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if summary.TotalModels == 0 || summary.TotalManufacturers == 0 {
		t.Errorf("seed dataset missing: %+v", summary)
	}
	if len(summary.ByCategory) < 4 {
		t.Errorf("seed dataset covers %d categories, want at least 4", len(summary.ByCategory))
	}

	version, err := store.Get(ctx, "equipcat:seed:version")
	if err != nil {
		t.Fatalf("Get seed version: %v", err)
	}
	if string(version) != "2026-08" {
		t.Errorf("seed version = %q, want %q", version, "2026-08")
	}
}

func TestClient_ReadinessRecordsLastReport(t *testing.T) {
	store := newFakeStore()
	client, err := wireClient(store, &clientConfig{scoring: fakeParams(0.5, 0.3, 0.2)})
	if err != nil {
		t.Fatalf("wireClient: %v", err)
	}
	defer client.Close()

	ctx := context.Background()
	if _, err := client.LastReadiness(ctx); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("LastReadiness before any run: err = %v, want ErrNotFound", err)
	}

	if err := client.Seed(ctx); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	report, err := client.Readiness(ctx)
	if err != nil {
		t.Fatalf("Readiness: %v", err)
	}
	if !report.Ready {
		t.Fatalf("seeded catalog not ready: %+v", report)
	}

	last, err := client.LastReadiness(ctx)
	if err != nil {
		t.Fatalf("LastReadiness: %v", err)
	}
	if !last.Ready || last.RanAt.IsZero() {
		t.Errorf("recorded report: ready=%v ranAt=%v", last.Ready, last.RanAt)
	}
	if len(last.Checks) != len(report.Checks) {
		t.Errorf("recorded %d checks, want %d", len(last.Checks), len(report.Checks))
	}
}

// fakeStore is an in-memory db.Store for wiring tests.
type fakeStore struct {
	mu     sync.RWMutex
	docs   map[string][]byte
	kv     map[string][]byte
	closed bool
}

var _ db.Store = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{docs: make(map[string][]byte), kv: make(map[string][]byte)}
}

func (f *fakeStore) Ping(context.Context) error { return nil }

func (f *fakeStore) JSONSet(_ context.Context, key, _ string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[key] = append([]byte(nil), data...)
	return nil
}

func (f *fakeStore) JSONGet(_ context.Context, key string, _ ...string) ([]byte, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	data, ok := f.docs[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	// JSONPath "$" results come back as a one-element array.
	out := make([]byte, 0, len(data)+2)
	out = append(out, '[')
	out = append(out, data...)
	out = append(out, ']')
	return out, nil
}

func (f *fakeStore) Del(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.docs, key)
	return nil
}

func (f *fakeStore) Exists(_ context.Context, key string) (bool, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.docs[key]
	return ok, nil
}

func (f *fakeStore) Scan(_ context.Context, pattern string) ([]string, error) {
	prefix := strings.TrimSuffix(pattern, "*")
	f.mu.RLock()
	defer f.mu.RUnlock()
	var keys []string
	for k := range f.docs {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (f *fakeStore) Get(_ context.Context, key string) ([]byte, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	data, ok := f.kv[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return append([]byte(nil), data...), nil
}

func (f *fakeStore) Set(_ context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.kv[key] = append([]byte(nil), value...)
	return nil
}

func (f *fakeStore) SetWithTTL(_ context.Context, key string, value []byte, _ time.Duration) error {
	return f.Set(context.Background(), key, value)
}

func (f *fakeStore) IncrBy(_ context.Context, key string, val int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	current, _ := strconv.ParseInt(string(f.kv[key]), 10, 64)
	f.kv[key] = []byte(strconv.FormatInt(current+val, 10))
	return nil
}

func (f *fakeStore) Expire(context.Context, string, time.Duration, bool) error { return nil }

func (f *fakeStore) Close() { f.closed = true }

func (f *fakeStore) WaitForReady(context.Context, time.Duration) error { return nil }
