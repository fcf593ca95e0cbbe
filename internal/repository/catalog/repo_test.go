package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/fieldline/equipcat/internal/db"
	"github.com/fieldline/equipcat/internal/domain"
)

// --- Upsert ---

func TestUpsert_Create(t *testing.T) {
	repo, ms := newTestRepo(t)
	ctx := context.Background()
	m := testModel(t)

	ms.existsFn = func(_ context.Context, key string) (bool, error) {
		if key != "equipcat:models:jd-8r-370" {
			t.Errorf("unexpected key: %s", key)
		}
		return false, nil
	}
	ms.jsonSetFn = func(_ context.Context, key, path string, data []byte) error {
		if key != "equipcat:models:jd-8r-370" {
			t.Errorf("unexpected key: %s", key)
		}
		if path != "$" {
			t.Errorf("unexpected path: %s", path)
		}
		var dto modelDTO
		if err := json.Unmarshal(data, &dto); err != nil {
			t.Fatalf("stored payload not valid JSON: %v", err)
		}
		if dto.RatedPowerHP != 370 || dto.Category != "row-crop" || dto.TransmissionType != "ivt" {
			t.Errorf("unexpected stored fields: %+v", dto)
		}
		return nil
	}

	created, err := repo.Upsert(ctx, &m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created {
		t.Fatal("expected created=true for new model")
	}
}

func TestUpsert_Update(t *testing.T) {
	repo, ms := newTestRepo(t)
	m := testModel(t)

	ms.existsFn = func(_ context.Context, _ string) (bool, error) { return true, nil }

	created, err := repo.Upsert(context.Background(), &m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created {
		t.Fatal("expected created=false for existing model")
	}
}

func TestUpsert_JSONSetError(t *testing.T) {
	repo, ms := newTestRepo(t)
	m := testModel(t)

	ms.jsonSetFn = func(_ context.Context, _, _ string, _ []byte) error {
		return errors.New("OOM")
	}

	if _, err := repo.Upsert(context.Background(), &m); err == nil {
		t.Fatal("expected error on JSON.SET failure")
	}
}

// --- Get ---

func TestGet_HappyPath(t *testing.T) {
	repo, ms := newTestRepo(t)

	payload := `[{"manufacturer":"John Deere","model_name":"8R 370","model_year":2024,` +
		`"category":"row-crop","rated_power_hp":370,"transmission_type":"ivt"}]`
	ms.jsonGetFn = func(_ context.Context, key string, _ ...string) ([]byte, error) {
		if key != "equipcat:models:jd-8r-370" {
			t.Errorf("unexpected key: %s", key)
		}
		return []byte(payload), nil
	}

	m, err := repo.Get(context.Background(), "jd-8r-370")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.ID() != "jd-8r-370" {
		t.Errorf("expected ID jd-8r-370, got %s", m.ID())
	}
	if m.RatedPowerHP() != 370 {
		t.Errorf("expected 370 hp, got %f", m.RatedPowerHP())
	}
	if m.Transmission() != "ivt" {
		t.Errorf("expected ivt transmission, got %s", m.Transmission())
	}
}

func TestGet_NotFound(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.jsonGetFn = func(_ context.Context, _ string, _ ...string) ([]byte, error) {
		return nil, db.ErrKeyNotFound
	}

	if _, err := repo.Get(context.Background(), "nope"); !errors.Is(err, domain.ErrModelNotFound) {
		t.Fatalf("expected ErrModelNotFound, got %v", err)
	}
}

// --- List / Count ---

func TestList_ReturnsSortedByID(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.scanFn = func(_ context.Context, pattern string) ([]string, error) {
		if pattern != "equipcat:models:*" {
			t.Errorf("unexpected pattern: %s", pattern)
		}
		// SCAN ordering is unspecified; List must sort.
		return []string{"equipcat:models:b", "equipcat:models:a"}, nil
	}
	ms.jsonGetFn = func(_ context.Context, key string, _ ...string) ([]byte, error) {
		return []byte(`[{"category":"utility","rated_power_hp":100}]`), nil
	}

	models, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(models) != 2 {
		t.Fatalf("expected 2 models, got %d", len(models))
	}
	if models[0].ID() != "a" || models[1].ID() != "b" {
		t.Errorf("expected sorted IDs [a b], got [%s %s]", models[0].ID(), models[1].ID())
	}
}

func TestList_SkipsKeysDeletedMidScan(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.scanFn = func(_ context.Context, _ string) ([]string, error) {
		return []string{"equipcat:models:gone", "equipcat:models:here"}, nil
	}
	ms.jsonGetFn = func(_ context.Context, key string, _ ...string) ([]byte, error) {
		if key == "equipcat:models:gone" {
			return nil, db.ErrKeyNotFound
		}
		return []byte(`[{"category":"utility","rated_power_hp":100}]`), nil
	}

	models, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(models) != 1 || models[0].ID() != "here" {
		t.Fatalf("expected only the surviving model, got %d", len(models))
	}
}

func TestCount(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.scanFn = func(_ context.Context, _ string) ([]string, error) {
		return []string{"equipcat:models:a", "equipcat:models:b", "equipcat:models:c"}, nil
	}

	n, err := repo.Count(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3, got %d", n)
	}
}

// --- Delete ---

func TestDelete_NotFound(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.existsFn = func(_ context.Context, _ string) (bool, error) { return false, nil }

	if err := repo.Delete(context.Background(), "nope"); !errors.Is(err, domain.ErrModelNotFound) {
		t.Fatalf("expected ErrModelNotFound, got %v", err)
	}
}

func TestDelete_Success(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.existsFn = func(_ context.Context, _ string) (bool, error) { return true, nil }
	deleted := false
	ms.delFn = func(_ context.Context, key string) error {
		deleted = key == "equipcat:models:jd-8r-370"
		return nil
	}

	if err := repo.Delete(context.Background(), "jd-8r-370"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !deleted {
		t.Fatal("expected DEL on the model key")
	}
}
