// Package catalog persists equipment models as JSON documents in the
// external document database.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/fieldline/equipcat/internal/db"
	"github.com/fieldline/equipcat/internal/domain"
	"github.com/fieldline/equipcat/internal/domain/model"
)

const keyspace = "models"

// store is the consumer interface for model persistence (ISP).
type store interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo implements the catalog model repository.
type Repo struct {
	store store
}

// New creates a model repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Upsert creates or updates a model. Returns true if created.
func (r *Repo) Upsert(ctx context.Context, m *model.Model) (bool, error) {
	key := modelKey(m.ID())
	data, err := json.Marshal(toDTO(m))
	if err != nil {
		return false, fmt.Errorf("marshal model: %w", err)
	}

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return false, fmt.Errorf("check exists %s: %w", key, err)
	}

	if err := r.store.JSONSet(ctx, key, "$", data); err != nil {
		return false, fmt.Errorf("json.set %s: %w", key, err)
	}

	return !exists, nil
}

// Get returns a model by ID.
func (r *Repo) Get(ctx context.Context, id string) (model.Model, error) {
	key := modelKey(id)
	raw, err := r.store.JSONGet(ctx, key, "$")
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return model.Model{}, domain.ErrModelNotFound
		}
		return model.Model{}, fmt.Errorf("json.get %s: %w", key, err)
	}
	return parseJSONGetResult(id, raw)
}

// List returns every model in the catalog, ordered by ID for determinism.
// The source system always fetched the full document set and filtered in
// memory; this repository keeps that access pattern.
func (r *Repo) List(ctx context.Context) ([]model.Model, error) {
	keys, err := r.store.Scan(ctx, modelKey("*"))
	if err != nil {
		return nil, fmt.Errorf("scan models: %w", err)
	}
	sort.Strings(keys)

	models := make([]model.Model, 0, len(keys))
	for _, key := range keys {
		id := strings.TrimPrefix(key, modelKey(""))
		raw, err := r.store.JSONGet(ctx, key, "$")
		if err != nil {
			if errors.Is(err, db.ErrKeyNotFound) {
				// Deleted between SCAN and JSON.GET.
				continue
			}
			return nil, fmt.Errorf("json.get %s: %w", key, err)
		}
		m, err := parseJSONGetResult(id, raw)
		if err != nil {
			return nil, err
		}
		models = append(models, m)
	}
	return models, nil
}

// Count returns the number of models in the catalog.
func (r *Repo) Count(ctx context.Context) (int, error) {
	keys, err := r.store.Scan(ctx, modelKey("*"))
	if err != nil {
		return 0, fmt.Errorf("scan models: %w", err)
	}
	return len(keys), nil
}

// Delete removes a model.
func (r *Repo) Delete(ctx context.Context, id string) error {
	key := modelKey(id)

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists %s: %w", key, err)
	}
	if !exists {
		return domain.ErrModelNotFound
	}

	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}

func modelKey(id string) string {
	return fmt.Sprintf("%s%s:%s", domain.KeyPrefix, keyspace, id)
}

// parseJSONGetResult unpacks a JSON.GET "$" response (array with one element).
func parseJSONGetResult(id string, raw []byte) (model.Model, error) {
	var dtos []modelDTO
	if err := json.Unmarshal(raw, &dtos); err != nil {
		return model.Model{}, fmt.Errorf("unmarshal model %s: %w", id, err)
	}
	if len(dtos) == 0 {
		return model.Model{}, domain.ErrModelNotFound
	}
	return toModel(id, dtos[0]), nil
}
