// Package manufacturer persists manufacturer reference entries as JSON
// documents in the external document database.
package manufacturer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/fieldline/equipcat/internal/db"
	"github.com/fieldline/equipcat/internal/domain"
	"github.com/fieldline/equipcat/internal/domain/manufacturer"
)

const keyspace = "manufacturers"

// store is the consumer interface for manufacturer persistence.
type store interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// manufacturerDTO is the stored JSON shape of a manufacturer entry.
type manufacturerDTO struct {
	Name         string `json:"name"`
	Country      string `json:"country"`
	FoundedYear  int    `json:"founded_year,omitempty"`
	Headquarters string `json:"headquarters,omitempty"`
	Website      string `json:"website,omitempty"`
}

// Repo implements the manufacturer repository.
type Repo struct {
	store store
}

// New creates a manufacturer repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Upsert creates or updates a manufacturer entry. Returns true if created.
func (r *Repo) Upsert(ctx context.Context, m *manufacturer.Manufacturer) (bool, error) {
	key := manufacturerKey(m.Name())
	data, err := json.Marshal(manufacturerDTO{
		Name:         m.Name(),
		Country:      m.Country(),
		FoundedYear:  m.FoundedYear(),
		Headquarters: m.Headquarters(),
		Website:      m.Website(),
	})
	if err != nil {
		return false, fmt.Errorf("marshal manufacturer: %w", err)
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

// Get returns a manufacturer by name.
func (r *Repo) Get(ctx context.Context, name string) (manufacturer.Manufacturer, error) {
	key := manufacturerKey(name)
	raw, err := r.store.JSONGet(ctx, key, "$")
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return manufacturer.Manufacturer{}, domain.ErrManufacturerNotFound
		}
		return manufacturer.Manufacturer{}, fmt.Errorf("json.get %s: %w", key, err)
	}

	var dtos []manufacturerDTO
	if err := json.Unmarshal(raw, &dtos); err != nil {
		return manufacturer.Manufacturer{}, fmt.Errorf("unmarshal manufacturer %s: %w", name, err)
	}
	if len(dtos) == 0 {
		return manufacturer.Manufacturer{}, domain.ErrManufacturerNotFound
	}
	d := dtos[0]
	return manufacturer.Reconstruct(d.Name, d.Country, d.FoundedYear, d.Headquarters, d.Website), nil
}

// List returns every manufacturer, ordered by key.
func (r *Repo) List(ctx context.Context) ([]manufacturer.Manufacturer, error) {
	keys, err := r.store.Scan(ctx, manufacturerKey("*"))
	if err != nil {
		return nil, fmt.Errorf("scan manufacturers: %w", err)
	}
	sort.Strings(keys)

	out := make([]manufacturer.Manufacturer, 0, len(keys))
	for _, key := range keys {
		raw, err := r.store.JSONGet(ctx, key, "$")
		if err != nil {
			if errors.Is(err, db.ErrKeyNotFound) {
				continue
			}
			return nil, fmt.Errorf("json.get %s: %w", key, err)
		}
		var dtos []manufacturerDTO
		if err := json.Unmarshal(raw, &dtos); err != nil {
			return nil, fmt.Errorf("unmarshal manufacturer %s: %w", key, err)
		}
		if len(dtos) == 0 {
			continue
		}
		d := dtos[0]
		out = append(out, manufacturer.Reconstruct(d.Name, d.Country, d.FoundedYear, d.Headquarters, d.Website))
	}
	return out, nil
}

// Delete removes a manufacturer entry.
func (r *Repo) Delete(ctx context.Context, name string) error {
	key := manufacturerKey(name)

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists %s: %w", key, err)
	}
	if !exists {
		return domain.ErrManufacturerNotFound
	}

	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}

// manufacturerKey normalizes the display name into a stable key segment so
// "John Deere" and "john deere" address the same entry.
func manufacturerKey(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.ReplaceAll(slug, " ", "-")
	return fmt.Sprintf("%s%s:%s", domain.KeyPrefix, keyspace, slug)
}
