// Package manufacturer defines the manufacturer reference entry of the catalog.
package manufacturer

import (
	"fmt"
	"time"

	"github.com/fieldline/equipcat/internal/domain"
)

// Manufacturer is a catalog manufacturer (immutable value object, name-keyed).
type Manufacturer struct {
	name         string
	country      string
	foundedYear  int
	headquarters string
	website      string
}

// New validates and creates a Manufacturer.
func New(name, country string, foundedYear int, headquarters, website string) (Manufacturer, error) {
	if name == "" {
		return Manufacturer{}, domain.NewValidation("", "name")
	}
	if len(name) > 128 {
		return Manufacturer{}, fmt.Errorf("manufacturer name too long (max 128): %w", domain.ErrValidation)
	}
	if country == "" {
		return Manufacturer{}, domain.NewValidation(name, "country")
	}
	if foundedYear != 0 && (foundedYear < 1700 || foundedYear > time.Now().Year()) {
		return Manufacturer{}, fmt.Errorf("implausible founded year %d: %w", foundedYear, domain.ErrValidation)
	}
	return Manufacturer{
		name:         name,
		country:      country,
		foundedYear:  foundedYear,
		headquarters: headquarters,
		website:      website,
	}, nil
}

// Reconstruct creates a Manufacturer without validation (storage hydration).
func Reconstruct(name, country string, foundedYear int, headquarters, website string) Manufacturer {
	return Manufacturer{
		name: name, country: country, foundedYear: foundedYear,
		headquarters: headquarters, website: website,
	}
}

// Name returns the manufacturer name (catalog key).
func (m *Manufacturer) Name() string { return m.name }

// Country returns the country of origin.
func (m *Manufacturer) Country() string { return m.country }

// FoundedYear returns the founding year (0 = unknown).
func (m *Manufacturer) FoundedYear() int { return m.foundedYear }

// Headquarters returns the headquarters location.
func (m *Manufacturer) Headquarters() string { return m.headquarters }

// Website returns the manufacturer website.
func (m *Manufacturer) Website() string { return m.website }
