// Package model defines the equipment model catalog entry: a manufacturer's
// model configuration, not an individual serialized unit.
package model

import (
	"fmt"
	"regexp"
	"time"

	"github.com/fieldline/equipcat/internal/domain"
)

var idRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Category is the equipment category of a catalog entry.
type Category string

// Known equipment categories.
const (
	CategoryRowCrop        Category = "row-crop"
	CategoryUtility        Category = "utility"
	CategoryCompactUtility Category = "compact-utility"
	CategoryHighHorsepower Category = "high-horsepower"
	CategoryCombine        Category = "combine"
	CategoryExcavator      Category = "excavator"
	CategoryDozer          Category = "dozer"
	CategoryWheelLoader    Category = "wheel-loader"
	CategoryBaler          Category = "baler"
)

var knownCategories = map[Category]bool{
	CategoryRowCrop: true, CategoryUtility: true, CategoryCompactUtility: true,
	CategoryHighHorsepower: true, CategoryCombine: true, CategoryExcavator: true,
	CategoryDozer: true, CategoryWheelLoader: true, CategoryBaler: true,
}

// IsValid checks if the category is supported.
func (c Category) IsValid() bool { return knownCategories[c] }

// Transmission is the transmission type of a model. Empty means unknown:
// the catalog tolerates records without transmission data.
type Transmission string

// Known transmission types.
const (
	TransmissionManual      Transmission = "manual"
	TransmissionAutomatic   Transmission = "automatic"
	TransmissionHydrostatic Transmission = "hydrostatic"
	TransmissionCVT         Transmission = "cvt"
	TransmissionIVT         Transmission = "ivt"
	TransmissionPowershift  Transmission = "powershift"
)

var knownTransmissions = map[Transmission]bool{
	TransmissionManual: true, TransmissionAutomatic: true, TransmissionHydrostatic: true,
	TransmissionCVT: true, TransmissionIVT: true, TransmissionPowershift: true,
}

// IsValid checks if the transmission type is supported. Empty is not valid;
// use IsKnown on the model to distinguish absent from invalid.
func (t Transmission) IsValid() bool { return knownTransmissions[t] }

// Model year bounds accepted by the catalog.
const (
	MinModelYear = 1900
	MaxModelYear = 2100
)

// Attributes carries the raw fields for constructing a Model.
type Attributes struct {
	ID              string
	Manufacturer    string
	Name            string
	Year            int
	Series          string
	Category        Category
	RatedPowerHP    float64
	PTOPowerHP      float64 // 0 = not specified
	Transmission    Transmission
	FourWheelDrive  bool
	MSRPBaseUSD     float64 // 0 = not specified
	ProductionStart string  // YYYY-MM-DD, empty = unknown
	ProductionEnd   string  // empty = still in production
}

// Model is the equipment model aggregate (immutable value object).
type Model struct {
	attrs Attributes
}

// New validates and creates a Model.
// ID: ^[a-zA-Z0-9_-]+$, 1-256 chars. Category and rated power are mandatory;
// their absence yields a ValidationError naming the field and record.
func New(a Attributes) (Model, error) {
	if a.ID == "" {
		return Model{}, domain.NewValidation("", "id")
	}
	if len(a.ID) > 256 {
		return Model{}, fmt.Errorf("model ID too long (max 256): %w", domain.ErrValidation)
	}
	if !idRegex.MatchString(a.ID) {
		return Model{}, fmt.Errorf("model ID must be alphanumeric with underscores and hyphens: %w", domain.ErrValidation)
	}
	if a.Manufacturer == "" {
		return Model{}, domain.NewValidation(a.ID, "manufacturer")
	}
	if a.Name == "" {
		return Model{}, domain.NewValidation(a.ID, "model_name")
	}
	if a.Year == 0 {
		return Model{}, domain.NewValidation(a.ID, "model_year")
	}
	if a.Year < MinModelYear || a.Year > MaxModelYear {
		return Model{}, fmt.Errorf("model year %d out of range [%d, %d]: %w",
			a.Year, MinModelYear, MaxModelYear, domain.ErrValidation)
	}
	if a.Category == "" {
		return Model{}, domain.NewValidation(a.ID, "category")
	}
	if !a.Category.IsValid() {
		return Model{}, fmt.Errorf("unknown category %q: %w", a.Category, domain.ErrValidation)
	}
	if a.RatedPowerHP <= 0 {
		return Model{}, domain.NewValidation(a.ID, "rated_power_hp")
	}
	if a.PTOPowerHP < 0 {
		return Model{}, fmt.Errorf("pto_power_hp must be non-negative: %w", domain.ErrValidation)
	}
	if a.PTOPowerHP > a.RatedPowerHP {
		return Model{}, fmt.Errorf("pto_power_hp %.0f exceeds rated_power_hp %.0f: %w",
			a.PTOPowerHP, a.RatedPowerHP, domain.ErrValidation)
	}
	if a.Transmission != "" && !a.Transmission.IsValid() {
		return Model{}, fmt.Errorf("unknown transmission type %q: %w", a.Transmission, domain.ErrValidation)
	}
	if a.MSRPBaseUSD < 0 {
		return Model{}, fmt.Errorf("msrp_base_usd must be non-negative: %w", domain.ErrValidation)
	}
	if err := validateDate("production_start_date", a.ProductionStart); err != nil {
		return Model{}, err
	}
	if err := validateDate("production_end_date", a.ProductionEnd); err != nil {
		return Model{}, err
	}
	return Model{attrs: a}, nil
}

// validateDate checks the YYYY-MM-DD format of an optional date field.
func validateDate(field, value string) error {
	if value == "" {
		return nil
	}
	if _, err := time.Parse("2006-01-02", value); err != nil {
		return fmt.Errorf("%s %q is not a YYYY-MM-DD date: %w", field, value, domain.ErrValidation)
	}
	return nil
}

// Reconstruct creates a Model without validation (storage hydration).
// Records loaded this way may lack mandatory fields; consumers that require
// them (the similarity scorer) re-check at their own boundary.
func Reconstruct(a Attributes) Model {
	return Model{attrs: a}
}

// ID returns the model identifier.
func (m *Model) ID() string { return m.attrs.ID }

// Manufacturer returns the manufacturer name.
func (m *Model) Manufacturer() string { return m.attrs.Manufacturer }

// Name returns the model name.
func (m *Model) Name() string { return m.attrs.Name }

// Year returns the model year.
func (m *Model) Year() int { return m.attrs.Year }

// Series returns the product series, if any.
func (m *Model) Series() string { return m.attrs.Series }

// Category returns the equipment category.
func (m *Model) Category() Category { return m.attrs.Category }

// RatedPowerHP returns the rated engine power.
func (m *Model) RatedPowerHP() float64 { return m.attrs.RatedPowerHP }

// PTOPowerHP returns the power take-off rating (0 = not specified).
func (m *Model) PTOPowerHP() float64 { return m.attrs.PTOPowerHP }

// Transmission returns the transmission type (empty = unknown).
func (m *Model) Transmission() Transmission { return m.attrs.Transmission }

// HasTransmission reports whether the transmission type is known.
func (m *Model) HasTransmission() bool { return m.attrs.Transmission != "" }

// FourWheelDrive reports whether the model has four wheel drive.
func (m *Model) FourWheelDrive() bool { return m.attrs.FourWheelDrive }

// MSRPBaseUSD returns the base list price (0 = not specified).
func (m *Model) MSRPBaseUSD() float64 { return m.attrs.MSRPBaseUSD }

// ProductionStart returns the production start date (empty = unknown).
func (m *Model) ProductionStart() string { return m.attrs.ProductionStart }

// ProductionEnd returns the production end date (empty = still produced).
func (m *Model) ProductionEnd() string { return m.attrs.ProductionEnd }
