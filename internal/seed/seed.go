// Package seed ships the reference dataset used for demos and readiness
// probes: a handful of real-world tractors, combines, and construction
// machines across several manufacturers.
package seed

import (
	"context"
	"fmt"

	"github.com/fieldline/equipcat/internal/domain"
	"github.com/fieldline/equipcat/internal/domain/manufacturer"
	"github.com/fieldline/equipcat/internal/domain/model"
)

// ModelUpserter stores equipment models.
type ModelUpserter interface {
	Upsert(ctx context.Context, m *model.Model) (bool, error)
}

// ManufacturerUpserter stores manufacturer entries.
type ManufacturerUpserter interface {
	Upsert(ctx context.Context, m *manufacturer.Manufacturer) (bool, error)
}

// MarkerStore records which dataset version was loaded.
type MarkerStore interface {
	Set(ctx context.Context, key string, value []byte) error
}

// DatasetVersion identifies the shipped reference dataset. Bump when the
// records below change.
const DatasetVersion = "2026-08"

// versionKey is where the loaded dataset version is recorded.
const versionKey = domain.KeyPrefix + "seed:version"

// Manufacturers returns the reference manufacturer entries.
func Manufacturers() ([]manufacturer.Manufacturer, error) {
	specs := []struct {
		name, country string
		founded       int
		hq, website   string
	}{
		{"John Deere", "USA", 1837, "Moline, Illinois", "https://www.deere.com"},
		{"Case IH", "USA", 1842, "Racine, Wisconsin", "https://www.caseih.com"},
		{"Kubota", "Japan", 1890, "Osaka", "https://www.kubota.com"},
		{"Caterpillar", "USA", 1925, "Irving, Texas", "https://www.caterpillar.com"},
		{"AGCO", "USA", 1990, "Duluth, Georgia", "https://www.agcocorp.com"},
	}

	out := make([]manufacturer.Manufacturer, 0, len(specs))
	for _, s := range specs {
		m, err := manufacturer.New(s.name, s.country, s.founded, s.hq, s.website)
		if err != nil {
			return nil, fmt.Errorf("seed manufacturer %s: %w", s.name, err)
		}
		out = append(out, m)
	}
	return out, nil
}

// Models returns the reference equipment models.
func Models() ([]model.Model, error) {
	specs := []model.Attributes{
		{
			ID:              "jd-8r-370",
			Manufacturer:    "John Deere",
			Name:            "8R 370",
			Year:            2024,
			Series:          "8R Series",
			Category:        model.CategoryRowCrop,
			RatedPowerHP:    370,
			PTOPowerHP:      320,
			Transmission:    model.TransmissionIVT,
			FourWheelDrive:  true,
			MSRPBaseUSD:     385000,
			ProductionStart: "2019-11-01",
		},
		{
			ID:              "caseih-magnum-340",
			Manufacturer:    "Case IH",
			Name:            "Magnum 340",
			Year:            2024,
			Series:          "Magnum Series",
			Category:        model.CategoryRowCrop,
			RatedPowerHP:    340,
			PTOPowerHP:      290,
			Transmission:    model.TransmissionCVT,
			FourWheelDrive:  true,
			MSRPBaseUSD:     355000,
			ProductionStart: "2020-02-01",
		},
		{
			ID:              "kubota-m7-152",
			Manufacturer:    "Kubota",
			Name:            "M7-152",
			Year:            2023,
			Series:          "M7 Series",
			Category:        model.CategoryUtility,
			RatedPowerHP:    152,
			PTOPowerHP:      128,
			Transmission:    model.TransmissionPowershift,
			FourWheelDrive:  true,
			MSRPBaseUSD:     165000,
			ProductionStart: "2018-06-01",
		},
		{
			ID:              "jd-s780",
			Manufacturer:    "John Deere",
			Name:            "S780",
			Year:            2024,
			Series:          "S Series",
			Category:        model.CategoryCombine,
			RatedPowerHP:    473,
			Transmission:    model.TransmissionHydrostatic,
			MSRPBaseUSD:     585000,
			ProductionStart: "2017-08-01",
		},
		{
			ID:              "caseih-8250-axial-flow",
			Manufacturer:    "Case IH",
			Name:            "8250 Axial-Flow",
			Year:            2024,
			Series:          "Axial-Flow 250 Series",
			Category:        model.CategoryCombine,
			RatedPowerHP:    480,
			Transmission:    model.TransmissionHydrostatic,
			MSRPBaseUSD:     605000,
			ProductionStart: "2018-03-01",
		},
		{
			ID:              "cat-320-excavator",
			Manufacturer:    "Caterpillar",
			Name:            "320",
			Year:            2023,
			Series:          "Next Generation",
			Category:        model.CategoryExcavator,
			RatedPowerHP:    162,
			MSRPBaseUSD:     285000,
			ProductionStart: "2018-01-01",
		},
		{
			ID:              "cat-d6t-dozer",
			Manufacturer:    "Caterpillar",
			Name:            "D6T",
			Year:            2023,
			Series:          "D6 Series",
			Category:        model.CategoryDozer,
			RatedPowerHP:    215,
			Transmission:    model.TransmissionPowershift,
			MSRPBaseUSD:     475000,
			ProductionStart: "2016-05-01",
			ProductionEnd:   "2023-12-01",
		},
	}

	out := make([]model.Model, 0, len(specs))
	for _, a := range specs {
		m, err := model.New(a)
		if err != nil {
			return nil, fmt.Errorf("seed model %s: %w", a.ID, err)
		}
		out = append(out, m)
	}
	return out, nil
}

// Apply stores the full reference dataset and records the dataset version.
// markers may be nil when version tracking is not needed.
func Apply(ctx context.Context, models ModelUpserter, manufacturers ManufacturerUpserter, markers MarkerStore) error {
	mfrs, err := Manufacturers()
	if err != nil {
		return err
	}
	for i := range mfrs {
		if _, err := manufacturers.Upsert(ctx, &mfrs[i]); err != nil {
			return fmt.Errorf("store manufacturer %s: %w", mfrs[i].Name(), err)
		}
	}

	ms, err := Models()
	if err != nil {
		return err
	}
	for i := range ms {
		if _, err := models.Upsert(ctx, &ms[i]); err != nil {
			return fmt.Errorf("store model %s: %w", ms[i].ID(), err)
		}
	}

	if markers != nil {
		if err := markers.Set(ctx, versionKey, []byte(DatasetVersion)); err != nil {
			return fmt.Errorf("record dataset version: %w", err)
		}
	}
	return nil
}
