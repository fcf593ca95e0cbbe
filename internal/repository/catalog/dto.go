package catalog

import "github.com/fieldline/equipcat/internal/domain/model"

// modelDTO is the stored JSON shape of an equipment model. Field names match
// the catalog's document schema.
type modelDTO struct {
	Manufacturer        string  `json:"manufacturer"`
	ModelName           string  `json:"model_name"`
	ModelYear           int     `json:"model_year"`
	Series              string  `json:"series,omitempty"`
	Category            string  `json:"category"`
	RatedPowerHP        float64 `json:"rated_power_hp"`
	PTOPowerHP          float64 `json:"pto_power_hp,omitempty"`
	TransmissionType    string  `json:"transmission_type,omitempty"`
	FourWheelDrive      bool    `json:"four_wheel_drive,omitempty"`
	MSRPBaseUSD         float64 `json:"msrp_base_usd,omitempty"`
	ProductionStartDate string  `json:"production_start_date,omitempty"`
	ProductionEndDate   string  `json:"production_end_date,omitempty"`
}

func toDTO(m *model.Model) modelDTO {
	return modelDTO{
		Manufacturer:        m.Manufacturer(),
		ModelName:           m.Name(),
		ModelYear:           m.Year(),
		Series:              m.Series(),
		Category:            string(m.Category()),
		RatedPowerHP:        m.RatedPowerHP(),
		PTOPowerHP:          m.PTOPowerHP(),
		TransmissionType:    string(m.Transmission()),
		FourWheelDrive:      m.FourWheelDrive(),
		MSRPBaseUSD:         m.MSRPBaseUSD(),
		ProductionStartDate: m.ProductionStart(),
		ProductionEndDate:   m.ProductionEnd(),
	}
}

// toModel hydrates without validation: stored records predate schema changes
// and must load even when incomplete.
func toModel(id string, d modelDTO) model.Model {
	return model.Reconstruct(model.Attributes{
		ID:              id,
		Manufacturer:    d.Manufacturer,
		Name:            d.ModelName,
		Year:            d.ModelYear,
		Series:          d.Series,
		Category:        model.Category(d.Category),
		RatedPowerHP:    d.RatedPowerHP,
		PTOPowerHP:      d.PTOPowerHP,
		Transmission:    model.Transmission(d.TransmissionType),
		FourWheelDrive:  d.FourWheelDrive,
		MSRPBaseUSD:     d.MSRPBaseUSD,
		ProductionStart: d.ProductionStartDate,
		ProductionEnd:   d.ProductionEndDate,
	})
}
