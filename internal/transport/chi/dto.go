package chi

import (
	"errors"
	"fmt"
	"time"

	"github.com/fieldline/equipcat/internal/domain/manufacturer"
	"github.com/fieldline/equipcat/internal/domain/model"
	"github.com/fieldline/equipcat/internal/domain/query"
	"github.com/fieldline/equipcat/internal/domain/similarity"
	readinessuc "github.com/fieldline/equipcat/internal/usecase/readiness"
)

// ErrorCode identifies an API error class.
type ErrorCode string

// API error codes.
const (
	CodeBadRequest           ErrorCode = "bad_request"
	CodeValidationFailed     ErrorCode = "validation_failed"
	CodeModelNotFound        ErrorCode = "model_not_found"
	CodeManufacturerNotFound ErrorCode = "manufacturer_not_found"
	CodeInvalidQuery         ErrorCode = "invalid_query"
	CodeReportNotFound       ErrorCode = "report_not_found"
	CodeInternalError        ErrorCode = "internal_error"
)

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// ModelRequest is the upsert payload for an equipment model.
type ModelRequest struct {
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

// ModelResponse is the JSON shape of a stored model.
type ModelResponse struct {
	ID string `json:"id"`
	ModelRequest
}

func attributesFromRequest(id string, req ModelRequest) model.Attributes {
	return model.Attributes{
		ID:              id,
		Manufacturer:    req.Manufacturer,
		Name:            req.ModelName,
		Year:            req.ModelYear,
		Series:          req.Series,
		Category:        model.Category(req.Category),
		RatedPowerHP:    req.RatedPowerHP,
		PTOPowerHP:      req.PTOPowerHP,
		Transmission:    model.Transmission(req.TransmissionType),
		FourWheelDrive:  req.FourWheelDrive,
		MSRPBaseUSD:     req.MSRPBaseUSD,
		ProductionStart: req.ProductionStartDate,
		ProductionEnd:   req.ProductionEndDate,
	}
}

func modelToResponse(m *model.Model) ModelResponse {
	return ModelResponse{
		ID: m.ID(),
		ModelRequest: ModelRequest{
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
		},
	}
}

// ModelCursorListResponse is a cursor-paginated model listing.
type ModelCursorListResponse struct {
	Items      []ModelResponse `json:"items"`
	HasMore    bool            `json:"has_more"`
	NextCursor *string         `json:"next_cursor,omitempty"`
}

// RangeFilter is a numeric range condition body.
type RangeFilter struct {
	Gt  *float64 `json:"gt,omitempty"`
	Gte *float64 `json:"gte,omitempty"`
	Lt  *float64 `json:"lt,omitempty"`
	Lte *float64 `json:"lte,omitempty"`
}

// FilterCondition is one match or range condition.
type FilterCondition struct {
	Key   string       `json:"key"`
	Match *string      `json:"match,omitempty"`
	Range *RangeFilter `json:"range,omitempty"`
}

// FilterExpression groups conditions the way the query engine evaluates them.
type FilterExpression struct {
	Must    *[]FilterCondition `json:"must,omitempty"`
	Should  *[]FilterCondition `json:"should,omitempty"`
	MustNot *[]FilterCondition `json:"must_not,omitempty"`
}

// QueryRequest is the POST /models/query payload.
type QueryRequest struct {
	Filters *FilterExpression `json:"filters,omitempty"`
}

// QueryResponse lists the models matching a query.
type QueryResponse struct {
	Items []ModelResponse `json:"items"`
	Total int             `json:"total"`
}

func expressionFromDTO(f *FilterExpression) (query.Expression, error) {
	if f == nil {
		return query.Expression{}, nil
	}

	must, err := conditionsFromDTO(f.Must)
	if err != nil {
		return query.Expression{}, err
	}
	should, err := conditionsFromDTO(f.Should)
	if err != nil {
		return query.Expression{}, err
	}
	mustNot, err := conditionsFromDTO(f.MustNot)
	if err != nil {
		return query.Expression{}, err
	}

	expr, err := query.NewExpression(must, should, mustNot)
	if err != nil {
		return query.Expression{}, fmt.Errorf("new expression: %w", err)
	}
	return expr, nil
}

func conditionsFromDTO(cs *[]FilterCondition) ([]query.Condition, error) {
	if cs == nil {
		return nil, nil
	}
	out := make([]query.Condition, 0, len(*cs))
	for _, c := range *cs {
		cond, err := conditionFromDTO(c)
		if err != nil {
			return nil, err
		}
		out = append(out, cond)
	}
	return out, nil
}

func conditionFromDTO(c FilterCondition) (query.Condition, error) {
	if c.Match != nil && c.Range != nil {
		return query.Condition{},
			fmt.Errorf("filter condition for %q must have match or range, not both", c.Key)
	}
	if c.Match != nil {
		cond, err := query.NewMatch(c.Key, *c.Match)
		if err != nil {
			return query.Condition{}, fmt.Errorf("match filter: %w", err)
		}
		return cond, nil
	}
	if c.Range != nil {
		rf, err := query.NewRangeFilter(c.Range.Gt, c.Range.Gte, c.Range.Lt, c.Range.Lte)
		if err != nil {
			return query.Condition{}, fmt.Errorf("range filter: %w", err)
		}
		cond, err := query.NewRange(c.Key, rf)
		if err != nil {
			return query.Condition{}, fmt.Errorf("range condition: %w", err)
		}
		return cond, nil
	}
	return query.Condition{},
		errors.New("filter condition must have either match or range")
}

// SimilarMatch pairs a candidate model with its similarity score.
type SimilarMatch struct {
	Model ModelResponse `json:"model"`
	Score float64       `json:"score"`
}

// SimilarResponse lists ranked similar models.
type SimilarResponse struct {
	ReferenceID string         `json:"reference_id"`
	Items       []SimilarMatch `json:"items"`
	Total       int            `json:"total"`
}

func matchesToResponse(referenceID string, matches []similarity.Match) SimilarResponse {
	items := make([]SimilarMatch, len(matches))
	for i := range matches {
		m := matches[i].Model()
		items[i] = SimilarMatch{
			Model: modelToResponse(&m),
			Score: matches[i].Score(),
		}
	}
	return SimilarResponse{ReferenceID: referenceID, Items: items, Total: len(items)}
}

// ManufacturerRequest is the upsert payload for a manufacturer entry.
type ManufacturerRequest struct {
	Country      string `json:"country"`
	FoundedYear  int    `json:"founded_year,omitempty"`
	Headquarters string `json:"headquarters,omitempty"`
	Website      string `json:"website,omitempty"`
}

// ManufacturerResponse is the JSON shape of a manufacturer entry.
type ManufacturerResponse struct {
	Name string `json:"name"`
	ManufacturerRequest
}

func manufacturerToResponse(m *manufacturer.Manufacturer) ManufacturerResponse {
	return ManufacturerResponse{
		Name: m.Name(),
		ManufacturerRequest: ManufacturerRequest{
			Country:      m.Country(),
			FoundedYear:  m.FoundedYear(),
			Headquarters: m.Headquarters(),
			Website:      m.Website(),
		},
	}
}

// SummaryResponse aggregates catalog statistics.
type SummaryResponse struct {
	TotalModels        int            `json:"total_models"`
	TotalManufacturers int            `json:"total_manufacturers"`
	ByCategory         map[string]int `json:"by_category"`
	ByManufacturer     map[string]int `json:"by_manufacturer"`
	AvgRatedPowerHP    float64        `json:"avg_rated_power_hp"`
	AvgMSRPBaseUSD     float64        `json:"avg_msrp_base_usd"`
}

// ReadinessCheck is one probe result.
type ReadinessCheck struct {
	Name       string `json:"name"`
	Status     string `json:"status"`
	Detail     string `json:"detail,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

// ReadinessResponse is the aggregated probe report.
type ReadinessResponse struct {
	Ready  bool             `json:"ready"`
	RanAt  time.Time        `json:"ran_at"`
	Checks []ReadinessCheck `json:"checks"`
}

func readinessToResponse(r readinessuc.Report) ReadinessResponse {
	checks := make([]ReadinessCheck, len(r.Checks))
	for i, c := range r.Checks {
		checks[i] = ReadinessCheck{
			Name:       c.Name,
			Status:     string(c.Status),
			Detail:     c.Detail,
			DurationMs: c.Duration.Milliseconds(),
		}
	}
	return ReadinessResponse{Ready: r.Ready, RanAt: r.RanAt, Checks: checks}
}

// HealthResponse is the health report body.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
