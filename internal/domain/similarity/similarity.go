// Package similarity scores how comparable two equipment model records are,
// combining horsepower closeness with category and transmission equality.
// Scoring is pure: records arrive as plain data, never from a live connection.
package similarity

import (
	"math"
	"sort"

	"github.com/fieldline/equipcat/internal/domain"
	"github.com/fieldline/equipcat/internal/domain/model"
)

// Default scoring parameters. The weights are sample-data tuning inherited
// from the catalog prototype, not a validated ranking model.
const (
	DefaultHPTolerance        = 50.0
	DefaultHPWeight           = 0.5
	DefaultCategoryWeight     = 0.3
	DefaultTransmissionWeight = 0.2

	// weightSumEpsilon is the tolerance for the weights-sum-to-one check.
	weightSumEpsilon = 1e-6

	// unknownTransmissionTerm applies when either side lacks transmission
	// data: unknown neither confirms nor denies similarity.
	unknownTransmissionTerm = 0.5
)

// Weights holds the per-term contribution of the combined score.
type Weights struct {
	HP           float64
	Category     float64
	Transmission float64
}

// Params configures a Scorer.
type Params struct {
	HPTolerance float64
	Weights     Weights
}

// DefaultParams returns the default scoring parameters.
func DefaultParams() Params {
	return Params{
		HPTolerance: DefaultHPTolerance,
		Weights: Weights{
			HP:           DefaultHPWeight,
			Category:     DefaultCategoryWeight,
			Transmission: DefaultTransmissionWeight,
		},
	}
}

// Validate checks parameters: positive tolerance, non-negative weights
// summing to 1.0 within weightSumEpsilon. Failures are ConfigurationErrors.
func (p Params) Validate() error {
	if p.HPTolerance <= 0 {
		return domain.NewConfiguration("hp tolerance must be positive, got %g", p.HPTolerance)
	}
	if p.Weights.HP < 0 || p.Weights.Category < 0 || p.Weights.Transmission < 0 {
		return domain.NewConfiguration("weights must be non-negative, got hp=%g category=%g transmission=%g",
			p.Weights.HP, p.Weights.Category, p.Weights.Transmission)
	}
	sum := p.Weights.HP + p.Weights.Category + p.Weights.Transmission
	if math.Abs(sum-1.0) > weightSumEpsilon {
		return domain.NewConfiguration("weights must sum to 1.0, got %g", sum)
	}
	return nil
}

// Match pairs a candidate with its similarity score.
type Match struct {
	model model.Model
	score float64
}

// Model returns the matched candidate record.
func (m *Match) Model() model.Model { return m.model }

// Score returns the similarity score in [0, 1].
func (m *Match) Score() float64 { return m.score }

// Scorer computes bounded similarity scores over equipment model records.
// It holds no mutable state and is safe for concurrent use.
type Scorer struct {
	params    Params
	weightSum float64
}

// NewScorer validates params and creates a Scorer. Invalid params fail fast
// with a ConfigurationError before any scoring work.
func NewScorer(params Params) (*Scorer, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	w := params.Weights
	return &Scorer{params: params, weightSum: w.HP + w.Category + w.Transmission}, nil
}

// Score computes the similarity of candidate to reference in [0, 1].
// Every term is symmetric, so Score(a, b) == Score(b, a). Records missing
// mandatory fields yield a ValidationError naming field and record.
func (s *Scorer) Score(reference, candidate model.Model) (float64, error) {
	if err := checkScorable(&reference); err != nil {
		return 0, err
	}
	if err := checkScorable(&candidate); err != nil {
		return 0, err
	}
	return s.score(&reference, &candidate), nil
}

// Rank scores every candidate against the reference and returns matches
// ordered by score descending; equal scores keep their input order.
// The reference is never excluded here: callers filter it if unwanted.
func (s *Scorer) Rank(reference model.Model, candidates []model.Model) ([]Match, error) {
	if err := checkScorable(&reference); err != nil {
		return nil, err
	}
	for i := range candidates {
		if err := checkScorable(&candidates[i]); err != nil {
			return nil, err
		}
	}

	matches := make([]Match, 0, len(candidates))
	for i := range candidates {
		matches = append(matches, Match{
			model: candidates[i],
			score: s.score(&reference, &candidates[i]),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})
	return matches, nil
}

// score combines the three terms. The weighted sum is normalized by the
// actual weight sum so that identical records score exactly 1.0 even when
// the configured weights sum to 1.0 only within the epsilon.
func (s *Scorer) score(ref, cand *model.Model) float64 {
	w := s.params.Weights

	hpTerm := 1 - math.Abs(ref.RatedPowerHP()-cand.RatedPowerHP())/s.params.HPTolerance
	if hpTerm < 0 {
		hpTerm = 0
	}

	categoryTerm := 0.0
	if ref.Category() == cand.Category() {
		categoryTerm = 1.0
	}

	var transmissionTerm float64
	switch {
	case !ref.HasTransmission() || !cand.HasTransmission():
		transmissionTerm = unknownTransmissionTerm
	case ref.Transmission() == cand.Transmission():
		transmissionTerm = 1.0
	default:
		transmissionTerm = 0.0
	}

	return (w.HP*hpTerm + w.Category*categoryTerm + w.Transmission*transmissionTerm) / s.weightSum
}

// checkScorable verifies the mandatory scoring fields are present. Records
// hydrated via Reconstruct may lack them; missing optional fields never fail.
func checkScorable(m *model.Model) error {
	if m.Category() == "" {
		return domain.NewValidation(m.ID(), "category")
	}
	if m.RatedPowerHP() <= 0 {
		return domain.NewValidation(m.ID(), "rated_power_hp")
	}
	return nil
}
