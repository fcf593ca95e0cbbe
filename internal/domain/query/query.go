// Package query provides structured catalog filters with must/should/must_not
// boolean semantics, evaluated in memory against equipment model records.
package query

import (
	"fmt"

	"github.com/fieldline/equipcat/internal/domain/model"
)

// MaxConditionsPerGroup is the maximum number of conditions per filter group.
const MaxConditionsPerGroup = 32

// Kind classifies a filterable field.
type Kind int

// Field kinds.
const (
	Tag Kind = iota
	Numeric
)

// fieldSchema maps filterable field names to their kind. Names follow the
// stored JSON field names of the catalog.
var fieldSchema = map[string]Kind{
	"manufacturer":      Tag,
	"category":          Tag,
	"transmission_type": Tag,
	"series":            Tag,
	"rated_power_hp":    Numeric,
	"pto_power_hp":      Numeric,
	"model_year":        Numeric,
	"msrp_base_usd":     Numeric,
}

// Expression is a structured filter with must/should/must_not boolean semantics.
type Expression struct {
	must    []Condition
	should  []Condition
	mustNot []Condition
}

// NewExpression validates and creates a filter Expression.
func NewExpression(must, should, mustNot []Condition) (Expression, error) {
	if len(must) > MaxConditionsPerGroup {
		return Expression{}, fmt.Errorf("too many must conditions (max %d)", MaxConditionsPerGroup)
	}
	if len(should) > MaxConditionsPerGroup {
		return Expression{}, fmt.Errorf("too many should conditions (max %d)", MaxConditionsPerGroup)
	}
	if len(mustNot) > MaxConditionsPerGroup {
		return Expression{}, fmt.Errorf("too many must_not conditions (max %d)", MaxConditionsPerGroup)
	}
	return Expression{must: must, should: should, mustNot: mustNot}, nil
}

// Must returns the must conditions.
func (e Expression) Must() []Condition { return e.must }

// Should returns the should conditions.
func (e Expression) Should() []Condition { return e.should }

// MustNot returns the must-not conditions.
func (e Expression) MustNot() []Condition { return e.mustNot }

// IsEmpty reports whether the expression has no conditions.
func (e Expression) IsEmpty() bool {
	return len(e.must) == 0 && len(e.should) == 0 && len(e.mustNot) == 0
}

// Validate ensures every condition references a known field and that the
// condition type matches the field kind (match on tags, range on numerics).
func (e Expression) Validate() error {
	groups := [][]Condition{e.must, e.should, e.mustNot}
	for _, conditions := range groups {
		for _, c := range conditions {
			kind, ok := fieldSchema[c.key]
			if !ok {
				return fmt.Errorf("unknown filter field %q", c.key)
			}
			if c.IsMatch() && kind != Tag {
				return fmt.Errorf("match filter on non-tag field %q", c.key)
			}
			if c.IsRange() && kind != Numeric {
				return fmt.Errorf("range filter on non-numeric field %q", c.key)
			}
		}
	}
	return nil
}

// Matches evaluates the expression against a model: all must conditions hold,
// at least one should condition holds (when any are present), and no
// must_not condition holds.
func (e Expression) Matches(m *model.Model) bool {
	for _, c := range e.must {
		if !c.matches(m) {
			return false
		}
	}
	if len(e.should) > 0 {
		any := false
		for _, c := range e.should {
			if c.matches(m) {
				any = true
				break
			}
		}
		if !any {
			return false
		}
	}
	for _, c := range e.mustNot {
		if c.matches(m) {
			return false
		}
	}
	return true
}

// Condition is a single filter clause: either a tag match or a numeric range.
type Condition struct {
	key       string
	match     string
	rangeExpr *Range
}

// NewMatch creates an exact tag match condition.
func NewMatch(key, match string) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	if match == "" {
		return Condition{}, fmt.Errorf("match value is required for key %q", key)
	}
	return Condition{key: key, match: match}, nil
}

// NewRange creates a numeric range condition.
func NewRange(key string, r Range) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	return Condition{key: key, rangeExpr: &r}, nil
}

// Key returns the field name.
func (c Condition) Key() string { return c.key }

// Match returns the exact match value.
func (c Condition) Match() string { return c.match }

// Range returns the numeric range expression.
func (c Condition) Range() *Range { return c.rangeExpr }

// IsMatch reports whether this is a match condition.
func (c Condition) IsMatch() bool { return c.match != "" }

// IsRange reports whether this is a range condition.
func (c Condition) IsRange() bool { return c.rangeExpr != nil }

func (c Condition) matches(m *model.Model) bool {
	switch {
	case c.IsMatch():
		return tagValue(m, c.key) == c.match
	case c.IsRange():
		return c.rangeExpr.contains(numericValue(m, c.key))
	default:
		return false
	}
}

// tagValue extracts a tag field by stored name. Unset fields compare as the
// empty string, so they never match rather than erroring.
func tagValue(m *model.Model, key string) string {
	switch key {
	case "manufacturer":
		return m.Manufacturer()
	case "category":
		return string(m.Category())
	case "transmission_type":
		return string(m.Transmission())
	case "series":
		return m.Series()
	default:
		return ""
	}
}

// numericValue extracts a numeric field by stored name. Unset fields read as
// zero, matching how the source catalog treated absent numerics.
func numericValue(m *model.Model, key string) float64 {
	switch key {
	case "rated_power_hp":
		return m.RatedPowerHP()
	case "pto_power_hp":
		return m.PTOPowerHP()
	case "model_year":
		return float64(m.Year())
	case "msrp_base_usd":
		return m.MSRPBaseUSD()
	default:
		return 0
	}
}

// Range is a numeric range with gt/gte/lt/lte boundaries.
type Range struct {
	gt  *float64
	gte *float64
	lt  *float64
	lte *float64
}

// NewRangeFilter validates and creates a Range.
// At least one boundary required. gt/gte and lt/lte are mutually exclusive.
func NewRangeFilter(gt, gte, lt, lte *float64) (Range, error) {
	if gt == nil && gte == nil && lt == nil && lte == nil {
		return Range{}, fmt.Errorf("at least one range boundary is required")
	}
	if gt != nil && gte != nil {
		return Range{}, fmt.Errorf("cannot specify both gt and gte")
	}
	if lt != nil && lte != nil {
		return Range{}, fmt.Errorf("cannot specify both lt and lte")
	}
	return Range{gt: gt, gte: gte, lt: lt, lte: lte}, nil
}

// GT returns the lower exclusive bound.
func (r Range) GT() *float64 { return r.gt }

// GTE returns the lower inclusive bound.
func (r Range) GTE() *float64 { return r.gte }

// LT returns the upper exclusive bound.
func (r Range) LT() *float64 { return r.lt }

// LTE returns the upper inclusive bound.
func (r Range) LTE() *float64 { return r.lte }

func (r *Range) contains(v float64) bool {
	if r.gt != nil && !(v > *r.gt) {
		return false
	}
	if r.gte != nil && !(v >= *r.gte) {
		return false
	}
	if r.lt != nil && !(v < *r.lt) {
		return false
	}
	if r.lte != nil && !(v <= *r.lte) {
		return false
	}
	return true
}
