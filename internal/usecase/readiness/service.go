// Package readiness probes a live catalog the way a production client would:
// timed queries, concurrent reads, and record-level integrity checks. The
// probes answer one question: is this deployment fit to take traffic.
package readiness

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fieldline/equipcat/internal/domain/model"
	"github.com/fieldline/equipcat/internal/domain/query"
	"github.com/fieldline/equipcat/internal/domain/similarity"
)

// Default probe parameters.
const (
	DefaultQueryLatencyMax      = time.Second
	DefaultFilterLatencyMax     = 500 * time.Millisecond
	DefaultSimilarityLatencyMax = 500 * time.Millisecond
	DefaultWorkers              = 10
	DefaultIterations           = 5
	DefaultMinCategories        = 4
)

// Config tunes the probe thresholds.
type Config struct {
	QueryLatencyMax      time.Duration
	FilterLatencyMax     time.Duration
	SimilarityLatencyMax time.Duration
	Workers              int
	Iterations           int
	MinCategories        int
}

// DefaultConfig returns the default probe configuration.
func DefaultConfig() Config {
	return Config{
		QueryLatencyMax:      DefaultQueryLatencyMax,
		FilterLatencyMax:     DefaultFilterLatencyMax,
		SimilarityLatencyMax: DefaultSimilarityLatencyMax,
		Workers:              DefaultWorkers,
		Iterations:           DefaultIterations,
		MinCategories:        DefaultMinCategories,
	}
}

// CheckStatus is the outcome of a single probe.
type CheckStatus string

const (
	// Pass indicates the probe met its criteria.
	Pass CheckStatus = "pass"
	// Fail indicates the probe found a blocking problem.
	Fail CheckStatus = "fail"
)

// Check is the result of one readiness probe.
type Check struct {
	Name     string
	Status   CheckStatus
	Detail   string
	Duration time.Duration
}

// Report aggregates probe results. Ready is true only when every probe passed.
type Report struct {
	Ready  bool
	RanAt  time.Time
	Checks []Check
}

// Service runs the production-readiness probes.
type Service struct {
	catalog Catalog
	models  Models
	similar Similar
	reports ReportStore
	cfg     Config
}

// New creates a readiness service. Zero config fields fall back to defaults.
func New(catalog Catalog, models Models, similar Similar, cfg Config) *Service {
	def := DefaultConfig()
	if cfg.QueryLatencyMax <= 0 {
		cfg.QueryLatencyMax = def.QueryLatencyMax
	}
	if cfg.FilterLatencyMax <= 0 {
		cfg.FilterLatencyMax = def.FilterLatencyMax
	}
	if cfg.SimilarityLatencyMax <= 0 {
		cfg.SimilarityLatencyMax = def.SimilarityLatencyMax
	}
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.Iterations <= 0 {
		cfg.Iterations = def.Iterations
	}
	if cfg.MinCategories <= 0 {
		cfg.MinCategories = def.MinCategories
	}
	return &Service{catalog: catalog, models: models, similar: similar, cfg: cfg}
}

// WithReportStore persists each run's report so the latest one can be read
// back without re-probing.
func (s *Service) WithReportStore(reports ReportStore) *Service {
	s.reports = reports
	return s
}

// Run executes every probe and aggregates the report. Probes keep running
// after a failure so the report shows the full picture, not just the first
// problem.
func (s *Service) Run(ctx context.Context) (Report, error) {
	all, err := s.models.List(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("list models: %w", err)
	}

	checks := []Check{
		s.checkQueryLatency(ctx, all),
		s.checkConcurrentReads(ctx),
		checkDataIntegrity(all),
		s.checkSchemaFlexibility(all),
		checkLifecycleMetadata(all),
	}

	ready := true
	for _, c := range checks {
		if c.Status != Pass {
			ready = false
			break
		}
	}
	report := Report{Ready: ready, RanAt: time.Now().UTC(), Checks: checks}

	if s.reports != nil {
		if err := s.saveReport(ctx, report); err != nil {
			return report, err
		}
	}
	return report, nil
}

// checkQueryLatency times a full-catalog query, a filtered query, and a
// similarity lookup against their thresholds.
func (s *Service) checkQueryLatency(ctx context.Context, all []model.Model) Check {
	started := time.Now()
	check := func(d time.Duration) Check {
		return Check{Name: "query_latency", Status: Pass, Duration: time.Since(started),
			Detail: fmt.Sprintf("all probes within thresholds (slowest %s)", d)}
	}
	fail := func(detail string) Check {
		return Check{Name: "query_latency", Status: Fail, Detail: detail, Duration: time.Since(started)}
	}

	var slowest time.Duration

	t0 := time.Now()
	if _, err := s.catalog.Query(ctx, query.Expression{}); err != nil {
		return fail(fmt.Sprintf("full catalog query failed: %v", err))
	}
	if d := time.Since(t0); d > s.cfg.QueryLatencyMax {
		return fail(fmt.Sprintf("full catalog query took %s (max %s)", d, s.cfg.QueryLatencyMax))
	} else if d > slowest {
		slowest = d
	}

	expr, err := hpRangeExpression(100)
	if err != nil {
		return fail(fmt.Sprintf("build filter expression: %v", err))
	}
	t0 = time.Now()
	if _, err := s.catalog.Query(ctx, expr); err != nil {
		return fail(fmt.Sprintf("filtered query failed: %v", err))
	}
	if d := time.Since(t0); d > s.cfg.FilterLatencyMax {
		return fail(fmt.Sprintf("filtered query took %s (max %s)", d, s.cfg.FilterLatencyMax))
	} else if d > slowest {
		slowest = d
	}

	if len(all) > 0 {
		req, err := similarity.NewRequest(query.Expression{}, 0, 0, 0)
		if err != nil {
			return fail(fmt.Sprintf("build similarity request: %v", err))
		}
		t0 = time.Now()
		if _, err := s.similar.Find(ctx, all[0].ID(), req); err != nil {
			return fail(fmt.Sprintf("similarity lookup failed: %v", err))
		}
		if d := time.Since(t0); d > s.cfg.SimilarityLatencyMax {
			return fail(fmt.Sprintf("similarity lookup took %s (max %s)", d, s.cfg.SimilarityLatencyMax))
		} else if d > slowest {
			slowest = d
		}
	}

	return check(slowest)
}

// checkConcurrentReads hammers the catalog from multiple workers with a mix
// of query shapes and reports failures and the slowest observed operation.
func (s *Service) checkConcurrentReads(ctx context.Context) Check {
	started := time.Now()

	exprs := make([]query.Expression, 0, 3)
	exprs = append(exprs, query.Expression{})
	if e, err := hpRangeExpression(150); err == nil {
		exprs = append(exprs, e)
	}
	if e, err := categoryExpression(model.CategoryRowCrop); err == nil {
		exprs = append(exprs, e)
	}

	var (
		mu       sync.Mutex
		failures int
		firstErr error
		slowest  time.Duration
	)

	var wg sync.WaitGroup
	for w := 0; w < s.cfg.Workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for i := 0; i < s.cfg.Iterations; i++ {
				expr := exprs[(worker+i)%len(exprs)]
				t0 := time.Now()
				_, err := s.catalog.Query(ctx, expr)
				d := time.Since(t0)

				mu.Lock()
				if err != nil {
					failures++
					if firstErr == nil {
						firstErr = err
					}
				}
				if d > slowest {
					slowest = d
				}
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()

	total := s.cfg.Workers * s.cfg.Iterations
	if failures > 0 {
		return Check{
			Name:     "concurrent_reads",
			Status:   Fail,
			Detail:   fmt.Sprintf("%d/%d operations failed, first error: %v", failures, total, firstErr),
			Duration: time.Since(started),
		}
	}
	return Check{
		Name:     "concurrent_reads",
		Status:   Pass,
		Detail:   fmt.Sprintf("%d operations across %d workers, slowest %s", total, s.cfg.Workers, slowest),
		Duration: time.Since(started),
	}
}

// checkDataIntegrity verifies record-level invariants on every stored model:
// mandatory fields, positive rated power, PTO not exceeding rated power,
// and a plausible model year.
func checkDataIntegrity(all []model.Model) Check {
	started := time.Now()

	var problems []string
	for i := range all {
		m := &all[i]
		switch {
		case m.Category() == "":
			problems = append(problems, fmt.Sprintf("%s: missing category", m.ID()))
		case m.RatedPowerHP() <= 0:
			problems = append(problems, fmt.Sprintf("%s: missing rated power", m.ID()))
		case m.PTOPowerHP() > m.RatedPowerHP():
			problems = append(problems, fmt.Sprintf("%s: PTO power %g exceeds rated power %g",
				m.ID(), m.PTOPowerHP(), m.RatedPowerHP()))
		case m.Year() < model.MinModelYear || m.Year() > model.MaxModelYear:
			problems = append(problems, fmt.Sprintf("%s: implausible model year %d", m.ID(), m.Year()))
		}
	}

	if len(problems) > 0 {
		return Check{
			Name:     "data_integrity",
			Status:   Fail,
			Detail:   fmt.Sprintf("%d records with problems: %s", len(problems), strings.Join(problems, "; ")),
			Duration: time.Since(started),
		}
	}
	return Check{
		Name:     "data_integrity",
		Status:   Pass,
		Detail:   fmt.Sprintf("%d records verified", len(all)),
		Duration: time.Since(started),
	}
}

// checkSchemaFlexibility verifies the schema handles heterogeneous equipment
// by requiring a minimum number of distinct categories in the catalog.
func (s *Service) checkSchemaFlexibility(all []model.Model) Check {
	started := time.Now()

	seen := make(map[model.Category]bool)
	for i := range all {
		if c := all[i].Category(); c != "" {
			seen[c] = true
		}
	}

	if len(seen) < s.cfg.MinCategories {
		names := make([]string, 0, len(seen))
		for c := range seen {
			names = append(names, string(c))
		}
		sort.Strings(names)
		return Check{
			Name:   "schema_flexibility",
			Status: Fail,
			Detail: fmt.Sprintf("only %d distinct categories (need %d): %s",
				len(seen), s.cfg.MinCategories, strings.Join(names, ", ")),
			Duration: time.Since(started),
		}
	}
	return Check{
		Name:     "schema_flexibility",
		Status:   Pass,
		Detail:   fmt.Sprintf("%d distinct categories", len(seen)),
		Duration: time.Since(started),
	}
}

// checkLifecycleMetadata verifies every record carries a production start
// date so lifecycle queries have something to work with.
func checkLifecycleMetadata(all []model.Model) Check {
	started := time.Now()

	var missing []string
	for i := range all {
		if all[i].ProductionStart() == "" {
			missing = append(missing, all[i].ID())
		}
	}

	if len(missing) > 0 {
		return Check{
			Name:     "lifecycle_metadata",
			Status:   Fail,
			Detail:   fmt.Sprintf("%d records without production start date: %s", len(missing), strings.Join(missing, ", ")),
			Duration: time.Since(started),
		}
	}
	return Check{
		Name:     "lifecycle_metadata",
		Status:   Pass,
		Detail:   fmt.Sprintf("%d records with production dates", len(all)),
		Duration: time.Since(started),
	}
}

func hpRangeExpression(minHP float64) (query.Expression, error) {
	rng, err := query.NewRangeFilter(nil, &minHP, nil, nil)
	if err != nil {
		return query.Expression{}, err
	}
	cond, err := query.NewRange("rated_power_hp", rng)
	if err != nil {
		return query.Expression{}, err
	}
	return query.NewExpression([]query.Condition{cond}, nil, nil)
}

func categoryExpression(c model.Category) (query.Expression, error) {
	cond, err := query.NewMatch("category", string(c))
	if err != nil {
		return query.Expression{}, err
	}
	return query.NewExpression([]query.Condition{cond}, nil, nil)
}
