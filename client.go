// Package equipcat is the embedded client for the equipment catalog: model
// and manufacturer storage, attribute queries, similarity ranking, and
// production-readiness probes over a Redis-compatible document database.
package equipcat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fieldline/equipcat/internal/db"
	dbRedis "github.com/fieldline/equipcat/internal/db/redis"
	"github.com/fieldline/equipcat/internal/domain/manufacturer"
	"github.com/fieldline/equipcat/internal/domain/model"
	"github.com/fieldline/equipcat/internal/domain/query"
	"github.com/fieldline/equipcat/internal/domain/similarity"
	catalogrepo "github.com/fieldline/equipcat/internal/repository/catalog"
	mfrrepo "github.com/fieldline/equipcat/internal/repository/manufacturer"
	statusrepo "github.com/fieldline/equipcat/internal/repository/status"
	"github.com/fieldline/equipcat/internal/seed"
	cataloguc "github.com/fieldline/equipcat/internal/usecase/catalog"
	healthuc "github.com/fieldline/equipcat/internal/usecase/health"
	readinessuc "github.com/fieldline/equipcat/internal/usecase/readiness"
	similaruc "github.com/fieldline/equipcat/internal/usecase/similar"
)

const defaultReadinessTimeout = 10 * time.Second

// Client is the equipcat SDK entry point.
type Client struct {
	store        db.Store
	modelRepo    *catalogrepo.Repo
	mfrRepo      *mfrrepo.Repo
	catalogSvc   *cataloguc.Service
	similarSvc   *similaruc.Service
	readinessSvc *readinessuc.Service
	healthSvc    *healthuc.Service
}

// New creates an equipcat Client and connects to the database.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		scoring: similarity.DefaultParams(),
	}
	for _, o := range opts {
		o(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("equipcat: database address required (use WithAddrs)")
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.addrs,
		Username: cfg.username,
		Password: cfg.password,
		DB:       cfg.database,
	})
	if err != nil {
		return nil, fmt.Errorf("equipcat: create store: %w", err)
	}

	ctx := context.Background()
	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("equipcat: database not ready: %w", err)
	}

	return wireClient(store, cfg)
}

func wireClient(store db.Store, cfg *clientConfig) (*Client, error) {
	scorer, err := similarity.NewScorer(cfg.scoring)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("equipcat: %w", err)
	}

	modelRepo := catalogrepo.New(store)
	mfrRepo := mfrrepo.New(store)

	catalogSvc := cataloguc.New(modelRepo, mfrRepo)
	if cfg.defaultPageSize > 0 || cfg.maxPageSize > 0 {
		catalogSvc = catalogSvc.WithPagination(cfg.defaultPageSize, cfg.maxPageSize)
	}
	similarSvc := similaruc.New(modelRepo, scorer)
	readinessSvc := readinessuc.New(catalogSvc, modelRepo, similarSvc, cfg.readiness).
		WithReportStore(statusrepo.New(store))
	healthSvc := healthuc.New(store, modelRepo)

	return &Client{
		store:        store,
		modelRepo:    modelRepo,
		mfrRepo:      mfrRepo,
		catalogSvc:   catalogSvc,
		similarSvc:   similarSvc,
		readinessSvc: readinessSvc,
		healthSvc:    healthSvc,
	}, nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// UpsertModel validates and stores a model. An empty ID gets a generated one.
// Returns the stored model (with its final ID) and true if it was created.
func (c *Client) UpsertModel(ctx context.Context, m Model) (Model, bool, error) {
	stored, created, err := c.catalogSvc.Upsert(ctx, attributesFromPublic(m))
	if err != nil {
		return Model{}, false, fmt.Errorf("upsert model: %w", err)
	}
	return publicFromModel(&stored), created, nil
}

// GetModel retrieves a model by ID.
func (c *Client) GetModel(ctx context.Context, id string) (Model, error) {
	m, err := c.catalogSvc.Get(ctx, id)
	if err != nil {
		return Model{}, fmt.Errorf("get model: %w", err)
	}
	return publicFromModel(&m), nil
}

// ListModels returns a page of models ordered by ID. An empty next cursor
// means the listing is exhausted.
func (c *Client) ListModels(ctx context.Context, cursor string, limit int) ([]Model, string, error) {
	models, next, err := c.catalogSvc.List(ctx, cursor, limit)
	if err != nil {
		return nil, "", fmt.Errorf("list models: %w", err)
	}
	return publicFromModels(models), next, nil
}

// DeleteModel removes a model.
func (c *Client) DeleteModel(ctx context.Context, id string) error {
	if err := c.catalogSvc.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete model: %w", err)
	}
	return nil
}

// QueryModels returns every model matching the filter.
func (c *Client) QueryModels(ctx context.Context, f Filter) ([]Model, error) {
	expr, err := expressionFromFilter(f)
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	models, err := c.catalogSvc.Query(ctx, expr)
	if err != nil {
		return nil, fmt.Errorf("query models: %w", err)
	}
	return publicFromModels(models), nil
}

// Similar ranks catalog models by similarity to the reference model.
func (c *Client) Similar(ctx context.Context, referenceID string, opts SimilarOptions) ([]ScoredModel, error) {
	filters, err := expressionFromFilter(opts.Filter)
	if err != nil {
		return nil, fmt.Errorf("build filter: %w", err)
	}
	req, err := similarity.NewRequest(filters, opts.TopK, opts.Limit, opts.MinScore)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	matches, err := c.similarSvc.Find(ctx, referenceID, req)
	if err != nil {
		return nil, fmt.Errorf("find similar: %w", err)
	}

	out := make([]ScoredModel, len(matches))
	for i := range matches {
		m := matches[i].Model()
		out[i] = ScoredModel{Model: publicFromModel(&m), Score: matches[i].Score()}
	}
	return out, nil
}

// Summary computes catalog-wide statistics.
func (c *Client) Summary(ctx context.Context) (Summary, error) {
	s, err := c.catalogSvc.Summary(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("summary: %w", err)
	}
	return Summary{
		TotalModels:        s.TotalModels,
		TotalManufacturers: s.TotalManufacturers,
		ByCategory:         s.ByCategory,
		ByManufacturer:     s.ByManufacturer,
		AvgRatedPowerHP:    s.AvgRatedPowerHP,
		AvgMSRPBaseUSD:     s.AvgMSRPBaseUSD,
	}, nil
}

// UpsertManufacturer validates and stores a manufacturer entry.
func (c *Client) UpsertManufacturer(ctx context.Context, m Manufacturer) (bool, error) {
	_, created, err := c.catalogSvc.UpsertManufacturer(
		ctx, m.Name, m.Country, m.FoundedYear, m.Headquarters, m.Website,
	)
	if err != nil {
		return false, fmt.Errorf("upsert manufacturer: %w", err)
	}
	return created, nil
}

// GetManufacturer retrieves a manufacturer by name.
func (c *Client) GetManufacturer(ctx context.Context, name string) (Manufacturer, error) {
	m, err := c.catalogSvc.GetManufacturer(ctx, name)
	if err != nil {
		return Manufacturer{}, fmt.Errorf("get manufacturer: %w", err)
	}
	return publicFromManufacturer(&m), nil
}

// ListManufacturers returns every manufacturer entry.
func (c *Client) ListManufacturers(ctx context.Context) ([]Manufacturer, error) {
	mfrs, err := c.catalogSvc.ListManufacturers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list manufacturers: %w", err)
	}
	out := make([]Manufacturer, len(mfrs))
	for i := range mfrs {
		out[i] = publicFromManufacturer(&mfrs[i])
	}
	return out, nil
}

// DeleteManufacturer removes a manufacturer entry.
func (c *Client) DeleteManufacturer(ctx context.Context, name string) error {
	if err := c.catalogSvc.DeleteManufacturer(ctx, name); err != nil {
		return fmt.Errorf("delete manufacturer: %w", err)
	}
	return nil
}

// Readiness runs the production-readiness probes against the live catalog.
func (c *Client) Readiness(ctx context.Context) (ReadinessReport, error) {
	report, err := c.readinessSvc.Run(ctx)
	if err != nil {
		return ReadinessReport{}, fmt.Errorf("readiness: %w", err)
	}
	return reportFromReadiness(report), nil
}

// LastReadiness returns the most recently recorded readiness report.
func (c *Client) LastReadiness(ctx context.Context) (ReadinessReport, error) {
	report, err := c.readinessSvc.Last(ctx)
	if err != nil {
		return ReadinessReport{}, fmt.Errorf("last readiness: %w", err)
	}
	return reportFromReadiness(report), nil
}

func reportFromReadiness(report readinessuc.Report) ReadinessReport {
	checks := make([]ReadinessCheck, len(report.Checks))
	for i, ch := range report.Checks {
		checks[i] = ReadinessCheck{
			Name:     ch.Name,
			Passed:   ch.Status == readinessuc.Pass,
			Detail:   ch.Detail,
			Duration: ch.Duration,
		}
	}
	return ReadinessReport{Ready: report.Ready, RanAt: report.RanAt, Checks: checks}
}

// Health runs component health checks.
func (c *Client) Health(ctx context.Context) (bool, map[string]string) {
	report := c.healthSvc.Check(ctx)
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	return report.Status == healthuc.Healthy, checks
}

// Seed stores the reference dataset (manufacturers and equipment models).
func (c *Client) Seed(ctx context.Context) error {
	if err := seed.Apply(ctx, c.modelRepo, c.mfrRepo, c.store); err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	return nil
}

// --- public <-> domain converters ---

func attributesFromPublic(m Model) model.Attributes {
	return model.Attributes{
		ID:              m.ID,
		Manufacturer:    m.Manufacturer,
		Name:            m.Name,
		Year:            m.Year,
		Series:          m.Series,
		Category:        model.Category(m.Category),
		RatedPowerHP:    m.RatedPowerHP,
		PTOPowerHP:      m.PTOPowerHP,
		Transmission:    model.Transmission(m.Transmission),
		FourWheelDrive:  m.FourWheelDrive,
		MSRPBaseUSD:     m.MSRPBaseUSD,
		ProductionStart: m.ProductionStart,
		ProductionEnd:   m.ProductionEnd,
	}
}

func publicFromModel(m *model.Model) Model {
	return Model{
		ID:              m.ID(),
		Manufacturer:    m.Manufacturer(),
		Name:            m.Name(),
		Year:            m.Year(),
		Series:          m.Series(),
		Category:        string(m.Category()),
		RatedPowerHP:    m.RatedPowerHP(),
		PTOPowerHP:      m.PTOPowerHP(),
		Transmission:    string(m.Transmission()),
		FourWheelDrive:  m.FourWheelDrive(),
		MSRPBaseUSD:     m.MSRPBaseUSD(),
		ProductionStart: m.ProductionStart(),
		ProductionEnd:   m.ProductionEnd(),
	}
}

func publicFromModels(models []model.Model) []Model {
	out := make([]Model, len(models))
	for i := range models {
		out[i] = publicFromModel(&models[i])
	}
	return out
}

func publicFromManufacturer(m *manufacturer.Manufacturer) Manufacturer {
	return Manufacturer{
		Name:         m.Name(),
		Country:      m.Country(),
		FoundedYear:  m.FoundedYear(),
		Headquarters: m.Headquarters(),
		Website:      m.Website(),
	}
}

func expressionFromFilter(f Filter) (query.Expression, error) {
	must, err := conditionsFromPublic(f.Must)
	if err != nil {
		return query.Expression{}, err
	}
	should, err := conditionsFromPublic(f.Should)
	if err != nil {
		return query.Expression{}, err
	}
	mustNot, err := conditionsFromPublic(f.MustNot)
	if err != nil {
		return query.Expression{}, err
	}
	return query.NewExpression(must, should, mustNot)
}

func conditionsFromPublic(cs []Condition) ([]query.Condition, error) {
	if len(cs) == 0 {
		return nil, nil
	}
	out := make([]query.Condition, 0, len(cs))
	for _, c := range cs {
		cond, err := conditionFromPublic(c)
		if err != nil {
			return nil, err
		}
		out = append(out, cond)
	}
	return out, nil
}

func conditionFromPublic(c Condition) (query.Condition, error) {
	hasRange := c.GT != nil || c.GTE != nil || c.LT != nil || c.LTE != nil
	if c.Match != "" && hasRange {
		return query.Condition{}, fmt.Errorf("condition for %q must have match or range, not both", c.Key)
	}
	if c.Match != "" {
		return query.NewMatch(c.Key, c.Match)
	}
	if hasRange {
		rf, err := query.NewRangeFilter(c.GT, c.GTE, c.LT, c.LTE)
		if err != nil {
			return query.Condition{}, err
		}
		return query.NewRange(c.Key, rf)
	}
	return query.Condition{}, errors.New("condition must have either match or range")
}
