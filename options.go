package equipcat

import (
	"time"

	"github.com/fieldline/equipcat/internal/domain/similarity"
	readinessuc "github.com/fieldline/equipcat/internal/usecase/readiness"
)

type clientConfig struct {
	addrs    []string
	username string
	password string
	database int

	scoring similarity.Params

	defaultPageSize int
	maxPageSize     int

	readiness readinessuc.Config
}

// Option configures a Client.
type Option func(*clientConfig)

// WithAddrs sets the database addresses (host:port). Required.
func WithAddrs(addrs ...string) Option {
	return func(c *clientConfig) {
		c.addrs = addrs
	}
}

// WithAuth sets database credentials.
func WithAuth(username, password string) Option {
	return func(c *clientConfig) {
		c.username = username
		c.password = password
	}
}

// WithDB selects the logical database number.
func WithDB(db int) Option {
	return func(c *clientConfig) {
		c.database = db
	}
}

// WithHPTolerance overrides the horsepower tolerance used for scoring.
func WithHPTolerance(tolerance float64) Option {
	return func(c *clientConfig) {
		c.scoring.HPTolerance = tolerance
	}
}

// WithScoringWeights overrides the similarity term weights. They must be
// non-negative and sum to 1.0; New fails otherwise.
func WithScoringWeights(hp, category, transmission float64) Option {
	return func(c *clientConfig) {
		c.scoring.Weights = similarity.Weights{
			HP:           hp,
			Category:     category,
			Transmission: transmission,
		}
	}
}

// WithPagination overrides list-page sizing.
func WithPagination(defaultPageSize, maxPageSize int) Option {
	return func(c *clientConfig) {
		c.defaultPageSize = defaultPageSize
		c.maxPageSize = maxPageSize
	}
}

// WithReadinessConfig overrides readiness probe thresholds. Zero fields
// keep their defaults.
func WithReadinessConfig(cfg ReadinessConfig) Option {
	return func(c *clientConfig) {
		c.readiness = readinessuc.Config{
			QueryLatencyMax:      cfg.QueryLatencyMax,
			FilterLatencyMax:     cfg.FilterLatencyMax,
			SimilarityLatencyMax: cfg.SimilarityLatencyMax,
			Workers:              cfg.Workers,
			Iterations:           cfg.Iterations,
			MinCategories:        cfg.MinCategories,
		}
	}
}

// Model is an equipment model record as exposed by the SDK.
type Model struct {
	ID              string
	Manufacturer    string
	Name            string
	Year            int
	Series          string
	Category        string
	RatedPowerHP    float64
	PTOPowerHP      float64
	Transmission    string
	FourWheelDrive  bool
	MSRPBaseUSD     float64
	ProductionStart string
	ProductionEnd   string
}

// Manufacturer is a manufacturer registry entry.
type Manufacturer struct {
	Name         string
	Country      string
	FoundedYear  int
	Headquarters string
	Website      string
}

// Condition filters on a single field: either an exact Match or a numeric
// range (any combination of GT/GTE/LT/LTE), never both.
type Condition struct {
	Key   string
	Match string
	GT    *float64
	GTE   *float64
	LT    *float64
	LTE   *float64
}

// Filter combines conditions with must/should/must_not semantics.
type Filter struct {
	Must    []Condition
	Should  []Condition
	MustNot []Condition
}

// SimilarOptions tunes a similarity search. Zero values mean defaults.
type SimilarOptions struct {
	Filter   Filter
	TopK     int
	Limit    int
	MinScore float64
}

// ScoredModel pairs a model with its similarity score in [0, 1].
type ScoredModel struct {
	Model Model
	Score float64
}

// Summary holds catalog-wide statistics.
type Summary struct {
	TotalModels        int
	TotalManufacturers int
	ByCategory         map[string]int
	ByManufacturer     map[string]int
	AvgRatedPowerHP    float64
	AvgMSRPBaseUSD     float64
}

// ReadinessConfig tunes the production-readiness probes.
type ReadinessConfig struct {
	QueryLatencyMax      time.Duration
	FilterLatencyMax     time.Duration
	SimilarityLatencyMax time.Duration
	Workers              int
	Iterations           int
	MinCategories        int
}

// ReadinessCheck is one probe outcome.
type ReadinessCheck struct {
	Name     string
	Passed   bool
	Detail   string
	Duration time.Duration
}

// ReadinessReport aggregates probe outcomes.
type ReadinessReport struct {
	Ready  bool
	RanAt  time.Time
	Checks []ReadinessCheck
}
