package health

import "context"

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// CatalogChecker checks that the catalog is reachable end to end.
type CatalogChecker interface {
	Count(ctx context.Context) (int, error)
}
