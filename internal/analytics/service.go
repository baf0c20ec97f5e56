package analytics

import "context"

// Service fronts a Fetcher with the versioned cache. A nil cache passes every
// call straight through.
type Service struct {
	remote Fetcher
	cache  *Cache
}

// NewService wires a Fetcher with a Cache helper.
func NewService(remote Fetcher, cache *Cache) *Service {
	return &Service{remote: remote, cache: cache}
}

// Cache exposes the cache so jobs can bump it.
func (s *Service) Cache() *Cache {
	return s.cache
}

// GetLeadMetrics returns the lead snapshot, cached per lead.
func (s *Service) GetLeadMetrics(ctx context.Context, leadID string) (LeadMetrics, error) {
	return cached(ctx, s.cache, keyLead(leadID), func(ctx context.Context) (LeadMetrics, error) {
		return s.remote.GetLeadMetrics(ctx, leadID)
	})
}

// GetDashboardData returns the organisation aggregate.
func (s *Service) GetDashboardData(ctx context.Context) (DashboardData, error) {
	return cached(ctx, s.cache, keyDashboard(), s.remote.GetDashboardData)
}

// GetTerritoryMetrics returns the territory aggregate, cached per territory.
func (s *Service) GetTerritoryMetrics(ctx context.Context, territoryID string) (TerritoryMetrics, error) {
	return cached(ctx, s.cache, keyTerritory(territoryID), func(ctx context.Context) (TerritoryMetrics, error) {
		return s.remote.GetTerritoryMetrics(ctx, territoryID)
	})
}

func cached[T any](ctx context.Context, cache *Cache, parts []string, load func(context.Context) (T, error)) (T, error) {
	var out T
	if cache == nil {
		return load(ctx)
	}
	key, err := cache.BuildKey(ctx, parts...)
	if err != nil {
		return load(ctx)
	}
	loader := func(ctx context.Context) (any, error) {
		return load(ctx)
	}
	if err := cache.FetchJSON(ctx, key, &out, loader); err != nil {
		return out, err
	}
	return out, nil
}

var _ Fetcher = (*Service)(nil)
var _ Fetcher = (*Client)(nil)
