package cache

import (
	"context"

	"github.com/pharmadesk/pharmacy-api/internal/domain/entity"
)

// MedicineSearchCache caches catalog search results keyed by the normalized
// query string. A miss is reported as (nil, false, nil), never an error.
type MedicineSearchCache interface {
	Get(ctx context.Context, query string) ([]entity.MedicineSearchResult, bool, error)
	Set(ctx context.Context, query string, results []entity.MedicineSearchResult) error
	// Invalidate drops all cached search results. Called after any write that
	// changes stock levels, since cached entries embed stock counts.
	Invalidate(ctx context.Context) error
}

type noopCache struct{}

// NewNoopCache returns a cache that never hits. Used when Redis is disabled.
func NewNoopCache() MedicineSearchCache {
	return &noopCache{}
}

func (noopCache) Get(ctx context.Context, query string) ([]entity.MedicineSearchResult, bool, error) {
	return nil, false, nil
}

func (noopCache) Set(ctx context.Context, query string, results []entity.MedicineSearchResult) error {
	return nil
}

func (noopCache) Invalidate(ctx context.Context) error { return nil }
