package domain

import "context"

// HPIStore persists home price indexes. Creating an existing key is a no-op.
type HPIStore interface {
	CreateHPI(ctx context.Context, h HomePriceIndex) error
	ReadHPI(ctx context.Context, key HPIKey) (HomePriceIndex, error)
	UpdateHPI(ctx context.Context, h HomePriceIndex) error
	DeleteHPI(ctx context.Context, key HPIKey) error
	QueryHPIs(ctx context.Context, q HPIQuery) ([]HomePriceIndex, error)
}

// RegionStore persists zipcode to city mappings. Creating an existing
// zipcode replaces its city.
type RegionStore interface {
	CreateRegion(ctx context.Context, r Region) error
	ReadRegion(ctx context.Context, zipcode string) (Region, error)
	UpdateRegion(ctx context.Context, r Region) error
	DeleteRegion(ctx context.Context, zipcode string) error
	QueryRegions(ctx context.Context, q RegionQuery) ([]Region, error)
}

// YieldStore persists treasury yields. Creating an existing key is a no-op.
type YieldStore interface {
	CreateYield(ctx context.Context, y TreasuryYield) error
	ReadYield(ctx context.Context, key YieldKey) (TreasuryYield, error)
	UpdateYield(ctx context.Context, y TreasuryYield) error
	DeleteYield(ctx context.Context, key YieldKey) error
	QueryYields(ctx context.Context, q YieldQuery) ([]TreasuryYield, error)
}

// SeriesStore persists home-value series. Create and Update are atomic:
// either the metadata and every price point are stored, or nothing is.
type SeriesStore interface {
	CreateSeries(ctx context.Context, s HomeValueSeries) error
	ReadSeries(ctx context.Context, key SeriesKey) (HomeValueSeries, error)
	UpdateSeries(ctx context.Context, s HomeValueSeries) error
	DeleteSeries(ctx context.Context, key SeriesKey) error
	QuerySeries(ctx context.Context, q SeriesQuery) ([]HomeValueSeries, error)
}

// Persist is the full capability set a backend implements.
type Persist interface {
	HPIStore
	RegionStore
	YieldStore
	SeriesStore
}
