// Package stub is an in-memory domain.Persist used for tests and dry runs.
// It follows the same create, update and query semantics as the database
// backend.
package stub

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/couchcryptid/homie-data/internal/domain"
	"github.com/couchcryptid/homie-data/internal/query"
)

// Store keeps every record in maps guarded by one mutex.
type Store struct {
	mu      sync.RWMutex
	hpis    map[domain.HPIKey]domain.HomePriceIndex
	yields  map[domain.YieldKey]domain.TreasuryYield
	regions map[string]domain.Region
	series  map[domain.SeriesKey]domain.HomeValueSeries
}

// New returns an empty store.
func New() *Store {
	return &Store{
		hpis:    make(map[domain.HPIKey]domain.HomePriceIndex),
		yields:  make(map[domain.YieldKey]domain.TreasuryYield),
		regions: make(map[string]domain.Region),
		series:  make(map[domain.SeriesKey]domain.HomeValueSeries),
	}
}

// Seed loads records through the regular create path.
func (s *Store) Seed(ctx context.Context, hpis []domain.HomePriceIndex, yields []domain.TreasuryYield, regions []domain.Region, series []domain.HomeValueSeries) error {
	for _, h := range hpis {
		if err := s.CreateHPI(ctx, h); err != nil {
			return err
		}
	}
	for _, y := range yields {
		if err := s.CreateYield(ctx, y); err != nil {
			return err
		}
	}
	for _, r := range regions {
		if err := s.CreateRegion(ctx, r); err != nil {
			return err
		}
	}
	for _, hs := range series {
		if err := s.CreateSeries(ctx, hs); err != nil {
			return err
		}
	}
	return nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

// CheckReadiness always succeeds.
func (s *Store) CheckReadiness(context.Context) error { return nil }

func (s *Store) CreateHPI(_ context.Context, h domain.HomePriceIndex) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.hpis[h.Key()]; !ok {
		s.hpis[h.Key()] = copyHPI(h)
	}
	return nil
}

func (s *Store) ReadHPI(_ context.Context, key domain.HPIKey) (domain.HomePriceIndex, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.hpis[key]
	if !ok {
		return domain.HomePriceIndex{}, domain.NotFoundf("hpi %s", key)
	}
	return copyHPI(h), nil
}

func (s *Store) UpdateHPI(_ context.Context, h domain.HomePriceIndex) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.hpis[h.Key()]; !ok {
		return domain.NotFoundf("hpi %s", h.Key())
	}
	s.hpis[h.Key()] = copyHPI(h)
	return nil
}

func (s *Store) DeleteHPI(_ context.Context, key domain.HPIKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.hpis[key]; !ok {
		return domain.NotFoundf("hpi %s", key)
	}
	delete(s.hpis, key)
	return nil
}

func (s *Store) QueryHPIs(_ context.Context, q domain.HPIQuery) ([]domain.HomePriceIndex, error) {
	s.mu.RLock()
	rows := make([]domain.HomePriceIndex, 0, len(s.hpis))
	for _, h := range s.hpis {
		rows = append(rows, copyHPI(h))
	}
	s.mu.RUnlock()

	slices.SortFunc(rows, func(a, b domain.HomePriceIndex) int {
		if c := strings.Compare(a.RegionName, b.RegionName); c != 0 {
			return c
		}
		return a.Year - b.Year
	})
	return query.FilterHPIs(rows, q), nil
}

func (s *Store) CreateYield(_ context.Context, y domain.TreasuryYield) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.yields[y.Key()]; !ok {
		s.yields[y.Key()] = copyYield(y)
	}
	return nil
}

func (s *Store) ReadYield(_ context.Context, key domain.YieldKey) (domain.TreasuryYield, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	y, ok := s.yields[key]
	if !ok {
		return domain.TreasuryYield{}, domain.NotFoundf("yield %s", key)
	}
	return copyYield(y), nil
}

func (s *Store) UpdateYield(_ context.Context, y domain.TreasuryYield) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.yields[y.Key()]; !ok {
		return domain.NotFoundf("yield %s", y.Key())
	}
	s.yields[y.Key()] = copyYield(y)
	return nil
}

func (s *Store) DeleteYield(_ context.Context, key domain.YieldKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.yields[key]; !ok {
		return domain.NotFoundf("yield %s", key)
	}
	delete(s.yields, key)
	return nil
}

func (s *Store) QueryYields(_ context.Context, q domain.YieldQuery) ([]domain.TreasuryYield, error) {
	s.mu.RLock()
	rows := make([]domain.TreasuryYield, 0, len(s.yields))
	for _, y := range s.yields {
		rows = append(rows, copyYield(y))
	}
	s.mu.RUnlock()
	return query.BucketYields(rows, q), nil
}

func (s *Store) CreateRegion(_ context.Context, r domain.Region) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.regions[r.Zipcode] = r
	return nil
}

func (s *Store) ReadRegion(_ context.Context, zipcode string) (domain.Region, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.regions[zipcode]
	if !ok {
		return domain.Region{}, domain.NotFoundf("region %s", zipcode)
	}
	return r, nil
}

func (s *Store) UpdateRegion(_ context.Context, r domain.Region) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.regions[r.Zipcode]; !ok {
		return domain.NotFoundf("region %s", r.Zipcode)
	}
	s.regions[r.Zipcode] = r
	return nil
}

func (s *Store) DeleteRegion(_ context.Context, zipcode string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.regions[zipcode]; !ok {
		return domain.NotFoundf("region %s", zipcode)
	}
	delete(s.regions, zipcode)
	return nil
}

func (s *Store) QueryRegions(_ context.Context, q domain.RegionQuery) ([]domain.Region, error) {
	s.mu.RLock()
	rows := make([]domain.Region, 0, len(s.regions))
	for _, r := range s.regions {
		rows = append(rows, r)
	}
	s.mu.RUnlock()

	slices.SortFunc(rows, func(a, b domain.Region) int { return strings.Compare(a.Zipcode, b.Zipcode) })
	return query.FilterRegions(rows, q), nil
}

func (s *Store) CreateSeries(_ context.Context, hs domain.HomeValueSeries) error {
	if err := checkPrices(hs); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.series[hs.Key()]; ok {
		return domain.AlreadyExistsf("series %s", hs.Key())
	}
	s.series[hs.Key()] = copySeries(hs)
	return nil
}

func (s *Store) ReadSeries(_ context.Context, key domain.SeriesKey) (domain.HomeValueSeries, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	hs, ok := s.series[key]
	if !ok {
		return domain.HomeValueSeries{}, domain.NotFoundf("series %s", key)
	}
	return copySeries(hs), nil
}

func (s *Store) UpdateSeries(_ context.Context, hs domain.HomeValueSeries) error {
	if err := checkPrices(hs); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.series[hs.Key()]; !ok {
		return domain.NotFoundf("series %s", hs.Key())
	}
	s.series[hs.Key()] = copySeries(hs)
	return nil
}

func (s *Store) DeleteSeries(_ context.Context, key domain.SeriesKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.series[key]; !ok {
		return domain.NotFoundf("series %s", key)
	}
	delete(s.series, key)
	return nil
}

func (s *Store) QuerySeries(_ context.Context, q domain.SeriesQuery) ([]domain.HomeValueSeries, error) {
	s.mu.RLock()
	rows := make([]domain.HomeValueSeries, 0, len(s.series))
	for _, hs := range s.series {
		rows = append(rows, copySeries(hs))
	}
	s.mu.RUnlock()

	slices.SortFunc(rows, func(a, b domain.HomeValueSeries) int { return compareSeriesKeys(a.Key(), b.Key()) })
	return query.FilterSeries(rows, q), nil
}

func compareSeriesKeys(a, b domain.SeriesKey) int {
	if c := strings.Compare(a.RegionName, b.RegionName); c != 0 {
		return c
	}
	if c := strings.Compare(a.RegionType.String(), b.RegionType.String()); c != 0 {
		return c
	}
	if c := strings.Compare(a.HomeType.String(), b.HomeType.String()); c != 0 {
		return c
	}
	return strings.Compare(a.Percentile.String(), b.Percentile.String())
}

func checkPrices(hs domain.HomeValueSeries) error {
	seen := make(map[string]struct{}, len(hs.Prices))
	for _, p := range hs.Prices {
		d := p.Date.String()
		if _, ok := seen[d]; ok {
			return domain.DatabaseErrorf("series %s: duplicate price date %s", hs.Key(), d)
		}
		seen[d] = struct{}{}
	}
	return nil
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	f := *v
	return &f
}

func copyHPI(h domain.HomePriceIndex) domain.HomePriceIndex {
	h.HPI = copyFloat(h.HPI)
	h.AnnualChange = copyFloat(h.AnnualChange)
	h.Base1990 = copyFloat(h.Base1990)
	h.Base2000 = copyFloat(h.Base2000)
	return h
}

func copyYield(y domain.TreasuryYield) domain.TreasuryYield {
	y.YieldReturn = copyFloat(y.YieldReturn)
	return y
}

// copySeries detaches the price slice and sorts it by date.
func copySeries(hs domain.HomeValueSeries) domain.HomeValueSeries {
	prices := make([]domain.PricePoint, len(hs.Prices))
	copy(prices, hs.Prices)
	domain.SortPrices(prices)
	hs.Prices = prices
	return hs
}

var _ domain.Persist = (*Store)(nil)
