package stub

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/homie-data/internal/domain"
	"github.com/couchcryptid/homie-data/internal/persisttest"
)

func TestStore_Conformance(t *testing.T) {
	persisttest.Run(t, func(*testing.T) domain.Persist { return New() })
}

func TestStore_ReturnsCopies(t *testing.T) {
	s := New()
	ctx := context.Background()
	hs := persisttest.MonthlySeries("irvine", 2020)
	require.NoError(t, s.CreateSeries(ctx, hs))

	hs.Prices[0].Value = -1
	got, err := s.ReadSeries(ctx, hs.Key())
	require.NoError(t, err)
	assert.InDelta(t, 202001, got.Prices[0].Value, 0)

	got.Prices[1].Value = -1
	again, err := s.ReadSeries(ctx, hs.Key())
	require.NoError(t, err)
	assert.InDelta(t, 202002, again.Prices[1].Value, 0)
}

func TestStore_SortsPricesOnWrite(t *testing.T) {
	s := New()
	ctx := context.Background()
	hs := persisttest.MonthlySeries("irvine", 2020)
	hs.Prices[0], hs.Prices[11] = hs.Prices[11], hs.Prices[0]
	require.NoError(t, s.CreateSeries(ctx, hs))

	got, err := s.ReadSeries(ctx, hs.Key())
	require.NoError(t, err)
	assert.Equal(t, persisttest.Day(2020, 1, 1), got.Prices[0].Date)
}

func TestStore_Seed(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.Seed(ctx,
		[]domain.HomePriceIndex{{RegionType: domain.RegionCounty, RegionName: "orange", Year: 2000}},
		nil,
		[]domain.Region{{City: "irvine", Zipcode: "92602"}},
		[]domain.HomeValueSeries{persisttest.MonthlySeries("irvine", 2020)},
	))

	regions, err := s.QueryRegions(ctx, domain.RegionQuery{})
	require.NoError(t, err)
	assert.Len(t, regions, 1)
}

func TestStore_ConcurrentWrites(t *testing.T) {
	s := New()
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.CreateHPI(ctx, domain.HomePriceIndex{RegionType: domain.RegionFiveZip, RegionName: "92602", Year: 1970 + i})
		}()
	}
	wg.Wait()

	got, err := s.QueryHPIs(ctx, domain.HPIQuery{RegionName: "92602"})
	require.NoError(t, err)
	assert.Len(t, got, 50)
}
