// Package persisttest holds the behavior every domain.Persist backend must
// share. Backend packages call Run from their tests.
package persisttest

import (
	"context"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/homie-data/internal/domain"
)

// Factory returns an empty backend. Cleanup is registered on t.
type Factory func(t *testing.T) domain.Persist

// Run exercises CRUD and query semantics against backends built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("HPI", func(t *testing.T) { testHPI(t, newStore(t)) })
	t.Run("HPIQuery", func(t *testing.T) { testHPIQuery(t, newStore(t)) })
	t.Run("Yield", func(t *testing.T) { testYield(t, newStore(t)) })
	t.Run("YieldQuery", func(t *testing.T) { testYieldQuery(t, newStore(t)) })
	t.Run("Region", func(t *testing.T) { testRegion(t, newStore(t)) })
	t.Run("RegionQuery", func(t *testing.T) { testRegionQuery(t, newStore(t)) })
	t.Run("Series", func(t *testing.T) { testSeries(t, newStore(t)) })
	t.Run("SeriesQuery", func(t *testing.T) { testSeriesQuery(t, newStore(t)) })
}

// Ptr returns a pointer to v.
func Ptr(v float64) *float64 { return &v }

// Day builds a civil date.
func Day(y int, m time.Month, d int) civil.Date {
	return civil.Date{Year: y, Month: m, Day: d}
}

// MonthlySeries returns a series with a point on the first of every month
// of the given years. Values encode the date as year*100+month.
func MonthlySeries(name string, years ...int) domain.HomeValueSeries {
	s := domain.HomeValueSeries{
		RegionName: name,
		RegionType: domain.RegionCity,
		HomeType:   domain.HomeAll,
		Percentile: domain.PercentileMiddle,
	}
	for _, y := range years {
		for m := time.January; m <= time.December; m++ {
			s.Prices = append(s.Prices, domain.PricePoint{Date: Day(y, m, 1), Value: float64(y*100 + int(m))})
		}
	}
	return s
}

func testHPI(t *testing.T, s domain.Persist) {
	ctx := context.Background()
	h := domain.HomePriceIndex{
		RegionType: domain.RegionThreeZip, RegionName: "900", Year: 2001,
		HPI: Ptr(100), AnnualChange: Ptr(2.5), Base1990: nil, Base2000: Ptr(101.2),
	}
	require.NoError(t, s.CreateHPI(ctx, h))

	// A duplicate create is a silent no-op that keeps the first row.
	dup := h
	dup.HPI = Ptr(999)
	require.NoError(t, s.CreateHPI(ctx, dup))

	got, err := s.ReadHPI(ctx, h.Key())
	require.NoError(t, err)
	if diff := cmp.Diff(h, got); diff != "" {
		t.Errorf("ReadHPI mismatch (-want +got):\n%s", diff)
	}

	h.HPI = Ptr(120)
	h.AnnualChange = nil
	require.NoError(t, s.UpdateHPI(ctx, h))
	got, err = s.ReadHPI(ctx, h.Key())
	require.NoError(t, err)
	if diff := cmp.Diff(h, got); diff != "" {
		t.Errorf("after update (-want +got):\n%s", diff)
	}

	missing := domain.HomePriceIndex{RegionType: domain.RegionThreeZip, RegionName: "901", Year: 2001}
	assert.ErrorIs(t, s.UpdateHPI(ctx, missing), domain.ErrNotFound)

	require.NoError(t, s.DeleteHPI(ctx, h.Key()))
	_, err = s.ReadHPI(ctx, h.Key())
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, err, domain.ErrDatabase)
	assert.ErrorIs(t, s.DeleteHPI(ctx, h.Key()), domain.ErrNotFound)
}

func testHPIQuery(t *testing.T, s domain.Persist) {
	ctx := context.Background()
	for _, name := range []string{"900", "925"} {
		for year := 2000; year <= 2004; year++ {
			require.NoError(t, s.CreateHPI(ctx, domain.HomePriceIndex{
				RegionType: domain.RegionThreeZip, RegionName: name, Year: year, HPI: Ptr(float64(year)),
			}))
		}
	}

	got, err := s.QueryHPIs(ctx, domain.HPIQuery{RegionName: "925", StartYear: 2001, EndYear: 2003})
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, h := range got {
		assert.Equal(t, "925", h.RegionName)
		assert.Equal(t, 2001+i, h.Year)
	}

	all, err := s.QueryHPIs(ctx, domain.HPIQuery{})
	require.NoError(t, err)
	assert.Len(t, all, 10)

	none, err := s.QueryHPIs(ctx, domain.HPIQuery{RegionName: "999"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func testYield(t *testing.T, s domain.Persist) {
	ctx := context.Background()
	y := domain.TreasuryYield{Term: domain.TermTenYear, Date: Day(2020, time.March, 1), YieldReturn: Ptr(1.5)}
	require.NoError(t, s.CreateYield(ctx, y))
	require.NoError(t, s.CreateYield(ctx, domain.TreasuryYield{Term: y.Term, Date: y.Date, YieldReturn: Ptr(9)}))

	got, err := s.ReadYield(ctx, y.Key())
	require.NoError(t, err)
	assert.Equal(t, y, got)

	y.YieldReturn = nil
	require.NoError(t, s.UpdateYield(ctx, y))
	got, err = s.ReadYield(ctx, y.Key())
	require.NoError(t, err)
	assert.Nil(t, got.YieldReturn)

	require.NoError(t, s.DeleteYield(ctx, y.Key()))
	_, err = s.ReadYield(ctx, y.Key())
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, s.UpdateYield(ctx, y), domain.ErrNotFound)
}

func testYieldQuery(t *testing.T, s domain.Persist) {
	ctx := context.Background()
	rows := []domain.TreasuryYield{
		{Term: domain.TermTenYear, Date: Day(2020, time.January, 2), YieldReturn: Ptr(1)},
		{Term: domain.TermTenYear, Date: Day(2020, time.January, 20), YieldReturn: Ptr(3)},
		{Term: domain.TermTenYear, Date: Day(2020, time.February, 3), YieldReturn: nil},
		{Term: domain.TermTenYear, Date: Day(2020, time.March, 2), YieldReturn: Ptr(4)},
		{Term: domain.TermTenYear, Date: Day(2021, time.June, 1), YieldReturn: Ptr(10)},
	}
	for _, y := range rows {
		require.NoError(t, s.CreateYield(ctx, y))
	}

	month, err := s.QueryYields(ctx, domain.YieldQuery{
		StartDate: Day(2020, time.January, 1), EndDate: Day(2020, time.December, 31), Interval: domain.IntervalMonth,
	})
	require.NoError(t, err)
	want := []domain.TreasuryYield{
		{Term: domain.TermTenYear, Date: Day(2020, time.January, 1), YieldReturn: Ptr(2)},
		{Term: domain.TermTenYear, Date: Day(2020, time.February, 1), YieldReturn: nil},
		{Term: domain.TermTenYear, Date: Day(2020, time.March, 1), YieldReturn: Ptr(4)},
	}
	if diff := cmp.Diff(want, month); diff != "" {
		t.Errorf("month buckets (-want +got):\n%s", diff)
	}

	year, err := s.QueryYields(ctx, domain.YieldQuery{
		StartDate: Day(2020, time.January, 1), EndDate: Day(2021, time.December, 31), Interval: domain.IntervalYear,
	})
	require.NoError(t, err)
	want = []domain.TreasuryYield{
		{Term: domain.TermTenYear, Date: Day(2020, time.January, 1), YieldReturn: Ptr(8.0 / 3.0)},
		{Term: domain.TermTenYear, Date: Day(2021, time.January, 1), YieldReturn: Ptr(10)},
	}
	require.Len(t, year, 2)
	for i := range want {
		assert.Equal(t, want[i].Date, year[i].Date)
		require.NotNil(t, year[i].YieldReturn)
		assert.InDelta(t, *want[i].YieldReturn, *year[i].YieldReturn, 1e-9)
	}

	days, err := s.QueryYields(ctx, domain.YieldQuery{
		StartDate: Day(2020, time.January, 20), EndDate: Day(2020, time.February, 3), Interval: domain.IntervalDay,
	})
	require.NoError(t, err)
	want = []domain.TreasuryYield{rows[1], rows[2]}
	if diff := cmp.Diff(want, days); diff != "" {
		t.Errorf("day buckets (-want +got):\n%s", diff)
	}
}

func testRegion(t *testing.T, s domain.Persist) {
	ctx := context.Background()
	require.NoError(t, s.CreateRegion(ctx, domain.Region{City: "irvine", Zipcode: "92602"}))
	// Create on an existing zipcode replaces the city.
	require.NoError(t, s.CreateRegion(ctx, domain.Region{City: "tustin", Zipcode: "92602"}))

	got, err := s.ReadRegion(ctx, "92602")
	require.NoError(t, err)
	assert.Equal(t, domain.Region{City: "tustin", Zipcode: "92602"}, got)

	require.NoError(t, s.UpdateRegion(ctx, domain.Region{City: "irvine", Zipcode: "92602"}))
	got, err = s.ReadRegion(ctx, "92602")
	require.NoError(t, err)
	assert.Equal(t, "irvine", got.City)

	assert.ErrorIs(t, s.UpdateRegion(ctx, domain.Region{City: "x", Zipcode: "00000"}), domain.ErrNotFound)
	require.NoError(t, s.DeleteRegion(ctx, "92602"))
	_, err = s.ReadRegion(ctx, "92602")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func testRegionQuery(t *testing.T, s domain.Persist) {
	ctx := context.Background()
	regions := []domain.Region{
		{City: "irvine", Zipcode: "92602"},
		{City: "irvine", Zipcode: "92618"},
		{City: "los angeles", Zipcode: "90001"},
		{City: "tustin", Zipcode: "92780"},
	}
	for _, r := range regions {
		require.NoError(t, s.CreateRegion(ctx, r))
	}

	got, err := s.QueryRegions(ctx, domain.RegionQuery{Cities: []string{"Irvine"}, Zipcodes: []string{"90001"}})
	require.NoError(t, err)
	want := []domain.Region{regions[2], regions[0], regions[1]}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("QueryRegions (-want +got):\n%s", diff)
	}

	all, err := s.QueryRegions(ctx, domain.RegionQuery{})
	require.NoError(t, err)
	assert.Len(t, all, len(regions))

	none, err := s.QueryRegions(ctx, domain.RegionQuery{Cities: []string{"nowhere"}})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func testSeries(t *testing.T, s domain.Persist) {
	ctx := context.Background()
	hs := MonthlySeries("irvine", 2019, 2020)
	require.NoError(t, s.CreateSeries(ctx, hs))

	err := s.CreateSeries(ctx, hs)
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
	assert.ErrorIs(t, err, domain.ErrDatabase)

	got, err := s.ReadSeries(ctx, hs.Key())
	require.NoError(t, err)
	if diff := cmp.Diff(hs, got); diff != "" {
		t.Errorf("ReadSeries (-want +got):\n%s", diff)
	}

	// Update is a full replace: 2019 points disappear.
	replaced := MonthlySeries("irvine", 2020)
	replaced.Prices[0].Value = 1
	require.NoError(t, s.UpdateSeries(ctx, replaced))
	got, err = s.ReadSeries(ctx, hs.Key())
	require.NoError(t, err)
	if diff := cmp.Diff(replaced, got); diff != "" {
		t.Errorf("after update (-want +got):\n%s", diff)
	}

	assert.ErrorIs(t, s.UpdateSeries(ctx, MonthlySeries("tustin", 2020)), domain.ErrNotFound)

	require.NoError(t, s.DeleteSeries(ctx, hs.Key()))
	_, err = s.ReadSeries(ctx, hs.Key())
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, s.DeleteSeries(ctx, hs.Key()), domain.ErrNotFound)

	// The key is free again after delete.
	require.NoError(t, s.CreateSeries(ctx, hs))
}

func testSeriesQuery(t *testing.T, s domain.Persist) {
	ctx := context.Background()
	irvine := MonthlySeries("irvine", 2019, 2020, 2021)
	tustin := MonthlySeries("tustin", 2019, 2020, 2021)
	county := MonthlySeries("orange county", 2020)
	county.RegionType = domain.RegionCounty
	for _, hs := range []domain.HomeValueSeries{irvine, tustin, county} {
		require.NoError(t, s.CreateSeries(ctx, hs))
	}

	years, err := s.QuerySeries(ctx, domain.SeriesQuery{
		StartDate: Day(2019, time.June, 1), EndDate: Day(2021, time.December, 31),
		Interval: domain.IntervalYear, RegionName: "irvine", RegionType: domain.RegionCity,
		HomeType: domain.HomeAll, Percentile: domain.PercentileMiddle,
	})
	require.NoError(t, err)
	require.Len(t, years, 1)
	want := []domain.PricePoint{
		{Date: Day(2020, time.January, 1), Value: 202001},
		{Date: Day(2021, time.January, 1), Value: 202101},
	}
	if diff := cmp.Diff(want, years[0].Prices); diff != "" {
		t.Errorf("year sampling (-want +got):\n%s", diff)
	}

	months, err := s.QuerySeries(ctx, domain.SeriesQuery{
		StartDate: Day(2020, time.March, 15), EndDate: Day(2020, time.May, 2),
		Interval: domain.IntervalMonth, RegionName: "tustin",
	})
	require.NoError(t, err)
	require.Len(t, months, 1)
	want = []domain.PricePoint{
		{Date: Day(2020, time.March, 1), Value: 202003},
		{Date: Day(2020, time.April, 1), Value: 202004},
		{Date: Day(2020, time.May, 1), Value: 202005},
	}
	if diff := cmp.Diff(want, months[0].Prices); diff != "" {
		t.Errorf("month sampling (-want +got):\n%s", diff)
	}

	cities, err := s.QuerySeries(ctx, domain.SeriesQuery{
		StartDate: Day(2020, time.January, 1), EndDate: Day(2020, time.January, 1),
		Interval: domain.IntervalDay, RegionType: domain.RegionCity,
	})
	require.NoError(t, err)
	require.Len(t, cities, 2)
	assert.Equal(t, "irvine", cities[0].RegionName)
	assert.Equal(t, "tustin", cities[1].RegionName)
	for _, hs := range cities {
		assert.Len(t, hs.Prices, 1)
	}

	empty, err := s.QuerySeries(ctx, domain.SeriesQuery{RegionName: "nowhere"})
	require.NoError(t, err)
	assert.Empty(t, empty)
}
