package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/homie-data/internal/domain"
)

func writeCSV(t *testing.T, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600))
	return path
}

func ptr(v float64) *float64 { return &v }

func date(y int, m time.Month, d int) civil.Date {
	return civil.Date{Year: y, Month: m, Day: d}
}

func TestReaders_EmptyPathDisablesFamily(t *testing.T) {
	hpis, err := ReadHPIs("", domain.RegionThreeZip)
	require.NoError(t, err)
	assert.Empty(t, hpis)

	county, err := ReadCountyHPIs("")
	require.NoError(t, err)
	assert.Empty(t, county)

	yields, err := ReadYields("", domain.TermTenYear)
	require.NoError(t, err)
	assert.Empty(t, yields)

	series, err := ReadSeries("", CityAllHomesLayout)
	require.NoError(t, err)
	assert.Empty(t, series)

	regions, err := ReadRegions("", "", "CA")
	require.NoError(t, err)
	assert.Empty(t, regions)
}

func TestReaders_MissingFileIsParseError(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.csv")

	_, err := ReadHPIs(missing, domain.RegionFiveZip)
	require.ErrorIs(t, err, domain.ErrParse)

	_, err = ReadYields(missing, domain.TermTenYear)
	require.ErrorIs(t, err, domain.ErrParse)

	_, err = ReadSeries(missing, ZipAllHomesLayout)
	require.ErrorIs(t, err, domain.ErrParse)
}

func TestReadHPIs(t *testing.T) {
	path := writeCSV(t, "hpi_3zip.csv",
		"Three-Digit ZIP Code,Year,Annual Change (%),HPI,HPI with 1990 base,HPI with 2000 base",
		"926,2021,12.51,512.34,250.10,180.50",
		"926,2022,,530.00,.,190.25",
	)

	got, err := ReadHPIs(path, domain.RegionThreeZip)
	require.NoError(t, err)

	want := []domain.HomePriceIndex{
		{
			RegionType:   domain.RegionThreeZip,
			RegionName:   "926",
			Year:         2021,
			AnnualChange: ptr(12.51),
			HPI:          ptr(512.34),
			Base1990:     ptr(250.10),
			Base2000:     ptr(180.50),
		},
		{
			RegionType: domain.RegionThreeZip,
			RegionName: "926",
			Year:       2022,
			HPI:        ptr(530.00),
			Base2000:   ptr(190.25),
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ReadHPIs mismatch (-want +got):\n%s", diff)
	}
}

func TestReadHPIs_MalformedOptionalCellIsNil(t *testing.T) {
	path := writeCSV(t, "hpi_5zip.csv",
		"Five-Digit ZIP Code,Year,Annual Change (%),HPI,HPI with 1990 base,HPI with 2000 base",
		"92602,2020,3.1,n/a,101.5,99.9",
	)

	got, err := ReadHPIs(path, domain.RegionFiveZip)
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Nil(t, got[0].HPI)
	assert.Equal(t, ptr(3.1), got[0].AnnualChange)
	assert.Equal(t, ptr(101.5), got[0].Base1990)
	assert.Equal(t, ptr(99.9), got[0].Base2000)
	assert.Equal(t, 2020, got[0].Year)
}

func TestReadHPIs_NonFiniteCellIsNil(t *testing.T) {
	path := writeCSV(t, "hpi_5zip.csv",
		"Five-Digit ZIP Code,Year,Annual Change (%),HPI,HPI with 1990 base,HPI with 2000 base",
		"92602,2020,NaN,Inf,-Inf,99.9",
	)

	got, err := ReadHPIs(path, domain.RegionFiveZip)
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Nil(t, got[0].AnnualChange)
	assert.Nil(t, got[0].HPI)
	assert.Nil(t, got[0].Base1990)
	assert.Equal(t, ptr(99.9), got[0].Base2000)
}

func TestReadHPIs_NonNumericYearIsParseError(t *testing.T) {
	path := writeCSV(t, "hpi_bad.csv",
		"Five-Digit ZIP Code,Year,Annual Change (%),HPI,HPI with 1990 base,HPI with 2000 base",
		"92602,twenty,3.1,100,101.5,99.9",
	)

	_, err := ReadHPIs(path, domain.RegionFiveZip)
	require.ErrorIs(t, err, domain.ErrParse)
	assert.Contains(t, err.Error(), "line 2")
}

func TestReadCountyHPIs(t *testing.T) {
	t.Run("state then county", func(t *testing.T) {
		path := writeCSV(t, "county.csv",
			"State,County,Year,Annual Change (%),HPI,HPI with 1990 base,HPI with 2000 base",
			"CA,Orange,2021,10.0,400.5,210.0,170.0",
		)
		got, err := ReadCountyHPIs(path)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, domain.RegionCounty, got[0].RegionType)
		assert.Equal(t, "Orange", got[0].RegionName)
		assert.Equal(t, 2021, got[0].Year)
		assert.Equal(t, ptr(10.0), got[0].AnnualChange)
		assert.Equal(t, ptr(400.5), got[0].HPI)
		assert.Equal(t, ptr(170.0), got[0].Base2000)
	})

	t.Run("with FIPS column", func(t *testing.T) {
		path := writeCSV(t, "county_fips.csv",
			"State,County,FIPS code,Year,Annual Change (%),HPI,HPI with 1990 base,HPI with 2000 base",
			"CA,Orange,06059,2021,10.0,400.5,210.0,170.0",
		)
		got, err := ReadCountyHPIs(path)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Orange", got[0].RegionName)
		assert.Equal(t, 2021, got[0].Year)
		assert.Equal(t, ptr(400.5), got[0].HPI)
		assert.Equal(t, ptr(210.0), got[0].Base1990)
	})
}

func TestReadYields(t *testing.T) {
	path := writeCSV(t, "FRB_H15.csv",
		"Series Description,Market yield on U.S. Treasury securities at 10-year constant maturity",
		"2021-01,1.08",
		"2021-02,ND",
		"2021-03-15,1.61",
	)

	got, err := ReadYields(path, domain.TermTenYear)
	require.NoError(t, err)

	want := []domain.TreasuryYield{
		{Term: domain.TermTenYear, Date: date(2021, time.January, 1), YieldReturn: ptr(1.08)},
		{Term: domain.TermTenYear, Date: date(2021, time.February, 1)},
		{Term: domain.TermTenYear, Date: date(2021, time.March, 15), YieldReturn: ptr(1.61)},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ReadYields mismatch (-want +got):\n%s", diff)
	}
}

func TestReadYields_BadPeriod(t *testing.T) {
	path := writeCSV(t, "FRB_H15.csv",
		"Series Description,Yield",
		"2021-13,1.08",
	)
	_, err := ReadYields(path, domain.TermTenYear)
	require.ErrorIs(t, err, domain.ErrParse)
}

func TestReadSeries_City(t *testing.T) {
	path := writeCSV(t, "City_zhvi.csv",
		"RegionID,SizeRank,RegionName,RegionType,StateName,State,Metro,CountyName,2021-02-28,2021-01-31,2021-03-31",
		"1,0,Irvine,city,CA,CA,Los Angeles,Orange County,1000.5,990.0,",
	)

	got, err := ReadSeries(path, CityAllHomesLayout)
	require.NoError(t, err)
	require.Len(t, got, 1)

	want := domain.HomeValueSeries{
		RegionName: "Irvine",
		RegionType: domain.RegionCity,
		HomeType:   domain.HomeAll,
		Percentile: domain.PercentileMiddle,
		Prices: []domain.PricePoint{
			{Date: date(2021, time.January, 31), Value: 990.0},
			{Date: date(2021, time.February, 28), Value: 1000.5},
			{Date: date(2021, time.March, 31), Value: 0.0},
		},
	}
	if diff := cmp.Diff(want, got[0]); diff != "" {
		t.Errorf("ReadSeries mismatch (-want +got):\n%s", diff)
	}
}

func TestReadSeries_ShortRowZeroFillsMissingColumns(t *testing.T) {
	path := writeCSV(t, "City_zhvi.csv",
		"RegionID,SizeRank,RegionName,RegionType,StateName,State,Metro,CountyName,2021-01-31,2021-02-28,2021-03-31",
		"1,0,Irvine,city,CA,CA,Los Angeles,Orange County,990.0",
	)

	got, err := ReadSeries(path, CityAllHomesLayout)
	require.NoError(t, err)
	require.Len(t, got, 1)

	want := []domain.PricePoint{
		{Date: date(2021, time.January, 31), Value: 990.0},
		{Date: date(2021, time.February, 28), Value: 0.0},
		{Date: date(2021, time.March, 31), Value: 0.0},
	}
	if diff := cmp.Diff(want, got[0].Prices); diff != "" {
		t.Errorf("prices mismatch (-want +got):\n%s", diff)
	}
}

func TestReadSeries_RowLongerThanHeaderIsParseError(t *testing.T) {
	path := writeCSV(t, "City_zhvi.csv",
		"RegionID,SizeRank,RegionName,RegionType,StateName,State,Metro,CountyName,2021-01-31",
		"1,0,Irvine,city,CA,CA,Los Angeles,Orange County,990.0,1000.0",
	)

	_, err := ReadSeries(path, CityAllHomesLayout)
	require.ErrorIs(t, err, domain.ErrParse)
	assert.Contains(t, err.Error(), "has no date header")
}

func TestReadSeries_NonFinitePriceIsZero(t *testing.T) {
	path := writeCSV(t, "City_zhvi.csv",
		"RegionID,SizeRank,RegionName,RegionType,StateName,State,Metro,CountyName,2021-01-31,2021-02-28,2021-03-31",
		"1,0,Irvine,city,CA,CA,Los Angeles,Orange County,NaN,+Inf,512.5",
	)

	got, err := ReadSeries(path, CityAllHomesLayout)
	require.NoError(t, err)
	require.Len(t, got, 1)

	values := make([]float64, 0, len(got[0].Prices))
	for _, p := range got[0].Prices {
		values = append(values, p.Value)
	}
	assert.Equal(t, []float64{0, 0, 512.5}, values)
}

func TestReadSeries_ZipOffsetSkipsCountyColumn(t *testing.T) {
	path := writeCSV(t, "Zip_zhvi.csv",
		"RegionID,SizeRank,RegionName,RegionType,StateName,State,City,Metro,CountyName,2021-01-31,2021-02-28",
		"9,12,92602,zip,CA,CA,Irvine,Los Angeles,Orange County,800000,abc",
	)

	got, err := ReadSeries(path, ZipAllHomesLayout)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "92602", got[0].RegionName)
	assert.Equal(t, domain.RegionFiveZip, got[0].RegionType)
	require.Len(t, got[0].Prices, 2)
	assert.Equal(t, 800000.0, got[0].Prices[0].Value)
	assert.Equal(t, 0.0, got[0].Prices[1].Value, "unparsable price becomes zero")
}

func TestReadSeries_CityOffsetOnCountyFileMisreadsHeader(t *testing.T) {
	path := writeCSV(t, "County_zhvi.csv",
		"RegionID,SizeRank,RegionName,RegionType,StateName,State,Metro,StateCodeFIPS,MunicipalCodeFIPS,2021-01-31",
		"3,1,Orange County,county,CA,CA,Los Angeles,06,059,900000",
	)

	_, err := ReadSeries(path, CityAllHomesLayout)
	require.ErrorIs(t, err, domain.ErrParse)

	got, err := ReadSeries(path, CountyAllHomesLayout)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.RegionCounty, got[0].RegionType)
	assert.Len(t, got[0].Prices, 1)
}

func TestReadSeries_MalformedHeaderFailsRow(t *testing.T) {
	path := writeCSV(t, "City_zhvi.csv",
		"RegionID,SizeRank,RegionName,RegionType,StateName,State,Metro,CountyName,2021-01-31,Feb 2021",
		"1,0,Irvine,city,CA,CA,Los Angeles,Orange County,1,2",
	)
	_, err := ReadSeries(path, CityAllHomesLayout)
	require.ErrorIs(t, err, domain.ErrParse)
	assert.Contains(t, err.Error(), "column 9")
}

func TestReadSeries_DuplicateHeaderDate(t *testing.T) {
	path := writeCSV(t, "City_zhvi.csv",
		"RegionID,SizeRank,RegionName,RegionType,StateName,State,Metro,CountyName,2021-01-31,2021-01-31",
		"1,0,Irvine,city,CA,CA,Los Angeles,Orange County,1,2",
	)
	_, err := ReadSeries(path, CityAllHomesLayout)
	require.ErrorIs(t, err, domain.ErrParse)
}

func TestReadRegions(t *testing.T) {
	crosswalk := writeCSV(t, "ZIP_COUNTY.csv",
		"ZIP,COUNTY,USPS_ZIP_PREF_CITY,USPS_ZIP_PREF_STATE,RES_RATIO,BUS_RATIO",
		"92602,06059,IRVINE,CA,1.0,1.0",
		"92602,06059,TUSTIN,CA,0.2,0.1",
		"92618,06059,Irvine,CA,1.0,1.0",
		"97201,41051,PORTLAND,OR,1.0,1.0",
		"90210,06037,BEVERLY HILLS,CA,1.0,1.0",
		"92780,06059,TUSTIN,CA,1.0,1.0",
	)
	cities := writeCSV(t, "cities.csv",
		"city",
		"Irvine",
		"Tustin",
		"Portland",
	)

	got, err := ReadRegions(crosswalk, cities, "CA")
	require.NoError(t, err)

	want := []domain.Region{
		{City: "irvine", Zipcode: "92602"},
		{City: "irvine", Zipcode: "92618"},
		{City: "tustin", Zipcode: "92780"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ReadRegions mismatch (-want +got):\n%s", diff)
	}
}

func TestReadRegions_NonNumericZipcode(t *testing.T) {
	crosswalk := writeCSV(t, "ZIP_COUNTY.csv",
		"ZIP,COUNTY,USPS_ZIP_PREF_CITY,USPS_ZIP_PREF_STATE",
		"ABCDE,06059,IRVINE,CA",
	)
	cities := writeCSV(t, "cities.csv", "city", "irvine")

	_, err := ReadRegions(crosswalk, cities, "CA")
	require.ErrorIs(t, err, domain.ErrParse)
}

func TestReadRegions_MissingAllowListDisables(t *testing.T) {
	crosswalk := writeCSV(t, "ZIP_COUNTY.csv",
		"ZIP,COUNTY,USPS_ZIP_PREF_CITY,USPS_ZIP_PREF_STATE",
		"92602,06059,IRVINE,CA",
	)
	got, err := ReadRegions(crosswalk, "", "CA")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestReaders_HeaderOnlyFileIsEmpty(t *testing.T) {
	path := writeCSV(t, "hpi.csv", "Three-Digit ZIP Code,Year,Annual Change (%),HPI")
	got, err := ReadHPIs(path, domain.RegionThreeZip)
	require.NoError(t, err)
	assert.Empty(t, got)
}
