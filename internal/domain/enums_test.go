package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRegionType(t *testing.T) {
	tests := []struct {
		in   string
		want RegionType
	}{
		{"threezip", RegionThreeZip},
		{"FiveZip", RegionFiveZip},
		{"CITY", RegionCity},
		{" county ", RegionCounty},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRegionType(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseEnums_Unknown(t *testing.T) {
	_, err := ParseRegionType("state")
	require.ErrorIs(t, err, ErrParse)

	_, err = ParseHomeType("townhouse")
	require.ErrorIs(t, err, ErrParse)

	_, err = ParsePercentile("median")
	require.ErrorIs(t, err, ErrParse)

	_, err = ParseTerm("thirtyyear")
	require.ErrorIs(t, err, ErrParse)

	_, err = ParseInterval("week")
	require.ErrorIs(t, err, ErrParse)
}

func TestParseInterval(t *testing.T) {
	tests := map[string]Interval{
		"":      IntervalYear,
		"year":  IntervalYear,
		"Month": IntervalMonth,
		"DAY":   IntervalDay,
	}
	for in, want := range tests {
		got, err := ParseInterval(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestInterval_ZeroValueIsYear(t *testing.T) {
	var q YieldQuery
	assert.Equal(t, IntervalYear, q.Interval)
}

func TestEnumRoundTripNames(t *testing.T) {
	assert.Equal(t, "allhomes", HomeAll.String())
	assert.Equal(t, "condocoops", HomeCondoCoOps.String())
	assert.Equal(t, "singlefamilyhomes", HomeSingleFamily.String())
	assert.Equal(t, "middle", PercentileMiddle.String())
	assert.Equal(t, "tenyear", TermTenYear.String())

	for _, h := range []HomeType{HomeAll, HomeCondoCoOps, HomeSingleFamily} {
		got, err := ParseHomeType(h.String())
		require.NoError(t, err)
		assert.Equal(t, h, got)
	}
}

func TestEnumJSON(t *testing.T) {
	key := SeriesKey{
		RegionName: "irvine",
		RegionType: RegionCity,
		HomeType:   HomeAll,
		Percentile: PercentileMiddle,
	}
	data, err := json.Marshal(key)
	require.NoError(t, err)
	assert.JSONEq(t, `{"region_name":"irvine","region_type":"city","home_type":"allhomes","percentile":"middle"}`, string(data))

	var got SeriesKey
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, key, got)
}

func TestEnumJSON_InvalidValue(t *testing.T) {
	_, err := json.Marshal(SeriesKey{RegionName: "x"})
	require.Error(t, err)
}
