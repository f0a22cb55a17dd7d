package domain

import (
	"fmt"
	"sort"

	"cloud.google.com/go/civil"
)

// HomePriceIndex is one annual HPI observation for a region. Optional fields
// are nil when the source cell was blank or unparsable.
type HomePriceIndex struct {
	RegionType   RegionType `json:"region_type"`
	RegionName   string     `json:"region_name"`
	Year         int        `json:"year"`
	HPI          *float64   `json:"hpi"`
	AnnualChange *float64   `json:"annual_change"`
	Base1990     *float64   `json:"base1990"`
	Base2000     *float64   `json:"base2000"`
}

// HPIKey identifies a HomePriceIndex.
type HPIKey struct {
	RegionName string `json:"region_name"`
	Year       int    `json:"year"`
}

func (k HPIKey) String() string { return fmt.Sprintf("%s/%d", k.RegionName, k.Year) }

// Key returns the record's identity.
func (h HomePriceIndex) Key() HPIKey {
	return HPIKey{RegionName: h.RegionName, Year: h.Year}
}

// TreasuryYield is one yield observation. Query results carry the bucket
// start as Date and the bucket average as YieldReturn.
type TreasuryYield struct {
	Term        Term       `json:"term"`
	Date        civil.Date `json:"date"`
	YieldReturn *float64   `json:"yield_return"`
}

// YieldKey identifies a TreasuryYield.
type YieldKey struct {
	Term Term       `json:"term"`
	Date civil.Date `json:"date"`
}

func (k YieldKey) String() string { return fmt.Sprintf("%s/%s", k.Term, k.Date) }

// Key returns the record's identity.
func (y TreasuryYield) Key() YieldKey {
	return YieldKey{Term: y.Term, Date: y.Date}
}

// PricePoint is a single dated home value.
type PricePoint struct {
	Date  civil.Date `json:"date"`
	Value float64    `json:"value"`
}

// HomeValueSeries is a home-value time series for one region, home type and
// percentile band. Prices are sorted by date and hold no duplicate dates.
type HomeValueSeries struct {
	RegionName string       `json:"region_name"`
	RegionType RegionType   `json:"region_type"`
	HomeType   HomeType     `json:"home_type"`
	Percentile Percentile   `json:"percentile"`
	Prices     []PricePoint `json:"prices"`
}

// SortPrices orders price points by ascending date.
func SortPrices(prices []PricePoint) {
	sort.SliceStable(prices, func(i, j int) bool {
		return prices[i].Date.Before(prices[j].Date)
	})
}

// SeriesKey identifies a HomeValueSeries.
type SeriesKey struct {
	RegionName string     `json:"region_name"`
	RegionType RegionType `json:"region_type"`
	HomeType   HomeType   `json:"home_type"`
	Percentile Percentile `json:"percentile"`
}

func (k SeriesKey) String() string {
	return fmt.Sprintf("%s/%s/%s/%s", k.RegionName, k.RegionType, k.HomeType, k.Percentile)
}

// Key returns the series identity.
func (s HomeValueSeries) Key() SeriesKey {
	return SeriesKey{
		RegionName: s.RegionName,
		RegionType: s.RegionType,
		HomeType:   s.HomeType,
		Percentile: s.Percentile,
	}
}

// Region maps a zipcode to the single city retained for it. Zipcode is the key.
type Region struct {
	City    string `json:"city"`
	Zipcode string `json:"zipcode"`
}
