package query

import (
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/couchcryptid/homie-data/internal/domain"
)

// HPIFilter selects HPI rows by region and inclusive year range.
func HPIFilter(q domain.HPIQuery) Predicate {
	var ps []Predicate
	if q.RegionName != "" {
		ps = append(ps, Eq{Field: FieldRegionName, Value: q.RegionName})
	}
	if q.StartYear != 0 {
		ps = append(ps, Cmp{Field: FieldYear, Op: OpGTE, Value: q.StartYear})
	}
	if q.EndYear != 0 {
		ps = append(ps, Cmp{Field: FieldYear, Op: OpLTE, Value: q.EndYear})
	}
	return all(ps...)
}

// YieldFilter selects the raw yield rows that feed the buckets.
func YieldFilter(q domain.YieldQuery) Predicate {
	return dateRange(q.StartDate, q.EndDate)
}

// SeriesFilter selects series metadata. Zero-valued key fields are omitted.
func SeriesFilter(q domain.SeriesQuery) Predicate {
	var ps []Predicate
	if q.RegionName != "" {
		ps = append(ps, Eq{Field: FieldRegionName, Value: q.RegionName})
	}
	if q.RegionType != 0 {
		ps = append(ps, Eq{Field: FieldRegionType, Value: q.RegionType.String()})
	}
	if q.HomeType != 0 {
		ps = append(ps, Eq{Field: FieldHomeType, Value: q.HomeType.String()})
	}
	if q.Percentile != 0 {
		ps = append(ps, Eq{Field: FieldPercentile, Value: q.Percentile.String()})
	}
	return all(ps...)
}

// SeriesKeyFilter selects exactly one series.
func SeriesKeyFilter(k domain.SeriesKey) Predicate {
	return And{
		Eq{Field: FieldRegionName, Value: k.RegionName},
		Eq{Field: FieldRegionType, Value: k.RegionType.String()},
		Eq{Field: FieldHomeType, Value: k.HomeType.String()},
		Eq{Field: FieldPercentile, Value: k.Percentile.String()},
	}
}

// PriceFilter selects the price points of a series query:
//
//	Day:   start <= date <= end
//	Month: first of start's month <= date <= last of end's month
//	Year:  start <= date <= end, January points only
//
// Series are sampled, never averaged.
func PriceFilter(q domain.SeriesQuery) Predicate {
	switch q.Interval {
	case domain.IntervalDay:
		return dateRange(q.StartDate, q.EndDate)
	case domain.IntervalMonth:
		start, end := q.StartDate, q.EndDate
		if !isZero(start) {
			start = Truncate(start, domain.IntervalMonth)
		}
		if !isZero(end) {
			end = endOfMonth(end)
		}
		return dateRange(start, end)
	default:
		return all(dateRange(q.StartDate, q.EndDate), MonthEq{Field: FieldDate, Month: time.January})
	}
}

// RegionFilter composes city IN cities OR zipcode IN zipcodes. An empty set
// drops its clause; both empty matches every region.
func RegionFilter(q domain.RegionQuery) Predicate {
	var ps []Predicate
	if cities := normalizeSet(q.Cities, true); len(cities) > 0 {
		ps = append(ps, In{Field: FieldCity, Values: cities, Fold: true})
	}
	if zips := normalizeSet(q.Zipcodes, false); len(zips) > 0 {
		ps = append(ps, In{Field: FieldZipcode, Values: zips})
	}
	return anyOf(ps...)
}

func dateRange(start, end civil.Date) Predicate {
	var ps []Predicate
	if !isZero(start) {
		ps = append(ps, Cmp{Field: FieldDate, Op: OpGTE, Value: start})
	}
	if !isZero(end) {
		ps = append(ps, Cmp{Field: FieldDate, Op: OpLTE, Value: end})
	}
	return all(ps...)
}

// normalizeSet trims, optionally lower-cases, and de-duplicates values while
// keeping their first-seen order.
func normalizeSet(values []string, lower bool) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if lower {
			v = strings.ToLower(v)
		}
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func isZero(d civil.Date) bool {
	return d == civil.Date{}
}

// Truncate returns the first day of d's bucket.
func Truncate(d civil.Date, interval domain.Interval) civil.Date {
	switch interval {
	case domain.IntervalDay:
		return d
	case domain.IntervalMonth:
		return civil.Date{Year: d.Year, Month: d.Month, Day: 1}
	default:
		return civil.Date{Year: d.Year, Month: time.January, Day: 1}
	}
}

func endOfMonth(d civil.Date) civil.Date {
	return civil.DateOf(time.Date(d.Year, d.Month+1, 0, 0, 0, 0, 0, time.UTC))
}
