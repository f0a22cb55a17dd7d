package query

import (
	"sort"

	"github.com/couchcryptid/homie-data/internal/domain"
)

// HPIRecord exposes an HPI row to Eval.
func HPIRecord(h domain.HomePriceIndex) Record {
	return func(f Field) any {
		switch f {
		case FieldRegionName:
			return h.RegionName
		case FieldRegionType:
			return h.RegionType.String()
		case FieldYear:
			return h.Year
		}
		return nil
	}
}

// YieldRecord exposes a yield row to Eval.
func YieldRecord(y domain.TreasuryYield) Record {
	return func(f Field) any {
		switch f {
		case FieldTerm:
			return y.Term.String()
		case FieldDate:
			return y.Date
		}
		return nil
	}
}

// SeriesRecord exposes series metadata to Eval.
func SeriesRecord(s domain.HomeValueSeries) Record {
	return func(f Field) any {
		switch f {
		case FieldRegionName:
			return s.RegionName
		case FieldRegionType:
			return s.RegionType.String()
		case FieldHomeType:
			return s.HomeType.String()
		case FieldPercentile:
			return s.Percentile.String()
		}
		return nil
	}
}

// PriceRecord exposes a price point to Eval.
func PriceRecord(p domain.PricePoint) Record {
	return func(f Field) any {
		if f == FieldDate {
			return p.Date
		}
		return nil
	}
}

// RegionRecord exposes a region to Eval.
func RegionRecord(r domain.Region) Record {
	return func(f Field) any {
		switch f {
		case FieldCity:
			return r.City
		case FieldZipcode:
			return r.Zipcode
		}
		return nil
	}
}

// FilterHPIs returns the rows matching q.
func FilterHPIs(rows []domain.HomePriceIndex, q domain.HPIQuery) []domain.HomePriceIndex {
	p := HPIFilter(q)
	var out []domain.HomePriceIndex
	for _, h := range rows {
		if Eval(p, HPIRecord(h)) {
			out = append(out, h)
		}
	}
	return out
}

// BucketYields filters rows by q and collapses them into one row per term
// and bucket. The bucket value is the mean of the non-nil yields in it, or
// nil when all are nil. Results are ordered by term then date.
func BucketYields(rows []domain.TreasuryYield, q domain.YieldQuery) []domain.TreasuryYield {
	type bucket struct {
		sum   float64
		count int
	}
	p := YieldFilter(q)
	buckets := make(map[domain.YieldKey]*bucket)
	for _, y := range rows {
		if !Eval(p, YieldRecord(y)) {
			continue
		}
		key := domain.YieldKey{Term: y.Term, Date: Truncate(y.Date, q.Interval)}
		b, ok := buckets[key]
		if !ok {
			b = &bucket{}
			buckets[key] = b
		}
		if y.YieldReturn != nil {
			b.sum += *y.YieldReturn
			b.count++
		}
	}

	out := make([]domain.TreasuryYield, 0, len(buckets))
	for key, b := range buckets {
		y := domain.TreasuryYield{Term: key.Term, Date: key.Date}
		if b.count > 0 {
			avg := b.sum / float64(b.count)
			y.YieldReturn = &avg
		}
		out = append(out, y)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Term != out[j].Term {
			return out[i].Term < out[j].Term
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// FilterSeries returns the series whose metadata matches q, each holding
// only the price points PriceFilter keeps, in ascending date order.
func FilterSeries(rows []domain.HomeValueSeries, q domain.SeriesQuery) []domain.HomeValueSeries {
	meta := SeriesFilter(q)
	prices := PriceFilter(q)
	var out []domain.HomeValueSeries
	for _, s := range rows {
		if !Eval(meta, SeriesRecord(s)) {
			continue
		}
		kept := make([]domain.PricePoint, 0, len(s.Prices))
		for _, pp := range s.Prices {
			if Eval(prices, PriceRecord(pp)) {
				kept = append(kept, pp)
			}
		}
		domain.SortPrices(kept)
		s.Prices = kept
		out = append(out, s)
	}
	return out
}

// FilterRegions returns the regions matching q.
func FilterRegions(rows []domain.Region, q domain.RegionQuery) []domain.Region {
	p := RegionFilter(q)
	var out []domain.Region
	for _, r := range rows {
		if Eval(p, RegionRecord(r)) {
			out = append(out, r)
		}
	}
	return out
}
