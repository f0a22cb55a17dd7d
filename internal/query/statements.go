package query

import (
	"fmt"

	"github.com/couchcryptid/homie-data/internal/domain"
)

// Statement is a parameterized SQL query.
type Statement struct {
	SQL  string
	Args []any
}

func where(d Dialect, p Predicate) (string, []any) {
	return NewWhereBuilder(d).Build(p)
}

// HPIStatement selects HPI rows matching q.
func HPIStatement(q domain.HPIQuery, d Dialect) Statement {
	clause, args := where(d, HPIFilter(q))
	return Statement{
		SQL: "SELECT region_type, region_name, year, hpi, annual_change, base1990, base2000 " +
			"FROM hpis WHERE " + clause + " ORDER BY region_name, year",
		Args: args,
	}
}

// YieldStatement averages yields per term and interval bucket. The bucket
// column is YYYY-MM-DD text.
func YieldStatement(q domain.YieldQuery, d Dialect) Statement {
	clause, args := where(d, YieldFilter(q))
	bucket := d.Bucket(string(FieldDate), q.Interval)
	return Statement{
		SQL: fmt.Sprintf("SELECT term, %[1]s AS bucket, AVG(yield_return) FROM tyields WHERE %[2]s "+
			"GROUP BY term, %[1]s ORDER BY term, bucket", bucket, clause),
		Args: args,
	}
}

// SeriesMetadataStatement selects the keys of the series matching q.
func SeriesMetadataStatement(q domain.SeriesQuery, d Dialect) Statement {
	clause, args := where(d, SeriesFilter(q))
	return Statement{
		SQL: "SELECT region_name, region_type, home_type, percentile FROM zhvi_metadata WHERE " +
			clause + " ORDER BY region_name, region_type, home_type, percentile",
		Args: args,
	}
}

// SeriesPricesStatement selects the price points of one series that q
// keeps, ascending by date.
func SeriesPricesStatement(k domain.SeriesKey, q domain.SeriesQuery, d Dialect) Statement {
	return pricesStatement(all(SeriesKeyFilter(k), PriceFilter(q)), d)
}

// AllPricesStatement selects every price point of one series.
func AllPricesStatement(k domain.SeriesKey, d Dialect) Statement {
	return pricesStatement(SeriesKeyFilter(k), d)
}

func pricesStatement(p Predicate, d Dialect) Statement {
	clause, args := where(d, p)
	return Statement{
		SQL:  "SELECT CAST(date AS TEXT), value FROM zhvi_prices WHERE " + clause + " ORDER BY date",
		Args: args,
	}
}

// RegionStatement selects regions matching q.
func RegionStatement(q domain.RegionQuery, d Dialect) Statement {
	clause, args := where(d, RegionFilter(q))
	return Statement{
		SQL:  "SELECT city, zipcode FROM regions WHERE " + clause + " ORDER BY zipcode",
		Args: args,
	}
}
