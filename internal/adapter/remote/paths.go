package remote

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/couchcryptid/homie-data/internal/domain"
	"github.com/couchcryptid/homie-data/internal/query"
)

// Collection paths.
const (
	pathHPIs    = "/hpis"
	pathYields  = "/yields"
	pathRegions = "/regions"
	pathSeries  = "/series"
	querySuffix = "/query"
)

func join(collection string, segments ...string) string {
	var b strings.Builder
	b.WriteString(collection)
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(s))
	}
	return b.String()
}

func hpiPath(k domain.HPIKey) string {
	return join(pathHPIs, k.RegionName, strconv.Itoa(k.Year))
}

func yieldPath(k domain.YieldKey) string {
	return join(pathYields, k.Term.String(), k.Date.String())
}

func regionPath(zipcode string) string {
	return join(pathRegions, zipcode)
}

func seriesPath(k domain.SeriesKey) string {
	return join(pathSeries, k.RegionName, k.RegionType.String(), k.HomeType.String(), k.Percentile.String())
}

// queryRequest is the body of POST /{family}/query. Filter selects records
// (series metadata for the series family). Prices selects the price points
// of each matching series. Interval is the yield bucket size.
type queryRequest struct {
	Filter   query.Node  `json:"filter"`
	Prices   *query.Node `json:"prices,omitempty"`
	Interval string      `json:"interval,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}
