package dataset

import (
	"encoding/csv"
	"fmt"

	"cloud.google.com/go/civil"

	"github.com/couchcryptid/homie-data/internal/domain"
)

// SeriesLayout describes a wide ZHVI file: where the region name sits,
// where the monthly price columns begin, and the fixed tags every series in
// the file carries.
type SeriesLayout struct {
	NameColumn  int
	PriceOffset int
	RegionType  domain.RegionType
	HomeType    domain.HomeType
	Percentile  domain.Percentile
}

// City files have one metadata column fewer than ZIP and county files, so
// their prices begin at column 8 instead of 9.
var (
	CityAllHomesLayout = SeriesLayout{
		NameColumn:  2,
		PriceOffset: 8,
		RegionType:  domain.RegionCity,
		HomeType:    domain.HomeAll,
		Percentile:  domain.PercentileMiddle,
	}
	CountyAllHomesLayout = SeriesLayout{
		NameColumn:  2,
		PriceOffset: 9,
		RegionType:  domain.RegionCounty,
		HomeType:    domain.HomeAll,
		Percentile:  domain.PercentileMiddle,
	}
	ZipAllHomesLayout = SeriesLayout{
		NameColumn:  2,
		PriceOffset: 9,
		RegionType:  domain.RegionFiveZip,
		HomeType:    domain.HomeAll,
		Percentile:  domain.PercentileMiddle,
	}
)

// ReadSeries reads a wide home-value file into one series per row. A price
// header that is not a YYYY-MM-DD date fails the read; a blank or
// unparsable price cell becomes 0.0.
func ReadSeries(path string, layout SeriesLayout) ([]domain.HomeValueSeries, error) {
	if path == "" {
		return nil, nil
	}
	var out []domain.HomeValueSeries
	err := readFile(path, func(header []string, r *csv.Reader) error {
		n := newNormalizer(header, layout)
		return eachRow(r, func(line int, row []string) error {
			s, err := n.normalize(row)
			if err != nil {
				return fmt.Errorf("line %d: %w", line, err)
			}
			out = append(out, s)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// normalizer turns wide rows into long-format price lists. Header dates are
// parsed once and reused for every row.
type normalizer struct {
	header []string
	dates  []civil.Date
	errs   []error
	layout SeriesLayout
}

func newNormalizer(header []string, layout SeriesLayout) *normalizer {
	n := &normalizer{header: header, layout: layout}
	for i := layout.PriceOffset; i < len(header); i++ {
		d, err := civil.ParseDate(cell(header, i))
		n.dates = append(n.dates, d)
		n.errs = append(n.errs, err)
	}
	return n
}

// dateAt returns the header date of column i.
func (n *normalizer) dateAt(i int) (civil.Date, error) {
	j := i - n.layout.PriceOffset
	if j >= len(n.dates) {
		return civil.Date{}, domain.ParseErrorf("column %d has no date header", i)
	}
	if n.errs[j] != nil {
		return civil.Date{}, domain.ParseErrorf("column %d header %q is not a date", i, cell(n.header, i))
	}
	return n.dates[j], nil
}

func (n *normalizer) normalize(row []string) (domain.HomeValueSeries, error) {
	name := cell(row, n.layout.NameColumn)
	if name == "" {
		return domain.HomeValueSeries{}, domain.ParseErrorf("missing region name")
	}

	// Every date column yields a point; a short row is zero-filled and a
	// row longer than the header fails on its first undated cell.
	end := max(len(row), len(n.header))
	prices := make([]domain.PricePoint, 0, max(end-n.layout.PriceOffset, 0))
	seen := make(map[civil.Date]struct{}, cap(prices))
	for i := n.layout.PriceOffset; i < end; i++ {
		date, err := n.dateAt(i)
		if err != nil {
			return domain.HomeValueSeries{}, err
		}
		if _, dup := seen[date]; dup {
			return domain.HomeValueSeries{}, domain.ParseErrorf("duplicate date %s", date)
		}
		seen[date] = struct{}{}
		prices = append(prices, domain.PricePoint{Date: date, Value: parseFloatOrZero(cell(row, i))})
	}
	domain.SortPrices(prices)

	return domain.HomeValueSeries{
		RegionName: name,
		RegionType: n.layout.RegionType,
		HomeType:   n.layout.HomeType,
		Percentile: n.layout.Percentile,
		Prices:     prices,
	}, nil
}
