package dataset

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/couchcryptid/homie-data/internal/domain"
)

// hpiLayout holds the fixed column offsets of an FHFA HPI file.
type hpiLayout struct {
	name, year, annualChange, hpi, base1990, base2000 int
}

var (
	zipHPILayout    = hpiLayout{name: 0, year: 1, annualChange: 2, hpi: 3, base1990: 4, base2000: 5}
	countyHPILayout = hpiLayout{name: 1, year: 2, annualChange: 3, hpi: 4, base1990: 5, base2000: 6}
	// Published county files carry a FIPS code between county and year.
	countyFIPSHPILayout = hpiLayout{name: 1, year: 3, annualChange: 4, hpi: 5, base1990: 6, base2000: 7}
)

// ReadHPIs reads a 3-digit or 5-digit ZIP HPI file.
func ReadHPIs(path string, regionType domain.RegionType) ([]domain.HomePriceIndex, error) {
	if path == "" {
		return nil, nil
	}
	var out []domain.HomePriceIndex
	err := readFile(path, func(_ []string, r *csv.Reader) error {
		var err error
		out, err = parseHPIs(r, zipHPILayout, regionType)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ReadCountyHPIs reads a county HPI file. The state occupies column 0, so
// every field sits one column further right than in the ZIP files, and one
// more when the header names a FIPS column.
func ReadCountyHPIs(path string) ([]domain.HomePriceIndex, error) {
	if path == "" {
		return nil, nil
	}
	var out []domain.HomePriceIndex
	err := readFile(path, func(header []string, r *csv.Reader) error {
		layout := countyHPILayout
		if hasFIPSColumn(header) {
			layout = countyFIPSHPILayout
		}
		var err error
		out, err = parseHPIs(r, layout, domain.RegionCounty)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func hasFIPSColumn(header []string) bool {
	return strings.Contains(strings.ToLower(cell(header, 2)), "fips")
}

func parseHPIs(r *csv.Reader, layout hpiLayout, regionType domain.RegionType) ([]domain.HomePriceIndex, error) {
	var out []domain.HomePriceIndex
	err := eachRow(r, func(line int, row []string) error {
		h, err := parseHPIRow(row, layout, regionType)
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, h)
		return nil
	})
	return out, err
}

func parseHPIRow(row []string, layout hpiLayout, regionType domain.RegionType) (domain.HomePriceIndex, error) {
	name := cell(row, layout.name)
	if name == "" {
		return domain.HomePriceIndex{}, domain.ParseErrorf("missing region name")
	}
	rawYear := cell(row, layout.year)
	year, err := strconv.Atoi(rawYear)
	if err != nil {
		return domain.HomePriceIndex{}, domain.ParseErrorf("year %q is not numeric", rawYear)
	}
	return domain.HomePriceIndex{
		RegionType:   regionType,
		RegionName:   name,
		Year:         year,
		AnnualChange: parseOptionalFloat(cell(row, layout.annualChange)),
		HPI:          parseOptionalFloat(cell(row, layout.hpi)),
		Base1990:     parseOptionalFloat(cell(row, layout.base1990)),
		Base2000:     parseOptionalFloat(cell(row, layout.base2000)),
	}, nil
}
