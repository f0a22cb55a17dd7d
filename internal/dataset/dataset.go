// Package dataset reads the fixed-layout source CSVs into domain records.
//
// Every reader accepts an empty path as "family disabled" and returns an
// empty batch with a nil error. All failures wrap domain.ErrParse.
package dataset

import (
	"encoding/csv"
	"errors"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/couchcryptid/homie-data/internal/domain"
)

// Family names one dataset family. It labels metrics, logs and reports.
type Family string

const (
	FamilyThreeZipHPI  Family = "three_zip_hpi"
	FamilyFiveZipHPI   Family = "five_zip_hpi"
	FamilyCountyHPI    Family = "county_hpi"
	FamilyTenYearYield Family = "ten_year_yield"
	FamilyRegion       Family = "region"
	FamilyZipSeries    Family = "mid_zip_all_homes"
	FamilyCitySeries   Family = "mid_city_all_homes"
	FamilyCountySeries Family = "mid_county_all_homes"
)

// readFile opens path and hands a header-aware CSV reader to fn. The header
// row is returned separately; an empty file has no header and no rows.
func readFile(path string, fn func(header []string, r *csv.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		return domain.ParseErrorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := newReader(f)
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return domain.ParseErrorf("read header of %s: %w", path, err)
	}
	return fn(header, r)
}

func newReader(in io.Reader) *csv.Reader {
	r := csv.NewReader(in)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	return r
}

// eachRow calls fn with every data row and its 1-based line number
// (the header is line 1).
func eachRow(r *csv.Reader, fn func(line int, row []string) error) error {
	line := 1
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		line++
		if err != nil {
			return domain.ParseErrorf("line %d: %w", line, err)
		}
		if isBlank(row) {
			continue
		}
		if err := fn(line, row); err != nil {
			return err
		}
	}
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// cell returns the trimmed value at index i, or "" when the row is short.
func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// parseOptionalFloat returns nil for blank, unparsable or non-finite cells.
func parseOptionalFloat(s string) *float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// parseFloatOrZero returns 0.0 for blank, unparsable or non-finite cells.
func parseFloatOrZero(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
