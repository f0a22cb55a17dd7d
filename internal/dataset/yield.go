package dataset

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/couchcryptid/homie-data/internal/domain"
)

// ReadYields reads a Federal Reserve H.15 series export: the period in
// column 0 (YYYY-MM, or YYYY-MM-DD) and the yield in column 1. Monthly
// periods are dated the first of the month.
func ReadYields(path string, term domain.Term) ([]domain.TreasuryYield, error) {
	if path == "" {
		return nil, nil
	}
	var out []domain.TreasuryYield
	err := readFile(path, func(_ []string, r *csv.Reader) error {
		return eachRow(r, func(line int, row []string) error {
			date, err := parsePeriod(cell(row, 0))
			if err != nil {
				return fmt.Errorf("line %d: %w", line, err)
			}
			out = append(out, domain.TreasuryYield{
				Term:        term,
				Date:        date,
				YieldReturn: parseOptionalFloat(cell(row, 1)),
			})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func parsePeriod(s string) (civil.Date, error) {
	parts := strings.Split(s, "-")
	switch len(parts) {
	case 2:
		year, yerr := strconv.Atoi(parts[0])
		month, merr := strconv.Atoi(parts[1])
		if yerr != nil || merr != nil || month < 1 || month > 12 {
			return civil.Date{}, domain.ParseErrorf("period %q is not YYYY-MM", s)
		}
		return civil.Date{Year: year, Month: time.Month(month), Day: 1}, nil
	case 3:
		d, err := civil.ParseDate(s)
		if err != nil {
			return civil.Date{}, domain.ParseErrorf("period %q: %w", s, err)
		}
		return d, nil
	default:
		return civil.Date{}, domain.ParseErrorf("period %q is not a date", s)
	}
}
