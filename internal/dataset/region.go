package dataset

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/couchcryptid/homie-data/internal/domain"
)

// HUD USPS ZIP crosswalk columns.
const (
	crosswalkZipColumn   = 0
	crosswalkCityColumn  = 2
	crosswalkStateColumn = 3
)

// ReadRegions reads a HUD ZIP crosswalk and keeps only rows whose state
// equals state and whose city is on the allow-list in citiesPath. Cities are
// lower-cased and each zipcode keeps the first allowed city seen for it.
// Either path empty disables the family.
func ReadRegions(crosswalkPath, citiesPath, state string) ([]domain.Region, error) {
	if crosswalkPath == "" || citiesPath == "" {
		return nil, nil
	}
	allowed, err := ReadCities(citiesPath)
	if err != nil {
		return nil, err
	}

	var out []domain.Region
	seen := make(map[string]struct{})
	err = readFile(crosswalkPath, func(_ []string, r *csv.Reader) error {
		return eachRow(r, func(line int, row []string) error {
			zip := cell(row, crosswalkZipColumn)
			if _, err := strconv.Atoi(zip); err != nil {
				return fmt.Errorf("line %d: %w", line, domain.ParseErrorf("zipcode %q is not numeric", zip))
			}
			if !strings.EqualFold(cell(row, crosswalkStateColumn), state) {
				return nil
			}
			city := normalizeCity(cell(row, crosswalkCityColumn))
			if _, ok := allowed[city]; !ok {
				return nil
			}
			if _, dup := seen[zip]; dup {
				return nil
			}
			seen[zip] = struct{}{}
			out = append(out, domain.Region{City: city, Zipcode: zip})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ReadCities reads the city allow-list: a header row followed by one city
// per row in column 0.
func ReadCities(path string) (map[string]struct{}, error) {
	cities := make(map[string]struct{})
	err := readFile(path, func(_ []string, r *csv.Reader) error {
		return eachRow(r, func(_ int, row []string) error {
			if city := normalizeCity(cell(row, 0)); city != "" {
				cities[city] = struct{}{}
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return cities, nil
}

func normalizeCity(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
