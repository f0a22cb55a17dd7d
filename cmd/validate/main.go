// Command validate reads every configured dataset family through the
// ingestion readers and prints a data-quality report: row counts, null HPI
// fields, zero-filled series values, date ranges and duplicate keys. It exits
// non-zero when a family fails to parse or carries duplicate keys.
//
// Paths come from the same environment variables as the ingest command.
//
// Usage:
//
//	THREE_ZIP_HPIS_PATH=data/mock/HPI_AT_3zip.csv ... go run ./cmd/validate
package main

import (
	"fmt"
	"os"

	"cloud.google.com/go/civil"

	"github.com/couchcryptid/homie-data/internal/config"
	"github.com/couchcryptid/homie-data/internal/dataset"
	"github.com/couchcryptid/homie-data/internal/domain"
)

// phase tracks pass/fail for one family.
type phase struct {
	name   string
	rows   int
	notes  []string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) notef(format string, args ...any) {
	p.notes = append(p.notes, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load config: %v\n", err)
		os.Exit(1)
	}
	os.Exit(run(cfg))
}

func run(cfg *config.Config) int {
	fmt.Println("=== Dataset Quality Report ===")
	fmt.Println()

	var phases []*phase
	add := func(path string, p *phase) {
		if path != "" {
			phases = append(phases, p)
		}
	}
	add(cfg.ThreeZipHPIsPath, validateHPIs(dataset.FamilyThreeZipHPI, func() ([]domain.HomePriceIndex, error) {
		return dataset.ReadHPIs(cfg.ThreeZipHPIsPath, domain.RegionThreeZip)
	}))
	add(cfg.FiveZipHPIsPath, validateHPIs(dataset.FamilyFiveZipHPI, func() ([]domain.HomePriceIndex, error) {
		return dataset.ReadHPIs(cfg.FiveZipHPIsPath, domain.RegionFiveZip)
	}))
	add(cfg.CountyHPIsPath, validateHPIs(dataset.FamilyCountyHPI, func() ([]domain.HomePriceIndex, error) {
		return dataset.ReadCountyHPIs(cfg.CountyHPIsPath)
	}))
	add(cfg.TenYearYieldPath, validateYields(cfg.TenYearYieldPath))
	if cfg.CitiesPath != "" {
		add(cfg.ZipCountyPath, validateRegions(cfg.ZipCountyPath, cfg.CitiesPath, cfg.RegionState))
	}
	add(cfg.MidZipAllHomesPath, validateSeries(dataset.FamilyZipSeries, cfg.MidZipAllHomesPath, dataset.ZipAllHomesLayout))
	add(cfg.MidCityAllHomesPath, validateSeries(dataset.FamilyCitySeries, cfg.MidCityAllHomesPath, dataset.CityAllHomesLayout))
	add(cfg.MidCountyAllHomesPath, validateSeries(dataset.FamilyCountySeries, cfg.MidCountyAllHomesPath, dataset.CountyAllHomesLayout))

	if len(phases) == 0 {
		fmt.Println("No dataset paths configured.")
		return 1
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-24s %7d rows  %s\n", p.name, p.rows, status)
		for _, n := range p.notes {
			fmt.Printf("      %s\n", n)
		}
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll families passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── HPI ──

func validateHPIs(family dataset.Family, read func() ([]domain.HomePriceIndex, error)) *phase {
	p := &phase{name: string(family)}
	rows, err := read()
	if err != nil {
		p.errorf("read: %v", err)
		return p
	}
	p.rows = len(rows)

	seen := make(map[domain.HPIKey]struct{}, len(rows))
	var nullHPI, nullChange, nullBase1990, nullBase2000 int
	minYear, maxYear := 0, 0
	for _, h := range rows {
		if _, dup := seen[h.Key()]; dup {
			p.errorf("duplicate key %s", h.Key())
		}
		seen[h.Key()] = struct{}{}
		countNil(&nullHPI, h.HPI)
		countNil(&nullChange, h.AnnualChange)
		countNil(&nullBase1990, h.Base1990)
		countNil(&nullBase2000, h.Base2000)
		if minYear == 0 || h.Year < minYear {
			minYear = h.Year
		}
		maxYear = max(maxYear, h.Year)
	}
	if p.rows == 0 {
		p.notef("no rows")
		return p
	}
	p.notef("years %d..%d, %d regions", minYear, maxYear, distinct(rows, func(h domain.HomePriceIndex) string { return h.RegionName }))
	p.notef("null hpi=%d annual_change=%d base1990=%d base2000=%d", nullHPI, nullChange, nullBase1990, nullBase2000)
	return p
}

// ── Yields ──

func validateYields(path string) *phase {
	p := &phase{name: string(dataset.FamilyTenYearYield)}
	rows, err := dataset.ReadYields(path, domain.TermTenYear)
	if err != nil {
		p.errorf("read: %v", err)
		return p
	}
	p.rows = len(rows)

	seen := make(map[domain.YieldKey]struct{}, len(rows))
	var nulls int
	var r dateRange
	for _, y := range rows {
		if _, dup := seen[y.Key()]; dup {
			p.errorf("duplicate key %s", y.Key())
		}
		seen[y.Key()] = struct{}{}
		countNil(&nulls, y.YieldReturn)
		r.add(y.Date)
	}
	if p.rows == 0 {
		p.notef("no rows")
		return p
	}
	p.notef("dates %s, null yield_return=%d", r, nulls)
	return p
}

// ── Regions ──

func validateRegions(crosswalk, cities, state string) *phase {
	p := &phase{name: string(dataset.FamilyRegion)}
	rows, err := dataset.ReadRegions(crosswalk, cities, state)
	if err != nil {
		p.errorf("read: %v", err)
		return p
	}
	p.rows = len(rows)
	if p.rows == 0 {
		p.notef("no zipcodes retained for state %s", state)
		return p
	}
	p.notef("%d cities retained for state %s", distinct(rows, func(r domain.Region) string { return r.City }), state)
	return p
}

// ── Series ──

func validateSeries(family dataset.Family, path string, layout dataset.SeriesLayout) *phase {
	p := &phase{name: string(family)}
	rows, err := dataset.ReadSeries(path, layout)
	if err != nil {
		p.errorf("read: %v", err)
		return p
	}
	p.rows = len(rows)

	seen := make(map[domain.SeriesKey]struct{}, len(rows))
	var points, zeros int
	var r dateRange
	for _, s := range rows {
		if _, dup := seen[s.Key()]; dup {
			p.errorf("duplicate key %s", s.Key())
		}
		seen[s.Key()] = struct{}{}
		for _, pt := range s.Prices {
			points++
			if pt.Value == 0 {
				zeros++
			}
			r.add(pt.Date)
		}
	}
	if p.rows == 0 {
		p.notef("no rows")
		return p
	}
	p.notef("dates %s, %d price points, %d zero-filled", r, points, zeros)
	return p
}

// ── Helpers ──

func countNil(n *int, v *float64) {
	if v == nil {
		*n++
	}
}

func distinct[T any](rows []T, key func(T) string) int {
	set := make(map[string]struct{})
	for _, r := range rows {
		set[key(r)] = struct{}{}
	}
	return len(set)
}

type dateRange struct {
	first, last civil.Date
	set         bool
}

func (r *dateRange) add(d civil.Date) {
	if !r.set {
		r.first, r.last, r.set = d, d, true
		return
	}
	if d.Before(r.first) {
		r.first = d
	}
	if d.After(r.last) {
		r.last = d
	}
}

func (r dateRange) String() string {
	if !r.set {
		return "none"
	}
	return r.first.String() + ".." + r.last.String()
}
