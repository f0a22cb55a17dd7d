// Command genmock writes synthetic dataset files in every fixed source layout
// and reads them back through the dataset readers, so pipeline runs and
// integration tests have deterministic inputs.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock -seed 42 -regions 8 -years 6
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"cloud.google.com/go/civil"

	"github.com/couchcryptid/homie-data/internal/dataset"
	"github.com/couchcryptid/homie-data/internal/domain"
)

// Generated file names follow the published source file names.
const (
	threeZipFile  = "HPI_AT_3zip.csv"
	fiveZipFile   = "HPI_AT_BDL_ZIP5.csv"
	countyFile    = "HPI_AT_BDL_county.csv"
	yieldFile     = "FRB_H15.csv"
	citiesFile    = "cities.csv"
	crosswalkFile = "ZIP_COUNTY.csv"
	cityZHVIFile  = "City_zhvi_uc_sfrcondo_tier_0.33_0.67_sm_sa_month.csv"
	zipZHVIFile   = "Zip_zhvi_uc_sfrcondo_tier_0.33_0.67_sm_sa_month.csv"
	countyZHVI    = "County_zhvi_uc_sfrcondo_tier_0.33_0.67_sm_sa_month.csv"
)

// blankRate is the share of optional cells left empty.
const blankRate = 0.08

var cityNames = []string{"Irvine", "Tustin", "Anaheim", "Orange", "Fullerton", "Costa Mesa", "Newport Beach", "Santa Ana", "Brea", "Placentia"}

type generator struct {
	rng       *rand.Rand
	outDir    string
	regions   int
	startYear int
	years     int
	state     string
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	outDir := flag.String("out", "", "directory to write the generated CSV files into")
	seed := flag.Uint64("seed", 42, "random seed")
	regions := flag.Int("regions", 8, "regions per family")
	startYear := flag.Int("start-year", 2015, "first year of generated observations")
	years := flag.Int("years", 6, "number of years of observations")
	state := flag.String("state", "CA", "state retained by the crosswalk filter")
	flag.Parse()

	if *outDir == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	if *regions <= 0 || *regions > len(cityNames) || *years <= 0 {
		return fmt.Errorf("-regions must be in 1..%d and -years positive", len(cityNames))
	}
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return err
	}

	g := &generator{
		rng:       rand.New(rand.NewPCG(*seed, *seed^0x9e3779b97f4a7c15)),
		outDir:    *outDir,
		regions:   *regions,
		startYear: *startYear,
		years:     *years,
		state:     *state,
	}

	steps := []struct {
		file string
		fn   func(path string) error
	}{
		{threeZipFile, g.writeThreeZipHPIs},
		{fiveZipFile, g.writeFiveZipHPIs},
		{countyFile, g.writeCountyHPIs},
		{yieldFile, g.writeYields},
		{citiesFile, g.writeCities},
		{crosswalkFile, g.writeCrosswalk},
		{cityZHVIFile, g.writeCitySeries},
		{zipZHVIFile, g.writeZipSeries},
		{countyZHVI, g.writeCountySeries},
	}
	for _, s := range steps {
		path := filepath.Join(*outDir, s.file)
		if err := s.fn(path); err != nil {
			return fmt.Errorf("writing %s: %w", s.file, err)
		}
		log.Printf("wrote %s", path)
	}

	return verify(*outDir, *state)
}

// --- HPI ---

func (g *generator) hpiRows(prefix []string, name string) [][]string {
	rows := make([][]string, 0, g.years)
	base := 100 + g.rng.Float64()*300
	for y := range g.years {
		change := -5 + g.rng.Float64()*15
		base *= 1 + change/100
		row := append([]string{}, prefix...)
		row = append(row, name, strconv.Itoa(g.startYear+y),
			g.optional(change), g.optional(base), g.optional(base*0.8), g.optional(base*0.6))
		rows = append(rows, row)
	}
	return rows
}

func (g *generator) writeThreeZipHPIs(path string) error {
	rows := [][]string{{"Three-Digit ZIP Code", "Year", "Annual Change (%)", "HPI", "HPI with 1990 base", "HPI with 2000 base"}}
	for i := range g.regions {
		rows = append(rows, g.hpiRows(nil, strconv.Itoa(926+i))...)
	}
	return writeCSV(path, rows)
}

func (g *generator) writeFiveZipHPIs(path string) error {
	rows := [][]string{{"Five-Digit ZIP Code", "Year", "Annual Change (%)", "HPI", "HPI with 1990 base", "HPI with 2000 base"}}
	for i := range g.regions {
		rows = append(rows, g.hpiRows(nil, g.zipcode(i))...)
	}
	return writeCSV(path, rows)
}

// writeCountyHPIs writes the published layout, which carries a FIPS column.
func (g *generator) writeCountyHPIs(path string) error {
	rows := [][]string{{"State", "County", "FIPS code", "Year", "Annual Change (%)", "HPI", "HPI with 1990 base", "HPI with 2000 base"}}
	for i := range g.regions {
		name := fmt.Sprintf("County %d", i+1)
		for _, row := range g.hpiRows([]string{g.state}, name) {
			// Insert the FIPS code after the county name.
			fips := fmt.Sprintf("06%03d", 1+2*i)
			row = append(row[:2], append([]string{fips}, row[2:]...)...)
			rows = append(rows, row)
		}
	}
	return writeCSV(path, rows)
}

// --- yields ---

func (g *generator) writeYields(path string) error {
	rows := [][]string{{"Series Description", "Market yield on U.S. Treasury securities at 10-year constant maturity, quoted on investment basis"}}
	yield := 1.5 + g.rng.Float64()*2
	for m := range g.years * 12 {
		yield = max(0.1, yield+(g.rng.Float64()-0.5)*0.3)
		period := fmt.Sprintf("%04d-%02d", g.startYear+m/12, m%12+1)
		rows = append(rows, []string{period, g.optional(yield)})
	}
	return writeCSV(path, rows)
}

// --- regions ---

func (g *generator) writeCities(path string) error {
	rows := [][]string{{"city"}}
	for _, c := range cityNames[:g.regions] {
		rows = append(rows, []string{c})
	}
	return writeCSV(path, rows)
}

// writeCrosswalk lists two zipcodes per allowed city plus rows that the
// state and allow-list filters must drop.
func (g *generator) writeCrosswalk(path string) error {
	rows := [][]string{{"ZIP", "COUNTY", "USPS_ZIP_PREF_CITY", "USPS_ZIP_PREF_STATE", "RES_RATIO", "BUS_RATIO"}}
	for i, c := range cityNames[:g.regions] {
		for j := range 2 {
			rows = append(rows, []string{g.zipcode(2*i + j), "06059", c, g.state, "1.0", "1.0"})
		}
	}
	rows = append(rows,
		[]string{"97201", "41051", "PORTLAND", "OR", "1.0", "1.0"},
		[]string{"90210", "06037", "BEVERLY HILLS", g.state, "1.0", "1.0"},
	)
	return writeCSV(path, rows)
}

// --- series ---

func (g *generator) monthEnds() []civil.Date {
	dates := make([]civil.Date, 0, g.years*12)
	for m := range g.years * 12 {
		first := time.Date(g.startYear+m/12, time.Month(m%12+1), 1, 0, 0, 0, 0, time.UTC)
		dates = append(dates, civil.DateOf(first.AddDate(0, 1, -1)))
	}
	return dates
}

func (g *generator) writeSeries(path string, meta []string, names, extra func(i int) []string) error {
	dates := g.monthEnds()
	header := append([]string{}, meta...)
	for _, d := range dates {
		header = append(header, d.String())
	}
	rows := [][]string{header}
	for i := range g.regions {
		row := append(names(i), extra(i)...)
		value := 400_000 + g.rng.Float64()*600_000
		for range dates {
			value *= 1 + (g.rng.Float64()-0.45)*0.02
			row = append(row, g.optional(value))
		}
		rows = append(rows, row)
	}
	return writeCSV(path, rows)
}

func (g *generator) writeCitySeries(path string) error {
	meta := []string{"RegionID", "SizeRank", "RegionName", "RegionType", "StateName", "State", "Metro", "CountyName"}
	return g.writeSeries(path, meta,
		func(i int) []string { return []string{strconv.Itoa(1000 + i), strconv.Itoa(i), cityNames[i], "city"} },
		func(int) []string { return []string{g.state, g.state, "Los Angeles", "Orange County"} },
	)
}

func (g *generator) writeZipSeries(path string) error {
	meta := []string{"RegionID", "SizeRank", "RegionName", "RegionType", "StateName", "State", "City", "Metro", "CountyName"}
	return g.writeSeries(path, meta,
		func(i int) []string { return []string{strconv.Itoa(2000 + i), strconv.Itoa(i), g.zipcode(i), "zip"} },
		func(i int) []string { return []string{g.state, g.state, cityNames[i], "Los Angeles", "Orange County"} },
	)
}

func (g *generator) writeCountySeries(path string) error {
	meta := []string{"RegionID", "SizeRank", "RegionName", "RegionType", "StateName", "State", "Metro", "StateCodeFIPS", "MunicipalCodeFIPS"}
	return g.writeSeries(path, meta,
		func(i int) []string {
			return []string{strconv.Itoa(3000 + i), strconv.Itoa(i), fmt.Sprintf("County %d", i+1), "county"}
		},
		func(i int) []string { return []string{g.state, g.state, "Los Angeles", "06", fmt.Sprintf("%03d", 1+2*i)} },
	)
}

// --- helpers ---

func (g *generator) zipcode(i int) string { return strconv.Itoa(92600 + i) }

// optional formats v, leaving the cell blank at blankRate.
func (g *generator) optional(v float64) string {
	if g.rng.Float64() < blankRate {
		return ""
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// verify parses every generated file with the ingestion readers.
func verify(dir, state string) error {
	at := func(name string) string { return filepath.Join(dir, name) }

	fmt.Println("\n=== Parsed records ===")
	report := func(family dataset.Family, n int, err error) error {
		if err != nil {
			return fmt.Errorf("verify %s: %w", family, err)
		}
		fmt.Printf("  %-22s %d\n", family, n)
		return nil
	}

	hpis3, err := dataset.ReadHPIs(at(threeZipFile), domain.RegionThreeZip)
	if err := report(dataset.FamilyThreeZipHPI, len(hpis3), err); err != nil {
		return err
	}
	hpis5, err := dataset.ReadHPIs(at(fiveZipFile), domain.RegionFiveZip)
	if err := report(dataset.FamilyFiveZipHPI, len(hpis5), err); err != nil {
		return err
	}
	county, err := dataset.ReadCountyHPIs(at(countyFile))
	if err := report(dataset.FamilyCountyHPI, len(county), err); err != nil {
		return err
	}
	yields, err := dataset.ReadYields(at(yieldFile), domain.TermTenYear)
	if err := report(dataset.FamilyTenYearYield, len(yields), err); err != nil {
		return err
	}
	regions, err := dataset.ReadRegions(at(crosswalkFile), at(citiesFile), state)
	if err := report(dataset.FamilyRegion, len(regions), err); err != nil {
		return err
	}

	series := []struct {
		family dataset.Family
		file   string
		layout dataset.SeriesLayout
	}{
		{dataset.FamilyCitySeries, cityZHVIFile, dataset.CityAllHomesLayout},
		{dataset.FamilyZipSeries, zipZHVIFile, dataset.ZipAllHomesLayout},
		{dataset.FamilyCountySeries, countyZHVI, dataset.CountyAllHomesLayout},
	}
	for _, s := range series {
		rows, err := dataset.ReadSeries(at(s.file), s.layout)
		if err := report(s.family, len(rows), err); err != nil {
			return err
		}
	}
	return nil
}
