package pipeline

import (
	"context"

	"github.com/couchcryptid/homie-data/internal/config"
	"github.com/couchcryptid/homie-data/internal/dataset"
	"github.com/couchcryptid/homie-data/internal/domain"
)

// Job ingests one dataset family: it reads the file, then loads every
// record through the loader.
type Job struct {
	Family dataset.Family
	Path   string
	run    func(ctx context.Context, l *loader) error
}

// HPIJob reads a 3-zip or 5-zip HPI file.
func HPIJob(family dataset.Family, path string, regionType domain.RegionType) Job {
	return Job{Family: family, Path: path, run: func(ctx context.Context, l *loader) error {
		rows, err := dataset.ReadHPIs(path, regionType)
		if err != nil {
			return l.readFailed(err)
		}
		return loadAll(ctx, l, rows, l.store.CreateHPI, func(h domain.HomePriceIndex) string { return h.Key().String() })
	}}
}

// CountyHPIJob reads the county HPI file.
func CountyHPIJob(path string) Job {
	return Job{Family: dataset.FamilyCountyHPI, Path: path, run: func(ctx context.Context, l *loader) error {
		rows, err := dataset.ReadCountyHPIs(path)
		if err != nil {
			return l.readFailed(err)
		}
		return loadAll(ctx, l, rows, l.store.CreateHPI, func(h domain.HomePriceIndex) string { return h.Key().String() })
	}}
}

// YieldJob reads a treasury yield file.
func YieldJob(path string, term domain.Term) Job {
	return Job{Family: dataset.FamilyTenYearYield, Path: path, run: func(ctx context.Context, l *loader) error {
		rows, err := dataset.ReadYields(path, term)
		if err != nil {
			return l.readFailed(err)
		}
		return loadAll(ctx, l, rows, l.store.CreateYield, func(y domain.TreasuryYield) string { return y.Key().String() })
	}}
}

// RegionJob joins the crosswalk with the city allow-list.
func RegionJob(crosswalkPath, citiesPath, state string) Job {
	return Job{Family: dataset.FamilyRegion, Path: crosswalkPath, run: func(ctx context.Context, l *loader) error {
		rows, err := dataset.ReadRegions(crosswalkPath, citiesPath, state)
		if err != nil {
			return l.readFailed(err)
		}
		return loadAll(ctx, l, rows, l.store.CreateRegion, func(r domain.Region) string { return r.Zipcode })
	}}
}

// SeriesJob reads a ZHVI wide file. Series that already exist are replaced,
// so re-running ingestion converges on the file contents.
func SeriesJob(family dataset.Family, path string, layout dataset.SeriesLayout) Job {
	return Job{Family: family, Path: path, run: func(ctx context.Context, l *loader) error {
		rows, err := dataset.ReadSeries(path, layout)
		if err != nil {
			return l.readFailed(err)
		}
		return loadAll(ctx, l, rows, l.createOrUpdateSeries, func(s domain.HomeValueSeries) string { return s.Key().String() })
	}}
}

// JobsFromConfig returns one job per configured family. Families whose path
// is empty are skipped; the region family needs both of its paths.
func JobsFromConfig(cfg *config.Config) []Job {
	var jobs []Job
	add := func(path string, job Job) {
		if path != "" {
			jobs = append(jobs, job)
		}
	}
	add(cfg.ThreeZipHPIsPath, HPIJob(dataset.FamilyThreeZipHPI, cfg.ThreeZipHPIsPath, domain.RegionThreeZip))
	add(cfg.FiveZipHPIsPath, HPIJob(dataset.FamilyFiveZipHPI, cfg.FiveZipHPIsPath, domain.RegionFiveZip))
	add(cfg.CountyHPIsPath, CountyHPIJob(cfg.CountyHPIsPath))
	add(cfg.TenYearYieldPath, YieldJob(cfg.TenYearYieldPath, domain.TermTenYear))
	if cfg.CitiesPath != "" {
		add(cfg.ZipCountyPath, RegionJob(cfg.ZipCountyPath, cfg.CitiesPath, cfg.RegionState))
	}
	add(cfg.MidZipAllHomesPath, SeriesJob(dataset.FamilyZipSeries, cfg.MidZipAllHomesPath, dataset.ZipAllHomesLayout))
	add(cfg.MidCityAllHomesPath, SeriesJob(dataset.FamilyCitySeries, cfg.MidCityAllHomesPath, dataset.CityAllHomesLayout))
	add(cfg.MidCountyAllHomesPath, SeriesJob(dataset.FamilyCountySeries, cfg.MidCountyAllHomesPath, dataset.CountyAllHomesLayout))
	return jobs
}
