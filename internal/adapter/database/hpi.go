package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/couchcryptid/homie-data/internal/domain"
	"github.com/couchcryptid/homie-data/internal/query"
)

const entityHPI = "hpi"

// CreateHPI inserts h. An existing (region_name, year) row is left as is.
func (s *Store) CreateHPI(ctx context.Context, h domain.HomePriceIndex) (err error) {
	defer s.observe(entityHPI, "create")(&err)
	_, err = s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO hpis (region_name, year, region_type, hpi, annual_change, base1990, base2000)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (region_name, year) DO NOTHING`),
		h.RegionName, h.Year, h.RegionType.String(), h.HPI, h.AnnualChange, h.Base1990, h.Base2000)
	return wrapErr(err, "create hpi %s", h.Key())
}

// ReadHPI returns the row for key or ErrNotFound.
func (s *Store) ReadHPI(ctx context.Context, key domain.HPIKey) (h domain.HomePriceIndex, err error) {
	defer s.observe(entityHPI, "read")(&err)
	row := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT region_type, region_name, year, hpi, annual_change, base1990, base2000
		 FROM hpis WHERE region_name = ? AND year = ?`),
		key.RegionName, key.Year)
	h, err = scanHPI(row)
	if errors.Is(err, sql.ErrNoRows) {
		return h, domain.NotFoundf("hpi %s", key)
	}
	return h, wrapErr(err, "read hpi %s", key)
}

// UpdateHPI overwrites the non-key fields of an existing row.
func (s *Store) UpdateHPI(ctx context.Context, h domain.HomePriceIndex) (err error) {
	defer s.observe(entityHPI, "update")(&err)
	res, err := s.db.ExecContext(ctx, s.rebind(
		`UPDATE hpis SET region_type = ?, hpi = ?, annual_change = ?, base1990 = ?, base2000 = ?
		 WHERE region_name = ? AND year = ?`),
		h.RegionType.String(), h.HPI, h.AnnualChange, h.Base1990, h.Base2000, h.RegionName, h.Year)
	if err != nil {
		return wrapErr(err, "update hpi %s", h.Key())
	}
	return requireAffected(res, "hpi "+h.Key().String())
}

// DeleteHPI removes the row for key.
func (s *Store) DeleteHPI(ctx context.Context, key domain.HPIKey) (err error) {
	defer s.observe(entityHPI, "delete")(&err)
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM hpis WHERE region_name = ? AND year = ?`),
		key.RegionName, key.Year)
	if err != nil {
		return wrapErr(err, "delete hpi %s", key)
	}
	return requireAffected(res, "hpi "+key.String())
}

// QueryHPIs returns rows matching q ordered by region and year.
func (s *Store) QueryHPIs(ctx context.Context, q domain.HPIQuery) (out []domain.HomePriceIndex, err error) {
	defer s.observe(entityHPI, "query")(&err)
	stmt := query.HPIStatement(q, s.dialect)
	rows, err := s.db.QueryContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, wrapErr(err, "query hpis")
	}
	defer rows.Close()

	for rows.Next() {
		h, err := scanHPI(rows)
		if err != nil {
			return nil, wrapErr(err, "scan hpi")
		}
		out = append(out, h)
	}
	return out, wrapErr(rows.Err(), "iterate hpis")
}

type scanner interface {
	Scan(dest ...any) error
}

func scanHPI(sc scanner) (domain.HomePriceIndex, error) {
	var (
		h          domain.HomePriceIndex
		regionType string
		hpi        sql.NullFloat64
		change     sql.NullFloat64
		base1990   sql.NullFloat64
		base2000   sql.NullFloat64
	)
	if err := sc.Scan(&regionType, &h.RegionName, &h.Year, &hpi, &change, &base1990, &base2000); err != nil {
		return h, err
	}
	rt, err := domain.ParseRegionType(regionType)
	if err != nil {
		return h, domain.DatabaseErrorf("stored region type: %w", err)
	}
	h.RegionType = rt
	h.HPI = nullFloat(hpi)
	h.AnnualChange = nullFloat(change)
	h.Base1990 = nullFloat(base1990)
	h.Base2000 = nullFloat(base2000)
	return h, nil
}
