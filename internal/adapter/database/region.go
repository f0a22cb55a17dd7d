package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/couchcryptid/homie-data/internal/domain"
	"github.com/couchcryptid/homie-data/internal/query"
)

const entityRegion = "region"

// CreateRegion upserts r: an existing zipcode takes the new city.
func (s *Store) CreateRegion(ctx context.Context, r domain.Region) (err error) {
	defer s.observe(entityRegion, "create")(&err)
	_, err = s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO regions (zipcode, city) VALUES (?, ?)
		 ON CONFLICT (zipcode) DO UPDATE SET city = excluded.city`),
		r.Zipcode, r.City)
	return wrapErr(err, "create region %s", r.Zipcode)
}

// ReadRegion returns the region for zipcode or ErrNotFound.
func (s *Store) ReadRegion(ctx context.Context, zipcode string) (r domain.Region, err error) {
	defer s.observe(entityRegion, "read")(&err)
	err = s.db.QueryRowContext(ctx, s.rebind(`SELECT city, zipcode FROM regions WHERE zipcode = ?`), zipcode).
		Scan(&r.City, &r.Zipcode)
	if errors.Is(err, sql.ErrNoRows) {
		return r, domain.NotFoundf("region %s", zipcode)
	}
	return r, wrapErr(err, "read region %s", zipcode)
}

// UpdateRegion changes the city of an existing zipcode.
func (s *Store) UpdateRegion(ctx context.Context, r domain.Region) (err error) {
	defer s.observe(entityRegion, "update")(&err)
	res, err := s.db.ExecContext(ctx, s.rebind(`UPDATE regions SET city = ? WHERE zipcode = ?`), r.City, r.Zipcode)
	if err != nil {
		return wrapErr(err, "update region %s", r.Zipcode)
	}
	return requireAffected(res, "region "+r.Zipcode)
}

// DeleteRegion removes zipcode.
func (s *Store) DeleteRegion(ctx context.Context, zipcode string) (err error) {
	defer s.observe(entityRegion, "delete")(&err)
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM regions WHERE zipcode = ?`), zipcode)
	if err != nil {
		return wrapErr(err, "delete region %s", zipcode)
	}
	return requireAffected(res, "region "+zipcode)
}

// QueryRegions returns regions whose city or zipcode is in q, ordered by
// zipcode. City matching ignores case.
func (s *Store) QueryRegions(ctx context.Context, q domain.RegionQuery) (out []domain.Region, err error) {
	defer s.observe(entityRegion, "query")(&err)
	stmt := query.RegionStatement(q, s.dialect)
	rows, err := s.db.QueryContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, wrapErr(err, "query regions")
	}
	defer rows.Close()

	for rows.Next() {
		var r domain.Region
		if err := rows.Scan(&r.City, &r.Zipcode); err != nil {
			return nil, wrapErr(err, "scan region")
		}
		out = append(out, r)
	}
	return out, wrapErr(rows.Err(), "iterate regions")
}
