package database

import (
	"context"
	"database/sql"
	"errors"

	"cloud.google.com/go/civil"

	"github.com/couchcryptid/homie-data/internal/domain"
	"github.com/couchcryptid/homie-data/internal/query"
)

const entityYield = "yield"

// CreateYield inserts y. An existing (term, date) row is left as is.
func (s *Store) CreateYield(ctx context.Context, y domain.TreasuryYield) (err error) {
	defer s.observe(entityYield, "create")(&err)
	_, err = s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO tyields (term, date, yield_return) VALUES (?, ?, ?)
		 ON CONFLICT (term, date) DO NOTHING`),
		y.Term.String(), y.Date.String(), y.YieldReturn)
	return wrapErr(err, "create yield %s", y.Key())
}

// ReadYield returns the row for key or ErrNotFound.
func (s *Store) ReadYield(ctx context.Context, key domain.YieldKey) (y domain.TreasuryYield, err error) {
	defer s.observe(entityYield, "read")(&err)
	row := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT term, CAST(date AS TEXT), yield_return FROM tyields WHERE term = ? AND date = ?`),
		key.Term.String(), key.Date.String())
	y, err = scanYield(row)
	if errors.Is(err, sql.ErrNoRows) {
		return y, domain.NotFoundf("yield %s", key)
	}
	return y, wrapErr(err, "read yield %s", key)
}

// UpdateYield overwrites the value of an existing row.
func (s *Store) UpdateYield(ctx context.Context, y domain.TreasuryYield) (err error) {
	defer s.observe(entityYield, "update")(&err)
	res, err := s.db.ExecContext(ctx, s.rebind(
		`UPDATE tyields SET yield_return = ? WHERE term = ? AND date = ?`),
		y.YieldReturn, y.Term.String(), y.Date.String())
	if err != nil {
		return wrapErr(err, "update yield %s", y.Key())
	}
	return requireAffected(res, "yield "+y.Key().String())
}

// DeleteYield removes the row for key.
func (s *Store) DeleteYield(ctx context.Context, key domain.YieldKey) (err error) {
	defer s.observe(entityYield, "delete")(&err)
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM tyields WHERE term = ? AND date = ?`),
		key.Term.String(), key.Date.String())
	if err != nil {
		return wrapErr(err, "delete yield %s", key)
	}
	return requireAffected(res, "yield "+key.String())
}

// QueryYields averages yields per term and bucket. Each result carries the
// bucket start date; a bucket whose rows are all null averages to nil.
func (s *Store) QueryYields(ctx context.Context, q domain.YieldQuery) (out []domain.TreasuryYield, err error) {
	defer s.observe(entityYield, "query")(&err)
	stmt := query.YieldStatement(q, s.dialect)
	rows, err := s.db.QueryContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, wrapErr(err, "query yields")
	}
	defer rows.Close()

	for rows.Next() {
		y, err := scanYield(rows)
		if err != nil {
			return nil, wrapErr(err, "scan yield")
		}
		out = append(out, y)
	}
	return out, wrapErr(rows.Err(), "iterate yields")
}

func scanYield(sc scanner) (domain.TreasuryYield, error) {
	var (
		y     domain.TreasuryYield
		term  string
		date  string
		value sql.NullFloat64
	)
	if err := sc.Scan(&term, &date, &value); err != nil {
		return y, err
	}
	t, err := domain.ParseTerm(term)
	if err != nil {
		return y, domain.DatabaseErrorf("stored term: %w", err)
	}
	d, err := parseStoredDate(date)
	if err != nil {
		return y, err
	}
	y.Term = t
	y.Date = d
	y.YieldReturn = nullFloat(value)
	return y, nil
}

// parseStoredDate reads a date column rendered as text. Drivers may append
// a time part, which is dropped.
func parseStoredDate(s string) (civil.Date, error) {
	if len(s) > len("2006-01-02") {
		s = s[:len("2006-01-02")]
	}
	d, err := civil.ParseDate(s)
	if err != nil {
		return civil.Date{}, domain.DatabaseErrorf("stored date %q: %w", s, err)
	}
	return d, nil
}
