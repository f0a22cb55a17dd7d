package database

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/couchcryptid/homie-data/internal/domain"
	"github.com/couchcryptid/homie-data/internal/query"
)

const entitySeries = "series"

// maxPricesPerInsert bounds the rows of one multi-row price INSERT.
const maxPricesPerInsert = 100

const priceColumns = 6

// CreateSeries stores the metadata row and every price point in one
// transaction. An existing key fails with ErrAlreadyExists.
func (s *Store) CreateSeries(ctx context.Context, hs domain.HomeValueSeries) (err error) {
	defer s.observe(entitySeries, "create")(&err)
	key := hs.Key()
	if err := checkPrices(key, hs.Prices); err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, s.rebind(
			`INSERT INTO zhvi_metadata (region_name, region_type, home_type, percentile, updated_at)
			 VALUES (?, ?, ?, ?, ?)`),
			keyArgs(key, updatedAt())...)
		if err != nil {
			return wrapErr(err, "create series %s", key)
		}
		return s.insertPrices(ctx, tx, key, hs.Prices)
	})
}

// ReadSeries returns the series for key with every price point.
func (s *Store) ReadSeries(ctx context.Context, key domain.SeriesKey) (hs domain.HomeValueSeries, err error) {
	defer s.observe(entitySeries, "read")(&err)
	var found int
	err = s.db.QueryRowContext(ctx, s.rebind(
		`SELECT 1 FROM zhvi_metadata WHERE region_name = ? AND region_type = ? AND home_type = ? AND percentile = ?`),
		keyArgs(key)...).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return hs, domain.NotFoundf("series %s", key)
	}
	if err != nil {
		return hs, wrapErr(err, "read series %s", key)
	}

	prices, err := s.queryPrices(ctx, query.AllPricesStatement(key, s.dialect))
	if err != nil {
		return hs, wrapErr(err, "read series %s prices", key)
	}
	return seriesOf(key, prices), nil
}

// UpdateSeries replaces the price list of an existing series. Points absent
// from hs are gone afterwards.
func (s *Store) UpdateSeries(ctx context.Context, hs domain.HomeValueSeries) (err error) {
	defer s.observe(entitySeries, "update")(&err)
	key := hs.Key()
	if err := checkPrices(key, hs.Prices); err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, s.rebind(
			`UPDATE zhvi_metadata SET updated_at = ?
			 WHERE region_name = ? AND region_type = ? AND home_type = ? AND percentile = ?`),
			append([]any{updatedAt()}, keyArgs(key)...)...)
		if err != nil {
			return wrapErr(err, "update series %s", key)
		}
		if err := requireAffected(res, "series "+key.String()); err != nil {
			return err
		}
		if err := s.deletePrices(ctx, tx, key); err != nil {
			return err
		}
		return s.insertPrices(ctx, tx, key, hs.Prices)
	})
}

// DeleteSeries removes the metadata row and its prices.
func (s *Store) DeleteSeries(ctx context.Context, key domain.SeriesKey) (err error) {
	defer s.observe(entitySeries, "delete")(&err)
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.deletePrices(ctx, tx, key); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, s.rebind(
			`DELETE FROM zhvi_metadata WHERE region_name = ? AND region_type = ? AND home_type = ? AND percentile = ?`),
			keyArgs(key)...)
		if err != nil {
			return wrapErr(err, "delete series %s", key)
		}
		return requireAffected(res, "series "+key.String())
	})
}

// QuerySeries returns every series whose metadata matches q, each carrying
// the price points q's date range and interval keep. A matching series with
// no kept points is returned with an empty price list.
func (s *Store) QuerySeries(ctx context.Context, q domain.SeriesQuery) (out []domain.HomeValueSeries, err error) {
	defer s.observe(entitySeries, "query")(&err)
	keys, err := s.querySeriesKeys(ctx, q)
	if err != nil {
		return nil, err
	}
	for _, key := range keys {
		prices, err := s.queryPrices(ctx, query.SeriesPricesStatement(key, q, s.dialect))
		if err != nil {
			return nil, wrapErr(err, "query series %s prices", key)
		}
		out = append(out, seriesOf(key, prices))
	}
	return out, nil
}

// querySeriesKeys drains the metadata result before any price query runs,
// so a single-connection pool is never asked for a second connection.
func (s *Store) querySeriesKeys(ctx context.Context, q domain.SeriesQuery) ([]domain.SeriesKey, error) {
	stmt := query.SeriesMetadataStatement(q, s.dialect)
	rows, err := s.db.QueryContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, wrapErr(err, "query series")
	}
	defer rows.Close()

	var keys []domain.SeriesKey
	for rows.Next() {
		var name, regionType, homeType, percentile string
		if err := rows.Scan(&name, &regionType, &homeType, &percentile); err != nil {
			return nil, wrapErr(err, "scan series")
		}
		key, err := parseSeriesKey(name, regionType, homeType, percentile)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, wrapErr(rows.Err(), "iterate series")
}

func (s *Store) queryPrices(ctx context.Context, stmt query.Statement) ([]domain.PricePoint, error) {
	rows, err := s.db.QueryContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	prices := []domain.PricePoint{}
	for rows.Next() {
		var (
			date  string
			value float64
		)
		if err := rows.Scan(&date, &value); err != nil {
			return nil, err
		}
		d, err := parseStoredDate(date)
		if err != nil {
			return nil, err
		}
		prices = append(prices, domain.PricePoint{Date: d, Value: value})
	}
	return prices, rows.Err()
}

func (s *Store) deletePrices(ctx context.Context, tx *sql.Tx, key domain.SeriesKey) error {
	_, err := tx.ExecContext(ctx, s.rebind(
		`DELETE FROM zhvi_prices WHERE region_name = ? AND region_type = ? AND home_type = ? AND percentile = ?`),
		keyArgs(key)...)
	return wrapErr(err, "delete series %s prices", key)
}

// insertPrices writes prices in chunks of maxPricesPerInsert rows.
func (s *Store) insertPrices(ctx context.Context, tx *sql.Tx, key domain.SeriesKey, prices []domain.PricePoint) error {
	for i := 0; i < len(prices); i += maxPricesPerInsert {
		end := min(i+maxPricesPerInsert, len(prices))
		q, args := buildPriceInsert(key, prices[i:end])
		if _, err := tx.ExecContext(ctx, s.rebind(q), args...); err != nil {
			return wrapErr(err, "insert series %s prices", key)
		}
	}
	return nil
}

func buildPriceInsert(key domain.SeriesKey, prices []domain.PricePoint) (string, []any) {
	args := make([]any, 0, len(prices)*priceColumns)

	var b strings.Builder
	b.Grow(120 + len(prices)*20)
	b.WriteString("INSERT INTO zhvi_prices (region_name, region_type, home_type, percentile, date, value) VALUES ")
	for i, p := range prices {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(?, ?, ?, ?, ?, ?)")
		args = append(args, keyArgs(key, p.Date.String(), p.Value)...)
	}
	return b.String(), args
}

// checkPrices rejects a price list with repeated dates.
func checkPrices(key domain.SeriesKey, prices []domain.PricePoint) error {
	seen := make(map[string]struct{}, len(prices))
	for _, p := range prices {
		d := p.Date.String()
		if _, ok := seen[d]; ok {
			return domain.DatabaseErrorf("series %s: duplicate price date %s", key, d)
		}
		seen[d] = struct{}{}
	}
	return nil
}

func keyArgs(key domain.SeriesKey, extra ...any) []any {
	args := []any{key.RegionName, key.RegionType.String(), key.HomeType.String(), key.Percentile.String()}
	return append(args, extra...)
}

func parseSeriesKey(name, regionType, homeType, percentile string) (domain.SeriesKey, error) {
	rt, err := domain.ParseRegionType(regionType)
	if err != nil {
		return domain.SeriesKey{}, domain.DatabaseErrorf("stored region type: %w", err)
	}
	ht, err := domain.ParseHomeType(homeType)
	if err != nil {
		return domain.SeriesKey{}, domain.DatabaseErrorf("stored home type: %w", err)
	}
	pc, err := domain.ParsePercentile(percentile)
	if err != nil {
		return domain.SeriesKey{}, domain.DatabaseErrorf("stored percentile: %w", err)
	}
	return domain.SeriesKey{RegionName: name, RegionType: rt, HomeType: ht, Percentile: pc}, nil
}

func seriesOf(key domain.SeriesKey, prices []domain.PricePoint) domain.HomeValueSeries {
	return domain.HomeValueSeries{
		RegionName: key.RegionName,
		RegionType: key.RegionType,
		HomeType:   key.HomeType,
		Percentile: key.Percentile,
		Prices:     prices,
	}
}

func updatedAt() string {
	return domain.Clock().Now().UTC().Format(time.RFC3339Nano)
}
