package remote

import (
	"context"
	"net/http"

	"github.com/couchcryptid/homie-data/internal/domain"
	"github.com/couchcryptid/homie-data/internal/query"
)

const (
	entityHPI    = "hpi"
	entityYield  = "yield"
	entityRegion = "region"
	entitySeries = "series"
)

func (c *Client) CreateHPI(ctx context.Context, h domain.HomePriceIndex) (err error) {
	defer c.observe(entityHPI, "create")(&err)
	return c.write(ctx, http.MethodPost, pathHPIs, hpiPath(h.Key()), h)
}

func (c *Client) ReadHPI(ctx context.Context, key domain.HPIKey) (h domain.HomePriceIndex, err error) {
	defer c.observe(entityHPI, "read")(&err)
	err = c.cachedRead(ctx, hpiPath(key), &h)
	return h, err
}

func (c *Client) UpdateHPI(ctx context.Context, h domain.HomePriceIndex) (err error) {
	defer c.observe(entityHPI, "update")(&err)
	return c.write(ctx, http.MethodPut, hpiPath(h.Key()), hpiPath(h.Key()), h)
}

func (c *Client) DeleteHPI(ctx context.Context, key domain.HPIKey) (err error) {
	defer c.observe(entityHPI, "delete")(&err)
	return c.write(ctx, http.MethodDelete, hpiPath(key), hpiPath(key), nil)
}

func (c *Client) QueryHPIs(ctx context.Context, q domain.HPIQuery) (out []domain.HomePriceIndex, err error) {
	defer c.observe(entityHPI, "query")(&err)
	req := queryRequest{Filter: query.ToNode(query.HPIFilter(q))}
	err = c.do(ctx, http.MethodPost, pathHPIs+querySuffix, req, &out)
	return out, err
}

func (c *Client) CreateYield(ctx context.Context, y domain.TreasuryYield) (err error) {
	defer c.observe(entityYield, "create")(&err)
	return c.write(ctx, http.MethodPost, pathYields, yieldPath(y.Key()), y)
}

func (c *Client) ReadYield(ctx context.Context, key domain.YieldKey) (y domain.TreasuryYield, err error) {
	defer c.observe(entityYield, "read")(&err)
	err = c.cachedRead(ctx, yieldPath(key), &y)
	return y, err
}

func (c *Client) UpdateYield(ctx context.Context, y domain.TreasuryYield) (err error) {
	defer c.observe(entityYield, "update")(&err)
	return c.write(ctx, http.MethodPut, yieldPath(y.Key()), yieldPath(y.Key()), y)
}

func (c *Client) DeleteYield(ctx context.Context, key domain.YieldKey) (err error) {
	defer c.observe(entityYield, "delete")(&err)
	return c.write(ctx, http.MethodDelete, yieldPath(key), yieldPath(key), nil)
}

func (c *Client) QueryYields(ctx context.Context, q domain.YieldQuery) (out []domain.TreasuryYield, err error) {
	defer c.observe(entityYield, "query")(&err)
	req := queryRequest{Filter: query.ToNode(query.YieldFilter(q)), Interval: q.Interval.String()}
	err = c.do(ctx, http.MethodPost, pathYields+querySuffix, req, &out)
	return out, err
}

func (c *Client) CreateRegion(ctx context.Context, r domain.Region) (err error) {
	defer c.observe(entityRegion, "create")(&err)
	return c.write(ctx, http.MethodPost, pathRegions, regionPath(r.Zipcode), r)
}

func (c *Client) ReadRegion(ctx context.Context, zipcode string) (r domain.Region, err error) {
	defer c.observe(entityRegion, "read")(&err)
	err = c.cachedRead(ctx, regionPath(zipcode), &r)
	return r, err
}

func (c *Client) UpdateRegion(ctx context.Context, r domain.Region) (err error) {
	defer c.observe(entityRegion, "update")(&err)
	return c.write(ctx, http.MethodPut, regionPath(r.Zipcode), regionPath(r.Zipcode), r)
}

func (c *Client) DeleteRegion(ctx context.Context, zipcode string) (err error) {
	defer c.observe(entityRegion, "delete")(&err)
	return c.write(ctx, http.MethodDelete, regionPath(zipcode), regionPath(zipcode), nil)
}

func (c *Client) QueryRegions(ctx context.Context, q domain.RegionQuery) (out []domain.Region, err error) {
	defer c.observe(entityRegion, "query")(&err)
	req := queryRequest{Filter: query.ToNode(query.RegionFilter(q))}
	err = c.do(ctx, http.MethodPost, pathRegions+querySuffix, req, &out)
	return out, err
}

func (c *Client) CreateSeries(ctx context.Context, hs domain.HomeValueSeries) (err error) {
	defer c.observe(entitySeries, "create")(&err)
	return c.write(ctx, http.MethodPost, pathSeries, seriesPath(hs.Key()), hs)
}

func (c *Client) ReadSeries(ctx context.Context, key domain.SeriesKey) (hs domain.HomeValueSeries, err error) {
	defer c.observe(entitySeries, "read")(&err)
	err = c.cachedRead(ctx, seriesPath(key), &hs)
	return hs, err
}

func (c *Client) UpdateSeries(ctx context.Context, hs domain.HomeValueSeries) (err error) {
	defer c.observe(entitySeries, "update")(&err)
	return c.write(ctx, http.MethodPut, seriesPath(hs.Key()), seriesPath(hs.Key()), hs)
}

func (c *Client) DeleteSeries(ctx context.Context, key domain.SeriesKey) (err error) {
	defer c.observe(entitySeries, "delete")(&err)
	return c.write(ctx, http.MethodDelete, seriesPath(key), seriesPath(key), nil)
}

func (c *Client) QuerySeries(ctx context.Context, q domain.SeriesQuery) (out []domain.HomeValueSeries, err error) {
	defer c.observe(entitySeries, "query")(&err)
	prices := query.ToNode(query.PriceFilter(q))
	req := queryRequest{Filter: query.ToNode(query.SeriesFilter(q)), Prices: &prices}
	err = c.do(ctx, http.MethodPost, pathSeries+querySuffix, req, &out)
	return out, err
}

var _ domain.Persist = (*Client)(nil)
