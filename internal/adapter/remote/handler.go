package remote

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"cloud.google.com/go/civil"
	"github.com/goccy/go-json"

	"github.com/couchcryptid/homie-data/internal/domain"
	"github.com/couchcryptid/homie-data/internal/query"
)

// maxRequestBody bounds a request body. A full ZHVI series fits easily.
const maxRequestBody = 32 << 20

// Handler serves the remote protocol on top of another backend. Queries
// load the family from the backend and evaluate the predicate payload in
// memory, so any domain.Persist can sit behind it.
type Handler struct {
	store  domain.Persist
	mux    *http.ServeMux
	logger *slog.Logger
}

// NewHandler routes the remote protocol to store.
func NewHandler(store domain.Persist, logger *slog.Logger) *Handler {
	h := &Handler{store: store, mux: http.NewServeMux(), logger: logger}

	h.mux.HandleFunc("POST "+pathHPIs, h.createHPI)
	h.mux.HandleFunc("POST "+pathHPIs+querySuffix, h.queryHPIs)
	h.mux.HandleFunc("GET "+pathHPIs+"/{region}/{year}", h.readHPI)
	h.mux.HandleFunc("PUT "+pathHPIs+"/{region}/{year}", h.updateHPI)
	h.mux.HandleFunc("DELETE "+pathHPIs+"/{region}/{year}", h.deleteHPI)

	h.mux.HandleFunc("POST "+pathYields, h.createYield)
	h.mux.HandleFunc("POST "+pathYields+querySuffix, h.queryYields)
	h.mux.HandleFunc("GET "+pathYields+"/{term}/{date}", h.readYield)
	h.mux.HandleFunc("PUT "+pathYields+"/{term}/{date}", h.updateYield)
	h.mux.HandleFunc("DELETE "+pathYields+"/{term}/{date}", h.deleteYield)

	h.mux.HandleFunc("POST "+pathRegions, h.createRegion)
	h.mux.HandleFunc("POST "+pathRegions+querySuffix, h.queryRegions)
	h.mux.HandleFunc("GET "+pathRegions+"/{zipcode}", h.readRegion)
	h.mux.HandleFunc("PUT "+pathRegions+"/{zipcode}", h.updateRegion)
	h.mux.HandleFunc("DELETE "+pathRegions+"/{zipcode}", h.deleteRegion)

	seriesKey := "/{region}/{region_type}/{home_type}/{percentile}"
	h.mux.HandleFunc("POST "+pathSeries, h.createSeries)
	h.mux.HandleFunc("POST "+pathSeries+querySuffix, h.querySeries)
	h.mux.HandleFunc("GET "+pathSeries+seriesKey, h.readSeries)
	h.mux.HandleFunc("PUT "+pathSeries+seriesKey, h.updateSeries)
	h.mux.HandleFunc("DELETE "+pathSeries+seriesKey, h.deleteSeries)

	h.mux.HandleFunc("GET /healthz", h.health)
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if checker, ok := h.store.(interface{ CheckReadiness(context.Context) error }); ok {
		if err := checker.CheckReadiness(r.Context()); err != nil {
			h.fail(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// --- HPIs ---

func (h *Handler) createHPI(w http.ResponseWriter, r *http.Request) {
	var rec domain.HomePriceIndex
	if h.decode(w, r, &rec) {
		h.respond(w, http.StatusCreated, nil, h.store.CreateHPI(r.Context(), rec))
	}
}

func (h *Handler) readHPI(w http.ResponseWriter, r *http.Request) {
	key, err := hpiKey(r)
	if err != nil {
		h.fail(w, err)
		return
	}
	rec, err := h.store.ReadHPI(r.Context(), key)
	h.respond(w, http.StatusOK, rec, err)
}

func (h *Handler) updateHPI(w http.ResponseWriter, r *http.Request) {
	key, err := hpiKey(r)
	if err != nil {
		h.fail(w, err)
		return
	}
	var rec domain.HomePriceIndex
	if !h.decode(w, r, &rec) {
		return
	}
	if rec.Key() != key {
		h.fail(w, domain.ParseErrorf("body key %s does not match path %s", rec.Key(), key))
		return
	}
	h.respond(w, http.StatusNoContent, nil, h.store.UpdateHPI(r.Context(), rec))
}

func (h *Handler) deleteHPI(w http.ResponseWriter, r *http.Request) {
	key, err := hpiKey(r)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.respond(w, http.StatusNoContent, nil, h.store.DeleteHPI(r.Context(), key))
}

func (h *Handler) queryHPIs(w http.ResponseWriter, r *http.Request) {
	_, filter, ok := h.decodeQuery(w, r)
	if !ok {
		return
	}
	rows, err := h.store.QueryHPIs(r.Context(), domain.HPIQuery{})
	if err != nil {
		h.fail(w, err)
		return
	}
	out := make([]domain.HomePriceIndex, 0, len(rows))
	for _, rec := range rows {
		if query.Eval(filter, query.HPIRecord(rec)) {
			out = append(out, rec)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// --- Yields ---

func (h *Handler) createYield(w http.ResponseWriter, r *http.Request) {
	var rec domain.TreasuryYield
	if h.decode(w, r, &rec) {
		h.respond(w, http.StatusCreated, nil, h.store.CreateYield(r.Context(), rec))
	}
}

func (h *Handler) readYield(w http.ResponseWriter, r *http.Request) {
	key, err := yieldKey(r)
	if err != nil {
		h.fail(w, err)
		return
	}
	rec, err := h.store.ReadYield(r.Context(), key)
	h.respond(w, http.StatusOK, rec, err)
}

func (h *Handler) updateYield(w http.ResponseWriter, r *http.Request) {
	key, err := yieldKey(r)
	if err != nil {
		h.fail(w, err)
		return
	}
	var rec domain.TreasuryYield
	if !h.decode(w, r, &rec) {
		return
	}
	if rec.Key() != key {
		h.fail(w, domain.ParseErrorf("body key %s does not match path %s", rec.Key(), key))
		return
	}
	h.respond(w, http.StatusNoContent, nil, h.store.UpdateYield(r.Context(), rec))
}

func (h *Handler) deleteYield(w http.ResponseWriter, r *http.Request) {
	key, err := yieldKey(r)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.respond(w, http.StatusNoContent, nil, h.store.DeleteYield(r.Context(), key))
}

// queryYields loads raw rows as day buckets, filters them and re-buckets
// at the requested interval.
func (h *Handler) queryYields(w http.ResponseWriter, r *http.Request) {
	req, filter, ok := h.decodeQuery(w, r)
	if !ok {
		return
	}
	interval, err := domain.ParseInterval(req.Interval)
	if err != nil {
		h.fail(w, err)
		return
	}
	rows, err := h.store.QueryYields(r.Context(), domain.YieldQuery{Interval: domain.IntervalDay})
	if err != nil {
		h.fail(w, err)
		return
	}
	kept := make([]domain.TreasuryYield, 0, len(rows))
	for _, rec := range rows {
		if query.Eval(filter, query.YieldRecord(rec)) {
			kept = append(kept, rec)
		}
	}
	writeJSON(w, http.StatusOK, query.BucketYields(kept, domain.YieldQuery{Interval: interval}))
}

// --- Regions ---

func (h *Handler) createRegion(w http.ResponseWriter, r *http.Request) {
	var rec domain.Region
	if h.decode(w, r, &rec) {
		h.respond(w, http.StatusCreated, nil, h.store.CreateRegion(r.Context(), rec))
	}
}

func (h *Handler) readRegion(w http.ResponseWriter, r *http.Request) {
	rec, err := h.store.ReadRegion(r.Context(), r.PathValue("zipcode"))
	h.respond(w, http.StatusOK, rec, err)
}

func (h *Handler) updateRegion(w http.ResponseWriter, r *http.Request) {
	var rec domain.Region
	if !h.decode(w, r, &rec) {
		return
	}
	if rec.Zipcode != r.PathValue("zipcode") {
		h.fail(w, domain.ParseErrorf("body zipcode %s does not match path %s", rec.Zipcode, r.PathValue("zipcode")))
		return
	}
	h.respond(w, http.StatusNoContent, nil, h.store.UpdateRegion(r.Context(), rec))
}

func (h *Handler) deleteRegion(w http.ResponseWriter, r *http.Request) {
	h.respond(w, http.StatusNoContent, nil, h.store.DeleteRegion(r.Context(), r.PathValue("zipcode")))
}

func (h *Handler) queryRegions(w http.ResponseWriter, r *http.Request) {
	_, filter, ok := h.decodeQuery(w, r)
	if !ok {
		return
	}
	rows, err := h.store.QueryRegions(r.Context(), domain.RegionQuery{})
	if err != nil {
		h.fail(w, err)
		return
	}
	out := make([]domain.Region, 0, len(rows))
	for _, rec := range rows {
		if query.Eval(filter, query.RegionRecord(rec)) {
			out = append(out, rec)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// --- Series ---

func (h *Handler) createSeries(w http.ResponseWriter, r *http.Request) {
	var rec domain.HomeValueSeries
	if h.decode(w, r, &rec) {
		h.respond(w, http.StatusCreated, nil, h.store.CreateSeries(r.Context(), rec))
	}
}

func (h *Handler) readSeries(w http.ResponseWriter, r *http.Request) {
	key, err := seriesKey(r)
	if err != nil {
		h.fail(w, err)
		return
	}
	rec, err := h.store.ReadSeries(r.Context(), key)
	h.respond(w, http.StatusOK, rec, err)
}

func (h *Handler) updateSeries(w http.ResponseWriter, r *http.Request) {
	key, err := seriesKey(r)
	if err != nil {
		h.fail(w, err)
		return
	}
	var rec domain.HomeValueSeries
	if !h.decode(w, r, &rec) {
		return
	}
	if rec.Key() != key {
		h.fail(w, domain.ParseErrorf("body key %s does not match path %s", rec.Key(), key))
		return
	}
	h.respond(w, http.StatusNoContent, nil, h.store.UpdateSeries(r.Context(), rec))
}

func (h *Handler) deleteSeries(w http.ResponseWriter, r *http.Request) {
	key, err := seriesKey(r)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.respond(w, http.StatusNoContent, nil, h.store.DeleteSeries(r.Context(), key))
}

// querySeries loads every series with all of its points, then applies the
// metadata and price predicates.
func (h *Handler) querySeries(w http.ResponseWriter, r *http.Request) {
	req, filter, ok := h.decodeQuery(w, r)
	if !ok {
		return
	}
	prices := query.Predicate(query.True{})
	if req.Prices != nil {
		p, err := query.FromNode(*req.Prices)
		if err != nil {
			h.fail(w, domain.ParseErrorf("prices: %w", err))
			return
		}
		prices = p
	}
	rows, err := h.store.QuerySeries(r.Context(), domain.SeriesQuery{Interval: domain.IntervalDay})
	if err != nil {
		h.fail(w, err)
		return
	}
	out := make([]domain.HomeValueSeries, 0, len(rows))
	for _, rec := range rows {
		if !query.Eval(filter, query.SeriesRecord(rec)) {
			continue
		}
		kept := make([]domain.PricePoint, 0, len(rec.Prices))
		for _, p := range rec.Prices {
			if query.Eval(prices, query.PriceRecord(p)) {
				kept = append(kept, p)
			}
		}
		rec.Prices = kept
		out = append(out, rec)
	}
	writeJSON(w, http.StatusOK, out)
}

// --- helpers ---

func hpiKey(r *http.Request) (domain.HPIKey, error) {
	year, err := strconv.Atoi(r.PathValue("year"))
	if err != nil {
		return domain.HPIKey{}, domain.ParseErrorf("year %q: %w", r.PathValue("year"), err)
	}
	return domain.HPIKey{RegionName: r.PathValue("region"), Year: year}, nil
}

func yieldKey(r *http.Request) (domain.YieldKey, error) {
	term, err := domain.ParseTerm(r.PathValue("term"))
	if err != nil {
		return domain.YieldKey{}, err
	}
	date, err := civil.ParseDate(r.PathValue("date"))
	if err != nil {
		return domain.YieldKey{}, domain.ParseErrorf("date %q: %w", r.PathValue("date"), err)
	}
	return domain.YieldKey{Term: term, Date: date}, nil
}

func seriesKey(r *http.Request) (domain.SeriesKey, error) {
	rt, err := domain.ParseRegionType(r.PathValue("region_type"))
	if err != nil {
		return domain.SeriesKey{}, err
	}
	ht, err := domain.ParseHomeType(r.PathValue("home_type"))
	if err != nil {
		return domain.SeriesKey{}, err
	}
	pc, err := domain.ParsePercentile(r.PathValue("percentile"))
	if err != nil {
		return domain.SeriesKey{}, err
	}
	return domain.SeriesKey{RegionName: r.PathValue("region"), RegionType: rt, HomeType: ht, Percentile: pc}, nil
}

// decode reads a JSON body into v, answering 400 on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(v); err != nil {
		h.fail(w, domain.ParseErrorf("decode body: %w", err))
		return false
	}
	return true
}

func (h *Handler) decodeQuery(w http.ResponseWriter, r *http.Request) (queryRequest, query.Predicate, bool) {
	var req queryRequest
	if !h.decode(w, r, &req) {
		return req, nil, false
	}
	filter, err := query.FromNode(req.Filter)
	if err != nil {
		h.fail(w, domain.ParseErrorf("filter: %w", err))
		return req, nil, false
	}
	return req, filter, true
}

func (h *Handler) respond(w http.ResponseWriter, status int, body any, err error) {
	if err != nil {
		h.fail(w, err)
		return
	}
	if body == nil {
		w.WriteHeader(status)
		return
	}
	writeJSON(w, status, body)
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrAlreadyExists):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrParse):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		h.logger.Error("remote handler error", "error", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client gone
}
