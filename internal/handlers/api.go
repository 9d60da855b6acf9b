package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"sales-dashboard/internal/errors"
	"sales-dashboard/internal/kpi"
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/observability"
	"sales-dashboard/internal/services"
)

const (
	cacheControl       = "private, max-age=60"
	defaultTopProducts = 5
	maxTopProducts     = 100
	defaultTxLimit     = 100
	maxTxLimit         = 5000
)

type APIHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewAPIHandlers(analytics *services.Analytics, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

func (h *APIHandlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
}

func (h *APIHandlers) ok(w http.ResponseWriter, data any) {
	errors.WriteSuccessWithHeaders(w, data, map[string]string{
		"Cache-Control": cacheControl,
	})
}

// snapshot computes the KPIs for the request's session and query filter,
// writing the error response itself on failure.
func (h *APIHandlers) snapshot(w http.ResponseWriter, r *http.Request) (*models.Snapshot, bool) {
	filter, err := requestFilter(r)
	if err != nil {
		h.fail(w, r, err)
		return nil, false
	}

	s, err := h.analytics.Snapshot(r.Context(), observability.GetSessionID(r.Context()), filter)
	if err != nil {
		h.fail(w, r, err)
		return nil, false
	}
	return s, true
}

func (h *APIHandlers) HandleSummary(w http.ResponseWriter, r *http.Request) {
	res, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	h.ok(w, res)
}

func (h *APIHandlers) HandleRevenueByRegion(w http.ResponseWriter, r *http.Request) {
	res, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	h.ok(w, res.RevenueByRegion)
}

func (h *APIHandlers) HandleRevenueByChannel(w http.ResponseWriter, r *http.Request) {
	res, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	h.ok(w, res.RevenueByChannel)
}

func (h *APIHandlers) HandleMonthlyRevenue(w http.ResponseWriter, r *http.Request) {
	res, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	h.ok(w, res.MonthlyRevenue)
}

func (h *APIHandlers) HandleHeatmap(w http.ResponseWriter, r *http.Request) {
	res, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	h.ok(w, res.RegionChannelRevenue)
}

// HandleTopProducts ranks products by revenue, or by quantity with by=quantity.
func (h *APIHandlers) HandleTopProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := parseLimit(q, "limit", defaultTopProducts, maxTopProducts)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	filter, err := requestFilter(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	rows := h.analytics.Transactions(observability.GetSessionID(r.Context()), filter, 0)
	if err := kpi.Validate(rows); err != nil {
		h.fail(w, r, err)
		return
	}

	switch by := q.Get("by"); by {
	case "", "revenue":
		h.ok(w, kpi.TopProductsByRevenue(rows, limit))
	case "quantity":
		h.ok(w, kpi.TopProductsByQuantity(rows, limit))
	default:
		h.fail(w, r, errors.BadRequest("'by' must be revenue or quantity, got "+by))
	}
}

func (h *APIHandlers) HandleOptions(w http.ResponseWriter, r *http.Request) {
	h.ok(w, h.analytics.Options(observability.GetSessionID(r.Context())))
}

// HandleTransactions returns the filtered raw rows in table order, up to limit.
func (h *APIHandlers) HandleTransactions(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r.URL.Query(), "limit", defaultTxLimit, maxTxLimit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	filter, err := requestFilter(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, h.analytics.Transactions(observability.GetSessionID(r.Context()), filter, limit))
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {

	healthData := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
	}

	errors.WriteSuccess(w, healthData)
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {

	stats := h.analytics.Stats()

	errors.WriteSuccess(w, stats)
}
