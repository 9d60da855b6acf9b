package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"
	"github.com/starfederation/datastar-go/datastar"

	"sales-dashboard/internal/errors"
	"sales-dashboard/internal/observability"
	"sales-dashboard/internal/services"
	"sales-dashboard/internal/ui/templates"
)

const defaultTableRows = 50

type SSEHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
	tableRows int
}

func NewSSEHandlers(analytics *services.Analytics, logger *slog.Logger, tableRows int) *SSEHandlers {
	if tableRows <= 0 {
		tableRows = defaultTableRows
	}
	return &SSEHandlers{
		analytics: analytics,
		logger:    logger,
		tableRows: tableRows,
	}
}

// showError replaces the error banner. Failures never tear the page down.
func (h *SSEHandlers) showError(sse *datastar.ServerSentEventGenerator, r *http.Request, err error) {
	h.logger.Warn("dashboard update failed",
		"error", err,
		"request_id", observability.GetRequestID(r.Context()),
	)
	h.patchComponent(sse, templates.ErrorBanner(errors.PublicMessage(err)), r)
}

// patchComponent reports whether c was rendered and sent.
func (h *SSEHandlers) patchComponent(sse *datastar.ServerSentEventGenerator, c templ.Component, r *http.Request) bool {
	html, err := templates.Render(r.Context(), c)
	if err != nil {
		h.logger.Error("render component", "error", err)
		return false
	}
	if err := sse.PatchElements(html); err != nil {
		h.logger.Debug("patch elements", "error", err)
		return false
	}
	return true
}

// HandleRefresh recomputes the dashboard for the filters in the request's
// signals and patches the KPI cards, the data table and the charts signal.
func (h *SSEHandlers) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var signals dashboardSignals
	readErr := datastar.ReadSignals(r, &signals)

	sse := datastar.NewSSE(w, r)
	if readErr != nil {
		h.showError(sse, r, errors.BadRequestWrap(readErr, "could not read dashboard filters"))
		return
	}
	h.refresh(sse, r, signals)
}

func (h *SSEHandlers) refresh(sse *datastar.ServerSentEventGenerator, r *http.Request, signals dashboardSignals) {
	ctx := r.Context()
	sessionID := observability.GetSessionID(ctx)

	filter, err := signals.filter()
	if err != nil {
		h.showError(sse, r, err)
		return
	}

	snapshot, err := h.analytics.Snapshot(ctx, sessionID, filter)
	if err != nil {
		h.showError(sse, r, err)
		return
	}
	rows, total, err := h.analytics.Rows(ctx, sessionID, filter, h.tableRows)
	if err != nil {
		h.showError(sse, r, err)
		return
	}

	h.patchComponent(sse, templates.ErrorBanner(""), r)
	h.patchComponent(sse, templates.KPICards(snapshot), r)

	if !h.patchComponent(sse, templates.DataTable(rows, total), r) {
		return
	}

	charts, err := json.Marshal(map[string]any{
		"charts": newChartData(snapshot),
	})
	if err != nil {
		h.logger.Error("marshal chart data", "error", err)
		return
	}
	if err := sse.PatchSignals(charts); err != nil {
		h.logger.Debug("patch chart signals", "error", err)
	}
}

// HandleRegenerate replaces the session's table with one generated from the
// seed signal, resets the filters to the new table's domains and refreshes.
func (h *SSEHandlers) HandleRegenerate(w http.ResponseWriter, r *http.Request) {
	var signals dashboardSignals
	readErr := datastar.ReadSignals(r, &signals)

	sse := datastar.NewSSE(w, r)
	if readErr != nil {
		h.showError(sse, r, errors.BadRequestWrap(readErr, "could not read the seed"))
		return
	}

	sessionID := observability.GetSessionID(r.Context())
	if sessionID == "" {
		h.showError(sse, r, errors.BadRequest("regenerating requires a session cookie"))
		return
	}

	n, err := h.analytics.Regenerate(r.Context(), sessionID, int64(signals.Seed))
	if err != nil {
		h.showError(sse, r, err)
		return
	}
	h.logger.Info("session dataset regenerated",
		"session_id", sessionID,
		"seed", int64(signals.Seed),
		"records", n,
	)

	h.resetFilters(sse, r, &signals)
	h.refresh(sse, r, signals)
}

// HandleReset drops the session's table so it sees the shared dataset again.
func (h *SSEHandlers) HandleReset(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	sessionID := observability.GetSessionID(r.Context())
	h.analytics.Reset(sessionID)

	var signals dashboardSignals
	h.resetFilters(sse, r, &signals)
	h.refresh(sse, r, signals)
}

// resetFilters selects every option of the session's table, both in signals
// and on the page.
func (h *SSEHandlers) resetFilters(sse *datastar.ServerSentEventGenerator, r *http.Request, signals *dashboardSignals) {
	sessionID := observability.GetSessionID(r.Context())
	opts := h.analytics.Options(sessionID)

	signals.Regions = opts.Regions
	signals.Channels = opts.Channels
	signals.From = opts.From
	signals.To = opts.To
	signals.Seed = seedValue(h.analytics.Seed(sessionID))

	patch, err := json.Marshal(map[string]any{
		"regions":  signals.Regions,
		"channels": signals.Channels,
		"from":     signals.From,
		"to":       signals.To,
		"seed":     int64(signals.Seed),
	})
	if err != nil {
		h.logger.Error("marshal filter signals", "error", err)
		return
	}
	if err := sse.PatchSignals(patch); err != nil {
		h.logger.Debug("patch filter signals", "error", err)
	}
}
