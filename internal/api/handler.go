// Package api provides the HTTP handlers of the hedge book service: the
// filtered row table, rollups, exposure breakdowns, spread packages and
// manual trade entry.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hedgedesk/hedgebook/internal/aggregate"
	"github.com/hedgedesk/hedgebook/internal/bps"
	"github.com/hedgedesk/hedgebook/internal/classify"
	"github.com/hedgedesk/hedgebook/internal/filter"
	"github.com/hedgedesk/hedgebook/internal/metrics"
	"github.com/hedgedesk/hedgebook/internal/model"
	"github.com/hedgedesk/hedgebook/internal/rollup"
	"github.com/hedgedesk/hedgebook/internal/source"
	"github.com/hedgedesk/hedgebook/internal/store"
)

const defaultSampleLimit = 20

// Book is the row snapshot the handlers read from.
type Book interface {
	Rows(ctx context.Context) ([]model.Position, error)
	PortfolioTotalMV(ctx context.Context) (float64, error)
	Refresh(ctx context.Context) error
	LoadedAt() time.Time
	SourceModTime() (time.Time, bool)
	RemoteRollup(ctx context.Context) (*model.RollupResponse, error)
}

// Handler serves the hedge book API.
type Handler struct {
	book  Book
	store store.Store
	now   func() time.Time
}

// NewHandler creates the API handler. now supplies "today" for the expiry
// ladder when the request does not pin an as_of date; nil means time.Now.
func NewHandler(bk Book, st store.Store, now func() time.Time) *Handler {
	if now == nil {
		now = time.Now
	}
	return &Handler{book: bk, store: st, now: now}
}

// Mount registers every route on r.
func (h *Handler) Mount(r chi.Router) {
	r.Get("/health", h.Health)

	r.Get("/agg-table", h.AggTable)
	r.Get("/sample", h.Sample)
	r.Get("/filters", h.Filters)

	r.Get("/rollup", h.Rollup)
	r.Post("/rollup/verify", h.VerifyRollup)

	r.Get("/breakdown/expiry", h.ExpiryBreakdown)
	r.Get("/breakdown/asset-type", h.AssetTypeBreakdown)
	r.Get("/spreads", h.Spreads)
	r.Get("/bps", h.BasisPoints)

	r.Post("/refresh", h.Refresh)
	r.Post("/trade", h.SaveTrade)
	r.Get("/trade/{tradeID}", h.GetTrade)
	r.Delete("/trade/{tradeID}", h.DeleteTrade)
}

// --- Response types ---

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status   string     `json:"status"`
	Service  string     `json:"service"`
	LoadedAt *time.Time `json:"loaded_at"`
	// SourceModifiedAt is the snapshot file's mtime, when the source is a file.
	SourceModifiedAt *time.Time `json:"source_modified_at"`
}

// SpreadsResponse lists spread packages and each leg next to its package.
type SpreadsResponse struct {
	Spreads []model.SpreadAggregate `json:"spreads"`
	Legs    []model.LegView         `json:"legs"`
}

// BPSResponse is the body of GET /bps.
type BPSResponse struct {
	Value     *float64  `json:"value"`
	Reference float64   `json:"reference"`
	BPS       bps.Value `json:"bps"`
}

// VerifyResponse reports how the local rollup compares to a remote one.
type VerifyResponse struct {
	Match      bool              `json:"match"`
	Mismatches []rollup.Mismatch `json:"mismatches"`
}

// TradeResponse is returned after a manual trade is saved.
type TradeResponse struct {
	Status  string             `json:"status"`
	Created bool               `json:"created"`
	Trade   *model.ManualTrade `json:"trade"`
}

// RefreshResponse is returned after a book reload.
type RefreshResponse struct {
	Status    string    `json:"status"`
	RequestID string    `json:"request_id"`
	Rows      int       `json:"rows"`
	LoadedAt  time.Time `json:"loaded_at"`
}

// --- HTTP Handlers ---

// Health handles GET /api/v1/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", Service: "hedgebook"}
	if at := h.book.LoadedAt(); !at.IsZero() {
		resp.LoadedAt = &at
	}
	if mt, ok := h.book.SourceModTime(); ok {
		resp.SourceModifiedAt = &mt
	}
	writeJSON(w, http.StatusOK, resp)
}

// AggTable handles GET /api/v1/agg-table
// Returns the filtered rows, paged by ?limit= and ?offset=.
func (h *Handler) AggTable(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", 0, 0)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	offset, err := intParam(r, "offset", 0, 0)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	rows, ok := h.filteredRows(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, page(rows, offset, limit))
}

// Sample handles GET /api/v1/sample
func (h *Handler) Sample(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", defaultSampleLimit, 1)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	rows, ok := h.rows(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, page(rows, 0, limit))
}

// Filters handles GET /api/v1/filters
// Options always come from the unfiltered book.
func (h *Handler) Filters(w http.ResponseWriter, r *http.Request) {
	rows, ok := h.rows(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, filter.OptionsFor(rows))
}

// Rollup handles GET /api/v1/rollup
func (h *Handler) Rollup(w http.ResponseWriter, r *http.Request) {
	rows, ok := h.rows(w, r)
	if !ok {
		return
	}
	total, err := h.book.PortfolioTotalMV(r.Context())
	if err != nil {
		writeError(w, "failed to load book", http.StatusInternalServerError)
		return
	}

	start := time.Now()
	header := rollup.Build(rows)
	metrics.ObserveSince(metrics.RollupBuildDuration, start)

	writeJSON(w, http.StatusOK, model.RollupResponse{
		Header:           header,
		GroupedRows:      header.ByFamilyAndStrategy,
		PortfolioTotalMV: total,
	})
}

// VerifyRollup handles POST /api/v1/rollup/verify
// Compares the local rollup with the header in the body, or with the
// upstream's own rollup when the body is empty.
func (h *Handler) VerifyRollup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var remote model.RollupHeader
	err := json.NewDecoder(r.Body).Decode(&remote)
	switch {
	case errors.Is(err, io.EOF):
		resp, err := h.book.RemoteRollup(ctx)
		if errors.Is(err, source.ErrNoRollup) {
			writeError(w, "source does not serve a rollup; post a rollup header instead", http.StatusBadRequest)
			return
		}
		if err != nil {
			slog.Error("fetch remote rollup failed", "err", err)
			writeError(w, "failed to fetch remote rollup", http.StatusBadGateway)
			return
		}
		remote = resp.Header
	case err != nil:
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	rows, ok := h.rows(w, r)
	if !ok {
		return
	}
	mismatches := rollup.Compare(rollup.Build(rows), remote)
	if mismatches == nil {
		mismatches = []rollup.Mismatch{}
	}
	metrics.RollupMismatches.Add(float64(len(mismatches)))
	if len(mismatches) > 0 {
		slog.Warn("rollup verification mismatch", "fields", len(mismatches), "first", mismatches[0].String())
	}

	writeJSON(w, http.StatusOK, VerifyResponse{Match: len(mismatches) == 0, Mismatches: mismatches})
}

// ExpiryBreakdown handles GET /api/v1/breakdown/expiry
// ?as_of=YYYY-MM-DD pins "today"; otherwise the server clock is used.
func (h *Handler) ExpiryBreakdown(w http.ResponseWriter, r *http.Request) {
	today := h.now()
	if asOf := r.URL.Query().Get("as_of"); asOf != "" {
		t, ok := classify.ParseDate(asOf)
		if !ok {
			writeError(w, "as_of must be a date", http.StatusBadRequest)
			return
		}
		today = t
	}

	rows, ok := h.filteredRows(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, aggregate.ByExpiryBucket(rows, today))
}

// AssetTypeBreakdown handles GET /api/v1/breakdown/asset-type
func (h *Handler) AssetTypeBreakdown(w http.ResponseWriter, r *http.Request) {
	rows, ok := h.filteredRows(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, aggregate.ByAssetType(rows))
}

// Spreads handles GET /api/v1/spreads
func (h *Handler) Spreads(w http.ResponseWriter, r *http.Request) {
	rows, ok := h.filteredRows(w, r)
	if !ok {
		return
	}
	spreads := aggregate.ConsolidateSpreads(rows)
	resp := SpreadsResponse{
		Spreads: aggregate.SortedSpreads(spreads),
		Legs:    aggregate.Legs(rows, spreads),
	}
	if resp.Spreads == nil {
		resp.Spreads = []model.SpreadAggregate{}
	}
	if resp.Legs == nil {
		resp.Legs = []model.LegView{}
	}
	writeJSON(w, http.StatusOK, resp)
}

// BasisPoints handles GET /api/v1/bps?value=&reference=
// The reference defaults to the portfolio total MV.
func (h *Handler) BasisPoints(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var value *float64
	if s := q.Get("value"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			writeError(w, "value must be a finite number", http.StatusBadRequest)
			return
		}
		value = &v
	}

	var reference float64
	if s := q.Get("reference"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			writeError(w, "reference must be a finite number", http.StatusBadRequest)
			return
		}
		reference = v
	} else {
		total, err := h.book.PortfolioTotalMV(r.Context())
		if err != nil {
			writeError(w, "failed to load book", http.StatusInternalServerError)
			return
		}
		reference = total
	}

	writeJSON(w, http.StatusOK, BPSResponse{
		Value:     value,
		Reference: reference,
		BPS:       bps.Of(value, reference),
	})
}

// Refresh handles POST /api/v1/refresh
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.New().String()
	ctx := r.Context()

	if err := h.book.Refresh(ctx); err != nil {
		slog.Error("book refresh failed", "request_id", requestID, "err", err)
		writeError(w, "refresh failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	rows, ok := h.rows(w, r)
	if !ok {
		return
	}

	slog.Info("book refreshed", "request_id", requestID, "rows", len(rows))
	writeJSON(w, http.StatusOK, RefreshResponse{
		Status:    "success",
		RequestID: requestID,
		Rows:      len(rows),
		LoadedAt:  h.book.LoadedAt(),
	})
}

// SaveTrade handles POST /api/v1/trade
// Validates and upserts a manual trade, then reloads the book.
func (h *Handler) SaveTrade(w http.ResponseWriter, r *http.Request) {
	var trade model.ManualTrade
	if err := json.NewDecoder(r.Body).Decode(&trade); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := ValidateManualTrade(&trade); err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	trade.UpdatedAt = h.now().UTC()

	ctx := r.Context()
	created, err := h.store.UpsertManualTrade(ctx, &trade)
	if err != nil {
		slog.Error("save manual trade failed", "investment_id", trade.InvestmentID, "err", err)
		writeError(w, "failed to save trade", http.StatusInternalServerError)
		return
	}

	op := "updated"
	status := http.StatusOK
	if created {
		op = "created"
		status = http.StatusCreated
	}
	metrics.ManualTradesSaved.WithLabelValues(op).Inc()

	slog.Info("manual trade saved",
		"id", trade.ID,
		"investment_id", trade.InvestmentID,
		"pretty_name", trade.PrettyName,
		"op", op,
	)

	if err := h.book.Refresh(ctx); err != nil {
		slog.Error("book refresh after trade failed", "id", trade.ID, "err", err)
		writeError(w, "trade saved but refresh failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, status, TradeResponse{Status: "success", Created: created, Trade: &trade})
}

// GetTrade handles GET /api/v1/trade/{tradeID}
func (h *Handler) GetTrade(w http.ResponseWriter, r *http.Request) {
	tradeID := chi.URLParam(r, "tradeID")

	trade, err := h.store.GetManualTrade(r.Context(), tradeID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, "trade not found", http.StatusNotFound)
			return
		}
		slog.Error("get manual trade failed", "id", tradeID, "err", err)
		writeError(w, "failed to get trade", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, trade)
}

// DeleteTrade handles DELETE /api/v1/trade/{tradeID}
func (h *Handler) DeleteTrade(w http.ResponseWriter, r *http.Request) {
	tradeID := chi.URLParam(r, "tradeID")
	ctx := r.Context()

	if err := h.store.DeleteManualTrade(ctx, tradeID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, "trade not found", http.StatusNotFound)
			return
		}
		writeError(w, "failed to delete trade", http.StatusInternalServerError)
		return
	}
	metrics.ManualTradesSaved.WithLabelValues("deleted").Inc()
	slog.Info("manual trade deleted", "id", tradeID)

	if err := h.book.Refresh(ctx); err != nil {
		slog.Error("book refresh after delete failed", "id", tradeID, "err", err)
		writeError(w, "trade deleted but refresh failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Helpers ---

func (h *Handler) rows(w http.ResponseWriter, r *http.Request) ([]model.Position, bool) {
	rows, err := h.book.Rows(r.Context())
	if err != nil {
		slog.Error("load book failed", "err", err)
		writeError(w, "failed to load book", http.StatusInternalServerError)
		return nil, false
	}
	return rows, true
}

func (h *Handler) filteredRows(w http.ResponseWriter, r *http.Request) ([]model.Position, bool) {
	rows, ok := h.rows(w, r)
	if !ok {
		return nil, false
	}
	c := criteriaFrom(r)
	if c.IsZero() {
		return rows, true
	}
	return filter.Apply(rows, c), true
}

func criteriaFrom(r *http.Request) filter.Criteria {
	q := r.URL.Query()
	return filter.Criteria{
		Family:   q.Get("family"),
		Strategy: q.Get("strategy"),
		Query:    q.Get("q"),
	}
}

// intParam reads an integer query parameter no smaller than least.
func intParam(r *http.Request, name string, def, least int) (int, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < least {
		return 0, fmt.Errorf("%s must be an integer of at least %d", name, least)
	}
	return n, nil
}

// page returns rows[offset:offset+limit]; limit 0 means no limit.
func page(rows []model.Position, offset, limit int) []model.Position {
	if offset >= len(rows) {
		return []model.Position{}
	}
	rows = rows[offset:]
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}
