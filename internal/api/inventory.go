package api

import (
	"net/http"
	"strconv"

	"github.com/erazemk/zaloga/internal/inventory"
	"github.com/erazemk/zaloga/internal/model"
	"github.com/erazemk/zaloga/internal/store"
)

// InventoryHandler handles stock ledger endpoints.
type InventoryHandler struct {
	Svc *inventory.Service
}

type adjustRequest struct {
	Item     string `json:"item"`
	Location string `json:"location"`
	Delta    int    `json:"delta"`
	Reason   string `json:"reason"`
	Unit     string `json:"unit"`
}

type countRequest struct {
	Item     string `json:"item"`
	Location string `json:"location"`
	Qty      int    `json:"qty"`
}

type stockTakeRequest struct {
	Location string        `json:"location"`
	Counts   []model.Count `json:"counts"`
}

// List handles GET /api/inventory. Without ?location= it lists the main
// location.
func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
	location := r.URL.Query().Get("location")
	if location == "" {
		location = h.Svc.MainLocation()
	}

	items, err := h.Svc.ListInventory(r.Context(), actorFrom(r), location)
	if err != nil {
		writeError(w, err)
		return
	}
	if items == nil {
		items = []model.InventoryItem{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Locations handles GET /api/locations.
func (h *InventoryHandler) Locations(w http.ResponseWriter, r *http.Request) {
	locations, err := h.Svc.ListLocations(r.Context(), actorFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	if locations == nil {
		locations = []string{}
	}
	jsonResponse(w, http.StatusOK, locations)
}

// Adjust handles POST /api/inventory/adjust.
func (h *InventoryHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	var req adjustRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	entry, err := h.Svc.AdjustStock(r.Context(), actorFrom(r), req.Item, req.Location, req.Delta, req.Reason, req.Unit)
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, entry)
}

// Count handles POST /api/inventory/count, recording one physical count.
func (h *InventoryHandler) Count(w http.ResponseWriter, r *http.Request) {
	var req countRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	entry, err := h.Svc.SetStockCount(r.Context(), actorFrom(r), req.Item, req.Location, req.Qty)
	if err != nil {
		writeError(w, err)
		return
	}
	if entry == nil {
		jsonMessage(w, "count matches, nothing changed")
		return
	}
	jsonResponse(w, http.StatusOK, entry)
}

// StockTake handles POST /api/inventory/stocktake.
func (h *InventoryHandler) StockTake(w http.ResponseWriter, r *http.Request) {
	var req stockTakeRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	changed, err := h.Svc.StockTake(r.Context(), actorFrom(r), req.Location, req.Counts)
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]int{"changed": changed})
}

// Logs handles GET /api/stock-logs?item=&location=&op_id=&limit=.
func (h *InventoryHandler) Logs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := store.StockLogFilter{
		Item:     q.Get("item"),
		Location: q.Get("location"),
		OpID:     q.Get("op_id"),
	}
	if limit := q.Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			jsonError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		f.Limit = n
	}

	logs, err := h.Svc.ListStockLogs(r.Context(), actorFrom(r), f)
	if err != nil {
		writeError(w, err)
		return
	}
	if logs == nil {
		logs = []model.StockLogEntry{}
	}
	jsonResponse(w, http.StatusOK, logs)
}

// Ledger handles GET /api/ledger?item=&location=, reconciling the stock log
// against the current quantity.
func (h *InventoryHandler) Ledger(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	check, err := h.Svc.VerifyLedger(r.Context(), actorFrom(r), q.Get("item"), q.Get("location"))
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]any{
		"check":    check,
		"balanced": check.Balanced(),
	})
}
