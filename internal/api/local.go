package api

import (
	"net/http"
	"strconv"

	"github.com/erazemk/zaloga/internal/inventory"
	"github.com/erazemk/zaloga/internal/model"
)

// LocalHandler handles regional holdings and the activity log.
type LocalHandler struct {
	Svc *inventory.Service
}

type creditLocalRequest struct {
	Region string `json:"region"`
	Item   string `json:"item"`
	Delta  int    `json:"delta"`
}

type localCountRequest struct {
	Counts []model.Count `json:"counts"`
}

// List handles GET /api/local?region=.
func (h *LocalHandler) List(w http.ResponseWriter, r *http.Request) {
	records, err := h.Svc.ListLocalInventory(r.Context(), actorFrom(r), r.URL.Query().Get("region"))
	if err != nil {
		writeError(w, err)
		return
	}
	if records == nil {
		records = []model.LocalInventoryRecord{}
	}
	jsonResponse(w, http.StatusOK, records)
}

// Credit handles POST /api/local/credit.
func (h *LocalHandler) Credit(w http.ResponseWriter, r *http.Request) {
	var req creditLocalRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.Svc.CreditLocalInventory(r.Context(), actorFrom(r), req.Region, req.Item, req.Delta); err != nil {
		writeError(w, err)
		return
	}
	jsonMessage(w, "local inventory credited")
}

// Count handles PUT /api/local/{region}, overwriting holdings with counts.
func (h *LocalHandler) Count(w http.ResponseWriter, r *http.Request) {
	var req localCountRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.Svc.SetLocalInventoryCounts(r.Context(), actorFrom(r), r.PathValue("region"), req.Counts); err != nil {
		writeError(w, err)
		return
	}
	jsonMessage(w, "local inventory counted")
}

// Activity handles GET /api/activity?module=&limit=.
func (h *LocalHandler) Activity(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := 0
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			jsonError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	entries, err := h.Svc.ListActivity(r.Context(), actorFrom(r), q.Get("module"), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if entries == nil {
		entries = []model.ActivityEntry{}
	}
	jsonResponse(w, http.StatusOK, entries)
}
