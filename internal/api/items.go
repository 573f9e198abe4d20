package api

import (
	"net/http"

	"github.com/erazemk/zaloga/internal/inventory"
	"github.com/erazemk/zaloga/internal/model"
)

// ItemsHandler handles the item catalogue. Items are never deleted, only
// zeroed or marked with a status.
type ItemsHandler struct {
	Svc *inventory.Service
}

type createItemRequest struct {
	Name     string `json:"name"`
	Location string `json:"location"`
	Category string `json:"category"`
	Unit     string `json:"unit"`
	Qty      int    `json:"qty"`
	Status   string `json:"status"`
}

type updateItemRequest struct {
	Category string `json:"category"`
	Unit     string `json:"unit"`
	Status   string `json:"status"`
}

// Create handles POST /api/items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createItemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.Svc.CreateItem(r.Context(), actorFrom(r), model.InventoryItem{
		Name:     req.Name,
		Location: req.Location,
		Category: req.Category,
		Unit:     req.Unit,
		Qty:      req.Qty,
		Status:   req.Status,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusCreated, item)
}

// Update handles PUT /api/locations/{location}/items/{name}.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateItemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	name, location := r.PathValue("name"), r.PathValue("location")
	if err := h.Svc.UpdateItem(r.Context(), actorFrom(r), name, location, req.Category, req.Unit, req.Status); err != nil {
		writeError(w, err)
		return
	}
	jsonMessage(w, "item updated")
}
