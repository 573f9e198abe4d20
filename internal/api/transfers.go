package api

import (
	"net/http"

	"github.com/erazemk/zaloga/internal/inventory"
	"github.com/erazemk/zaloga/internal/store"
)

// TransfersHandler handles stock movements between locations and outside
// parties.
type TransfersHandler struct {
	Svc *inventory.Service
}

type transferRequest struct {
	Item string `json:"item"`
	From string `json:"from"`
	To   string `json:"to"`
	Qty  int    `json:"qty"`
	Unit string `json:"unit"`
}

type loanRequest struct {
	Item      string `json:"item"`
	Location  string `json:"location"`
	Party     string `json:"party"`
	Direction string `json:"direction"`
	Qty       int    `json:"qty"`
	Unit      string `json:"unit"`
}

type receiveExternalRequest struct {
	Item     string `json:"item"`
	Location string `json:"location"`
	Source   string `json:"source"`
	Qty      int    `json:"qty"`
	Category string `json:"category"`
	Unit     string `json:"unit"`
}

// Create handles POST /api/transfers. Without from and to it restocks the
// main location from the transfer source.
func (h *TransfersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var (
		t   *store.Transfer
		err error
	)
	if req.From == "" && req.To == "" {
		t, err = h.Svc.TransferStock(r.Context(), actorFrom(r), req.Item, req.Qty, req.Unit)
	} else {
		t, err = h.Svc.TransferBetween(r.Context(), actorFrom(r), req.Item, req.From, req.To, req.Qty, req.Unit)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusCreated, t)
}

// Loan handles POST /api/loans.
func (h *TransfersHandler) Loan(w http.ResponseWriter, r *http.Request) {
	var req loanRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	entry, err := h.Svc.Loan(r.Context(), actorFrom(r), req.Item, req.Location, req.Party, req.Direction, req.Qty, req.Unit)
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusCreated, entry)
}

// Receive handles POST /api/receipts, crediting stock arriving from outside.
func (h *TransfersHandler) Receive(w http.ResponseWriter, r *http.Request) {
	var req receiveExternalRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	entry, err := h.Svc.ReceiveExternal(r.Context(), actorFrom(r), req.Item, req.Location, req.Source, req.Qty, req.Category, req.Unit)
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusCreated, entry)
}
