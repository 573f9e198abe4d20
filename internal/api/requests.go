package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/erazemk/zaloga/internal/inventory"
	"github.com/erazemk/zaloga/internal/model"
)

// RequestsHandler handles the supply request workflow.
type RequestsHandler struct {
	Svc *inventory.Service
}

type editRequestRequest struct {
	Qty   int     `json:"qty"`
	Notes *string `json:"notes"`
}

type decisionRequest struct {
	Qty   int    `json:"qty"`
	Notes string `json:"notes"`
}

type statusRequest struct {
	Status string `json:"status"`
	Qty    int    `json:"qty"`
	Notes  string `json:"notes"`
}

type bulkCreateRequest struct {
	Requests []model.NewRequest `json:"requests"`
}

type bulkIDsRequest struct {
	IDs   []int64 `json:"ids"`
	Notes string  `json:"notes"`
}

type bulkIssueRequest struct {
	Lines []model.IssueLine `json:"lines"`
}

// List handles GET /api/requests?status=&supervisor=&region=.
func (h *RequestsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := model.RequestFilter{
		Status:     q.Get("status"),
		Supervisor: q.Get("supervisor"),
		Regions:    q["region"],
	}

	requests, err := h.Svc.ListRequests(r.Context(), actorFrom(r), f)
	if err != nil {
		writeError(w, err)
		return
	}
	if requests == nil {
		requests = []model.Request{}
	}
	jsonResponse(w, http.StatusOK, requests)
}

// Create handles POST /api/requests.
func (h *RequestsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.NewRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.Svc.CreateRequest(r.Context(), actorFrom(r), req)
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusCreated, created)
}

// BulkCreate handles POST /api/requests/bulk.
func (h *RequestsHandler) BulkCreate(w http.ResponseWriter, r *http.Request) {
	var req bulkCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ids, err := h.Svc.CreateRequests(r.Context(), actorFrom(r), req.Requests)
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusCreated, map[string][]int64{"ids": ids})
}

// Get handles GET /api/requests/{id}.
func (h *RequestsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request id")
		return
	}

	req, err := h.Svc.GetRequest(r.Context(), actorFrom(r), id)
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, req)
}

// Update handles PUT /api/requests/{id}, editing a Pending request.
func (h *RequestsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request id")
		return
	}

	var req editRequestRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.Svc.EditRequest(r.Context(), actorFrom(r), id, req.Qty, req.Notes); err != nil {
		writeError(w, err)
		return
	}
	jsonMessage(w, "request updated")
}

// Delete handles DELETE /api/requests/{id}.
func (h *RequestsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request id")
		return
	}

	if err := h.Svc.DeleteRequest(r.Context(), actorFrom(r), id); err != nil {
		writeError(w, err)
		return
	}
	jsonMessage(w, "request deleted")
}

// SetStatus handles PUT /api/requests/{id}/status.
func (h *RequestsHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request id")
		return
	}

	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.Svc.SetRequestStatus(r.Context(), actorFrom(r), id, req.Status, req.Qty, req.Notes); err != nil {
		writeError(w, err)
		return
	}
	jsonMessage(w, "request is now "+req.Status)
}

// Approve handles POST /api/requests/{id}/approve. A positive qty revises
// the requested quantity.
func (h *RequestsHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, model.RequestApproved)
}

// Reject handles POST /api/requests/{id}/reject.
func (h *RequestsHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, model.RequestRejected)
}

// Issue handles POST /api/requests/{id}/issue. A positive qty issues less
// than approved.
func (h *RequestsHandler) Issue(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, model.RequestIssued)
}

// Receive handles POST /api/requests/{id}/receive.
func (h *RequestsHandler) Receive(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, model.RequestReceived)
}

// decide applies one transition and replies with the updated request. The
// body is optional.
func (h *RequestsHandler) decide(w http.ResponseWriter, r *http.Request, status string) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request id")
		return
	}

	var req decisionRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	actor := actorFrom(r)
	if err := h.Svc.SetRequestStatus(r.Context(), actor, id, status, req.Qty, req.Notes); err != nil {
		writeError(w, err)
		return
	}

	updated, err := h.Svc.GetRequest(r.Context(), actor, id)
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, updated)
}

// BulkApprove handles POST /api/requests/bulk/approve.
func (h *RequestsHandler) BulkApprove(w http.ResponseWriter, r *http.Request) {
	var req bulkIDsRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.Svc.ApproveRequests(r.Context(), actorFrom(r), req.IDs); err != nil {
		writeError(w, err)
		return
	}
	jsonMessage(w, "requests approved")
}

// BulkReject handles POST /api/requests/bulk/reject.
func (h *RequestsHandler) BulkReject(w http.ResponseWriter, r *http.Request) {
	var req bulkIDsRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.Svc.RejectRequests(r.Context(), actorFrom(r), req.IDs, req.Notes); err != nil {
		writeError(w, err)
		return
	}
	jsonMessage(w, "requests rejected")
}

// BulkIssue handles POST /api/requests/bulk/issue.
func (h *RequestsHandler) BulkIssue(w http.ResponseWriter, r *http.Request) {
	var req bulkIssueRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.Svc.IssueRequests(r.Context(), actorFrom(r), req.Lines); err != nil {
		writeError(w, err)
		return
	}
	jsonMessage(w, "requests issued")
}

// BulkReceive handles POST /api/requests/bulk/receive.
func (h *RequestsHandler) BulkReceive(w http.ResponseWriter, r *http.Request) {
	var req bulkIDsRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.Svc.ReceiveRequests(r.Context(), actorFrom(r), req.IDs); err != nil {
		writeError(w, err)
		return
	}
	jsonMessage(w, "receipts confirmed")
}
