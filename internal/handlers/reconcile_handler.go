package handlers

import (
	"context"
	"net/http"

	"iva-service/internal/services"
)

type Reconciler interface {
	Reconcile(ctx context.Context, req *services.ReconcileRequest) (*services.SalesListing, error)
}

// ReconcileHandler runs the checks over a working set sent by the client.
// Nothing is stored.
type ReconcileHandler struct {
	service        Reconciler
	pageSize       int
	maxUploadBytes int64
}

func NewReconcileHandler(service Reconciler, pageSize int, maxUploadBytes int64) *ReconcileHandler {
	return &ReconcileHandler{
		service:        service,
		pageSize:       pageSize,
		maxUploadBytes: maxUploadBytes,
	}
}

func (h *ReconcileHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	q, err := parseListQuery(r, h.pageSize)
	if err != nil {
		respondWithErr(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	var req services.ReconcileRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithErr(w, r, err)
		return
	}
	req.Query = q

	result, err := h.service.Reconcile(r.Context(), &req)
	if err != nil {
		respondWithErr(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}
