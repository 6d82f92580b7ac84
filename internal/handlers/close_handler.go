package handlers

import (
	"context"
	"net/http"
	"sync"

	"iva-service/internal/models"
	"iva-service/internal/services"
)

type periodCloser interface {
	ClosePeriod(ctx context.Context, req *services.ClosePeriodRequest) (*services.ClosePeriodResult, error)
}

// CloseHandler closes a period of either book. Only one close per company,
// book and period runs at a time.
type CloseHandler struct {
	sales           periodCloser
	purchases       periodCloser
	processingMutex sync.Mutex
	activeProcesses map[string]bool
}

func NewCloseHandler(sales, purchases periodCloser) *CloseHandler {
	return &CloseHandler{
		sales:           sales,
		purchases:       purchases,
		activeProcesses: make(map[string]bool),
	}
}

func (h *CloseHandler) ClosePeriod(w http.ResponseWriter, r *http.Request) {
	var req services.ClosePeriodRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithErr(w, r, err)
		return
	}

	operation := req.OperationType
	if operation == "" {
		operation = models.OperationSales
	}
	closer := h.sales
	if operation == models.OperationPurchases {
		closer = h.purchases
	}

	processKey := req.CompanyCUIT + "_" + operation + "_" + req.Period

	h.processingMutex.Lock()
	if h.activeProcesses[processKey] {
		h.processingMutex.Unlock()
		respondWithError(w, http.StatusConflict, "Period close already in progress")
		return
	}
	h.activeProcesses[processKey] = true
	h.processingMutex.Unlock()

	defer func() {
		h.processingMutex.Lock()
		delete(h.activeProcesses, processKey)
		h.processingMutex.Unlock()
	}()

	result, err := closer.ClosePeriod(r.Context(), &req)
	if err != nil {
		respondWithErr(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}
