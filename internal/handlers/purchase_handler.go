package handlers

import (
	"context"
	"net/http"

	ierr "iva-service/internal/errors"
	"iva-service/internal/importer"
	"iva-service/internal/models"
	"iva-service/internal/repositories"
	"iva-service/internal/services"
)

type PurchaseService interface {
	ImportBatch(ctx context.Context, req *services.PurchaseBatchRequest) (*services.PurchaseBatchResult, error)
	Create(ctx context.Context, req *services.CreatePurchaseRequest) (*models.PurchaseInvoice, error)
	Update(ctx context.Context, id int64, in *models.PurchaseInvoice) (*models.PurchaseInvoice, error)
	List(ctx context.Context, q services.ListQuery) (*services.PurchaseListing, error)
	ClosePeriod(ctx context.Context, req *services.ClosePeriodRequest) (*services.ClosePeriodResult, error)
	Dashboard(ctx context.Context, filter repositories.InvoiceFilter) (*services.PurchaseDashboard, error)
	AuditTrail(ctx context.Context, id int64) ([]*models.AuditEntry, error)
}

type PurchaseHandler struct {
	service        PurchaseService
	pageSize       int
	maxUploadBytes int64
}

func NewPurchaseHandler(service PurchaseService, pageSize int, maxUploadBytes int64) *PurchaseHandler {
	return &PurchaseHandler{
		service:        service,
		pageSize:       pageSize,
		maxUploadBytes: maxUploadBytes,
	}
}

func (h *PurchaseHandler) List(w http.ResponseWriter, r *http.Request) {
	q, err := parseListQuery(r, h.pageSize)
	if err != nil {
		respondWithErr(w, r, err)
		return
	}

	result, err := h.service.List(r.Context(), q)
	if err != nil {
		respondWithErr(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

func (h *PurchaseHandler) ImportBatch(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	var req services.PurchaseBatchRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithErr(w, r, err)
		return
	}

	result, err := h.service.ImportBatch(r.Context(), &req)
	if err != nil {
		respondWithErr(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, result)
}

// ImportCSV takes an AFIP received-vouchers export as the request body
func (h *PurchaseHandler) ImportCSV(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	cuit := r.URL.Query().Get("cuit")
	name := r.URL.Query().Get("nombre")

	parsed, err := importer.ParsePurchases(r.Body, cuit, name)
	if err != nil {
		respondWithErr(w, r, ierr.Mark(err, ierr.ErrValidation))
		return
	}
	if len(parsed.Invoices) == 0 {
		respondWithJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":     "no valid purchases in file",
			"rowErrors": parsed.Errors,
		})
		return
	}

	result, err := h.service.ImportBatch(r.Context(), &services.PurchaseBatchRequest{
		Invoices:      parsed.Invoices,
		CompanyCUIT:   cuit,
		CompanyName:   name,
		OperationType: models.OperationPurchases,
	})
	if err != nil {
		respondWithErr(w, r, err)
		return
	}
	result.Summary.RowErrors = parsed.Errors
	respondWithJSON(w, http.StatusCreated, result)
}

func (h *PurchaseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req services.CreatePurchaseRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithErr(w, r, err)
		return
	}

	created, err := h.service.Create(r.Context(), &req)
	if err != nil {
		respondWithErr(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, created)
}

func (h *PurchaseHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondWithErr(w, r, err)
		return
	}

	var in models.PurchaseInvoice
	if err := decodeJSON(r, &in); err != nil {
		respondWithErr(w, r, err)
		return
	}

	updated, err := h.service.Update(r.Context(), id, &in)
	if err != nil {
		respondWithErr(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, updated)
}

func (h *PurchaseHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		respondWithErr(w, r, err)
		return
	}

	result, err := h.service.Dashboard(r.Context(), filter)
	if err != nil {
		respondWithErr(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

func (h *PurchaseHandler) AuditTrail(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondWithErr(w, r, err)
		return
	}

	entries, err := h.service.AuditTrail(r.Context(), id)
	if err != nil {
		respondWithErr(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, entries)
}
