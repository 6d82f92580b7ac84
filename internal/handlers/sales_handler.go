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

type SalesService interface {
	ImportBatch(ctx context.Context, req *services.SalesBatchRequest) (*services.SalesBatchResult, error)
	List(ctx context.Context, q services.ListQuery) (*services.SalesListing, error)
	Update(ctx context.Context, id int64, in *models.SalesInvoice, operation string) (*models.SalesInvoice, error)
	ClosePeriod(ctx context.Context, req *services.ClosePeriodRequest) (*services.ClosePeriodResult, error)
	Dashboard(ctx context.Context, filter repositories.InvoiceFilter) (*services.SalesDashboard, error)
	AuditTrail(ctx context.Context, id int64) ([]*models.AuditEntry, error)
}

type SalesHandler struct {
	service        SalesService
	pageSize       int
	maxUploadBytes int64
}

func NewSalesHandler(service SalesService, pageSize int, maxUploadBytes int64) *SalesHandler {
	return &SalesHandler{
		service:        service,
		pageSize:       pageSize,
		maxUploadBytes: maxUploadBytes,
	}
}

func (h *SalesHandler) List(w http.ResponseWriter, r *http.Request) {
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

// ImportBatch takes invoices already parsed by the client
func (h *SalesHandler) ImportBatch(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	var req services.SalesBatchRequest
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

// ImportCSV takes the raw sales export as the request body. The owning
// company comes from the cuit and nombre query parameters.
func (h *SalesHandler) ImportCSV(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	parsed, err := importer.ParseSales(r.Body)
	if err != nil {
		respondWithErr(w, r, ierr.Mark(err, ierr.ErrValidation))
		return
	}
	if len(parsed.Invoices) == 0 {
		respondWithJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":     "no valid invoices in file",
			"rowErrors": parsed.Errors,
		})
		return
	}

	result, err := h.service.ImportBatch(r.Context(), &services.SalesBatchRequest{
		Invoices:      parsed.Invoices,
		CompanyCUIT:   r.URL.Query().Get("cuit"),
		CompanyName:   r.URL.Query().Get("nombre"),
		OperationType: models.OperationSales,
	})
	if err != nil {
		respondWithErr(w, r, err)
		return
	}
	result.Summary.RowErrors = parsed.Errors
	respondWithJSON(w, http.StatusCreated, result)
}

func (h *SalesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondWithErr(w, r, err)
		return
	}

	var req struct {
		models.SalesInvoice
		OperationType string `json:"tipoOperacion"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondWithErr(w, r, err)
		return
	}

	updated, err := h.service.Update(r.Context(), id, &req.SalesInvoice, req.OperationType)
	if err != nil {
		respondWithErr(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, updated)
}

func (h *SalesHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
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

func (h *SalesHandler) AuditTrail(w http.ResponseWriter, r *http.Request) {
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
