package services

import (
	"iva-service/internal/importer"
	"iva-service/internal/listing"
	"iva-service/internal/models"
	"iva-service/internal/reconciler"
	"iva-service/internal/repositories"
)

// ListQuery selects, sorts and pages a book. An empty Sort keeps the
// default order: invoice number for sales, insertion for purchases.
type ListQuery struct {
	Filter    repositories.InvoiceFilter
	Sort      string
	Direction listing.Direction
	Page      int
	PerPage   int
}

type SalesBatchRequest struct {
	Invoices      []*models.SalesInvoice `json:"invoices" validate:"required,min=1,dive,required"`
	CompanyCUIT   string                 `json:"cuitEmpresa" validate:"required"`
	CompanyName   string                 `json:"nombreEmpresa" validate:"required"`
	OperationType string                 `json:"tipoOperacion,omitempty"`
}

type PurchaseBatchRequest struct {
	Invoices      []*models.PurchaseInvoice `json:"invoices" validate:"required,min=1,dive,required"`
	CompanyCUIT   string                    `json:"cuitEmpresa" validate:"required"`
	CompanyName   string                    `json:"nombreEmpresa" validate:"required"`
	OperationType string                    `json:"tipoOperacion,omitempty"`
}

// ClosePeriodRequest asks to close ("impactar") one month of a book
type ClosePeriodRequest struct {
	CompanyCUIT   string `json:"cuitEmpresa" validate:"required"`
	Period        string `json:"periodo" validate:"required,period"`
	OperationType string `json:"tipoOperacion" validate:"omitempty,oneof='IVA Ventas' 'IVA Compras'"`
}

type ClosePeriodResult struct {
	Message string `json:"message"`
	Count   int    `json:"cantidad"`
}

// ImportSummary counts what a batch import did
type ImportSummary struct {
	Received    int                 `json:"received"`
	Inserted    int                 `json:"inserted"`
	Duplicates  int                 `json:"duplicates"`
	Synthesized int                 `json:"synthesized"`
	RowErrors   []importer.RowError `json:"rowErrors,omitempty"`
}

// SalesListing is one page of the reconciled sales book with the
// annotations computed over the whole filtered set.
type SalesListing struct {
	listing.Page[*models.SalesInvoice]
	Skipped     []reconciler.SkippedRecord `json:"skipped,omitempty"`
	Synthesized int                        `json:"synthesized"`
	Duplicates  int                        `json:"duplicates"`
	Errors      reconciler.ErrorCount      `json:"errors"`
	CanClose    bool                       `json:"canClose"`
}

type SalesBatchResult struct {
	Summary ImportSummary `json:"summary"`
	Listing *SalesListing `json:"listing"`
}

type PurchaseListing struct {
	listing.Page[*models.PurchaseInvoice]
	IVAErrors int  `json:"ivaErrors"`
	CanClose  bool `json:"canClose"`
}

type PurchaseBatchResult struct {
	Summary ImportSummary    `json:"summary"`
	Listing *PurchaseListing `json:"listing"`
}
