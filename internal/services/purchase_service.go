package services

import (
	"context"
	"database/sql"

	"github.com/rs/zerolog"

	"iva-service/internal/database"
	ierr "iva-service/internal/errors"
	"iva-service/internal/listing"
	"iva-service/internal/models"
	"iva-service/internal/reconciler"
	"iva-service/internal/repositories"
	"iva-service/internal/validator"
)

type PurchaseService struct {
	db           *sql.DB
	purchaseRepo repositories.PurchaseInvoiceRepository
	auditRepo    repositories.AuditRepository
	log          zerolog.Logger
}

func NewPurchaseService(
	db *sql.DB,
	purchaseRepo repositories.PurchaseInvoiceRepository,
	auditRepo repositories.AuditRepository,
	log zerolog.Logger,
) *PurchaseService {
	return &PurchaseService{
		db:           db,
		purchaseRepo: purchaseRepo,
		auditRepo:    auditRepo,
		log:          log,
	}
}

// CreatePurchaseRequest is a manually entered purchase
type CreatePurchaseRequest struct {
	models.PurchaseInvoice
	CompanyCUIT string `json:"cuitEmpresa" validate:"required"`
	Number      string `json:"nro" validate:"required"`
}

// ImportBatch stores the purchases of req not seen before for the company.
// A purchase is identified by company, provider and number, since
// different providers reuse the same numbers.
func (s *PurchaseService) ImportBatch(ctx context.Context, req *PurchaseBatchRequest) (*PurchaseBatchResult, error) {
	if err := validator.ValidateRequest(req); err != nil {
		return nil, err
	}

	summary := ImportSummary{Received: len(req.Invoices)}
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		for _, in := range req.Invoices {
			inv := *in
			inv.ID = 0
			inv.CompanyCUIT = req.CompanyCUIT
			inv.CompanyName = req.CompanyName
			if inv.Classification == "" {
				inv.Classification = unclassified
			}

			_, err := s.purchaseRepo.FindByKey(ctx, tx, req.CompanyCUIT, inv.ProviderCUIT, inv.Number)
			if err == nil {
				summary.Duplicates++
				continue
			}
			if !ierr.IsNotFound(err) {
				return err
			}

			if err := s.purchaseRepo.Insert(ctx, tx, &inv); err != nil {
				return err
			}
			if err := s.audit(ctx, tx, &inv, models.AuditPurchaseImport, models.ProcessInProgress); err != nil {
				return err
			}
			summary.Inserted++
		}
		return nil
	})
	if err != nil {
		return nil, ierr.Wrap(err, "import purchase batch")
	}

	s.log.Info().
		Str("cuit", req.CompanyCUIT).
		Int("received", summary.Received).
		Int("inserted", summary.Inserted).
		Int("duplicates", summary.Duplicates).
		Msg("Purchase batch imported")

	page, err := s.List(ctx, ListQuery{Filter: repositories.InvoiceFilter{CompanyCUIT: req.CompanyCUIT}})
	if err != nil {
		return nil, err
	}
	return &PurchaseBatchResult{Summary: summary, Listing: page}, nil
}

// Create stores a single manually entered purchase
func (s *PurchaseService) Create(ctx context.Context, req *CreatePurchaseRequest) (*models.PurchaseInvoice, error) {
	if err := validator.ValidateRequest(req); err != nil {
		return nil, err
	}

	inv := req.PurchaseInvoice
	inv.ID = 0
	inv.CompanyCUIT = req.CompanyCUIT
	inv.Number = req.Number

	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.purchaseRepo.Insert(ctx, tx, &inv); err != nil {
			return err
		}
		return s.audit(ctx, tx, &inv, models.AuditManualCreate, models.ProcessInProgress)
	})
	if err != nil {
		return nil, ierr.Wrap(err, "create purchase invoice")
	}

	inv.ControlIVA = reconciler.CheckPurchaseIVA(&inv)
	s.log.Info().Int64("id", inv.ID).Str("nro", inv.Number).Msg("Purchase invoice created")
	return &inv, nil
}

// Update overwrites the editable fields of a stored purchase
func (s *PurchaseService) Update(ctx context.Context, id int64, in *models.PurchaseInvoice) (*models.PurchaseInvoice, error) {
	inv, err := s.purchaseRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	inv.Provider = in.Provider
	inv.ProviderCUIT = in.ProviderCUIT
	inv.ImputationDate = in.ImputationDate
	inv.DocType = in.DocType
	inv.Number = in.Number
	inv.Classification = in.Classification
	inv.TaxableAmount = in.TaxableAmount
	inv.Exempt = in.Exempt
	inv.PercIVA = in.PercIVA
	inv.PercIIBB = in.PercIIBB
	inv.PercMun = in.PercMun
	inv.IncomeTax = in.IncomeTax
	inv.IVA27 = in.IVA27
	inv.IVA21 = in.IVA21
	inv.IVA105 = in.IVA105
	inv.OtherWithholdings = in.OtherWithholdings
	inv.Total = in.Total

	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.purchaseRepo.Update(ctx, tx, inv); err != nil {
			return err
		}
		return s.audit(ctx, tx, inv, models.AuditPurchaseModified, models.ProcessInProgress)
	})
	if err != nil {
		return nil, ierr.Wrapf(err, "update purchase invoice %d", id)
	}

	inv.ControlIVA = reconciler.CheckPurchaseIVA(inv)
	s.log.Info().Int64("id", id).Str("nro", inv.Number).Msg("Purchase invoice updated")
	return inv, nil
}

func (s *PurchaseService) audit(ctx context.Context, tx *sql.Tx, inv *models.PurchaseInvoice, modification, state string) error {
	return s.auditRepo.Create(ctx, tx, &models.AuditEntry{
		UserID:        models.DefaultUserID,
		DocumentID:    inv.ID,
		CompanyCUIT:   inv.CompanyCUIT,
		DocumentNro:   inv.Number,
		Modification:  modification,
		ProcessState:  state,
		OperationType: models.OperationPurchases,
	})
}

func (s *PurchaseService) load(ctx context.Context, filter repositories.InvoiceFilter) ([]*models.PurchaseInvoice, error) {
	invoices, err := s.purchaseRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	reconciler.ApplyPurchaseIVA(invoices)
	return invoices, nil
}

// List returns one page of the checked purchase book
func (s *PurchaseService) List(ctx context.Context, q ListQuery) (*PurchaseListing, error) {
	invoices, err := s.load(ctx, q.Filter)
	if err != nil {
		return nil, err
	}

	sorted := invoices
	if q.Sort != "" {
		sorted, err = listing.Sort(invoices, listing.PurchaseColumns, q.Sort, q.Direction)
		if err != nil {
			return nil, err
		}
	}

	return &PurchaseListing{
		Page:      listing.Paginate(sorted, q.Page, q.PerPage),
		IVAErrors: countStatus(invoices, func(inv *models.PurchaseInvoice) models.Status { return inv.ControlIVA }).Error,
		CanClose:  reconciler.CanClosePurchases(invoices),
	}, nil
}

// ClosePeriod records the closing of one month of the purchase book, keyed
// on imputation date. Purchases with IVA errors block the close.
func (s *PurchaseService) ClosePeriod(ctx context.Context, req *ClosePeriodRequest) (*ClosePeriodResult, error) {
	if err := validator.ValidateRequest(req); err != nil {
		return nil, err
	}

	invoices, err := s.load(ctx, repositories.InvoiceFilter{CompanyCUIT: req.CompanyCUIT, Period: req.Period})
	if err != nil {
		return nil, err
	}
	if len(invoices) == 0 {
		return nil, ierr.Mark(ierr.Newf("no purchases to close in period %s", req.Period), ierr.ErrNotFound)
	}
	if !reconciler.CanClosePurchases(invoices) {
		errs := countStatus(invoices, func(inv *models.PurchaseInvoice) models.Status { return inv.ControlIVA }).Error
		return nil, ierr.Mark(ierr.Newf("period %s has %d IVA errors", req.Period, errs), ierr.ErrInvalidOperation)
	}

	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		for _, inv := range invoices {
			if err := s.audit(ctx, tx, inv, models.AuditPeriodClosed, models.ProcessFinished); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, ierr.Wrap(err, "close purchase period")
	}

	s.log.Info().Str("cuit", req.CompanyCUIT).Str("period", req.Period).Int("count", len(invoices)).Msg("Purchase period closed")
	return &ClosePeriodResult{Message: "Proceso impactado correctamente", Count: len(invoices)}, nil
}

// Dashboard summarizes the purchase book selected by filter
func (s *PurchaseService) Dashboard(ctx context.Context, filter repositories.InvoiceFilter) (*PurchaseDashboard, error) {
	invoices, err := s.load(ctx, filter)
	if err != nil {
		return nil, err
	}
	return buildPurchaseDashboard(invoices, reconciler.CanClosePurchases(invoices)), nil
}

// AuditTrail returns the audit entries of one purchase
func (s *PurchaseService) AuditTrail(ctx context.Context, id int64) ([]*models.AuditEntry, error) {
	if _, err := s.purchaseRepo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.auditRepo.ListByDocument(ctx, models.OperationPurchases, id)
}
