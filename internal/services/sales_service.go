package services

import (
	"context"
	"database/sql"
	"strings"

	"github.com/rs/zerolog"

	"iva-service/internal/database"
	ierr "iva-service/internal/errors"
	"iva-service/internal/listing"
	"iva-service/internal/models"
	"iva-service/internal/reconciler"
	"iva-service/internal/repositories"
	"iva-service/internal/validator"
)

type SalesService struct {
	db        *sql.DB
	salesRepo repositories.SalesInvoiceRepository
	auditRepo repositories.AuditRepository
	engine    *reconciler.Engine
	log       zerolog.Logger
}

func NewSalesService(
	db *sql.DB,
	salesRepo repositories.SalesInvoiceRepository,
	auditRepo repositories.AuditRepository,
	log zerolog.Logger,
) *SalesService {
	return &SalesService{
		db:        db,
		salesRepo: salesRepo,
		auditRepo: auditRepo,
		engine:    reconciler.NewEngine(log),
		log:       log,
	}
}

// ImportBatch stores the invoices of req that the company does not have yet,
// then reconciles the company's whole book and stores a placeholder for
// every gap found. Everything happens in one transaction.
func (s *SalesService) ImportBatch(ctx context.Context, req *SalesBatchRequest) (*SalesBatchResult, error) {
	if err := validator.ValidateRequest(req); err != nil {
		return nil, err
	}
	operation := operationOrDefault(req.OperationType, models.OperationSales)

	summary := ImportSummary{Received: len(req.Invoices)}
	var result *reconciler.Result

	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		for _, in := range req.Invoices {
			inv := *in
			inv.ID = 0
			inv.Synthesized = false
			inv.CompanyCUIT = req.CompanyCUIT
			inv.CompanyName = req.CompanyName

			exists, err := s.exists(ctx, tx, req.CompanyCUIT, inv.Number)
			if err != nil {
				return err
			}
			if exists {
				summary.Duplicates++
				continue
			}

			if err := s.salesRepo.Insert(ctx, tx, &inv); err != nil {
				return err
			}
			err = s.audit(ctx, tx, &inv, models.DefaultUserID, models.AuditInitialImport, models.ProcessStarted, operation)
			if err != nil {
				return err
			}
			summary.Inserted++
		}

		stored, err := s.salesRepo.ListByCompany(ctx, tx, req.CompanyCUIT)
		if err != nil {
			return err
		}
		reconciler.ApplySalesIVA(stored)
		result = s.engine.Reconcile(stored)

		for _, inv := range result.Invoices {
			if !inv.Synthesized {
				continue
			}
			exists, err := s.exists(ctx, tx, req.CompanyCUIT, inv.Number)
			if err != nil {
				return err
			}
			if exists {
				continue
			}

			inv.CompanyCUIT = req.CompanyCUIT
			inv.CompanyName = req.CompanyName
			inv.IVACondition = models.CondConsumidorFinal
			inv.Province = models.MissingInvoiceProvince
			if err := s.salesRepo.Insert(ctx, tx, inv); err != nil {
				return err
			}
			err = s.audit(ctx, tx, inv, models.SystemUserID, models.AuditAutoGenerated, models.ProcessStarted, operation)
			if err != nil {
				return err
			}
			summary.Synthesized++
			s.log.Debug().Str("nro", inv.Number).Str("doc", inv.DocType).Msg("Gap filled")
		}
		return nil
	})
	if err != nil {
		return nil, ierr.Wrap(err, "import sales batch")
	}

	s.log.Info().
		Str("cuit", req.CompanyCUIT).
		Int("received", summary.Received).
		Int("inserted", summary.Inserted).
		Int("duplicates", summary.Duplicates).
		Int("synthesized", summary.Synthesized).
		Msg("Sales batch imported")

	page, err := salesListing(result, ListQuery{})
	if err != nil {
		return nil, err
	}
	return &SalesBatchResult{Summary: summary, Listing: page}, nil
}

func (s *SalesService) exists(ctx context.Context, tx *sql.Tx, cuit, number string) (bool, error) {
	_, err := s.salesRepo.FindByCompanyAndNumber(ctx, tx, cuit, number)
	if err == nil {
		return true, nil
	}
	if ierr.IsNotFound(err) {
		return false, nil
	}
	return false, err
}

func (s *SalesService) audit(ctx context.Context, tx *sql.Tx, inv *models.SalesInvoice, user, modification, state, operation string) error {
	return s.auditRepo.Create(ctx, tx, &models.AuditEntry{
		UserID:        user,
		DocumentID:    inv.ID,
		CompanyCUIT:   inv.CompanyCUIT,
		DocumentNro:   inv.Number,
		Modification:  modification,
		ProcessState:  state,
		OperationType: operation,
	})
}

// List loads the filtered book, checks and reconciles it, and returns the
// requested page.
func (s *SalesService) List(ctx context.Context, q ListQuery) (*SalesListing, error) {
	result, err := s.reconcile(ctx, q.Filter)
	if err != nil {
		return nil, err
	}
	return salesListing(result, q)
}

func (s *SalesService) reconcile(ctx context.Context, filter repositories.InvoiceFilter) (*reconciler.Result, error) {
	invoices, err := s.salesRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	reconciler.ApplySalesIVA(invoices)
	return s.engine.Reconcile(invoices), nil
}

func salesListing(result *reconciler.Result, q ListQuery) (*SalesListing, error) {
	invoices := result.Invoices
	if q.Sort != "" {
		sorted, err := listing.Sort(invoices, listing.SalesColumns, q.Sort, q.Direction)
		if err != nil {
			return nil, err
		}
		invoices = sorted
	}

	return &SalesListing{
		Page:        listing.Paginate(invoices, q.Page, q.PerPage),
		Skipped:     result.Skipped,
		Synthesized: result.Synthesized,
		Duplicates:  result.Duplicates,
		Errors:      reconciler.CountErrors(result.Invoices),
		CanClose:    reconciler.CanClose(result.Invoices),
	}, nil
}

// Update overwrites the editable fields of a stored invoice. The invoice
// number and owning company never change.
func (s *SalesService) Update(ctx context.Context, id int64, in *models.SalesInvoice, operation string) (*models.SalesInvoice, error) {
	inv, err := s.salesRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	inv.Client = in.Client
	inv.IVACondition = in.IVACondition
	inv.DocType = in.DocType
	inv.DocNumber = in.DocNumber
	inv.Date = in.Date
	inv.TaxableAmount = in.TaxableAmount
	inv.IVA21 = in.IVA21
	inv.PercIIBB = in.PercIIBB
	inv.PercMun = in.PercMun
	inv.Total = in.Total
	inv.Province = in.Province

	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.salesRepo.Update(ctx, tx, inv); err != nil {
			return err
		}
		return s.audit(ctx, tx, inv, models.DefaultUserID, models.AuditFieldsModified, models.ProcessInProgress,
			operationOrDefault(operation, models.OperationSales))
	})
	if err != nil {
		return nil, ierr.Wrapf(err, "update sales invoice %d", id)
	}

	inv.ControlIVA = reconciler.CheckSalesIVA(inv)
	s.log.Info().Int64("id", id).Str("nro", inv.Number).Msg("Sales invoice updated")
	return inv, nil
}

// ClosePeriod records the closing of one month of the sales book. The whole
// company book is reconciled first so gaps across month boundaries are seen.
// It refuses to close a period with flagged invoices or open gaps.
func (s *SalesService) ClosePeriod(ctx context.Context, req *ClosePeriodRequest) (*ClosePeriodResult, error) {
	if err := validator.ValidateRequest(req); err != nil {
		return nil, err
	}

	result, err := s.reconcile(ctx, repositories.InvoiceFilter{CompanyCUIT: req.CompanyCUIT})
	if err != nil {
		return nil, err
	}
	invoices, dated := periodInvoices(result.Invoices, req.Period)
	if dated == 0 {
		return nil, ierr.Mark(ierr.Newf("no invoices to close in period %s", req.Period), ierr.ErrNotFound)
	}
	if !reconciler.CanClose(invoices) {
		counts := reconciler.CountErrors(invoices)
		return nil, ierr.Mark(
			ierr.Newf("period %s has %d IVA and %d correlativity errors", req.Period, counts.ControlIVA, counts.Correlativity),
			ierr.ErrInvalidOperation,
		)
	}

	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		for _, inv := range invoices {
			err := s.audit(ctx, tx, inv, models.DefaultUserID, models.AuditPeriodClosed, models.ProcessFinished, models.OperationSales)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, ierr.Wrap(err, "close sales period")
	}

	s.log.Info().Str("cuit", req.CompanyCUIT).Str("period", req.Period).Int("count", len(invoices)).Msg("Sales period closed")
	return &ClosePeriodResult{Message: "Proceso impactado correctamente", Count: len(invoices)}, nil
}

// periodInvoices selects the rows of a reconciled company book that a close
// of period covers: those dated in the period plus every undated
// placeholder, which belongs to no month and so blocks them all. dated
// counts the former.
func periodInvoices(invoices []*models.SalesInvoice, period string) ([]*models.SalesInvoice, int) {
	var out []*models.SalesInvoice
	dated := 0
	for _, inv := range invoices {
		switch {
		case repositories.InPeriod(inv.Date, period):
			out = append(out, inv)
			dated++
		case strings.TrimSpace(inv.Date) == "" && reconciler.IsPlaceholder(inv):
			out = append(out, inv)
		}
	}
	return out, dated
}

// AuditTrail returns the audit entries of one sales invoice
func (s *SalesService) AuditTrail(ctx context.Context, id int64) ([]*models.AuditEntry, error) {
	if _, err := s.salesRepo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.auditRepo.ListByDocument(ctx, models.OperationSales, id)
}

func operationOrDefault(op, def string) string {
	if op == "" {
		return def
	}
	return op
}

// Dashboard summarizes the reconciled book selected by filter
func (s *SalesService) Dashboard(ctx context.Context, filter repositories.InvoiceFilter) (*SalesDashboard, error) {
	result, err := s.reconcile(ctx, filter)
	if err != nil {
		return nil, err
	}
	return buildSalesDashboard(result.Invoices, reconciler.CanClose(result.Invoices)), nil
}
