package services

import (
	"context"

	"github.com/rs/zerolog"

	"iva-service/internal/models"
	"iva-service/internal/reconciler"
	"iva-service/internal/validator"
)

// ReconcileRequest carries a working set to reconcile without storing it
type ReconcileRequest struct {
	Invoices []*models.SalesInvoice `json:"invoices" validate:"required,dive,required"`
	Query    ListQuery              `json:"-"`
}

// ReconcileService checks and reconciles invoices held by the caller
type ReconcileService struct {
	engine *reconciler.Engine
	log    zerolog.Logger
}

func NewReconcileService(log zerolog.Logger) *ReconcileService {
	return &ReconcileService{
		engine: reconciler.NewEngine(log),
		log:    log,
	}
}

func (s *ReconcileService) Reconcile(ctx context.Context, req *ReconcileRequest) (*SalesListing, error) {
	if err := validator.ValidateRequest(req); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	invoices := make([]*models.SalesInvoice, len(req.Invoices))
	for i, in := range req.Invoices {
		inv := *in
		inv.ControlIVA = reconciler.CheckSalesIVA(&inv)
		invoices[i] = &inv
	}

	result := s.engine.Reconcile(invoices)
	s.log.Debug().
		Int("received", len(req.Invoices)).
		Int("synthesized", result.Synthesized).
		Int("skipped", len(result.Skipped)).
		Msg("Working set reconciled")

	return salesListing(result, req.Query)
}
