package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	ierr "iva-service/internal/errors"
	"iva-service/internal/models"
	"iva-service/internal/repositories"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

func matchesFilter(cuit, name, date string, f repositories.InvoiceFilter) bool {
	if f.CompanyCUIT != "" && cuit != f.CompanyCUIT {
		return false
	}
	if f.Search != "" && !strings.Contains(name, f.Search) && !strings.Contains(cuit, f.Search) {
		return false
	}
	if f.Period != "" {
		year, month, _ := strings.Cut(f.Period, "-")
		if !strings.HasSuffix(date, fmt.Sprintf("/%s/%s", month, year)) {
			return false
		}
	}
	return true
}

var errNotFound = ierr.Mark(ierr.New("not found"), ierr.ErrNotFound)

type fakeSalesRepo struct {
	nextID int64
	rows   []*models.SalesInvoice
}

func (r *fakeSalesRepo) Insert(_ context.Context, _ *sql.Tx, inv *models.SalesInvoice) error {
	r.nextID++
	inv.ID = r.nextID
	inv.Synthesized = false
	stored := *inv
	r.rows = append(r.rows, &stored)
	return nil
}

func (r *fakeSalesRepo) GetByID(_ context.Context, id int64) (*models.SalesInvoice, error) {
	for _, row := range r.rows {
		if row.ID == id {
			c := *row
			return &c, nil
		}
	}
	return nil, errNotFound
}

func (r *fakeSalesRepo) FindByCompanyAndNumber(_ context.Context, _ *sql.Tx, cuit, number string) (*models.SalesInvoice, error) {
	for _, row := range r.rows {
		if row.CompanyCUIT == cuit && row.Number == number {
			c := *row
			return &c, nil
		}
	}
	return nil, errNotFound
}

func (r *fakeSalesRepo) List(_ context.Context, f repositories.InvoiceFilter) ([]*models.SalesInvoice, error) {
	out := []*models.SalesInvoice{}
	for _, row := range r.rows {
		if matchesFilter(row.CompanyCUIT, row.CompanyName, row.Date, f) {
			c := *row
			c.Correlativity = models.StatusCorrect
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *fakeSalesRepo) ListByCompany(ctx context.Context, _ *sql.Tx, cuit string) ([]*models.SalesInvoice, error) {
	return r.List(ctx, repositories.InvoiceFilter{CompanyCUIT: cuit})
}

func (r *fakeSalesRepo) Update(_ context.Context, _ *sql.Tx, inv *models.SalesInvoice) error {
	for i, row := range r.rows {
		if row.ID == inv.ID {
			c := *inv
			r.rows[i] = &c
			return nil
		}
	}
	return errNotFound
}

type fakePurchaseRepo struct {
	nextID int64
	rows   []*models.PurchaseInvoice
}

func (r *fakePurchaseRepo) Insert(_ context.Context, _ *sql.Tx, inv *models.PurchaseInvoice) error {
	r.nextID++
	inv.ID = r.nextID
	stored := *inv
	r.rows = append(r.rows, &stored)
	return nil
}

func (r *fakePurchaseRepo) GetByID(_ context.Context, id int64) (*models.PurchaseInvoice, error) {
	for _, row := range r.rows {
		if row.ID == id {
			c := *row
			return &c, nil
		}
	}
	return nil, errNotFound
}

func (r *fakePurchaseRepo) FindByKey(_ context.Context, _ *sql.Tx, companyCUIT, providerCUIT, number string) (*models.PurchaseInvoice, error) {
	for _, row := range r.rows {
		if row.CompanyCUIT == companyCUIT && row.ProviderCUIT == providerCUIT && row.Number == number {
			c := *row
			return &c, nil
		}
	}
	return nil, errNotFound
}

func (r *fakePurchaseRepo) List(_ context.Context, f repositories.InvoiceFilter) ([]*models.PurchaseInvoice, error) {
	out := []*models.PurchaseInvoice{}
	for _, row := range r.rows {
		if matchesFilter(row.CompanyCUIT, row.CompanyName, row.ImputationDate, f) {
			c := *row
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *fakePurchaseRepo) Update(_ context.Context, _ *sql.Tx, inv *models.PurchaseInvoice) error {
	for i, row := range r.rows {
		if row.ID == inv.ID {
			c := *inv
			r.rows[i] = &c
			return nil
		}
	}
	return errNotFound
}

type fakeAuditRepo struct {
	entries []*models.AuditEntry
	failOn  string
}

func (r *fakeAuditRepo) Create(_ context.Context, _ *sql.Tx, entry *models.AuditEntry) error {
	if r.failOn != "" && entry.Modification == r.failOn {
		return ierr.Mark(ierr.New("audit insert failed"), ierr.ErrDatabase)
	}
	entry.ID = int64(len(r.entries) + 1)
	r.entries = append(r.entries, entry)
	return nil
}

func (r *fakeAuditRepo) ListByDocument(_ context.Context, operationType string, documentID int64) ([]*models.AuditEntry, error) {
	out := []*models.AuditEntry{}
	for _, e := range r.entries {
		if e.OperationType == operationType && e.DocumentID == documentID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeAuditRepo) byModification(modification string) []*models.AuditEntry {
	var out []*models.AuditEntry
	for _, e := range r.entries {
		if e.Modification == modification {
			out = append(out, e)
		}
	}
	return out
}

func nopLogger() zerolog.Logger {
	return zerolog.Nop()
}

func sale(nro, date string) *models.SalesInvoice {
	return &models.SalesInvoice{
		Client:        "CONSUMIDOR FINAL",
		IVACondition:  models.CondConsumidorFinal,
		DocType:       "Factura B",
		Date:          date,
		Number:        nro,
		TaxableAmount: 100,
		IVA21:         21,
		Total:         121,
		Province:      "Córdoba",
	}
}

func purchase(provider, nro, date string, taxable, iva21 float64) *models.PurchaseInvoice {
	return &models.PurchaseInvoice{
		Provider:       "Proveedor " + provider,
		ProviderCUIT:   provider,
		IVACondition:   models.CondRespInscriptoShort,
		DocType:        "Factura A",
		Number:         nro,
		IssueDate:      date,
		ImputationDate: date,
		Classification: models.DefaultClassification,
		TaxableAmount:  taxable,
		IVA21:          iva21,
		Total:          taxable + iva21,
	}
}

type mockDB struct {
	sqlmock.Sqlmock
}

func (m *mockDB) expectCommit() {
	m.ExpectBegin()
	m.ExpectCommit()
}

func (m *mockDB) expectRollback() {
	m.ExpectBegin()
	m.ExpectRollback()
}
