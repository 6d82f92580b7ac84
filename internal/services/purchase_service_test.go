package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ierr "iva-service/internal/errors"
	"iva-service/internal/models"
	"iva-service/internal/repositories"
)

func newPurchaseService(t *testing.T) (*PurchaseService, *fakePurchaseRepo, *fakeAuditRepo, *mockDB) {
	t.Helper()
	db, mock := newMockDB(t)
	purchases := &fakePurchaseRepo{}
	audit := &fakeAuditRepo{}
	return NewPurchaseService(db, purchases, audit, nopLogger()), purchases, audit, &mockDB{mock}
}

func seedPurchases(repo *fakePurchaseRepo, invoices ...*models.PurchaseInvoice) {
	for _, inv := range invoices {
		inv.CompanyCUIT = cuit
		inv.CompanyName = "Acme SA"
		_ = repo.Insert(context.Background(), nil, inv)
	}
}

func TestPurchaseImportBatchKeysOnProvider(t *testing.T) {
	svc, repo, audit, mock := newPurchaseService(t)
	mock.expectCommit()

	unclassifiedPurchase := purchase("20-3", "0001-00000001", "03/03/2024", 100, 21)
	unclassifiedPurchase.Classification = ""

	res, err := svc.ImportBatch(context.Background(), &PurchaseBatchRequest{
		CompanyCUIT: cuit,
		CompanyName: "Acme SA",
		Invoices: []*models.PurchaseInvoice{
			purchase("20-1", "0001-00000001", "01/03/2024", 1000, 210),
			purchase("20-2", "0001-00000001", "02/03/2024", 1000, 210),
			purchase("20-1", "0001-00000001", "01/03/2024", 1000, 210),
			unclassifiedPurchase,
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, res.Summary.Inserted)
	assert.Equal(t, 1, res.Summary.Duplicates)
	require.Len(t, repo.rows, 3)
	assert.Equal(t, cuit, repo.rows[0].CompanyCUIT)
	assert.Equal(t, unclassified, repo.rows[2].Classification)

	imports := audit.byModification(models.AuditPurchaseImport)
	require.Len(t, imports, 3)
	assert.Equal(t, models.ProcessInProgress, imports[0].ProcessState)
	assert.Equal(t, models.OperationPurchases, imports[0].OperationType)

	assert.Equal(t, 3, res.Listing.TotalItems)
	assert.True(t, res.Listing.CanClose)
}

func TestPurchaseCreate(t *testing.T) {
	svc, repo, audit, mock := newPurchaseService(t)
	mock.expectCommit()

	req := &CreatePurchaseRequest{
		PurchaseInvoice: *purchase("20-1", "", "01/03/2024", 1000, 200),
		CompanyCUIT:     cuit,
		Number:          "0003-00000010",
	}
	inv, err := svc.Create(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, int64(1), inv.ID)
	assert.Equal(t, "0003-00000010", inv.Number)
	assert.Equal(t, models.StatusError, inv.ControlIVA)
	assert.Len(t, repo.rows, 1)
	assert.Len(t, audit.byModification(models.AuditManualCreate), 1)

	_, err = svc.Create(context.Background(), &CreatePurchaseRequest{CompanyCUIT: cuit})
	assert.True(t, ierr.IsValidation(err))
}

func TestPurchaseUpdate(t *testing.T) {
	svc, repo, audit, mock := newPurchaseService(t)
	seedPurchases(repo, purchase("20-1", "0001-00000001", "01/03/2024", 1000, 200))
	mock.expectCommit()

	edit := purchase("20-1", "0001-00000001", "01/04/2024", 1000, 210)
	edit.Classification = "Servicios"
	updated, err := svc.Update(context.Background(), 1, edit)
	require.NoError(t, err)

	assert.Equal(t, models.StatusCorrect, updated.ControlIVA)
	assert.Equal(t, "01/04/2024", repo.rows[0].ImputationDate)
	assert.Equal(t, "01/03/2024", repo.rows[0].IssueDate, "issue date is not editable")
	assert.Equal(t, "Servicios", repo.rows[0].Classification)
	assert.Len(t, audit.byModification(models.AuditPurchaseModified), 1)
}

func TestPurchaseClosePeriod(t *testing.T) {
	svc, repo, audit, mock := newPurchaseService(t)
	seedPurchases(repo,
		purchase("20-1", "0001-00000001", "01/03/2024", 1000, 210),
		purchase("20-2", "0001-00000005", "28/02/2024", 1000, 100),
	)
	mock.expectCommit()

	res, err := svc.ClosePeriod(context.Background(), &ClosePeriodRequest{
		CompanyCUIT:   cuit,
		Period:        "2024-03",
		OperationType: models.OperationPurchases,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Count)

	closed := audit.byModification(models.AuditPeriodClosed)
	require.Len(t, closed, 1)
	assert.Equal(t, models.OperationPurchases, closed[0].OperationType)

	_, err = svc.ClosePeriod(context.Background(), &ClosePeriodRequest{CompanyCUIT: cuit, Period: "2024-02"})
	assert.True(t, ierr.IsInvalidOperation(err))

	_, err = svc.ClosePeriod(context.Background(), &ClosePeriodRequest{CompanyCUIT: cuit, Period: "2023-01"})
	assert.True(t, ierr.IsNotFound(err))
}

func TestPurchaseDashboard(t *testing.T) {
	svc, repo, _, _ := newPurchaseService(t)
	services := purchase("20-2", "0001-00000002", "01/03/2024", 250, 52.5)
	services.Classification = "Servicios"
	reduced := purchase("20-3", "0001-00000003", "01/03/2024", 1000, 0)
	reduced.IVA105 = 105
	seedPurchases(repo,
		purchase("20-1", "0001-00000001", "01/03/2024", 750, 157.5),
		services,
		reduced,
	)

	d, err := svc.Dashboard(context.Background(), repositories.InvoiceFilter{CompanyCUIT: cuit})
	require.NoError(t, err)

	assert.Equal(t, 3, d.InvoiceCount)
	assert.Equal(t, StatusCount{Correct: 2, Error: 1}, d.ControlIVA)
	require.Len(t, d.CostByCategory, 2)
	assert.Equal(t, models.DefaultClassification, d.CostByCategory[0].Name)
	assert.InDelta(t, 1750, d.CostByCategory[0].Value, 0.001)
	assert.InDelta(t, 87.5, d.CostByCategory[0].Percentage, 0.001)
	assert.InDelta(t, 12.5, d.CostByCategory[1].Percentage, 0.001)
	assert.InDelta(t, 2000, d.TotalCost, 0.001)
	assert.InDelta(t, 315, d.TotalIVACredit, 0.001)
	assert.False(t, d.CanClose)
}
