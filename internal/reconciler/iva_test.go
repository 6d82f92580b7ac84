package reconciler

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"iva-service/internal/models"
)

func TestCheckSalesIVATolerance(t *testing.T) {
	tests := []struct {
		name     string
		declared float64
		want     models.Status
	}{
		{name: "exact", declared: 100, want: models.StatusCorrect},
		{name: "within tolerance", declared: 99.991, want: models.StatusCorrect},
		{name: "at tolerance", declared: 99.99, want: models.StatusError},
		{name: "outside tolerance", declared: 99.98, want: models.StatusError},
		{name: "over declared", declared: 100.02, want: models.StatusError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := &models.SalesInvoice{Total: 121, TaxableAmount: tt.declared}
			assert.Equal(t, tt.want, CheckSalesIVA(inv))
		})
	}
}

func TestCheckSalesIVAWithholdings(t *testing.T) {
	inv := &models.SalesInvoice{
		TaxableAmount: 150000,
		IVA21:         31500,
		PercIIBB:      4500,
		PercMun:       1500,
		Total:         187500,
	}
	assert.Equal(t, models.StatusCorrect, CheckSalesIVA(inv))
}

func TestCheckSalesIVAMismatch(t *testing.T) {
	inv := &models.SalesInvoice{Total: 14500, TaxableAmount: 11930.26}

	expected := ExpectedTaxableAmount(inv.Total, inv.PercMun, inv.PercIIBB)

	assert.Equal(t, "11983.47", expected.StringFixed(2))
	assert.Equal(t, "53.21", expected.Sub(decimal.NewFromFloat(inv.TaxableAmount)).StringFixed(2))
	assert.Equal(t, models.StatusError, CheckSalesIVA(inv))
}

func TestCheckSalesIVAPlaceholder(t *testing.T) {
	persisted := &models.SalesInvoice{ID: 9, Client: models.MissingInvoiceClient}
	synthesized := &models.SalesInvoice{Synthesized: true}

	assert.Equal(t, models.StatusError, CheckSalesIVA(persisted))
	assert.Equal(t, models.StatusError, CheckSalesIVA(synthesized))
}

func TestCheckPurchaseIVA(t *testing.T) {
	tests := []struct {
		name  string
		iva21 float64
		want  models.Status
	}{
		{name: "exact", iva21: 210, want: models.StatusCorrect},
		{name: "within purchase tolerance", iva21: 210.04, want: models.StatusCorrect},
		{name: "outside purchase tolerance", iva21: 210.06, want: models.StatusError},
		{name: "missing vat", iva21: 0, want: models.StatusError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := &models.PurchaseInvoice{TaxableAmount: 1000, IVA21: tt.iva21}
			assert.Equal(t, tt.want, CheckPurchaseIVA(inv))
		})
	}
}

func TestClassifyVAT(t *testing.T) {
	tests := []struct {
		name    string
		taxable float64
		vat     float64
		want    VATSplit
	}{
		{name: "21 percent", taxable: 1000, vat: 210, want: VATSplit{IVA21: 210}},
		{name: "10.5 percent", taxable: 1000, vat: 105, want: VATSplit{IVA105: 105}},
		{name: "27 percent", taxable: 1000, vat: 270, want: VATSplit{IVA27: 270}},
		{name: "mixed rates default to 21", taxable: 1000, vat: 160, want: VATSplit{IVA21: 160}},
		{name: "no taxable amount", taxable: 0, vat: 50, want: VATSplit{}},
		{name: "no vat", taxable: 1000, vat: 0, want: VATSplit{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyVAT(tt.taxable, tt.vat))
		})
	}
}

func TestCanClose(t *testing.T) {
	ok := validInvoice(1, "0005-00000001", "Factura B")
	ok.Correlativity = models.StatusCorrect

	badIVA := validInvoice(2, "0005-00000002", "Factura B")
	badIVA.Correlativity = models.StatusCorrect
	badIVA.ControlIVA = models.StatusError

	badSeq := validInvoice(3, "0005-00000003", "Factura B")
	badSeq.Correlativity = models.StatusError

	assert.True(t, CanClose([]*models.SalesInvoice{ok}))
	assert.False(t, CanClose(nil))
	assert.False(t, CanClose([]*models.SalesInvoice{ok, badIVA}))
	assert.False(t, CanClose([]*models.SalesInvoice{ok, badSeq}))
	assert.Equal(t, ErrorCount{ControlIVA: 1, Correlativity: 1}, CountErrors([]*models.SalesInvoice{ok, badIVA, badSeq}))
}

func TestCanClosePurchases(t *testing.T) {
	good := &models.PurchaseInvoice{ControlIVA: models.StatusCorrect}
	bad := &models.PurchaseInvoice{ControlIVA: models.StatusError}

	assert.True(t, CanClosePurchases([]*models.PurchaseInvoice{good}))
	assert.False(t, CanClosePurchases([]*models.PurchaseInvoice{good, bad}))
	assert.False(t, CanClosePurchases(nil))
}
