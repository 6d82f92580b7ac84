package reconciler

import (
	"github.com/shopspring/decimal"

	"iva-service/internal/models"
)

const (
	// SalesIVATolerance is the accepted gap between declared and recomputed
	// taxable amount on sales invoices.
	SalesIVATolerance = 0.01

	// PurchaseIVATolerance is the accepted gap between declared and
	// recomputed 21% VAT on purchase invoices.
	PurchaseIVATolerance = 0.05

	// GrossUpFactor turns a taxable amount into its amount with 21% VAT
	GrossUpFactor = 1.21

	VATRate21  = 0.21
	VATRate105 = 0.105
	VATRate27  = 0.27
)

var (
	salesTolerance    = decimal.NewFromFloat(SalesIVATolerance)
	purchaseTolerance = decimal.NewFromFloat(PurchaseIVATolerance)
	grossUpFactor     = decimal.NewFromFloat(GrossUpFactor)
	rate21            = decimal.NewFromFloat(VATRate21)
)

// IsPlaceholder reports whether inv stands for a missing invoice, either
// synthesized in this pass or persisted by an earlier gap fill.
func IsPlaceholder(inv *models.SalesInvoice) bool {
	return inv.Synthesized || inv.Client == models.MissingInvoiceClient
}

// ExpectedTaxableAmount recomputes the taxable base of a sales invoice from
// its total and both withholdings.
func ExpectedTaxableAmount(total, percMun, percIIBB float64) decimal.Decimal {
	return decimal.NewFromFloat(total).
		Sub(decimal.NewFromFloat(percMun)).
		Sub(decimal.NewFromFloat(percIIBB)).
		Div(grossUpFactor)
}

// CheckSalesIVA compares the declared taxable amount against the one implied
// by the total. Placeholders are always in error.
func CheckSalesIVA(inv *models.SalesInvoice) models.Status {
	if IsPlaceholder(inv) {
		return models.StatusError
	}
	expected := ExpectedTaxableAmount(inv.Total, inv.PercMun, inv.PercIIBB)
	diff := expected.Sub(decimal.NewFromFloat(inv.TaxableAmount)).Abs()
	if diff.LessThan(salesTolerance) {
		return models.StatusCorrect
	}
	return models.StatusError
}

// CheckPurchaseIVA compares the declared 21% VAT against the taxable amount
func CheckPurchaseIVA(inv *models.PurchaseInvoice) models.Status {
	expected := decimal.NewFromFloat(inv.TaxableAmount).Mul(rate21)
	diff := expected.Sub(decimal.NewFromFloat(inv.IVA21)).Abs()
	if diff.LessThan(purchaseTolerance) {
		return models.StatusCorrect
	}
	return models.StatusError
}

// ApplySalesIVA sets ControlIVA on every invoice in place
func ApplySalesIVA(invoices []*models.SalesInvoice) {
	for _, inv := range invoices {
		inv.ControlIVA = CheckSalesIVA(inv)
	}
}

// ApplyPurchaseIVA sets ControlIVA on every purchase in place
func ApplyPurchaseIVA(invoices []*models.PurchaseInvoice) {
	for _, inv := range invoices {
		inv.ControlIVA = CheckPurchaseIVA(inv)
	}
}

// VATSplit is the VAT of a purchase distributed across rate buckets
type VATSplit struct {
	IVA21  float64
	IVA105 float64
	IVA27  float64
}

// ClassifyVAT assigns a VAT total to the rate bucket its ratio to the taxable
// amount falls in. Ratios matching no single rate, as on mixed-rate invoices,
// land in the 21% bucket for the user to review.
func ClassifyVAT(taxable, ivaTotal float64) VATSplit {
	if taxable <= 0 || ivaTotal <= 0 {
		return VATSplit{}
	}

	ratio := ivaTotal / taxable
	switch {
	case ratio > 0.20 && ratio < 0.22:
		return VATSplit{IVA21: ivaTotal}
	case ratio > 0.10 && ratio < 0.11:
		return VATSplit{IVA105: ivaTotal}
	case ratio > 0.26 && ratio < 0.28:
		return VATSplit{IVA27: ivaTotal}
	default:
		return VATSplit{IVA21: ivaTotal}
	}
}
