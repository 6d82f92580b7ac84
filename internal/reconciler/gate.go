package reconciler

import "iva-service/internal/models"

// ErrorCount tallies sales invoices failing either check
type ErrorCount struct {
	ControlIVA    int `json:"controlIva"`
	Correlativity int `json:"correlatividad"`
}

func (c ErrorCount) Total() int {
	return c.ControlIVA + c.Correlativity
}

// CountErrors counts sales invoices flagged by each check
func CountErrors(invoices []*models.SalesInvoice) ErrorCount {
	var c ErrorCount
	for _, inv := range invoices {
		if inv.ControlIVA == models.StatusError {
			c.ControlIVA++
		}
		if inv.Correlativity == models.StatusError {
			c.Correlativity++
		}
	}
	return c
}

// CanClose reports whether a reconciled sales period may be closed: it must
// hold at least one invoice and none may be flagged.
func CanClose(invoices []*models.SalesInvoice) bool {
	return len(invoices) > 0 && CountErrors(invoices).Total() == 0
}

// CanClosePurchases applies the close gate to purchases, which carry no
// correlativity check.
func CanClosePurchases(invoices []*models.PurchaseInvoice) bool {
	if len(invoices) == 0 {
		return false
	}
	for _, inv := range invoices {
		if inv.ControlIVA == models.StatusError {
			return false
		}
	}
	return true
}
