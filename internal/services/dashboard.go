package services

import (
	"sort"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"iva-service/internal/models"
	"iva-service/internal/reconciler"
)

const unclassified = "Sin clasificar"

// StatusCount counts invoices by check outcome
type StatusCount struct {
	Correct int `json:"correcto"`
	Error   int `json:"error"`
}

// AmountShare is one slice of a total, e.g. the cost of one classification
type AmountShare struct {
	Name       string  `json:"name"`
	Value      float64 `json:"value"`
	Percentage float64 `json:"percentage"`
}

type SalesDashboard struct {
	InvoiceCount  int           `json:"invoiceCount"`
	ControlIVA    StatusCount   `json:"controlIva"`
	Correlativity StatusCount   `json:"correlatividad"`
	ByCondition   []AmountShare `json:"facturacionPorResponsable"`
	CanClose      bool          `json:"canClose"`
}

type PurchaseDashboard struct {
	InvoiceCount   int           `json:"invoiceCount"`
	ControlIVA     StatusCount   `json:"controlIva"`
	CostByCategory []AmountShare `json:"costoPorClasificacion"`
	TotalCost      float64       `json:"costoTotal"`
	TotalIVACredit float64       `json:"creditoFiscal"`
	CanClose       bool          `json:"canClose"`
}

func countStatus[T any](items []T, status func(T) models.Status) StatusCount {
	counts := lo.CountValuesBy(items, status)
	return StatusCount{
		Correct: counts[models.StatusCorrect],
		Error:   counts[models.StatusError],
	}
}

// shares sums value per group and returns the groups largest first, each
// with its percentage of the grand total. Ties are ordered by name.
func shares[T any](items []T, group func(T) string, value func(T) float64) []AmountShare {
	grouped := lo.GroupBy(items, group)

	sums := make(map[string]decimal.Decimal, len(grouped))
	grand := decimal.Zero
	for name, members := range grouped {
		sum := lo.Reduce(members, func(acc decimal.Decimal, item T, _ int) decimal.Decimal {
			return acc.Add(decimal.NewFromFloat(value(item)))
		}, decimal.Zero)
		sums[name] = sum
		grand = grand.Add(sum)
	}

	out := lo.MapToSlice(sums, func(name string, sum decimal.Decimal) AmountShare {
		share := AmountShare{Name: name, Value: sum.Round(2).InexactFloat64()}
		if !grand.IsZero() {
			share.Percentage = sum.Div(grand).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
		}
		return share
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func buildSalesDashboard(invoices []*models.SalesInvoice, canClose bool) *SalesDashboard {
	issued := lo.Reject(invoices, func(inv *models.SalesInvoice, _ int) bool {
		return reconciler.IsPlaceholder(inv)
	})
	byCondition := shares(issued,
		func(inv *models.SalesInvoice) string {
			return lo.Ternary(inv.IVACondition == "", models.MissingInvoiceProvince, inv.IVACondition)
		},
		func(inv *models.SalesInvoice) float64 { return inv.Total },
	)

	return &SalesDashboard{
		InvoiceCount:  len(invoices),
		ControlIVA:    countStatus(invoices, func(inv *models.SalesInvoice) models.Status { return inv.ControlIVA }),
		Correlativity: countStatus(invoices, func(inv *models.SalesInvoice) models.Status { return inv.Correlativity }),
		ByCondition:   byCondition,
		CanClose:      canClose,
	}
}

func buildPurchaseDashboard(invoices []*models.PurchaseInvoice, canClose bool) *PurchaseDashboard {
	byCategory := shares(invoices,
		func(inv *models.PurchaseInvoice) string { return lo.Ternary(inv.Classification == "", unclassified, inv.Classification) },
		func(inv *models.PurchaseInvoice) float64 { return inv.TaxableAmount },
	)

	credit := lo.Reduce(invoices, func(acc decimal.Decimal, inv *models.PurchaseInvoice, _ int) decimal.Decimal {
		return acc.Add(decimal.NewFromFloat(inv.IVA21)).
			Add(decimal.NewFromFloat(inv.IVA105)).
			Add(decimal.NewFromFloat(inv.IVA27))
	}, decimal.Zero)

	total := lo.Reduce(byCategory, func(acc decimal.Decimal, s AmountShare, _ int) decimal.Decimal {
		return acc.Add(decimal.NewFromFloat(s.Value))
	}, decimal.Zero)

	return &PurchaseDashboard{
		InvoiceCount:   len(invoices),
		ControlIVA:     countStatus(invoices, func(inv *models.PurchaseInvoice) models.Status { return inv.ControlIVA }),
		CostByCategory: byCategory,
		TotalCost:      total.Round(2).InexactFloat64(),
		TotalIVACredit: credit.Round(2).InexactFloat64(),
		CanClose:       canClose,
	}
}
