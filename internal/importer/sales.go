package importer

import (
	"io"

	"iva-service/internal/models"
	"iva-service/internal/reconciler"
)

// Positional columns of the sales export
const (
	colClient = iota
	colIVACondition
	colDocNumber
	colDate
	colDocType
	colNumber
	colTaxable
	colIVA21
	colPercIIBB
	colPercMun
	colTotal
	colProvince

	salesMinColumns = colTotal + 1
)

// SalesImport is the outcome of parsing a sales CSV
type SalesImport struct {
	Invoices []*models.SalesInvoice `json:"invoices"`
	Errors   []RowError             `json:"errors,omitempty"`
}

// ParseSales reads a headerless, semicolon separated sales export. Each row
// becomes either a typed invoice, with its IVA check applied, or a RowError.
// Invoices get sequential ids starting at 1 so they can be told apart before
// they are stored.
func ParseSales(r io.Reader) (*SalesImport, error) {
	rows, lines, err := readRows(newReader(r))
	if err != nil {
		return nil, err
	}

	result := &SalesImport{Invoices: []*models.SalesInvoice{}}
	for i, record := range rows {
		inv, rowErr := parseSalesRow(record, lines[i])
		if rowErr != nil {
			result.Errors = append(result.Errors, *rowErr)
			continue
		}
		inv.ID = int64(len(result.Invoices) + 1)
		result.Invoices = append(result.Invoices, inv)
	}
	return result, nil
}

func parseSalesRow(record []string, line int) (*models.SalesInvoice, *RowError) {
	if len(record) < salesMinColumns {
		return nil, &RowError{Line: line, Message: "row has too few columns"}
	}

	docNumber, err := parseDocNumber(record[colDocNumber])
	if err != nil {
		return nil, &RowError{Line: line, Field: "docNumero", Message: err.Error()}
	}

	inv := &models.SalesInvoice{
		Client:        field(record, colClient),
		IVACondition:  field(record, colIVACondition),
		DocNumber:     docNumber,
		Date:          normalizeDate(field(record, colDate)),
		DocType:       field(record, colDocType),
		Number:        field(record, colNumber),
		Province:      field(record, colProvince),
		Correlativity: models.StatusCorrect,
	}

	amounts := []struct {
		name string
		col  int
		dst  *float64
	}{
		{"montoGravado", colTaxable, &inv.TaxableAmount},
		{"iva21", colIVA21, &inv.IVA21},
		{"percIIBB", colPercIIBB, &inv.PercIIBB},
		{"percMun", colPercMun, &inv.PercMun},
		{"total", colTotal, &inv.Total},
	}
	for _, a := range amounts {
		v, err := parseAmount(record[a.col])
		if err != nil {
			return nil, &RowError{Line: line, Field: a.name, Message: err.Error()}
		}
		*a.dst = v
	}

	inv.ControlIVA = reconciler.CheckSalesIVA(inv)
	return inv, nil
}
