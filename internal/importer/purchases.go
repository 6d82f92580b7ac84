package importer

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	ierr "iva-service/internal/errors"
	"iva-service/internal/models"
	"iva-service/internal/reconciler"
)

// AFIP "Mis Comprobantes Recibidos" export headers
const (
	hdrIssueDate    = "Fecha de Emisión"
	hdrVoucherType  = "Tipo de Comprobante"
	hdrPointOfSale  = "Punto de Venta"
	hdrNumberFrom   = "Número Desde"
	hdrIssuerDoc    = "Nro. Doc. Emisor"
	hdrIssuerName   = "Denominación Emisor"
	hdrTaxable      = "Imp. Neto Gravado"
	hdrNotTaxed     = "Imp. Neto No Gravado"
	hdrExempt       = "Imp. Op. Exentas"
	hdrOtherTaxes   = "Otros Tributos"
	hdrIVA          = "IVA"
	hdrTotal        = "Imp. Total"
	utf8BOM         = "\ufeff"
	defaultProvider = "Desconocido"
	defaultProvince = "Córdoba"
)

var requiredPurchaseHeaders = []string{hdrVoucherType, hdrPointOfSale, hdrNumberFrom, hdrTotal}

// VoucherTypes maps AFIP voucher codes to their document type
var VoucherTypes = map[string]string{
	"1":  "Factura A",
	"2":  "Nota de Débito A",
	"3":  "Nota de Crédito A",
	"6":  "Factura B",
	"7":  "Nota de Débito B",
	"8":  "Nota de Crédito B",
	"11": "Factura C",
	"12": "Nota de Débito C",
	"13": "Nota de Crédito C",
	"51": "Factura M",
	"52": "Nota de Débito M",
	"53": "Nota de Crédito M",
}

// VoucherType names an AFIP voucher code, falling back to the raw code
func VoucherType(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		code = "0"
	}
	if name, ok := VoucherTypes[code]; ok {
		return name
	}
	return "Código " + code
}

// PurchaseImport is the outcome of parsing an AFIP purchases CSV
type PurchaseImport struct {
	Invoices []*models.PurchaseInvoice `json:"invoices"`
	Errors   []RowError                `json:"errors,omitempty"`
}

// ParsePurchases reads an AFIP received-vouchers export. Columns are located
// by header, so their order does not matter. Every row is attributed to the
// buying company.
func ParsePurchases(r io.Reader, companyCUIT, companyName string) (*PurchaseImport, error) {
	reader := newReader(r)
	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ierr.Mark(ierr.New("purchases file is empty"), ierr.ErrValidation)
		}
		return nil, fmt.Errorf("error reading csv header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, utf8BOM))
		columns[h] = i
	}
	for _, h := range requiredPurchaseHeaders {
		if _, ok := columns[h]; !ok {
			return nil, ierr.Mark(ierr.Newf("missing column %q", h), ierr.ErrValidation)
		}
	}

	rows, lines, err := readRows(reader)
	if err != nil {
		return nil, err
	}

	result := &PurchaseImport{Invoices: []*models.PurchaseInvoice{}}
	for i, record := range rows {
		row := afipRow{record: record, columns: columns}
		inv, rowErr := parsePurchaseRow(row, lines[i])
		if rowErr != nil {
			result.Errors = append(result.Errors, *rowErr)
			continue
		}
		inv.CompanyCUIT = companyCUIT
		inv.CompanyName = companyName
		result.Invoices = append(result.Invoices, inv)
	}
	return result, nil
}

type afipRow struct {
	record  []string
	columns map[string]int
}

func (r afipRow) get(header string) string {
	i, ok := r.columns[header]
	if !ok {
		return ""
	}
	return field(r.record, i)
}

func parsePurchaseRow(row afipRow, line int) (*models.PurchaseInvoice, *RowError) {
	number, err := voucherNumber(row.get(hdrPointOfSale), row.get(hdrNumberFrom))
	if err != nil {
		return nil, &RowError{Line: line, Field: hdrNumberFrom, Message: err.Error()}
	}

	amounts := make(map[string]float64, 6)
	for _, h := range []string{hdrTaxable, hdrNotTaxed, hdrExempt, hdrOtherTaxes, hdrIVA, hdrTotal} {
		v, err := parseAFIPAmount(row.get(h))
		if err != nil {
			return nil, &RowError{Line: line, Field: h, Message: err.Error()}
		}
		amounts[h] = v
	}

	provider := row.get(hdrIssuerName)
	if provider == "" {
		provider = defaultProvider
	}
	providerCUIT := row.get(hdrIssuerDoc)
	if providerCUIT == "" {
		providerCUIT = "0"
	}
	issued := normalizeDate(row.get(hdrIssueDate))
	vat := reconciler.ClassifyVAT(amounts[hdrTaxable], amounts[hdrIVA])

	inv := &models.PurchaseInvoice{
		Provider:          provider,
		ProviderCUIT:      providerCUIT,
		IVACondition:      models.CondRespInscriptoShort,
		DocType:           VoucherType(row.get(hdrVoucherType)),
		Number:            number,
		IssueDate:         issued,
		ImputationDate:    issued,
		Province:          defaultProvince,
		Jurisdiction:      defaultProvince,
		Classification:    models.DefaultClassification,
		TaxableAmount:     amounts[hdrTaxable],
		Exempt:            amounts[hdrExempt] + amounts[hdrNotTaxed],
		IVA21:             vat.IVA21,
		IVA105:            vat.IVA105,
		IVA27:             vat.IVA27,
		OtherWithholdings: amounts[hdrOtherTaxes],
		Total:             amounts[hdrTotal],
	}
	inv.ControlIVA = reconciler.CheckPurchaseIVA(inv)
	return inv, nil
}

// voucherNumber builds "PPPP-NNNNNNNN" from the point of sale and number
func voucherNumber(pos, nro string) (string, error) {
	p, err := parseCount(pos)
	if err != nil {
		return "", fmt.Errorf("invalid point of sale %q", pos)
	}
	n, err := parseCount(nro)
	if err != nil {
		return "", fmt.Errorf("invalid voucher number %q", nro)
	}
	return fmt.Sprintf("%04d-%08d", p, n), nil
}

func parseCount(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid count %q", s)
	}
	return n, nil
}
