package listing

import (
	"cmp"
	"slices"
	"strings"

	ierr "iva-service/internal/errors"
	"iva-service/internal/models"
)

const DefaultPerPage = 5

type Direction string

const (
	Ascending  Direction = "ascending"
	Descending Direction = "descending"
)

// ParseDirection accepts asc/desc shorthands; anything else is ascending
func ParseDirection(s string) Direction {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "desc", "descending":
		return Descending
	default:
		return Ascending
	}
}

// Comparator orders two records on one column
type Comparator[T any] func(a, b T) int

// Columns maps the wire name of a column to its comparator
type Columns[T any] map[string]Comparator[T]

// Sort returns a sorted copy of items. Equal rows keep their input order.
func Sort[T any](items []T, columns Columns[T], key string, dir Direction) ([]T, error) {
	compare, ok := columns[key]
	if !ok {
		return nil, ierr.Mark(ierr.Newf("unknown sort column %q", key), ierr.ErrValidation)
	}

	sorted := slices.Clone(items)
	slices.SortStableFunc(sorted, func(a, b T) int {
		if dir == Descending {
			return -compare(a, b)
		}
		return compare(a, b)
	})
	return sorted, nil
}

// Page is one window over a sorted list
type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	PerPage    int `json:"perPage"`
	TotalItems int `json:"totalItems"`
	TotalPages int `json:"totalPages"`
}

// Paginate slices items into 1-based pages. Pages past the end are empty.
func Paginate[T any](items []T, page, perPage int) Page[T] {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if page <= 0 {
		page = 1
	}

	total := len(items)
	p := Page[T]{
		Items:      []T{},
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: (total + perPage - 1) / perPage,
	}

	start := (page - 1) * perPage
	if start >= total {
		return p
	}
	end := min(start+perPage, total)
	p.Items = items[start:end]
	return p
}

func byString[T any](get func(T) string) Comparator[T] {
	return func(a, b T) int { return strings.Compare(get(a), get(b)) }
}

func byNumber[T any, N cmp.Ordered](get func(T) N) Comparator[T] {
	return func(a, b T) int { return cmp.Compare(get(a), get(b)) }
}

// SalesColumns are the sortable columns of the sales book
var SalesColumns = Columns[*models.SalesInvoice]{
	"nro":            byString(func(i *models.SalesInvoice) string { return i.Number }),
	"fecha":          byString(func(i *models.SalesInvoice) string { return i.Date }),
	"cliente":        byString(func(i *models.SalesInvoice) string { return i.Client }),
	"condIva":        byString(func(i *models.SalesInvoice) string { return i.IVACondition }),
	"doc":            byString(func(i *models.SalesInvoice) string { return i.DocType }),
	"docNumero":      byNumber(func(i *models.SalesInvoice) int64 { return i.DocNumber }),
	"provincia":      byString(func(i *models.SalesInvoice) string { return i.Province }),
	"montoGravado":   byNumber(func(i *models.SalesInvoice) float64 { return i.TaxableAmount }),
	"iva21":          byNumber(func(i *models.SalesInvoice) float64 { return i.IVA21 }),
	"percIIBB":       byNumber(func(i *models.SalesInvoice) float64 { return i.PercIIBB }),
	"percMun":        byNumber(func(i *models.SalesInvoice) float64 { return i.PercMun }),
	"total":          byNumber(func(i *models.SalesInvoice) float64 { return i.Total }),
	"controlIva":     byString(func(i *models.SalesInvoice) string { return string(i.ControlIVA) }),
	"correlatividad": byString(func(i *models.SalesInvoice) string { return string(i.Correlativity) }),
}

// PurchaseColumns are the sortable columns of the purchase book
var PurchaseColumns = Columns[*models.PurchaseInvoice]{
	"nro":             byString(func(i *models.PurchaseInvoice) string { return i.Number }),
	"fechaEmision":    byString(func(i *models.PurchaseInvoice) string { return i.IssueDate }),
	"fechaImputacion": byString(func(i *models.PurchaseInvoice) string { return i.ImputationDate }),
	"proveedor":       byString(func(i *models.PurchaseInvoice) string { return i.Provider }),
	"cuitProveedor":   byString(func(i *models.PurchaseInvoice) string { return i.ProviderCUIT }),
	"doc":             byString(func(i *models.PurchaseInvoice) string { return i.DocType }),
	"clasificacion":   byString(func(i *models.PurchaseInvoice) string { return i.Classification }),
	"provincia":       byString(func(i *models.PurchaseInvoice) string { return i.Province }),
	"montoGravado":    byNumber(func(i *models.PurchaseInvoice) float64 { return i.TaxableAmount }),
	"iva21":           byNumber(func(i *models.PurchaseInvoice) float64 { return i.IVA21 }),
	"total":           byNumber(func(i *models.PurchaseInvoice) float64 { return i.Total }),
	"controlIva":      byString(func(i *models.PurchaseInvoice) string { return string(i.ControlIVA) }),
}
