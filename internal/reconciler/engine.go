package reconciler

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"iva-service/internal/models"
)

// Skip reasons for records that cannot take part in gap detection
const (
	ReasonEmptyNumber  = "empty invoice number"
	ReasonNoHyphen     = "invoice number without point-of-sale separator"
	ReasonBadSequence  = "sequence number is not 1 to 8 digits"
	ReasonEmptyDocType = "empty document type"
)

// SkippedRecord describes an input record left out of reconciliation
type SkippedRecord struct {
	Key     string `json:"key"`
	Number  string `json:"nro"`
	DocType string `json:"doc"`
	Reason  string `json:"reason"`
}

// Result is the output of one reconciliation pass
type Result struct {
	Invoices    []*models.SalesInvoice `json:"invoices"`
	Skipped     []SkippedRecord        `json:"skipped,omitempty"`
	Synthesized int                    `json:"synthesized"`
	Duplicates  int                    `json:"duplicates"`
}

// Engine reconciles invoice numbering series. It holds no state between
// calls and is safe for concurrent use.
type Engine struct {
	log zerolog.Logger
}

func NewEngine(log zerolog.Logger) *Engine {
	return &Engine{log: log}
}

// Reconcile runs a silent engine over invoices and returns the annotated list.
func Reconcile(invoices []*models.SalesInvoice) []*models.SalesInvoice {
	return NewEngine(zerolog.Nop()).Reconcile(invoices).Invoices
}

// sequenceDigits is the width of the NNNNNNNN part of an invoice number
const sequenceDigits = 8

type seriesKey struct {
	company     string
	pointOfSale string
	docType     string
}

type sequenced struct {
	seq     int64
	invoice *models.SalesInvoice
}

// Reconcile groups invoices by (company, point of sale, document type), fills
// every numbering gap with a placeholder, re-checks field completeness and
// returns the result ordered by invoice number. Inputs are never mutated.
func (e *Engine) Reconcile(invoices []*models.SalesInvoice) *Result {
	result := &Result{}
	series := make(map[seriesKey][]sequenced)

	for _, inv := range invoices {
		if inv == nil {
			continue
		}

		pointOfSale, seq, reason := splitNumber(inv.Number)
		docType := strings.TrimSpace(inv.DocType)
		if reason == "" && docType == "" {
			reason = ReasonEmptyDocType
		}
		if reason != "" {
			e.log.Warn().
				Str("nro", inv.Number).
				Str("doc", inv.DocType).
				Str("reason", reason).
				Msg("Invoice skipped, not enough data to group")
			result.Skipped = append(result.Skipped, SkippedRecord{
				Key:     inv.Key(),
				Number:  inv.Number,
				DocType: inv.DocType,
				Reason:  reason,
			})
			continue
		}

		copied := *inv
		key := seriesKey{company: inv.CompanyCUIT, pointOfSale: pointOfSale, docType: docType}
		series[key] = append(series[key], sequenced{seq: seq, invoice: &copied})
	}

	keys := make([]seriesKey, 0, len(series))
	for k := range series {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].company != keys[j].company {
			return keys[i].company < keys[j].company
		}
		if keys[i].pointOfSale != keys[j].pointOfSale {
			return keys[i].pointOfSale < keys[j].pointOfSale
		}
		return keys[i].docType < keys[j].docType
	})

	var out []*models.SalesInvoice
	for _, k := range keys {
		out = e.fillSeries(k, series[k], out, result)
	}

	filtered := make([]*models.SalesInvoice, 0, len(out))
	for _, inv := range out {
		if inv.Number == models.EmptyInvoiceNumber {
			continue
		}
		filtered = append(filtered, inv)
	}

	SortByNumber(filtered)
	result.Invoices = filtered
	return result
}

// fillSeries walks [min, max] of one series, emitting real invoices and
// synthesizing placeholders for missing sequence numbers.
func (e *Engine) fillSeries(key seriesKey, group []sequenced, out []*models.SalesInvoice, result *Result) []*models.SalesInvoice {
	sort.SliceStable(group, func(i, j int) bool {
		if group[i].seq != group[j].seq {
			return group[i].seq < group[j].seq
		}
		return group[i].invoice.Key() < group[j].invoice.Key()
	})

	first := group[0].seq
	last := group[len(group)-1].seq
	pointer := 0

	for n := first; ; n++ {
		if pointer < len(group) && group[pointer].seq == n {
			inv := group[pointer].invoice
			inv.Correlativity = checkCompleteness(inv)
			out = append(out, inv)
			pointer++

			for pointer < len(group) && group[pointer].seq == n {
				dup := group[pointer].invoice
				dup.Correlativity = models.StatusError
				e.log.Warn().
					Str("nro", dup.Number).
					Str("doc", key.docType).
					Msg("Duplicate invoice number in series")
				result.Duplicates++
				out = append(out, dup)
				pointer++
			}
		} else {
			placeholder := missingInvoice(key, n)
			e.log.Warn().
				Str("cuit", key.company).
				Str("nro", placeholder.Number).
				Str("doc", key.docType).
				Msg("Gap detected, missing invoice synthesized")
			result.Synthesized++
			out = append(out, placeholder)
		}

		if n == last {
			return out
		}
	}
}

func missingInvoice(key seriesKey, seq int64) *models.SalesInvoice {
	return &models.SalesInvoice{
		Synthesized:   true,
		CompanyCUIT:   key.company,
		Client:        models.MissingInvoiceClient,
		DocType:       key.docType,
		Number:        FormatNumber(key.pointOfSale, seq),
		ControlIVA:    models.StatusError,
		Correlativity: models.StatusError,
	}
}

// checkCompleteness flags invoices missing data the book requires
func checkCompleteness(inv *models.SalesInvoice) models.Status {
	if inv.Synthesized {
		return models.StatusError
	}
	if strings.TrimSpace(inv.Client) == "" || strings.TrimSpace(inv.Date) == "" || inv.Total == 0 {
		return models.StatusError
	}
	if inv.IVACondition == models.CondResponsableInscripto && inv.DocNumber == 0 {
		return models.StatusError
	}
	return models.StatusCorrect
}

// splitNumber parses "PPPP-NNNNNNNN" into its point of sale and sequence.
// A non-empty reason means the number cannot be grouped.
func splitNumber(nro string) (string, int64, string) {
	if strings.TrimSpace(nro) == "" {
		return "", 0, ReasonEmptyNumber
	}
	pointOfSale, rest, ok := strings.Cut(nro, "-")
	if !ok {
		return "", 0, ReasonNoHyphen
	}
	rest = strings.TrimSpace(rest)
	if rest == "" || len(rest) > sequenceDigits || strings.TrimLeft(rest, "0123456789") != "" {
		return "", 0, ReasonBadSequence
	}
	seq, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return "", 0, ReasonBadSequence
	}
	return pointOfSale, seq, ""
}

// FormatNumber renders a point of sale and sequence as PPPP-NNNNNNNN
func FormatNumber(pointOfSale string, seq int64) string {
	return fmt.Sprintf("%s-%08d", pointOfSale, seq)
}

// SortByNumber orders invoices by their full number string. Ties fall back
// to document type and then record key so the order never depends on input.
func SortByNumber(invoices []*models.SalesInvoice) {
	sort.SliceStable(invoices, func(i, j int) bool {
		a, b := invoices[i], invoices[j]
		if a.Number != b.Number {
			return a.Number < b.Number
		}
		if a.DocType != b.DocType {
			return a.DocType < b.DocType
		}
		return a.Key() < b.Key()
	})
}
