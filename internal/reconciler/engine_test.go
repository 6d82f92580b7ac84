package reconciler

import (
	"math"
	"math/rand"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"iva-service/internal/models"
)

func nopLogger() zerolog.Logger {
	return zerolog.Nop()
}

func validInvoice(id int64, nro, doc string) *models.SalesInvoice {
	return &models.SalesInvoice{
		ID:            id,
		Client:        "CONSUMIDOR FINAL",
		IVACondition:  models.CondConsumidorFinal,
		DocType:       doc,
		Date:          "01/02/2025",
		Number:        nro,
		TaxableAmount: 100,
		IVA21:         21,
		Total:         121,
		Province:      "Córdoba",
		ControlIVA:    models.StatusCorrect,
	}
}

func numbers(invoices []*models.SalesInvoice) []string {
	out := make([]string, 0, len(invoices))
	for _, inv := range invoices {
		out = append(out, inv.Number)
	}
	return out
}

func TestReconcileFillsGap(t *testing.T) {
	input := []*models.SalesInvoice{
		validInvoice(1, "0005-00000001", "Factura B"),
		validInvoice(2, "0005-00000002", "Factura B"),
		validInvoice(3, "0005-00000004", "Factura B"),
	}

	result := NewEngine(nopLogger()).Reconcile(input)

	require.Len(t, result.Invoices, 4)
	assert.Equal(t, []string{"0005-00000001", "0005-00000002", "0005-00000003", "0005-00000004"}, numbers(result.Invoices))
	assert.Equal(t, 1, result.Synthesized)

	missing := result.Invoices[2]
	assert.True(t, missing.Synthesized)
	assert.Equal(t, models.MissingInvoiceClient, missing.Client)
	assert.Equal(t, "Factura B", missing.DocType)
	assert.Equal(t, models.StatusError, missing.Correlativity)
	assert.Equal(t, models.StatusError, missing.ControlIVA)
	assert.Zero(t, missing.Total)
	assert.Zero(t, missing.TaxableAmount)
	assert.Zero(t, missing.IVA21)
	assert.Zero(t, missing.PercIIBB)
	assert.Zero(t, missing.PercMun)

	for _, i := range []int{0, 1, 3} {
		assert.Equal(t, models.StatusCorrect, result.Invoices[i].Correlativity, result.Invoices[i].Number)
	}
}

func TestReconcileSeriesAreIndependent(t *testing.T) {
	input := []*models.SalesInvoice{
		validInvoice(1, "0005-00000010", "Factura B"),
		validInvoice(2, "0005-00000012", "Factura A"),
		validInvoice(3, "0001-00000010", "Factura B"),
		validInvoice(4, "0001-00000013", "Factura B"),
	}

	out := Reconcile(input)

	assert.Equal(t, []string{
		"0001-00000010",
		"0001-00000011",
		"0001-00000012",
		"0001-00000013",
		"0005-00000010",
		"0005-00000012",
	}, numbers(out))
}

func TestReconcileContiguity(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	var input []*models.SalesInvoice
	var id int64
	observed := map[string][2]int64{}

	for _, series := range []struct{ pos, doc string }{{"0001", "Factura A"}, {"0002", "Factura B"}, {"0002", "Factura C"}} {
		key := series.pos + "|" + series.doc
		for i := 0; i < 15; i++ {
			seq := int64(rng.Intn(60) + 1)
			id++
			input = append(input, validInvoice(id, FormatNumber(series.pos, seq), series.doc))
			bounds, ok := observed[key]
			if !ok {
				bounds = [2]int64{seq, seq}
			}
			if seq < bounds[0] {
				bounds[0] = seq
			}
			if seq > bounds[1] {
				bounds[1] = seq
			}
			observed[key] = bounds
		}
	}

	out := NewEngine(nopLogger()).Reconcile(input).Invoices

	present := map[string]map[int64]int{}
	for _, inv := range out {
		pos, seq, reason := splitNumber(inv.Number)
		require.Empty(t, reason)
		key := pos + "|" + inv.DocType
		if present[key] == nil {
			present[key] = map[int64]int{}
		}
		present[key][seq]++
	}

	for key, bounds := range observed {
		for n := bounds[0]; n <= bounds[1]; n++ {
			assert.GreaterOrEqual(t, present[key][n], 1, "series %s missing %d", key, n)
		}
		for n := range present[key] {
			assert.True(t, n >= bounds[0] && n <= bounds[1], "series %s has %d outside range", key, n)
		}
	}
}

func TestReconcileIdempotent(t *testing.T) {
	input := []*models.SalesInvoice{
		validInvoice(1, "0005-00000001", "Factura B"),
		validInvoice(2, "0005-00000005", "Factura B"),
		validInvoice(3, "0003-00001122", "Factura C"),
		{ID: 4, Number: "0005-00000003", DocType: "Factura B", Total: 121, Date: "03/02/2025"},
	}

	once := Reconcile(input)
	twice := NewEngine(nopLogger()).Reconcile(once)

	assert.Zero(t, twice.Synthesized)
	assert.Equal(t, once, twice.Invoices)
}

func TestReconcileIgnoresInputOrder(t *testing.T) {
	input := []*models.SalesInvoice{
		validInvoice(1, "0005-00000001", "Factura B"),
		validInvoice(2, "0005-00000004", "Factura B"),
		validInvoice(3, "0005-00000004", "Factura A"),
		validInvoice(4, "0001-00000007", "Factura A"),
		validInvoice(5, "0001-00000009", "Factura A"),
		validInvoice(6, "0005-00000002", "Factura A"),
		validInvoice(7, "0005-00000004", "Factura B"),
	}
	want := Reconcile(input)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := append([]*models.SalesInvoice(nil), input...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		assert.Equal(t, want, Reconcile(shuffled))
	}
}

func TestReconcileSingleRecordSeries(t *testing.T) {
	for _, nro := range []string{"0003-00001122", "0003-00000000", "0003-99999999"} {
		out := NewEngine(nopLogger()).Reconcile([]*models.SalesInvoice{validInvoice(1, nro, "Factura C")})
		assert.Zero(t, out.Synthesized, nro)
		require.Len(t, out.Invoices, 1)
		assert.Equal(t, nro, out.Invoices[0].Number)
	}
}

func TestReconcileCompleteness(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.SalesInvoice)
		want   models.Status
	}{
		{name: "complete", mutate: func(*models.SalesInvoice) {}, want: models.StatusCorrect},
		{name: "empty client", mutate: func(i *models.SalesInvoice) { i.Client = "" }, want: models.StatusError},
		{name: "blank client", mutate: func(i *models.SalesInvoice) { i.Client = "   " }, want: models.StatusError},
		{name: "empty date", mutate: func(i *models.SalesInvoice) { i.Date = "" }, want: models.StatusError},
		{name: "zero total", mutate: func(i *models.SalesInvoice) { i.Total = 0 }, want: models.StatusError},
		{
			name: "responsable inscripto without document",
			mutate: func(i *models.SalesInvoice) {
				i.IVACondition = models.CondResponsableInscripto
				i.DocNumber = 0
			},
			want: models.StatusError,
		},
		{
			name: "responsable inscripto with document",
			mutate: func(i *models.SalesInvoice) {
				i.IVACondition = models.CondResponsableInscripto
				i.DocNumber = 30715489654
			},
			want: models.StatusCorrect,
		},
		{
			name: "stale error is re-evaluated",
			mutate: func(i *models.SalesInvoice) {
				i.Correlativity = models.StatusError
			},
			want: models.StatusCorrect,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := validInvoice(1, "0005-00000001", "Factura B")
			tt.mutate(inv)
			out := Reconcile([]*models.SalesInvoice{inv})
			require.Len(t, out, 1)
			assert.Equal(t, tt.want, out[0].Correlativity)
		})
	}
}

func TestReconcileSkipsUngroupable(t *testing.T) {
	input := []*models.SalesInvoice{
		validInvoice(1, "13", "Factura B"),
		validInvoice(2, "", "Factura B"),
		validInvoice(3, "0005-00000001", "  "),
		validInvoice(4, "0005-ABC", "Factura B"),
		validInvoice(5, "0005-00000002", "Factura B"),
	}

	result := NewEngine(nopLogger()).Reconcile(input)

	require.Len(t, result.Invoices, 1)
	assert.Equal(t, "0005-00000002", result.Invoices[0].Number)

	reasons := map[string]string{}
	for _, s := range result.Skipped {
		reasons[s.Key] = s.Reason
	}
	assert.Equal(t, map[string]string{
		"r:1": ReasonNoHyphen,
		"r:2": ReasonEmptyNumber,
		"r:3": ReasonEmptyDocType,
		"r:4": ReasonBadSequence,
	}, reasons)
}

func TestReconcileDropsEmptySentinel(t *testing.T) {
	input := []*models.SalesInvoice{
		validInvoice(1, "0000-00000000", "Factura B"),
		validInvoice(2, "0000-00000002", "Factura B"),
	}

	out := Reconcile(input)

	assert.Equal(t, []string{"0000-00000001", "0000-00000002"}, numbers(out))
}

func TestReconcileDuplicateNumbers(t *testing.T) {
	input := []*models.SalesInvoice{
		validInvoice(2, "0005-00000002", "Factura B"),
		validInvoice(1, "0005-00000002", "Factura B"),
		validInvoice(3, "0005-00000003", "Factura B"),
	}

	result := NewEngine(nopLogger()).Reconcile(input)

	require.Len(t, result.Invoices, 3)
	assert.Zero(t, result.Synthesized)
	assert.Equal(t, 1, result.Duplicates)
	assert.Equal(t, int64(1), result.Invoices[0].ID)
	assert.Equal(t, models.StatusCorrect, result.Invoices[0].Correlativity)
	assert.Equal(t, int64(2), result.Invoices[1].ID)
	assert.Equal(t, models.StatusError, result.Invoices[1].Correlativity)
	assert.Equal(t, models.StatusCorrect, result.Invoices[2].Correlativity)
}

func TestReconcileDoesNotMutateInput(t *testing.T) {
	inv := validInvoice(1, "0005-00000001", "Factura B")
	inv.Client = ""
	before := *inv

	out := Reconcile([]*models.SalesInvoice{inv, validInvoice(2, "0005-00000003", "Factura B")})

	assert.Equal(t, before, *inv)
	assert.NotSame(t, inv, out[0])
	assert.Equal(t, models.StatusError, out[0].Correlativity)
}

func TestReconcileUnpaddedNumbers(t *testing.T) {
	input := []*models.SalesInvoice{
		validInvoice(1, "0005-1", "Factura B"),
		validInvoice(2, "0005-3", "Factura B"),
	}

	out := Reconcile(input)

	require.Len(t, out, 3)
	assert.Contains(t, numbers(out), "0005-00000002")
}

func TestReconcileEmptyInput(t *testing.T) {
	result := NewEngine(nopLogger()).Reconcile(nil)
	assert.NotNil(t, result.Invoices)
	assert.Empty(t, result.Invoices)
}

func TestReconcileSequenceBounds(t *testing.T) {
	input := []*models.SalesInvoice{
		validInvoice(1, "0001-00000001", "Factura B"),
		validInvoice(2, "0001-000000000005000000", "Factura B"),
		validInvoice(3, "0001-"+strconv.FormatInt(math.MaxInt64, 10), "Factura B"),
		validInvoice(4, "0001-+0000002", "Factura B"),
		validInvoice(5, "0001-99999999", "Factura C"),
	}

	done := make(chan *Result, 1)
	go func() { done <- NewEngine(nopLogger()).Reconcile(input) }()

	var result *Result
	select {
	case result = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("reconcile did not return")
	}

	assert.Equal(t, 0, result.Synthesized)
	assert.Equal(t, []string{"0001-00000001", "0001-99999999"}, numbers(result.Invoices))

	reasons := map[string]string{}
	for _, s := range result.Skipped {
		reasons[s.Key] = s.Reason
	}
	assert.Equal(t, map[string]string{
		"r:2": ReasonBadSequence,
		"r:3": ReasonBadSequence,
		"r:4": ReasonBadSequence,
	}, reasons)
}

func TestReconcileSingleRecordAtMaxSequence(t *testing.T) {
	result := NewEngine(nopLogger()).Reconcile([]*models.SalesInvoice{
		validInvoice(1, "0001-99999999", "Factura B"),
	})

	require.Len(t, result.Invoices, 1)
	assert.Equal(t, 0, result.Synthesized)
	assert.Equal(t, models.StatusCorrect, result.Invoices[0].Correlativity)
}

func TestReconcileSeriesArePerCompany(t *testing.T) {
	a1 := validInvoice(1, "0001-00000001", "Factura B")
	a1.CompanyCUIT = "30-1"
	a2 := validInvoice(2, "0001-00000002", "Factura B")
	a2.CompanyCUIT = "30-1"
	b6 := validInvoice(3, "0001-00000006", "Factura B")
	b6.CompanyCUIT = "30-2"
	b8 := validInvoice(4, "0001-00000008", "Factura B")
	b8.CompanyCUIT = "30-2"

	result := NewEngine(nopLogger()).Reconcile([]*models.SalesInvoice{b8, a2, b6, a1})

	require.Equal(t, 1, result.Synthesized)
	assert.Equal(t, []string{"0001-00000001", "0001-00000002", "0001-00000006", "0001-00000007", "0001-00000008"}, numbers(result.Invoices))
	placeholder := result.Invoices[3]
	assert.True(t, placeholder.Synthesized)
	assert.Equal(t, "30-2", placeholder.CompanyCUIT)
}
