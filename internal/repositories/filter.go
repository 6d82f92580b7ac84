package repositories

import (
	"fmt"
	"strings"
)

// InvoiceFilter narrows a listing. Empty fields do not filter.
type InvoiceFilter struct {
	CompanyCUIT string
	// Search matches company name or CUIT by substring
	Search string
	// Period is YYYY-MM
	Period string
}

// periodSuffix turns "2024-03" into "/03/2024", the tail of a dd/mm/yyyy date
func periodSuffix(period string) (string, bool) {
	year, month, ok := strings.Cut(period, "-")
	if !ok || len(year) != 4 || len(month) != 2 {
		return "", false
	}
	return fmt.Sprintf("/%s/%s", month, year), true
}

// InPeriod reports whether a dd/mm/yyyy date falls in a YYYY-MM period
func InPeriod(date, period string) bool {
	suffix, ok := periodSuffix(period)
	return ok && strings.HasSuffix(strings.TrimSpace(date), suffix)
}

// where builds the WHERE clause for f. dateColumn holds the dd/mm/yyyy date
// the period applies to.
func (f InvoiceFilter) where(dateColumn string) (string, []interface{}) {
	var conds []string
	var args []interface{}

	if f.CompanyCUIT != "" {
		conds = append(conds, "cuit_empresa = ?")
		args = append(args, f.CompanyCUIT)
	}
	if f.Search != "" {
		conds = append(conds, "(nombre_empresa LIKE ? OR cuit_empresa LIKE ?)")
		like := "%" + escapeLike(f.Search) + "%"
		args = append(args, like, like)
	}
	if suffix, ok := periodSuffix(f.Period); ok {
		conds = append(conds, dateColumn+" LIKE ?")
		args = append(args, "%"+suffix)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
