package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	ierr "iva-service/internal/errors"
	"iva-service/internal/listing"
	"iva-service/internal/repositories"
	"iva-service/internal/services"
	"iva-service/internal/validator"
)

// parseFilter reads cuit, search and period from the query string
func parseFilter(r *http.Request) (repositories.InvoiceFilter, error) {
	q := r.URL.Query()
	f := repositories.InvoiceFilter{
		CompanyCUIT: q.Get("cuit"),
		Search:      q.Get("search"),
		Period:      q.Get("period"),
	}
	if f.Period != "" && !validator.IsPeriod(f.Period) {
		return f, ierr.Mark(ierr.Newf("invalid period %q, expected YYYY-MM", f.Period), ierr.ErrValidation)
	}
	return f, nil
}

// parseListQuery reads the filter plus sort, dir, page and per_page
func parseListQuery(r *http.Request, defaultPerPage int) (services.ListQuery, error) {
	filter, err := parseFilter(r)
	if err != nil {
		return services.ListQuery{}, err
	}

	q := r.URL.Query()
	page, err := intParam(q.Get("page"), 1)
	if err != nil {
		return services.ListQuery{}, err
	}
	perPage, err := intParam(q.Get("per_page"), defaultPerPage)
	if err != nil {
		return services.ListQuery{}, err
	}

	return services.ListQuery{
		Filter:    filter,
		Sort:      q.Get("sort"),
		Direction: listing.ParseDirection(q.Get("dir")),
		Page:      page,
		PerPage:   perPage,
	}, nil
}

func intParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, ierr.Mark(ierr.Newf("invalid positive integer %q", raw), ierr.ErrValidation)
	}
	return n, nil
}

func idParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id < 1 {
		return 0, ierr.Mark(ierr.Newf("invalid id %q", mux.Vars(r)["id"]), ierr.ErrValidation)
	}
	return id, nil
}
