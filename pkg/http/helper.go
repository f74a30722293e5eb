package http

import (
	"fmt"
	"net/http"
	"strconv"

	"megastrength/pkg/config"
	apperrors "megastrength/pkg/errors"
	"megastrength/pkg/model"
)

// ExtractPage reads page and limit from the query string. Missing values take the defaults,
// out-of-range values are rejected.
func ExtractPage(r *http.Request) (int, int, error) {
	query := r.URL.Query()

	page := config.DefaultPage
	if s := query.Get("page"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			return 0, 0, apperrors.InvalidInput("invalid page parameter: " + s)
		}
		page = v
	}

	limit := config.DefaultPageLimit
	if s := query.Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 || v > config.MaxPageLimit {
			return 0, 0, apperrors.InvalidInput(fmt.Sprintf("invalid limit parameter: %s (must be between 1 and %d)", s, config.MaxPageLimit))
		}
		limit = v
	}

	return page, limit, nil
}

// ExtractBookingFilter reads status, service, date_from and date_to from the query string.
func ExtractBookingFilter(r *http.Request) (model.BookingFilter, error) {
	query := r.URL.Query()
	filter := model.BookingFilter{
		Status:  query.Get("status"),
		Service: query.Get("service"),
	}

	for _, p := range []struct {
		name string
		dst  **model.Date
	}{
		{"date_from", &filter.DateFrom},
		{"date_to", &filter.DateTo},
	} {
		s := query.Get(p.name)
		if s == "" {
			continue
		}
		d, err := model.ParseDate(s)
		if err != nil {
			return filter, apperrors.InvalidInput(fmt.Sprintf("invalid %s parameter: %s", p.name, s))
		}
		*p.dst = &d
	}

	return filter, nil
}
