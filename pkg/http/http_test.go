package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "megastrength/pkg/errors"
)

func TestExtractPage(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantPage  int
		wantLimit int
		wantErr   bool
	}{
		{name: "defaults", query: "", wantPage: 1, wantLimit: 20},
		{name: "explicit", query: "page=3&limit=50", wantPage: 3, wantLimit: 50},
		{name: "max limit", query: "limit=100", wantPage: 1, wantLimit: 100},
		{name: "zero page", query: "page=0", wantErr: true},
		{name: "negative page", query: "page=-2", wantErr: true},
		{name: "limit too large", query: "limit=101", wantErr: true},
		{name: "zero limit", query: "limit=0", wantErr: true},
		{name: "not a number", query: "page=abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/v1/bookings?"+tt.query, nil)
			page, limit, err := ExtractPage(r)
			if tt.wantErr {
				if !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
					t.Fatalf("expected INVALID_INPUT, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if page != tt.wantPage || limit != tt.wantLimit {
				t.Errorf("got page=%d limit=%d, want page=%d limit=%d", page, limit, tt.wantPage, tt.wantLimit)
			}
		})
	}
}

func TestExtractBookingFilter(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/v1/bookings?status=pending&date_from=2030-06-01&date_to=2030-06-30", nil)
	filter, err := ExtractBookingFilter(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filter.Status != "pending" {
		t.Errorf("status = %q", filter.Status)
	}
	if filter.DateFrom == nil || filter.DateFrom.String() != "2030-06-01" {
		t.Errorf("date_from = %v", filter.DateFrom)
	}
	if filter.DateTo == nil || filter.DateTo.String() != "2030-06-30" {
		t.Errorf("date_to = %v", filter.DateTo)
	}

	r = httptest.NewRequest(http.MethodGet, "/api/v1/bookings?date_from=June", nil)
	if _, err := ExtractBookingFilter(r); !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT for a bad date, got %v", err)
	}
}

func TestNewPagination(t *testing.T) {
	tests := []struct {
		page, limit int
		total       int64
		want        Pagination
	}{
		{1, 20, 0, Pagination{CurrentPage: 1, TotalPages: 0, Total: 0}},
		{1, 20, 45, Pagination{CurrentPage: 1, TotalPages: 3, Total: 45, HasNext: true}},
		{2, 20, 45, Pagination{CurrentPage: 2, TotalPages: 3, Total: 45, HasNext: true, HasPrev: true}},
		{3, 20, 45, Pagination{CurrentPage: 3, TotalPages: 3, Total: 45, HasPrev: true}},
	}
	for _, tt := range tests {
		if got := NewPagination(tt.page, tt.limit, tt.total); got != tt.want {
			t.Errorf("NewPagination(%d, %d, %d) = %+v, want %+v", tt.page, tt.limit, tt.total, got, tt.want)
		}
	}
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{"conflict", apperrors.Conflict("slot taken"), http.StatusConflict, "slot taken"},
		{"validation", apperrors.Validation("invalid booking", nil), http.StatusUnprocessableEntity, "invalid booking"},
		{"internal hides cause", apperrors.Internal("db exploded", errors.New("dial tcp")), http.StatusInternalServerError, "Internal server error"},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			if err := WriteError(rec, tt.err); err != nil {
				t.Fatalf("WriteError() error = %v", err)
			}
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var body ErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Error != tt.wantError {
				t.Errorf("error = %q, want %q", body.Error, tt.wantError)
			}
		})
	}
}
