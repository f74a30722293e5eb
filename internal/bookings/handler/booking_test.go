package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"megastrength/internal/bookings/export"
	apperrors "megastrength/pkg/errors"
	httputil "megastrength/pkg/http"
	"megastrength/pkg/logger"
	"megastrength/pkg/model"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/xuri/excelize/v2"
)

// Mock service for testing
type mockBookingService struct {
	createFunc       func(ctx context.Context, b *model.Booking) (*model.Booking, error)
	availabilityFunc func(ctx context.Context, date string) (*model.Availability, error)
	updateStatusFunc func(ctx context.Context, id string, u *model.StatusUpdate) (*model.Booking, error)
	listFunc         func(ctx context.Context, f model.BookingFilter, page, limit int) ([]*model.Booking, int64, error)
	deleteFunc       func(ctx context.Context, id string) error
	exportFunc       func(ctx context.Context, f model.BookingFilter) ([]*model.Booking, error)
}

func (m *mockBookingService) CreateBooking(ctx context.Context, b *model.Booking) (*model.Booking, error) {
	return m.createFunc(ctx, b)
}

func (m *mockBookingService) GetAvailability(ctx context.Context, date string) (*model.Availability, error) {
	return m.availabilityFunc(ctx, date)
}

func (m *mockBookingService) UpdateStatus(ctx context.Context, id string, u *model.StatusUpdate) (*model.Booking, error) {
	return m.updateStatusFunc(ctx, id, u)
}

func (m *mockBookingService) GetBooking(ctx context.Context, id string) (*model.Booking, error) {
	return nil, apperrors.NotFoundWithID("Booking", id)
}

func (m *mockBookingService) ListBookings(ctx context.Context, f model.BookingFilter, page, limit int) ([]*model.Booking, int64, error) {
	return m.listFunc(ctx, f, page, limit)
}

func (m *mockBookingService) UpdateBooking(ctx context.Context, id string, u *model.BookingUpdate) (*model.Booking, error) {
	return &model.Booking{ID: id}, nil
}

func (m *mockBookingService) DeleteBooking(ctx context.Context, id string) error {
	return m.deleteFunc(ctx, id)
}

func (m *mockBookingService) ExportBookings(ctx context.Context, f model.BookingFilter) ([]*model.Booking, error) {
	return m.exportFunc(ctx, f)
}

func newTestRouter(svc *mockBookingService) *httprouter.Router {
	log := logger.New(logger.Config{
		Level:     "info",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})

	router := httprouter.New()
	NewBookingHandler(svc, log).RegisterRoutes(router)
	return router
}

func serve(router http.Handler, method, target string, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

// ────────────────────────────────────────────────
// Create
// ────────────────────────────────────────────────

func TestCreate_ReturnsCreatedBooking(t *testing.T) {
	svc := &mockBookingService{
		createFunc: func(ctx context.Context, b *model.Booking) (*model.Booking, error) {
			b.ID = "42"
			b.Status = model.StatusPending
			return b, nil
		},
	}

	rec := serve(newTestRouter(svc), http.MethodPost, "/api/v1/bookings",
		`{"customer_name":"Jane","preferred_date":"2030-06-10","preferred_time":"09:00"}`)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Data model.Booking `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Data.ID != "42" || resp.Data.PreferredTime != "09:00" {
		t.Errorf("unexpected booking: %+v", resp.Data)
	}
}

func TestCreate_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
	}{
		{"malformed body", `{"customer_name":`, nil, http.StatusBadRequest},
		{"slot conflict", `{}`, apperrors.Conflict("That time slot is already booked. Please choose another time."), http.StatusConflict},
		{"validation", `{}`, apperrors.Validation("Invalid booking", map[string]any{"errors": []any{}}), http.StatusUnprocessableEntity},
		{"storage failure", `{}`, apperrors.Internal("Failed to create booking", errors.New("timeout")), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockBookingService{
				createFunc: func(ctx context.Context, b *model.Booking) (*model.Booking, error) {
					return nil, tt.err
				},
			}
			rec := serve(newTestRouter(svc), http.MethodPost, "/api/v1/bookings", tt.body)
			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
		})
	}
}

// ────────────────────────────────────────────────
// Availability and status
// ────────────────────────────────────────────────

func TestAvailability(t *testing.T) {
	var received string
	svc := &mockBookingService{
		availabilityFunc: func(ctx context.Context, date string) (*model.Availability, error) {
			received = date
			return &model.Availability{
				Date:           date,
				AvailableSlots: []string{"10:00", "11:00", "14:00", "16:00"},
				BookedSlots:    []string{"09:00", "15:00"},
			}, nil
		},
	}

	rec := serve(newTestRouter(svc), http.MethodGet, "/api/v1/bookings/availability/2030-06-10", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if received != "2030-06-10" {
		t.Errorf("service received date %q", received)
	}

	var resp struct {
		Data model.Availability `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Data.BookedSlots) != 2 || len(resp.Data.AvailableSlots) != 4 {
		t.Errorf("unexpected availability: %+v", resp.Data)
	}
}

func TestUpdateStatus(t *testing.T) {
	svc := &mockBookingService{
		updateStatusFunc: func(ctx context.Context, id string, u *model.StatusUpdate) (*model.Booking, error) {
			if u.Status == "archived" {
				return nil, apperrors.InvalidInput("unknown status")
			}
			return &model.Booking{ID: id, Status: u.Status}, nil
		},
	}
	router := newTestRouter(svc)

	rec := serve(router, http.MethodPatch, "/api/v1/bookings/id/7/status", `{"status":"cancelled"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"cancelled"`) {
		t.Errorf("response missing new status: %s", rec.Body.String())
	}

	rec = serve(router, http.MethodPatch, "/api/v1/bookings/id/7/status", `{"status":"archived"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
}

// ────────────────────────────────────────────────
// List, get, delete
// ────────────────────────────────────────────────

func TestGetAll_QueryParameters(t *testing.T) {
	var gotPage, gotLimit int
	var gotFilter model.BookingFilter
	svc := &mockBookingService{
		listFunc: func(ctx context.Context, f model.BookingFilter, page, limit int) ([]*model.Booking, int64, error) {
			gotFilter, gotPage, gotLimit = f, page, limit
			return []*model.Booking{{ID: "1"}}, 45, nil
		},
	}
	router := newTestRouter(svc)

	tests := []struct {
		name           string
		query          string
		expectHTTPCode int
	}{
		{"defaults", "", http.StatusOK},
		{"page and limit", "?page=2&limit=20&status=pending", http.StatusOK},
		{"page zero", "?page=0", http.StatusBadRequest},
		{"limit too large", "?limit=500", http.StatusBadRequest},
		{"bad date", "?date_from=tomorrow", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(router, http.MethodGet, "/api/v1/bookings"+tt.query, "")
			if rec.Code != tt.expectHTTPCode {
				t.Errorf("expected status %d, got %d", tt.expectHTTPCode, rec.Code)
			}
		})
	}

	rec := serve(router, http.MethodGet, "/api/v1/bookings?page=2&limit=20&status=pending", "")
	var resp httputil.PaginatedResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if gotPage != 2 || gotLimit != 20 || gotFilter.Status != "pending" {
		t.Errorf("service received page=%d limit=%d filter=%+v", gotPage, gotLimit, gotFilter)
	}
	want := httputil.Pagination{CurrentPage: 2, TotalPages: 3, Total: 45, HasNext: true, HasPrev: true}
	if resp.Pagination != want {
		t.Errorf("pagination = %+v, want %+v", resp.Pagination, want)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	rec := serve(newTestRouter(&mockBookingService{}), http.MethodGet, "/api/v1/bookings/id/99", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
	var resp httputil.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Details["id"] != "99" {
		t.Errorf("expected id in details, got %v", resp.Details)
	}
}

func TestDelete(t *testing.T) {
	svc := &mockBookingService{
		deleteFunc: func(ctx context.Context, id string) error {
			if id != "1" {
				return apperrors.NotFoundWithID("Booking", id)
			}
			return nil
		},
	}
	router := newTestRouter(svc)

	if rec := serve(router, http.MethodDelete, "/api/v1/bookings/id/1", ""); rec.Code != http.StatusNoContent {
		t.Errorf("expected status 204, got %d", rec.Code)
	}
	if rec := serve(router, http.MethodDelete, "/api/v1/bookings/id/2", ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rec.Code)
	}
}

// ────────────────────────────────────────────────
// Export
// ────────────────────────────────────────────────

func TestExport(t *testing.T) {
	date, _ := model.ParseDate("2030-06-10")
	svc := &mockBookingService{
		exportFunc: func(ctx context.Context, f model.BookingFilter) ([]*model.Booking, error) {
			return []*model.Booking{{ID: "1", CustomerName: "Jane", PreferredDate: date, PreferredTime: "09:00"}}, nil
		},
	}

	rec := serve(newTestRouter(svc), http.MethodGet, "/api/v1/bookings/export", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != export.ContentType {
		t.Errorf("content type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, "attachment;") {
		t.Errorf("content disposition = %q", cd)
	}

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("response is not a workbook: %v", err)
	}
	defer f.Close()
	if name, _ := f.GetCellValue(export.SheetName, "B2"); name != "Jane" {
		t.Errorf("B2 = %q, want Jane", name)
	}
}

// ────────────────────────────────────────────────
// Health
// ────────────────────────────────────────────────

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "megastrength_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	var down bool
	store := pingerFunc(func(ctx context.Context) error {
		if down {
			return errors.New("connection refused")
		}
		return nil
	})

	router := httprouter.New()
	NewHealthHandler(store, reg, logger.Discard()).RegisterRoutes(router)

	if rec := serve(router, http.MethodGet, "/health", ""); rec.Code != http.StatusOK {
		t.Errorf("/health: expected 200, got %d", rec.Code)
	}
	if rec := serve(router, http.MethodGet, "/ready", ""); rec.Code != http.StatusOK {
		t.Errorf("/ready: expected 200, got %d", rec.Code)
	}

	down = true
	if rec := serve(router, http.MethodGet, "/ready", ""); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("/ready with storage down: expected 503, got %d", rec.Code)
	}

	rec := serve(router, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "megastrength_test_total 1") {
		t.Errorf("/metrics: unexpected response %d: %s", rec.Code, rec.Body.String())
	}
}
