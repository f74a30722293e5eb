package app_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"megastrength/internal/bookings/events"
	"megastrength/internal/bookings/handler"
	"megastrength/internal/bookings/metrics"
	"megastrength/internal/bookings/repository"
	"megastrength/internal/bookings/service"
	"megastrength/internal/bookings/validator"
	"megastrength/pkg/app"
	"megastrength/pkg/client"
	"megastrength/pkg/config"
	"megastrength/pkg/logger"
	"megastrength/pkg/model"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var dbSeq atomic.Int64

func newTestServer(t *testing.T) *client.BookingClient {
	t.Helper()

	log := logger.Discard()
	cfg := &config.Config{
		Port:              "0",
		RateLimitRequests: 1000,
		RateLimitWindow:   time.Minute,
		RequestTimeout:    5 * time.Second,
		IdempotencyTTL:    time.Minute,
		MaxRequestSize:    1 << 20,
		BookingTimeSlots:  []string{"09:00", "10:00", "11:00", "14:00"},
		PhoneRegion:       "KE",
		SlotLockTTL:       5 * time.Second,
		ExportMaxRows:     1000,
		Log:               log,
		Client:            &client.Client{},
	}

	dsn := fmt.Sprintf("file:app_%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), client.GormConfig(log))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&repository.BookingRecord{}))

	registry := prometheus.NewRegistry()
	repo := repository.NewGormBookingRepository(db)
	svc := service.NewBookingService(
		repo,
		repository.NewNoopSlotLocker(),
		validator.NewBookingValidator(log, cfg.BookingTimeSlots, cfg.PhoneRegion),
		events.NewNoopPublisher(),
		metrics.New(registry),
		cfg,
	)

	a := app.NewApplication(cfg)
	a.SetApp(handler.NewBookingHandler(svc, log), handler.NewHealthHandler(repo, registry, log))

	server := httptest.NewServer(a.Handler())
	t.Cleanup(server.Close)

	return client.NewBookingClient(server.URL)
}

func bookingBody(slot string) map[string]any {
	return map[string]any{
		"customer_name":  "Jane Wanjiku",
		"customer_email": "jane@example.com",
		"customer_phone": "0712 345 678",
		"service":        "Fuel Injection Services",
		"preferred_date": "2030-06-10",
		"preferred_time": slot,
		"vehicle_info": map[string]any{
			"make": "Toyota", "model": "Hilux", "year": 2018, "registration": "kca 123a",
		},
	}
}

func TestApplication_BookingLifecycle(t *testing.T) {
	c := newTestServer(t)

	resp, err := c.Create(bookingBody("09:00"))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode, resp.ToString())

	created, err := c.DecodeBooking(resp)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, model.StatusPending, created.Status)
	assert.Equal(t, "+254712345678", created.CustomerPhone)

	resp, err = c.Create(bookingBody("09:00"))
	require.NoError(t, err)
	require.Equal(t, http.StatusConflict, resp.StatusCode, resp.ToString())
	apiErr, err := resp.DecodeError()
	require.NoError(t, err)
	assert.Equal(t, "CONFLICT", apiErr.Code)
	assert.Equal(t, "09:00", apiErr.Details["preferred_time"])

	resp, err = c.Availability("2030-06-10")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode, resp.ToString())
	availability, err := c.DecodeAvailability(resp)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00"}, availability.BookedSlots)
	assert.Equal(t, []string{"10:00", "11:00", "14:00"}, availability.AvailableSlots)

	resp, err = c.UpdateStatus(created.ID, model.StatusCancelled)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode, resp.ToString())

	resp, err = c.Availability("2030-06-10")
	require.NoError(t, err)
	availability, err = c.DecodeAvailability(resp)
	require.NoError(t, err)
	assert.Empty(t, availability.BookedSlots)

	resp, err = c.Create(bookingBody("09:00"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode, resp.ToString())

	resp, err = c.UpdateStatus(created.ID, model.StatusPending)
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode, resp.ToString())
}

func TestApplication_IdempotentCreate(t *testing.T) {
	c := newTestServer(t)

	first, err := c.CreateIdempotent(bookingBody("10:00"), "retry-key-1")
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, first.StatusCode, first.ToString())

	second, err := c.CreateIdempotent(bookingBody("10:00"), "retry-key-1")
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, second.StatusCode, second.ToString())
	assert.Equal(t, "true", second.Header.Get("Idempotent-Replayed"))

	a, err := c.DecodeBooking(first)
	require.NoError(t, err)
	b, err := c.DecodeBooking(second)
	require.NoError(t, err)
	assert.Equal(t, a.ID, b.ID)

	resp, err := c.List(1, 20, nil)
	require.NoError(t, err)
	bookings, meta, err := c.DecodeBookings(resp)
	require.NoError(t, err)
	assert.Len(t, bookings, 1)
	assert.EqualValues(t, 1, meta.Total)
}

func TestApplication_ListPaginationAndExport(t *testing.T) {
	c := newTestServer(t)

	for _, slot := range []string{"09:00", "10:00", "11:00"} {
		resp, err := c.Create(bookingBody(slot))
		require.NoError(t, err)
		require.Equal(t, http.StatusCreated, resp.StatusCode, resp.ToString())
	}

	resp, err := c.List(1, 2, map[string]string{"status": model.StatusPending})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode, resp.ToString())
	bookings, meta, err := c.DecodeBookings(resp)
	require.NoError(t, err)
	assert.Len(t, bookings, 2)
	assert.EqualValues(t, 3, meta.Total)
	assert.Equal(t, 2, meta.TotalPages)
	assert.True(t, meta.HasNext)
	assert.False(t, meta.HasPrev)

	resp, err = c.List(0, 2, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = c.Export()
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode, resp.ToString())
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "attachment")
	assert.NotEmpty(t, resp.Body)
}

func TestApplication_HealthRoutesBypassAppMiddleware(t *testing.T) {
	c := newTestServer(t)
	health := client.NewHttpClient(c.BaseURL())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, health.WaitForReady(ctx, 50*time.Millisecond))

	resp, err := health.GET("/health")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("X-Request-ID"))

	resp, err = health.GET("/ready")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = health.GET("/metrics")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(resp.Body), "megastrength_bookings_created_total")

	resp, err = c.GetByID("does-not-exist")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestApplication_RejectsMalformedRequests(t *testing.T) {
	c := newTestServer(t)

	resp, err := c.CreateRaw([]byte(`{"customer_name":`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = c.Create(map[string]any{"customer_name": "J"})
	require.NoError(t, err)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, resp.ToString())
	apiErr, err := resp.DecodeError()
	require.NoError(t, err)
	assert.Equal(t, "VALIDATION_ERROR", apiErr.Code)
	assert.NotEmpty(t, apiErr.Details["errors"])

	resp, err = c.Availability("10-06-2030")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, resp.ToString())
}

func errorFields(t *testing.T, resp *client.Response) []string {
	t.Helper()
	apiErr, err := resp.DecodeError()
	require.NoError(t, err)
	require.Equal(t, "VALIDATION_ERROR", apiErr.Code)

	list, ok := apiErr.Details["errors"].([]any)
	require.True(t, ok, "details.errors = %v", apiErr.Details)
	var fields []string
	for _, entry := range list {
		fields = append(fields, entry.(map[string]any)["field"].(string))
	}
	return fields
}

func TestApplication_UnparseableDateListedWithOtherFields(t *testing.T) {
	c := newTestServer(t)

	body := bookingBody("12:00")
	body["customer_email"] = "not-an-email"
	body["preferred_date"] = "2024-13-45"

	resp, err := c.Create(body)
	require.NoError(t, err)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, resp.ToString())
	assert.ElementsMatch(t, []string{"customer_email", "preferred_date", "preferred_time"}, errorFields(t, resp))

	resp, err = c.Create(bookingBody("09:00"))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode, resp.ToString())
	created, err := c.DecodeBooking(resp)
	require.NoError(t, err)

	resp, err = c.Update(created.ID, map[string]any{"preferred_date": "next tuesday"})
	require.NoError(t, err)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, resp.ToString())
	assert.Equal(t, []string{"preferred_date"}, errorFields(t, resp))
}
