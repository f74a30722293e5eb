package service

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	bookingserrors "megastrength/internal/bookings/errors"
	"megastrength/internal/bookings/events"
	"megastrength/internal/bookings/metrics"
	"megastrength/internal/bookings/repository"
	"megastrength/internal/bookings/validator"
	"megastrength/pkg/config"
	apperrors "megastrength/pkg/errors"
	"megastrength/pkg/model"
	"megastrength/pkg/sanitizer"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	opCreate       = "create"
	opAvailability = "availability"
	opUpdateStatus = "update_status"
	opGet          = "get"
	opList         = "list"
	opUpdate       = "update"
	opDelete       = "delete"
	opExport       = "export"
)

var tracer = otel.Tracer("megastrength/internal/bookings/service")

type BookingService interface {
	CreateBooking(ctx context.Context, booking *model.Booking) (*model.Booking, error)
	GetAvailability(ctx context.Context, date string) (*model.Availability, error)
	UpdateStatus(ctx context.Context, id string, update *model.StatusUpdate) (*model.Booking, error)
	GetBooking(ctx context.Context, id string) (*model.Booking, error)
	ListBookings(ctx context.Context, filter model.BookingFilter, page, limit int) ([]*model.Booking, int64, error)
	UpdateBooking(ctx context.Context, id string, updates *model.BookingUpdate) (*model.Booking, error)
	DeleteBooking(ctx context.Context, id string) error
	ExportBookings(ctx context.Context, filter model.BookingFilter) ([]*model.Booking, error)
}

type bookingService struct {
	repo      repository.BookingRepository
	locker    repository.SlotLocker
	validator *validator.BookingValidator
	publisher events.Publisher
	metrics   *metrics.Metrics
	cfg       *config.Config
}

func NewBookingService(
	repo repository.BookingRepository,
	locker repository.SlotLocker,
	validator *validator.BookingValidator,
	publisher events.Publisher,
	metrics *metrics.Metrics,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:      repo,
		locker:    locker,
		validator: validator,
		publisher: publisher,
		metrics:   metrics,
		cfg:       cfg,
	}
}

func (s *bookingService) CreateBooking(ctx context.Context, booking *model.Booking) (_ *model.Booking, err error) {
	ctx, span := tracer.Start(ctx, "BookingService.CreateBooking")
	defer s.finish(span, opCreate, time.Now(), &err)

	s.applyDefaults(booking)
	s.sanitize(booking)
	if err = s.validate(booking); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("booking.slot", model.SlotKey(booking.PreferredDate, booking.PreferredTime)))

	lock, err := s.acquireSlotLock(ctx, booking)
	if err != nil {
		return nil, err
	}
	defer s.releaseSlotLock(ctx, lock)

	err = s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		if err := s.verifySlotFree(txCtx, booking, ""); err != nil {
			return err
		}
		return s.repo.Insert(txCtx, booking)
	})
	if err != nil {
		err = s.mapRepoError(err, "", "Failed to create booking")
		s.cfg.Log.Warn("Failed to create booking",
			"preferred_date", booking.PreferredDate.String(),
			"preferred_time", booking.PreferredTime,
			"error", err,
		)
		return nil, err
	}

	s.cfg.Log.Info("Booking created successfully",
		"id", booking.ID,
		"service", booking.Service,
		"preferred_date", booking.PreferredDate.String(),
		"preferred_time", booking.PreferredTime,
	)
	s.metrics.BookingCreated()
	s.publish(ctx, events.Created(booking))
	return booking, nil
}

func (s *bookingService) GetAvailability(ctx context.Context, date string) (_ *model.Availability, err error) {
	ctx, span := tracer.Start(ctx, "BookingService.GetAvailability")
	defer s.finish(span, opAvailability, time.Now(), &err)

	day, err := model.ParseDate(date)
	if err != nil {
		return nil, apperrors.Validation("Invalid date", map[string]any{
			"errors": validator.ValidationErrors{{Field: "date", Message: err.Error()}},
		})
	}

	start, end := day.DayRange()
	booked, err := s.repo.FindMany(ctx, repository.Query{
		DateFrom: &start,
		DateTo:   &end,
		Statuses: model.ActiveStatuses,
	}, repository.FindOptions{Fields: []string{"preferred_time"}})
	if err != nil {
		s.cfg.Log.Error("Failed to fetch booked slots", "date", date, "error", err)
		return nil, apperrors.Internal("Failed to fetch availability", err)
	}

	taken := make(map[string]bool, len(booked))
	for _, b := range booked {
		taken[b.PreferredTime] = true
	}

	availability := &model.Availability{
		Date:           date,
		AvailableSlots: []string{},
		BookedSlots:    []string{},
	}
	for _, slot := range s.validator.Slots() {
		if taken[slot] {
			availability.BookedSlots = append(availability.BookedSlots, slot)
		} else {
			availability.AvailableSlots = append(availability.AvailableSlots, slot)
		}
	}

	s.metrics.AvailabilityQueried()
	s.cfg.Log.Debug("Availability computed",
		"date", day.String(),
		"available", len(availability.AvailableSlots),
		"booked", len(availability.BookedSlots),
	)
	return availability, nil
}

func (s *bookingService) UpdateStatus(ctx context.Context, id string, update *model.StatusUpdate) (_ *model.Booking, err error) {
	ctx, span := tracer.Start(ctx, "BookingService.UpdateStatus", trace.WithAttributes(attribute.String("booking.id", id)))
	defer s.finish(span, opUpdateStatus, time.Now(), &err)

	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}
	if err = s.validator.ValidateStatusUpdate(update); err != nil {
		return nil, s.validationError("Invalid status update", err)
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapRepoError(err, id, "Failed to retrieve booking")
	}

	previous := existing.Status
	existing.Status = update.Status
	if update.Notes != nil {
		existing.Notes = sanitizer.NormalizeFreeText(*update.Notes)
	}

	// A terminal booking moving back to an active status has to win its slot again.
	reclaim := !model.IsActiveStatus(previous) && existing.IsActive()

	var lock *model.BookingLock
	if reclaim {
		if lock, err = s.acquireSlotLock(ctx, existing); err != nil {
			return nil, err
		}
		defer s.releaseSlotLock(ctx, lock)
	}

	var updated *model.Booking
	err = s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		if reclaim {
			if err := s.verifySlotFree(txCtx, existing, id); err != nil {
				return err
			}
		}
		var err error
		updated, err = s.repo.UpdateByID(txCtx, id, existing)
		return err
	})
	if err != nil {
		err = s.mapRepoError(err, id, "Failed to update booking status")
		s.cfg.Log.Warn("Failed to update booking status", "id", id, "status", update.Status, "error", err)
		return nil, err
	}

	if previous != updated.Status {
		s.metrics.StatusTransition(previous, updated.Status)
	}
	s.cfg.Log.Info("Booking status updated", "id", id, "from", previous, "to", updated.Status)
	s.publish(ctx, events.StatusChanged(updated, previous))
	return updated, nil
}

func (s *bookingService) GetBooking(ctx context.Context, id string) (_ *model.Booking, err error) {
	ctx, span := tracer.Start(ctx, "BookingService.GetBooking", trace.WithAttributes(attribute.String("booking.id", id)))
	defer s.finish(span, opGet, time.Now(), &err)

	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapRepoError(err, id, "Failed to retrieve booking")
	}
	return booking, nil
}

func (s *bookingService) ListBookings(ctx context.Context, filter model.BookingFilter, page, limit int) (_ []*model.Booking, _ int64, err error) {
	ctx, span := tracer.Start(ctx, "BookingService.ListBookings")
	defer s.finish(span, opList, time.Now(), &err)

	if err = s.checkFilter(filter); err != nil {
		return nil, 0, err
	}
	page = config.NormalizePage(page)
	limit = config.NormalizePaginationLimit(limit)
	q := repository.FilterQuery(filter)

	offset, inRange := config.PageOffset(page, limit)

	var count int64
	bookings := []*model.Booking{}
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx, q)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count bookings", "error", errCount)
			errCount = apperrors.Internal("Failed to count bookings", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		if !inRange {
			return
		}
		bookings, errFind = s.repo.FindMany(ctx, q, repository.FindOptions{
			SortBy:   repository.SortByCreatedAt,
			SortDesc: true,
			Limit:    limit,
			Offset:   offset,
		})
		if errFind != nil {
			s.cfg.Log.Error("Failed to list bookings", "page", page, "limit", limit, "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve bookings", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return bookings, count, nil
}

func (s *bookingService) UpdateBooking(ctx context.Context, id string, updates *model.BookingUpdate) (_ *model.Booking, err error) {
	ctx, span := tracer.Start(ctx, "BookingService.UpdateBooking", trace.WithAttributes(attribute.String("booking.id", id)))
	defer s.finish(span, opUpdate, time.Now(), &err)

	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}
	if updates == nil {
		return nil, apperrors.InvalidInput("Update body cannot be empty")
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapRepoError(err, id, "Failed to check booking existence")
	}

	merged := s.mergeBookingUpdates(existing, updates)
	s.sanitize(merged)
	if err = s.validate(merged); err != nil {
		return nil, err
	}

	moved := merged.IsActive() && (!existing.IsActive() ||
		!merged.PreferredDate.Equal(existing.PreferredDate.Time) ||
		merged.PreferredTime != existing.PreferredTime)

	var lock *model.BookingLock
	if moved {
		if lock, err = s.acquireSlotLock(ctx, merged); err != nil {
			return nil, err
		}
		defer s.releaseSlotLock(ctx, lock)
	}

	var updated *model.Booking
	err = s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		if moved {
			if err := s.verifySlotFree(txCtx, merged, id); err != nil {
				return err
			}
		}
		var err error
		updated, err = s.repo.UpdateByID(txCtx, id, merged)
		return err
	})
	if err != nil {
		err = s.mapRepoError(err, id, "Failed to update booking")
		s.cfg.Log.Warn("Failed to update booking", "id", id, "error", err)
		return nil, err
	}

	if existing.Status != updated.Status {
		s.metrics.StatusTransition(existing.Status, updated.Status)
	}
	s.cfg.Log.Info("Booking updated successfully", "id", id)
	s.publish(ctx, events.Updated(updated))
	return updated, nil
}

func (s *bookingService) DeleteBooking(ctx context.Context, id string) (err error) {
	ctx, span := tracer.Start(ctx, "BookingService.DeleteBooking", trace.WithAttributes(attribute.String("booking.id", id)))
	defer s.finish(span, opDelete, time.Now(), &err)

	if id == "" {
		return apperrors.InvalidInput("Booking ID cannot be empty")
	}

	if err = s.repo.DeleteByID(ctx, id); err != nil {
		return s.mapRepoError(err, id, "Failed to delete booking")
	}

	s.cfg.Log.Info("Booking deleted successfully", "id", id)
	s.publish(ctx, events.Deleted(id))
	return nil
}

func (s *bookingService) ExportBookings(ctx context.Context, filter model.BookingFilter) (_ []*model.Booking, err error) {
	ctx, span := tracer.Start(ctx, "BookingService.ExportBookings")
	defer s.finish(span, opExport, time.Now(), &err)

	if err = s.checkFilter(filter); err != nil {
		return nil, err
	}

	bookings, err := s.repo.FindMany(ctx, repository.FilterQuery(filter), repository.FindOptions{
		SortBy: repository.SortByPreferredDate,
		Limit:  s.cfg.ExportMaxRows,
	})
	if err != nil {
		s.cfg.Log.Error("Failed to export bookings", "error", err)
		return nil, apperrors.Internal("Failed to export bookings", err)
	}

	s.cfg.Log.Info("Bookings exported", "count", len(bookings))
	return bookings, nil
}

// --- Helpers ---

func (s *bookingService) finish(span trace.Span, operation string, start time.Time, errp *error) {
	err := *errp
	s.metrics.ObserveOperation(operation, start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, metrics.Result(err))
	}
	span.End()
}

func (s *bookingService) applyDefaults(b *model.Booking) {
	if b.Status == "" {
		b.Status = model.StatusPending
	}
	if b.Urgency == "" {
		b.Urgency = model.UrgencyNormal
	}
	if b.Location == "" {
		b.Location = model.LocationNairobiCBD
	}
}

func (s *bookingService) sanitize(b *model.Booking) {
	b.CustomerName = sanitizer.NormalizeName(b.CustomerName)
	b.CustomerEmail = sanitizer.NormalizeEmail(b.CustomerEmail)
	b.CustomerPhone = sanitizer.NormalizePhone(b.CustomerPhone, s.cfg.PhoneRegion)
	b.Service = sanitizer.TrimAndNormalize(b.Service)
	b.PreferredDate = b.PreferredDate.Normalized()
	b.PreferredTime = strings.TrimSpace(b.PreferredTime)
	b.Status = strings.ToLower(strings.TrimSpace(b.Status))
	b.Urgency = strings.ToLower(strings.TrimSpace(b.Urgency))
	b.Message = sanitizer.NormalizeFreeText(b.Message)
	b.Notes = sanitizer.NormalizeFreeText(b.Notes)
	b.Location = sanitizer.TrimAndNormalize(b.Location)
	b.PaymentMethod = strings.ToLower(strings.TrimSpace(b.PaymentMethod))

	if v := b.VehicleInfo; v != nil {
		v.Make = sanitizer.NormalizeName(v.Make)
		v.Model = sanitizer.NormalizeName(v.Model)
		v.Registration = sanitizer.NormalizeRegistration(v.Registration)
	}
}

func (s *bookingService) mergeBookingUpdates(existing *model.Booking, updates *model.BookingUpdate) *model.Booking {
	merged := *existing

	if updates.CustomerName != nil {
		merged.CustomerName = *updates.CustomerName
	}
	if updates.CustomerEmail != nil {
		merged.CustomerEmail = *updates.CustomerEmail
	}
	if updates.CustomerPhone != nil {
		merged.CustomerPhone = *updates.CustomerPhone
	}
	if updates.Service != nil {
		merged.Service = *updates.Service
	}
	if updates.VehicleInfo != nil {
		vehicle := *updates.VehicleInfo
		merged.VehicleInfo = &vehicle
	} else if existing.VehicleInfo != nil {
		vehicle := *existing.VehicleInfo
		merged.VehicleInfo = &vehicle
	}
	if updates.PreferredDate != nil {
		merged.PreferredDate = *updates.PreferredDate
	}
	if updates.PreferredTime != nil {
		merged.PreferredTime = *updates.PreferredTime
	}
	if updates.Urgency != nil {
		merged.Urgency = *updates.Urgency
	}
	if updates.Message != nil {
		merged.Message = *updates.Message
	}
	if updates.Status != nil {
		merged.Status = *updates.Status
	}
	if updates.EstimatedCost != nil {
		merged.EstimatedCost = updates.EstimatedCost
	}
	if updates.ActualCost != nil {
		merged.ActualCost = updates.ActualCost
	}
	if updates.Notes != nil {
		merged.Notes = *updates.Notes
	}
	if updates.Location != nil {
		merged.Location = *updates.Location
	}
	if updates.IsPaid != nil {
		merged.IsPaid = *updates.IsPaid
	}
	if updates.PaymentMethod != nil {
		merged.PaymentMethod = *updates.PaymentMethod
	}

	return &merged
}

func (s *bookingService) validate(booking *model.Booking) error {
	if err := s.validator.Validate(booking); err != nil {
		return s.validationError("Booking validation failed", err)
	}
	return nil
}

// validationError keeps the per-field list under details.errors.
func (s *bookingService) validationError(message string, err error) error {
	s.cfg.Log.Warn(message, "error", err)

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		return apperrors.Validation(message, map[string]any{"errors": fieldErrs})
	}
	return apperrors.Validation(message, map[string]any{"error": err.Error()})
}

func (s *bookingService) checkFilter(filter model.BookingFilter) error {
	if filter.Status != "" && !model.IsKnownStatus(filter.Status) {
		return apperrors.InvalidInput("Invalid status filter: " + filter.Status)
	}
	if filter.Service != "" && !slices.Contains(model.Services, filter.Service) {
		return apperrors.InvalidInput("Invalid service filter: " + filter.Service)
	}
	if filter.DateFrom != nil && filter.DateTo != nil && filter.DateFrom.After(filter.DateTo.Time) {
		return apperrors.InvalidInput("date_from must not be after date_to")
	}
	return nil
}

// verifySlotFree must run inside the transaction that writes booking.
func (s *bookingService) verifySlotFree(ctx context.Context, booking *model.Booking, excludeID string) error {
	if !booking.IsActive() {
		return nil
	}

	existing, err := s.repo.FindOne(ctx, repository.ActiveSlotQuery(booking.PreferredDate, booking.PreferredTime, excludeID))
	switch {
	case err == nil:
		s.cfg.Log.Info("Slot already booked",
			"preferred_date", booking.PreferredDate.String(),
			"preferred_time", booking.PreferredTime,
			"existing_id", existing.ID,
		)
		return slotConflict(booking)
	case errors.Is(err, bookingserrors.ErrNotFound):
		return nil
	default:
		return apperrors.Internal("Failed to check existing bookings", err)
	}
}

func (s *bookingService) mapRepoError(err error, id, message string) error {
	switch {
	case apperrors.IsAppError(err):
		return err
	case errors.Is(err, bookingserrors.ErrSlotTaken), errors.Is(err, bookingserrors.ErrSlotLocked):
		return apperrors.Conflict(bookingserrors.SlotConflictMessage)
	case errors.Is(err, bookingserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Booking", id)
	case errors.Is(err, bookingserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid booking ID format")
	default:
		s.cfg.Log.Error(message, "id", id, "error", err)
		return apperrors.Internal(message, err)
	}
}

func slotConflict(b *model.Booking) *apperrors.AppError {
	return apperrors.Conflict(bookingserrors.SlotConflictMessage).
		With("preferred_date", b.PreferredDate.String()).
		With("preferred_time", b.PreferredTime)
}

// acquireSlotLock takes the advisory lock for an active booking's slot. Inactive bookings need none.
func (s *bookingService) acquireSlotLock(ctx context.Context, booking *model.Booking) (*model.BookingLock, error) {
	if !booking.IsActive() {
		return nil, nil
	}

	slotKey := model.SlotKey(booking.PreferredDate, booking.PreferredTime)
	lock, err := s.locker.Acquire(ctx, slotKey, s.cfg.SlotLockTTL)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrSlotLocked) {
			s.cfg.Log.Info("Slot is locked by another request", "slot", slotKey)
			return nil, slotConflict(booking)
		}
		s.cfg.Log.Error("Failed to acquire booking lock", "slot", slotKey, "error", err)
		return nil, apperrors.Internal("Failed to acquire booking lock", err)
	}
	return lock, nil
}

func (s *bookingService) releaseSlotLock(ctx context.Context, lock *model.BookingLock) {
	if lock == nil {
		return
	}
	if err := s.locker.Release(context.WithoutCancel(ctx), lock); err != nil {
		s.cfg.Log.Warn("Failed to release booking lock", "lock_id", lock.ID, "error", err)
	}
}

func (s *bookingService) publish(ctx context.Context, event events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.cfg.Log.Error("Failed to publish booking event",
			"type", event.Type,
			"booking_id", event.BookingID,
			"error", err,
		)
	}
}
