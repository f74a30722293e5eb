package service

import (
	"context"
	"errors"
	"slices"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	bookingserrors "megastrength/internal/bookings/errors"
	"megastrength/internal/bookings/events"
	"megastrength/internal/bookings/repository"
	"megastrength/pkg/model"
)

// ────────────────────────────────────────────────
// In-memory repository enforcing the slot_key unique index
// ────────────────────────────────────────────────

type memBookingRepository struct {
	mu     sync.Mutex
	nextID int
	items  map[string]*model.Booking
	slots  map[string]string // slot_key -> booking id

	calls   atomic.Int64
	findErr error
	// blindLookup hides existing bookings from FindOne, leaving only the slot_key index.
	blindLookup bool
}

func newMemRepo() *memBookingRepository {
	return &memBookingRepository{
		items: make(map[string]*model.Booking),
		slots: make(map[string]string),
	}
}

func clone(b *model.Booking) *model.Booking {
	c := *b
	if b.VehicleInfo != nil {
		v := *b.VehicleInfo
		c.VehicleInfo = &v
	}
	return &c
}

func (r *memBookingRepository) Insert(ctx context.Context, booking *model.Booking) error {
	r.calls.Add(1)
	r.mu.Lock()
	defer r.mu.Unlock()

	booking.RefreshSlotKey()
	if booking.SlotKey != "" {
		if _, taken := r.slots[booking.SlotKey]; taken {
			return bookingserrors.ErrSlotTaken
		}
	}

	r.nextID++
	booking.ID = strconv.Itoa(r.nextID)
	booking.CreatedAt = time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(r.nextID) * time.Second)
	booking.UpdatedAt = booking.CreatedAt

	r.items[booking.ID] = clone(booking)
	if booking.SlotKey != "" {
		r.slots[booking.SlotKey] = booking.ID
	}
	return nil
}

func (r *memBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	r.calls.Add(1)
	if _, err := strconv.Atoi(id); err != nil {
		return nil, bookingserrors.ErrInvalidID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.items[id]
	if !ok {
		return nil, bookingserrors.ErrNotFound
	}
	return clone(b), nil
}

func (r *memBookingRepository) FindOne(ctx context.Context, q repository.Query) (*model.Booking, error) {
	if r.blindLookup {
		r.calls.Add(1)
		return nil, bookingserrors.ErrNotFound
	}
	found, err := r.FindMany(ctx, q, repository.FindOptions{Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, bookingserrors.ErrNotFound
	}
	return found[0], nil
}

func (r *memBookingRepository) FindMany(ctx context.Context, q repository.Query, opts repository.FindOptions) ([]*model.Booking, error) {
	r.calls.Add(1)
	if r.findErr != nil {
		return nil, r.findErr
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var result []*model.Booking
	for _, b := range r.items {
		if matches(q, b) {
			result = append(result, clone(b))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		less := result[i].CreatedAt.Before(result[j].CreatedAt)
		if opts.SortBy == repository.SortByPreferredDate {
			less = result[i].PreferredDate.Before(result[j].PreferredDate.Time)
		}
		if opts.SortDesc {
			return !less
		}
		return less
	})

	if opts.Offset > 0 {
		if int(opts.Offset) >= len(result) {
			return []*model.Booking{}, nil
		}
		result = result[opts.Offset:]
	}
	if opts.Limit > 0 && len(result) > opts.Limit {
		result = result[:opts.Limit]
	}
	return result, nil
}

func (r *memBookingRepository) Count(ctx context.Context, q repository.Query) (int64, error) {
	found, err := r.FindMany(ctx, q, repository.FindOptions{})
	return int64(len(found)), err
}

func (r *memBookingRepository) UpdateByID(ctx context.Context, id string, booking *model.Booking) (*model.Booking, error) {
	r.calls.Add(1)
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[id]
	if !ok {
		return nil, bookingserrors.ErrNotFound
	}

	booking.RefreshSlotKey()
	if booking.SlotKey != "" {
		if holder, taken := r.slots[booking.SlotKey]; taken && holder != id {
			return nil, bookingserrors.ErrSlotTaken
		}
	}

	if current.SlotKey != "" {
		delete(r.slots, current.SlotKey)
	}
	stored := clone(booking)
	stored.ID = id
	stored.CreatedAt = current.CreatedAt
	stored.UpdatedAt = current.UpdatedAt.Add(time.Second)
	r.items[id] = stored
	if stored.SlotKey != "" {
		r.slots[stored.SlotKey] = id
	}
	return clone(stored), nil
}

func (r *memBookingRepository) DeleteByID(ctx context.Context, id string) error {
	r.calls.Add(1)
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.items[id]
	if !ok {
		return bookingserrors.ErrNotFound
	}
	if b.SlotKey != "" {
		delete(r.slots, b.SlotKey)
	}
	delete(r.items, id)
	return nil
}

func (r *memBookingRepository) ExecuteTransaction(ctx context.Context, fn repository.TxFunc) error {
	return fn(ctx)
}

func (r *memBookingRepository) Ping(ctx context.Context) error {
	return nil
}

func (r *memBookingRepository) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

func matches(q repository.Query, b *model.Booking) bool {
	if q.DateFrom != nil && b.PreferredDate.Before(*q.DateFrom) {
		return false
	}
	if q.DateTo != nil && b.PreferredDate.After(*q.DateTo) {
		return false
	}
	if q.PreferredTime != "" && b.PreferredTime != q.PreferredTime {
		return false
	}
	if q.Service != "" && b.Service != q.Service {
		return false
	}
	if len(q.Statuses) > 0 && !slices.Contains(q.Statuses, b.Status) {
		return false
	}
	if q.ExcludeID != "" && b.ID == q.ExcludeID {
		return false
	}
	return true
}

// ────────────────────────────────────────────────
// Slot locker and publisher doubles
// ────────────────────────────────────────────────

type heldSlotLocker struct{}

func (heldSlotLocker) Acquire(ctx context.Context, slotKey string, ttl time.Duration) (*model.BookingLock, error) {
	return nil, bookingserrors.ErrSlotLocked
}

func (heldSlotLocker) Release(ctx context.Context, lock *model.BookingLock) error {
	return nil
}

// failingSlotLocker stands in for a lock store that cannot be reached.
type failingSlotLocker struct{ err error }

func (l failingSlotLocker) Acquire(ctx context.Context, slotKey string, ttl time.Duration) (*model.BookingLock, error) {
	return nil, l.err
}

func (failingSlotLocker) Release(ctx context.Context, lock *model.BookingLock) error {
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) Close() error {
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var types []string
	for _, e := range p.events {
		types = append(types, e.Type)
	}
	return types
}

var errStorageDown = errors.New("storage unavailable")
