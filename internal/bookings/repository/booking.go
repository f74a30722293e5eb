package repository

import (
	"context"
	"time"

	"megastrength/pkg/model"
)

const (
	CollectionName = "Bookings"
	TableName      = "bookings"

	SortByCreatedAt     = "created_at"
	SortByPreferredDate = "preferred_date"
)

// Query is the storage-agnostic booking filter. All set conditions are ANDed.
type Query struct {
	DateFrom      *time.Time // inclusive
	DateTo        *time.Time // inclusive
	PreferredTime string
	Service       string
	Statuses      []string
	ExcludeID     string
}

// ActiveSlotQuery matches non-terminal bookings on the calendar day of date at the given slot.
func ActiveSlotQuery(date model.Date, slot string, excludeID string) Query {
	start, end := date.DayRange()
	return Query{
		DateFrom:      &start,
		DateTo:        &end,
		PreferredTime: slot,
		Statuses:      model.ActiveStatuses,
		ExcludeID:     excludeID,
	}
}

// FilterQuery converts list/export filters into a Query.
func FilterQuery(filter model.BookingFilter) Query {
	q := Query{Service: filter.Service}
	if filter.Status != "" {
		q.Statuses = []string{filter.Status}
	}
	if filter.DateFrom != nil {
		start, _ := filter.DateFrom.DayRange()
		q.DateFrom = &start
	}
	if filter.DateTo != nil {
		_, end := filter.DateTo.DayRange()
		q.DateTo = &end
	}
	return q
}

type FindOptions struct {
	// Fields restricts the returned columns; the id is always included. Empty means all.
	Fields   []string
	SortBy   string
	SortDesc bool
	Limit    int
	Offset   int64
}

// TxFunc runs inside ExecuteTransaction. Repository calls made with its ctx join the transaction.
type TxFunc func(ctx context.Context) error

type BookingRepository interface {
	// Insert assigns ID, timestamps and the slot claim. ErrSlotTaken when the slot is claimed.
	Insert(ctx context.Context, booking *model.Booking) error
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	FindOne(ctx context.Context, q Query) (*model.Booking, error)
	FindMany(ctx context.Context, q Query, opts FindOptions) ([]*model.Booking, error)
	Count(ctx context.Context, q Query) (int64, error)
	// UpdateByID replaces the mutable fields and returns the stored record.
	UpdateByID(ctx context.Context, id string, booking *model.Booking) (*model.Booking, error)
	DeleteByID(ctx context.Context, id string) error
	ExecuteTransaction(ctx context.Context, fn TxFunc) error
	Ping(ctx context.Context) error
}

// projectable lists the fields FindOptions.Fields may name.
var projectable = map[string]bool{
	"customer_name":  true,
	"customer_email": true,
	"customer_phone": true,
	"service":        true,
	"vehicle_info":   true,
	"preferred_date": true,
	"preferred_time": true,
	"urgency":        true,
	"message":        true,
	"status":         true,
	"estimated_cost": true,
	"actual_cost":    true,
	"notes":          true,
	"location":       true,
	"is_paid":        true,
	"payment_method": true,
	"created_at":     true,
	"updated_at":     true,
}

func sortField(opts FindOptions) string {
	if opts.SortBy == SortByPreferredDate {
		return SortByPreferredDate
	}
	return SortByCreatedAt
}
