package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	bookingserrors "megastrength/internal/bookings/errors"
	"megastrength/pkg/model"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BookingRecord is the relational row for a booking.
type BookingRecord struct {
	ID            uint64         `gorm:"primaryKey;autoIncrement"`
	CustomerName  string         `gorm:"size:100;not null"`
	CustomerEmail string         `gorm:"size:254;not null"`
	CustomerPhone string         `gorm:"size:20;not null"`
	Service       string         `gorm:"size:64;not null;index"`
	VehicleInfo   datatypes.JSON `gorm:"type:json"`
	PreferredDate time.Time      `gorm:"not null;index:idx_bookings_date_time,priority:1"`
	PreferredTime string         `gorm:"size:5;not null;index:idx_bookings_date_time,priority:2"`
	Urgency       string         `gorm:"size:16;not null"`
	Message       string         `gorm:"size:500"`
	Status        string         `gorm:"size:16;not null;index"`
	EstimatedCost *float64
	ActualCost    *float64
	Notes         string `gorm:"type:text"`
	Location      string `gorm:"size:32;not null"`
	IsPaid        bool   `gorm:"not null"`
	PaymentMethod string `gorm:"size:16"`
	// SlotKey is NULL for terminal bookings so the unique index ignores them.
	SlotKey   *string   `gorm:"size:16;uniqueIndex:uniq_bookings_slot_key"`
	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time
}

func (BookingRecord) TableName() string {
	return TableName
}

func toRecord(b *model.Booking) (*BookingRecord, error) {
	rec := &BookingRecord{
		CustomerName:  b.CustomerName,
		CustomerEmail: b.CustomerEmail,
		CustomerPhone: b.CustomerPhone,
		Service:       b.Service,
		PreferredDate: b.PreferredDate.Time,
		PreferredTime: b.PreferredTime,
		Urgency:       b.Urgency,
		Message:       b.Message,
		Status:        b.Status,
		EstimatedCost: b.EstimatedCost,
		ActualCost:    b.ActualCost,
		Notes:         b.Notes,
		Location:      b.Location,
		IsPaid:        b.IsPaid,
		PaymentMethod: b.PaymentMethod,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
	if b.VehicleInfo != nil {
		raw, err := json.Marshal(b.VehicleInfo)
		if err != nil {
			return nil, fmt.Errorf("failed to encode vehicle info: %w", err)
		}
		rec.VehicleInfo = datatypes.JSON(raw)
	}
	if b.SlotKey != "" {
		key := b.SlotKey
		rec.SlotKey = &key
	}
	return rec, nil
}

func (rec *BookingRecord) toModel() *model.Booking {
	b := &model.Booking{
		ID:            strconv.FormatUint(rec.ID, 10),
		CustomerName:  rec.CustomerName,
		CustomerEmail: rec.CustomerEmail,
		CustomerPhone: rec.CustomerPhone,
		Service:       rec.Service,
		PreferredDate: model.NewDate(rec.PreferredDate.UTC()),
		PreferredTime: rec.PreferredTime,
		Urgency:       rec.Urgency,
		Message:       rec.Message,
		Status:        rec.Status,
		EstimatedCost: rec.EstimatedCost,
		ActualCost:    rec.ActualCost,
		Notes:         rec.Notes,
		Location:      rec.Location,
		IsPaid:        rec.IsPaid,
		PaymentMethod: rec.PaymentMethod,
		CreatedAt:     rec.CreatedAt.UTC(),
		UpdatedAt:     rec.UpdatedAt.UTC(),
	}
	if len(rec.VehicleInfo) > 0 && string(rec.VehicleInfo) != "null" {
		var info model.VehicleInfo
		if err := json.Unmarshal(rec.VehicleInfo, &info); err == nil {
			b.VehicleInfo = &info
		}
	}
	if rec.SlotKey != nil {
		b.SlotKey = *rec.SlotKey
	}
	return b
}

type txKey struct{}

type gormBookingRepository struct {
	db *gorm.DB
}

func NewGormBookingRepository(db *gorm.DB) BookingRepository {
	return &gormBookingRepository{db: db}
}

// conn returns the transaction bound to ctx, or a fresh session on the pool.
func (r *gormBookingRepository) conn(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return r.db.WithContext(ctx)
}

func (r *gormBookingRepository) inTx(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(*gorm.DB)
	return ok
}

func (r *gormBookingRepository) Insert(ctx context.Context, booking *model.Booking) error {
	booking.RefreshSlotKey()
	rec, err := toRecord(booking)
	if err != nil {
		return err
	}
	rec.CreatedAt = time.Time{}
	rec.UpdatedAt = time.Time{}

	if err := r.conn(ctx).Create(rec).Error; err != nil {
		if isDuplicateKey(err) || (booking.SlotKey != "" && isTxConflict(err)) {
			return fmt.Errorf("%w: %s", bookingserrors.ErrSlotTaken, booking.SlotKey)
		}
		return fmt.Errorf("failed to insert booking: %w", err)
	}

	booking.ID = strconv.FormatUint(rec.ID, 10)
	booking.CreatedAt = rec.CreatedAt.UTC()
	booking.UpdatedAt = rec.UpdatedAt.UTC()
	return nil
}

func (r *gormBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	pk, err := parseRecordID(id)
	if err != nil {
		return nil, err
	}

	var rec BookingRecord
	if err := r.conn(ctx).First(&rec, pk).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}
	return rec.toModel(), nil
}

func (r *gormBookingRepository) FindOne(ctx context.Context, q Query) (*model.Booking, error) {
	tx, err := r.applyQuery(r.conn(ctx), q)
	if err != nil {
		return nil, err
	}

	var rec BookingRecord
	if err := tx.Order("id ASC").Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}
	return rec.toModel(), nil
}

func (r *gormBookingRepository) FindMany(ctx context.Context, q Query, opts FindOptions) ([]*model.Booking, error) {
	tx, err := r.applyQuery(r.conn(ctx), q)
	if err != nil {
		return nil, err
	}

	if columns := sqlProjection(opts.Fields); columns != nil {
		tx = tx.Select(columns)
	}
	tx = tx.Order(clause.OrderByColumn{Column: clause.Column{Name: sortField(opts)}, Desc: opts.SortDesc}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: opts.SortDesc})
	if opts.Limit > 0 {
		tx = tx.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		tx = tx.Offset(int(opts.Offset))
	}

	var records []BookingRecord
	if err := tx.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to find bookings: %w", err)
	}

	bookings := make([]*model.Booking, 0, len(records))
	for i := range records {
		bookings = append(bookings, records[i].toModel())
	}
	return bookings, nil
}

func (r *gormBookingRepository) Count(ctx context.Context, q Query) (int64, error) {
	tx, err := r.applyQuery(r.conn(ctx), q)
	if err != nil {
		return 0, err
	}

	var count int64
	if err := tx.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return count, nil
}

func (r *gormBookingRepository) UpdateByID(ctx context.Context, id string, booking *model.Booking) (*model.Booking, error) {
	pk, err := parseRecordID(id)
	if err != nil {
		return nil, err
	}

	var existing BookingRecord
	if err := r.conn(ctx).Select("id", "created_at").First(&existing, pk).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}

	booking.RefreshSlotKey()
	rec, err := toRecord(booking)
	if err != nil {
		return nil, err
	}
	rec.ID = pk
	rec.CreatedAt = existing.CreatedAt
	rec.UpdatedAt = time.Time{}

	err = r.conn(ctx).Model(&BookingRecord{ID: pk}).
		Select("*").
		Omit("id", "created_at").
		Updates(rec).Error
	if err != nil {
		if isDuplicateKey(err) || (booking.SlotKey != "" && isTxConflict(err)) {
			return nil, fmt.Errorf("%w: %s", bookingserrors.ErrSlotTaken, booking.SlotKey)
		}
		return nil, fmt.Errorf("failed to update booking: %w", err)
	}

	return r.FindByID(ctx, id)
}

func (r *gormBookingRepository) DeleteByID(ctx context.Context, id string) error {
	pk, err := parseRecordID(id)
	if err != nil {
		return err
	}

	result := r.conn(ctx).Delete(&BookingRecord{}, pk)
	if result.Error != nil {
		return fmt.Errorf("failed to delete booking: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return bookingserrors.ErrNotFound
	}
	return nil
}

func (r *gormBookingRepository) ExecuteTransaction(ctx context.Context, fn TxFunc) error {
	if r.inTx(ctx) {
		return fn(ctx)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

func (r *gormBookingRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *gormBookingRepository) applyQuery(tx *gorm.DB, q Query) (*gorm.DB, error) {
	tx = tx.Model(&BookingRecord{})

	if q.DateFrom != nil {
		tx = tx.Where("preferred_date >= ?", q.DateFrom.UTC())
	}
	if q.DateTo != nil {
		tx = tx.Where("preferred_date <= ?", q.DateTo.UTC())
	}
	if q.PreferredTime != "" {
		tx = tx.Where("preferred_time = ?", q.PreferredTime)
	}
	if q.Service != "" {
		tx = tx.Where("service = ?", q.Service)
	}
	if len(q.Statuses) > 0 {
		tx = tx.Where("status IN ?", q.Statuses)
	}
	if q.ExcludeID != "" {
		pk, err := parseRecordID(q.ExcludeID)
		if err != nil {
			return nil, err
		}
		tx = tx.Where("id <> ?", pk)
	}

	return tx, nil
}

func sqlProjection(fields []string) []string {
	if len(fields) == 0 {
		return nil
	}
	columns := []string{"id"}
	for _, field := range fields {
		if projectable[field] {
			columns = append(columns, field)
		}
	}
	return columns
}

func parseRecordID(id string) (uint64, error) {
	pk, err := strconv.ParseUint(id, 10, 64)
	if err != nil || pk == 0 {
		return 0, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}
	return pk, nil
}

// isDuplicateKey also matches raw driver messages in case a dialect does not translate errors.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate entry") ||
		strings.Contains(msg, "duplicate key")
}

const (
	mysqlLockDeadlock     = 1213
	sqlStateSerialization = "40001"
	sqlStateDeadlock      = "40P01"
)

// isTxConflict matches deadlocks and serialization failures. A write that claims a
// slot_key only loses those to another writer of the same slot.
func isTxConflict(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlLockDeadlock || string(myErr.SQLState[:]) == sqlStateSerialization
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == sqlStateSerialization || pgErr.Code == sqlStateDeadlock
	}
	return false
}
