package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingserrors "megastrength/internal/bookings/errors"
	"megastrength/pkg/config"
	mongotx "megastrength/pkg/db/mongo"
	"megastrength/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoBookingRepository struct {
	cfg        *config.Config
	client     *mongo.Client
	collection *mongo.Collection
	tx         mongotx.Runner
}

func NewMongoBookingRepository(cfg *config.Config) BookingRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingRepository{
		cfg:        cfg,
		client:     cfg.Client.Mongo,
		collection: db.Collection(CollectionName),
		tx:         mongotx.NewRunner(cfg.Client.Mongo, cfg.MongoTransactions),
	}
}

// withTimeout wraps the context with a timeout if not already in a transaction.
// A SessionContext is returned unchanged: wrapping it would detach the session.
func (r *mongoBookingRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if hasDeadline && time.Until(deadline) < timeout {
		return context.WithDeadline(ctx, deadline)
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoBookingRepository) Insert(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.MongoWriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	booking.ID = ""
	booking.CreatedAt = now
	booking.UpdatedAt = now
	booking.RefreshSlotKey()

	result, err := r.collection.InsertOne(ctx, booking)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", bookingserrors.ErrSlotTaken, booking.SlotKey)
		}
		return fmt.Errorf("failed to insert booking: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		booking.ID = oid.Hex()
	}
	return nil
}

func (r *mongoBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.MongoReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	var booking model.Booking
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}

	return &booking, nil
}

func (r *mongoBookingRepository) FindOne(ctx context.Context, q Query) (*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.MongoReadTimeout)
	defer cancel()

	filter, err := buildMongoFilter(q)
	if err != nil {
		return nil, err
	}

	var booking model.Booking
	err = r.collection.FindOne(ctx, filter).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}

	return &booking, nil
}

func (r *mongoBookingRepository) FindMany(ctx context.Context, q Query, opts FindOptions) ([]*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.MongoReadTimeout)
	defer cancel()

	filter, err := buildMongoFilter(q)
	if err != nil {
		return nil, err
	}

	direction := 1
	if opts.SortDesc {
		direction = -1
	}
	findOpts := options.Find().
		SetSort(bson.D{{Key: sortField(opts), Value: direction}, {Key: "_id", Value: direction}})
	if opts.Limit > 0 {
		findOpts.SetLimit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		findOpts.SetSkip(opts.Offset)
	}
	if projection := mongoProjection(opts.Fields); projection != nil {
		findOpts.SetProjection(projection)
	}

	cursor, err := r.collection.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings: %w", err)
	}
	defer cursor.Close(ctx)

	bookings := []*model.Booking{}
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}

	return bookings, nil
}

func (r *mongoBookingRepository) Count(ctx context.Context, q Query) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.MongoReadTimeout)
	defer cancel()

	filter, err := buildMongoFilter(q)
	if err != nil {
		return 0, err
	}

	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return count, nil
}

func (r *mongoBookingRepository) UpdateByID(ctx context.Context, id string, booking *model.Booking) (*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.MongoWriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	booking.RefreshSlotKey()
	set := bson.M{
		"customer_name":  booking.CustomerName,
		"customer_email": booking.CustomerEmail,
		"customer_phone": booking.CustomerPhone,
		"service":        booking.Service,
		"vehicle_info":   booking.VehicleInfo,
		"preferred_date": booking.PreferredDate,
		"preferred_time": booking.PreferredTime,
		"urgency":        booking.Urgency,
		"message":        booking.Message,
		"status":         booking.Status,
		"estimated_cost": booking.EstimatedCost,
		"actual_cost":    booking.ActualCost,
		"notes":          booking.Notes,
		"location":       booking.Location,
		"is_paid":        booking.IsPaid,
		"payment_method": booking.PaymentMethod,
		"updated_at":     time.Now().UTC().Truncate(time.Millisecond),
	}
	update := bson.M{"$set": set}
	if booking.SlotKey != "" {
		set["slot_key"] = booking.SlotKey
	} else {
		update["$unset"] = bson.M{"slot_key": ""}
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated model.Booking
	err = r.collection.FindOneAndUpdate(ctx, bson.M{"_id": objectID}, update, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrNotFound
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%w: %s", bookingserrors.ErrSlotTaken, booking.SlotKey)
		}
		return nil, fmt.Errorf("failed to update booking: %w", err)
	}

	return &updated, nil
}

func (r *mongoBookingRepository) DeleteByID(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.MongoWriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}

	if result.DeletedCount == 0 {
		return bookingserrors.ErrNotFound
	}

	return nil
}

func (r *mongoBookingRepository) ExecuteTransaction(ctx context.Context, fn TxFunc) error {
	return r.tx.Run(ctx, func(sessCtx context.Context) error {
		return fn(sessCtx)
	})
}

func (r *mongoBookingRepository) Ping(ctx context.Context) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.MongoReadTimeout)
	defer cancel()
	return r.client.Ping(ctx, nil)
}

func buildMongoFilter(q Query) (bson.M, error) {
	filter := bson.M{}

	if q.DateFrom != nil || q.DateTo != nil {
		dateFilter := bson.M{}
		if q.DateFrom != nil {
			dateFilter["$gte"] = *q.DateFrom
		}
		if q.DateTo != nil {
			dateFilter["$lte"] = *q.DateTo
		}
		filter["preferred_date"] = dateFilter
	}
	if q.PreferredTime != "" {
		filter["preferred_time"] = q.PreferredTime
	}
	if q.Service != "" {
		filter["service"] = q.Service
	}
	if len(q.Statuses) > 0 {
		filter["status"] = bson.M{"$in": q.Statuses}
	}
	if q.ExcludeID != "" {
		objectID, err := primitive.ObjectIDFromHex(q.ExcludeID)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, q.ExcludeID)
		}
		filter["_id"] = bson.M{"$ne": objectID}
	}

	return filter, nil
}

func mongoProjection(fields []string) bson.M {
	if len(fields) == 0 {
		return nil
	}
	projection := bson.M{"_id": 1}
	for _, field := range fields {
		if projectable[field] {
			projection[field] = 1
		}
	}
	return projection
}
