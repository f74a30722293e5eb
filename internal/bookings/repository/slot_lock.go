package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingserrors "megastrength/internal/bookings/errors"
	"megastrength/pkg/model"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	LockCollectionName = "Booking_locks"
	lockKeyPrefix      = "booking_lock_"
)

// SlotLocker hands out advisory locks keyed by slot. Acquire returns ErrSlotLocked while another holder is live.
type SlotLocker interface {
	Acquire(ctx context.Context, slotKey string, ttl time.Duration) (*model.BookingLock, error)
	Release(ctx context.Context, lock *model.BookingLock) error
}

func newLock(slotKey string, ttl time.Duration) *model.BookingLock {
	now := time.Now().UTC()
	return &model.BookingLock{
		ID:        lockKeyPrefix + slotKey,
		Token:     uuid.NewString(),
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
}

// lockCollection is the part of *mongo.Collection the Mongo locker uses.
type lockCollection interface {
	InsertOne(ctx context.Context, document any, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
	DeleteOne(ctx context.Context, filter any, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error)
}

type mongoSlotLocker struct {
	collection lockCollection
}

func NewMongoSlotLocker(db *mongo.Database) SlotLocker {
	return &mongoSlotLocker{collection: db.Collection(LockCollectionName)}
}

func (l *mongoSlotLocker) Acquire(ctx context.Context, slotKey string, ttl time.Duration) (*model.BookingLock, error) {
	lock := newLock(slotKey, ttl)

	_, err := l.collection.InsertOne(ctx, lock)
	if err == nil {
		return lock, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return nil, fmt.Errorf("failed to acquire slot lock: %w", err)
	}

	// The TTL monitor runs about once a minute, so an expired holder may still be present.
	res, err := l.collection.DeleteOne(ctx, bson.M{"_id": lock.ID, "expires_at": bson.M{"$lt": time.Now().UTC()}})
	if err != nil {
		return nil, fmt.Errorf("failed to clear expired slot lock: %w", err)
	}
	if res.DeletedCount == 0 {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrSlotLocked, slotKey)
	}
	if _, err := l.collection.InsertOne(ctx, lock); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%w: %s", bookingserrors.ErrSlotLocked, slotKey)
		}
		return nil, fmt.Errorf("failed to acquire slot lock: %w", err)
	}
	return lock, nil
}

func (l *mongoSlotLocker) Release(ctx context.Context, lock *model.BookingLock) error {
	_, err := l.collection.DeleteOne(ctx, bson.M{"_id": lock.ID, "token": lock.Token})
	return err
}

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type redisSlotLocker struct {
	rdb *redis.Client
}

func NewRedisSlotLocker(rdb *redis.Client) SlotLocker {
	return &redisSlotLocker{rdb: rdb}
}

func (l *redisSlotLocker) Acquire(ctx context.Context, slotKey string, ttl time.Duration) (*model.BookingLock, error) {
	lock := newLock(slotKey, ttl)

	ok, err := l.rdb.SetNX(ctx, lock.ID, lock.Token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire slot lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrSlotLocked, slotKey)
	}
	return lock, nil
}

func (l *redisSlotLocker) Release(ctx context.Context, lock *model.BookingLock) error {
	err := releaseScript.Run(ctx, l.rdb, []string{lock.ID}, lock.Token).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}

type noopSlotLocker struct{}

// NewNoopSlotLocker disables advisory locking; the storage uniqueness constraint still applies.
func NewNoopSlotLocker() SlotLocker {
	return noopSlotLocker{}
}

func (noopSlotLocker) Acquire(_ context.Context, slotKey string, ttl time.Duration) (*model.BookingLock, error) {
	return newLock(slotKey, ttl), nil
}

func (noopSlotLocker) Release(context.Context, *model.BookingLock) error {
	return nil
}
