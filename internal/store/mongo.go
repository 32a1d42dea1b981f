package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"weather-grid-ingest/internal/weather"
)

// ErrUnavailable is returned when transient connectivity retries are
// exhausted. Any non-transient insert failure propagates unchanged instead.
var ErrUnavailable = errors.New("document store unavailable")

// inserter is the slice of *mongo.Collection the store needs.
type inserter interface {
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
}

// Store writes readings into a MongoDB collection, retrying transient
// connectivity failures with a quadratic pause.
type Store struct {
	client *mongo.Client
	coll   inserter
	logger *zap.Logger

	now   func() time.Time
	sleep func(time.Duration)
}

// New creates a Store writing into database/collection on the given client.
func New(client *mongo.Client, database, collection string, logger *zap.Logger) *Store {
	return &Store{
		client: client,
		coll:   client.Database(database).Collection(collection),
		logger: logger,
		now:    time.Now,
		sleep:  time.Sleep,
	}
}

// Ping runs the driver health command against the primary.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Insert attaches ingestion metadata to the reading and writes it, making up
// to maxRetries+1 attempts. processed_at is reserved for a downstream
// consumer and always written as null; inserted_at is stamped once, before
// the first attempt, and shared by every retry of this call.
//
// Transient (network/timeout) failures pause attempt² seconds before the
// next try: 1s, 4s, 9s, ... Exhaustion returns ErrUnavailable. Any other
// failure class is not retried and is returned as-is.
func (s *Store) Insert(ctx context.Context, reading weather.Reading, maxRetries int) (interface{}, error) {
	reading[weather.FieldProcessedAt] = nil
	reading[weather.FieldInsertedAt] = s.now().UTC()

	for attempt := 1; ; attempt++ {
		res, err := s.coll.InsertOne(ctx, reading)
		if err == nil {
			s.logger.Debug("inserted reading", zap.Any("id", res.InsertedID))
			return res.InsertedID, nil
		}
		if !isTransient(err) {
			return nil, err
		}
		if attempt > maxRetries {
			s.logger.Error("max retries exceeded, document store reconnection has failed",
				zap.Int("attempts", attempt),
				zap.Error(err),
			)
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}

		pause := time.Duration(attempt*attempt) * time.Second
		s.logger.Warn("document store connection issue, pausing before retry",
			zap.Int("retry", attempt),
			zap.Duration("pause", pause),
			zap.Error(err),
		)
		s.sleep(pause)
	}
}

// isTransient reports whether the driver error is the reconnect-needed class
// worth retrying. Everything else (write errors, bad documents, auth) is
// considered permanent.
func isTransient(err error) bool {
	return mongo.IsNetworkError(err) || mongo.IsTimeout(err)
}
