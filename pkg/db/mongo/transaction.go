package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

// TxFunc receives a context bound to the session when transactions are on.
type TxFunc func(ctx context.Context) error

// Runner executes a unit of work against one Mongo deployment.
type Runner interface {
	Run(ctx context.Context, fn TxFunc) error
}

type sessionRunner struct {
	client *mongo.Client
	opts   *options.TransactionOptions
}

type directRunner struct{}

// NewRunner returns a Runner that wraps fn in a snapshot transaction with majority writes,
// so a slot lookup and the insert that follows it commit against the same view.
// With transactions disabled fn runs directly, which standalone servers require; the
// slot_key unique index still rejects a second active booking there.
func NewRunner(client *mongo.Client, transactions bool) Runner {
	if !transactions || client == nil {
		return directRunner{}
	}
	return &sessionRunner{
		client: client,
		opts: options.Transaction().
			SetReadConcern(readconcern.Snapshot()).
			SetWriteConcern(writeconcern.Majority()).
			SetReadPreference(readpref.Primary()),
	}
}

func (directRunner) Run(ctx context.Context, fn TxFunc) error {
	return fn(ctx)
}

func (r *sessionRunner) Run(ctx context.Context, fn TxFunc) error {
	if _, nested := ctx.(mongo.SessionContext); nested {
		return fn(ctx)
	}

	session, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	var fnErr error
	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (any, error) {
		fnErr = fn(sessCtx)
		return nil, fnErr
	})
	if err == nil {
		return nil
	}
	// fn's own error is returned unwrapped so callers can match their sentinels.
	if fnErr != nil && errors.Is(err, fnErr) {
		return fnErr
	}
	return fmt.Errorf("transaction aborted: %w", err)
}
