package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// QueryObserver receives the duration of every repository query.
type QueryObserver interface {
	ObserveDBQuery(label string, duration time.Duration)
}

type txKey struct{}

// Transactor runs units of work inside a single database transaction. The
// transaction travels in the context, so repositories called with that
// context join it.
type Transactor struct {
	db *sqlx.DB
}

// NewTransactor constructs a Transactor.
func NewTransactor(db *sqlx.DB) *Transactor {
	return &Transactor{db: db}
}

// WithinTx executes fn in a transaction, committing when fn returns nil and
// rolling back on error or panic. Calls nested in an existing transaction
// reuse it.
func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := txFromContext(ctx); ok {
		return fn(ctx)
	}

	tx, err := t.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func txFromContext(ctx context.Context) (*sqlx.Tx, bool) {
	tx, ok := ctx.Value(txKey{}).(*sqlx.Tx)
	return tx, ok && tx != nil
}

// base is embedded by every repository. Queries run on the transaction in
// ctx when there is one.
type base struct {
	db       *sqlx.DB
	observer QueryObserver
}

func (b base) ext(ctx context.Context) sqlx.ExtContext {
	if tx, ok := txFromContext(ctx); ok {
		return tx
	}
	return b.db
}

func (b base) track(label string, start time.Time) {
	if b.observer != nil {
		b.observer.ObserveDBQuery(label, time.Since(start))
	}
}
