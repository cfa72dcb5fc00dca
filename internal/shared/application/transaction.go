// Package application holds the cross-context plumbing command handlers
// share: transactions and event metadata.
package application

import (
	"context"
	"errors"
	"fmt"
)

// UnitOfWork scopes repository writes to one transaction carried by the
// returned context.
type UnitOfWork interface {
	Begin(ctx context.Context) (context.Context, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// ErrCommitFailed marks an error returned by UnitOfWork.Commit. Whether the
// transaction's writes persisted is unknown.
var ErrCommitFailed = errors.New("commit transaction")

// RollbackError is joined to fn's error when the rollback after it failed too.
type RollbackError struct {
	Err error
}

func (e *RollbackError) Error() string { return "rollback: " + e.Err.Error() }

func (e *RollbackError) Unwrap() error { return e.Err }

// Transactional runs fn inside uow and returns its result. An error or a
// panic in fn rolls back everything fn wrote. With a nil uow fn runs
// against ctx and each write commits on its own.
func Transactional[T any](ctx context.Context, uow UnitOfWork, fn func(ctx context.Context) (T, error)) (result T, err error) {
	if uow == nil {
		return fn(ctx)
	}

	txCtx, err := uow.Begin(ctx)
	if err != nil {
		return result, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = uow.Rollback(txCtx)
			panic(p)
		}
	}()

	out, err := fn(txCtx)
	if err != nil {
		if rbErr := uow.Rollback(txCtx); rbErr != nil {
			err = errors.Join(err, &RollbackError{Err: rbErr})
		}
		return result, err
	}
	if err := uow.Commit(txCtx); err != nil {
		return result, fmt.Errorf("%w: %w", ErrCommitFailed, err)
	}
	return out, nil
}
