package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockUnitOfWork struct {
	mock.Mock
}

func (m *mockUnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	args := m.Called(ctx)
	return args.Get(0).(context.Context), args.Error(1)
}

func (m *mockUnitOfWork) Commit(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockUnitOfWork) Rollback(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type txKey struct{}

func TestTransactional(t *testing.T) {
	ctx := context.Background()
	txCtx := context.WithValue(ctx, txKey{}, "tx-1")

	t.Run("commits and returns the result", func(t *testing.T) {
		uow := new(mockUnitOfWork)
		uow.On("Begin", ctx).Return(txCtx, nil)
		uow.On("Commit", txCtx).Return(nil)

		eventID, err := Transactional(ctx, uow, func(ctx context.Context) (string, error) {
			assert.Equal(t, "tx-1", ctx.Value(txKey{}))
			return "evt-1", nil
		})

		require.NoError(t, err)
		assert.Equal(t, "evt-1", eventID)
		uow.AssertExpectations(t)
	})

	t.Run("rolls back on error and drops the result", func(t *testing.T) {
		uow := new(mockUnitOfWork)
		uow.On("Begin", ctx).Return(txCtx, nil)
		uow.On("Rollback", txCtx).Return(nil)
		errMark := errors.New("mark scheduled failed")

		eventID, err := Transactional(ctx, uow, func(context.Context) (string, error) {
			return "evt-1", errMark
		})

		assert.Same(t, errMark, err)
		assert.Empty(t, eventID)
		uow.AssertNotCalled(t, "Commit", mock.Anything)
	})

	t.Run("rollback failure is joined", func(t *testing.T) {
		uow := new(mockUnitOfWork)
		uow.On("Begin", ctx).Return(txCtx, nil)
		errRollback := errors.New("connection lost")
		uow.On("Rollback", txCtx).Return(errRollback)
		errWrite := errors.New("insert failed")

		_, err := Transactional(ctx, uow, func(context.Context) (int, error) { return 0, errWrite })

		assert.ErrorIs(t, err, errWrite)
		assert.ErrorIs(t, err, errRollback)
		var rbErr *RollbackError
		require.ErrorAs(t, err, &rbErr)
		assert.Same(t, errRollback, rbErr.Err)
	})

	t.Run("begin failure skips fn", func(t *testing.T) {
		uow := new(mockUnitOfWork)
		errBegin := errors.New("database is locked")
		uow.On("Begin", ctx).Return(ctx, errBegin)

		called := false
		_, err := Transactional(ctx, uow, func(context.Context) (int, error) {
			called = true
			return 0, nil
		})

		assert.ErrorIs(t, err, errBegin)
		assert.False(t, called)
	})

	t.Run("commit failure", func(t *testing.T) {
		uow := new(mockUnitOfWork)
		uow.On("Begin", ctx).Return(txCtx, nil)
		errCommit := errors.New("disk full")
		uow.On("Commit", txCtx).Return(errCommit)

		_, err := Transactional(ctx, uow, func(context.Context) (int, error) { return 1, nil })

		assert.ErrorIs(t, err, errCommit)
		assert.ErrorIs(t, err, ErrCommitFailed)
		assert.Equal(t, "commit transaction: disk full", err.Error())
	})

	t.Run("panic rolls back and propagates", func(t *testing.T) {
		uow := new(mockUnitOfWork)
		uow.On("Begin", ctx).Return(txCtx, nil)
		uow.On("Rollback", txCtx).Return(nil)

		assert.PanicsWithValue(t, "boom", func() {
			_, _ = Transactional(ctx, uow, func(context.Context) (int, error) { panic("boom") })
		})
		uow.AssertCalled(t, "Rollback", txCtx)
	})

	t.Run("nil unit of work runs directly", func(t *testing.T) {
		n, err := Transactional(ctx, nil, func(got context.Context) (int, error) {
			assert.Equal(t, ctx, got)
			return 7, nil
		})

		require.NoError(t, err)
		assert.Equal(t, 7, n)
	})
}
