package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/blog-engagement-engine/internal/apperror"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// commitFailer is a minimal driver whose commits fail with the queued errors
type commitFailer struct {
	mu      sync.Mutex
	errs    []error
	commits int
	aborts  int
}

func (d *commitFailer) Connect(ctx context.Context) (driver.Conn, error) { return &fakeConn{d: d}, nil }
func (d *commitFailer) Driver() driver.Driver                            { return d }
func (d *commitFailer) Open(name string) (driver.Conn, error)            { return &fakeConn{d: d}, nil }

type fakeConn struct{ d *commitFailer }

func (c *fakeConn) Prepare(query string) (driver.Stmt, error) {
	return nil, errors.New("statements not supported")
}
func (c *fakeConn) Close() error              { return nil }
func (c *fakeConn) Begin() (driver.Tx, error) { return &fakeTx{d: c.d}, nil }

type fakeTx struct{ d *commitFailer }

func (t *fakeTx) Commit() error {
	t.d.mu.Lock()
	defer t.d.mu.Unlock()
	t.d.commits++
	if len(t.d.errs) == 0 {
		return nil
	}
	err := t.d.errs[0]
	t.d.errs = t.d.errs[1:]
	return err
}

func (t *fakeTx) Rollback() error {
	t.d.mu.Lock()
	defer t.d.mu.Unlock()
	t.d.aborts++
	return nil
}

func newFakeDB(t *testing.T, maxAttempts uint, errs ...error) (*DB, *commitFailer) {
	t.Helper()
	d := &commitFailer{errs: errs}
	conn := sql.OpenDB(d)
	t.Cleanup(func() { conn.Close() })
	return Wrap(sqlx.NewDb(conn, "postgres"), maxAttempts, zerolog.Nop()), d
}

func serializationFailure() error {
	return &pq.Error{Code: codeSerializationFailure, Message: "could not serialize access"}
}

func TestWithTxCommits(t *testing.T) {
	db, d := newFakeDB(t, 3)

	calls := 0
	err := db.WithTx(context.Background(), nil, func(tx *sqlx.Tx) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, d.commits)
}

func TestWithTxRetriesSerializationFailures(t *testing.T) {
	db, d := newFakeDB(t, 3, serializationFailure(), serializationFailure())

	calls := 0
	err := db.WithTx(context.Background(), nil, func(tx *sqlx.Tx) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 3, d.commits)
}

func TestWithTxGivesUpAsConflict(t *testing.T) {
	db, _ := newFakeDB(t, 2, serializationFailure(), serializationFailure(), serializationFailure())

	calls := 0
	err := db.WithTx(context.Background(), nil, func(tx *sqlx.Tx) error {
		calls++
		return nil
	})
	assert.ErrorIs(t, err, apperror.ErrConflict)
	assert.True(t, IsRetryable(err))
	assert.Equal(t, 2, calls)
}

func TestWithTxDoesNotRetryOtherErrors(t *testing.T) {
	db, d := newFakeDB(t, 5)
	boom := apperror.NotFound("post", "p1")

	calls := 0
	err := db.WithTx(context.Background(), nil, func(tx *sqlx.Tx) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, d.commits)
	assert.Equal(t, 1, d.aborts)
}

func TestErrorClassification(t *testing.T) {
	unique := &pq.Error{Code: codeUniqueViolation, Constraint: "posts_slug_key"}
	wrapped := fmt.Errorf("insert post: %w", unique)

	assert.True(t, IsUniqueViolation(wrapped, "posts_slug_key"))
	assert.True(t, IsUniqueViolation(wrapped, ""))
	assert.False(t, IsUniqueViolation(wrapped, "likes_pkey"))
	assert.False(t, IsUniqueViolation(errors.New("plain"), ""))

	assert.True(t, IsForeignKeyViolation(&pq.Error{Code: codeForeignKeyViolation}))
	assert.False(t, IsForeignKeyViolation(unique))

	assert.True(t, IsRetryable(apperror.Database("commit", &pq.Error{Code: codeDeadlockDetected})))
	assert.False(t, IsRetryable(unique))
	assert.False(t, IsRetryable(nil))
}
