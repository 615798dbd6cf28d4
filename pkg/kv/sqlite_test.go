package kv

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newMockDB creates a sqlmock database with automatic cleanup and expectation checking.
func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unfulfilled expectations: %v", err)
		}
		db.Close()
	})
	return db, mock
}

func TestSQLStoreGetSeparatesNotFoundFromFailure(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewSQLStore(db)

	mock.ExpectQuery("SELECT value FROM kv_entries WHERE key = \\?").
		WithArgs("cookies/a/").
		WillReturnRows(sqlmock.NewRows([]string{"value"}))
	_, err := s.Get(context.Background(), "cookies/a/")
	assert.ErrorIs(t, err, ErrNotFound)

	boom := errors.New("connection reset")
	mock.ExpectQuery("SELECT value FROM kv_entries WHERE key = \\?").
		WithArgs("cookies/a/").
		WillReturnError(boom)
	_, err = s.Get(context.Background(), "cookies/a/")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestSQLStoreSetPropagatesFailure(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewSQLStore(db)

	boom := errors.New("disk full")
	mock.ExpectExec("INSERT INTO kv_entries").
		WithArgs("settings/system/", []byte("{}"), sqlmock.AnyArg()).
		WillReturnError(boom)

	err := s.Set(context.Background(), "settings/system/", []byte("{}"))
	assert.ErrorIs(t, err, boom)
}

func TestSQLStoreScanUsesKeyRange(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewSQLStore(db)

	mock.ExpectQuery("SELECT key, value FROM kv_entries WHERE key >= \\? AND key < \\? ORDER BY key").
		WithArgs("cookies/", "cookies0").
		WillReturnRows(sqlmock.NewRows([]string{"key", "value"}).
			AddRow("cookies/a/", []byte("1")).
			AddRow("cookies/b/", []byte("2")))

	entries, err := s.Scan(context.Background(), "cookies/")
	require.NoError(t, err)
	assert.Equal(t, []Entry{
		{Key: "cookies/a/", Value: []byte("1")},
		{Key: "cookies/b/", Value: []byte("2")},
	}, entries)
}

func TestSQLStoreDelete(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewSQLStore(db)

	mock.ExpectExec("DELETE FROM kv_entries WHERE key = \\?").
		WithArgs("cookies/a/").
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, s.Delete(context.Background(), "cookies/a/"))
}
