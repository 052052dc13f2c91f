package store

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*PGStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPGStoreWithDB(mock), mock
}

func TestPGStore_Get(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("SELECT value FROM kv_entries").
		WithArgs("stream-bindings:cam-1").
		WillReturnRows(pgxmock.NewRows([]string{"value"}).AddRow([]byte(`["t1"]`)))

	got, err := s.Get(context.Background(), "stream-bindings:cam-1")
	require.NoError(t, err)
	assert.Equal(t, []byte(`["t1"]`), got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGStore_Get_Missing(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("SELECT value FROM kv_entries").
		WithArgs("absent").
		WillReturnRows(pgxmock.NewRows([]string{"value"}))

	_, err := s.Get(context.Background(), "absent")
	assert.ErrorIs(t, err, ErrKeyNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGStore_Set(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO kv_entries").
		WithArgs("server", []byte(`{"host":"http://h"}`)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.Set(context.Background(), "server", []byte(`{"host":"http://h"}`))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGStore_CompareAndSwap(t *testing.T) {
	t.Run("insert when absent", func(t *testing.T) {
		s, mock := newMockStore(t)

		mock.ExpectExec("INSERT INTO kv_entries").
			WithArgs("k", []byte("v")).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		require.NoError(t, s.CompareAndSwap(context.Background(), "k", nil, []byte("v")))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("insert conflicts when present", func(t *testing.T) {
		s, mock := newMockStore(t)

		mock.ExpectExec("INSERT INTO kv_entries").
			WithArgs("k", []byte("v")).
			WillReturnResult(pgxmock.NewResult("INSERT", 0))

		err := s.CompareAndSwap(context.Background(), "k", nil, []byte("v"))
		assert.ErrorIs(t, err, ErrSwapConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("swap against current value", func(t *testing.T) {
		s, mock := newMockStore(t)

		mock.ExpectExec("UPDATE kv_entries").
			WithArgs("k", []byte("old"), []byte("new")).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		require.NoError(t, s.CompareAndSwap(context.Background(), "k", []byte("old"), []byte("new")))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("swap against stale value conflicts", func(t *testing.T) {
		s, mock := newMockStore(t)

		mock.ExpectExec("UPDATE kv_entries").
			WithArgs("k", []byte("stale"), []byte("new")).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := s.CompareAndSwap(context.Background(), "k", []byte("stale"), []byte("new"))
		assert.ErrorIs(t, err, ErrSwapConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPGStore_Delete(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("DELETE FROM kv_entries").
		WithArgs("k").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	require.NoError(t, s.Delete(context.Background(), "k"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
