package dblogged

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDelegatesToUnderlyingHandle(t *testing.T) {
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	db := New(raw, "sqlmock")
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("SELECT name FROM items").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("a").AddRow("b"))
	mock.ExpectExec("DELETE FROM items").WithArgs(1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	var names []string
	require.NoError(t, db.SelectContext(context.Background(), &names, "SELECT name FROM items"))
	assert.Equal(t, []string{"a", "b"}, names)

	res, err := db.ExecContext(context.Background(), "DELETE FROM items WHERE id = $1", 1)
	require.NoError(t, err)
	affected, err := res.RowsAffected()
	require.NoError(t, err)
	assert.EqualValues(t, 1, affected)

	mock.ExpectClose()
	require.NoError(t, db.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestErrorsArePropagated(t *testing.T) {
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	db := New(raw, "sqlmock")

	mock.ExpectQuery("SELECT 1").WillReturnError(assert.AnError)

	var one int
	err = db.GetContext(context.Background(), &one, "SELECT 1")
	assert.ErrorIs(t, err, assert.AnError)
}
