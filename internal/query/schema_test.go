package query

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLister_Databases(t *testing.T) {
	t.Run("lists server databases", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)

		mock.ExpectQuery("SHOW DATABASES").
			WillReturnRows(sqlmock.NewRows([]string{"Database"}).
				AddRow("app").
				AddRow("information_schema"))
		mock.ExpectClose()

		names, err := NewListerWithOpener(mockOpener(db)).
			Databases(context.Background(), ConnectParams{Host: "localhost:3306", User: "root"})
		require.NoError(t, err)
		assert.Equal(t, []string{"app", "information_schema"}, names)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("connect failure", func(t *testing.T) {
		names, err := NewListerWithOpener(failingOpener(assert.AnError)).
			Databases(context.Background(), ConnectParams{Host: "localhost:3306", User: "root"})
		require.Error(t, err)
		assert.Nil(t, names)

		var cerr *ConnectError
		require.ErrorAs(t, err, &cerr)
	})
}

func TestLister_Tables(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	expectTableListing(mock, "orders", "users")
	mock.ExpectClose()

	tables, err := NewListerWithOpener(mockOpener(db)).
		Tables(context.Background(), ConnectParams{Host: "localhost:3306", User: "root", Database: "app"})
	require.NoError(t, err)
	assert.Equal(t, []string{"orders", "users"}, tables)
	assert.NoError(t, mock.ExpectationsWereMet())
}
