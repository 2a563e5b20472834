package query

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeSeparator(t *testing.T) {
	assert.Equal(t, ';', NormalizeSeparator(";"))
	assert.Equal(t, ',', NormalizeSeparator(","))
	assert.Equal(t, ',', NormalizeSeparator("|"))
	assert.Equal(t, ',', NormalizeSeparator(""))
	assert.Equal(t, ',', NormalizeSeparator("\t"))
}

func TestExportFilename(t *testing.T) {
	now := time.Date(2024, 3, 15, 9, 30, 5, 0, time.UTC)

	tests := []struct {
		name     string
		base     string
		expected string
	}{
		{
			name:     "plain name",
			base:     "monthly_report",
			expected: "monthly_report_2024-03-15_09_30_05.csv",
		},
		{
			name:     "unsafe characters replaced",
			base:     "My Report!!",
			expected: "My_Report___2024-03-15_09_30_05.csv",
		},
		{
			name:     "empty base falls back",
			base:     "",
			expected: "query_2024-03-15_09_30_05.csv",
		},
		{
			name:     "path traversal neutralized",
			base:     "../etc/passwd",
			expected: ".._etc_passwd_2024-03-15_09_30_05.csv",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExportFilename(tt.base, now))
		})
	}
}

func TestExporter_Start(t *testing.T) {
	params := ConnectParams{Host: "localhost:3306", User: "root", Database: "app"}

	t.Run("streams rows with semicolon separator", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)

		mock.ExpectQuery("SELECT").
			WillReturnRows(sqlmock.NewRows([]string{"id", "note"}).
				AddRow(1, "has,comma").
				AddRow(2, nil))
		mock.ExpectClose()

		stream, err := NewExporterWithOpener(mockOpener(db)).
			Start(context.Background(), params, "SELECT id, note FROM t;", ";")
		require.NoError(t, err)

		var buf bytes.Buffer
		require.NoError(t, stream.WriteTo(context.Background(), &buf))

		assert.Equal(t, "id;note\n1;has,comma\n2;\n", buf.String())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown separator falls back to comma", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)

		mock.ExpectQuery("SELECT").
			WillReturnRows(sqlmock.NewRows([]string{"a", "b"}).AddRow("x", "y;z"))
		mock.ExpectClose()

		stream, err := NewExporterWithOpener(mockOpener(db)).
			Start(context.Background(), params, "SELECT a, b FROM t", "|")
		require.NoError(t, err)

		var buf bytes.Buffer
		require.NoError(t, stream.WriteTo(context.Background(), &buf))

		assert.Equal(t, "a,b\nx,y;z\n", buf.String())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no result set yields info export", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)

		mock.ExpectQuery("UPDATE t SET a = 1").
			WillReturnRows(sqlmock.NewRows([]string{}))
		expectRowCount(mock, 7)
		mock.ExpectClose()

		stream, err := NewExporterWithOpener(mockOpener(db)).
			Start(context.Background(), params, "UPDATE t SET a = 1;", ",")
		require.NoError(t, err)

		var buf bytes.Buffer
		require.NoError(t, stream.WriteTo(context.Background(), &buf))

		assert.Equal(t, "info\n7\n", buf.String())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("remaining statements are drained after the stream", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)

		mock.ExpectQuery("SELECT id FROM t").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
		mock.ExpectExec("DELETE FROM audit").
			WillReturnResult(sqlmock.NewResult(0, 4))
		mock.ExpectClose()

		stream, err := NewExporterWithOpener(mockOpener(db)).
			Start(context.Background(), params, "SELECT id FROM t; DELETE FROM audit;", ",")
		require.NoError(t, err)

		var buf bytes.Buffer
		require.NoError(t, stream.WriteTo(context.Background(), &buf))

		assert.Equal(t, "id\n1\n", buf.String())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("statement failure surfaces before any output", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)

		mock.ExpectQuery("SELECT boom").WillReturnError(assert.AnError)
		mock.ExpectClose()

		stream, err := NewExporterWithOpener(mockOpener(db)).
			Start(context.Background(), params, "SELECT boom;", ",")
		require.Error(t, err)
		assert.Nil(t, stream)

		var qerr *QueryError
		require.ErrorAs(t, err, &qerr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty script", func(t *testing.T) {
		stream, err := NewExporterWithOpener(failingOpener(assert.AnError)).
			Start(context.Background(), params, "   ", ",")
		require.Error(t, err)
		assert.Nil(t, stream)
	})

	t.Run("connect failure", func(t *testing.T) {
		stream, err := NewExporterWithOpener(failingOpener(assert.AnError)).
			Start(context.Background(), params, "SELECT 1", ",")
		require.Error(t, err)
		assert.Nil(t, stream)

		var cerr *ConnectError
		require.ErrorAs(t, err, &cerr)
	})
}
