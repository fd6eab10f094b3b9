package executor

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askdb/askdb/internal/askerrors"
	"github.com/askdb/askdb/internal/config"
)

func TestExecutor_Execute(t *testing.T) {
	t.Run("serializes rows as column-keyed maps", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("SELECT id, name FROM users").WillReturnRows(
			sqlmock.NewRows([]string{"id", "name"}).
				AddRow(int64(1), "ada").
				AddRow(int64(2), "grace"))

		rows, err := New(db, 10).Execute(context.Background(), "SELECT id, name FROM users;")
		require.NoError(t, err)

		assert.Equal(t, []map[string]any{
			{"id": int64(1), "name": "ada"},
			{"id": int64(2), "name": "grace"},
		}, rows)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("converts byte columns to strings", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("SELECT status FROM orders").WillReturnRows(
			sqlmock.NewRows([]string{"status"}).AddRow([]byte("shipped")))

		rows, err := New(db, 10).Execute(context.Background(), "SELECT status FROM orders;")
		require.NoError(t, err)

		assert.Equal(t, []map[string]any{{"status": "shipped"}}, rows)
	})

	t.Run("caps the result set at the row limit", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		set := sqlmock.NewRows([]string{"n"})
		for i := 0; i < 50; i++ {
			set.AddRow(int64(i))
		}
		mock.ExpectQuery("SELECT n FROM numbers").WillReturnRows(set)

		rows, err := New(db, 10).Execute(context.Background(), "SELECT n FROM numbers;")
		require.NoError(t, err)

		assert.Len(t, rows, 10)
		assert.Equal(t, int64(0), rows[0]["n"])
		assert.Equal(t, int64(9), rows[9]["n"])
	})

	t.Run("empty result set yields an empty slice", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("SELECT id FROM users").WillReturnRows(sqlmock.NewRows([]string{"id"}))

		rows, err := New(db, 10).Execute(context.Background(), "SELECT id FROM users;")
		require.NoError(t, err)

		assert.NotNil(t, rows)
		assert.Empty(t, rows)
	})

	t.Run("query failures wrap the execution sentinel", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("SELECT bogus").WillReturnError(errors.New(`relation "bogus" does not exist`))

		_, err = New(db, 10).Execute(context.Background(), "SELECT bogus;")
		assert.ErrorIs(t, err, askerrors.ErrQueryExecution)
		assert.Contains(t, err.Error(), "does not exist")
	})

	t.Run("row iteration failures wrap the execution sentinel", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("SELECT id FROM users").WillReturnRows(
			sqlmock.NewRows([]string{"id"}).
				AddRow(int64(1)).
				RowError(0, errors.New("connection reset")))

		_, err = New(db, 10).Execute(context.Background(), "SELECT id FROM users;")
		assert.ErrorIs(t, err, askerrors.ErrQueryExecution)
	})
}

func TestBuildDSN(t *testing.T) {
	base := func(dbType string) *config.Config {
		return &config.Config{
			DBType:     dbType,
			DBHost:     "db.internal",
			DBPort:     7001,
			DBName:     "analytics",
			DBUser:     "reader",
			DBPassword: "hunter2",
		}
	}

	t.Run("mysql", func(t *testing.T) {
		dsn, driver, err := buildDSN(base(config.DialectMySQL))
		require.NoError(t, err)
		assert.Equal(t, "mysql", driver)
		assert.Equal(t, "reader:hunter2@tcp(db.internal:7001)/analytics?parseTime=true", dsn)
	})

	t.Run("postgres", func(t *testing.T) {
		dsn, driver, err := buildDSN(base(config.DialectPostgres))
		require.NoError(t, err)
		assert.Equal(t, "postgres", driver)
		assert.Equal(t,
			"host=db.internal port=7001 dbname=analytics user=reader password=hunter2 sslmode=disable",
			dsn)
	})

	t.Run("unsupported dialect", func(t *testing.T) {
		_, _, err := buildDSN(base("oracle"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "oracle")
	})
}
