package database

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"testing/fstest"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hiufpe/hub-api/pkg/config"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "db", Port: 5432, User: "hub", Password: "secret", Name: "academic_hub", SSLMode: "disable"})
	assert.Equal(t, "host=db port=5432 user=hub password=secret dbname=academic_hub sslmode=disable", dsn)
}

func TestMigrateRunsScriptsInOrder(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	files := fstest.MapFS{
		"0002_index.sql": {Data: []byte("CREATE INDEX b ON t (x);")},
		"0001_init.sql":  {Data: []byte("CREATE TABLE t (x INT);")},
		"README.md":      {Data: []byte("ignored")},
	}
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE t (x INT);")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("CREATE INDEX b ON t (x);")).WillReturnResult(sqlmock.NewResult(0, 0))

	applied, err := Migrate(context.Background(), db, files)
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_init.sql", "0002_index.sql"}, applied)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateStopsOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	files := fstest.MapFS{"0001_init.sql": {Data: []byte("CREATE TABLE broken")}}
	mock.ExpectExec("CREATE TABLE broken").WillReturnError(errors.New("syntax error"))

	_, err = Migrate(context.Background(), db, files)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "apply migration 0001_init.sql")
}
