package connector

import (
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kmshelley/arcadia-db-migration/pkg/config"
)

func newMockConnector(t *testing.T) (*PostgresConnector, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	c := &PostgresConnector{
		db:     sqlx.NewDb(db, "sqlmock"),
		logger: zap.NewNop(),
		cfg:    &config.PostgresConfig{Host: "localhost", Port: 5432},
		dbName: "arcadia_prod",
	}
	return c, mock
}

func TestValidateQueriesServerVersion(t *testing.T) {
	c, mock := newMockConnector(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT version()")).
		WillReturnRows(sqlmock.NewRows([]string{"version"}).
			AddRow("PostgreSQL 15.4 on x86_64-pc-linux-gnu"))

	require.NoError(t, c.Validate())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestValidateSurfacesConnectionFailure(t *testing.T) {
	c, mock := newMockConnector(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT version()")).
		WillReturnError(errors.New("connection refused"))

	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "version")
}

func TestDatabaseName(t *testing.T) {
	c, _ := newMockConnector(t)
	assert.Equal(t, "arcadia_prod", c.DatabaseName())
}

func TestCloseReleasesConnection(t *testing.T) {
	c, mock := newMockConnector(t)

	mock.ExpectClose()
	require.NoError(t, c.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}
