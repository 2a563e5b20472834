package query

import (
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectParams_DSN(t *testing.T) {
	params := ConnectParams{
		Host:     "db.internal:3307",
		User:     "reporting",
		Password: "s3cret",
		Database: "analytics",
	}

	cfg, err := mysql.ParseDSN(params.DSN())
	require.NoError(t, err)

	assert.Equal(t, "tcp", cfg.Net)
	assert.Equal(t, "db.internal:3307", cfg.Addr)
	assert.Equal(t, "reporting", cfg.User)
	assert.Equal(t, "s3cret", cfg.Passwd)
	assert.Equal(t, "analytics", cfg.DBName)
	assert.True(t, cfg.MultiStatements)
	assert.True(t, cfg.ParseTime)
}

func TestConnectParams_DSNWithoutDatabase(t *testing.T) {
	params := ConnectParams{Host: "localhost:3306", User: "root"}

	cfg, err := mysql.ParseDSN(params.DSN())
	require.NoError(t, err)
	assert.Empty(t, cfg.DBName)
}
