package mysql_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/dirtydb/config"
	"github.com/syssam/dirtydb/dialect"
	"github.com/syssam/dirtydb/dialect/mysql"
	"github.com/syssam/dirtydb/dialect/sql"
)

func TestConfig(t *testing.T) {
	assert.Contains(t, sql.Connectors(), dialect.MySQL)

	cfg := config.Default()
	cfg.Kind = dialect.MySQL
	cfg.URL = "mysql://app:secret@db/shop?charset=utf8mb4"
	cfg.ForeignKey = false

	c, err := mysql.Config(cfg)
	require.NoError(t, err)
	assert.Equal(t, "db:3306", c.Addr)
	assert.Equal(t, "app", c.User)
	assert.Equal(t, "secret", c.Passwd)
	assert.Equal(t, "shop", c.DBName)
	assert.True(t, c.ParseTime)
	assert.Equal(t, "utf8mb4", c.Params["charset"])
	assert.Equal(t, "0", c.Params["foreign_key_checks"])

	cfg.URL = "app:secret@tcp(10.0.0.1:3307)/shop"
	cfg.ForeignKey = true
	c, err = mysql.Config(cfg)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1:3307", c.Addr)
	assert.NotContains(t, c.Params, "foreign_key_checks")

	cfg.URL = "not a dsn"
	_, err = mysql.Config(cfg)
	assert.Error(t, err)
}
