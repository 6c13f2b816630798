// Package mysql registers the MySQL and MariaDB connector, backed by
// github.com/go-sql-driver/mysql.
//
//	import _ "github.com/syssam/dirtydb/dialect/mysql"
//
// URLs are either mysql:// (or mariadb://) URLs or native driver DSNs.
package mysql

import (
	"context"
	stdsql "database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/syssam/dirtydb/config"
	"github.com/syssam/dirtydb/dialect"
	"github.com/syssam/dirtydb/dialect/sql"
)

func init() {
	sql.Register(dialect.MySQL, sql.ConnectorFunc(Open))
}

// Config converts a configured URL into a driver configuration. Times are
// always parsed into time.Time and foreign key checks follow
// cfg.ForeignKey.
func Config(cfg config.BaseConfig) (*mysql.Config, error) {
	var (
		c   *mysql.Config
		err error
	)
	if strings.HasPrefix(cfg.URL, "mysql://") || strings.HasPrefix(cfg.URL, "mariadb://") {
		c, err = fromURL(cfg.URL)
	} else {
		c, err = mysql.ParseDSN(cfg.URL)
	}
	if err != nil {
		return nil, fmt.Errorf("mysql: parse url: %w", err)
	}
	c.ParseTime = true
	if c.Params == nil {
		c.Params = make(map[string]string)
	}
	if !cfg.ForeignKey {
		c.Params["foreign_key_checks"] = "0"
	}
	for k, v := range cfg.Custom {
		c.Params[k] = v
	}
	return c, nil
}

func fromURL(raw string) (*mysql.Config, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	c := mysql.NewConfig()
	c.Net = "tcp"
	c.Addr = u.Host
	if u.Port() == "" {
		c.Addr = u.Host + ":3306"
	}
	if u.User != nil {
		c.User = u.User.Username()
		c.Passwd, _ = u.User.Password()
	}
	c.DBName = strings.TrimPrefix(u.Path, "/")
	for k, vs := range u.Query() {
		if len(vs) > 0 {
			if c.Params == nil {
				c.Params = make(map[string]string)
			}
			c.Params[k] = vs[0]
		}
	}
	return c, nil
}

// Open opens a MySQL pool.
func Open(ctx context.Context, cfg config.BaseConfig) (*sql.Driver, error) {
	c, err := Config(cfg)
	if err != nil {
		return nil, err
	}
	connector, err := mysql.NewConnector(c)
	if err != nil {
		return nil, fmt.Errorf("mysql: %w", err)
	}
	db := stdsql.OpenDB(connector)
	db.SetMaxOpenConns(cfg.Max)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("mysql: ping %s: %w", c.Addr, err)
	}
	slog.Info("mysql pool opened", "client", cfg.ClientType, "addr", c.Addr, "max", cfg.Max)
	return sql.OpenDB(dialect.MySQL, db), nil
}
