// Package query runs operator-submitted SQL against a MySQL server: ad-hoc
// multi-statement scripts, paginated table browsing, CSV export, and schema
// listings. Every operation opens its own connection and closes it before
// returning; nothing here pools or shares connections.
package query

import (
	"database/sql"

	"github.com/go-sql-driver/mysql"
)

// ConnectParams identifies one MySQL server session.
type ConnectParams struct {
	Host     string
	User     string
	Password string
	Database string // empty connects without selecting a database
}

// DSN renders the driver DSN. multiStatements stays enabled so a compound
// statement the splitter leaves intact still reaches the server whole.
func (p ConnectParams) DSN() string {
	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = p.Host
	cfg.User = p.User
	cfg.Passwd = p.Password
	cfg.DBName = p.Database
	cfg.MultiStatements = true
	cfg.ParseTime = true
	return cfg.FormatDSN()
}

// Opener opens a database handle for a DSN. Tests swap this out for a mock.
type Opener func(dsn string) (*sql.DB, error)

// openMySQL opens and verifies a connection; sql.Open alone is lazy.
func openMySQL(dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
