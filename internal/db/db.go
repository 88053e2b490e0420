package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Connect opens a pool for the given driver ("postgres" or "sqlite") and
// pings it once so a bad DSN fails at startup instead of on the first request.
func Connect(ctx context.Context, dialect Dialect, dsn string) (*sql.DB, error) {
	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, err
	}

	if dialect == SQLite {
		// one writer at a time; sqlite returns SQLITE_BUSY otherwise
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect, err)
	}

	return db, nil
}

// ConnProvider hands out one logical connection per store call. The caller
// must Close the returned connection.
type ConnProvider interface {
	Conn(ctx context.Context) (*sql.Conn, error)
}

// PerCallProvider checks a connection out of a *sql.DB for every call.
type PerCallProvider struct {
	DB *sql.DB
}

func NewPerCallProvider(db *sql.DB) *PerCallProvider {
	return &PerCallProvider{DB: db}
}

func (p *PerCallProvider) Conn(ctx context.Context) (*sql.Conn, error) {
	conn, err := p.DB.Conn(ctx)
	if err != nil {
		return nil, err
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}
