// Package store opens the optional shared database handed to every
// function as `db`. The driver is picked from the URL scheme.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/xo/dburl"
	"go.uber.org/zap"
)

// SQL is a long-lived connection pool shared by all invocations.
type SQL struct {
	db     *sql.DB
	driver string
}

// Open connects to url. An empty url yields (nil, nil): no store.
// A failed initial ping is logged only; the pool reconnects on use.
func Open(ctx context.Context, url string, log *zap.Logger) (*SQL, error) {
	if url == "" {
		return nil, nil
	}
	u, err := dburl.Parse(url)
	if err != nil {
		return nil, fmt.Errorf("database url: %w", err)
	}
	db, err := sql.Open(u.Driver, u.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", u.Driver, err)
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(4)
	db.SetConnMaxIdleTime(5 * time.Minute)

	s := &SQL{db: db, driver: u.Driver}
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		log.Warn("database ping failed", zap.String("driver", u.Driver), zap.Error(err))
	} else {
		log.Info("database connected", zap.String("driver", u.Driver))
	}
	return s, nil
}

// New wraps an existing pool.
func New(db *sql.DB, driver string) *SQL { return &SQL{db: db, driver: driver} }

func (s *SQL) Driver() string { return s.driver }

// Query runs q and returns every row as a column -> value map. []byte
// values are returned as strings.
func (s *SQL) Query(ctx context.Context, q string, args ...any) ([]map[string]any, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []map[string]any
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(cols))
		for i, c := range cols {
			if b, ok := vals[i].([]byte); ok {
				row[c] = string(b)
				continue
			}
			row[c] = vals[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// Exec runs q and returns the number of affected rows.
func (s *SQL) Exec(ctx context.Context, q string, args ...any) (int64, error) {
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *SQL) Close() error {
	if s == nil {
		return nil
	}
	return s.db.Close()
}
