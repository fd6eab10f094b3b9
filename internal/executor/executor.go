// Package executor runs generated SQL against the application database and
// serializes result sets into transport-friendly rows.
package executor

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"

	"github.com/askdb/askdb/internal/askerrors"
	"github.com/askdb/askdb/internal/config"
)

// Executor wraps a read connection to the queried database. Result sets are
// capped at maxRows so a runaway query cannot flood a response.
type Executor struct {
	db      *sql.DB
	maxRows int
}

// Open connects to the database described by cfg and verifies the connection.
func Open(ctx context.Context, cfg *config.Config) (*Executor, error) {
	dsn, driver, err := buildDSN(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s connection: %w", cfg.DBType, err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging %s at %s:%d: %w", cfg.DBType, cfg.DBHost, cfg.DBPort, err)
	}

	return New(db, cfg.MaxResultRows), nil
}

// New wraps an existing connection. Useful for tests and custom drivers.
func New(db *sql.DB, maxRows int) *Executor {
	return &Executor{db: db, maxRows: maxRows}
}

func buildDSN(cfg *config.Config) (dsn, driver string, err error) {
	switch cfg.DBType {
	case config.DialectMySQL:
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
			cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName), "mysql", nil
	case config.DialectPostgres:
		return fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=disable",
			cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBUser, cfg.DBPassword), "postgres", nil
	default:
		return "", "", fmt.Errorf("unsupported database type %q", cfg.DBType)
	}
}

// Execute runs query and returns its rows as column-keyed maps, capped at the
// configured row limit. Any database failure wraps askerrors.ErrQueryExecution
// so callers can map it without inspecting driver errors.
func (e *Executor) Execute(ctx context.Context, query string) ([]map[string]any, error) {
	rows, err := e.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", askerrors.ErrQueryExecution, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("%w: reading columns: %v", askerrors.ErrQueryExecution, err)
	}

	results := make([]map[string]any, 0, e.maxRows)
	for rows.Next() {
		if len(results) >= e.maxRows {
			break
		}

		values := make([]any, len(columns))
		targets := make([]any, len(columns))
		for i := range values {
			targets[i] = &values[i]
		}

		if err := rows.Scan(targets...); err != nil {
			return nil, fmt.Errorf("%w: scanning row: %v", askerrors.ErrQueryExecution, err)
		}

		row := make(map[string]any, len(columns))
		for i, name := range columns {
			row[name] = normalizeValue(values[i])
		}
		results = append(results, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", askerrors.ErrQueryExecution, err)
	}

	return results, nil
}

// Ping verifies the connection is still alive.
func (e *Executor) Ping(ctx context.Context) error {
	return e.db.PingContext(ctx)
}

// Close releases the underlying connection pool.
func (e *Executor) Close() error {
	return e.db.Close()
}

// normalizeValue makes driver values JSON-friendly. MySQL in particular hands
// text columns back as []byte.
func normalizeValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
