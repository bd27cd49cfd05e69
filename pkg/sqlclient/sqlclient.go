// Package sqlclient wraps database/sql for API tests: every query and
// statement is recorded as an attachment in the active execution, with
// timing and row counts, so the report shows exactly what the test asked
// the database.
package sqlclient

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ormasoftchile/qago/pkg/record"
)

// Client is a thin database/sql wrapper with execution-log recording.
type Client struct {
	db     *sql.DB
	logger *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the operational logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// Open opens a database handle and verifies the connection.
func Open(ctx context.Context, driver, dsn string, opts ...Option) (*Client, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	c := &Client{db: db, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// DB exposes the underlying handle for operations the wrapper doesn't cover.
func (c *Client) DB() *sql.DB {
	return c.db
}

// Close closes the database handle.
func (c *Client) Close() error {
	return c.db.Close()
}

// Query runs a query and returns all rows as maps keyed by column name.
// The query, its duration and the result preview are attached to the
// active execution.
func (c *Client) Query(ctx context.Context, query string, args ...any) ([]map[string]any, error) {
	start := time.Now()
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		c.attachQuery(ctx, query, args, time.Since(start), -1, err)
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	results, err := scanRows(rows)
	elapsed := time.Since(start)
	if err != nil {
		c.attachQuery(ctx, query, args, elapsed, -1, err)
		return nil, fmt.Errorf("scan: %w", err)
	}

	c.attachQuery(ctx, query, args, elapsed, len(results), nil)
	if len(results) > 0 {
		preview := results
		if len(preview) > 20 {
			preview = preview[:20]
		}
		record.Attach(ctx, preview, fmt.Sprintf("SQL rows (%d)", len(results)))
	}
	c.logger.Debug("query", zap.String("sql", query), zap.Int("rows", len(results)), zap.Duration("elapsed", elapsed))
	return results, nil
}

// Exec runs a statement and returns the affected row count, recording the
// statement the same way Query does.
func (c *Client) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	start := time.Now()
	res, err := c.db.ExecContext(ctx, query, args...)
	elapsed := time.Since(start)
	if err != nil {
		c.attachQuery(ctx, query, args, elapsed, -1, err)
		return 0, fmt.Errorf("exec: %w", err)
	}
	affected, _ := res.RowsAffected()
	c.attachQuery(ctx, query, args, elapsed, int(affected), nil)
	c.logger.Debug("exec", zap.String("sql", query), zap.Int64("affected", affected), zap.Duration("elapsed", elapsed))
	return affected, nil
}

func (c *Client) attachQuery(ctx context.Context, query string, args []any, elapsed time.Duration, rows int, err error) {
	text := fmt.Sprintf("query: %s\n", query)
	if len(args) > 0 {
		text += fmt.Sprintf("args: %v\n", args)
	}
	text += fmt.Sprintf("time: %.3f s\n", elapsed.Seconds())
	if err != nil {
		text += fmt.Sprintf("error: %v", err)
	} else {
		text += fmt.Sprintf("rows: %d", rows)
	}
	record.Attach(ctx, text, "SQL query")
}

func scanRows(rows *sql.Rows) ([]map[string]any, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []map[string]any
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
