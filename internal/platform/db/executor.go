package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/stamped-ai/ledgerprep/internal/frame"
	"github.com/stamped-ai/ledgerprep/internal/query"
)

// ErrConnect indicates the database could not be reached.
var ErrConnect = errors.New("platform/db: connect")

// QueryObserver receives the outcome of every executed statement.
type QueryObserver interface {
	ObserveQuery(elapsed time.Duration, err error)
}

type conn interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close(ctx context.Context) error
}

type connectFunc func(ctx context.Context, config *pgx.ConnConfig) (conn, error)

func pgxConnect(ctx context.Context, config *pgx.ConnConfig) (conn, error) {
	return pgx.ConnectConfig(ctx, config)
}

// Executor runs batches of statements, each batch on a fresh connection.
type Executor struct {
	config   *pgx.ConnConfig
	logger   *slog.Logger
	observer QueryObserver
	connect  connectFunc
}

// ExecutorOption customises an Executor.
type ExecutorOption func(*Executor)

// WithObserver reports statement outcomes to observer.
func WithObserver(observer QueryObserver) ExecutorOption {
	return func(e *Executor) { e.observer = observer }
}

// NewExecutor validates cfg and prepares an executor. Nothing is dialled
// until the first batch runs.
func NewExecutor(cfg Config, logger *slog.Logger, opts ...ExecutorOption) (*Executor, error) {
	config, err := ParseConnConfig(cfg)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	e := &Executor{config: config, logger: logger, connect: pgxConnect}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// ExecuteQueries opens a connection, runs the statements in order and returns
// one table per statement, each indexed by idColumn ("id" when empty). The
// connection is closed before returning on every path.
func (e *Executor) ExecuteQueries(ctx context.Context, statements []query.Statement, idColumn string) ([]*frame.Table, error) {
	c, err := e.connect(ctx, e.config)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnect, err)
	}
	defer func() {
		if err := c.Close(context.WithoutCancel(ctx)); err != nil {
			e.logger.Warn("close connection", slog.Any("error", err))
		}
	}()

	tables := make([]*frame.Table, 0, len(statements))
	for _, stmt := range statements {
		tbl, err := e.run(ctx, c, stmt, idColumn)
		if err != nil {
			return nil, err
		}
		tables = append(tables, tbl)
	}
	return tables, nil
}

func (e *Executor) run(ctx context.Context, c conn, stmt query.Statement, idColumn string) (tbl *frame.Table, err error) {
	start := time.Now()
	defer func() {
		if e.observer != nil {
			e.observer.ObserveQuery(time.Since(start), err)
		}
	}()

	rows, err := c.Query(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, e.queryError(stmt, err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = f.Name
	}

	var data [][]any
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, e.queryError(stmt, err)
		}
		for i := range values {
			if values[i], err = normalizeValue(values[i]); err != nil {
				return nil, e.queryError(stmt, fmt.Errorf("column %s: %w", columns[i], err))
			}
		}
		data = append(data, values)
	}
	if err := rows.Err(); err != nil {
		return nil, e.queryError(stmt, err)
	}

	e.logger.Debug("query executed",
		slog.String("sql", stmt.SQL),
		slog.Int("args", len(stmt.Args)),
		slog.Int("rows", len(data)),
		slog.Duration("elapsed", time.Since(start)),
	)
	return frame.FromRows(columns, data, idColumn)
}

func (e *Executor) queryError(stmt query.Statement, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		e.logger.Error("query failed",
			slog.String("sql", stmt.SQL),
			slog.String("code", pgErr.Code),
			slog.String("message", pgErr.Message),
		)
		return fmt.Errorf("platform/db: query (sqlstate %s): %w", pgErr.Code, err)
	}
	return fmt.Errorf("platform/db: query: %w", err)
}
