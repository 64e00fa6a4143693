// Package datahelper fetches accounting amounts and reference records and
// enriches amount tables for the analytics pipeline.
package datahelper

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/stamped-ai/ledgerprep/internal/frame"
	"github.com/stamped-ai/ledgerprep/internal/query"
)

// Executor runs a batch of statements and returns one table per statement,
// in order, each indexed by idColumn.
type Executor interface {
	ExecuteQueries(ctx context.Context, statements []query.Statement, idColumn string) ([]*frame.Table, error)
}

// Helper turns domain requests into queries and reshapes their results.
type Helper struct {
	exec    Executor
	builder query.Builder
	logger  *slog.Logger
}

// NewHelper constructs a Helper on top of exec.
func NewHelper(exec Executor, logger *slog.Logger) *Helper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Helper{exec: exec, logger: logger}
}

func (h *Helper) execute(ctx context.Context, statements ...query.Statement) ([]*frame.Table, error) {
	tables, err := h.exec.ExecuteQueries(ctx, statements, frame.DefaultIndex)
	if err != nil {
		return nil, err
	}
	if len(tables) != len(statements) {
		return nil, fmt.Errorf("%w: got %d tables for %d statements", ErrUnexpectedResult, len(tables), len(statements))
	}
	return tables, nil
}

func (h *Helper) executeOne(ctx context.Context, stmt query.Statement) (*frame.Table, error) {
	tables, err := h.execute(ctx, stmt)
	if err != nil {
		return nil, err
	}
	return tables[0], nil
}
