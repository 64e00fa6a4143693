package datahelper

import (
	"context"
	"fmt"

	"github.com/stamped-ai/ledgerprep/internal/frame"
	"github.com/stamped-ai/ledgerprep/internal/query"
)

var engagementColumns = []string{
	"id", "period_start", "period_end", "type", "organization_id",
	"multi_currency", "tax_services", "materiality",
}

var organizationColumns = []string{
	"id", "financial_year_end_day", "financial_year_end_month", "business_type",
}

// GetEngagementInfo returns the engagement as a flat record keyed by column.
func (h *Helper) GetEngagementInfo(ctx context.Context, engagementID string) (frame.Record, error) {
	return h.single(ctx, "engagements", engagementColumns, engagementID)
}

// GetOrganizationInfo returns the organization as a flat record keyed by column.
func (h *Helper) GetOrganizationInfo(ctx context.Context, organizationID string) (frame.Record, error) {
	return h.single(ctx, "organizations", organizationColumns, organizationID)
}

func (h *Helper) single(ctx context.Context, table string, columns []string, id string) (frame.Record, error) {
	stmt, err := h.builder.Build(query.Query{
		Selects:     columns,
		Table:       table,
		Constraints: []query.Condition{query.Cond("id = ?", id)},
	})
	if err != nil {
		return nil, err
	}
	tbl, err := h.executeOne(ctx, stmt)
	if err != nil {
		return nil, err
	}
	switch tbl.Len() {
	case 0:
		return nil, fmt.Errorf("%w: %s %s", ErrNotFound, table, id)
	case 1:
		return tbl.Row(0), nil
	default:
		return nil, fmt.Errorf("%w: %s %s matched %d rows", ErrMultipleRows, table, id, tbl.Len())
	}
}
