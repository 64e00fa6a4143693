package datahelper

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/stamped-ai/ledgerprep/internal/frame"
	"github.com/stamped-ai/ledgerprep/internal/query"
)

// DateLayout formats engagement period bounds in date constraints.
const DateLayout = "2006-01-02"

var amountSelects = []string{
	"accounting_amounts.id",
	"accounting_amounts.amount as amount",
	"accounting_amounts.description as amount_description",
	"accounting_amounts.type as amount_type",
	"accounting_amounts.account_id as account_id",

	"accounting_accounts.name as account_description",
	"accounting_accounts.currency as account_currency",

	"accounting_amounts.entry_id as transaction_id",
	"accounting_entries.context as transaction_context",
	"accounting_entries.date as transaction_date",
	"accounting_entries.external_created_at as transaction_external_date",
	"accounting_entries.discarded_at as transaction_discarded_at",
}

var amountJoins = []query.Join{
	{Table: "accounting_accounts", On: "accounting_amounts.account_id = accounting_accounts.id"},
	{Table: "accounting_entries", On: "accounting_amounts.entry_id = accounting_entries.id"},
}

// period is an inclusive date range rendered with DateLayout.
type period struct {
	Start string
	End   string
}

// GetAmountTable returns the tenant's amounts. Without engagement ids every
// amount is returned. Otherwise amounts are fetched per engagement, limited
// to its period, and stacked in the order given; row labels are kept as
// returned, so the same label may appear more than once.
func (h *Helper) GetAmountTable(ctx context.Context, tenantID string, engagementIDs ...string) (*frame.Table, error) {
	if len(engagementIDs) == 0 {
		return h.engagementAmounts(ctx, tenantID, nil)
	}

	periods := make([]period, 0, len(engagementIDs))
	for _, id := range engagementIDs {
		p, err := h.engagementPeriod(ctx, id)
		if err != nil {
			return nil, err
		}
		periods = append(periods, p)
	}

	tables := make([]*frame.Table, 0, len(periods))
	for i := range periods {
		tbl, err := h.engagementAmounts(ctx, tenantID, &periods[i])
		if err != nil {
			return nil, err
		}
		tables = append(tables, tbl)
	}
	out, err := frame.Concat(tables...)
	if err != nil {
		return nil, err
	}
	h.logger.Debug("amount table assembled",
		slog.String("tenant_id", tenantID),
		slog.Int("engagements", len(engagementIDs)),
		slog.Int("rows", out.Len()),
	)
	return out, nil
}

func (h *Helper) engagementPeriod(ctx context.Context, engagementID string) (period, error) {
	info, err := h.GetEngagementInfo(ctx, engagementID)
	if err != nil {
		return period{}, err
	}
	start, err := info.Time("period_start")
	if err != nil {
		return period{}, fmt.Errorf("engagement %s: %w", engagementID, err)
	}
	end, err := info.Time("period_end")
	if err != nil {
		return period{}, fmt.Errorf("engagement %s: %w", engagementID, err)
	}
	return period{Start: start.Format(DateLayout), End: end.Format(DateLayout)}, nil
}

// engagementAmounts joins amounts to their accounts and entries for the
// tenant, optionally limited to entries dated within p.
func (h *Helper) engagementAmounts(ctx context.Context, tenantID string, p *period) (*frame.Table, error) {
	constraints := []query.Condition{query.Cond("accounting_amounts.tenant_id = ?", tenantID)}
	if p != nil {
		constraints = append(constraints, query.Cond("accounting_entries.date BETWEEN ? AND ?", p.Start, p.End))
	}
	stmt, err := h.builder.Build(query.Query{
		Selects:     amountSelects,
		Table:       "accounting_amounts",
		Joins:       amountJoins,
		Constraints: constraints,
	})
	if err != nil {
		return nil, err
	}
	return h.executeOne(ctx, stmt)
}
