package datahelper

import (
	"context"
	"fmt"
	"time"

	"github.com/stamped-ai/ledgerprep/internal/frame"
)

const (
	// TransactionDateColumn holds the entry date of each amount.
	TransactionDateColumn = "transaction_date"
	// AccountIDColumn holds the account of each amount.
	AccountIDColumn = "account_id"
	// FSLIIDColumn is appended by MakeFSLIMappings.
	FSLIIDColumn = "fsli_id"
)

// AddDateInfo appends <col>_year, <col>_month, <col>_day and <col>_week_day
// (0 is Monday, 6 is Sunday) derived from dateColumn. The table is modified
// in place and returned.
func (h *Helper) AddDateInfo(tbl *frame.Table, dateColumn string) (*frame.Table, error) {
	values, err := tbl.Column(dateColumn)
	if err != nil {
		return nil, err
	}
	labels := tbl.Index()
	years := make([]any, len(values))
	months := make([]any, len(values))
	days := make([]any, len(values))
	weekdays := make([]any, len(values))
	for i, v := range values {
		ts, ok := v.(time.Time)
		if !ok {
			return nil, fmt.Errorf("%w: %s of row %v is %T", ErrInvalidDate, dateColumn, labels[i], v)
		}
		years[i] = ts.Year()
		months[i] = int(ts.Month())
		days[i] = ts.Day()
		weekdays[i] = mondayWeekday(ts)
	}
	derived := []struct {
		suffix string
		values []any
	}{
		{"_year", years},
		{"_month", months},
		{"_day", days},
		{"_week_day", weekdays},
	}
	for _, d := range derived {
		if err := tbl.SetColumn(dateColumn+d.suffix, d.values); err != nil {
			return nil, err
		}
	}
	return tbl, nil
}

func mondayWeekday(ts time.Time) int {
	return (int(ts.Weekday()) + 6) % 7
}

// MakeFSLIMappings appends the fsli_id of every row's account, using the
// engagement's mapping. Every account must be mapped; the table is left
// untouched otherwise.
func (h *Helper) MakeFSLIMappings(ctx context.Context, tbl *frame.Table, engagementID string) (*frame.Table, error) {
	mappings, err := h.AccountMappings(ctx, engagementID)
	if err != nil {
		return nil, err
	}
	accounts, err := tbl.Column(AccountIDColumn)
	if err != nil {
		return nil, err
	}
	fsliIDs := make([]any, len(accounts))
	for i, a := range accounts {
		key, ok := frame.Key(a)
		m, found := mappings[key]
		if !ok || !found {
			return nil, fmt.Errorf("%w: account %v in engagement %s", ErrMappingNotFound, a, engagementID)
		}
		fsliIDs[i] = m.FSLIID
	}
	if err := tbl.SetColumn(FSLIIDColumn, fsliIDs); err != nil {
		return nil, err
	}
	return tbl, nil
}

// GetFlippingIDAmounts returns the rows whose account has a reverse FSLI in
// the engagement's mapping, keeping row order and labels.
func (h *Helper) GetFlippingIDAmounts(ctx context.Context, tbl *frame.Table, engagementID string) (*frame.Table, error) {
	mappings, err := h.AccountMappings(ctx, engagementID)
	if err != nil {
		return nil, err
	}
	accounts, err := tbl.Column(AccountIDColumn)
	if err != nil {
		return nil, err
	}
	return tbl.Filter(func(i int) bool {
		key, ok := frame.Key(accounts[i])
		if !ok {
			return false
		}
		m, found := mappings[key]
		return found && m.Flips()
	}), nil
}

// PrepareEngagementAmounts fetches the engagement's amounts for the tenant,
// decomposes their transaction dates and maps them to FSLIs.
func (h *Helper) PrepareEngagementAmounts(ctx context.Context, tenantID, engagementID string) (*frame.Table, error) {
	tbl, err := h.GetAmountTable(ctx, tenantID, engagementID)
	if err != nil {
		return nil, err
	}
	if _, err := h.AddDateInfo(tbl, TransactionDateColumn); err != nil {
		return nil, err
	}
	return h.MakeFSLIMappings(ctx, tbl, engagementID)
}
