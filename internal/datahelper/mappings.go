package datahelper

import (
	"context"
	"fmt"

	"github.com/stamped-ai/ledgerprep/internal/frame"
	"github.com/stamped-ai/ledgerprep/internal/query"
)

// AccountMapping assigns an account to an FSLI. ReverseFSLIID is set only for
// flipping accounts.
type AccountMapping struct {
	FSLIID        string  `json:"fsli_id"`
	ReverseFSLIID *string `json:"reverse_fsli_id"`
}

// Flips reports whether the account has a reverse FSLI.
func (m AccountMapping) Flips() bool { return m.ReverseFSLIID != nil }

// Mappings is keyed by account id.
type Mappings map[string]AccountMapping

// AccountMappings resolves the account to FSLI mapping of an engagement. The
// engagement's mapping rows and the FSLI reference table are read in one
// batch and joined in memory on the FSLI id.
func (h *Helper) AccountMappings(ctx context.Context, engagementID string) (Mappings, error) {
	mappingStmt, err := h.builder.Build(query.Query{
		Selects:     []string{"id", "account_id", "fsli_id"},
		Table:       "account_mappings",
		Constraints: []query.Condition{query.Cond("engagement_id = ?", engagementID)},
	})
	if err != nil {
		return nil, err
	}
	fsliStmt, err := h.builder.Build(query.Query{
		Selects: []string{"id", "reverse_fsli_id"},
		Table:   "accounting_fslis",
	})
	if err != nil {
		return nil, err
	}
	tables, err := h.execute(ctx, mappingStmt, fsliStmt)
	if err != nil {
		return nil, err
	}
	mappings, err := resolveMappings(tables[0], tables[1])
	if err != nil {
		return nil, fmt.Errorf("engagement %s: %w", engagementID, err)
	}
	return mappings, nil
}

func resolveMappings(mappingRows, fslis *frame.Table) (Mappings, error) {
	reverses, err := fsliIndex(fslis)
	if err != nil {
		return nil, err
	}
	accounts, err := mappingRows.Column("account_id")
	if err != nil {
		return nil, err
	}
	fsliIDs, err := mappingRows.Column("fsli_id")
	if err != nil {
		return nil, err
	}

	out := make(Mappings, len(accounts))
	for i := range accounts {
		account, ok := frame.Key(accounts[i])
		if !ok {
			return nil, fmt.Errorf("%w: mapping row %v has no account", ErrMappingNotFound, mappingRows.Index()[i])
		}
		fsliID, ok := frame.Key(fsliIDs[i])
		if !ok {
			return nil, fmt.Errorf("%w: account %s has no fsli", ErrFSLINotFound, account)
		}
		reverse, ok := reverses[fsliID]
		if !ok {
			return nil, fmt.Errorf("%w: %s (account %s)", ErrFSLINotFound, fsliID, account)
		}
		out[account] = AccountMapping{FSLIID: fsliID, ReverseFSLIID: reverse}
	}
	return out, nil
}

// fsliIndex keys every FSLI's reverse FSLI by the FSLI id.
func fsliIndex(fslis *frame.Table) (map[string]*string, error) {
	reverseIDs, err := fslis.Column("reverse_fsli_id")
	if err != nil {
		return nil, err
	}
	labels := fslis.Index()
	index := make(map[string]*string, len(labels))
	for i, label := range labels {
		id, ok := frame.Key(label)
		if !ok {
			continue
		}
		var reverse *string
		if r, ok := frame.Key(reverseIDs[i]); ok {
			reverse = &r
		}
		index[id] = reverse
	}
	return index, nil
}
