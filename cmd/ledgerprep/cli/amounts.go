package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newAmountsCmd(s *session) *cobra.Command {
	var (
		tenantID       string
		engagementIDs  []string
		dateColumn     string
		fsliEngagement string
		format         string
	)

	cmd := &cobra.Command{
		Use:   "amounts",
		Short: "Fetch a tenant's accounting amounts",
		Long: `Fetch accounting amounts for a tenant, optionally restricted to the
periods of one or more engagements.

--date-column appends _year, _month, _day and _week_day columns derived from
the named date column. --fsli-engagement adds each row's fsli_id using that
engagement's account mappings.`,
		Example: `  ledgerprep amounts --tenant t1 --engagement e1 --engagement e2
  ledgerprep amounts --tenant t1 --date-column transaction_date --format csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if tenantID == "" {
				return errors.New("--tenant is required")
			}
			svc, err := s.service()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			tbl, err := svc.GetAmountTable(ctx, tenantID, engagementIDs...)
			if err != nil {
				return fmt.Errorf("get amounts: %w", err)
			}
			if dateColumn != "" {
				if tbl, err = svc.AddDateInfo(tbl, dateColumn); err != nil {
					return fmt.Errorf("add date info: %w", err)
				}
			}
			if fsliEngagement != "" {
				if tbl, err = svc.MakeFSLIMappings(ctx, tbl, fsliEngagement); err != nil {
					return fmt.Errorf("map fslis: %w", err)
				}
			}
			return writeTable(cmd.OutOrStdout(), tbl, format)
		},
	}

	cmd.Flags().StringVar(&tenantID, "tenant", "", "tenant id")
	cmd.Flags().StringArrayVar(&engagementIDs, "engagement", nil, "engagement id whose period bounds the amounts (repeatable)")
	cmd.Flags().StringVar(&dateColumn, "date-column", "", "date column to decompose")
	cmd.Flags().StringVar(&fsliEngagement, "fsli-engagement", "", "engagement whose account mappings add fsli_id")
	cmd.Flags().StringVarP(&format, "format", "o", formatTable, "output format (table, json, csv)")
	return cmd
}

func newFlipsCmd(s *session) *cobra.Command {
	var (
		tenantID     string
		engagementID string
		format       string
	)

	cmd := &cobra.Command{
		Use:   "flips",
		Short: "List amounts on accounts whose FSLI has a reverse",
		RunE: func(cmd *cobra.Command, args []string) error {
			if tenantID == "" || engagementID == "" {
				return errors.New("--tenant and --engagement are required")
			}
			svc, err := s.service()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			tbl, err := svc.GetAmountTable(ctx, tenantID, engagementID)
			if err != nil {
				return fmt.Errorf("get amounts: %w", err)
			}
			flips, err := svc.GetFlippingIDAmounts(ctx, tbl, engagementID)
			if err != nil {
				return fmt.Errorf("filter flipping amounts: %w", err)
			}
			return writeTable(cmd.OutOrStdout(), flips, format)
		},
	}

	cmd.Flags().StringVar(&tenantID, "tenant", "", "tenant id")
	cmd.Flags().StringVar(&engagementID, "engagement", "", "engagement id")
	cmd.Flags().StringVarP(&format, "format", "o", formatTable, "output format (table, json, csv)")
	return cmd
}
