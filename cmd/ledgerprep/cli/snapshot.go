package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/stamped-ai/ledgerprep/jobs"
)

func newSnapshotCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Manage prepared amount snapshots",
	}
	cmd.AddCommand(newSnapshotEnqueueCmd(s))
	return cmd
}

func newSnapshotEnqueueCmd(s *session) *cobra.Command {
	var tenantID, engagementID string
	cmd := &cobra.Command{
		Use:   "enqueue",
		Short: "Queue preparation of an engagement's amounts snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			if tenantID == "" || engagementID == "" {
				return errors.New("--tenant and --engagement are required")
			}
			cfg, logger, err := s.config()
			if err != nil {
				return err
			}
			client, err := s.rt.NewEnqueuer(cfg)
			if err != nil {
				return err
			}
			defer func() {
				if err := client.Close(); err != nil {
					logger.Warn("close queue client", slog.Any("error", err))
				}
			}()
			info, err := client.EnqueueAmountsSnapshot(cmd.Context(), jobs.AmountsSnapshotPayload{
				TenantID:     tenantID,
				EngagementID: engagementID,
			})
			if err != nil {
				return fmt.Errorf("enqueue snapshot: %w", err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "queued %s on %s\n", info.ID, info.Queue)
			return nil
		},
	}
	cmd.Flags().StringVar(&tenantID, "tenant", "", "tenant id")
	cmd.Flags().StringVar(&engagementID, "engagement", "", "engagement id")
	return cmd
}
