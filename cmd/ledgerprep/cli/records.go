package cli

import (
	"github.com/spf13/cobra"
)

func newEngagementCmd(s *session) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "engagement <id>",
		Short: "Show an engagement record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := s.service()
			if err != nil {
				return err
			}
			record, err := svc.GetEngagementInfo(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeRecord(cmd.OutOrStdout(), record, format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "o", formatYAML, "output format (yaml, json)")
	return cmd
}

func newOrganizationCmd(s *session) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "organization <id>",
		Short: "Show an organization record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := s.service()
			if err != nil {
				return err
			}
			record, err := svc.GetOrganizationInfo(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeRecord(cmd.OutOrStdout(), record, format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "o", formatYAML, "output format (yaml, json)")
	return cmd
}
