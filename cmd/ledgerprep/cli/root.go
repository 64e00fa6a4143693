// Package cli implements the ledgerprep command line.
package cli

import (
	"context"
	"log/slog"
	"os/signal"
	"strings"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/stamped-ai/ledgerprep/internal/app"
	"github.com/stamped-ai/ledgerprep/internal/frame"
	"github.com/stamped-ai/ledgerprep/jobs"
)

// Service is the data helper surface used by the commands.
type Service interface {
	GetAmountTable(ctx context.Context, tenantID string, engagementIDs ...string) (*frame.Table, error)
	AddDateInfo(tbl *frame.Table, dateColumn string) (*frame.Table, error)
	MakeFSLIMappings(ctx context.Context, tbl *frame.Table, engagementID string) (*frame.Table, error)
	GetFlippingIDAmounts(ctx context.Context, tbl *frame.Table, engagementID string) (*frame.Table, error)
	GetEngagementInfo(ctx context.Context, engagementID string) (frame.Record, error)
	GetOrganizationInfo(ctx context.Context, organizationID string) (frame.Record, error)
}

// Enqueuer submits snapshot tasks.
type Enqueuer interface {
	EnqueueAmountsSnapshot(ctx context.Context, payload jobs.AmountsSnapshotPayload) (*asynq.TaskInfo, error)
	Close() error
}

// Runtime builds the dependencies commands need once configuration is known.
type Runtime struct {
	LoadConfig  func(envFiles ...string) (*app.Config, error)
	NewService  func(cfg *app.Config, logger *slog.Logger) (Service, error)
	NewEnqueuer func(cfg *app.Config) (Enqueuer, error)
	Serve       func(ctx context.Context, cfg *app.Config, logger *slog.Logger) error
}

type session struct {
	rt       Runtime
	envFiles []string
}

func (s *session) config() (*app.Config, *slog.Logger, error) {
	cfg, err := s.rt.LoadConfig(s.envFiles...)
	if err != nil {
		return nil, nil, err
	}
	return cfg, app.NewLogger(cfg), nil
}

func (s *session) service() (Service, error) {
	cfg, logger, err := s.config()
	if err != nil {
		return nil, err
	}
	return s.rt.NewService(cfg, logger)
}

// NewRootCmd assembles the command tree on top of rt.
func NewRootCmd(rt Runtime) *cobra.Command {
	s := &session{rt: rt}
	cmd := &cobra.Command{
		Use:   "ledgerprep",
		Short: "Prepare accounting amounts for analytics",
		Long: `ledgerprep fetches accounting amounts, engagement and organization
records from PostgreSQL and enriches amount tables with date parts and
FSLI mappings.

Connection parameters come from PSQL_HOST, PSQL_USER, PSQL_PWD, PSQL_PORT
and PSQL_DATABASE, optionally loaded from --env-file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetGlobalNormalizationFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})
	cmd.PersistentFlags().StringSliceVar(&s.envFiles, "env-file", nil, "dotenv files to load before reading the environment")

	cmd.AddCommand(newServeCmd(s))
	cmd.AddCommand(newAmountsCmd(s))
	cmd.AddCommand(newFlipsCmd(s))
	cmd.AddCommand(newEngagementCmd(s))
	cmd.AddCommand(newOrganizationCmd(s))
	cmd.AddCommand(newSnapshotCmd(s))
	return cmd
}

// Execute runs the root command with the production runtime.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return NewRootCmd(DefaultRuntime()).ExecuteContext(ctx)
}
