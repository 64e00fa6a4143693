package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/stamped-ai/ledgerprep/internal/app"
	"github.com/stamped-ai/ledgerprep/internal/datahelper"
	datahelperhttp "github.com/stamped-ai/ledgerprep/internal/datahelper/http"
	"github.com/stamped-ai/ledgerprep/internal/observability"
	"github.com/stamped-ai/ledgerprep/internal/platform/cache"
	"github.com/stamped-ai/ledgerprep/internal/platform/db"
	"github.com/stamped-ai/ledgerprep/internal/snapshot"
	"github.com/stamped-ai/ledgerprep/jobs"
)

const shutdownTimeout = 10 * time.Second

// DefaultRuntime wires commands to PostgreSQL, Redis and the job queue.
func DefaultRuntime() Runtime {
	return Runtime{
		LoadConfig: app.LoadConfig,
		NewService: func(cfg *app.Config, logger *slog.Logger) (Service, error) {
			helper, err := newHelper(cfg, logger, nil)
			if err != nil {
				return nil, err
			}
			return helper, nil
		},
		NewEnqueuer: func(cfg *app.Config) (Enqueuer, error) {
			return jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr}), nil
		},
		Serve: serve,
	}
}

func newHelper(cfg *app.Config, logger *slog.Logger, metrics *observability.Metrics) (*datahelper.Helper, error) {
	var opts []db.ExecutorOption
	if metrics != nil {
		opts = append(opts, db.WithObserver(metrics))
	}
	exec, err := db.NewExecutor(cfg.Database(), logger, opts...)
	if err != nil {
		return nil, err
	}
	return datahelper.NewHelper(exec, logger), nil
}

func newServeCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the data helper over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := s.config()
			if err != nil {
				return err
			}
			return s.rt.Serve(cmd.Context(), cfg, logger)
		},
	}
}

func serve(ctx context.Context, cfg *app.Config, logger *slog.Logger) error {
	if app.InTestMode() {
		logger.Info("test mode detected, skipping runtime startup")
		return nil
	}

	metrics := observability.NewMetrics()
	helper, err := newHelper(cfg, logger, metrics)
	if err != nil {
		return err
	}

	var snapshots datahelperhttp.SnapshotReader
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, snapshot endpoints disabled", slog.Any("error", err))
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
		snapshots = snapshot.NewStore(redisClient, cfg.SnapshotTTL)
	}

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	jobsClient := jobs.NewClient(redisOpts)
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("jobs inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:      logger,
		Config:      cfg,
		DataHandler: datahelperhttp.NewHandler(logger, helper, snapshots, jobsClient),
		JobHandler:  jobs.NewHandler(inspector, logger),
		Metrics:     metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
		return err
	}
	return nil
}
