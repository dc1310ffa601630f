// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/danielhkuo/brikick/cliparse"
	"github.com/danielhkuo/brikick/db"
	"github.com/danielhkuo/brikick/jobs"
	"github.com/danielhkuo/brikick/metrics"
	"github.com/danielhkuo/brikick/router"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "brikick",
		Short:         "Brikick marketplace backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Run background jobs by hand",
	}
	jobsCmd.AddCommand(&cobra.Command{
		Use:   "run <name> [flags]",
		Short: "Run one job once and exit",
		Long: "Run one job once and exit. Known jobs:\n  " +
			fmt.Sprint(jobs.Names()),
		Args:               cobra.MinimumNArgs(1),
		DisableFlagParsing: true,
		RunE:               runJob,
	})

	root.AddCommand(
		&cobra.Command{
			Use:                "serve [flags]",
			Short:              "Serve the HTTP API and the job scheduler",
			DisableFlagParsing: true,
			RunE:               runServe,
		},
		&cobra.Command{
			Use:                "migrate [flags]",
			Short:              "Apply database migrations and exit",
			DisableFlagParsing: true,
			RunE:               runMigrate,
		},
		jobsCmd,
	)
	return root
}

// connect parses configuration from args and opens a migrated database.
func connect(ctx context.Context, args []string) (cliparse.Config, *sqlx.DB, error) {
	cfg, err := cliparse.ParseFlags(args)
	if err != nil {
		return cliparse.Config{}, nil, fmt.Errorf("error parsing flags: %w", err)
	}

	conn, err := db.Open(ctx, cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		return cliparse.Config{}, nil, err
	}
	if err := db.Migrate(conn, cfg.DatabaseType); err != nil {
		conn.Close()
		return cliparse.Config{}, nil, err
	}
	version, err := db.Ready(conn, cfg.DatabaseType)
	if err != nil {
		conn.Close()
		return cliparse.Config{}, nil, err
	}
	slog.Info("Database schema ready", "version", version)
	return cfg, conn, nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	_, conn, err := connect(cmd.Context(), args)
	if err != nil {
		return err
	}
	return conn.Close()
}

func newLocker(cfg cliparse.Config) (jobs.Locker, func(), error) {
	if cfg.RedisURL == "" {
		return jobs.NewLocalLocker(), func() {}, nil
	}
	locker, err := jobs.NewRedisLocker(cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	return locker, func() { locker.Close() }, nil
}

func runJob(cmd *cobra.Command, args []string) error {
	name := args[0]
	if _, ok := jobs.Find(name); !ok {
		return fmt.Errorf("unknown job %q", name)
	}

	cfg, conn, err := connect(cmd.Context(), args[1:])
	if err != nil {
		return err
	}
	defer conn.Close()

	locker, closeLocker, err := newLocker(cfg)
	if err != nil {
		return err
	}
	defer closeLocker()

	result, err := jobs.NewRunner(conn, locker).RunByName(cmd.Context(), name)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", name, result)
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, conn, err := connect(ctx, args)
	if err != nil {
		return err
	}
	defer conn.Close()

	locker, closeLocker, err := newLocker(cfg)
	if err != nil {
		return err
	}
	defer closeLocker()

	scheduler, err := jobs.NewScheduler(jobs.NewRunner(conn, locker), jobs.All(), cfg.Schedules)
	if err != nil {
		return err
	}

	server := http.Server{
		Handler:           router.NewRouter(conn, cfg, metrics.NewRegistry()),
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Listening", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return scheduler.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	slog.Info("Server closed", "error", err)
	return err
}
