package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yungbote/adpersona-backend/internal/app"
	"github.com/yungbote/adpersona-backend/internal/data/db"
	"github.com/yungbote/adpersona-backend/internal/domain/auth"
	"github.com/yungbote/adpersona-backend/internal/pkg/logger"
)

func main() {
	app.LoadDotEnv()
	if err := rootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "adpersona",
		Short:         "Persona-based ad A/B evaluation API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}
	root.AddCommand(
		&cobra.Command{Use: "serve", Short: "Run the HTTP API (default)", RunE: runServe},
		&cobra.Command{Use: "migrate", Short: "Create or update the record store schema", RunE: runMigrate},
		&cobra.Command{Use: "roles", Short: "Print the role capability table", RunE: runRoles},
	)
	return root
}

func newLogger(cfg app.Config) (*logger.Logger, error) {
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return log, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := app.LoadConfig()
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, log, cfg)
	if err != nil {
		log.Error("Startup failed", "error", err)
		return err
	}
	defer a.Close()

	log.Info("Server starting", "port", cfg.Port, "ai_provider", cfg.AIProvider, "db_driver", cfg.DB.Driver)
	return a.Run(ctx)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg := app.LoadConfig()
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	svc, err := db.NewService(cfg.DB, log)
	if err != nil {
		return err
	}
	defer svc.Close()
	if err := db.AutoMigrateAll(svc.DB().WithContext(context.WithoutCancel(cmd.Context()))); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	log.Info("Schema migrated", "driver", cfg.DB.Driver)
	return nil
}

func runRoles(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "capability table v%d\n", auth.TableVersion())
	for _, role := range auth.Roles() {
		caps := auth.CapabilitiesOf(role)
		names := make([]string, 0, len(caps))
		for _, c := range caps {
			names = append(names, string(c))
		}
		fmt.Fprintf(out, "%-8s %s\n", role, strings.Join(names, ", "))
	}
	return nil
}
