package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/escala/internal/config"
	"github.com/jakechorley/escala/pkg/api"
	"github.com/jakechorley/escala/pkg/auth"
	"github.com/jakechorley/escala/pkg/clients/gmailclient"
	"github.com/jakechorley/escala/pkg/core/services"
	"github.com/jakechorley/escala/pkg/postgres"
	"github.com/jakechorley/escala/pkg/sync"
	"github.com/jakechorley/escala/pkg/utils"
	"github.com/jakechorley/escala/pkg/utils/logging"
)

// App holds the application dependencies
type App struct {
	cfg      *config.Config
	database *postgres.DB
	syncer   *sync.Syncer
	bridge   *auth.Bridge
	logger   *zap.Logger
	ctx      context.Context
}

var (
	env string
	app *App
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "escala",
		Short: "Escala CLI - manage ministry schedules and availability",
		Long:  `A CLI tool for running the ministry scheduling server, migrations, and reminder emails.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app != nil {
				if app.database != nil {
					app.database.Close()
				}
				if app.logger != nil {
					app.logger.Sync()
				}
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "prod", "Environment (test, prod, etc.)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(notifyUpcomingCmd())
	rootCmd.AddCommand(listMinistriesCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initApp sets up logger, config, database, syncer, and auth bridge
func initApp() error {
	var err error
	app = &App{
		ctx: context.Background(),
	}

	app.logger, err = logging.InitLogger(env)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.logger.Info("Starting application", zap.String("environment", env))

	app.logger.Info("Loading configuration")
	app.cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	app.logger.Debug("Configuration loaded successfully")

	app.logger.Info("Connecting to database")
	app.database, err = postgres.NewDB(app.ctx, app.cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	app.logger.Debug("Database connection established")

	app.syncer = sync.NewSyncer(app.database, app.database, app.logger)
	app.bridge = auth.NewBridge(app.database, app.database, app.cfg.JWTSecret, app.cfg.ProfileTimeout(), app.logger)

	return nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(app.ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := app.syncer.Start(ctx); err != nil {
				return fmt.Errorf("failed to start syncer: %w", err)
			}
			defer app.syncer.Close()

			overrides, err := app.cfg.PolicyOverrides()
			if err != nil {
				return fmt.Errorf("failed to build capacity overrides: %w", err)
			}

			server := api.NewServer(app.syncer, app.bridge, overrides, app.cfg.Server.AllowedOrigins, app.logger)
			return server.ListenAndServe(ctx, app.cfg.Server.Addr)
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app.logger.Info("Running migrations")
			if err := app.database.RunMigrations(app.ctx); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}

			fmt.Println("\n✓ Migrations applied successfully!")
			return nil
		},
	}
}

func notifyUpcomingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "notifyUpcoming [days]",
		Short: "Email reminders to members scheduled in the coming days",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			days := app.cfg.ReminderDays
			if len(args) > 0 {
				parsed, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("days must be a number: %w", err)
				}
				days = parsed
			}

			oauthCfg, err := config.LoadOAuthClientWithEnv(env)
			if err != nil {
				return fmt.Errorf("failed to load OAuth client config: %w", err)
			}

			oauthConfig, err := utils.GetOAuthConfig(oauthCfg)
			if err != nil {
				return fmt.Errorf("failed to build oauth config: %w", err)
			}

			token, err := utils.GetTokenWithFlow(app.ctx, oauthConfig, env)
			if err != nil {
				return fmt.Errorf("failed to get oauth token: %w", err)
			}

			mailer, err := gmailclient.NewClient(app.ctx, oauthCfg, token)
			if err != nil {
				return fmt.Errorf("failed to create gmail client: %w", err)
			}

			if err := app.syncer.Refresh(app.ctx); err != nil {
				return fmt.Errorf("failed to load state: %w", err)
			}

			today := time.Now().Format(utils.DateLayout)
			sent, failed, err := services.NotifyUpcoming(app.ctx, app.syncer, mailer, app.logger, days, today)
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Reminder run completed!\n\n")
			if len(sent) > 0 {
				fmt.Printf("Reminders sent to %d members:\n", len(sent))
				for _, s := range sent {
					fmt.Printf("  ✓ %s (%d dates)\n", s.Email, len(s.Dates))
				}
				fmt.Println()
			}
			if len(failed) > 0 {
				fmt.Printf("Failed to send %d emails:\n", len(failed))
				for _, f := range failed {
					fmt.Printf("  ✗ %s: %s\n", f.Email, f.Error)
				}
				fmt.Println()
			}
			if len(sent) == 0 && len(failed) == 0 {
				fmt.Println("No members are scheduled in the window.")
			}

			return nil
		},
	}
}

func listMinistriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "listMinistries",
		Short: "List all ministries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ministries, err := app.database.GetMinistries(app.ctx)
			if err != nil {
				return fmt.Errorf("failed to list ministries: %w", err)
			}

			fmt.Printf("\nFound %d ministries:\n\n", len(ministries))
			for _, m := range ministries {
				fmt.Printf("- %s (%s) %s\n", m.Name, m.ID, m.Color)
			}

			return nil
		},
	}
}
