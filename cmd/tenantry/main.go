package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/gosuda/tenantry/internal/api/ws"
	"github.com/gosuda/tenantry/internal/auth"
	"github.com/gosuda/tenantry/internal/config"
	"github.com/gosuda/tenantry/internal/notify"
	slacknotify "github.com/gosuda/tenantry/internal/notify/slack"
	"github.com/gosuda/tenantry/internal/server"
	"github.com/gosuda/tenantry/internal/store/postgres"
	redisstore "github.com/gosuda/tenantry/internal/store/redis"
	"github.com/gosuda/tenantry/internal/tenancy"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Fatal().Err(err).Msg("tenantry failed")
	}
}

func newRootCmd() *cobra.Command {
	var cfg *config.Config

	root := &cobra.Command{
		Use:           "tenantry",
		Short:         "Multi-company account and authorization service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if err := config.LoadDotEnv(); err != nil {
				return err
			}

			loaded, err := config.Load()
			if err != nil {
				return err
			}
			cfg = loaded

			setupLogging(cfg.Log)
			return nil
		},
	}

	// Subcommands read cfg lazily; it is set by PersistentPreRunE.
	root.AddCommand(
		newServeCmd(func() *config.Config { return cfg }),
		newMigrateCmd(func() *config.Config { return cfg }),
		newSeedCmd(func() *config.Config { return cfg }),
	)
	return root
}

// setupLogging configures the global zerolog logger.
func setupLogging(c config.LogConfig) {
	level, parseErr := zerolog.ParseLevel(c.Level)
	if parseErr != nil || c.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if c.Format == "text" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
}

// newEventRegistry returns the event fan-out with the audit log attached.
func newEventRegistry(store *postgres.Store) *notify.Registry {
	events := notify.NewRegistry()
	events.Register("audit", notify.NewAuditSink(store.Audit()))
	return events
}

func openStore(ctx context.Context, cfg *config.Config) (*postgres.Store, error) {
	if cfg.Database.MaxConns < 0 || cfg.Database.MaxConns > math.MaxInt32 {
		return nil, fmt.Errorf("database max_conns %d out of int32 range", cfg.Database.MaxConns)
	}
	return postgres.New(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns)) //nolint:gosec // bounds checked above
}

// ---------------------------------------------------------------------------
// serve
// ---------------------------------------------------------------------------

func newServeCmd(cfgFn func() *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), cfgFn())
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	applied, err := store.Migrate(ctx)
	if err != nil {
		return err
	}
	for _, name := range applied {
		log.Info().Str("migration", name).Msg("applied migration")
	}

	events := newEventRegistry(store)

	// Redis is optional. Keep the subscriber nil rather than holding a nil
	// *PubSub so that the server can tell.
	var subscriber ws.EventSubscriber
	if cfg.Redis.Enabled() {
		pubsub, err := redisstore.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		defer pubsub.Close()
		events.Register("redis", pubsub)
		subscriber = pubsub
	}
	if cfg.Slack.Enabled() {
		events.Register("slack", slacknotify.NewClientSink(cfg.Slack.BotToken, cfg.Slack.Channel))
	}
	log.Info().Int("sinks", events.Len()).Msg("event sinks ready")

	hasher := auth.Argon2Hasher{}
	authSvc := auth.NewService(store.Companies(), store.Users(), hasher, cfg.JWT.Secret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
	tenancySvc := tenancy.NewService(store, hasher, events)

	// Graceful shutdown on SIGINT / SIGTERM.
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	srv := server.New(ctx, cfg, store, subscriber, authSvc, tenancySvc)

	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("starting server")
		if startErr := srv.Start(ctx); startErr != nil {
			log.Error().Err(startErr).Msg("server error")
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		return shutdownErr
	}

	log.Info().Msg("stopped")
	return nil
}

// ---------------------------------------------------------------------------
// migrate
// ---------------------------------------------------------------------------

func newMigrateCmd(cfgFn func() *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := openStore(ctx, cfgFn())
			if err != nil {
				return err
			}
			defer store.Close()

			applied, err := store.Migrate(ctx)
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				log.Info().Msg("schema up to date")
			}
			for _, name := range applied {
				log.Info().Str("migration", name).Msg("applied migration")
			}
			return nil
		},
	}
}

// ---------------------------------------------------------------------------
// seed
// ---------------------------------------------------------------------------

func newSeedCmd(cfgFn func() *config.Config) *cobra.Command {
	var subdomain, name, email, password string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create a company with an admin user if they do not exist",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := openStore(ctx, cfgFn())
			if err != nil {
				return err
			}
			defer store.Close()

			if _, err := store.Migrate(ctx); err != nil {
				return err
			}

			svc := tenancy.NewService(store, auth.Argon2Hasher{}, newEventRegistry(store))
			company, admin, err := svc.Seed(ctx, subdomain, name, email, password)
			if err != nil {
				return err
			}

			log.Info().
				Str("company_id", company.ID.String()).
				Str("subdomain", company.Subdomain).
				Str("admin_id", admin.ID.String()).
				Str("admin_email", admin.Email).
				Msg("seeded")
			return nil
		},
	}

	cmd.Flags().StringVar(&subdomain, "subdomain", "", "company subdomain")
	cmd.Flags().StringVar(&name, "name", "", "company name")
	cmd.Flags().StringVar(&email, "email", "", "admin email")
	cmd.Flags().StringVar(&password, "password", "", "admin password")
	for _, f := range []string{"subdomain", "name", "email", "password"} {
		_ = cmd.MarkFlagRequired(f)
	}

	return cmd
}
