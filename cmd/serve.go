package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/example/salon-booking/internal/auth"
	"github.com/example/salon-booking/internal/config"
	"github.com/example/salon-booking/internal/db"
	"github.com/example/salon-booking/internal/gateway"
	"github.com/example/salon-booking/internal/migrate"
	"github.com/example/salon-booking/internal/session"
	"github.com/example/salon-booking/internal/web"
)

func newServeCmd() *cobra.Command {
	var migrateUp bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the customer-facing web UI",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			if err := cfg.RequireCookieKeys(); err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true, Prefix: "web"})

			d, err := db.Open(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer d.Close()

			if err := d.Ping(ctx); err != nil {
				return fmt.Errorf("db ping: %w", err)
			}

			if migrateUp {
				if err := migrate.Up(ctx, d); err != nil {
					return err
				}
			}

			authStore := auth.NewStore(d, cfg.CookieHashKey, cfg.CookieBlockKey)
			client := gateway.New(cfg.BookingAPIURL, cfg.GatewayTimeout)

			sessions := session.NewManager()
			unsubscribe := sessions.Subscribe(func(s session.State, a session.Account) {
				logger.Info("session changed", "state", s.String(), "email", a.Email)
			})
			defer unsubscribe()

			if err := client.Health(ctx); err != nil {
				logger.Warn("booking service health check failed", "err", err)
			}

			ws := &web.Server{
				Auth:         authStore,
				Gateway:      client,
				Sessions:     sessions,
				Logger:       logger,
				BaseURL:      cfg.BaseURL,
				PollInterval: cfg.HistoryPollInterval,
			}
			return web.Start(ctx, cfg.ListenAddr, ws.Routes())
		},
	}

	cmd.Flags().BoolVar(&migrateUp, "migrate", true, "run database migrations on startup")
	cmd.Flags().Lookup("migrate").NoOptDefVal = "true"
	return cmd
}
