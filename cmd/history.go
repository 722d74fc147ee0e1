package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/salon-booking/internal/booking"
	"github.com/example/salon-booking/internal/config"
	"github.com/example/salon-booking/internal/gateway"
	"github.com/example/salon-booking/internal/history"
)

func newHistoryCmd() *cobra.Command {
	var (
		email string
		watch bool
	)

	c := &cobra.Command{
		Use:   "history",
		Short: "Show a customer's booking history",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}

			client := gateway.New(cfg.BookingAPIURL, cfg.GatewayTimeout)
			rec := history.NewReconciler(client, email, nil)

			if !watch {
				if err := rec.Refresh(context.Background()); err != nil {
					return err
				}
				printRecords(rec.Records())
				return nil
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			f := &history.Refresher{
				Reconciler: rec,
				Interval:   cfg.HistoryPollInterval,
				OnUpdate: func() {
					fmt.Fprintf(os.Stdout, "--- %s ---\n", rec.LastUpdated().Format(time.TimeOnly))
					printRecords(rec.Records())
				},
			}
			err = f.Run(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	c.Flags().StringVar(&email, "email", "", "customer email")
	c.Flags().BoolVar(&watch, "watch", false, "keep refreshing on the configured interval")
	_ = c.MarkFlagRequired("email")
	return c
}

func printRecords(records []booking.BookingRecord) {
	if len(records) == 0 {
		fmt.Fprintln(os.Stdout, "no bookings")
		return
	}
	for _, r := range records {
		line := fmt.Sprintf("%-10s %s %s  %-11s %d people  %d yen", r.Date, r.Time, r.Resource, r.Status, r.People, r.TotalPrice())
		if r.CancelledAt != "" {
			line += "  (cancelled " + r.CancelledAt + ")"
		}
		fmt.Fprintf(os.Stdout, "%s  [%s]\n", line, r.ID)
	}
}
