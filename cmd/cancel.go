package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/salon-booking/internal/config"
	"github.com/example/salon-booking/internal/gateway"
	"github.com/example/salon-booking/internal/history"
)

func newCancelCmd() *cobra.Command {
	var (
		email     string
		bookingID string
	)

	c := &cobra.Command{
		Use:   "cancel",
		Short: "Cancel a booking by id (see history)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}

			ctx := context.Background()
			client := gateway.New(cfg.BookingAPIURL, cfg.GatewayTimeout)
			rec := history.NewReconciler(client, email, nil)

			if err := rec.Refresh(ctx); err != nil {
				return err
			}
			record, ok := rec.Find(bookingID)
			if !ok {
				return fmt.Errorf("no booking %q for %s", bookingID, email)
			}
			if err := rec.Cancel(ctx, record); err != nil {
				return fmt.Errorf("%s", gateway.UserMessage(err))
			}

			fmt.Fprintf(os.Stdout, "cancelled %s %s (%s)\n", record.Date, record.Time, record.Resource)
			printRecords(rec.Records())
			return nil
		},
	}

	c.Flags().StringVar(&email, "email", "", "customer email")
	c.Flags().StringVar(&bookingID, "booking", "", "booking id")
	_ = c.MarkFlagRequired("email")
	_ = c.MarkFlagRequired("booking")
	return c
}
