package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/salon-booking/internal/calendar"
	"github.com/example/salon-booking/internal/config"
	"github.com/example/salon-booking/internal/gateway"
)

func newAvailabilityCmd() *cobra.Command {
	var month string

	c := &cobra.Command{
		Use:   "availability",
		Short: "Print the month's availability calendar",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}

			anchor := time.Now()
			if month != "" {
				anchor, err = time.Parse("2006-01", month)
				if err != nil {
					return fmt.Errorf("invalid --month, want YYYY-MM: %w", err)
				}
			}

			client := gateway.New(cfg.BookingAPIURL, cfg.GatewayTimeout)
			caps, err := client.FetchDayCapacities(context.Background())
			if err != nil {
				return err
			}

			cells := calendar.Annotate(calendar.BuildMonthGrid(anchor), caps, time.Now())

			fmt.Fprintf(os.Stdout, "%s\n", anchor.Format("January 2006"))
			fmt.Fprintln(os.Stdout, " Sun   Mon   Tue   Wed   Thu   Fri   Sat")
			for i, cell := range cells {
				if cell.InCurrentMonth {
					fmt.Fprintf(os.Stdout, "%3d %s ", cell.Date.Day(), cell.Symbol)
				} else {
					fmt.Fprintf(os.Stdout, "      ")
				}
				if (i+1)%7 == 0 {
					fmt.Fprintln(os.Stdout)
				}
			}
			fmt.Fprintln(os.Stdout, "○ open   △ only a few left   × full or unavailable")
			return nil
		},
	}

	c.Flags().StringVar(&month, "month", "", "month to show (YYYY-MM, default: current)")
	return c
}
