package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/salon-booking/internal/booking"
	"github.com/example/salon-booking/internal/capacity"
	"github.com/example/salon-booking/internal/config"
	"github.com/example/salon-booking/internal/gateway"
	"github.com/example/salon-booking/internal/wizard"
)

func newBookCmd() *cobra.Command {
	var (
		date   string
		slotID int
		name   string
		email  string
		phone  string
		people int
	)

	c := &cobra.Command{
		Use:   "book",
		Short: "Book a slot in one shot (runs the same steps as the drawer)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}

			when, err := time.Parse(booking.DateLayout, date)
			if err != nil {
				return fmt.Errorf("invalid --date, want YYYY-MM-DD: %w", err)
			}
			if capacity.IsPast(when, time.Now()) {
				return fmt.Errorf("past dates cannot be booked")
			}

			ctx := context.Background()
			client := gateway.New(cfg.BookingAPIURL, cfg.GatewayTimeout)

			caps, err := client.FetchDayCapacities(ctx)
			if err != nil {
				return err
			}
			day, ok := caps[date]
			if !ok || !capacity.IsBookable(&day, when, time.Now()) {
				return fmt.Errorf("%s is fully booked", date)
			}

			wz := wizard.New(client, func(d string) {
				// same side effect the calendar owner performs: pull
				// fresh capacity so the printout reflects the booking
				if fresh, ferr := client.FetchDayCapacities(ctx); ferr == nil {
					if updated, ok := fresh[d]; ok {
						fmt.Fprintf(os.Stdout, "remaining on %s: %d of %d\n", d, updated.Remaining(), updated.Limit)
					}
				}
			})

			wz.Open(date, day.Slots)
			if err := wz.SelectSlot(slotID); err != nil {
				return err
			}
			if err := wz.Next(ctx); err != nil { // -> details
				return fmt.Errorf("%s", wz.ValidationError())
			}
			wz.SetDetails(name, email, phone, people)
			if err := wz.Next(ctx); err != nil { // -> confirmation
				return fmt.Errorf("%s", wz.ValidationError())
			}
			if err := wz.Next(ctx); err != nil { // submit
				return fmt.Errorf("booking failed: %s", wz.ValidationError())
			}

			slot := wz.Selected()
			fmt.Fprintf(os.Stdout, "booked %s %s-%s with %s for %d people, total %d yen\n",
				date, slot.Start, slot.End, slot.ResourceName, wz.Customer().People, wz.TotalPrice())
			return wz.Acknowledge()
		},
	}

	c.Flags().StringVar(&date, "date", "", "reservation date (YYYY-MM-DD)")
	c.Flags().IntVar(&slotID, "slot", 0, "slot id (see availability)")
	c.Flags().StringVar(&name, "name", "", "customer name")
	c.Flags().StringVar(&email, "email", "", "customer email")
	c.Flags().StringVar(&phone, "phone", "", "customer phone")
	c.Flags().IntVar(&people, "people", 1, "party size (1-4)")
	_ = c.MarkFlagRequired("date")
	_ = c.MarkFlagRequired("slot")
	_ = c.MarkFlagRequired("name")
	_ = c.MarkFlagRequired("email")
	return c
}
