package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/salon-booking/internal/auth"
	"github.com/example/salon-booking/internal/config"
	"github.com/example/salon-booking/internal/db"
	"github.com/example/salon-booking/internal/migrate"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage local customer accounts",
	}
	cmd.AddCommand(newUserAddCmd())
	return cmd
}

func newUserAddCmd() *cobra.Command {
	var email, password, name, phone string

	c := &cobra.Command{
		Use:   "add",
		Short: "Add a customer account (email/password)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}

			ctx := context.Background()
			d, err := db.Open(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer d.Close()

			if err := migrate.Up(ctx, d); err != nil {
				return err
			}

			store := auth.NewStore(d, cfg.CookieHashKey, cfg.CookieBlockKey)
			if err := store.CreateCustomer(ctx, email, name, phone, password); err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "created customer %q\n", email)
			return nil
		},
	}

	c.Flags().StringVar(&email, "email", "", "customer email (also the booking history key)")
	c.Flags().StringVar(&password, "password", "", "password")
	c.Flags().StringVar(&name, "name", "", "display name")
	c.Flags().StringVar(&phone, "phone", "", "phone number")
	_ = c.MarkFlagRequired("email")
	_ = c.MarkFlagRequired("password")
	return c
}
