package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"parcel-booking/cmd/bootstrap"
	"parcel-booking/internal/usecase/commands"
	"parcel-booking/internal/worker"
	"parcel-booking/migrations"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

var Version = "dev"

// deps is what the operator commands need from the service graph.
type deps struct {
	Pool      *pgxpool.Pool
	Reconcile commands.ReconciliationCommands
	Relay     *worker.NotificationRelay
	Purger    *worker.StagingPurger
}

func main() {
	rootCmd := &cobra.Command{
		Use:     "bookingctl",
		Short:   "Operator tooling for the parcel-booking service",
		Version: Version,
	}

	rootCmd.AddCommand(redriveCmd())
	rootCmd.AddCommand(purgeCmd())
	rootCmd.AddCommand(relayCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// withApp starts the core graph (no HTTP server, no background workers) for the duration of fn.
func withApp(ctx context.Context, fn func(ctx context.Context, d deps) error) error {
	var d deps
	app := fx.New(
		bootstrap.CoreModule,
		fx.NopLogger,
		fx.Populate(&d.Pool, &d.Reconcile, &d.Relay, &d.Purger),
	)
	if err := app.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = app.Stop(stopCtx)
	}()
	return fn(ctx, d)
}

func redriveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "redrive [merchantRefId...]",
		Short: "Re-run payment reconciliation for merchant references",
		Long: `Queries the gateway for each reference and applies the verified status.
Safe to repeat: an already confirmed booking is returned unchanged.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, d deps) error {
				enc := json.NewEncoder(cmd.OutOrStdout())
				failed := 0
				for _, ref := range args {
					result, err := d.Reconcile.Redrive(ctx, ref)
					if err != nil {
						failed++
						fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", ref, err)
						continue
					}
					if err := enc.Encode(map[string]any{
						"merchantRefId": result.MerchantReference,
						"bookingId":     result.BookingID,
						"status":        result.Status,
					}); err != nil {
						return err
					}
				}
				if failed > 0 {
					return fmt.Errorf("%d of %d references failed", failed, len(args))
				}
				return nil
			})
		},
	}
}

func purgeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Delete resolved staged bookings whose grace window has passed",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, d deps) error {
				n, err := d.Purger.RunOnce(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "purged %d staged bookings\n", n)
				return nil
			})
		},
	}
}

func relayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "relay",
		Short: "Deliver due notification jobs once",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, d deps) error {
				n, err := d.Relay.RunOnce(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "processed %d notification jobs\n", n)
				return nil
			})
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, d deps) error {
				applied, err := migrations.Apply(ctx, d.Pool)
				for _, name := range applied {
					fmt.Fprintf(cmd.OutOrStdout(), "applied %s\n", name)
				}
				return err
			})
		},
	}
}
