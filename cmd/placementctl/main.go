package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"placementd/pkg/bus"
	"placementd/pkg/db"
)

func main() {
	_ = godotenv.Load()

	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "placementctl",
		Short:         "Utility for managing the placement portal database and events",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newMigrateCommand())
	cmd.AddCommand(newSeedCommand())
	cmd.AddCommand(newEventsCommand())
	return cmd
}

func requireDSN() (string, error) {
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		return "", fmt.Errorf("DB_DSN is required")
	}
	return dsn, nil
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			dsn, err := requireDSN()
			if err != nil {
				return err
			}
			pool, err := db.Open(ctx, dsn)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := db.Migrate(ctx, pool); err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, "migrations applied")
			return nil
		},
	}
}

func newSeedCommand() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load jobs, rounds, students and applications from a fixture file",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			dsn, err := requireDSN()
			if err != nil {
				return err
			}
			orm, err := db.OpenORM(dsn)
			if err != nil {
				return err
			}
			defer func() { _ = db.CloseORM(orm) }()

			counts, err := seedFromFile(ctx, orm, file)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "seeded %d jobs, %d rounds, %d students, %d applications\n",
				counts.Jobs, counts.Rounds, counts.Students, counts.Applications)
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Path to the YAML fixture file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newEventsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Inspect attendance events on the bus",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newEventsTailCommand())
	return cmd
}

// newEventsTailCommand streams bus events to stdout until interrupted.
func newEventsTailCommand() *cobra.Command {
	var (
		subject string
		durable string
	)

	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Print attendance events as they arrive",
		RunE: func(cmd *cobra.Command, args []string) error {
			url := os.Getenv("NATS_URL")
			if url == "" {
				return fmt.Errorf("NATS_URL is required")
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			b, err := bus.New(url)
			if err != nil {
				return err
			}
			defer b.Close()

			sub, err := b.Subscribe(ctx, subject, durable, func(_ context.Context, data []byte) error {
				fmt.Fprintf(os.Stdout, "%s\n", data)
				return nil
			})
			if err != nil {
				return err
			}
			defer func() { _ = sub.Close() }()

			<-ctx.Done()
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "placement.attendance.recorded", "Subject to subscribe to")
	cmd.Flags().StringVar(&durable, "durable", "placementctl-tail", "Durable consumer name")
	return cmd
}
