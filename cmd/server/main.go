package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"clinic-scheduling-api/internal/auth"
	"clinic-scheduling-api/internal/config"
	"clinic-scheduling-api/internal/logging"
	"clinic-scheduling-api/internal/model"
	"clinic-scheduling-api/internal/store"
)

func main() {
	root := &cobra.Command{
		Use:           "clinic-scheduling-api",
		Short:         "Clinic appointment scheduling service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	serve := serveCmd()
	root.AddCommand(serve, migrateCmd(), tokenCmd())
	// no subcommand means serve
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the gRPC and HTTP servers",
		RunE: func(cmd *cobra.Command, args []string) error {
			demo, _ := cmd.Flags().GetBool("demo")
			demoPassword, _ := cmd.Flags().GetString("demo-password")
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, demo, demoPassword)
		},
	}
	cmd.Flags().Bool("demo", false, "Seed doctor 7, a patient and an admin")
	cmd.Flags().String("demo-password", "clinic-demo", "Password of the seeded accounts")
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.InMemory() {
				return fmt.Errorf("DATABASE_URL is required for migrate")
			}
			log := logging.New(cfg.LogLevel, cfg.LogFormat)

			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			pool, err := store.Connect(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			n, err := store.Migrate(ctx, pool, cfg.Policy())
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			log.Info().Int("applied", n).Str("policy", cfg.Policy().String()).Msg("migrations done")
			return nil
		},
	}
}

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token for operators and local testing",
		RunE: func(cmd *cobra.Command, args []string) error {
			subject, _ := cmd.Flags().GetString("subject")
			roleName, _ := cmd.Flags().GetString("role")
			role, err := model.ParseRole(roleName)
			if err != nil {
				return err
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			tok, err := auth.NewAuthority(cfg.JWTSecret, cfg.TokenTTL).Issue(subject, role, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok.Raw)
			return nil
		},
	}
	cmd.Flags().String("subject", "", "User id the token is issued to")
	cmd.Flags().String("role", "PATIENT", "PATIENT, DOCTOR or ADMIN")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}
