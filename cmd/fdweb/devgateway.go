// AngelaMos | 2026
// devgateway.go

package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/carterperez-dev/templates/fooddelivery-web/internal/config"
	"github.com/carterperez-dev/templates/fooddelivery-web/internal/devgateway"
)

func newDevGatewayCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "devgateway",
		Short: "Run an in-memory stand-in for the food delivery API",
		Long: "Serves login, registration, approval state, profile and admin endpoints\n" +
			"over seeded accounts. Every seeded account uses the password \"" + devgateway.SeedPassword + "\".",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runDevGateway(ctx, flagConfig, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to dev_gateway.addr)")
	return cmd
}

func runDevGateway(ctx context.Context, configPath, addr string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	if addr == "" {
		addr = cfg.DevGateway.Addr
	}

	srv, err := devgateway.New(cfg.DevGateway, cfg.Gateway, devgateway.WithLogger(logger))
	if err != nil {
		return err
	}

	logger.Info("seeded accounts",
		"usernames", devgateway.SeedUsernames(),
		"password", devgateway.SeedPassword,
	)
	return srv.ListenAndServe(ctx, addr)
}
