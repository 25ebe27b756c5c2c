// Command dbgw runs the DBCloud MCP gateway.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/FreePeak/db-mcp-gateway/internal/config"
	"github.com/FreePeak/db-mcp-gateway/internal/infrastructure/catalog"
	"github.com/FreePeak/db-mcp-gateway/internal/infrastructure/logging"
	"github.com/FreePeak/db-mcp-gateway/internal/infrastructure/server"
	"github.com/FreePeak/db-mcp-gateway/internal/infrastructure/server/client"
	"github.com/FreePeak/db-mcp-gateway/internal/infrastructure/upstream"
	"github.com/FreePeak/db-mcp-gateway/internal/interfaces/rest"
	"github.com/FreePeak/db-mcp-gateway/internal/usecases"
	"github.com/FreePeak/db-mcp-gateway/internal/usecases/dbtools"
)

const (
	serverName    = "db-mcp-gateway"
	serverVersion = "0.1.0"

	shutdownTimeout = 10 * time.Second
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "dbgw",
		Short:         "MCP gateway for the DBCloud management API",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newServeCmd(), newInitCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	logger, err := logging.NewProduction()
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("startup failed", logging.Fields{"error": err.Error()})
		return err
	}

	api := upstream.NewClient(cfg.APIURL, cfg.APIKey)
	registry := dbtools.NewRegistry(api)

	cat, err := catalog.New(registry.Tools(), registry.Resources())
	if err != nil {
		logger.Error("catalog construction failed", logging.Fields{"error": err.Error()})
		return err
	}

	service := usecases.NewGatewayService(usecases.GatewayConfig{
		Name:    serverName,
		Version: serverVersion,
		Catalog: cat,
		Logger:  logger,
	})

	sessions := server.NewSessionRegistry()
	srv := rest.NewServer(service, sessions, cfg.AuthToken, cfg.Addr(), logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Stop(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		logger.Error("server failed", logging.Fields{"error": err.Error()})
		return err
	}
}

func newInitCmd() *cobra.Command {
	var (
		configPath string
		gatewayURL string
		entryName  string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Register the gateway with Claude Desktop",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			path := configPath
			if path == "" {
				path, err = client.DefaultConfigPath()
				if err != nil {
					return err
				}
			}

			url := gatewayURL
			if url == "" {
				url = fmt.Sprintf("http://localhost:%d", cfg.Port)
			}

			if err := client.NewClaudeDesktopConfig(path).Write(entryName, url, cfg.AuthToken); err != nil {
				return err
			}

			cmd.Printf("wrote %s entry to %s\n", entryName, path)
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to claude_desktop_config.json (defaults to the OS config dir)")
	cmd.Flags().StringVar(&gatewayURL, "url", "", "public URL of this gateway (defaults to localhost with the configured port)")
	cmd.Flags().StringVar(&entryName, "name", serverName, "name of the client config entry")
	return cmd
}
