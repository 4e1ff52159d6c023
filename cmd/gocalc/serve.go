package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dshills/gocalc-mcp/internal/mcp"
	"github.com/dshills/gocalc-mcp/internal/storage"
)

func newServeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			a.logger.Info("gocalc MCP server starting",
				slog.String("version", version),
				slog.String("build_mode", storage.BuildMode),
				slog.String("driver", storage.DriverName),
				slog.Bool("history", a.settings.HistoryEnabled),
			)

			server, err := mcp.NewServer(a.service)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sigChan)

			errChan := make(chan error, 1)
			go func() {
				a.logger.Info("MCP server ready, listening on stdio")
				errChan <- server.Serve(ctx)
			}()

			select {
			case sig := <-sigChan:
				a.logger.Info("shutting down", slog.String("signal", sig.String()))
				cancel()
			case err := <-errChan:
				if err != nil {
					return err
				}
			}

			a.logger.Info("server stopped")
			return nil
		},
	}
}
