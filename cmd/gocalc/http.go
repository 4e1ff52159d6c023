package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dshills/gocalc-mcp/internal/httpapi"
)

func newHTTPCmd(opts *options) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "http",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			if addr == "" {
				addr = a.settings.HTTPAddr
			}
			server := httpapi.NewServer(a.service, addr, a.logger)

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sigChan)

			errChan := make(chan error, 1)
			go func() {
				a.logger.Info("HTTP API listening", slog.String("addr", addr))
				errChan <- server.Start()
			}()

			select {
			case sig := <-sigChan:
				a.logger.Info("shutting down", slog.String("signal", sig.String()))
			case <-cmd.Context().Done():
			case err := <-errChan:
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), a.settings.ShutdownTimeout)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				return err
			}
			return <-errChan
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default 127.0.0.1:8080)")
	return cmd
}
