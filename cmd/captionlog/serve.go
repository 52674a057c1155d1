package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/rpggio/captionlog/internal/mcp"
)

func newServeCmd() *cobra.Command {
	var transport string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the read-only MCP server",
		Long:  "Serve activity streams as MCP tools over stdio or streamable HTTP.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd.Context(), func(d *deps) error {
				if transport != "" {
					d.cfg.Transport.Mode = transport
				}
				server := mcp.NewServer(mcp.Config{
					Services: mcp.Services{
						Streams:  d.streams,
						Renderer: d.renderer,
					},
					Resolver:      d.dir,
					AuthEnabled:   d.cfg.Auth.Enabled,
					DefaultUserID: d.cfg.Auth.DefaultUserID,
					TransportMode: d.cfg.Transport.Mode,
					Version:       version,
					Logger:        d.logger,
				})

				switch d.cfg.Transport.Mode {
				case "stdio":
					return runStdio(cmd.Context(), d, server)
				case "http":
					return runHTTP(cmd.Context(), d, server)
				default:
					return fmt.Errorf("unknown transport %q: want stdio or http", d.cfg.Transport.Mode)
				}
			})
		},
	}

	cmd.Flags().StringVar(&transport, "transport", "", "Transport mode: stdio or http (overrides config)")

	return cmd
}

func runStdio(ctx context.Context, d *deps, server *sdkmcp.Server) error {
	d.logger.Info("starting stdio transport", "auth", "disabled")
	// Serve returns when stdin closes or ctx is canceled by a signal.
	if err := mcp.Serve(ctx, server); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("stdio server: %w", err)
	}
	d.logger.Info("shutting down")
	return nil
}

func runHTTP(ctx context.Context, d *deps, server *sdkmcp.Server) error {
	addr := fmt.Sprintf("%s:%d", d.cfg.Server.Host, d.cfg.Server.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mcp.NewHTTPHandler(server, d.logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		d.logger.Info("server listening", "addr", addr, "auth", d.cfg.Auth.Enabled)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	d.logger.Info("shutting down")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
