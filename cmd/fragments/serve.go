package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sagarc03/fragments/config"
	fragmentshttp "github.com/sagarc03/fragments/http"
	"github.com/sagarc03/fragments/keybackend"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the fragments HTTP server.

The API is served under /v1 and requires HTTP Basic credentials for
one of the users configured under auth.users.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Int("port", 8080, "HTTP server port")
	serveCmd.Flags().String("api-url", "", "public base URL used in Location headers (default: request host)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	service, b, err := openService(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := b.Close(); closeErr != nil {
			slog.Warn("close backend", "err", closeErr)
		}
	}()

	slog.Info("storage ready",
		"database", cfg.Database.Type,
		"storage", cfg.Storage.Type,
		"atomic", service.Atomic(),
	)

	users, err := keybackend.NewUserStore(cfg.Auth.Users)
	if err != nil {
		return fmt.Errorf("load users: %w", err)
	}
	if users.Len() == 0 {
		slog.Warn("no users configured, every /v1 request will be rejected")
	}

	handlerConfig := fragmentshttp.HandlerConfig{
		APIURL:        cfg.Server.APIURL,
		MaxUploadSize: cfg.Server.MaxUploadSize,
		Version:       version,
		Users:         users,
		CORS:          cfg.CORS,
	}

	handler := fragmentshttp.NewHandler(&handlerConfig, service)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)

	server := &http.Server{
		Addr:              addr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		select {
		case <-sigCh:
		case <-ctx.Done():
		}

		slog.Info("shutting down server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "err", err)
		}
	}()

	slog.Info("starting server", "addr", addr, "users", users.Len())
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}
