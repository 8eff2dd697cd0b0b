package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sagarc03/fragments/config"
)

var reapCmd = &cobra.Command{
	Use:   "reap",
	Short: "Remove payloads that have no metadata",
	Long: `Scan blob storage and remove every payload whose fragment no longer
has a metadata record.

On split backends (for example sqlite metadata with filesystem storage)
a delete removes the record first and the payload second; if the second
step fails the payload is orphaned. Run this periodically to reclaim
that space.`,
	RunE: runReap,
}

func init() {
	rootCmd.AddCommand(reapCmd)
}

func runReap(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	if err := requirePersistent(cfg); err != nil {
		return fmt.Errorf("reap: %w", err)
	}

	ctx := cmd.Context()

	service, b, err := openService(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = b.Close() }()

	slog.Info("starting reap", "storage", cfg.Storage.Type)

	result, err := service.Reap(ctx)
	if err != nil {
		slog.Error("reap stopped", "scanned", result.Scanned, "removed", result.Removed, "err", err)
		return err
	}

	slog.Info("reap complete", "scanned", result.Scanned, "removed", result.Removed)
	return nil
}
