package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/fragments/config"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "fragments",
	Short:   "Owner-scoped fragment storage with format conversion",
	Long: `Fragments stores small typed pieces of text and image data per user
and serves them over an authenticated REST API, converting between
compatible formats (markdown to html, png to webp, ...) on read.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configFiles, _ := cmd.Flags().GetStringSlice("config")

		cfg, err := config.Load(configFiles, cmd.Flags())
		if err != nil {
			return err
		}

		setupLogging(cfg)
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringSlice("config", nil, "config file path, repeatable; later files override earlier ones (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("db-type", "", "metadata backend: memory, sqlite, postgres (default: memory, env: FRAGMENTS_DATABASE_TYPE)")
	rootCmd.PersistentFlags().String("db-dsn", "", "database connection string (default: fragments.db, env: FRAGMENTS_DATABASE_DSN)")
	rootCmd.PersistentFlags().String("storage-type", "", "blob backend: memory, filesystem, s3, database (default: memory, env: FRAGMENTS_STORAGE_TYPE)")
	rootCmd.PersistentFlags().String("storage-path", "", "filesystem storage directory (default: ./data, env: FRAGMENTS_STORAGE_PATH)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (env: FRAGMENTS_LOG_LEVEL)")
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
