package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sagarc03/fragments"
	"github.com/sagarc03/fragments/config"
)

var removeCmd = &cobra.Command{
	Use:   "remove [flags] <id1> [id2] ...",
	Short: "Delete fragments of a user",
	Long: `Delete fragments by id, metadata and payload.

Examples:
  # Remove a single fragment
  fragments remove --user alice@example.com 3f1c...

  # Remove every fragment the user owns
  fragments remove --user alice@example.com --all`,
	RunE: runRemove,
}

var (
	removeUser  string
	removeOwner string
	removeAll   bool
	removeQuiet bool
)

func init() {
	removeCmd.Flags().StringVarP(&removeUser, "user", "u", "", "username that owns the fragments")
	removeCmd.Flags().StringVar(&removeOwner, "owner", "", "raw owner id (hashed username), instead of --user")
	removeCmd.Flags().BoolVar(&removeAll, "all", false, "remove every fragment of the owner")
	removeCmd.Flags().BoolVarP(&removeQuiet, "quiet", "q", false, "suppress per-fragment output")
	removeCmd.MarkFlagsMutuallyExclusive("user", "owner")
	rootCmd.AddCommand(removeCmd)
}

func runRemove(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	if err := requirePersistent(cfg); err != nil {
		return fmt.Errorf("remove: %w", err)
	}

	ownerID, err := resolveOwner(removeUser, removeOwner)
	if err != nil {
		return err
	}

	if removeAll == (len(args) > 0) {
		return errors.New("give fragment ids or --all, not both")
	}

	ctx := cmd.Context()

	service, b, err := openService(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = b.Close() }()

	ids := args
	if removeAll {
		listing, listErr := service.ByUser(ctx, ownerID, false)
		if listErr != nil {
			return fmt.Errorf("list fragments: %w", listErr)
		}
		ids = listing.IDs
	}

	removed := 0
	notFound := 0

	for _, id := range ids {
		deleteErr := service.Delete(ctx, ownerID, id)
		if errors.Is(deleteErr, fragments.ErrNotFound) {
			notFound++
			if !removeQuiet {
				slog.Warn("not found", "id", id)
			}
			continue
		}
		if deleteErr != nil {
			return fmt.Errorf("remove %s: %w", id, deleteErr)
		}
		removed++
		if !removeQuiet {
			slog.Info("removed", "id", id)
		}
	}

	slog.Info("remove complete", "removed", removed, "not_found", notFound)
	return nil
}
