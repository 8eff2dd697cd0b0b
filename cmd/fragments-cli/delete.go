package main

import (
	"github.com/spf13/cobra"

	"github.com/sagarc03/fragments/clientcli"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <id> [id...]",
	Short: "Delete fragments",
	Long: `Delete one or more fragments.

Examples:
  fragments-cli delete 3f1c...
  fragments-cli list -q | xargs fragments-cli delete -q`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDelete,
}

func runDelete(cmd *cobra.Command, args []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	results, err := client.Delete(cmd.Context(), clientcli.DeleteOptions{IDs: args})
	if err != nil {
		return err
	}

	if err := getFormatter().FormatDelete(cmd.OutOrStdout(), results); err != nil {
		return err
	}

	if clientcli.HasDeleteErrors(results) {
		return &exitError{code: 1}
	}

	return nil
}
