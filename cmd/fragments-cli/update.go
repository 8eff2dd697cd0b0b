package main

import (
	"github.com/spf13/cobra"

	"github.com/sagarc03/fragments/clientcli"
)

var updateContentType string

var updateCmd = &cobra.Command{
	Use:   "update <id> <local-path>",
	Short: "Replace the data of a fragment",
	Long: `Replace the data of an existing fragment with a local file. A fragment's
type never changes, so the file must have the same content type.

Examples:
  fragments-cli update 3f1c... ./notes.md`,
	Args: cobra.ExactArgs(2),
	RunE: runUpdate,
}

func init() {
	updateCmd.Flags().StringVarP(&updateContentType, "content-type", "t", "", "override content-type")
}

func runUpdate(cmd *cobra.Command, args []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	info, err := client.Update(cmd.Context(), clientcli.UpdateOptions{
		ID:          args[0],
		LocalPath:   args[1],
		ContentType: updateContentType,
	})
	if err != nil {
		return err
	}

	return getFormatter().FormatInfo(cmd.OutOrStdout(), info)
}
