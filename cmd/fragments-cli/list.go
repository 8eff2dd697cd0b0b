package main

import (
	"github.com/spf13/cobra"

	"github.com/sagarc03/fragments/clientcli"
)

var listExpand bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List your fragments",
	Long: `List the ids of your fragments, or their metadata with --expand.

Examples:
  fragments-cli list
  fragments-cli list --expand
  fragments-cli list --json --expand | jq '.[] | select(.type == "image/png")'`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().BoolVarP(&listExpand, "expand", "x", false, "show full metadata")
}

func runList(cmd *cobra.Command, _ []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	result, err := client.List(cmd.Context(), clientcli.ListOptions{Expand: listExpand})
	if err != nil {
		return err
	}

	return getFormatter().FormatList(cmd.OutOrStdout(), result)
}
