package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/fragments/clientcli"
)

var (
	getOutput string
	getStdout bool
)

var getCmd = &cobra.Command{
	Use:   "get <id>[.ext] [local-path]",
	Short: "Fetch fragment data, optionally converted",
	Long: `Fetch the data of a fragment. Append an extension to the id to fetch it
converted: .txt .md .html .json .png .jpg .webp .gif

Examples:
  fragments-cli get 3f1c...
  fragments-cli get 3f1c....html page.html
  fragments-cli get --stdout 3f1c....txt | less
  fragments-cli get -o thumb.webp 3f1c....webp`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runGet,
}

func init() {
	getCmd.Flags().StringVarP(&getOutput, "output", "o", "", "output file path")
	getCmd.Flags().BoolVar(&getStdout, "stdout", false, "write to stdout")
}

func runGet(cmd *cobra.Command, args []string) error {
	localPath := ""
	if len(args) > 1 {
		localPath = args[1]
	}
	if getOutput != "" {
		localPath = getOutput
	}
	if getStdout {
		localPath = "-"
	}

	client, err := getClient()
	if err != nil {
		return err
	}

	result, reader, err := client.Get(cmd.Context(), clientcli.GetOptions{
		ID:        args[0],
		LocalPath: localPath,
	})
	if err != nil {
		return err
	}

	if reader == nil {
		return getFormatter().FormatGet(cmd.OutOrStdout(), result)
	}

	defer func() { _ = reader.Close() }()
	if _, err := io.Copy(cmd.OutOrStdout(), reader); err != nil {
		return err
	}

	// Data went to stdout; metadata only in JSON mode, on stderr.
	if jsonOutput {
		return getFormatter().FormatGet(os.Stderr, result)
	}
	return nil
}
