package main

import (
	"github.com/spf13/cobra"

	"github.com/sagarc03/fragments/clientcli"
)

var (
	uploadRecursive   bool
	uploadContentType string
)

var uploadCmd = &cobra.Command{
	Use:   "upload <local-path>",
	Short: "Create fragments from local files",
	Long: `Create one fragment per file. The content type is taken from the file
extension, else sniffed from the content; override it with --content-type.

Examples:
  fragments-cli upload ./notes.md
  fragments-cli upload -r ./images/
  fragments-cli upload --content-type "text/plain; charset=utf-8" ./README`,
	Args: cobra.ExactArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().BoolVarP(&uploadRecursive, "recursive", "r", false, "upload directory recursively")
	uploadCmd.Flags().StringVarP(&uploadContentType, "content-type", "t", "", "override content-type")
}

func runUpload(cmd *cobra.Command, args []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	results, err := client.Upload(cmd.Context(), clientcli.UploadOptions{
		LocalPath:   args[0],
		ContentType: uploadContentType,
		Recursive:   uploadRecursive,
	})
	if err != nil {
		return err
	}

	if err := getFormatter().FormatUpload(cmd.OutOrStdout(), results); err != nil {
		return err
	}

	for i := range results {
		if results[i].Err != nil {
			return &exitError{code: 1}
		}
	}

	return nil
}
