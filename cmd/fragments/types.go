package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sagarc03/fragments"
	"github.com/sagarc03/fragments/config"
)

var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "List supported content types and their conversions",
	RunE:  runTypes,
}

func init() {
	rootCmd.AddCommand(typesCmd)
}

func runTypes(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	converter, err := newConverter(cfg)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "TYPE\tFAMILY\tEXT\tCONVERTS TO")

	for _, t := range fragments.SupportedTypes() {
		family, _ := fragments.FamilyOf(t)
		ext, _ := fragments.ExtensionForType(t)
		mimeType, _ := fragments.ParseMimeType(t)
		formats := converter.Formats(mimeType)
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", t, family, ext, strings.Join(formats, ", "))
	}

	return tw.Flush()
}
