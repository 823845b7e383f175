package cli

import (
	"github.com/spf13/cobra"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display declview version and build information.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			output, _ := cmd.Root().PersistentFlags().GetString("output")
			if _, err := NewRenderer(cmd.OutOrStdout(), output); err != nil {
				return err
			}
			return PrintVersion(cmd.OutOrStdout(), toolName, output)
		},
	}
}
