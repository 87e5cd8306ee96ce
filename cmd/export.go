package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Writes a snapshot of projects and status counts to the export backend",
		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			res, err := appInstance.Service().Export(cmd.Context())
			if err != nil {
				return fmt.Errorf("export snapshot: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%d projects)\n", res.URI, res.Count)
			return nil
		},
	}
}
