package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/project-dashboard/internal/project"
)

func newCreateCmd() *cobra.Command {
	var req project.CreateRequest
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Adds a project to the store",
		Long: `Validates and inserts one project, then publishes its project.created
event. Dates accept YYYY-MM-DD or RFC3339.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			created, err := appInstance.Service().Create(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("create project: %w", err)
			}
			appInstance.Logger().Info("project created", zap.String("project_id", created.ID))
			fmt.Fprintln(cmd.OutOrStdout(), created.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Name, "name", "", "project name (required)")
	cmd.Flags().StringVar(&req.Description, "description", "", "project description")
	cmd.Flags().StringVar(&req.Owner, "owner", "", "project owner")
	cmd.Flags().StringVar(&req.Status, "status", "", "one of: Not Started, Started, In Progress, At Risk, Complete")
	cmd.Flags().StringVar(&req.StartDate, "start-date", "", "start date")
	cmd.Flags().StringVar(&req.EndDate, "end-date", "", "end date")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}
