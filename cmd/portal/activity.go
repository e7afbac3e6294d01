package main

import (
	"context"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"clientportal/internal/domain"
	"clientportal/internal/engine"
)

func activityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Project activity log",
		Long:  "The diary of a project: creation, status changes, and requirements added or moved.",
	}
	cmd.AddCommand(activityTailCmd())
	return cmd
}

func activityTailCmd() *cobra.Command {
	var (
		projectID string
		n         int
		typ       string
	)
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Show the latest activity of a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, userID string) error {
				if _, err := e.OwnedProject(ctx, projectID, userID); err != nil {
					return err
				}
				items, err := e.ListActivity(ctx, domain.ActivityFilter{
					ProjectID:  projectID,
					UpdateType: domain.UpdateType(typ),
					Limit:      n,
				})
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "When", "Type", "Message", "By"})
				for _, entry := range items {
					tw.AppendRow(table.Row{entry.ID, entry.CreatedAt, entry.UpdateType, entry.Message, entry.CreatedBy})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&projectID, "project", "", "project id")
	cmd.Flags().IntVar(&n, "n", 20, "number of entries")
	cmd.Flags().StringVar(&typ, "type", "", "update type filter")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}
