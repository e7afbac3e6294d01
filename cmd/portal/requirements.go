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

func requirementCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "requirement",
		Aliases: []string{"req"},
		Short:   "Manage project requirements",
	}
	cmd.AddCommand(requirementListCmd())
	cmd.AddCommand(requirementCreateCmd())
	cmd.AddCommand(requirementShowCmd())
	cmd.AddCommand(requirementUpdateCmd())
	cmd.AddCommand(requirementDeleteCmd())
	cmd.AddCommand(requirementStatsCmd())
	return cmd
}

// ownedRequirement loads id and checks userID owns its project.
func ownedRequirement(ctx context.Context, e engine.Engine, id, userID string) (domain.Requirement, error) {
	q, err := e.GetRequirement(ctx, id)
	if err != nil {
		return domain.Requirement{}, err
	}
	if _, err := e.OwnedProject(ctx, q.ProjectID, userID); err != nil {
		return domain.Requirement{}, err
	}
	return q, nil
}

func requirementListCmd() *cobra.Command {
	var projectID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List requirements of a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, userID string) error {
				if _, err := e.OwnedProject(ctx, projectID, userID); err != nil {
					return err
				}
				items, err := e.ListRequirements(ctx, projectID)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Title", "Status", "Priority", "Assignee", "Due"})
				for _, q := range items {
					tw.AppendRow(table.Row{q.ID, q.Title, q.Status, q.Priority, derefString(q.AssignedTo), derefString(q.DueDate)})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&projectID, "project", "", "project id")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func requirementCreateCmd() *cobra.Command {
	var (
		in       domain.NewRequirement
		priority string
		dueDate  string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Add a requirement to a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Priority = domain.RequirementPriority(priority)
			in.DueDate = optionalString(dueDate)
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, userID string) error {
				if _, err := e.OwnedProject(ctx, in.ProjectID, userID); err != nil {
					return err
				}
				q, err := e.CreateRequirement(ctx, in, userID)
				if err != nil {
					return err
				}
				return printJSONOrTable(q)
			})
		},
	}
	cmd.Flags().StringVar(&in.ProjectID, "project", "", "project id")
	cmd.Flags().StringVar(&in.Title, "title", "", "title")
	cmd.Flags().StringVar(&in.Description, "description", "", "description")
	cmd.Flags().StringVar(&priority, "priority", "", "low|medium|high|critical (default medium)")
	cmd.Flags().StringVar(&dueDate, "due-date", "", "due date YYYY-MM-DD")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func requirementShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <requirement-id>",
		Short: "Show a requirement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, userID string) error {
				q, err := ownedRequirement(ctx, e, args[0], userID)
				if err != nil {
					return err
				}
				return printJSONOrTable(q)
			})
		},
	}
}

func requirementUpdateCmd() *cobra.Command {
	var title, description, status, priority, assignee, dueDate string
	cmd := &cobra.Command{
		Use:   "update <requirement-id>",
		Short: "Update a requirement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch domain.RequirementPatch
			flags := cmd.Flags()
			if flags.Changed("title") {
				patch.Title = &title
			}
			if flags.Changed("description") {
				patch.Description = &description
			}
			if flags.Changed("status") {
				s := domain.RequirementStatus(status)
				patch.Status = &s
			}
			if flags.Changed("priority") {
				p := domain.RequirementPriority(priority)
				patch.Priority = &p
			}
			if flags.Changed("assignee") {
				patch.AssignedTo = &assignee
			}
			if flags.Changed("due-date") {
				patch.DueDate = &dueDate
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, userID string) error {
				if _, err := ownedRequirement(ctx, e, args[0], userID); err != nil {
					return err
				}
				q, err := e.UpdateRequirement(ctx, args[0], patch, userID)
				if err != nil {
					return err
				}
				return printJSONOrTable(q)
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "title")
	cmd.Flags().StringVar(&description, "description", "", "description")
	cmd.Flags().StringVar(&status, "status", "", "pending|approved|in_development|completed|rejected")
	cmd.Flags().StringVar(&priority, "priority", "", "low|medium|high|critical")
	cmd.Flags().StringVar(&assignee, "assignee", "", "assigned user id (empty clears)")
	cmd.Flags().StringVar(&dueDate, "due-date", "", "due date YYYY-MM-DD (empty clears)")
	return cmd
}

func requirementDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <requirement-id>",
		Short: "Delete a requirement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, userID string) error {
				if _, err := ownedRequirement(ctx, e, args[0], userID); err != nil {
					return err
				}
				if err := e.DeleteRequirement(ctx, args[0]); err != nil {
					return err
				}
				return printJSONOrTable(map[string]string{"deleted": args[0]})
			})
		},
	}
}

func requirementStatsCmd() *cobra.Command {
	var projectID string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Count a project's requirements by status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, userID string) error {
				if _, err := e.OwnedProject(ctx, projectID, userID); err != nil {
					return err
				}
				stats, err := e.RequirementStats(ctx, projectID)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(stats)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Total", "Pending", "Approved", "In development", "Completed", "High priority"})
				tw.AppendRow(table.Row{stats.Total, stats.Pending, stats.Approved, stats.InDevelopment, stats.Completed, stats.HighPriority})
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&projectID, "project", "", "project id")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}
