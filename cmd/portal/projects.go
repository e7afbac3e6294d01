package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"clientportal/internal/domain"
	"clientportal/internal/engine"
)

func projectCmd() *cobra.Command {
	prj := &cobra.Command{Use: "project", Short: "Manage projects"}
	prj.AddCommand(projectListCmd())
	prj.AddCommand(projectCreateCmd())
	prj.AddCommand(projectShowCmd())
	prj.AddCommand(projectUpdateCmd())
	prj.AddCommand(projectDeleteCmd())
	prj.AddCommand(projectStatsCmd())
	return prj
}

func projectListCmd() *cobra.Command {
	var status, priority, search string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your projects, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, userID string) error {
				items, err := e.ListProjects(ctx, userID, domain.ProjectFilter{
					Status:   domain.ProjectStatus(status),
					Priority: domain.ProjectPriority(priority),
					Search:   search,
				})
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Title", "Status", "Priority", "Progress", "Due"})
				for _, p := range items {
					tw.AppendRow(table.Row{p.ID, p.Title, p.Status, p.Priority, fmt.Sprintf("%d%%", p.Progress), derefString(p.EndDate)})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "status filter")
	cmd.Flags().StringVar(&priority, "priority", "", "priority filter")
	cmd.Flags().StringVar(&search, "search", "", "match title or description")
	return cmd
}

func projectCreateCmd() *cobra.Command {
	var (
		in             domain.NewProject
		status         string
		priority       string
		budget         float64
		estimatedHours int
		startDate      string
		endDate        string
		tags           string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create project",
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Status = domain.ProjectStatus(status)
			in.Priority = domain.ProjectPriority(priority)
			in.StartDate = optionalString(startDate)
			in.EndDate = optionalString(endDate)
			if cmd.Flags().Changed("budget") {
				in.Budget = &budget
			}
			if cmd.Flags().Changed("estimated-hours") {
				in.EstimatedHours = &estimatedHours
			}
			if tags != "" {
				in.Tags = strings.Split(tags, ",")
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, userID string) error {
				p, err := e.CreateProject(ctx, userID, in)
				if err != nil {
					return err
				}
				return printJSONOrTable(p)
			})
		},
	}
	cmd.Flags().StringVar(&in.Title, "title", "", "title")
	cmd.Flags().StringVar(&in.Description, "description", "", "description")
	cmd.Flags().StringVar(&status, "status", "", "initial status (default new)")
	cmd.Flags().StringVar(&priority, "priority", "", "priority (default medium)")
	cmd.Flags().Float64Var(&budget, "budget", 0, "budget")
	cmd.Flags().IntVar(&estimatedHours, "estimated-hours", 0, "estimated hours")
	cmd.Flags().StringVar(&startDate, "start-date", "", "start date YYYY-MM-DD")
	cmd.Flags().StringVar(&endDate, "end-date", "", "end date YYYY-MM-DD")
	cmd.Flags().StringVar(&tags, "tags", "", "comma-separated tags")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func projectShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <project-id>",
		Short: "Show a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, userID string) error {
				p, err := e.OwnedProject(ctx, args[0], userID)
				if err != nil {
					return err
				}
				return printJSONOrTable(p)
			})
		},
	}
	return cmd
}

func projectUpdateCmd() *cobra.Command {
	var (
		title, description, status, priority string
		startDate, endDate, tags              string
		budget                                float64
		estimatedHours, actualHours, progress int
		clearBudget, clearEstimatedHours      bool
	)
	cmd := &cobra.Command{
		Use:   "update <project-id>",
		Short: "Update a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch := domain.ProjectPatch{ClearBudget: clearBudget, ClearEstimatedHours: clearEstimatedHours}
			flags := cmd.Flags()
			if flags.Changed("title") {
				patch.Title = &title
			}
			if flags.Changed("description") {
				patch.Description = &description
			}
			if flags.Changed("status") {
				s := domain.ProjectStatus(status)
				patch.Status = &s
			}
			if flags.Changed("priority") {
				p := domain.ProjectPriority(priority)
				patch.Priority = &p
			}
			if flags.Changed("budget") {
				patch.Budget = &budget
			}
			if flags.Changed("start-date") {
				patch.StartDate = &startDate
			}
			if flags.Changed("end-date") {
				patch.EndDate = &endDate
			}
			if flags.Changed("estimated-hours") {
				patch.EstimatedHours = &estimatedHours
			}
			if flags.Changed("actual-hours") {
				patch.ActualHours = &actualHours
			}
			if flags.Changed("progress") {
				patch.Progress = &progress
			}
			if flags.Changed("tags") {
				list := []string{}
				if tags != "" {
					list = strings.Split(tags, ",")
				}
				patch.Tags = &list
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, userID string) error {
				if _, err := e.OwnedProject(ctx, args[0], userID); err != nil {
					return err
				}
				p, err := e.UpdateProject(ctx, args[0], patch, userID)
				if err != nil {
					return err
				}
				return printJSONOrTable(p)
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "title")
	cmd.Flags().StringVar(&description, "description", "", "description")
	cmd.Flags().StringVar(&status, "status", "", "status")
	cmd.Flags().StringVar(&priority, "priority", "", "priority")
	cmd.Flags().Float64Var(&budget, "budget", 0, "budget")
	cmd.Flags().StringVar(&startDate, "start-date", "", "start date YYYY-MM-DD (empty clears)")
	cmd.Flags().StringVar(&endDate, "end-date", "", "end date YYYY-MM-DD (empty clears)")
	cmd.Flags().IntVar(&estimatedHours, "estimated-hours", 0, "estimated hours")
	cmd.Flags().IntVar(&actualHours, "actual-hours", 0, "actual hours")
	cmd.Flags().IntVar(&progress, "progress", 0, "progress 0-100")
	cmd.Flags().StringVar(&tags, "tags", "", "comma-separated tags (replaces)")
	cmd.Flags().BoolVar(&clearBudget, "clear-budget", false, "unset the budget")
	cmd.Flags().BoolVar(&clearEstimatedHours, "clear-estimated-hours", false, "unset estimated hours")
	return cmd
}

func projectDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <project-id>",
		Short: "Delete a project with its requirements and activity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, userID string) error {
				if _, err := e.OwnedProject(ctx, args[0], userID); err != nil {
					return err
				}
				if err := e.DeleteProject(ctx, args[0]); err != nil {
					return err
				}
				return printJSONOrTable(map[string]string{"deleted": args[0]})
			})
		},
	}
	return cmd
}

func projectStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Count your projects by status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine, userID string) error {
				stats, err := e.ProjectStats(ctx, userID)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(stats)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Total", "Active", "Completed", "On hold"})
				tw.AppendRow(table.Row{stats.Total, stats.Active, stats.Completed, stats.OnHold})
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}
