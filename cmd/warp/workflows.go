package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/warp/internal/cli"
	"github.com/spf13/cobra"
)

var workflowsCmd = &cobra.Command{
	Use:     "workflows",
	Aliases: []string{"wf"},
	Short:   "List and manage workflows",
}

var workflowsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List workflows",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, s *cli.Session, p cli.Printer) error {
			return cli.ListWorkflows(ctx, s, p)
		})
	},
}

var workflowsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a workflow as a summary, mermaid diagram, yaml or json",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		return withSession(cmd, func(ctx context.Context, s *cli.Session, p cli.Printer) error {
			return cli.ShowWorkflow(ctx, s, p, args[0], format)
		})
	},
}

var workflowsExportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Write a workflow layout as YAML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, s *cli.Session, p cli.Printer) error {
			return cli.ExportWorkflow(ctx, s, p, args[0])
		})
	},
}

var workflowsImportCmd = &cobra.Command{
	Use:   "import <file> [id]",
	Short: "Validate a layout file and store it, creating a workflow when no id is given",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		id := ""
		if len(args) == 2 {
			id = args[1]
		}
		name, _ := cmd.Flags().GetString("name")
		if name == "" && id == "" {
			name = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
		}
		return withSession(cmd, func(ctx context.Context, s *cli.Session, p cli.Printer) error {
			id, err := cli.ImportWorkflow(ctx, s, id, name, data)
			if err != nil {
				return err
			}
			cmd.Println(id)
			return nil
		})
	},
}

var workflowsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a workflow",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, s *cli.Session, p cli.Printer) error {
			return cli.DeleteWorkflow(ctx, s, confirmer(cmd), args[0])
		})
	},
}

var workflowsDraftsCmd = &cobra.Command{
	Use:   "drafts",
	Short: "List layouts that could not be saved",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, s *cli.Session, p cli.Printer) error {
			return cli.ListDrafts(ctx, s, p)
		})
	},
}

var workflowsRestoreCmd = &cobra.Command{
	Use:   "restore <id>",
	Short: "Save the kept draft of a workflow",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, s *cli.Session, p cli.Printer) error {
			return cli.RestoreDraft(ctx, s, args[0])
		})
	},
}

func init() {
	workflowsShowCmd.Flags().StringP("format", "f", cli.FormatSummary, "Output format (summary, mermaid, yaml, json)")
	workflowsImportCmd.Flags().String("name", "", "Workflow name")

	workflowsCmd.AddCommand(workflowsListCmd, workflowsShowCmd, workflowsExportCmd,
		workflowsImportCmd, workflowsDeleteCmd, workflowsDraftsCmd, workflowsRestoreCmd)
	rootCmd.AddCommand(workflowsCmd)
}
