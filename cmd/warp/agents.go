package main

import (
	"context"
	"os"

	"github.com/aretw0/warp/internal/cli"
	"github.com/spf13/cobra"
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List and manage agents",
}

var agentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List agents",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, s *cli.Session, p cli.Printer) error {
			return cli.ListAgents(ctx, s, p)
		})
	},
}

var agentsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show an agent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		return withSession(cmd, func(ctx context.Context, s *cli.Session, p cli.Printer) error {
			return cli.ShowAgent(ctx, s, p, args[0], format)
		})
	},
}

var agentsCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create an agent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		workflow, _ := cmd.Flags().GetString("workflow")
		return withSession(cmd, func(ctx context.Context, s *cli.Session, p cli.Printer) error {
			return cli.CreateAgent(ctx, s, p, args[0], workflow)
		})
	},
}

var agentsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an agent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, s *cli.Session, p cli.Printer) error {
			return cli.DeleteAgent(ctx, s, args[0])
		})
	},
}

var agentsStartCmd = &cobra.Command{
	Use:   "start <id>",
	Short: "Start an agent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, s *cli.Session, p cli.Printer) error {
			return cli.SetAgentStarted(ctx, s, args[0], true)
		})
	},
}

var agentsStopCmd = &cobra.Command{
	Use:   "stop <id>",
	Short: "Stop an agent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, s *cli.Session, p cli.Printer) error {
			return cli.SetAgentStarted(ctx, s, args[0], false)
		})
	},
}

var varsCmd = &cobra.Command{
	Use:   "vars",
	Short: "Manage agent variables",
}

var varsExportCmd = &cobra.Command{
	Use:   "export <agent>",
	Short: "Print an agent's variables",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		query, _ := cmd.Flags().GetString("query")
		return withSession(cmd, func(ctx context.Context, s *cli.Session, p cli.Printer) error {
			return cli.ExportVars(ctx, s, p, args[0], format, query)
		})
	},
}

var varsImportCmd = &cobra.Command{
	Use:   "import <agent> <file>",
	Short: "Merge variables from a yaml or json file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[1])
		if err != nil {
			return err
		}
		return withSession(cmd, func(ctx context.Context, s *cli.Session, p cli.Printer) error {
			return cli.ImportVars(ctx, s, args[0], data)
		})
	},
}

var varsSetCmd = &cobra.Command{
	Use:   "set <agent> <name> <value>",
	Short: "Set a variable; JSON values are parsed",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, s *cli.Session, p cli.Printer) error {
			return cli.SetVar(ctx, s, args[0], args[1], args[2])
		})
	},
}

var varsAddCmd = &cobra.Command{
	Use:   "add <agent> <name> <type>",
	Short: "Declare a variable (text, array, number or object)",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, s *cli.Session, p cli.Printer) error {
			return cli.AddVar(ctx, s, args[0], args[1], args[2])
		})
	},
}

var varsDeleteCmd = &cobra.Command{
	Use:   "delete <agent> <name>",
	Short: "Delete a variable",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, s *cli.Session, p cli.Printer) error {
			return cli.DeleteVar(ctx, s, args[0], args[1])
		})
	},
}

func init() {
	agentsShowCmd.Flags().StringP("format", "f", cli.FormatSummary, "Output format (summary, yaml, json)")
	agentsCreateCmd.Flags().String("workflow", "", "Workflow the agent runs")
	varsExportCmd.Flags().StringP("format", "f", cli.FormatYAML, "Output format (yaml, json)")
	varsExportCmd.Flags().StringP("query", "q", "", "jq expression applied before printing")

	varsCmd.AddCommand(varsExportCmd, varsImportCmd, varsSetCmd, varsAddCmd, varsDeleteCmd)
	agentsCmd.AddCommand(agentsListCmd, agentsShowCmd, agentsCreateCmd, agentsDeleteCmd,
		agentsStartCmd, agentsStopCmd, varsCmd)
	rootCmd.AddCommand(agentsCmd)
}
