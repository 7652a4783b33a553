package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/warp/internal/cli"
	"github.com/aretw0/warp/internal/config"
	"github.com/aretw0/warp/internal/presentation/tui"
	"github.com/aretw0/warp/pkg/ports"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var rootCmd = &cobra.Command{
	Use:           "warp",
	Short:         "Warp edits workflows and agents on a node-graph engine",
	Long:          `Warp connects to a workflow engine to list, inspect, import and export workflow layouts and to manage agents and their variables.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	addGlobalFlags(rootCmd.PersistentFlags())
}

func addGlobalFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "Config file (yaml, toml or json)")
	fs.String("log-level", "", "Log level (debug, info, warn, error)")
	fs.String("engine", "", "Engine address, overrides the config file")
	fs.String("transport", "", "Engine transport (websocket or jsonl)")
	fs.Bool("legacy", false, "Engine does not echo request ids")
	fs.BoolP("yes", "y", false, "Do not ask for confirmation")
}

// loadConfig reads the config file, then the environment, then flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(os.Getenv)

	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.Log.Level = v
	}
	if v, _ := cmd.Flags().GetString("engine"); v != "" {
		cfg.Engine.URL = v
	}
	if v, _ := cmd.Flags().GetString("transport"); v != "" {
		cfg.Engine.Transport = v
	}
	if cmd.Flags().Changed("legacy") {
		cfg.Engine.Legacy, _ = cmd.Flags().GetBool("legacy")
	}
	return cfg, nil
}

func confirmer(cmd *cobra.Command) ports.Confirmer {
	if yes, _ := cmd.Flags().GetBool("yes"); yes {
		return cli.AlwaysConfirm
	}
	return cli.PromptConfirmer(cmd.InOrStdin(), cmd.ErrOrStderr())
}

// withSession opens a session for the duration of fn.
func withSession(cmd *cobra.Command, fn func(ctx context.Context, s *cli.Session, p cli.Printer) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	sc := cli.NewSignalContext(cmd.Context())
	defer sc.Cancel()

	s, err := cli.Open(sc, cfg, cmd.ErrOrStderr(), cli.WithConfirmer(confirmer(cmd)))
	if err != nil {
		return err
	}
	defer s.Close()

	p := cli.Printer{W: cmd.OutOrStdout()}
	if cfg.UI.Color {
		if render, err := tui.NewRenderer(os.Stdout); err == nil {
			p.Markdown = render
		}
	}
	return fn(sc, s, p)
}
