package main

import (
	"context"

	"github.com/aretw0/warp"
	"github.com/aretw0/warp/internal/cli"
	"github.com/aretw0/warp/internal/logging"
	"github.com/spf13/cobra"
)

var devEngineCmd = &cobra.Command{
	Use:   "dev-engine",
	Short: "Run an in-memory engine for local development",
	Long:  `Starts an in-memory engine speaking the workflow protocol over websocket (at /ws) and, optionally, newline delimited JSON over TCP.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		addr, _ := cmd.Flags().GetString("addr")
		jsonlAddr, _ := cmd.Flags().GetString("jsonl")

		sc := cli.NewSignalContext(context.Background())
		defer sc.Cancel()

		d := &cli.DevEngine{
			HTTPAddr:  addr,
			JSONLAddr: jsonlAddr,
			Version:   warp.Version,
			Logger:    logging.New(logging.ParseLevel(cfg.Log.Level)),
			Out:       cmd.OutOrStdout(),
		}
		if err := d.Run(sc); err != nil {
			return err
		}
		if sig := sc.Signal(); sig != nil {
			cmd.Printf("dev engine stopped (%v)\n", sig)
		}
		return nil
	},
}

func init() {
	devEngineCmd.Flags().String("addr", ":5000", "HTTP and websocket listen address")
	devEngineCmd.Flags().String("jsonl", "", "TCP listen address for newline delimited JSON, disabled when empty")
	rootCmd.AddCommand(devEngineCmd)
}
