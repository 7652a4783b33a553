package main

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/aretw0/warp"
	"github.com/spf13/cobra"
)

// buildInfo describes the running binary.
type buildInfo struct {
	Version  string
	Revision string
	Modified bool
	Go       string
	Platform string
}

func readBuildInfo() buildInfo {
	info := buildInfo{
		Version:  strings.TrimSpace(warp.Version),
		Go:       runtime.Version(),
		Platform: runtime.GOOS + "/" + runtime.GOARCH,
	}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			info.Revision = s.Value
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}
	return info
}

func (b buildInfo) write(w io.Writer, short bool) {
	if short {
		fmt.Fprintln(w, b.Version)
		return
	}
	fmt.Fprintf(w, "warp %s (%s %s)\n", b.Version, b.Go, b.Platform)
	if b.Revision != "" {
		rev := b.Revision
		if len(rev) > 12 {
			rev = rev[:12]
		}
		if b.Modified {
			rev += "-dirty"
		}
		fmt.Fprintf(w, "revision %s\n", rev)
	}
}

func newVersionCmd() *cobra.Command {
	var short bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			readBuildInfo().write(cmd.OutOrStdout(), short)
		},
	}
	cmd.Flags().BoolVar(&short, "short", false, "print only the version")
	return cmd
}

func init() {
	rootCmd.AddCommand(newVersionCmd())
}
