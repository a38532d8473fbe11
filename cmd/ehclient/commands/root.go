package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"ehclient/lib/telemetry"

	"github.com/spf13/cobra"
)

var (
	configPath *string
	verbose    *bool
)

var rootCmd = &cobra.Command{
	Use:   "ehclient",
	Short: "ehclient is a CLI for browsing E-Hentai and ExHentai galleries.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if *verbose {
			telemetry.InitSlog(true)
			slog.Debug("verbose logging enabled")
		}
	},
}

func init() {
	configPath = rootCmd.PersistentFlags().String("config", "ehclient.json5", "The config file, <name>.local.<ext> overrides it.")
	verbose = rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log requests and effects.")
}

// ExecuteContext exits non-zero when a command fails.
func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
