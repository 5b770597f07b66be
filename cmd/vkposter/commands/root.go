package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"vkposter/internal/telemetry"

	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "vkposter",
	Short: "vkposter posts a message to the groups bookmarked under chosen tags, once per group.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(verbose)
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "vkposter.json5", "The config file, a `.local.` sibling overrides it.")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output (including raw responses).")
}

// ExecuteContext runs the command line and returns the error of the command
// that ran, after printing it.
func ExecuteContext(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, err)
	}
	return err
}
