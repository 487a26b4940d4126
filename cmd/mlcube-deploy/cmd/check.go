package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mlcommons/mlcube-deploy/internal/service/hosting"
)

// checkCmd verifies that hosted assets match the packaged digests.
var checkCmd = &cobra.Command{
	Use:   "check-hosting [base-url]",
	Short: "Verify hosted MLCube assets",
	Long: "Download the deploy manifest from the hosting folder and verify that every " +
		"listed asset is reachable and matches its recorded size and digest. Without an " +
		"argument the hosting URL persisted by package-mlcube is used.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		// Setup graceful shutdown handling.
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
		defer stop()

		options := &hosting.Options{
			ConfigPath: configPath,
		}
		if len(args) > 0 {
			options.BaseURL = args[0]
		}

		return hosting.Run(ctx, options)
	},
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.AddCommand(checkCmd)
}
