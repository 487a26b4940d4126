package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mlcommons/mlcube-deploy/internal/service/fetcher"
)

var (
	// fetchBaseURL optionally overrides the persisted hosting folder URL.
	fetchBaseURL string

	// fetchCmd downloads hosted MLCube assets into a local directory.
	fetchCmd = &cobra.Command{
		Use:   "fetch-mlcube [target-dir]",
		Short: "Download hosted MLCube assets",
		Long: "Download the deploy manifest and every listed asset from the hosting folder " +
			"into the target directory, verifying each file's digest before it is applied. " +
			"Files that already match the hosted digests are left untouched.",
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &fetcher.Options{
				ConfigPath: configPath,
				BaseURL:    fetchBaseURL,
				TargetDir:  args[0],
			}

			return fetcher.Run(ctx, options)
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	fetchCmd.Flags().StringVar(&fetchBaseURL, "hosting", "",
		"folder URL to fetch from, overriding the persisted settings")

	rootCmd.AddCommand(fetchCmd)
}
