package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mlcommons/mlcube-deploy/internal/service/packager"
)

var (
	// packageOutputPath is the optional combined archive destination.
	packageOutputPath string

	// packageHostingURL optionally records where the assets will be hosted.
	packageHostingURL string

	// packageCmd stages deployable assets into the deploy directory.
	packageCmd = &cobra.Command{
		Use:   "package-mlcube [mlcube-root]",
		Short: "Stage MLCube assets for hosting",
		Long: "Collect mlcube.yaml, parameters.yaml and the optional additional-files and " +
			"image archives into the deploy directory under canonical names, together with " +
			"a digest manifest. With --output, additionally produce a single compressed " +
			"archive of the staged directory.",
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &packager.Options{
				ConfigPath:     configPath,
				CubeRoot:       args[0],
				OutputPath:     packageOutputPath,
				HostingBaseURL: packageHostingURL,
			}

			return packager.Run(ctx, options)
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	packageCmd.Flags().StringVarP(&packageOutputPath, "output", "o", "",
		"write a single compressed archive of the deploy directory to this path")
	packageCmd.Flags().StringVar(&packageHostingURL, "hosting", "",
		"folder URL where the assets will be hosted, persisted for later commands")

	rootCmd.AddCommand(packageCmd)
}
