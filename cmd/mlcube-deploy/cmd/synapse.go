package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mlcommons/mlcube-deploy/internal/service/synapse"
)

// synapseCmd rewrites the cube manifest to pull its image from Synapse.
var synapseCmd = &cobra.Command{
	Use:   "configure-synapse [mlcube-root] [project-id]",
	Short: "Point the MLCube image at the Synapse registry",
	Long: "Rewrite the docker image reference in mlcube.yaml so the container is pulled " +
		"from the Synapse docker registry under the given project, e.g. syn12345678. " +
		"The rest of the manifest, including comments, is preserved.",
	Args: cobra.ExactArgs(2),
	RunE: func(_ *cobra.Command, args []string) error {
		// Setup graceful shutdown handling.
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
		defer stop()

		options := &synapse.Options{
			ConfigPath: configPath,
			CubeRoot:   args[0],
			ProjectID:  args[1],
		}

		return synapse.Run(ctx, options)
	},
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.AddCommand(synapseCmd)
}
