package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mlcommons/mlcube-deploy/internal/service/submitter"
)

var (
	// submitServerURL optionally overrides the MedPerf server from settings.
	submitServerURL string

	// submitToken is the MedPerf API token used for authentication.
	submitToken string

	// submitState is the registration state for the new MLCube.
	submitState string

	// submitCmd registers the packaged MLCube with a MedPerf server.
	submitCmd = &cobra.Command{
		Use:   "submit [mlcube-root]",
		Short: "Register the MLCube with a MedPerf server",
		Long: "Build an MLCube registration from the packaged deploy manifest and the " +
			"persisted hosting URL, validate it and POST it to the MedPerf server. " +
			"Run package-mlcube and check-hosting first.",
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &submitter.Options{
				ConfigPath: configPath,
				CubeRoot:   args[0],
				ServerURL:  submitServerURL,
				Token:      submitToken,
				State:      submitState,
			}

			return submitter.Run(ctx, options)
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	submitCmd.Flags().StringVar(&submitServerURL, "server", "",
		"MedPerf server URL, overriding the persisted settings")
	submitCmd.Flags().StringVar(&submitToken, "token", "",
		"MedPerf API token")
	submitCmd.Flags().StringVar(&submitState, "state", submitter.StateDevelopment,
		"registration state, DEVELOPMENT or OPERATION")

	rootCmd.AddCommand(submitCmd)
}
