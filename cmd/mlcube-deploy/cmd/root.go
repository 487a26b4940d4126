package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/mlcommons/mlcube-deploy/internal/config"
	"github.com/mlcommons/mlcube-deploy/internal/logger"
	"github.com/mlcommons/mlcube-deploy/internal/version"
)

var (
	// configPath to the deployment settings YAML file.
	configPath string

	// logLevel is the minimum log level for CLI output.
	logLevel string

	// rootCmd represents the base command for MLCube deployment tooling.
	rootCmd = &cobra.Command{
		Use:   "mlcube-deploy",
		Short: "Package, host-check and register MLCube containers for MedPerf",
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if level, ok := logger.ParseLogLevel(logLevel); ok {
				logger.SetLevel(level)
			}
		},
	}
)

// Execute runs the mlcube-deploy CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup persistent flags shared by all subcommands.
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c",
		config.DefaultConfigFilename, "path to deployment settings file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"minimum log level (debug, info, warn, error)")
}
