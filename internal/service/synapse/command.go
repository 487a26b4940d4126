package synapse

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mlcommons/mlcube-deploy/internal/config"
	"github.com/mlcommons/mlcube-deploy/internal/domain/mlcube"
	"github.com/mlcommons/mlcube-deploy/internal/logger"
)

// Options contains inputs for the Synapse configuration entry point.
type Options struct {
	// ConfigPath is the optional path to the settings YAML file.
	ConfigPath string
	// CubeRoot is the MLCube root directory whose manifest is rewritten.
	CubeRoot string
	// ProjectID is the Synapse project, e.g. syn12345678.
	ProjectID string
}

// errProjectRequired is returned when no Synapse project is provided.
var errProjectRequired = errors.New("synapse project ID must be provided")

// Run points the cube manifest's docker image at the Synapse registry and
// prints the follow-up push steps. The push itself and the project setup
// stay with Synapse's own tooling and documentation.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "configure-synapse")

	if strings.TrimSpace(opts.ProjectID) == "" {
		return errProjectRequired
	}

	cfg, err := config.LoadOrDefault(opts.ConfigPath)
	if err != nil {
		return err
	}

	layout, err := mlcube.ResolveLayout(opts.CubeRoot)
	if err != nil {
		return err
	}

	cube, err := mlcube.LoadManifest(layout.ManifestPath())
	if err != nil {
		return err
	}

	if cube.Docker == nil || cube.Docker.Image == "" {
		return fmt.Errorf("%s: %w", layout.ManifestPath(), mlcube.ErrNoDockerImage)
	}

	currentImage := cube.Docker.Image
	synapseImage := mlcube.SynapseImageRef(cfg.SynapseRegistry, strings.TrimSpace(opts.ProjectID), currentImage)

	if err = mlcube.RewriteDockerImage(layout.ManifestPath(), synapseImage); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Rewrote docker image reference",
		"manifest", layout.ManifestPath(), "from", currentImage, "to", synapseImage)

	printNextSteps(ctx, currentImage, synapseImage)

	return nil
}

// printNextSteps logs the docker commands that move the image to Synapse.
func printNextSteps(ctx context.Context, currentImage, synapseImage string) {
	var builder strings.Builder

	builder.WriteString("Push the container image to the Synapse registry:\n")
	builder.WriteString("docker tag ")
	builder.WriteString(currentImage)
	builder.WriteString(" ")
	builder.WriteString(synapseImage)
	builder.WriteString("\ndocker push ")
	builder.WriteString(synapseImage)
	builder.WriteString("\n\nUploading data files to Synapse and registering the project ")
	builder.WriteString("are covered by the Synapse documentation.")

	logger.Info(ctx, builder.String())
}
