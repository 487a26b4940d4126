package submitter

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/mlcommons/mlcube-deploy/internal/config"
	"github.com/mlcommons/mlcube-deploy/internal/domain/mlcube"
	"github.com/mlcommons/mlcube-deploy/internal/logger"
	deployrepo "github.com/mlcommons/mlcube-deploy/internal/repository/deployment"
	"github.com/mlcommons/mlcube-deploy/internal/service/common"
)

const (
	// maxNameLength is the longest cube name the server accepts;
	// a 20-character name is already rejected.
	maxNameLength = 19

	// StateDevelopment marks a cube still being iterated on.
	StateDevelopment = "DEVELOPMENT"
	// StateOperation marks a cube ready for benchmark use.
	StateOperation = "OPERATION"

	// mlcubesRoute is the server route cube registrations are posted to.
	mlcubesRoute = "mlcubes/"
)

// Options contains inputs for the submit entry point.
type Options struct {
	// ConfigPath is the optional path to the settings YAML file.
	ConfigPath string
	// CubeRoot is the MLCube root directory that was packaged.
	CubeRoot string
	// ServerURL optionally overrides the MedPerf server from settings.
	ServerURL string
	// Token is the MedPerf API token.
	Token string
	// State is the registration state, DEVELOPMENT or OPERATION.
	State string
}

// Submission is the MlCube registration record the MedPerf server stores.
type Submission struct {
	// Name identifies the cube, unique server-side.
	Name string `json:"name"`
	// GitMLCubeURL points at the hosted mlcube.yaml.
	GitMLCubeURL string `json:"git_mlcube_url"`
	// MLCubeHash is the SHA-1 digest of the hosted mlcube.yaml.
	MLCubeHash string `json:"mlcube_hash"`
	// GitParametersURL points at the hosted parameters.yaml.
	GitParametersURL string `json:"git_parameters_url"`
	// ParametersHash is the SHA-1 digest of the hosted parameters.yaml.
	ParametersHash string `json:"parameters_hash"`
	// ImageTarballURL points at the hosted image.tar.gz when packaged.
	ImageTarballURL string `json:"image_tarball_url,omitempty"`
	// ImageTarballHash is the SHA-1 digest of image.tar.gz when packaged.
	ImageTarballHash string `json:"image_tarball_hash,omitempty"`
	// AdditionalFilesTarballURL points at the hosted additional_files.tar.gz when packaged.
	AdditionalFilesTarballURL string `json:"additional_files_tarball_url,omitempty"`
	// AdditionalFilesTarballHash is the SHA-1 digest of additional_files.tar.gz when packaged.
	AdditionalFilesTarballHash string `json:"additional_files_tarball_hash,omitempty"`
	// State is DEVELOPMENT or OPERATION.
	State string `json:"state"`
}

// registrationResponse is the subset of the server's reply this tool uses.
type registrationResponse struct {
	// ID is the server-assigned cube identifier.
	ID uint `json:"id"`
}

var (
	// errNotPackaged is returned when no deploy manifest exists for the cube.
	errNotPackaged = errors.New("cube is not packaged, run package-mlcube first")
	// errHostingURLRequired is returned when no hosting folder is known.
	errHostingURLRequired = errors.New("hosting base URL must be provided")
	// errInvalidSubmission is returned when the registration record fails validation.
	errInvalidSubmission = errors.New("invalid submission")
	// errUnknownState is returned for a state other than DEVELOPMENT or OPERATION.
	errUnknownState = errors.New("unknown state")
)

// Run registers the hosted cube with the MedPerf server.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "submit")

	cfg, err := config.LoadOrDefault(opts.ConfigPath)
	if err != nil {
		return err
	}

	if opts.ServerURL != "" {
		cfg.ServerURL = opts.ServerURL
	}

	if err = config.Validate(cfg); err != nil {
		return err
	}

	if cfg.HostingBaseURL == "" {
		return errHostingURLRequired
	}

	if err = config.Save(opts.ConfigPath, cfg); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}

	client, err := common.NewClient(cfg.ServerURL,
		common.WithCallTimeout(cfg.Timeout), common.WithToken(opts.Token))
	if err != nil {
		return err
	}

	// The server must answer before any payload is assembled.
	if err = client.Ping(ctx); err != nil {
		return err
	}

	submission, err := buildSubmission(ctx, opts, cfg)
	if err != nil {
		return err
	}

	if err = submission.Validate(); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Registering cube", "name", submission.Name, "server", cfg.ServerURL)

	var response registrationResponse
	if err = client.PostJSON(ctx, mlcubesRoute, submission, &response); err != nil {
		return fmt.Errorf("register cube: %w", err)
	}

	logger.InfoKV(ctx, "Cube registered", "name", submission.Name, "id", response.ID)

	return nil
}

// buildSubmission assembles the registration record from the local deploy
// manifest and the hosting folder the assets were uploaded to.
func buildSubmission(ctx context.Context, opts *Options, cfg *config.Config) (*Submission, error) {
	layout, err := mlcube.ResolveLayout(opts.CubeRoot)
	if err != nil {
		return nil, err
	}

	repo := deployrepo.NewFileRepository(layout.DeployManifestPath())

	manifest, err := repo.Load(ctx)
	if errors.Is(err, deployrepo.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", layout.DeployDir(), errNotPackaged)
	} else if err != nil {
		return nil, err
	}

	hostingClient, err := common.NewClient(cfg.HostingBaseURL)
	if err != nil {
		return nil, err
	}

	state := strings.TrimSpace(opts.State)
	if state == "" {
		state = StateDevelopment
	}

	submission := &Submission{
		Name:  manifest.Name,
		State: state,
	}

	assign := func(name string, urlTarget, hashTarget *string) {
		asset, ok := manifest.Assets[name]
		if !ok {
			return
		}

		*urlTarget = hostingClient.FileURL(name)
		*hashTarget = asset.SHA1
	}

	assign(mlcube.ManifestFilename, &submission.GitMLCubeURL, &submission.MLCubeHash)
	assign(mlcube.ParametersFilename, &submission.GitParametersURL, &submission.ParametersHash)
	assign(mlcube.ImageArchive, &submission.ImageTarballURL, &submission.ImageTarballHash)
	assign(mlcube.AdditionalFilesArchive,
		&submission.AdditionalFilesTarballURL, &submission.AdditionalFilesTarballHash)

	return submission, nil
}

// Validate enforces the server-side field rules before uploading.
func (s *Submission) Validate() error {
	if s.Name == "" || len(s.Name) > maxNameLength {
		return fmt.Errorf("name must be 1..%d characters: %w", maxNameLength, errInvalidSubmission)
	}

	if err := validateAssetURL(s.GitMLCubeURL, "/"+mlcube.ManifestFilename); err != nil {
		return err
	}

	if err := validateAssetURL(s.GitParametersURL, "/"+mlcube.ParametersFilename); err != nil {
		return err
	}

	for _, tarball := range []string{s.ImageTarballURL, s.AdditionalFilesTarballURL} {
		if tarball == "" {
			continue
		}

		if err := validateAssetURL(tarball, ""); err != nil {
			return err
		}
	}

	if s.State != StateDevelopment && s.State != StateOperation {
		return fmt.Errorf("%s: %w", s.State, errUnknownState)
	}

	return nil
}

// validateAssetURL checks the value is an absolute URL with the expected suffix.
func validateAssetURL(value, suffix string) error {
	parsed, err := url.ParseRequestURI(value)
	if err != nil {
		return fmt.Errorf("%q: %w", value, errInvalidSubmission)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%q: unsupported scheme: %w", value, errInvalidSubmission)
	}

	if suffix != "" && !strings.HasSuffix(parsed.Path, suffix) {
		return fmt.Errorf("%q must end with %s: %w", value, suffix, errInvalidSubmission)
	}

	return nil
}
