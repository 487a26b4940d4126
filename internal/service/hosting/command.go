package hosting

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/docker/go-units"

	"github.com/mlcommons/mlcube-deploy/internal/config"
	deploydomain "github.com/mlcommons/mlcube-deploy/internal/domain/deployment"
	"github.com/mlcommons/mlcube-deploy/internal/domain/mlcube"
	"github.com/mlcommons/mlcube-deploy/internal/logger"
	deployrepo "github.com/mlcommons/mlcube-deploy/internal/repository/deployment"
	"github.com/mlcommons/mlcube-deploy/internal/service/common"
)

// Options are inputs accepted by the hosting check entry point.
type Options struct {
	// ConfigPath is the optional path to the settings YAML file.
	ConfigPath string
	// BaseURL is the hosting folder URL; defaults to the persisted settings.
	BaseURL string
}

var (
	// errHostingURLRequired is returned when no hosting folder is known.
	errHostingURLRequired = errors.New("hosting base URL must be provided")
	// errEmptyManifest is returned when the hosted manifest lists no assets.
	errEmptyManifest = errors.New("deploy manifest lists no assets")
	// ErrDigestMismatch indicates a hosted file differs from the packaged one.
	ErrDigestMismatch = errors.New("digest mismatch")
	// ErrSizeMismatch indicates a hosted file was truncated or padded.
	ErrSizeMismatch = errors.New("size mismatch")
)

// Run verifies that every packaged asset is reachable at the hosting folder
// via plain HTTP GET and matches its recorded digest.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "check-hosting")

	cfg, err := config.LoadOrDefault(opts.ConfigPath)
	if err != nil {
		return err
	}

	if opts.BaseURL != "" {
		cfg.HostingBaseURL = opts.BaseURL
	}

	if cfg.HostingBaseURL == "" {
		return errHostingURLRequired
	}

	if err = config.Validate(cfg); err != nil {
		return err
	}

	if err = config.Save(opts.ConfigPath, cfg); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}

	client, err := common.NewClient(cfg.HostingBaseURL, common.WithCallTimeout(cfg.Timeout))
	if err != nil {
		return err
	}

	logger.InfoKV(ctx, "Fetching hosted deploy manifest", "folder", cfg.HostingBaseURL)

	manifest, err := FetchManifest(ctx, client)
	if err != nil {
		return err
	}

	if len(manifest.Assets) == 0 {
		return errEmptyManifest
	}

	for _, name := range manifest.AssetNames() {
		if err = verifyAsset(ctx, client, name, manifest.Assets[name]); err != nil {
			return err
		}
	}

	logger.InfoKV(ctx, "All hosted assets verified",
		"cube", manifest.Name, "assets", len(manifest.Assets))

	return nil
}

// FetchManifest downloads and parses the hosted deploy manifest.
// The fetcher bootstraps from the same document.
func FetchManifest(ctx context.Context, client *common.Client) (*deploydomain.Manifest, error) {
	body, err := client.FetchFile(ctx, mlcube.DeployManifestFilename)
	if err != nil {
		return nil, err
	}

	defer func() {
		_ = body.Close()
	}()

	contents, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read deploy manifest: %w", err)
	}

	return deployrepo.Decode(contents)
}

// verifyAsset streams one hosted file through the digest function and
// compares the result with the packaged record.
func verifyAsset(ctx context.Context, client *common.Client, name string, want deploydomain.Asset) error {
	body, err := client.FetchFile(ctx, name)
	if err != nil {
		return err
	}

	defer func() {
		_ = body.Close()
	}()

	digest, size, err := common.ReaderDigest(body)
	if err != nil {
		return fmt.Errorf("digest %s: %w", name, err)
	}

	if size != want.Size {
		return fmt.Errorf("%s: hosted %d bytes, packaged %d bytes: %w",
			name, size, want.Size, ErrSizeMismatch)
	}

	if digest != want.SHA1 {
		return fmt.Errorf("%s: hosted %s, packaged %s: %w",
			name, digest, want.SHA1, ErrDigestMismatch)
	}

	logger.InfoKV(ctx, "Verified hosted asset",
		"name", name, "size", units.HumanSize(float64(size)))

	return nil
}
