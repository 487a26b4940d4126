package fetcher

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	goupdate "github.com/doitdistributed/go-update"

	"github.com/mlcommons/mlcube-deploy/internal/config"
	deploydomain "github.com/mlcommons/mlcube-deploy/internal/domain/deployment"
	"github.com/mlcommons/mlcube-deploy/internal/logger"
	"github.com/mlcommons/mlcube-deploy/internal/service/common"
	"github.com/mlcommons/mlcube-deploy/internal/service/hosting"
)

const (
	// fetchedFileMode is applied to fetched assets, matching the staged artifacts.
	fetchedFileMode os.FileMode = 0o755

	// defaultMapCapacity is the default initial capacity for maps.
	defaultMapCapacity = 8
)

var (
	// errHostingURLRequired is returned when no hosting folder is known.
	errHostingURLRequired = errors.New("hosting base URL must be provided")
	// errTargetDirRequired is returned when no target directory is provided.
	errTargetDirRequired = errors.New("target directory must be provided")
	// errEmptyManifest is returned when the hosted manifest lists no assets.
	errEmptyManifest = errors.New("deploy manifest lists no assets")
)

// Options are inputs accepted by the fetcher entry point.
type Options struct {
	// ConfigPath is the optional path to the settings YAML file.
	ConfigPath string
	// BaseURL is the hosting folder URL; defaults to the persisted settings.
	BaseURL string
	// TargetDir is where fetched assets are placed.
	TargetDir string
}

// runner holds the mutable state and helpers for a single fetch execution.
// Callers go through Run instead of constructing it directly.
type runner struct {
	cfg                *config.Config         // Deployment settings.
	client             *common.Client         // Hosting folder client.
	manifest           *deploydomain.Manifest // Hosted deploy manifest.
	targetDir          string                 // Where assets are applied.
	temporaryDirectory string                 // Where assets are downloaded before apply.
	downloadedFiles    map[string]string      // Canonical name -> local temp path.
}

// Run executes the fetch lifecycle and is the public entry point for the CLI.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "fetch-mlcube")

	r, err := newRunner(ctx, opts)
	if err != nil {
		return err
	}

	defer r.cleanup(ctx)

	if err = r.Run(ctx); err != nil {
		logger.ErrorKV(ctx, "Fetch run failed", "error", err)
		return err
	}

	logger.Info(ctx, "Fetch completed")

	return nil
}

// newRunner prepares the run and writes a marker to avoid concurrent runs.
func newRunner(ctx context.Context, opts *Options) (*runner, error) {
	r := &runner{
		downloadedFiles: make(map[string]string, defaultMapCapacity),
	}

	if opts.TargetDir == "" {
		return r, errTargetDirRequired
	}

	r.targetDir = filepath.Clean(opts.TargetDir)

	cfg, err := config.LoadOrDefault(opts.ConfigPath)
	if err != nil {
		return r, err
	}

	if opts.BaseURL != "" {
		cfg.HostingBaseURL = opts.BaseURL
	}

	if cfg.HostingBaseURL == "" {
		return r, errHostingURLRequired
	}

	if err = config.Validate(cfg); err != nil {
		return r, err
	}

	r.cfg = cfg

	r.client, err = common.NewClient(cfg.HostingBaseURL, common.WithCallTimeout(cfg.Timeout))
	if err != nil {
		return r, err
	}

	// Acquired last so an earlier setup failure never leaves a marker behind.
	if err = common.AcquireRunMarker(ctx); err != nil {
		return r, err
	}

	return r, nil
}

// Run executes the workflow for this runner instance:
// 1) Fetch the hosted deploy manifest.
// 2) Skip assets whose local copy already matches the digest.
// 3) Download the rest into a temporary directory.
// 4) Apply downloads with digest verification.
func (r *runner) Run(ctx context.Context) error {
	logger.InfoKV(ctx, "Downloading the deploy manifest", "folder", r.cfg.HostingBaseURL)

	manifest, err := hosting.FetchManifest(ctx, r.client)
	if err != nil {
		return fmt.Errorf("download deploy manifest: %w", err)
	}

	if len(manifest.Assets) == 0 {
		return errEmptyManifest
	}

	r.manifest = manifest

	// Every line of this run names the cube it is fetching.
	ctx = logger.WithKV(ctx, "cube", manifest.Name)

	if err = os.MkdirAll(r.targetDir, fetchedFileMode); err != nil {
		return fmt.Errorf("create target dir: %w", err)
	}

	logger.InfoKV(ctx, "Fetching assets", "target", r.targetDir)

	if err = r.downloadFiles(ctx); err != nil {
		return fmt.Errorf("download assets: %w", err)
	}

	if err = r.applyFiles(ctx); err != nil {
		return fmt.Errorf("apply assets: %w", err)
	}

	return nil
}

// downloadFiles downloads outdated assets into a temporary directory.
func (r *runner) downloadFiles(ctx context.Context) error {
	temporaryDirectory, err := os.MkdirTemp("", "mlcube-deploy-fetch-")
	if err != nil {
		return err
	}

	r.temporaryDirectory = temporaryDirectory

	for _, name := range r.manifest.AssetNames() {
		upToDate, err := r.isLocalCopyCurrent(name)
		if err != nil {
			return err
		}

		if upToDate {
			logger.InfoKV(ctx, "Asset up to date, skipping", "name", name)
			continue
		}

		outputFileName := filepath.Clean(filepath.Join(temporaryDirectory, name))
		if err = r.downloadFile(ctx, name, outputFileName); err != nil {
			return err
		}

		r.downloadedFiles[name] = outputFileName
		logger.InfoKV(ctx, "Downloaded asset", "path", outputFileName)
	}

	return nil
}

// isLocalCopyCurrent reports whether the target already holds the asset with
// the expected digest. A missing file simply needs fetching.
func (r *runner) isLocalCopyCurrent(name string) (bool, error) {
	localPath := filepath.Join(r.targetDir, name)
	if _, err := os.Stat(localPath); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}

		return false, err
	}

	digest, size, err := common.FileDigest(localPath)
	if err != nil {
		return false, err
	}

	want := r.manifest.Assets[name]

	return digest == want.SHA1 && size == want.Size, nil
}

// downloadFile streams one hosted asset to a local path.
func (r *runner) downloadFile(ctx context.Context, name, outputFileName string) error {
	body, err := r.client.FetchFile(ctx, name)
	if err != nil {
		return err
	}

	defer func() {
		_ = body.Close()
	}()

	outputFile, err := os.Create(outputFileName)
	if err != nil {
		return err
	}

	_, err = io.Copy(outputFile, body)
	if closeErr := outputFile.Close(); err == nil {
		err = closeErr
	}

	return err
}

// applyFiles applies downloaded assets using go-update with digest validation.
func (r *runner) applyFiles(ctx context.Context) error {
	for name, downloadedFileName := range r.downloadedFiles {
		logger.InfoKV(ctx, "Applying asset", "name", name)

		data, err := os.ReadFile(downloadedFileName)
		if err != nil {
			return err
		}

		checksum, err := hex.DecodeString(r.manifest.Assets[name].SHA1)
		if err != nil {
			return fmt.Errorf("decode digest for %s: %w", name, err)
		}

		targetPath := filepath.Join(r.targetDir, name)
		if _, err = os.Stat(targetPath); err != nil && os.IsNotExist(err) {
			if _, err = os.Create(targetPath); err != nil {
				return err
			}
		}

		options := &goupdate.Options{
			TargetPath: targetPath,
			TargetMode: fetchedFileMode,
			Checksum:   checksum,
			Hash:       common.DefaultChecksumFunction,
		}

		dataReader := bytes.NewReader(data)
		if err = goupdate.Apply(dataReader, *options); err != nil {
			return err
		}

		oldFileName := targetPath + ".old"
		if _, err = os.Stat(oldFileName); err == nil {
			_ = os.Remove(oldFileName)
		}
	}

	return nil
}

// cleanup removes temporary artifacts and the running marker.
func (r *runner) cleanup(ctx context.Context) {
	common.ReleaseRunMarker()

	if r.temporaryDirectory != "" {
		if _, err := os.Stat(r.temporaryDirectory); err == nil {
			_ = os.RemoveAll(r.temporaryDirectory)
		}
	}

	logger.Info(ctx, "The fetcher has been stopped")
}
