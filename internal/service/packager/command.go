package packager

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/docker/go-units"

	"github.com/mlcommons/mlcube-deploy/internal/archive"
	"github.com/mlcommons/mlcube-deploy/internal/config"
	deploydomain "github.com/mlcommons/mlcube-deploy/internal/domain/deployment"
	"github.com/mlcommons/mlcube-deploy/internal/domain/mlcube"
	"github.com/mlcommons/mlcube-deploy/internal/logger"
	deployrepo "github.com/mlcommons/mlcube-deploy/internal/repository/deployment"
	"github.com/mlcommons/mlcube-deploy/internal/service/common"
	"github.com/mlcommons/mlcube-deploy/internal/version"
)

// stagedFileMode is used when producing artifacts for distribution.
const stagedFileMode os.FileMode = 0o755

// errOutputInsideDeploy is returned when --output points into the deploy
// directory, where the archive would be walked into itself.
var errOutputInsideDeploy = errors.New("output path must be outside the deploy directory")

// Options contains inputs for the packager entry point.
type Options struct {
	// ConfigPath is an optional path to persist deployment settings.
	ConfigPath string
	// CubeRoot is the MLCube root directory to package.
	CubeRoot string
	// OutputPath, when set, is where a single archive of the deploy directory is written.
	OutputPath string
	// HostingBaseURL optionally records where the assets will be hosted,
	// so later commands can default from the settings file.
	HostingBaseURL string
}

// packager stages deployable assets and produces the digest manifest.
// Callers go through Run, which encapsulates setup and validation.
type packager struct {
	// cfg holds the deployment settings.
	cfg *config.Config
	// layout resolves asset locations under the cube root.
	layout *mlcube.Layout
	// cube is the parsed mlcube.yaml.
	cube *mlcube.Manifest
	// manifest is the digest manifest being built.
	manifest *deploydomain.Manifest
	// outputPath is the optional combined archive destination.
	outputPath string
}

// Run executes the packaging workflow.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "package-mlcube")

	cfg, err := config.LoadOrDefault(opts.ConfigPath)
	if err != nil {
		return err
	}

	if opts.HostingBaseURL != "" {
		cfg.HostingBaseURL = opts.HostingBaseURL
	}

	if err = config.Validate(cfg); err != nil {
		return err
	}

	if err = common.AcquireRunMarker(ctx); err != nil {
		return err
	}

	defer common.ReleaseRunMarker()

	if err = config.Save(opts.ConfigPath, cfg); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}

	pkg, err := newPackager(opts, cfg)
	if err != nil {
		return fmt.Errorf("initialize packager: %w", err)
	}

	if err = pkg.Run(ctx); err != nil {
		return fmt.Errorf("packager failed: %w", err)
	}

	logger.Info(ctx, "Packager completed successfully")

	return nil
}

// newPackager resolves the cube layout and validates required assets
// before anything is staged, so a broken root never yields a partial
// deploy directory.
func newPackager(opts *Options, cfg *config.Config) (*packager, error) {
	layout, err := mlcube.ResolveLayout(opts.CubeRoot)
	if err != nil {
		return nil, err
	}

	if err = layout.ValidateRequired(); err != nil {
		return nil, err
	}

	if opts.OutputPath != "" {
		inside, err := isWithinDir(layout.DeployDir(), opts.OutputPath)
		if err != nil {
			return nil, err
		}

		if inside {
			return nil, fmt.Errorf("%s: %w", opts.OutputPath, errOutputInsideDeploy)
		}
	}

	cube, err := mlcube.LoadManifest(layout.ManifestPath())
	if err != nil {
		return nil, err
	}

	actor, err := common.DetectActor()
	if err != nil {
		return nil, err
	}

	return &packager{
		cfg:        cfg,
		layout:     layout,
		cube:       cube,
		manifest:   deploydomain.NewManifest(version.Short(), cube.Name, actor),
		outputPath: opts.OutputPath,
	}, nil
}

// Run stages the assets, writes the digest manifest and, when requested,
// the combined output archive.
func (p *packager) Run(ctx context.Context) error {
	// Every line of this run names the cube it is staging.
	ctx = logger.WithKV(ctx, "cube", p.cube.Name)

	logger.InfoKV(ctx, "Staging deployable assets", "deploy_dir", p.layout.DeployDir())

	if err := p.stageAssets(ctx); err != nil {
		return err
	}

	if err := p.fillManifest(); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Saving deploy manifest", "path", p.layout.DeployManifestPath())

	if err := p.saveManifest(ctx); err != nil {
		return err
	}

	if p.outputPath != "" {
		logger.InfoKV(ctx, "Writing combined archive", "path", p.outputPath)

		if err := archive.CompressDir(p.layout.DeployDir(), p.outputPath); err != nil {
			return err
		}
	}

	p.printNextSteps(ctx)

	return nil
}

// stageAssets populates the deploy directory with canonically named copies
// and archives. The directory is recreated so no stale asset from an
// earlier run survives.
func (p *packager) stageAssets(ctx context.Context) error {
	deployDir := p.layout.DeployDir()
	if err := os.RemoveAll(deployDir); err != nil {
		return fmt.Errorf("clear deploy dir: %w", err)
	}

	if err := os.MkdirAll(deployDir, stagedFileMode); err != nil {
		return fmt.Errorf("create deploy dir: %w", err)
	}

	copies := []struct {
		name   string
		source string
	}{
		{mlcube.ManifestFilename, p.layout.ManifestPath()},
		{mlcube.ParametersFilename, p.layout.ParametersPath()},
	}
	for _, asset := range copies {
		if err := p.stageCopy(ctx, asset.source, asset.name); err != nil {
			return err
		}
	}

	archives := []struct {
		name   string
		source string
	}{
		{mlcube.AdditionalFilesArchive, p.layout.AdditionalFilesDir()},
		{mlcube.ImageArchive, p.layout.ImageDir()},
	}
	for _, asset := range archives {
		if err := p.stageArchive(ctx, asset.source, asset.name); err != nil {
			return err
		}
	}

	return nil
}

// stageCopy copies a required asset into the deploy directory under its canonical name.
func (p *packager) stageCopy(ctx context.Context, source, name string) error {
	target := filepath.Join(p.layout.DeployDir(), name)

	input, err := os.Open(filepath.Clean(source))
	if err != nil {
		return fmt.Errorf("open %s: %w", source, err)
	}

	defer func() {
		_ = input.Close()
	}()

	output, err := os.OpenFile(filepath.Clean(target), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, stagedFileMode)
	if err != nil {
		return fmt.Errorf("create %s: %w", target, err)
	}

	size, err := io.Copy(output, input)
	if closeErr := output.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		return fmt.Errorf("stage %s: %w", name, err)
	}

	logger.InfoKV(ctx, "Staged asset", "name", name, "size", units.HumanSize(float64(size)))

	return nil
}

// stageArchive compresses an optional directory into the deploy directory.
// Absent and empty directories produce no archive.
func (p *packager) stageArchive(ctx context.Context, sourceDir, name string) error {
	hasEntries, err := mlcube.HasDirEntries(sourceDir)
	if err != nil {
		return err
	}

	if !hasEntries {
		logger.DebugKV(ctx, "Optional asset not present, skipping", "name", name, "dir", sourceDir)
		return nil
	}

	target := filepath.Join(p.layout.DeployDir(), name)
	if err = archive.CompressDir(sourceDir, target); err != nil {
		return err
	}

	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("stat %s: %w", target, err)
	}

	logger.InfoKV(ctx, "Staged asset", "name", name, "size", units.HumanSize(float64(info.Size())))

	return nil
}

// fillManifest records digests and sizes of every staged asset.
func (p *packager) fillManifest() error {
	entries, err := os.ReadDir(p.layout.DeployDir())
	if err != nil {
		return fmt.Errorf("read deploy dir: %w", err)
	}

	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}

		digest, size, err := common.FileDigest(filepath.Join(p.layout.DeployDir(), entry.Name()))
		if err != nil {
			return err
		}

		p.manifest.Assets[entry.Name()] = deploydomain.Asset{
			SHA1: digest,
			Size: size,
		}
	}

	return nil
}

// isWithinDir reports whether path resolves to dir or somewhere under it.
func isWithinDir(dir, path string) (bool, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return false, fmt.Errorf("resolve %s: %w", dir, err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return false, fmt.Errorf("resolve %s: %w", path, err)
	}

	rel, err := filepath.Rel(absDir, absPath)
	if err != nil {
		return false, nil
	}

	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))), nil
}

// saveManifest writes the digest manifest into the deploy directory.
func (p *packager) saveManifest(ctx context.Context) error {
	repo := deployrepo.NewFileRepository(p.layout.DeployManifestPath())

	return repo.Save(ctx, p.manifest)
}

// printNextSteps logs human-readable guidance for next actions with the staged files.
func (p *packager) printNextSteps(ctx context.Context) {
	files := p.manifest.AssetNames()
	files = append(files, mlcube.DeployManifestFilename)

	folder := p.cfg.HostingBaseURL
	if folder == "" {
		folder = "your hosting provider's folder"
	}

	var builder strings.Builder

	builder.WriteString("Upload the following files to ")
	builder.WriteString(folder)
	builder.WriteString(":\n")

	for i, name := range files {
		if i == 0 {
			builder.WriteString(name)
		} else {
			builder.WriteString(",\n")
			builder.WriteString(name)
		}
	}

	builder.WriteString("\n\nEvery file must be reachable via plain HTTP GET.")
	builder.WriteString("\nVerify the upload with: mlcube-deploy check-hosting <folder-url>")
	builder.WriteString("\nRegister the cube with: mlcube-deploy submit ")
	builder.WriteString(p.layout.CubeDir())

	logger.Info(ctx, builder.String())
}
