package mlcube

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	// ManifestFilename is the canonical name of the cube manifest.
	ManifestFilename = "mlcube.yaml"

	// ParametersFilename is the canonical name of the invocation parameters file.
	ParametersFilename = "parameters.yaml"

	// AdditionalFilesArchive is the canonical name of the staged additional-files tarball.
	AdditionalFilesArchive = "additional_files.tar.gz"

	// ImageArchive is the canonical name of the staged container image tarball.
	ImageArchive = "image.tar.gz"

	// DeployManifestFilename is the digest manifest written next to the staged assets.
	DeployManifestFilename = "mlcube-deploy-manifest.yaml"

	// Directory names under the cube root.
	cubeDirName            = "mlcube"
	workspaceDirName       = "workspace"
	additionalFilesDirName = "additional_files"
	imageDirName           = ".image"
	deployDirName          = "deploy"
)

// ErrManifestNotFound is returned when no mlcube.yaml can be located under the given root.
var ErrManifestNotFound = errors.New("mlcube.yaml not found")

// Layout resolves asset locations under an MLCube directory.
// Cube repositories keep the cube under an mlcube/ subdirectory;
// the cube directory itself is accepted as well.
type Layout struct {
	// cubeDir is the directory that directly contains mlcube.yaml.
	cubeDir string
}

// ResolveLayout locates the cube directory under root.
// It accepts either the repository root (containing mlcube/mlcube.yaml)
// or the cube directory itself (containing mlcube.yaml).
func ResolveLayout(root string) (*Layout, error) {
	root = filepath.Clean(root)

	for _, dir := range []string{root, filepath.Join(root, cubeDirName)} {
		if _, err := os.Stat(filepath.Join(dir, ManifestFilename)); err == nil {
			return &Layout{cubeDir: dir}, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("stat %s: %w", filepath.Join(dir, ManifestFilename), err)
		}
	}

	return nil, fmt.Errorf("%s: %w", root, ErrManifestNotFound)
}

// CubeDir returns the directory that contains mlcube.yaml.
func (l *Layout) CubeDir() string {
	return l.cubeDir
}

// ManifestPath returns the location of mlcube.yaml.
func (l *Layout) ManifestPath() string {
	return filepath.Join(l.cubeDir, ManifestFilename)
}

// ParametersPath returns the location of workspace/parameters.yaml.
func (l *Layout) ParametersPath() string {
	return filepath.Join(l.cubeDir, workspaceDirName, ParametersFilename)
}

// AdditionalFilesDir returns the optional workspace/additional_files directory.
func (l *Layout) AdditionalFilesDir() string {
	return filepath.Join(l.cubeDir, workspaceDirName, additionalFilesDirName)
}

// ImageDir returns the optional workspace/.image directory holding a container image.
func (l *Layout) ImageDir() string {
	return filepath.Join(l.cubeDir, workspaceDirName, imageDirName)
}

// DeployDir returns the staging directory for deployable assets.
func (l *Layout) DeployDir() string {
	return filepath.Join(l.cubeDir, deployDirName)
}

// DeployManifestPath returns the location of the digest manifest inside the deploy directory.
func (l *Layout) DeployManifestPath() string {
	return filepath.Join(l.DeployDir(), DeployManifestFilename)
}

// ValidateRequired checks that the required assets exist before any staging occurs.
func (l *Layout) ValidateRequired() error {
	for _, path := range []string{l.ManifestPath(), l.ParametersPath()} {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("required asset %s: %w", path, os.ErrNotExist)
		} else if err != nil {
			return fmt.Errorf("stat %s: %w", path, err)
		}
	}

	return nil
}

// HasDirEntries reports whether the directory exists and contains at least one entry.
// Absent and empty optional directories produce no staged archive.
func HasDirEntries(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	} else if err != nil {
		return false, fmt.Errorf("read dir %s: %w", dir, err)
	}

	return len(entries) > 0, nil
}
