package synapse

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mlcommons/mlcube-deploy/internal/domain/mlcube"
)

// writeFile creates a file with parent directories for test fixtures.
func writeFile(t *testing.T, path, contents string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
}

// TestRun_RewritesImage points the manifest at the Synapse registry.
func TestRun_RewritesImage(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	manifestPath := filepath.Join(root, "mlcube", "mlcube.yaml")
	writeFile(t, manifestPath,
		"name: test-cube\ndocker:\n  image: mlcommons/test-cube:0.0.1\ntasks:\n  infer: {}\n")

	err := Run(context.Background(), &Options{
		ConfigPath: filepath.Join(t.TempDir(), "settings.yaml"),
		CubeRoot:   root,
		ProjectID:  "syn12345678",
	})
	require.NoError(t, err)

	m, err := mlcube.LoadManifest(manifestPath)
	require.NoError(t, err)
	require.Equal(t, "docker.synapse.org/syn12345678/test-cube:0.0.1", m.Docker.Image)

	// Unrelated keys survive.
	contents, err := os.ReadFile(manifestPath)
	require.NoError(t, err)
	require.Contains(t, string(contents), "infer")
}

// TestRun_SingularityOnly fails for a manifest with no docker image.
func TestRun_SingularityOnly(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "mlcube.yaml"),
		"name: test-cube\nsingularity:\n  image: test-cube.sif\n")

	err := Run(context.Background(), &Options{
		ConfigPath: filepath.Join(t.TempDir(), "settings.yaml"),
		CubeRoot:   root,
		ProjectID:  "syn12345678",
	})
	require.ErrorIs(t, err, mlcube.ErrNoDockerImage)
}

// TestRun_RequiresProject rejects an empty project ID.
func TestRun_RequiresProject(t *testing.T) {
	t.Parallel()

	err := Run(context.Background(), &Options{CubeRoot: t.TempDir()})
	require.ErrorIs(t, err, errProjectRequired)
}
