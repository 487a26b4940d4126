package mlcube

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleManifest = `name: chexpert-prep
description: Preprocessing cube for the ChestXRay benchmark
# platform limits
platform:
  accelerator_count: 0
docker:
  image: mlcommons/chexpert-prep:0.0.1
  build_context: ../project
tasks:
  prepare:
    parameters:
      inputs: {data_path: data}
      outputs: {output_path: prepped}
`

// TestLoadManifest parses the fields this tooling reads.
func TestLoadManifest(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "mlcube.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleManifest), 0o644))

	m, err := LoadManifest(path)
	require.NoError(t, err)
	require.Equal(t, "chexpert-prep", m.Name)
	require.NotNil(t, m.Docker)
	require.Equal(t, "mlcommons/chexpert-prep:0.0.1", m.Docker.Image)
	require.Nil(t, m.Singularity)
}

// TestLoadManifest_NameFallback derives the name from the cube directory when absent.
func TestLoadManifest_NameFallback(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "my-cube")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	path := filepath.Join(dir, "mlcube.yaml")
	require.NoError(t, os.WriteFile(path, []byte("docker:\n  image: x:1\n"), 0o644))

	m, err := LoadManifest(path)
	require.NoError(t, err)
	require.Equal(t, "my-cube", m.Name)
}

// TestRewriteDockerImage replaces only the image reference and keeps the rest of the document.
func TestRewriteDockerImage(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "mlcube.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleManifest), 0o644))

	err := RewriteDockerImage(path, "docker.synapse.org/syn123/chexpert-prep:0.0.1")
	require.NoError(t, err)

	m, err := LoadManifest(path)
	require.NoError(t, err)
	require.Equal(t, "docker.synapse.org/syn123/chexpert-prep:0.0.1", m.Docker.Image)
	require.Equal(t, "chexpert-prep", m.Name)

	// Unrelated content survives the rewrite.
	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(contents), "build_context: ../project")
	require.Contains(t, string(contents), "accelerator_count: 0")
}

// TestRewriteDockerImage_NoDocker fails for a singularity-only manifest.
func TestRewriteDockerImage_NoDocker(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "mlcube.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: x\nsingularity:\n  image: x.sif\n"), 0o644))

	err := RewriteDockerImage(path, "docker.synapse.org/syn123/x:1")
	require.ErrorIs(t, err, ErrNoDockerImage)
}

// TestSynapseImageRef composes registry references from existing ones.
func TestSynapseImageRef(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"mlcommons/chexpert-prep:0.0.1":     "docker.synapse.org/syn1/chexpert-prep:0.0.1",
		"chexpert-prep":                     "docker.synapse.org/syn1/chexpert-prep:latest",
		"ghcr.io/mlcommons/metrics:v2":      "docker.synapse.org/syn1/metrics:v2",
		"registry.local:5000/team/model:v1": "docker.synapse.org/syn1/model:v1",
	}
	for current, want := range cases {
		require.Equal(t, want, SynapseImageRef("docker.synapse.org", "syn1", current))
	}
}
