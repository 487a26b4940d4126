package submitter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mlcommons/mlcube-deploy/internal/config"
	deploydomain "github.com/mlcommons/mlcube-deploy/internal/domain/deployment"
	"github.com/mlcommons/mlcube-deploy/internal/domain/mlcube"
	deployrepo "github.com/mlcommons/mlcube-deploy/internal/repository/deployment"
)

// validSubmission returns a record that passes all field rules.
func validSubmission() *Submission {
	return &Submission{
		Name:             "test-cube",
		GitMLCubeURL:     "https://files.example.com/deploy/mlcube.yaml",
		MLCubeHash:       "da39a3ee5e6b4b0d3255bfef95601890afd80709",
		GitParametersURL: "https://files.example.com/deploy/parameters.yaml",
		ParametersHash:   "da39a3ee5e6b4b0d3255bfef95601890afd80709",
		State:            StateDevelopment,
	}
}

// TestSubmission_Validate covers the field shapes the server rejects.
func TestSubmission_Validate(t *testing.T) {
	t.Parallel()

	require.NoError(t, validSubmission().Validate())

	// Empty name.
	s := validSubmission()
	s.Name = ""
	require.ErrorIs(t, s.Validate(), errInvalidSubmission)

	// Longest accepted name.
	s = validSubmission()
	s.Name = strings.Repeat("1", 19)
	require.NoError(t, s.Validate())

	// A 20-character name is already over the server limit.
	s = validSubmission()
	s.Name = strings.Repeat("1", 20)
	require.ErrorIs(t, s.Validate(), errInvalidSubmission)

	// Manifest URL must end in /mlcube.yaml.
	s = validSubmission()
	s.GitMLCubeURL = "https://google.com"
	require.ErrorIs(t, s.Validate(), errInvalidSubmission)

	// Parameters URL must end in /parameters.yaml.
	s = validSubmission()
	s.GitParametersURL = "https://files.example.com/deploy/params.yml"
	require.ErrorIs(t, s.Validate(), errInvalidSubmission)

	// Tarball URLs only need to be well-formed.
	s = validSubmission()
	s.ImageTarballURL = "https://google.com"
	require.NoError(t, s.Validate())

	s = validSubmission()
	s.AdditionalFilesTarballURL = "invalid"
	require.ErrorIs(t, s.Validate(), errInvalidSubmission)

	// State must be a known value.
	s = validSubmission()
	s.State = "PRODUCTION"
	require.ErrorIs(t, s.Validate(), errUnknownState)
}

// packagedCube writes a deploy manifest under a cube tree and returns its root.
func packagedCube(t *testing.T, assets map[string]deploydomain.Asset) string {
	t.Helper()

	root := t.TempDir()
	cubeDir := filepath.Join(root, "mlcube")
	deployDir := filepath.Join(cubeDir, "deploy")
	writeTree(t, cubeDir)

	manifest := deploydomain.NewManifest("1.0.0", "test-cube", nil)
	for name, asset := range assets {
		manifest.Assets[name] = asset
	}

	repo := deployrepo.NewFileRepository(filepath.Join(deployDir, mlcube.DeployManifestFilename))
	require.NoError(t, repo.Save(context.Background(), manifest))

	return root
}

// writeTree creates the minimal cube tree expected by ResolveLayout.
func writeTree(t *testing.T, cubeDir string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Join(cubeDir, "deploy"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cubeDir, "mlcube.yaml"), []byte("name: test-cube\n"), 0o644))
}

// TestRun_PostsRegistration registers a packaged cube against a fake server.
func TestRun_PostsRegistration(t *testing.T) {
	t.Parallel()

	sha := "da39a3ee5e6b4b0d3255bfef95601890afd80709"
	root := packagedCube(t, map[string]deploydomain.Asset{
		mlcube.ManifestFilename:       {SHA1: sha, Size: 16},
		mlcube.ParametersFilename:     {SHA1: sha, Size: 10},
		mlcube.AdditionalFilesArchive: {SHA1: sha, Size: 100},
	})

	var received Submission

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			// Reachability probe.
			w.WriteHeader(http.StatusNotFound)
			return
		}

		require.Equal(t, "/mlcubes/", r.URL.Path)
		require.Equal(t, "Token secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": 42}`))
	}))
	defer server.Close()

	configPath := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, config.Save(configPath, &config.Config{
		HostingBaseURL: "https://files.example.com/deploy",
	}))

	err := Run(context.Background(), &Options{
		ConfigPath: configPath,
		CubeRoot:   root,
		ServerURL:  server.URL,
		Token:      "secret",
	})
	require.NoError(t, err)

	require.Equal(t, "test-cube", received.Name)
	require.Equal(t, "https://files.example.com/deploy/mlcube.yaml", received.GitMLCubeURL)
	require.Equal(t, sha, received.MLCubeHash)
	require.Equal(t, "https://files.example.com/deploy/additional_files.tar.gz", received.AdditionalFilesTarballURL)
	require.Empty(t, received.ImageTarballURL)
	require.Equal(t, StateDevelopment, received.State)
}

// TestRun_NotPackaged fails with a hint when no deploy manifest exists.
func TestRun_NotPackaged(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, filepath.Join(root, "mlcube"))

	configPath := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, config.Save(configPath, &config.Config{
		HostingBaseURL: "https://files.example.com/deploy",
	}))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	err := Run(context.Background(), &Options{
		ConfigPath: configPath,
		CubeRoot:   root,
		ServerURL:  server.URL,
	})
	require.ErrorIs(t, err, errNotPackaged)
}

// TestRun_RequiresHosting fails when no hosting folder was recorded.
func TestRun_RequiresHosting(t *testing.T) {
	t.Parallel()

	err := Run(context.Background(), &Options{
		ConfigPath: filepath.Join(t.TempDir(), "settings.yaml"),
		CubeRoot:   t.TempDir(),
	})
	require.ErrorIs(t, err, errHostingURLRequired)
}
