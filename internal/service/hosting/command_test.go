package hosting

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/mlcommons/mlcube-deploy/internal/config"
	deploydomain "github.com/mlcommons/mlcube-deploy/internal/domain/deployment"
	"github.com/mlcommons/mlcube-deploy/internal/domain/mlcube"
	"github.com/mlcommons/mlcube-deploy/internal/service/common"
)

// hostedFiles builds an httptest server serving the provided files.
func hostedFiles(t *testing.T, files map[string]string) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contents, ok := files[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}

		_, _ = w.Write([]byte(contents))
	}))
	t.Cleanup(server.Close)

	return server
}

// manifestYAML serializes a deploy manifest covering the provided assets.
func manifestYAML(t *testing.T, assets map[string]string) string {
	t.Helper()

	manifest := deploydomain.NewManifest("1.0.0", "test-cube", nil)

	for name, contents := range assets {
		digest, size, err := common.ReaderDigest(strings.NewReader(contents))
		require.NoError(t, err)

		manifest.Assets[name] = deploydomain.Asset{SHA1: digest, Size: size}
	}

	data, err := yaml.Marshal(manifest)
	require.NoError(t, err)

	return string(data)
}

// TestRun_AllAssetsVerified passes against a faithful mirror of the deploy directory.
func TestRun_AllAssetsVerified(t *testing.T) {
	chdir(t, t.TempDir())

	assets := map[string]string{
		"mlcube.yaml":     "name: test-cube\n",
		"parameters.yaml": "epochs: 1\n",
	}
	files := map[string]string{
		"/" + mlcube.DeployManifestFilename: manifestYAML(t, assets),
	}
	for name, contents := range assets {
		files["/"+name] = contents
	}

	server := hostedFiles(t, files)

	configPath := filepath.Join(t.TempDir(), "settings.yaml")
	err := Run(context.Background(), &Options{ConfigPath: configPath, BaseURL: server.URL})
	require.NoError(t, err)

	// The hosting folder is persisted for later commands.
	cfg, err := config.Load(configPath)
	require.NoError(t, err)
	require.Equal(t, server.URL, cfg.HostingBaseURL)
}

// TestRun_CorruptedAsset fails with a digest mismatch naming the file.
func TestRun_CorruptedAsset(t *testing.T) {
	chdir(t, t.TempDir())

	assets := map[string]string{"mlcube.yaml": "name: test-cube\n"}
	files := map[string]string{
		"/" + mlcube.DeployManifestFilename: manifestYAML(t, assets),
		"/mlcube.yaml":                      "name: test-cube\n",
	}

	// Same length, different bytes.
	files["/mlcube.yaml"] = "name: miss-cube\n"

	server := hostedFiles(t, files)

	err := Run(context.Background(), &Options{
		ConfigPath: filepath.Join(t.TempDir(), "settings.yaml"),
		BaseURL:    server.URL,
	})
	require.ErrorIs(t, err, ErrDigestMismatch)
	require.ErrorContains(t, err, "mlcube.yaml")
}

// TestRun_MissingAsset fails when a listed file is not hosted.
func TestRun_MissingAsset(t *testing.T) {
	chdir(t, t.TempDir())

	assets := map[string]string{
		"mlcube.yaml":     "name: test-cube\n",
		"parameters.yaml": "epochs: 1\n",
	}
	files := map[string]string{
		"/" + mlcube.DeployManifestFilename: manifestYAML(t, assets),
		"/mlcube.yaml":                      assets["mlcube.yaml"],
	}

	server := hostedFiles(t, files)

	err := Run(context.Background(), &Options{
		ConfigPath: filepath.Join(t.TempDir(), "settings.yaml"),
		BaseURL:    server.URL,
	})
	require.ErrorIs(t, err, common.ErrBadHTTPStatus)
}

// TestRun_NoBaseURL fails when neither argument nor settings name a folder.
func TestRun_NoBaseURL(t *testing.T) {
	chdir(t, t.TempDir())

	err := Run(context.Background(), &Options{
		ConfigPath: filepath.Join(t.TempDir(), "settings.yaml"),
	})
	require.ErrorIs(t, err, errHostingURLRequired)
}
