package deployment

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestAssetNames returns names in stable sorted order.
func TestAssetNames(t *testing.T) {
	t.Parallel()

	m := NewManifest("1.0.0", "test", nil)
	m.Assets["parameters.yaml"] = Asset{SHA1: "a", Size: 1}
	m.Assets["mlcube.yaml"] = Asset{SHA1: "b", Size: 2}
	m.Assets["additional_files.tar.gz"] = Asset{SHA1: "c", Size: 3}

	require.Equal(t,
		[]string{"additional_files.tar.gz", "mlcube.yaml", "parameters.yaml"},
		m.AssetNames())
}

// TestClone produces an independent copy.
func TestClone(t *testing.T) {
	t.Parallel()

	m := NewManifest("1.0.0", "test", &Actor{Hostname: "host", Username: "user"})
	m.Assets["mlcube.yaml"] = Asset{SHA1: "b", Size: 2}

	cloned := m.Clone()
	cloned.Assets["mlcube.yaml"] = Asset{SHA1: "changed", Size: 0}
	cloned.GeneratedBy.Username = "other"

	require.Equal(t, "b", m.Assets["mlcube.yaml"].SHA1)
	require.Equal(t, "user", m.GeneratedBy.Username)
}
