package deployment

import (
	"sort"
	"time"
)

// defaultAssetCapacity is the initial capacity for asset maps.
const defaultAssetCapacity = 8

// Actor identifies who packaged the assets.
type Actor struct {
	// Hostname is the machine name where the packaging ran.
	Hostname string `yaml:"hostname"`
	// Username is the system user who ran the packaging.
	Username string `yaml:"username"`
}

// Clone returns a deep copy of the actor.
func (a *Actor) Clone() *Actor {
	if a == nil {
		return nil
	}

	cloned := *a

	return &cloned
}

// Asset records the digest and size of a single staged file.
type Asset struct {
	// SHA1 is the hex-encoded SHA-1 digest of the file contents.
	SHA1 string `yaml:"sha1"`
	// Size is the file size in bytes.
	Size int64 `yaml:"size"`
}

// Manifest describes one packaged deploy directory. It is written into the
// directory itself, uploaded alongside the assets, and used to bootstrap
// hosting verification and fetching.
type Manifest struct {
	// Version is the semantic version of the tool that produced the manifest.
	Version string `yaml:"version"`
	// Name is the cube name from mlcube.yaml.
	Name string `yaml:"name"`
	// GeneratedAt is the UTC packaging timestamp.
	GeneratedAt time.Time `yaml:"generated_at"`
	// GeneratedBy records who packaged the assets.
	GeneratedBy *Actor `yaml:"generated_by"`
	// Assets maps canonical asset filenames to their digests.
	Assets map[string]Asset `yaml:"assets"`
}

// NewManifest produces a Manifest initialized with defaults.
func NewManifest(toolVersion, name string, generatedBy *Actor) *Manifest {
	return &Manifest{
		Version:     toolVersion,
		Name:        name,
		GeneratedAt: time.Now().UTC(),
		GeneratedBy: generatedBy,
		Assets:      make(map[string]Asset, defaultAssetCapacity),
	}
}

// AssetNames returns the asset filenames in stable sorted order.
func (m *Manifest) AssetNames() []string {
	names := make([]string, 0, len(m.Assets))
	for name := range m.Assets {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Clone returns a copy of the manifest to avoid leaking internal references.
func (m *Manifest) Clone() *Manifest {
	assets := make(map[string]Asset, len(m.Assets))
	for name, asset := range m.Assets {
		assets[name] = asset
	}

	return &Manifest{
		Version:     m.Version,
		Name:        m.Name,
		GeneratedAt: m.GeneratedAt,
		GeneratedBy: m.GeneratedBy.Clone(),
		Assets:      assets,
	}
}
