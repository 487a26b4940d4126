package deployment

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	domain "github.com/mlcommons/mlcube-deploy/internal/domain/deployment"
)

// manifestFileMode matches the permissions of the other staged artifacts,
// since the manifest is uploaded alongside them.
const manifestFileMode os.FileMode = 0o644

// Repository defines persistence operations for the deploy manifest.
type Repository interface {
	Load(ctx context.Context) (*domain.Manifest, error)
	Save(ctx context.Context, manifest *domain.Manifest) error
}

// FileRepository persists the deploy manifest to a YAML file inside the
// deploy directory. The YAML on disk is the hosted artifact itself, so the
// domain types carry the field names directly.
type FileRepository struct {
	// path is the filesystem location of the manifest YAML.
	path string
	// mu protects concurrent access to the manifest file.
	mu sync.Mutex
}

// ErrNotFound is returned when the manifest file does not exist yet.
var ErrNotFound = errors.New("deploy manifest not found")

// NewFileRepository creates a repository that reads/writes YAML at the provided path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Load reads the manifest from disk.
func (r *FileRepository) Load(_ context.Context) (*domain.Manifest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("read deploy manifest: %w", err)
	}

	manifest, err := Decode(contents)
	if err != nil {
		return nil, err
	}

	return manifest, nil
}

// Save writes the manifest to disk.
func (r *FileRepository) Save(_ context.Context, manifest *domain.Manifest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := yaml.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("encode deploy manifest: %w", err)
	}

	if err = os.WriteFile(r.path, data, manifestFileMode); err != nil {
		return fmt.Errorf("write deploy manifest: %w", err)
	}

	return nil
}

// Decode parses manifest YAML bytes, shared with callers that fetch the
// hosted manifest over HTTP.
func Decode(contents []byte) (*domain.Manifest, error) {
	var manifest domain.Manifest
	if err := yaml.Unmarshal(contents, &manifest); err != nil {
		return nil, fmt.Errorf("decode deploy manifest: %w", err)
	}

	return &manifest, nil
}
