package mlcube

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// yamlIndent matches the two-space indentation cube manifests are written with.
const yamlIndent = 2

var (
	// ErrNoDockerImage is returned when the manifest has no docker image reference.
	ErrNoDockerImage = errors.New("manifest has no docker image reference")
	// errMalformedManifest is returned when the manifest is not a YAML mapping.
	errMalformedManifest = errors.New("manifest is not a YAML mapping")
)

// Manifest is the subset of mlcube.yaml this tooling reads.
// The file is never round-tripped through this struct; in-place edits
// go through RewriteDockerImage to keep unrelated content intact.
type Manifest struct {
	// Name identifies the cube; it becomes the registered cube name.
	Name string `yaml:"name"`
	// Description is a free-form summary of the cube.
	Description string `yaml:"description"`
	// Docker describes the docker container backing the cube, if any.
	Docker *DockerSection `yaml:"docker"`
	// Singularity describes the singularity image backing the cube, if any.
	Singularity *SingularitySection `yaml:"singularity"`
}

// DockerSection holds the docker platform settings of a cube manifest.
type DockerSection struct {
	// Image is the container image reference, e.g. mlcommons/chexpert-prep:0.0.1.
	Image string `yaml:"image"`
}

// SingularitySection holds the singularity platform settings of a cube manifest.
type SingularitySection struct {
	// Image is the image filename under workspace/.image.
	Image string `yaml:"image"`
}

// LoadManifest parses mlcube.yaml at the provided path.
func LoadManifest(path string) (*Manifest, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(contents, &m); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}

	// Cube repos occasionally omit the name; fall back to the directory name.
	if m.Name == "" {
		m.Name = filepath.Base(filepath.Dir(filepath.Clean(path)))
	}

	return &m, nil
}

// RewriteDockerImage replaces the docker.image value of the manifest at path,
// leaving the rest of the document (ordering, comments, unknown keys) intact.
func RewriteDockerImage(path, image string) error {
	path = filepath.Clean(path)

	contents, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read manifest: %w", err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(contents, &doc); err != nil {
		return fmt.Errorf("unmarshal manifest: %w", err)
	}

	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return errMalformedManifest
	}

	imageNode := mappingValue(mappingValue(doc.Content[0], "docker"), "image")
	if imageNode == nil {
		return ErrNoDockerImage
	}

	imageNode.SetString(image)

	var buf bytes.Buffer

	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(yamlIndent)

	if err := encoder.Encode(&doc); err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}

	if err := encoder.Close(); err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat manifest: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), info.Mode().Perm()); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	return nil
}

// SynapseImageRef composes the Synapse registry reference for an existing
// image reference, keeping its name and tag:
// mlcommons/chexpert-prep:0.0.1 -> docker.synapse.org/syn12345/chexpert-prep:0.0.1.
func SynapseImageRef(registry, project, current string) string {
	segment := current
	if i := strings.LastIndex(current, "/"); i >= 0 {
		segment = current[i+1:]
	}

	if !strings.Contains(segment, ":") {
		segment += ":latest"
	}

	return registry + "/" + project + "/" + segment
}

// mappingValue returns the value node for the given key of a mapping node,
// or nil when the node is not a mapping or the key is absent.
func mappingValue(node *yaml.Node, key string) *yaml.Node {
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}

	// Mapping content alternates key and value nodes.
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}

	return nil
}
