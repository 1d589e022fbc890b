package parser

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/reglet-dev/reglet-hooks/domain/entities"
	"github.com/reglet-dev/reglet-hooks/domain/ports"
)

// YamlManifestParser implements ManifestParser for YAML. JSON manifests are
// read with it too.
type YamlManifestParser struct{}

// NewYamlManifestParser creates a new YamlManifestParser.
func NewYamlManifestParser() ports.ManifestParser {
	return &YamlManifestParser{}
}

// Parse unmarshals YAML bytes into a Manifest struct.
func (p *YamlManifestParser) Parse(data []byte) (*entities.Manifest, error) {
	var manifest entities.Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("parse yaml manifest: %w", err)
	}
	return &manifest, nil
}

// Decode unmarshals YAML bytes into a generic document.
func (p *YamlManifestParser) Decode(data []byte) (map[string]any, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode yaml manifest: %w", err)
	}
	return doc, nil
}
