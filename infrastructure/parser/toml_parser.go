package parser

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/reglet-dev/reglet-hooks/domain/entities"
	"github.com/reglet-dev/reglet-hooks/domain/ports"
)

// TomlManifestParser implements ManifestParser for TOML.
type TomlManifestParser struct{}

// NewTomlManifestParser creates a new TomlManifestParser.
func NewTomlManifestParser() ports.ManifestParser {
	return &TomlManifestParser{}
}

// Parse unmarshals TOML bytes into a Manifest struct.
func (p *TomlManifestParser) Parse(data []byte) (*entities.Manifest, error) {
	var manifest entities.Manifest
	if err := toml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("parse toml manifest: %w", err)
	}
	return &manifest, nil
}

// Decode unmarshals TOML bytes into a generic document.
func (p *TomlManifestParser) Decode(data []byte) (map[string]any, error) {
	doc := map[string]any{}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode toml manifest: %w", err)
	}
	return doc, nil
}
