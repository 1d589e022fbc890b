// Package parser reads patch manifests from YAML, JSON and TOML files.
package parser

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/reglet-dev/reglet-hooks/domain/ports"
)

// ForPath returns the parser for a manifest file, chosen by extension.
func ForPath(path string) (ports.ManifestParser, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml", ".json":
		return NewYamlManifestParser(), nil
	case ".toml":
		return NewTomlManifestParser(), nil
	default:
		return nil, fmt.Errorf("unsupported manifest format %q", ext)
	}
}
