package ports

import "github.com/reglet-dev/reglet-hooks/domain/entities"

// ManifestParser parses raw manifest bytes into a Manifest.
type ManifestParser interface {
	// Parse unmarshals manifest bytes into a Manifest struct.
	Parse(data []byte) (*entities.Manifest, error)
	// Decode unmarshals manifest bytes into a generic document, keeping keys
	// that Parse would ignore so they can be checked against the schema.
	Decode(data []byte) (map[string]any, error)
}
