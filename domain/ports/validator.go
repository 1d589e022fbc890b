package ports

import "github.com/reglet-dev/reglet-hooks/domain/entities"

// ManifestValidator validates a manifest.
type ManifestValidator interface {
	// Validate checks a parsed manifest against its struct rules.
	Validate(manifest *entities.Manifest) (*entities.ValidationResult, error)
	// ValidateDocument checks a decoded manifest document against the
	// manifest JSON schema.
	ValidateDocument(doc map[string]any) (*entities.ValidationResult, error)
}
