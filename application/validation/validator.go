// Package validation checks patch manifests.
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/reglet-dev/reglet-hooks/application/schema"
	"github.com/reglet-dev/reglet-hooks/domain/entities"
	"github.com/reglet-dev/reglet-hooks/domain/ports"
)

// validate is a package-level singleton; validators cache struct metadata.
var validate = validator.New()

// ManifestValidator implements ports.ManifestValidator with go-playground
// struct rules for parsed manifests and the generated JSON schema for raw
// documents.
type ManifestValidator struct {
	schema *jsonschema.Schema
}

// NewManifestValidator compiles the manifest schema and returns a validator.
func NewManifestValidator() (ports.ManifestValidator, error) {
	raw, err := schema.ManifestSchema()
	if err != nil {
		return nil, err
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schema.ManifestSchemaURL, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("failed to add manifest schema: %w", err)
	}
	sch, err := compiler.Compile(schema.ManifestSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("invalid manifest schema: %w", err)
	}
	return &ManifestValidator{schema: sch}, nil
}

// Validate checks the manifest against its struct tags.
func (v *ManifestValidator) Validate(manifest *entities.Manifest) (*entities.ValidationResult, error) {
	if manifest == nil {
		return nil, fmt.Errorf("manifest is nil")
	}
	result := &entities.ValidationResult{Valid: true}

	err := validate.Struct(manifest)
	if err == nil {
		return result, nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return nil, fmt.Errorf("manifest validation failed: %w", err)
	}
	for _, fe := range fieldErrs {
		result.Errors = append(result.Errors, entities.ValidationError{
			Field:   fieldPath(fe.Namespace()),
			Message: ruleMessage(fe),
		})
	}
	result.Valid = false
	return result, nil
}

// ValidateDocument checks a decoded document against the manifest schema.
// The document is normalized through JSON first so YAML and TOML decoders
// produce the same value shapes.
func (v *ManifestValidator) ValidateDocument(doc map[string]any) (*entities.ValidationResult, error) {
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare validation object: %w", err)
	}
	var obj interface{}
	if err := json.Unmarshal(b, &obj); err != nil {
		return nil, fmt.Errorf("failed to prepare validation object: %w", err)
	}

	result := &entities.ValidationResult{Valid: true}
	err = v.schema.Validate(obj)
	if err == nil {
		return result, nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return nil, fmt.Errorf("manifest schema validation failed: %w", err)
	}
	for _, leaf := range leaves(ve) {
		result.Errors = append(result.Errors, entities.ValidationError{
			Field:   pointerPath(leaf.InstanceLocation),
			Message: leaf.Message,
		})
	}
	sort.SliceStable(result.Errors, func(i, j int) bool {
		return result.Errors[i].Field < result.Errors[j].Field
	})
	result.Valid = false
	return result, nil
}

func leaves(ve *jsonschema.ValidationError) []*jsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*jsonschema.ValidationError{ve}
	}
	var out []*jsonschema.ValidationError
	for _, c := range ve.Causes {
		out = append(out, leaves(c)...)
	}
	return out
}

// fieldPath drops the root struct name: "Manifest.Scripts[0].Path" becomes
// "Scripts[0].Path".
func fieldPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

// pointerPath turns a JSON pointer into a dotted path: "/scripts/0/path"
// becomes "scripts.0.path". The document root is "manifest".
func pointerPath(ptr string) string {
	ptr = strings.TrimPrefix(ptr, "/")
	if ptr == "" {
		return "manifest"
	}
	return strings.ReplaceAll(ptr, "/", ".")
}

func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must have at least %s entries", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "endswith":
		return fmt.Sprintf("must end with %q", fe.Param())
	}
	return fmt.Sprintf("failed on the %q rule", fe.Tag())
}
