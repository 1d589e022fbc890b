// Package errors provides domain-specific error types for resolving targets,
// building patch specifications and running hooks.
// All error types support error unwrapping via errors.As() and errors.Is().
package errors

import (
	stdErrors "errors"
	"fmt"
	"strings"

	"github.com/reglet-dev/reglet-hooks/domain/entities"
	"github.com/reglet-dev/reglet-hooks/internal/boxing"
)

// ErrorDetail is an alias to entities.ErrorDetail for convenience.
type ErrorDetail = entities.ErrorDetail

// CoercionError reports a boxed value that cannot be narrowed to its destination
// type while a hook runs.
type CoercionError = boxing.CoercionError

// ErrEmission marks an internally inconsistent patch specification reaching the
// trampoline emitter. It is a programming defect, never a user error.
var ErrEmission = stdErrors.New("inconsistent patch specification")

// DetailedError is an interface for custom error types that can convert themselves
// to a structured ErrorDetail.
type DetailedError interface {
	error
	ToErrorDetail() *entities.ErrorDetail
}

// ToErrorDetail converts a Go error to our structured ErrorDetail.
func ToErrorDetail(err error) *entities.ErrorDetail {
	if err == nil {
		return nil
	}

	var e *entities.ErrorDetail
	if stdErrors.As(err, &e) {
		return e
	}

	var de DetailedError
	if stdErrors.As(err, &de) {
		return de.ToErrorDetail()
	}

	var ce *CoercionError
	if stdErrors.As(err, &ce) {
		return &entities.ErrorDetail{Message: err.Error(), Type: "coercion", IsRuntime: true}
	}

	return &entities.ErrorDetail{
		Message: err.Error(),
		Type:    "internal",
	}
}

// UnsupportedReferenceTypeError reports a patch target that does not denote a
// native method reference at all.
type UnsupportedReferenceTypeError struct {
	Type string
}

func (e *UnsupportedReferenceTypeError) Error() string {
	return fmt.Sprintf("incompatible target type %s: want a host method, method group or method descriptor", e.Type)
}

// ToErrorDetail implements DetailedError.
func (e *UnsupportedReferenceTypeError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "resolve", Code: "unsupported_reference"}
}

// AmbiguousTargetError reports an overload set that does not resolve to exactly one method.
type AmbiguousTargetError struct {
	Target string
	Count  int
}

func (e *AmbiguousTargetError) Error() string {
	return fmt.Sprintf("ambiguous target %s: %d candidates; overloaded methods cannot be patched", e.Target, e.Count)
}

// ToErrorDetail implements DetailedError.
func (e *AmbiguousTargetError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{
		Message: e.Error(),
		Type:    "resolve",
		Code:    "ambiguous_target",
		Details: map[string]any{"candidates": e.Count},
	}
}

// InvalidRefNameError reports declared references that name no target parameter
// and are not the result slot.
type InvalidRefNameError struct {
	Names []string
	Valid []string
}

func (e *InvalidRefNameError) Error() string {
	return fmt.Sprintf("refs [%s] do not name referencable parameters (valid: %s)",
		strings.Join(e.Names, ", "), strings.Join(e.Valid, ", "))
}

// ToErrorDetail implements DetailedError.
func (e *InvalidRefNameError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{
		Message: e.Error(),
		Type:    "signature",
		Code:    "invalid_ref",
		Details: map[string]any{"names": e.Names},
	}
}

// IncompatibleSignatureError reports a hook whose parameters or role do not
// fit the target.
type IncompatibleSignatureError struct {
	Hook   string
	Reason string
	Params []string
}

func (e *IncompatibleSignatureError) Error() string {
	if len(e.Params) > 0 {
		return fmt.Sprintf("hook %s is incompatible with its target: %s [%s]", e.Hook, e.Reason, strings.Join(e.Params, ", "))
	}
	return fmt.Sprintf("hook %s is incompatible with its target: %s", e.Hook, e.Reason)
}

// ToErrorDetail implements DetailedError.
func (e *IncompatibleSignatureError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "signature", Code: "incompatible"}
}

// NotImplementedError reports a recognized but unsupported feature.
type NotImplementedError struct {
	Feature string
}

func (e *NotImplementedError) Error() string {
	return fmt.Sprintf("%s not supported yet", e.Feature)
}

// ToErrorDetail implements DetailedError.
func (e *NotImplementedError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "signature", Code: "not_implemented"}
}

// DuplicateRefError reports a reference declaration naming a parameter twice.
type DuplicateRefError struct {
	Names []string
}

func (e *DuplicateRefError) Error() string {
	return fmt.Sprintf("duplicate ref names: %s", strings.Join(e.Names, ", "))
}

// ToErrorDetail implements DetailedError.
func (e *DuplicateRefError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "validation", Code: "duplicate_ref"}
}

// CoreResultError reports a core function result that fits neither the plain
// value, the mapping nor the (value, mapping) shape.
type CoreResultError struct {
	Core   string
	Reason string
}

func (e *CoreResultError) Error() string {
	return fmt.Sprintf("core function %s returned an unusable result: %s", e.Core, e.Reason)
}

// ToErrorDetail implements DetailedError.
func (e *CoreResultError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "coercion", Code: "core_result", IsRuntime: true}
}

// HookError wraps a failure raised while a hook ran.
type HookError struct {
	Err    error
	Owner  string
	Target string
	Kind   entities.PatchKind
}

func (e *HookError) Error() string {
	return fmt.Sprintf("%s hook of %s on %s failed: %v", e.Kind, e.Owner, e.Target, e.Err)
}

func (e *HookError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *HookError) ToErrorDetail() *entities.ErrorDetail {
	detail := &entities.ErrorDetail{Message: e.Error(), Type: "hook", Code: e.Kind.String(), IsRuntime: true}
	if e.Err != nil {
		detail.Wrapped = ToErrorDetail(e.Err)
	}
	return detail
}

// ConfigError represents a manifest validation error.
type ConfigError struct {
	Err   error
	Field string
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config validation failed for field '%s': %v", e.Field, e.Err)
	}
	return fmt.Sprintf("config validation failed: %v", e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *ConfigError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "config", Code: e.Field}
}

// ScriptError wraps a failure while loading a patch script.
type ScriptError struct {
	Err       error
	Path      string
	Backtrace string
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("script %s: %v", e.Path, e.Err)
}

func (e *ScriptError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *ScriptError) ToErrorDetail() *entities.ErrorDetail {
	detail := &entities.ErrorDetail{Message: e.Error(), Type: "script", Code: e.Path}
	if e.Backtrace != "" {
		detail.Details = map[string]any{"backtrace": e.Backtrace}
	}
	if e.Err != nil {
		detail.Wrapped = ToErrorDetail(e.Err)
	}
	return detail
}

// ManifestError reports a manifest that failed validation.
type ManifestError struct {
	Path   string
	Errors []entities.ValidationError
}

func (e *ManifestError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, ve := range e.Errors {
		parts = append(parts, fmt.Sprintf("%s: %s", ve.Field, ve.Message))
	}
	return fmt.Sprintf("manifest %s is invalid: %s", e.Path, strings.Join(parts, "; "))
}

// ToErrorDetail implements DetailedError.
func (e *ManifestError) ToErrorDetail() *entities.ErrorDetail {
	fields := make(map[string]any, len(e.Errors))
	for _, ve := range e.Errors {
		fields[ve.Field] = ve.Message
	}
	return entities.NewErrorDetail("validation", e.Error()).WithCode(e.Path).WithDetails(fields)
}
