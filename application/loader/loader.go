// Package loader reads a patch manifest and runs the scripts it lists.
package loader

import (
	"context"
	stdErrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"

	"github.com/google/uuid"
	"go.starlark.net/starlark"

	"github.com/reglet-dev/reglet-hooks/application/validation"
	"github.com/reglet-dev/reglet-hooks/domain/entities"
	"github.com/reglet-dev/reglet-hooks/domain/errors"
	"github.com/reglet-dev/reglet-hooks/domain/ports"
	"github.com/reglet-dev/reglet-hooks/host"
	"github.com/reglet-dev/reglet-hooks/infrastructure/parser"
	"github.com/reglet-dev/reglet-hooks/log"
	"github.com/reglet-dev/reglet-hooks/script"
)

// PackageNameVar is predeclared in every script with the manifest id. A script
// may rebind it to choose its own package name.
const PackageNameVar = "__packagename__"

var packageNamePattern = regexp.MustCompile(`^[A-Za-z]\w{0,63}$`)

// Option is a functional option for configuring a Loader.
type Option func(*Loader)

// WithTypes exposes the types of table to every script.
func WithTypes(table *host.TypeTable) Option {
	return func(l *Loader) {
		l.types = table
	}
}

// WithLogger uses logger instead of one built from the manifest's log section.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

// WithLogOutput sets where a logger built from the manifest writes.
// Defaults to os.Stderr.
func WithLogOutput(w io.Writer) Option {
	return func(l *Loader) {
		if w != nil {
			l.logOut = w
		}
	}
}

// WithValidator replaces the default manifest validator.
func WithValidator(v ports.ManifestValidator) Option {
	return func(l *Loader) {
		l.validator = v
	}
}

// WithRuntimeOptions passes extra options to the script runtime.
func WithRuntimeOptions(opts ...script.Option) Option {
	return func(l *Loader) {
		l.runtimeOpts = append(l.runtimeOpts, opts...)
	}
}

// Loader reads manifests and runs their scripts in order.
type Loader struct {
	types       *host.TypeTable
	logger      *slog.Logger
	logOut      io.Writer
	validator   ports.ManifestValidator
	runtimeOpts []script.Option
}

// New creates a loader.
//
// Example usage:
//
//	l, err := loader.New(loader.WithTypes(types))
//	report, err := l.Load(ctx, "hooks.yaml")
//	if err == nil {
//	    err = report.Err()
//	}
func New(opts ...Option) (*Loader, error) {
	l := &Loader{logOut: os.Stderr}
	for _, opt := range opts {
		opt(l)
	}
	if l.validator == nil {
		v, err := validation.NewManifestValidator()
		if err != nil {
			return nil, err
		}
		l.validator = v
	}
	return l, nil
}

// ScriptResult is the outcome of one manifest entry.
type ScriptResult struct {
	Err         error
	Path        string
	PackageName string
	Skipped     bool
}

// Report is the outcome of loading a manifest.
type Report struct {
	ID      string
	Scripts []ScriptResult
}

// Failed returns the results of scripts that failed.
func (r *Report) Failed() []ScriptResult {
	var out []ScriptResult
	for _, s := range r.Scripts {
		if s.Err != nil {
			out = append(out, s)
		}
	}
	return out
}

// Err joins the errors of all failed scripts, or returns nil.
func (r *Report) Err() error {
	var errs []error
	for _, s := range r.Failed() {
		errs = append(errs, s.Err)
	}
	return stdErrors.Join(errs...)
}

// ReadManifest reads, decodes and validates the manifest at path. A manifest
// that breaks the schema or the struct rules is a *errors.ManifestError.
func (l *Loader) ReadManifest(path string) (*entities.Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	p, err := parser.ForPath(path)
	if err != nil {
		return nil, err
	}

	doc, err := p.Decode(data)
	if err != nil {
		return nil, err
	}
	res, err := l.validator.ValidateDocument(doc)
	if err != nil {
		return nil, err
	}
	if !res.Valid {
		return nil, &errors.ManifestError{Path: path, Errors: res.Errors}
	}

	m, err := p.Parse(data)
	if err != nil {
		return nil, err
	}
	res, err = l.validator.Validate(m)
	if err != nil {
		return nil, err
	}
	if !res.Valid {
		return nil, &errors.ManifestError{Path: path, Errors: res.Errors}
	}
	return m, nil
}

// Load reads the manifest at path and runs each enabled script. Script
// failures are collected in the report and do not stop later scripts; the
// returned error covers the manifest itself and a cancelled ctx.
func (l *Loader) Load(ctx context.Context, path string) (*Report, error) {
	m, err := l.ReadManifest(path)
	if err != nil {
		return nil, err
	}

	logger := l.logger
	if logger == nil {
		logger, err = log.FromConfig(l.logOut, m.Log)
		if err != nil {
			return nil, &errors.ConfigError{Field: "log.level", Err: err}
		}
	}

	id := m.ID
	if id == "" {
		id = "hooks-" + uuid.NewString()
	}

	opts := []script.Option{
		script.WithLogger(logger),
		script.WithGlobal(PackageNameVar, starlark.String(id)),
	}
	if l.types != nil {
		opts = append(opts, script.WithTypes(l.types))
	}
	rt := script.NewRuntime(append(opts, l.runtimeOpts...)...)

	report := &Report{ID: id}
	for _, sc := range m.Scripts {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		result := ScriptResult{Path: sc.Path}
		if !sc.IsEnabled() {
			result.Skipped = true
			logger.Debug("script disabled", slog.String("path", sc.Path))
			report.Scripts = append(report.Scripts, result)
			continue
		}

		globals, err := rt.ExecFile(ctx, ScriptPath(path, sc.Path), nil)
		if err != nil {
			result.Err = err
			logger.Error("script failed", slog.String("path", sc.Path), log.Err(err))
		} else {
			result.PackageName = packageName(logger, sc.Path, globals, id)
			logger.Info("script loaded", slog.String("path", sc.Path), slog.String("package", result.PackageName))
		}
		report.Scripts = append(report.Scripts, result)
	}
	return report, nil
}

// ScriptPath resolves a script path from a manifest against the manifest's
// directory.
func ScriptPath(manifestPath, scriptPath string) string {
	if filepath.IsAbs(scriptPath) {
		return scriptPath
	}
	return filepath.Join(filepath.Dir(manifestPath), scriptPath)
}

// packageName resolves the name a script chose through PackageNameVar,
// falling back to the manifest id. An invalid name resolves to "".
func packageName(logger *slog.Logger, path string, globals starlark.StringDict, def string) string {
	v, ok := globals[PackageNameVar]
	if !ok {
		if packageNamePattern.MatchString(def) {
			return def
		}
		return ""
	}
	if s, isStr := starlark.AsString(v); isStr && packageNamePattern.MatchString(s) {
		return s
	}
	if v == starlark.None && packageNamePattern.MatchString(def) {
		return def
	}
	logger.Error("could not determine a valid package name",
		slog.String("path", path), slog.String("value", v.String()))
	return ""
}
