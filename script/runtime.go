package script

import (
	"context"
	"log/slog"

	"go.starlark.net/starlark"

	"github.com/reglet-dev/reglet-hooks/domain/ports"
	"github.com/reglet-dev/reglet-hooks/host"
	"github.com/reglet-dev/reglet-hooks/intercept"
	"github.com/reglet-dev/reglet-hooks/trampoline"
)

// InterceptorFactory creates the interception instance behind Harmony(id).
type InterceptorFactory func(id string) (ports.Interceptor, error)

// Option is a functional option for configuring a Runtime.
type Option func(*Runtime)

// WithTypes exposes the types of table to scripts.
func WithTypes(table *host.TypeTable) Option {
	return func(rt *Runtime) {
		rt.types = table
	}
}

// WithInterceptorFactory replaces the default intercept.CreateInstance factory.
func WithInterceptorFactory(f InterceptorFactory) Option {
	return func(rt *Runtime) {
		if f != nil {
			rt.newInterceptor = f
		}
	}
}

// WithLogger sets the logger for script output and patch events.
func WithLogger(logger *slog.Logger) Option {
	return func(rt *Runtime) {
		if logger != nil {
			rt.logger = logger
		}
	}
}

// WithPatcherOptions passes options to the patcher behind every Harmony instance.
func WithPatcherOptions(opts ...trampoline.Option) Option {
	return func(rt *Runtime) {
		rt.patcherOpts = append(rt.patcherOpts, opts...)
	}
}

// WithGlobal predeclares an extra name for every script.
func WithGlobal(name string, v starlark.Value) Option {
	return func(rt *Runtime) {
		rt.globals[name] = v
	}
}

// Runtime executes patch scripts.
type Runtime struct {
	types          *host.TypeTable
	newInterceptor InterceptorFactory
	logger         *slog.Logger
	globals        starlark.StringDict
	patcherOpts    []trampoline.Option
}

// NewRuntime creates a runtime.
//
// Example usage:
//
//	rt := script.NewRuntime(
//	    script.WithTypes(types),
//	    script.WithLogger(logger),
//	)
//	_, err := rt.ExecFile(ctx, "patches/foo.star", nil)
func NewRuntime(opts ...Option) *Runtime {
	rt := &Runtime{
		logger:  slog.Default(),
		globals: starlark.StringDict{},
	}
	for _, opt := range opts {
		opt(rt)
	}
	if rt.newInterceptor == nil {
		logger := rt.logger
		rt.newInterceptor = func(id string) (ports.Interceptor, error) {
			return intercept.CreateInstance(id, intercept.WithLogger(logger))
		}
	}
	return rt
}

// Predeclared returns the names visible to every script.
func (rt *Runtime) Predeclared() starlark.StringDict {
	env := starlark.StringDict{
		"usingrefs": starlark.NewBuiltin("usingrefs", rt.usingrefs),
		"Harmony":   starlark.NewBuiltin("Harmony", rt.harmony),
	}
	if rt.types != nil {
		for _, t := range rt.types.Types() {
			name := t.Name()
			if _, taken := env[name]; taken {
				rt.logger.Warn("host type name shadowed", slog.String("name", name), slog.String("type", t.FullName()))
				continue
			}
			env[name] = NewTypeValue(t)
		}
	}
	for name, v := range rt.globals {
		env[name] = v
	}
	return env
}

// ExecFile runs a patch script. src may be nil to read path from disk, or a
// string or []byte holding the source. Cancelling ctx stops the script.
// Failures are returned as *errors.ScriptError carrying the Starlark backtrace.
func (rt *Runtime) ExecFile(ctx context.Context, path string, src any) (starlark.StringDict, error) {
	thread := &starlark.Thread{Name: path, Print: rt.print}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			thread.Cancel(ctx.Err().Error())
		case <-done:
		}
	}()

	globals, err := starlark.ExecFile(thread, path, src, rt.Predeclared())
	if err != nil {
		return nil, scriptError(path, err)
	}
	return globals, nil
}

func (rt *Runtime) print(thread *starlark.Thread, msg string) {
	rt.logger.Info(msg, slog.String("thread", thread.Name))
}
