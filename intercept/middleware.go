package intercept

import (
	"fmt"
	"log/slog"

	"github.com/reglet-dev/reglet-hooks/domain/entities"
	"github.com/reglet-dev/reglet-hooks/host"
	"github.com/reglet-dev/reglet-hooks/log"
)

// Invocation is the state shared by the hooks of one call to a patched method.
type Invocation struct {
	Method *host.Method
	Call   *host.Call

	// Owner, Kind and Hook describe the hook currently running.
	Owner string
	Hook  string
	Kind  entities.PatchKind
}

// HookFunc runs one hook against an invocation. The boolean result is the
// prefix's "run original" vote; postfixes always return true.
type HookFunc func(inv *Invocation) (bool, error)

// Middleware is a function that wraps a HookFunc to add cross-cutting behavior.
// Middleware executes in FIFO order (first registered wraps first, onion model).
type Middleware func(next HookFunc) HookFunc

// PanicRecoveryMiddleware returns a middleware that catches hook panics, such
// as coercion failures inside generated trampolines, and returns them as errors
// instead of crashing the caller of the patched method.
func PanicRecoveryMiddleware() Middleware {
	return func(next HookFunc) HookFunc {
		return func(inv *Invocation) (ok bool, err error) {
			defer func() {
				if r := recover(); r != nil {
					ok = false
					if e, isErr := r.(error); isErr {
						err = e
					} else {
						err = fmt.Errorf("panic: %v", r)
					}
				}
			}()
			return next(inv)
		}
	}
}

// LoggingMiddleware returns a middleware that logs hook invocations at debug
// level and failures at warn level.
func LoggingMiddleware(logger *slog.Logger) Middleware {
	return func(next HookFunc) HookFunc {
		return func(inv *Invocation) (bool, error) {
			attrs := []any{
				slog.String("target", inv.Method.FullName()),
				slog.String("hook", inv.Hook),
				slog.String("kind", inv.Kind.String()),
				slog.String("owner", inv.Owner),
			}
			logger.Debug("invoking hook", attrs...)
			ok, err := next(inv)
			if err != nil {
				logger.Warn("hook failed", append(attrs, log.Err(err))...)
			}
			return ok, err
		}
	}
}

func chain(h HookFunc, middleware []Middleware) HookFunc {
	// Apply in reverse so the first middleware wraps outermost
	for i := len(middleware) - 1; i >= 0; i-- {
		h = middleware[i](h)
	}
	return h
}
