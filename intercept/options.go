package intercept

import "log/slog"

// Option is a functional option for configuring an Instance.
type Option func(*Instance)

// WithLogger sets the logger used for hook invocation and patch events.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Instance) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// WithMiddleware adds middleware around every hook this instance installs.
// Middleware executes in FIFO order (first added wraps first), inside the
// built-in panic recovery and logging layers.
func WithMiddleware(mw ...Middleware) Option {
	return func(i *Instance) {
		i.middleware = append(i.middleware, mw...)
	}
}

// WithTable installs patches into table instead of the process-wide default.
func WithTable(table *PatchTable) Option {
	return func(i *Instance) {
		if table != nil {
			i.table = table
		}
	}
}
