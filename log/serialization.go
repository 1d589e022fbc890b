package log

import (
	"log/slog"

	"github.com/reglet-dev/reglet-hooks/domain/errors"
)

// Err renders err as a structured "error" group: its message plus the type,
// code and runtime flag of its ErrorDetail. Wrapped causes are flattened into
// a "cause" attribute.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{Key: "error", Value: slog.StringValue("<nil>")}
	}
	detail := errors.ToErrorDetail(err)

	attrs := []any{
		slog.String("message", detail.Message),
		slog.String("type", detail.Type),
	}
	if detail.Code != "" {
		attrs = append(attrs, slog.String("code", detail.Code))
	}
	if detail.IsRuntime {
		attrs = append(attrs, slog.Bool("runtime", true))
	}
	if detail.Wrapped != nil {
		attrs = append(attrs, slog.String("cause", detail.Wrapped.Message))
	}
	return slog.Group("error", attrs...)
}
