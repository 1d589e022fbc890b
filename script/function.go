package script

import (
	stdErrors "errors"

	"go.starlark.net/starlark"

	"github.com/reglet-dev/reglet-hooks/domain/errors"
)

// Function adapts a Starlark function to the core function contract. Every
// call runs on a fresh thread, so hooks may be invoked concurrently.
type Function struct {
	fn    *starlark.Function
	print func(thread *starlark.Thread, msg string)
	refs  []string
}

// NewFunction wraps fn. refs are the parameter names it may write back to.
func NewFunction(fn *starlark.Function, refs ...string) *Function {
	return &Function{fn: fn, refs: refs}
}

// Name returns the function's declared name.
func (f *Function) Name() string {
	return f.fn.Name()
}

// Params returns the positional parameter names. *args, **kwargs and
// keyword-only parameters are not part of the hook signature.
func (f *Function) Params() []string {
	n := f.fn.NumParams() - f.fn.NumKwonlyParams()
	if f.fn.HasVarargs() {
		n--
	}
	if f.fn.HasKwargs() {
		n--
	}
	names := make([]string, n)
	for i := range names {
		names[i], _ = f.fn.Param(i)
	}
	return names
}

// Refs returns the declared reference names.
func (f *Function) Refs() []string {
	return append([]string(nil), f.refs...)
}

// Call invokes the function through starlark.Call with converted arguments.
func (f *Function) Call(args []any) (any, error) {
	thread := &starlark.Thread{Name: f.fn.Name(), Print: f.print}
	sargs := make(starlark.Tuple, len(args))
	for i, a := range args {
		sargs[i] = ToStarlark(a)
	}
	v, err := starlark.Call(thread, f.fn, sargs, nil)
	if err != nil {
		return nil, scriptError(f.fn.Position().Filename(), err)
	}
	return FromStarlark(v), nil
}

func scriptError(path string, err error) error {
	se := &errors.ScriptError{Err: err, Path: path}
	var evalErr *starlark.EvalError
	if stdErrors.As(err, &evalErr) {
		se.Backtrace = evalErr.Backtrace()
	}
	return se
}

// RefFunction is a Starlark function annotated by usingrefs.
type RefFunction struct {
	*starlark.Function
	refs []string
}

// Refs returns the declared reference names.
func (r *RefFunction) Refs() []string {
	return append([]string(nil), r.refs...)
}
