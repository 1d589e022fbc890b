package script

import (
	"fmt"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"

	"github.com/reglet-dev/reglet-hooks/domain/entities"
	"github.com/reglet-dev/reglet-hooks/domain/ports"
	"github.com/reglet-dev/reglet-hooks/trampoline"
)

var patchRoles = []string{"prefix", "postfix", "transpiler"}

// harmonyValue is the script-side handle of one interception instance.
type harmonyValue struct {
	rt      *Runtime
	patcher *trampoline.Patcher
	id      string
}

var _ starlark.HasAttrs = (*harmonyValue)(nil)

func (h *harmonyValue) String() string        { return fmt.Sprintf("Harmony(%q)", h.id) }
func (h *harmonyValue) Type() string          { return "Harmony" }
func (h *harmonyValue) Freeze()               {}
func (h *harmonyValue) Truth() starlark.Bool  { return starlark.True }
func (h *harmonyValue) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: Harmony") }

func (h *harmonyValue) Attr(name string) (starlark.Value, error) {
	switch name {
	case "id":
		return starlark.String(h.id), nil
	case "patch":
		return starlark.NewBuiltin("patch", h.patch), nil
	}
	return nil, nil
}

func (h *harmonyValue) AttrNames() []string {
	return []string{"id", "patch"}
}

// patch accepts either keyword form, patch(target, prefix=..., postfix=...),
// or a single struct-like value carrying those attributes. It returns the
// input decorated with a "patch" record.
func (h *harmonyValue) patch(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	fields := starlark.StringDict{}

	if spec, ok := patchSpec(args, kwargs); ok {
		for _, name := range spec.AttrNames() {
			v, err := spec.Attr(name)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", b.Name(), err)
			}
			fields[name] = v
		}
	} else {
		var target starlark.Value
		var prefix, postfix, transpiler starlark.Value = starlark.None, starlark.None, starlark.None
		if err := starlark.UnpackArgs(b.Name(), args, kwargs,
			"target", &target,
			"prefix?", &prefix,
			"postfix?", &postfix,
			"transpiler?", &transpiler,
		); err != nil {
			return nil, err
		}
		fields["target"] = target
		fields["prefix"] = prefix
		fields["postfix"] = postfix
		fields["transpiler"] = transpiler
	}

	target, ok := fields["target"]
	if !ok {
		return nil, fmt.Errorf("%s: missing target", b.Name())
	}
	req := &trampoline.PatchRequest{Target: target}
	for _, role := range patchRoles {
		core, err := h.rt.coreFunction(fields[role])
		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", b.Name(), role, err)
		}
		switch role {
		case "prefix":
			req.Prefix = core
		case "postfix":
			req.Postfix = core
		case "transpiler":
			req.Transpiler = core
		}
	}

	if _, err := h.patcher.Patch(req); err != nil {
		return nil, err
	}

	fields["patch"] = recordValue(req.Record)
	return starlarkstruct.FromStringDict(starlarkstruct.Default, fields), nil
}

func patchSpec(args starlark.Tuple, kwargs []starlark.Tuple) (starlark.HasAttrs, bool) {
	if len(args) != 1 || len(kwargs) != 0 {
		return nil, false
	}
	spec, ok := args[0].(starlark.HasAttrs)
	if !ok {
		return nil, false
	}
	v, err := spec.Attr("target")
	return spec, err == nil && v != nil
}

func recordValue(r *entities.PatchRecord) starlark.Value {
	return starlarkstruct.FromStringDict(starlarkstruct.Default, starlark.StringDict{
		"owner":   starlark.String(r.Owner),
		"target":  starlark.String(r.Target),
		"prefix":  starlark.String(r.Prefix),
		"postfix": starlark.String(r.Postfix),
		"applied": starlark.True,
	})
}

// coreFunction converts a script value to a core function; None and absent
// values mean no hook.
func (rt *Runtime) coreFunction(v starlark.Value) (ports.CoreFunction, error) {
	var fn *Function
	switch x := v.(type) {
	case nil, starlark.NoneType:
		return nil, nil
	case *RefFunction:
		fn = NewFunction(x.Function, x.Refs()...)
	case *starlark.Function:
		fn = NewFunction(x)
	default:
		return nil, fmt.Errorf("want a function, got %s", v.Type())
	}
	fn.print = rt.print
	return fn, nil
}

// usingrefs(*names) returns a decorator recording the reference names on a
// function.
func (rt *Runtime) usingrefs(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if len(kwargs) > 0 {
		return nil, fmt.Errorf("%s: unexpected keyword arguments", b.Name())
	}
	names := make([]string, len(args))
	for i, a := range args {
		s, ok := starlark.AsString(a)
		if !ok {
			return nil, fmt.Errorf("%s: argument %d: want string, got %s", b.Name(), i+1, a.Type())
		}
		names[i] = s
	}
	if err := trampoline.ValidateRefNames(names); err != nil {
		return nil, fmt.Errorf("%s: %w", b.Name(), err)
	}

	return starlark.NewBuiltin("usingrefs.decorator", func(_ *starlark.Thread, d *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var fnv starlark.Value
		if err := starlark.UnpackPositionalArgs(d.Name(), args, kwargs, 1, &fnv); err != nil {
			return nil, err
		}
		switch fn := fnv.(type) {
		case *starlark.Function:
			return &RefFunction{Function: fn, refs: names}, nil
		case *RefFunction:
			return &RefFunction{Function: fn.Function, refs: names}, nil
		}
		return nil, fmt.Errorf("%s: want a function, got %s", d.Name(), fnv.Type())
	}), nil
}

// harmony(id) creates an interception instance owned by id.
func (rt *Runtime) harmony(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var id string
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "id", &id); err != nil {
		return nil, err
	}
	inst, err := rt.newInterceptor(id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.Name(), err)
	}
	opts := append([]trampoline.Option{trampoline.WithLogger(rt.logger)}, rt.patcherOpts...)
	return &harmonyValue{rt: rt, id: id, patcher: trampoline.NewPatcher(inst, opts...)}, nil
}
