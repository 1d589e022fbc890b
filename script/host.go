package script

import (
	"fmt"

	"go.starlark.net/starlark"

	"github.com/reglet-dev/reglet-hooks/host"
	"github.com/reglet-dev/reglet-hooks/trampoline"
)

// TypeValue exposes a host type to scripts. Its attributes are method
// references.
type TypeValue struct {
	t *host.Type
}

var _ starlark.HasAttrs = (*TypeValue)(nil)

// NewTypeValue wraps t.
func NewTypeValue(t *host.Type) *TypeValue {
	return &TypeValue{t: t}
}

func (v *TypeValue) String() string        { return "<type " + v.t.FullName() + ">" }
func (v *TypeValue) Type() string          { return "host_type" }
func (v *TypeValue) Freeze()               {}
func (v *TypeValue) Truth() starlark.Bool  { return starlark.True }
func (v *TypeValue) Hash() (uint32, error) { return starlark.String(v.t.FullName()).Hash() }

// Attr returns the method descriptor registered under name.
func (v *TypeValue) Attr(name string) (starlark.Value, error) {
	d, ok := v.t.Descriptor(name)
	if !ok {
		return nil, nil
	}
	return &MethodValue{desc: d}, nil
}

// AttrNames returns the method names, sorted.
func (v *TypeValue) AttrNames() []string {
	return v.t.MethodNames()
}

// MethodValue is an unbound method reference obtained from a TypeValue. It is
// accepted as a patch target and may be called when it names one overload:
// instance methods take the receiver as their first argument.
type MethodValue struct {
	desc *host.MethodDescriptor
}

var (
	_ starlark.Callable = (*MethodValue)(nil)
	_ host.Reference    = (*MethodValue)(nil)
)

// HostReference implements host.Reference.
func (v *MethodValue) HostReference() any {
	return v.desc
}

// Name returns the method's full name.
func (v *MethodValue) Name() string { return v.desc.Template().FullName() }

func (v *MethodValue) String() string        { return "<method " + v.Name() + ">" }
func (v *MethodValue) Type() string          { return "host_method" }
func (v *MethodValue) Freeze()               {}
func (v *MethodValue) Truth() starlark.Bool  { return starlark.True }
func (v *MethodValue) Hash() (uint32, error) { return starlark.String(v.Name()).Hash() }

// CallInternal invokes the method with converted arguments.
func (v *MethodValue) CallInternal(_ *starlark.Thread, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if len(kwargs) > 0 {
		return nil, fmt.Errorf("%s: unexpected keyword arguments", v.Name())
	}
	target, err := trampoline.Resolve(v.desc)
	if err != nil {
		return nil, err
	}
	m := target.Target
	for _, p := range m.Params() {
		if p.ByRef {
			return nil, fmt.Errorf("%s: methods with reference parameters cannot be called from scripts", v.Name())
		}
	}

	var instance any
	if !m.IsStatic() {
		if len(args) == 0 {
			return nil, fmt.Errorf("%s: missing receiver", v.Name())
		}
		instance = FromStarlark(args[0])
		args = args[1:]
	}
	in := make([]any, len(args))
	for i, a := range args {
		in[i] = FromStarlark(a)
	}

	res, err := m.Call(instance, in...)
	if err != nil {
		return nil, err
	}
	return ToStarlark(res), nil
}
