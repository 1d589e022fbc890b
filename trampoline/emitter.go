package trampoline

import (
	"fmt"
	"reflect"

	"github.com/reglet-dev/reglet-hooks/domain/entities"
	"github.com/reglet-dev/reglet-hooks/domain/errors"
	"github.com/reglet-dev/reglet-hooks/domain/ports"
	"github.com/reglet-dev/reglet-hooks/internal/boxing"
)

// Emitter realizes specifications as callable hooks.
type Emitter struct {
	store ports.AddressStore
}

// NewEmitter creates an emitter that resolves wrapper tokens in store.
func NewEmitter(store ports.AddressStore) *Emitter {
	if store == nil {
		store = DefaultStorage
	}
	return &Emitter{store: store}
}

// Emit compiles spec and returns the hook bound to the wrapper stored under
// token. An inconsistent spec is a programming defect: Emit panics with an
// error wrapping errors.ErrEmission.
//
// Failures while the hook runs (missing wrapper, core errors, coercions)
// panic inside the hook so the interception framework reports them.
func (e *Emitter) Emit(spec *Specification, token entities.Token) *entities.HookMethod {
	hm, _ := e.emit(spec, token)
	return hm
}

func (e *Emitter) emit(spec *Specification, token entities.Token) (*entities.HookMethod, *Program) {
	if err := spec.Validate(); err != nil {
		panic(fmt.Errorf("%w: %s: %v", errors.ErrEmission, spec.Name, err))
	}

	prog := Compile(spec, token)

	in := make([]reflect.Type, len(spec.Params))
	names := make([]string, len(spec.Params))
	for i, p := range spec.Params {
		in[i] = p.Type
		names[i] = p.InternalName
	}
	var out []reflect.Type
	if spec.ReturnType != nil {
		out = []reflect.Type{spec.ReturnType}
	}
	fnType := reflect.FuncOf(in, out, false)

	m := &machine{store: e.store, prog: prog, spec: spec}
	fn := reflect.MakeFunc(fnType, m.run)

	return &entities.HookMethod{
		Func:       fn,
		Name:       spec.Name,
		ParamNames: names,
		Kind:       spec.Kind,
	}, prog
}

// machine executes a Program for each trampoline invocation. It holds no
// per-call state, so concurrent invocations are safe.
type machine struct {
	store ports.AddressStore
	prog  *Program
	spec  *Specification
}

func (m *machine) run(params []reflect.Value) []reflect.Value {
	var (
		wrapper *affixWrapper
		args    []any
		result  *entities.AffixResult
	)

	for pc := 0; pc < len(m.prog.Instrs); pc++ {
		in := m.prog.Instrs[pc]
		switch in.Op {
		case OpFetchWrapper:
			v, ok := m.store.Fetch(m.prog.Token)
			if !ok {
				panic(fmt.Errorf("%s: no wrapper stored under token %d", m.prog.Name, m.prog.Token))
			}
			w, ok := v.(*affixWrapper)
			if !ok {
				panic(fmt.Errorf("%s: token %d holds %T, not a core wrapper", m.prog.Name, m.prog.Token, v))
			}
			wrapper = w

		case OpNewArgs:
			args = make([]any, in.A)

		case OpLoadArg:
			args[in.A] = load(params[in.B], m.spec.Params[in.B].ByRef)

		case OpCall:
			r, err := wrapper.invoke(args)
			if err != nil {
				panic(err)
			}
			result = r

		case OpSkipIfNoAssignments:
			if result.Assignments == nil {
				pc = in.B - 1
			}

		case OpStoreRef:
			v, ok := result.Assignments[in.Name]
			if !ok {
				continue
			}
			slot := params[in.B]
			if slot.IsNil() {
				continue
			}
			if native := m.spec.Params[in.B].NativeType; native != nil {
				v = boxing.Box(boxing.MustUnbox(v, native))
			}
			*slot.Interface().(*any) = v

		case OpReturnBool:
			ok, err := boxing.Truth(result.Value)
			if err != nil {
				panic(err)
			}
			return []reflect.Value{reflect.ValueOf(ok)}

		case OpReturn:
			return nil
		}
	}
	panic(fmt.Errorf("%w: %s: program fell off its end", errors.ErrEmission, m.prog.Name))
}

func load(v reflect.Value, byRef bool) any {
	if !byRef {
		return boxing.Box(v)
	}
	if v.IsNil() {
		return nil
	}
	return boxing.Box(v.Elem())
}
