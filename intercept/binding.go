package intercept

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/reglet-dev/reglet-hooks/domain/entities"
	"github.com/reglet-dev/reglet-hooks/domain/errors"
	"github.com/reglet-dev/reglet-hooks/host"
	"github.com/reglet-dev/reglet-hooks/internal/boxing"
)

type paramSource int

const (
	sourceArg paramSource = iota
	sourceInstance
	sourceResult
)

type bindMode int

const (
	// modeValue passes the current value.
	modeValue bindMode = iota
	// modeBoxedRef passes a *any slot and writes it back.
	modeBoxedRef
	// modeTypedRef passes a *T slot of the native type and writes it back.
	modeTypedRef
)

type paramBinding struct {
	native    reflect.Type // value type behind the slot; nil for the result of a void method
	typ       reflect.Type // hook parameter type
	name      string
	source    paramSource
	mode      bindMode
	index     int
	nativeRef bool // the target argument is a pointer to the caller's storage
}

type boundHook struct {
	fn          reflect.Value
	method      *host.Method
	name        string
	params      []paramBinding
	kind        entities.PatchKind
	returnsBool bool
}

// Internal names of the reserved slots as they appear in hook signatures.
var (
	instanceParam = entities.InternalName(entities.InstanceSlot)
	resultParam   = entities.InternalName(entities.ResultSlot)
)

func bindHook(m *host.Method, hm *entities.HookMethod, kind entities.PatchKind) (*boundHook, error) {
	incompatible := func(reason string, params ...string) error {
		return &errors.IncompatibleSignatureError{Hook: hm.Name, Reason: reason, Params: params}
	}

	if !hm.Func.IsValid() || hm.Func.Kind() != reflect.Func || hm.Func.IsNil() {
		return nil, incompatible("hook is not a function")
	}
	ft := hm.Func.Type()
	if ft.IsVariadic() {
		return nil, incompatible("variadic hooks are not supported")
	}
	if ft.NumIn() != len(hm.ParamNames) {
		return nil, incompatible(fmt.Sprintf("%d parameters but %d names", ft.NumIn(), len(hm.ParamNames)))
	}

	h := &boundHook{fn: hm.Func, method: m, name: hm.Name, kind: kind}
	switch kind {
	case entities.PatchPrefix:
		switch {
		case ft.NumOut() == 0:
		case ft.NumOut() == 1 && ft.Out(0).Kind() == reflect.Bool:
			h.returnsBool = true
		default:
			return nil, incompatible("prefix must return bool or nothing")
		}
	case entities.PatchPostfix:
		if ft.NumOut() != 0 {
			return nil, incompatible("postfix must not return a value")
		}
	default:
		return nil, &errors.NotImplementedError{Feature: kind.String() + " hooks"}
	}

	params := make(map[string]int, len(m.Params()))
	for i, p := range m.Params() {
		params[p.Name] = i
	}

	var unknown, mismatched []string
	for i, pname := range hm.ParamNames {
		b := paramBinding{name: pname, typ: ft.In(i)}
		switch pname {
		case instanceParam:
			if m.IsStatic() {
				return nil, incompatible("static method has no instance", pname)
			}
			b.source = sourceInstance
			b.native = m.InstanceType()
		case resultParam:
			b.source = sourceResult
			b.native = m.ReturnType()
		default:
			idx, ok := params[pname]
			if !ok {
				unknown = append(unknown, pname)
				continue
			}
			p := m.Params()[idx]
			b.source = sourceArg
			b.index = idx
			b.native = p.Type
			if p.ByRef {
				b.nativeRef = true
				b.native = p.Type.Elem()
			}
		}

		mode, ok := chooseMode(b.native, b.typ)
		if !ok {
			mismatched = append(mismatched, fmt.Sprintf("%s %v", pname, b.typ))
			continue
		}
		b.mode = mode
		h.params = append(h.params, b)
	}

	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, incompatible("unknown parameters", unknown...)
	}
	if len(mismatched) > 0 {
		return nil, incompatible("parameter types do not match the target", mismatched...)
	}
	return h, nil
}

func chooseMode(native, typ reflect.Type) (bindMode, bool) {
	switch {
	case native == nil && typ.Kind() == reflect.Interface:
		return modeValue, true
	case native != nil && native.AssignableTo(typ):
		return modeValue, true
	case typ.Kind() == reflect.Pointer && typ.Elem().Kind() == reflect.Interface &&
		(native == nil || native.Implements(typ.Elem())):
		return modeBoxedRef, true
	case native != nil && typ.Kind() == reflect.Pointer && typ.Elem() == native:
		return modeTypedRef, true
	}
	return 0, false
}

func (h *boundHook) invoke(inv *Invocation) (bool, error) {
	in := make([]reflect.Value, len(h.params))
	type writeback struct {
		b    *paramBinding
		slot reflect.Value
	}
	var writes []writeback

	for i := range h.params {
		b := &h.params[i]
		cur := b.load(inv.Call)
		switch b.mode {
		case modeValue:
			in[i] = valueFor(cur, b.typ)
		case modeBoxedRef, modeTypedRef:
			slot := reflect.New(b.typ.Elem())
			if cur.IsValid() {
				slot.Elem().Set(cur)
			}
			in[i] = slot
			writes = append(writes, writeback{b: b, slot: slot})
		}
	}

	out := h.fn.Call(in)

	for _, w := range writes {
		if err := w.b.store(h.method, inv.Call, w.slot.Elem()); err != nil {
			return false, fmt.Errorf("write back %s: %w", w.b.name, err)
		}
	}
	if h.returnsBool {
		return out[0].Bool(), nil
	}
	return true, nil
}

func valueFor(cur reflect.Value, typ reflect.Type) reflect.Value {
	if !cur.IsValid() {
		return reflect.Zero(typ)
	}
	if cur.Type() == typ {
		return cur
	}
	v := reflect.New(typ).Elem()
	v.Set(cur)
	return v
}

func (b *paramBinding) load(call *host.Call) reflect.Value {
	switch b.source {
	case sourceInstance:
		return call.Instance
	case sourceResult:
		return call.Result
	}
	v := call.Args[b.index]
	if b.nativeRef {
		if v.IsNil() {
			return reflect.Value{}
		}
		return v.Elem()
	}
	return v
}

func (b *paramBinding) store(m *host.Method, call *host.Call, slot reflect.Value) error {
	boxed := boxing.Box(slot)
	switch b.source {
	case sourceInstance:
		v, err := boxing.Unbox(boxed, m.InstanceType())
		if err != nil {
			return err
		}
		call.Instance = v
		return nil
	case sourceResult:
		if m.ReturnType() == nil {
			return nil
		}
		v, err := boxing.Unbox(boxed, m.ReturnType())
		if err != nil {
			return err
		}
		call.Result = v
		return nil
	}

	if b.nativeRef {
		ptr := call.Args[b.index]
		if ptr.IsNil() {
			if boxed == nil {
				return nil
			}
			return fmt.Errorf("nil reference")
		}
		v, err := boxing.Unbox(boxed, ptr.Type().Elem())
		if err != nil {
			return err
		}
		ptr.Elem().Set(v)
		return nil
	}

	v, err := boxing.Unbox(boxed, call.Args[b.index].Type())
	if err != nil {
		return err
	}
	call.Args[b.index] = v
	return nil
}
