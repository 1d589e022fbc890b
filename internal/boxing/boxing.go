// Package boxing converts between boxed values (any) and typed reflect.Values.
// It is the single coercion policy shared by the host runtime, the interception
// framework and the generated trampolines.
package boxing

import (
	"fmt"
	"math"
	"reflect"
)

// AnyType is the universal object supertype used on the trampoline boundary.
var AnyType = reflect.TypeOf((*any)(nil)).Elem()

// AnyRefType is a by-reference slot of AnyType.
var AnyRefType = reflect.PointerTo(AnyType)

// CoercionError reports a boxed value that cannot be narrowed to a destination type.
type CoercionError struct {
	Value  any
	Target reflect.Type
	Reason string
}

func (e *CoercionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("cannot coerce %T to %v: %s", e.Value, e.Target, e.Reason)
	}
	return fmt.Sprintf("cannot coerce %T to %v", e.Value, e.Target)
}

// Unbox coerces v to a value of type t.
//
// Value-typed destinations get an unbox-to-concrete-type coercion: numeric kinds
// convert between each other when the value fits, and types with the same
// underlying kind convert. Reference-typed destinations get a checked
// assignability test. A nil box unboxes to the zero value of nilable types only.
func Unbox(v any, t reflect.Type) (reflect.Value, error) {
	if t == nil {
		return reflect.Value{}, &CoercionError{Value: v, Reason: "no destination type"}
	}
	if v == nil {
		if Nilable(t) {
			return reflect.Zero(t), nil
		}
		return reflect.Value{}, &CoercionError{Value: v, Target: t, Reason: "nil is not a " + t.Kind().String()}
	}

	rv, ok := v.(reflect.Value)
	if !ok {
		rv = reflect.ValueOf(v)
	}
	if !rv.IsValid() {
		return Unbox(nil, t)
	}

	if rv.Type() == t {
		return rv, nil
	}
	if rv.Type().AssignableTo(t) {
		out := reflect.New(t).Elem()
		out.Set(rv)
		return out, nil
	}

	if isNumeric(rv.Kind()) && isNumeric(t.Kind()) {
		return convertNumber(rv, t)
	}
	if rv.Kind() == t.Kind() && rv.Type().ConvertibleTo(t) {
		switch t.Kind() {
		case reflect.String, reflect.Bool, reflect.Slice, reflect.Map:
			return rv.Convert(t), nil
		}
	}

	return reflect.Value{}, &CoercionError{Value: rv.Interface(), Target: t}
}

// MustUnbox is Unbox for generated code: a failed coercion panics with the
// *CoercionError so the caller's recovery channel reports it.
func MustUnbox(v any, t reflect.Type) reflect.Value {
	out, err := Unbox(v, t)
	if err != nil {
		panic(err)
	}
	return out
}

// Box returns the dynamic value held by rv, or nil for an invalid Value.
func Box(rv reflect.Value) any {
	if !rv.IsValid() {
		return nil
	}
	if rv.Kind() == reflect.Interface && rv.IsNil() {
		return nil
	}
	return rv.Interface()
}

// Truth narrows a boxed primary value to the boolean a prefix hook returns.
// An absent value means "run the original".
func Truth(v any) (bool, error) {
	if v == nil {
		return true, nil
	}
	if b, ok := v.(bool); ok {
		return b, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Bool {
		return rv.Bool(), nil
	}
	return false, &CoercionError{Value: v, Target: reflect.TypeOf(false)}
}

// Nilable reports whether the zero value of t is nil.
func Nilable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return true
	}
	return false
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func convertNumber(rv reflect.Value, t reflect.Type) (reflect.Value, error) {
	out := reflect.New(t).Elem()
	fail := func(reason string) (reflect.Value, error) {
		return reflect.Value{}, &CoercionError{Value: rv.Interface(), Target: t, Reason: reason}
	}

	switch {
	case rv.CanInt():
		i := rv.Int()
		switch {
		case out.CanInt():
			if out.OverflowInt(i) {
				return fail("overflow")
			}
			out.SetInt(i)
		case out.CanUint():
			if i < 0 || out.OverflowUint(uint64(i)) {
				return fail("overflow")
			}
			out.SetUint(uint64(i))
		default:
			out.SetFloat(float64(i))
		}
	case rv.CanUint():
		u := rv.Uint()
		switch {
		case out.CanInt():
			if u > math.MaxInt64 || out.OverflowInt(int64(u)) {
				return fail("overflow")
			}
			out.SetInt(int64(u))
		case out.CanUint():
			if out.OverflowUint(u) {
				return fail("overflow")
			}
			out.SetUint(u)
		default:
			out.SetFloat(float64(u))
		}
	default:
		f := rv.Float()
		switch {
		case out.CanFloat():
			if out.OverflowFloat(f) {
				return fail("overflow")
			}
			out.SetFloat(f)
		case f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f):
			return fail("not an integral value")
		case out.CanInt():
			if f < math.MinInt64 || f >= math.MaxInt64 || out.OverflowInt(int64(f)) {
				return fail("overflow")
			}
			out.SetInt(int64(f))
		default:
			if f < 0 || f >= math.MaxUint64 || out.OverflowUint(uint64(f)) {
				return fail("overflow")
			}
			out.SetUint(uint64(f))
		}
	}
	return out, nil
}
