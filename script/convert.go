package script

import (
	"fmt"
	"math"
	"reflect"
	"sort"

	"go.starlark.net/starlark"

	"github.com/reglet-dev/reglet-hooks/domain/entities"
)

// ToStarlark converts a boxed host value to a Starlark value. Values without a
// Starlark counterpart are wrapped in an Object.
func ToStarlark(v any) starlark.Value {
	switch x := v.(type) {
	case nil:
		return starlark.None
	case starlark.Value:
		return x
	case *Object:
		return x
	case bool:
		return starlark.Bool(x)
	case string:
		return starlark.String(x)
	case entities.Tuple:
		out := make(starlark.Tuple, len(x))
		for i, e := range x {
			out[i] = ToStarlark(e)
		}
		return out
	case []any:
		elems := make([]starlark.Value, len(x))
		for i, e := range x {
			elems[i] = ToStarlark(e)
		}
		return starlark.NewList(elems)
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		d := starlark.NewDict(len(x))
		for _, k := range keys {
			_ = d.SetKey(starlark.String(k), ToStarlark(x[k]))
		}
		return d
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return starlark.MakeInt64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return starlark.MakeUint64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return starlark.Float(rv.Float())
	case reflect.Bool:
		return starlark.Bool(rv.Bool())
	case reflect.String:
		return starlark.String(rv.String())
	}
	return &Object{Value: v}
}

// FromStarlark converts a Starlark value to a boxed host value. Tuples become
// entities.Tuple and dicts with string keys become map[string]any, the shapes
// the trampoline result protocol reads.
func FromStarlark(v starlark.Value) any {
	switch x := v.(type) {
	case nil, starlark.NoneType:
		return nil
	case starlark.Bool:
		return bool(x)
	case starlark.Int:
		if i, ok := x.Int64(); ok {
			if i >= math.MinInt && i <= math.MaxInt {
				return int(i)
			}
			return i
		}
		if u, ok := x.Uint64(); ok {
			return u
		}
		f, _ := starlark.AsFloat(x)
		return f
	case starlark.Float:
		return float64(x)
	case starlark.String:
		return string(x)
	case starlark.Tuple:
		out := make(entities.Tuple, len(x))
		for i, e := range x {
			out[i] = FromStarlark(e)
		}
		return out
	case *starlark.List:
		out := make([]any, x.Len())
		for i := 0; i < x.Len(); i++ {
			out[i] = FromStarlark(x.Index(i))
		}
		return out
	case *starlark.Dict:
		return dictFromStarlark(x)
	case *Object:
		return x.Value
	}
	return v
}

func dictFromStarlark(d *starlark.Dict) any {
	items := d.Items()
	strs := make(map[string]any, len(items))
	for _, kv := range items {
		k, ok := kv[0].(starlark.String)
		if !ok {
			return dictAnyKeys(items)
		}
		strs[string(k)] = FromStarlark(kv[1])
	}
	return strs
}

func dictAnyKeys(items []starlark.Tuple) map[any]any {
	out := make(map[any]any, len(items))
	for _, kv := range items {
		k := FromStarlark(kv[0])
		if k != nil && !reflect.TypeOf(k).Comparable() {
			k = kv[0].String()
		}
		out[k] = FromStarlark(kv[1])
	}
	return out
}

// Object wraps a host value that has no Starlark counterpart, such as the
// instance a hooked method is called on. Exported struct fields are readable
// as attributes.
type Object struct {
	Value any
}

var _ starlark.HasAttrs = (*Object)(nil)

func (o *Object) String() string        { return fmt.Sprintf("<%T>", o.Value) }
func (o *Object) Type() string          { return "host_value" }
func (o *Object) Freeze()               {}
func (o *Object) Truth() starlark.Bool  { return o.Value != nil }
func (o *Object) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: %s", o.Type()) }

// Attr returns an exported field of the wrapped struct.
func (o *Object) Attr(name string) (starlark.Value, error) {
	sv, ok := structValue(o.Value)
	if !ok {
		return nil, nil
	}
	f, ok := sv.Type().FieldByName(name)
	if !ok || !f.IsExported() {
		return nil, nil
	}
	return ToStarlark(sv.FieldByIndex(f.Index).Interface()), nil
}

// AttrNames returns the exported field names, sorted.
func (o *Object) AttrNames() []string {
	sv, ok := structValue(o.Value)
	if !ok {
		return nil
	}
	var names []string
	for _, f := range reflect.VisibleFields(sv.Type()) {
		if f.IsExported() && !f.Anonymous {
			names = append(names, f.Name)
		}
	}
	sort.Strings(names)
	return names
}

func structValue(v any) (reflect.Value, bool) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return reflect.Value{}, false
		}
		rv = rv.Elem()
	}
	return rv, rv.Kind() == reflect.Struct
}
