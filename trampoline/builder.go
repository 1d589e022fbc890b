package trampoline

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/reglet-dev/reglet-hooks/domain/entities"
	"github.com/reglet-dev/reglet-hooks/domain/errors"
	"github.com/reglet-dev/reglet-hooks/domain/ports"
	"github.com/reglet-dev/reglet-hooks/internal/boxing"
)

// Param is one parameter of a trampoline signature.
type Param struct {
	// Type is any, or *any for a reference.
	Type reflect.Type

	// NativeType is the target type behind the slot, used to coerce written
	// values. Nil for the result slot of a void target.
	NativeType reflect.Type

	// Name is the hook-facing name ("x", "__result__").
	Name string

	// InternalName is the name in the generated signature ("x", "__result").
	InternalName string

	// CoreIndex is the position in the core function's argument list, -1 for
	// reference-only parameters.
	CoreIndex int

	ByRef bool
}

// Specification is the full signature a trampoline must expose for one
// (core function, target) pair. It is consumed by Emit and then discarded.
type Specification struct {
	Core       ports.CoreFunction
	ReturnType reflect.Type
	Target     *entities.TargetDescriptor

	Name       string
	CoreParams []string
	Refs       entities.RefSet
	Params     []Param
	Kind       entities.PatchKind
}

// ParamIndex returns the position of the named parameter, or -1.
func (s *Specification) ParamIndex(name string) int {
	for i, p := range s.Params {
		if p.Name == name {
			return i
		}
	}
	return -1
}

// Validate checks internal consistency. A failure is a defect in the builder.
func (s *Specification) Validate() error {
	if s.Core == nil {
		return fmt.Errorf("no core function")
	}
	if s.Kind != entities.PatchPrefix && s.Kind != entities.PatchPostfix {
		return fmt.Errorf("kind %s cannot be emitted", s.Kind)
	}
	if s.ReturnType != s.Kind.ReturnType() {
		return fmt.Errorf("return type %v does not match kind %s", s.ReturnType, s.Kind)
	}
	if len(s.Params) < len(s.CoreParams) {
		return fmt.Errorf("%d parameters for %d core parameters", len(s.Params), len(s.CoreParams))
	}
	seen := make(map[string]bool, len(s.Params))
	for i, p := range s.Params {
		if seen[p.InternalName] {
			return fmt.Errorf("duplicate parameter %s", p.InternalName)
		}
		seen[p.InternalName] = true
		if p.ByRef != s.Refs.Has(p.Name) {
			return fmt.Errorf("parameter %s: reference flag disagrees with refs", p.Name)
		}
		want := boxing.AnyType
		if p.ByRef {
			want = boxing.AnyRefType
		}
		if p.Type != want {
			return fmt.Errorf("parameter %s: type %v, want %v", p.Name, p.Type, want)
		}
		if i < len(s.CoreParams) {
			if p.CoreIndex != i || s.CoreParams[i] != p.Name {
				return fmt.Errorf("parameter %d does not match core parameter %d", i, i)
			}
		} else if p.CoreIndex != -1 {
			return fmt.Errorf("reference-only parameter %s has a core index", p.Name)
		}
	}
	for _, r := range s.Refs {
		if !seen[internalName(r)] {
			return fmt.Errorf("ref %s has no parameter", r)
		}
	}
	return nil
}

// Build computes the trampoline signature for core against target.
//
// The core function's name selects the hook kind. Its formal parameters must
// name target parameters or the reserved slots; refNames must name target
// parameters or the result slot. The parameter list is the core parameters in
// declared order followed by the remaining refs sorted by name.
func Build(core ports.CoreFunction, target *entities.TargetDescriptor, refNames []string) (*Specification, error) {
	if core == nil || target == nil {
		return nil, fmt.Errorf("build: core function and target are required")
	}

	kind, ok := entities.ParsePatchKind(core.Name())
	if !ok {
		return nil, &errors.IncompatibleSignatureError{
			Hook:   core.Name(),
			Reason: "core function must be named prefix, postfix or transpiler",
		}
	}
	if kind == entities.PatchTranspiler {
		return nil, &errors.NotImplementedError{Feature: "transpilers"}
	}

	validRefs := make(map[string]bool, len(target.Params)+1)
	for _, p := range target.Params {
		validRefs[p.Name] = true
	}
	validRefs[entities.ResultSlot] = true
	validParams := make(map[string]bool, len(validRefs)+1)
	for n := range validRefs {
		validParams[n] = true
	}
	validParams[entities.InstanceSlot] = true

	var invalid []string
	for _, r := range refNames {
		if !validRefs[r] {
			invalid = append(invalid, r)
		}
	}
	if len(invalid) > 0 {
		sort.Strings(invalid)
		return nil, &errors.InvalidRefNameError{Names: invalid, Valid: sortedKeys(validRefs)}
	}
	refs := entities.NewRefSet(refNames...)

	coreParams := core.Params()
	var unknown []string
	for _, p := range coreParams {
		if !validParams[p] {
			unknown = append(unknown, p)
		}
	}
	if len(unknown) > 0 {
		return nil, &errors.IncompatibleSignatureError{
			Hook:   core.Name(),
			Reason: "parameters name neither target parameters nor " + entities.InstanceSlot + "/" + entities.ResultSlot,
			Params: unknown,
		}
	}
	if target.InstanceType == nil {
		for _, p := range coreParams {
			if p == entities.InstanceSlot {
				return nil, &errors.IncompatibleSignatureError{
					Hook:   core.Name(),
					Reason: "static target has no instance",
					Params: []string{p},
				}
			}
		}
	}

	spec := &Specification{
		Name:       fmt.Sprintf("%s_%s_%s", target.DeclaringType, target.Name, kind),
		Kind:       kind,
		Core:       core,
		CoreParams: append([]string(nil), coreParams...),
		Refs:       refs,
		ReturnType: kind.ReturnType(),
		Target:     target,
	}

	names := make([]string, 0, len(coreParams)+len(refs))
	names = append(names, coreParams...)
	present := make(map[string]bool, len(coreParams))
	for _, p := range coreParams {
		present[p] = true
	}
	for _, r := range refs {
		if !present[r] {
			names = append(names, r)
		}
	}

	for i, name := range names {
		p := Param{
			Name:         name,
			InternalName: internalName(name),
			Type:         boxing.AnyType,
			NativeType:   nativeType(target, name),
			ByRef:        refs.Has(name),
			CoreIndex:    -1,
		}
		if p.ByRef {
			p.Type = boxing.AnyRefType
		}
		if i < len(coreParams) {
			p.CoreIndex = i
		}
		spec.Params = append(spec.Params, p)
	}
	return spec, nil
}

func internalName(name string) string {
	if name == entities.ResultSlot || name == entities.InstanceSlot {
		return entities.InternalName(name)
	}
	return name
}

func nativeType(target *entities.TargetDescriptor, name string) reflect.Type {
	switch name {
	case entities.ResultSlot:
		return target.ReturnType
	case entities.InstanceSlot:
		return target.InstanceType
	}
	p, ok := target.Param(name)
	if !ok {
		return nil
	}
	if p.ByRef {
		return p.Type.Elem()
	}
	return p.Type
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
