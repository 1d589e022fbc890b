package entities

import (
	"reflect"

	"github.com/reglet-dev/reglet-hooks/host"
)

// Parameter is one declared parameter of a target method.
type Parameter struct {
	// Type is the native parameter type; by-reference parameters are pointers.
	Type reflect.Type

	// Name is the declared parameter name.
	Name string

	// ByRef marks a parameter passed by reference.
	ByRef bool
}

// TargetDescriptor identifies exactly one native method. It is immutable once
// produced by the target resolver.
type TargetDescriptor struct {
	// Target is the resolved native method.
	Target *host.Method

	// ReturnType is the native result type, nil when the method returns nothing.
	ReturnType reflect.Type

	// InstanceType is the receiver type, nil for static methods.
	InstanceType reflect.Type

	// DeclaringType is the full name of the declaring type.
	DeclaringType string

	// Name is the method name.
	Name string

	// Params is the ordered parameter list, receiver excluded.
	Params []Parameter
}

// NewTargetDescriptor snapshots the reflection metadata of m.
func NewTargetDescriptor(m *host.Method) *TargetDescriptor {
	hp := m.Params()
	params := make([]Parameter, len(hp))
	for i, p := range hp {
		params[i] = Parameter{Name: p.Name, Type: p.Type, ByRef: p.ByRef}
	}
	return &TargetDescriptor{
		Target:        m,
		ReturnType:    m.ReturnType(),
		InstanceType:  m.InstanceType(),
		DeclaringType: m.DeclaringType().FullName(),
		Name:          m.Name(),
		Params:        params,
	}
}

// FullName returns "<declaring type>.<method>".
func (d *TargetDescriptor) FullName() string {
	return d.DeclaringType + "." + d.Name
}

// ParamNames returns the parameter names in declaration order.
func (d *TargetDescriptor) ParamNames() []string {
	names := make([]string, len(d.Params))
	for i, p := range d.Params {
		names[i] = p.Name
	}
	return names
}

// Param looks up a parameter by name.
func (d *TargetDescriptor) Param(name string) (Parameter, bool) {
	for _, p := range d.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Parameter{}, false
}
