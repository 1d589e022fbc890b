package trampoline

import (
	"fmt"

	"github.com/reglet-dev/reglet-hooks/domain/entities"
	"github.com/reglet-dev/reglet-hooks/domain/errors"
	"github.com/reglet-dev/reglet-hooks/host"
)

// Resolve narrows a method reference to exactly one host method.
//
// ref may be a *host.Method, a *host.MethodGroup, a *host.MethodDescriptor or
// a host.Reference wrapping one of those. Groups and descriptors resolve only
// when they hold a single overload.
func Resolve(ref any) (*entities.TargetDescriptor, error) {
	if r, ok := ref.(host.Reference); ok {
		ref = r.HostReference()
	}
	if d, ok := ref.(*host.MethodDescriptor); ok && d != nil {
		ref = d.Template()
	}

	switch v := ref.(type) {
	case *host.Method:
		if v == nil {
			break
		}
		return entities.NewTargetDescriptor(v), nil
	case *host.MethodGroup:
		if v == nil {
			break
		}
		targets := v.Targets()
		if len(targets) != 1 {
			return nil, &errors.AmbiguousTargetError{Target: v.FullName(), Count: len(targets)}
		}
		return entities.NewTargetDescriptor(targets[0]), nil
	}
	return nil, &errors.UnsupportedReferenceTypeError{Type: fmt.Sprintf("%T", ref)}
}
