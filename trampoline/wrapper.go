package trampoline

import (
	"fmt"

	"github.com/reglet-dev/reglet-hooks/domain/entities"
	"github.com/reglet-dev/reglet-hooks/domain/errors"
	"github.com/reglet-dev/reglet-hooks/domain/ports"
)

// affixWrapper adapts a core function's single return value to the two-slot
// (value, assignments) protocol. Each invocation gets its own result.
type affixWrapper struct {
	core ports.CoreFunction
}

func newAffixWrapper(core ports.CoreFunction) *affixWrapper {
	return &affixWrapper{core: core}
}

func (w *affixWrapper) invoke(args []any) (*entities.AffixResult, error) {
	ret, err := w.core.Call(args)
	if err != nil {
		return nil, err
	}
	return w.unpack(ret)
}

func (w *affixWrapper) unpack(ret any) (*entities.AffixResult, error) {
	switch v := ret.(type) {
	case entities.Tuple:
		if len(v) != 2 {
			return nil, &errors.CoreResultError{
				Core:   w.core.Name(),
				Reason: fmt.Sprintf("tuple of %d elements, want (value, assignments)", len(v)),
			}
		}
		return &entities.AffixResult{Value: v[0], Assignments: assignments(v[1])}, nil
	case map[string]any, map[any]any:
		return &entities.AffixResult{Assignments: assignments(v)}, nil
	}
	return &entities.AffixResult{Value: ret}, nil
}

func assignments(v any) map[string]any {
	switch m := v.(type) {
	case map[string]any:
		return m
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			if s, ok := k.(string); ok {
				out[s] = val
			}
		}
		return out
	}
	return nil
}
