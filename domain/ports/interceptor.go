package ports

import (
	"github.com/reglet-dev/reglet-hooks/domain/entities"
	"github.com/reglet-dev/reglet-hooks/host"
)

// Interceptor installs hooks on host methods.
type Interceptor interface {
	// ID returns the owner id recorded on installed patches.
	ID() string

	// Patch installs the non-nil hooks on original. Prefixes return bool to
	// signal whether the original runs; postfixes return nothing.
	Patch(original *host.Method, prefix, postfix, transpiler *entities.HookMethod) (*entities.PatchRecord, error)
}
