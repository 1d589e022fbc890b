package entities

import "reflect"

// HookMethod is a natively callable hook in the form the interception
// framework installs: a Go func plus the parameter names Go reflection lacks.
type HookMethod struct {
	// Func is the callable; its parameters line up with ParamNames.
	Func reflect.Value

	// Name is the synthetic method name.
	Name string

	// ParamNames are the internal parameter names ("__result", "__instance" or a target parameter name).
	ParamNames []string

	// Kind is the hook's role.
	Kind PatchKind
}

// Type returns the Go signature of the hook.
func (h *HookMethod) Type() reflect.Type {
	return h.Func.Type()
}

// PatchRecord describes the hooks one interception instance installed on a target.
type PatchRecord struct {
	// Owner is the id of the interception instance.
	Owner string `json:"owner" yaml:"owner"`

	// Target is the full name of the patched method.
	Target string `json:"target" yaml:"target"`

	// Prefix is the prefix hook name, empty when none was installed.
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty"`

	// Postfix is the postfix hook name, empty when none was installed.
	Postfix string `json:"postfix,omitempty" yaml:"postfix,omitempty"`
}
