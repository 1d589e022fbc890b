// Package trampoline turns scripting-environment hook functions into natively
// callable hooks for the interception framework.
//
// Patching a target runs three stages. Resolve narrows a method reference to
// exactly one host method. Build computes the hook's signature from the core
// function's formal parameters and its declared references. Emit compiles the
// signature into a Program and realizes it as a Go function through
// reflect.MakeFunc. Every trampoline parameter is erased to any, or *any when
// the parameter is a reference the core function may write back to.
//
// The core function is reached at call time through an opaque token into an
// AddressedStorage, never through a typed reference held by the trampoline.
package trampoline
