// Package host models the statically-typed host runtime whose methods can be intercepted.
//
// A Type groups named Methods. Each Method wraps a Go function together with the
// parameter names and by-reference markers that Go's reflection metadata lacks.
// Methods sharing a name form a MethodGroup (an overload set).
//
// Every call goes through Method.Call, which routes through an optional
// Dispatcher. Installing a Dispatcher is how an interception framework rewrites
// the call site of a method without touching its callers.
package host
