// Package intercept is the method-interception framework: it installs prefix
// and postfix hooks on host methods.
//
// An Instance is created per owner id. Instance.Patch validates each hook's
// signature against the target, binds hook parameters by name and installs a
// dispatcher on the method. Hook parameters are matched as follows:
//
//   - a target parameter name receives that argument;
//   - "__instance" receives the receiver, "__result" the result slot;
//   - an interface-typed parameter receives the boxed value;
//   - a pointer-to-interface parameter (*any) receives a boxed slot that is
//     coerced and written back when the hook returns;
//   - a pointer to the native type receives a typed slot, also written back.
//
// Native by-reference parameters are written through to the caller's storage.
// A prefix returning false prevents the original from running; every prefix
// still runs. Hook panics are recovered and reported as *errors.HookError from
// host.Method.Call.
package intercept
