// Package script embeds Starlark as the scripting environment for hook
// functions.
//
// A patch script sees three kinds of predeclared names:
//
//   - usingrefs(*names) returns a decorator declaring which parameters a hook
//     may write back to;
//   - Harmony(id) creates an interception instance whose patch method installs
//     hooks, either as patch(target, prefix=..., postfix=...) or as
//     patch(struct(target=..., prefix=..., postfix=...));
//   - every host type of the runtime's type table, by short name, with its
//     methods as attributes.
//
// Hook functions must be named prefix or postfix. They receive target
// arguments by parameter name plus __instance__ and __result__, and may return
// a value, a dict of assignments, or a (value, dict) tuple.
package script
