package ports

// CoreFunction is a hook body written in the scripting environment.
type CoreFunction interface {
	// Name is the function's identifying name; it declares the hook role
	// ("prefix", "postfix" or "transpiler").
	Name() string

	// Params returns the declared formal parameter names, in order.
	Params() []string

	// Call invokes the function with positional boxed arguments through the
	// scripting runtime's generic call protocol.
	Call(args []any) (any, error)
}

// RefDeclarer is implemented by core functions annotated with the parameter
// names they may write back to.
type RefDeclarer interface {
	Refs() []string
}
