package host

import (
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/reglet-dev/reglet-hooks/internal/boxing"
)

// Param is a named method parameter.
type Param struct {
	Name string
	Type reflect.Type
	// ByRef marks a pointer parameter whose pointee the method (and its hooks) may write.
	ByRef bool
}

// MethodOption configures a method definition.
type MethodOption func(*methodConfig)

type methodConfig struct {
	params []string
	refs   []string
	static bool
}

// WithParams names the non-receiver parameters of the implementation, in order.
func WithParams(names ...string) MethodOption {
	return func(c *methodConfig) {
		c.params = append(c.params, names...)
	}
}

// WithRefs marks pointer parameters as by-reference slots.
func WithRefs(names ...string) MethodOption {
	return func(c *methodConfig) {
		c.refs = append(c.refs, names...)
	}
}

// Static declares a method without a receiver.
func Static() MethodOption {
	return func(c *methodConfig) {
		c.static = true
	}
}

// Call is one invocation of a method, with arguments already narrowed to the
// native parameter types. Dispatchers may rewrite Args, Instance and Result.
type Call struct {
	Instance reflect.Value
	Args     []reflect.Value
	Result   reflect.Value
}

// Dispatcher takes over invocation of a method. It decides whether and how
// the original body runs by calling Method.Invoke.
type Dispatcher interface {
	Dispatch(m *Method, call *Call) error
}

type dispatcherBox struct {
	d Dispatcher
}

// Method is a single native method.
type Method struct {
	declaring *Type
	name      string
	params    []Param
	ret       reflect.Type
	static    bool
	impl      reflect.Value

	dispatch atomic.Pointer[dispatcherBox]
}

func newMethod(t *Type, name string, impl any, cfg methodConfig) (*Method, error) {
	fn := reflect.ValueOf(impl)
	if fn.Kind() != reflect.Func || fn.IsNil() {
		return nil, fmt.Errorf("implementation must be a non-nil func, got %T", impl)
	}
	ft := fn.Type()
	if ft.IsVariadic() {
		return nil, fmt.Errorf("variadic implementations are not supported")
	}
	if ft.NumOut() > 1 {
		return nil, fmt.Errorf("implementation returns %d values, want at most 1", ft.NumOut())
	}

	first := 0
	if !cfg.static {
		if t.goType == nil {
			return nil, fmt.Errorf("instance method on a type without a Go receiver type")
		}
		if ft.NumIn() == 0 || !t.goType.AssignableTo(ft.In(0)) {
			return nil, fmt.Errorf("first parameter must accept receiver %v", t.goType)
		}
		first = 1
	}
	if got := ft.NumIn() - first; got != len(cfg.params) {
		return nil, fmt.Errorf("implementation takes %d parameters, %d names given", got, len(cfg.params))
	}

	refs := make(map[string]bool, len(cfg.refs))
	for _, r := range cfg.refs {
		refs[r] = true
	}
	seen := make(map[string]bool, len(cfg.params))
	params := make([]Param, len(cfg.params))
	for i, pname := range cfg.params {
		if pname == "" {
			return nil, fmt.Errorf("parameter %d has no name", i)
		}
		if seen[pname] {
			return nil, fmt.Errorf("duplicate parameter name %q", pname)
		}
		seen[pname] = true
		pt := ft.In(first + i)
		byRef := refs[pname]
		if byRef && pt.Kind() != reflect.Pointer {
			return nil, fmt.Errorf("by-reference parameter %q must be a pointer, got %v", pname, pt)
		}
		delete(refs, pname)
		params[i] = Param{Name: pname, Type: pt, ByRef: byRef}
	}
	for r := range refs {
		return nil, fmt.Errorf("by-reference name %q is not a parameter", r)
	}

	var ret reflect.Type
	if ft.NumOut() == 1 {
		ret = ft.Out(0)
	}

	return &Method{
		declaring: t,
		name:      name,
		params:    params,
		ret:       ret,
		static:    cfg.static,
		impl:      fn,
	}, nil
}

// DeclaringType returns the type that declares the method.
func (m *Method) DeclaringType() *Type {
	return m.declaring
}

// Name returns the method name.
func (m *Method) Name() string {
	return m.name
}

// FullName returns "<declaring type>.<method>".
func (m *Method) FullName() string {
	return m.declaring.fullName + "." + m.name
}

// Params returns a copy of the parameter list, receiver excluded.
func (m *Method) Params() []Param {
	out := make([]Param, len(m.params))
	copy(out, m.params)
	return out
}

// ReturnType returns the result type, or nil for a method without a result.
func (m *Method) ReturnType() reflect.Type {
	return m.ret
}

// IsStatic reports whether the method has no receiver.
func (m *Method) IsStatic() bool {
	return m.static
}

// InstanceType returns the receiver parameter type, or nil for static methods.
func (m *Method) InstanceType() reflect.Type {
	if m.static {
		return nil
	}
	return m.impl.Type().In(0)
}

// SetDispatcher installs d; a nil d restores direct invocation.
func (m *Method) SetDispatcher(d Dispatcher) {
	if d == nil {
		m.dispatch.Store(nil)
		return
	}
	m.dispatch.Store(&dispatcherBox{d: d})
}

// Dispatcher returns the installed dispatcher, if any.
func (m *Method) Dispatcher() Dispatcher {
	if b := m.dispatch.Load(); b != nil {
		return b.d
	}
	return nil
}

// Call invokes the method. Arguments are coerced to the native parameter
// types; by-reference parameters take pointers to the caller's storage.
func (m *Method) Call(instance any, args ...any) (any, error) {
	if len(args) != len(m.params) {
		return nil, fmt.Errorf("%s takes %d arguments, %d given", m.FullName(), len(m.params), len(args))
	}

	call := &Call{Args: make([]reflect.Value, len(args))}
	if !m.static {
		recv, err := boxing.Unbox(instance, m.InstanceType())
		if err != nil {
			return nil, fmt.Errorf("%s: receiver: %w", m.FullName(), err)
		}
		call.Instance = recv
	}
	for i, p := range m.params {
		v, err := boxing.Unbox(args[i], p.Type)
		if err != nil {
			return nil, fmt.Errorf("%s: argument %q: %w", m.FullName(), p.Name, err)
		}
		call.Args[i] = v
	}
	if m.ret != nil {
		call.Result = reflect.New(m.ret).Elem()
	}

	if d := m.Dispatcher(); d != nil {
		if err := d.Dispatch(m, call); err != nil {
			return nil, err
		}
	} else {
		m.Invoke(call)
	}
	return boxing.Box(call.Result), nil
}

// Invoke runs the original method body against call and stores the result.
func (m *Method) Invoke(call *Call) {
	in := make([]reflect.Value, 0, len(call.Args)+1)
	if !m.static {
		in = append(in, call.Instance)
	}
	in = append(in, call.Args...)
	out := m.impl.Call(in)
	if len(out) == 1 {
		if !call.Result.CanSet() {
			call.Result = reflect.New(m.ret).Elem()
		}
		call.Result.Set(out[0])
	}
}

func (m *Method) String() string {
	return m.FullName()
}

// MethodGroup is the overload set sharing one name on a type.
type MethodGroup struct {
	declaring *Type
	name      string

	mu      sync.RWMutex
	targets []*Method
}

func (g *MethodGroup) add(m *Method) {
	g.mu.Lock()
	g.targets = append(g.targets, m)
	g.mu.Unlock()
}

// Name returns the shared method name.
func (g *MethodGroup) Name() string {
	return g.name
}

// DeclaringType returns the type that declares the group.
func (g *MethodGroup) DeclaringType() *Type {
	return g.declaring
}

// FullName returns "<declaring type>.<method>".
func (g *MethodGroup) FullName() string {
	return g.declaring.fullName + "." + g.name
}

// Targets returns the overloads in definition order.
func (g *MethodGroup) Targets() []*Method {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*Method, len(g.targets))
	copy(out, g.targets)
	return out
}

// MethodDescriptor is an unbound method reference obtained from a type; it
// wraps the group that serves as its template.
type MethodDescriptor struct {
	template *MethodGroup
}

// Template returns the wrapped overload set.
func (d *MethodDescriptor) Template() *MethodGroup {
	return d.template
}

// Reference is implemented by values that stand in for a host method
// reference, such as scripting-environment wrappers.
type Reference interface {
	// HostReference returns a *Method, *MethodGroup or *MethodDescriptor.
	HostReference() any
}
