package host

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
)

// Type is a declaring type in the host runtime.
type Type struct {
	fullName string
	goType   reflect.Type

	mu     sync.RWMutex
	groups map[string]*MethodGroup
}

// NewType creates a declaring type. goType is the receiver type of its instance
// methods and may be nil for a type that only declares static methods.
func NewType(fullName string, goType reflect.Type) *Type {
	return &Type{
		fullName: fullName,
		goType:   goType,
		groups:   make(map[string]*MethodGroup),
	}
}

// FullName returns the dotted, namespace-qualified type name.
func (t *Type) FullName() string {
	return t.fullName
}

// Name returns the last segment of FullName.
func (t *Type) Name() string {
	if i := strings.LastIndexByte(t.fullName, '.'); i >= 0 {
		return t.fullName[i+1:]
	}
	return t.fullName
}

// GoType returns the receiver type of instance methods.
func (t *Type) GoType() reflect.Type {
	return t.goType
}

// Define adds a method implemented by impl. For instance methods the first
// parameter of impl is the receiver; the remaining parameters are named with
// WithParams. Defining an existing name adds an overload.
func (t *Type) Define(name string, impl any, opts ...MethodOption) (*Method, error) {
	if name == "" {
		return nil, fmt.Errorf("method name cannot be empty")
	}
	cfg := methodConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	m, err := newMethod(t, name, impl, cfg)
	if err != nil {
		return nil, fmt.Errorf("define %s.%s: %w", t.fullName, name, err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	g, ok := t.groups[name]
	if !ok {
		g = &MethodGroup{declaring: t, name: name}
		t.groups[name] = g
	}
	g.add(m)
	return m, nil
}

// MustDefine is Define for static setup code.
func (t *Type) MustDefine(name string, impl any, opts ...MethodOption) *Method {
	m, err := t.Define(name, impl, opts...)
	if err != nil {
		panic(err)
	}
	return m
}

// Group returns the overload set registered under name.
func (t *Type) Group(name string) (*MethodGroup, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	g, ok := t.groups[name]
	return g, ok
}

// Descriptor returns an unbound method descriptor for name.
func (t *Type) Descriptor(name string) (*MethodDescriptor, bool) {
	g, ok := t.Group(name)
	if !ok {
		return nil, false
	}
	return &MethodDescriptor{template: g}, true
}

// MethodNames returns the sorted names of all method groups.
func (t *Type) MethodNames() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	names := make([]string, 0, len(t.groups))
	for name := range t.groups {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (t *Type) String() string {
	return t.fullName
}

// TypeTable is a thread-safe registry of declaring types keyed by full name.
type TypeTable struct {
	mu    sync.RWMutex
	types map[string]*Type
}

// NewTypeTable creates an empty table.
func NewTypeTable() *TypeTable {
	return &TypeTable{types: make(map[string]*Type)}
}

// Register adds t. Registering two types with the same full name fails.
func (tt *TypeTable) Register(t *Type) error {
	if t == nil || t.fullName == "" {
		return fmt.Errorf("type name cannot be empty")
	}
	tt.mu.Lock()
	defer tt.mu.Unlock()
	if _, exists := tt.types[t.fullName]; exists {
		return fmt.Errorf("duplicate type name: %q", t.fullName)
	}
	tt.types[t.fullName] = t
	return nil
}

// Lookup returns the type registered under fullName.
func (tt *TypeTable) Lookup(fullName string) (*Type, bool) {
	tt.mu.RLock()
	defer tt.mu.RUnlock()
	t, ok := tt.types[fullName]
	return t, ok
}

// Names returns all registered full names, sorted.
func (tt *TypeTable) Names() []string {
	tt.mu.RLock()
	defer tt.mu.RUnlock()
	names := make([]string, 0, len(tt.types))
	for name := range tt.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Types returns all registered types ordered by full name.
func (tt *TypeTable) Types() []*Type {
	names := tt.Names()
	tt.mu.RLock()
	defer tt.mu.RUnlock()
	out := make([]*Type, 0, len(names))
	for _, name := range names {
		out = append(out, tt.types[name])
	}
	return out
}
