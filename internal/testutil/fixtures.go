package testutil

import (
	"io"
	"log/slog"
	"reflect"
	"sync"

	"github.com/reglet-dev/reglet-hooks/host"
)

// FooTypeName is the full name of the fixture type.
const FooTypeName = "Demo.Foo"

// Foo is the receiver of the fixture methods.
type Foo struct {
	mu    sync.Mutex
	Name  string
	calls int
}

// Calls returns how many times an original fixture method body ran.
func (f *Foo) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *Foo) hit() {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
}

// FooFixture is a freshly defined Demo.Foo host type. Each fixture owns its
// methods, so patches installed in one test never leak into another.
type FooFixture struct {
	Type *host.Type

	// Bar(x int, y *int) int adds x to *y and returns the new *y.
	Bar *host.Method
	// Reset() clears the receiver's name and returns nothing.
	Reset *host.Method
	// Describe(name string) string is static and returns "foo:" + name.
	Describe *host.Method
	// Scale(n int) int returns n * 10; it is the only overload of its name.
	Scale *host.Method
	// Add(a int) int and Add(a int, b int) int form an overload set.
	AddOne *host.Method
	AddTwo *host.Method
}

// NewFooFixture defines the fixture type and its methods.
func NewFooFixture() *FooFixture {
	t := host.NewType(FooTypeName, reflect.TypeOf(&Foo{}))
	return &FooFixture{
		Type: t,
		Bar: t.MustDefine("Bar", func(f *Foo, x int, y *int) int {
			f.hit()
			*y += x
			return *y
		}, host.WithParams("x", "y"), host.WithRefs("y")),
		Reset: t.MustDefine("Reset", func(f *Foo) {
			f.hit()
			f.Name = ""
		}),
		Describe: t.MustDefine("Describe", func(name string) string {
			return "foo:" + name
		}, host.WithParams("name"), host.Static()),
		Scale: t.MustDefine("Scale", func(f *Foo, n int) int {
			f.hit()
			return n * 10
		}, host.WithParams("n")),
		AddOne: t.MustDefine("Add", func(f *Foo, a int) int {
			f.hit()
			return a
		}, host.WithParams("a")),
		AddTwo: t.MustDefine("Add", func(f *Foo, a, b int) int {
			f.hit()
			return a + b
		}, host.WithParams("a", "b")),
	}
}

// Table returns a type table holding only the fixture type.
func (f *FooFixture) Table() *host.TypeTable {
	tt := host.NewTypeTable()
	if err := tt.Register(f.Type); err != nil {
		panic(err)
	}
	return tt
}

// DiscardLogger returns a logger that drops every record.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
