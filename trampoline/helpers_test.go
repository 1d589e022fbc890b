package trampoline

import (
	"sync"
)

// fakeCore is a CoreFunction backed by a Go closure.
type fakeCore struct {
	fn     func(args []any) (any, error)
	name   string
	params []string

	mu    sync.Mutex
	calls [][]any
}

func newCore(name string, params []string, fn func(args []any) (any, error)) *fakeCore {
	return &fakeCore{name: name, params: params, fn: fn}
}

func returning(name string, params []string, ret any) *fakeCore {
	return newCore(name, params, func([]any) (any, error) { return ret, nil })
}

func (c *fakeCore) Name() string     { return c.name }
func (c *fakeCore) Params() []string { return c.params }

func (c *fakeCore) Call(args []any) (any, error) {
	c.mu.Lock()
	c.calls = append(c.calls, append([]any(nil), args...))
	c.mu.Unlock()
	if c.fn == nil {
		return nil, nil
	}
	return c.fn(args)
}

func (c *fakeCore) Calls() [][]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]any(nil), c.calls...)
}
