package host_test

import (
	"fmt"
	"reflect"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reglet-dev/reglet-hooks/host"
	"github.com/reglet-dev/reglet-hooks/internal/testutil"
)

func TestMethod_Metadata(t *testing.T) {
	fx := testutil.NewFooFixture()

	assert.Equal(t, "Demo.Foo.Bar", fx.Bar.FullName())
	assert.Equal(t, "Bar", fx.Bar.Name())
	assert.Same(t, fx.Type, fx.Bar.DeclaringType())
	assert.Equal(t, []host.Param{
		{Name: "x", Type: reflect.TypeOf(0)},
		{Name: "y", Type: reflect.TypeOf((*int)(nil)), ByRef: true},
	}, fx.Bar.Params())
	assert.Equal(t, reflect.TypeOf(0), fx.Bar.ReturnType())
	assert.Equal(t, reflect.TypeOf(&testutil.Foo{}), fx.Bar.InstanceType())
	assert.False(t, fx.Bar.IsStatic())

	assert.Nil(t, fx.Reset.ReturnType())
	assert.True(t, fx.Describe.IsStatic())
	assert.Nil(t, fx.Describe.InstanceType())

	t.Run("params are copied", func(t *testing.T) {
		p := fx.Bar.Params()
		p[0].Name = "changed"
		assert.Equal(t, "x", fx.Bar.Params()[0].Name)
	})
}

func TestMethod_Call(t *testing.T) {
	fx := testutil.NewFooFixture()

	t.Run("by-reference argument", func(t *testing.T) {
		foo := &testutil.Foo{}
		y := 4
		res, err := fx.Bar.Call(foo, 3, &y)
		require.NoError(t, err)
		assert.Equal(t, 7, res)
		assert.Equal(t, 7, y)
		assert.Equal(t, 1, foo.Calls())
	})

	t.Run("arguments are coerced", func(t *testing.T) {
		res, err := fx.Scale.Call(&testutil.Foo{}, int64(4))
		require.NoError(t, err)
		assert.Equal(t, 40, res)
	})

	t.Run("void method", func(t *testing.T) {
		foo := &testutil.Foo{Name: "a"}
		res, err := fx.Reset.Call(foo)
		require.NoError(t, err)
		assert.Nil(t, res)
		assert.Empty(t, foo.Name)
	})

	t.Run("static method ignores the instance", func(t *testing.T) {
		res, err := fx.Describe.Call(nil, "x")
		require.NoError(t, err)
		assert.Equal(t, "foo:x", res)
	})

	t.Run("failures", func(t *testing.T) {
		_, err := fx.Scale.Call(&testutil.Foo{})
		assert.ErrorContains(t, err, "takes 1 arguments, 0 given")

		_, err = fx.Scale.Call("not a foo", 1)
		assert.ErrorContains(t, err, "receiver")

		_, err = fx.Scale.Call(&testutil.Foo{}, "ten")
		assert.ErrorContains(t, err, `argument "n"`)
	})
}

type recordingDispatcher struct {
	mu    sync.Mutex
	calls int
	skip  bool
	err   error
}

func (d *recordingDispatcher) Dispatch(m *host.Method, call *host.Call) error {
	d.mu.Lock()
	d.calls++
	d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	if d.skip {
		call.Result.SetInt(-1)
		return nil
	}
	m.Invoke(call)
	return nil
}

func TestMethod_Dispatcher(t *testing.T) {
	fx := testutil.NewFooFixture()
	foo := &testutil.Foo{}
	d := &recordingDispatcher{}

	fx.Scale.SetDispatcher(d)
	assert.Same(t, d, fx.Scale.Dispatcher())

	res, err := fx.Scale.Call(foo, 2)
	require.NoError(t, err)
	assert.Equal(t, 20, res)
	assert.Equal(t, 1, d.calls)

	d.skip = true
	res, err = fx.Scale.Call(foo, 2)
	require.NoError(t, err)
	assert.Equal(t, -1, res)
	assert.Equal(t, 1, foo.Calls(), "dispatcher skipped the original")

	d.err = fmt.Errorf("hook failed")
	_, err = fx.Scale.Call(foo, 2)
	assert.EqualError(t, err, "hook failed")

	fx.Scale.SetDispatcher(nil)
	assert.Nil(t, fx.Scale.Dispatcher())
	res, err = fx.Scale.Call(foo, 3)
	require.NoError(t, err)
	assert.Equal(t, 30, res)
}

func TestMethodGroup(t *testing.T) {
	fx := testutil.NewFooFixture()

	g, ok := fx.Type.Group("Add")
	require.True(t, ok)
	assert.Equal(t, "Add", g.Name())
	assert.Equal(t, "Demo.Foo.Add", g.FullName())
	assert.Same(t, fx.Type, g.DeclaringType())
	assert.Equal(t, []*host.Method{fx.AddOne, fx.AddTwo}, g.Targets())

	d, ok := fx.Type.Descriptor("Add")
	require.True(t, ok)
	assert.Same(t, g, d.Template())

	_, ok = fx.Type.Descriptor("Missing")
	assert.False(t, ok)
}
