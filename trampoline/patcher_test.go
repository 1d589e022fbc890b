package trampoline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reglet-dev/reglet-hooks/domain/entities"
	"github.com/reglet-dev/reglet-hooks/domain/errors"
	"github.com/reglet-dev/reglet-hooks/intercept"
	"github.com/reglet-dev/reglet-hooks/internal/testutil"
)

func newPatcher(t *testing.T) (*Patcher, *AddressedStorage) {
	t.Helper()
	inst, err := intercept.CreateInstance("test.owner",
		intercept.WithTable(intercept.NewPatchTable()),
		intercept.WithLogger(testutil.DiscardLogger()),
	)
	require.NoError(t, err)
	store := NewAddressedStorage()
	return NewPatcher(inst, WithStore(store), WithLogger(testutil.DiscardLogger())), store
}

func TestPatcher_PrefixWritesThroughReference(t *testing.T) {
	t.Run("mapping only runs the original", func(t *testing.T) {
		fx := testutil.NewFooFixture()
		p, store := newPatcher(t)

		core, err := UsingRefs(returning("prefix", []string{"x"}, map[string]any{"y": 9}), "y")
		require.NoError(t, err)

		req, err := p.Patch(&PatchRequest{Target: fx.Bar, Prefix: core})
		require.NoError(t, err)
		assert.True(t, req.Applied)
		assert.Equal(t, "Demo.Foo.Bar", req.Descriptor.FullName())
		assert.Equal(t, &entities.PatchRecord{Owner: "test.owner", Target: "Demo.Foo.Bar", Prefix: "Demo.Foo_Bar_prefix"}, req.Record)
		assert.Equal(t, 1, store.Len())

		foo := &testutil.Foo{}
		y := 0
		res, err := fx.Bar.Call(foo, 3, &y)
		require.NoError(t, err)
		assert.Equal(t, 12, y, "prefix wrote 9, then the original added 3")
		assert.Equal(t, 12, res)
		assert.Equal(t, 1, foo.Calls())
	})

	t.Run("false skips the original", func(t *testing.T) {
		fx := testutil.NewFooFixture()
		p, _ := newPatcher(t)

		core, err := UsingRefs(returning("prefix", []string{"x"}, entities.Tuple{false, map[string]any{"y": 9}}), "y")
		require.NoError(t, err)
		_, err = p.Patch(&PatchRequest{Target: fx.Bar, Prefix: core})
		require.NoError(t, err)

		foo := &testutil.Foo{}
		y := 0
		_, err = fx.Bar.Call(foo, 3, &y)
		require.NoError(t, err)
		assert.Equal(t, 9, y)
		assert.Equal(t, 0, foo.Calls())
	})
}

func TestPatcher_PostfixRewritesResult(t *testing.T) {
	fx := testutil.NewFooFixture()
	p, _ := newPatcher(t)

	var seen []any
	core, err := UsingRefs(newCore("postfix", []string{entities.InstanceSlot, "n", entities.ResultSlot}, func(args []any) (any, error) {
		seen = args
		return map[string]any{entities.ResultSlot: args[2].(int) + 1}, nil
	}), entities.ResultSlot)
	require.NoError(t, err)

	req, err := p.Patch(&PatchRequest{Target: fx.Scale, Postfix: core})
	require.NoError(t, err)
	assert.Equal(t, "Demo.Foo_Scale_postfix", req.Record.Postfix)

	foo := &testutil.Foo{}
	res, err := fx.Scale.Call(foo, 4)
	require.NoError(t, err)
	assert.Equal(t, 41, res)
	require.Len(t, seen, 3)
	assert.Same(t, foo, seen[0])
	assert.Equal(t, 4, seen[1])
}

func TestPatcher_RuntimeFailureReachesCaller(t *testing.T) {
	fx := testutil.NewFooFixture()
	p, _ := newPatcher(t)

	core, err := UsingRefs(returning("prefix", nil, map[string]any{"y": "nine"}), "y")
	require.NoError(t, err)
	_, err = p.Patch(&PatchRequest{Target: fx.Bar, Prefix: core})
	require.NoError(t, err)

	y := 1
	_, err = fx.Bar.Call(&testutil.Foo{}, 3, &y)
	testutil.RequireErrorAs[*errors.HookError](t, err)
	testutil.RequireErrorAs[*errors.CoercionError](t, err)
	assert.Equal(t, 1, y)
}

func TestPatcher_Errors(t *testing.T) {
	fx := testutil.NewFooFixture()
	p, store := newPatcher(t)
	add, _ := fx.Type.Group("Add")

	tests := []struct {
		req   *PatchRequest
		check func(t *testing.T, err error)
		name  string
	}{
		{
			name: "ambiguous target",
			req:  &PatchRequest{Target: add, Prefix: returning("prefix", nil, nil)},
			check: func(t *testing.T, err error) {
				testutil.RequireErrorAs[*errors.AmbiguousTargetError](t, err)
			},
		},
		{
			name: "unsupported target",
			req:  &PatchRequest{Target: "Demo.Foo.Bar", Prefix: returning("prefix", nil, nil)},
			check: func(t *testing.T, err error) {
				testutil.RequireErrorAs[*errors.UnsupportedReferenceTypeError](t, err)
			},
		},
		{
			name: "transpiler",
			req:  &PatchRequest{Target: fx.Bar, Transpiler: returning("transpiler", nil, nil)},
			check: func(t *testing.T, err error) {
				testutil.RequireErrorAs[*errors.NotImplementedError](t, err)
			},
		},
		{
			name: "role mismatch",
			req:  &PatchRequest{Target: fx.Bar, Prefix: returning("postfix", nil, nil)},
			check: func(t *testing.T, err error) {
				testutil.RequireErrorAs[*errors.IncompatibleSignatureError](t, err)
			},
		},
		{
			name: "invalid ref",
			req: &PatchRequest{Target: fx.Bar, Postfix: &refCore{
				CoreFunction: returning("postfix", nil, nil),
				refs:         []string{"nope"},
			}},
			check: func(t *testing.T, err error) {
				testutil.RequireErrorAs[*errors.InvalidRefNameError](t, err)
			},
		},
		{
			name: "no hooks",
			req:  &PatchRequest{Target: fx.Bar},
			check: func(t *testing.T, err error) {
				require.Error(t, err)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.Patch(tt.req)
			tt.check(t, err)
			assert.Nil(t, got)
			assert.False(t, tt.req.Applied)
		})
	}

	assert.Equal(t, 0, store.Len(), "failed patches register no wrappers")
	assert.Nil(t, fx.Bar.Dispatcher())
}
