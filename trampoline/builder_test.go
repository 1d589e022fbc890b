package trampoline

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reglet-dev/reglet-hooks/domain/entities"
	"github.com/reglet-dev/reglet-hooks/domain/errors"
	"github.com/reglet-dev/reglet-hooks/internal/boxing"
	"github.com/reglet-dev/reglet-hooks/internal/testutil"
)

func paramNames(spec *Specification) []string {
	out := make([]string, len(spec.Params))
	for i, p := range spec.Params {
		out[i] = p.InternalName
	}
	return out
}

func TestBuild_Scenario(t *testing.T) {
	fx := testutil.NewFooFixture()
	target, err := Resolve(fx.Bar)
	require.NoError(t, err)

	spec, err := Build(returning("prefix", []string{"x"}, nil), target, []string{"y"})
	require.NoError(t, err)
	require.NoError(t, spec.Validate())

	assert.Equal(t, entities.PatchPrefix, spec.Kind)
	assert.Equal(t, "Demo.Foo_Bar_prefix", spec.Name)
	assert.Equal(t, reflect.TypeOf(false), spec.ReturnType)
	assert.Equal(t, []string{"x", "y"}, paramNames(spec))

	x, y := spec.Params[0], spec.Params[1]
	assert.False(t, x.ByRef)
	assert.Equal(t, boxing.AnyType, x.Type)
	assert.Equal(t, 0, x.CoreIndex)
	assert.True(t, y.ByRef)
	assert.Equal(t, boxing.AnyRefType, y.Type)
	assert.Equal(t, -1, y.CoreIndex)
	assert.Equal(t, reflect.TypeOf(0), y.NativeType, "native type of a by-reference parameter is its pointee")
}

func TestBuild_ParamCount(t *testing.T) {
	fx := testutil.NewFooFixture()
	target, err := Resolve(fx.Bar)
	require.NoError(t, err)

	tests := []struct {
		name       string
		coreParams []string
		refs       []string
		want       []string
	}{
		{name: "no params", want: []string{}},
		{name: "params only", coreParams: []string{"y", "x"}, want: []string{"y", "x"}},
		{name: "refs already present", coreParams: []string{"x", "y"}, refs: []string{"y", "x"}, want: []string{"x", "y"}},
		{name: "reserved slots", coreParams: []string{entities.InstanceSlot, entities.ResultSlot}, want: []string{"__instance", "__result"}},
		{name: "extras sorted", refs: []string{"y", entities.ResultSlot, "x"}, want: []string{"__result", "x", "y"}},
		{name: "mixed", coreParams: []string{"y"}, refs: []string{"y", "x"}, want: []string{"y", "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := Build(returning("postfix", tt.coreParams, nil), target, tt.refs)
			require.NoError(t, err)
			require.NoError(t, spec.Validate())

			assert.Equal(t, tt.want, append([]string{}, paramNames(spec)...))
			assert.GreaterOrEqual(t, len(spec.Params), len(tt.coreParams))
			extras := len(entities.NewRefSet(tt.refs...))
			for _, p := range tt.coreParams {
				if entities.NewRefSet(tt.refs...).Has(p) {
					extras--
				}
			}
			assert.Equal(t, extras == 0, len(spec.Params) == len(tt.coreParams))
			assert.Nil(t, spec.ReturnType)
		})
	}
}

func TestBuild_Errors(t *testing.T) {
	fx := testutil.NewFooFixture()
	bar, err := Resolve(fx.Bar)
	require.NoError(t, err)
	describe, err := Resolve(fx.Describe)
	require.NoError(t, err)

	t.Run("invalid refs", func(t *testing.T) {
		for _, refs := range [][]string{{"z"}, {entities.InstanceSlot}, {"y", "z", "a"}} {
			_, err := Build(returning("prefix", nil, nil), bar, refs)
			refErr := testutil.RequireErrorAs[*errors.InvalidRefNameError](t, err)
			assert.NotContains(t, refErr.Names, "y")
			assert.Equal(t, []string{entities.ResultSlot, "x", "y"}, refErr.Valid)
		}
	})

	t.Run("invalid refs reported sorted", func(t *testing.T) {
		_, err := Build(returning("prefix", nil, nil), bar, []string{"z", "a"})
		refErr := testutil.RequireErrorAs[*errors.InvalidRefNameError](t, err)
		assert.Equal(t, []string{"a", "z"}, refErr.Names)
	})

	t.Run("unknown core parameter", func(t *testing.T) {
		_, err := Build(returning("prefix", []string{"x", "q"}, nil), bar, nil)
		sigErr := testutil.RequireErrorAs[*errors.IncompatibleSignatureError](t, err)
		assert.Equal(t, []string{"q"}, sigErr.Params)
	})

	t.Run("unknown role", func(t *testing.T) {
		_, err := Build(returning("before", nil, nil), bar, nil)
		testutil.RequireErrorAs[*errors.IncompatibleSignatureError](t, err)
	})

	t.Run("transpiler", func(t *testing.T) {
		_, err := Build(returning("transpiler", nil, nil), bar, nil)
		testutil.RequireErrorAs[*errors.NotImplementedError](t, err)
	})

	t.Run("instance on static target", func(t *testing.T) {
		_, err := Build(returning("prefix", []string{entities.InstanceSlot}, nil), describe, nil)
		testutil.RequireErrorAs[*errors.IncompatibleSignatureError](t, err)
	})

	t.Run("missing inputs", func(t *testing.T) {
		_, err := Build(nil, bar, nil)
		require.Error(t, err)
		_, err = Build(returning("prefix", nil, nil), nil, nil)
		require.Error(t, err)
	})
}

func TestSpecification_Validate(t *testing.T) {
	fx := testutil.NewFooFixture()
	target, err := Resolve(fx.Bar)
	require.NoError(t, err)

	build := func() *Specification {
		spec, err := Build(returning("prefix", []string{"x"}, nil), target, []string{"y"})
		require.NoError(t, err)
		return spec
	}

	tests := []struct {
		name   string
		mutate func(s *Specification)
	}{
		{name: "no core", mutate: func(s *Specification) { s.Core = nil }},
		{name: "transpiler kind", mutate: func(s *Specification) { s.Kind = entities.PatchTranspiler }},
		{name: "wrong return type", mutate: func(s *Specification) { s.ReturnType = nil }},
		{name: "ref flag cleared", mutate: func(s *Specification) { s.Params[1].ByRef = false }},
		{name: "ref type erased", mutate: func(s *Specification) { s.Params[1].Type = boxing.AnyType }},
		{name: "missing ref param", mutate: func(s *Specification) { s.Params = s.Params[:1] }},
		{name: "core index shifted", mutate: func(s *Specification) { s.Params[0].CoreIndex = 1 }},
		{name: "too few params", mutate: func(s *Specification) { s.CoreParams = []string{"x", "y", entities.ResultSlot} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := build()
			tt.mutate(spec)
			assert.Error(t, spec.Validate())
		})
	}
}
