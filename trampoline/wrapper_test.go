package trampoline

import (
	stdErrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reglet-dev/reglet-hooks/domain/entities"
	"github.com/reglet-dev/reglet-hooks/domain/errors"
	"github.com/reglet-dev/reglet-hooks/internal/testutil"
)

func TestAffixWrapper_Unpack(t *testing.T) {
	tests := []struct {
		ret  any
		want *entities.AffixResult
		name string
	}{
		{name: "nil", ret: nil, want: &entities.AffixResult{}},
		{name: "plain value", ret: false, want: &entities.AffixResult{Value: false}},
		{name: "mapping", ret: map[string]any{"y": 9}, want: &entities.AffixResult{Assignments: map[string]any{"y": 9}}},
		{name: "any-keyed mapping", ret: map[any]any{"y": 9, 1: 2}, want: &entities.AffixResult{Assignments: map[string]any{"y": 9}}},
		{name: "pair", ret: entities.Tuple{true, map[string]any{"y": 1}}, want: &entities.AffixResult{Value: true, Assignments: map[string]any{"y": 1}}},
		{name: "pair without mapping", ret: entities.Tuple{true, "nope"}, want: &entities.AffixResult{Value: true}},
		{name: "pair with nil mapping", ret: entities.Tuple{nil, nil}, want: &entities.AffixResult{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newAffixWrapper(returning("prefix", nil, tt.ret))
			got, err := w.invoke(nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAffixWrapper_Errors(t *testing.T) {
	t.Run("bad tuple length", func(t *testing.T) {
		for _, tup := range []entities.Tuple{{}, {1}, {1, 2, 3}} {
			w := newAffixWrapper(returning("postfix", nil, tup))
			_, err := w.invoke(nil)
			resErr := testutil.RequireErrorAs[*errors.CoreResultError](t, err)
			assert.Equal(t, "postfix", resErr.Core)
		}
	})

	t.Run("core failure", func(t *testing.T) {
		boom := stdErrors.New("boom")
		w := newAffixWrapper(newCore("prefix", nil, func([]any) (any, error) { return nil, boom }))
		_, err := w.invoke(nil)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("fresh result per call", func(t *testing.T) {
		w := newAffixWrapper(returning("prefix", nil, map[string]any{"y": 1}))
		a, err := w.invoke(nil)
		require.NoError(t, err)
		b, err := w.invoke(nil)
		require.NoError(t, err)
		assert.NotSame(t, a, b)
	})
}
