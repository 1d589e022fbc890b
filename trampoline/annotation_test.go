package trampoline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reglet-dev/reglet-hooks/domain/errors"
	"github.com/reglet-dev/reglet-hooks/internal/testutil"
)

func TestValidateRefNames(t *testing.T) {
	t.Run("distinct names", func(t *testing.T) {
		require.NoError(t, ValidateRefNames(nil))
		require.NoError(t, ValidateRefNames([]string{"x", "y", "__result__"}))
	})

	t.Run("duplicates always fail", func(t *testing.T) {
		cases := map[string][]string{
			"pair":        {"y", "y"},
			"triple":      {"y", "y", "y"},
			"among many":  {"a", "b", "c", "b", "d"},
			"two repeats": {"x", "y", "x", "y"},
		}
		for name, names := range cases {
			t.Run(name, func(t *testing.T) {
				err := ValidateRefNames(names)
				testutil.RequireErrorAs[*errors.DuplicateRefError](t, err)
			})
		}
	})

	t.Run("duplicates are reported once and sorted", func(t *testing.T) {
		err := ValidateRefNames([]string{"y", "x", "y", "x", "y"})
		dupErr := testutil.RequireErrorAs[*errors.DuplicateRefError](t, err)
		assert.Equal(t, []string{"x", "y"}, dupErr.Names)
	})

	t.Run("empty name", func(t *testing.T) {
		err := ValidateRefNames([]string{"x", ""})
		testutil.RequireErrorAs[*errors.ConfigError](t, err)
	})
}

func TestUsingRefs(t *testing.T) {
	core := returning("prefix", []string{"x"}, nil)
	assert.Nil(t, RefsOf(core))

	annotated, err := UsingRefs(core, "y", "__result__")
	require.NoError(t, err)
	assert.Equal(t, []string{"y", "__result__"}, RefsOf(annotated))
	assert.Equal(t, "prefix", annotated.Name())
	assert.Equal(t, []string{"x"}, annotated.Params())

	_, err = UsingRefs(core, "y", "y")
	testutil.RequireErrorAs[*errors.DuplicateRefError](t, err)
}
