package option

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modm-io/lbuild/internal/errors"
)

func TestBooleanTokens(t *testing.T) {
	o := NewBoolean("enable", "").Default("false")

	for _, raw := range []string{"true", "True", "YES", "1"} {
		require.NoError(t, o.Assign(raw), raw)
		v, err := o.Value()
		require.NoError(t, err)
		assert.Equal(t, true, v, raw)
	}
	for _, raw := range []string{"false", "no", "0", "FALSE"} {
		require.NoError(t, o.Assign(raw), raw)
		v, err := o.Value()
		require.NoError(t, err)
		assert.Equal(t, false, v, raw)
	}

	err := o.Assign("maybe")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrParse)
}

func TestNumericRange(t *testing.T) {
	o := NewNumericRange("count", "", 1, 8).Default("4")

	require.NoError(t, o.Assign("8"))
	require.NoError(t, o.Assign("1"))

	err := o.Assign("9")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrValidation)

	var rangeErr *errors.RangeError
	require.ErrorAs(t, err, &rangeErr)
	assert.Equal(t, "count", rangeErr.Option)
	assert.Equal(t, 9.0, rangeErr.Value)
	assert.Equal(t, 8.0, rangeErr.Bound)
}

func TestNumericPrefixedLiterals(t *testing.T) {
	o := NewNumeric("addr", "")
	require.NoError(t, o.Assign("0x20"))
	v, err := o.Value()
	require.NoError(t, err)
	assert.Equal(t, 32.0, v)

	require.NoError(t, o.Assign("1.5"))
	v, err = o.Value()
	require.NoError(t, err)
	assert.Equal(t, 1.5, v)
}

func TestRequiredMissing(t *testing.T) {
	o := NewString("target", "no default")
	require.True(t, o.Required())

	_, err := o.Value()
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrRequired)

	require.NoError(t, o.Assign("stm32"))
	v, err := o.Value()
	require.NoError(t, err)
	assert.Equal(t, "stm32", v)
}

func TestEnumerationMapsToAssociatedValue(t *testing.T) {
	o := NewEnumerationMap("level", "", []string{"low", "high"},
		map[string]any{"low": 1, "high": 3}).Default("low")

	require.NoError(t, o.Assign("high"))
	v, err := o.Value()
	require.NoError(t, err)
	assert.Equal(t, 3, v)

	err = o.Assign("medium")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrValidation)
	assert.Contains(t, err.Error(), "'low', 'high'")
}

func TestEnumerationDerivedFromValues(t *testing.T) {
	o := NewEnumeration("color", "", "red", "green", "blue")
	require.NoError(t, o.Assign("green"))
	v, err := o.Value()
	require.NoError(t, err)
	assert.Equal(t, "green", v)
	assert.Equal(t, []string{"red", "green", "blue"}, Values(o))
}

func TestSetDecodingPreservesDuplicates(t *testing.T) {
	o := NewEnumeration("features", "", "a", "b", "c").AsSet().Default("")
	require.NoError(t, o.Assign("a, b, b, c"))

	values, err := o.Values()
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b", "b", "c"}, values)
}

func TestSetElementValidation(t *testing.T) {
	o := NewNumericRange("sizes", "", 0, 10).AsSet()
	err := o.Assign("1, 2, 42")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrValidation)
	assert.Contains(t, err.Error(), "42")
}

func TestStringHasNoSetForm(t *testing.T) {
	assert.Panics(t, func() {
		NewString("s", "").AsSet()
	})
}

func TestPathWellFormedness(t *testing.T) {
	o := NewPath("out", "", false, false).Default("build")
	require.NoError(t, o.Assign("src/generated"))

	err := o.Assign("")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrValidation)

	empty := NewPath("opt", "", true, false).Default("")
	require.NoError(t, empty.Assign(""))
}

func TestPathAbsoluteRelocation(t *testing.T) {
	o := NewPath("inc", "", false, true).Default("include")
	AnchorPaths(o, "/repo/src")

	require.NoError(t, o.Assign("vendor/lib"))
	v, err := o.Value()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/repo/src", "vendor/lib"), v)

	// Absolute inputs are kept as-is.
	require.NoError(t, o.Assign("/abs/path"))
	v, err = o.Value()
	require.NoError(t, err)
	assert.Equal(t, "/abs/path", v)
}

func TestDependencyHandlerScalar(t *testing.T) {
	o := NewBoolean("with-driver", "").Default("false").
		DependsOn(func(value any) []string {
			if value.(bool) {
				return []string{"repo:driver"}
			}
			return nil
		})

	deps, err := o.DependencyModules()
	require.NoError(t, err)
	assert.Empty(t, deps)

	require.NoError(t, o.Assign("yes"))
	deps, err = o.DependencyModules()
	require.NoError(t, err)
	assert.Equal(t, []string{"repo:driver"}, deps)
}

func TestDependencyHandlerSet(t *testing.T) {
	o := NewEnumeration("parts", "", "uart", "spi").AsSet().Default("").
		DependsOn(func(value any) []string {
			var deps []string
			for _, v := range value.([]any) {
				deps = append(deps, "repo:"+v.(string))
			}
			return deps
		})

	require.NoError(t, o.Assign("uart, spi"))
	deps, err := o.DependencyModules()
	require.NoError(t, err)
	assert.Equal(t, []string{"repo:uart", "repo:spi"}, deps)
}

func TestSerializeRoundTrip(t *testing.T) {
	o := NewNumeric("n", "").Default("3")
	s, err := o.Serialize()
	require.NoError(t, err)
	assert.Equal(t, "3", s)

	set := NewBoolean("flags", "").AsSet().Default("yes, no")
	s, err = set.Serialize()
	require.NoError(t, err)
	assert.Equal(t, "true, false", s)
}
