package coerce

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type shade int

const (
	shadeNone shade = iota
	shadeLight
	shadeDark
)

func TestStringToEnum(t *testing.T) {
	RegisterEnum(map[string]any{
		"light": shadeLight,
		"dark":  shadeDark,
	})

	out, ok := Value(reflect.ValueOf("dark"), reflect.TypeOf((*shade)(nil)).Elem())
	require.True(t, ok)
	assert.Equal(t, shadeDark, out.Interface())

	// Lookup is case-insensitive both ways.
	out, ok = Value(reflect.ValueOf("LIGHT"), reflect.TypeOf((*shade)(nil)).Elem())
	require.True(t, ok)
	assert.Equal(t, shadeLight, out.Interface())
}

func TestStringToEnumUnknownName(t *testing.T) {
	RegisterEnum(map[string]any{"light": shadeLight})

	// A registered type with an unknown spelling falls back to the zero
	// constant rather than failing the whole field.
	out, ok := Value(reflect.ValueOf("chartreuse"), reflect.TypeOf((*shade)(nil)).Elem())
	require.True(t, ok)
	assert.Equal(t, shadeNone, out.Interface())
}

func TestStringToUnregisteredType(t *testing.T) {
	type unregistered int

	// Without a table there is no name mapping; string-to-int has no
	// reflect conversion either.
	_, ok := Value(reflect.ValueOf("anything"), reflect.TypeOf((*unregistered)(nil)).Elem())
	assert.False(t, ok)
}

func TestRegisterEnumMixedTypesPanics(t *testing.T) {
	assert.Panics(t, func() {
		RegisterEnum(map[string]any{
			"a": shadeLight,
			"b": 42,
		})
	})
}
