package builtins

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupFunction(t *testing.T) {
	tests := []struct {
		name    string
		min     int
		max     int
		returns string
	}{
		{"MsgBox", 0, 3, TagString},
		{"msgbox", 0, 3, TagString},
		{"StrLen", 1, 1, TagNumber},
		{"Format", 1, -1, TagString},
		{"Sleep", 1, 1, ""},
		{"StrSplit", 1, 4, "Array"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig, ok := LookupFunction(tt.name)
			require.True(t, ok)

			assert.Equal(t, tt.min, sig.MinParams())
			assert.Equal(t, tt.max, sig.MaxParams())
			assert.Equal(t, tt.returns, sig.Returns)
		})
	}

	_, ok := LookupFunction("NoSuchFunction")
	assert.False(t, ok)
}

func TestSignatureLabel(t *testing.T) {
	sig, ok := LookupFunction("RegExMatch")
	require.True(t, ok)

	assert.Equal(t, "RegExMatch(Haystack, NeedleRegEx, &OutputVar?, StartingPos?) => #number", sig.Label())
	assert.True(t, sig.Params[2].ByRef)
}

func TestClassMembers(t *testing.T) {
	arr, ok := LookupClass("array")
	require.True(t, ok)

	m, owner, ok := arr.Member("Length", false)
	require.True(t, ok)
	assert.True(t, m.Property)
	assert.Equal(t, TagNumber, m.Returns)
	assert.Equal(t, "Array", owner.Name)

	m, owner, ok = arr.Member("HasOwnProp", false)
	require.True(t, ok)
	assert.False(t, m.Property)
	assert.Equal(t, "Object", owner.Name)

	_, _, ok = arr.Member("Prototype", true)
	assert.True(t, ok, "class objects expose the members of Class")

	_, _, ok = arr.Member("Nope", false)
	assert.False(t, ok)
}

func TestConstructor(t *testing.T) {
	tests := []struct {
		class string
		tag   string
	}{
		{"Map", "Map"},
		{"Integer", TagNumber},
		{"String", TagString},
		{"TypeError", "TypeError"},
		{"ComObject", "ComObject"},
	}

	for _, tt := range tests {
		t.Run(tt.class, func(t *testing.T) {
			c, ok := LookupClass(tt.class)
			require.True(t, ok)

			_, tag := c.Constructor()
			assert.Equal(t, tt.tag, tag)
		})
	}
}

func TestVariables(t *testing.T) {
	name, tag, ok := LookupVariable("a_index")
	require.True(t, ok)

	assert.Equal(t, "A_Index", name)
	assert.Equal(t, TagNumber, tag)
	assert.True(t, IsBuiltin("a_scriptdir"))
	assert.True(t, IsBuiltin("Gui"))
	assert.False(t, IsBuiltin("myVar"))
}

func TestNamesAreSorted(t *testing.T) {
	for _, names := range [][]string{FunctionNames(), ClassNames(), VariableNames()} {
		require.NotEmpty(t, names)
		assert.IsIncreasing(t, names)
	}
}
