package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTagSet(t *testing.T) {
	s := Tags("Map", "Array", "map")
	assert.Equal(t, TagSet{"Array", "Map"}, s)
	assert.True(t, s.Has("ARRAY"))
	assert.False(t, s.IsAny())
	assert.Equal(t, "Array | Map", s.String())

	assert.Equal(t, TagSet{TagAny}, s.Add(TagAny))
	assert.Equal(t, TagSet{TagAny}, Tags(TagAny).Add("Map"))
	assert.Equal(t, TagSet{TagNumber, "Map"}, Tags("Map").Union(Tags(TagNumber)))
	assert.Nil(t, Tags("", "  "))
}

func TestParseAnnotation(t *testing.T) {
	tests := []struct {
		text string
		want TagSet
	}{
		{"String", TagSet{TagString}},
		{"Integer|Float", TagSet{TagNumber}},
		{"String|Array", TagSet{TagString, "Array"}},
		{"Map | *", TagSet{TagAny}},
		{"Gui.Control", TagSet{"Gui.Control"}},
		{"", nil},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, parseAnnotation(tt.text))
		})
	}
}

func TestComObjectTag(t *testing.T) {
	assert.Equal(t, "ComObject", comObjectTag(""))
	assert.Equal(t, "ComObject<Excel.Application>", comObjectTag("Excel.Application"))
	assert.Equal(t, "ComObject", tagClass("ComObject<Excel.Application>"))
	assert.Equal(t, "Map", tagClass("Map"))
}
