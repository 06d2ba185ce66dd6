package data

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePath(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"libraries/wares.xml", "libraries/wares.xml"},
		{"\\libraries\\Wares.xml", "libraries/Wares.xml"},
		{"/extensions//modA/./index/macros.xml", "extensions/modA/index/macros.xml"},
		{"", ""},
	}

	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizePath(tc.in))
		})
	}
}

func TestSplitPath(t *testing.T) {
	dirs, name := SplitPath("Assets\\Props\\Engines\\Macros\\Engine_01.XML")
	assert.Equal(t, []string{"assets", "props", "engines", "macros"}, dirs)
	assert.Equal(t, "engine_01.xml", name)

	dirs, name = SplitPath("readme.txt")
	assert.Nil(t, dirs)
	assert.Equal(t, "readme.txt", name)
}

func TestHasPrefix(t *testing.T) {
	assert.True(t, HasPrefix("extensions/modA/libraries/x.xml", "extensions/moda"))
	assert.True(t, HasPrefix("extensions/modA", "extensions/modA"))
	assert.False(t, HasPrefix("extensions/modAB/x.xml", "extensions/modA"))
	assert.False(t, HasPrefix("ext", "extensions/modA"))
	assert.True(t, HasPrefix("anything", ""))
}

func TestToRelativePath(t *testing.T) {
	assert.Equal(t, "libraries/x.xml", ToRelativePath("extensions/modA/libraries/x.xml", "extensions/modA"))
	assert.Equal(t, "", ToRelativePath("extensions/modA", "extensions/modA"))
	assert.Equal(t, "x", ToRelativePath("x", ""))
}
