package load

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	f, err := Load("testdata/valid.yaml")
	require.NoError(t, err)
	assert.Equal(t, "models", f.Package)
	assert.Equal(t, "testdata/valid.yaml", f.Pos)
	require.Len(t, f.Entities, 2)

	user := f.Entities[0]
	assert.Equal(t, "User", user.Name)
	assert.Empty(t, user.Table)
	assert.Equal(t, "created_at", user.CreatedAt)
	require.Len(t, user.Fields, 4)
	assert.True(t, user.Fields[0].Auto)
	assert.True(t, user.Fields[2].Optional)
	assert.True(t, user.Fields[3].ReadOnly)

	post := f.Entities[1]
	assert.Equal(t, "posts", post.Table)
	assert.Equal(t, "json", post.Fields[3].Type)
}

func TestLoadFailure(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"testdata/unknown_key.yaml", "colour"},
		{"testdata/nameless.yaml", "missing name"},
		{"testdata/missing.yaml", "no such file"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			_, err := Load(tt.path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseEmpty(t *testing.T) {
	_, err := Parse(strings.NewReader(""))
	assert.EqualError(t, err, "empty entity file")

	_, err = Parse(strings.NewReader("package: models\n"))
	assert.EqualError(t, err, "no entities")
}

func TestMarshal(t *testing.T) {
	f, err := Load("testdata/valid.yaml")
	require.NoError(t, err)
	buf, err := Marshal(f)
	require.NoError(t, err)

	again, err := Parse(strings.NewReader(string(buf)))
	require.NoError(t, err)
	assert.Equal(t, f.Entities, again.Entities)
	assert.NotContains(t, string(buf), "optional: false", "zero flags are omitted")
}
