package facebook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseParams_KeepsOrder(t *testing.T) {
	p, err := ParseParams("z=1&a=2&fields=id%2Cname&&empty=")
	require.NoError(t, err)
	assert.Equal(t, Params{
		{Key: "z", Value: "1"},
		{Key: "a", Value: "2"},
		{Key: "fields", Value: "id,name"},
		{Key: "empty", Value: ""},
	}, p)
}

func TestParseParams_BadEscape(t *testing.T) {
	_, err := ParseParams("a=%zz")
	assert.Error(t, err)
}

func TestParams_EncodeAndWith(t *testing.T) {
	p := Params{{Key: "b", Value: "x y"}, {Key: "a", Value: "&"}}
	assert.Equal(t, "b=x+y&a=%26", p.Encode())

	replaced := p.With("b", "z")
	assert.Equal(t, "b=z&a=%26", replaced.Encode())
	assert.Equal(t, "x y", p[0].Value, "With must not mutate the receiver")

	appended := p.With("access_token", "T")
	v, ok := appended.Get("access_token")
	assert.True(t, ok)
	assert.Equal(t, "T", v)
	assert.Len(t, p, 2)
}

func TestParseParams_NeverAttachesFiles(t *testing.T) {
	p, err := ParseParams("message=%40%2Fetc%2Fpasswd&source=@/tmp/x")
	require.NoError(t, err)

	assert.False(t, p.HasFiles())
	v, _ := p.Get("message")
	assert.Equal(t, "@/etc/passwd", v)
}

func TestParams_WithReplacesFile(t *testing.T) {
	p := Params{FileParam("source", "/tmp/photo.jpg")}
	assert.True(t, p.HasFiles())

	p = p.With("source", "text")
	assert.False(t, p.HasFiles())
	assert.Equal(t, Params{{Key: "source", Value: "text"}}, p)
}
