package reddit

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedditorLazy(t *testing.T) {
	f := newFakeRequestor().on("user/spez/about", `{"kind":"t2","data":{"name":"spez","id":"1w72","link_karma":100}}`)
	rd := NewRedditor(f, "spez")
	assert.Equal(t, 0, f.count())

	fullname, err := rd.Fullname(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "t2_1w72", fullname)
	assert.True(t, rd.Fetched())

	karma, err := rd.Attr(context.Background(), "link_karma")
	require.NoError(t, err)
	assert.Equal(t, float64(100), karma)
	assert.Equal(t, 1, f.count())
}

func TestRedditorWrongKind(t *testing.T) {
	f := newFakeRequestor().on("user/spez/about", `{"kind":"t3","data":{"id":"x"}}`)
	err := NewRedditor(f, "spez").Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected kind")
}

func TestRedditorFromData(t *testing.T) {
	_, err := RedditorFromData(nil, map[string]any{"id": "x"})
	assert.ErrorIs(t, err, ErrInvalidValue)

	rd, err := RedditorFromData(nil, map[string]any{"name": "bboe"})
	require.NoError(t, err)
	assert.Equal(t, "bboe", rd.Name)
	assert.False(t, rd.Fetched())
}

func TestRedditorIdentity(t *testing.T) {
	a := NewRedditor(nil, "Spez")
	b := NewRedditor(nil, "spez")

	assert.True(t, a.Equal(b))
	assert.True(t, a.Equal("SPEZ"))
	assert.False(t, a.Equal(NewRedditor(nil, "bboe")))
	assert.Equal(t, a.Hash(), b.Hash())
	assert.Equal(t, "Spez", a.String())
	assert.Equal(t, "Redditor(name='Spez')", fmt.Sprintf("%#v", a))
}

func TestRedditorRoundTrip(t *testing.T) {
	original, _ := RedditorFromData(nil, map[string]any{"name": "bboe", "id": "abc"})
	for _, format := range Formats {
		t.Run(format.String(), func(t *testing.T) {
			raw, err := Encode(format, original)
			require.NoError(t, err)
			var decoded Redditor
			require.NoError(t, Decode(format, raw, &decoded))
			assert.True(t, original.Equal(&decoded))

			fullname, err := decoded.Fullname(context.Background())
			require.NoError(t, err)
			assert.Equal(t, "t2_abc", fullname)
		})
	}
}
