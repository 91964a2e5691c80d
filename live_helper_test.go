package reddit

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLiveHelperGet(t *testing.T) {
	f := newFakeRequestor()
	thread, err := NewLiveHelper(f).Get(testThreadID)
	require.NoError(t, err)
	assert.Equal(t, testThreadID, thread.ID)
	assert.Equal(t, 0, f.count())

	_, err = NewLiveHelper(f).Get("")
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestLiveHelperCreate(t *testing.T) {
	f := newFakeRequestor().on("api/live/create", `{"json":{"errors":[],"data":{"id":"xyz123"}}}`)
	h := NewLiveHelper(f)

	_, err := h.Create(context.Background(), "", LiveSettings{})
	assert.ErrorIs(t, err, ErrInvalidValue)

	thread, err := h.Create(context.Background(), "title", LiveSettings{Description: "desc", NSFW: true})
	require.NoError(t, err)
	assert.Equal(t, "xyz123", thread.ID)

	call := f.last()
	assert.Equal(t, "live_create", call.Endpoint)
	assert.Equal(t, "title", call.Values.Get("title"))
	assert.Equal(t, "desc", call.Values.Get("description"))
	assert.Equal(t, "true", call.Values.Get("nsfw"))
}

func TestLiveHelperInfoChunks(t *testing.T) {
	ids := make([]string, 150)
	for i := range ids {
		ids[i] = fmt.Sprintf("t%03d", i)
	}
	listing := func(chunk []string) string {
		children := make([]string, len(chunk))
		for i, id := range chunk {
			children[i] = fmt.Sprintf(`{"kind":"LiveUpdateEvent","data":{"id":%q,"title":"thread %s"}}`, id, id)
		}
		return `{"kind":"Listing","data":{"children":[` + strings.Join(children, ",") + `]}}`
	}

	f := newFakeRequestor().
		on("api/live/by_id/"+strings.Join(ids[:100], ","), listing(ids[:100])).
		on("api/live/by_id/"+strings.Join(ids[100:], ","), listing(ids[100:]))

	threads, err := NewLiveHelper(f).Info(context.Background(), ids)
	require.NoError(t, err)
	require.Len(t, threads, 150)
	assert.Equal(t, 2, f.count())
	assert.Equal(t, "t149", threads[149].ID)

	title, err := threads[7].Title(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "thread t007", title)
	assert.Equal(t, 2, f.count())
}

func TestLiveHelperInfoRejectsEmptyID(t *testing.T) {
	f := newFakeRequestor()
	_, err := NewLiveHelper(f).Info(context.Background(), []string{"a", ""})
	assert.ErrorIs(t, err, ErrInvalidValue)
	assert.Equal(t, 0, f.count())
}

func TestLiveHelperNow(t *testing.T) {
	f := newFakeRequestor().on("api/live/happening_now", "")
	thread, err := NewLiveHelper(f).Now(context.Background())
	require.NoError(t, err)
	assert.Nil(t, thread)

	f.on("api/live/happening_now", threadAboutBody)
	thread, err = NewLiveHelper(f).Now(context.Background())
	require.NoError(t, err)
	require.NotNil(t, thread)
	assert.Equal(t, testThreadID, thread.ID)
}
