package reddit

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedCall struct {
	Method   string
	Endpoint string
	Path     string
	Values   url.Values
}

// fakeRequestor returns canned bodies keyed by path and records every call.
type fakeRequestor struct {
	mu        sync.Mutex
	responses map[string]string
	errs      map[string]error
	calls     []recordedCall
}

func newFakeRequestor() *fakeRequestor {
	return &fakeRequestor{
		responses: map[string]string{},
		errs:      map[string]error{},
	}
}

func (f *fakeRequestor) on(path, body string) *fakeRequestor {
	f.responses[path] = body
	return f
}

func (f *fakeRequestor) fail(path string, err error) *fakeRequestor {
	f.errs[path] = err
	return f
}

func (f *fakeRequestor) record(method, endpoint, path string, v url.Values) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, recordedCall{Method: method, Endpoint: endpoint, Path: path, Values: v})
	if err := f.errs[path]; err != nil {
		return nil, err
	}
	if body, ok := f.responses[path]; ok {
		return []byte(body), nil
	}
	if method == "POST" {
		return []byte(`{"json":{"errors":[]}}`), nil
	}
	return nil, fmt.Errorf("no canned response for %s: %w", path, ErrNotFound)
}

func (f *fakeRequestor) Get(_ context.Context, endpoint, path string, params url.Values) ([]byte, error) {
	return f.record("GET", endpoint, path, params)
}

func (f *fakeRequestor) Post(_ context.Context, endpoint, path string, form url.Values) ([]byte, error) {
	return f.record("POST", endpoint, path, form)
}

func (f *fakeRequestor) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeRequestor) last() recordedCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return recordedCall{}
	}
	return f.calls[len(f.calls)-1]
}

const (
	testThreadID = "ukaeu1ik4sw5"
	testUpdateID = "7827987a-c998-11e4-a0b9-22000b6a88d2"

	threadAboutBody = `{"kind":"LiveUpdateEvent","data":{
		"id":"ukaeu1ik4sw5",
		"title":"Election night",
		"description":"Results as they come in",
		"resources":"* [source](https://example.com)",
		"state":"live",
		"nsfw":false,
		"viewer_count":128,
		"websocket_url":"wss://ws.example.com/live/ukaeu1ik4sw5",
		"created_utc":1500000000.0
	}}`

	updateListingBody = `{"kind":"Listing","data":{"children":[{"kind":"LiveUpdate","data":{
		"id":"7827987a-c998-11e4-a0b9-22000b6a88d2",
		"author":"spez",
		"body":"polls are closed",
		"body_html":"<p>polls are closed</p>",
		"stricken":false,
		"created_utc":1500000100
	}}],"after":null}}`
)

func TestGetPathNilRequestor(t *testing.T) {
	_, err := getPath(context.Background(), nil, "live_about", nil, testThreadID)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestPostActionSetsAPIType(t *testing.T) {
	f := newFakeRequestor()
	_, err := postAction(context.Background(), f, "live_close", nil, testThreadID)
	require.NoError(t, err)

	call := f.last()
	assert.Equal(t, "POST", call.Method)
	assert.Equal(t, "live_close", call.Endpoint)
	assert.Equal(t, "api/live/ukaeu1ik4sw5/close_thread", call.Path)
	assert.Equal(t, "json", call.Values.Get("api_type"))
}

func TestPostActionSurfacesAPIErrors(t *testing.T) {
	f := newFakeRequestor().on("api/live/ukaeu1ik4sw5/update", `{"json":{"errors":[["TOO_LONG","this is too long","body"]]}}`)
	_, err := postAction(context.Background(), f, "live_add_update", url.Values{"body": {"x"}}, testThreadID)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAPI)
	assert.Contains(t, err.Error(), "live_add_update")
}

func TestPostActionUnknownEndpoint(t *testing.T) {
	f := newFakeRequestor()
	_, err := postAction(context.Background(), f, "live_bogus", nil)
	require.Error(t, err)
	assert.Equal(t, 0, f.count())
}
