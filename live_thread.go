package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/cespare/xxhash/v2"
	"github.com/go-openapi/strfmt"
	"gopkg.in/yaml.v3"
)

const threadArgsMessage = "either 'id' or 'data' must be provided"

// reportReasons are the report types accepted by api/live/{id}/report.
var reportReasons = map[string]bool{
	"spam":                 true,
	"vote-manipulation":    true,
	"personal-information": true,
	"sexualizing-minors":   true,
	"site-ban-evasion":     true,
}

// LiveThread is a lazily loaded Reddit live thread. Its identifier is case-sensitive.
type LiveThread struct {
	ID string

	r   Requestor
	obj *lazyObject
}

// NewLiveThread constructs a thread from exactly one of WithID or WithData.
func NewLiveThread(r Requestor, opts ...Option) (*LiveThread, error) {
	a := collectArgs(opts)
	if a.threadID != nil || a.updateID != nil || a.thread != nil {
		return nil, &ArgumentError{Message: "LiveThread accepts only 'id' or 'data'"}
	}
	if (a.id == nil) == (a.data == nil) {
		return nil, &ArgumentError{Message: threadArgsMessage}
	}

	t := &LiveThread{r: r}
	if a.id != nil {
		if *a.id == "" {
			return nil, newValueError("id", "must not be empty")
		}
		t.ID = *a.id
		t.obj = newLazyObject("LiveThread", nil, false, nil)
		return t, nil
	}

	id, err := dataID(a.data)
	if err != nil {
		return nil, err
	}
	t.ID = id
	t.obj = newLazyObject("LiveThread", a.data, false, nil)
	return t, nil
}

// Bind attaches a requestor, typically after deserialization.
func (t *LiveThread) Bind(r Requestor) *LiveThread {
	t.r = r
	return t
}

func (t *LiveThread) lazy() *lazyObject {
	if t.obj == nil {
		t.obj = newLazyObject("LiveThread", nil, false, nil)
	}
	return t.obj
}

func (t *LiveThread) fetchData(ctx context.Context) (map[string]any, error) {
	body, err := getPath(ctx, t.r, "live_about", nil, t.ID)
	if err != nil {
		return nil, err
	}
	return parseThing(body, "LiveUpdateEvent")
}

// Fetch reloads every field from the API.
func (t *LiveThread) Fetch(ctx context.Context) error {
	return t.lazy().refresh(ctx, t.fetchData, nil)
}

// Fetched reports whether the full field mapping has been loaded.
func (t *LiveThread) Fetched() bool { return t.lazy().isFetched() }

// Attr returns a field, fetching the thread on first access to a missing one.
func (t *LiveThread) Attr(ctx context.Context, key string) (any, error) {
	return t.lazy().attr(ctx, key, t.fetchData, nil)
}

// Title returns the thread title.
func (t *LiveThread) Title(ctx context.Context) (string, error) {
	return attrString(t.Attr(ctx, "title"))
}

// Description returns the markdown description.
func (t *LiveThread) Description(ctx context.Context) (string, error) {
	return attrString(t.Attr(ctx, "description"))
}

// Resources returns the markdown resources sidebar.
func (t *LiveThread) Resources(ctx context.Context) (string, error) {
	return attrString(t.Attr(ctx, "resources"))
}

// State is "live" or "complete".
func (t *LiveThread) State(ctx context.Context) (string, error) {
	return attrString(t.Attr(ctx, "state"))
}

// NSFW reports whether the thread is marked not safe for work.
func (t *LiveThread) NSFW(ctx context.Context) (bool, error) {
	return attrBool(t.Attr(ctx, "nsfw"))
}

// ViewerCount returns the current number of viewers.
func (t *LiveThread) ViewerCount(ctx context.Context) (int, error) {
	return attrInt(t.Attr(ctx, "viewer_count"))
}

// WebsocketURL returns the update stream address.
func (t *LiveThread) WebsocketURL(ctx context.Context) (string, error) {
	return attrString(t.Attr(ctx, "websocket_url"))
}

// Created returns the creation time.
func (t *LiveThread) Created(ctx context.Context) (strfmt.DateTime, error) {
	return attrDateTime(t.Attr(ctx, "created_utc"))
}

// Update returns a lazy LiveUpdate of this thread. No request is made.
// An empty update id is a *ValueError.
func (t *LiveThread) Update(updateID string) (*LiveUpdate, error) {
	return NewLiveUpdate(t.r, WithThread(t), WithUpdateID(updateID))
}

// Contrib returns the helper for contributor-only thread actions.
func (t *LiveThread) Contrib() *LiveThreadContribution {
	return &LiveThreadContribution{thread: t}
}

// Contributor returns the helper for the thread's contributor list.
func (t *LiveThread) Contributor() *LiveContributorRelationship {
	return &LiveContributorRelationship{thread: t}
}

// Report flags the thread for the given reason.
func (t *LiveThread) Report(ctx context.Context, reason string) error {
	if !reportReasons[reason] {
		return newValueError("reason", fmt.Sprintf("unsupported report type %q", reason))
	}
	_, err := postAction(ctx, t.r, "live_report", url.Values{"type": {reason}}, t.ID)
	return err
}

// Equal reports whether other is a thread with the same id or a string equal to it.
func (t *LiveThread) Equal(other any) bool {
	if t == nil {
		return false
	}
	switch o := other.(type) {
	case *LiveThread:
		return o != nil && o.ID == t.ID
	case LiveThread:
		return o.ID == t.ID
	case string:
		return o == t.ID
	}
	return false
}

// Hash is consistent with Equal.
func (t *LiveThread) Hash() uint64 {
	return xxhash.Sum64String(t.ID)
}

func (t *LiveThread) String() string { return t.ID }

func (t *LiveThread) GoString() string {
	return fmt.Sprintf("LiveThread(id='%s')", t.ID)
}

func (t *LiveThread) state() objectState {
	data, fetched := t.lazy().snapshot()
	return objectState{ID: t.ID, Data: data, Fetched: fetched}
}

func (t *LiveThread) restore(s objectState) error {
	if s.ID == "" {
		return newValueError("id", "must not be empty")
	}
	t.ID = s.ID
	t.obj = newLazyObject("LiveThread", s.Data, s.Fetched, nil)
	return nil
}

func (t *LiveThread) MarshalJSON() ([]byte, error) { return json.Marshal(t.state()) }

func (t *LiveThread) UnmarshalJSON(b []byte) error {
	var s objectState
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	return t.restore(s)
}

func (t *LiveThread) GobEncode() ([]byte, error) { return t.state().gobEncode() }

func (t *LiveThread) GobDecode(b []byte) error {
	s, err := decodeGobState(b)
	if err != nil {
		return err
	}
	return t.restore(s)
}

func (t *LiveThread) MarshalYAML() (any, error) { return t.state(), nil }

func (t *LiveThread) UnmarshalYAML(node *yaml.Node) error {
	var s objectState
	if err := node.Decode(&s); err != nil {
		return err
	}
	return t.restore(s)
}
