package reddit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/go-openapi/strfmt"
	"gopkg.in/yaml.v3"
)

const updateArgsMessage = "either 'thread_id' and 'update_id', or 'data' must be provided"

// LiveUpdate is a single post in a live thread.
type LiveUpdate struct {
	ID string

	r      Requestor
	thread *LiveThread
	obj    *lazyObject
}

// NewLiveUpdate constructs an update from WithThreadID (or WithThread) plus WithUpdateID,
// or from WithData. Updates built from data count as fetched and carry no thread unless
// WithThread or WithThreadID is also given.
func NewLiveUpdate(r Requestor, opts ...Option) (*LiveUpdate, error) {
	a := collectArgs(opts)
	if a.id != nil {
		return nil, &ArgumentError{Message: updateArgsMessage}
	}

	if a.data != nil {
		if a.updateID != nil {
			return nil, &ArgumentError{Message: updateArgsMessage}
		}
		id, err := dataID(a.data)
		if err != nil {
			return nil, err
		}
		u := &LiveUpdate{ID: id, r: r}
		if err := u.bindThread(r, a); err != nil {
			return nil, err
		}
		u.obj = newLazyObject("LiveUpdate", a.data, true, u.setAttr)
		return u, nil
	}

	if a.updateID == nil || (a.threadID == nil && a.thread == nil) {
		return nil, &ArgumentError{Message: updateArgsMessage}
	}
	if *a.updateID == "" {
		return nil, newValueError("update_id", "must not be empty")
	}
	u := &LiveUpdate{ID: *a.updateID, r: r}
	if err := u.bindThread(r, a); err != nil {
		return nil, err
	}
	u.obj = newLazyObject("LiveUpdate", nil, false, nil)
	return u, nil
}

func (u *LiveUpdate) bindThread(r Requestor, a objectArgs) error {
	switch {
	case a.thread != nil:
		if a.threadID != nil && *a.threadID != a.thread.ID {
			return &ArgumentError{Message: "conflicting 'thread' and 'thread_id'"}
		}
		u.thread = a.thread
	case a.threadID != nil:
		t, err := NewLiveThread(r, WithID(*a.threadID))
		if err != nil {
			return err
		}
		u.thread = t
	}
	return nil
}

// setAttr upgrades a raw author name to a lazy Redditor.
func (u *LiveUpdate) setAttr(key string, value any) any {
	if key != "author" {
		return value
	}
	if name, ok := value.(string); ok && name != "" {
		return NewRedditor(u.r, name)
	}
	return value
}

// Bind attaches a requestor to the update and its thread, typically after deserialization.
func (u *LiveUpdate) Bind(r Requestor) *LiveUpdate {
	u.r = r
	if u.thread != nil && u.thread.r == nil {
		u.thread.Bind(r)
	}
	u.lazy().rebind(r)
	return u
}

func (u *LiveUpdate) lazy() *lazyObject {
	if u.obj == nil {
		u.obj = newLazyObject("LiveUpdate", nil, false, nil)
	}
	return u.obj
}

// Thread returns the owning thread, or nil when it is unknown.
func (u *LiveUpdate) Thread() *LiveThread { return u.thread }

// Set assigns a field. Assigning "author" from a name stores a *Redditor.
func (u *LiveUpdate) Set(key string, value any) {
	u.lazy().set(key, value, u.setAttr)
}

func (u *LiveUpdate) fetchData(ctx context.Context) (map[string]any, error) {
	if u.thread == nil {
		return nil, newValueError("thread", "update has no thread to fetch from")
	}
	body, err := getPath(ctx, u.r, "live_update", nil, u.thread.ID, u.ID)
	if err != nil {
		return nil, err
	}
	children, err := parseListing(body, "LiveUpdate")
	if err != nil {
		return nil, err
	}
	if len(children) == 0 {
		return nil, fmt.Errorf("live update %s/%s: %w", u.thread.ID, u.ID, ErrNotFound)
	}
	return children[0], nil
}

// Fetch reloads every field from the API.
func (u *LiveUpdate) Fetch(ctx context.Context) error {
	return u.lazy().refresh(ctx, u.fetchData, u.setAttr)
}

// Fetched reports whether the full field mapping has been loaded.
func (u *LiveUpdate) Fetched() bool { return u.lazy().isFetched() }

// Attr returns a field, fetching the update on first access to a missing one.
func (u *LiveUpdate) Attr(ctx context.Context, key string) (any, error) {
	return u.lazy().attr(ctx, key, u.fetchData, u.setAttr)
}

// Author returns the update's author, or nil for deleted accounts.
func (u *LiveUpdate) Author(ctx context.Context) (*Redditor, error) {
	v, err := u.Attr(ctx, "author")
	if err != nil {
		return nil, err
	}
	rd, _ := v.(*Redditor)
	return rd, nil
}

// Body returns the markdown text of the update.
func (u *LiveUpdate) Body(ctx context.Context) (string, error) {
	return attrString(u.Attr(ctx, "body"))
}

// BodyHTML returns the rendered HTML of the update.
func (u *LiveUpdate) BodyHTML(ctx context.Context) (string, error) {
	return attrString(u.Attr(ctx, "body_html"))
}

// Stricken reports whether the update was struck out.
func (u *LiveUpdate) Stricken(ctx context.Context) (bool, error) {
	return attrBool(u.Attr(ctx, "stricken"))
}

// Created returns the time the update was posted.
func (u *LiveUpdate) Created(ctx context.Context) (strfmt.DateTime, error) {
	return attrDateTime(u.Attr(ctx, "created_utc"))
}

// Fullname is the update's type-prefixed id used by mutation endpoints.
func (u *LiveUpdate) Fullname() string {
	return "LiveUpdate_" + u.ID
}

// Contrib returns the helper for contributor-only update actions.
func (u *LiveUpdate) Contrib() *LiveUpdateContribution {
	return &LiveUpdateContribution{update: u}
}

// Equal reports whether other is an update with the same id or a string equal to it.
func (u *LiveUpdate) Equal(other any) bool {
	if u == nil {
		return false
	}
	switch o := other.(type) {
	case *LiveUpdate:
		return o != nil && o.ID == u.ID
	case LiveUpdate:
		return o.ID == u.ID
	case string:
		return o == u.ID
	}
	return false
}

// Hash is consistent with Equal.
func (u *LiveUpdate) Hash() uint64 {
	return xxhash.Sum64String(u.ID)
}

func (u *LiveUpdate) String() string { return u.ID }

func (u *LiveUpdate) GoString() string {
	return fmt.Sprintf("LiveUpdate(id='%s')", u.ID)
}

func (u *LiveUpdate) state() objectState {
	data, fetched := u.lazy().snapshot()
	s := objectState{ID: u.ID, Data: data, Fetched: fetched}
	if u.thread != nil {
		s.ThreadID = u.thread.ID
	}
	return s
}

func (u *LiveUpdate) restore(s objectState) error {
	if s.ID == "" {
		return newValueError("id", "must not be empty")
	}
	u.ID = s.ID
	u.thread = nil
	if s.ThreadID != "" {
		t, err := NewLiveThread(u.r, WithID(s.ThreadID))
		if err != nil {
			return err
		}
		u.thread = t
	}
	u.obj = newLazyObject("LiveUpdate", s.Data, s.Fetched, u.setAttr)
	return nil
}

func (u *LiveUpdate) MarshalJSON() ([]byte, error) { return json.Marshal(u.state()) }

func (u *LiveUpdate) UnmarshalJSON(b []byte) error {
	var s objectState
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	return u.restore(s)
}

func (u *LiveUpdate) GobEncode() ([]byte, error) { return u.state().gobEncode() }

func (u *LiveUpdate) GobDecode(b []byte) error {
	s, err := decodeGobState(b)
	if err != nil {
		return err
	}
	return u.restore(s)
}

func (u *LiveUpdate) MarshalYAML() (any, error) { return u.state(), nil }

func (u *LiveUpdate) UnmarshalYAML(node *yaml.Node) error {
	var s objectState
	if err := node.Decode(&s); err != nil {
		return err
	}
	return u.restore(s)
}
