package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
	"gopkg.in/yaml.v3"
)

// Redditor is a lazily loaded Reddit account, identified by name.
type Redditor struct {
	Name string

	r   Requestor
	obj *lazyObject
}

// NewRedditor returns a lazy redditor. No request is made.
func NewRedditor(r Requestor, name string) *Redditor {
	return &Redditor{Name: name, r: r, obj: newLazyObject("Redditor", nil, false, nil)}
}

// RedditorFromData builds a redditor from a user mapping carrying "name".
func RedditorFromData(r Requestor, data map[string]any) (*Redditor, error) {
	name, ok := toString(data["name"])
	if !ok || name == "" {
		return nil, newValueError("data", "mapping has no string 'name' field")
	}
	return &Redditor{Name: name, r: r, obj: newLazyObject("Redditor", data, false, nil)}, nil
}

// Bind attaches a requestor, typically after deserialization.
func (rd *Redditor) Bind(r Requestor) *Redditor {
	rd.r = r
	return rd
}

func (rd *Redditor) lazy() *lazyObject {
	if rd.obj == nil {
		rd.obj = newLazyObject("Redditor", nil, false, nil)
	}
	return rd.obj
}

func (rd *Redditor) fetchData(ctx context.Context) (map[string]any, error) {
	body, err := getPath(ctx, rd.r, "user_about", nil, rd.Name)
	if err != nil {
		return nil, err
	}
	return parseThing(body, "t2")
}

// Fetch reloads every field from the API.
func (rd *Redditor) Fetch(ctx context.Context) error {
	return rd.lazy().refresh(ctx, rd.fetchData, nil)
}

// Fetched reports whether the full field mapping has been loaded.
func (rd *Redditor) Fetched() bool { return rd.lazy().isFetched() }

// Attr returns a field, fetching the account on first access to a missing one.
func (rd *Redditor) Attr(ctx context.Context, key string) (any, error) {
	return rd.lazy().attr(ctx, key, rd.fetchData, nil)
}

// Fullname returns "t2_<id>", fetching the account id when needed.
func (rd *Redditor) Fullname(ctx context.Context) (string, error) {
	id, err := attrString(rd.Attr(ctx, "id"))
	if err != nil {
		return "", err
	}
	return "t2_" + id, nil
}

// Equal compares names case-insensitively; other may be a *Redditor or a string.
func (rd *Redditor) Equal(other any) bool {
	if rd == nil {
		return false
	}
	switch o := other.(type) {
	case *Redditor:
		return o != nil && strings.EqualFold(o.Name, rd.Name)
	case string:
		return strings.EqualFold(o, rd.Name)
	}
	return false
}

// Hash is consistent with Equal.
func (rd *Redditor) Hash() uint64 {
	return xxhash.Sum64String(strings.ToLower(rd.Name))
}

func (rd *Redditor) String() string { return rd.Name }

func (rd *Redditor) GoString() string {
	return fmt.Sprintf("Redditor(name='%s')", rd.Name)
}

func (rd *Redditor) state() objectState {
	data, fetched := rd.lazy().snapshot()
	return objectState{ID: rd.Name, Data: data, Fetched: fetched}
}

func (rd *Redditor) restore(s objectState) error {
	if s.ID == "" {
		return newValueError("name", "must not be empty")
	}
	rd.Name = s.ID
	rd.obj = newLazyObject("Redditor", s.Data, s.Fetched, nil)
	return nil
}

func (rd *Redditor) MarshalJSON() ([]byte, error) { return json.Marshal(rd.state()) }

func (rd *Redditor) UnmarshalJSON(b []byte) error {
	var s objectState
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	return rd.restore(s)
}

func (rd *Redditor) GobEncode() ([]byte, error) { return rd.state().gobEncode() }

func (rd *Redditor) GobDecode(b []byte) error {
	s, err := decodeGobState(b)
	if err != nil {
		return err
	}
	return rd.restore(s)
}

func (rd *Redditor) MarshalYAML() (any, error) { return rd.state(), nil }

func (rd *Redditor) UnmarshalYAML(node *yaml.Node) error {
	var s objectState
	if err := node.Decode(&s); err != nil {
		return err
	}
	return rd.restore(s)
}
