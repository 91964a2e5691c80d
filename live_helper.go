package reddit

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// maxInfoIDs is the number of thread ids api/live/by_id accepts per request.
const maxInfoIDs = 100

// LiveSettings are the optional settings of a new live thread.
type LiveSettings struct {
	Description string
	Resources   string
	NSFW        bool
}

// LiveHelper provides thread-level entry points that are not bound to one thread.
type LiveHelper struct {
	r Requestor
}

// NewLiveHelper binds a helper to a requestor.
func NewLiveHelper(r Requestor) *LiveHelper {
	return &LiveHelper{r: r}
}

// Get returns a lazy thread. No request is made.
func (h *LiveHelper) Get(id string) (*LiveThread, error) {
	return NewLiveThread(h.r, WithID(id))
}

// Create opens a new live thread owned by the authenticated user.
func (h *LiveHelper) Create(ctx context.Context, title string, s LiveSettings) (*LiveThread, error) {
	if title == "" {
		return nil, newValueError("title", "must not be empty")
	}
	form := url.Values{
		"title":       {title},
		"description": {s.Description},
		"resources":   {s.Resources},
		"nsfw":        {strconv.FormatBool(s.NSFW)},
	}
	body, err := postAction(ctx, h.r, "live_create", form)
	if err != nil {
		return nil, err
	}
	id, err := parseCreatedID(body)
	if err != nil {
		return nil, err
	}
	return NewLiveThread(h.r, WithID(id))
}

// Info fetches several threads at once. Unknown ids are omitted from the result.
func (h *LiveHelper) Info(ctx context.Context, ids []string) ([]*LiveThread, error) {
	var threads []*LiveThread
	for start := 0; start < len(ids); start += maxInfoIDs {
		chunk := ids[start:min(start+maxInfoIDs, len(ids))]
		for _, id := range chunk {
			if id == "" {
				return threads, newValueError("ids", "must not contain empty ids")
			}
		}
		body, err := getPath(ctx, h.r, "live_info", nil, strings.Join(chunk, ","))
		if err != nil {
			return threads, err
		}
		children, err := parseListing(body, "LiveUpdateEvent")
		if err != nil {
			return threads, fmt.Errorf("parse live_info: %w", err)
		}
		for _, data := range children {
			t, err := NewLiveThread(h.r, WithData(data))
			if err != nil {
				return threads, err
			}
			threads = append(threads, t)
		}
	}
	return threads, nil
}

// Now returns the featured "happening now" thread, or nil when there is none.
func (h *LiveHelper) Now(ctx context.Context) (*LiveThread, error) {
	body, err := getPath(ctx, h.r, "live_now", nil)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	data, err := parseThing(body, "LiveUpdateEvent")
	if err != nil {
		return nil, err
	}
	return NewLiveThread(h.r, WithData(data))
}
