package reddit

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/go-openapi/strfmt"
)

// thing is Reddit's {"kind": ..., "data": {...}} envelope.
type thing struct {
	Kind string         `json:"kind"`
	Data map[string]any `json:"data"`
}

type listing struct {
	Kind string `json:"kind"`
	Data struct {
		Children []thing `json:"children"`
		After    string  `json:"after"`
	} `json:"data"`
}

// parseThing parses a single thing envelope and checks its kind when want is non-empty.
func parseThing(body []byte, want string) (map[string]any, error) {
	var t thing
	if err := json.Unmarshal(body, &t); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", want, err)
	}
	if want != "" && t.Kind != want {
		return nil, fmt.Errorf("unexpected kind %q, want %q: %s", t.Kind, want, truncateBytes(body, 200))
	}
	if t.Data == nil {
		return nil, fmt.Errorf("%s: empty data", want)
	}
	return t.Data, nil
}

// parseListing returns the data of every child of the given kind.
func parseListing(body []byte, kind string) ([]map[string]any, error) {
	var l listing
	if err := json.Unmarshal(body, &l); err != nil {
		return nil, fmt.Errorf("unmarshal listing: %w", err)
	}
	if l.Kind != "Listing" {
		return nil, fmt.Errorf("unexpected kind %q, want Listing", l.Kind)
	}
	var out []map[string]any
	for _, child := range l.Data.Children {
		if kind != "" && child.Kind != kind {
			continue
		}
		out = append(out, child.Data)
	}
	return out, nil
}

type userList struct {
	Kind string `json:"kind"`
	Data struct {
		Children []struct {
			Name        string   `json:"name"`
			ID          string   `json:"id"`
			Permissions []string `json:"permissions"`
		} `json:"children"`
	} `json:"data"`
}

// parseUserLists handles the contributors response, which is either one UserList
// or an array of two (contributors, then pending invites).
func parseUserLists(body []byte) ([]userList, error) {
	var many []userList
	if err := json.Unmarshal(body, &many); err == nil {
		return many, nil
	}
	var one userList
	if err := json.Unmarshal(body, &one); err != nil {
		return nil, fmt.Errorf("unmarshal user list: %w", err)
	}
	if one.Kind != "UserList" {
		return nil, fmt.Errorf("unexpected kind %q, want UserList", one.Kind)
	}
	return []userList{one}, nil
}

// parseCreatedID extracts json.data.id from an api_type=json create response.
func parseCreatedID(body []byte) (string, error) {
	var raw struct {
		JSON struct {
			Data struct {
				ID string `json:"id"`
			} `json:"data"`
		} `json:"json"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return "", fmt.Errorf("unmarshal create response: %w", err)
	}
	if raw.JSON.Data.ID == "" {
		return "", fmt.Errorf("create returned empty id: %s", truncateBytes(body, 300))
	}
	return raw.JSON.Data.ID, nil
}

func truncateBytes(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

// --- Field conversion helpers ---

func toString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}

func toInt(v any) (int, bool) {
	f, ok := toFloat(v)
	if !ok {
		return 0, false
	}
	return int(math.Round(f)), true
}

// toDateTime converts an epoch value to a strfmt.DateTime. millis selects the unit.
func toDateTime(v any, millis bool) (strfmt.DateTime, bool) {
	f, ok := toFloat(v)
	if !ok {
		return strfmt.DateTime{}, false
	}
	var t time.Time
	if millis {
		t = time.UnixMilli(int64(f))
	} else {
		sec, frac := math.Modf(f)
		t = time.Unix(int64(sec), int64(frac*1e9))
	}
	return strfmt.DateTime(t.UTC()), true
}

// attrString and its siblings convert a lazily fetched field. null converts to the
// zero value; any other value of the wrong JSON type is a *ValueError.
func attrString(v any, err error) (string, error) {
	if err != nil || v == nil {
		return "", err
	}
	s, ok := toString(v)
	if !ok {
		return "", typeMismatch(v, "string")
	}
	return s, nil
}

func attrInt(v any, err error) (int, error) {
	if err != nil || v == nil {
		return 0, err
	}
	n, ok := toInt(v)
	if !ok {
		return 0, typeMismatch(v, "number")
	}
	return n, nil
}

func attrBool(v any, err error) (bool, error) {
	if err != nil || v == nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, typeMismatch(v, "bool")
	}
	return b, nil
}

func attrDateTime(v any, err error) (strfmt.DateTime, error) {
	if err != nil || v == nil {
		return strfmt.DateTime{}, err
	}
	dt, ok := toDateTime(v, false)
	if !ok {
		return strfmt.DateTime{}, typeMismatch(v, "epoch timestamp")
	}
	return dt, nil
}

func typeMismatch(v any, want string) error {
	return &ValueError{Message: fmt.Sprintf("got %T value, want %s", v, want)}
}
