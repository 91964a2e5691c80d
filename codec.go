package reddit

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Format selects a serialization encoding for model objects.
type Format int

const (
	FormatJSON Format = iota
	FormatGob
	FormatYAML
)

// Formats lists every supported serialization format.
var Formats = []Format{FormatJSON, FormatGob, FormatYAML}

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatGob:
		return "gob"
	case FormatYAML:
		return "yaml"
	}
	return fmt.Sprintf("format(%d)", int(f))
}

// Encode serializes v in the given format.
func Encode(f Format, v any) ([]byte, error) {
	switch f {
	case FormatJSON:
		return json.Marshal(v)
	case FormatGob:
		var buf bytes.Buffer
		if err := gob.NewEncoder(&buf).Encode(v); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatYAML:
		return yaml.Marshal(v)
	}
	return nil, newValueError("format", f.String())
}

// Decode deserializes data in the given format into v, which must be a pointer.
func Decode(f Format, data []byte, v any) error {
	switch f {
	case FormatJSON:
		return json.Unmarshal(data, v)
	case FormatGob:
		return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
	case FormatYAML:
		return yaml.Unmarshal(data, v)
	}
	return newValueError("format", f.String())
}

// objectState is the serialized form shared by every lazy model type.
type objectState struct {
	ID       string         `json:"id" yaml:"id"`
	ThreadID string         `json:"thread_id,omitempty" yaml:"thread_id,omitempty"`
	Data     map[string]any `json:"data,omitempty" yaml:"data,omitempty"`
	Fetched  bool           `json:"fetched" yaml:"fetched"`
}

// gobState carries the field mapping as JSON so gob needs no type registration.
type gobState struct {
	ID       string
	ThreadID string
	Data     []byte
	Fetched  bool
}

func (s objectState) gobEncode() ([]byte, error) {
	g := gobState{ID: s.ID, ThreadID: s.ThreadID, Fetched: s.Fetched}
	if len(s.Data) > 0 {
		raw, err := json.Marshal(s.Data)
		if err != nil {
			return nil, err
		}
		g.Data = raw
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(g); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeGobState(b []byte) (objectState, error) {
	var g gobState
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&g); err != nil {
		return objectState{}, err
	}
	s := objectState{ID: g.ID, ThreadID: g.ThreadID, Fetched: g.Fetched}
	if len(g.Data) > 0 {
		if err := json.Unmarshal(g.Data, &s.Data); err != nil {
			return objectState{}, err
		}
	}
	return s, nil
}
