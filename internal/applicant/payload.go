package applicant

import (
	"bytes"
	"encoding/json"
	"errors"
)

// Payload carries a nested sub-record that may arrive either as a JSON
// object or as a JSON-encoded string containing an object. Unmarshaling
// never fails; malformed input resolves to an empty payload so callers can
// substitute defaults.
type Payload struct {
	data json.RawMessage
}

// RawPayload wraps an already-encoded JSON object.
func RawPayload(data []byte) Payload {
	return Payload{data: append(json.RawMessage(nil), data...)}
}

// ObjectPayload encodes v as the payload object.
func ObjectPayload(v any) Payload {
	data, err := json.Marshal(v)
	if err != nil {
		return Payload{}
	}
	return Payload{data: data}
}

// UnmarshalJSON accepts an object, a string holding serialized JSON, or
// null. Anything else resolves to an empty payload.
func (p *Payload) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*p = Payload{}
		return nil
	}

	if data[0] == '"' {
		var inner string
		if err := json.Unmarshal(data, &inner); err != nil {
			*p = Payload{}
			return nil
		}
		p.data = json.RawMessage(inner)
		return nil
	}

	p.data = append(json.RawMessage(nil), data...)
	return nil
}

// MarshalJSON emits the resolved object, or null when the payload is empty.
func (p Payload) MarshalJSON() ([]byte, error) {
	if len(p.data) == 0 {
		return []byte("null"), nil
	}
	return p.data, nil
}

// IsZero reports whether the payload carries no data.
func (p Payload) IsZero() bool {
	return len(p.data) == 0
}

// Decode unmarshals the payload into v and reports whether v now holds a
// non-empty sub-record. Field-level type mismatches are tolerated (the
// matching fields are kept, the rest stay at their zero values); payloads
// that are absent, empty objects, or not objects at all report false.
func (p Payload) Decode(v any) bool {
	if len(p.data) == 0 {
		return false
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(p.data, &fields); err != nil {
		return false
	}
	if len(fields) == 0 {
		return false
	}

	if err := json.Unmarshal(p.data, v); err != nil {
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			return false
		}
	}
	return true
}
