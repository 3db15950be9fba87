package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type FieldErrors struct {
	Field    string
	Messages []string
}

// ValidationErrors keeps the fields in the order the API sent them.
type ValidationErrors []FieldErrors

func (v ValidationErrors) Get(field string) []string {
	for _, f := range v {
		if f.Field == field {
			return f.Messages
		}
	}
	return nil
}

// Messages flattens all fields, field order first and then message order.
func (v ValidationErrors) Messages() []string {
	var out []string
	for _, f := range v {
		out = append(out, f.Messages...)
	}
	return out
}

func (v ValidationErrors) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range v {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Field)
		if err != nil {
			return nil, err
		}
		msgs := f.Messages
		if msgs == nil {
			msgs = []string{}
		}
		val, err := json.Marshal(msgs)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads {"field": ["msg", ...]}. A bare string is taken as a
// single message; anything that is not an object is ignored.
func (v *ValidationErrors) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		*v = nil
		return nil
	}

	var out ValidationErrors
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("validation errors: unexpected key %v", keyTok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		msgs, err := decodeMessages(raw)
		if err != nil {
			return fmt.Errorf("validation errors for %q: %w", key, err)
		}
		out = out.add(key, msgs)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*v = out
	return nil
}

func (v ValidationErrors) add(field string, msgs []string) ValidationErrors {
	for i := range v {
		if v[i].Field == field {
			v[i].Messages = append(v[i].Messages, msgs...)
			return v
		}
	}
	return append(v, FieldErrors{Field: field, Messages: msgs})
}

func decodeMessages(raw json.RawMessage) ([]string, error) {
	var msgs []string
	if err := json.Unmarshal(raw, &msgs); err == nil {
		return msgs, nil
	}
	var single string
	if err := json.Unmarshal(raw, &single); err != nil {
		return nil, err
	}
	return []string{single}, nil
}
