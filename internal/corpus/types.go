package corpus

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var errNullObject = errors.New("null object")

// #region field-error

// FieldError reports a required field that is absent or has the wrong shape.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %s: %s", e.Field, e.Reason)
}

// #endregion field-error

// #region entity

// Entity is the head or tail slot of a record. Type holds a comma-joined
// label set; every other field is carried through as raw JSON.
type Entity struct {
	Type  string
	Extra map[string]json.RawMessage
}

func (e *Entity) UnmarshalJSON(data []byte) error {
	fields, err := decodeObject(data)
	if err != nil {
		return err
	}
	raw, ok := fields["type"]
	if !ok {
		return &FieldError{Field: "type", Reason: "missing"}
	}
	if err := decodeString(raw, &e.Type); err != nil {
		return &FieldError{Field: "type", Reason: err.Error()}
	}
	delete(fields, "type")
	e.Extra = fields
	return nil
}

func (e Entity) MarshalJSON() ([]byte, error) {
	fields := make(map[string]json.RawMessage, len(e.Extra)+1)
	for k, v := range e.Extra {
		fields[k] = v
	}
	t, err := json.Marshal(e.Type)
	if err != nil {
		return nil, err
	}
	fields["type"] = t
	return json.Marshal(fields)
}

// #endregion entity

// #region record

// Record is one annotated instance of the corpus.
type Record struct {
	Relation string
	Head     Entity
	Tail     Entity
	Extra    map[string]json.RawMessage
}

func (r *Record) UnmarshalJSON(data []byte) error {
	fields, err := decodeObject(data)
	if err != nil {
		return err
	}

	raw, ok := fields["relation"]
	if !ok {
		return &FieldError{Field: "relation", Reason: "missing"}
	}
	if err := decodeString(raw, &r.Relation); err != nil {
		return &FieldError{Field: "relation", Reason: err.Error()}
	}

	for _, side := range []struct {
		name string
		dst  *Entity
	}{{"head", &r.Head}, {"tail", &r.Tail}} {
		raw, ok := fields[side.name]
		if !ok {
			return &FieldError{Field: side.name, Reason: "missing"}
		}
		if err := json.Unmarshal(raw, side.dst); err != nil {
			var fe *FieldError
			if errors.As(err, &fe) {
				return &FieldError{Field: side.name + "." + fe.Field, Reason: fe.Reason}
			}
			return &FieldError{Field: side.name, Reason: err.Error()}
		}
	}

	delete(fields, "relation")
	delete(fields, "head")
	delete(fields, "tail")
	r.Extra = fields
	return nil
}

func (r Record) MarshalJSON() ([]byte, error) {
	fields := make(map[string]json.RawMessage, len(r.Extra)+3)
	for k, v := range r.Extra {
		fields[k] = v
	}
	rel, err := json.Marshal(r.Relation)
	if err != nil {
		return nil, err
	}
	head, err := json.Marshal(r.Head)
	if err != nil {
		return nil, err
	}
	tail, err := json.Marshal(r.Tail)
	if err != nil {
		return nil, err
	}
	fields["relation"] = rel
	fields["head"] = head
	fields["tail"] = tail
	return json.Marshal(fields)
}

// #endregion record

// #region helpers

func decodeObject(data []byte) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, errNullObject
	}
	return fields, nil
}

func decodeString(raw json.RawMessage, dst *string) error {
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return errors.New("null")
	}
	return json.Unmarshal(raw, dst)
}

// #endregion helpers
