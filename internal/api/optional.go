package api

import (
	"bytes"
	"encoding/json"
)

// Optional is a JSON field that distinguishes absent from explicitly
// null. Absent fields leave Set false; a literal null sets Set with a
// nil Value, which partial updates treat as "clear".
type Optional[T any] struct {
	Set   bool
	Value *T
}

// UnmarshalJSON implements json.Unmarshaler. It only runs when the
// field is present in the payload.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(data, []byte("null")) {
		o.Value = nil
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}
