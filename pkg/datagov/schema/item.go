package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// TimeLayout is the timestamp format used by every data.gov.gr query resource
const TimeLayout = "2006-01-02T15:04:05Z"

// Item is one raw JSON object from a query response array
type Item map[string]json.RawMessage

// FieldError reports a field that could not be read from an Item
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q: %s", e.Field, e.Reason)
}

var null = []byte("null")

// raw returns the field value and whether it carries a non-null value
func (it Item) raw(name string) (json.RawMessage, bool, bool) {
	v, ok := it[name]
	if !ok {
		return nil, false, false
	}
	if bytes.Equal(bytes.TrimSpace(v), null) {
		return nil, true, false
	}
	return v, true, true
}

func (it Item) required(name string) (json.RawMessage, error) {
	v, present, set := it.raw(name)
	if !present {
		return nil, &FieldError{Field: name, Reason: "missing required field"}
	}
	if !set {
		return nil, &FieldError{Field: name, Reason: "null value for required field"}
	}
	return v, nil
}

// String reads a required string field
func (it Item) String(name string) (string, error) {
	v, err := it.required(name)
	if err != nil {
		return "", err
	}
	return decodeString(name, v)
}

// NullableString reads an optional string field; null or absent yields nil
func (it Item) NullableString(name string) (*string, error) {
	v, _, set := it.raw(name)
	if !set {
		return nil, nil
	}
	s, err := decodeString(name, v)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Int reads a required integer field
func (it Item) Int(name string) (int, error) {
	v, err := it.required(name)
	if err != nil {
		return 0, err
	}
	return decodeInt(name, v)
}

// NullableInt reads an optional integer field; null or absent yields nil
func (it Item) NullableInt(name string) (*int, error) {
	v, _, set := it.raw(name)
	if !set {
		return nil, nil
	}
	n, err := decodeInt(name, v)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// Float reads a required numeric field
func (it Item) Float(name string) (float64, error) {
	v, err := it.required(name)
	if err != nil {
		return 0, err
	}
	num, err := decodeNumber(name, v)
	if err != nil {
		return 0, err
	}
	f, err := num.Float64()
	if err != nil {
		return 0, &FieldError{Field: name, Reason: fmt.Sprintf("invalid number %s", num)}
	}
	return f, nil
}

// Time reads a required timestamp field in TimeLayout
func (it Item) Time(name string) (time.Time, error) {
	s, err := it.String(name)
	if err != nil {
		return time.Time{}, err
	}
	// the parser tolerates fractional seconds the layout does not name
	t, err := time.ParseInLocation(TimeLayout, s, time.UTC)
	if err != nil || t.Format(TimeLayout) != s {
		return time.Time{}, &FieldError{Field: name, Reason: fmt.Sprintf("invalid timestamp %q", s)}
	}
	return t, nil
}

func decodeString(name string, v json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return "", &FieldError{Field: name, Reason: "expected string"}
	}
	return s, nil
}

func decodeNumber(name string, v json.RawMessage) (json.Number, error) {
	// json.Number accepts quoted numerals; the wire format never quotes numbers
	trimmed := bytes.TrimSpace(v)
	if len(trimmed) == 0 || trimmed[0] == '"' {
		return "", &FieldError{Field: name, Reason: "expected number"}
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var num json.Number
	if err := dec.Decode(&num); err != nil {
		return "", &FieldError{Field: name, Reason: "expected number"}
	}
	return num, nil
}

func decodeInt(name string, v json.RawMessage) (int, error) {
	num, err := decodeNumber(name, v)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(num.String())
	if err != nil {
		return 0, &FieldError{Field: name, Reason: fmt.Sprintf("expected integer, got %s", num)}
	}
	return n, nil
}
