package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
)

// Fields is a decoded JSON object, either an app payload or a store row.
// Accessors are permissive: a missing key or a value of the wrong JSON type
// reads as absent rather than failing.
type Fields map[string]any

// MissingFieldError reports a required input field that is absent or has the
// wrong JSON type.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing or invalid field %q", e.Field)
}

// DecodeFields decodes a single JSON object, keeping numbers as json.Number.
func DecodeFields(r io.Reader) (Fields, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var f Fields
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decoding object: %w", err)
	}
	if f == nil {
		return nil, fmt.Errorf("decoding object: expected a JSON object")
	}
	return f, nil
}

// DecodeRows decodes a JSON array of objects as returned by the store.
func DecodeRows(data []byte) ([]Fields, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var rows []Fields
	if err := dec.Decode(&rows); err != nil {
		return nil, fmt.Errorf("decoding rows: %w", err)
	}
	return rows, nil
}

// Has reports whether key is present, whatever its value.
func (f Fields) Has(key string) bool {
	_, ok := f[key]
	return ok
}

// String returns the value at key if it is a JSON string.
func (f Fields) String(key string) *string {
	s, ok := f[key].(string)
	if !ok {
		return nil
	}
	return &s
}

// Number returns the value at key if it is a JSON number.
func (f Fields) Number(key string) *float64 {
	switch v := f[key].(type) {
	case json.Number:
		n, err := v.Float64()
		if err != nil {
			return nil
		}
		return &n
	case float64:
		return &v
	}
	return nil
}

// Int returns the value at key if it is an integral JSON number.
func (f Fields) Int(key string) (int64, bool) {
	switch v := f[key].(type) {
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	case float64:
		if v == math.Trunc(v) {
			return int64(v), true
		}
	}
	return 0, false
}

// Bool returns the value at key if it is a JSON boolean, def otherwise.
func (f Fields) Bool(key string, def bool) bool {
	b, ok := f[key].(bool)
	if !ok {
		return def
	}
	return b
}

// Object returns the nested object at key, or nil.
func (f Fields) Object(key string) Fields {
	switch v := f[key].(type) {
	case map[string]any:
		return Fields(v)
	case Fields:
		return v
	}
	return nil
}

// RequireString returns the string at key or a MissingFieldError.
func (f Fields) RequireString(key string) (string, error) {
	s := f.String(key)
	if s == nil {
		return "", &MissingFieldError{Field: key}
	}
	return *s, nil
}

// RequireInt returns the integer at key or a MissingFieldError.
func (f Fields) RequireInt(key string) (int64, error) {
	n, ok := f.Int(key)
	if !ok {
		return 0, &MissingFieldError{Field: key}
	}
	return n, nil
}

// RequireNumber returns the number at key or a MissingFieldError.
func (f Fields) RequireNumber(key string) (float64, error) {
	n := f.Number(key)
	if n == nil {
		return 0, &MissingFieldError{Field: key}
	}
	return *n, nil
}

// RequireBool returns the boolean at key or a MissingFieldError.
func (f Fields) RequireBool(key string) (bool, error) {
	b, ok := f[key].(bool)
	if !ok {
		return false, &MissingFieldError{Field: key}
	}
	return b, nil
}
