// Package payload models the structured values carried through the image
// transport: descriptors parsed from requests and results handed to the
// encoder.
//
// Objects keep their keys in insertion order. That order is the
// serialization order, which makes encoding deterministic without sorting.
package payload

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

var (
	ErrSyntax    = errors.New("payload: malformed json")
	ErrNotObject = errors.New("payload: value is not a json object")
)

// Field is one key/value entry of an Object.
//
// Value holds nil, bool, int64, float64, string, Object or []any.
type Field struct {
	Key   string
	Value any
}

// KV builds a Field.
func KV(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Object is an insertion-ordered mapping from string keys to values.
type Object []Field

// Get returns the value stored under key.
func (o Object) Get(key string) (any, bool) {
	for _, f := range o {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// String returns the value under key when it is a string.
func (o Object) String(key string) (string, bool) {
	v, ok := o.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Int returns the value under key when it is an integer. Parsed objects
// hold integers as int64; int is accepted for objects built in Go.
func (o Object) Int(key string) (int64, bool) {
	v, ok := o.Get(key)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	}
	return 0, false
}

// Set replaces the value of an existing key in place, or appends a new
// field at the end.
func (o *Object) Set(key string, value any) {
	for i := range *o {
		if (*o)[i].Key == key {
			(*o)[i].Value = value
			return
		}
	}
	*o = append(*o, Field{Key: key, Value: value})
}

// Keys returns the keys in serialization order.
func (o Object) Keys() []string {
	keys := make([]string, len(o))
	for i, f := range o {
		keys[i] = f.Key
	}
	return keys
}

// MarshalJSON emits the canonical serialization.
func (o Object) MarshalJSON() ([]byte, error) {
	return Marshal(o), nil
}

// UnmarshalJSON parses a JSON object, keeping key order.
func (o *Object) UnmarshalJSON(b []byte) error {
	parsed, err := ParseBytes(b)
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// Parse decodes text as a single JSON object.
func Parse(text string) (Object, error) {
	return ParseBytes([]byte(text))
}

// ParseBytes decodes b as a single JSON object. Integers that fit an int64
// decode as int64, every other number as float64. A repeated key keeps its
// first position and its last value.
func ParseBytes(b []byte) (Object, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		if !json.Valid(b) {
			return nil, fmt.Errorf("%w: unexpected %v", ErrSyntax, tok)
		}
		return nil, ErrNotObject
	}

	obj, err := readObject(dec)
	if err != nil {
		return nil, err
	}
	if tok, err := dec.Token(); err != io.EOF {
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
		}
		return nil, fmt.Errorf("%w: trailing data %v", ErrSyntax, tok)
	}
	return obj, nil
}

// ParseValue decodes any single JSON value with the same number and
// ordering rules as ParseBytes.
func ParseValue(b []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	v, err := readValue(dec)
	if err != nil {
		return nil, err
	}
	if tok, err := dec.Token(); err != io.EOF {
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
		}
		return nil, fmt.Errorf("%w: trailing data %v", ErrSyntax, tok)
	}
	return v, nil
}

// readObject consumes fields up to and including the closing brace. The
// opening brace has already been read.
func readObject(dec *json.Decoder) (Object, error) {
	obj := Object{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("%w: object key %v", ErrSyntax, tok)
		}
		val, err := readValue(dec)
		if err != nil {
			return nil, err
		}
		obj.Set(key, val)
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	return obj, nil
}

func readArray(dec *json.Decoder) ([]any, error) {
	arr := []any{}
	for dec.More() {
		val, err := readValue(dec)
		if err != nil {
			return nil, err
		}
		arr = append(arr, val)
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	return arr, nil
}

func readValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return readObject(dec)
		case '[':
			return readArray(dec)
		}
		return nil, fmt.Errorf("%w: unexpected %v", ErrSyntax, t)
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i, nil
		}
		f, err := t.Float64()
		if err != nil {
			return nil, fmt.Errorf("%w: number %s: %v", ErrSyntax, t, err)
		}
		return f, nil
	default:
		// string, bool or nil
		return t, nil
	}
}
