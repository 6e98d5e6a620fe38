// Package document implements an ordered JSON object used to carry foundation
// records through storage, export and restore without losing key order.
package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotObject is returned when a JSON value that must be an object is not one.
var ErrNotObject = errors.New("document: value is not a JSON object")

// Field is a single key/value pair of a Doc.
type Field struct {
	Key   string
	Value any
}

// Doc is a JSON object that remembers the order its keys were inserted in.
//
// Values are one of nil, bool, string, json.Number, Doc or []any. Go numeric
// types are accepted by Set and encoded as-is.
type Doc struct {
	fields []Field
}

// New builds a Doc from fields in order. Later duplicates overwrite earlier ones.
func New(fields ...Field) Doc {
	var d Doc
	for _, f := range fields {
		d.Set(f.Key, f.Value)
	}
	return d
}

// Len returns the number of keys.
func (d Doc) Len() int { return len(d.fields) }

// Keys returns the keys in order.
func (d Doc) Keys() []string {
	keys := make([]string, len(d.fields))
	for i, f := range d.fields {
		keys[i] = f.Key
	}
	return keys
}

// Fields returns a copy of the key/value pairs in order.
func (d Doc) Fields() []Field {
	out := make([]Field, len(d.fields))
	copy(out, d.fields)
	return out
}

func (d Doc) index(key string) int {
	for i, f := range d.fields {
		if f.Key == key {
			return i
		}
	}
	return -1
}

// Get returns the value stored under key.
func (d Doc) Get(key string) (any, bool) {
	if i := d.index(key); i >= 0 {
		return d.fields[i].Value, true
	}
	return nil, false
}

// Has reports whether key is present, even with a null value.
func (d Doc) Has(key string) bool { return d.index(key) >= 0 }

// Set replaces the value of an existing key in place or appends a new key.
func (d *Doc) Set(key string, value any) {
	if i := d.index(key); i >= 0 {
		d.fields[i].Value = value
		return
	}
	d.fields = append(d.fields, Field{Key: key, Value: value})
}

// Prepend moves or inserts key to the first position.
func (d *Doc) Prepend(key string, value any) {
	d.Delete(key)
	d.fields = append([]Field{{Key: key, Value: value}}, d.fields...)
}

// Delete removes key if present.
func (d *Doc) Delete(key string) {
	if i := d.index(key); i >= 0 {
		d.fields = append(d.fields[:i:i], d.fields[i+1:]...)
	}
}

// Clone returns a deep copy.
func (d Doc) Clone() Doc {
	out := Doc{fields: make([]Field, len(d.fields))}
	for i, f := range d.fields {
		out.fields[i] = Field{Key: f.Key, Value: cloneValue(f.Value)}
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case Doc:
		return t.Clone()
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

// MarshalJSON writes the object with keys in insertion order.
func (d Doc) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (d Doc) encode(buf *bytes.Buffer) error {
	buf.WriteByte('{')
	for i, f := range d.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := encodeScalar(buf, f.Key); err != nil {
			return err
		}
		buf.WriteByte(':')
		if err := encodeValue(buf, f.Value); err != nil {
			return fmt.Errorf("field %q: %w", f.Key, err)
		}
	}
	buf.WriteByte('}')
	return nil
}

func encodeValue(buf *bytes.Buffer, v any) error {
	switch t := v.(type) {
	case Doc:
		return t.encode(buf)
	case *Doc:
		if t == nil {
			buf.WriteString("null")
			return nil
		}
		return t.encode(buf)
	case []any:
		buf.WriteByte('[')
		for i, e := range t {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeValue(buf, e); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	default:
		return encodeScalar(buf, v)
	}
}

// encodeScalar encodes without HTML escaping so exported text matches the stored text.
func encodeScalar(buf *bytes.Buffer, v any) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	buf.Truncate(buf.Len() - 1) // Encode appends a newline
	return nil
}

// Encode renders any document value as compact JSON without HTML escaping.
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeValue(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object keeping key order. Numbers decode to json.Number.
func (d *Doc) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*d = Doc{}
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return ErrNotObject
	}

	parsed, err := decodeObject(dec)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Parse decodes a single JSON object.
func Parse(b []byte) (Doc, error) {
	var d Doc
	if err := d.UnmarshalJSON(b); err != nil {
		return Doc{}, err
	}
	return d, nil
}

func decodeObject(dec *json.Decoder) (Doc, error) {
	d := Doc{fields: []Field{}}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return Doc{}, err
		}
		key, ok := tok.(string)
		if !ok {
			return Doc{}, fmt.Errorf("document: unexpected object key %v", tok)
		}
		value, err := decodeValue(dec)
		if err != nil {
			return Doc{}, err
		}
		d.Set(key, value)
	}
	if _, err := dec.Token(); err != nil {
		return Doc{}, err
	}
	return d, nil
}

func decodeArray(dec *json.Decoder) ([]any, error) {
	out := []any{}
	for dec.More() {
		v, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return out, nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}
	switch delim {
	case '{':
		return decodeObject(dec)
	case '[':
		return decodeArray(dec)
	default:
		return nil, fmt.Errorf("document: unexpected delimiter %q", delim)
	}
}
