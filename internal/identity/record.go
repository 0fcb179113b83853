package identity

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var errNotObject = errors.New("document is not a JSON object")

// Record is the identity state file. Values are kept as raw JSON and keys in
// document order, so everything this package does not manage is written
// back as it was read.
type Record struct {
	keys   []string
	values map[string]json.RawMessage
}

func NewRecord() *Record {
	return &Record{values: map[string]json.RawMessage{}}
}

func (r *Record) Keys() []string {
	return append([]string(nil), r.keys...)
}

func (r *Record) Has(key string) bool {
	_, ok := r.values[key]
	return ok
}

func (r *Record) Get(key string) (json.RawMessage, bool) {
	raw, ok := r.values[key]
	return raw, ok
}

// Set replaces the value of key in place or appends key at the end.
func (r *Record) Set(key string, raw json.RawMessage) {
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = raw
}

func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := encodeCompact(key)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(r.values[key])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// parseRecord decodes a JSON object keeping its key order. A repeated key
// keeps its first position and its last value.
func parseRecord(data []byte) (*Record, error) {
	if !json.Valid(data) {
		return nil, errors.New("invalid JSON")
	}

	decoder := json.NewDecoder(bytes.NewReader(data))
	tok, err := decoder.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errNotObject
	}

	record := NewRecord()
	for decoder.More() {
		tok, err := decoder.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		var raw json.RawMessage
		if err := decoder.Decode(&raw); err != nil {
			return nil, err
		}
		record.Set(key, raw)
	}
	return record, nil
}

func encodeCompact(v any) ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
