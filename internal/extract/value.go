package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Kind enumerates JSON value kinds.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

// Value is a parsed JSON value. Object fields keep document order, which
// the string-leaf fallback depends on; encoding/json maps would lose it.
type Value struct {
	Kind   Kind
	Str    string
	Num    float64
	Bool   bool
	Items  []*Value
	Fields []Field
}

// Field is one ordered object member.
type Field struct {
	Key   string
	Value *Value
}

// Parse decodes a raw JSON document into a Value tree.
func Parse(data []byte) (*Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := parseValue(dec)
	if err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("trailing content after JSON value")
	}
	return v, nil
}

func parseValue(dec *json.Decoder) (*Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return parseObject(dec)
		case '[':
			return parseArray(dec)
		default:
			return nil, fmt.Errorf("unexpected delimiter %q", t.String())
		}
	case string:
		return &Value{Kind: KindString, Str: t}, nil
	case json.Number:
		f, _ := t.Float64()
		return &Value{Kind: KindNumber, Num: f}, nil
	case bool:
		return &Value{Kind: KindBool, Bool: t}, nil
	case nil:
		return &Value{Kind: KindNull}, nil
	default:
		return nil, fmt.Errorf("unexpected token %v", tok)
	}
}

func parseObject(dec *json.Decoder) (*Value, error) {
	obj := &Value{Kind: KindObject}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("object key is not a string: %v", keyTok)
		}
		val, err := parseValue(dec)
		if err != nil {
			return nil, err
		}
		obj.Fields = append(obj.Fields, Field{Key: key, Value: val})
	}
	// consume closing '}'
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return obj, nil
}

func parseArray(dec *json.Decoder) (*Value, error) {
	arr := &Value{Kind: KindArray}
	for dec.More() {
		val, err := parseValue(dec)
		if err != nil {
			return nil, err
		}
		arr.Items = append(arr.Items, val)
	}
	// consume closing ']'
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return arr, nil
}

// Get returns the value of the named object field, or nil when v is not an
// object or the field is absent.
func (v *Value) Get(key string) *Value {
	if v == nil || v.Kind != KindObject {
		return nil
	}
	for _, f := range v.Fields {
		if f.Key == key {
			return f.Value
		}
	}
	return nil
}

// getPath walks nested object fields and returns the value at the path, or
// nil when any step is missing.
func (v *Value) getPath(path ...string) *Value {
	current := v
	for _, key := range path {
		current = current.Get(key)
		if current == nil {
			return nil
		}
	}
	return current
}

// stringValue returns the string content when v is a string value.
func (v *Value) stringValue() (string, bool) {
	if v == nil || v.Kind != KindString {
		return "", false
	}
	return v.Str, true
}
