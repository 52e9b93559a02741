package types

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ValueKind identifies the variant held by a Value.
type ValueKind uint8

const (
	KindNull ValueKind = iota
	KindString
	KindNumber
	KindBool
	KindList
	KindMap
)

func (k ValueKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	}
	return "null"
}

// Value is an attribute value: a scalar, a list of values or a map of values.
// The zero Value is null. Values are immutable once constructed.
type Value struct {
	kind ValueKind
	str  string
	num  float64
	b    bool
	list []Value
	m    map[string]Value
}

// Null returns the null value.
func Null() Value { return Value{} }

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number returns a numeric value.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Int returns a numeric value from an integer.
func Int(i int) Value { return Value{kind: KindNumber, num: float64(i)} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// List returns a list value holding items.
func List(items ...Value) Value {
	cp := make([]Value, len(items))
	copy(cp, items)
	return Value{kind: KindList, list: cp}
}

// Strings returns a list value of string items.
func Strings(items ...string) Value {
	vals := make([]Value, len(items))
	for i, s := range items {
		vals[i] = String(s)
	}
	return Value{kind: KindList, list: vals}
}

// Map returns a map value holding fields.
func Map(fields map[string]Value) Value {
	cp := make(map[string]Value, len(fields))
	for k, v := range fields {
		cp[k] = v
	}
	return Value{kind: KindMap, m: cp}
}

// FromAny converts decoded JSON/YAML data or driver values into a Value.
// Unsupported types are rendered with fmt.
func FromAny(v interface{}) Value {
	switch x := v.(type) {
	case nil:
		return Null()
	case Value:
		return x
	case string:
		return String(x)
	case bool:
		return Bool(x)
	case float64:
		return Number(x)
	case float32:
		return Number(float64(x))
	case int:
		return Number(float64(x))
	case int32:
		return Number(float64(x))
	case int64:
		return Number(float64(x))
	case uint:
		return Number(float64(x))
	case uint64:
		return Number(float64(x))
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return String(x.String())
		}
		return Number(f)
	case []string:
		return Strings(x...)
	case []interface{}:
		items := make([]Value, len(x))
		for i, item := range x {
			items[i] = FromAny(item)
		}
		return Value{kind: KindList, list: items}
	case map[string]interface{}:
		fields := make(map[string]Value, len(x))
		for k, item := range x {
			fields[k] = FromAny(item)
		}
		return Value{kind: KindMap, m: fields}
	case map[interface{}]interface{}:
		fields := make(map[string]Value, len(x))
		for k, item := range x {
			fields[fmt.Sprint(k)] = FromAny(item)
		}
		return Value{kind: KindMap, m: fields}
	default:
		return String(fmt.Sprint(x))
	}
}

// Kind returns the variant held by v.
func (v Value) Kind() ValueKind { return v.kind }

// IsNull reports whether v is the null value.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsString returns the string held by v.
func (v Value) AsString() (string, bool) { return v.str, v.kind == KindString }

// AsNumber returns the number held by v.
func (v Value) AsNumber() (float64, bool) { return v.num, v.kind == KindNumber }

// AsBool returns the boolean held by v.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsList returns the items held by v. The slice must not be modified.
func (v Value) AsList() ([]Value, bool) { return v.list, v.kind == KindList }

// AsMap returns the fields held by v. The map must not be modified.
func (v Value) AsMap() (map[string]Value, bool) { return v.m, v.kind == KindMap }

// Get navigates nested maps by key. List elements are addressed by index.
func (v Value) Get(path ...string) (Value, bool) {
	cur := v
	for _, p := range path {
		switch cur.kind {
		case KindMap:
			next, ok := cur.m[p]
			if !ok {
				return Value{}, false
			}
			cur = next
		case KindList:
			idx, err := strconv.Atoi(p)
			if err != nil || idx < 0 || idx >= len(cur.list) {
				return Value{}, false
			}
			cur = cur.list[idx]
		default:
			return Value{}, false
		}
	}
	return cur, true
}

// Text renders scalars for textual comparison. Lists and maps render as JSON.
func (v Value) Text() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNull:
		return ""
	}
	data, _ := json.Marshal(v)
	return string(data)
}

func (v Value) String() string { return v.Text() }

// Equal reports deep equality. Strings compare case-insensitively.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		// numbers encoded as strings in seed files still compare equal
		if vf, ok := v.numeric(); ok {
			if of, ok := o.numeric(); ok {
				return vf == of
			}
		}
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindString:
		return strings.EqualFold(v.str, o.str)
	case KindNumber:
		return v.num == o.num
	case KindBool:
		return v.b == o.b
	case KindList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(o.list[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(v.m) != len(o.m) {
			return false
		}
		for k, item := range v.m {
			other, ok := o.m[k]
			if !ok || !item.Equal(other) {
				return false
			}
		}
		return true
	}
	return false
}

// Compare orders two scalars. Numbers compare numerically, strings
// case-insensitively. ok is false when the values are not comparable.
func (v Value) Compare(o Value) (cmp int, ok bool) {
	if vf, vok := v.numeric(); vok {
		if of, ook := o.numeric(); ook {
			switch {
			case vf < of:
				return -1, true
			case vf > of:
				return 1, true
			}
			return 0, true
		}
	}
	if v.kind == KindString && o.kind == KindString {
		return strings.Compare(strings.ToLower(v.str), strings.ToLower(o.str)), true
	}
	return 0, false
}

// Contains reports whether v contains needle: substring for strings,
// membership for lists, key presence for maps.
func (v Value) Contains(needle Value) bool {
	switch v.kind {
	case KindString:
		return strings.Contains(strings.ToLower(v.str), strings.ToLower(needle.Text()))
	case KindList:
		for _, item := range v.list {
			if item.Equal(needle) {
				return true
			}
		}
	case KindMap:
		_, ok := v.m[needle.Text()]
		return ok
	}
	return false
}

func (v Value) numeric() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.num, true
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.str), 64)
		return f, err == nil
	}
	return 0, false
}

// Interface converts v back to plain Go data.
func (v Value) Interface() interface{} {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num
	case KindBool:
		return v.b
	case KindList:
		out := make([]interface{}, len(v.list))
		for i, item := range v.list {
			out[i] = item.Interface()
		}
		return out
	case KindMap:
		out := make(map[string]interface{}, len(v.m))
		keys := make([]string, 0, len(v.m))
		for k := range v.m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			out[k] = v.m[k].Interface()
		}
		return out
	}
	return nil
}

// MarshalJSON encodes v as plain JSON.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// UnmarshalJSON decodes any JSON document into v.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = FromAny(raw)
	return nil
}

// MarshalYAML encodes v as plain YAML.
func (v Value) MarshalYAML() (interface{}, error) {
	return v.Interface(), nil
}

// UnmarshalYAML decodes any YAML node into v.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	var raw interface{}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*v = FromAny(raw)
	return nil
}
