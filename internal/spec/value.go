package spec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Value is a sealed interface over the allowed spec value variants.
// Only Null, String, Int, Float, Bool, List, and Dict implement it.
type Value interface {
	specValue() // Sealed - only these types implement it
}

// Null represents a JSON null.
// An explicit type keeps every slot of a List or Dict a valid Value.
type Null struct{}

func (Null) specValue() {}

// MarshalJSON implements json.Marshaler for Null.
func (Null) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// String represents a string value.
type String string

func (String) specValue() {}

// Int represents an integer value. Always int64 - integers that fit in
// int64 are never silently widened to float64 (values > 2^53 would lose
// precision).
type Int int64

func (Int) specValue() {}

// Float represents a floating-point value.
type Float float64

func (Float) specValue() {}

// Bool represents a boolean value.
type Bool bool

func (Bool) specValue() {}

// List represents an ordered sequence of values.
type List []Value

func (List) specValue() {}

// Dict represents a string-keyed mapping of values.
// Use SortedKeys for deterministic iteration.
type Dict map[string]Value

func (Dict) specValue() {}

// SortedKeys returns the dict's keys in lexicographic byte order.
func (d Dict) SortedKeys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a deep copy of the dict.
// Mutating the copy never affects the original.
func (d Dict) Clone() Dict {
	out := make(Dict, len(d))
	for k, v := range d {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v Value) Value {
	switch val := v.(type) {
	case List:
		out := make(List, len(val))
		for i, elem := range val {
			out[i] = cloneValue(elem)
		}
		return out
	case Dict:
		return val.Clone()
	default:
		// Scalars are immutable
		return v
	}
}

// Merge overwrites keys in d with the entries of other.
// Top-level replacement, not a recursive merge - matches how spec
// updates from task actions are applied.
func (d Dict) Merge(other Dict) {
	for k, v := range other {
		d[k] = v
	}
}

// Push appends value to the list stored under key, creating the list if
// the key is absent. Returns an error if the key holds a non-list.
func (d Dict) Push(key string, v Value) error {
	existing, ok := d[key]
	if !ok {
		d[key] = List{v}
		return nil
	}
	list, ok := existing.(List)
	if !ok {
		return fmt.Errorf("spec key %q holds %T, not a list", key, existing)
	}
	d[key] = append(list, v)
	return nil
}

// GetString returns the string stored under key, or "" if absent or not
// a string.
func (d Dict) GetString(key string) string {
	if s, ok := d[key].(String); ok {
		return string(s)
	}
	return ""
}

// GetInt returns the integer stored under key and whether it was present.
func (d Dict) GetInt(key string) (int64, bool) {
	if n, ok := d[key].(Int); ok {
		return int64(n), true
	}
	return 0, false
}

// GetList returns the list stored under key, or nil if absent or not a
// list.
func (d Dict) GetList(key string) List {
	if l, ok := d[key].(List); ok {
		return l
	}
	return nil
}

// Equal reports deep equality of two values.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case Null:
		_, ok := b.(Null)
		return ok
	case String:
		bv, ok := b.(String)
		return ok && av == bv
	case Int:
		bv, ok := b.(Int)
		return ok && av == bv
	case Float:
		bv, ok := b.(Float)
		return ok && av == bv
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case List:
		bv, ok := b.(List)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case Dict:
		bv, ok := b.(Dict)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			bval, ok := bv[k]
			if !ok || !Equal(v, bval) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// UnmarshalJSON implements json.Unmarshaler for Dict.
func (d *Dict) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*d = make(Dict, len(raw))
	for k, v := range raw {
		val, err := unmarshalValue(v)
		if err != nil {
			return fmt.Errorf("dict key %q: %w", k, err)
		}
		(*d)[k] = val
	}
	return nil
}

// UnmarshalJSON implements json.Unmarshaler for List.
func (l *List) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*l = make(List, len(raw))
	for i, v := range raw {
		val, err := unmarshalValue(v)
		if err != nil {
			return fmt.Errorf("list index %d: %w", i, err)
		}
		(*l)[i] = val
	}
	return nil
}

// unmarshalValue decodes a JSON value into the appropriate variant.
// Numbers without a fraction or exponent that fit in int64 decode as
// Int; everything else numeric decodes as Float.
func unmarshalValue(data []byte) (Value, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty JSON value")
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, err
		}
		return String(s), nil

	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, err
		}
		return Bool(b), nil

	case 'n':
		return Null{}, nil

	case '[':
		var l List
		if err := json.Unmarshal(data, &l); err != nil {
			return nil, err
		}
		return l, nil

	case '{':
		var d Dict
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, err
		}
		return d, nil

	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, err
		}
		s := string(n)
		if !strings.ContainsAny(s, ".eE") {
			if i, err := n.Int64(); err == nil {
				return Int(i), nil
			}
		}
		f, err := n.Float64()
		if err != nil {
			return nil, fmt.Errorf("number out of range: %s", s)
		}
		return Float(f), nil
	}
}

// FromJSON decodes an arbitrary JSON document into a Value.
func FromJSON(data []byte) (Value, error) {
	return unmarshalValue(bytes.TrimSpace(data))
}

// FromAny converts a decoded Go value (as produced by encoding/json or
// yaml.v3) into a Value. Recognized inputs: nil, bool, string, all Go
// integer widths, float64/float32, json.Number, []any, map[string]any.
func FromAny(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case bool:
		return Bool(val), nil
	case string:
		return String(val), nil
	case int:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case uint64:
		if val > 1<<63-1 {
			return nil, fmt.Errorf("integer out of int64 range: %d", val)
		}
		return Int(val), nil
	case float32:
		return Float(val), nil
	case float64:
		return Float(val), nil
	case json.Number:
		s := string(val)
		if !strings.ContainsAny(s, ".eE") {
			if i, err := val.Int64(); err == nil {
				return Int(i), nil
			}
		}
		f, err := val.Float64()
		if err != nil {
			return nil, fmt.Errorf("number out of range: %s", s)
		}
		return Float(f), nil
	case []any:
		l := make(List, len(val))
		for i, elem := range val {
			sv, err := FromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("list[%d]: %w", i, err)
			}
			l[i] = sv
		}
		return l, nil
	case map[string]any:
		d := make(Dict, len(val))
		for k, elem := range val {
			sv, err := FromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("dict[%q]: %w", k, err)
			}
			d[k] = sv
		}
		return d, nil
	case map[any]any:
		// yaml.v2-style maps; keys must be strings
		d := make(Dict, len(val))
		for k, elem := range val {
			ks, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("non-string dict key: %v", k)
			}
			sv, err := FromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("dict[%q]: %w", ks, err)
			}
			d[ks] = sv
		}
		return d, nil
	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}

// DictFromAny converts a decoded map into a Dict.
func DictFromAny(m map[string]any) (Dict, error) {
	v, err := FromAny(m)
	if err != nil {
		return nil, err
	}
	return v.(Dict), nil
}

// ToAny converts a Value back to plain Go types, the inverse of FromAny.
// Useful for rendering summaries through encoding/json without the
// canonical encoder.
func ToAny(v Value) any {
	switch val := v.(type) {
	case Null:
		return nil
	case String:
		return string(val)
	case Int:
		return int64(val)
	case Float:
		return float64(val)
	case Bool:
		return bool(val)
	case List:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = ToAny(elem)
		}
		return out
	case Dict:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = ToAny(elem)
		}
		return out
	default:
		return nil
	}
}

// MarshalJSON implements json.Marshaler for Dict with sorted keys.
// NOTE: not canonical - use MarshalCanonical for stored blobs.
func (d Dict) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	for i, k := range d.SortedKeys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyBytes, err := json.Marshal(k)
		if err != nil {
			return nil, fmt.Errorf("marshal key %q: %w", k, err)
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')

		valBytes, err := MarshalValue(d[k])
		if err != nil {
			return nil, fmt.Errorf("marshal value for key %q: %w", k, err)
		}
		buf.Write(valBytes)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalValue marshals a Value to JSON bytes with sorted dict keys.
func MarshalValue(v Value) ([]byte, error) {
	switch val := v.(type) {
	case nil:
		return []byte("null"), nil
	case Null:
		return []byte("null"), nil
	case String:
		return json.Marshal(string(val))
	case Int:
		return []byte(strconv.FormatInt(int64(val), 10)), nil
	case Float:
		return json.Marshal(float64(val))
	case Bool:
		return json.Marshal(bool(val))
	case List:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			b, err := MarshalValue(elem)
			if err != nil {
				return nil, fmt.Errorf("list[%d]: %w", i, err)
			}
			buf.Write(b)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	case Dict:
		return val.MarshalJSON()
	default:
		return nil, fmt.Errorf("unknown spec value type: %T", v)
	}
}
