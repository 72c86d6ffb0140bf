// Package jsonscalar implements the engine's custom Json scalar (spec
// §6.4): a closed sum type over Null, Bool, Int, Float, String, List and
// Object, used wherever a Property's scalar_kind is Object.
package jsonscalar

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// Kind discriminates the Value union.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindList
	KindObject
)

// Value is a tagged union; exactly the field matching Kind is meaningful.
type Value struct {
	kind Kind
	b    bool
	i    int32
	f    float64
	s    string
	list []Value
	obj  map[string]Value
}

func Null() Value              { return Value{kind: KindNull} }
func Bool(b bool) Value        { return Value{kind: KindBool, b: b} }
func Int(i int32) Value        { return Value{kind: KindInt, i: i} }
func Float(f float64) Value    { return Value{kind: KindFloat, f: f} }
func String(s string) Value    { return Value{kind: KindString, s: s} }
func List(vs []Value) Value    { return Value{kind: KindList, list: vs} }
func Object(m map[string]Value) Value { return Value{kind: KindObject, obj: m} }

func (v Value) Kind() Kind { return v.kind }

const (
	int32Min = math.MinInt32
	int32Max = math.MaxInt32
)

// FromGo converts an arbitrary decoded-JSON Go value (as produced by
// encoding/json's default decoding into `any`) into a Value, applying the
// numeric clamping rule: integers outside the i32 range
// clamp to i32 min/max, non-integer numbers become Float.
func FromGo(v any) Value {
	switch x := v.(type) {
	case nil:
		return Null()
	case bool:
		return Bool(x)
	case string:
		return String(x)
	case float64:
		return numberFromFloat64(x)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return Null()
		}
		return numberFromFloat64(f)
	case int:
		return intFromInt64(int64(x))
	case int32:
		return Int(x)
	case int64:
		return intFromInt64(x)
	case []any:
		out := make([]Value, len(x))
		for i, e := range x {
			out[i] = FromGo(e)
		}
		return List(out)
	case map[string]any:
		out := make(map[string]Value, len(x))
		for k, e := range x {
			out[k] = FromGo(e)
		}
		return Object(out)
	default:
		return String(fmt.Sprintf("%v", x))
	}
}

func numberFromFloat64(f float64) Value {
	if f == math.Trunc(f) && !math.IsInf(f, 0) {
		return intFromInt64(int64(f))
	}
	return Float(f)
}

func intFromInt64(i int64) Value {
	if i > int32Max {
		return Int(int32Max)
	}
	if i < int32Min {
		return Int(int32Min)
	}
	return Int(int32(i))
}

// ToGo converts a Value back into a plain Go value suitable for
// encoding/json marshaling or graphql-go's scalar Serialize hook.
func ToGo(v Value) any {
	switch v.kind {
	case KindNull:
		return nil
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindList:
		out := make([]any, len(v.list))
		for i, e := range v.list {
			out[i] = ToGo(e)
		}
		return out
	case KindObject:
		out := make(map[string]any, len(v.obj))
		for k, e := range v.obj {
			out[k] = ToGo(e)
		}
		return out
	default:
		return nil
	}
}

// MarshalJSON implements json.Marshaler by delegating to the plain Go
// representation.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(ToGo(v))
}

// UnmarshalJSON implements json.Unmarshaler via FromGo.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	*v = FromGo(raw)
	return nil
}
