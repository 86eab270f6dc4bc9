package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Field-level evaluation errors. A record with a bad field is still a valid
// record; callers skip the metric that needed the field.
var (
	ErrAbsent      = errors.New("attribute not present")
	ErrUnevaluated = errors.New("attribute is an unevaluated expression")
	ErrType        = errors.New("attribute has the wrong type")
)

// Kind is the type tag of a Value.
type Kind int

const (
	KindInt Kind = iota + 1
	KindFloat
	KindString
	KindBool
	KindExpr
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindExpr:
		return "expr"
	default:
		return "invalid"
	}
}

// Value is one typed attribute value.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
	b    bool
}

func Int(v int64) Value      { return Value{kind: KindInt, i: v} }
func Float(v float64) Value  { return Value{kind: KindFloat, f: v} }
func String(v string) Value  { return Value{kind: KindString, s: v} }
func Bool(v bool) Value      { return Value{kind: KindBool, b: v} }
func Expr(src string) Value  { return Value{kind: KindExpr, s: src} }
func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsZero() bool { return v.kind == 0 }

func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return v.s
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindExpr:
		return v.s
	default:
		return ""
	}
}

// Record is a flat attribute mapping describing one job or slot. Attribute
// names are case-insensitive.
type Record struct {
	attrs map[string]Value
	names map[string]string
}

// NewRecord builds a record from loosely typed values as produced by a JSON
// decoder (json.Number, float64, string, bool) or by Go code (int, int64, Value).
// Strings of the form "/Expr(...)/" are kept as unevaluated expressions.
// Unsupported values are dropped.
func NewRecord(attrs map[string]any) Record {
	r := Record{attrs: make(map[string]Value, len(attrs)), names: make(map[string]string, len(attrs))}
	for k, raw := range attrs {
		if v, ok := toValue(raw); ok {
			r.Set(k, v)
		}
	}
	return r
}

func toValue(raw any) (Value, bool) {
	switch x := raw.(type) {
	case Value:
		return x, !x.IsZero()
	case int:
		return Int(int64(x)), true
	case int32:
		return Int(int64(x)), true
	case int64:
		return Int(x), true
	case uint32:
		return Int(int64(x)), true
	case uint64:
		if x > math.MaxInt64 {
			return Float(float64(x)), true
		}
		return Int(int64(x)), true
	case float32:
		return Float(float64(x)), true
	case float64:
		return Float(x), true
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return Int(i), true
		}
		if f, err := x.Float64(); err == nil {
			return Float(f), true
		}
		return String(x.String()), true
	case bool:
		return Bool(x), true
	case string:
		if strings.HasPrefix(x, "/Expr(") && strings.HasSuffix(x, ")/") {
			return Expr(strings.TrimSuffix(strings.TrimPrefix(x, "/Expr("), ")/")), true
		}
		return String(x), true
	default:
		return Value{}, false
	}
}

func (r *Record) Set(key string, v Value) {
	if r.attrs == nil {
		r.attrs = make(map[string]Value)
		r.names = make(map[string]string)
	}
	lk := strings.ToLower(key)
	r.attrs[lk] = v
	r.names[lk] = key
}

func (r Record) Len() int { return len(r.attrs) }

func (r Record) Has(key string) bool {
	_, ok := r.attrs[strings.ToLower(key)]
	return ok
}

// Get returns the raw value for key.
func (r Record) Get(key string) (Value, bool) {
	v, ok := r.attrs[strings.ToLower(key)]
	return v, ok
}

// Keys returns the attribute names in the spelling they were set with, sorted.
func (r Record) Keys() []string {
	keys := make([]string, 0, len(r.names))
	for _, name := range r.names {
		keys = append(keys, name)
	}
	sort.Strings(keys)
	return keys
}

func (r Record) lookup(key string) (Value, error) {
	v, ok := r.attrs[strings.ToLower(key)]
	if !ok {
		return Value{}, fmt.Errorf("%s: %w", key, ErrAbsent)
	}
	if v.kind == KindExpr {
		return Value{}, fmt.Errorf("%s: %w", key, ErrUnevaluated)
	}
	return v, nil
}

// Float evaluates key as a number. Ints are widened; bools, strings and
// expressions fail.
func (r Record) Float(key string) (float64, error) {
	v, err := r.lookup(key)
	if err != nil {
		return 0, err
	}
	switch v.kind {
	case KindInt:
		return float64(v.i), nil
	case KindFloat:
		return v.f, nil
	}
	return 0, fmt.Errorf("%s is %s: %w", key, v.kind, ErrType)
}

// Int evaluates key as an integer. Floats are truncated toward zero.
func (r Record) Int(key string) (int64, error) {
	v, err := r.lookup(key)
	if err != nil {
		return 0, err
	}
	switch v.kind {
	case KindInt:
		return v.i, nil
	case KindFloat:
		return int64(v.f), nil
	}
	return 0, fmt.Errorf("%s is %s: %w", key, v.kind, ErrType)
}

func (r Record) String(key string) (string, error) {
	v, err := r.lookup(key)
	if err != nil {
		return "", err
	}
	if v.kind != KindString {
		return "", fmt.Errorf("%s is %s: %w", key, v.kind, ErrType)
	}
	return v.s, nil
}

func (r Record) Bool(key string) (bool, error) {
	v, err := r.lookup(key)
	if err != nil {
		return false, err
	}
	if v.kind != KindBool {
		return false, fmt.Errorf("%s is %s: %w", key, v.kind, ErrType)
	}
	return v.b, nil
}

// FloatOr returns def when key is absent or cannot be evaluated as a number.
func (r Record) FloatOr(key string, def float64) float64 {
	f, err := r.Float(key)
	if err != nil {
		return def
	}
	return f
}

func (r Record) IntOr(key string, def int64) int64 {
	i, err := r.Int(key)
	if err != nil {
		return def
	}
	return i
}

func (r Record) StringOr(key string, def string) string {
	s, err := r.String(key)
	if err != nil {
		return def
	}
	return s
}

func (r Record) BoolOr(key string, def bool) bool {
	b, err := r.Bool(key)
	if err != nil {
		return def
	}
	return b
}

// Records is a slice of Record.
type Records []Record
