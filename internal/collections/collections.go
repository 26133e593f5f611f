// Package collections provides named, typed key-value collections: the
// configuration surface backends use for settings like storage
// credentials. Values are a tagged union over string, integer, and
// float; typed accessors fail on a mismatch instead of coercing.
package collections

import (
	"fmt"
	"sort"
)

type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	}
	return "unknown"
}

// Value is one typed setting.
type Value struct {
	kind Kind
	s    string
	i    int64
	f    float64
}

func StringValue(s string) Value { return Value{kind: KindString, s: s} }
func IntValue(i int64) Value     { return Value{kind: KindInt, i: i} }
func FloatValue(f float64) Value { return Value{kind: KindFloat, f: f} }

// FromAny converts a YAML-decoded scalar into a Value.
func FromAny(v any) (Value, error) {
	switch x := v.(type) {
	case string:
		return StringValue(x), nil
	case int:
		return IntValue(int64(x)), nil
	case int64:
		return IntValue(x), nil
	case uint64:
		if x > 1<<63-1 {
			return Value{}, fmt.Errorf("integer value %d overflows int64", x)
		}
		return IntValue(int64(x)), nil
	case float64:
		return FloatValue(x), nil
	case bool:
		if x {
			return IntValue(1), nil
		}
		return IntValue(0), nil
	default:
		return Value{}, fmt.Errorf("unsupported value type %T", v)
	}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) AsString() (string, error) {
	if v.kind != KindString {
		return "", &TypeMismatchError{Want: KindString, Got: v.kind}
	}
	return v.s, nil
}

func (v Value) AsInt64() (int64, error) {
	if v.kind != KindInt {
		return 0, &TypeMismatchError{Want: KindInt, Got: v.kind}
	}
	return v.i, nil
}

func (v Value) AsUInt64() (uint64, error) {
	if v.kind != KindInt {
		return 0, &TypeMismatchError{Want: KindInt, Got: v.kind}
	}
	if v.i < 0 {
		return 0, fmt.Errorf("value %d is negative", v.i)
	}
	return uint64(v.i), nil
}

func (v Value) AsFloat64() (float64, error) {
	if v.kind != KindFloat {
		return 0, &TypeMismatchError{Want: KindFloat, Got: v.kind}
	}
	return v.f, nil
}

// String renders the value for dumps and logs, never failing.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt:
		return fmt.Sprint(v.i)
	default:
		return fmt.Sprint(v.f)
	}
}

type TypeMismatchError struct {
	Want, Got Kind
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch: want %s, got %s", e.Want, e.Got)
}

// Collection is one named set of typed settings.
type Collection struct {
	name   string
	values map[string]Value
}

func New(name string) *Collection {
	return &Collection{name: name, values: make(map[string]Value)}
}

// FromMap builds a collection from YAML-decoded scalars.
func FromMap(name string, m map[string]any) (*Collection, error) {
	c := New(name)
	for key, raw := range m {
		v, err := FromAny(raw)
		if err != nil {
			return nil, fmt.Errorf("collection %s key %s: %w", name, key, err)
		}
		c.values[key] = v
	}
	return c, nil
}

func (c *Collection) Name() string { return c.name }

func (c *Collection) Set(key string, v Value) { c.values[key] = v }

func (c *Collection) Has(key string) bool {
	_, ok := c.values[key]
	return ok
}

func (c *Collection) Get(key string) (Value, bool) {
	v, ok := c.values[key]
	return v, ok
}

// GetString and friends resolve a key with a typed accessor; a missing
// key and a type mismatch are both errors here since settings lookups
// have no meaningful fallback.
func (c *Collection) GetString(key string) (string, error) {
	v, ok := c.values[key]
	if !ok {
		return "", fmt.Errorf("collection %s has no key %s", c.name, key)
	}
	s, err := v.AsString()
	if err != nil {
		return "", fmt.Errorf("collection %s key %s: %w", c.name, key, err)
	}
	return s, nil
}

func (c *Collection) GetInt64(key string) (int64, error) {
	v, ok := c.values[key]
	if !ok {
		return 0, fmt.Errorf("collection %s has no key %s", c.name, key)
	}
	i, err := v.AsInt64()
	if err != nil {
		return 0, fmt.Errorf("collection %s key %s: %w", c.name, key, err)
	}
	return i, nil
}

func (c *Collection) GetUInt64(key string) (uint64, error) {
	v, ok := c.values[key]
	if !ok {
		return 0, fmt.Errorf("collection %s has no key %s", c.name, key)
	}
	u, err := v.AsUInt64()
	if err != nil {
		return 0, fmt.Errorf("collection %s key %s: %w", c.name, key, err)
	}
	return u, nil
}

func (c *Collection) GetFloat64(key string) (float64, error) {
	v, ok := c.values[key]
	if !ok {
		return 0, fmt.Errorf("collection %s has no key %s", c.name, key)
	}
	f, err := v.AsFloat64()
	if err != nil {
		return 0, fmt.Errorf("collection %s key %s: %w", c.name, key, err)
	}
	return f, nil
}

// OptString returns def when the key is absent; a present key of the
// wrong type is still an error.
func (c *Collection) OptString(key, def string) (string, error) {
	v, ok := c.values[key]
	if !ok {
		return def, nil
	}
	s, err := v.AsString()
	if err != nil {
		return "", fmt.Errorf("collection %s key %s: %w", c.name, key, err)
	}
	return s, nil
}

func (c *Collection) OptInt64(key string, def int64) (int64, error) {
	v, ok := c.values[key]
	if !ok {
		return def, nil
	}
	i, err := v.AsInt64()
	if err != nil {
		return 0, fmt.Errorf("collection %s key %s: %w", c.name, key, err)
	}
	return i, nil
}

func (c *Collection) Keys() []string {
	keys := make([]string, 0, len(c.values))
	for k := range c.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// DumpStructure renders the collection as one "key:\tvalue" line per
// key in sorted order, for diagnostics and tests.
func (c *Collection) DumpStructure() string {
	var out string
	for _, k := range c.Keys() {
		out += fmt.Sprintf("%s:\t%s\n", k, c.values[k])
	}
	return out
}

// Store resolves collections by name.
type Store struct {
	collections map[string]*Collection
}

// NewStore builds a store from the named_collections section of the
// configuration: name -> key -> scalar.
func NewStore(raw map[string]map[string]any) (*Store, error) {
	s := &Store{collections: make(map[string]*Collection, len(raw))}
	for name, m := range raw {
		c, err := FromMap(name, m)
		if err != nil {
			return nil, err
		}
		s.collections[name] = c
	}
	return s, nil
}

func (s *Store) Exists(name string) bool {
	_, ok := s.collections[name]
	return ok
}

func (s *Store) Get(name string) (*Collection, error) {
	c, ok := s.collections[name]
	if !ok {
		return nil, fmt.Errorf("named collection not found: %s", name)
	}
	return c, nil
}

func (s *Store) TryGet(name string) *Collection {
	return s.collections[name]
}

func (s *Store) Names() []string {
	names := make([]string, 0, len(s.collections))
	for name := range s.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
