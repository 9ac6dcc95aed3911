package pdp

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// Object is one node of the page cache, decoded from JSON.
type Object map[string]interface{}

// Snapshot is an immutable view over the flat ID -> object table embedded in a
// product page. All extractors read the graph through Resolve.
type Snapshot struct {
	nodes map[string]Object
}

// NewSnapshot wraps an already decoded cache table.
func NewSnapshot(nodes map[string]Object) *Snapshot {
	if nodes == nil {
		nodes = map[string]Object{}
	}
	return &Snapshot{nodes: nodes}
}

// ParseSnapshot decodes a JSON cache table.
func ParseSnapshot(data []byte) (*Snapshot, error) {
	var nodes map[string]Object
	if err := json.Unmarshal(data, &nodes); err != nil {
		return nil, err
	}
	return NewSnapshot(nodes), nil
}

// Len returns the number of nodes in the table.
func (s *Snapshot) Len() int {
	return len(s.nodes)
}

// Resolve looks up a node by ID. Unknown or empty IDs resolve to an empty
// object, never nil.
func (s *Snapshot) Resolve(id string) Object {
	if s == nil || id == "" {
		return Object{}
	}
	obj, ok := s.nodes[id]
	if !ok || obj == nil {
		return Object{}
	}
	return obj
}

// ResolveRef resolves the reference stored under key in obj.
func (s *Snapshot) ResolveRef(obj Object, key string) Object {
	return s.Resolve(obj.Ref(key))
}

// Empty reports whether the object carries no fields.
func (o Object) Empty() bool {
	return len(o) == 0
}

// Has reports whether key is present, even with a null value.
func (o Object) Has(key string) bool {
	_, ok := o[key]
	return ok
}

// Map returns the nested object under key, or an empty object.
func (o Object) Map(key string) Object {
	if m, ok := asObject(o[key]); ok {
		return m
	}
	return Object{}
}

// Ref returns the "id" of the reference object stored under key.
func (o Object) Ref(key string) string {
	return o.Map(key).Str("id")
}

// Refs returns the IDs of a list of {id: ref} pointers. Entries that are not
// objects yield an empty ID so positions are preserved.
func (o Object) Refs(key string) []string {
	list, ok := o[key].([]interface{})
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(list))
	for _, item := range list {
		ref := ""
		if m, ok := asObject(item); ok {
			ref = m.Str("id")
		}
		ids = append(ids, ref)
	}
	return ids
}

// List returns the raw list stored under key.
func (o Object) List(key string) []interface{} {
	list, _ := o[key].([]interface{})
	return list
}

// Str returns the string under key or "".
func (o Object) Str(key string) string {
	s, _ := o[key].(string)
	return s
}

// StrPtr returns the string under key, or nil when absent or not a string.
func (o Object) StrPtr(key string) *string {
	s, ok := o[key].(string)
	if !ok {
		return nil
	}
	return &s
}

// Bool returns the boolean under key.
func (o Object) Bool(key string) bool {
	b, _ := o[key].(bool)
	return b
}

// Int returns the integer value under key. Numeric strings are accepted.
func (o Object) Int(key string) int64 {
	return toInt64(o[key])
}

// Float returns the float value under key. Numeric strings are accepted.
func (o Object) Float(key string) float64 {
	return toFloat64(o[key])
}

// findKey returns the lexically smallest key satisfying match so repeated
// lookups over the same object agree.
func (o Object) findKey(match func(string) bool) (string, bool) {
	keys := make([]string, 0, len(o))
	for k := range o {
		if match(k) {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return "", false
	}
	sort.Strings(keys)
	return keys[0], true
}

// KeyWithPrefix returns a key starting with prefix.
func (o Object) KeyWithPrefix(prefix string) (string, bool) {
	return o.findKey(func(k string) bool { return strings.HasPrefix(k, prefix) })
}

// KeyContaining returns a key containing substr.
func (o Object) KeyContaining(substr string) (string, bool) {
	return o.findKey(func(k string) bool { return strings.Contains(k, substr) })
}

func asObject(v interface{}) (Object, bool) {
	switch m := v.(type) {
	case map[string]interface{}:
		return Object(m), true
	case Object:
		return m, true
	}
	return nil, false
}

func toFloat64(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case json.Number:
		f, _ := n.Float64()
		return f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		return f
	}
	return 0
}

func toInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i
		}
	case string:
		if i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64); err == nil {
			return i
		}
	}
	return int64(toFloat64(v))
}
