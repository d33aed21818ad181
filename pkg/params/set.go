// Package params merges configuration layers into the single validated
// parameter set used to render and submit one job.
package params

import "reflect"

// Source tags where a parameter value came from. Used for diagnostics only;
// it never affects rendering.
type Source string

const (
	SourceConversation Source = "conversation"
	SourceUser         Source = "user-profile"
	SourceSystem       Source = "system-profile"
	SourceSite         Source = "site-profile"
	SourceScheduler    Source = "scheduler-profile"
	SourceRecipe       Source = "recipe"
)

type entry struct {
	value  any
	source Source
}

// Set is an ordered mapping of parameter name to value with per-key
// provenance. Insertion order is preserved; overwriting a key keeps its
// original position.
type Set struct {
	keys    []string
	entries map[string]entry
}

// NewSet returns an empty parameter set.
func NewSet() *Set {
	return &Set{entries: make(map[string]entry)}
}

// Put sets a key unconditionally, recording its source.
func (s *Set) Put(key string, value any, source Source) {
	if _, ok := s.entries[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.entries[key] = entry{value: value, source: source}
}

// Fill sets a key only if it is absent. This is the merge primitive for the
// lower configuration layers.
func (s *Set) Fill(key string, value any, source Source) {
	if _, ok := s.entries[key]; ok {
		return
	}
	s.Put(key, value, source)
}

// Get returns the value for key and whether it is present.
func (s *Set) Get(key string) (any, bool) {
	e, ok := s.entries[key]
	return e.value, ok
}

// SourceOf returns the provenance of a present key.
func (s *Set) SourceOf(key string) (Source, bool) {
	e, ok := s.entries[key]
	return e.source, ok
}

// Has reports whether the key is present, regardless of value.
func (s *Set) Has(key string) bool {
	_, ok := s.entries[key]
	return ok
}

// Keys returns the keys in insertion order.
func (s *Set) Keys() []string {
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

// Len returns the number of parameters.
func (s *Set) Len() int { return len(s.keys) }

// Map returns a plain map of the values, suitable as a render context.
func (s *Set) Map() map[string]any {
	out := make(map[string]any, len(s.keys))
	for k, e := range s.entries {
		out[k] = e.value
	}
	return out
}

// EmptyValue reports whether a value counts as missing for validation:
// nil, empty string, false, numeric zero, or an empty slice/map.
func EmptyValue(v any) bool {
	if v == nil {
		return true
	}
	switch x := v.(type) {
	case string:
		return x == ""
	case bool:
		return !x
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() == 0
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	}
	return false
}
