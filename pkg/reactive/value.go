package reactive

import (
	"reflect"
)

// Wrap converts plain containers into observable ones. map[string]T becomes an
// Object, slices and arrays (except []byte) become an Array. Objects, Arrays
// and every other value are returned unchanged.
func Wrap(v any) any {
	switch x := v.(type) {
	case nil, *Object, *Array, string, bool, []byte:
		return v
	case map[string]any:
		return ObjectFrom(x)
	case []any:
		return ArrayFrom(x)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return v
		}
		m := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[iter.Key().String()] = iter.Value().Interface()
		}
		return ObjectFrom(m)
	case reflect.Slice, reflect.Array:
		s := make([]any, rv.Len())
		for i := range s {
			s[i] = rv.Index(i).Interface()
		}
		return ArrayFrom(s)
	}
	return v
}

// Plain returns a deep plain copy of v (maps and slices) without recording
// reads.
func Plain(v any) any {
	switch x := v.(type) {
	case *Object:
		return x.ToPlain()
	case *Array:
		return x.ToPlain()
	}
	return v
}

// Materialize returns a deep plain copy of v, reading through the tracked
// accessors so every nested property becomes a dependency of the caller.
func Materialize(v any) any {
	switch x := v.(type) {
	case *Object:
		m := make(map[string]any, len(x.keys))
		for _, k := range x.Keys() {
			m[k] = Materialize(x.Get(k))
		}
		return m
	case *Array:
		n := x.Len()
		s := make([]any, n)
		for i := 0; i < n; i++ {
			s[i] = Materialize(x.Get(i))
		}
		return s
	}
	return v
}

// SameValue reports whether a and b are the same value: identical containers
// or equal comparable scalars. Non-comparable values never compare equal.
func SameValue(a, b any) bool {
	return sameValue(a, b)
}

func sameValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}
