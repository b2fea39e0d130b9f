package reactive

import "sort"

// Object is an observable record with ordered keys.
//
// Get and Set are the read and write accessors: Get reports a dependency to
// the active recorder, Set notifies once per actual value change.
type Object struct {
	keys []string
	vals map[string]any
	path string
	obs  *Observer
}

// NewObject creates an empty Object.
func NewObject() *Object {
	return &Object{vals: make(map[string]any)}
}

// ObjectFrom converts m (recursively) into an Object. Keys are sorted so the
// result is deterministic.
func ObjectFrom(m map[string]any) *Object {
	o := NewObject()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		o.keys = append(o.keys, k)
		o.vals[k] = Wrap(m[k])
	}
	return o
}

// Path returns the access path of the object ("" for the root).
func (o *Object) Path() string {
	return o.path
}

// Observed reports whether the object is attached to an Observer.
func (o *Object) Observed() bool {
	return o.obs != nil
}

// Get returns the value of key and records the read.
func (o *Object) Get(key string) any {
	if o.obs != nil {
		o.obs.record(Join(o.path, key))
	}
	return o.vals[key]
}

// Peek returns the value of key without recording a dependency.
func (o *Object) Peek(key string) any {
	return o.vals[key]
}

// Has reports whether key exists.
func (o *Object) Has(key string) bool {
	_, ok := o.vals[key]
	return ok
}

// Keys returns the keys in insertion order.
func (o *Object) Keys() []string {
	out := make([]string, len(o.keys))
	copy(out, o.keys)
	return out
}

// Len returns the number of keys.
func (o *Object) Len() int {
	return len(o.keys)
}

// Set assigns value to key. Plain maps and slices are converted to Objects
// and Arrays and observed at the key's path. A notification is emitted only
// when the new value differs from the current one.
func (o *Object) Set(key string, value any) {
	path := Join(o.path, key)
	if o.obs != nil && o.obs.Ignored(path) {
		if _, ok := o.vals[key]; !ok {
			o.keys = append(o.keys, key)
		}
		o.vals[key] = value
		return
	}

	value = Wrap(value)
	old, existed := o.vals[key]
	if existed && sameValue(old, value) {
		return
	}
	if !existed {
		o.keys = append(o.keys, key)
	}
	o.vals[key] = value

	if o.obs != nil {
		o.obs.observeValue(value, path)
		o.obs.emit(Change{Path: path, Op: OpSet, New: value, Old: old})
	}
}

// Delete removes key. Observers see an assignment of nil.
func (o *Object) Delete(key string) {
	old, ok := o.vals[key]
	if !ok {
		return
	}
	delete(o.vals, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
	if o.obs != nil && !o.obs.Ignored(Join(o.path, key)) {
		o.obs.emit(Change{Path: Join(o.path, key), Op: OpSet, Old: old})
	}
}

// ToPlain returns a deep copy as map[string]any without recording reads.
func (o *Object) ToPlain() map[string]any {
	m := make(map[string]any, len(o.keys))
	for _, k := range o.keys {
		m[k] = Plain(o.vals[k])
	}
	return m
}
