package reactive

import (
	"errors"
	"strings"
)

// ErrNotObservable is returned when Observe is given something that is not an
// Object or an Array.
var ErrNotObservable = errors.New("reactive: value is not an object or array")

// Op names the kind of mutation a Change describes.
type Op string

const (
	OpSet     Op = "set"
	OpPush    Op = "push"
	OpPop     Op = "pop"
	OpUnshift Op = "unshift"
	OpShift   Op = "shift"
	OpSplice  Op = "splice"
	OpSort    Op = "sort"
	OpReverse Op = "reverse"
)

// Structural reports whether op is a sequence operation rather than an
// assignment.
func (op Op) Structural() bool {
	return op != OpSet && op != ""
}

// Change describes one mutation.
type Change struct {
	// Path is the access path of the assigned property, or of the sequence
	// for structural operations.
	Path string

	// Op is OpSet for assignments and the operation name otherwise.
	Op Op

	// New is the assigned value, or the sequence itself for structural ops.
	New any

	// Old is the previous value. Always nil for structural ops.
	Old any

	// Args are the arguments of a structural op (pushed items, splice args).
	// Pop and Shift carry the removed element, if any.
	Args []any
}

// Field returns the top-level field the change belongs to.
func (c Change) Field() string {
	return Field(c.Path)
}

// Dep is one dependency recorded during a tracked read.
type Dep struct {
	// Path is the access path that was read. For index deps it is the block
	// key ("items*2").
	Path string

	// Index is set when the read was of a repeat index rather than a value.
	Index bool
}

// Observer attaches change detection to a model graph and reports every
// mutation to a single notify function.
type Observer struct {
	notify   func(Change)
	ignore   []string
	recorder func(Dep)
}

// NewObserver creates an Observer. Properties whose access path starts with
// one of ignorePrefixes are stored raw and never notify.
func NewObserver(notify func(Change), ignorePrefixes []string) *Observer {
	return &Observer{
		notify: notify,
		ignore: append([]string(nil), ignorePrefixes...),
	}
}

// Observe attaches the observer to root and everything reachable from it.
// Root gets the empty path, so its keys are top-level fields.
func (o *Observer) Observe(root any) error {
	switch root.(type) {
	case *Object, *Array:
		o.observeValue(root, "")
		return nil
	default:
		return ErrNotObservable
	}
}

// Ignored reports whether path matches an ignore prefix.
func (o *Observer) Ignored(path string) bool {
	for _, p := range o.ignore {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// Track runs fn with rec receiving every dependency read by fn.
// Nested calls restore the outer recorder afterwards.
func (o *Observer) Track(fn func(), rec func(Dep)) {
	prev := o.recorder
	o.recorder = rec
	defer func() { o.recorder = prev }()
	fn()
}

// Untracked runs fn with dependency recording suspended.
func (o *Observer) Untracked(fn func()) {
	o.Track(fn, nil)
}

// RecordIndex records a read of the repeat index for block key.
func (o *Observer) RecordIndex(key string) {
	if o.recorder != nil {
		o.recorder(Dep{Path: key, Index: true})
	}
}

func (o *Observer) record(path string) {
	if o.recorder != nil {
		o.recorder(Dep{Path: path})
	}
}

func (o *Observer) emit(c Change) {
	if o.notify != nil {
		o.notify(c)
	}
}

// observeValue attaches v and its descendants at path.
func (o *Observer) observeValue(v any, path string) {
	switch x := v.(type) {
	case *Object:
		x.obs = o
		x.path = path
		for _, k := range x.keys {
			p := Join(path, k)
			if o.Ignored(p) {
				continue
			}
			o.observeValue(x.vals[k], p)
		}
	case *Array:
		x.obs = o
		x.path = path
		o.observeElements(x)
	}
}

// observeElements re-observes the elements of a after a structural change.
// An element keeps its path when that path still designates it, so an object
// present at several indices keeps a single canonical path.
func (o *Observer) observeElements(a *Array) {
	for i, el := range a.items {
		p := IndexPath(a.path, i)
		if o.Ignored(p) {
			continue
		}
		switch x := el.(type) {
		case *Object:
			if x.obs == o && a.holdsAt(x.path, el) {
				continue
			}
		case *Array:
			if x.obs == o && a.holdsAt(x.path, el) {
				continue
			}
		default:
			continue
		}
		o.observeValue(el, p)
	}
}
