package expr

import (
	"github.com/vango-dev/vbind/pkg/reactive"
)

// Reserved expression tokens.
const (
	Event  = "$event"
	Index  = "$index"
	Parent = "$parent"
)

// Scope is the synthetic lookup context of a repeat block. Alias resolves to
// the element at Index of Array, read through the tracked accessor so the
// element's access path becomes a dependency. Outer loop variables resolve
// through Parent.
type Scope struct {
	Alias  string
	Array  *reactive.Array
	Index  int
	Parent *Scope

	// Event is the native event while a handler's arguments are evaluated.
	Event any
}

// Key returns the block key of the scope ("items*2"), or "" outside a repeat
// block.
func (s *Scope) Key() string {
	if s == nil || s.Array == nil {
		return ""
	}
	return reactive.IndexPath(s.Array.Path(), s.Index)
}

// Value returns the current loop element.
func (s *Scope) Value() any {
	if s == nil || s.Array == nil {
		return nil
	}
	return s.Array.Get(s.Index)
}

// WithEvent returns a copy of s that exposes event as $event.
func (s *Scope) WithEvent(event any) *Scope {
	if s == nil {
		return &Scope{Event: event}
	}
	c := *s
	c.Event = event
	return &c
}

// Lookup finds the scope that binds alias, walking up the chain.
func (s *Scope) Lookup(alias string) *Scope {
	for x := s; x != nil; x = x.Parent {
		if x.Array != nil && x.Alias == alias {
			return x
		}
	}
	return nil
}

// Depth returns the number of enclosing repeat blocks, counting s.
func (s *Scope) Depth() int {
	n := 0
	for x := s; x != nil; x = x.Parent {
		if x.Array != nil {
			n++
		}
	}
	return n
}
