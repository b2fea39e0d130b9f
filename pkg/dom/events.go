package dom

import (
	"strconv"

	"golang.org/x/net/html"
)

// Phase is the propagation phase an event is in.
type Phase uint8

const (
	PhaseNone Phase = iota
	PhaseCapture
	PhaseTarget
	PhaseBubble
)

// Event is a UI event delivered through an Events registry.
type Event struct {
	// Type is the event name ("click", "input", ...).
	Type string

	// Target is the node the event was dispatched on.
	Target *html.Node

	// CurrentTarget is the node whose listener is running.
	CurrentTarget *html.Node

	// Phase is the current propagation phase.
	Phase Phase

	// Data carries an optional payload, such as composition text.
	Data string

	stopped   bool
	prevented bool
}

// StopPropagation prevents the event from reaching further nodes.
func (e *Event) StopPropagation() { e.stopped = true }

// PreventDefault marks the default action as cancelled.
func (e *Event) PreventDefault() { e.prevented = true }

// Stopped reports whether propagation was stopped.
func (e *Event) Stopped() bool { return e.stopped }

// DefaultPrevented reports whether PreventDefault was called.
func (e *Event) DefaultPrevented() bool { return e.prevented }

// ListenerFunc handles an event.
type ListenerFunc func(e *Event)

type listener struct {
	typ     string
	key     string
	capture bool
	fn      ListenerFunc
}

// Events is a per-document listener registry. It also hands out stable
// string ids for nodes so remote clients can address them.
type Events struct {
	listeners map[*html.Node][]*listener
	ids       map[*html.Node]string
	nodes     map[string]*html.Node
	nextID    int
}

// NewEvents creates an empty registry.
func NewEvents() *Events {
	return &Events{
		listeners: make(map[*html.Node][]*listener),
		ids:       make(map[*html.Node]string),
		nodes:     make(map[string]*html.Node),
	}
}

// On attaches fn for event typ on n. A listener already registered on n with
// the same type and key is detached first.
func (ev *Events) On(n *html.Node, typ, key string, capture bool, fn ListenerFunc) {
	ev.Off(n, typ, key)
	ev.listeners[n] = append(ev.listeners[n], &listener{typ: typ, key: key, capture: capture, fn: fn})
}

// Off detaches the listener for typ and key on n. It reports whether one was
// attached.
func (ev *Events) Off(n *html.Node, typ, key string) bool {
	ls := ev.listeners[n]
	for i, l := range ls {
		if l.typ == typ && l.key == key {
			ev.listeners[n] = append(ls[:i:i], ls[i+1:]...)
			if len(ev.listeners[n]) == 0 {
				ev.forget(n)
			}
			return true
		}
	}
	return false
}

// OffAll detaches every listener on n.
func (ev *Events) OffAll(n *html.Node) {
	ev.forget(n)
}

// Listening reports whether n has a listener for typ.
func (ev *Events) Listening(n *html.Node, typ string) bool {
	for _, l := range ev.listeners[n] {
		if l.typ == typ {
			return true
		}
	}
	return false
}

// Count returns the number of listeners attached to n, or to every node when
// n is nil.
func (ev *Events) Count(n *html.Node) int {
	if n != nil {
		return len(ev.listeners[n])
	}
	total := 0
	for _, ls := range ev.listeners {
		total += len(ls)
	}
	return total
}

// Interactive reports whether n has at least one listener.
func (ev *Events) Interactive(n *html.Node) bool {
	return len(ev.listeners[n]) > 0
}

// ID returns the stable id of n, assigning one on first use.
func (ev *Events) ID(n *html.Node) string {
	if id, ok := ev.ids[n]; ok {
		return id
	}
	ev.nextID++
	id := "n" + strconv.Itoa(ev.nextID)
	ev.ids[n] = id
	ev.nodes[id] = n
	return id
}

// Lookup returns the node with the given id.
func (ev *Events) Lookup(id string) *html.Node {
	return ev.nodes[id]
}

// Reset drops every listener and id.
func (ev *Events) Reset() {
	ev.listeners = make(map[*html.Node][]*listener)
	ev.ids = make(map[*html.Node]string)
	ev.nodes = make(map[string]*html.Node)
}

func (ev *Events) forget(n *html.Node) {
	delete(ev.listeners, n)
	if id, ok := ev.ids[n]; ok {
		delete(ev.ids, n)
		delete(ev.nodes, id)
	}
}

// Dispatch delivers e to its target following the browser model: capture
// listeners on ancestors from the root down, every listener on the target,
// then non-capture listeners on ancestors back up to the root. It returns
// false when a listener called PreventDefault.
func (ev *Events) Dispatch(e *Event) bool {
	var path []*html.Node
	for p := e.Target.Parent; p != nil; p = p.Parent {
		path = append(path, p)
	}

	e.Phase = PhaseCapture
	for i := len(path) - 1; i >= 0; i-- {
		if e.stopped {
			return !e.prevented
		}
		ev.run(path[i], e, func(l *listener) bool { return l.capture })
	}

	if e.stopped {
		return !e.prevented
	}
	e.Phase = PhaseTarget
	ev.run(e.Target, e, func(*listener) bool { return true })

	e.Phase = PhaseBubble
	for _, p := range path {
		if e.stopped {
			break
		}
		ev.run(p, e, func(l *listener) bool { return !l.capture })
	}
	e.Phase = PhaseNone
	e.CurrentTarget = nil
	return !e.prevented
}

func (ev *Events) run(n *html.Node, e *Event, match func(*listener) bool) {
	ls := ev.listeners[n]
	if len(ls) == 0 {
		return
	}
	snapshot := append([]*listener(nil), ls...)
	for _, l := range snapshot {
		if l.typ != e.Type || !match(l) {
			continue
		}
		e.CurrentTarget = n
		l.fn(e)
	}
}
