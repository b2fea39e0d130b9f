// Package watcher is the subscription registry that connects model changes to
// bindings.
//
// Subscriptions are keyed by access path. Top-level field subscriptions are
// dispatched by TriggerAgent, the single entry point the Observer calls on
// every change. An access subscription keyed by a bare field name is
// dispatched there too, which lets bindings depend on fields that do not
// exist yet. Deep access-path subscriptions are dispatched by
// TriggerAccess, which binding code calls once it knows a change concerns a
// nested path it owns. Index subscriptions fire when a repeat block's
// position shifts.
//
// # Index remapping
//
// Keys always denote positions. When a sequence at prefix P gains elements at
// the front (ShiftBackward) or loses them (ShiftForward), every access and
// index subscription keyed "P*i…" is moved to "P*(i±n)…" so callbacks keep
// following the element they were registered for. Slots that fall off the
// front are cleared.
package watcher

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/vango-dev/vbind/internal/errors"
	"github.com/vango-dev/vbind/pkg/reactive"
)

// Callback receives a change.
type Callback func(c reactive.Change)

// IndexCallback receives the new index of a shifted block.
type IndexCallback func(index int)

type kind uint8

const (
	kindShallow kind = iota
	kindDeep
	kindAccess
	kindIndex
)

// Subscription is a handle to one registered callback.
type Subscription struct {
	id     uint64
	kind   kind
	key    string
	cb     Callback
	icb    IndexCallback
	active bool
	w      *Watcher
}

// Key returns the current key of the subscription. Index remapping may change
// it.
func (s *Subscription) Key() string {
	if s == nil {
		return ""
	}
	return s.key
}

// Active reports whether the subscription still receives notifications.
func (s *Subscription) Active() bool {
	return s != nil && s.active
}

// Unsubscribe removes the subscription. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s == nil || !s.active {
		return
	}
	s.w.remove(s)
}

// Watcher maps fields and access paths to callbacks.
// It is not safe for concurrent use.
type Watcher struct {
	model    *reactive.Object
	shallow  map[string][]*Subscription
	deep     map[string][]*Subscription
	access   map[string][]*Subscription
	index    map[string][]*Subscription
	nextID   uint64
	active   int
	reporter *errors.Reporter
	logger   *slog.Logger
}

// New creates a Watcher over model. Field existence checks for Add are made
// against model.
func New(model *reactive.Object, reporter *errors.Reporter, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		model:    model,
		shallow:  make(map[string][]*Subscription),
		deep:     make(map[string][]*Subscription),
		access:   make(map[string][]*Subscription),
		index:    make(map[string][]*Subscription),
		reporter: reporter,
		logger:   logger.With("component", "watcher"),
	}
}

// Add subscribes cb to whole-field reassignment and structural operations on
// the top-level field.
func (w *Watcher) Add(field string, cb Callback) (*Subscription, error) {
	if err := w.checkField(field); err != nil {
		return nil, err
	}
	return w.register(w.shallow, kindShallow, field, cb, nil), nil
}

// AddDeep subscribes cb to every change at or below the top-level field.
func (w *Watcher) AddDeep(field string, cb Callback) (*Subscription, error) {
	if err := w.checkField(field); err != nil {
		return nil, err
	}
	return w.register(w.deep, kindDeep, field, cb, nil), nil
}

// WatchAccess subscribes cb to an exact access path, which does not have to
// exist yet.
func (w *Watcher) WatchAccess(path string, cb Callback) *Subscription {
	return w.register(w.access, kindAccess, path, cb, nil)
}

// WatchIndex subscribes cb to index shifts of the block keyed key ("items*2").
func (w *Watcher) WatchIndex(key string, cb IndexCallback) *Subscription {
	return w.register(w.index, kindIndex, key, nil, cb)
}

// Notify implements the Observer's notify function.
func (w *Watcher) Notify(c reactive.Change) {
	w.TriggerAgent(c)
}

// TriggerAgent dispatches c to the subscribers of its top-level field:
// shallow subscribers and access subscribers keyed by the field when the
// change is on the field itself, deep subscribers always.
func (w *Watcher) TriggerAgent(c reactive.Change) {
	field := c.Field()
	if c.Path == field {
		w.dispatch(w.shallow[field], c)
		w.dispatch(w.access[field], c)
	}
	w.dispatch(w.deep[field], c)
}

// TriggerAccess dispatches c to the access subscribers of its exact path.
func (w *Watcher) TriggerAccess(c reactive.Change) {
	w.dispatch(w.access[c.Path], c)
}

// ShiftBackward renumbers subscriptions under prefix by +n after n elements
// were prepended.
func (w *Watcher) ShiftBackward(prefix string, n int) {
	w.shift(prefix, n)
}

// ShiftForward renumbers subscriptions under prefix by -n after n elements
// were removed from the front. Subscriptions of the removed slots are
// cleared.
func (w *Watcher) ShiftForward(prefix string, n int) {
	w.shift(prefix, -n)
}

// Count returns the number of active subscriptions.
func (w *Watcher) Count() int {
	return w.active
}

// CountAt returns the number of active access and index subscriptions whose
// key is exactly key.
func (w *Watcher) CountAt(key string) int {
	return len(w.access[key]) + len(w.index[key])
}

// Clear unsubscribes everything.
func (w *Watcher) Clear() {
	for _, m := range []map[string][]*Subscription{w.shallow, w.deep, w.access, w.index} {
		for k, subs := range m {
			for _, s := range subs {
				s.active = false
			}
			delete(m, k)
		}
	}
	w.active = 0
}

func (w *Watcher) checkField(field string) error {
	if strings.Contains(field, reactive.Delimiter) {
		return w.reporter.Report(errors.New("E301").
			WithNode(field).
			WithSuggestion("Watch the top-level field with deep=true instead"))
	}
	if w.model == nil || !w.model.Has(field) {
		return w.reporter.Report(errors.New("E300").WithNode(field))
	}
	return nil
}

func (w *Watcher) register(m map[string][]*Subscription, k kind, key string, cb Callback, icb IndexCallback) *Subscription {
	w.nextID++
	s := &Subscription{
		id:     w.nextID,
		kind:   k,
		key:    key,
		cb:     cb,
		icb:    icb,
		active: true,
		w:      w,
	}
	m[key] = append(m[key], s)
	w.active++
	return s
}

func (w *Watcher) table(k kind) map[string][]*Subscription {
	switch k {
	case kindShallow:
		return w.shallow
	case kindDeep:
		return w.deep
	case kindAccess:
		return w.access
	default:
		return w.index
	}
}

func (w *Watcher) remove(s *Subscription) {
	m := w.table(s.kind)
	m[s.key] = without(m[s.key], s)
	if len(m[s.key]) == 0 {
		delete(m, s.key)
	}
	s.active = false
	w.active--
}

// dispatch calls every active subscriber of a snapshot of subs. Callbacks may
// mutate the model and re-enter dispatch; subscriptions removed meanwhile are
// skipped.
func (w *Watcher) dispatch(subs []*Subscription, c reactive.Change) {
	if len(subs) == 0 {
		return
	}
	snapshot := make([]*Subscription, len(subs))
	copy(snapshot, subs)
	for _, s := range snapshot {
		if !s.active {
			continue
		}
		w.call(s, func() { s.cb(c) })
	}
}

func (w *Watcher) call(s *Subscription, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			w.reporter.Report(errors.New("E201").
				WithNode(s.key).
				Wrap(fmt.Errorf("%v", r)))
		}
	}()
	fn()
}

type moved struct {
	sub   *Subscription
	index int
	block bool
}

func (w *Watcher) shift(prefix string, delta int) {
	if delta == 0 {
		return
	}

	var fire []moved
	count := 0
	for _, m := range []map[string][]*Subscription{w.access, w.index} {
		var relocated []moved
		for key, subs := range m {
			idx, tail, ok := reactive.IndexUnder(prefix, key)
			if !ok {
				continue
			}
			delete(m, key)
			next := idx + delta
			for _, s := range subs {
				if next < 0 {
					s.active = false
					w.active--
					continue
				}
				s.key = reactive.IndexPath(prefix, next) + tail
				relocated = append(relocated, moved{sub: s, index: next, block: tail == ""})
			}
		}
		// Re-insert after all deletions so shifted keys never collide with
		// keys that have not moved yet.
		sort.SliceStable(relocated, func(i, j int) bool { return relocated[i].sub.id < relocated[j].sub.id })
		for _, mv := range relocated {
			m[mv.sub.key] = append(m[mv.sub.key], mv.sub)
			count++
			if mv.sub.kind == kindIndex && mv.block {
				fire = append(fire, mv)
			}
		}
	}

	w.logger.Debug("index remap", "prefix", prefix, "delta", delta, "moved", count)

	sort.SliceStable(fire, func(i, j int) bool { return fire[i].index < fire[j].index })
	for _, mv := range fire {
		if !mv.sub.active {
			continue
		}
		idx := mv.index
		w.call(mv.sub, func() { mv.sub.icb(idx) })
	}
}

func without(subs []*Subscription, s *Subscription) []*Subscription {
	for i, x := range subs {
		if x == s {
			out := make([]*Subscription, 0, len(subs)-1)
			out = append(out, subs[:i]...)
			return append(out, subs[i+1:]...)
		}
	}
	return subs
}
