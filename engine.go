package vbind

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/html"

	"github.com/vango-dev/vbind/internal/errors"
	"github.com/vango-dev/vbind/pkg/compiler"
	"github.com/vango-dev/vbind/pkg/dom"
	"github.com/vango-dev/vbind/pkg/expr"
	"github.com/vango-dev/vbind/pkg/reactive"
	"github.com/vango-dev/vbind/pkg/telemetry"
	"github.com/vango-dev/vbind/pkg/watcher"
)

// Change describes one model mutation delivered to Watch callbacks.
type Change = reactive.Change

// WatchFunc receives changes of a watched field.
type WatchFunc = watcher.Callback

// Engine binds one model to one mounted subtree.
//
// The engine compiles a copy of the mount node's children, then swaps the
// compiled copy in. Every mutation made through the model accessors, Set,
// SetFields, Reset or an event handler updates the bound nodes before the
// call returns.
//
// An Engine is not safe for concurrent use.
type Engine struct {
	root     *html.Node
	template []*html.Node
	model    *reactive.Object
	initial  map[string]any

	obs      *reactive.Observer
	watcher  *watcher.Watcher
	events   *dom.Events
	compiler *compiler.Compiler
	owner    *compiler.Owner

	reporter *errors.Reporter
	rec      telemetry.Recorder
	tracer   trace.Tracer
	logger   *slog.Logger

	destroyed bool
}

// New observes model, compiles the children of root against it and mounts
// the result.
//
// root must be an element or document node (E101). model must be keyed: a
// *reactive.Object, a map with string keys, or a struct that encodes to a
// JSON object (E100). Compile problems are reported but never fail New.
func New(root *html.Node, model any, opts ...Option) (*Engine, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}
	rec := telemetry.OrNop(o.recorder)
	reporter := o.reporter
	if reporter == nil {
		handler := o.handler
		reporter = errors.NewReporter(logger, func(err *errors.VangoError) {
			rec.Reported(err.Code, err.Severity.String())
			if handler != nil {
				handler(err)
			}
		})
	}

	if root == nil || (root.Type != html.ElementNode && root.Type != html.DocumentNode) {
		return nil, reporter.Report(errors.New("E101").WithNode(describeRoot(root)))
	}
	obj, err := toObject(model)
	if err != nil {
		return nil, reporter.Report(errors.New("E100").Wrap(err))
	}

	e := &Engine{
		root:     root,
		model:    obj,
		initial:  obj.ToPlain(),
		reporter: reporter,
		rec:      rec,
		tracer:   telemetry.Tracer(o.tracer),
		logger:   logger.With("component", "engine"),
		events:   dom.NewEvents(),
	}
	e.obs = reactive.NewObserver(e.notify, o.ignore)
	e.watcher = watcher.New(obj, reporter, logger)
	if err := e.obs.Observe(obj); err != nil {
		return nil, reporter.Report(errors.New("E100").Wrap(err))
	}
	e.compiler = compiler.New(compiler.Config{
		Evaluator: expr.New(e.obs, obj),
		Observer:  e.obs,
		Watcher:   e.watcher,
		Events:    e.events,
		Reporter:  reporter,
		Methods:   o.methods,
		Recorder:  rec,
		Logger:    logger,
	})

	e.mount()
	return e, nil
}

// mount compiles a copy of the root's children and swaps it in. The
// original children are kept so Destroy can put them back.
func (e *Engine) mount() {
	_, span := telemetry.StartSpan(context.Background(), e.tracer, "compile",
		attribute.String("vbind.root", dom.Describe(e.root)),
	)
	start := time.Now()
	before := e.reporter.Total()

	work := dom.Clone(e.root)
	e.owner = compiler.NewOwner(nil)
	e.compiler.Compile(work, e.owner)

	e.template = dom.RemoveChildren(e.root)
	for _, c := range dom.RemoveChildren(work) {
		e.root.AppendChild(c)
	}

	reported := e.reporter.Total() - before
	span.SetAttributes(
		attribute.Int("vbind.bindings", e.compiler.Bindings()),
		attribute.Int("vbind.errors", reported),
	)
	telemetry.EndSpan(span, nil)
	e.logger.Debug("mounted",
		"root", dom.Describe(e.root),
		"bindings", e.compiler.Bindings(),
		"subscriptions", e.watcher.Count(),
		"errors", reported,
		"duration", time.Since(start))
}

func (e *Engine) notify(c reactive.Change) {
	e.rec.Dispatched(string(c.Op))
	e.watcher.Notify(c)
}

// Get returns a plain copy of the whole model, or of one field's current
// value when field is given.
func (e *Engine) Get(field ...string) any {
	if e.destroyed {
		return nil
	}
	if len(field) == 0 {
		return e.model.ToPlain()
	}
	return reactive.Plain(e.model.Peek(field[0]))
}

// Set assigns value to a top-level field through the model accessors.
func (e *Engine) Set(field string, value any) error {
	if err := e.checkField(field); err != nil {
		return err
	}
	e.model.Set(field, value)
	return nil
}

// SetFields assigns several fields, in key order.
func (e *Engine) SetFields(fields map[string]any) error {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := e.Set(k, fields[k]); err != nil {
			return err
		}
	}
	return nil
}

// Reset restores the named fields, or every field, to their value at
// construction. Fields that did not exist then are removed.
func (e *Engine) Reset(fields ...string) error {
	if e.destroyed {
		return e.reporter.Report(errors.New("E102"))
	}
	if len(fields) == 0 {
		for _, k := range e.model.Keys() {
			if _, ok := e.initial[k]; !ok {
				fields = append(fields, k)
			}
		}
		for k := range e.initial {
			fields = append(fields, k)
		}
		sort.Strings(fields)
	}
	for _, f := range fields {
		v, ok := e.initial[f]
		if !ok {
			e.model.Delete(f)
			continue
		}
		// Set converts the plain snapshot into fresh structures, so the
		// snapshot itself is never aliased by the model.
		e.model.Set(f, v)
	}
	return nil
}

// Watch subscribes cb to a top-level field. Shallow watchers receive
// reassignment and structural operations of the field; deep watchers also
// receive every change below it.
func (e *Engine) Watch(field string, cb WatchFunc, deep bool) (*watcher.Subscription, error) {
	if e.destroyed {
		return nil, e.reporter.Report(errors.New("E102"))
	}
	if deep {
		return e.watcher.AddDeep(field, cb)
	}
	return e.watcher.Add(field, cb)
}

// Dispatch delivers event to target through capture, target and bubble
// phases. It reports whether the default action was not prevented.
func (e *Engine) Dispatch(target *html.Node, event *dom.Event) bool {
	if e.destroyed || target == nil || event == nil {
		return false
	}
	_, span := telemetry.StartSpan(context.Background(), e.tracer, "dispatch",
		attribute.String("vbind.event", event.Type),
		attribute.String("vbind.target", dom.Describe(target)),
	)
	start := time.Now()
	before := e.reporter.Total()

	event.Target = target
	ok := e.events.Dispatch(event)

	var err error
	if e.reporter.Total() > before {
		err = e.lastError()
	}
	e.rec.Event(event.Type, time.Since(start), err)
	telemetry.EndSpan(span, err)
	return ok
}

// Trigger dispatches a bare event of type typ to target.
func (e *Engine) Trigger(target *html.Node, typ string) bool {
	return e.Dispatch(target, &dom.Event{Type: typ})
}

// Input sets the value of a text control and dispatches "input", the way a
// keystroke would.
func (e *Engine) Input(target *html.Node, value string) bool {
	if target == nil {
		return false
	}
	dom.SetValue(target, value)
	return e.Trigger(target, "input")
}

// Destroy unsubscribes everything, puts the original template back in place
// of the rendered nodes and releases the model.
func (e *Engine) Destroy() {
	if e.destroyed {
		return
	}
	e.owner.Dispose()
	e.watcher.Clear()
	e.events.Reset()

	dom.RemoveChildren(e.root)
	for _, c := range e.template {
		e.root.AppendChild(c)
	}
	e.template = nil
	e.model = nil
	e.destroyed = true
	e.logger.Debug("destroyed", "root", dom.Describe(e.root))
}

// Destroyed reports whether Destroy has been called.
func (e *Engine) Destroyed() bool {
	return e.destroyed
}

// Model returns the live model. Mutations through its accessors update the
// view like Set does. Nil after Destroy.
func (e *Engine) Model() *reactive.Object {
	return e.model
}

// Root returns the mount node.
func (e *Engine) Root() *html.Node {
	return e.root
}

// Events returns the listener registry of the mounted nodes.
func (e *Engine) Events() *dom.Events {
	return e.events
}

// Errors returns the retained errors, oldest first.
func (e *Engine) Errors() []*errors.VangoError {
	return e.reporter.Errors()
}

// ErrorCount returns how many errors were reported over the engine's life.
func (e *Engine) ErrorCount() int {
	return e.reporter.Total()
}

// Bindings returns the number of live bindings.
func (e *Engine) Bindings() int {
	return e.compiler.Bindings()
}

func (e *Engine) lastError() *errors.VangoError {
	errs := e.reporter.Errors()
	if len(errs) == 0 {
		return nil
	}
	return errs[len(errs)-1]
}

func (e *Engine) checkField(field string) error {
	if e.destroyed {
		return e.reporter.Report(errors.New("E102"))
	}
	if field == "" || strings.Contains(field, reactive.Delimiter) {
		return e.reporter.Report(errors.New("E301").WithNode(field))
	}
	return nil
}

// toObject converts a model argument into an Object.
func toObject(model any) (*reactive.Object, error) {
	switch m := model.(type) {
	case *reactive.Object:
		if m == nil {
			return nil, fmt.Errorf("nil model")
		}
		return m, nil
	case map[string]any:
		return reactive.ObjectFrom(m), nil
	case nil:
		return nil, fmt.Errorf("nil model")
	}

	if obj, ok := reactive.Wrap(model).(*reactive.Object); ok {
		return obj, nil
	}
	rv := reflect.ValueOf(model)
	for rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("model has type %T", model)
	}
	data, err := json.Marshal(model)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return reactive.ObjectFrom(m), nil
}

func describeRoot(n *html.Node) string {
	if n == nil {
		return "<nil>"
	}
	if n.Type == html.ElementNode {
		return dom.Describe(n)
	}
	return fmt.Sprintf("node type %d", n.Type)
}
