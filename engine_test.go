package vbind

import (
	"io"
	"log/slog"
	"reflect"
	"strings"
	"testing"
	"time"

	"golang.org/x/net/html"

	"github.com/vango-dev/vbind/internal/errors"
	"github.com/vango-dev/vbind/pkg/dom"
	"github.com/vango-dev/vbind/pkg/reactive"
	"github.com/vango-dev/vbind/pkg/telemetry"
)

var quiet = WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

func mount(t *testing.T, markup string, model any, opts ...Option) (*Engine, *html.Node) {
	t.Helper()
	root := dom.NewElement("div")
	if err := dom.SetInnerHTML(root, markup); err != nil {
		t.Fatal(err)
	}
	e, err := New(root, model, append([]Option{quiet}, opts...)...)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return e, root
}

func code(err error) string {
	if ve, ok := err.(*errors.VangoError); ok {
		return ve.Code
	}
	return ""
}

type counts struct {
	telemetry.Nop
	dispatched int
	reported   []string
	events     []string
	bindings   int
}

func (c *counts) Dispatched(string)       { c.dispatched++ }
func (c *counts) Reported(code, _ string) { c.reported = append(c.reported, code) }
func (c *counts) Bindings(d int)          { c.bindings += d }
func (c *counts) Event(typ string, _ time.Duration, err error) {
	if err != nil {
		typ += "!"
	}
	c.events = append(c.events, typ)
}

func TestNewRejectsInvalidRoot(t *testing.T) {
	if _, err := New(nil, map[string]any{}, quiet); code(err) != "E101" {
		t.Errorf("expected E101 for nil root, got %v", err)
	}
	if _, err := New(dom.NewText("x"), map[string]any{}, quiet); code(err) != "E101" {
		t.Errorf("expected E101 for text root, got %v", err)
	}
}

func TestNewRejectsInvalidModel(t *testing.T) {
	for _, model := range []any{nil, 42, "x", []any{1}} {
		_, err := New(dom.NewElement("div"), model, quiet)
		if code(err) != "E100" {
			t.Errorf("model %#v: expected E100, got %v", model, err)
		}
	}
}

func TestNewAcceptsStructModel(t *testing.T) {
	type todo struct {
		Title string   `json:"title"`
		Tags  []string `json:"tags"`
	}
	e, root := mount(t, `<p>{{ title }} {{ tags.length }}</p>`, &todo{Title: "a", Tags: []string{"x", "y"}})
	if got := dom.InnerHTML(root); got != "<p>a 2</p>" {
		t.Errorf("unexpected %q", got)
	}
	if got := e.Get("title"); got != "a" {
		t.Errorf("expected a, got %v", got)
	}
}

func TestGetSet(t *testing.T) {
	e, root := mount(t, `<p>{{ title }}</p>`, map[string]any{"title": "a"})
	if err := e.Set("title", "b"); err != nil {
		t.Fatal(err)
	}
	if got := dom.InnerHTML(root); got != "<p>b</p>" {
		t.Errorf("unexpected %q", got)
	}
	if got := e.Get(); !reflect.DeepEqual(got, map[string]any{"title": "b"}) {
		t.Errorf("unexpected model %v", got)
	}

	if err := e.Set("", 1); code(err) != "E301" {
		t.Errorf("expected E301, got %v", err)
	}
	if err := e.Set("a*b", 1); code(err) != "E301" {
		t.Errorf("expected E301, got %v", err)
	}
}

func TestGetReturnsCopies(t *testing.T) {
	e, _ := mount(t, ``, map[string]any{"list": []any{1}})
	got := e.Get("list").([]any)
	got[0] = 99
	if e.Model().Peek("list").(*reactive.Array).Peek(0) == 99 {
		t.Error("expected Get to return a copy")
	}
}

func TestSetFields(t *testing.T) {
	e, root := mount(t, `<p>{{ a }}-{{ b }}</p>`, map[string]any{"a": 1, "b": 2})
	var order []string
	for _, f := range []string{"a", "b"} {
		f := f
		if _, err := e.Watch(f, func(Change) { order = append(order, f) }, false); err != nil {
			t.Fatal(err)
		}
	}
	if err := e.SetFields(map[string]any{"b": 20, "a": 10}); err != nil {
		t.Fatal(err)
	}
	if got := dom.InnerHTML(root); got != "<p>10-20</p>" {
		t.Errorf("unexpected %q", got)
	}
	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Errorf("expected fields set in key order, got %v", order)
	}
}

func TestReset(t *testing.T) {
	e, root := mount(t, `<p>{{ n }}</p><ul><li v-for="x in list">{{ x }}</li></ul>`, map[string]any{
		"n": 1, "list": []any{"a"},
	})
	e.Set("n", 2)
	e.Set("extra", true)
	e.Model().Get("list").(*reactive.Array).Push("b")

	if err := e.Reset("n"); err != nil {
		t.Fatal(err)
	}
	if got := e.Get("n"); got != 1 {
		t.Errorf("expected 1, got %v", got)
	}
	if got := e.Get("extra"); got != true {
		t.Errorf("expected extra untouched, got %v", got)
	}

	if err := e.Reset(); err != nil {
		t.Fatal(err)
	}
	if e.Model().Has("extra") {
		t.Error("expected extra to be removed")
	}
	if got := dom.InnerHTML(root); got != "<p>1</p><ul><li>a</li><!--v-for--></ul>" {
		t.Errorf("unexpected %q", got)
	}
}

func TestWatchShallowAndDeep(t *testing.T) {
	e, _ := mount(t, ``, map[string]any{"user": map[string]any{"name": "a"}})
	var shallow, deep []string
	if _, err := e.Watch("user", func(c Change) { shallow = append(shallow, c.Path) }, false); err != nil {
		t.Fatal(err)
	}
	sub, err := e.Watch("user", func(c Change) { deep = append(deep, c.Path) }, true)
	if err != nil {
		t.Fatal(err)
	}

	e.Model().Get("user").(*reactive.Object).Set("name", "b")
	e.Set("user", map[string]any{"name": "c"})
	if len(shallow) != 1 || shallow[0] != "user" {
		t.Errorf("expected [user], got %v", shallow)
	}
	if len(deep) != 2 || deep[0] != "user*name" || deep[1] != "user" {
		t.Errorf("expected [user*name user], got %v", deep)
	}

	sub.Unsubscribe()
	e.Set("user", nil)
	if len(deep) != 2 {
		t.Errorf("expected no delivery after Unsubscribe, got %v", deep)
	}
}

func TestWatchErrors(t *testing.T) {
	e, _ := mount(t, ``, map[string]any{"a": 1})
	if _, err := e.Watch("missing", func(Change) {}, false); code(err) != "E300" {
		t.Errorf("expected E300, got %v", err)
	}
	if _, err := e.Watch("a*b", func(Change) {}, true); code(err) != "E301" {
		t.Errorf("expected E301, got %v", err)
	}
}

func TestDestroyRestoresTemplate(t *testing.T) {
	markup := `<p>{{ title }}</p><button v-on:click="hit">b</button>`
	e, root := mount(t, markup, map[string]any{"title": "a"}, WithMethod("hit", func() {}))
	if dom.InnerHTML(root) == markup {
		t.Fatal("expected the markup to be compiled")
	}

	e.Destroy()
	e.Destroy()
	if got := dom.InnerHTML(root); got != markup {
		t.Errorf("expected %q, got %q", markup, got)
	}
	if !e.Destroyed() || e.Model() != nil || e.Get() != nil {
		t.Error("expected the engine to release its model")
	}
	if e.Bindings() != 0 || e.Events().Count(nil) != 0 {
		t.Error("expected bindings and listeners to be released")
	}
	if err := e.Set("title", "b"); code(err) != "E102" {
		t.Errorf("expected E102, got %v", err)
	}
	if _, err := e.Watch("title", func(Change) {}, false); code(err) != "E102" {
		t.Errorf("expected E102, got %v", err)
	}
	if e.Trigger(root.FirstChild, "click") {
		t.Error("expected Dispatch to refuse after Destroy")
	}
}

func TestMountRootAttributesAreKept(t *testing.T) {
	root := dom.NewElement("div")
	dom.SetAttr(root, "v-show", "hidden")
	if _, err := New(root, map[string]any{}, quiet); err != nil {
		t.Fatal(err)
	}
	if v, _ := dom.Attr(root, "v-show"); v != "hidden" {
		t.Errorf("expected the mount node to be left alone, got %q", v)
	}
}

func TestDispatchAndInput(t *testing.T) {
	saved := ""
	var e *Engine
	rec := &counts{}
	e, root := mount(t, `<input v-model="name"><button v-on:click="save">Save</button><a v-on:click="boom">x</a>`,
		map[string]any{"name": ""},
		WithMethods(map[string]any{
			"save": func() { saved = e.Get("name").(string) },
			"boom": func() { panic("boom") },
		}),
		WithRecorder(rec))

	in := root.FirstChild
	e.Input(in, "hello")
	if got := e.Get("name"); got != "hello" {
		t.Errorf("expected hello, got %v", got)
	}
	if !e.Trigger(in.NextSibling, "click") {
		t.Error("expected default not prevented")
	}
	if saved != "hello" {
		t.Errorf("expected handler to see hello, got %q", saved)
	}
	e.Trigger(in.NextSibling.NextSibling, "click")

	want := []string{"input", "click", "click!"}
	if !reflect.DeepEqual(rec.events, want) {
		t.Errorf("expected events %v, got %v", want, rec.events)
	}
	if rec.dispatched == 0 {
		t.Error("expected dispatched changes to be recorded")
	}
}

func TestErrorHandlerAndRecorder(t *testing.T) {
	var got []string
	rec := &counts{}
	e, _ := mount(t, `<p>{{ missing.x }}</p><p>{{ ok }}</p>`, map[string]any{"ok": 1},
		WithErrorHandler(func(err *errors.VangoError) { got = append(got, err.Code) }),
		WithRecorder(rec))

	if len(got) != 1 || got[0] != "E200" {
		t.Errorf("expected [E200], got %v", got)
	}
	if len(rec.reported) != 1 || rec.reported[0] != "E200" {
		t.Errorf("expected recorder to see E200, got %v", rec.reported)
	}
	if len(e.Errors()) != 1 {
		t.Errorf("expected 1 error, got %d", len(e.Errors()))
	}
	if rec.bindings != e.Bindings() || rec.bindings != 2 {
		t.Errorf("expected 2 bindings, got %d (engine %d)", rec.bindings, e.Bindings())
	}
}

func TestSharedReporter(t *testing.T) {
	reporter := errors.NewReporter(slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
	mount(t, `<p v-bogus="1"></p>`, map[string]any{}, WithReporter(reporter))
	mount(t, `<p>{{ a = 1 }}</p>`, map[string]any{}, WithReporter(reporter))
	if reporter.Count("E110") != 1 || reporter.Count("E112") != 1 {
		t.Errorf("expected E110 and E112 on the shared reporter, got %v", reporter.Errors())
	}
}

func TestIgnorePrefixes(t *testing.T) {
	e, root := mount(t, `<p>{{ _cache }}</p>`, map[string]any{"_cache": "a"}, WithIgnorePrefixes("_"))
	e.Set("_cache", "b")
	if got := dom.InnerHTML(root); got != "<p>a</p>" {
		t.Errorf("expected ignored field not to update the view, got %q", got)
	}
	if got := e.Get("_cache"); got != "b" {
		t.Errorf("expected b stored, got %v", got)
	}
}

func TestDocumentRoot(t *testing.T) {
	doc, err := html.Parse(strings.NewReader(`<html><body><p>{{ a }}</p></body></html>`))
	if err != nil {
		t.Fatal(err)
	}
	e, err := New(doc, map[string]any{"a": "x"}, quiet)
	if err != nil {
		t.Fatal(err)
	}
	e.Set("a", "y")
	var out string
	dom.Walk(doc, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == "p" {
			out = dom.TextContent(n)
		}
		return true
	})
	if out != "y" {
		t.Errorf("expected y, got %q", out)
	}
}
