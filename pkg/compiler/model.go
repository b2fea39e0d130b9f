package compiler

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/vango-dev/vbind/internal/errors"
	"github.com/vango-dev/vbind/pkg/dom"
	"github.com/vango-dev/vbind/pkg/expr"
	"github.com/vango-dev/vbind/pkg/reactive"
	"github.com/vango-dev/vbind/pkg/updater"
)

// compileModel binds a form control both ways. The control kind decides how
// the model value is rendered and which events write it back. A select
// bound to a sequence writes a sequence even without the multiple
// attribute.
func (c *Compiler) compileModel(n *html.Node, directive, src string, owner *Owner, scope *expr.Scope) {
	path, err := expr.ParsePath(src)
	if err != nil {
		c.report(errors.New("E116").WithContext(src).Wrap(err), n, directive)
		return
	}
	kind := dom.Kind(n)
	if kind == dom.ControlNone {
		c.report(errors.New("E116").
			WithContext(src).
			WithDetail(fmt.Sprintf("<%s> is not a form control", n.Data)), n, directive)
		return
	}

	write := func(v any) {
		if err := c.assign(path, scope, v); err != nil {
			c.report(errors.New("E202").Wrap(err), n, directive)
		}
	}
	c.syncInitial(n, kind, path, scope, write)

	var update func(v, old any)
	switch kind {
	case dom.ControlText:
		update = func(v, _ any) { c.patched(updater.OpValue, updater.Value(n, v)) }
		c.listenText(n, directive, owner, write)
	case dom.ControlRadio:
		update = func(v, _ any) {
			c.patched(updater.OpChecked, updater.Checked(n, v != nil && updater.Stringify(v) == dom.Value(n)))
		}
		c.on(n, "change", directive, owner, func(*dom.Event) {
			if dom.Checked(n) {
				write(dom.Value(n))
			}
		})
	case dom.ControlCheckbox:
		update = func(v, _ any) { c.patched(updater.OpChecked, updater.Checked(n, checkboxState(n, v))) }
		c.on(n, "change", directive, owner, func(*dom.Event) {
			c.toggleMembership(n, path, scope, write)
		})
	case dom.ControlSelect:
		update = func(v, _ any) { c.patched(updater.OpSelected, updater.Selected(n, v)) }
		c.on(n, "change", directive, owner, func(*dom.Event) {
			_, list := c.resolve(path, scope).(*reactive.Array)
			write(selectValue(n, list || dom.Multiple(n)))
		})
	}
	c.bind(owner, scope, n, directive, src, false, update)
}

// syncInitial reads the control's own markup into the model when the model
// has no value yet.
func (c *Compiler) syncInitial(n *html.Node, kind dom.ControlKind, path []string, scope *expr.Scope, write func(any)) {
	if c.resolve(path, scope) != nil {
		return
	}
	switch kind {
	case dom.ControlText:
		write(c.coerce(n, dom.Value(n)))
	case dom.ControlRadio:
		if dom.Checked(n) {
			write(dom.Value(n))
		}
	case dom.ControlCheckbox:
		write(dom.Checked(n))
	case dom.ControlSelect:
		write(selectValue(n, dom.Multiple(n)))
	}
}

// selectValue reads a select: the selected values when multiple, the first
// selected value otherwise.
func selectValue(n *html.Node, multiple bool) any {
	if !multiple {
		return dom.Value(n)
	}
	vals := []any{}
	for _, s := range dom.SelectedValues(n) {
		vals = append(vals, s)
	}
	return vals
}

// listenText wires the dual channel of a text control: input writes
// immediately unless a composition is in progress, change and blur commit.
func (c *Compiler) listenText(n *html.Node, directive string, owner *Owner, write func(any)) {
	composing := false
	commit := func(*dom.Event) { write(c.coerce(n, dom.Value(n))) }
	c.on(n, "input", directive, owner, func(e *dom.Event) {
		if !composing {
			commit(e)
		}
	})
	c.on(n, "change", directive, owner, commit)
	c.on(n, "blur", directive, owner, commit)
	c.on(n, "compositionstart", directive, owner, func(*dom.Event) { composing = true })
	c.on(n, "compositionend", directive, owner, func(e *dom.Event) {
		composing = false
		commit(e)
	})
}

// on attaches an internal listener released with owner.
func (c *Compiler) on(n *html.Node, typ, key string, owner *Owner, fn dom.ListenerFunc) {
	updater.Listen(c.events, n, typ, key, false, fn)
	owner.OnCleanup(func() { updater.Unlisten(c.events, n, typ, key) })
}

// coerce converts the value of numeric controls.
func (c *Compiler) coerce(n *html.Node, s string) any {
	t, _ := dom.Attr(n, "type")
	if !strings.EqualFold(t, "number") && !dom.HasAttr(n, "number") {
		return s
	}
	if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
		return f
	}
	return s
}

func checkboxState(n *html.Node, v any) bool {
	if list, ok := v.([]any); ok {
		want := dom.Value(n)
		for _, el := range list {
			if updater.Stringify(el) == want {
				return true
			}
		}
		return false
	}
	return expr.Truthy(v)
}

// toggleMembership writes a checkbox: membership of its value when the model
// holds a sequence, a boolean otherwise.
func (c *Compiler) toggleMembership(n *html.Node, path []string, scope *expr.Scope, write func(any)) {
	on := dom.Checked(n)
	list, ok := c.resolve(path, scope).(*reactive.Array)
	if !ok {
		write(on)
		return
	}
	val := dom.Value(n)
	idx := -1
	for i, el := range list.Items() {
		if updater.Stringify(el) == val {
			idx = i
			break
		}
	}
	switch {
	case on && idx < 0:
		list.Push(val)
	case !on && idx >= 0:
		list.Splice(idx, 1)
	}
}

// resolve reads path without recording dependencies. The first segment is
// looked up in the scope chain before the model.
func (c *Compiler) resolve(path []string, scope *expr.Scope) any {
	var cur any = c.ev.Model()
	segs := path
	if s := scope.Lookup(path[0]); s != nil {
		cur = s.Array.Peek(s.Index)
		segs = path[1:]
	}
	for _, seg := range segs {
		cur = peek(cur, seg)
		if cur == nil {
			return nil
		}
	}
	return cur
}

// assign writes v at path through the model accessors.
func (c *Compiler) assign(path []string, scope *expr.Scope, v any) error {
	var target any = c.ev.Model()
	segs := path
	if s := scope.Lookup(path[0]); s != nil {
		if len(path) == 1 {
			s.Array.Set(s.Index, v)
			return nil
		}
		target = s.Array.Peek(s.Index)
		segs = path[1:]
	}
	for _, seg := range segs[:len(segs)-1] {
		next := peek(target, seg)
		if next == nil {
			return fmt.Errorf("cannot assign %s: %q is undefined", strings.Join(path, "."), seg)
		}
		target = next
	}

	last := segs[len(segs)-1]
	switch t := target.(type) {
	case *reactive.Object:
		t.Set(last, v)
	case *reactive.Array:
		i, err := strconv.Atoi(last)
		if err != nil || i < 0 || i >= len(t.Items()) {
			return fmt.Errorf("cannot assign %s: index %q out of range", strings.Join(path, "."), last)
		}
		t.Set(i, v)
	default:
		return fmt.Errorf("cannot assign %s: %T has no properties", strings.Join(path, "."), target)
	}
	return nil
}

func peek(v any, seg string) any {
	switch t := v.(type) {
	case *reactive.Object:
		return t.Peek(seg)
	case *reactive.Array:
		i, err := strconv.Atoi(seg)
		if err != nil {
			return nil
		}
		return t.Peek(i)
	}
	return nil
}
