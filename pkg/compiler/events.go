package compiler

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/vango-dev/vbind/internal/errors"
	"github.com/vango-dev/vbind/pkg/dom"
	"github.com/vango-dev/vbind/pkg/expr"
	"github.com/vango-dev/vbind/pkg/updater"
)

// modifiers of an event directive ("click.stop.prevent").
type modifiers struct {
	self, stop, prevent, capture bool
}

func parseEvent(spec string) (string, modifiers, error) {
	parts := strings.Split(spec, ".")
	var m modifiers
	for _, p := range parts[1:] {
		switch p {
		case "self":
			m.self = true
		case "stop":
			m.stop = true
		case "prevent":
			m.prevent = true
		case "capture":
			m.capture = true
		default:
			return "", m, fmt.Errorf("unknown event modifier %q", p)
		}
	}
	if parts[0] == "" {
		return "", m, fmt.Errorf("missing event name")
	}
	return strings.ToLower(parts[0]), m, nil
}

// compileOn handles v-on:event.mods="handler(args)" and the object form
// v-on="{ click: save, input: log }".
func (c *Compiler) compileOn(n *html.Node, directive, event, src string, owner *Owner, scope *expr.Scope) {
	if event != "" {
		c.listen(n, directive, event, src, owner, scope)
		return
	}
	pairs, ok := expr.ParseObjectLiteral(src)
	if !ok {
		c.report(errors.New("E115").
			WithContext(src).
			WithSuggestion("Use v-on:event=\"handler\" or v-on=\"{ event: handler }\""), n, directive)
		return
	}
	for _, p := range pairs {
		c.listen(n, directive, p.Key, p.Value, owner, scope)
	}
}

func (c *Compiler) listen(n *html.Node, directive, spec, src string, owner *Owner, scope *expr.Scope) {
	typ, mods, err := parseEvent(spec)
	if err != nil {
		c.report(errors.New("E110").Wrap(err), n, directive)
		return
	}
	call, err := expr.ParseCall(src)
	if err != nil {
		c.report(errors.New("E115").WithContext(src).Wrap(err), n, directive)
		return
	}
	args := make([]*expr.Expr, 0, len(call.Args))
	for _, a := range call.Args {
		x, err := c.ev.Compile(a)
		if err != nil {
			c.report(err, n, directive)
			return
		}
		args = append(args, x)
	}

	key := directive + "=" + src
	wrap := func(h any) dom.ListenerFunc {
		return func(e *dom.Event) {
			if mods.self && e.Target != n {
				return
			}
			if mods.stop {
				e.StopPropagation()
			}
			if mods.prevent {
				e.PreventDefault()
			}
			c.invoke(n, directive, h, call, args, scope, e)
		}
	}
	owner.OnCleanup(func() { updater.Unlisten(c.events, n, typ, key) })

	name := call.Name[0]
	if m, ok := c.methods[strings.Join(call.Name, ".")]; ok {
		if !callable(m) {
			c.report(errors.New("E117").WithContext(src).WithDetail(fmt.Sprintf("method %q has type %T", name, m)), n, directive)
			return
		}
		updater.Listen(c.events, n, typ, key, mods.capture, wrap(m))
		c.rec.Patched(updater.OpListen.String())
		return
	}
	if scope.Lookup(name) == nil && !c.ev.Model().Has(name) {
		c.report(errors.New("E117").
			WithContext(src).
			WithSuggestion("Register the method with WithMethod or set a model field holding a handler"), n, directive)
		return
	}

	// A model field holding the handler: rebinding swaps the listener.
	c.bind(owner, scope, n, directive, strings.Join(call.Name, "."), true, func(v, _ any) {
		updater.Unlisten(c.events, n, typ, key)
		if v == nil {
			return
		}
		if !callable(v) {
			c.report(errors.New("E117").WithContext(src).WithDetail(fmt.Sprintf("value has type %T", v)), n, directive)
			return
		}
		updater.Listen(c.events, n, typ, key, mods.capture, wrap(v))
		c.patched(updater.OpListen, true)
	})
}

func callable(h any) bool {
	switch h.(type) {
	case Handler, func(...any), func(), func(*dom.Event):
		return true
	}
	return false
}

// invoke evaluates the arguments of call with $event bound to e and runs h.
// Failures are reported and never reach the dispatcher.
func (c *Compiler) invoke(n *html.Node, directive string, h any, call expr.Call, args []*expr.Expr, scope *expr.Scope, e *dom.Event) {
	defer func() {
		if r := recover(); r != nil {
			c.report(errors.New("E202").Wrap(fmt.Errorf("%v", r)), n, directive)
		}
	}()

	var values []any
	if !call.Parens {
		values = []any{e}
	} else {
		es := scope.WithEvent(e)
		var err error
		c.obs.Untracked(func() {
			for _, x := range args {
				var v any
				if v, err = x.Eval(es); err != nil {
					return
				}
				values = append(values, v)
			}
		})
		if err != nil {
			c.report(errors.New("E202").Wrap(err), n, directive)
			return
		}
	}

	switch fn := h.(type) {
	case Handler:
		fn(values...)
	case func(...any):
		fn(values...)
	case func():
		fn()
	case func(*dom.Event):
		fn(e)
	}
}
