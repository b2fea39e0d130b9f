package compiler

import (
	"golang.org/x/net/html"

	"github.com/vango-dev/vbind/internal/errors"
	"github.com/vango-dev/vbind/pkg/expr"
	"github.com/vango-dev/vbind/pkg/reactive"
	"github.com/vango-dev/vbind/pkg/watcher"
)

// binding is one live expression. run evaluates it under tracking,
// subscribes to what it read and hands the value to update.
type binding struct {
	c         *Compiler
	node      *html.Node
	directive string
	x         *expr.Expr
	scope     *expr.Scope

	// raw skips materialization. Values that are acted on by identity
	// (sequences, handlers, nodes) need the live value.
	raw bool

	update func(v, old any)
	value  any
	subs   []dep
	dead   bool

	// pending is the change that triggered the current run, if any.
	pending *reactive.Change
}

// bind compiles src and creates a binding that runs immediately.
func (c *Compiler) bind(owner *Owner, scope *expr.Scope, n *html.Node, directive, src string, raw bool, update func(v, old any)) *binding {
	x, err := c.ev.Compile(src)
	if err != nil {
		c.report(err, n, directive)
		return nil
	}
	b := &binding{
		c:         c,
		node:      n,
		directive: directive,
		x:         x,
		scope:     scope,
		raw:       raw,
		update:    update,
	}
	c.live++
	c.rec.Bindings(1)
	owner.OnCleanup(b.destroy)
	b.run()
	return b
}

func (b *binding) run() {
	if b.dead {
		return
	}
	var (
		v    any
		err  error
		deps []reactive.Dep
	)
	b.c.obs.Track(func() {
		v, err = b.x.Eval(b.scope)
		if err == nil && !b.raw {
			v = reactive.Materialize(v)
		}
	}, func(d reactive.Dep) {
		deps = append(deps, d)
	})
	if err != nil {
		b.c.report(errors.New("E200").WithContext(b.x.Source).Wrap(err), b.node, b.directive)
		v = nil
	}
	b.subscribe(deps)
	if b.dead {
		return
	}

	old := b.value
	b.value = v
	b.update(v, old)
}

// subscribe registers the deps not already covered by an active
// subscription. Subscriptions are kept until the binding is destroyed, so a
// branch that stops being read still wakes the binding.
func (b *binding) subscribe(deps []reactive.Dep) {
	have := make(map[string]bool, len(b.subs))
	live := b.subs[:0]
	for _, s := range b.subs {
		if !s.sub.Active() {
			continue
		}
		live = append(live, s)
		have[s.id()] = true
	}
	b.subs = live

	w := b.c.w
	for _, d := range deps {
		ds := dep{index: d.Index}
		key := ds.prefix() + d.Path
		if have[key] {
			continue
		}
		have[key] = true
		if d.Index {
			ds.sub = w.WatchIndex(d.Path, func(int) { b.run() })
		} else {
			ds.sub = w.WatchAccess(d.Path, b.notify)
			if reactive.IsDeep(d.Path) {
				b.c.relay(reactive.Field(d.Path))
			}
		}
		b.subs = append(b.subs, ds)
	}
}

// dep is a subscription of a binding. Keys move under index remapping, so
// identity is recomputed from the subscription on every run.
type dep struct {
	sub   *watcher.Subscription
	index bool
}

func (d dep) prefix() string {
	if d.index {
		return "#"
	}
	return ""
}

func (d dep) id() string {
	return d.prefix() + d.sub.Key()
}

func (b *binding) notify(c reactive.Change) {
	b.pending = &c
	b.run()
	b.pending = nil
}

func (b *binding) destroy() {
	if b.dead {
		return
	}
	b.dead = true
	for _, s := range b.subs {
		s.sub.Unsubscribe()
	}
	b.subs = nil
	b.c.live--
	b.c.rec.Bindings(-1)
}
