package compiler

import (
	"golang.org/x/net/html"

	"github.com/vango-dev/vbind/internal/errors"
	"github.com/vango-dev/vbind/pkg/dom"
	"github.com/vango-dev/vbind/pkg/expr"
	"github.com/vango-dev/vbind/pkg/reactive"
)

// List patch strategies, as reported to the recorder.
const (
	strategyInitial = "initial"
	strategyPush    = "push"
	strategyUnshift = "unshift"
	strategyPop     = "pop"
	strategyShift   = "shift"
	strategyRebuild = "rebuild"
)

// repeat renders one block per element of a sequence. Blocks sit between
// the previous sibling content and a trailing anchor comment; each block
// spans from its first node up to the first node of the next block.
type repeat struct {
	c      *Compiler
	anchor *html.Node
	tmpl   *html.Node
	alias  string
	owner  *Owner
	scope  *expr.Scope
	b      *binding

	arr    *reactive.Array
	blocks []*block
	built  bool
}

type block struct {
	first *html.Node
	owner *Owner
	scope *expr.Scope
}

func (c *Compiler) compileRepeat(n *html.Node, src string, owner *Owner, scope *expr.Scope) {
	alias, source, err := expr.ParseRepeat(src)
	if err != nil {
		c.report(errors.New("E113").WithContext(src).Wrap(err), n, dirFor)
		return
	}
	if n.Parent == nil {
		c.report(errors.New("E113").WithDetail("v-for needs a parent node"), n, dirFor)
		return
	}

	r := &repeat{
		c:      c,
		anchor: dom.NewComment(dirFor),
		tmpl:   n,
		alias:  alias,
		owner:  owner,
		scope:  scope,
	}
	dom.Replace(n, r.anchor)
	r.b = c.bind(owner, scope, r.anchor, dirFor, source, true, r.update)
	if r.b == nil {
		return
	}
	owner.OnCleanup(r.clear)
}

func (r *repeat) update(v, _ any) {
	arr := sequence(v)
	var ch *reactive.Change
	if r.b != nil {
		ch = r.b.pending
	}

	switch {
	case !r.built:
		r.built = true
		r.arr = arr
		r.fill(strategyInitial)
		return
	case arr != r.arr:
		r.arr = arr
		r.rebuild()
		return
	case arr == nil:
		return
	}

	n := r.length()
	if ch == nil || ch.New != arr || !ch.Op.Structural() {
		if len(r.blocks) != n {
			r.rebuild()
		}
		return
	}

	// Bindings in a block read an aliased container under its canonical
	// path, which the index remap does not follow.
	switch ch.Op {
	case reactive.OpUnshift:
		if aliased(arr, nil) {
			r.rebuild()
			return
		}
	case reactive.OpShift:
		if aliased(arr, ch.Args) {
			r.rebuild()
			return
		}
	}

	switch have := len(r.blocks); {
	case ch.Op == reactive.OpPush && have+len(ch.Args) == n:
		for i := have; i < n; i++ {
			r.blocks = append(r.blocks, r.build(i, r.anchor))
		}
		r.c.rec.ListPatched(strategyPush)

	case ch.Op == reactive.OpUnshift && have+len(ch.Args) == n:
		k := len(ch.Args)
		for _, bl := range r.blocks {
			bl.scope.Index += k
		}
		r.c.w.ShiftBackward(arr.Path(), k)
		ref := r.anchor
		if have > 0 {
			ref = r.blocks[0].first
		}
		fresh := make([]*block, 0, k+have)
		for i := 0; i < k; i++ {
			fresh = append(fresh, r.build(i, ref))
		}
		r.blocks = append(fresh, r.blocks...)
		r.c.rec.ListPatched(strategyUnshift)

	case ch.Op == reactive.OpPop && (have == n+1 || have == 0 && n == 0):
		if have > 0 {
			r.destroy(have - 1)
			r.blocks = r.blocks[:have-1]
		}
		r.c.rec.ListPatched(strategyPop)

	case ch.Op == reactive.OpShift && (have == n+1 || have == 0 && n == 0):
		if have > 0 {
			r.destroy(0)
			r.blocks = append([]*block(nil), r.blocks[1:]...)
			for _, bl := range r.blocks {
				bl.scope.Index--
			}
			r.c.w.ShiftForward(arr.Path(), 1)
		}
		r.c.rec.ListPatched(strategyShift)

	default:
		r.rebuild()
	}
}

// fill builds a block for every element.
func (r *repeat) fill(strategy string) {
	for i := 0; i < r.length(); i++ {
		r.blocks = append(r.blocks, r.build(i, r.anchor))
	}
	r.c.rec.ListPatched(strategy)
}

func (r *repeat) rebuild() {
	r.clear()
	if r.arr != nil {
		r.fill(strategyRebuild)
		return
	}
	r.c.rec.ListPatched(strategyRebuild)
}

// clear destroys every block. Blocks go front to back so each one still
// finds the first node of its successor.
func (r *repeat) clear() {
	for i := range r.blocks {
		r.destroy(i)
	}
	r.blocks = nil
}

// build clones the template for element i, inserts it before ref and
// compiles it under a fresh owner.
func (r *repeat) build(i int, ref *html.Node) *block {
	el := dom.Clone(r.tmpl)
	ref.Parent.InsertBefore(el, ref)
	prev := el.PrevSibling

	bl := &block{
		owner: NewOwner(r.owner),
		scope: &expr.Scope{Alias: r.alias, Array: r.arr, Index: i, Parent: r.scope},
	}
	r.c.compileElement(el, bl.owner, bl.scope)

	if prev != nil {
		bl.first = prev.NextSibling
	} else {
		bl.first = ref.Parent.FirstChild
	}
	return bl
}

// destroy disposes block i and removes its nodes.
func (r *repeat) destroy(i int) {
	bl := r.blocks[i]
	bl.owner.Dispose()
	end := r.anchor
	if i+1 < len(r.blocks) {
		end = r.blocks[i+1].first
	}
	for x := bl.first; x != nil && x != end; {
		next := x.NextSibling
		dom.Detach(x)
		x = next
	}
}

func (r *repeat) length() int {
	if r.arr == nil {
		return 0
	}
	n := 0
	r.c.obs.Untracked(func() { n = r.arr.Len() })
	return n
}

// sequence converts the value of a repeat expression into an Array. Literal
// lists are wrapped, a number n iterates 0..n-1 and anything else renders
// nothing.
func sequence(v any) *reactive.Array {
	switch x := v.(type) {
	case *reactive.Array:
		return x
	case []any:
		return reactive.ArrayFrom(x)
	case int64:
		return intRange(int(x))
	case int:
		return intRange(x)
	case float64:
		return intRange(int(x))
	}
	return nil
}

// aliased reports whether a container occurs more than once among the
// elements of arr and extra.
func aliased(arr *reactive.Array, extra []any) bool {
	seen := make(map[any]bool)
	for _, v := range append(arr.Items(), extra...) {
		switch v.(type) {
		case *reactive.Object, *reactive.Array:
			if seen[v] {
				return true
			}
			seen[v] = true
		}
	}
	return false
}

func intRange(n int) *reactive.Array {
	items := make([]any, 0, max(n, 0))
	for i := 0; i < n; i++ {
		items = append(items, int64(i))
	}
	return reactive.ArrayFrom(items)
}
