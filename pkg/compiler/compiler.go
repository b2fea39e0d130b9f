// Package compiler turns directive-annotated markup into live bindings.
//
// Compile makes one depth-first pass over a subtree. Interpolated text and
// v-* attributes become bindings: each evaluates its expression under
// dependency tracking, subscribes to every access path it read and applies
// the result through the updater. Directive attributes are stripped as they
// are compiled, except v-else which stays as the companion marker.
//
// Compile errors are reported and the offending directive is skipped; the
// rest of the subtree still compiles.
package compiler

import (
	"log/slog"
	"strings"

	"golang.org/x/net/html"

	"github.com/vango-dev/vbind/internal/errors"
	"github.com/vango-dev/vbind/pkg/dom"
	"github.com/vango-dev/vbind/pkg/expr"
	"github.com/vango-dev/vbind/pkg/reactive"
	"github.com/vango-dev/vbind/pkg/telemetry"
	"github.com/vango-dev/vbind/pkg/updater"
	"github.com/vango-dev/vbind/pkg/watcher"
)

// Directive attribute names.
const (
	dirText  = "v-text"
	dirHTML  = "v-html"
	dirShow  = "v-show"
	dirIf    = "v-if"
	dirElse  = "v-else"
	dirFor   = "v-for"
	dirBind  = "v-bind"
	dirOn    = "v-on"
	dirModel = "v-model"
	dirEl    = "v-el"
	dirPre   = "v-pre"
)

// Handler is the signature of methods registered with the engine. Handlers
// receive the evaluated argument list, or the event when the markup names
// the handler without parentheses.
type Handler func(args ...any)

// Config wires a Compiler to the engine it compiles for.
type Config struct {
	Evaluator *expr.Evaluator
	Observer  *reactive.Observer
	Watcher   *watcher.Watcher
	Events    *dom.Events
	Reporter  *errors.Reporter

	// Methods is the handler table consulted by v-on before model fields.
	Methods map[string]any

	// Recorder receives patch and binding counts. Defaults to telemetry.Nop.
	Recorder telemetry.Recorder

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Compiler compiles subtrees against one model.
// It is not safe for concurrent use.
type Compiler struct {
	ev       *expr.Evaluator
	obs      *reactive.Observer
	w        *watcher.Watcher
	events   *dom.Events
	reporter *errors.Reporter
	methods  map[string]any
	rec      telemetry.Recorder
	logger   *slog.Logger

	relays map[string]*watcher.Subscription
	live   int
}

// New creates a Compiler.
func New(cfg Config) *Compiler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	methods := cfg.Methods
	if methods == nil {
		methods = map[string]any{}
	}
	return &Compiler{
		ev:       cfg.Evaluator,
		obs:      cfg.Observer,
		w:        cfg.Watcher,
		events:   cfg.Events,
		reporter: cfg.Reporter,
		methods:  methods,
		rec:      telemetry.OrNop(cfg.Recorder),
		logger:   logger.With("component", "compiler"),
		relays:   make(map[string]*watcher.Subscription),
	}
}

// Compile compiles the children of root. Everything created is released
// when owner is disposed.
func (c *Compiler) Compile(root *html.Node, owner *Owner) {
	before := c.live
	c.compileChildren(root, owner, nil)
	c.logger.Debug("compiled", "node", dom.Describe(root), "bindings", c.live-before)
}

// Bindings returns the number of live bindings.
func (c *Compiler) Bindings() int {
	return c.live
}

func (c *Compiler) compileChildren(parent *html.Node, owner *Owner, scope *expr.Scope) {
	for n := parent.FirstChild; n != nil; {
		next := n.NextSibling
		switch n.Type {
		case html.TextNode:
			c.compileText(n, owner, scope)
		case html.ElementNode:
			c.compileElement(n, owner, scope)
		}
		n = next
	}
}

func (c *Compiler) compileElement(n *html.Node, owner *Owner, scope *expr.Scope) {
	switch n.Data {
	case "script", "style":
		return
	}
	if dom.RemoveAttr(n, dirPre) {
		return
	}
	// v-for takes precedence over everything else on the element; its
	// template keeps the remaining directives for each block.
	if src, ok := dom.Attr(n, dirFor); ok {
		dom.RemoveAttr(n, dirFor)
		c.compileRepeat(n, src, owner, scope)
		return
	}
	if src, ok := dom.Attr(n, dirIf); ok {
		dom.RemoveAttr(n, dirIf)
		c.compileIf(n, src, owner, scope)
		return
	}

	content := false
	var deferred []func()
	for _, a := range append([]html.Attribute(nil), n.Attr...) {
		if a.Namespace != "" || !strings.HasPrefix(a.Key, "v-") || a.Key == dirElse {
			continue
		}
		dom.RemoveAttr(n, a.Key)
		name, arg := a.Key, ""
		if i := strings.IndexByte(a.Key, ':'); i >= 0 {
			name, arg = a.Key[:i], a.Key[i+1:]
		}
		switch name {
		case dirText:
			content = true
			c.compileContent(n, a.Key, a.Val, owner, scope, false)
		case dirHTML:
			content = true
			c.compileContent(n, a.Key, a.Val, owner, scope, true)
		case dirShow:
			c.compileShow(n, a.Val, owner, scope)
		case dirBind:
			c.compileBind(n, a.Key, arg, a.Val, owner, scope)
		case dirOn:
			c.compileOn(n, a.Key, arg, a.Val, owner, scope)
		case dirModel:
			key, src := a.Key, a.Val
			deferred = append(deferred, func() { c.compileModel(n, key, src, owner, scope) })
		case dirEl:
			c.compileEl(n, a.Key, a.Val, scope)
		default:
			c.report(errors.New("E110").WithSuggestion("Remove the attribute or use a supported directive"), n, a.Key)
		}
	}

	if !content {
		c.compileChildren(n, owner, scope)
	}
	// v-model runs last so options rendered by the children are in place
	// when the initial selection is synchronized.
	for _, fn := range deferred {
		fn()
	}
}

// compileText splits a text node into literal text, escaped expression nodes
// and raw markup ranges.
func (c *Compiler) compileText(n *html.Node, owner *Owner, scope *expr.Scope) {
	if p := n.Parent; p != nil && p.Type == html.ElementNode && (p.Data == "script" || p.Data == "style") {
		return
	}
	toks := expr.ParseText(n.Data)
	if toks == nil {
		return
	}

	raw, literal := false, false
	for _, t := range toks {
		switch {
		case t.Raw:
			raw = true
		case !t.Expr && strings.TrimSpace(t.Text) != "":
			literal = true
		}
	}
	if raw && literal {
		c.report(errors.New("E111").WithContext(n.Data), n, "{{{ }}}")
		return
	}

	parent := n.Parent
	for _, t := range toks {
		switch {
		case !t.Expr:
			parent.InsertBefore(dom.NewText(t.Text), n)
		case t.Raw:
			start, end := dom.NewComment("v-html"), dom.NewComment("/v-html")
			parent.InsertBefore(start, n)
			parent.InsertBefore(end, n)
			directive := "{{{ " + t.Text + " }}}"
			c.bind(owner, scope, start, directive, t.Text, false, func(v, _ any) {
				if err := updater.MarkupRange(start, end, v); err != nil {
					c.report(errors.New("E200").Wrap(err), start, directive)
					return
				}
				c.patched(updater.OpMarkup, true)
			})
		default:
			txt := dom.NewText("")
			parent.InsertBefore(txt, n)
			c.bind(owner, scope, txt, "{{ "+t.Text+" }}", t.Text, false, func(v, _ any) {
				c.patched(updater.OpText, updater.Text(txt, v))
			})
		}
	}
	parent.RemoveChild(n)
}

func (c *Compiler) compileContent(n *html.Node, directive, src string, owner *Owner, scope *expr.Scope, markup bool) {
	c.bind(owner, scope, n, directive, src, false, func(v, _ any) {
		if !markup {
			c.patched(updater.OpText, updater.Text(n, v))
			return
		}
		changed, err := updater.Markup(n, v)
		if err != nil {
			c.report(errors.New("E200").Wrap(err), n, directive)
			return
		}
		c.patched(updater.OpMarkup, changed)
	})
}

// report attaches the node and directive to err and reports it.
func (c *Compiler) report(err error, n *html.Node, directive string) {
	ve, ok := err.(*errors.VangoError)
	if !ok {
		ve = errors.FromError(err, "E200")
	}
	c.reporter.Report(ve.WithNode(dom.Describe(n)).WithDirective(directive))
}

func (c *Compiler) patched(op updater.Op, changed bool) {
	if changed {
		c.rec.Patched(op.String())
	}
}

// relay makes sure changes below field are re-raised to exact-path
// subscribers. One relay per field serves every deep binding.
func (c *Compiler) relay(field string) {
	if s, ok := c.relays[field]; ok && s.Active() {
		return
	}
	s, err := c.w.AddDeep(field, func(ch reactive.Change) {
		if ch.Path != field {
			c.w.TriggerAccess(ch)
		}
	})
	if err != nil {
		return
	}
	c.relays[field] = s
}

// companion returns the v-else element directly following n, if any.
func companion(n *html.Node) *html.Node {
	if s := dom.NextElementSibling(n); s != nil && dom.HasAttr(s, dirElse) {
		return s
	}
	return nil
}
