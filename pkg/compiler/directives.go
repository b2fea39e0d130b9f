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

// compileShow toggles the inline display of n and, inversely, of its v-else
// companion.
func (c *Compiler) compileShow(n *html.Node, src string, owner *Owner, scope *expr.Scope) {
	var st, elseSt updater.DisplayState
	other := companion(n)
	c.bind(owner, scope, n, dirShow, src, false, func(v, _ any) {
		show := expr.Truthy(v)
		c.patched(updater.OpDisplay, updater.Display(n, show, &st))
		if other != nil {
			c.patched(updater.OpDisplay, updater.Display(other, !show, &elseSt))
		}
	})
}

// compileIf replaces n by an anchor comment and keeps n as the template of
// the conditional subtree. Each time the condition turns true a fresh copy is
// inserted after the anchor and compiled against the current model; when it
// turns false the copy is disposed and detached.
func (c *Compiler) compileIf(n *html.Node, src string, owner *Owner, scope *expr.Scope) {
	if n.Parent == nil {
		c.report(errors.New("E110").WithDetail("v-if needs a parent node"), n, dirIf)
		return
	}
	other := companion(n)
	anchor := dom.NewComment(dirIf)
	dom.Replace(n, anchor)
	tmpl := n

	var (
		cur    *html.Node
		branch *Owner
		elseSt updater.DisplayState
	)
	c.bind(owner, scope, anchor, dirIf, src, false, func(v, _ any) {
		show := expr.Truthy(v)
		switch {
		case show && cur == nil:
			cur = dom.Clone(tmpl)
			updater.Render(anchor, cur, true)
			branch = NewOwner(owner)
			c.compileElement(cur, branch, scope)
			c.patched(updater.OpRender, true)
		case !show && cur != nil:
			branch.Dispose()
			updater.Render(anchor, cur, false)
			cur, branch = nil, nil
			c.patched(updater.OpRender, true)
		}
		if other != nil {
			c.patched(updater.OpDisplay, updater.Display(other, !show, &elseSt))
		}
	})
}

// compileBind handles v-bind:attr and the object form v-bind="{...}".
func (c *Compiler) compileBind(n *html.Node, directive, attr, src string, owner *Owner, scope *expr.Scope) {
	if attr != "" {
		c.bindAttr(n, directive, attr, src, owner, scope)
		return
	}
	pairs, ok := expr.ParseObjectLiteral(src)
	if !ok {
		c.report(errors.New("E115").
			WithContext(src).
			WithSuggestion("Use v-bind:name=\"expr\" or v-bind=\"{ name: expr }\""), n, directive)
		return
	}
	for _, p := range pairs {
		c.bindAttr(n, directive, p.Key, p.Value, owner, scope)
	}
}

func (c *Compiler) bindAttr(n *html.Node, directive, attr, src string, owner *Owner, scope *expr.Scope) {
	attr = strings.ToLower(attr)
	var update func(v, old any)
	switch attr {
	case "class":
		update = func(v, old any) { c.patched(updater.OpClass, updater.Class(n, v, old)) }
	case "style":
		update = func(v, old any) { c.patched(updater.OpStyle, updater.Style(n, v, old)) }
	default:
		update = func(v, _ any) { c.patched(updater.OpAttr, updater.Attr(n, attr, v)) }
	}
	c.bind(owner, scope, n, directive, src, false, update)
}

// compileEl captures n into the model. At top level the target is any
// assignable model path; inside a repeat block only a field of the current
// loop variable.
func (c *Compiler) compileEl(n *html.Node, directive, src string, scope *expr.Scope) {
	path, err := expr.ParsePath(src)
	if err != nil {
		c.report(errors.New("E116").WithContext(src).Wrap(err), n, directive)
		return
	}
	if scope.Depth() > 0 && (len(path) != 2 || path[0] != scope.Alias) {
		c.report(errors.New("E114").
			WithContext(src).
			WithSuggestion(fmt.Sprintf("Capture into %s.<field> or move v-el out of the loop", scope.Alias)), n, directive)
		return
	}
	if err := c.assign(path, scope, n); err != nil {
		c.report(errors.New("E116").WithContext(src).Wrap(err), n, directive)
	}
}
