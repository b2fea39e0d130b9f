package render

import (
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

type atomSet map[atom.Atom]bool

func setOf(atoms ...atom.Atom) atomSet {
	s := make(atomSet, len(atoms))
	for _, a := range atoms {
		s[a] = true
	}
	return s
}

// has reports whether the tag of n is in the set. Nodes built by hand may
// lack a DataAtom, so the tag name is looked up then.
func (s atomSet) has(n *html.Node) bool {
	a := n.DataAtom
	if a == 0 {
		a = atom.Lookup([]byte(n.Data))
	}
	return a != 0 && s[a]
}

var (
	// Elements without content or end tag.
	voidElements = setOf(
		atom.Area, atom.Base, atom.Br, atom.Col, atom.Embed, atom.Hr, atom.Img,
		atom.Input, atom.Link, atom.Meta, atom.Param, atom.Source, atom.Track, atom.Wbr,
	)

	// Phrasing elements stay on one line in pretty output.
	inlineElements = setOf(
		atom.A, atom.Abbr, atom.B, atom.Bdi, atom.Bdo, atom.Br, atom.Cite, atom.Code,
		atom.Data, atom.Dfn, atom.Em, atom.I, atom.Kbd, atom.Mark, atom.Q, atom.Rb,
		atom.Rp, atom.Rt, atom.Rtc, atom.Ruby, atom.S, atom.Samp, atom.Small,
		atom.Span, atom.Strong, atom.Sub, atom.Sup, atom.Time, atom.U, atom.Var,
		atom.Wbr,
	)

	// Elements whose text is written without escaping.
	rawTextElements = setOf(atom.Script, atom.Style)
)

// booleanAttrs are written bare when their value is empty, which is how
// v-bind leaves them for true.
var booleanAttrs = map[string]bool{
	"allowfullscreen": true, "async": true, "autofocus": true, "autoplay": true,
	"checked": true, "controls": true, "default": true, "defer": true,
	"disabled": true, "formnovalidate": true, "hidden": true, "ismap": true,
	"itemscope": true, "loop": true, "multiple": true, "muted": true,
	"nomodule": true, "novalidate": true, "open": true, "playsinline": true,
	"readonly": true, "required": true, "reversed": true, "selected": true,
}
