package live

import (
	"reflect"
	"testing"

	"github.com/vango-dev/vbind/pkg/dom"
)

func TestApplyControlState(t *testing.T) {
	on, off := true, false

	t.Run("text", func(t *testing.T) {
		in := dom.NewElement("input")
		applyControlState(in, Inbound{Value: strPtr("typed")})
		if got := dom.Value(in); got != "typed" {
			t.Errorf("expected typed, got %q", got)
		}
	})

	t.Run("checkbox", func(t *testing.T) {
		cb := dom.NewElement("input")
		dom.SetAttr(cb, "type", "checkbox")
		applyControlState(cb, Inbound{Checked: &on})
		if !dom.Checked(cb) {
			t.Error("expected checked")
		}
		applyControlState(cb, Inbound{Checked: &off, Value: strPtr("ignored")})
		if dom.Checked(cb) {
			t.Error("expected unchecked")
		}
	})

	t.Run("select", func(t *testing.T) {
		nodes, err := dom.ParseFragment(`<select multiple><option>a</option><option>b</option><option>c</option></select>`)
		if err != nil {
			t.Fatal(err)
		}
		sel := nodes[0]
		applyControlState(sel, Inbound{Values: []string{"a", "c"}})
		if got := dom.SelectedValues(sel); !reflect.DeepEqual(got, []string{"a", "c"}) {
			t.Errorf("expected [a c], got %v", got)
		}
		applyControlState(sel, Inbound{Value: strPtr("b")})
		if got := dom.SelectedValues(sel); !reflect.DeepEqual(got, []string{"b"}) {
			t.Errorf("expected [b], got %v", got)
		}
	})

	t.Run("missing state", func(t *testing.T) {
		in := dom.NewElement("textarea")
		dom.SetValue(in, "kept")
		applyControlState(in, Inbound{})
		if got := dom.Value(in); got != "kept" {
			t.Errorf("expected kept, got %q", got)
		}
	})
}

func TestPageData(t *testing.T) {
	doc := parseDoc(t, `<html lang="fr"><head>`+
		`<meta charset="utf-8"><meta name="viewport" content="x"><meta property="og:title" content="T">`+
		`<title> Shop </title><style>p{color:red}</style>`+
		`<script src="/a.js" defer></script><script type="module">go()</script>`+
		`</head><body><p>x</p></body></html>`)

	page := pageData(doc, "")
	if page.Lang != "fr" || page.Title != "Shop" {
		t.Errorf("expected fr/Shop, got %q/%q", page.Lang, page.Title)
	}
	if len(page.Meta) != 1 || page.Meta[0].Property != "og:title" {
		t.Errorf("expected only og:title meta, got %+v", page.Meta)
	}
	if len(page.Styles) != 1 || page.Styles[0] != "p{color:red}" {
		t.Errorf("unexpected styles %v", page.Styles)
	}
	if len(page.Scripts) != 2 || !page.Scripts[0].Defer || !page.Scripts[1].Module || page.Scripts[1].Inline != "go()" {
		t.Errorf("unexpected scripts %+v", page.Scripts)
	}
	if page.Body != doc {
		t.Error("expected the document as body")
	}

	if got := pageData(doc, "Override").Title; got != "Override" {
		t.Errorf("expected Override, got %q", got)
	}
}
