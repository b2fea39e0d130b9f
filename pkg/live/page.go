package live

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/vango-dev/vbind/pkg/dom"
	"github.com/vango-dev/vbind/pkg/render"
)

// pageData lifts the head of a template document into render.PageData.
// The body is the document itself; the renderer writes only its body.
func pageData(doc *html.Node, title string) render.PageData {
	page := render.PageData{Body: doc}
	dom.Walk(doc, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return true
		}
		switch n.Data {
		case "html":
			page.Lang, _ = dom.Attr(n, "lang")
			return true
		case "head":
			headInto(&page, n)
			return false
		case "body":
			return false
		}
		return true
	})
	if title != "" {
		page.Title = title
	}
	return page
}

func headInto(page *render.PageData, head *html.Node) {
	for n := head.FirstChild; n != nil; n = n.NextSibling {
		if n.Type != html.ElementNode {
			continue
		}
		attr := func(key string) string {
			v, _ := dom.Attr(n, key)
			return v
		}
		switch n.Data {
		case "title":
			page.Title = strings.TrimSpace(dom.TextContent(n))
		case "meta":
			// charset and viewport are always written.
			if dom.HasAttr(n, "charset") || attr("name") == "viewport" {
				continue
			}
			page.Meta = append(page.Meta, render.MetaTag{
				Name:      attr("name"),
				Content:   attr("content"),
				Property:  attr("property"),
				HTTPEquiv: attr("http-equiv"),
			})
		case "link":
			page.Links = append(page.Links, render.LinkTag{
				Rel:         attr("rel"),
				Href:        attr("href"),
				Type:        attr("type"),
				Sizes:       attr("sizes"),
				CrossOrigin: attr("crossorigin"),
				Media:       attr("media"),
			})
		case "style":
			page.Styles = append(page.Styles, dom.TextContent(n))
		case "script":
			typ := attr("type")
			page.Scripts = append(page.Scripts, render.ScriptTag{
				Src:    attr("src"),
				Type:   typ,
				Module: typ == "module",
				Defer:  dom.HasAttr(n, "defer"),
				Async:  dom.HasAttr(n, "async"),
				Inline: dom.TextContent(n),
			})
		}
	}
}
