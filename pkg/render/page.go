package render

import (
	"fmt"
	"io"

	"golang.org/x/net/html"
)

// PageData contains all data needed to render a complete HTML page.
type PageData struct {
	// Body is the mounted root. When it is a body element or a document
	// only its children are written.
	Body *html.Node

	// Title is the page title
	Title string

	// Meta contains meta tags for the page
	Meta []MetaTag

	// Links contains link tags (stylesheets, favicon, etc.)
	Links []LinkTag

	// Scripts contains script tags to include
	Scripts []ScriptTag

	// Styles contains inline CSS styles
	Styles []string

	// SessionID is the session identifier for WebSocket reconnection
	SessionID string

	// ClientScript is the path to the live client JavaScript.
	// No client is injected when it is empty.
	ClientScript string

	// StyleSheets contains paths to external stylesheets
	StyleSheets []string

	// Lang is the language attribute for the html element
	// Defaults to "en" if not specified
	Lang string
}

// MetaTag represents a meta element in the document head.
type MetaTag struct {
	Name      string // name attribute
	Content   string // content attribute
	Property  string // property attribute (for OpenGraph)
	HTTPEquiv string // http-equiv attribute
	Charset   string // charset attribute
}

// LinkTag represents a link element in the document head.
type LinkTag struct {
	Rel         string // rel attribute
	Href        string // href attribute
	Type        string // type attribute
	Sizes       string // sizes attribute
	CrossOrigin string // crossorigin attribute
	Media       string // media attribute
}

// ScriptTag represents a script element.
type ScriptTag struct {
	Src    string // src attribute
	Type   string // type attribute
	Defer  bool   // defer attribute
	Async  bool   // async attribute
	Module bool   // type="module"
	Inline string // inline script content
}

// RenderPage renders a complete HTML document to the given writer.
func (r *Renderer) RenderPage(w io.Writer, page PageData) error {
	return r.writePage(w, page, nil)
}

// writePage writes the document in three sections: head, body content and
// the closing scripts. flush, when set, runs after each one.
func (r *Renderer) writePage(w io.Writer, page PageData, flush func()) error {
	if flush == nil {
		flush = func() {}
	}
	lang := page.Lang
	if lang == "" {
		lang = "en"
	}
	if _, err := fmt.Fprintf(w, "<!DOCTYPE html>\n<html lang=\"%s\">\n", escapeAttr(lang)); err != nil {
		return err
	}
	if err := r.renderHead(w, page); err != nil {
		return err
	}
	flush()

	if _, err := io.WriteString(w, "<body>\n"); err != nil {
		return err
	}
	if err := r.renderBody(w, page.Body); err != nil {
		return err
	}
	if err := r.renderBodyScripts(w, page); err != nil {
		return err
	}
	flush()

	if err := r.renderClientScript(w, page); err != nil {
		return err
	}
	if _, err := io.WriteString(w, "</body>\n</html>\n"); err != nil {
		return err
	}
	flush()
	return nil
}

// renderHead renders the document head section.
func (r *Renderer) renderHead(w io.Writer, page PageData) error {
	if _, err := w.Write([]byte("<head>\n")); err != nil {
		return err
	}

	// Charset
	if _, err := w.Write([]byte(`  <meta charset="utf-8">` + "\n")); err != nil {
		return err
	}

	// Viewport
	if _, err := w.Write([]byte(`  <meta name="viewport" content="width=device-width, initial-scale=1">` + "\n")); err != nil {
		return err
	}

	// Title
	if page.Title != "" {
		if _, err := fmt.Fprintf(w, "  <title>%s</title>\n", html.EscapeString(page.Title)); err != nil {
			return err
		}
	}

	// Meta tags
	for _, meta := range page.Meta {
		if err := r.renderMetaTag(w, meta); err != nil {
			return err
		}
	}

	// Link tags (stylesheets, favicon, etc.)
	for _, link := range page.Links {
		if err := r.renderLinkTag(w, link); err != nil {
			return err
		}
	}

	// Stylesheets
	for _, href := range page.StyleSheets {
		if _, err := fmt.Fprintf(w, `  <link rel="stylesheet" href="%s">`+"\n", escapeAttr(href)); err != nil {
			return err
		}
	}

	// Inline styles
	for _, style := range page.Styles {
		if _, err := fmt.Fprintf(w, "  <style>%s</style>\n", style); err != nil {
			return err
		}
	}

	// Scripts in head (defer/async)
	for _, script := range page.Scripts {
		if script.Defer || script.Async {
			if err := r.renderScriptTag(w, script); err != nil {
				return err
			}
		}
	}

	if _, err := w.Write([]byte("</head>\n")); err != nil {
		return err
	}

	return nil
}

// renderMetaTag renders a meta element.
func (r *Renderer) renderMetaTag(w io.Writer, meta MetaTag) error {
	if _, err := w.Write([]byte("  <meta")); err != nil {
		return err
	}

	if meta.Charset != "" {
		if _, err := fmt.Fprintf(w, ` charset="%s"`, escapeAttr(meta.Charset)); err != nil {
			return err
		}
	}

	if meta.Name != "" {
		if _, err := fmt.Fprintf(w, ` name="%s"`, escapeAttr(meta.Name)); err != nil {
			return err
		}
	}

	if meta.Property != "" {
		if _, err := fmt.Fprintf(w, ` property="%s"`, escapeAttr(meta.Property)); err != nil {
			return err
		}
	}

	if meta.HTTPEquiv != "" {
		if _, err := fmt.Fprintf(w, ` http-equiv="%s"`, escapeAttr(meta.HTTPEquiv)); err != nil {
			return err
		}
	}

	if meta.Content != "" {
		if _, err := fmt.Fprintf(w, ` content="%s"`, escapeAttr(meta.Content)); err != nil {
			return err
		}
	}

	if _, err := w.Write([]byte(">\n")); err != nil {
		return err
	}

	return nil
}

// renderLinkTag renders a link element.
func (r *Renderer) renderLinkTag(w io.Writer, link LinkTag) error {
	if _, err := w.Write([]byte("  <link")); err != nil {
		return err
	}

	if link.Rel != "" {
		if _, err := fmt.Fprintf(w, ` rel="%s"`, escapeAttr(link.Rel)); err != nil {
			return err
		}
	}

	if link.Href != "" {
		if _, err := fmt.Fprintf(w, ` href="%s"`, escapeAttr(link.Href)); err != nil {
			return err
		}
	}

	if link.Type != "" {
		if _, err := fmt.Fprintf(w, ` type="%s"`, escapeAttr(link.Type)); err != nil {
			return err
		}
	}

	if link.Sizes != "" {
		if _, err := fmt.Fprintf(w, ` sizes="%s"`, escapeAttr(link.Sizes)); err != nil {
			return err
		}
	}

	if link.CrossOrigin != "" {
		if _, err := fmt.Fprintf(w, ` crossorigin="%s"`, escapeAttr(link.CrossOrigin)); err != nil {
			return err
		}
	}

	if link.Media != "" {
		if _, err := fmt.Fprintf(w, ` media="%s"`, escapeAttr(link.Media)); err != nil {
			return err
		}
	}

	if _, err := w.Write([]byte(">\n")); err != nil {
		return err
	}

	return nil
}

// renderScriptTag renders a script element.
func (r *Renderer) renderScriptTag(w io.Writer, script ScriptTag) error {
	if _, err := w.Write([]byte("  <script")); err != nil {
		return err
	}

	if script.Src != "" {
		if _, err := fmt.Fprintf(w, ` src="%s"`, escapeAttr(script.Src)); err != nil {
			return err
		}
	}

	if script.Module {
		if _, err := w.Write([]byte(` type="module"`)); err != nil {
			return err
		}
	} else if script.Type != "" {
		if _, err := fmt.Fprintf(w, ` type="%s"`, escapeAttr(script.Type)); err != nil {
			return err
		}
	}

	if script.Defer {
		if _, err := w.Write([]byte(" defer")); err != nil {
			return err
		}
	}

	if script.Async {
		if _, err := w.Write([]byte(" async")); err != nil {
			return err
		}
	}

	if _, err := w.Write([]byte(">")); err != nil {
		return err
	}

	if script.Inline != "" {
		if _, err := w.Write([]byte(script.Inline)); err != nil {
			return err
		}
	}

	if _, err := w.Write([]byte("</script>\n")); err != nil {
		return err
	}

	return nil
}

// renderBody writes the page content. A body element or document
// contributes its children only.
func (r *Renderer) renderBody(w io.Writer, n *html.Node) error {
	if n == nil {
		return nil
	}
	if n.Type == html.DocumentNode {
		if body := findBody(n); body != nil {
			n = body
		}
	}
	if n.Type == html.ElementNode && n.Data == "body" {
		return r.RenderChildren(w, n)
	}
	if err := r.RenderToWriter(w, n); err != nil {
		return err
	}
	if !r.config.Pretty {
		_, err := w.Write([]byte{'\n'})
		return err
	}
	return nil
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}

// renderBodyScripts writes the scripts that run once the body is parsed.
func (r *Renderer) renderBodyScripts(w io.Writer, page PageData) error {
	for _, script := range page.Scripts {
		if !script.Defer && !script.Async {
			if err := r.renderScriptTag(w, script); err != nil {
				return err
			}
		}
	}
	return nil
}

// renderClientScript injects the live client when the page is served by a
// session.
func (r *Renderer) renderClientScript(w io.Writer, page PageData) error {
	if page.ClientScript == "" {
		return nil
	}

	if page.SessionID != "" {
		if _, err := fmt.Fprintf(w, `  <script>window.__VBIND_SESSION__="%s";</script>`+"\n",
			escapeAttr(page.SessionID)); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(w, `  <script src="%s" defer></script>`+"\n",
		escapeAttr(page.ClientScript)); err != nil {
		return err
	}

	return nil
}
