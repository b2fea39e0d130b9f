package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/vango-dev/vbind/pkg/dom"
	"golang.org/x/net/html"
)

func renderPage(t *testing.T, page PageData) string {
	t.Helper()
	var buf bytes.Buffer
	if err := NewRenderer(RendererConfig{}).RenderPage(&buf, page); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return buf.String()
}

func expectContains(t *testing.T, out string, parts ...string) {
	t.Helper()
	for _, p := range parts {
		if !strings.Contains(out, p) {
			t.Errorf("expected output to contain %q, got %q", p, out)
		}
	}
}

func TestRenderPage(t *testing.T) {
	out := renderPage(t, PageData{
		Body:  parse(t, `<p>{{ greeting }}</p>`).FirstChild,
		Title: "Test Page",
	})

	if !strings.HasPrefix(out, "<!DOCTYPE html>\n") {
		t.Errorf("expected DOCTYPE first, got %q", out)
	}
	expectContains(t, out,
		`<html lang="en">`,
		`<meta charset="utf-8">`,
		`<meta name="viewport"`,
		"<title>Test Page</title>",
		"<body>\n<p>{{ greeting }}</p>\n</body>",
	)
	if strings.Contains(out, "<script") {
		t.Errorf("expected no client script without ClientScript, got %q", out)
	}
}

func TestRenderPageBodyElement(t *testing.T) {
	doc, err := html.Parse(strings.NewReader(`<html><body><main>m</main><!--v-if--></body></html>`))
	if err != nil {
		t.Fatal(err)
	}
	out := renderPage(t, PageData{Body: doc})
	expectContains(t, out, "<body>\n<main>m</main><!--v-if--></body>")
	if strings.Count(out, "<body>") != 1 {
		t.Errorf("expected a single body, got %q", out)
	}
}

func TestRenderPageWithSession(t *testing.T) {
	out := renderPage(t, PageData{
		Body:         dom.NewElement("div"),
		SessionID:    "sess_123abc",
		ClientScript: "/_vbind/client.js",
	})
	expectContains(t, out,
		`window.__VBIND_SESSION__="sess_123abc"`,
		`<script src="/_vbind/client.js" defer></script>`,
	)
	if strings.Index(out, "__VBIND_SESSION__") > strings.Index(out, "client.js") {
		t.Error("expected the session id before the client script")
	}
}

func TestRenderPageHead(t *testing.T) {
	out := renderPage(t, PageData{
		Body: dom.NewElement("div"),
		Lang: "fr",
		Meta: []MetaTag{
			{Name: "description", Content: "Test description"},
			{Property: "og:title", Content: "OG Title"},
			{HTTPEquiv: "X-UA-Compatible", Content: "IE=edge"},
		},
		Links: []LinkTag{
			{Rel: "icon", Href: "/favicon.ico"},
			{Rel: "preconnect", Href: "https://fonts.googleapis.com", CrossOrigin: "anonymous"},
		},
		StyleSheets: []string{"/css/main.css"},
		Styles:      []string{"body { margin: 0; }"},
		Scripts: []ScriptTag{
			{Src: "/js/analytics.js", Async: true},
			{Src: "/js/app.js", Defer: true, Module: true},
			{Inline: "console.log(1)"},
		},
	})
	expectContains(t, out,
		`<html lang="fr">`,
		`<meta name="description" content="Test description">`,
		`<meta property="og:title" content="OG Title">`,
		`<meta http-equiv="X-UA-Compatible" content="IE=edge">`,
		`<link rel="icon" href="/favicon.ico">`,
		`<link rel="preconnect" href="https://fonts.googleapis.com" crossorigin="anonymous">`,
		`<link rel="stylesheet" href="/css/main.css">`,
		"<style>body { margin: 0; }</style>",
		`<script src="/js/analytics.js" async></script>`,
		`<script src="/js/app.js" type="module" defer></script>`,
	)
	if strings.Index(out, "<script>console.log(1)</script>") < strings.Index(out, "<body>") {
		t.Error("expected blocking scripts to be written in the body")
	}
}

func TestRenderPageEscaping(t *testing.T) {
	out := renderPage(t, PageData{
		Body:         dom.NewElement("div"),
		Title:        `<script>alert("xss")</script>`,
		Meta:         []MetaTag{{Name: "description", Content: `"q" & <b>`}},
		SessionID:    `s"1`,
		ClientScript: "/c.js",
	})
	if strings.Contains(out, "<script>alert") {
		t.Errorf("expected title to be escaped, got %q", out)
	}
	expectContains(t, out,
		"&lt;script&gt;alert(&#34;xss&#34;)&lt;/script&gt;",
		`content="&#34;q&#34; &amp; &lt;b&gt;"`,
		`__VBIND_SESSION__="s&#34;1"`,
	)
}
