package render

import (
	"bytes"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vango-dev/vbind/pkg/dom"
)

func TestStreamingRendererRenderPage(t *testing.T) {
	w := httptest.NewRecorder()
	sr := NewStreamingRenderer(w, RendererConfig{})

	body := dom.NewElement("div")
	body.AppendChild(dom.NewText("Streamed Content"))
	err := sr.RenderPage(PageData{
		Body:         body,
		Title:        "Streaming Test",
		SessionID:    "test_session",
		ClientScript: "/_vbind/client.js",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := w.Body.String()
	if !strings.HasPrefix(out, "<!DOCTYPE html>") {
		t.Errorf("expected DOCTYPE first, got %q", out)
	}
	expectContains(t, out,
		"<title>Streaming Test</title>",
		"<div>Streamed Content</div>",
		`window.__VBIND_SESSION__="test_session"`,
	)
	if !w.Flushed {
		t.Error("expected the recorder to be flushed")
	}
}

type countingFlusher struct {
	bytes.Buffer
	flushes []int
}

func (c *countingFlusher) Flush() { c.flushes = append(c.flushes, c.Len()) }

func TestStreamingRendererFlushes(t *testing.T) {
	fw := &countingFlusher{}
	sr := &StreamingRenderer{
		Renderer: NewRenderer(RendererConfig{}),
		flusher:  fw,
		w:        fw,
	}

	if err := sr.RenderPage(PageData{Body: dom.NewElement("div"), Title: "Flush Test"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// head, body, end
	if len(fw.flushes) != 3 {
		t.Fatalf("expected 3 flushes, got %d", len(fw.flushes))
	}
	out := fw.String()
	if head := out[:fw.flushes[0]]; !strings.HasSuffix(head, "</head>\n") {
		t.Errorf("expected the first flush after the head, got %q", head)
	}
	if fw.flushes[2] != len(out) {
		t.Errorf("expected a final flush at the end, got %d of %d", fw.flushes[2], len(out))
	}
}

func TestStreamingRendererMatchesRenderPage(t *testing.T) {
	page := PageData{Body: parse(t, `<ul><li>a</li><!--v-for--></ul>`), Title: "Same"}

	var buf bytes.Buffer
	if err := NewRenderer(RendererConfig{}).RenderPage(&buf, page); err != nil {
		t.Fatal(err)
	}
	w := httptest.NewRecorder()
	if err := NewStreamingRenderer(w, RendererConfig{}).RenderPage(page); err != nil {
		t.Fatal(err)
	}
	if buf.String() != w.Body.String() {
		t.Errorf("expected identical output, got %q and %q", buf.String(), w.Body.String())
	}
}

func TestStreamingRendererNilFlusher(t *testing.T) {
	var buf bytes.Buffer
	sr := &StreamingRenderer{
		Renderer: NewRenderer(RendererConfig{}),
		w:        &buf,
	}
	if err := sr.RenderPage(PageData{Body: dom.NewElement("p")}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "<p></p>") {
		t.Errorf("expected content, got %q", buf.String())
	}
}
