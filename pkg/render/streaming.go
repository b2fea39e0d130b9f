package render

import (
	"io"
	"net/http"
)

// StreamingRenderer writes pages straight to a response, flushing after the
// head and after the body so the browser starts on styles before the bound
// markup is complete.
type StreamingRenderer struct {
	*Renderer
	flusher http.Flusher
	w       io.Writer
}

// NewStreamingRenderer creates a streaming renderer for w. Flushing is
// skipped when w does not implement http.Flusher.
func NewStreamingRenderer(w http.ResponseWriter, config RendererConfig) *StreamingRenderer {
	flusher, _ := w.(http.Flusher)
	return &StreamingRenderer{
		Renderer: NewRenderer(config),
		flusher:  flusher,
		w:        w,
	}
}

// RenderPage writes page to the response. The output is the same as
// Renderer.RenderPage.
func (s *StreamingRenderer) RenderPage(page PageData) error {
	var flush func()
	if s.flusher != nil {
		flush = s.flusher.Flush
	}
	return s.writePage(s.w, page, flush)
}
