package live

import (
	"github.com/vango-dev/vbind/pkg/dom"
	"golang.org/x/net/html"
)

// Frame types.
const (
	FrameEvent   = "event"
	FramePing    = "ping"
	FramePong    = "pong"
	FrameSession = "session"
	FrameRender  = "render"
	FrameError   = "error"
)

// Inbound is a frame sent by the client. Event frames carry the state of
// the target control as the browser saw it.
type Inbound struct {
	Type   string `json:"type"`
	Target string `json:"target,omitempty"`
	Event  string `json:"event,omitempty"`

	Value   *string  `json:"value,omitempty"`
	Checked *bool    `json:"checked,omitempty"`
	Values  []string `json:"values,omitempty"`
	Data    string   `json:"data,omitempty"`
}

// Outbound is a frame sent to the client.
type Outbound struct {
	Type    string `json:"type"`
	Session string `json:"session,omitempty"`
	Root    string `json:"root,omitempty"`
	HTML    string `json:"html,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// applyControlState copies the client's view of a control onto target
// before the event is dispatched, so two-way bindings read what the user
// typed or picked.
func applyControlState(target *html.Node, in Inbound) {
	switch dom.Kind(target) {
	case dom.ControlSelect:
		if in.Values != nil {
			selectValues(target, in.Values)
		} else if in.Value != nil {
			selectValues(target, []string{*in.Value})
		}
	case dom.ControlRadio, dom.ControlCheckbox:
		if in.Checked != nil {
			dom.SetChecked(target, *in.Checked)
		}
	case dom.ControlText:
		if in.Value != nil {
			dom.SetValue(target, *in.Value)
		}
	}
}

func selectValues(sel *html.Node, values []string) {
	want := make(map[string]bool, len(values))
	for _, v := range values {
		want[v] = true
	}
	for _, opt := range dom.Options(sel) {
		dom.SetSelected(opt, want[dom.OptionValue(opt)])
	}
}
