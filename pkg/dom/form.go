package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// ControlKind classifies form controls for two-way binding.
type ControlKind uint8

const (
	ControlNone ControlKind = iota
	ControlText
	ControlRadio
	ControlCheckbox
	ControlSelect
)

// Kind returns the control kind of n.
func Kind(n *html.Node) ControlKind {
	if !IsElement(n) {
		return ControlNone
	}
	switch n.Data {
	case "textarea":
		return ControlText
	case "select":
		return ControlSelect
	case "input":
		t, _ := Attr(n, "type")
		switch strings.ToLower(t) {
		case "radio":
			return ControlRadio
		case "checkbox":
			return ControlCheckbox
		case "button", "submit", "reset", "image", "file":
			return ControlNone
		default:
			return ControlText
		}
	}
	return ControlNone
}

// Value returns the current value of a form control. For a select it is the
// value of the first selected option.
func Value(n *html.Node) string {
	switch n.Data {
	case "textarea":
		return TextContent(n)
	case "select":
		for _, opt := range Options(n) {
			if HasAttr(opt, "selected") {
				return OptionValue(opt)
			}
		}
		return ""
	case "option":
		return OptionValue(n)
	}
	v, _ := Attr(n, "value")
	return v
}

// SetValue sets the current value of a text control.
func SetValue(n *html.Node, v string) {
	if n.Data == "textarea" {
		SetTextContent(n, v)
		return
	}
	SetAttr(n, "value", v)
}

// Checked reports whether a radio or checkbox is checked.
func Checked(n *html.Node) bool {
	return HasAttr(n, "checked")
}

// SetChecked sets the checked state.
func SetChecked(n *html.Node, on bool) {
	if on {
		SetAttr(n, "checked", "")
		return
	}
	RemoveAttr(n, "checked")
}

// Multiple reports whether a select accepts several options.
func Multiple(n *html.Node) bool {
	return HasAttr(n, "multiple")
}

// Options returns the option elements of a select, including those inside
// optgroups.
func Options(n *html.Node) []*html.Node {
	var out []*html.Node
	Walk(n, func(x *html.Node) bool {
		if IsElement(x) && x.Data == "option" {
			out = append(out, x)
			return false
		}
		return true
	})
	return out
}

// OptionValue returns the value attribute of an option, or its text.
func OptionValue(opt *html.Node) string {
	if v, ok := Attr(opt, "value"); ok {
		return v
	}
	return strings.TrimSpace(TextContent(opt))
}

// SelectedValues returns the values of every selected option.
func SelectedValues(n *html.Node) []string {
	var out []string
	for _, opt := range Options(n) {
		if HasAttr(opt, "selected") {
			out = append(out, OptionValue(opt))
		}
	}
	return out
}

// SetSelected sets the selected state of an option.
func SetSelected(opt *html.Node, on bool) {
	if on {
		SetAttr(opt, "selected", "")
		return
	}
	RemoveAttr(opt, "selected")
}
