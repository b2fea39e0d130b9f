package updater

// Op identifies the kind of DOM mutation an update performs.
type Op uint8

const (
	OpText     Op = 0x01 // Update text content
	OpMarkup   Op = 0x02 // Replace content with parsed markup
	OpDisplay  Op = 0x03 // Toggle display style
	OpRender   Op = 0x04 // Insert or remove a subtree
	OpAttr     Op = 0x05 // Set or remove an attribute
	OpClass    Op = 0x06 // Add or remove class names
	OpStyle    Op = 0x07 // Set or clear inline style properties
	OpListen   Op = 0x08 // Attach or detach a listener
	OpValue    Op = 0x09 // Set a control's value
	OpChecked  Op = 0x0A // Set checkbox or radio checked state
	OpSelected Op = 0x0B // Set select option selection
)

// String returns the string representation of the Op.
func (op Op) String() string {
	switch op {
	case OpText:
		return "text"
	case OpMarkup:
		return "markup"
	case OpDisplay:
		return "display"
	case OpRender:
		return "render"
	case OpAttr:
		return "attr"
	case OpClass:
		return "class"
	case OpStyle:
		return "style"
	case OpListen:
		return "listen"
	case OpValue:
		return "value"
	case OpChecked:
		return "checked"
	case OpSelected:
		return "selected"
	default:
		return "unknown"
	}
}
