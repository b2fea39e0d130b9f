package render

import (
	"strings"

	"golang.org/x/net/html"
)

// attrWhitespace keeps newlines and tabs in attribute values as character
// references so a round trip through the parser leaves them intact.
// html.EscapeString already handles carriage returns.
var attrWhitespace = strings.NewReplacer("\n", "&#10;", "\t", "&#9;")

// escapeAttr escapes an attribute value for a double-quoted attribute.
func escapeAttr(s string) string {
	return attrWhitespace.Replace(html.EscapeString(s))
}
