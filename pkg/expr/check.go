package expr

import (
	"fmt"
	"strings"
)

var deniedWords = map[string]bool{
	"var":      true,
	"let":      true,
	"const":    true,
	"function": true,
	"class":    true,
	"new":      true,
	"delete":   true,
	"with":     true,
	"eval":     true,
	"import":   true,
	"export":   true,
	"this":     true,
	"yield":    true,
	"await":    true,
}

// mutatingMethods change an array in place. Calling one through a member
// access would write to the model from a binding.
var mutatingMethods = map[string]bool{
	"push":       true,
	"pop":        true,
	"shift":      true,
	"unshift":    true,
	"splice":     true,
	"sort":       true,
	"reverse":    true,
	"fill":       true,
	"copyWithin": true,
}

// checkDenied reports the first disallowed construct in src, ignoring the
// content of quoted strings. Property names after a dot ("item.new") are
// allowed.
func checkDenied(src string) error {
	code := stripStrings(src)
	for i := 0; i < len(code); i++ {
		c := code[i]
		switch {
		case c == '=':
			next := byteAt(code, i+1)
			if next == '=' {
				for i+1 < len(code) && code[i+1] == '=' {
					i++
				}
				continue
			}
			if next == '>' {
				return fmt.Errorf("arrow functions are not allowed")
			}
			prev := byteAt(code, i-1)
			switch prev {
			case '!':
				continue
			case '<', '>':
				if byteAt(code, i-2) != prev {
					continue
				}
			}
			return fmt.Errorf("assignment is not allowed")
		case (c == '+' || c == '-') && byteAt(code, i+1) == c:
			return fmt.Errorf("%c%c is not allowed", c, c)
		case identStart(c):
			j := i
			for j < len(code) && identPart(code[j]) {
				j++
			}
			word := code[i:j]
			if deniedWords[word] && !afterDot(code, i) {
				return fmt.Errorf("%q is not allowed", word)
			}
			if mutatingMethods[word] && afterDot(code, i) && calledAt(code, j) {
				return fmt.Errorf("calling %s() is not allowed", word)
			}
			i = j - 1
		case c >= '0' && c <= '9':
			for i+1 < len(code) && identPart(code[i+1]) {
				i++
			}
		}
	}
	return nil
}

// stripStrings blanks the content of single and double quoted literals.
func stripStrings(src string) string {
	b := []byte(src)
	var quote byte
	for i := 0; i < len(b); i++ {
		c := b[i]
		if quote == 0 {
			if c == '\'' || c == '"' {
				quote = c
			}
			continue
		}
		switch c {
		case '\\':
			b[i] = ' '
			if i+1 < len(b) {
				i++
				b[i] = ' '
			}
		case quote:
			quote = 0
		default:
			b[i] = ' '
		}
	}
	return string(b)
}

func afterDot(code string, i int) bool {
	return strings.HasSuffix(strings.TrimRight(code[:i], " \t\n"), ".") &&
		!strings.HasSuffix(strings.TrimRight(code[:i], " \t\n"), "..")
}

func calledAt(code string, j int) bool {
	return strings.HasPrefix(strings.TrimLeft(code[j:], " \t\n"), "(")
}

func byteAt(s string, i int) byte {
	if i < 0 || i >= len(s) {
		return 0
	}
	return s[i]
}

func identStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func identPart(c byte) bool {
	return identStart(c) || (c >= '0' && c <= '9')
}
