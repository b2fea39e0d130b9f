package expr

import (
	"fmt"
	"regexp"
	"strings"
)

// Token is one piece of an interpolated text node.
type Token struct {
	Text string
	Expr bool
	Raw  bool
}

var interpolation = regexp.MustCompile(`\{\{\{(.+?)\}\}\}|\{\{(.+?)\}\}`)

// ParseText splits s into literal text and {{ }} / {{{ }}} expressions. It
// returns nil when s contains no interpolation.
func ParseText(s string) []Token {
	matches := interpolation.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return nil
	}
	var out []Token
	last := 0
	for _, m := range matches {
		if m[0] > last {
			out = append(out, Token{Text: s[last:m[0]]})
		}
		if m[2] >= 0 {
			out = append(out, Token{Text: strings.TrimSpace(s[m[2]:m[3]]), Expr: true, Raw: true})
		} else {
			out = append(out, Token{Text: strings.TrimSpace(s[m[4]:m[5]]), Expr: true})
		}
		last = m[1]
	}
	if last < len(s) {
		out = append(out, Token{Text: s[last:]})
	}
	return out
}

var repeatForm = regexp.MustCompile(`^\s*([A-Za-z_$][\w$]*)\s+(?:in|of)\s+(.+?)\s*$`)

// ParseRepeat splits "alias in expression".
func ParseRepeat(s string) (alias, source string, err error) {
	m := repeatForm.FindStringSubmatch(s)
	if m == nil {
		return "", "", fmt.Errorf("expected \"alias in expression\", got %q", s)
	}
	if reserved(m[1]) {
		return "", "", fmt.Errorf("%q is reserved", m[1])
	}
	return m[1], m[2], nil
}

// Pair is one key/value entry of an object literal.
type Pair struct {
	Key   string
	Value string
}

// ParseObjectLiteral parses the multi form of a directive, "{ key: expr, ... }".
// Keys may be bare or quoted. ok is false when s is not an object literal.
func ParseObjectLiteral(s string) ([]Pair, bool) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "{") || !strings.HasSuffix(s, "}") {
		return nil, false
	}
	body := strings.TrimSpace(s[1 : len(s)-1])
	if body == "" {
		return nil, true
	}
	var out []Pair
	for _, entry := range splitTopLevel(body, ',') {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := splitTopLevel(entry, ':')
		if len(parts) < 2 {
			return nil, false
		}
		key := unquote(strings.TrimSpace(parts[0]))
		value := strings.TrimSpace(strings.Join(parts[1:], ":"))
		if key == "" || value == "" {
			return nil, false
		}
		out = append(out, Pair{Key: key, Value: value})
	}
	return out, true
}

var callForm = regexp.MustCompile(`^\s*([A-Za-z_$][\w$]*(?:\.[A-Za-z_$][\w$]*)*)\s*(?:\((.*)\))?\s*$`)

// Call is a parsed handler reference such as "remove(item, $index)".
type Call struct {
	Name   []string
	Args   []string
	Parens bool
}

// ParseCall parses a handler reference: a dotted name optionally followed by
// an argument list.
func ParseCall(s string) (Call, error) {
	m := callForm.FindStringSubmatch(s)
	if m == nil {
		return Call{}, fmt.Errorf("expected a handler name or call, got %q", s)
	}
	c := Call{Name: strings.Split(m[1], "."), Parens: strings.Contains(s, "(")}
	if args := strings.TrimSpace(m[2]); args != "" {
		for _, a := range splitTopLevel(args, ',') {
			a = strings.TrimSpace(a)
			if a == "" {
				return Call{}, fmt.Errorf("empty argument in %q", s)
			}
			c.Args = append(c.Args, a)
		}
	}
	return c, nil
}

var pathSegment = regexp.MustCompile(`^(?:\.?([A-Za-z_$][\w$]*)|\[\s*(\d+)\s*\]|\[\s*'([^']*)'\s*\]|\[\s*"([^"]*)"\s*\])`)

// ParsePath parses an assignable property path ("user.name", "items[0].done")
// into its segments.
func ParsePath(s string) ([]string, error) {
	rest := strings.TrimSpace(s)
	if rest == "" || rest[0] == '.' || rest[0] == '[' {
		return nil, fmt.Errorf("%q is not a property path", s)
	}
	var out []string
	for rest != "" {
		m := pathSegment.FindStringSubmatch(rest)
		if m == nil {
			return nil, fmt.Errorf("%q is not a property path", s)
		}
		for _, g := range m[1:] {
			if g != "" {
				out = append(out, g)
				break
			}
		}
		rest = rest[len(m[0]):]
	}
	if reserved(out[0]) {
		return nil, fmt.Errorf("%q cannot be assigned", out[0])
	}
	return out, nil
}

func reserved(name string) bool {
	return name == Event || name == Index || name == Parent
}

// splitTopLevel splits s on sep outside brackets and string literals.
func splitTopLevel(s string, sep byte) []string {
	var out []string
	depth := 0
	var quote byte
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			switch c {
			case '\\':
				i++
			case quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"', '`':
			quote = c
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case sep:
			if depth == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	return append(out, s[start:])
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}
