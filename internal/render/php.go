package render

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// PHP dump decoding. Both the array and object formatters attempt a
// best-effort structural decode of PHP's textual serialization formats:
// array( 'k' => v, ... ), short bracket syntax, object(Class)#N ( ... )
// and Class::__set_state(array( ... )). A failed decode is not an error at
// the formatter level — the raw text is rendered instead.

var (
	objectHead   = regexp.MustCompile(`^object\(([A-Za-z0-9_\\]+)\)#\d+\s*(?:\(\d+\)\s*)?`)
	setStateHead = regexp.MustCompile(`^([A-Za-z0-9_\\]+)::__set_state\s*\(`)
)

// decodePHPArray parses an array literal into a node tree.
func decodePHPArray(text string) (*node, error) {
	return parsePHPValue(strings.TrimSpace(text))
}

// decodePHPObject parses an object dump into a node tree whose class field
// names the dumped class.
func decodePHPObject(text string) (*node, error) {
	trimmed := strings.TrimSpace(text)

	if m := objectHead.FindStringSubmatch(trimmed); m != nil {
		rest := strings.TrimSpace(trimmed[len(m[0]):])
		if rest == "" || (rest[0] != '(' && rest[0] != '{') {
			return nil, fmt.Errorf("object dump has no property block")
		}
		end := matchingClose(rest, 0)
		if end < 0 {
			return nil, fmt.Errorf("unbalanced object dump")
		}
		n, err := parsePHPEntries(rest[1:end])
		if err != nil {
			return nil, err
		}
		n.class = m[1]
		return n, nil
	}

	if m := setStateHead.FindStringSubmatch(trimmed); m != nil {
		open := len(m[0]) - 1
		end := matchingClose(trimmed, open)
		if end < 0 {
			return nil, fmt.Errorf("unbalanced __set_state call")
		}
		n, err := parsePHPValue(strings.TrimSpace(trimmed[open+1 : end]))
		if err != nil {
			return nil, err
		}
		if n.kind != nodeMap && n.kind != nodeList {
			return nil, fmt.Errorf("__set_state argument is not an array")
		}
		n.class = m[1]
		return n, nil
	}

	return nil, fmt.Errorf("not a recognized object dump")
}

// parsePHPValue decodes one PHP value: nested arrays and objects recurse,
// scalars are re-typed, and anything unrecognized degrades to a bare
// string rather than failing the whole decode.
func parsePHPValue(s string) (*node, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return &node{kind: nodeString}, nil
	}

	if loc := phpArrayPrefix.FindStringIndex(s); loc != nil {
		open := loc[1] - 1
		end := matchingClose(s, open)
		if end < 0 {
			return nil, fmt.Errorf("unbalanced array literal")
		}
		return parsePHPEntries(s[open+1 : end])
	}
	if s[0] == '[' {
		end := matchingClose(s, 0)
		if end < 0 {
			return nil, fmt.Errorf("unbalanced bracket list")
		}
		return parsePHPEntries(s[1:end])
	}
	if objectHead.MatchString(s) || setStateHead.MatchString(s) {
		return decodePHPObject(s)
	}
	if unquoted, ok := unquote(s); ok {
		return &node{kind: nodeString, scalar: unquoted}, nil
	}
	if _, err := strconv.ParseInt(s, 10, 64); err == nil {
		return &node{kind: nodeNumber, scalar: s}, nil
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return &node{kind: nodeNumber, scalar: s}, nil
	}
	switch strings.ToLower(s) {
	case "true":
		return &node{kind: nodeBool, scalar: "true"}, nil
	case "false":
		return &node{kind: nodeBool, scalar: "false"}, nil
	case "null":
		return &node{kind: nodeNull, scalar: "null"}, nil
	}
	// Bare word, as print_r emits for unquoted values.
	return &node{kind: nodeString, scalar: s}, nil
}

// parsePHPEntries decodes the comma-separated body of an array or object
// block. Entries are either `key => value` or a bare value; a body with no
// keyed entry decodes as a list, otherwise as a map with PHP's implicit
// integer keys filled in for bare entries.
func parsePHPEntries(body string) (*node, error) {
	parts := splitTopLevel(body, ',')

	type rawEntry struct {
		key    string
		hasKey bool
		value  *node
	}
	var raw []rawEntry
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue // trailing comma
		}
		keyText, valText, hasKey := splitKeyValue(part)
		val, err := parsePHPValue(valText)
		if err != nil {
			return nil, err
		}
		e := rawEntry{hasKey: hasKey, value: val}
		if hasKey {
			e.key = decodeKey(keyText)
		}
		raw = append(raw, e)
	}

	keyed := false
	for _, e := range raw {
		if e.hasKey {
			keyed = true
			break
		}
	}

	n := &node{}
	if !keyed {
		n.kind = nodeList
		for _, e := range raw {
			n.entries = append(n.entries, nodeEntry{value: e.value})
		}
		return n, nil
	}
	n.kind = nodeMap
	next := 0
	for _, e := range raw {
		key := e.key
		if !e.hasKey {
			key = strconv.Itoa(next)
			next++
		}
		n.entries = append(n.entries, nodeEntry{key: key, value: e.value})
	}
	return n, nil
}

// decodeKey normalizes an entry key, folding PHP property visibility
// markers into the rendered name: protected properties get a '#' prefix,
// private ones a '_' prefix, and class-qualified private properties render
// as Class::name.
func decodeKey(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "[") && strings.HasSuffix(raw, "]") {
		raw = strings.TrimSpace(raw[1 : len(raw)-1])
	}

	parts := splitTopLevel(raw, ':')
	for i := range parts {
		p := strings.TrimSpace(parts[i])
		if u, ok := unquote(p); ok {
			p = u
		}
		parts[i] = p
	}

	switch len(parts) {
	case 2:
		switch parts[1] {
		case "protected":
			return "#" + parts[0]
		case "private":
			return "_" + parts[0]
		}
	case 3:
		if parts[2] == "private" {
			return parts[1] + "::" + parts[0]
		}
	}
	if u, ok := unquote(raw); ok {
		return u
	}
	return parts[0]
}

// splitKeyValue splits an entry on its top-level "=>" arrow.
func splitKeyValue(entry string) (key, value string, hasKey bool) {
	depth := 0
	var quote byte
	for i := 0; i < len(entry)-1; i++ {
		c := entry[i]
		if quote != 0 {
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			quote = c
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case '=':
			if depth == 0 && entry[i+1] == '>' {
				return entry[:i], entry[i+2:], true
			}
		}
	}
	return "", entry, false
}

// splitTopLevel splits s on sep occurrences that sit outside any nested
// parens, brackets, braces, or quoted runs.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth := 0
	var quote byte
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			quote = c
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case sep:
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, s[start:])
	return parts
}

// matchingClose returns the index of the delimiter closing the one at
// openIdx, honoring nesting and quoted runs, or -1 if unbalanced.
func matchingClose(s string, openIdx int) int {
	pairs := map[byte]byte{'(': ')', '[': ']', '{': '}'}
	closer, ok := pairs[s[openIdx]]
	if !ok {
		return -1
	}
	depth := 0
	var quote byte
	for i := openIdx; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			quote = c
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
			if depth == 0 {
				if c != closer {
					return -1
				}
				return i
			}
		}
	}
	return -1
}

// unquote strips a matching pair of single or double quotes, undoing
// backslash escapes. Returns ok=false when s is not a quoted run.
func unquote(s string) (string, bool) {
	if len(s) < 2 {
		return "", false
	}
	q := s[0]
	if (q != '\'' && q != '"') || s[len(s)-1] != q {
		return "", false
	}
	body := s[1 : len(s)-1]
	var b strings.Builder
	b.Grow(len(body))
	for i := 0; i < len(body); i++ {
		if body[i] == '\\' && i+1 < len(body) {
			i++
		}
		b.WriteByte(body[i])
	}
	return b.String(), true
}
