// Package render classifies raw interpreter output and renders it for the
// terminal. Classification assigns one of a closed set of shapes; rendering
// goes through an ordered formatter chain where the first formatter that
// accepts the text wins.
package render

import (
	"encoding/json"
	"regexp"
	"strings"
)

// OutputType is the classified shape of a raw output string.
type OutputType string

const (
	// TypeObject is strict JSON with an object at the top level.
	TypeObject OutputType = "object"

	// TypeList is strict JSON with an array at the top level.
	TypeList OutputType = "list"

	// TypePHPArray is a PHP array literal or dump: array( ... ), or a
	// bracketed list that failed the strict JSON parse.
	TypePHPArray OutputType = "php-array"

	// TypePHPObject is a PHP object dump: object(Class)#N ( ... ) or
	// Class::__set_state(array( ... )).
	TypePHPObject OutputType = "php-object"

	// TypeString is everything else, including empty output and JSON
	// scalars.
	TypeString OutputType = "string"
)

var (
	phpArrayPrefix  = regexp.MustCompile(`^(?i:array)\s*\(`)
	phpObjectPrefix = regexp.MustCompile(`^object\([A-Za-z0-9_\\]+\)#\d+`)
	phpSetStateRef  = regexp.MustCompile(`^[A-Za-z0-9_\\]+::__set_state\s*\(\s*array\s*\(`)
)

// Classify determines the shape of text. It never fails: unrecognizable
// input is simply a string.
func Classify(text string) OutputType {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return TypeString
	}

	if json.Valid([]byte(trimmed)) {
		switch trimmed[0] {
		case '{':
			return TypeObject
		case '[':
			return TypeList
		}
		// Valid JSON scalar (number, quoted string, true/false/null).
		return TypeString
	}

	if phpArrayPrefix.MatchString(trimmed) {
		return TypePHPArray
	}
	if trimmed[0] == '[' && strings.HasSuffix(trimmed, "]") {
		// Bracketed list that did not survive the strict JSON parse, e.g.
		// PHP short array syntax with single quotes.
		return TypePHPArray
	}
	if phpObjectPrefix.MatchString(trimmed) || phpSetStateRef.MatchString(trimmed) {
		return TypePHPObject
	}
	return TypeString
}
