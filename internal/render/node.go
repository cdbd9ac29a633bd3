package render

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// nodeKind discriminates the decoded value tree shared by the structural
// formatters.
type nodeKind int

const (
	nodeNull nodeKind = iota
	nodeBool
	nodeNumber
	nodeString
	nodeList
	nodeMap
)

// node is one decoded value. Scalar kinds carry their text in scalar
// (string values unquoted, number and bool literals verbatim); container
// kinds carry ordered children in entries. class is the declaring class of
// a decoded object dump, empty otherwise.
type node struct {
	kind    nodeKind
	scalar  string
	entries []nodeEntry
	class   string
}

// nodeEntry is one child of a container. List children have no key.
type nodeEntry struct {
	key   string
	value *node
}

// decodeJSON parses strict JSON into a node tree, preserving object key
// order (a plain map would shuffle keys between runs).
func decodeJSON(text string) (*node, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	n, err := decodeJSONValue(dec)
	if err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("trailing content after JSON value")
	}
	return n, nil
}

func decodeJSONValue(dec *json.Decoder) (*node, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			n := &node{kind: nodeMap}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("object key is not a string: %v", keyTok)
				}
				val, err := decodeJSONValue(dec)
				if err != nil {
					return nil, err
				}
				n.entries = append(n.entries, nodeEntry{key: key, value: val})
			}
			if _, err := dec.Token(); err != nil { // closing '}'
				return nil, err
			}
			return n, nil
		case '[':
			n := &node{kind: nodeList}
			for dec.More() {
				val, err := decodeJSONValue(dec)
				if err != nil {
					return nil, err
				}
				n.entries = append(n.entries, nodeEntry{value: val})
			}
			if _, err := dec.Token(); err != nil { // closing ']'
				return nil, err
			}
			return n, nil
		}
		return nil, fmt.Errorf("unexpected delimiter %v", t)
	case string:
		return &node{kind: nodeString, scalar: t}, nil
	case json.Number:
		return &node{kind: nodeNumber, scalar: t.String()}, nil
	case bool:
		return &node{kind: nodeBool, scalar: strconv.FormatBool(t)}, nil
	case nil:
		return &node{kind: nodeNull, scalar: "null"}, nil
	}
	return nil, fmt.Errorf("unexpected token %v", tok)
}

// toValue converts a node tree into plain Go values for re-export. Object
// key order is lost in the map form; this is the best-effort structural
// value, not a faithful re-encoding of the dump.
func (n *node) toValue() any {
	switch n.kind {
	case nodeNull:
		return nil
	case nodeBool:
		return n.scalar == "true"
	case nodeNumber:
		if i, err := strconv.ParseInt(n.scalar, 10, 64); err == nil {
			return i
		}
		if f, err := strconv.ParseFloat(n.scalar, 64); err == nil {
			return f
		}
		return n.scalar
	case nodeString:
		return n.scalar
	case nodeList:
		out := make([]any, 0, len(n.entries))
		for _, e := range n.entries {
			out = append(out, e.value.toValue())
		}
		return out
	case nodeMap:
		out := make(map[string]any, len(n.entries))
		for _, e := range n.entries {
			out[e.key] = e.value.toValue()
		}
		return out
	}
	return nil
}
