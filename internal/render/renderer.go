package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Ellipsis replaces any subtree nested past Options.MaxDepth.
const Ellipsis = "..."

// Options control rendering. The zero value renders flat, unlimited-depth,
// unstyled output; DefaultOptions is what the CLI starts from.
type Options struct {
	// Collapsible wraps the rendered block between start and end marker
	// lines naming the section.
	Collapsible bool

	// MaxDepth is the deepest container level rendered in full; anything
	// nested further collapses to the ellipsis marker. Zero means no limit.
	MaxDepth int

	// HighlightSyntax wraps recognized tokens in terminal styles. Purely
	// cosmetic; the rendered structure is identical either way.
	HighlightSyntax bool

	// ShowLineNumbers prefixes every rendered line with a right-aligned
	// line number and separator.
	ShowLineNumbers bool

	// Section names the collapsible block. Empty defaults to "result".
	Section string
}

// DefaultOptions returns the rendering defaults used by the CLI.
func DefaultOptions() Options {
	return Options{MaxDepth: 10, Section: "result"}
}

// styles is the terminal markup palette, following the style-struct idiom
// used across the rest of the codebase.
type styles struct {
	Key     lipgloss.Style
	String  lipgloss.Style
	Number  lipgloss.Style
	Keyword lipgloss.Style
	Class   lipgloss.Style
	Marker  lipgloss.Style
	LineNo  lipgloss.Style
}

func newStyles() styles {
	return styles{
		Key:     lipgloss.NewStyle().Foreground(lipgloss.Color("81")),
		String:  lipgloss.NewStyle().Foreground(lipgloss.Color("114")),
		Number:  lipgloss.NewStyle().Foreground(lipgloss.Color("215")),
		Keyword: lipgloss.NewStyle().Foreground(lipgloss.Color("176")).Bold(true),
		Class:   lipgloss.NewStyle().Foreground(lipgloss.Color("222")).Bold(true),
		Marker:  lipgloss.NewStyle().Foreground(lipgloss.Color("243")),
		LineNo:  lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	}
}

// renderer pretty-prints a decoded node tree.
type renderer struct {
	opts   Options
	styles styles
}

func newRenderer(opts Options) *renderer {
	return &renderer{opts: opts, styles: newStyles()}
}

// paint applies st to s only when highlighting is on.
func (rd *renderer) paint(st lipgloss.Style, s string) string {
	if !rd.opts.HighlightSyntax {
		return s
	}
	return st.Render(s)
}

// render returns the multi-line textual form of n.
func (rd *renderer) render(n *node) string {
	var b strings.Builder
	rd.writeValue(&b, n, "", 1)
	return b.String()
}

// writeValue appends n to b. The first line is not indented (the caller has
// already positioned it); continuation lines use indent. depth counts
// container nesting starting at 1 for the root.
func (rd *renderer) writeValue(b *strings.Builder, n *node, indent string, depth int) {
	switch n.kind {
	case nodeNull, nodeBool:
		b.WriteString(rd.paint(rd.styles.Keyword, n.scalar))
	case nodeNumber:
		b.WriteString(rd.paint(rd.styles.Number, n.scalar))
	case nodeString:
		b.WriteString(rd.paint(rd.styles.String, strconv.Quote(n.scalar)))
	case nodeList, nodeMap:
		if rd.opts.MaxDepth > 0 && depth > rd.opts.MaxDepth {
			b.WriteString(rd.paint(rd.styles.Marker, Ellipsis))
			return
		}
		open, closing := "[", "]"
		if n.kind == nodeMap {
			open, closing = "{", "}"
		}
		if n.class != "" {
			b.WriteString(rd.paint(rd.styles.Class, n.class))
			b.WriteString(" ")
		}
		if len(n.entries) == 0 {
			b.WriteString(open + closing)
			return
		}
		b.WriteString(open + "\n")
		inner := indent + "  "
		for i, e := range n.entries {
			b.WriteString(inner)
			if n.kind == nodeMap {
				b.WriteString(rd.paint(rd.styles.Key, strconv.Quote(e.key)))
				b.WriteString(": ")
			}
			rd.writeValue(b, e.value, inner, depth+1)
			if i < len(n.entries)-1 {
				b.WriteString(",")
			}
			b.WriteString("\n")
		}
		b.WriteString(indent + closing)
	}
}

// decorate applies the cosmetic line passes to an already rendered body:
// line numbers first, then the collapsible wrapper so the marker lines
// themselves stay unnumbered.
func (rd *renderer) decorate(body string) string {
	if rd.opts.ShowLineNumbers {
		lines := strings.Split(body, "\n")
		width := len(strconv.Itoa(len(lines)))
		for i, line := range lines {
			no := fmt.Sprintf("%*d", width, i+1)
			lines[i] = rd.paint(rd.styles.LineNo, no) + " | " + line
		}
		body = strings.Join(lines, "\n")
	}
	if rd.opts.Collapsible {
		section := rd.opts.Section
		if section == "" {
			section = "result"
		}
		start := rd.paint(rd.styles.Marker, "▼ "+section+" "+strings.Repeat("─", 8))
		end := rd.paint(rd.styles.Marker, "▲ end "+section)
		body = start + "\n" + body + "\n" + end
	}
	return body
}
