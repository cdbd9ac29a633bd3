package document

import (
	"regexp"
)

// fencePattern matches one fenced fragment: an opening fence with a
// recognized tag and optional :name suffix, the inner text, and the next
// closing fence. The inner text capture is lazy, so the first closing fence
// wins; a fragment whose content itself contains a triple-fence sequence
// terminates early. That is a documented limitation of the single linear
// scan, not something this parser tries to repair.
var fencePattern = regexp.MustCompile("(?ms)^```(php|tinker)(?::([A-Za-z0-9_-]+))?[ \t]*\r?\n(.*?)^```[ \t]*$")

// Parser scans markdown text for executable fragments.
type Parser struct{}

// NewParser returns a fragment parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse returns the fragments of text in source order. Text outside a
// recognized fence is ignored; empty input yields an empty slice. Returned
// fragments carry no IDs — identifier assignment is the Registry's job.
func (p *Parser) Parse(text string) []Fragment {
	matches := fencePattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil
	}

	lines := newLineIndex(text)
	fragments := make([]Fragment, 0, len(matches))
	for _, m := range matches {
		tag := text[m[2]:m[3]]
		kind, ok := fenceKinds[tag]
		if !ok {
			continue
		}

		var name string
		if m[4] >= 0 {
			name = text[m[4]:m[5]]
		}

		fragments = append(fragments, Fragment{
			ExplicitName: name,
			Kind:         kind,
			Content:      text[m[6]:m[7]],
			SourceRange:  Range{Start: lines.position(m[0]), End: lines.position(m[1])},
			ContentRange: Range{Start: lines.position(m[6]), End: lines.position(m[7])},
		})
	}
	return fragments
}

// lineIndex converts byte offsets into line/character positions.
type lineIndex struct {
	// starts[i] is the byte offset of the first character of line i.
	starts []int
}

func newLineIndex(text string) *lineIndex {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &lineIndex{starts: starts}
}

func (li *lineIndex) position(offset int) Position {
	// Binary search for the last line start <= offset.
	lo, hi := 0, len(li.starts)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if li.starts[mid] <= offset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return Position{Line: lo, Character: offset - li.starts[lo]}
}

// firstLineOf returns the zero-based line of a fragment's content start.
// Used by the registry when deriving content-addressed identifiers.
func firstLineOf(f Fragment) int {
	return f.ContentRange.Start.Line
}
