// Package document finds executable fragments inside markdown notebooks.
//
// A fragment is a fenced region tagged with a recognized kind:
//
//	```php
//	echo "hi";
//	```
//
//	```tinker:report
//	User::count();
//	```
//
// The `php` tag marks a plain interpreter block (kind "primary"), the
// `tinker` tag a framework-aware block (kind "secondary"). An optional
// `:name` suffix supplies an explicit identifier.
//
// Fragments are value records: every parse of a document produces a fresh
// ordered slice that supersedes the previous one. Nothing here mutates a
// fragment after it has been created.
package document

import (
	"path/filepath"
	"strings"
)

// Kind is the declared category of a fragment's fence.
type Kind string

const (
	// KindPrimary is a plain interpreter block (```php fence).
	KindPrimary Kind = "primary"

	// KindSecondary is a framework-aware block (```tinker fence).
	KindSecondary Kind = "secondary"
)

// fenceKinds is the fixed allow-list of fence tags. Tags not present here
// are not fragments; their fences are left alone.
var fenceKinds = map[string]Kind{
	"php":    KindPrimary,
	"tinker": KindSecondary,
}

// Position is a zero-based line/character location in the document.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// Range is a half-open [Start, End) span of document text.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Fragment is one fenced, executable region of a notebook document.
//
// ID is empty until assigned by a Registry. SourceRange covers the whole
// fenced region including both fences (for decoration and diagnostics);
// ContentRange covers just the inner text (for precise substitution).
type Fragment struct {
	ID           string
	ExplicitName string
	Kind         Kind
	Content      string
	SourceRange  Range
	ContentRange Range
}

// IsNotebookPath reports whether path names a document this package will
// scan for fragments. Anything that is not markdown yields no fragments.
func IsNotebookPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return true
	}
	return false
}
