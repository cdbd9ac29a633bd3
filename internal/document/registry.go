package document

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Registry assigns identifiers to the fragments of one parse pass.
//
// Identifiers are content-addressed: when a fragment has no explicit name,
// its id is derived from a digest over the content and its starting line.
// Editing a fragment (or moving it far enough to change its line) therefore
// changes its auto-generated id and orphans any execution state stored under
// the old one. That is a deliberate trade-off carried over from the original
// design, not a bug to fix here.
//
// A Registry is scoped to a single document session and must not be shared
// across unrelated documents; construct one per open notebook.
type Registry struct {
	used map[string]struct{}
}

// NewRegistry returns a registry with an empty used-id set.
func NewRegistry() *Registry {
	return &Registry{used: make(map[string]struct{})}
}

// Reset clears the used-id set. Call at the start of every parse pass so
// ids from the superseded pass do not block reassignment.
func (r *Registry) Reset() {
	r.used = make(map[string]struct{})
}

// Assign picks an identifier for f and marks it used for this pass.
//
// An explicit name wins if it has not been claimed earlier in the pass.
// Otherwise the candidate is "<kind>-<digest>"; on collision a numeric
// suffix (-1, -2, ...) disambiguates. Within one pass no two fragments
// receive the same id.
func (r *Registry) Assign(f Fragment) string {
	if f.ExplicitName != "" {
		if _, taken := r.used[f.ExplicitName]; !taken {
			r.used[f.ExplicitName] = struct{}{}
			return f.ExplicitName
		}
	}

	candidate := fmt.Sprintf("%s-%s", f.Kind, contentDigest(f.Content, firstLineOf(f)))
	id := candidate
	for n := 1; ; n++ {
		if _, taken := r.used[id]; !taken {
			break
		}
		id = fmt.Sprintf("%s-%d", candidate, n)
	}
	r.used[id] = struct{}{}
	return id
}

// AssignAll assigns ids to every fragment of a parse pass, in order, and
// returns the same slice with IDs populated.
func (r *Registry) AssignAll(fragments []Fragment) []Fragment {
	for i := range fragments {
		fragments[i].ID = r.Assign(fragments[i])
	}
	return fragments
}

// contentDigest is a short stable digest over a fragment's content and
// starting line: the first 8 hex characters of a SHA-256 sum.
func contentDigest(content string, line int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%d", content, line)))
	return hex.EncodeToString(sum[:])[:8]
}
