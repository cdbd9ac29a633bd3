// Package refs resolves $tinker_outputs references between notebook
// fragments: detecting them, walking them for cycles, and substituting
// stored results back into fragment content before execution.
package refs

import (
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"tinkerpad/internal/state"
)

// Marker is the literal token that introduces a reference. A reference is
// the marker, a dot, and a fragment identifier: $tinker_outputs.report_1.
const Marker = "$tinker_outputs"

var refPattern = regexp.MustCompile(`\$tinker_outputs\.([A-Za-z0-9_-]+)`)

// ResultLookup is the slice of the state store the resolver needs.
type ResultLookup interface {
	GetResult(id string) (state.ExecutionResult, bool)
}

// Resolver rewrites fragment content against previously stored results.
type Resolver struct {
	store ResultLookup
	log   *zap.Logger
}

// NewResolver creates a resolver reading results from store. A nil logger
// is replaced with a no-op logger.
func NewResolver(store ResultLookup, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{store: store, log: log}
}

// Detect returns the referenced ids in text, de-duplicated, in order of
// first appearance.
func (r *Resolver) Detect(text string) []string {
	var ids []string
	seen := make(map[string]struct{})
	for _, m := range refPattern.FindAllStringSubmatch(text, -1) {
		id := m[1]
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// HasCircularReferences reports whether running the fragment selfID with the
// given content would chase a reference cycle back to itself.
//
// The transitive walk expands each referenced id through its last stored
// result's OUTPUT TEXT, not through that fragment's source content. This
// matches the original behavior exactly: cycles that manifest through
// executed results are caught, while source-level cycles between fragments
// that have never run go undetected. Preserved as documented behavior — do
// not silently change the traversal to source content.
func (r *Resolver) HasCircularReferences(selfID, text string) bool {
	direct := r.Detect(text)
	for _, id := range direct {
		if id == selfID {
			return true
		}
	}

	visited := make(map[string]struct{})
	queue := append([]string(nil), direct...)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if _, ok := visited[id]; ok {
			continue
		}
		visited[id] = struct{}{}
		if id == selfID {
			return true
		}
		res, ok := r.store.GetResult(id)
		if !ok {
			continue
		}
		queue = append(queue, r.Detect(res.Output)...)
	}
	return false
}

// ProcessContent substitutes every reference in text with a PHP literal for
// the referenced fragment's stored result. Callers must check
// HasCircularReferences first and abort on a cycle.
//
// Substitution rules, in order:
//   - no stored result: the occurrence is left unchanged (not an error);
//   - error result, or output empty after trimming: null;
//   - output that reads as an integer, decimal, or boolean: that literal
//     verbatim;
//   - anything else, composites included: a single-quoted, escaped string
//     of the raw output. Arrays and objects round-trip as their textual
//     dump, not as a reconstructed structure — a known, deliberate loss.
func (r *Resolver) ProcessContent(text string) string {
	return refPattern.ReplaceAllStringFunc(text, func(occurrence string) string {
		id := strings.TrimPrefix(occurrence, Marker+".")
		res, ok := r.store.GetResult(id)
		if !ok {
			return occurrence
		}
		lit := resultLiteral(res)
		r.log.Debug("substituted reference",
			zap.String("id", id),
			zap.String("literal", lit))
		return lit
	})
}

// resultLiteral converts a stored result into a PHP literal suitable for
// re-embedding in fragment source.
func resultLiteral(res state.ExecutionResult) string {
	if res.Failed() {
		return "null"
	}
	value := strings.TrimSpace(res.Output)
	if value == "" {
		return "null"
	}
	if _, err := strconv.ParseInt(value, 10, 64); err == nil {
		return value
	}
	if _, err := strconv.ParseFloat(value, 64); err == nil {
		return value
	}
	if value == "true" || value == "false" {
		return value
	}
	return quotePHPString(res.Output)
}

// quotePHPString wraps s in a single-quoted PHP string literal, escaping
// backslashes and single quotes.
func quotePHPString(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('\'')
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\', '\'':
			b.WriteByte('\\')
		}
		b.WriteByte(s[i])
	}
	b.WriteByte('\'')
	return b.String()
}
