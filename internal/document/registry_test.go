package document

import (
	"fmt"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var autoIDPattern = regexp.MustCompile(`^(primary|secondary)-[0-9a-f]{8}(-\d+)?$`)

func fragAt(kind Kind, content string, line int) Fragment {
	return Fragment{
		Kind:         kind,
		Content:      content,
		ContentRange: Range{Start: Position{Line: line}},
	}
}

func TestAssign_ExplicitNameWins(t *testing.T) {
	r := NewRegistry()
	f := fragAt(KindPrimary, "echo 1;", 1)
	f.ExplicitName = "report"

	assert.Equal(t, "report", r.Assign(f))
}

func TestAssign_DuplicateExplicitNameFallsBack(t *testing.T) {
	r := NewRegistry()
	a := fragAt(KindPrimary, "echo 1;", 1)
	a.ExplicitName = "x"
	b := fragAt(KindPrimary, "echo 2;", 5)
	b.ExplicitName = "x"

	require.Equal(t, "x", r.Assign(a))

	id := r.Assign(b)
	assert.NotEqual(t, "x", id, "second claim on x must not win")
	assert.Regexp(t, autoIDPattern, id)
}

func TestAssign_AutoIDShape(t *testing.T) {
	r := NewRegistry()

	id := r.Assign(fragAt(KindPrimary, "echo \"hi\";\n", 3))
	assert.Regexp(t, `^primary-[0-9a-f]{8}$`, id)

	id = r.Assign(fragAt(KindSecondary, "User::all();\n", 9))
	assert.Regexp(t, `^secondary-[0-9a-f]{8}$`, id)
}

func TestAssign_Deterministic(t *testing.T) {
	// Same content and line digest to the same id across sessions; ids are
	// content-addressed, not random.
	a := NewRegistry().Assign(fragAt(KindPrimary, "echo 1;\n", 4))
	b := NewRegistry().Assign(fragAt(KindPrimary, "echo 1;\n", 4))
	assert.Equal(t, a, b)

	// A line shift changes the digest.
	c := NewRegistry().Assign(fragAt(KindPrimary, "echo 1;\n", 5))
	assert.NotEqual(t, a, c)
}

func TestAssign_CollisionCounter(t *testing.T) {
	r := NewRegistry()
	base := r.Assign(fragAt(KindPrimary, "echo 1;\n", 2))

	// Identical content at the identical line forces the digest to collide.
	second := r.Assign(fragAt(KindPrimary, "echo 1;\n", 2))
	third := r.Assign(fragAt(KindPrimary, "echo 1;\n", 2))

	assert.Equal(t, base+"-1", second)
	assert.Equal(t, base+"-2", third)
}

func TestAssignAll_PairwiseDistinct(t *testing.T) {
	r := NewRegistry()
	var frags []Fragment
	for i := 0; i < 20; i++ {
		frags = append(frags, fragAt(KindPrimary, fmt.Sprintf("echo %d;", i%5), i%3))
	}

	assigned := r.AssignAll(frags)
	seen := make(map[string]bool)
	for _, f := range assigned {
		require.NotEmpty(t, f.ID)
		assert.False(t, seen[f.ID], "duplicate id %s", f.ID)
		seen[f.ID] = true
	}
}

func TestReset_ClearsUsedSet(t *testing.T) {
	r := NewRegistry()
	f := fragAt(KindPrimary, "echo 1;", 1)
	f.ExplicitName = "x"

	require.Equal(t, "x", r.Assign(f))
	r.Reset()
	assert.Equal(t, "x", r.Assign(f), "reset must release claimed names")
}
