package document

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_EmptyInput(t *testing.T) {
	p := NewParser()
	assert.Empty(t, p.Parse(""))
	assert.Empty(t, p.Parse("just prose, no fences"))
}

func TestParse_SinglePrimaryFragment(t *testing.T) {
	p := NewParser()
	doc := "# Notes\n\n```php\necho \"hi\";\n```\n"

	frags := p.Parse(doc)
	require.Len(t, frags, 1)

	f := frags[0]
	assert.Equal(t, KindPrimary, f.Kind)
	assert.Equal(t, "echo \"hi\";\n", f.Content)
	assert.Empty(t, f.ExplicitName)
	assert.Empty(t, f.ID, "ids are the registry's job")
	assert.Equal(t, 2, f.SourceRange.Start.Line)
	assert.Equal(t, 3, f.ContentRange.Start.Line)
}

func TestParse_OrderAndContentRoundTrip(t *testing.T) {
	p := NewParser()
	doc := strings.Join([]string{
		"intro",
		"```php",
		"$a = 1;",
		"```",
		"middle prose",
		"```tinker:report",
		"User::count();",
		"```",
		"```php:sum",
		"1 + 2;",
		"```",
		"outro",
	}, "\n") + "\n"

	frags := p.Parse(doc)
	require.Len(t, frags, 3)

	assert.Equal(t, KindPrimary, frags[0].Kind)
	assert.Equal(t, "$a = 1;\n", frags[0].Content)

	assert.Equal(t, KindSecondary, frags[1].Kind)
	assert.Equal(t, "report", frags[1].ExplicitName)
	assert.Equal(t, "User::count();\n", frags[1].Content)

	assert.Equal(t, KindPrimary, frags[2].Kind)
	assert.Equal(t, "sum", frags[2].ExplicitName)
	assert.Equal(t, "1 + 2;\n", frags[2].Content)
}

func TestParse_IgnoresUnknownTags(t *testing.T) {
	p := NewParser()
	doc := "```ruby\nputs 1\n```\n\n```php\necho 1;\n```\n"

	frags := p.Parse(doc)
	require.Len(t, frags, 1)
	assert.Equal(t, KindPrimary, frags[0].Kind)
}

func TestParse_UnclosedFenceYieldsNothing(t *testing.T) {
	p := NewParser()
	assert.Empty(t, p.Parse("```php\necho 1;\n"))
}

func TestParse_InnerFenceTerminatesEarly(t *testing.T) {
	// A literal triple-fence inside the content closes the fragment at the
	// first closing fence. Known limitation of the linear scan.
	p := NewParser()
	doc := "```php\necho 1;\n```\nleftover\n```\n"

	frags := p.Parse(doc)
	require.Len(t, frags, 1)
	assert.Equal(t, "echo 1;\n", frags[0].Content)
}

func TestParse_NameCharset(t *testing.T) {
	p := NewParser()

	frags := p.Parse("```php:my-Frag_01\necho 1;\n```\n")
	require.Len(t, frags, 1)
	assert.Equal(t, "my-Frag_01", frags[0].ExplicitName)

	// An illegal name suffix means the opening fence does not match at all.
	assert.Empty(t, p.Parse("```php:bad name!\necho 1;\n```\n"))
}

func TestIsNotebookPath(t *testing.T) {
	assert.True(t, IsNotebookPath("notes.md"))
	assert.True(t, IsNotebookPath("NOTES.MD"))
	assert.True(t, IsNotebookPath("doc.markdown"))
	assert.False(t, IsNotebookPath("main.php"))
	assert.False(t, IsNotebookPath("README"))
}
