package render

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePHPArray_List(t *testing.T) {
	n, err := decodePHPArray("array(1, 2, 3)")
	require.NoError(t, err)
	assert.Equal(t, nodeList, n.kind)
	require.Len(t, n.entries, 3)
	assert.Equal(t, "1", n.entries[0].value.scalar)
	assert.Equal(t, "3", n.entries[2].value.scalar)
}

func TestDecodePHPArray_VarExportStyle(t *testing.T) {
	dump := `array (
  'name' => 'Jane',
  'age' => 34,
  'tags' => array (
    0 => 'admin',
    1 => 'staff',
  ),
)`
	n, err := decodePHPArray(dump)
	require.NoError(t, err)
	require.Equal(t, nodeMap, n.kind)
	require.Len(t, n.entries, 3)

	assert.Equal(t, "name", n.entries[0].key)
	assert.Equal(t, "Jane", n.entries[0].value.scalar)
	assert.Equal(t, "age", n.entries[1].key)
	assert.Equal(t, nodeNumber, n.entries[1].value.kind)

	tags := n.entries[2].value
	require.Equal(t, nodeMap, tags.kind, "explicit integer keys keep the map form")
	assert.Equal(t, "0", tags.entries[0].key)
	assert.Equal(t, "admin", tags.entries[0].value.scalar)
}

func TestDecodePHPArray_ShortSyntax(t *testing.T) {
	n, err := decodePHPArray(`['a', 'b', ['c' => true]]`)
	require.NoError(t, err)
	require.Equal(t, nodeList, n.kind)
	require.Len(t, n.entries, 3)

	inner := n.entries[2].value
	require.Equal(t, nodeMap, inner.kind)
	assert.Equal(t, "c", inner.entries[0].key)
	assert.Equal(t, nodeBool, inner.entries[0].value.kind)
}

func TestDecodePHPArray_ScalarTyping(t *testing.T) {
	n, err := decodePHPArray(`array('s' => 'text', 'i' => -3, 'f' => 2.5, 't' => true, 'n' => NULL, 'bare' => word)`)
	require.NoError(t, err)

	kinds := map[string]nodeKind{}
	for _, e := range n.entries {
		kinds[e.key] = e.value.kind
	}
	want := map[string]nodeKind{
		"s": nodeString, "i": nodeNumber, "f": nodeNumber,
		"t": nodeBool, "n": nodeNull, "bare": nodeString,
	}
	assert.Empty(t, cmp.Diff(want, kinds))
}

func TestDecodePHPArray_QuotedCommasAndParens(t *testing.T) {
	n, err := decodePHPArray(`array('a' => 'x, y (z)', 'b' => 2)`)
	require.NoError(t, err)
	require.Len(t, n.entries, 2)
	assert.Equal(t, "x, y (z)", n.entries[0].value.scalar)
}

func TestDecodePHPArray_Unbalanced(t *testing.T) {
	_, err := decodePHPArray("array(1, 2")
	assert.Error(t, err)
}

func TestDecodePHPObject_Dump(t *testing.T) {
	dump := `object(App\User)#3 (3) (
  'name' => 'Jane',
  [role:protected] => 'admin',
  [secret:App\User:private] => 'hunter2'
)`
	n, err := decodePHPObject(dump)
	require.NoError(t, err)
	assert.Equal(t, `App\User`, n.class)
	require.Equal(t, nodeMap, n.kind)
	require.Len(t, n.entries, 3)

	assert.Equal(t, "name", n.entries[0].key)
	assert.Equal(t, "#role", n.entries[1].key, "protected properties get a # prefix")
	assert.Equal(t, `App\User::secret`, n.entries[2].key, "class-qualified private renders Class::name")
}

func TestDecodePHPObject_PrivateWithoutClass(t *testing.T) {
	n, err := decodePHPObject(`object(Counter)#1 ( [count:private] => 9 )`)
	require.NoError(t, err)
	require.Len(t, n.entries, 1)
	assert.Equal(t, "_count", n.entries[0].key)
}

func TestDecodePHPObject_QuotedVisibilityKeys(t *testing.T) {
	n, err := decodePHPObject(`object(Box)#2 ( ["size":protected] => 10 )`)
	require.NoError(t, err)
	require.Len(t, n.entries, 1)
	assert.Equal(t, "#size", n.entries[0].key)
}

func TestDecodePHPObject_SetState(t *testing.T) {
	dump := `App\Config::__set_state(array(
  'debug' => false,
  'level' => 3,
))`
	n, err := decodePHPObject(dump)
	require.NoError(t, err)
	assert.Equal(t, `App\Config`, n.class)
	require.Equal(t, nodeMap, n.kind)
	require.Len(t, n.entries, 2)
	assert.Equal(t, "debug", n.entries[0].key)
	assert.Equal(t, nodeBool, n.entries[0].value.kind)
}

func TestDecodePHPObject_Rejects(t *testing.T) {
	_, err := decodePHPObject("just text")
	assert.Error(t, err)

	_, err = decodePHPObject("object(X)#1")
	assert.Error(t, err, "missing property block")
}

func TestToValue(t *testing.T) {
	n, err := decodePHPArray(`array('a' => 1, 'b' => array('c' => 'x'))`)
	require.NoError(t, err)

	v := n.toValue()
	m, ok := v.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, int64(1), m["a"])
	inner, ok := m["b"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "x", inner["c"])
}
