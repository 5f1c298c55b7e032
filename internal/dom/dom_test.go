package dom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `<html><body><table id="t"><tbody>
<tr><td class="a">one<br><b>two</b></td><td>three</td></tr>
</tbody></table></body></html>`

func TestNodeAccessors(t *testing.T) {
	doc, err := ParseString(sample)
	require.NoError(t, err)

	cells := doc.FindAll("td")
	require.Len(t, cells, 2)
	first := cells[0]

	assert.Equal(t, ElementNode, first.Kind())
	assert.Equal(t, "td", first.Tag())
	assert.True(t, first.Is("td"))
	assert.Equal(t, "onetwo", first.Text())

	class, ok := first.Attr("class")
	assert.True(t, ok)
	assert.Equal(t, "a", class)

	children := first.Children()
	require.Len(t, children, 3)
	assert.Equal(t, TextNode, children[0].Kind())
	assert.Equal(t, "one", children[0].Text())
	assert.True(t, children[1].Is("br"))
	assert.True(t, children[2].Is("b"))
	assert.Len(t, first.ElementChildren(), 2)

	next, ok := first.NextElementSibling()
	require.True(t, ok)
	assert.True(t, next.Same(cells[1]))
	_, ok = cells[1].NextElementSibling()
	assert.False(t, ok)

	parent, ok := first.Parent()
	require.True(t, ok)
	assert.True(t, parent.Is("tr"))
}

func TestTreeRelations(t *testing.T) {
	doc, err := ParseString(`<table><tr><td><table><tr><td id="inner">x</td></tr></table></td></tr></table>`)
	require.NoError(t, err)

	tables := doc.FindAll("table")
	require.Len(t, tables, 2)
	inner := doc.FindAll("#inner")
	require.Len(t, inner, 1)

	assert.True(t, tables[0].Contains(tables[1]))
	assert.False(t, tables[1].Contains(tables[0]))
	assert.False(t, tables[0].Contains(tables[0]))
	assert.Equal(t, 2, inner[0].AncestorDepth("table", Node{}))
	assert.Equal(t, 1, inner[0].AncestorDepth("table", tables[0]))

	tbodies := tables[0].ChildrenByTag("tbody")
	assert.Len(t, tbodies, 1)
}

func TestCanonicalIsStable(t *testing.T) {
	a, err := ParseString(sample)
	require.NoError(t, err)
	b, err := ParseString(sample)
	require.NoError(t, err)

	ca, err := a.Canonical()
	require.NoError(t, err)
	cb, err := b.Canonical()
	require.NoError(t, err)
	assert.Equal(t, ca, cb)
	assert.Contains(t, ca, "<tbody>")
}

func TestZeroNode(t *testing.T) {
	var n Node
	assert.True(t, n.IsZero())
	assert.Equal(t, OtherNode, n.Kind())
	assert.Empty(t, n.Text())
	assert.Nil(t, n.Children())
	_, ok := n.Parent()
	assert.False(t, ok)
}
