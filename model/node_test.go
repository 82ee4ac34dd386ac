package model_test

import (
	"testing"

	. "github.com/cozy/prosemirror-go/model"
	"github.com/cozy/prosemirror-go/test/builder"
	"github.com/stretchr/testify/assert"
)

func TestNodeString(t *testing.T) {
	// nests
	assert.Equal(t,
		doc(ul(li(p("hey"), p()), li(p("foo")))).String(),
		`doc(bullet_list(list_item(paragraph("hey"), paragraph), list_item(paragraph("foo"))))`,
	)

	// shows inline children
	assert.Equal(t,
		doc(p("foo", img, br, "bar")).String(),
		`doc(paragraph("foo", image, hard_break, "bar"))`,
	)

	// shows marks
	assert.Equal(t,
		doc(p("foo", em("bar", strong("quux")), code("baz"))).String(),
		`doc(paragraph("foo", em("bar"), em(strong("quux")), code("baz")))`,
	)
}

func TestNodeCut(t *testing.T) {
	cut := func(doc, c builder.NodeWithTag) {
		expected := c.Node
		var actual *Node
		if b, ok := doc.Tag["b"]; ok {
			actual = doc.Cut(doc.Tag["a"], b)
		} else {
			actual = doc.Cut(doc.Tag["a"])
		}
		assert.True(t, actual.Eq(expected), "%s != %s\n", actual.String(), expected.String())
	}

	// extracts a full block
	cut(doc(p("foo"), "<a>", p("bar"), "<b>", p("baz")),
		doc(p("bar")))

	// cuts text
	cut(doc(p("0"), p("foo<a>bar<b>baz"), p("2")),
		doc(p("bar")))

	// cuts deeply
	cut(doc(blockquote(ul(li(p("a"), p("b<a>c")), li(p("d")), "<b>", li(p("e"))), p("3"))),
		doc(blockquote(ul(li(p("c")), li(p("d"))))))

	// works from the left
	cut(doc(blockquote(p("foo<b>bar"))),
		doc(blockquote(p("foo"))))

	// works to the right
	cut(doc(blockquote(p("foo<a>bar"))),
		doc(blockquote(p("bar"))))

	// preserves marks
	cut(doc(p("foo", em("ba<a>r", img, strong("baz"), br), "qu<b>ux", code("xyz"))),
		doc(p(em("r", img, strong("baz"), br), "qu")))
}

func TestNodesBetween(t *testing.T) {
	between := func(doc builder.NodeWithTag, nodes ...string) {
		i := 0
		doc.NodesBetween(doc.Tag["a"], doc.Tag["b"], func(node *Node, pos int, _ *Node, _ int) bool {
			if !assert.NotEqual(t, i, len(nodes), "More nodes iterated than listed ("+node.Type.Name+")") {
				compare := node.Type.Name
				if node.IsText() {
					compare = *node.Text
				}
				actual := nodes[i]
				i++
				assert.Equal(t, compare, actual)
				if !node.IsText() {
					assert.Equal(t, doc.NodeAt(pos), node)
				}
				return true
			}
			return false
		})
	}

	// iterates over text
	between(doc(p("foo<a>bar<b>baz")),
		"paragraph", "foobarbaz")

	// descends multiple levels
	between(doc(blockquote(ul(li(p("f<a>oo")), p("b"), "<b>"), p("c"))),
		"blockquote", "bullet_list", "list_item", "paragraph", "foo", "paragraph", "b")

	// iterates over inline nodes
	between(doc(p(em("x"), "f<a>oo", em("bar", img, strong("baz"), br), "quux", code("xy<b>z"))),
		"paragraph", "foo", "bar", "image", "baz", "hard_break", "quux", "xyz")
}

func TestNodeTextContent(t *testing.T) {
	// works on a whole doc
	assert.Equal(t, doc(p("foo")).TextContent(), "foo")

	// works on a text node
	assert.Equal(t, schema.Text("foo").TextContent(), "foo")

	// works on a nested element
	assert.Equal(t,
		doc(ul(li(p("hi")), li(p(em("a"), "b")))).TextContent(),
		"hiab")
}

func TestNodeTextBetween(t *testing.T) {
	// uses leaf text for hard breaks
	d := doc(p("foo", br, "bar"))
	assert.Equal(t, "foo\nbar", d.TextBetween(0, d.Content.Size))

	// adds block separators
	d = doc(p("foo"), p("bar"))
	assert.Equal(t, "foo|bar", d.TextBetween(0, d.Content.Size, "|"))

	// counts positions in UTF-16 code units
	d = doc(p("a😀b"))
	assert.Equal(t, 6, d.Content.Size)
	assert.Equal(t, "😀", d.TextBetween(2, 4))
}

func TestNodeCheck(t *testing.T) {
	// accepts valid documents
	assert.NoError(t, doc(p("foo", em("bar")), ul(li(p("x")))).Check())

	// rejects invalid content
	para := schema.Nodes["paragraph"]
	bad := NewNode(schema.Nodes["doc"], nil, NewFragment([]*Node{
		NewNode(para, nil, NewFragment([]*Node{NewNode(para, nil, EmptyFragment, nil)}), nil),
	}), nil)
	assert.Error(t, bad.Check())

	// rejects disallowed marks
	codeBlock := NewNode(schema.Nodes["code_block"], nil, NewFragment([]*Node{schema.Text("x", em2)}), nil)
	assert.Error(t, NewNode(schema.Nodes["doc"], nil, NewFragment([]*Node{codeBlock}), nil).Check())
}

func TestNodeCanReplace(t *testing.T) {
	d := doc(p("foo"), p("bar"))
	frag, err := FragmentFrom(p("x").Node)
	assert.NoError(t, err)
	assert.True(t, d.CanReplace(0, 1, frag))
	assert.False(t, d.CanReplace(0, 2, nil))
	assert.True(t, d.CanReplace(0, 1, nil))
	assert.False(t, d.CanReplace(0, 2, NewFragment([]*Node{schema.Text("x")})))
	assert.True(t, d.CanReplaceWith(1, 1, schema.Nodes["horizontal_rule"], nil))
	assert.False(t, d.CanReplaceWith(1, 1, schema.Nodes["text"], nil))
}

func TestNodeRangeHasMark(t *testing.T) {
	d := doc(p("foo", em("bar"), "baz"))
	assert.True(t, d.RangeHasMark(2, 6, schema.Marks["em"]))
	assert.False(t, d.RangeHasMark(1, 4, schema.Marks["em"]))
	assert.True(t, d.RangeHasMark(4, 5, em2))
	assert.False(t, d.RangeHasMark(4, 5, strong2))
}
