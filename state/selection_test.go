package state

import (
	"encoding/json"
	"testing"

	"github.com/cozy/prosemirror-go/model"
	"github.com/cozy/prosemirror-go/test/builder"
	"github.com/cozy/prosemirror-go/transform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	schema     = builder.Schema
	doc        = builder.Doc
	p          = builder.P
	blockquote = builder.Blockquote
	hr         = builder.Hr
	img        = builder.Img
)

func resolve(t *testing.T, d *model.Node, pos int) *model.ResolvedPos {
	t.Helper()
	rp, err := d.Resolve(pos)
	require.NoError(t, err)
	return rp
}

func textSel(t *testing.T, d *model.Node, anchor int, head ...int) *TextSelection {
	t.Helper()
	sel, err := CreateTextSelection(d, anchor, head...)
	require.NoError(t, err)
	return sel
}

// jsonRoundTrip encodes the selection, decodes it back against d, and
// checks that the result is equal.
func jsonRoundTrip(t *testing.T, d *model.Node, sel Selection) {
	t.Helper()
	data, err := json.Marshal(sel.ToJSON())
	require.NoError(t, err)
	var raw interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	back, err := SelectionFromJSON(d, raw)
	require.NoError(t, err)
	assert.True(t, sel.Eq(back), "%v != %v", sel.ToJSON(), back.ToJSON())
}

func TestTextSelection(t *testing.T) {
	d := doc(p("foo<a>bar<b>baz")).Node

	sel := textSel(t, d, 4, 7)
	assert.Equal(t, 4, sel.From())
	assert.Equal(t, 7, sel.To())
	assert.False(t, sel.Empty())
	assert.True(t, sel.Visible())
	assert.Nil(t, sel.Cursor())
	assert.Len(t, sel.Ranges(), 1)

	// a backward selection keeps its anchor
	backward := textSel(t, d, 7, 4)
	assert.Equal(t, 7, backward.Anchor())
	assert.Equal(t, 4, backward.Head())
	assert.Equal(t, 4, backward.From())
	assert.False(t, sel.Eq(backward))

	cursor := textSel(t, d, 2)
	assert.True(t, cursor.Empty())
	if assert.NotNil(t, cursor.Cursor()) {
		assert.Equal(t, 2, cursor.Cursor().Pos)
	}

	// the content includes the parent nodes
	content, err := sel.Content()
	require.NoError(t, err)
	assert.Equal(t, 1, content.OpenStart)
	assert.Equal(t, 1, content.OpenEnd)
	assert.Equal(t, "bar", content.Content.TextBetween(0, content.Content.Size))

	assert.Equal(t, map[string]interface{}{"type": "text", "anchor": 4, "head": 7}, sel.ToJSON())
	jsonRoundTrip(t, d, sel)
	jsonRoundTrip(t, d, backward)

	_, err = CreateTextSelection(d, 1, 50)
	assert.Error(t, err)
}

func TestTextSelectionMap(t *testing.T) {
	// moves with inserted content
	d := doc(p("foo<a>bar")).Node
	tr := transform.NewTransform(d)
	require.NoError(t, tr.Insert(1, schema.Text("xx")))
	mapped, err := textSel(t, d, 4).Map(tr.Doc, tr.Mapping)
	require.NoError(t, err)
	assert.True(t, mapped.Eq(textSel(t, tr.Doc, 6)))

	// finds a text position when its block is deleted
	d = doc(p("a"), p("b")).Node
	tr = transform.NewTransform(d)
	require.NoError(t, tr.Delete(3, 6))
	mapped, err = textSel(t, d, 4).Map(tr.Doc, tr.Mapping)
	require.NoError(t, err)
	assert.IsType(t, &TextSelection{}, mapped)
	assert.Equal(t, 2, mapped.Head())
}

func TestTextSelectionBetween(t *testing.T) {
	// moves a position outside of a textblock inside
	d := doc(p("foo")).Node
	sel := TextSelectionBetween(resolve(t, d, 0), resolve(t, d, 0))
	assert.Equal(t, 1, sel.Anchor())
	assert.Equal(t, 1, sel.Head())

	// searches backward for a backward range
	d = doc(p("foo"), hr, p("bar")).Node
	sel = TextSelectionBetween(resolve(t, d, 1), resolve(t, d, 6))
	assert.Equal(t, 1, sel.Anchor())
	assert.Equal(t, 4, sel.Head())

	// keeps text positions
	sel = TextSelectionBetween(resolve(t, d, 2), resolve(t, d, 8))
	assert.Equal(t, 2, sel.Anchor())
	assert.Equal(t, 8, sel.Head())
}

func TestNodeSelection(t *testing.T) {
	d := doc(p("a"), hr, p("b")).Node
	sel, err := CreateNodeSelection(d, 3)
	require.NoError(t, err)
	assert.Equal(t, "horizontal_rule", sel.Node.Type.Name)
	assert.Equal(t, 3, sel.From())
	assert.Equal(t, 4, sel.To())
	assert.Equal(t, 3, sel.Anchor())
	assert.Equal(t, 4, sel.Head())
	assert.False(t, sel.Visible())

	content, err := sel.Content()
	require.NoError(t, err)
	assert.Equal(t, 1, content.Size())

	assert.Equal(t, map[string]interface{}{"type": "node", "anchor": 3}, sel.ToJSON())
	jsonRoundTrip(t, d, sel)

	// there must be a node after the position
	_, err = CreateNodeSelection(doc(p()).Node, 1)
	assert.Error(t, err)
	assert.False(t, IsSelectable(schema.Text("x")))
	assert.True(t, IsSelectable(hr().Node))
}

func TestNodeSelectionMap(t *testing.T) {
	d := doc(p("a"), hr, p("b")).Node
	sel, err := CreateNodeSelection(d, 3)
	require.NoError(t, err)

	// follows the node
	tr := transform.NewTransform(d)
	require.NoError(t, tr.Insert(1, schema.Text("x")))
	mapped, err := sel.Map(tr.Doc, tr.Mapping)
	require.NoError(t, err)
	if assert.IsType(t, &NodeSelection{}, mapped) {
		assert.Equal(t, 4, mapped.Anchor())
	}

	// falls back to a text selection when the node is deleted
	tr = transform.NewTransform(d)
	require.NoError(t, tr.Delete(3, 4))
	mapped, err = sel.Map(tr.Doc, tr.Mapping)
	require.NoError(t, err)
	if assert.IsType(t, &TextSelection{}, mapped) {
		assert.Equal(t, 4, mapped.Head())
	}
}

func TestAllSelection(t *testing.T) {
	d := doc(p("foo"), p("bar")).Node
	sel := NewAllSelection(d)
	assert.Equal(t, 0, sel.From())
	assert.Equal(t, 10, sel.To())
	assert.True(t, sel.Eq(NewAllSelection(doc(p()).Node)))
	assert.False(t, sel.Eq(textSel(t, d, 1)))
	assert.Equal(t, map[string]interface{}{"type": "all"}, sel.ToJSON())
	jsonRoundTrip(t, d, sel)

	tr := transform.NewTransform(d)
	require.NoError(t, tr.Insert(1, schema.Text("x")))
	mapped, err := sel.Map(tr.Doc, tr.Mapping)
	require.NoError(t, err)
	assert.Equal(t, 11, mapped.To())

	// deleting everything leaves an empty textblock
	tr = transform.NewTransform(d)
	after, err := sel.Replace(tr, nil)
	require.NoError(t, err)
	assert.True(t, tr.Doc.Eq(doc(p()).Node), "%s", tr.Doc)
	assert.True(t, after.Eq(textSel(t, tr.Doc, 1)))
}

func TestFindSelection(t *testing.T) {
	d := doc(p("foo")).Node
	assert.True(t, AtStart(d).Eq(textSel(t, d, 1)))
	assert.True(t, AtEnd(d).Eq(textSel(t, d, 4)))

	// selects leaf nodes at the edges
	d = doc(hr, p("x"), hr).Node
	start := AtStart(d)
	if assert.IsType(t, &NodeSelection{}, start) {
		assert.Equal(t, 0, start.From())
	}
	end := AtEnd(d)
	if assert.IsType(t, &NodeSelection{}, end) {
		assert.Equal(t, 4, end.From())
	}

	// skips leaf nodes when looking for text
	found := FindFrom(resolve(t, d, 0), 1, true)
	if assert.NotNil(t, found) {
		assert.True(t, found.Eq(textSel(t, d, 2)))
	}
	assert.Nil(t, FindFrom(resolve(t, doc(hr).Node, 0), 1, true))

	// near searches backward with a negative bias
	d = doc(p("a"), p("b")).Node
	assert.True(t, Near(resolve(t, d, 3)).Eq(textSel(t, d, 4)))
	assert.True(t, Near(resolve(t, d, 3), -1).Eq(textSel(t, d, 2)))
}

func TestSelectionReplace(t *testing.T) {
	// deletes the selected text
	d := doc(p("foo<a>bar<b>baz")).Node
	tr := transform.NewTransform(d)
	after, err := textSel(t, d, 4, 7).Replace(tr, nil)
	require.NoError(t, err)
	assert.True(t, tr.Doc.Eq(doc(p("foobaz")).Node), "%s", tr.Doc)
	assert.True(t, after.Eq(textSel(t, tr.Doc, 4)))

	// puts the cursor after inserted text
	tr = transform.NewTransform(d)
	frag, err := model.FragmentFrom(schema.Text("X"))
	require.NoError(t, err)
	after, err = textSel(t, d, 4, 7).Replace(tr, model.NewSlice(frag, 0, 0))
	require.NoError(t, err)
	assert.True(t, tr.Doc.Eq(doc(p("fooXbaz")).Node), "%s", tr.Doc)
	assert.True(t, after.Eq(textSel(t, tr.Doc, 5)))

	// replaces a cursor with an inline node
	tr = transform.NewTransform(d)
	after, err = textSel(t, d, 4).ReplaceWith(tr, img().Node)
	require.NoError(t, err)
	assert.True(t, tr.Doc.Eq(doc(p("foo", img, "barbaz")).Node), "%s", tr.Doc)
	assert.True(t, after.Eq(textSel(t, tr.Doc, 5)))

	// replaces a selected node with a block
	d = doc(p("a"), hr, p("b")).Node
	sel, err := CreateNodeSelection(d, 3)
	require.NoError(t, err)
	tr = transform.NewTransform(d)
	after, err = sel.ReplaceWith(tr, p("x").Node)
	require.NoError(t, err)
	assert.True(t, tr.Doc.Eq(doc(p("a"), p("x"), p("b")).Node), "%s", tr.Doc)
	assert.True(t, after.Eq(textSel(t, tr.Doc, 7)))
}

func TestBookmarks(t *testing.T) {
	d := doc(p("a"), hr, p("b")).Node
	tr := transform.NewTransform(d)
	require.NoError(t, tr.Insert(1, schema.Text("xy")))

	// text bookmarks map their positions
	sel, err := textSel(t, d, 1, 2).GetBookmark().Map(tr.Mapping).Resolve(tr.Doc)
	require.NoError(t, err)
	assert.True(t, sel.Eq(textSel(t, tr.Doc, 3, 4)))

	// node bookmarks become text bookmarks when the node goes away
	nodeSel, err := CreateNodeSelection(d, 3)
	require.NoError(t, err)
	assert.Equal(t, NodeBookmark{AnchorPos: 5}, nodeSel.GetBookmark().Map(tr.Mapping))
	del := transform.NewTransform(d)
	require.NoError(t, del.Delete(3, 4))
	bookmark := nodeSel.GetBookmark().Map(del.Mapping)
	assert.IsType(t, TextBookmark{}, bookmark)
	sel, err = bookmark.Resolve(del.Doc)
	require.NoError(t, err)
	assert.IsType(t, &TextSelection{}, sel)

	// all bookmarks resolve to the whole document
	sel, err = AllBookmark{}.Map(tr.Mapping).Resolve(tr.Doc)
	require.NoError(t, err)
	assert.Equal(t, tr.Doc.Content.Size, sel.To())
}

func TestGapCursor(t *testing.T) {
	d := doc(hr, hr).Node
	assert.True(t, ValidGapCursor(resolve(t, d, 1)))
	assert.True(t, ValidGapCursor(resolve(t, doc(hr, p("x")).Node, 0)))
	assert.False(t, ValidGapCursor(resolve(t, doc(p("x")).Node, 1)))
	assert.False(t, ValidGapCursor(resolve(t, doc(p("a"), p("b")).Node, 3)))

	cursor := NewGapCursor(resolve(t, d, 1))
	assert.False(t, cursor.Visible())
	assert.True(t, cursor.Empty())
	content, err := cursor.Content()
	require.NoError(t, err)
	assert.Equal(t, 0, content.Size())
	assert.Equal(t, map[string]interface{}{"type": "gapcursor", "pos": 1}, cursor.ToJSON())
	jsonRoundTrip(t, d, cursor)

	// maps to a gap cursor when the position stays valid
	tr := transform.NewTransform(d)
	require.NoError(t, tr.Insert(0, p("x").Node))
	mapped, err := cursor.Map(tr.Doc, tr.Mapping)
	require.NoError(t, err)
	assert.True(t, mapped.Eq(NewGapCursor(resolve(t, tr.Doc, 4))))

	bookmark := cursor.GetBookmark().Map(tr.Mapping)
	resolved, err := bookmark.Resolve(tr.Doc)
	require.NoError(t, err)
	assert.True(t, resolved.Eq(mapped))
}

func TestFindGapCursorFrom(t *testing.T) {
	d := doc(blockquote(hr)).Node
	found := FindGapCursorFrom(resolve(t, d, 0), 1, false)
	if assert.NotNil(t, found) {
		assert.Equal(t, 0, found.Pos)
	}
	found = FindGapCursorFrom(resolve(t, d, 0), 1, true)
	if assert.NotNil(t, found) {
		assert.Equal(t, 1, found.Pos)
	}
	assert.Nil(t, FindGapCursorFrom(resolve(t, doc(p("a")).Node, 1), -1, false))
}

func TestSelectionRegistry(t *testing.T) {
	d := doc(p("foo")).Node
	registry := NewSelectionRegistry()
	assert.Error(t, registry.Register("text", TextSelectionFromJSON))
	require.NoError(t, registry.Register("start", func(root *model.Node, _ map[string]interface{}) (Selection, error) {
		return AtStart(root), nil
	}))
	sel, err := registry.FromJSON(d, map[string]interface{}{"type": "start"})
	require.NoError(t, err)
	assert.True(t, sel.Eq(textSel(t, d, 1)))

	bad := func(raw interface{}) {
		t.Helper()
		_, err := SelectionFromJSON(d, raw)
		assert.Error(t, err)
	}
	bad("text")
	bad(map[string]interface{}{"anchor": 1.0})
	bad(map[string]interface{}{"type": "start"})
	bad(map[string]interface{}{"type": "text", "anchor": 1.0})
	bad(map[string]interface{}{"type": "text", "anchor": 1.0, "head": 40.0})
	bad(map[string]interface{}{"type": "node", "anchor": 4.0})
	bad(map[string]interface{}{"type": "gapcursor"})
}
