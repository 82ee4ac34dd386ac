package transform

import (
	"testing"

	"github.com/cozy/prosemirror-go/model"
	"github.com/cozy/prosemirror-go/test/builder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func textSlice(text string, marks ...*model.Mark) *model.Slice {
	frag, err := model.FragmentFrom(schema.Text(text, marks...))
	if err != nil {
		panic(err)
	}
	return model.NewSlice(frag, 0, 0)
}

// applyAndInvert applies step to before, compares with expect, and checks
// that the inverted step restores before.
func applyAndInvert(t *testing.T, before builder.NodeWithTag, step Step, expect builder.NodeWithTag) {
	t.Helper()
	result := step.Apply(before.Node)
	require.Empty(t, result.Failed)
	assert.True(t, result.Doc.Eq(expect.Node), "%s != %s", result.Doc, expect.Node)

	inverted, err := step.Invert(before.Node)
	require.NoError(t, err)
	back := inverted.Apply(result.Doc)
	require.Empty(t, back.Failed)
	assert.True(t, back.Doc.Eq(before.Node), "%s != %s", back.Doc, before.Node)
}

func TestReplaceStepText(t *testing.T) {
	// deletes an accented character
	applyAndInvert(t, doc(p("Numéro")), NewReplaceStep(4, 5, model.EmptySlice), doc(p("Numro")))

	// inserts after an emoji
	applyAndInvert(t, doc(p("a😀b")), NewReplaceStep(4, 4, textSlice("🔎")), doc(p("a😀🔎b")))

	// deletes an emoji as a whole
	applyAndInvert(t, doc(p("a😀b")), NewReplaceStep(2, 4, model.EmptySlice), doc(p("ab")))

	// replaces marked text
	applyAndInvert(t, doc(p("a", em("bc"))), NewReplaceStep(2, 3, textSlice("x")), doc(p("ax", em("c"))))

	// keeps marks of the inserted text
	applyAndInvert(t, doc(p("ab")), NewReplaceStep(2, 2, textSlice("x", mark("strong"))), doc(p("a", strong("x"), "b")))
}

func TestReplaceStepSurrogatePair(t *testing.T) {
	d := doc(p("a😀b")).Node

	result := NewReplaceStep(3, 3, textSlice("x")).Apply(d)
	assert.NotEmpty(t, result.Failed)

	result = NewReplaceStep(2, 3, model.EmptySlice).Apply(d)
	assert.NotEmpty(t, result.Failed)

	result = NewAddMarkStep(1, 3, mark("em")).Apply(d)
	assert.NotEmpty(t, result.Failed)

	_, err := NewReplaceStep(3, 4, model.EmptySlice).Invert(d)
	assert.Error(t, err)
}

func TestReplaceStepStructure(t *testing.T) {
	// a structure step may only remove node boundaries
	d := doc(p("a"), p("b"))
	applyAndInvert(t, d, NewReplaceStep(2, 4, model.EmptySlice, true), doc(p("ab")))

	result := NewReplaceStep(1, 4, model.EmptySlice, true).Apply(d.Node)
	assert.NotEmpty(t, result.Failed)
}

func TestReplaceAroundWrap(t *testing.T) {
	// wraps a paragraph into a blockquote
	frag, err := model.FragmentFrom(blockquote().Node)
	require.NoError(t, err)
	d := doc(p("one"), p("two"))
	step := NewReplaceAroundStep(5, 10, 5, 10, model.NewSlice(frag, 0, 0), 1, true)
	applyAndInvert(t, d, step, doc(p("one"), blockquote(p("two"))))

	// turns a paragraph into a heading, keeping its text
	frag, err = model.FragmentFrom(h1().Node)
	require.NoError(t, err)
	step = NewReplaceAroundStep(0, 5, 1, 4, model.NewSlice(frag, 0, 0), 1, true)
	applyAndInvert(t, d, step, doc(h1("one"), p("two")))
}
