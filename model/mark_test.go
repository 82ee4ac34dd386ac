package model_test

import (
	"testing"

	. "github.com/cozy/prosemirror-go/model"
	"github.com/stretchr/testify/assert"
)

func TestMarkSameSet(t *testing.T) {
	// returns true for two empty sets
	assert.True(t, SameMarkSet([]*Mark{}, []*Mark{}))

	// returns true for simple identical sets
	assert.True(t, SameMarkSet([]*Mark{em2, strong2}, []*Mark{em2, strong2}))

	// returns false for different sets
	assert.False(t, SameMarkSet([]*Mark{em2, strong2}, []*Mark{em2, code2}))

	// returns false when set size differs
	assert.False(t, SameMarkSet([]*Mark{em2, strong2}, []*Mark{em2, strong2, code2}))

	// recognizes identical links in set
	assert.True(t, SameMarkSet(
		[]*Mark{link("http://foo"), code2},
		[]*Mark{link("http://foo"), code2}))

	// recognizes different links in set
	assert.False(t, SameMarkSet(
		[]*Mark{link("http://foo"), code2},
		[]*Mark{link("http://bar"), code2}))
}

func TestMarkEq(t *testing.T) {
	// considers identical links to be the same
	assert.True(t, link("http://foo").Eq(link("http://foo")))

	// considers different links to differ
	assert.False(t, link("http://foo").Eq(link("http://bar")))

	// considers links with different titles to differ
	assert.False(t, link("http://foo").Eq(link("http://foo", "B")))
}

func TestMarkAddToSet(t *testing.T) {
	// can add to the empty set
	assert.True(t, SameMarkSet(
		em2.AddToSet([]*Mark{}),
		[]*Mark{em2},
	))

	// is a no-op when the added thing is in set
	assert.True(t, SameMarkSet(
		em2.AddToSet([]*Mark{em2}),
		[]*Mark{em2},
	))

	// adds marks with lower rank before others
	assert.True(t, SameMarkSet(
		em2.AddToSet([]*Mark{strong2}),
		[]*Mark{em2, strong2},
	))

	// adds marks with higher rank after others
	assert.True(t, SameMarkSet(
		strong2.AddToSet([]*Mark{em2}),
		[]*Mark{em2, strong2},
	))

	// replaces different marks with new attributes
	assert.True(t, SameMarkSet(
		link("http://bar").AddToSet([]*Mark{link("http://foo"), em2}),
		[]*Mark{link("http://bar"), em2},
	))

	// does nothing when adding an existing link
	assert.True(t, SameMarkSet(
		link("http://foo").AddToSet([]*Mark{em2, link("http://foo")}),
		[]*Mark{em2, link("http://foo")},
	))

	// puts code2 marks at the end
	assert.True(t, SameMarkSet(
		code2.AddToSet([]*Mark{em2, strong2, link("http://foo")}),
		[]*Mark{em2, strong2, link("http://foo"), code2},
	))

	// puts marks with middle rank in the middle
	assert.True(t, SameMarkSet(
		strong2.AddToSet([]*Mark{em2, code2}),
		[]*Mark{em2, strong2, code2},
	))

	// allows nonexclusive instances of marks with the same type
	assert.True(t, SameMarkSet(remark2.AddToSet([]*Mark{remark1}), []*Mark{remark1, remark2}))

	// doesn't duplicate identical instances of nonexclusive marks
	assert.True(t, SameMarkSet(remark1.AddToSet([]*Mark{remark1}), []*Mark{remark1}))

	// clears all others when adding a globally-excluding mark
	assert.True(t, SameMarkSet(user1.AddToSet([]*Mark{remark1, customEm}), []*Mark{user1}))

	// does not allow adding another mark to a globally-excluding mark
	assert.True(t, SameMarkSet(customEm.AddToSet([]*Mark{user1}), []*Mark{user1}))

	// does overwrite a globally-excluding mark when adding another instance
	assert.True(t, SameMarkSet(user2.AddToSet([]*Mark{user1}), []*Mark{user2}))

	// doesn't add anything when another mark excludes the added mark
	assert.True(t, SameMarkSet(customEm.AddToSet([]*Mark{remark1, customStrong}), []*Mark{remark1, customStrong}))

	// remove excluded marks when adding a mark
	assert.True(t, SameMarkSet(customStrong.AddToSet([]*Mark{remark1, customEm}), []*Mark{remark1, customStrong}))
}

func TestMarkRemoveFromSet(t *testing.T) {
	// is a no-op for the empty set
	assert.True(t, SameMarkSet(em2.RemoveFromSet([]*Mark{}), []*Mark{}))

	// can remove the last mark from a set
	assert.True(t, SameMarkSet(em2.RemoveFromSet([]*Mark{em2}), []*Mark{}))

	// is a no-op when the mark isn't in the set
	assert.True(t, SameMarkSet(strong2.RemoveFromSet([]*Mark{em2}), []*Mark{em2}))

	// can remove a mark with attributes
	assert.True(t, SameMarkSet(link("http://foo").RemoveFromSet([]*Mark{link("http://foo")}), []*Mark{}))

	// doesn't remove a mark when its attrs differ
	assert.True(t, SameMarkSet(
		link("http://foo", "title").RemoveFromSet([]*Mark{link("http://foo")}),
		[]*Mark{link("http://foo")},
	))
}

func TestMarkSetFrom(t *testing.T) {
	assert.Empty(t, MarkSetFrom())
	assert.True(t, SameMarkSet(MarkSetFrom(strong2, em2), []*Mark{em2, strong2}))
	assert.True(t, SameMarkSet(MarkSetFrom(code2, link("http://foo")), []*Mark{link("http://foo"), code2}))
}

func TestMarkJSON(t *testing.T) {
	mark, err := MarkFromJSON(schema, map[string]interface{}{
		"type":  "link",
		"attrs": map[string]interface{}{"href": "http://foo"},
	})
	assert.NoError(t, err)
	assert.True(t, mark.Eq(link("http://foo")))
	assert.Equal(t, map[string]interface{}{
		"type":  "link",
		"attrs": map[string]interface{}{"href": "http://foo", "title": nil},
	}, mark.ToJSON())

	_, err = MarkFromJSON(schema, map[string]interface{}{"type": "blink"})
	assert.Error(t, err)
	_, err = MarkFromJSON(schema, "em")
	assert.Error(t, err)
}
