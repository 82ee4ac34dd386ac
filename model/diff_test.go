package model_test

import (
	"testing"

	. "github.com/cozy/prosemirror-go/model"
	"github.com/cozy/prosemirror-go/test/builder"
	"github.com/stretchr/testify/assert"
)

func TestFindDiffStart(t *testing.T) {
	same := func(a, b builder.NodeWithTag) {
		t.Helper()
		assert.Nil(t, a.Content.FindDiffStart(b.Content), "%s / %s", a, b)
	}
	at := func(a, b builder.NodeWithTag, want int) {
		t.Helper()
		found := a.Content.FindDiffStart(b.Content)
		if assert.NotNil(t, found, "%s / %s", a, b) {
			assert.Equal(t, want, *found, "%s / %s", a, b)
		}
	}

	same(doc(p("a😀b"), ul(li(p("x")))), doc(p("a😀b"), ul(li(p("x")))))

	// positions after astral characters count two units per emoji
	at(doc(p("😀😀x")), doc(p("😀😀y")), 5)

	// emoji sharing their high surrogate differ on the low one
	at(doc(p("a😀")), doc(p("a😁")), 3)

	// text split across marks
	at(doc(p("ab", em("cd"))), doc(p("abc", em("d"))), 3)
	at(doc(p("ab", em("c"))), doc(p("ab", strong("c"))), 3)

	// mark attributes
	at(doc(p(schema.Text("x", link("foo")))), doc(p(schema.Text("x", link("bar")))), 1)

	// node attributes
	at(doc(p("x", img)), doc(p("x", img(map[string]interface{}{"src": "other.png"}))), 2)
	at(doc(h1("x")), doc(h2("x")), 0)

	// descends into nested lists
	at(doc(ul(li(p("a")), li(p("b")))), doc(ul(li(p("a")), li(p("c")))), 8)

	// one side has more blocks
	at(doc(p("a")), doc(p("a"), hr), 3)

	// an offset shifts the result
	found := doc(p("a")).Content.FindDiffStart(doc(p("b")).Content, 10)
	if assert.NotNil(t, found) {
		assert.Equal(t, 11, *found)
	}
}

func TestFindDiffEnd(t *testing.T) {
	same := func(a, b builder.NodeWithTag) {
		t.Helper()
		assert.Nil(t, a.Content.FindDiffEnd(b.Content), "%s / %s", a, b)
	}
	at := func(a, b builder.NodeWithTag, wantA, wantB int) {
		t.Helper()
		found := a.Content.FindDiffEnd(b.Content)
		if assert.NotNil(t, found, "%s / %s", a, b) {
			assert.Equal(t, DiffEnd{A: wantA, B: wantB}, *found, "%s / %s", a, b)
		}
	}

	same(doc(p("x😀"), hr), doc(p("x😀"), hr))

	// common astral suffix
	at(doc(p("x😀😀")), doc(p("y😀😀")), 2, 2)

	// the two positions move independently
	at(doc(p("hello😀")), doc(p("😀")), 6, 1)

	// marks before a common text
	at(doc(p(em("a"), "bc")), doc(p(strong("a"), "bc")), 2, 2)

	// an extra leading block
	at(doc(hr, p("a")), doc(p("a")), 1, 0)
}
