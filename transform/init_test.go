package transform

import (
	"encoding/json"
	"testing"

	"github.com/cozy/prosemirror-go/model"
	"github.com/cozy/prosemirror-go/test/builder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	schema     = builder.Schema
	doc        = builder.Doc
	p          = builder.P
	blockquote = builder.Blockquote
	pre        = builder.Pre
	h1         = builder.H1
	h2         = builder.H2
	li         = builder.Li
	ul         = builder.Ul
	ol         = builder.Ol
	br         = builder.Br
	img        = builder.Img
	hr         = builder.Hr
	a          = builder.A
	em         = builder.Em
	strong     = builder.Strong
)

func mark(name string, attrs ...map[string]interface{}) *model.Mark {
	return schema.Mark(name, attrs...)
}

func nodeType(name string) *model.NodeType {
	return schema.Nodes[name]
}

// testTransform checks the document produced by tr, the mapping of the tags
// of the starting document, the JSON encoding of every step, and that
// inverting the steps gives back the starting document.
func testTransform(t *testing.T, tr *Transform, before, expect builder.NodeWithTag) {
	t.Helper()
	if !assert.True(t, tr.Doc.Eq(expect.Node), "%s != %s", tr.Doc, expect.Node) {
		return
	}
	for tag, pos := range expect.Tag {
		if orig, ok := before.Tag[tag]; ok {
			assert.Equal(t, pos, tr.Mapping.Map(orig), "tag %s", tag)
		}
	}

	for i, step := range tr.Steps {
		data, err := json.Marshal(step.ToJSON())
		require.NoError(t, err)
		var raw interface{}
		require.NoError(t, json.Unmarshal(data, &raw))
		decoded, err := StepFromJSON(schema, raw)
		require.NoError(t, err)
		result := decoded.Apply(tr.Docs[i])
		require.Empty(t, result.Failed)
		next := tr.Doc
		if i+1 < len(tr.Docs) {
			next = tr.Docs[i+1]
		}
		assert.True(t, result.Doc.Eq(next), "step %d changed after a JSON round trip", i)
	}

	current := tr.Doc
	for i := len(tr.Steps) - 1; i >= 0; i-- {
		inverted, err := tr.Steps[i].Invert(tr.Docs[i])
		require.NoError(t, err)
		result := inverted.Apply(current)
		require.Empty(t, result.Failed, "inverting step %d", i)
		current = result.Doc
	}
	assert.True(t, current.Eq(before.Node), "inverted: %s != %s", current, before.Node)
}
