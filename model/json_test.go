package model_test

import (
	"encoding/json"
	"testing"

	"github.com/cozy/prosemirror-go/model"
	"github.com/cozy/prosemirror-go/test/builder"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONNode(t *testing.T) {
	jsonSpec := `
{
  "nodes": [
    ["doc", { "content": "block+" }],
    ["paragraph", { "content": "inline*", "group": "block" }],
    ["blockquote", { "content": "block+", "group": "block" }],
    ["horizontal_rule", { "group": "block" }],
    [
  	"heading",
  	{
  	  "content": "inline*",
  	  "group": "block",
  	  "attrs": { "level": { "default": 1 } }
  	}
    ],
    ["code_block", { "content": "text*", "marks": "", "group": "block" }],
    ["text", { "group": "inline" }],
    [
  	"image",
  	{
  	  "group": "inline",
  	  "inline": true,
  	  "attrs": { "alt": {}, "src": {}, "title": {} }
  	}
    ],
    ["hard_break", { "group": "inline", "inline": true }],
    [
  	"ordered_list",
  	{
  	  "content": "list_item+",
  	  "group": "block",
  	  "attrs": { "order": { "default": 1 } }
  	}
    ],
    ["bullet_list", { "content": "list_item+", "group": "block" }],
    ["list_item", { "content": "paragraph block*" }]
  ],
  "marks": [
    ["link", { "attrs": { "href": {}, "title": {} }, "inclusive": false }],
    ["em", {}],
    ["strong", {}],
    ["code", {}]
  ],
  "topNode": "doc"
}`

	var spec model.SchemaSpec
	err := json.Unmarshal([]byte(jsonSpec), &spec)
	assert.NoError(t, err)
	schema, err := model.NewSchema(&spec)
	assert.NoError(t, err)
	typ, err := schema.NodeType(schema.Spec.TopNode)
	assert.NoError(t, err)
	node, err := typ.CreateAndFill()
	assert.NoError(t, err)
	assert.NotNil(t, node)
	result, err := json.Marshal(node.ToJSON())
	assert.NoError(t, err)
	assert.JSONEq(t, `{"type":"doc","content":[{"type":"paragraph"}]}`, string(result))

	// the object form keeps the order of the keys
	var objSpec model.SchemaSpec
	err = json.Unmarshal([]byte(`{
  "nodes": {
    "doc": {"content": "block+"},
    "paragraph": {"content": "text*", "group": "block"},
    "text": {}
  }
}`), &objSpec)
	assert.NoError(t, err)
	if assert.Len(t, objSpec.Nodes, 3) {
		assert.Equal(t, "doc", objSpec.Nodes[0].Key)
		assert.Equal(t, "text", objSpec.Nodes[2].Key)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	roundTrip := func(node builder.NodeWithTag) {
		t.Helper()
		data, err := json.Marshal(node.Node)
		require.NoError(t, err)
		var raw interface{}
		require.NoError(t, json.Unmarshal(data, &raw))
		back, err := model.NodeFromJSON(schema, raw)
		require.NoError(t, err)
		assert.True(t, back.Eq(node.Node), "%s != %s", back, node.Node)

		again, err := json.Marshal(back)
		require.NoError(t, err)
		var rawAgain interface{}
		require.NoError(t, json.Unmarshal(again, &rawAgain))
		if diff := cmp.Diff(raw, rawAgain); diff != "" {
			t.Errorf("JSON changed after a round trip (-want +got):\n%s", diff)
		}
	}

	// can serialize a simple node
	roundTrip(doc(p("foo")))
	// can serialize marks
	roundTrip(doc(p("foo", em("bar", strong("baz")), " ", a("x"))))
	// can serialize inline leaf nodes
	roundTrip(doc(p("foo", em(img, "bar"))))
	// can serialize block leaf nodes
	roundTrip(doc(p("a"), hr, p("b"), p()))
	// can serialize nested nodes
	roundTrip(doc(blockquote(ul(li(p("a"), p("b")), li(p(img))), p("c")), p("d")))
	// can serialize non-BMP text
	roundTrip(doc(p("a😀b", em("c"))))
}

func TestJSONErrors(t *testing.T) {
	bad := func(raw interface{}) {
		t.Helper()
		_, err := model.NodeFromJSON(schema, raw)
		assert.Error(t, err)
	}
	bad("doc")
	bad(map[string]interface{}{"type": "nope"})
	bad(map[string]interface{}{"type": "text", "text": ""})
	bad(map[string]interface{}{"type": "image"})
	bad(map[string]interface{}{"type": "heading", "attrs": map[string]interface{}{"level": "one"}})
	bad(map[string]interface{}{"type": "paragraph", "marks": "em"})
}
