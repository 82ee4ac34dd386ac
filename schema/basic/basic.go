// Package basic defines a basic ProseMirror document schema, whose elements
// can be reused in other schemas.
package basic

import "github.com/cozy/prosemirror-go/model"

var (
	empty = ""
	falsy = false

	headingAttrs = map[string]*model.AttributeSpec{
		"level": {Default: 1, Validate: "number"},
	}
	imageAttrs = map[string]*model.AttributeSpec{
		"src":   {Validate: "string"},
		"alt":   {HasDefault: true, Validate: "string|null"},
		"title": {HasDefault: true, Validate: "string|null"},
	}
	linkAttrs = map[string]*model.AttributeSpec{
		"href":  {Validate: "string"},
		"title": {HasDefault: true, Validate: "string|null"},
	}
)

// Nodes are the specs for the nodes defined in this schema.
var Nodes = []*model.NodeSpec{
	// The top level document node.
	{Key: "doc", Content: "block+"},

	// A plain paragraph textblock.
	{Key: "paragraph", Content: "inline*", Group: "block"},

	// A blockquote wrapping one or more blocks.
	{Key: "blockquote", Content: "block+", Group: "block", Defining: true},

	// A horizontal rule.
	{Key: "horizontal_rule", Group: "block"},

	// A heading textblock, with a level attribute that should hold the number 1
	// to 6.
	{Key: "heading", Content: "inline*", Group: "block", Attrs: headingAttrs, Defining: true},

	// A code listing. Disallows marks or non-text inline nodes by default.
	{Key: "code_block", Content: "text*", Marks: &empty, Group: "block", Code: true, Defining: true, Whitespace: "pre"},

	// The text node.
	{Key: "text", Group: "inline"},

	// An inline image node. Supports src, alt, and title attributes. The
	// latter two default to nil.
	{Key: "image", Inline: true, Group: "inline", Attrs: imageAttrs, Draggable: true},

	// A hard line break.
	{Key: "hard_break", Inline: true, Group: "inline", Selectable: &falsy, LeafText: func(*model.Node) string { return "\n" }},
}

// Marks are the specs for the marks in the schema.
var Marks = []*model.MarkSpec{
	// A link. Has href and title attributes. title defaults to nil.
	{Key: "link", Attrs: linkAttrs, Inclusive: &falsy},

	// An emphasis mark.
	{Key: "em"},

	// A strong mark.
	{Key: "strong"},

	// Code font mark.
	{Key: "code", Code: true},
}

// Schema roughly corresponds to the document schema used by
// [CommonMark](http://commonmark.org/), minus the list elements, which are
// defined in the list package.
//
// To reuse elements from this schema, extend or read from its Spec.Nodes and
// Spec.Marks properties.
var Schema = mustSchema(&model.SchemaSpec{
	Nodes: Nodes,
	Marks: Marks,
})

func mustSchema(spec *model.SchemaSpec) *model.Schema {
	schema, err := model.NewSchema(spec)
	if err != nil {
		panic(err)
	}
	return schema
}
