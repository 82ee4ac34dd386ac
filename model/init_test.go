package model_test

import (
	. "github.com/cozy/prosemirror-go/model"
	"github.com/cozy/prosemirror-go/test/builder"
)

var (
	schema     = builder.Schema
	doc        = builder.Doc
	blockquote = builder.Blockquote
	h1         = builder.H1
	h2         = builder.H2
	p          = builder.P
	em         = builder.Em
	strong     = builder.Strong
	ul         = builder.Ul
	li         = builder.Li
	img        = builder.Img
	br         = builder.Br
	hr         = builder.Hr
	pre        = builder.Pre
	code       = builder.Code
	a          = builder.A

	strong2 = schema.Mark("strong")
	em2     = schema.Mark("em")
	code2   = schema.Mark("code")
	link    = func(href string, title ...string) *Mark {
		attrs := map[string]interface{}{"href": href}
		if len(title) > 0 {
			attrs["title"] = title[0]
		}
		return schema.Mark("link", attrs)
	}

	empty      = ""
	underscore = "_"
	falsy      = false
	emGroup    = "em-group"
	idAttrs    = map[string]*AttributeSpec{
		"id": {},
	}

	custom = mustSchema(&SchemaSpec{
		Nodes: []*NodeSpec{
			{Key: "doc", Content: "paragraph+"},
			{Key: "paragraph", Content: "text*"},
			{Key: "text"},
		},
		Marks: []*MarkSpec{
			{Key: "remark", Attrs: idAttrs, Excludes: &empty, Inclusive: &falsy},
			{Key: "user", Attrs: idAttrs, Excludes: &underscore},
			{Key: "strong", Excludes: &emGroup},
			{Key: "em", Group: emGroup},
		},
	})
	remark1      = custom.Mark("remark", map[string]interface{}{"id": 1})
	remark2      = custom.Mark("remark", map[string]interface{}{"id": 2})
	user1        = custom.Mark("user", map[string]interface{}{"id": 1})
	user2        = custom.Mark("user", map[string]interface{}{"id": 2})
	customEm     = custom.Mark("em")
	customStrong = custom.Mark("strong")
)

func mustSchema(spec *SchemaSpec) *Schema {
	s, err := NewSchema(spec)
	if err != nil {
		panic(err)
	}
	return s
}
