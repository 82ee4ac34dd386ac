// Package builder provides helpers to build documents in tests. Strings
// passed to a builder may contain tags like <a>, whose positions are
// recorded in the Tag map of the resulting node.
package builder

import (
	"regexp"

	"github.com/cozy/prosemirror-go/model"
	"github.com/cozy/prosemirror-go/schema/basic"
	"github.com/cozy/prosemirror-go/schema/list"
)

// Spec describes a named builder: "nodeType" or "markType" gives the type,
// other keys are attributes.
type Spec map[string]interface{}

// NodeWithTag is a node built by a NodeBuilder, with its tagged positions.
type NodeWithTag struct {
	*model.Node
	Tag map[string]int
}

// MarkWithTag is the result of a MarkBuilder: marked inline nodes that are
// flattened into their parent.
type MarkWithTag struct {
	Flat []*model.Node
	Tag  map[string]int
}

// NodeBuilder builds a node from optional attributes and children.
type NodeBuilder func(args ...interface{}) NodeWithTag

// MarkBuilder applies a mark to its children.
type MarkBuilder func(args ...interface{}) MarkWithTag

var tagRegexp = regexp.MustCompile(`<(\w+)>`)

func flatten(schema *model.Schema, children []interface{}, f func(*model.Node) *model.Node) ([]*model.Node, map[string]int) {
	var result []*model.Node
	pos := 0
	tag := map[string]int{}
	for _, child := range children {
		switch child := child.(type) {
		case string:
			at := 0
			out := ""
			for _, m := range tagRegexp.FindAllStringSubmatchIndex(child, -1) {
				out += child[at:m[0]]
				pos += model.TextLength(child[at:m[0]])
				at = m[1]
				tag[child[m[2]:m[3]]] = pos
			}
			out += child[at:]
			pos += model.TextLength(child[at:])
			if out != "" {
				result = append(result, f(schema.Text(out)))
			}
		case NodeWithTag:
			for id, p := range child.Tag {
				tag[id] = p + 1 + pos
			}
			node := f(child.Node)
			pos += node.NodeSize()
			result = append(result, node)
		case *model.Node:
			node := f(child)
			pos += node.NodeSize()
			result = append(result, node)
		case NodeBuilder:
			node := f(child().Node)
			pos += node.NodeSize()
			result = append(result, node)
		case MarkWithTag:
			for id, p := range child.Tag {
				tag[id] = p + pos
			}
			for _, n := range child.Flat {
				node := f(n)
				pos += node.NodeSize()
				result = append(result, node)
			}
		}
	}
	return result, tag
}

func takeAttrs(attrs map[string]interface{}, args []interface{}) (map[string]interface{}, []interface{}) {
	if len(args) == 0 {
		return attrs, args
	}
	given, ok := args[0].(map[string]interface{})
	if !ok {
		return attrs, args
	}
	merged := map[string]interface{}{}
	for k, v := range attrs {
		merged[k] = v
	}
	for k, v := range given {
		merged[k] = v
	}
	return merged, args[1:]
}

func block(typ *model.NodeType, attrs map[string]interface{}) NodeBuilder {
	return func(args ...interface{}) NodeWithTag {
		myAttrs, children := takeAttrs(attrs, args)
		nodes, tag := flatten(typ.Schema, children, func(n *model.Node) *model.Node { return n })
		node, err := typ.Create(myAttrs, nodes, nil)
		if err != nil {
			panic(err)
		}
		return NodeWithTag{Node: node, Tag: tag}
	}
}

func mark(typ *model.MarkType, attrs map[string]interface{}) MarkBuilder {
	return func(args ...interface{}) MarkWithTag {
		myAttrs, children := takeAttrs(attrs, args)
		mk := typ.Create(myAttrs)
		nodes, tag := flatten(typ.Schema, children, func(n *model.Node) *model.Node {
			if mk.Type.IsInSet(n.Marks) != nil {
				return n
			}
			return n.Mark(mk.AddToSet(n.Marks))
		})
		return MarkWithTag{Flat: nodes, Tag: tag}
	}
}

// Builders creates a builder for every node and mark type of the schema,
// under their own name, plus the named builders given by names.
func Builders(schema *model.Schema, names map[string]Spec) map[string]interface{} {
	result := map[string]interface{}{"schema": schema}
	for name, typ := range schema.Nodes {
		result[name] = block(typ, nil)
	}
	for name, typ := range schema.Marks {
		result[name] = mark(typ, nil)
	}
	for name, spec := range names {
		attrs := map[string]interface{}{}
		for k, v := range spec {
			if k != "nodeType" && k != "markType" {
				attrs[k] = v
			}
		}
		if typeName, ok := spec["nodeType"].(string); ok {
			result[name] = block(schema.Nodes[typeName], attrs)
		} else if typeName, ok := spec["markType"].(string); ok {
			result[name] = mark(schema.Marks[typeName], attrs)
		}
	}
	return result
}

func mustSchema(spec *model.SchemaSpec) *model.Schema {
	schema, err := model.NewSchema(spec)
	if err != nil {
		panic(err)
	}
	return schema
}

var testSchema = mustSchema(&model.SchemaSpec{
	Nodes: list.AddListNodes(basic.Schema.Spec.Nodes, "paragraph block*", "block"),
	Marks: basic.Schema.Spec.Marks,
})

var out = Builders(testSchema, map[string]Spec{
	"p":   {"nodeType": "paragraph"},
	"pre": {"nodeType": "code_block"},
	"h1":  {"nodeType": "heading", "level": 1},
	"h2":  {"nodeType": "heading", "level": 2},
	"h3":  {"nodeType": "heading", "level": 3},
	"li":  {"nodeType": "list_item"},
	"ul":  {"nodeType": "bullet_list"},
	"ol":  {"nodeType": "ordered_list"},
	"br":  {"nodeType": "hard_break"},
	"img": {"nodeType": "image", "src": "img.png"},
	"hr":  {"nodeType": "horizontal_rule"},
	"a":   {"markType": "link", "href": "foo"},
})

// Builders for the test schema, which is the basic schema plus lists.
var (
	Schema     = out["schema"].(*model.Schema)
	Doc        = out["doc"].(NodeBuilder)
	P          = out["p"].(NodeBuilder)
	Blockquote = out["blockquote"].(NodeBuilder)
	Pre        = out["pre"].(NodeBuilder)
	H1         = out["h1"].(NodeBuilder)
	H2         = out["h2"].(NodeBuilder)
	H3         = out["h3"].(NodeBuilder)
	Li         = out["li"].(NodeBuilder)
	Ul         = out["ul"].(NodeBuilder)
	Ol         = out["ol"].(NodeBuilder)
	Br         = out["br"].(NodeBuilder)
	Img        = out["img"].(NodeBuilder)
	Hr         = out["hr"].(NodeBuilder)
	A          = out["a"].(MarkBuilder)
	Em         = out["em"].(MarkBuilder)
	Strong     = out["strong"].(MarkBuilder)
	Code       = out["code"].(MarkBuilder)
)
