// Package list exports list-related schema elements. They assume lists to be
// nestable, with the restriction that the first child of a list item is a
// plain paragraph.
package list

import "github.com/cozy/prosemirror-go/model"

// OrderedList returns an ordered list node spec. It has a single attribute,
// order, which determines the number at which the list starts counting, and
// defaults to 1.
func OrderedList() *model.NodeSpec {
	return &model.NodeSpec{
		Key: "ordered_list",
		Attrs: map[string]*model.AttributeSpec{
			"order": {Default: 1, Validate: "number"},
		},
	}
}

// BulletList returns a bullet list node spec.
func BulletList() *model.NodeSpec {
	return &model.NodeSpec{Key: "bullet_list"}
}

// ListItem returns a list item spec.
func ListItem() *model.NodeSpec {
	return &model.NodeSpec{Key: "list_item", Defining: true}
}

func add(obj *model.NodeSpec, content, group string) *model.NodeSpec {
	obj.Content = content
	if group != "" {
		obj.Group = group
	}
	return obj
}

// AddListNodes is a convenience function for adding list-related node types
// to the node specs of a schema. Adds OrderedList as "ordered_list",
// BulletList as "bullet_list", and ListItem as "list_item".
//
// itemContent determines the content expression for the list items. It
// should have a shape like "paragraph block*" or "paragraph (ordered_list |
// bullet_list)*". listGroup can be given to assign a group name to the list
// node types, for example "block".
func AddListNodes(nodes []*model.NodeSpec, itemContent, listGroup string) []*model.NodeSpec {
	extended := make([]*model.NodeSpec, len(nodes), len(nodes)+3)
	copy(extended, nodes)
	return append(
		extended,
		add(OrderedList(), "list_item+", listGroup),
		add(BulletList(), "list_item+", listGroup),
		add(ListItem(), itemContent, ""),
	)
}
