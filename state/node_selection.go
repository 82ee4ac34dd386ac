package state

import (
	"errors"

	"github.com/cozy/prosemirror-go/model"
	"github.com/cozy/prosemirror-go/transform"
)

// NodeSelection is a selection that points at a single node. All nodes
// marked selectable can be the target of a node selection. In such a
// selection, from and to point directly before and after the selected node,
// anchor equals from, and head equals to.
type NodeSelection struct {
	baseSelection
	// The selected node.
	Node *model.Node
}

// NewNodeSelection creates a node selection. Does not verify the validity
// of its argument.
func NewNodeSelection(pos *model.ResolvedPos) (*NodeSelection, error) {
	node := pos.NodeAfter()
	if node == nil {
		return nil, errors.New("No node after the position of a node selection")
	}
	end, err := pos.Doc().Resolve(pos.Pos + node.NodeSize())
	if err != nil {
		return nil, err
	}
	return &NodeSelection{baseSelection: newBaseSelection(pos, end), Node: node}, nil
}

// CreateNodeSelection creates a node selection from non-resolved positions.
func CreateNodeSelection(doc *model.Node, from int) (*NodeSelection, error) {
	pos, err := doc.Resolve(from)
	if err != nil {
		return nil, err
	}
	return NewNodeSelection(pos)
}

// IsSelectable determines whether the given node may be selected as a node
// selection.
func IsSelectable(node *model.Node) bool {
	if node.IsText() {
		return false
	}
	selectable := node.Type.Spec.Selectable
	return selectable == nil || *selectable
}

// Visible is a method of the Selection interface.
func (s *NodeSelection) Visible() bool {
	return false
}

// Content is a method of the Selection interface.
func (s *NodeSelection) Content() (*model.Slice, error) {
	return model.NewSlice(model.NewFragment([]*model.Node{s.Node}), 0, 0), nil
}

// Map is a method of the Selection interface.
func (s *NodeSelection) Map(doc *model.Node, mapping transform.Mappable) (Selection, error) {
	result := mapping.MapResult(s.Anchor())
	pos, err := doc.Resolve(result.Pos)
	if err != nil {
		return nil, err
	}
	if result.Deleted() || pos.NodeAfter() == nil {
		return Near(pos), nil
	}
	return NewNodeSelection(pos)
}

// Eq is a method of the Selection interface.
func (s *NodeSelection) Eq(other Selection) bool {
	o, ok := other.(*NodeSelection)
	return ok && o.Anchor() == s.Anchor()
}

// GetBookmark is a method of the Selection interface.
func (s *NodeSelection) GetBookmark() SelectionBookmark {
	return NodeBookmark{AnchorPos: s.Anchor()}
}

// ToJSON is a method of the Selection interface.
func (s *NodeSelection) ToJSON() map[string]interface{} {
	return map[string]interface{}{"type": "node", "anchor": s.Anchor()}
}

// NodeSelectionFromJSON deserializes a node selection.
func NodeSelectionFromJSON(doc *model.Node, obj map[string]interface{}) (Selection, error) {
	anchor, ok := intField(obj, "anchor")
	if !ok {
		return nil, errors.New("Invalid input for NodeSelection.fromJSON")
	}
	return CreateNodeSelection(doc, anchor)
}

// NodeBookmark is the bookmark of a node selection.
type NodeBookmark struct {
	AnchorPos int
}

// Map is a method of the SelectionBookmark interface. When the node was
// deleted, the bookmark turns into a text bookmark.
func (b NodeBookmark) Map(mapping transform.Mappable) SelectionBookmark {
	result := mapping.MapResult(b.AnchorPos)
	if result.Deleted() {
		return TextBookmark{AnchorPos: result.Pos, HeadPos: result.Pos}
	}
	return NodeBookmark{AnchorPos: result.Pos}
}

// Resolve is a method of the SelectionBookmark interface.
func (b NodeBookmark) Resolve(doc *model.Node) (Selection, error) {
	pos, err := doc.Resolve(b.AnchorPos)
	if err != nil {
		return nil, err
	}
	if node := pos.NodeAfter(); node != nil && IsSelectable(node) {
		return NewNodeSelection(pos)
	}
	return Near(pos), nil
}

// AllSelection represents a selection spanning the entire document, which
// is not necessarily expressible with a text selection.
type AllSelection struct {
	baseSelection
}

// NewAllSelection creates an all-selection over the given document.
func NewAllSelection(doc *model.Node) *AllSelection {
	start, _ := doc.Resolve(0)
	end, _ := doc.Resolve(doc.Content.Size)
	return &AllSelection{baseSelection: newBaseSelection(start, end)}
}

// Replace is a method of the Selection interface. Deleting everything
// leaves a selection at the start of the document.
func (s *AllSelection) Replace(tr *transform.Transform, content *model.Slice) (Selection, error) {
	if content != nil && content.Size() > 0 {
		return s.baseSelection.Replace(tr, content)
	}
	if err := tr.Delete(0, tr.Doc.Content.Size); err != nil {
		return nil, err
	}
	return AtStart(tr.Doc), nil
}

// Map is a method of the Selection interface.
func (s *AllSelection) Map(doc *model.Node, mapping transform.Mappable) (Selection, error) {
	return NewAllSelection(doc), nil
}

// Eq is a method of the Selection interface.
func (s *AllSelection) Eq(other Selection) bool {
	_, ok := other.(*AllSelection)
	return ok
}

// GetBookmark is a method of the Selection interface.
func (s *AllSelection) GetBookmark() SelectionBookmark {
	return AllBookmark{}
}

// ToJSON is a method of the Selection interface.
func (s *AllSelection) ToJSON() map[string]interface{} {
	return map[string]interface{}{"type": "all"}
}

// AllSelectionFromJSON deserializes an all-selection.
func AllSelectionFromJSON(doc *model.Node, _ map[string]interface{}) (Selection, error) {
	return NewAllSelection(doc), nil
}

// AllBookmark is the bookmark of an all-selection.
type AllBookmark struct{}

// Map is a method of the SelectionBookmark interface.
func (b AllBookmark) Map(transform.Mappable) SelectionBookmark {
	return b
}

// Resolve is a method of the SelectionBookmark interface.
func (b AllBookmark) Resolve(doc *model.Node) (Selection, error) {
	return NewAllSelection(doc), nil
}

var (
	_ Selection         = &NodeSelection{}
	_ Selection         = &AllSelection{}
	_ SelectionBookmark = NodeBookmark{}
	_ SelectionBookmark = AllBookmark{}
)
