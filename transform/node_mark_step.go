package transform

import (
	"errors"

	"github.com/cozy/prosemirror-go/model"
)

// updateNodeAt replaces the node at pos by a node with the same type and
// content, but the given attributes and marks. Only the opening token is
// replaced, so the content is kept in place.
func updateNodeAt(doc *model.Node, pos int, node *model.Node, attrs map[string]interface{}, marks []*model.Mark) StepResult {
	updated, err := node.Type.Create(attrs, nil, marks)
	if err != nil {
		return Fail(err.Error())
	}
	openEnd := 1
	if node.IsLeaf() {
		openEnd = 0
	}
	slice := model.NewSlice(model.NewFragment([]*model.Node{updated}), 0, openEnd)
	return FromReplace(doc, pos, pos+1, slice)
}

// AddNodeMarkStep adds a mark to a specific node.
type AddNodeMarkStep struct {
	// The position of the target node.
	Pos int
	// The mark to add.
	Mark *model.Mark
}

// NewAddNodeMarkStep is the constructor for AddNodeMarkStep.
func NewAddNodeMarkStep(pos int, mark *model.Mark) *AddNodeMarkStep {
	return &AddNodeMarkStep{Pos: pos, Mark: mark}
}

// Apply is a method of the Step interface.
func (s *AddNodeMarkStep) Apply(doc *model.Node) StepResult {
	node := doc.NodeAt(s.Pos)
	if node == nil {
		return Fail("No node at mark step's position")
	}
	return updateNodeAt(doc, s.Pos, node, node.Attrs, s.Mark.AddToSet(node.Marks))
}

// GetMap is a method of the Step interface.
func (s *AddNodeMarkStep) GetMap() *StepMap {
	return EmptyStepMap
}

// Invert is a method of the Step interface. When the added mark replaces an
// exclusive one, the inverse puts that mark back.
func (s *AddNodeMarkStep) Invert(doc *model.Node) (Step, error) {
	if node := doc.NodeAt(s.Pos); node != nil {
		newSet := s.Mark.AddToSet(node.Marks)
		if len(newSet) == len(node.Marks) {
			for _, m := range node.Marks {
				if !m.IsInSet(newSet) {
					return NewAddNodeMarkStep(s.Pos, m), nil
				}
			}
			return NewAddNodeMarkStep(s.Pos, s.Mark), nil
		}
	}
	return NewRemoveNodeMarkStep(s.Pos, s.Mark), nil
}

// Map is a method of the Step interface.
func (s *AddNodeMarkStep) Map(mapping Mappable) Step {
	pos := mapping.MapResult(s.Pos, 1)
	if pos.DeletedAfter() {
		return nil
	}
	return NewAddNodeMarkStep(pos.Pos, s.Mark)
}

// Merge is a method of the Step interface.
func (s *AddNodeMarkStep) Merge(other Step) (Step, bool) {
	return nil, false
}

// ToJSON is a method of the Step interface.
func (s *AddNodeMarkStep) ToJSON() map[string]interface{} {
	return map[string]interface{}{
		"stepType": "addNodeMark",
		"pos":      s.Pos,
		"mark":     s.Mark.ToJSON(),
	}
}

// AddNodeMarkStepFromJSON builds an AddNodeMarkStep from a JSON
// representation.
func AddNodeMarkStepFromJSON(schema *model.Schema, obj map[string]interface{}) (Step, error) {
	pos, ok := intField(obj, "pos")
	if !ok {
		return nil, errors.New("Invalid input for AddNodeMarkStep.fromJSON")
	}
	mark, err := schema.MarkFromJSON(obj["mark"])
	if err != nil {
		return nil, err
	}
	return NewAddNodeMarkStep(pos, mark), nil
}

var _ Step = &AddNodeMarkStep{}

// RemoveNodeMarkStep removes a mark from a specific node.
type RemoveNodeMarkStep struct {
	// The position of the target node.
	Pos int
	// The mark to remove.
	Mark *model.Mark
}

// NewRemoveNodeMarkStep is the constructor for RemoveNodeMarkStep.
func NewRemoveNodeMarkStep(pos int, mark *model.Mark) *RemoveNodeMarkStep {
	return &RemoveNodeMarkStep{Pos: pos, Mark: mark}
}

// Apply is a method of the Step interface.
func (s *RemoveNodeMarkStep) Apply(doc *model.Node) StepResult {
	node := doc.NodeAt(s.Pos)
	if node == nil {
		return Fail("No node at mark step's position")
	}
	return updateNodeAt(doc, s.Pos, node, node.Attrs, s.Mark.RemoveFromSet(node.Marks))
}

// GetMap is a method of the Step interface.
func (s *RemoveNodeMarkStep) GetMap() *StepMap {
	return EmptyStepMap
}

// Invert is a method of the Step interface.
func (s *RemoveNodeMarkStep) Invert(doc *model.Node) (Step, error) {
	node := doc.NodeAt(s.Pos)
	if node == nil || !s.Mark.IsInSet(node.Marks) {
		return s, nil
	}
	return NewAddNodeMarkStep(s.Pos, s.Mark), nil
}

// Map is a method of the Step interface.
func (s *RemoveNodeMarkStep) Map(mapping Mappable) Step {
	pos := mapping.MapResult(s.Pos, 1)
	if pos.DeletedAfter() {
		return nil
	}
	return NewRemoveNodeMarkStep(pos.Pos, s.Mark)
}

// Merge is a method of the Step interface.
func (s *RemoveNodeMarkStep) Merge(other Step) (Step, bool) {
	return nil, false
}

// ToJSON is a method of the Step interface.
func (s *RemoveNodeMarkStep) ToJSON() map[string]interface{} {
	return map[string]interface{}{
		"stepType": "removeNodeMark",
		"pos":      s.Pos,
		"mark":     s.Mark.ToJSON(),
	}
}

// RemoveNodeMarkStepFromJSON builds a RemoveNodeMarkStep from a JSON
// representation.
func RemoveNodeMarkStepFromJSON(schema *model.Schema, obj map[string]interface{}) (Step, error) {
	pos, ok := intField(obj, "pos")
	if !ok {
		return nil, errors.New("Invalid input for RemoveNodeMarkStep.fromJSON")
	}
	mark, err := schema.MarkFromJSON(obj["mark"])
	if err != nil {
		return nil, err
	}
	return NewRemoveNodeMarkStep(pos, mark), nil
}

var _ Step = &RemoveNodeMarkStep{}
