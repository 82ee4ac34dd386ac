package transform

import (
	"errors"

	"github.com/cozy/prosemirror-go/model"
)

type mapFn func(node, parent *model.Node, index int) *model.Node

func mapFragment(fragment *model.Fragment, f mapFn, parent *model.Node) *model.Fragment {
	mapped := make([]*model.Node, 0, fragment.ChildCount())
	for i, child := range fragment.Content {
		if child.Content.Size > 0 {
			child = child.Copy(mapFragment(child.Content, f, child))
		}
		if child.IsInline() {
			child = f(child, parent, i)
		}
		mapped = append(mapped, child)
	}
	return model.FragmentFromArray(mapped)
}

// AddMarkStep adds a mark to all inline content between two positions.
type AddMarkStep struct {
	From int
	To   int
	Mark *model.Mark
}

// NewAddMarkStep is the constructor for AddMarkStep.
func NewAddMarkStep(from, to int, mark *model.Mark) *AddMarkStep {
	return &AddMarkStep{From: from, To: to, Mark: mark}
}

// Apply is a method of the Step interface.
func (s *AddMarkStep) Apply(doc *model.Node) StepResult {
	oldSlice, err := doc.Slice(s.From, s.To)
	if err != nil {
		return Fail(err.Error())
	}
	dFrom, err := doc.Resolve(s.From)
	if err != nil {
		return Fail(err.Error())
	}
	parent := dFrom.Node(dFrom.SharedDepth(s.To))
	fragment := mapFragment(oldSlice.Content, func(node, parent *model.Node, _ int) *model.Node {
		if !node.IsAtom() || !parent.Type.AllowsMarkType(s.Mark.Type) {
			return node
		}
		return node.Mark(s.Mark.AddToSet(node.Marks))
	}, parent)
	slice := model.NewSlice(fragment, oldSlice.OpenStart, oldSlice.OpenEnd)
	return FromReplace(doc, s.From, s.To, slice)
}

// GetMap is a method of the Step interface.
func (s *AddMarkStep) GetMap() *StepMap {
	return EmptyStepMap
}

// Invert is a method of the Step interface.
func (s *AddMarkStep) Invert(doc *model.Node) (Step, error) {
	return NewRemoveMarkStep(s.From, s.To, s.Mark), nil
}

// Map is a method of the Step interface.
func (s *AddMarkStep) Map(mapping Mappable) Step {
	from := mapping.MapResult(s.From, 1)
	to := mapping.MapResult(s.To, -1)
	if from.Deleted() && to.Deleted() || from.Pos >= to.Pos {
		return nil
	}
	return NewAddMarkStep(from.Pos, to.Pos, s.Mark)
}

// Merge is a method of the Step interface.
func (s *AddMarkStep) Merge(other Step) (Step, bool) {
	o, ok := other.(*AddMarkStep)
	if ok && o.Mark.Eq(s.Mark) && s.From <= o.To && s.To >= o.From {
		return NewAddMarkStep(min(s.From, o.From), max(s.To, o.To), s.Mark), true
	}
	return nil, false
}

// ToJSON is a method of the Step interface.
func (s *AddMarkStep) ToJSON() map[string]interface{} {
	return map[string]interface{}{
		"stepType": "addMark",
		"mark":     s.Mark.ToJSON(),
		"from":     s.From,
		"to":       s.To,
	}
}

// AddMarkStepFromJSON builds an AddMarkStep from a JSON representation.
func AddMarkStepFromJSON(schema *model.Schema, obj map[string]interface{}) (Step, error) {
	pos, ok := intFields(obj, "from", "to")
	if !ok {
		return nil, errors.New("Invalid input for AddMarkStep.fromJSON")
	}
	mark, err := schema.MarkFromJSON(obj["mark"])
	if err != nil {
		return nil, err
	}
	return NewAddMarkStep(pos[0], pos[1], mark), nil
}

var _ Step = &AddMarkStep{}

// RemoveMarkStep removes a mark from all inline content between two
// positions.
type RemoveMarkStep struct {
	From int
	To   int
	Mark *model.Mark
}

// NewRemoveMarkStep is the constructor for RemoveMarkStep.
func NewRemoveMarkStep(from, to int, mark *model.Mark) *RemoveMarkStep {
	return &RemoveMarkStep{From: from, To: to, Mark: mark}
}

// Apply is a method of the Step interface.
func (s *RemoveMarkStep) Apply(doc *model.Node) StepResult {
	oldSlice, err := doc.Slice(s.From, s.To)
	if err != nil {
		return Fail(err.Error())
	}
	fragment := mapFragment(oldSlice.Content, func(node, _ *model.Node, _ int) *model.Node {
		return node.Mark(s.Mark.RemoveFromSet(node.Marks))
	}, doc)
	slice := model.NewSlice(fragment, oldSlice.OpenStart, oldSlice.OpenEnd)
	return FromReplace(doc, s.From, s.To, slice)
}

// GetMap is a method of the Step interface.
func (s *RemoveMarkStep) GetMap() *StepMap {
	return EmptyStepMap
}

// Invert is a method of the Step interface.
func (s *RemoveMarkStep) Invert(doc *model.Node) (Step, error) {
	return NewAddMarkStep(s.From, s.To, s.Mark), nil
}

// Map is a method of the Step interface.
func (s *RemoveMarkStep) Map(mapping Mappable) Step {
	from := mapping.MapResult(s.From, 1)
	to := mapping.MapResult(s.To, -1)
	if from.Deleted() && to.Deleted() || from.Pos >= to.Pos {
		return nil
	}
	return NewRemoveMarkStep(from.Pos, to.Pos, s.Mark)
}

// Merge is a method of the Step interface.
func (s *RemoveMarkStep) Merge(other Step) (Step, bool) {
	o, ok := other.(*RemoveMarkStep)
	if ok && o.Mark.Eq(s.Mark) && s.From <= o.To && s.To >= o.From {
		return NewRemoveMarkStep(min(s.From, o.From), max(s.To, o.To), s.Mark), true
	}
	return nil, false
}

// ToJSON is a method of the Step interface.
func (s *RemoveMarkStep) ToJSON() map[string]interface{} {
	return map[string]interface{}{
		"stepType": "removeMark",
		"mark":     s.Mark.ToJSON(),
		"from":     s.From,
		"to":       s.To,
	}
}

// RemoveMarkStepFromJSON builds a RemoveMarkStep from a JSON representation.
func RemoveMarkStepFromJSON(schema *model.Schema, obj map[string]interface{}) (Step, error) {
	pos, ok := intFields(obj, "from", "to")
	if !ok {
		return nil, errors.New("Invalid input for RemoveMarkStep.fromJSON")
	}
	mark, err := schema.MarkFromJSON(obj["mark"])
	if err != nil {
		return nil, err
	}
	return NewRemoveMarkStep(pos[0], pos[1], mark), nil
}

var _ Step = &RemoveMarkStep{}
