package transform

import (
	"errors"

	"github.com/cozy/prosemirror-go/model"
)

func copyAttrs(attrs map[string]interface{}) map[string]interface{} {
	copied := make(map[string]interface{}, len(attrs)+1)
	for k, v := range attrs {
		copied[k] = v
	}
	return copied
}

// AttrStep updates an attribute in a specific node.
type AttrStep struct {
	// The position of the target node.
	Pos int
	// The attribute to set.
	Attr  string
	Value interface{}
}

// NewAttrStep is the constructor for AttrStep.
func NewAttrStep(pos int, attr string, value interface{}) *AttrStep {
	return &AttrStep{Pos: pos, Attr: attr, Value: value}
}

// Apply is a method of the Step interface.
func (s *AttrStep) Apply(doc *model.Node) StepResult {
	node := doc.NodeAt(s.Pos)
	if node == nil {
		return Fail("No node at attribute step's position")
	}
	attrs := copyAttrs(node.Attrs)
	attrs[s.Attr] = s.Value
	return updateNodeAt(doc, s.Pos, node, attrs, node.Marks)
}

// GetMap is a method of the Step interface.
func (s *AttrStep) GetMap() *StepMap {
	return EmptyStepMap
}

// Invert is a method of the Step interface.
func (s *AttrStep) Invert(doc *model.Node) (Step, error) {
	node := doc.NodeAt(s.Pos)
	if node == nil {
		return nil, errors.New("No node at attribute step's position")
	}
	return NewAttrStep(s.Pos, s.Attr, node.Attrs[s.Attr]), nil
}

// Map is a method of the Step interface.
func (s *AttrStep) Map(mapping Mappable) Step {
	pos := mapping.MapResult(s.Pos, 1)
	if pos.DeletedAfter() {
		return nil
	}
	return NewAttrStep(pos.Pos, s.Attr, s.Value)
}

// Merge is a method of the Step interface.
func (s *AttrStep) Merge(other Step) (Step, bool) {
	return nil, false
}

// ToJSON is a method of the Step interface.
func (s *AttrStep) ToJSON() map[string]interface{} {
	return map[string]interface{}{
		"stepType": "attr",
		"pos":      s.Pos,
		"attr":     s.Attr,
		"value":    s.Value,
	}
}

// AttrStepFromJSON builds an AttrStep from a JSON representation.
func AttrStepFromJSON(schema *model.Schema, obj map[string]interface{}) (Step, error) {
	pos, ok := intField(obj, "pos")
	attr, isString := obj["attr"].(string)
	if !ok || !isString {
		return nil, errors.New("Invalid input for AttrStep.fromJSON")
	}
	return NewAttrStep(pos, attr, obj["value"]), nil
}

var _ Step = &AttrStep{}

// DocAttrStep updates an attribute of the top-level document node.
type DocAttrStep struct {
	Attr  string
	Value interface{}
}

// NewDocAttrStep is the constructor for DocAttrStep.
func NewDocAttrStep(attr string, value interface{}) *DocAttrStep {
	return &DocAttrStep{Attr: attr, Value: value}
}

// Apply is a method of the Step interface.
func (s *DocAttrStep) Apply(doc *model.Node) StepResult {
	attrs := copyAttrs(doc.Attrs)
	attrs[s.Attr] = s.Value
	updated, err := doc.Type.Create(attrs, doc.Content, doc.Marks)
	if err != nil {
		return Fail(err.Error())
	}
	return OK(updated)
}

// GetMap is a method of the Step interface.
func (s *DocAttrStep) GetMap() *StepMap {
	return EmptyStepMap
}

// Invert is a method of the Step interface.
func (s *DocAttrStep) Invert(doc *model.Node) (Step, error) {
	return NewDocAttrStep(s.Attr, doc.Attrs[s.Attr]), nil
}

// Map is a method of the Step interface. Positions don't matter for this
// step, so it is returned unchanged.
func (s *DocAttrStep) Map(mapping Mappable) Step {
	return s
}

// Merge is a method of the Step interface.
func (s *DocAttrStep) Merge(other Step) (Step, bool) {
	return nil, false
}

// ToJSON is a method of the Step interface.
func (s *DocAttrStep) ToJSON() map[string]interface{} {
	return map[string]interface{}{
		"stepType": "docAttr",
		"attr":     s.Attr,
		"value":    s.Value,
	}
}

// DocAttrStepFromJSON builds a DocAttrStep from a JSON representation.
func DocAttrStepFromJSON(schema *model.Schema, obj map[string]interface{}) (Step, error) {
	attr, ok := obj["attr"].(string)
	if !ok {
		return nil, errors.New("Invalid input for DocAttrStep.fromJSON")
	}
	return NewDocAttrStep(attr, obj["value"]), nil
}

var _ Step = &DocAttrStep{}

// SetAttrsStep merges several attributes into the attributes of a node in
// one step.
//
// For more context, see:
// - https://discuss.prosemirror.net/t/preventing-image-placeholder-replacement-from-being-undone/1394/1
type SetAttrsStep struct {
	Pos   int
	Attrs map[string]interface{}
}

// NewSetAttrsStep is a constructor for SetAttrsStep
func NewSetAttrsStep(pos int, attrs map[string]interface{}) *SetAttrsStep {
	return &SetAttrsStep{Pos: pos, Attrs: attrs}
}

// Apply is a method of the Step interface.
func (s *SetAttrsStep) Apply(doc *model.Node) StepResult {
	target := doc.NodeAt(s.Pos)
	if target == nil {
		return Fail("No node at attribute step's position")
	}
	attrs := copyAttrs(target.Attrs)
	for k, v := range s.Attrs {
		attrs[k] = v
	}
	return updateNodeAt(doc, s.Pos, target, attrs, target.Marks)
}

// GetMap is a method of the Step interface.
func (s *SetAttrsStep) GetMap() *StepMap {
	return EmptyStepMap
}

// Invert is a method of the Step interface. Only the attributes touched by
// the step are restored.
func (s *SetAttrsStep) Invert(doc *model.Node) (Step, error) {
	target := doc.NodeAt(s.Pos)
	if target == nil {
		return nil, errors.New("No node at attribute step's position")
	}
	attrs := make(map[string]interface{}, len(s.Attrs))
	for k := range s.Attrs {
		attrs[k] = target.Attrs[k]
	}
	return NewSetAttrsStep(s.Pos, attrs), nil
}

// Map is a method of the Step interface.
func (s *SetAttrsStep) Map(mapping Mappable) Step {
	result := mapping.MapResult(s.Pos, 1)
	if result.DeletedAfter() {
		return nil
	}
	return NewSetAttrsStep(result.Pos, s.Attrs)
}

// Merge is a method of the Step interface. Two steps on the same node are
// combined, the later values winning.
func (s *SetAttrsStep) Merge(other Step) (Step, bool) {
	o, ok := other.(*SetAttrsStep)
	if !ok || o.Pos != s.Pos {
		return nil, false
	}
	attrs := copyAttrs(s.Attrs)
	for k, v := range o.Attrs {
		attrs[k] = v
	}
	return NewSetAttrsStep(s.Pos, attrs), true
}

// ToJSON is a method of the Step interface.
func (s *SetAttrsStep) ToJSON() map[string]interface{} {
	return map[string]interface{}{
		"stepType": "setAttrs",
		"pos":      s.Pos,
		"attrs":    s.Attrs,
	}
}

// SetAttrsStepFromJSON builds an SetAttrsStep from a JSON representation.
func SetAttrsStepFromJSON(schema *model.Schema, obj map[string]interface{}) (Step, error) {
	attrs, ok := obj["attrs"].(map[string]interface{})
	pos, isInt := intField(obj, "pos")
	if !ok || !isInt {
		return nil, errors.New("Invalid input for SetAttrsStep.fromJSON")
	}
	return NewSetAttrsStep(pos, attrs), nil
}

var _ Step = &SetAttrsStep{}
