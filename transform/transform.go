package transform

import (
	"errors"
	"fmt"

	"github.com/cozy/prosemirror-go/model"
	"go.uber.org/zap"
)

// StepError is returned by Transform.Step when a step can not be applied to
// the current document.
type StepError struct {
	Step    Step
	Message string
}

func (e *StepError) Error() string {
	return e.Message
}

// Transform is an abstraction for building up and tracking an array of
// steps representing a document transformation.
//
// Most transforming methods return an error when the change can not be
// made. The steps that were already added stay in place.
type Transform struct {
	// The steps in this transform.
	Steps []Step
	// The documents before each of the steps.
	Docs []*model.Node
	// A mapping with the maps for each of the steps in this transform.
	Mapping *Mapping
	// The current document (the result of applying the steps in the
	// transform).
	Doc *model.Node

	logger *zap.SugaredLogger
}

// NewTransform creates a transform that starts with the given document.
func NewTransform(doc *model.Node) *Transform {
	return &Transform{
		Doc:     doc,
		Mapping: NewMapping(),
		logger:  zap.NewNop().Sugar(),
	}
}

// WithLogger sets the logger used to trace the applied and failed steps.
func (tr *Transform) WithLogger(logger *zap.Logger) *Transform {
	if logger == nil {
		logger = zap.NewNop()
	}
	tr.logger = logger.Sugar().Named("transform")
	return tr
}

// Before returns the starting document.
func (tr *Transform) Before() *model.Node {
	if len(tr.Docs) > 0 {
		return tr.Docs[0]
	}
	return tr.Doc
}

// Step applies a new step in this transform, saving the result. Returns a
// *StepError when the step fails.
func (tr *Transform) Step(step Step) error {
	result := tr.MaybeStep(step)
	if result.Failed != "" {
		return &StepError{Step: step, Message: result.Failed}
	}
	return nil
}

// MaybeStep tries to apply a step in this transformation, ignoring it if it
// fails. Returns the step result.
func (tr *Transform) MaybeStep(step Step) StepResult {
	result := step.Apply(tr.Doc)
	if result.Failed == "" {
		tr.AddStep(step, result.Doc)
		tr.logger.Debugw("step applied", "stepType", step.ToJSON()["stepType"], "steps", len(tr.Steps))
	} else {
		tr.logger.Debugw("step failed", "stepType", step.ToJSON()["stepType"], "reason", result.Failed)
	}
	return result
}

// DocChanged is true when the document has been changed (when there are any
// steps).
func (tr *Transform) DocChanged() bool {
	return len(tr.Steps) > 0
}

// AddStep records a step that has already been applied, with the document
// it produced.
func (tr *Transform) AddStep(step Step, doc *model.Node) {
	tr.Docs = append(tr.Docs, tr.Doc)
	tr.Steps = append(tr.Steps, step)
	tr.Mapping.AppendMap(step.GetMap())
	tr.Doc = doc
}

// Replace replaces the part of the document between from and to with the
// given slice.
func (tr *Transform) Replace(from, to int, slice *model.Slice) error {
	step, err := ReplaceStepFor(tr.Doc, from, to, slice)
	if err != nil {
		return err
	}
	if step == nil {
		return nil
	}
	return tr.Step(step)
}

// ReplaceWith replaces the given range with the given content, which may be
// a fragment, node, or array of nodes.
func (tr *Transform) ReplaceWith(from, to int, content interface{}) error {
	frag, err := model.FragmentFrom(content)
	if err != nil {
		return err
	}
	return tr.Replace(from, to, model.NewSlice(frag, 0, 0))
}

// Delete deletes the content between the given positions.
func (tr *Transform) Delete(from, to int) error {
	return tr.Replace(from, to, model.EmptySlice)
}

// Insert inserts the given content at the given position.
func (tr *Transform) Insert(pos int, content interface{}) error {
	return tr.ReplaceWith(pos, pos, content)
}

// Lift splits the content in the given range off from its parent, if there
// is sibling content before or after it, and moves it up the tree to the
// depth specified by target. You'll probably want to use LiftTarget to
// compute target, to make sure the lift is valid.
func (tr *Transform) Lift(rng *model.NodeRange, target int) error {
	return lift(tr, rng, target)
}

// Join joins the blocks around the given position. If depth is 2, their
// last and first siblings are also joined, and so on.
func (tr *Transform) Join(pos int, depth ...int) error {
	d := 1
	if len(depth) > 0 {
		d = depth[0]
	}
	return tr.Step(NewReplaceStep(pos-d, pos+d, model.EmptySlice, true))
}

// Wrap wraps the given range in the given set of wrappers. The wrappers are
// assumed to be valid in this position, and should probably be computed
// with FindWrapping.
func (tr *Transform) Wrap(rng *model.NodeRange, wrappers []Wrapper) error {
	return wrap(tr, rng, wrappers)
}

// SetBlockType sets the type of all textblocks (partly) between from and to
// to the given node type with the given attributes.
func (tr *Transform) SetBlockType(from, to int, typ *model.NodeType, attrs map[string]interface{}) error {
	return setBlockType(tr, from, to, typ, func(*model.Node) map[string]interface{} { return attrs })
}

// SetBlockTypeFunc is like SetBlockType, but computes the attributes for
// each textblock.
func (tr *Transform) SetBlockTypeFunc(from, to int, typ *model.NodeType, attrs func(node *model.Node) map[string]interface{}) error {
	return setBlockType(tr, from, to, typ, attrs)
}

// SetNodeMarkup changes the type, attributes, and/or marks of the node at
// pos. When typ is nil, the existing node type is preserved. When marks is
// nil, the existing marks are kept.
func (tr *Transform) SetNodeMarkup(pos int, typ *model.NodeType, attrs map[string]interface{}, marks []*model.Mark) error {
	return setNodeMarkup(tr, pos, typ, attrs, marks)
}

// SetNodeAttribute sets a single attribute on a given node to a new value.
func (tr *Transform) SetNodeAttribute(pos int, attr string, value interface{}) error {
	return tr.Step(NewAttrStep(pos, attr, value))
}

// SetDocAttribute sets a single attribute on the document to a new value.
func (tr *Transform) SetDocAttribute(attr string, value interface{}) error {
	return tr.Step(NewDocAttrStep(attr, value))
}

// AddNodeMark adds a mark to the node at position pos.
func (tr *Transform) AddNodeMark(pos int, mark *model.Mark) error {
	return tr.Step(NewAddNodeMarkStep(pos, mark))
}

// RemoveNodeMark removes a mark (or a mark of the given type) from the node
// at position pos.
func (tr *Transform) RemoveNodeMark(pos int, mark interface{}) error {
	node := tr.Doc.NodeAt(pos)
	if node == nil {
		return fmt.Errorf("No node at position %d", pos)
	}
	switch m := mark.(type) {
	case *model.Mark:
		if !m.IsInSet(node.Marks) {
			return nil
		}
		return tr.Step(NewRemoveNodeMarkStep(pos, m))
	case *model.MarkType:
		set := node.Marks
		for {
			found := m.IsInSet(set)
			if found == nil {
				return nil
			}
			if err := tr.Step(NewRemoveNodeMarkStep(pos, found)); err != nil {
				return err
			}
			set = found.RemoveFromSet(set)
		}
	}
	return errors.New("RemoveNodeMark expects a mark or a mark type")
}

// Split splits the node at the given position, and optionally, if depth is
// greater than one, any number of nodes above that. By default, the parts
// split off will inherit the node type of the original node. This can be
// changed by passing an array of types and attributes to use after the
// split.
func (tr *Transform) Split(pos int, depth int, typesAfter ...Wrapper) error {
	return split(tr, pos, depth, typesAfter)
}

// AddMark adds the given mark to the inline content between from and to.
func (tr *Transform) AddMark(from, to int, mark *model.Mark) error {
	return addMark(tr, from, to, mark)
}

// RemoveMark removes marks from inline nodes between from and to. When mark
// is a single mark, remove precisely that mark. When it is a mark type,
// remove all marks of that type. When it is nil, remove all marks of any
// type.
func (tr *Transform) RemoveMark(from, to int, mark interface{}) error {
	return removeMark(tr, from, to, mark)
}

// ClearIncompatible removes all marks and nodes from the content of the node
// at pos that don't match the given new parent node type. Accepts an
// optional starting content match as third argument.
func (tr *Transform) ClearIncompatible(pos int, parentType *model.NodeType, match ...*model.ContentMatch) error {
	m := parentType.ContentMatch
	if len(match) > 0 && match[0] != nil {
		m = match[0]
	}
	return clearIncompatible(tr, pos, parentType, m)
}
