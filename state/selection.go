// Package state implements the selection types of an editor: text cursors
// and ranges, node selections, the select-all selection and gap cursors.
// Selections are values that are mapped through the changes made to a
// document.
package state

import (
	"errors"
	"fmt"
	"sync"

	"github.com/cozy/prosemirror-go/model"
	"github.com/cozy/prosemirror-go/transform"
)

// Selection is the common interface of the selection types. A selection
// has an anchor (the side that doesn't move when it is extended) and a
// head, and covers one or more ranges.
type Selection interface {
	// The resolved anchor of the selection.
	ResolvedAnchor() *model.ResolvedPos
	// The resolved head of the selection.
	ResolvedHead() *model.ResolvedPos
	// The resolved lower bound of the main range.
	ResolvedFrom() *model.ResolvedPos
	// The resolved upper bound of the main range.
	ResolvedTo() *model.ResolvedPos
	Anchor() int
	Head() int
	From() int
	To() int
	// The ranges covered by the selection.
	Ranges() []SelectionRange
	// Empty is true when all the ranges are empty.
	Empty() bool
	// Visible controls whether, when a selection of this type is active in
	// an editor, the native selection should be visible.
	Visible() bool

	// Content gets the content of this selection as a slice.
	Content() (*model.Slice, error)
	// Replace replaces the selection with a slice or, if no slice is
	// given, deletes the selection. It returns the selection near the end
	// of the inserted content, or nil when nothing was changed.
	Replace(tr *transform.Transform, content *model.Slice) (Selection, error)
	// ReplaceWith replaces the selection with the given node.
	ReplaceWith(tr *transform.Transform, node *model.Node) (Selection, error)
	// Eq tests whether the selection is the same as another selection.
	Eq(other Selection) bool
	// Map a selection through a mapping. doc should be the new document
	// to which we are mapping.
	Map(doc *model.Node, mapping transform.Mappable) (Selection, error)
	// ToJSON converts the selection to a JSON representation. The "type"
	// property holds the identifier the selection type is registered with.
	ToJSON() map[string]interface{}
	// GetBookmark gets a bookmark for this selection, which is a value
	// that can be mapped without having access to a current document, and
	// later resolved to a real selection for a given document.
	GetBookmark() SelectionBookmark
}

// SelectionBookmark is a lightweight, document-independent representation
// of a selection.
type SelectionBookmark interface {
	// Map the bookmark through a set of changes.
	Map(mapping transform.Mappable) SelectionBookmark
	// Resolve the bookmark to a real selection again.
	Resolve(doc *model.Node) (Selection, error)
}

// SelectionRange represents a selected range in a document.
type SelectionRange struct {
	From *model.ResolvedPos
	To   *model.ResolvedPos
}

type baseSelection struct {
	anchor *model.ResolvedPos
	head   *model.ResolvedPos
	ranges []SelectionRange
}

func newBaseSelection(anchor, head *model.ResolvedPos, ranges ...SelectionRange) baseSelection {
	if len(ranges) == 0 {
		ranges = []SelectionRange{{From: anchor.Min(head), To: anchor.Max(head)}}
	}
	return baseSelection{anchor: anchor, head: head, ranges: ranges}
}

func (s *baseSelection) ResolvedAnchor() *model.ResolvedPos { return s.anchor }
func (s *baseSelection) ResolvedHead() *model.ResolvedPos   { return s.head }
func (s *baseSelection) ResolvedFrom() *model.ResolvedPos   { return s.ranges[0].From }
func (s *baseSelection) ResolvedTo() *model.ResolvedPos     { return s.ranges[0].To }
func (s *baseSelection) Anchor() int                        { return s.anchor.Pos }
func (s *baseSelection) Head() int                          { return s.head.Pos }
func (s *baseSelection) From() int                          { return s.ranges[0].From.Pos }
func (s *baseSelection) To() int                            { return s.ranges[0].To.Pos }
func (s *baseSelection) Ranges() []SelectionRange           { return s.ranges }
func (s *baseSelection) Visible() bool                      { return true }

func (s *baseSelection) Empty() bool {
	for _, r := range s.ranges {
		if r.From.Pos != r.To.Pos {
			return false
		}
	}
	return true
}

func (s *baseSelection) Content() (*model.Slice, error) {
	return s.ResolvedFrom().Doc().SliceWithParents(s.From(), s.To())
}

func (s *baseSelection) Replace(tr *transform.Transform, content *model.Slice) (Selection, error) {
	if content == nil {
		content = model.EmptySlice
	}
	lastNode := content.Content.LastChild()
	var lastParent *model.Node
	for i := 0; i < content.OpenEnd && lastNode != nil; i++ {
		lastParent = lastNode
		lastNode = lastNode.LastChild()
	}
	mapFrom := len(tr.Steps)
	var sel Selection
	for i, r := range s.ranges {
		mapping := tr.Mapping.Slice(mapFrom)
		slice := content
		if i > 0 {
			slice = model.EmptySlice
		}
		if err := tr.ReplaceRange(mapping.Map(r.From.Pos), mapping.Map(r.To.Pos), slice); err != nil {
			return nil, err
		}
		if i == 0 {
			bias := 1
			if lastNode != nil && lastNode.IsInline() || lastNode == nil && lastParent != nil && lastParent.IsTextblock() {
				bias = -1
			}
			sel = selectionToInsertionEnd(tr, mapFrom, bias)
		}
	}
	return sel, nil
}

func (s *baseSelection) ReplaceWith(tr *transform.Transform, node *model.Node) (Selection, error) {
	mapFrom := len(tr.Steps)
	var sel Selection
	for i, r := range s.ranges {
		mapping := tr.Mapping.Slice(mapFrom)
		from, to := mapping.Map(r.From.Pos), mapping.Map(r.To.Pos)
		if i > 0 {
			if err := tr.DeleteRange(from, to); err != nil {
				return nil, err
			}
			continue
		}
		if err := tr.ReplaceRangeWith(from, to, node); err != nil {
			return nil, err
		}
		bias := 1
		if node.IsInline() {
			bias = -1
		}
		sel = selectionToInsertionEnd(tr, mapFrom, bias)
	}
	return sel, nil
}

func selectionToInsertionEnd(tr *transform.Transform, startLen, bias int) Selection {
	last := len(tr.Steps) - 1
	if last < startLen {
		return nil
	}
	switch tr.Steps[last].(type) {
	case *transform.ReplaceStep, *transform.ReplaceAroundStep:
	default:
		return nil
	}
	end, found := 0, false
	tr.Mapping.Maps[last].ForEach(func(_, _, _, newTo int) {
		if !found {
			end, found = newTo, true
		}
	})
	dEnd, err := tr.Doc.Resolve(end)
	if err != nil {
		return nil
	}
	return Near(dEnd, bias)
}

// FindFrom finds a valid cursor or leaf node selection starting at the
// given position and searching back if dir is negative, and forward if
// positive. When textOnly is true, only consider cursor selections. Will
// return nil when no valid selection position is found.
func FindFrom(pos *model.ResolvedPos, dir int, textOnly ...bool) Selection {
	text := len(textOnly) > 0 && textOnly[0]
	if pos.Parent().InlineContent() {
		return NewTextSelection(pos)
	}
	if inner := findSelectionIn(pos.Doc(), pos.Parent(), pos.Pos, pos.Index(), dir, text); inner != nil {
		return inner
	}
	for depth := pos.Depth - 1; depth >= 0; depth-- {
		var found Selection
		if dir < 0 {
			before, _ := pos.Before(depth + 1)
			found = findSelectionIn(pos.Doc(), pos.Node(depth), before, pos.Index(depth), dir, text)
		} else {
			after, _ := pos.After(depth + 1)
			found = findSelectionIn(pos.Doc(), pos.Node(depth), after, pos.Index(depth)+1, dir, text)
		}
		if found != nil {
			return found
		}
	}
	return nil
}

// Near finds a valid cursor or leaf node selection near the given position.
// Searches forward first by default, but if bias is negative, it will
// search backwards first. Falls back to selecting the whole document.
func Near(pos *model.ResolvedPos, bias ...int) Selection {
	b := 1
	if len(bias) > 0 {
		b = bias[0]
	}
	if found := FindFrom(pos, b); found != nil {
		return found
	}
	if found := FindFrom(pos, -b); found != nil {
		return found
	}
	return NewAllSelection(pos.Doc())
}

// AtStart finds the cursor or leaf node selection closest to the start of
// the given document. Will return an AllSelection if no valid position
// exists.
func AtStart(doc *model.Node) Selection {
	if found := findSelectionIn(doc, doc, 0, 0, 1, false); found != nil {
		return found
	}
	return NewAllSelection(doc)
}

// AtEnd finds the cursor or leaf node selection closest to the end of the
// given document.
func AtEnd(doc *model.Node) Selection {
	if found := findSelectionIn(doc, doc, doc.Content.Size, doc.ChildCount(), -1, false); found != nil {
		return found
	}
	return NewAllSelection(doc)
}

func findSelectionIn(doc, node *model.Node, pos, index, dir int, text bool) Selection {
	if node.InlineContent() {
		sel, err := CreateTextSelection(doc, pos)
		if err != nil {
			return nil
		}
		return sel
	}
	start := index
	if dir < 0 {
		start = index - 1
	}
	for i := start; dir > 0 && i < node.ChildCount() || dir < 0 && i >= 0; i += dir {
		child := node.Content.Content[i]
		if !child.IsAtom() {
			childIndex := 0
			if dir < 0 {
				childIndex = child.ChildCount()
			}
			if inner := findSelectionIn(doc, child, pos+dir, childIndex, dir, text); inner != nil {
				return inner
			}
		} else if !text && IsSelectable(child) {
			at := pos
			if dir < 0 {
				at = pos - child.NodeSize()
			}
			sel, err := CreateNodeSelection(doc, at)
			if err != nil {
				return nil
			}
			return sel
		}
		pos += child.NodeSize() * dir
	}
	return nil
}

// SelectionFromJSONFunc deserializes a selection of a given type.
type SelectionFromJSONFunc func(doc *model.Node, obj map[string]interface{}) (Selection, error)

// SelectionRegistry maps the type identifiers of the JSON representation of
// selections to their deserializers.
type SelectionRegistry struct {
	mu   sync.RWMutex
	byID map[string]SelectionFromJSONFunc
}

// NewSelectionRegistry returns a registry that knows the built-in selection
// types.
func NewSelectionRegistry() *SelectionRegistry {
	return &SelectionRegistry{byID: map[string]SelectionFromJSONFunc{
		"text":      TextSelectionFromJSON,
		"node":      NodeSelectionFromJSON,
		"all":       AllSelectionFromJSON,
		"gapcursor": GapCursorFromJSON,
	}}
}

// Register adds a selection type to the registry.
func (r *SelectionRegistry) Register(id string, fn SelectionFromJSONFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; ok {
		return fmt.Errorf("Duplicate use of selection JSON ID %s", id)
	}
	r.byID[id] = fn
	return nil
}

// FromJSON deserializes a selection from its JSON representation.
func (r *SelectionRegistry) FromJSON(doc *model.Node, raw interface{}) (Selection, error) {
	obj, ok := raw.(map[string]interface{})
	if !ok {
		return nil, errors.New("Invalid input for Selection.fromJSON")
	}
	id, ok := obj["type"].(string)
	if !ok || id == "" {
		return nil, errors.New("Invalid input for Selection.fromJSON")
	}
	r.mu.RLock()
	fn, ok := r.byID[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("No selection type %s defined", id)
	}
	return fn(doc, obj)
}

var defaultRegistry = NewSelectionRegistry()

// SelectionFromJSON deserializes a selection with the built-in selection
// types.
func SelectionFromJSON(doc *model.Node, raw interface{}) (Selection, error) {
	return defaultRegistry.FromJSON(doc, raw)
}

func intField(obj map[string]interface{}, key string) (int, bool) {
	switch v := obj[key].(type) {
	case int:
		return v, true
	case float64:
		if v != float64(int(v)) {
			return 0, false
		}
		return int(v), true
	}
	return 0, false
}
