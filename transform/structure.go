package transform

import (
	"errors"

	"github.com/cozy/prosemirror-go/model"
)

// Wrapper is a node type with attributes, as used by Wrap and Split.
type Wrapper struct {
	Type  *model.NodeType
	Attrs map[string]interface{}
}

func canCut(node *model.Node, start, end int) bool {
	return (start == 0 || node.CanReplace(start, node.ChildCount(), nil)) &&
		(end == node.ChildCount() || node.CanReplace(0, end, nil))
}

// LiftTarget tries to find a target depth to which the content in the given
// range can be lifted. Will not go across isolating parent nodes. The
// boolean is false when no valid target exists.
func LiftTarget(rng *model.NodeRange) (int, bool) {
	parent := rng.Parent()
	content := parent.Content.CutByIndex(rng.StartIndex(), rng.EndIndex())
	for depth := rng.Depth; ; depth-- {
		node := rng.From.Node(depth)
		index, endIndex := rng.From.Index(depth), rng.To.IndexAfter(depth)
		if depth < rng.Depth && node.CanReplace(index, endIndex, content) {
			return depth, true
		}
		if depth == 0 || node.Type.Spec.Isolating || !canCut(node, index, endIndex) {
			break
		}
	}
	return 0, false
}

func lift(tr *Transform, rng *model.NodeRange, target int) error {
	dFrom, dTo, depth := rng.From, rng.To, rng.Depth

	gapStart, err := dFrom.Before(depth + 1)
	if err != nil {
		return err
	}
	gapEnd, err := dTo.After(depth + 1)
	if err != nil {
		return err
	}
	start, end := gapStart, gapEnd

	before, openStart := model.EmptyFragment, 0
	splitting := false
	for d := depth; d > target; d-- {
		if splitting || dFrom.Index(d) > 0 {
			splitting = true
			before = fragmentOf(dFrom.Node(d).Copy(before))
			openStart++
		} else {
			start--
		}
	}
	after, openEnd := model.EmptyFragment, 0
	splitting = false
	for d := depth; d > target; d-- {
		afterInner, _ := dTo.After(d + 1)
		if splitting || afterInner < dTo.End(d) {
			splitting = true
			after = fragmentOf(dTo.Node(d).Copy(after))
			openEnd++
		} else {
			end++
		}
	}

	slice := model.NewSlice(before.Append(after), openStart, openEnd)
	return tr.Step(NewReplaceAroundStep(start, end, gapStart, gapEnd, slice, before.Size-openStart, true))
}

// FindWrapping tries to find a valid way to wrap the content in the given
// range in a node of the given type. May introduce extra nodes around and
// inside the wrapper node, if necessary. The boolean is false when no valid
// wrapping could be found. When innerRange is given, that range's content
// is used as the content to fit into the wrapping, instead of the content
// of rng.
func FindWrapping(rng *model.NodeRange, typ *model.NodeType, attrs map[string]interface{}, innerRange ...*model.NodeRange) ([]Wrapper, bool) {
	inner := rng
	if len(innerRange) > 0 && innerRange[0] != nil {
		inner = innerRange[0]
	}
	around, ok := findWrappingOutside(rng, typ)
	if !ok {
		return nil, false
	}
	inside, ok := findWrappingInside(inner, typ)
	if !ok {
		return nil, false
	}
	wrappers := make([]Wrapper, 0, len(around)+1+len(inside))
	for _, t := range around {
		wrappers = append(wrappers, Wrapper{Type: t})
	}
	wrappers = append(wrappers, Wrapper{Type: typ, Attrs: attrs})
	for _, t := range inside {
		wrappers = append(wrappers, Wrapper{Type: t})
	}
	return wrappers, true
}

func findWrappingOutside(rng *model.NodeRange, typ *model.NodeType) ([]*model.NodeType, bool) {
	parent, startIndex, endIndex := rng.Parent(), rng.StartIndex(), rng.EndIndex()
	match, err := parent.ContentMatchAt(startIndex)
	if err != nil {
		return nil, false
	}
	around, ok := match.FindWrapping(typ)
	if !ok {
		return nil, false
	}
	outer := typ
	if len(around) > 0 {
		outer = around[0]
	}
	if !parent.CanReplaceWith(startIndex, endIndex, outer, nil) {
		return nil, false
	}
	return around, true
}

func findWrappingInside(rng *model.NodeRange, typ *model.NodeType) ([]*model.NodeType, bool) {
	parent, startIndex, endIndex := rng.Parent(), rng.StartIndex(), rng.EndIndex()
	inner := parent.MaybeChild(startIndex)
	if inner == nil {
		return nil, false
	}
	inside, ok := typ.ContentMatch.FindWrapping(inner.Type)
	if !ok {
		return nil, false
	}
	lastType := typ
	if len(inside) > 0 {
		lastType = inside[len(inside)-1]
	}
	innerMatch := lastType.ContentMatch
	for i := startIndex; innerMatch != nil && i < endIndex; i++ {
		innerMatch = innerMatch.MatchType(parent.Content.Content[i].Type)
	}
	if innerMatch == nil || !innerMatch.ValidEnd {
		return nil, false
	}
	return inside, true
}

func wrap(tr *Transform, rng *model.NodeRange, wrappers []Wrapper) error {
	content := model.EmptyFragment
	for i := len(wrappers) - 1; i >= 0; i-- {
		if content.Size > 0 {
			match := wrappers[i].Type.ContentMatch.MatchFragment(content)
			if match == nil || !match.ValidEnd {
				return errors.New("Wrapper type given to Transform.wrap does not form valid content of its parent wrapper")
			}
		}
		node, err := wrappers[i].Type.Create(wrappers[i].Attrs, content, nil)
		if err != nil {
			return err
		}
		content = fragmentOf(node)
	}
	start, end := rng.Start(), rng.End()
	return tr.Step(NewReplaceAroundStep(start, end, start, end, model.NewSlice(content, 0, 0), len(wrappers), true))
}

func setBlockType(tr *Transform, from, to int, typ *model.NodeType, attrs func(*model.Node) map[string]interface{}) error {
	if !typ.IsTextblock() {
		return errors.New("Type given to setBlockType should be a textblock")
	}
	mapFrom := len(tr.Steps)
	var failure error
	tr.Doc.NodesBetween(from, to, func(node *model.Node, pos int, _ *model.Node, _ int) bool {
		if failure != nil {
			return false
		}
		attrsHere := attrs(node)
		if !node.IsTextblock() || node.HasMarkup(typ, attrsHere, nil) ||
			!canChangeType(tr.Doc, tr.Mapping.Slice(mapFrom).Map(pos), typ) {
			return true
		}
		if err := clearIncompatible(tr, tr.Mapping.Slice(mapFrom).Map(pos, 1), typ, typ.ContentMatch); err != nil {
			failure = err
			return false
		}
		mapping := tr.Mapping.Slice(mapFrom)
		startM, endM := mapping.Map(pos, 1), mapping.Map(pos+node.NodeSize(), 1)
		wrapper, err := typ.Create(attrsHere, nil, node.Marks)
		if err != nil {
			failure = err
			return false
		}
		failure = tr.Step(NewReplaceAroundStep(startM, endM, startM+1, endM-1,
			model.NewSlice(fragmentOf(wrapper), 0, 0), 1, true))
		return false
	})
	return failure
}

func canChangeType(doc *model.Node, pos int, typ *model.NodeType) bool {
	dPos, err := doc.Resolve(pos)
	if err != nil {
		return false
	}
	index := dPos.Index()
	return dPos.Parent().CanReplaceWith(index, index+1, typ, nil)
}

func setNodeMarkup(tr *Transform, pos int, typ *model.NodeType, attrs map[string]interface{}, marks []*model.Mark) error {
	node := tr.Doc.NodeAt(pos)
	if node == nil {
		return errors.New("No node at given position")
	}
	if typ == nil {
		typ = node.Type
	}
	if marks == nil {
		marks = node.Marks
	}
	newNode, err := typ.Create(attrs, nil, marks)
	if err != nil {
		return err
	}
	if node.IsLeaf() {
		return tr.ReplaceWith(pos, pos+node.NodeSize(), newNode)
	}
	if !typ.ValidContent(node.Content) {
		return errors.New("Invalid content for node type " + typ.Name)
	}
	return tr.Step(NewReplaceAroundStep(pos, pos+node.NodeSize(), pos+1, pos+node.NodeSize()-1,
		model.NewSlice(fragmentOf(newNode), 0, 0), 1, true))
}

// CanSplit checks whether splitting at the given position is allowed. The
// depth defaults to 1, typesAfter can give the types and attributes of the
// nodes created after the split.
func CanSplit(doc *model.Node, pos int, depth int, typesAfter ...Wrapper) bool {
	dPos, err := doc.Resolve(pos)
	if err != nil {
		return false
	}
	base := dPos.Depth - depth
	innerType := dPos.Parent().Type
	if len(typesAfter) > 0 && typesAfter[len(typesAfter)-1].Type != nil {
		innerType = typesAfter[len(typesAfter)-1].Type
	}
	if base < 0 || dPos.Parent().Type.Spec.Isolating ||
		!dPos.Parent().CanReplace(dPos.Index(), dPos.Parent().ChildCount(), nil) ||
		!innerType.ValidContent(dPos.Parent().Content.CutByIndex(dPos.Index(), dPos.Parent().ChildCount())) {
		return false
	}
	typeAt := func(i int) *Wrapper {
		if i >= 0 && i < len(typesAfter) && typesAfter[i].Type != nil {
			return &typesAfter[i]
		}
		return nil
	}
	for d, i := dPos.Depth-1, depth-2; d > base; d, i = d-1, i-1 {
		node, index := dPos.Node(d), dPos.Index(d)
		if node.Type.Spec.Isolating {
			return false
		}
		rest := node.Content.CutByIndex(index, node.ChildCount())
		if override := typeAt(i + 1); override != nil {
			child, err := override.Type.Create(override.Attrs, nil, nil)
			if err != nil {
				return false
			}
			rest = rest.ReplaceChild(0, child)
		}
		after := node.Type
		if w := typeAt(i); w != nil {
			after = w.Type
		}
		if !node.CanReplace(index+1, node.ChildCount(), nil) || !after.ValidContent(rest) {
			return false
		}
	}
	index := dPos.IndexAfter(base)
	baseType := dPos.Node(base + 1).Type
	if w := typeAt(0); w != nil {
		baseType = w.Type
	}
	return dPos.Node(base).CanReplaceWith(index, index, baseType, nil)
}

func split(tr *Transform, pos int, depth int, typesAfter []Wrapper) error {
	dPos, err := tr.Doc.Resolve(pos)
	if err != nil {
		return err
	}
	before, after := model.EmptyFragment, model.EmptyFragment
	for d, e, i := dPos.Depth, dPos.Depth-depth, depth-1; d > e; d, i = d-1, i-1 {
		before = fragmentOf(dPos.Node(d).Copy(before))
		if i >= 0 && i < len(typesAfter) && typesAfter[i].Type != nil {
			node, err := typesAfter[i].Type.Create(typesAfter[i].Attrs, after, nil)
			if err != nil {
				return err
			}
			after = fragmentOf(node)
		} else {
			after = fragmentOf(dPos.Node(d).Copy(after))
		}
	}
	return tr.Step(NewReplaceStep(pos, pos, model.NewSlice(before.Append(after), depth, depth), true))
}

// CanJoin tests whether the blocks before and after a given position can be
// joined.
func CanJoin(doc *model.Node, pos int) bool {
	dPos, err := doc.Resolve(pos)
	if err != nil {
		return false
	}
	index := dPos.Index()
	return joinable(dPos.NodeBefore(), dPos.NodeAfter()) &&
		dPos.Parent().CanReplace(index, index+1, nil)
}

func joinable(a, b *model.Node) bool {
	return a != nil && b != nil && !a.IsLeaf() && a.CanAppend(b)
}

// JoinPoint finds an ancestor of the given position that can be joined to
// the block before (or after if dir is positive). Returns the joinable
// point, if any.
func JoinPoint(doc *model.Node, pos int, dir ...int) (int, bool) {
	direction := -1
	if len(dir) > 0 {
		direction = dir[0]
	}
	dPos, err := doc.Resolve(pos)
	if err != nil {
		return 0, false
	}
	for d := dPos.Depth; ; d-- {
		var before, after *model.Node
		index := dPos.Index(d)
		switch {
		case d == dPos.Depth:
			before, after = dPos.NodeBefore(), dPos.NodeAfter()
		case direction > 0:
			before = dPos.Node(d + 1)
			index++
			after = dPos.Node(d).MaybeChild(index)
		default:
			before = dPos.Node(d).MaybeChild(index - 1)
			after = dPos.Node(d + 1)
		}
		if before != nil && !before.IsTextblock() && joinable(before, after) &&
			dPos.Node(d).CanReplace(index, index+1, nil) {
			return pos, true
		}
		if d == 0 {
			break
		}
		if direction < 0 {
			pos, _ = dPos.Before(d)
		} else {
			pos, _ = dPos.After(d)
		}
	}
	return 0, false
}

// InsertPoint tries to find a point where a node of the given type can be
// inserted near pos, by searching up the node hierarchy when pos itself
// isn't a valid place but is at the start or end of a node.
func InsertPoint(doc *model.Node, pos int, typ *model.NodeType) (int, bool) {
	dPos, err := doc.Resolve(pos)
	if err != nil {
		return 0, false
	}
	if dPos.Parent().CanReplaceWith(dPos.Index(), dPos.Index(), typ, nil) {
		return pos, true
	}
	if dPos.ParentOffset == 0 {
		for d := dPos.Depth - 1; d >= 0; d-- {
			index := dPos.Index(d)
			if dPos.Node(d).CanReplaceWith(index, index, typ, nil) {
				before, _ := dPos.Before(d + 1)
				return before, true
			}
			if index > 0 {
				return 0, false
			}
		}
	}
	if dPos.ParentOffset == dPos.Parent().Content.Size {
		for d := dPos.Depth - 1; d >= 0; d-- {
			index := dPos.IndexAfter(d)
			if dPos.Node(d).CanReplaceWith(index, index, typ, nil) {
				after, _ := dPos.After(d + 1)
				return after, true
			}
			if index < dPos.Node(d).ChildCount() {
				return 0, false
			}
		}
	}
	return 0, false
}

// DropPoint finds a position at or around the given position where the
// given slice can be inserted. Will look at parent nodes' nearest boundary
// and try there, even if the original position wasn't directly at the start
// or end of that node.
func DropPoint(doc *model.Node, pos int, slice *model.Slice) (int, bool) {
	dPos, err := doc.Resolve(pos)
	if err != nil {
		return 0, false
	}
	if slice.Content.Size == 0 {
		return pos, true
	}
	content := slice.Content
	for i := 0; i < slice.OpenStart; i++ {
		content = content.FirstChild().Content
	}
	passes := 1
	if slice.OpenStart == 0 && slice.Size() > 0 {
		passes = 2
	}
	for pass := 1; pass <= passes; pass++ {
		for d := dPos.Depth; d >= 0; d-- {
			bias := 0
			if d != dPos.Depth {
				// Compare 2*pos with start+end to avoid a rounding division.
				if 2*dPos.Pos <= dPos.Start(d+1)+dPos.End(d+1) {
					bias = -1
				} else {
					bias = 1
				}
			}
			insertPos := dPos.Index(d)
			if bias > 0 {
				insertPos++
			}
			parent := dPos.Node(d)
			fits := false
			if pass == 1 {
				fits = parent.CanReplace(insertPos, insertPos, content)
			} else if match, err := parent.ContentMatchAt(insertPos); err == nil {
				wrapping, ok := match.FindWrapping(content.FirstChild().Type)
				fits = ok && len(wrapping) > 0 && parent.CanReplaceWith(insertPos, insertPos, wrapping[0], nil)
			}
			if fits {
				switch {
				case bias == 0:
					return dPos.Pos, true
				case bias < 0:
					before, _ := dPos.Before(d + 1)
					return before, true
				default:
					after, _ := dPos.After(d + 1)
					return after, true
				}
			}
		}
	}
	return 0, false
}
