package transform

import (
	"github.com/cozy/prosemirror-go/model"
)

// ReplaceStepFor returns a step that replaces the range between from and to
// with the given slice, fitting the slice into the document structure when
// it does not fit as is. It returns a nil step when the replacement would
// not change the document, or when no fitting could be found.
func ReplaceStepFor(doc *model.Node, from, to int, slice *model.Slice) (Step, error) {
	if slice == nil {
		slice = model.EmptySlice
	}
	if from == to && slice.Size() == 0 {
		return nil, nil
	}
	dFrom, err := doc.Resolve(from)
	if err != nil {
		return nil, err
	}
	dTo, err := doc.Resolve(to)
	if err != nil {
		return nil, err
	}
	if fitsTrivially(dFrom, dTo, slice) {
		return NewReplaceStep(from, to, slice), nil
	}
	fitter, err := newFitter(dFrom, dTo, slice)
	if err != nil {
		return nil, err
	}
	return fitter.fit()
}

func fitsTrivially(dFrom, dTo *model.ResolvedPos, slice *model.Slice) bool {
	return slice.OpenStart == 0 && slice.OpenEnd == 0 && dFrom.Start() == dTo.Start() &&
		dFrom.Parent().CanReplace(dFrom.Index(), dTo.Index(), slice.Content)
}

type fittable struct {
	sliceDepth    int
	frontierDepth int
	parent        *model.Node
	inject        *model.Fragment
	wrap          []*model.NodeType
}

type frontierEntry struct {
	typ   *model.NodeType
	match *model.ContentMatch
}

// fitter places the content of a slice into the document between two
// positions. The frontier holds, for every open node on the path of the
// placed content, its type and the content match after what has been
// placed so far.
type fitter struct {
	dFrom    *model.ResolvedPos
	dTo      *model.ResolvedPos
	unplaced *model.Slice
	frontier []*frontierEntry
	placed   *model.Fragment
}

func newFitter(dFrom, dTo *model.ResolvedPos, unplaced *model.Slice) (*fitter, error) {
	f := &fitter{dFrom: dFrom, dTo: dTo, unplaced: unplaced, placed: model.EmptyFragment}
	for i := 0; i <= dFrom.Depth; i++ {
		node := dFrom.Node(i)
		match, err := node.ContentMatchAt(dFrom.IndexAfter(i))
		if err != nil {
			return nil, err
		}
		f.frontier = append(f.frontier, &frontierEntry{typ: node.Type, match: match})
	}
	for i := dFrom.Depth; i > 0; i-- {
		f.placed = fragmentOf(dFrom.Node(i).Copy(f.placed))
	}
	return f, nil
}

func (f *fitter) depth() int {
	return len(f.frontier) - 1
}

func (f *fitter) fit() (Step, error) {
	for f.unplaced.Size() > 0 {
		if fit := f.findFittable(); fit != nil {
			if err := f.placeNodes(fit); err != nil {
				return nil, err
			}
		} else if !f.openMore() {
			f.dropNode()
		}
	}
	moveInline := f.mustMoveInline()
	placedSize := f.placed.Size - f.depth() - f.dFrom.Depth
	dFrom := f.dFrom
	target := f.dTo
	if moveInline >= 0 {
		var err error
		if target, err = dFrom.Doc().Resolve(moveInline); err != nil {
			return nil, err
		}
	}
	dTo, err := f.close(target)
	if err != nil || dTo == nil {
		return nil, err
	}

	// Normalize by dropping open parent nodes
	content, openStart, openEnd := f.placed, dFrom.Depth, dTo.Depth
	for openStart > 0 && openEnd > 0 && content.ChildCount() == 1 {
		content = content.FirstChild().Content
		openStart--
		openEnd--
	}
	slice := model.NewSlice(content, openStart, openEnd)
	if moveInline >= 0 {
		return NewReplaceAroundStep(dFrom.Pos, moveInline, f.dTo.Pos, f.dTo.End(), slice, placedSize), nil
	}
	if slice.Size() > 0 || dFrom.Pos != f.dTo.Pos {
		return NewReplaceStep(dFrom.Pos, dTo.Pos, slice), nil
	}
	return nil, nil
}

// findFittable finds a position on the start of the unplaced content and on
// the frontier that fit together. Wrapping is only tried (pass 2) after
// finding a place without wrapping failed.
func (f *fitter) findFittable() *fittable {
	startDepth := f.unplaced.OpenStart
	cur, openEnd := f.unplaced.Content, f.unplaced.OpenEnd
	for d := 0; d < startDepth; d++ {
		node := cur.FirstChild()
		if cur.ChildCount() > 1 {
			openEnd = 0
		}
		if node.Type.Spec.Isolating && openEnd <= d {
			startDepth = d
			break
		}
		cur = node.Content
	}

	for pass := 1; pass <= 2; pass++ {
		sliceDepth := startDepth
		if pass == 2 {
			sliceDepth = f.unplaced.OpenStart
		}
		for ; sliceDepth >= 0; sliceDepth-- {
			var fragment *model.Fragment
			var parent *model.Node
			if sliceDepth > 0 {
				parent = contentAt(f.unplaced.Content, sliceDepth-1).FirstChild()
				fragment = parent.Content
			} else {
				fragment = f.unplaced.Content
			}
			first := fragment.FirstChild()
			for frontierDepth := f.depth(); frontierDepth >= 0; frontierDepth-- {
				typ, match := f.frontier[frontierDepth].typ, f.frontier[frontierDepth].match
				if pass == 1 {
					// The next node matches, or there is no next node but the
					// parents look compatible.
					if first != nil {
						if match.MatchType(first.Type) != nil {
							return &fittable{sliceDepth: sliceDepth, frontierDepth: frontierDepth, parent: parent}
						}
						if inject := match.FillBefore(fragmentOf(first), false); inject != nil {
							return &fittable{sliceDepth: sliceDepth, frontierDepth: frontierDepth, parent: parent, inject: inject}
						}
					} else if parent != nil && typ.CompatibleContent(parent.Type) {
						return &fittable{sliceDepth: sliceDepth, frontierDepth: frontierDepth, parent: parent}
					}
				} else if first != nil {
					if wrap, ok := match.FindWrapping(first.Type); ok {
						return &fittable{sliceDepth: sliceDepth, frontierDepth: frontierDepth, parent: parent, wrap: wrap}
					}
				}
				// Don't continue looking further up if the parent node would
				// fit here.
				if parent != nil && match.MatchType(parent.Type) != nil {
					break
				}
			}
		}
	}
	return nil
}

func (f *fitter) openMore() bool {
	content, openStart, openEnd := f.unplaced.Content, f.unplaced.OpenStart, f.unplaced.OpenEnd
	inner := contentAt(content, openStart)
	if inner.ChildCount() == 0 || inner.FirstChild().IsLeaf() {
		return false
	}
	newEnd := 0
	if inner.Size+openStart >= content.Size-openEnd {
		newEnd = openStart + 1
	}
	f.unplaced = model.NewSlice(content, openStart+1, max(openEnd, newEnd))
	return true
}

func (f *fitter) dropNode() {
	content, openStart, openEnd := f.unplaced.Content, f.unplaced.OpenStart, f.unplaced.OpenEnd
	inner := contentAt(content, openStart)
	if inner.ChildCount() <= 1 && openStart > 0 {
		openAtEnd := content.Size-openStart <= openStart+inner.Size
		end := openEnd
		if openAtEnd {
			end = openStart - 1
		}
		f.unplaced = model.NewSlice(dropFromFragment(content, openStart-1, 1), openStart-1, end)
	} else {
		f.unplaced = model.NewSlice(dropFromFragment(content, openStart, 1), openStart, openEnd)
	}
}

// placeNodes moves content from the unplaced slice at sliceDepth to the
// frontier node at frontierDepth, closing that frontier node when
// applicable.
func (f *fitter) placeNodes(fit *fittable) error {
	for f.depth() > fit.frontierDepth {
		f.closeFrontierNode()
	}
	for _, w := range fit.wrap {
		if err := f.openFrontierNode(w, nil, nil); err != nil {
			return err
		}
	}

	slice := f.unplaced
	fragment := slice.Content
	if fit.parent != nil {
		fragment = fit.parent.Content
	}
	openStart := slice.OpenStart - fit.sliceDepth
	taken := 0
	var add []*model.Node
	match, typ := f.frontier[fit.frontierDepth].match, f.frontier[fit.frontierDepth].typ
	if fit.inject != nil {
		add = append(add, fit.inject.Content...)
		match = match.MatchFragment(fit.inject)
	}
	// The amount of open nodes at the end of the fragment. When 0, the
	// parent is open, but no more. When negative, nothing is open.
	openEndCount := (fragment.Size + fit.sliceDepth) - (slice.Content.Size - slice.OpenEnd)
	for taken < fragment.ChildCount() {
		next := fragment.Content[taken]
		matches := match.MatchType(next.Type)
		if matches == nil {
			break
		}
		taken++
		// Drop empty open nodes
		if taken > 1 || openStart == 0 || next.Content.Size > 0 {
			match = matches
			start, end := 0, -1
			if taken == 1 {
				start = openStart
			}
			if taken == fragment.ChildCount() {
				end = openEndCount
			}
			add = append(add, closeNodeStart(next.Mark(typ.AllowedMarks(next.Marks)), start, end))
		}
	}
	toEnd := taken == fragment.ChildCount()
	if !toEnd {
		openEndCount = -1
	}

	f.placed = addToFragment(f.placed, fit.frontierDepth, model.FragmentFromArray(add))
	f.frontier[fit.frontierDepth].match = match

	// If the parent types match, and the entire node was moved, and it's not
	// open, close this frontier node right away.
	if toEnd && openEndCount < 0 && fit.parent != nil && fit.parent.Type == f.frontier[f.depth()].typ && len(f.frontier) > 1 {
		f.closeFrontierNode()
	}

	// Add new frontier nodes for any open nodes at the end.
	cur := fragment
	for i := 0; i < openEndCount; i++ {
		node := cur.LastChild()
		m, err := node.ContentMatchAt(node.ChildCount())
		if err != nil {
			return err
		}
		f.frontier = append(f.frontier, &frontierEntry{typ: node.Type, match: m})
		cur = node.Content
	}

	// Drop the entire node from which we placed it (sliceDepth > 0) or
	// just the placed children.
	switch {
	case !toEnd:
		f.unplaced = model.NewSlice(dropFromFragment(slice.Content, fit.sliceDepth, taken), slice.OpenStart, slice.OpenEnd)
	case fit.sliceDepth == 0:
		f.unplaced = model.EmptySlice
	default:
		end := fit.sliceDepth - 1
		if openEndCount < 0 {
			end = slice.OpenEnd
		}
		f.unplaced = model.NewSlice(dropFromFragment(slice.Content, fit.sliceDepth-1, 1), fit.sliceDepth-1, end)
	}
	return nil
}

func (f *fitter) mustMoveInline() int {
	if !f.dTo.Parent().IsTextblock() {
		return -1
	}
	top := f.frontier[f.depth()]
	if !top.typ.IsTextblock() || contentAfterFits(f.dTo, f.dTo.Depth, top.typ, top.match, false) == nil {
		return -1
	}
	if f.dTo.Depth == f.depth() {
		if level := f.findCloseLevel(f.dTo); level != nil && level.depth == f.depth() {
			return -1
		}
	}
	depth := f.dTo.Depth
	after, _ := f.dTo.After(depth)
	for depth > 1 {
		depth--
		if after != f.dTo.End(depth) {
			break
		}
		after++
	}
	return after
}

type closeLevel struct {
	depth int
	fit   *model.Fragment
	move  *model.ResolvedPos
}

func (f *fitter) findCloseLevel(dTo *model.ResolvedPos) *closeLevel {
scan:
	for i := min(f.depth(), dTo.Depth); i >= 0; i-- {
		match, typ := f.frontier[i].match, f.frontier[i].typ
		dropInner := i < dTo.Depth && dTo.End(i+1) == dTo.Pos+(dTo.Depth-(i+1))
		fit := contentAfterFits(dTo, i, typ, match, dropInner)
		if fit == nil {
			continue
		}
		for d := i - 1; d >= 0; d-- {
			matches := contentAfterFits(dTo, d, f.frontier[d].typ, f.frontier[d].match, true)
			if matches == nil || matches.ChildCount() > 0 {
				continue scan
			}
		}
		move := dTo
		if dropInner {
			after, err := dTo.After(i + 1)
			if err != nil {
				continue
			}
			if move, err = dTo.Doc().Resolve(after); err != nil {
				continue
			}
		}
		return &closeLevel{depth: i, fit: fit, move: move}
	}
	return nil
}

func (f *fitter) close(dTo *model.ResolvedPos) (*model.ResolvedPos, error) {
	level := f.findCloseLevel(dTo)
	if level == nil {
		return nil, nil
	}
	for f.depth() > level.depth {
		f.closeFrontierNode()
	}
	if level.fit.ChildCount() > 0 {
		f.placed = addToFragment(f.placed, level.depth, level.fit)
	}
	dTo = level.move
	for d := level.depth + 1; d <= dTo.Depth; d++ {
		node := dTo.Node(d)
		add := node.Type.ContentMatch.FillBefore(node.Content, true, dTo.Index(d))
		if err := f.openFrontierNode(node.Type, node.Attrs, add); err != nil {
			return nil, err
		}
	}
	return dTo, nil
}

func (f *fitter) openFrontierNode(typ *model.NodeType, attrs map[string]interface{}, content *model.Fragment) error {
	top := f.frontier[f.depth()]
	top.match = top.match.MatchType(typ)
	node, err := typ.Create(attrs, content, nil)
	if err != nil {
		return err
	}
	f.placed = addToFragment(f.placed, f.depth(), fragmentOf(node))
	f.frontier = append(f.frontier, &frontierEntry{typ: typ, match: typ.ContentMatch})
	return nil
}

func (f *fitter) closeFrontierNode() {
	open := f.frontier[len(f.frontier)-1]
	f.frontier = f.frontier[:len(f.frontier)-1]
	if add := open.match.FillBefore(model.EmptyFragment, true); add != nil && add.ChildCount() > 0 {
		f.placed = addToFragment(f.placed, len(f.frontier), add)
	}
}

func fragmentOf(node *model.Node) *model.Fragment {
	return model.NewFragment([]*model.Node{node})
}

func orEmpty(frag *model.Fragment) *model.Fragment {
	if frag == nil {
		return model.EmptyFragment
	}
	return frag
}

func dropFromFragment(fragment *model.Fragment, depth, count int) *model.Fragment {
	if depth == 0 {
		return fragment.CutByIndex(count, fragment.ChildCount())
	}
	first := fragment.FirstChild()
	return fragment.ReplaceChild(0, first.Copy(dropFromFragment(first.Content, depth-1, count)))
}

func addToFragment(fragment *model.Fragment, depth int, content *model.Fragment) *model.Fragment {
	if depth == 0 {
		return fragment.Append(content)
	}
	last := fragment.LastChild()
	return fragment.ReplaceChild(fragment.ChildCount()-1, last.Copy(addToFragment(last.Content, depth-1, content)))
}

func contentAt(fragment *model.Fragment, depth int) *model.Fragment {
	for i := 0; i < depth; i++ {
		fragment = fragment.FirstChild().Content
	}
	return fragment
}

func closeNodeStart(node *model.Node, openStart, openEnd int) *model.Node {
	if openStart <= 0 {
		return node
	}
	frag := node.Content
	if openStart > 1 {
		end := 0
		if frag.ChildCount() == 1 {
			end = openEnd - 1
		}
		frag = frag.ReplaceChild(0, closeNodeStart(frag.FirstChild(), openStart-1, end))
	}
	frag = orEmpty(node.Type.ContentMatch.FillBefore(frag, false)).Append(frag)
	if openEnd <= 0 {
		if match := node.Type.ContentMatch.MatchFragment(frag); match != nil {
			frag = frag.Append(orEmpty(match.FillBefore(model.EmptyFragment, true)))
		}
	}
	return node.Copy(frag)
}

func contentAfterFits(dTo *model.ResolvedPos, depth int, typ *model.NodeType, match *model.ContentMatch, open bool) *model.Fragment {
	node := dTo.Node(depth)
	index := dTo.Index(depth)
	if open {
		index = dTo.IndexAfter(depth)
	}
	if index == node.ChildCount() && !typ.CompatibleContent(node.Type) {
		return nil
	}
	fit := match.FillBefore(node.Content, true, index)
	if fit == nil || invalidMarks(typ, node.Content, index) {
		return nil
	}
	return fit
}

func invalidMarks(typ *model.NodeType, fragment *model.Fragment, start int) bool {
	for i := start; i < fragment.ChildCount(); i++ {
		if !typ.AllowsMarks(fragment.Content[i].Marks) {
			return true
		}
	}
	return false
}

func definesContent(typ *model.NodeType) bool {
	spec := typ.Spec
	return spec.Defining || (spec.DefiningForContent != nil && *spec.DefiningForContent)
}

func definesContext(typ *model.NodeType) bool {
	spec := typ.Spec
	return spec.Defining || (spec.DefiningAsContext != nil && *spec.DefiningAsContext)
}

// ReplaceRange replaces a range of the document with a slice, but tries to
// expand the range to cover nodes that are fully covered, and to place the
// slice at a depth that respects defining nodes.
func (tr *Transform) ReplaceRange(from, to int, slice *model.Slice) error {
	if slice.Size() == 0 {
		return tr.DeleteRange(from, to)
	}
	dFrom, err := tr.Doc.Resolve(from)
	if err != nil {
		return err
	}
	dTo, err := tr.Doc.Resolve(to)
	if err != nil {
		return err
	}
	if fitsTrivially(dFrom, dTo, slice) {
		return tr.Step(NewReplaceStep(from, to, slice))
	}

	targetDepths := coveredDepths(dFrom, dTo)
	// Can't replace the whole document, so remove 0 if it's present
	if len(targetDepths) > 0 && targetDepths[len(targetDepths)-1] == 0 {
		targetDepths = targetDepths[:len(targetDepths)-1]
	}
	// Negative numbers represent not expansion over the whole node at that
	// depth, but replacing from dFrom.Before(-D) to dTo.Pos.
	preferredTarget := -(dFrom.Depth + 1)
	targetDepths = append([]int{preferredTarget}, targetDepths...)
	// Pick a preferred target depth, if one of the covering depths is not
	// outside of a defining node, and add negative depths for any depth
	// that has dFrom at its start and does not cross a defining node.
	for d, pos := dFrom.Depth, dFrom.Pos-1; d > 0; d, pos = d-1, pos-1 {
		typ := dFrom.Node(d).Type
		if definesContext(typ) || typ.Spec.Isolating {
			break
		}
		if indexOf(targetDepths, d) > -1 {
			preferredTarget = d
		} else if before, _ := dFrom.Before(d); before == pos {
			targetDepths = append(targetDepths[:1], append([]int{-d}, targetDepths[1:]...)...)
		}
	}
	// Try to fit each possible depth of the slice into each possible target
	// depth, starting with the preferred depths.
	preferredTargetIndex := indexOf(targetDepths, preferredTarget)

	var leftNodes []*model.Node
	preferredDepth := slice.OpenStart
	for content, i := slice.Content, 0; ; i++ {
		node := content.FirstChild()
		leftNodes = append(leftNodes, node)
		if i == slice.OpenStart || node == nil {
			break
		}
		content = node.Content
	}

	// Back up preferredDepth to cover defining textblocks directly above
	// it, possibly skipping a non-defining textblock.
	for d := preferredDepth - 1; d >= 0; d-- {
		leftNode := leftNodes[d]
		def := definesContent(leftNode.Type)
		if def && !leftNode.SameMarkup(dFrom.Node(abs(preferredTarget)-1)) {
			preferredDepth = d
		} else if def || !leftNode.Type.IsTextblock() {
			break
		}
	}

	for j := slice.OpenStart; j >= 0; j-- {
		openDepth := (j + preferredDepth + 1) % (slice.OpenStart + 1)
		if openDepth >= len(leftNodes) {
			continue
		}
		insert := leftNodes[openDepth]
		if insert == nil {
			continue
		}
		for i := 0; i < len(targetDepths); i++ {
			// Loop over possible expansion levels, starting with the
			// preferred one
			targetDepth := targetDepths[(i+preferredTargetIndex)%len(targetDepths)]
			expand := true
			if targetDepth < 0 {
				expand = false
				targetDepth = -targetDepth
			}
			parent := dFrom.Node(targetDepth - 1)
			index := dFrom.Index(targetDepth - 1)
			if parent.CanReplaceWith(index, index, insert.Type, insert.Marks) {
				start, _ := dFrom.Before(targetDepth)
				end := to
				if expand {
					end, _ = dTo.After(targetDepth)
				}
				closed, err := closeFragment(slice.Content, 0, slice.OpenStart, openDepth, nil)
				if err != nil {
					return err
				}
				return tr.Replace(start, end, model.NewSlice(closed, openDepth, slice.OpenEnd))
			}
		}
	}

	startSteps := len(tr.Steps)
	for i := len(targetDepths) - 1; i >= 0; i-- {
		if err := tr.Replace(from, to, slice); err != nil {
			return err
		}
		if len(tr.Steps) > startSteps {
			break
		}
		depth := targetDepths[i]
		if depth < 0 {
			continue
		}
		from, _ = dFrom.Before(depth)
		to, _ = dTo.After(depth)
	}
	return nil
}

func closeFragment(fragment *model.Fragment, depth, oldOpen, newOpen int, parent *model.Node) (*model.Fragment, error) {
	if depth < oldOpen {
		first := fragment.FirstChild()
		closed, err := closeFragment(first.Content, depth+1, oldOpen, newOpen, first)
		if err != nil {
			return nil, err
		}
		fragment = fragment.ReplaceChild(0, first.Copy(closed))
	}
	if depth > newOpen {
		match, err := parent.ContentMatchAt(0)
		if err != nil {
			return nil, err
		}
		start := orEmpty(match.FillBefore(fragment, false)).Append(fragment)
		if end := match.MatchFragment(start); end != nil {
			start = start.Append(orEmpty(end.FillBefore(model.EmptyFragment, true)))
		}
		fragment = start
	}
	return fragment, nil
}

// ReplaceRangeWith replaces the given range with a node, but uses from and
// to as hints, rather than precise positions. When from and to are the same
// and are at the start or end of a parent node in which the given node
// doesn't fit, this method may move them out towards a parent that does
// allow the given node to be placed.
func (tr *Transform) ReplaceRangeWith(from, to int, node *model.Node) error {
	if !node.IsInline() && from == to {
		dFrom, err := tr.Doc.Resolve(from)
		if err != nil {
			return err
		}
		if dFrom.Parent().Content.Size > 0 {
			if point, ok := InsertPoint(tr.Doc, from, node.Type); ok {
				from, to = point, point
			}
		}
	}
	return tr.ReplaceRange(from, to, model.NewSlice(fragmentOf(node), 0, 0))
}

// DeleteRange deletes the given range, expanding it to cover fully covered
// parent nodes until a valid replace is found.
func (tr *Transform) DeleteRange(from, to int) error {
	dFrom, err := tr.Doc.Resolve(from)
	if err != nil {
		return err
	}
	dTo, err := tr.Doc.Resolve(to)
	if err != nil {
		return err
	}
	covered := coveredDepths(dFrom, dTo)
	for i, depth := range covered {
		last := i == len(covered)-1
		if (last && depth == 0) || dFrom.Node(depth).Type.ContentMatch.ValidEnd {
			return tr.Delete(dFrom.Start(depth), dTo.End(depth))
		}
		if depth > 0 && (last || dFrom.Node(depth-1).CanReplace(dFrom.Index(depth-1), dTo.IndexAfter(depth-1), nil)) {
			before, _ := dFrom.Before(depth)
			after, _ := dTo.After(depth)
			return tr.Delete(before, after)
		}
	}
	for d := 1; d <= dFrom.Depth && d <= dTo.Depth; d++ {
		if from-dFrom.Start(d) == dFrom.Depth-d && to > dFrom.End(d) && dTo.End(d)-to != dTo.Depth-d &&
			dFrom.Start(d-1) == dTo.Start(d-1) && dFrom.Node(d-1).CanReplace(dFrom.Index(d-1), dTo.Index(d-1), nil) {
			before, _ := dFrom.Before(d)
			return tr.Delete(before, to)
		}
	}
	return tr.Delete(from, to)
}

// coveredDepths returns an array of all depths for which dFrom - dTo spans
// the whole content of the nodes at that depth.
func coveredDepths(dFrom, dTo *model.ResolvedPos) []int {
	var result []int
	minDepth := min(dFrom.Depth, dTo.Depth)
	for d := minDepth; d >= 0; d-- {
		start := dFrom.Start(d)
		if start < dFrom.Pos-(dFrom.Depth-d) ||
			dTo.End(d) > dTo.Pos+(dTo.Depth-d) ||
			dFrom.Node(d).Type.Spec.Isolating ||
			dTo.Node(d).Type.Spec.Isolating {
			break
		}
		if start == dTo.Start(d) ||
			(d == dFrom.Depth && d == dTo.Depth && dFrom.Parent().InlineContent() && dTo.Parent().InlineContent() &&
				d > 0 && dTo.Start(d-1) == start-1) {
			result = append(result, d)
		}
	}
	return result
}

func indexOf(list []int, value int) int {
	for i, v := range list {
		if v == value {
			return i
		}
	}
	return -1
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
