package state

import (
	"errors"

	"github.com/cozy/prosemirror-go/model"
	"github.com/cozy/prosemirror-go/transform"
)

// GapCursor is a cursor positioned in a place where a text cursor can not
// go, between two non-textblock nodes, or at the start or end of a node
// that can't hold a textblock directly.
type GapCursor struct {
	baseSelection
}

// NewGapCursor creates a gap cursor at the given position. Use
// ValidGapCursor to check that the position is acceptable.
func NewGapCursor(pos *model.ResolvedPos) *GapCursor {
	return &GapCursor{baseSelection: newBaseSelection(pos, pos)}
}

// Visible is a method of the Selection interface.
func (s *GapCursor) Visible() bool {
	return false
}

// Content is a method of the Selection interface.
func (s *GapCursor) Content() (*model.Slice, error) {
	return model.EmptySlice, nil
}

// Map is a method of the Selection interface.
func (s *GapCursor) Map(doc *model.Node, mapping transform.Mappable) (Selection, error) {
	pos, err := doc.Resolve(mapping.Map(s.Head()))
	if err != nil {
		return nil, err
	}
	if ValidGapCursor(pos) {
		return NewGapCursor(pos), nil
	}
	return Near(pos), nil
}

// Eq is a method of the Selection interface.
func (s *GapCursor) Eq(other Selection) bool {
	o, ok := other.(*GapCursor)
	return ok && o.Head() == s.Head()
}

// GetBookmark is a method of the Selection interface.
func (s *GapCursor) GetBookmark() SelectionBookmark {
	return GapBookmark{Pos: s.Anchor()}
}

// ToJSON is a method of the Selection interface.
func (s *GapCursor) ToJSON() map[string]interface{} {
	return map[string]interface{}{"type": "gapcursor", "pos": s.Head()}
}

// GapCursorFromJSON deserializes a gap cursor.
func GapCursorFromJSON(doc *model.Node, obj map[string]interface{}) (Selection, error) {
	pos, ok := intField(obj, "pos")
	if !ok {
		return nil, errors.New("Invalid input for GapCursor.fromJSON")
	}
	dPos, err := doc.Resolve(pos)
	if err != nil {
		return nil, err
	}
	return NewGapCursor(dPos), nil
}

// ValidGapCursor tells if a gap cursor is allowed at the given position.
func ValidGapCursor(pos *model.ResolvedPos) bool {
	parent := pos.Parent()
	if parent.IsTextblock() || !closedBefore(pos) || !closedAfter(pos) {
		return false
	}
	if override := parent.Type.Spec.AllowGapCursor; override != nil {
		return *override
	}
	match, err := parent.ContentMatchAt(pos.Index())
	if err != nil {
		return false
	}
	deflt := match.DefaultType()
	return deflt != nil && deflt.IsTextblock()
}

// FindGapCursorFrom searches for a valid gap cursor position from pos, in
// the direction dir. When mustMove is true, pos itself is not considered.
func FindGapCursorFrom(pos *model.ResolvedPos, dir int, mustMove bool) *model.ResolvedPos {
	doc := pos.Doc()
search:
	for {
		if !mustMove && ValidGapCursor(pos) {
			return pos
		}
		at := pos.Pos
		var next *model.Node
		// Scan up from this position
		for d := pos.Depth; ; d-- {
			parent := pos.Node(d)
			if dir > 0 && pos.IndexAfter(d) < parent.ChildCount() {
				next = parent.MaybeChild(pos.IndexAfter(d))
				break
			}
			if dir < 0 && pos.Index(d) > 0 {
				next = parent.MaybeChild(pos.Index(d) - 1)
				break
			}
			if d == 0 {
				return nil
			}
			at += dir
			cur, err := doc.Resolve(at)
			if err != nil {
				return nil
			}
			if ValidGapCursor(cur) {
				return cur
			}
		}
		// And then down into the next node
		for {
			var inside *model.Node
			if dir > 0 {
				inside = next.FirstChild()
			} else {
				inside = next.LastChild()
			}
			if inside == nil {
				if next.IsAtom() && !next.IsText() && !IsSelectable(next) {
					moved, err := doc.Resolve(at + next.NodeSize()*dir)
					if err != nil {
						return nil
					}
					pos = moved
					mustMove = false
					continue search
				}
				break
			}
			next = inside
			at += dir
			cur, err := doc.Resolve(at)
			if err != nil {
				return nil
			}
			if ValidGapCursor(cur) {
				return cur
			}
		}
		return nil
	}
}

func closedBefore(pos *model.ResolvedPos) bool {
	for d := pos.Depth; d >= 0; d-- {
		index, parent := pos.Index(d), pos.Node(d)
		if index == 0 {
			if parent.Type.Spec.Isolating {
				return true
			}
			continue
		}
		for before := parent.MaybeChild(index - 1); before != nil; before = before.LastChild() {
			if (before.ChildCount() == 0 && !before.InlineContent()) || before.IsAtom() || before.Type.Spec.Isolating {
				return true
			}
			if before.InlineContent() {
				return false
			}
		}
	}
	return true
}

func closedAfter(pos *model.ResolvedPos) bool {
	for d := pos.Depth; d >= 0; d-- {
		index, parent := pos.IndexAfter(d), pos.Node(d)
		if index == parent.ChildCount() {
			if parent.Type.Spec.Isolating {
				return true
			}
			continue
		}
		for after := parent.MaybeChild(index); after != nil; after = after.FirstChild() {
			if (after.ChildCount() == 0 && !after.InlineContent()) || after.IsAtom() || after.Type.Spec.Isolating {
				return true
			}
			if after.InlineContent() {
				return false
			}
		}
	}
	return true
}

// GapBookmark is the bookmark of a gap cursor.
type GapBookmark struct {
	Pos int
}

// Map is a method of the SelectionBookmark interface.
func (b GapBookmark) Map(mapping transform.Mappable) SelectionBookmark {
	return GapBookmark{Pos: mapping.Map(b.Pos)}
}

// Resolve is a method of the SelectionBookmark interface.
func (b GapBookmark) Resolve(doc *model.Node) (Selection, error) {
	pos, err := doc.Resolve(b.Pos)
	if err != nil {
		return nil, err
	}
	if ValidGapCursor(pos) {
		return NewGapCursor(pos), nil
	}
	return Near(pos), nil
}

var (
	_ Selection         = &GapCursor{}
	_ SelectionBookmark = GapBookmark{}
)
