package state

import (
	"errors"

	"github.com/cozy/prosemirror-go/model"
	"github.com/cozy/prosemirror-go/transform"
)

// TextSelection represents a text cursor or a range of text. Its endpoints
// point into textblocks.
type TextSelection struct {
	baseSelection
}

// NewTextSelection constructs a text selection between the given points.
// When head is not given, the selection is a cursor.
func NewTextSelection(anchor *model.ResolvedPos, head ...*model.ResolvedPos) *TextSelection {
	h := anchor
	if len(head) > 0 && head[0] != nil {
		h = head[0]
	}
	return &TextSelection{baseSelection: newBaseSelection(anchor, h)}
}

// CreateTextSelection creates a text selection from non-resolved positions.
func CreateTextSelection(doc *model.Node, anchor int, head ...int) (*TextSelection, error) {
	dAnchor, err := doc.Resolve(anchor)
	if err != nil {
		return nil, err
	}
	dHead := dAnchor
	if len(head) > 0 && head[0] != anchor {
		if dHead, err = doc.Resolve(head[0]); err != nil {
			return nil, err
		}
	}
	return NewTextSelection(dAnchor, dHead), nil
}

// Cursor returns the resolved head if this is a cursor selection (an empty
// text selection), and nil otherwise.
func (s *TextSelection) Cursor() *model.ResolvedPos {
	if s.anchor.Pos == s.head.Pos {
		return s.head
	}
	return nil
}

// Map is a method of the Selection interface.
func (s *TextSelection) Map(doc *model.Node, mapping transform.Mappable) (Selection, error) {
	head, err := doc.Resolve(mapping.Map(s.Head()))
	if err != nil {
		return nil, err
	}
	if !head.Parent().InlineContent() {
		return Near(head), nil
	}
	anchor, err := doc.Resolve(mapping.Map(s.Anchor()))
	if err != nil {
		return nil, err
	}
	if !anchor.Parent().InlineContent() {
		anchor = head
	}
	return NewTextSelection(anchor, head), nil
}

// Eq is a method of the Selection interface.
func (s *TextSelection) Eq(other Selection) bool {
	o, ok := other.(*TextSelection)
	return ok && o.Anchor() == s.Anchor() && o.Head() == s.Head()
}

// GetBookmark is a method of the Selection interface.
func (s *TextSelection) GetBookmark() SelectionBookmark {
	return TextBookmark{AnchorPos: s.Anchor(), HeadPos: s.Head()}
}

// ToJSON is a method of the Selection interface.
func (s *TextSelection) ToJSON() map[string]interface{} {
	return map[string]interface{}{"type": "text", "anchor": s.Anchor(), "head": s.Head()}
}

// TextSelectionFromJSON deserializes a text selection.
func TextSelectionFromJSON(doc *model.Node, obj map[string]interface{}) (Selection, error) {
	anchor, okAnchor := intField(obj, "anchor")
	head, okHead := intField(obj, "head")
	if !okAnchor || !okHead {
		return nil, errors.New("Invalid input for TextSelection.fromJSON")
	}
	return CreateTextSelection(doc, anchor, head)
}

// TextSelectionBetween returns a text selection that spans the given
// positions or, if they aren't text positions, find a text selection near
// them. bias determines whether the method searches forward (default) or
// backwards (negative number) first. Will fall back to calling Near when
// the document doesn't contain a valid text position.
func TextSelectionBetween(anchor, head *model.ResolvedPos, bias ...int) Selection {
	b := 0
	if len(bias) > 0 {
		b = bias[0]
	}
	dPos := anchor.Pos - head.Pos
	if b == 0 || dPos != 0 {
		if dPos >= 0 {
			b = 1
		} else {
			b = -1
		}
	}
	if !head.Parent().InlineContent() {
		found := FindFrom(head, b, true)
		if found == nil {
			found = FindFrom(head, -b, true)
		}
		if found == nil {
			return Near(head, b)
		}
		head = found.ResolvedHead()
	}
	if !anchor.Parent().InlineContent() {
		if dPos == 0 {
			anchor = head
		} else {
			found := FindFrom(anchor, -b, true)
			if found == nil {
				found = FindFrom(anchor, b, true)
			}
			if found != nil {
				anchor = found.ResolvedAnchor()
			}
			if (anchor.Pos < head.Pos) != (dPos < 0) {
				anchor = head
			}
		}
	}
	return NewTextSelection(anchor, head)
}

// TextBookmark is the bookmark of a text selection.
type TextBookmark struct {
	AnchorPos int
	HeadPos   int
}

// Map is a method of the SelectionBookmark interface.
func (b TextBookmark) Map(mapping transform.Mappable) SelectionBookmark {
	return TextBookmark{AnchorPos: mapping.Map(b.AnchorPos), HeadPos: mapping.Map(b.HeadPos)}
}

// Resolve is a method of the SelectionBookmark interface.
func (b TextBookmark) Resolve(doc *model.Node) (Selection, error) {
	anchor, err := doc.Resolve(b.AnchorPos)
	if err != nil {
		return nil, err
	}
	head, err := doc.Resolve(b.HeadPos)
	if err != nil {
		return nil, err
	}
	return TextSelectionBetween(anchor, head), nil
}

var (
	_ Selection         = &TextSelection{}
	_ SelectionBookmark = TextBookmark{}
)
