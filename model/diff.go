package model

// findDiffStart returns the first position where the two fragments have not
// the same content.
func findDiffStart(a, b *Fragment, pos int) *int {
	for i := 0; ; i++ {
		if i == a.ChildCount() || i == b.ChildCount() {
			if a.ChildCount() == b.ChildCount() {
				return nil
			}
			return &pos
		}

		childA, childB := a.Content[i], b.Content[i]
		if childA == childB {
			pos += childA.NodeSize()
			continue
		}

		if !childA.SameMarkup(childB) {
			return &pos
		}

		if childA.IsText() && *childA.Text != *childB.Text {
			textA, textB := textUnits(*childA.Text), textUnits(*childB.Text)
			for j := 0; j < len(textA) && j < len(textB) && textA[j] == textB[j]; j++ {
				pos++
			}
			return &pos
		}
		if childA.Content.Size > 0 || childB.Content.Size > 0 {
			inner := findDiffStart(childA.Content, childB.Content, pos+1)
			if inner != nil {
				return inner
			}
		}
		pos += childA.NodeSize()
	}
}

// DiffEnd is the result of FindDiffEnd with the positions in both fragments.
type DiffEnd struct {
	A int
	B int
}

// findDiffEnd returns the last position where the two fragments have not
// the same content.
func findDiffEnd(a, b *Fragment, posA, posB int) *DiffEnd {
	ia, ib := a.ChildCount(), b.ChildCount()
	for {
		if ia == 0 || ib == 0 {
			if ia == ib {
				return nil
			}
			return &DiffEnd{A: posA, B: posB}
		}

		ia--
		ib--
		childA, childB := a.Content[ia], b.Content[ib]
		size := childA.NodeSize()
		if childA == childB {
			posA -= size
			posB -= size
			continue
		}

		if !childA.SameMarkup(childB) {
			return &DiffEnd{A: posA, B: posB}
		}

		if childA.IsText() && *childA.Text != *childB.Text {
			textA, textB := textUnits(*childA.Text), textUnits(*childB.Text)
			same := 0
			la, lb := len(textA), len(textB)
			minSize := min(la, lb)
			for same < minSize && textA[la-same-1] == textB[lb-same-1] {
				same++
				posA--
				posB--
			}
			return &DiffEnd{A: posA, B: posB}
		}
		if childA.Content.Size > 0 || childB.Content.Size > 0 {
			inner := findDiffEnd(childA.Content, childB.Content, posA-1, posB-1)
			if inner != nil {
				return inner
			}
		}
		posA -= size
		posB -= size
	}
}
