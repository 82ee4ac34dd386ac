package transform

import (
	"errors"
	"regexp"

	"github.com/cozy/prosemirror-go/model"
)

func addMark(tr *Transform, from, to int, mark *model.Mark) error {
	var removed, added []Step
	var removing *RemoveMarkStep
	var adding *AddMarkStep
	tr.Doc.NodesBetween(from, to, func(node *model.Node, pos int, parent *model.Node, _ int) bool {
		if !node.IsInline() {
			return true
		}
		marks := node.Marks
		if mark.IsInSet(marks) || !parent.Type.AllowsMarkType(mark.Type) {
			return true
		}
		start, end := max(pos, from), min(pos+node.NodeSize(), to)
		newSet := mark.AddToSet(marks)
		for _, m := range marks {
			if m.IsInSet(newSet) {
				continue
			}
			if removing != nil && removing.To == start && removing.Mark.Eq(m) {
				removing.To = end
			} else {
				removing = NewRemoveMarkStep(start, end, m)
				removed = append(removed, removing)
			}
		}
		if adding != nil && adding.To == start {
			adding.To = end
		} else {
			adding = NewAddMarkStep(start, end, mark)
			added = append(added, adding)
		}
		return true
	})
	for _, s := range append(removed, added...) {
		if err := tr.Step(s); err != nil {
			return err
		}
	}
	return nil
}

type matchedMark struct {
	style *model.Mark
	from  int
	to    int
	step  int
}

func removeMark(tr *Transform, from, to int, mark interface{}) error {
	var matched []*matchedMark
	step := 0
	var failure error
	tr.Doc.NodesBetween(from, to, func(node *model.Node, pos int, _ *model.Node, _ int) bool {
		if !node.IsInline() {
			return true
		}
		step++
		var toRemove []*model.Mark
		switch m := mark.(type) {
		case *model.MarkType:
			set := node.Marks
			for found := m.IsInSet(set); found != nil; found = m.IsInSet(set) {
				toRemove = append(toRemove, found)
				set = found.RemoveFromSet(set)
			}
		case *model.Mark:
			if m.IsInSet(node.Marks) {
				toRemove = []*model.Mark{m}
			}
		case nil:
			toRemove = node.Marks
		default:
			failure = errors.New("RemoveMark expects a mark, a mark type, or nil")
			return false
		}
		end := min(pos+node.NodeSize(), to)
		for _, style := range toRemove {
			var found *matchedMark
			for _, m := range matched {
				if m.step == step-1 && style.Eq(m.style) {
					found = m
				}
			}
			if found != nil {
				found.to = end
				found.step = step
			} else {
				matched = append(matched, &matchedMark{style: style, from: max(pos, from), to: end, step: step})
			}
		}
		return true
	})
	if failure != nil {
		return failure
	}
	for _, m := range matched {
		if err := tr.Step(NewRemoveMarkStep(m.from, m.to, m.style)); err != nil {
			return err
		}
	}
	return nil
}

var newlineRegexp = regexp.MustCompile(`\r?\n|\r`)

func clearIncompatible(tr *Transform, pos int, parentType *model.NodeType, match *model.ContentMatch) error {
	node := tr.Doc.NodeAt(pos)
	if node == nil {
		return errors.New("No node at given position")
	}
	var replSteps []Step
	cur := pos + 1
	for _, child := range node.Content.Content {
		end := cur + child.NodeSize()
		allowed := match.MatchType(child.Type)
		if allowed == nil {
			replSteps = append(replSteps, NewReplaceStep(cur, end, model.EmptySlice))
		} else {
			match = allowed
			for _, m := range child.Marks {
				if !parentType.AllowsMarkType(m.Type) {
					if err := tr.Step(NewRemoveMarkStep(cur, end, m)); err != nil {
						return err
					}
				}
			}
			if child.IsText() && parentType.Whitespace() != "pre" {
				var slice *model.Slice
				text := *child.Text
				for _, loc := range newlineRegexp.FindAllStringIndex(text, -1) {
					if slice == nil {
						space := parentType.Schema.Text(" ", parentType.AllowedMarks(child.Marks)...)
						slice = model.NewSlice(fragmentOf(space), 0, 0)
					}
					start := cur + model.TextLength(text[:loc[0]])
					replSteps = append(replSteps, NewReplaceStep(start, start+loc[1]-loc[0], slice))
				}
			}
		}
		cur = end
	}
	if !match.ValidEnd {
		fill := match.FillBefore(model.EmptyFragment, true)
		if fill == nil {
			return errors.New("Can not fill the content of " + parentType.Name)
		}
		if err := tr.Replace(cur, cur, model.NewSlice(fill, 0, 0)); err != nil {
			return err
		}
	}
	for i := len(replSteps) - 1; i >= 0; i-- {
		if err := tr.Step(replSteps[i]); err != nil {
			return err
		}
	}
	return nil
}
