package transform

import (
	"testing"

	"github.com/cozy/prosemirror-go/model"
	"github.com/stretchr/testify/assert"
)

func mkStep(from, to int, val string) Step {
	mt, _ := schema.MarkType("em")
	switch val {
	case "+em":
		return NewAddMarkStep(from, to, mt.Create(nil))
	case "-em":
		return NewRemoveMarkStep(from, to, mt.Create(nil))
	default:
		slice := model.EmptySlice
		if val != "" {
			frag, err := model.FragmentFrom(schema.Text(val))
			if err != nil {
				panic(err)
			}
			slice = model.NewSlice(frag, 0, 0)
		}
		return NewReplaceStep(from, to, slice)
	}
}

func TestStepMerge(t *testing.T) {
	testDoc := doc(p("foobar")).Node

	yes := func(from1, to1 int, val1 string, from2, to2 int, val2 string) {
		step1 := mkStep(from1, to1, val1)
		step2 := mkStep(from2, to2, val2)
		merged, ok := step1.Merge(step2)
		if assert.True(t, ok) {
			applied1 := step1.Apply(testDoc).Doc
			applied2 := step2.Apply(applied1).Doc
			assert.True(t, merged.Apply(testDoc).Doc.Eq(applied2))
		}
	}

	no := func(from1, to1 int, val1 string, from2, to2 int, val2 string) {
		step1 := mkStep(from1, to1, val1)
		step2 := mkStep(from2, to2, val2)
		_, ok := step1.Merge(step2)
		assert.False(t, ok)
	}

	// merges typing changes
	yes(2, 2, "a", 3, 3, "b")

	// merges inverse typing
	yes(2, 2, "a", 2, 2, "b")

	// doesn't merge separated typing
	no(2, 2, "a", 4, 4, "b")

	// doesn't merge inverted separated typing
	no(3, 3, "a", 2, 2, "b")

	// merges adjacent backspaces
	yes(3, 4, "", 2, 3, "")

	// merges adjacent deletes
	yes(2, 3, "", 2, 3, "")

	// doesn't merge separate backspaces
	no(1, 2, "", 2, 3, "")

	// merges backspace and type
	yes(2, 3, "", 2, 2, "x")

	// merges longer adjacent inserts
	yes(2, 2, "quux", 6, 6, "baz")

	// merges inverted longer inserts
	yes(2, 2, "quux", 2, 2, "baz")

	// merges longer deletes
	yes(2, 5, "", 2, 4, "")

	// merges inverted longer deletes
	yes(4, 6, "", 2, 4, "")

	// merges overwrites
	yes(3, 4, "x", 4, 5, "y")

	// merges adding adjacent styles
	yes(1, 2, "+em", 2, 4, "+em")

	// merges adding overlapping styles
	yes(1, 3, "+em", 2, 4, "+em")

	// doesn't merge separate styles
	no(1, 2, "+em", 3, 4, "+em")

	// merges removing adjacent styles
	yes(1, 2, "-em", 2, 4, "-em")

	// merges removing overlapping styles
	yes(1, 3, "-em", 2, 4, "-em")

	// doesn't merge removing separate styles
	no(1, 2, "-em", 3, 4, "-em")
}

func TestStepFromJSONErrors(t *testing.T) {
	bad := func(raw interface{}) {
		t.Helper()
		_, err := StepFromJSON(schema, raw)
		assert.Error(t, err)
	}
	bad("replace")
	bad(map[string]interface{}{"from": 1.0})
	bad(map[string]interface{}{"stepType": "teleport"})
	bad(map[string]interface{}{"stepType": "replace", "from": "one", "to": 2.0})
	bad(map[string]interface{}{"stepType": "replace", "from": 1.5, "to": 2.0})
	bad(map[string]interface{}{"stepType": "addMark", "from": 1.0, "to": 2.0})
	bad(map[string]interface{}{"stepType": "addMark", "from": 1.0, "to": 2.0, "mark": map[string]interface{}{"type": "blink"}})
	bad(map[string]interface{}{"stepType": "attr", "pos": 0.0})
	bad(map[string]interface{}{"stepType": "setAttrs", "pos": 0.0, "attrs": "level"})
}

func TestStepRegistry(t *testing.T) {
	registry := NewStepRegistry()

	// built-in identifiers are taken
	assert.Error(t, registry.Register("replace", ReplaceStepFromJSON))

	// custom step types can be added
	var seen map[string]interface{}
	err := registry.Register("noop", func(_ *model.Schema, obj map[string]interface{}) (Step, error) {
		seen = obj
		return NewDocAttrStep("noop", obj["value"]), nil
	})
	assert.NoError(t, err)
	step, err := registry.FromJSON(schema, map[string]interface{}{"stepType": "noop", "value": 3.0})
	assert.NoError(t, err)
	assert.IsType(t, &DocAttrStep{}, step)
	assert.Equal(t, 3.0, seen["value"])
	assert.Error(t, registry.Register("noop", nil))

	// the default registry doesn't know about them
	_, err = StepFromJSON(schema, map[string]interface{}{"stepType": "noop"})
	assert.Error(t, err)
}

func TestStepMapThrough(t *testing.T) {
	// mark steps move with the mapping
	step := NewAddMarkStep(2, 5, mark("em")).Map(NewMapping(NewStepMap([]int{0, 0, 3})))
	if assert.NotNil(t, step) {
		assert.Equal(t, 5, step.(*AddMarkStep).From)
		assert.Equal(t, 8, step.(*AddMarkStep).To)
	}

	// and disappear when their range is deleted
	deleted := NewMapping(NewStepMap([]int{1, 6, 0}))
	assert.Nil(t, NewAddMarkStep(2, 5, mark("em")).Map(deleted))
	assert.Nil(t, NewRemoveMarkStep(2, 5, mark("em")).Map(deleted))
	assert.Nil(t, NewReplaceStep(2, 4, model.EmptySlice).Map(deleted))
	assert.Nil(t, NewAttrStep(3, "level", 2).Map(deleted))
	assert.Nil(t, NewAddNodeMarkStep(3, mark("em")).Map(deleted))

	// replace steps keep their slice
	replace := NewReplaceStep(2, 4, model.EmptySlice).Map(NewMapping(NewStepMap([]int{0, 0, 3})))
	if assert.NotNil(t, replace) {
		assert.Equal(t, 5, replace.(*ReplaceStep).From)
		assert.Equal(t, 7, replace.(*ReplaceStep).To)
	}

	// document attribute steps don't have a position
	docStep := NewDocAttrStep("lang", "fr")
	assert.Same(t, docStep, docStep.Map(deleted))
}

func TestAttrStepMerge(t *testing.T) {
	first := NewSetAttrsStep(1, map[string]interface{}{"alt": "x"})
	merged, ok := first.Merge(NewSetAttrsStep(1, map[string]interface{}{"alt": "y", "title": "z"}))
	if assert.True(t, ok) {
		assert.Equal(t, map[string]interface{}{"alt": "y", "title": "z"}, merged.(*SetAttrsStep).Attrs)
	}
	_, ok = first.Merge(NewSetAttrsStep(2, nil))
	assert.False(t, ok)
	_, ok = NewAttrStep(1, "alt", "x").Merge(NewAttrStep(1, "alt", "y"))
	assert.False(t, ok)

	// fails on a missing node
	result := NewAttrStep(40, "level", 2).Apply(doc(p("foo")).Node)
	assert.NotEmpty(t, result.Failed)
	_, err := NewSetAttrsStep(40, nil).Invert(doc(p("foo")).Node)
	assert.Error(t, err)
}
