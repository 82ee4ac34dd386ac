package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type mapCase struct {
	from, to int
	assoc    int
	lossy    bool
}

// mk builds a mapping from ranges ([]int) and mirror pairs ([2]int).
func mk(args ...interface{}) *Mapping {
	mapping := NewMapping()
	for _, arg := range args {
		switch v := arg.(type) {
		case []int:
			mapping.AppendMap(NewStepMap(v))
		case [2]int:
			mapping.SetMirror(v[0], v[1])
		}
	}
	return mapping
}

func TestMapping(t *testing.T) {
	testMapping := func(mapping *Mapping, cases ...mapCase) {
		t.Helper()
		inverted := mapping.Invert()
		for _, c := range cases {
			assoc := c.assoc
			if assoc == 0 {
				assoc = 1
			}
			assert.Equal(t, c.to, mapping.Map(c.from, assoc), "map %d", c.from)
			if !c.lossy {
				assert.Equal(t, c.from, inverted.Map(c.to, assoc), "inverted map %d", c.to)
			}
		}
	}

	// can map through a single insertion
	testMapping(mk([]int{2, 0, 4}),
		mapCase{from: 0, to: 0}, mapCase{from: 2, to: 6}, mapCase{from: 2, to: 2, assoc: -1}, mapCase{from: 3, to: 7})

	// can map through a single deletion
	testMapping(mk([]int{2, 4, 0}),
		mapCase{from: 0, to: 0}, mapCase{from: 2, to: 2, assoc: -1}, mapCase{from: 3, to: 2, lossy: true},
		mapCase{from: 6, to: 2}, mapCase{from: 6, to: 2, assoc: -1, lossy: true}, mapCase{from: 7, to: 3})

	// can map through a single replace
	testMapping(mk([]int{2, 4, 4}),
		mapCase{from: 0, to: 0}, mapCase{from: 2, to: 2}, mapCase{from: 4, to: 6, lossy: true},
		mapCase{from: 4, to: 2, assoc: -1, lossy: true}, mapCase{from: 6, to: 6, assoc: -1}, mapCase{from: 8, to: 8})

	// can map through a mirrored delete-insert
	testMapping(mk([]int{2, 4, 0}, []int{2, 0, 4}, [2]int{0, 1}),
		mapCase{from: 0, to: 0}, mapCase{from: 2, to: 2}, mapCase{from: 4, to: 4}, mapCase{from: 6, to: 6}, mapCase{from: 7, to: 7})

	// can map through a mirrored insert-delete
	testMapping(mk([]int{2, 0, 4}, []int{2, 4, 0}, [2]int{0, 1}),
		mapCase{from: 0, to: 0}, mapCase{from: 2, to: 2}, mapCase{from: 3, to: 3})

	// can map through a delete-insert with an insert in between
	testMapping(mk([]int{2, 4, 0}, []int{1, 0, 1}, []int{3, 0, 4}, [2]int{0, 2}),
		mapCase{from: 0, to: 0}, mapCase{from: 1, to: 2}, mapCase{from: 4, to: 5}, mapCase{from: 6, to: 7}, mapCase{from: 7, to: 8})
}

func TestMappingDeleted(t *testing.T) {
	testDel := func(mapping *Mapping, pos, assoc int, flags string) {
		t.Helper()
		r := mapping.MapResult(pos, assoc)
		found := ""
		if r.Deleted() {
			found += "d"
		}
		if r.DeletedBefore() {
			found += "b"
		}
		if r.DeletedAfter() {
			found += "a"
		}
		if r.DeletedAcross() {
			found += "x"
		}
		assert.Equal(t, flags, found, "pos %d assoc %d", pos, assoc)
	}

	testDel(mk([]int{0, 2, 0}), 2, -1, "db")
	testDel(mk([]int{0, 2, 0}), 2, 1, "b")
	testDel(mk([]int{0, 2, 2}), 2, -1, "db")
	testDel(mk([]int{0, 1, 0}, []int{0, 1, 0}), 0, 1, "da")
	testDel(mk([]int{2, 2, 0}), 2, 1, "da")
	testDel(mk([]int{2, 2, 0}), 2, -1, "a")
	testDel(mk([]int{2, 2, 0}), 3, 1, "dbax")
	testDel(mk([]int{2, 2, 0}), 3, -1, "dbax")
	testDel(mk([]int{2, 2, 0}), 5, 1, "")
}

func TestMappingInsertionBoundary(t *testing.T) {
	mapping := NewMapping(NewStepMap([]int{2, 0, 2}))
	assert.Equal(t, 5, mapping.Map(3, 1))
	assert.Equal(t, 5, mapping.Map(3, -1))
	assert.Equal(t, 4, mapping.Map(2, 1))
	assert.Equal(t, 2, mapping.Map(2, -1))
	assert.Equal(t, 1, mapping.Map(1))
}

func TestStepMap(t *testing.T) {
	sm := NewStepMap([]int{2, 4, 1, 10, 0, 3})

	var ranges [][4]int
	sm.ForEach(func(oldStart, oldEnd, newStart, newEnd int) {
		ranges = append(ranges, [4]int{oldStart, oldEnd, newStart, newEnd})
	})
	assert.Equal(t, [][4]int{{2, 6, 2, 3}, {10, 10, 7, 10}}, ranges)

	ranges = nil
	sm.Invert().ForEach(func(oldStart, oldEnd, newStart, newEnd int) {
		ranges = append(ranges, [4]int{oldStart, oldEnd, newStart, newEnd})
	})
	assert.Equal(t, [][4]int{{2, 3, 2, 6}, {7, 10, 10, 10}}, ranges)

	assert.Equal(t, "[2,4,1,10,0,3]", sm.String())
	assert.Equal(t, "-[2,4,1,10,0,3]", sm.Invert().String())

	// offsets move every position
	assert.Equal(t, 8, StepMapOffset(3).Map(5))
	assert.Equal(t, 2, StepMapOffset(-3).Map(5))
	assert.Same(t, EmptyStepMap, StepMapOffset(0))
	assert.Same(t, EmptyStepMap, NewStepMap(nil))
}

func TestMappingSlice(t *testing.T) {
	mapping := mk([]int{0, 0, 2}, []int{0, 0, 3})
	assert.Equal(t, 5, mapping.Map(0))
	assert.Equal(t, 2, mapping.Slice(0, 1).Map(0))
	assert.Equal(t, 3, mapping.Slice(1).Map(0))

	// appending to a slice doesn't touch the original maps
	sliced := mapping.Slice(0, 1)
	sliced.AppendMap(NewStepMap([]int{0, 0, 10}))
	assert.Len(t, mapping.Maps, 2)
	assert.Equal(t, 12, sliced.Map(0))

	cpy := mapping.Copy()
	cpy.AppendMapping(mk([]int{0, 0, 1}))
	assert.Equal(t, 6, cpy.Map(0))
	assert.Equal(t, 5, mapping.Map(0))
}

func TestMappingSliceMirrors(t *testing.T) {
	mapping := NewMapping()
	for i := 0; i < 3; i++ {
		mapping.SetMirror(2*i, 2*i+1)
	}

	// a sliced mapping keeps its own mirrors
	sliced := mapping.Slice()
	sliced.SetMirror(6, 7)
	mapping.SetMirror(8, 9)
	mirr, ok := sliced.GetMirror(6)
	if assert.True(t, ok) {
		assert.Equal(t, 7, mirr)
	}
	_, ok = sliced.GetMirror(8)
	assert.False(t, ok)
	_, ok = mapping.GetMirror(6)
	assert.False(t, ok)

	// appended mirrors are counted from the end of the slice
	part := mk([]int{0, 0, 1}, []int{0, 0, 1}, []int{0, 0, 1}).Slice(0, 1)
	part.AppendMapping(mk([]int{2, 4, 0}, []int{2, 0, 4}, [2]int{0, 1}))
	assert.Len(t, part.Maps, 3)
	mirr, ok = part.GetMirror(2)
	if assert.True(t, ok) {
		assert.Equal(t, 1, mirr)
	}
	assert.Equal(t, 4, part.Map(3))
}
