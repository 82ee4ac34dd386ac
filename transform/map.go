package transform

import (
	"fmt"
	"strconv"
	"strings"
)

// Mappable is an interface. There are several things that positions can be
// mapped through. Such objects conform to this interface.
type Mappable interface {
	// Map a position through this object. When given, assoc (should be -1 or
	// 1, defaults to 1) determines with which side the position is associated,
	// which determines in which direction to move when a chunk of content is
	// inserted at the mapped position.
	Map(pos int, assoc ...int) int

	// MapResult maps a position, and returns an object containing additional
	// information about the mapping. The result's deleted field tells you
	// whether the position was deleted (completely enclosed in a replaced
	// range) during the mapping. When content on only one side is deleted, the
	// position itself is only considered deleted when assoc points in the
	// direction of the deleted content.
	MapResult(pos int, assoc ...int) *MapResult
}

// Recovery values encode a range index and an offset. They are represented
// as numbers, because tons of them will be created when mapping, for
// example, a large number of decorations. The number's lower 16 bits provide
// the index, the remaining bits the offset.
const (
	lower16  = 0xffff
	factor16 = 1 << 16
)

func makeRecover(index, offset int) int {
	return index + offset*factor16
}

func recoverIndex(value int) int {
	return value & lower16
}

func recoverOffset(value int) int {
	return (value - (value & lower16)) / factor16
}

const (
	delBefore = 1
	delAfter  = 2
	delAcross = 4
	delSide   = 8
)

// MapResult is an object representing a mapped position with extra
// information.
type MapResult struct {
	// The mapped version of the position.
	Pos int
	// The recovery token of the position, when it was inside a replaced
	// range.
	Recover *int

	delInfo int
}

// NewMapResult is the constructor for MapResult
func NewMapResult(pos int, delInfo int, recover *int) *MapResult {
	return &MapResult{Pos: pos, delInfo: delInfo, Recover: recover}
}

// Deleted tells you whether the position was deleted, that is, whether the
// step removed the token on the side queried (via the assoc) argument from
// the document.
func (r *MapResult) Deleted() bool {
	return r.delInfo&delSide > 0
}

// DeletedBefore tells you whether the token before the mapped position was
// deleted.
func (r *MapResult) DeletedBefore() bool {
	return r.delInfo&(delBefore|delAcross) > 0
}

// DeletedAfter is true when the token after the mapped position was deleted.
func (r *MapResult) DeletedAfter() bool {
	return r.delInfo&(delAfter|delAcross) > 0
}

// DeletedAcross tells whether any of the steps mapped through deletes across
// the position (including both the token before and after the position).
func (r *MapResult) DeletedAcross() bool {
	return r.delInfo&delAcross > 0
}

// StepMap is a map describing the deletions and insertions made by a step,
// which can be used to find the correspondence between positions in the
// pre-step version of a document and the same position in the post-step
// version.
type StepMap struct {
	Ranges   []int
	Inverted bool
}

// NewStepMap creates a position map. The modifications to the document are
// represented as an array of numbers, in which each group of three represents
// a modified chunk as [start, oldSize, newSize].
func NewStepMap(ranges []int, inverted ...bool) *StepMap {
	inv := false
	if len(inverted) > 0 {
		inv = inverted[0]
	}
	if len(ranges) == 0 && EmptyStepMap != nil {
		return EmptyStepMap
	}
	return &StepMap{Ranges: ranges, Inverted: inv}
}

// StepMapOffset creates a map that moves all positions by offset n (which
// may be negative). This can be useful when applying steps meant for a
// sub-document to a larger document, or vice-versa.
func StepMapOffset(n int) *StepMap {
	switch {
	case n == 0:
		return EmptyStepMap
	case n < 0:
		return NewStepMap([]int{0, -n, 0})
	}
	return NewStepMap([]int{0, 0, n})
}

// Recover computes the position for a recovery token.
func (sm *StepMap) Recover(value int) int {
	diff := 0
	index := recoverIndex(value)
	if !sm.Inverted {
		for i := 0; i < index; i++ {
			diff += sm.Ranges[i*3+2] - sm.Ranges[i*3+1]
		}
	}
	return sm.Ranges[index*3] + diff + recoverOffset(value)
}

// MapResult is part of the Mappable interface.
func (sm *StepMap) MapResult(pos int, assoc ...int) *MapResult {
	a := 1
	if len(assoc) > 0 {
		a = assoc[0]
	}
	result, _ := sm._map(pos, a, false)
	return result
}

// Map is part of the Mappable interface.
func (sm *StepMap) Map(pos int, assoc ...int) int {
	a := 1
	if len(assoc) > 0 {
		a = assoc[0]
	}
	_, mapped := sm._map(pos, a, true)
	return mapped
}

func (sm *StepMap) indexes() (int, int) {
	if sm.Inverted {
		return 2, 1
	}
	return 1, 2
}

func (sm *StepMap) _map(pos, assoc int, simple bool) (*MapResult, int) {
	diff := 0
	oldIndex, newIndex := sm.indexes()
	for i := 0; i < len(sm.Ranges); i += 3 {
		start := sm.Ranges[i]
		if sm.Inverted {
			start -= diff
		}
		if start > pos {
			break
		}
		oldSize := sm.Ranges[i+oldIndex]
		newSize := sm.Ranges[i+newIndex]
		end := start + oldSize
		if pos <= end {
			side := assoc
			if oldSize != 0 {
				if pos == start {
					side = -1
				} else if pos == end {
					side = 1
				}
			}
			result := start + diff
			if side >= 0 {
				result += newSize
			}
			if simple {
				return nil, result
			}
			var recover *int
			if (assoc < 0 && pos != start) || (assoc >= 0 && pos != end) {
				r := makeRecover(i/3, pos-start)
				recover = &r
			}
			del := delAcross
			if pos == start {
				del = delAfter
			} else if pos == end {
				del = delBefore
			}
			if (assoc < 0 && pos != start) || (assoc >= 0 && pos != end) {
				del |= delSide
			}
			return NewMapResult(result, del, recover), result
		}
		diff += newSize - oldSize
	}
	if simple {
		return nil, pos + diff
	}
	return NewMapResult(pos+diff, 0, nil), pos + diff
}

// Touches tells if the position with the given recovery token touches the
// range it was recovered from.
func (sm *StepMap) Touches(pos int, recover int) bool {
	diff := 0
	index := recoverIndex(recover)
	oldIndex, newIndex := sm.indexes()
	for i := 0; i < len(sm.Ranges); i += 3 {
		start := sm.Ranges[i]
		if sm.Inverted {
			start -= diff
		}
		if start > pos {
			break
		}
		oldSize := sm.Ranges[i+oldIndex]
		end := start + oldSize
		if pos <= end && i == index*3 {
			return true
		}
		diff += sm.Ranges[i+newIndex] - oldSize
	}
	return false
}

// ForEach calls the given function on each of the changed ranges included
// in this map.
func (sm *StepMap) ForEach(fn func(oldStart, oldEnd, newStart, newEnd int)) {
	oldIndex, newIndex := sm.indexes()
	diff := 0
	for i := 0; i < len(sm.Ranges); i += 3 {
		start := sm.Ranges[i]
		oldStart, newStart := start, start
		if sm.Inverted {
			oldStart -= diff
		} else {
			newStart += diff
		}
		oldSize := sm.Ranges[i+oldIndex]
		newSize := sm.Ranges[i+newIndex]
		fn(oldStart, oldStart+oldSize, newStart, newStart+newSize)
		diff += newSize - oldSize
	}
}

// Invert creates an inverted version of this map. The result can be used to
// map positions in the post-step document to the pre-step document.
func (sm *StepMap) Invert() *StepMap {
	return &StepMap{Ranges: sm.Ranges, Inverted: !sm.Inverted}
}

// String returns a string representation of this StepMap.
func (sm *StepMap) String() string {
	prefix := ""
	if sm.Inverted {
		prefix = "-"
	}
	parts := make([]string, len(sm.Ranges))
	for i, r := range sm.Ranges {
		parts[i] = strconv.Itoa(r)
	}
	return fmt.Sprintf("%s[%s]", prefix, strings.Join(parts, ","))
}

// EmptyStepMap is an empty StepMap.
var EmptyStepMap = &StepMap{Ranges: []int{}}

// Mapping is a mapping represents a pipeline of zero or more step maps. It
// has special provisions for losslessly handling mapping positions through a
// series of steps in which some steps are inverted versions of earlier
// steps. (This comes up when 'rebasing' steps for collaboration or history
// management.)
type Mapping struct {
	// The step maps in this mapping.
	Maps []*StepMap
	// The starting position in the maps array, used when Map or MapResult
	// is called.
	From int
	// The end position in the maps array.
	To int

	mirror  []int
	ownData bool
}

// NewMapping creates a new mapping with the given position maps.
func NewMapping(maps ...*StepMap) *Mapping {
	return &Mapping{Maps: maps, To: len(maps), ownData: true}
}

func newMappingFrom(maps []*StepMap, mirror []int, from, to int) *Mapping {
	return &Mapping{Maps: maps, mirror: mirror, From: from, To: to}
}

// Slice creates a mapping that maps only through a part of this one.
func (m *Mapping) Slice(fromTo ...int) *Mapping {
	from, to := 0, len(m.Maps)
	if len(fromTo) > 0 {
		from = fromTo[0]
	}
	if len(fromTo) > 1 {
		to = fromTo[1]
	}
	return newMappingFrom(m.Maps, m.mirror, from, to)
}

// Copy returns a copy of this mapping that owns its data.
func (m *Mapping) Copy() *Mapping {
	maps := append([]*StepMap{}, m.Maps...)
	var mirror []int
	if m.mirror != nil {
		mirror = append([]int{}, m.mirror...)
	}
	cpy := newMappingFrom(maps, mirror, m.From, m.To)
	cpy.ownData = true
	return cpy
}

// AppendMap adds a step map to the end of this mapping. If mirrors is
// given, it should be the index of the step map that is the mirror image of
// this one.
func (m *Mapping) AppendMap(sm *StepMap, mirrors ...int) {
	m.own()
	m.Maps = append(m.Maps, sm)
	m.To = len(m.Maps)
	if len(mirrors) > 0 {
		m.SetMirror(len(m.Maps)-1, mirrors[0])
	}
}

// own copies the maps and mirrors shared with the mapping this one was
// sliced from, before the first write.
func (m *Mapping) own() {
	if m.ownData {
		return
	}
	m.Maps = append([]*StepMap{}, m.Maps[:m.To]...)
	if m.mirror != nil {
		m.mirror = append([]int{}, m.mirror...)
	}
	m.ownData = true
}

// AppendMapping adds all the step maps in a given mapping to this one
// (preserving mirroring information).
func (m *Mapping) AppendMapping(mapping *Mapping) {
	m.own()
	startSize := len(m.Maps)
	for i, sm := range mapping.Maps {
		if mirr, ok := mapping.GetMirror(i); ok && mirr < i {
			m.AppendMap(sm, startSize+mirr)
		} else {
			m.AppendMap(sm)
		}
	}
}

// GetMirror finds the offset of the step map that mirrors the map at the
// given offset, in this mapping (as per the second argument to AppendMap).
func (m *Mapping) GetMirror(n int) (int, bool) {
	for i := 0; i < len(m.mirror); i++ {
		if m.mirror[i] == n {
			if i%2 == 1 {
				return m.mirror[i-1], true
			}
			return m.mirror[i+1], true
		}
	}
	return 0, false
}

// SetMirror records that the maps at offsets n and m mirror each other.
func (m *Mapping) SetMirror(n, mirror int) {
	m.own()
	m.mirror = append(m.mirror, n, mirror)
}

// AppendMappingInverted appends the inverse of the given mapping to this
// one.
func (m *Mapping) AppendMappingInverted(mapping *Mapping) {
	m.own()
	totalSize := len(m.Maps) + len(mapping.Maps)
	for i := len(mapping.Maps) - 1; i >= 0; i-- {
		if mirr, ok := mapping.GetMirror(i); ok && mirr > i {
			m.AppendMap(mapping.Maps[i].Invert(), totalSize-mirr-1)
		} else {
			m.AppendMap(mapping.Maps[i].Invert())
		}
	}
}

// Invert creates an inverted version of this mapping.
func (m *Mapping) Invert() *Mapping {
	inverse := NewMapping()
	inverse.AppendMappingInverted(m)
	return inverse
}

// Map a position through this mapping.
func (m *Mapping) Map(pos int, assoc ...int) int {
	a := 1
	if len(assoc) > 0 {
		a = assoc[0]
	}
	if m.mirror != nil {
		return m._map(pos, a).Pos
	}
	for i := m.From; i < m.To; i++ {
		pos = m.Maps[i].Map(pos, a)
	}
	return pos
}

// MapResult maps a position through this mapping, returning a mapping
// result.
func (m *Mapping) MapResult(pos int, assoc ...int) *MapResult {
	a := 1
	if len(assoc) > 0 {
		a = assoc[0]
	}
	return m._map(pos, a)
}

func (m *Mapping) _map(pos, assoc int) *MapResult {
	delInfo := 0
	for i := m.From; i < m.To; i++ {
		sm := m.Maps[i]
		result := sm.MapResult(pos, assoc)
		if result.Recover != nil {
			if corr, ok := m.GetMirror(i); ok && corr > i && corr < m.To {
				i = corr
				pos = m.Maps[corr].Recover(*result.Recover)
				continue
			}
		}
		delInfo |= result.delInfo
		pos = result.Pos
	}
	return NewMapResult(pos, delInfo, nil)
}

var (
	_ Mappable = &StepMap{}
	_ Mappable = &Mapping{}
)
