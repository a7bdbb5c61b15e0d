package mask

import (
	"math/bits"

	"github.com/annel0/voxedit/internal/extent"
	"github.com/annel0/voxedit/internal/vec"
	"github.com/annel0/voxedit/internal/world/block"
)

// SingleTypeMask совпадает со всеми состояниями одного типа.
type SingleTypeMask struct {
	Extent extent.Extent
	Type   block.TypeID
}

func (m *SingleTypeMask) Test(pos vec.Vec3) bool {
	return m.TestState(m.Extent.GetBlock(pos))
}

func (m *SingleTypeMask) TestState(state block.State) bool {
	return state.Type == m.Type
}

// TypeSetMask совпадает со всеми состояниями типов из набора.
type TypeSetMask struct {
	Extent extent.Extent
	Types  []bool
}

func (m *TypeSetMask) Test(pos vec.Vec3) bool {
	return m.TestState(m.Extent.GetBlock(pos))
}

func (m *TypeSetMask) TestState(state block.State) bool {
	return int(state.Type) < len(m.Types) && m.Types[state.Type]
}

// SingleStateMask совпадает ровно с одним состоянием (метаданные не учитываются).
type SingleStateMask struct {
	Extent extent.Extent
	State  block.State
}

func (m *SingleStateMask) Test(pos vec.Vec3) bool {
	return m.TestState(m.Extent.GetBlock(pos))
}

func (m *SingleStateMask) TestState(state block.State) bool {
	return state.SameState(m.State)
}

// StatePatternMask совпадает с состояниями одного типа, у которых закреплённые
// свойства имеют заданные значения, а остальные свойства свободны.
type StatePatternMask struct {
	Extent extent.Extent
	Type   block.TypeID
	// Pinned - объединение битовых полей закреплённых свойств.
	Pinned uint32
	Value  uint32
}

func (m *StatePatternMask) Test(pos vec.Vec3) bool {
	return m.TestState(m.Extent.GetBlock(pos))
}

func (m *StatePatternMask) TestState(state block.State) bool {
	return state.Type == m.Type && state.Index&m.Pinned == m.Value
}

// Optimize возвращает эквивалентную маску с более дешёвой проверкой.
// Получатель не изменяется; если упростить нельзя, возвращается он сам.
func (m *BlockMask) Optimize() StateMask {
	var nones, alls []block.TypeID
	var explicit []block.TypeID
	for i, v := range m.bits {
		t := block.TypeID(i)
		switch {
		case v == nil:
			nones = append(nones, t)
		case isAll(v):
			alls = append(alls, t)
		default:
			explicit = append(explicit, t)
		}
	}

	switch len(explicit) {
	case 0:
		switch {
		case len(alls) == 0:
			return AlwaysFalse{}
		case len(nones) == 0:
			return AlwaysTrue{}
		case len(alls) == 1:
			return &SingleTypeMask{Extent: m.extent, Type: alls[0]}
		case len(nones) == 1:
			return &InvertedState{StateMask: &SingleTypeMask{Extent: m.extent, Type: nones[0]}}
		}
		types := make([]bool, len(m.bits))
		for _, t := range alls {
			types[t] = true
		}
		return &TypeSetMask{Extent: m.extent, Types: types}
	case 1:
		t := explicit[0]
		switch {
		case len(alls) == 0:
			if opt, ok := m.singleTypeVector(t, m.bits[t]); ok {
				return opt
			}
		case len(nones) == 0:
			valid := m.registry.MustType(t).ValidStates()
			complement := make([]uint64, len(valid))
			for w := range complement {
				complement[w] = ^m.bits[t][w] & valid[w]
			}
			if opt, ok := m.singleTypeVector(t, complement); ok {
				return &InvertedState{StateMask: opt}
			}
		}
	}
	return m
}

// singleTypeVector пытается выразить вектор одного типа как одно состояние
// или как шаблон, где каждое свойство либо закреплено, либо полностью свободно.
func (m *BlockMask) singleTypeVector(t block.TypeID, v []uint64) (StateMask, bool) {
	typ := m.registry.MustType(t)
	seen := make([]map[int]struct{}, len(typ.Properties))
	for i := range seen {
		seen[i] = make(map[int]struct{})
	}
	matched := 0
	var sample uint32
	for w, word := range v {
		for word != 0 {
			j := uint32(w<<6 + bits.TrailingZeros64(word))
			word &= word - 1
			if !typ.IsValidState(j) {
				continue
			}
			matched++
			sample = j
			for i, p := range typ.Properties {
				seen[i][p.Index(j)] = struct{}{}
			}
		}
	}
	if matched == 0 {
		return nil, false
	}

	product := 1
	var pinned, value uint32
	for i, p := range typ.Properties {
		switch len(seen[i]) {
		case 1:
			pinned |= p.Mask()
			value |= sample & p.Mask()
		case len(p.Values):
			product *= len(p.Values)
		default:
			// частичный набор значений не выражается шаблоном
			return nil, false
		}
	}
	if product != matched {
		return nil, false
	}
	if product == 1 {
		return &SingleStateMask{Extent: m.extent, State: block.State{Type: t, Index: sample}}, true
	}
	return &StatePatternMask{Extent: m.extent, Type: t, Pinned: pinned, Value: value}, true
}
