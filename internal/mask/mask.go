// Package mask реализует маски блоков: предикаты над позициями мира,
// решающие, входит ли состояние блока в описанное множество.
package mask

import (
	"github.com/annel0/voxedit/internal/extent"
	"github.com/annel0/voxedit/internal/vec"
	"github.com/annel0/voxedit/internal/world/block"
)

// Mask проверяет позицию мира.
type Mask interface {
	Test(pos vec.Vec3) bool
}

// StateMask - маска, которая умеет решать по состоянию блока без обращения к миру.
type StateMask interface {
	Mask
	TestState(state block.State) bool
}

// AlwaysTrue совпадает с любой позицией.
type AlwaysTrue struct{}

func (AlwaysTrue) Test(vec.Vec3) bool         { return true }
func (AlwaysTrue) TestState(block.State) bool { return true }

// AlwaysFalse не совпадает ни с одной позицией.
type AlwaysFalse struct{}

func (AlwaysFalse) Test(vec.Vec3) bool         { return false }
func (AlwaysFalse) TestState(block.State) bool { return false }

// Inverse возвращает отрицание маски. Отрицание состояния сохраняет StateMask.
func Inverse(m Mask) Mask {
	switch inner := m.(type) {
	case AlwaysTrue:
		return AlwaysFalse{}
	case AlwaysFalse:
		return AlwaysTrue{}
	case *Inverted:
		return inner.Mask
	case *InvertedState:
		return inner.StateMask
	case StateMask:
		return &InvertedState{StateMask: inner}
	}
	return &Inverted{Mask: m}
}

// Inverted - отрицание произвольной маски.
type Inverted struct {
	Mask Mask
}

// Test возвращает !Mask.Test(pos)
func (m *Inverted) Test(pos vec.Vec3) bool {
	return !m.Mask.Test(pos)
}

// InvertedState - отрицание маски состояния.
type InvertedState struct {
	StateMask
}

func (m *InvertedState) Test(pos vec.Vec3) bool {
	return !m.StateMask.Test(pos)
}

func (m *InvertedState) TestState(state block.State) bool {
	return !m.StateMask.TestState(state)
}

// Intersection совпадает, если совпадают все маски.
type Intersection []Mask

func (m Intersection) Test(pos vec.Vec3) bool {
	for _, inner := range m {
		if !inner.Test(pos) {
			return false
		}
	}
	return true
}

// Union совпадает, если совпадает хотя бы одна маска.
type Union []Mask

func (m Union) Test(pos vec.Vec3) bool {
	for _, inner := range m {
		if inner.Test(pos) {
			return true
		}
	}
	return false
}

// Offset проверяет соседнюю позицию: Test(pos) == Mask.Test(pos + Offset).
type Offset struct {
	Mask   Mask
	Offset vec.Vec3
}

func (m Offset) Test(pos vec.Vec3) bool {
	return m.Mask.Test(pos.Add(m.Offset))
}

// ExistingBlockMask совпадает с любым блоком, кроме air.
type ExistingBlockMask struct {
	Extent   extent.Extent
	Registry *block.Registry
}

func (m ExistingBlockMask) Test(pos vec.Vec3) bool {
	return m.TestState(m.Extent.GetBlock(pos))
}

func (m ExistingBlockMask) TestState(state block.State) bool {
	return !m.Registry.IsAir(state)
}

// IDMask совпадает с блоками того же типа, что и первый проверенный блок.
// Тип запоминается при первом вызове Test; обход вызывает его для стартовой позиции.
type IDMask struct {
	extent  extent.Extent
	typeID  block.TypeID
	latched bool
}

// NewIDMask создаёт маску без зафиксированного типа
func NewIDMask(ext extent.Extent) *IDMask {
	return &IDMask{extent: ext}
}

func (m *IDMask) Test(pos vec.Vec3) bool {
	state := m.extent.GetBlock(pos)
	if !m.latched {
		m.typeID = state.Type
		m.latched = true
		return true
	}
	return state.Type == m.typeID
}

// Type возвращает зафиксированный тип, если он уже известен
func (m *IDMask) Type() (block.TypeID, bool) {
	return m.typeID, m.latched
}
