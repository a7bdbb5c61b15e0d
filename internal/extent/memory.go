package extent

import (
	"github.com/annel0/voxedit/internal/vec"
	"github.com/annel0/voxedit/internal/world/block"
)

// MemoryExtent - разреженный extent на карте. Незаданные позиции читаются как air
// (нулевое состояние реестра).
type MemoryExtent struct {
	blocks map[vec.Vec3]block.State
	writes int
}

// NewMemoryExtent создаёт пустой extent в памяти
func NewMemoryExtent() *MemoryExtent {
	return &MemoryExtent{blocks: make(map[vec.Vec3]block.State)}
}

// GetBlock возвращает блок в позиции
func (m *MemoryExtent) GetBlock(pos vec.Vec3) block.State {
	return m.blocks[pos]
}

// SetBlock записывает блок. Запись air удаляет позицию из карты.
func (m *MemoryExtent) SetBlock(pos vec.Vec3, state block.State) (bool, error) {
	old, ok := m.blocks[pos]
	if ok && old.SameState(state) && old.Payload == nil && state.Payload == nil {
		return false, nil
	}
	if !ok && state.Type == 0 && state.Index == 0 && state.Payload == nil {
		return false, nil
	}
	m.writes++
	if state.Type == 0 && state.Index == 0 && state.Payload == nil {
		delete(m.blocks, pos)
		return true, nil
	}
	m.blocks[pos] = state
	return true, nil
}

// Len возвращает количество непустых позиций
func (m *MemoryExtent) Len() int {
	return len(m.blocks)
}

// Writes возвращает количество выполненных изменений
func (m *MemoryExtent) Writes() int {
	return m.writes
}

// Fill заполняет кубоид [min, max] одним состоянием
func (m *MemoryExtent) Fill(min, max vec.Vec3, state block.State) {
	for y := min.Y; y <= max.Y; y++ {
		for z := min.Z; z <= max.Z; z++ {
			for x := min.X; x <= max.X; x++ {
				_, _ = m.SetBlock(vec.Vec3{X: x, Y: y, Z: z}, state)
			}
		}
	}
}
