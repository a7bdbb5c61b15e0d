package extent

import (
	"github.com/annel0/voxedit/internal/vec"
	"github.com/annel0/voxedit/internal/world/block"
)

// Clipboard - скопированный кубоид блоков в памяти. Позиции хранятся
// в мировых координатах копирования, Origin - точка привязки при вставке.
type Clipboard struct {
	Min    vec.Vec3
	Max    vec.Vec3
	Origin vec.Vec3
	blocks []block.State
	air    block.State
}

// NewClipboard создаёт пустой буфер для кубоида [min, max].
func NewClipboard(min, max, origin vec.Vec3) *Clipboard {
	size := max.Sub(min).Add(vec.Vec3{X: 1, Y: 1, Z: 1})
	return &Clipboard{
		Min:    min,
		Max:    max,
		Origin: origin,
		blocks: make([]block.State, size.X*size.Y*size.Z),
	}
}

// Copy копирует кубоид [min, max] из extent.
func Copy(src Extent, min, max, origin vec.Vec3) *Clipboard {
	c := NewClipboard(min, max, origin)
	c.ForEach(func(pos vec.Vec3, _ block.State) {
		c.blocks[c.index(pos)] = src.GetBlock(pos)
	})
	return c
}

// Size возвращает размеры буфера по осям
func (c *Clipboard) Size() vec.Vec3 {
	return c.Max.Sub(c.Min).Add(vec.Vec3{X: 1, Y: 1, Z: 1})
}

func (c *Clipboard) contains(pos vec.Vec3) bool {
	return pos.X >= c.Min.X && pos.X <= c.Max.X &&
		pos.Y >= c.Min.Y && pos.Y <= c.Max.Y &&
		pos.Z >= c.Min.Z && pos.Z <= c.Max.Z
}

func (c *Clipboard) index(pos vec.Vec3) int {
	size := c.Size()
	rel := pos.Sub(c.Min)
	return (rel.Y*size.Z+rel.Z)*size.X + rel.X
}

// GetBlock возвращает блок из буфера; вне границ - air.
func (c *Clipboard) GetBlock(pos vec.Vec3) block.State {
	if !c.contains(pos) {
		return c.air
	}
	return c.blocks[c.index(pos)]
}

// SetBlock записывает блок в буфер; вне границ запись игнорируется.
func (c *Clipboard) SetBlock(pos vec.Vec3, state block.State) (bool, error) {
	if !c.contains(pos) {
		return false, nil
	}
	i := c.index(pos)
	if c.blocks[i].SameState(state) && state.Payload == nil && c.blocks[i].Payload == nil {
		return false, nil
	}
	c.blocks[i] = state
	return true, nil
}

// ForEach обходит все позиции буфера в порядке X, затем Z, затем Y.
func (c *Clipboard) ForEach(fn func(pos vec.Vec3, state block.State)) {
	for y := c.Min.Y; y <= c.Max.Y; y++ {
		for z := c.Min.Z; z <= c.Max.Z; z++ {
			for x := c.Min.X; x <= c.Max.X; x++ {
				pos := vec.Vec3{X: x, Y: y, Z: z}
				fn(pos, c.blocks[c.index(pos)])
			}
		}
	}
}
