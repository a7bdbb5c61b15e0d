package transform

import (
	"github.com/annel0/voxedit/internal/extent"
	"github.com/annel0/voxedit/internal/vec"
	"github.com/annel0/voxedit/internal/world/block"
)

// Extent оборачивает extent: читаемые блоки проходят прямое преобразование,
// записываемые - обратное.
type Extent struct {
	extent.Extent
	cache *Cache
}

// NewExtent создаёт преобразующий extent
func NewExtent(ext extent.Extent, cache *Cache) *Extent {
	return &Extent{Extent: ext, cache: cache}
}

// Cache возвращает кэш таблиц
func (e *Extent) Cache() *Cache {
	return e.cache
}

func (e *Extent) GetBlock(pos vec.Vec3) block.State {
	return e.cache.Transform(e.Extent.GetBlock(pos))
}

func (e *Extent) SetBlock(pos vec.Vec3, state block.State) (bool, error) {
	return e.Extent.SetBlock(pos, e.cache.TransformInverse(state))
}
