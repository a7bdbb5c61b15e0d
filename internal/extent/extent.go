// Package extent описывает контракты доступа к миру, которыми пользуется ядро
// редактирования: чтение/запись блоков, функции над регионом и подгрузку чанков.
package extent

import (
	"errors"

	"github.com/annel0/voxedit/internal/vec"
	"github.com/annel0/voxedit/internal/world/block"
)

// ErrPlacementDenied - запись блока отклонена (защищённая область, нет блоков в сумке...).
var ErrPlacementDenied = errors.New("placement denied")

// Extent - доступ к блокам мира.
type Extent interface {
	// GetBlock никогда не завершается ошибкой: для незаданных позиций возвращается air.
	GetBlock(pos vec.Vec3) block.State

	// SetBlock возвращает true, если блок действительно изменился.
	// Может вернуть ошибку, обёртывающую ErrPlacementDenied.
	SetBlock(pos vec.Vec3, state block.State) (bool, error)
}

// RegionFunction вызывается для каждой посещённой позиции.
type RegionFunction interface {
	Apply(pos vec.Vec3) (bool, error)
}

// RegionFunctionFunc адаптирует функцию к RegionFunction.
type RegionFunctionFunc func(pos vec.Vec3) (bool, error)

// Apply вызывает f(pos)
func (f RegionFunctionFunc) Apply(pos vec.Vec3) (bool, error) {
	return f(pos)
}

// Noop - функция без эффекта.
var Noop = RegionFunctionFunc(func(vec.Vec3) (bool, error) { return false, nil })

// ChunkPrefetcher принимает асинхронные запросы на подгрузку чанков.
// RequestLoad не блокирует вызывающего и не сообщает о результате.
type ChunkPrefetcher interface {
	RequestLoad(coords vec.Vec2)
}

// HeightBounds - вертикальные границы мира: MinY включительно, MaxY исключительно.
type HeightBounds struct {
	MinY int `yaml:"min_y"`
	MaxY int `yaml:"max_y"`
}

// DefaultHeightBounds возвращает исторические границы [0, 256).
func DefaultHeightBounds() HeightBounds {
	return HeightBounds{MinY: 0, MaxY: 256}
}

// Contains проверяет, что координата Y лежит в границах
func (h HeightBounds) Contains(y int) bool {
	return y >= h.MinY && y < h.MaxY
}

// Height возвращает количество слоёв по вертикали
func (h HeightBounds) Height() int {
	return h.MaxY - h.MinY
}
