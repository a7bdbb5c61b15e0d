// Package transform переназначает ориентированные состояния блоков при
// поворотах и отражениях без повторного вычисления для каждого блока.
package transform

import (
	"math"

	"github.com/annel0/voxedit/internal/logging"
	"github.com/annel0/voxedit/internal/observability"
	"github.com/annel0/voxedit/internal/vec"
	"github.com/annel0/voxedit/internal/world/block"
)

// identity - маркер таблицы типа без ориентированных свойств. Никогда не изменяется.
var identity = make([]int32, 0)

func isIdentity(table []int32) bool {
	return table != nil && len(table) == 0
}

// rotFlags - направления, среди которых выбирается новое значение Rot.
const rotFlags = vec.Cardinal | vec.Ordinal | vec.SecondaryOrdinal

// Cache хранит для активного преобразования и его обратного по таблице на тип:
// старый индекс состояния → новый. Таблицы создаются при первом обращении
// к типу и заполняются лениво (-1 - ещё не вычислено).
// Не безопасен для параллельного использования.
type Cache struct {
	registry    *block.Registry
	transform   vec.AffineTransform
	inverse     vec.AffineTransform
	directional []bool
	forward     [][]int32
	backward    [][]int32
}

// NewCache создаёт кэш для преобразования
func NewCache(registry *block.Registry, t vec.AffineTransform) *Cache {
	c := &Cache{
		registry:    registry,
		directional: make([]bool, registry.Len()),
	}
	for _, typ := range registry.Types() {
		for _, p := range typ.Properties {
			if p.IsDirectional() {
				c.directional[typ.ID] = true
				break
			}
		}
	}
	c.SetTransform(t)
	return c
}

// SetTransform заменяет активное преобразование. Все таблицы сбрасываются.
func (c *Cache) SetTransform(t vec.AffineTransform) {
	inverse, ok := t.Inverse()
	if !ok {
		logging.Warn("transform: вырожденное преобразование, обратное заменено тождественным")
	}
	c.transform = t
	c.inverse = inverse
	c.forward = make([][]int32, c.registry.Len())
	c.backward = make([][]int32, c.registry.Len())
}

// Current возвращает активное преобразование
func (c *Cache) Current() vec.AffineTransform {
	return c.transform
}

// Active сообщает, что преобразование отличается от тождественного
func (c *Cache) Active() bool {
	return !c.transform.IsIdentity()
}

// Transform переводит состояние активным преобразованием, включая метаданные Rot.
func (c *Cache) Transform(state block.State) block.State {
	return c.apply(state, c.forward, c.transform)
}

// TransformInverse переводит состояние обратным преобразованием.
func (c *Cache) TransformInverse(state block.State) block.State {
	return c.apply(state, c.backward, c.inverse)
}

func (c *Cache) apply(state block.State, tables [][]int32, t vec.AffineTransform) block.State {
	out := state
	if int(state.Type) < len(tables) {
		table := tables[state.Type]
		if table == nil {
			table = c.newTable(state.Type, t)
			tables[state.Type] = table
		}
		if isIdentity(table) {
			observability.TransformLookups.WithLabelValues("identity").Inc()
		} else if int(state.Index) < len(table) {
			next := table[state.Index]
			if next < 0 {
				next = int32(c.remap(state.Type, state.Index, t))
				table[state.Index] = next
				observability.TransformLookups.WithLabelValues("fill").Inc()
			} else {
				observability.TransformLookups.WithLabelValues("hit").Inc()
			}
			out.Index = uint32(next)
		}
	}
	if rot, ok := state.Rot(); ok {
		out = rotate(out, rot, t)
	}
	return out
}

func (c *Cache) newTable(t block.TypeID, transform vec.AffineTransform) []int32 {
	if !c.directional[t] || transform.IsIdentity() {
		return identity
	}
	table := make([]int32, c.registry.MustType(t).StateCount())
	for i := range table {
		table[i] = -1
	}
	observability.TransformTables.Inc()
	return table
}

// remap вычисляет новый индекс: каждое направленное свойство получает значение
// домена, ближайшее к образу старого направления. Остальные биты копируются.
func (c *Cache) remap(t block.TypeID, index uint32, transform vec.AffineTransform) uint32 {
	typ := c.registry.MustType(t)
	out := index
	for _, p := range typ.Properties {
		dirs := p.Directions()
		if len(dirs) == 0 {
			continue
		}
		current := p.Index(index)
		if current >= len(dirs) {
			continue
		}
		out = p.Modify(out, nearest(dirs, current, transform))
	}
	return out
}

// nearest выбирает направление домена с наибольшим скалярным произведением
// с образом dirs[current]. Старое значение заменяется только строго лучшим.
func nearest(dirs []vec.Direction, current int, transform vec.AffineTransform) int {
	old := dirs[current].Vector().Normalized()
	image := transform.ApplyDirection(old).Normalized()
	best := current
	// все векторы единичные: скалярное произведение сравнивает только углы
	closest := old.Dot(image)
	for i, d := range dirs {
		if dot := d.Vector().Normalized().Dot(image); dot > closest {
			closest = dot
			best = i
		}
	}
	return best
}

// rotate переписывает Rot. Если образ направления вертикален или не определён,
// значение сохраняется.
func rotate(state block.State, rot int, t vec.AffineTransform) block.State {
	dir, ok := vec.FromRotation(rot)
	if !ok {
		return state
	}
	image := t.ApplyDirection(dir.Vector())
	if math.Hypot(image.X, image.Z) < 1e-9 {
		return state
	}
	closest, ok := vec.FindClosest(image, rotFlags)
	if !ok {
		return state
	}
	next := vec.ToRotation(closest)
	if next < 0 || next == rot {
		return state
	}
	return state.WithRot(next)
}
