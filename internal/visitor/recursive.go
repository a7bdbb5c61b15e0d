package visitor

import (
	"github.com/annel0/voxedit/internal/extent"
	"github.com/annel0/voxedit/internal/mask"
	"github.com/annel0/voxedit/internal/vec"
)

// MaskPredicate посещает соседей, которые проходят маску.
func MaskPredicate(m mask.Mask) Predicate {
	return func(_, to vec.Vec3) bool {
		return m.Test(to)
	}
}

// NewRecursive обходит связную область позиций, проходящих маску.
func NewRecursive(m mask.Mask, function extent.RegionFunction, opts ...Option) *BreadthFirstSearch {
	return New(MaskPredicate(m), function, opts...)
}

// DownwardPredicate разрешает любые переходы на уровне baseY, а ниже него - только вниз.
func DownwardPredicate(m mask.Mask, baseY int) Predicate {
	return func(from, to vec.Vec3) bool {
		return (from.Y == baseY || to.Y < from.Y) && m.Test(to)
	}
}

// NewDownward создаёт обход, который никогда не поднимается выше стартового уровня,
// кроме горизонтального растекания на нём (заливка ям и водоёмов).
func NewDownward(m mask.Mask, function extent.RegionFunction, baseY int, opts ...Option) *BreadthFirstSearch {
	return New(DownwardPredicate(m, baseY), function, opts...)
}

// WithinRange ограничивает предикат шаром радиуса sqrt(rangeSq) вокруг origin.
func WithinRange(p Predicate, origin vec.Vec3, rangeSq int) Predicate {
	return func(from, to vec.Vec3) bool {
		if to.DistanceSq(origin) > rangeSq {
			return false
		}
		return p(from, to)
	}
}
