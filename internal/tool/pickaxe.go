package tool

import (
	"context"

	"github.com/annel0/voxedit/internal/function"
	"github.com/annel0/voxedit/internal/mask"
	"github.com/annel0/voxedit/internal/vec"
	"github.com/annel0/voxedit/internal/visitor"
)

// RecursivePickaxe убирает связную группу блоков того же типа, что и стартовый.
// Radius ограничивает и евклидово расстояние от старта, и глубину обхода.
type RecursivePickaxe struct {
	Radius       int
	AllowBedrock bool
	Traversal    Traversal
}

// Act применяет инструмент к позиции и возвращает число убранных блоков.
// Для air и (без AllowBedrock) bedrock ничего не делает.
func (p RecursivePickaxe) Act(ctx context.Context, ed Editor, pos vec.Vec3) (int, error) {
	registry := ed.Registry()
	start := ed.GetBlock(pos)
	if registry.IsAir(start) {
		return 0, nil
	}
	if !p.AllowBedrock && newTypeSet(registry, "bedrock").has(start.Type) {
		return 0, nil
	}

	replace := function.BlockReplace{
		Extent:  ed,
		Pattern: function.SingleBlockPattern{State: registry.Air()},
	}
	traversal := p.Traversal
	if traversal.MaxDepth == nil || *traversal.MaxDepth > p.Radius {
		depth := p.Radius
		traversal.MaxDepth = &depth
	}
	predicate := visitor.WithinRange(visitor.MaskPredicate(mask.NewIDMask(ed)), pos, p.Radius*p.Radius)
	v := visitor.New(predicate, replace, traversal.options()...)
	v.Visit(pos)
	if err := v.Run(ctx); err != nil {
		return v.Affected(), err
	}
	return v.Affected(), nil
}
