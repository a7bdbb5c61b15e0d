package tool

import (
	"context"

	"github.com/annel0/voxedit/internal/function"
	"github.com/annel0/voxedit/internal/mask"
	"github.com/annel0/voxedit/internal/vec"
	"github.com/annel0/voxedit/internal/visitor"
)

// FloodReplace заменяет связную область, проходящую маску, блоками шаблона.
type FloodReplace struct {
	Mask      mask.Mask
	Pattern   function.Pattern
	Traversal Traversal
}

// Act начинает заливку с origin. Если origin не проходит маску, ничего не меняется.
func (f FloodReplace) Act(ctx context.Context, ed Editor, origin vec.Vec3) (int, error) {
	if !f.Mask.Test(origin) {
		return 0, nil
	}
	v := visitor.NewRecursive(f.Mask, function.BlockReplace{Extent: ed, Pattern: f.Pattern}, f.Traversal.options()...)
	v.Visit(origin)
	err := v.Run(ctx)
	return v.Affected(), err
}

// DownwardFill заполняет пустоту под уровнем origin (ямы, котлованы):
// на уровне origin заливка растекается в стороны, ниже - только вниз.
type DownwardFill struct {
	Pattern   function.Pattern
	Radius    int
	Traversal Traversal
}

// Act заполняет air, начиная с origin
func (f DownwardFill) Act(ctx context.Context, ed Editor, origin vec.Vec3) (int, error) {
	empty := mask.Inverse(mask.ExistingBlockMask{Extent: ed, Registry: ed.Registry()})
	if !empty.Test(origin) {
		return 0, nil
	}

	downward := visitor.DownwardPredicate(empty, origin.Y)
	predicate := func(from, to vec.Vec3) bool {
		return to.Y <= origin.Y && downward(from, to)
	}
	var p visitor.Predicate = predicate
	if f.Radius > 0 {
		p = visitor.WithinRange(p, origin, f.Radius*f.Radius)
	}
	v := visitor.New(p, function.BlockReplace{Extent: ed, Pattern: f.Pattern}, f.Traversal.options()...)
	v.Visit(origin)
	err := v.Run(ctx)
	return v.Affected(), err
}
