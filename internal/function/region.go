package function

import (
	"github.com/annel0/voxedit/internal/extent"
	"github.com/annel0/voxedit/internal/mask"
	"github.com/annel0/voxedit/internal/vec"
)

// BlockReplace записывает в позицию состояние из шаблона.
type BlockReplace struct {
	Extent  extent.Extent
	Pattern Pattern
}

func (f BlockReplace) Apply(pos vec.Vec3) (bool, error) {
	return f.Extent.SetBlock(pos, f.Pattern.Apply(pos))
}

// MaskedFunction применяет функцию только к позициям, проходящим маску.
type MaskedFunction struct {
	Mask     mask.Mask
	Function extent.RegionFunction
}

func (f MaskedFunction) Apply(pos vec.Vec3) (bool, error) {
	if !f.Mask.Test(pos) {
		return false, nil
	}
	return f.Function.Apply(pos)
}

// Combined применяет все функции по порядку; изменение засчитывается,
// если его сообщила хотя бы одна.
type Combined []extent.RegionFunction

func (f Combined) Apply(pos vec.Vec3) (bool, error) {
	changed := false
	for _, fn := range f {
		ok, err := fn.Apply(pos)
		if err != nil {
			return changed, err
		}
		changed = changed || ok
	}
	return changed, nil
}

// Counting считает позиции, к которым применялась функция.
type Counting struct {
	Function extent.RegionFunction
	Applied  int
	Changed  int
}

func (f *Counting) Apply(pos vec.Vec3) (bool, error) {
	f.Applied++
	ok, err := f.Function.Apply(pos)
	if ok {
		f.Changed++
	}
	return ok, err
}
