package transform

import (
	"fmt"

	"github.com/annel0/voxedit/internal/extent"
	"github.com/annel0/voxedit/internal/vec"
	"github.com/annel0/voxedit/internal/world/block"
)

// PasteOptions - параметры вставки буфера
type PasteOptions struct {
	// IgnoreAir - не переносить пустые блоки буфера.
	IgnoreAir bool
}

// Paste вставляет буфер в dst так, что Origin буфера попадает в позицию at.
// Позиции относительно Origin проходят преобразование cache, состояния
// переназначаются его таблицами. Возвращает число изменённых блоков;
// при ошибке записи вставка прерывается.
func Paste(dst extent.Extent, clip *extent.Clipboard, at vec.Vec3, cache *Cache, registry *block.Registry, opts PasteOptions) (int, error) {
	t := cache.Current()
	changed := 0
	var err error
	clip.ForEach(func(pos vec.Vec3, state block.State) {
		if err != nil {
			return
		}
		if opts.IgnoreAir && registry.IsAir(state) {
			return
		}
		rel := pos.Sub(clip.Origin)
		target := at.Add(t.Apply(rel.ToFloat()).Round())
		ok, setErr := dst.SetBlock(target, cache.Transform(state))
		if setErr != nil {
			err = fmt.Errorf("paste at %v: %w", target, setErr)
			return
		}
		if ok {
			changed++
		}
	})
	return changed, err
}
