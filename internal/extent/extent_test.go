package extent

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/voxedit/internal/vec"
	"github.com/annel0/voxedit/internal/world/block"
)

func TestHeightBounds(t *testing.T) {
	h := DefaultHeightBounds()
	assert.True(t, h.Contains(0))
	assert.True(t, h.Contains(255))
	assert.False(t, h.Contains(256), "MaxY не входит в границы")
	assert.False(t, h.Contains(-1))
	assert.Equal(t, 256, h.Height())
}

func TestMemoryExtent(t *testing.T) {
	reg := block.Default()
	stone := reg.MustState("stone", nil)
	m := NewMemoryExtent()
	pos := vec.Vec3{X: 1, Y: 2, Z: 3}

	assert.True(t, reg.IsAir(m.GetBlock(pos)), "незаданная позиция - air")

	changed, err := m.SetBlock(pos, stone)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = m.SetBlock(pos, stone)
	require.NoError(t, err)
	assert.False(t, changed, "повторная запись того же состояния не меняет мир")

	changed, err = m.SetBlock(pos, reg.Air())
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 0, m.Len())
}

func TestBlockBagExtent(t *testing.T) {
	reg := block.Default()
	stone := reg.MustState("stone", nil)
	dirt := reg.MustState("dirt", nil)

	base := NewMemoryExtent()
	base.SetBlock(vec.Vec3{X: 5}, dirt)

	bag := NewInventoryBag(0)
	bag.Put(stone.Type, 1)
	ext := NewBlockBagExtent(base, reg, bag, true)

	changed, err := ext.SetBlock(vec.Vec3{X: 5}, stone)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 0, bag.Count(stone.Type))
	assert.Equal(t, 1, bag.Count(dirt.Type), "добытый блок попадает в сумку")

	_, err = ext.SetBlock(vec.Vec3{X: 6}, stone)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPlacementDenied))
	_, err = ext.SetBlock(vec.Vec3{X: 7}, stone)
	require.Error(t, err)

	missing := ext.PopMissing()
	assert.Equal(t, 2, missing[stone.Type])
	assert.Empty(t, ext.PopMissing(), "счётчики сбрасываются")

	// air ставится без сумки
	changed, err = ext.SetBlock(vec.Vec3{X: 5}, reg.Air())
	require.NoError(t, err)
	assert.True(t, changed)
}

func TestClipboardCopy(t *testing.T) {
	reg := block.Default()
	stone := reg.MustState("stone", nil)
	src := NewMemoryExtent()
	src.SetBlock(vec.Vec3{X: 1, Y: 1, Z: 1}, stone)

	c := Copy(src, vec.Vec3{}, vec.Vec3{X: 2, Y: 2, Z: 2}, vec.Vec3{})
	assert.Equal(t, vec.Vec3{X: 3, Y: 3, Z: 3}, c.Size())
	assert.True(t, c.GetBlock(vec.Vec3{X: 1, Y: 1, Z: 1}).SameState(stone))
	assert.True(t, reg.IsAir(c.GetBlock(vec.Vec3{X: 9})), "вне буфера - air")

	count := 0
	c.ForEach(func(pos vec.Vec3, s block.State) {
		if !reg.IsAir(s) {
			count++
		}
	})
	assert.Equal(t, 1, count)
}

func TestRegionFunctionFunc(t *testing.T) {
	var got vec.Vec3
	f := RegionFunctionFunc(func(pos vec.Vec3) (bool, error) {
		got = pos
		return true, nil
	})
	ok, err := f.Apply(vec.Vec3{X: 4})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, vec.Vec3{X: 4}, got)
}
