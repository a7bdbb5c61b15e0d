package function

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/voxedit/internal/extent"
	"github.com/annel0/voxedit/internal/mask"
	"github.com/annel0/voxedit/internal/vec"
	"github.com/annel0/voxedit/internal/world/block"
)

func TestRandomPatternWeights(t *testing.T) {
	reg := block.Default()
	stone := reg.MustState("stone", nil)
	dirt := reg.MustState("dirt", nil)

	p := NewRandomPattern(1).
		Add(SingleBlockPattern{State: stone}, 3).
		Add(SingleBlockPattern{State: dirt}, 1).
		Add(SingleBlockPattern{State: dirt}, 0)
	assert.Equal(t, 2, p.Len(), "нулевой вес игнорируется")

	counts := map[block.TypeID]int{}
	for x := 0; x < 100; x++ {
		for z := 0; z < 100; z++ {
			counts[p.Apply(vec.Vec3{X: x, Z: z}).Type]++
		}
	}
	assert.InDelta(t, 7500, counts[stone.Type], 400)
	assert.InDelta(t, 2500, counts[dirt.Type], 400)

	pos := vec.Vec3{X: 3, Y: 4, Z: 5}
	assert.Equal(t, p.Apply(pos), p.Apply(pos), "выбор детерминирован для позиции")
}

func TestClipboardPatternTiles(t *testing.T) {
	reg := block.Default()
	stone := reg.MustState("stone", nil)
	src := extent.NewMemoryExtent()
	src.SetBlock(vec.Vec3{X: 10, Y: 10, Z: 10}, stone)
	clip := extent.Copy(src, vec.Vec3{X: 10, Y: 10, Z: 10}, vec.Vec3{X: 11, Y: 10, Z: 10}, vec.Vec3{X: 10, Y: 10, Z: 10})

	p := ClipboardPattern{Clipboard: clip}
	assert.True(t, p.Apply(vec.Vec3{X: 0}).SameState(stone))
	assert.True(t, reg.IsAir(p.Apply(vec.Vec3{X: 1})))
	assert.True(t, p.Apply(vec.Vec3{X: 4, Y: 7}).SameState(stone))
	assert.True(t, p.Apply(vec.Vec3{X: -2}).SameState(stone), "отрицательные координаты берутся по модулю")
	assert.True(t, reg.IsAir(p.Apply(vec.Vec3{X: -1})))
}

func TestParsePattern(t *testing.T) {
	reg := block.Default()

	p, err := ParsePattern("oak_stairs[facing=east,half=bottom]", reg, 0)
	require.NoError(t, err)
	single, ok := p.(SingleBlockPattern)
	require.True(t, ok)
	stairs, _ := reg.Lookup("oak_stairs")
	v, _ := stairs.Value(single.State.Index, "facing")
	assert.Equal(t, "east", v)

	p, err = ParsePattern("70%stone, 30%dirt", reg, 0)
	require.NoError(t, err)
	random, ok := p.(*RandomPattern)
	require.True(t, ok)
	assert.Equal(t, 2, random.Len())

	for _, bad := range []string{"", "unobtainium", "x%stone", "stone[facing", "oak_stairs[facing=up]"} {
		_, err := ParsePattern(bad, reg, 0)
		assert.True(t, errors.Is(err, ErrPatternParse), bad)
	}
	_, err = ParsePattern("unobtainium", reg, 0)
	assert.True(t, errors.Is(err, block.ErrUnknownType))
}

func TestBlockReplaceAndMask(t *testing.T) {
	reg := block.Default()
	stone := reg.MustState("stone", nil)
	dirt := reg.MustState("dirt", nil)
	ext := extent.NewMemoryExtent()
	ext.SetBlock(vec.Vec3{X: 0}, stone)
	ext.SetBlock(vec.Vec3{X: 1}, dirt)

	onlyStone := mask.NewBuilder(ext, reg).AddState(stone).Build()
	fn := &Counting{Function: MaskedFunction{
		Mask:     onlyStone,
		Function: BlockReplace{Extent: ext, Pattern: SingleBlockPattern{State: dirt}},
	}}

	for x := 0; x < 3; x++ {
		_, err := fn.Apply(vec.Vec3{X: x})
		require.NoError(t, err)
	}
	assert.Equal(t, 3, fn.Applied)
	assert.Equal(t, 1, fn.Changed)
	assert.True(t, ext.GetBlock(vec.Vec3{X: 0}).SameState(dirt))
}

func TestCombinedStopsOnError(t *testing.T) {
	calls := 0
	ok := extent.RegionFunctionFunc(func(vec.Vec3) (bool, error) { calls++; return true, nil })
	fail := extent.RegionFunctionFunc(func(vec.Vec3) (bool, error) { return false, extent.ErrPlacementDenied })

	changed, err := Combined{ok, fail, ok}.Apply(vec.Vec3{})
	assert.True(t, changed)
	assert.ErrorIs(t, err, extent.ErrPlacementDenied)
	assert.Equal(t, 1, calls)
}
