package world

import (
	"context"
	"testing"
	"time"

	"github.com/annel0/voxedit/internal/extent"
	"github.com/annel0/voxedit/internal/storage"
	"github.com/annel0/voxedit/internal/vec"
	"github.com/annel0/voxedit/internal/world/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWorld(t *testing.T, opts ...Option) *World {
	t.Helper()
	return New(block.Default(), extent.HeightBounds{MinY: -8, MaxY: 56}, opts...)
}

func TestWorld_BlockOperations(t *testing.T) {
	w := newTestWorld(t)
	stone := w.Registry().MustState("stone", nil)

	pos := vec.Vec3{X: -17, Y: 3, Z: 40}
	changed, err := w.SetBlock(pos, stone)
	require.NoError(t, err)
	assert.True(t, changed)

	assert.True(t, w.GetBlock(pos).SameState(stone), "блок должен читаться обратно")
	assert.True(t, w.IsLoaded(vec.Vec2{X: -2, Y: 2}), "чанк должен быть загружен")
	assert.Equal(t, []vec.Vec2{{X: -2, Y: 2}}, w.DirtyChunks())

	changed, err = w.SetBlock(pos, stone)
	require.NoError(t, err)
	assert.False(t, changed, "повторная запись не меняет мир")
}

func TestWorld_HeightBounds(t *testing.T) {
	w := newTestWorld(t)

	assert.True(t, w.registry.IsAir(w.GetBlock(vec.Vec3{Y: 56})))
	assert.True(t, w.registry.IsAir(w.GetBlock(vec.Vec3{Y: -9})))

	_, err := w.SetBlock(vec.Vec3{Y: 56}, w.Registry().MustState("stone", nil))
	assert.ErrorIs(t, err, extent.ErrPlacementDenied)
	assert.Equal(t, 0, w.LoadedChunks(), "чтение вне границ не загружает чанк")
}

func TestWorld_ProtectedRegion(t *testing.T) {
	w := newTestWorld(t)
	w.Protect(Region{Min: vec.Vec3{X: 0, Y: 0, Z: 0}, Max: vec.Vec3{X: 3, Y: 3, Z: 3}})
	stone := w.Registry().MustState("stone", nil)

	_, err := w.SetBlock(vec.Vec3{X: 2, Y: 2, Z: 2}, stone)
	assert.ErrorIs(t, err, extent.ErrPlacementDenied)

	changed, err := w.SetBlock(vec.Vec3{X: 4, Y: 2, Z: 2}, stone)
	require.NoError(t, err)
	assert.True(t, changed)
}

func TestWorld_SaveAndReload(t *testing.T) {
	store, err := storage.NewWorldStorage("", true)
	require.NoError(t, err)
	defer store.Close()

	w := newTestWorld(t, WithStore(store))
	sign := w.Registry().MustState("standing_sign", map[string]string{"rotation": "4"}).WithRot(4)
	pos := vec.Vec3{X: 33, Y: 10, Z: -1}
	_, err = w.SetBlock(pos, sign)
	require.NoError(t, err)

	saved, err := w.SaveDirty()
	require.NoError(t, err)
	assert.Equal(t, 1, saved)
	assert.Empty(t, w.DirtyChunks())

	reloaded := newTestWorld(t, WithStore(store))
	got := reloaded.GetBlock(pos)
	assert.True(t, got.SameState(sign))
	rot, ok := got.Rot()
	require.True(t, ok)
	assert.Equal(t, 4, rot)
}

func TestWorld_GeneratedTerrain(t *testing.T) {
	reg := block.Default()
	gen, err := NewGenerator(12345, reg)
	require.NoError(t, err)

	a := New(reg, extent.HeightBounds{MinY: 0, MaxY: 64}, WithGenerator(gen))
	b := New(reg, extent.HeightBounds{MinY: 0, MaxY: 64}, WithGenerator(gen))
	bedrock, _ := reg.Lookup("bedrock")

	for x := 0; x < 32; x += 5 {
		for z := 0; z < 32; z += 7 {
			pos := vec.Vec3{X: x, Y: 0, Z: z}
			assert.Equal(t, bedrock.ID, a.GetBlock(pos).Type, "нижний слой - bedrock")
			for y := 1; y < 40; y += 3 {
				p := vec.Vec3{X: x, Y: y, Z: z}
				assert.True(t, a.GetBlock(p).SameState(b.GetBlock(p)), "генерация детерминирована")
			}
		}
	}
	assert.Empty(t, a.DirtyChunks(), "сгенерированные чанки не считаются изменёнными")
}

func TestGeneratorRequiresTypes(t *testing.T) {
	reg, err := block.NewRegistryBuilder().Add("stone").Build()
	require.NoError(t, err)

	_, err = NewGenerator(1, reg)
	assert.ErrorIs(t, err, block.ErrUnknownType)
}

func TestPrefetcher(t *testing.T) {
	w := newTestWorld(t)
	p := NewPrefetcher(w, 2, 16)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p.Start(ctx)
	defer p.Stop()

	for x := 0; x < 4; x++ {
		p.RequestLoad(vec.Vec2{X: x, Y: 0})
		p.RequestLoad(vec.Vec2{X: x, Y: 0})
	}
	require.NoError(t, p.WaitIdle(ctx))

	assert.Equal(t, 4, w.LoadedChunks())
	p.RequestLoad(vec.Vec2{X: 0, Y: 0})
	assert.Equal(t, 0, p.Pending(), "загруженный чанк не ставится в очередь")
}

func TestPrefetcherDropsWhenFull(t *testing.T) {
	w := newTestWorld(t)
	p := NewPrefetcher(w, 1, 2) // воркеры не запущены

	for x := 0; x < 5; x++ {
		p.RequestLoad(vec.Vec2{X: x, Y: 1})
	}
	assert.Equal(t, 2, p.Pending(), "лишние запросы отбрасываются без блокировки")
	assert.Equal(t, 0, w.LoadedChunks())
}
