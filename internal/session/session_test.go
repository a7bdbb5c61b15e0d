package session

import (
	"context"
	"sync"
	"testing"

	"github.com/annel0/voxedit/internal/eventbus"
	"github.com/annel0/voxedit/internal/extent"
	"github.com/annel0/voxedit/internal/storage"
	"github.com/annel0/voxedit/internal/vec"
	"github.com/annel0/voxedit/internal/world"
	"github.com/annel0/voxedit/internal/world/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWorld(t *testing.T) (*world.World, *storage.WorldStorage) {
	t.Helper()
	store, err := storage.NewWorldStorage("", false)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return world.New(block.Default(), extent.HeightBounds{MinY: 0, MaxY: 32}, world.WithStore(store)), store
}

func TestSessionCountsChanges(t *testing.T) {
	w, _ := newWorld(t)
	s := New(context.Background(), w, Options{Bus: eventbus.NewMemoryBus(4)})
	stone := w.Registry().MustState("stone", nil)

	for x := 0; x < 20; x++ {
		_, err := s.SetBlock(vec.Vec3{X: x, Y: 1, Z: 0}, stone)
		require.NoError(t, err)
	}
	// Повторная запись не считается
	_, err := s.SetBlock(vec.Vec3{X: 0, Y: 1, Z: 0}, stone)
	require.NoError(t, err)

	assert.Equal(t, 20, s.Changed())
	assert.Equal(t, []vec.Vec2{{X: 0, Y: 0}, {X: 1, Y: 0}}, s.ChangedChunks())
	assert.Equal(t, 16, s.ChunkChanges(vec.Vec2{X: 0, Y: 0}))
	assert.Equal(t, 4, s.ChunkChanges(vec.Vec2{X: 1, Y: 0}))
}

func TestSessionLimit(t *testing.T) {
	w, _ := newWorld(t)
	s := New(context.Background(), w, Options{MaxChangedBlocks: 3, Bus: eventbus.NewMemoryBus(4)})
	stone := w.Registry().MustState("stone", nil)

	for x := 0; x < 3; x++ {
		_, err := s.SetBlock(vec.Vec3{X: x, Y: 1}, stone)
		require.NoError(t, err)
	}
	_, err := s.SetBlock(vec.Vec3{X: 5, Y: 1}, stone)
	assert.ErrorIs(t, err, ErrMaxChangedBlocks)
	assert.True(t, w.GetBlock(vec.Vec3{X: 5, Y: 1}).Type == 0, "блок сверх лимита не записан")
}

func TestSessionPropagatesDenied(t *testing.T) {
	w, _ := newWorld(t)
	w.Protect(world.Region{Min: vec.Vec3{}, Max: vec.Vec3{X: 1, Y: 1, Z: 1}})
	s := New(context.Background(), w, Options{Bus: eventbus.NewMemoryBus(4)})

	_, err := s.SetBlock(vec.Vec3{X: 1, Y: 1, Z: 1}, w.Registry().MustState("stone", nil))
	assert.ErrorIs(t, err, extent.ErrPlacementDenied)
	assert.Equal(t, 0, s.Changed())
}

func TestSessionComplete(t *testing.T) {
	w, store := newWorld(t)
	bus := eventbus.NewMemoryBus(4)

	var mu sync.Mutex
	var events []CommitEvent
	_, err := bus.Subscribe(context.Background(), eventbus.Filter{Types: []string{eventbus.EventEditCommitted}},
		func(ctx context.Context, ev *eventbus.Envelope) {
			var ce CommitEvent
			if ev.Decode(&ce) == nil {
				mu.Lock()
				events = append(events, ce)
				mu.Unlock()
			}
		})
	require.NoError(t, err)

	s := New(context.Background(), w, Options{Bus: bus, Source: "test"})
	_, err = s.SetBlock(vec.Vec3{X: 40, Y: 2, Z: 40}, w.Registry().MustState("dirt", nil))
	require.NoError(t, err)

	ev, err := s.Complete(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, ev.Changed)
	assert.Equal(t, 1, ev.Saved)

	_, found, err := store.LoadChunk(vec.Vec2{X: 2, Y: 2})
	require.NoError(t, err)
	assert.True(t, found, "изменённый чанк сохранён")

	_, err = s.Complete(context.Background())
	assert.ErrorIs(t, err, ErrCompleted)
	_, err = s.SetBlock(vec.Vec3{Y: 2}, w.Registry().MustState("dirt", nil))
	assert.ErrorIs(t, err, ErrCompleted)

	require.NoError(t, bus.Close())
	require.Len(t, events, 1)
	assert.Equal(t, s.ID(), events[0].SessionID)
}
