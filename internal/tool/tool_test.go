package tool

import (
	"context"
	"testing"

	"github.com/annel0/voxedit/internal/extent"
	"github.com/annel0/voxedit/internal/function"
	"github.com/annel0/voxedit/internal/mask"
	"github.com/annel0/voxedit/internal/vec"
	"github.com/annel0/voxedit/internal/world"
	"github.com/annel0/voxedit/internal/world/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testBounds = extent.HeightBounds{MinY: 0, MaxY: 64}

func newWorld() *world.World {
	return world.New(block.Default(), testBounds)
}

func fill(t *testing.T, w *world.World, min, max vec.Vec3, state block.State) {
	t.Helper()
	for y := min.Y; y <= max.Y; y++ {
		for z := min.Z; z <= max.Z; z++ {
			for x := min.X; x <= max.X; x++ {
				_, err := w.SetBlock(vec.Vec3{X: x, Y: y, Z: z}, state)
				require.NoError(t, err)
			}
		}
	}
}

func countType(w *world.World, min, max vec.Vec3, name string) int {
	typ, _ := w.Registry().Lookup(name)
	n := 0
	for y := min.Y; y <= max.Y; y++ {
		for z := min.Z; z <= max.Z; z++ {
			for x := min.X; x <= max.X; x++ {
				if w.GetBlock(vec.Vec3{X: x, Y: y, Z: z}).Type == typ.ID {
					n++
				}
			}
		}
	}
	return n
}

func TestRecursivePickaxeRemovesSameType(t *testing.T) {
	w := newWorld()
	stone := w.Registry().MustState("stone", nil)
	dirt := w.Registry().MustState("dirt", nil)
	fill(t, w, vec.Vec3{X: 0, Y: 10, Z: 0}, vec.Vec3{X: 2, Y: 12, Z: 2}, stone)
	fill(t, w, vec.Vec3{X: 3, Y: 10, Z: 0}, vec.Vec3{X: 3, Y: 12, Z: 2}, dirt)

	n, err := RecursivePickaxe{Radius: 10, Traversal: Traversal{Bounds: testBounds}}.Act(context.Background(), w, vec.Vec3{X: 1, Y: 11, Z: 1})
	require.NoError(t, err)
	assert.Equal(t, 27, n)
	assert.Equal(t, 9, countType(w, vec.Vec3{X: 0, Y: 10}, vec.Vec3{X: 3, Y: 12, Z: 2}, "dirt"), "соседний тип не затронут")
}

func TestRecursivePickaxeRadius(t *testing.T) {
	w := newWorld()
	fill(t, w, vec.Vec3{X: 0, Y: 5}, vec.Vec3{X: 9, Y: 5}, w.Registry().MustState("stone", nil))

	n, err := RecursivePickaxe{Radius: 3, Traversal: Traversal{Bounds: testBounds}}.Act(context.Background(), w, vec.Vec3{Y: 5})
	require.NoError(t, err)
	assert.Equal(t, 4, n, "убраны только блоки в радиусе 3")
}

func TestRecursivePickaxeDepthLimitedByRadius(t *testing.T) {
	w := newWorld()
	stone := w.Registry().MustState("stone", nil)
	// змейка в квадрате 3x3: все клетки в радиусе 3, но путь до (0,5,2) длиной 6
	snake := []vec.Vec3{
		{X: 0, Y: 5, Z: 0}, {X: 1, Y: 5, Z: 0}, {X: 2, Y: 5, Z: 0},
		{X: 2, Y: 5, Z: 1},
		{X: 2, Y: 5, Z: 2}, {X: 1, Y: 5, Z: 2}, {X: 0, Y: 5, Z: 2},
	}
	for _, pos := range snake {
		_, err := w.SetBlock(pos, stone)
		require.NoError(t, err)
	}

	n, err := RecursivePickaxe{Radius: 3, Traversal: Traversal{Bounds: testBounds}}.Act(context.Background(), w, snake[0])
	require.NoError(t, err)
	assert.Equal(t, 4, n, "глубина обхода не больше радиуса")
	assert.Equal(t, stone.Type, w.GetBlock(snake[4]).Type)

	limit := 1
	n, err = RecursivePickaxe{Radius: 3, Traversal: Traversal{Bounds: testBounds, MaxDepth: &limit}}.Act(context.Background(), w, snake[4])
	require.NoError(t, err)
	assert.Equal(t, 2, n, "более строгий MaxDepth сохраняется")
}

func TestRecursivePickaxeGuards(t *testing.T) {
	w := newWorld()
	fill(t, w, vec.Vec3{Y: 1}, vec.Vec3{X: 2, Y: 1}, w.Registry().MustState("bedrock", nil))
	ctx := context.Background()

	n, err := RecursivePickaxe{Radius: 5}.Act(ctx, w, vec.Vec3{Y: 1})
	require.NoError(t, err)
	assert.Zero(t, n, "bedrock без разрешения не трогаем")

	n, err = RecursivePickaxe{Radius: 5}.Act(ctx, w, vec.Vec3{Y: 30})
	require.NoError(t, err)
	assert.Zero(t, n, "по air ничего не делаем")

	n, err = RecursivePickaxe{Radius: 5, AllowBedrock: true}.Act(ctx, w, vec.Vec3{Y: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func buildTree(t *testing.T, w *world.World, base vec.Vec3) {
	t.Helper()
	log := w.Registry().MustState("log", map[string]string{"axis": "y"})
	leaves := w.Registry().MustState("leaves", nil)
	top := base.Add(vec.Vec3{Y: 3})
	fill(t, w, top.Add(vec.Vec3{X: -1, Z: -1}), top.Add(vec.Vec3{X: 1, Y: 1, Z: 1}), leaves)
	fill(t, w, base, top, log)
}

func TestFloatingTreeRemover(t *testing.T) {
	w := newWorld()
	buildTree(t, w, vec.Vec3{X: 5, Y: 20, Z: 5})

	n, err := FloatingTreeRemover{}.Act(context.Background(), w, vec.Vec3{X: 5, Y: 21, Z: 5})
	require.NoError(t, err)
	// 4 блока ствола + 17 листвы (ствол заменил центр нижнего слоя кроны)
	assert.Equal(t, 21, n)
	assert.Zero(t, countType(w, vec.Vec3{X: 3, Y: 19, Z: 3}, vec.Vec3{X: 7, Y: 26, Z: 7}, "leaves"))
}

func TestFloatingTreeRemoverRefusesGrounded(t *testing.T) {
	w := newWorld()
	buildTree(t, w, vec.Vec3{X: 5, Y: 20, Z: 5})
	_, err := w.SetBlock(vec.Vec3{X: 5, Y: 19, Z: 5}, w.Registry().MustState("dirt", nil))
	require.NoError(t, err)

	_, err = FloatingTreeRemover{}.Act(context.Background(), w, vec.Vec3{X: 5, Y: 22, Z: 5})
	assert.ErrorIs(t, err, ErrNotFloating)
	assert.Equal(t, 4, countType(w, vec.Vec3{X: 5, Y: 20, Z: 5}, vec.Vec3{X: 5, Y: 23, Z: 5}, "log"), "дерево не тронуто")
}

func TestFloatingTreeRemoverLeavesMayTouchWall(t *testing.T) {
	w := newWorld()
	buildTree(t, w, vec.Vec3{X: 5, Y: 20, Z: 5})
	// Стена рядом с листвой, но не со стволом
	_, err := w.SetBlock(vec.Vec3{X: 7, Y: 23, Z: 5}, w.Registry().MustState("stone", nil))
	require.NoError(t, err)

	n, err := FloatingTreeRemover{}.Act(context.Background(), w, vec.Vec3{X: 5, Y: 20, Z: 5})
	require.NoError(t, err)
	assert.Equal(t, 21, n)
	assert.Equal(t, 1, countType(w, vec.Vec3{X: 7, Y: 23, Z: 5}, vec.Vec3{X: 7, Y: 23, Z: 5}, "stone"))
}

func TestFloatingTreeRemoverNotTree(t *testing.T) {
	w := newWorld()
	_, err := FloatingTreeRemover{}.Act(context.Background(), w, vec.Vec3{Y: 10})
	assert.ErrorIs(t, err, ErrNotTree)
}

func TestFloodReplace(t *testing.T) {
	w := newWorld()
	reg := w.Registry()
	fill(t, w, vec.Vec3{Y: 1}, vec.Vec3{X: 4, Y: 1, Z: 4}, reg.MustState("stone", nil))
	// Отдельный остров камня не связан с основной областью
	fill(t, w, vec.Vec3{X: 10, Y: 1}, vec.Vec3{X: 10, Y: 1}, reg.MustState("stone", nil))

	m, err := mask.Parse("stone", reg, w)
	require.NoError(t, err)
	tool := FloodReplace{
		Mask:      m,
		Pattern:   function.SingleBlockPattern{State: reg.MustState("gravel", nil)},
		Traversal: Traversal{Bounds: testBounds},
	}

	n, err := tool.Act(context.Background(), w, vec.Vec3{X: 2, Y: 1, Z: 2})
	require.NoError(t, err)
	assert.Equal(t, 25, n)
	assert.Equal(t, 1, countType(w, vec.Vec3{X: 10, Y: 1}, vec.Vec3{X: 10, Y: 1}, "stone"))

	n, err = tool.Act(context.Background(), w, vec.Vec3{X: 2, Y: 5, Z: 2})
	require.NoError(t, err)
	assert.Zero(t, n, "старт вне маски")
}

func TestDownwardFill(t *testing.T) {
	w := newWorld()
	reg := w.Registry()
	stone := reg.MustState("stone", nil)
	// Яма 3×3 глубиной 2 в плите камня 7×7, сверху открыто
	fill(t, w, vec.Vec3{X: 0, Y: 1, Z: 0}, vec.Vec3{X: 6, Y: 3, Z: 6}, stone)
	fill(t, w, vec.Vec3{X: 2, Y: 2, Z: 2}, vec.Vec3{X: 4, Y: 3, Z: 4}, reg.Air())

	tool := DownwardFill{
		Pattern:   function.SingleBlockPattern{State: reg.MustState("water", nil)},
		Radius:    3,
		Traversal: Traversal{Bounds: testBounds},
	}
	n, err := tool.Act(context.Background(), w, vec.Vec3{X: 3, Y: 3, Z: 3})
	require.NoError(t, err)
	assert.Equal(t, 18, n)
	assert.Equal(t, 18, countType(w, vec.Vec3{X: 0, Y: 1}, vec.Vec3{X: 6, Y: 4, Z: 6}, "water"), "выше уровня старта заливки нет")
}
