package visitor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/voxedit/internal/extent"
	"github.com/annel0/voxedit/internal/mask"
	"github.com/annel0/voxedit/internal/vec"
	"github.com/annel0/voxedit/internal/world/block"
)

func openSpace(vec.Vec3, vec.Vec3) bool { return true }

func inCube(min, max vec.Vec3) Predicate {
	return func(_, to vec.Vec3) bool {
		return to.X >= min.X && to.X <= max.X &&
			to.Y >= min.Y && to.Y <= max.Y &&
			to.Z >= min.Z && to.Z <= max.Z
	}
}

// recorder запоминает позиции, к которым применялась функция
type recorder struct {
	applied []vec.Vec3
	changed bool
}

func (r *recorder) Apply(pos vec.Vec3) (bool, error) {
	r.applied = append(r.applied, pos)
	return r.changed, nil
}

type prefetchRecorder struct {
	requests []vec.Vec2
}

func (p *prefetchRecorder) RequestLoad(c vec.Vec2) {
	p.requests = append(p.requests, c)
}

func TestDiagonalDirectionsOrder(t *testing.T) {
	require.Len(t, DiagonalDirections, 26)
	for i := 1; i < len(DiagonalDirections); i++ {
		assert.LessOrEqual(t, DiagonalDirections[i-1].LengthSq(), DiagonalDirections[i].LengthSq())
	}
	for _, d := range DiagonalDirections[:6] {
		assert.Equal(t, 1, d.LengthSq(), "первыми идут осевые соседи")
	}
	assert.Equal(t, 3, DiagonalDirections[25].LengthSq())
}

func TestMaxDepthZeroVisitsOnlyOrigin(t *testing.T) {
	for _, changed := range []bool{true, false} {
		fn := &recorder{changed: changed}
		bfs := New(openSpace, fn, WithMaxDepth(0))
		origin := vec.Vec3{X: 5, Y: 64, Z: 5}
		bfs.Visit(origin)
		require.NoError(t, bfs.Run(context.Background()))

		assert.Equal(t, 1, bfs.Visited().Len())
		assert.True(t, bfs.Visited().Contains(origin))
		assert.Equal(t, []vec.Vec3{origin}, fn.applied)
		if changed {
			assert.Equal(t, 1, bfs.Affected())
		} else {
			assert.Equal(t, 0, bfs.Affected())
		}
		assert.Equal(t, StateCompleted, bfs.State())
	}
}

func TestCubeFill(t *testing.T) {
	min, max := vec.Vec3{X: 0, Y: 10, Z: 0}, vec.Vec3{X: 2, Y: 12, Z: 2}
	center := vec.Vec3{X: 1, Y: 11, Z: 1}

	t.Run("6 направлений", func(t *testing.T) {
		fn := &recorder{changed: true}
		bfs := New(inCube(min, max), fn)
		bfs.Visit(center)
		require.NoError(t, bfs.Run(context.Background()))
		assert.Equal(t, 27, bfs.Visited().Len())
		assert.Equal(t, 27, bfs.Affected())
		// грани на 1, рёбра на 2, углы на 3 шагах
		assert.Equal(t, 3, bfs.Depth())
	})

	t.Run("26 направлений", func(t *testing.T) {
		fn := &recorder{changed: true}
		bfs := New(inCube(min, max), fn, WithDirections(DiagonalDirections))
		bfs.Visit(center)
		require.NoError(t, bfs.Run(context.Background()))
		assert.Equal(t, 27, bfs.Visited().Len())
		assert.Equal(t, 1, bfs.Depth(), "все соседи достигаются за один шаг")
	})
}

func TestMaxBranchFollowsDirectionOrder(t *testing.T) {
	origin := vec.Vec3{X: 0, Y: 64, Z: 0}
	fn := &recorder{}
	bfs := New(openSpace, fn, WithMaxBranch(2), WithMaxDepth(1))
	bfs.Visit(origin)
	require.NoError(t, bfs.Run(context.Background()))

	visited := bfs.Visited()
	assert.Equal(t, 3, visited.Len())
	assert.True(t, visited.Contains(vec.Vec3{X: 0, Y: 63, Z: 0}), "первое направление - вниз")
	assert.True(t, visited.Contains(vec.Vec3{X: 0, Y: 65, Z: 0}), "второе направление - вверх")
	assert.False(t, visited.Contains(vec.Vec3{X: -1, Y: 64, Z: 0}))
}

func TestMaxBranchCountsAcceptedNeighbours(t *testing.T) {
	origin := vec.Vec3{X: 0, Y: 64, Z: 0}
	// вниз и вверх запрещены: лимит должен достаться следующим по порядку
	noVertical := func(from, to vec.Vec3) bool { return to.Y == from.Y }
	bfs := New(noVertical, &recorder{}, WithMaxBranch(2), WithMaxDepth(1))
	bfs.Visit(origin)
	require.NoError(t, bfs.Run(context.Background()))

	visited := bfs.Visited()
	assert.Equal(t, 3, visited.Len())
	assert.True(t, visited.Contains(vec.Vec3{X: -1, Y: 64, Z: 0}))
	assert.True(t, visited.Contains(vec.Vec3{X: 1, Y: 64, Z: 0}))
}

func TestHeightBounds(t *testing.T) {
	fn := &recorder{}
	bounds := extent.HeightBounds{MinY: 0, MaxY: 2}
	bfs := New(openSpace, fn, WithHeightBounds(bounds), WithMaxDepth(4))
	bfs.Visit(vec.Vec3{Y: 0})
	require.NoError(t, bfs.Run(context.Background()))

	for pos := range bfs.Visited() {
		assert.True(t, bounds.Contains(pos.Y), "позиция %v вне границ", pos)
	}
}

func TestVisitInitialisesPredicate(t *testing.T) {
	origin := vec.Vec3{X: 1, Y: 1, Z: 1}
	var calls [][2]vec.Vec3
	pred := func(from, to vec.Vec3) bool {
		calls = append(calls, [2]vec.Vec3{from, to})
		return false
	}
	bfs := New(pred, &recorder{})
	bfs.Visit(origin)
	bfs.Visit(origin)
	require.Len(t, calls, 1, "повторный Visit не вызывает предикат")
	assert.Equal(t, [2]vec.Vec3{origin, origin}, calls[0])
}

func TestCancelBetweenLevels(t *testing.T) {
	var bfs *BreadthFirstSearch
	fn := extent.RegionFunctionFunc(func(pos vec.Vec3) (bool, error) {
		if pos == (vec.Vec3{Y: 64}) {
			bfs.Cancel()
		}
		return true, nil
	})
	bfs = New(openSpace, fn)
	bfs.Visit(vec.Vec3{Y: 64})
	require.NoError(t, bfs.Run(context.Background()))

	assert.Equal(t, StateCancelled, bfs.State())
	assert.Equal(t, 1, bfs.Affected(), "изменения уровня до отмены сохраняются")
	assert.Equal(t, 7, bfs.Visited().Len(), "первый уровень успел расшириться")
}

func TestRunContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	bfs := New(openSpace, &recorder{})
	bfs.Visit(vec.Vec3{Y: 64})
	err := bfs.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateCancelled, bfs.State())
}

func TestFailurePropagation(t *testing.T) {
	blocked := vec.Vec3{X: 0, Y: 65, Z: 0}
	var applied []vec.Vec3
	fn := extent.RegionFunctionFunc(func(pos vec.Vec3) (bool, error) {
		if pos == blocked {
			return false, extent.ErrPlacementDenied
		}
		applied = append(applied, pos)
		return true, nil
	})
	bfs := New(openSpace, fn)
	bfs.Visit(vec.Vec3{Y: 64})
	err := bfs.Run(context.Background())

	require.Error(t, err)
	assert.True(t, errors.Is(err, extent.ErrPlacementDenied))
	assert.Equal(t, StateFailed, bfs.State())
	// уровень 1: вниз применён, вверх отклонён, остальные не обработаны
	assert.Equal(t, []vec.Vec3{{Y: 64}, {Y: 63}}, applied)
	assert.Equal(t, 2, bfs.Affected())

	done, err := bfs.Step()
	assert.True(t, done)
	assert.ErrorIs(t, err, extent.ErrPlacementDenied, "завершённый обход возвращает ту же ошибку")
}

func TestPrefetchDoesNotChangeResult(t *testing.T) {
	min, max := vec.Vec3{X: -20, Y: 60, Z: -20}, vec.Vec3{X: 20, Y: 62, Z: 20}
	run := func(opts ...Option) *BreadthFirstSearch {
		bfs := New(inCube(min, max), &recorder{changed: true}, opts...)
		bfs.Visit(vec.Vec3{Y: 61})
		require.NoError(t, bfs.Run(context.Background()))
		return bfs
	}

	plain := run()
	sink := &prefetchRecorder{}
	prefetched := run(WithPrefetcher(sink))

	assert.Equal(t, plain.Visited(), prefetched.Visited())
	assert.Equal(t, plain.Affected(), prefetched.Affected())
	assert.Equal(t, plain.Depth(), prefetched.Depth())
	assert.NotEmpty(t, sink.requests)
	assert.Contains(t, sink.requests, vec.Vec2{X: -2, Y: -2}, "дальний угол кубоида лежит в чанке (-2,-2)")
}

func TestStepIsResumable(t *testing.T) {
	bfs := New(inCube(vec.Vec3{Y: 0}, vec.Vec3{X: 10, Y: 0}), &recorder{})
	bfs.Visit(vec.Vec3{})
	assert.Equal(t, StateSeeded, bfs.State())

	done, err := bfs.Step()
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, StateRunning, bfs.State())
	assert.Equal(t, 1, bfs.Depth())

	for !done {
		done, err = bfs.Step()
		require.NoError(t, err)
	}
	assert.Equal(t, 11, bfs.Visited().Len())
	assert.Equal(t, 10, bfs.Depth())
}

func TestWithVisitedSkipsKnownPositions(t *testing.T) {
	first := New(inCube(vec.Vec3{}, vec.Vec3{X: 3}), &recorder{})
	first.Visit(vec.Vec3{})
	require.NoError(t, first.Run(context.Background()))

	fn := &recorder{}
	second := New(inCube(vec.Vec3{}, vec.Vec3{X: 6}), fn, WithVisited(first.Visited()))
	second.Visit(vec.Vec3{X: 4})
	require.NoError(t, second.Run(context.Background()))
	assert.Len(t, fn.applied, 3, "позиции 0..3 уже посещены первым обходом")
}

func TestRecursiveVisitorWithIDMask(t *testing.T) {
	reg := block.Default()
	ext := extent.NewMemoryExtent()
	logState := reg.MustState("log", nil)
	ext.Fill(vec.Vec3{Y: 1}, vec.Vec3{Y: 4}, logState)
	ext.SetBlock(vec.Vec3{Y: 5}, reg.MustState("leaves", nil))

	fn := &recorder{}
	bfs := NewRecursive(mask.NewIDMask(ext), fn)
	bfs.Visit(vec.Vec3{Y: 2})
	require.NoError(t, bfs.Run(context.Background()))
	assert.Equal(t, 4, bfs.Visited().Len(), "обходятся только брёвна, тип которых запомнен на старте")
}

func TestDownwardVisitor(t *testing.T) {
	open := mask.AlwaysTrue{}
	bfs := NewDownward(open, &recorder{}, 5, WithMaxDepth(3))
	bfs.Visit(vec.Vec3{Y: 5})
	require.NoError(t, bfs.Run(context.Background()))
	for pos := range bfs.Visited() {
		assert.LessOrEqual(t, pos.Y, 6, "подъём возможен только с базового уровня")
	}
	assert.True(t, bfs.Visited().Contains(vec.Vec3{Y: 6}))
	assert.False(t, bfs.Visited().Contains(vec.Vec3{Y: 7}))
	assert.True(t, bfs.Visited().Contains(vec.Vec3{Y: 2}))
}

func TestWithinRange(t *testing.T) {
	origin := vec.Vec3{Y: 64}
	bfs := New(WithinRange(openSpace, origin, 4), &recorder{})
	bfs.Visit(origin)
	require.NoError(t, bfs.Run(context.Background()))
	for pos := range bfs.Visited() {
		assert.LessOrEqual(t, pos.DistanceSq(origin), 4)
	}
	assert.True(t, bfs.Visited().Contains(vec.Vec3{X: 2, Y: 64}))
}
