// Package visitor реализует обход мира в ширину по уровням глубины
// с подключаемым предикатом посещаемости.
package visitor

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/annel0/voxedit/internal/extent"
	"github.com/annel0/voxedit/internal/logging"
	"github.com/annel0/voxedit/internal/observability"
	"github.com/annel0/voxedit/internal/vec"
)

// Unbounded - отсутствие ограничения глубины или ветвления.
const Unbounded = -1

// Predicate решает, можно ли перейти из from в соседнюю позицию to.
// Для стартовой позиции вызывается один раз с from == to, результат игнорируется:
// это даёт предикату возможность инициализироваться (например, запомнить тип блока).
type Predicate func(from, to vec.Vec3) bool

// State - состояние обхода
type State int

const (
	StateSeeded State = iota
	StateRunning
	StateCompleted
	StateCancelled
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateSeeded:
		return "seeded"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal сообщает, что обход завершён и больше не продвинется
func (s State) Terminal() bool {
	return s >= StateCompleted
}

// DefaultDirections - шесть осевых соседей: вниз, вверх, -x, +x, -z, +z.
var DefaultDirections = []vec.Vec3{
	{X: 0, Y: -1, Z: 0},
	{X: 0, Y: 1, Z: 0},
	{X: -1, Y: 0, Z: 0},
	{X: 1, Y: 0, Z: 0},
	{X: 0, Y: 0, Z: -1},
	{X: 0, Y: 0, Z: 1},
}

// DiagonalDirections - все 26 соседей, ближние раньше дальних.
var DiagonalDirections = diagonalDirections()

func diagonalDirections() []vec.Vec3 {
	dirs := make([]vec.Vec3, 0, 26)
	for x := -1; x <= 1; x++ {
		for y := -1; y <= 1; y++ {
			for z := -1; z <= 1; z++ {
				if x != 0 || y != 0 || z != 0 {
					dirs = append(dirs, vec.Vec3{X: x, Y: y, Z: z})
				}
			}
		}
	}
	sort.SliceStable(dirs, func(i, j int) bool {
		return dirs[i].LengthSq() < dirs[j].LengthSq()
	})
	return dirs
}

// BreadthFirstSearch - одноразовый обход в ширину. Каждая посещённая позиция
// передаётся функции региона; соседи проверяются предикатом.
// Не безопасен для параллельного использования, кроме Cancel.
type BreadthFirstSearch struct {
	predicate  Predicate
	function   extent.RegionFunction
	directions []vec.Vec3
	maxDepth   int
	maxBranch  int
	bounds     extent.HeightBounds
	prefetcher extent.ChunkPrefetcher

	visited  vec.Set
	queue    []vec.Vec3
	depth    int
	affected int
	state    State
	err      error

	cancelled atomic.Bool
	logger    *logging.Logger
}

// Option настраивает обход
type Option func(*BreadthFirstSearch)

// WithDirections задаёт набор направлений; порядок влияет на ограничение ветвления.
func WithDirections(dirs []vec.Vec3) Option {
	return func(b *BreadthFirstSearch) {
		b.directions = append([]vec.Vec3(nil), dirs...)
	}
}

// WithMaxDepth ограничивает глубину: уровень maxDepth обрабатывается, но не расширяется.
func WithMaxDepth(maxDepth int) Option {
	return func(b *BreadthFirstSearch) {
		b.maxDepth = maxDepth
	}
}

// WithMaxBranch ограничивает число новых соседей, которых добавляет одна позиция.
func WithMaxBranch(maxBranch int) Option {
	return func(b *BreadthFirstSearch) {
		b.maxBranch = maxBranch
	}
}

// WithHeightBounds задаёт вертикальные границы мира
func WithHeightBounds(bounds extent.HeightBounds) Option {
	return func(b *BreadthFirstSearch) {
		b.bounds = bounds
	}
}

// WithPrefetcher включает упреждающую подгрузку чанков следующего уровня
func WithPrefetcher(p extent.ChunkPrefetcher) Option {
	return func(b *BreadthFirstSearch) {
		b.prefetcher = p
	}
}

// WithVisited продолжает обход с уже посещённым множеством (например, из предыдущего обхода).
func WithVisited(visited vec.Set) Option {
	return func(b *BreadthFirstSearch) {
		if visited != nil {
			b.visited = visited
		}
	}
}

// New создаёт обход
func New(predicate Predicate, function extent.RegionFunction, opts ...Option) *BreadthFirstSearch {
	b := &BreadthFirstSearch{
		predicate:  predicate,
		function:   function,
		directions: DefaultDirections,
		maxDepth:   Unbounded,
		maxBranch:  Unbounded,
		bounds:     extent.DefaultHeightBounds(),
		visited:    vec.NewSet(64),
		logger:     logging.GetVisitorLogger(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Visit добавляет стартовую позицию. Повторный вызов с той же позицией ничего не делает.
func (b *BreadthFirstSearch) Visit(pos vec.Vec3) {
	if b.visited.Contains(pos) {
		return
	}
	b.predicate(pos, pos)
	b.visited.Add(pos)
	b.queue = append(b.queue, pos)
}

// Cancel просит остановить обход. Флаг проверяется между уровнями глубины.
func (b *BreadthFirstSearch) Cancel() {
	b.cancelled.Store(true)
}

// Run выполняет обход до исчерпания фронта, предела глубины, отмены или ошибки.
// Отмена контекста проверяется между уровнями и приводит к StateCancelled.
func (b *BreadthFirstSearch) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			if !b.state.Terminal() {
				b.finish(StateCancelled)
			}
			return err
		}
		done, err := b.Step()
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

// Step обрабатывает один уровень глубины. Возвращает true, когда обход завершён.
func (b *BreadthFirstSearch) Step() (bool, error) {
	if b.state.Terminal() {
		return true, b.err
	}
	if b.cancelled.Load() {
		b.finish(StateCancelled)
		return true, nil
	}
	if len(b.queue) == 0 {
		b.finish(StateCompleted)
		return true, nil
	}
	b.state = StateRunning

	if b.prefetcher != nil {
		b.prefetch()
	}

	for _, pos := range b.queue {
		changed, err := b.function.Apply(pos)
		if err != nil {
			b.err = fmt.Errorf("visitor: depth %d at %v: %w", b.depth, pos, err)
			b.finish(StateFailed)
			return true, b.err
		}
		if changed {
			b.affected++
		}
	}

	if b.maxDepth != Unbounded && b.depth >= b.maxDepth {
		b.finish(StateCompleted)
		return true, nil
	}

	next := make([]vec.Vec3, 0, len(b.queue))
	for _, from := range b.queue {
		accepted := 0
		for _, dir := range b.directions {
			if b.maxBranch != Unbounded && accepted >= b.maxBranch {
				break
			}
			to := from.Add(dir)
			if !b.bounds.Contains(to.Y) || b.visited.Contains(to) {
				continue
			}
			if !b.predicate(from, to) {
				continue
			}
			b.visited.Add(to)
			next = append(next, to)
			accepted++
		}
	}

	b.queue = next
	if len(next) == 0 {
		b.finish(StateCompleted)
		return true, nil
	}
	b.depth++
	return false, nil
}

// prefetch запрашивает чанки, содержащие ещё не посещённых соседей текущего фронта.
func (b *BreadthFirstSearch) prefetch() {
	seen := make(map[vec.Vec2]struct{})
	for _, from := range b.queue {
		for _, dir := range b.directions {
			to := from.Add(dir)
			if !b.bounds.Contains(to.Y) || b.visited.Contains(to) {
				continue
			}
			chunk := to.ChunkCoords()
			if _, ok := seen[chunk]; ok {
				continue
			}
			seen[chunk] = struct{}{}
			b.prefetcher.RequestLoad(chunk)
		}
	}
}

func (b *BreadthFirstSearch) finish(state State) {
	b.state = state
	b.queue = nil
	observability.TraversalsTotal.WithLabelValues(state.String()).Inc()
	observability.TraversalVisited.Add(float64(b.visited.Len()))
	observability.TraversalAffected.Add(float64(b.affected))
	observability.TraversalDepth.Observe(float64(b.depth))
	b.logger.Debug("обход завершён: state=%s depth=%d visited=%d affected=%d",
		state, b.depth, b.visited.Len(), b.affected)
}

// Depth возвращает номер последнего обработанного уровня
func (b *BreadthFirstSearch) Depth() int {
	return b.depth
}

// Affected возвращает число позиций, для которых функция сообщила об изменении
func (b *BreadthFirstSearch) Affected() int {
	return b.affected
}

// Visited возвращает множество посещённых позиций. Вызывающий может забрать его
// себе, например, чтобы передать в следующий обход через WithVisited.
func (b *BreadthFirstSearch) Visited() vec.Set {
	return b.visited
}

// State возвращает текущее состояние обхода
func (b *BreadthFirstSearch) State() State {
	return b.state
}

// Err возвращает ошибку, остановившую обход
func (b *BreadthFirstSearch) Err() error {
	return b.err
}
