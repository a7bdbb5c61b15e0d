// Package world - чанковый мир в памяти, реализующий extent.Extent.
package world

import (
	"fmt"
	"sort"
	"sync"

	"github.com/annel0/voxedit/internal/extent"
	"github.com/annel0/voxedit/internal/logging"
	"github.com/annel0/voxedit/internal/observability"
	"github.com/annel0/voxedit/internal/storage"
	"github.com/annel0/voxedit/internal/vec"
	"github.com/annel0/voxedit/internal/world/block"
)

// ChunkStore - постоянное хранилище снимков чанков (storage.WorldStorage).
type ChunkStore interface {
	LoadChunk(coords vec.Vec2) (*storage.ChunkData, bool, error)
	SaveChunk(data *storage.ChunkData) error
}

// Region - защищённый кубоид [Min, Max] включительно.
type Region struct {
	Min vec.Vec3
	Max vec.Vec3
}

// Contains проверяет, что позиция лежит в регионе
func (r Region) Contains(pos vec.Vec3) bool {
	return pos.X >= r.Min.X && pos.X <= r.Max.X &&
		pos.Y >= r.Min.Y && pos.Y <= r.Max.Y &&
		pos.Z >= r.Min.Z && pos.Z <= r.Max.Z
}

// Option настраивает World
type Option func(*World)

// WithStore подключает хранилище чанков
func WithStore(store ChunkStore) Option {
	return func(w *World) { w.store = store }
}

// WithGenerator включает генерацию отсутствующих чанков
func WithGenerator(g *Generator) Option {
	return func(w *World) { w.generator = g }
}

// World хранит загруженные чанки и раздаёт блоки по мировым координатам
type World struct {
	registry  *block.Registry
	bounds    extent.HeightBounds
	store     ChunkStore
	generator *Generator

	mu        sync.RWMutex
	chunks    map[vec.Vec2]*Chunk
	protected []Region

	logger *logging.Logger
}

var _ extent.Extent = (*World)(nil)

// New создаёт пустой мир
func New(registry *block.Registry, bounds extent.HeightBounds, opts ...Option) *World {
	w := &World{
		registry: registry,
		bounds:   bounds,
		chunks:   make(map[vec.Vec2]*Chunk),
		logger:   logging.GetWorldLogger(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Registry возвращает реестр типов блоков мира
func (w *World) Registry() *block.Registry {
	return w.registry
}

// Bounds возвращает вертикальные границы мира
func (w *World) Bounds() extent.HeightBounds {
	return w.bounds
}

// Protect добавляет защищённый регион: запись в него отклоняется.
func (w *World) Protect(r Region) {
	w.mu.Lock()
	w.protected = append(w.protected, r)
	w.mu.Unlock()
}

func (w *World) isProtected(pos vec.Vec3) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	for _, r := range w.protected {
		if r.Contains(pos) {
			return true
		}
	}
	return false
}

// IsLoaded сообщает, загружен ли чанк
func (w *World) IsLoaded(coords vec.Vec2) bool {
	w.mu.RLock()
	_, ok := w.chunks[coords]
	w.mu.RUnlock()
	return ok
}

// LoadedChunks возвращает число загруженных чанков
func (w *World) LoadedChunks() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.chunks)
}

// LoadChunk возвращает чанк, загружая его при необходимости:
// сначала из хранилища, затем генератором, иначе пустой.
func (w *World) LoadChunk(coords vec.Vec2) (*Chunk, error) {
	w.mu.RLock()
	chunk, ok := w.chunks[coords]
	w.mu.RUnlock()
	if ok {
		return chunk, nil
	}

	chunk, source, err := w.readChunk(coords)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	// Чанк мог быть загружен параллельно
	if existing, ok := w.chunks[coords]; ok {
		return existing, nil
	}
	w.chunks[coords] = chunk
	observability.ChunkLoads.WithLabelValues(source).Inc()
	w.logger.Trace("чанк %v загружен (%s)", coords, source)
	return chunk, nil
}

func (w *World) readChunk(coords vec.Vec2) (*Chunk, string, error) {
	if w.store != nil {
		data, found, err := w.store.LoadChunk(coords)
		if err != nil {
			return nil, "", fmt.Errorf("загрузка чанка %v: %w", coords, err)
		}
		if found {
			chunk, err := ChunkFromData(data, w.bounds)
			if err != nil {
				return nil, "", err
			}
			return chunk, "store", nil
		}
	}
	if w.generator != nil {
		return w.generator.GenerateChunk(coords, w.bounds), "generated", nil
	}
	return NewChunk(coords, w.bounds), "empty", nil
}

// Unload выгружает чанк без сохранения
func (w *World) Unload(coords vec.Vec2) {
	w.mu.Lock()
	delete(w.chunks, coords)
	w.mu.Unlock()
}

// Invalidate выгружает чанк, если в нём нет несохранённых изменений.
// Следующее обращение перечитает его из хранилища.
func (w *World) Invalidate(coords vec.Vec2) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	chunk, ok := w.chunks[coords]
	if !ok || chunk.Dirty() {
		return false
	}
	delete(w.chunks, coords)
	return true
}

// GetBlock возвращает блок в мировой позиции. Вне вертикальных границ и при
// ошибке загрузки чанка возвращается air.
func (w *World) GetBlock(pos vec.Vec3) block.State {
	if !w.bounds.Contains(pos.Y) {
		return w.registry.Air()
	}
	chunk, err := w.LoadChunk(pos.ChunkCoords())
	if err != nil {
		w.logger.Warn("чтение %v: %v", pos, err)
		return w.registry.Air()
	}
	x, z := vec.LocalInChunk(pos)
	return chunk.GetBlock(x, pos.Y, z)
}

// SetBlock записывает блок. Запись вне вертикальных границ и в защищённые
// регионы отклоняется с ErrPlacementDenied.
func (w *World) SetBlock(pos vec.Vec3, state block.State) (bool, error) {
	if !w.bounds.Contains(pos.Y) {
		return false, fmt.Errorf("%w: высота %d вне [%d, %d)", extent.ErrPlacementDenied, pos.Y, w.bounds.MinY, w.bounds.MaxY)
	}
	if w.isProtected(pos) {
		return false, fmt.Errorf("%w: %v в защищённом регионе", extent.ErrPlacementDenied, pos)
	}
	chunk, err := w.LoadChunk(pos.ChunkCoords())
	if err != nil {
		return false, err
	}
	x, z := vec.LocalInChunk(pos)
	return chunk.SetBlock(x, pos.Y, z, state), nil
}

// DirtyChunks возвращает координаты чанков с несохранёнными изменениями
func (w *World) DirtyChunks() []vec.Vec2 {
	w.mu.RLock()
	var out []vec.Vec2
	for coords, chunk := range w.chunks {
		if chunk.Dirty() {
			out = append(out, coords)
		}
	}
	w.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].X != out[j].X {
			return out[i].X < out[j].X
		}
		return out[i].Y < out[j].Y
	})
	return out
}

// Save сохраняет указанные чанки в хранилище. Без хранилища ничего не делает.
func (w *World) Save(coords ...vec.Vec2) (int, error) {
	if w.store == nil {
		return 0, nil
	}
	saved := 0
	for _, c := range coords {
		w.mu.RLock()
		chunk, ok := w.chunks[c]
		w.mu.RUnlock()
		if !ok {
			continue
		}
		if err := w.store.SaveChunk(chunk.Snapshot()); err != nil {
			return saved, fmt.Errorf("сохранение чанка %v: %w", c, err)
		}
		saved++
	}
	return saved, nil
}

// SaveDirty сохраняет все изменённые чанки
func (w *World) SaveDirty() (int, error) {
	return w.Save(w.DirtyChunks()...)
}
