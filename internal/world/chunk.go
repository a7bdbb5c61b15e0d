package world

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/annel0/voxedit/internal/extent"
	"github.com/annel0/voxedit/internal/storage"
	"github.com/annel0/voxedit/internal/vec"
	"github.com/annel0/voxedit/internal/world/block"
)

// ChunkSize - размер чанка по X и Z.
const ChunkSize = 16

// Chunk представляет столбец мира 16×16×Height.
// Клетки хранятся упакованными (block.State.Packed), метаданные отдельно.
type Chunk struct {
	Coords vec.Vec2 // Координаты чанка в мире

	bounds  extent.HeightBounds
	cells   []uint64
	payload map[int]map[string]interface{}

	dirty         bool
	ChangeCounter int          // Счетчик изменений
	Mu            sync.RWMutex // Мьютекс для безопасного доступа
}

// NewChunk создаёт пустой (заполненный air) чанк
func NewChunk(coords vec.Vec2, bounds extent.HeightBounds) *Chunk {
	return &Chunk{
		Coords:  coords,
		bounds:  bounds,
		cells:   make([]uint64, ChunkSize*ChunkSize*bounds.Height()),
		payload: make(map[int]map[string]interface{}),
	}
}

// index переводит локальные x/z и мировую y в индекс клетки
func (c *Chunk) index(x, y, z int) (int, bool) {
	if !c.bounds.Contains(y) {
		return 0, false
	}
	return ((y-c.bounds.MinY)*ChunkSize+z)*ChunkSize + x, true
}

// GetBlock возвращает блок по локальным координатам x/z и мировой y.
// Вне вертикальных границ возвращается air.
func (c *Chunk) GetBlock(x, y, z int) block.State {
	c.Mu.RLock()
	defer c.Mu.RUnlock()

	i, ok := c.index(x, y, z)
	if !ok {
		return block.State{}
	}
	s := block.Unpack(c.cells[i])
	if p, has := c.payload[i]; has {
		s.Payload = p
	}
	return s.Clone()
}

// SetBlock записывает блок и возвращает true, если клетка изменилась.
func (c *Chunk) SetBlock(x, y, z int, s block.State) bool {
	c.Mu.Lock()
	defer c.Mu.Unlock()

	i, ok := c.index(x, y, z)
	if !ok {
		return false
	}
	packed := s.Packed()
	old := c.payload[i]
	if c.cells[i] == packed && samePayload(old, s.Payload) {
		return false
	}

	c.cells[i] = packed
	if len(s.Payload) == 0 {
		delete(c.payload, i)
	} else {
		c.payload[i] = s.Clone().Payload
	}
	c.dirty = true
	c.ChangeCounter++
	return true
}

func samePayload(a, b map[string]interface{}) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	return reflect.DeepEqual(a, b)
}

// Dirty сообщает, есть ли несохранённые изменения
func (c *Chunk) Dirty() bool {
	c.Mu.RLock()
	defer c.Mu.RUnlock()
	return c.dirty
}

// Snapshot копирует содержимое чанка для сохранения и снимает флаг изменений.
func (c *Chunk) Snapshot() *storage.ChunkData {
	c.Mu.Lock()
	defer c.Mu.Unlock()

	data := &storage.ChunkData{
		Coords: c.Coords,
		MinY:   c.bounds.MinY,
		Height: c.bounds.Height(),
		Cells:  append([]uint64(nil), c.cells...),
	}
	if len(c.payload) > 0 {
		data.Payload = make(map[int]map[string]interface{}, len(c.payload))
		for i, p := range c.payload {
			data.Payload[i] = block.State{Payload: p}.Clone().Payload
		}
	}
	c.dirty = false
	return data
}

// ChunkFromData восстанавливает чанк из снимка. Если снимок сделан с другими
// вертикальными границами, переносится только общая часть.
func ChunkFromData(data *storage.ChunkData, bounds extent.HeightBounds) (*Chunk, error) {
	if data.Height < 0 || len(data.Cells) != ChunkSize*ChunkSize*data.Height {
		return nil, fmt.Errorf("чанк %v: %d клеток при высоте %d", data.Coords, len(data.Cells), data.Height)
	}

	c := NewChunk(data.Coords, bounds)
	const layer = ChunkSize * ChunkSize
	for y := data.MinY; y < data.MinY+data.Height; y++ {
		dst, ok := c.index(0, y, 0)
		if !ok {
			continue
		}
		src := (y - data.MinY) * layer
		copy(c.cells[dst:dst+layer], data.Cells[src:src+layer])
		for off := 0; off < layer; off++ {
			if p, has := data.Payload[src+off]; has && len(p) > 0 {
				c.payload[dst+off] = p
			}
		}
	}
	return c, nil
}
