package extent

import (
	"errors"
	"fmt"

	"github.com/annel0/voxedit/internal/vec"
	"github.com/annel0/voxedit/internal/world/block"
)

var (
	// ErrOutOfBlocks - в сумке нет нужного блока.
	ErrOutOfBlocks = errors.New("out of blocks")
	// ErrUnplaceable - блок не может быть выдан из сумки в принципе.
	ErrUnplaceable = errors.New("unplaceable block")
)

// BlockBag - источник и приёмник блоков для режима выживания.
type BlockBag interface {
	FetchPlacedBlock(state block.State) error
	StoreDroppedBlock(state block.State) error
}

// BlockBagExtent списывает блоки из сумки при установке и, в режиме добычи,
// складывает в неё разрушенные блоки.
type BlockBagExtent struct {
	Extent
	bag      BlockBag
	registry *block.Registry
	mine     bool
	missing  map[block.TypeID]int
}

// NewBlockBagExtent оборачивает extent
func NewBlockBagExtent(ext Extent, registry *block.Registry, bag BlockBag, mine bool) *BlockBagExtent {
	return &BlockBagExtent{
		Extent:   ext,
		bag:      bag,
		registry: registry,
		mine:     mine,
		missing:  make(map[block.TypeID]int),
	}
}

// SetBlock списывает блок из сумки и передаёт запись дальше.
func (e *BlockBagExtent) SetBlock(pos vec.Vec3, state block.State) (bool, error) {
	if !e.registry.IsAir(state) {
		if err := e.bag.FetchPlacedBlock(state); err != nil {
			if errors.Is(err, ErrOutOfBlocks) {
				e.missing[state.Type]++
			}
			return false, fmt.Errorf("block bag: %v: %w", err, ErrPlacementDenied)
		}
	}
	if e.mine {
		current := e.Extent.GetBlock(pos)
		if !e.registry.IsAir(current) {
			// место в сумке могло закончиться - блок просто теряется
			_ = e.bag.StoreDroppedBlock(block.State{Type: current.Type})
		}
	}
	return e.Extent.SetBlock(pos, state)
}

// PopMissing возвращает счётчики недостающих блоков по типам и сбрасывает их.
func (e *BlockBagExtent) PopMissing() map[block.TypeID]int {
	out := e.missing
	e.missing = make(map[block.TypeID]int)
	return out
}

// InventoryBag - простая сумка со счётчиками по типам блоков.
type InventoryBag struct {
	counts   map[block.TypeID]int
	capacity int
}

// NewInventoryBag создаёт сумку; capacity <= 0 - без ограничения.
func NewInventoryBag(capacity int) *InventoryBag {
	return &InventoryBag{counts: make(map[block.TypeID]int), capacity: capacity}
}

// Put добавляет n блоков типа
func (b *InventoryBag) Put(t block.TypeID, n int) {
	b.counts[t] += n
}

// Count возвращает количество блоков типа
func (b *InventoryBag) Count(t block.TypeID) int {
	return b.counts[t]
}

func (b *InventoryBag) total() int {
	n := 0
	for _, c := range b.counts {
		n += c
	}
	return n
}

// FetchPlacedBlock списывает один блок
func (b *InventoryBag) FetchPlacedBlock(state block.State) error {
	if b.counts[state.Type] <= 0 {
		return ErrOutOfBlocks
	}
	b.counts[state.Type]--
	return nil
}

// StoreDroppedBlock кладёт блок в сумку
func (b *InventoryBag) StoreDroppedBlock(state block.State) error {
	if b.capacity > 0 && b.total() >= b.capacity {
		return ErrOutOfBlocks
	}
	b.counts[state.Type]++
	return nil
}
