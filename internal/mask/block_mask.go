package mask

import (
	"math/bits"

	"github.com/annel0/voxedit/internal/extent"
	"github.com/annel0/voxedit/internal/vec"
	"github.com/annel0/voxedit/internal/world/block"
)

// all - общий маркер «все состояния типа». Отличается от nil (ни одного) тем,
// что не равен nil и имеет нулевую длину. Никогда не изменяется.
var all = make([]uint64, 0)

func isAll(v []uint64) bool {
	return v != nil && len(v) == 0
}

// BlockMask хранит для каждого типа блока одно из трёх: nil (ни одного состояния),
// маркер all (все состояния) или битовый вектор длины 2^Bits, где бит j означает,
// что совпадает состояние с упакованным индексом j.
//
// And, Or и Inverse изменяют получателя и возвращают его же. Чтобы сохранить
// операнд, его нужно предварительно скопировать через Clone.
type BlockMask struct {
	extent   extent.Extent
	registry *block.Registry
	bits     [][]uint64
}

// NewBlockMask создаёт пустую маску (ни один тип не совпадает).
func NewBlockMask(ext extent.Extent, registry *block.Registry) *BlockMask {
	return &BlockMask{
		extent:   ext,
		registry: registry,
		bits:     make([][]uint64, registry.Len()),
	}
}

// Registry возвращает реестр, над которым построена маска
func (m *BlockMask) Registry() *block.Registry {
	return m.registry
}

// Test проверяет блок в позиции
func (m *BlockMask) Test(pos vec.Vec3) bool {
	return m.TestState(m.extent.GetBlock(pos))
}

// TestState проверяет состояние блока
func (m *BlockMask) TestState(state block.State) bool {
	if int(state.Type) >= len(m.bits) {
		return false
	}
	v := m.bits[state.Type]
	if v == nil {
		return false
	}
	if len(v) == 0 {
		return true
	}
	word := int(state.Index >> 6)
	if word >= len(v) {
		return false
	}
	return v[word]&(1<<(state.Index&63)) != 0
}

// IsNone сообщает, что ни одно состояние типа не совпадает
func (m *BlockMask) IsNone(t block.TypeID) bool {
	return m.bits[t] == nil
}

// IsAll сообщает, что совпадают все состояния типа
func (m *BlockMask) IsAll(t block.TypeID) bool {
	return isAll(m.bits[t])
}

// Clone возвращает независимую копию маски.
func (m *BlockMask) Clone() *BlockMask {
	out := &BlockMask{extent: m.extent, registry: m.registry, bits: make([][]uint64, len(m.bits))}
	for i, v := range m.bits {
		out.bits[i] = cloneVector(v)
	}
	return out
}

func cloneVector(v []uint64) []uint64 {
	if v == nil || isAll(v) {
		return v
	}
	return append([]uint64(nil), v...)
}

// WithExtent возвращает копию маски, проверяющую блоки другого extent.
func (m *BlockMask) WithExtent(ext extent.Extent) *BlockMask {
	out := m.Clone()
	out.extent = ext
	return out
}

// And пересекает маски по типам. Получатель изменяется и возвращается.
func (m *BlockMask) And(other *BlockMask) *BlockMask {
	for i, a := range m.bits {
		var b []uint64
		if i < len(other.bits) {
			b = other.bits[i]
		}
		switch {
		case a == nil:
		case b == nil:
			m.bits[i] = nil
		case isAll(b):
		case isAll(a):
			m.bits[i] = cloneVector(b)
		default:
			for w := range a {
				a[w] &= b[w]
			}
			m.normalize(block.TypeID(i))
		}
	}
	return m
}

// Or объединяет маски по типам. Получатель изменяется и возвращается.
func (m *BlockMask) Or(other *BlockMask) *BlockMask {
	for i, a := range m.bits {
		var b []uint64
		if i < len(other.bits) {
			b = other.bits[i]
		}
		switch {
		case isAll(a):
		case b == nil:
		case isAll(b):
			m.bits[i] = all
		case a == nil:
			m.bits[i] = cloneVector(b)
		default:
			for w := range a {
				a[w] |= b[w]
			}
			m.normalize(block.TypeID(i))
		}
	}
	return m
}

// Inverse дополняет маску: none и all меняются местами, явные векторы
// дополняются в пределах допустимых состояний. Получатель изменяется и возвращается.
func (m *BlockMask) Inverse() *BlockMask {
	for i, v := range m.bits {
		switch {
		case v == nil:
			m.bits[i] = all
		case isAll(v):
			m.bits[i] = nil
		default:
			valid := m.registry.MustType(block.TypeID(i)).ValidStates()
			for w := range v {
				v[w] = ^v[w] & valid[w]
			}
			m.normalize(block.TypeID(i))
		}
	}
	return m
}

// normalize сворачивает явный вектор в nil или all, если он пуст или полон.
// Благодаря этому тип без свойств никогда не хранит явный вектор.
func (m *BlockMask) normalize(t block.TypeID) {
	v := m.bits[t]
	if v == nil || isAll(v) {
		return
	}
	valid := m.registry.MustType(t).ValidStates()
	empty, full := true, true
	for w := range v {
		if v[w] != 0 {
			empty = false
		}
		if v[w]&valid[w] != valid[w] {
			full = false
		}
	}
	switch {
	case empty:
		m.bits[t] = nil
	case full:
		m.bits[t] = all
	}
}

// explicit возвращает вектор типа, раскрывая all в полный вектор допустимых состояний.
// Результат принадлежит маске.
func (m *BlockMask) explicit(t block.TypeID) []uint64 {
	v := m.bits[t]
	switch {
	case v == nil:
		v = make([]uint64, len(m.registry.MustType(t).ValidStates()))
		m.bits[t] = v
	case isAll(v):
		v = append([]uint64(nil), m.registry.MustType(t).ValidStates()...)
		m.bits[t] = v
	}
	return v
}

func (m *BlockMask) setType(t block.TypeID, matches bool) {
	if matches {
		m.bits[t] = all
	} else {
		m.bits[t] = nil
	}
}

func (m *BlockMask) setState(state block.State, matches bool) {
	typ, ok := m.registry.Type(state.Type)
	if !ok || !typ.IsValidState(state.Index) {
		return
	}
	if matches && isAll(m.bits[state.Type]) || !matches && m.bits[state.Type] == nil {
		return
	}
	v := m.explicit(state.Type)
	if matches {
		v[state.Index>>6] |= 1 << (state.Index & 63)
	} else {
		v[state.Index>>6] &^= 1 << (state.Index & 63)
	}
	m.normalize(state.Type)
}

// count возвращает количество совпадающих допустимых состояний типа
func (m *BlockMask) count(t block.TypeID) int {
	v := m.bits[t]
	if v == nil {
		return 0
	}
	if isAll(v) {
		v = m.registry.MustType(t).ValidStates()
	}
	n := 0
	for _, w := range v {
		n += bits.OnesCount64(w)
	}
	return n
}
