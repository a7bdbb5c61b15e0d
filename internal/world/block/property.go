package block

import (
	"math/bits"

	"github.com/annel0/voxedit/internal/vec"
)

// PropertyKind определяет, как интерпретируются значения свойства.
type PropertyKind uint8

const (
	KindEnum PropertyKind = iota
	KindBool
	KindInt
	// KindDirection - значения свойства являются именами направлений (north, up...).
	KindDirection
)

// String возвращает имя вида свойства
func (k PropertyKind) String() string {
	switch k {
	case KindEnum:
		return "enum"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindDirection:
		return "direction"
	default:
		return "unknown"
	}
}

// Property - свойство типа блока с конечным упорядоченным доменом.
// Индекс значения хранится в битовом поле [Offset, Offset+Bits) упакованного состояния.
type Property struct {
	Name   string
	Kind   PropertyKind
	Values []string
	Offset uint
	Bits   uint

	index      map[string]int
	directions []vec.Direction
}

func newProperty(name string, kind PropertyKind, values []string, offset uint) *Property {
	p := &Property{
		Name:   name,
		Kind:   kind,
		Values: append([]string(nil), values...),
		Offset: offset,
		Bits:   uint(bits.Len(uint(len(values) - 1))),
		index:  make(map[string]int, len(values)),
	}
	for i, v := range p.Values {
		p.index[v] = i
	}
	if kind == KindDirection {
		dirs := make([]vec.Direction, 0, len(values))
		for _, v := range values {
			d, ok := vec.ParseDirection(v)
			if !ok {
				// домен не читается как направления - поворачивать нечего
				dirs = nil
				break
			}
			dirs = append(dirs, d)
		}
		p.directions = dirs
	}
	return p
}

// Mask возвращает битовую маску поля свойства внутри состояния
func (p *Property) Mask() uint32 {
	return (uint32(1)<<p.Bits - 1) << p.Offset
}

// Index извлекает индекс значения свойства из упакованного состояния
func (p *Property) Index(state uint32) int {
	return int((state & p.Mask()) >> p.Offset)
}

// Modify возвращает состояние с заменённым индексом значения свойства
func (p *Property) Modify(state uint32, valueIndex int) uint32 {
	return state&^p.Mask() | uint32(valueIndex)<<p.Offset&p.Mask()
}

// ValueIndex возвращает индекс значения в домене
func (p *Property) ValueIndex(value string) (int, bool) {
	i, ok := p.index[value]
	return i, ok
}

// Directions возвращает направления домена или nil, если свойство не направленное
// либо его значения не удалось интерпретировать как направления.
func (p *Property) Directions() []vec.Direction {
	return p.directions
}

// IsDirectional сообщает, может ли свойство поворачиваться преобразованиями.
func (p *Property) IsDirectional() bool {
	return len(p.directions) > 0
}
