package mask

import (
	"github.com/annel0/voxedit/internal/extent"
	"github.com/annel0/voxedit/internal/world/block"
)

// Builder собирает BlockMask из типов, состояний и фильтров по свойствам.
// Запросы, которые нельзя выразить битовыми векторами (неизвестное свойство
// или значение), расширяются до всех состояний типа.
type Builder struct {
	mask *BlockMask
}

// NewBuilder создаёт построитель пустой маски
func NewBuilder(ext extent.Extent, registry *block.Registry) *Builder {
	return &Builder{mask: NewBlockMask(ext, registry)}
}

// AddAll добавляет все состояния всех типов
func (b *Builder) AddAll() *Builder {
	for i := range b.mask.bits {
		b.mask.bits[i] = all
	}
	return b
}

// AddType добавляет все состояния типа
func (b *Builder) AddType(t block.TypeID) *Builder {
	if int(t) < len(b.mask.bits) {
		b.mask.setType(t, true)
	}
	return b
}

// RemoveType исключает все состояния типа
func (b *Builder) RemoveType(t block.TypeID) *Builder {
	if int(t) < len(b.mask.bits) {
		b.mask.setType(t, false)
	}
	return b
}

// AddState добавляет одно состояние
func (b *Builder) AddState(state block.State) *Builder {
	b.mask.setState(state, true)
	return b
}

// RemoveState исключает одно состояние
func (b *Builder) RemoveState(state block.State) *Builder {
	b.mask.setState(state, false)
	return b
}

// AddPattern добавляет состояния типа, у которых каждое перечисленное свойство
// принимает одно из указанных значений. Неперечисленные свойства свободны.
func (b *Builder) AddPattern(t block.TypeID, filter map[string][]string) *Builder {
	typ, ok := b.mask.registry.Type(t)
	if !ok {
		return b
	}
	if len(filter) == 0 {
		return b.AddType(t)
	}
	allowed, ok := allowedValues(typ, filter)
	if !ok {
		return b.AddType(t)
	}
	if isAll(b.mask.bits[t]) {
		return b
	}
	v := b.mask.explicit(t)
	for j := 0; j < typ.StateCount(); j++ {
		if typ.IsValidState(uint32(j)) && matchesAllowed(typ, uint32(j), allowed) {
			v[j>>6] |= 1 << uint(j&63)
		}
	}
	b.mask.normalize(t)
	return b
}

// Filter оставляет у каждого типа, имеющего свойство prop, только состояния
// со значением из values. Типы без этого свойства не меняются. Если ни одно
// из значений не входит в домен свойства, тип расширяется до всех состояний.
func (b *Builder) Filter(prop string, values ...string) *Builder {
	for i := range b.mask.bits {
		t := block.TypeID(i)
		if b.mask.bits[t] == nil {
			continue
		}
		typ := b.mask.registry.MustType(t)
		p, ok := typ.Property(prop)
		if !ok {
			continue
		}
		keep := make(map[int]bool, len(values))
		for _, value := range values {
			if vi, ok := p.ValueIndex(value); ok {
				keep[vi] = true
			}
		}
		if len(keep) == 0 {
			b.mask.bits[t] = all
			continue
		}
		v := b.mask.explicit(t)
		for j := 0; j < typ.StateCount(); j++ {
			if !keep[p.Index(uint32(j))] {
				v[j>>6] &^= 1 << uint(j&63)
			}
		}
		b.mask.normalize(t)
	}
	return b
}

// Build возвращает собранную маску. Построитель можно продолжать использовать:
// дальнейшие изменения не затрагивают возвращённую маску.
func (b *Builder) Build() *BlockMask {
	return b.mask.Clone()
}

// allowedValues переводит фильтр в индексы значений. false - фильтр не выражается
// (неизвестное свойство или ни одного известного значения).
func allowedValues(typ *block.Type, filter map[string][]string) (map[*block.Property]map[int]bool, bool) {
	allowed := make(map[*block.Property]map[int]bool, len(filter))
	for name, values := range filter {
		p, ok := typ.Property(name)
		if !ok {
			return nil, false
		}
		set := make(map[int]bool, len(values))
		for _, value := range values {
			vi, ok := p.ValueIndex(value)
			if !ok {
				return nil, false
			}
			set[vi] = true
		}
		allowed[p] = set
	}
	return allowed, true
}

func matchesAllowed(typ *block.Type, index uint32, allowed map[*block.Property]map[int]bool) bool {
	for p, set := range allowed {
		if !set[p.Index(index)] {
			return false
		}
	}
	return true
}
