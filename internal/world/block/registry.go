package block

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrUnknownType     = errors.New("unknown block type")
	ErrUnknownProperty = errors.New("unknown block property")
	ErrUnknownValue    = errors.New("unknown property value")
	ErrDuplicateType   = errors.New("duplicate block type")
	ErrInvalidProperty = errors.New("invalid property definition")
)

// AirName - имя типа пустого блока. Он всегда получает TypeID 0.
const AirName = "air"

// maxStateBits ограничивает размер битового вектора одного типа.
const maxStateBits = 20

// TypeID - порядковый номер типа блока в реестре.
type TypeID uint32

// Type описывает тип блока и схему его свойств.
type Type struct {
	ID         TypeID
	Name       string
	Properties []*Property
	// Bits - суммарная ширина всех полей свойств.
	Bits uint

	byName map[string]*Property
	valid  []uint64
}

// StateCount возвращает размер диапазона индексов состояния (2^Bits).
func (t *Type) StateCount() int {
	return 1 << t.Bits
}

// Property возвращает свойство по имени
func (t *Type) Property(name string) (*Property, bool) {
	p, ok := t.byName[name]
	return p, ok
}

// IsValidState проверяет, что индекс каждого поля лежит в домене свойства.
func (t *Type) IsValidState(index uint32) bool {
	if index >= uint32(t.StateCount()) {
		return false
	}
	for _, p := range t.Properties {
		if p.Index(index) >= len(p.Values) {
			return false
		}
	}
	return true
}

// ValidStates возвращает битовый вектор допустимых индексов состояния
// (бит j установлен, если j - допустимая комбинация значений). Срез общий, изменять нельзя.
func (t *Type) ValidStates() []uint64 {
	return t.valid
}

func (t *Type) buildValidStates() {
	count := t.StateCount()
	t.valid = make([]uint64, (count+63)/64)
	for j := 0; j < count; j++ {
		if t.IsValidState(uint32(j)) {
			t.valid[j>>6] |= 1 << uint(j&63)
		}
	}
}

// WithValue возвращает индекс состояния с заменённым значением свойства.
func (t *Type) WithValue(index uint32, property, value string) (uint32, error) {
	p, ok := t.byName[property]
	if !ok {
		return index, fmt.Errorf("%s[%s]: %w", t.Name, property, ErrUnknownProperty)
	}
	vi, ok := p.ValueIndex(value)
	if !ok {
		return index, fmt.Errorf("%s[%s=%s]: %w", t.Name, property, value, ErrUnknownValue)
	}
	return p.Modify(index, vi), nil
}

// DefaultState возвращает состояние с первым значением каждого свойства.
func (t *Type) DefaultState() State {
	return State{Type: t.ID}
}

// State собирает состояние из значений свойств. Неуказанные свойства
// получают первое значение домена.
func (t *Type) State(values map[string]string) (State, error) {
	var index uint32
	for name, value := range values {
		p, ok := t.byName[name]
		if !ok {
			return State{}, fmt.Errorf("%s[%s]: %w", t.Name, name, ErrUnknownProperty)
		}
		vi, ok := p.ValueIndex(value)
		if !ok {
			return State{}, fmt.Errorf("%s[%s=%s]: %w", t.Name, name, value, ErrUnknownValue)
		}
		index = p.Modify(index, vi)
	}
	return State{Type: t.ID, Index: index}, nil
}

// Value возвращает значение свойства для состояния этого типа.
func (t *Type) Value(index uint32, property string) (string, bool) {
	p, ok := t.byName[property]
	if !ok {
		return "", false
	}
	vi := p.Index(index)
	if vi >= len(p.Values) {
		return "", false
	}
	return p.Values[vi], true
}

// Registry - неизменяемое пространство состояний: все типы блоков и их упаковка.
// Строится один раз через RegistryBuilder и передаётся по ссылке.
type Registry struct {
	types  []*Type
	byName map[string]*Type
}

// Len возвращает количество типов
func (r *Registry) Len() int {
	return len(r.types)
}

// Type возвращает тип по идентификатору
func (r *Registry) Type(id TypeID) (*Type, bool) {
	if int(id) >= len(r.types) {
		return nil, false
	}
	return r.types[id], true
}

// MustType возвращает тип по идентификатору или паникует.
func (r *Registry) MustType(id TypeID) *Type {
	t, ok := r.Type(id)
	if !ok {
		panic(fmt.Sprintf("block: type %d not registered", id))
	}
	return t
}

// Lookup ищет тип по имени
func (r *Registry) Lookup(name string) (*Type, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// Types возвращает все типы в порядке идентификаторов
func (r *Registry) Types() []*Type {
	return r.types
}

// Air возвращает состояние пустого блока
func (r *Registry) Air() State {
	return State{Type: 0}
}

// IsAir проверяет, является ли состояние пустым блоком
func (r *Registry) IsAir(s State) bool {
	return s.Type == 0
}

// State собирает состояние по имени типа и значениям свойств
func (r *Registry) State(typeName string, values map[string]string) (State, error) {
	t, ok := r.byName[typeName]
	if !ok {
		return State{}, fmt.Errorf("%q: %w", typeName, ErrUnknownType)
	}
	return t.State(values)
}

// MustState - как State, но паникует при ошибке. Для статических таблиц и тестов.
func (r *Registry) MustState(typeName string, values map[string]string) State {
	s, err := r.State(typeName, values)
	if err != nil {
		panic(err)
	}
	return s
}

// PropertyDef описывает свойство при регистрации типа.
type PropertyDef struct {
	Name   string       `yaml:"name"`
	Kind   PropertyKind `yaml:"-"`
	Values []string     `yaml:"values"`
}

// RegistryBuilder накапливает определения типов до вызова Build.
type RegistryBuilder struct {
	names []string
	defs  map[string][]PropertyDef
	err   error
}

// NewRegistryBuilder создаёт построитель; тип air регистрируется автоматически.
func NewRegistryBuilder() *RegistryBuilder {
	b := &RegistryBuilder{defs: make(map[string][]PropertyDef)}
	b.Add(AirName)
	return b
}

// Add регистрирует тип. Первая ошибка запоминается и возвращается из Build.
func (b *RegistryBuilder) Add(name string, props ...PropertyDef) *RegistryBuilder {
	if b.err != nil {
		return b
	}
	if _, exists := b.defs[name]; exists {
		if name == AirName && len(props) == 0 {
			return b
		}
		b.err = fmt.Errorf("%q: %w", name, ErrDuplicateType)
		return b
	}
	for _, p := range props {
		if p.Name == "" || len(p.Values) == 0 {
			b.err = fmt.Errorf("%s.%s: %w", name, p.Name, ErrInvalidProperty)
			return b
		}
	}
	b.names = append(b.names, name)
	b.defs[name] = props
	return b
}

// Build строит неизменяемый реестр.
func (b *RegistryBuilder) Build() (*Registry, error) {
	if b.err != nil {
		return nil, b.err
	}
	r := &Registry{
		types:  make([]*Type, 0, len(b.names)),
		byName: make(map[string]*Type, len(b.names)),
	}
	for i, name := range b.names {
		t := &Type{ID: TypeID(i), Name: name, byName: make(map[string]*Property)}
		var offset uint
		for _, def := range b.defs[name] {
			if _, dup := t.byName[def.Name]; dup {
				return nil, fmt.Errorf("%s.%s: %w", name, def.Name, ErrInvalidProperty)
			}
			p := newProperty(def.Name, def.Kind, def.Values, offset)
			offset += p.Bits
			t.Properties = append(t.Properties, p)
			t.byName[p.Name] = p
		}
		if offset > maxStateBits {
			return nil, fmt.Errorf("%s: %d state bits exceeds %d: %w", name, offset, maxStateBits, ErrInvalidProperty)
		}
		t.Bits = offset
		t.buildValidStates()
		r.types = append(r.types, t)
		r.byName[name] = t
	}
	return r, nil
}

// Names возвращает отсортированные имена типов (для сообщений и автодополнения).
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.types))
	for _, t := range r.types {
		names = append(names, t.Name)
	}
	sort.Strings(names)
	return names
}
