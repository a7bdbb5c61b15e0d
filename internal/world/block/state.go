package block

import "fmt"

// RotKey - ключ метаданных с углом поворота (0..15), хранимым отдельно от состояния.
const RotKey = "Rot"

// State - конкретное состояние блока: тип, упакованный индекс свойств и
// необязательные метаданные экземпляра.
type State struct {
	Type    TypeID
	Index   uint32
	Payload map[string]interface{}
}

// SameState сравнивает тип и индекс, игнорируя метаданные.
func (s State) SameState(other State) bool {
	return s.Type == other.Type && s.Index == other.Index
}

// Packed возвращает тип и индекс одним числом (для хранения).
func (s State) Packed() uint64 {
	return uint64(s.Type)<<32 | uint64(s.Index)
}

// Unpack восстанавливает состояние из Packed.
func Unpack(v uint64) State {
	return State{Type: TypeID(v >> 32), Index: uint32(v)}
}

// Rot возвращает значение поворота из метаданных, если оно есть.
// Числа после JSON приходят как float64, поэтому поддерживаются разные типы.
func (s State) Rot() (int, bool) {
	if s.Payload == nil {
		return 0, false
	}
	switch v := s.Payload[RotKey].(type) {
	case int:
		return v, true
	case uint8:
		return int(v), true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}

// WithRot возвращает копию состояния с новым значением поворота.
// Исходные метаданные не изменяются.
func (s State) WithRot(rot int) State {
	payload := make(map[string]interface{}, len(s.Payload)+1)
	for k, v := range s.Payload {
		payload[k] = v
	}
	payload[RotKey] = rot
	s.Payload = payload
	return s
}

// Clone создаёт копию состояния вместе с метаданными
func (s State) Clone() State {
	if s.Payload == nil {
		return s
	}
	payload := make(map[string]interface{}, len(s.Payload))
	for k, v := range s.Payload {
		payload[k] = v
	}
	s.Payload = payload
	return s
}

func (s State) String() string {
	return fmt.Sprintf("%d:%d", s.Type, s.Index)
}
