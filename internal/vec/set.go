package vec

// Set - множество позиций. Проверка и вставка O(1) в среднем.
type Set map[Vec3]struct{}

// NewSet создаёт множество с заданной начальной ёмкостью
func NewSet(capacity int) Set {
	return make(Set, capacity)
}

// Add добавляет позицию; возвращает false, если она уже была в множестве.
func (s Set) Add(pos Vec3) bool {
	if _, ok := s[pos]; ok {
		return false
	}
	s[pos] = struct{}{}
	return true
}

// Contains проверяет наличие позиции
func (s Set) Contains(pos Vec3) bool {
	_, ok := s[pos]
	return ok
}

// Len возвращает размер множества
func (s Set) Len() int {
	return len(s)
}
