package vec

// Vec2 представляет 2D координаты. Для чанков: X - ось X мира, Y - ось Z мира.
type Vec2 struct {
	X, Y int
}

// ChunkOrigin возвращает минимальные мировые X/Z колонки чанка.
func (v Vec2) ChunkOrigin() (x, z int) {
	return v.X << 4, v.Y << 4
}

// LocalInChunk возвращает локальные координаты позиции внутри чанка
func LocalInChunk(pos Vec3) (x, z int) {
	return pos.X & 0xF, pos.Z & 0xF // Модуль 16
}
