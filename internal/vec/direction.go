package vec

import (
	"math"
	"strings"
)

// DirectionFlag - категория направления, используется при поиске ближайшего.
type DirectionFlag uint8

const (
	Cardinal DirectionFlag = 1 << iota
	Ordinal
	SecondaryOrdinal
	Upright

	AllDirections = Cardinal | Ordinal | SecondaryOrdinal | Upright
)

// Direction - именованное направление в мире (север = -Z, восток = +X).
type Direction uint8

const (
	North Direction = iota
	East
	South
	West
	Up
	Down
	Northeast
	Northwest
	Southeast
	Southwest
	WestNorthwest
	WestSouthwest
	NorthNorthwest
	NorthNortheast
	EastNortheast
	EastSoutheast
	SouthSoutheast
	SouthSouthwest

	directionCount
)

type directionInfo struct {
	name   string
	vector Vec3Float
	flag   DirectionFlag
}

var directions [directionCount]directionInfo

func init() {
	c := math.Cos(math.Pi / 8)
	s := math.Sin(math.Pi / 8)
	set := func(d Direction, name string, x, y, z float64, flag DirectionFlag) {
		directions[d] = directionInfo{name: name, vector: Vec3Float{X: x, Y: y, Z: z}.Normalized(), flag: flag}
	}
	set(North, "north", 0, 0, -1, Cardinal)
	set(East, "east", 1, 0, 0, Cardinal)
	set(South, "south", 0, 0, 1, Cardinal)
	set(West, "west", -1, 0, 0, Cardinal)
	set(Up, "up", 0, 1, 0, Upright)
	set(Down, "down", 0, -1, 0, Upright)
	set(Northeast, "northeast", 1, 0, -1, Ordinal)
	set(Northwest, "northwest", -1, 0, -1, Ordinal)
	set(Southeast, "southeast", 1, 0, 1, Ordinal)
	set(Southwest, "southwest", -1, 0, 1, Ordinal)
	set(WestNorthwest, "west_northwest", -c, 0, -s, SecondaryOrdinal)
	set(WestSouthwest, "west_southwest", -c, 0, s, SecondaryOrdinal)
	set(NorthNorthwest, "north_northwest", -s, 0, -c, SecondaryOrdinal)
	set(NorthNortheast, "north_northeast", s, 0, -c, SecondaryOrdinal)
	set(EastNortheast, "east_northeast", c, 0, -s, SecondaryOrdinal)
	set(EastSoutheast, "east_southeast", c, 0, s, SecondaryOrdinal)
	set(SouthSoutheast, "south_southeast", s, 0, c, SecondaryOrdinal)
	set(SouthSouthwest, "south_southwest", -s, 0, c, SecondaryOrdinal)
}

// String возвращает имя направления
func (d Direction) String() string {
	if d >= directionCount {
		return "unknown"
	}
	return directions[d].name
}

// Vector возвращает единичный вектор направления
func (d Direction) Vector() Vec3Float {
	return directions[d].vector
}

// Flag возвращает категорию направления
func (d Direction) Flag() DirectionFlag {
	return directions[d].flag
}

// ParseDirection разбирает имя направления (регистр не важен).
func ParseDirection(name string) (Direction, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for d := Direction(0); d < directionCount; d++ {
		if directions[d].name == name {
			return d, true
		}
	}
	return 0, false
}

// FindClosest ищет направление с указанными флагами, наиболее близкое к вектору.
// Для нулевого (или неконечного) вектора возвращает false.
func FindClosest(v Vec3Float, flags DirectionFlag) (Direction, bool) {
	length := v.Length()
	if length == 0 || math.IsNaN(length) || math.IsInf(length, 0) {
		return 0, false
	}
	v = v.Mul(1 / length)

	closest := -2.0
	var best Direction
	found := false
	for d := Direction(0); d < directionCount; d++ {
		if directions[d].flag&flags == 0 {
			continue
		}
		dot := directions[d].vector.Dot(v)
		if dot >= closest {
			closest = dot
			best = d
			found = true
		}
	}
	return best, found
}

// rotations - 16 шагов поворота по 22.5°, начиная с юга по часовой стрелке (вид сверху).
var rotations = [16]Direction{
	South, SouthSouthwest, Southwest, WestSouthwest,
	West, WestNorthwest, Northwest, NorthNorthwest,
	North, NorthNortheast, Northeast, EastNortheast,
	East, EastSoutheast, Southeast, SouthSoutheast,
}

// FromRotation преобразует значение поворота 0..15 в направление.
func FromRotation(rot int) (Direction, bool) {
	if rot < 0 || rot >= len(rotations) {
		return 0, false
	}
	return rotations[rot], true
}

// ToRotation возвращает шаг поворота для горизонтального направления или -1.
func ToRotation(d Direction) int {
	for i, r := range rotations {
		if r == d {
			return i
		}
	}
	return -1
}
