package world

import (
	"fmt"
	"math/rand"

	"github.com/annel0/voxedit/internal/extent"
	"github.com/annel0/voxedit/internal/util"
	"github.com/annel0/voxedit/internal/vec"
	"github.com/annel0/voxedit/internal/world/block"
)

// BiomeType представляет тип биома
type BiomeType int

const (
	BiomePlains BiomeType = iota
	BiomeDesert
	BiomeForest
	BiomeMountains
	BiomeWater
)

// Пороги нормированной высоты для генерации
const (
	ShallowWaterMax = 0.30 // Ниже - вода
	MountainStart   = 0.80 // Выше - горы
)

// Generator генерирует ландшафт мира по шуму Перлина
type Generator struct {
	Seed          int64   // Сид для генерации шума
	NoiseScale    float64 // Масштаб основного шума (высота)
	BiomeScale    float64 // Масштаб шума биомов
	ForestDensity float64 // Плотность деревьев в лесу (от 0 до 1)
	SeaLevel      int     // Смещение уровня воды от нижней границы мира
	Relief        int     // Перепад высот рельефа

	height *util.Noise
	biome  *util.Noise

	bedrock, stone, dirt, grass, sand, water block.State
	log, leaves                              block.State
}

// NewGenerator создаёт генератор. В реестре должны быть типы
// bedrock, stone, dirt, grass, sand, water, log и leaves.
func NewGenerator(seed int64, registry *block.Registry) (*Generator, error) {
	g := &Generator{
		Seed:          seed,
		NoiseScale:    0.05, // Настройка сглаженности ландшафта
		BiomeScale:    0.02, // Настройка размера биомов
		ForestDensity: 0.05,
		SeaLevel:      12,
		Relief:        24,
		height:        util.NewNoise(seed),
		biome:         util.NewNoise(seed + 42),
	}

	var err error
	lookup := func(name string, props map[string]string) block.State {
		if err != nil {
			return block.State{}
		}
		var s block.State
		s, err = registry.State(name, props)
		if err != nil {
			err = fmt.Errorf("генератор: %w", err)
		}
		return s
	}
	g.bedrock = lookup("bedrock", nil)
	g.stone = lookup("stone", nil)
	g.dirt = lookup("dirt", nil)
	g.grass = lookup("grass", nil)
	g.sand = lookup("sand", nil)
	g.water = lookup("water", nil)
	g.log = lookup("log", map[string]string{"axis": "y"})
	g.leaves = lookup("leaves", nil)
	if err != nil {
		return nil, err
	}
	return g, nil
}

// GenerateChunk генерирует чанк по его координатам
func (g *Generator) GenerateChunk(coords vec.Vec2, bounds extent.HeightBounds) *Chunk {
	chunk := NewChunk(coords, bounds)

	// Для каждого чанка создаем уникальный сид на основе глобального сида и координат
	chunkSeed := g.Seed + int64(coords.X*31) + int64(coords.Y*17)
	rng := rand.New(rand.NewSource(chunkSeed))

	originX, originZ := coords.ChunkOrigin()
	seaY := bounds.MinY + g.SeaLevel

	for z := 0; z < ChunkSize; z++ {
		for x := 0; x < ChunkSize; x++ {
			globalX := float64(originX + x)
			globalZ := float64(originZ + z)

			height := g.height.Noise2D(globalX*g.NoiseScale, globalZ*g.NoiseScale)
			biomeValue := g.biome.Noise2D(globalX*g.BiomeScale, globalZ*g.BiomeScale)
			biome := g.biomeType(height, biomeValue)

			surfaceY := bounds.MinY + 1 + int(height*float64(g.Relief))
			if surfaceY >= bounds.MaxY {
				surfaceY = bounds.MaxY - 1
			}

			chunk.SetBlock(x, bounds.MinY, z, g.bedrock)
			for y := bounds.MinY + 1; y <= surfaceY; y++ {
				chunk.SetBlock(x, y, z, g.columnBlock(biome, surfaceY-y))
			}
			for y := surfaceY + 1; y <= seaY && y < bounds.MaxY; y++ {
				chunk.SetBlock(x, y, z, g.water)
			}

			// Деревья целиком помещаются в чанк
			if biome == BiomeForest && x >= 2 && x < ChunkSize-2 && z >= 2 && z < ChunkSize-2 &&
				rng.Float64() < g.ForestDensity {
				g.placeTree(chunk, x, surfaceY+1, z, 4+rng.Intn(2))
			}
		}
	}

	chunk.dirty = false
	chunk.ChangeCounter = 0
	return chunk
}

// columnBlock возвращает блок столбца на глубине depth под поверхностью
func (g *Generator) columnBlock(biome BiomeType, depth int) block.State {
	switch biome {
	case BiomeMountains:
		return g.stone
	case BiomeDesert:
		if depth < 4 {
			return g.sand
		}
	case BiomeWater:
		if depth < 2 {
			return g.sand
		}
	default:
		if depth == 0 {
			return g.grass
		}
		if depth < 3 {
			return g.dirt
		}
	}
	return g.stone
}

// placeTree ставит ствол высотой trunk и крону из листвы
func (g *Generator) placeTree(chunk *Chunk, x, baseY, z, trunk int) {
	if baseY+trunk+1 >= chunk.bounds.MaxY {
		return
	}
	topY := baseY + trunk - 1
	for dy := -1; dy <= 1; dy++ {
		radius := 2
		if dy == 1 {
			radius = 1
		}
		for dz := -radius; dz <= radius; dz++ {
			for dx := -radius; dx <= radius; dx++ {
				chunk.SetBlock(x+dx, topY+dy, z+dz, g.leaves)
			}
		}
	}
	for y := baseY; y <= topY; y++ {
		chunk.SetBlock(x, y, z, g.log)
	}
}

// biomeType определяет тип биома на основе значений шума
func (g *Generator) biomeType(height, biomeValue float64) BiomeType {
	if height < ShallowWaterMax {
		return BiomeWater
	}
	if height > MountainStart {
		return BiomeMountains
	}
	if biomeValue < 0.35 {
		return BiomeDesert
	} else if biomeValue > 0.65 {
		return BiomeForest
	}
	return BiomePlains
}
