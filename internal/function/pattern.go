// Package function содержит шаблоны блоков и функции региона, которые
// применяются обходами к посещённым позициям.
package function

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/annel0/voxedit/internal/extent"
	"github.com/annel0/voxedit/internal/vec"
	"github.com/annel0/voxedit/internal/world/block"
)

// ErrPatternParse - синтаксическая ошибка в выражении шаблона.
var ErrPatternParse = errors.New("pattern parse error")

// Pattern выбирает состояние блока для позиции.
type Pattern interface {
	Apply(pos vec.Vec3) block.State
}

// SingleBlockPattern всегда возвращает одно состояние.
type SingleBlockPattern struct {
	State block.State
}

func (p SingleBlockPattern) Apply(vec.Vec3) block.State {
	return p.State.Clone()
}

type weightedPattern struct {
	pattern Pattern
	// cumulative - сумма весов до этого элемента включительно
	cumulative float64
}

// RandomPattern выбирает один из шаблонов с вероятностью, пропорциональной весу.
// Выбор детерминирован для пары (seed, позиция), поэтому результат не зависит
// от порядка обхода.
type RandomPattern struct {
	seed    int64
	entries []weightedPattern
	total   float64
}

// NewRandomPattern создаёт пустой случайный шаблон
func NewRandomPattern(seed int64) *RandomPattern {
	return &RandomPattern{seed: seed}
}

// Add добавляет шаблон с весом; неположительные веса игнорируются.
func (p *RandomPattern) Add(pattern Pattern, weight float64) *RandomPattern {
	if weight <= 0 {
		return p
	}
	p.total += weight
	p.entries = append(p.entries, weightedPattern{pattern: pattern, cumulative: p.total})
	return p
}

// Len возвращает число шаблонов
func (p *RandomPattern) Len() int {
	return len(p.entries)
}

func (p *RandomPattern) Apply(pos vec.Vec3) block.State {
	if len(p.entries) == 0 {
		return block.State{}
	}
	r := unitFloat(positionHash(p.seed, pos)) * p.total
	i := sort.Search(len(p.entries), func(i int) bool {
		return p.entries[i].cumulative > r
	})
	if i == len(p.entries) {
		i--
	}
	return p.entries[i].pattern.Apply(pos)
}

// positionHash перемешивает координаты и seed (splitmix64).
func positionHash(seed int64, pos vec.Vec3) uint64 {
	h := uint64(seed)
	for _, c := range [3]int{pos.X, pos.Y, pos.Z} {
		h ^= uint64(int64(c))
		h += 0x9e3779b97f4a7c15
		h = (h ^ (h >> 30)) * 0xbf58476d1ce4e5b9
		h = (h ^ (h >> 27)) * 0x94d049bb133111eb
		h ^= h >> 31
	}
	return h
}

func unitFloat(h uint64) float64 {
	return float64(h>>11) / (1 << 53)
}

// ClipboardPattern замащивает пространство содержимым буфера.
type ClipboardPattern struct {
	Clipboard *extent.Clipboard
}

func (p ClipboardPattern) Apply(pos vec.Vec3) block.State {
	size := p.Clipboard.Size()
	local := vec.Vec3{
		X: floorMod(pos.X, size.X),
		Y: floorMod(pos.Y, size.Y),
		Z: floorMod(pos.Z, size.Z),
	}
	return p.Clipboard.GetBlock(p.Clipboard.Min.Add(local)).Clone()
}

func floorMod(a, n int) int {
	m := a % n
	if m < 0 {
		m += n
	}
	return m
}

// ParsePattern разбирает шаблон: «stone», «oak_stairs[facing=east]»
// или взвешенный список «70%stone,30%dirt» (вес по умолчанию 1).
func ParsePattern(input string, registry *block.Registry, seed int64) (Pattern, error) {
	parts := splitOutsideBrackets(strings.TrimSpace(input))
	if len(parts) == 1 && !strings.Contains(parts[0], "%") {
		state, err := ParseState(parts[0], registry)
		if err != nil {
			return nil, err
		}
		return SingleBlockPattern{State: state}, nil
	}

	random := NewRandomPattern(seed)
	for _, part := range parts {
		part = strings.TrimSpace(part)
		weight := 1.0
		if pct, rest, ok := strings.Cut(part, "%"); ok && !strings.Contains(pct, "[") {
			w, err := strconv.ParseFloat(strings.TrimSpace(pct), 64)
			if err != nil || w <= 0 {
				return nil, fmt.Errorf("%w: bad weight %q", ErrPatternParse, pct)
			}
			weight, part = w, rest
		}
		state, err := ParseState(part, registry)
		if err != nil {
			return nil, err
		}
		random.Add(SingleBlockPattern{State: state}, weight)
	}
	return random, nil
}

// ParseState разбирает одно состояние «type[prop=value,...]».
func ParseState(input string, registry *block.Registry) (block.State, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return block.State{}, fmt.Errorf("%w: empty block", ErrPatternParse)
	}
	name, props := input, ""
	if open := strings.IndexByte(input, '['); open >= 0 {
		if !strings.HasSuffix(input, "]") {
			return block.State{}, fmt.Errorf("%w: unclosed '[' in %q", ErrPatternParse, input)
		}
		name, props = input[:open], input[open+1:len(input)-1]
	}
	values := make(map[string]string)
	if props != "" {
		for _, kv := range strings.Split(props, ",") {
			key, value, ok := strings.Cut(kv, "=")
			if !ok {
				return block.State{}, fmt.Errorf("%w: expected key=value, got %q", ErrPatternParse, kv)
			}
			values[strings.TrimSpace(key)] = strings.TrimSpace(value)
		}
	}
	state, err := registry.State(strings.TrimSpace(name), values)
	if err != nil {
		return block.State{}, fmt.Errorf("%w: %w", ErrPatternParse, err)
	}
	return state, nil
}

func splitOutsideBrackets(input string) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(input); i++ {
		switch input[i] {
		case '[':
			depth++
		case ']':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, input[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, input[start:])
}
