package mask

import (
	"errors"
	"fmt"
	"strings"

	"github.com/annel0/voxedit/internal/extent"
	"github.com/annel0/voxedit/internal/vec"
	"github.com/annel0/voxedit/internal/world/block"
)

// ErrParse - синтаксическая ошибка в выражении маски.
var ErrParse = errors.New("mask parse error")

// Parse разбирает выражение маски:
//
//	stone,dirt               объединение
//	log&!log[axis=y]         пересечение и отрицание
//	oak_stairs[facing=north|south,half=top]
//	#existing                любой блок, кроме air
//	*                        любой блок
//	>grass                   блок снизу - grass; <stone - блок сверху
//
// Результат по возможности оптимизирован.
func Parse(input string, registry *block.Registry, ext extent.Extent) (Mask, error) {
	m, err := parseUnion(strings.TrimSpace(input), registry, ext)
	if err != nil {
		return nil, err
	}
	if bm, ok := m.(*BlockMask); ok {
		return bm.Optimize(), nil
	}
	return m, nil
}

// ParseBlockMask разбирает выражение, которое должно свестись к BlockMask
// (без смещений >, <).
func ParseBlockMask(input string, registry *block.Registry, ext extent.Extent) (*BlockMask, error) {
	m, err := parseUnion(strings.TrimSpace(input), registry, ext)
	if err != nil {
		return nil, err
	}
	bm, ok := m.(*BlockMask)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not a block mask", ErrParse, input)
	}
	return bm, nil
}

func parseUnion(input string, registry *block.Registry, ext extent.Extent) (Mask, error) {
	if input == "" {
		return nil, fmt.Errorf("%w: empty expression", ErrParse)
	}
	parts, err := splitTopLevel(input, ',')
	if err != nil {
		return nil, err
	}
	var result Mask
	for _, part := range parts {
		m, err := parseIntersection(strings.TrimSpace(part), registry, ext)
		if err != nil {
			return nil, err
		}
		result = combine(result, m, false)
	}
	return result, nil
}

func parseIntersection(input string, registry *block.Registry, ext extent.Extent) (Mask, error) {
	parts, err := splitTopLevel(input, '&')
	if err != nil {
		return nil, err
	}
	var result Mask
	for _, part := range parts {
		m, err := parseFactor(strings.TrimSpace(part), registry, ext)
		if err != nil {
			return nil, err
		}
		result = combine(result, m, true)
	}
	return result, nil
}

func parseFactor(input string, registry *block.Registry, ext extent.Extent) (Mask, error) {
	if input == "" {
		return nil, fmt.Errorf("%w: empty term", ErrParse)
	}
	switch input[0] {
	case '!':
		inner, err := parseFactor(strings.TrimSpace(input[1:]), registry, ext)
		if err != nil {
			return nil, err
		}
		if bm, ok := inner.(*BlockMask); ok {
			return bm.Inverse(), nil
		}
		return Inverse(inner), nil
	case '>':
		inner, err := parseFactor(strings.TrimSpace(input[1:]), registry, ext)
		if err != nil {
			return nil, err
		}
		return Offset{Mask: inner, Offset: vec.Vec3{Y: -1}}, nil
	case '<':
		inner, err := parseFactor(strings.TrimSpace(input[1:]), registry, ext)
		if err != nil {
			return nil, err
		}
		return Offset{Mask: inner, Offset: vec.Vec3{Y: 1}}, nil
	case '*':
		if input != "*" {
			return nil, fmt.Errorf("%w: unexpected %q", ErrParse, input)
		}
		return NewBuilder(ext, registry).AddAll().Build(), nil
	case '#':
		if input != "#existing" {
			return nil, fmt.Errorf("%w: unknown special mask %q", ErrParse, input)
		}
		air := registry.Air()
		return NewBuilder(ext, registry).AddAll().RemoveType(air.Type).Build(), nil
	}
	return parseBlock(input, registry, ext)
}

func parseBlock(input string, registry *block.Registry, ext extent.Extent) (Mask, error) {
	name, props := input, ""
	if open := strings.IndexByte(input, '['); open >= 0 {
		if !strings.HasSuffix(input, "]") {
			return nil, fmt.Errorf("%w: unclosed '[' in %q", ErrParse, input)
		}
		name, props = input[:open], input[open+1:len(input)-1]
	}
	name = strings.TrimSpace(name)
	typ, ok := registry.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q: %w", ErrParse, name, block.ErrUnknownType)
	}
	filter := make(map[string][]string)
	if props != "" {
		for _, kv := range strings.Split(props, ",") {
			key, value, found := strings.Cut(kv, "=")
			if !found {
				return nil, fmt.Errorf("%w: expected key=value, got %q", ErrParse, kv)
			}
			key = strings.TrimSpace(key)
			for _, v := range strings.Split(value, "|") {
				filter[key] = append(filter[key], strings.TrimSpace(v))
			}
		}
	}
	return NewBuilder(ext, registry).AddPattern(typ.ID, filter).Build(), nil
}

// combine объединяет или пересекает маски. Две BlockMask комбинируются
// побитово, остальные - через Intersection/Union.
func combine(acc, next Mask, and bool) Mask {
	if acc == nil {
		return next
	}
	a, okA := acc.(*BlockMask)
	b, okB := next.(*BlockMask)
	if okA && okB {
		if and {
			return a.And(b)
		}
		return a.Or(b)
	}
	if and {
		if list, ok := acc.(Intersection); ok {
			return append(list, next)
		}
		return Intersection{acc, next}
	}
	if list, ok := acc.(Union); ok {
		return append(list, next)
	}
	return Union{acc, next}
}

// splitTopLevel режет строку по разделителю вне квадратных скобок.
func splitTopLevel(input string, sep byte) ([]string, error) {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(input); i++ {
		switch input[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("%w: unbalanced ']' in %q", ErrParse, input)
			}
		case sep:
			if depth == 0 {
				parts = append(parts, input[start:i])
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("%w: unclosed '[' in %q", ErrParse, input)
	}
	return append(parts, input[start:]), nil
}
