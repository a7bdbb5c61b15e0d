package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/annel0/voxedit/internal/extent"
	"github.com/annel0/voxedit/internal/function"
	"github.com/annel0/voxedit/internal/mask"
	"github.com/annel0/voxedit/internal/tool"
	"github.com/annel0/voxedit/internal/transform"
	"github.com/annel0/voxedit/internal/vec"
	"github.com/annel0/voxedit/internal/world"
	"github.com/annel0/voxedit/internal/world/block"
)

// request - разобранные флаги операции
type request struct {
	Op       string
	At       string
	Mask     string
	Pattern  string
	Radius   int
	From     string
	To       string
	RotateY  float64
	Seed     int64
	Diagonal bool

	MaxDepth   *int
	MaxBranch  *int
	Prefetcher extent.ChunkPrefetcher
}

// editor - то, что нужно операциям от сессии
type editor interface {
	tool.Editor
	World() *world.World
}

func parseVec3(s string) (vec.Vec3, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return vec.Vec3{}, fmt.Errorf("ожидалось x,y,z: %q", s)
	}
	var out [3]int
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return vec.Vec3{}, fmt.Errorf("координата %q: %w", p, err)
		}
		out[i] = v
	}
	return vec.Vec3{X: out[0], Y: out[1], Z: out[2]}, nil
}

func execute(ctx context.Context, ed editor, req request) (int, error) {
	registry := ed.Registry()
	traversal := tool.Traversal{
		Bounds:     ed.World().Bounds(),
		Prefetcher: req.Prefetcher,
		Diagonal:   req.Diagonal,
		MaxDepth:   req.MaxDepth,
		MaxBranch:  req.MaxBranch,
	}

	pos, err := parseVec3(req.At)
	if err != nil {
		return 0, err
	}

	switch req.Op {
	case "info":
		state := ed.GetBlock(pos)
		typ := registry.MustType(state.Type)
		fmt.Printf("%v: %s %v\n", pos, typ.Name, state.Payload)
		return 0, nil

	case "replace":
		m, err := mask.Parse(req.Mask, registry, ed)
		if err != nil {
			return 0, err
		}
		p, err := function.ParsePattern(req.Pattern, registry, req.Seed)
		if err != nil {
			return 0, err
		}
		return tool.FloodReplace{Mask: m, Pattern: p, Traversal: traversal}.Act(ctx, ed, pos)

	case "pickaxe":
		return tool.RecursivePickaxe{Radius: req.Radius, Traversal: traversal}.Act(ctx, ed, pos)

	case "deltree":
		return tool.FloatingTreeRemover{Traversal: traversal}.Act(ctx, ed, pos)

	case "fill":
		p, err := function.ParsePattern(req.Pattern, registry, req.Seed)
		if err != nil {
			return 0, err
		}
		return tool.DownwardFill{Pattern: p, Radius: req.Radius, Traversal: traversal}.Act(ctx, ed, pos)

	case "paste":
		return paste(ed, registry, pos, req)
	}
	return 0, fmt.Errorf("неизвестная операция %q", req.Op)
}

// paste копирует кубоид [From, To] и вставляет его в At с поворотом вокруг Y.
func paste(ed editor, registry *block.Registry, at vec.Vec3, req request) (int, error) {
	min, err := parseVec3(req.From)
	if err != nil {
		return 0, err
	}
	max, err := parseVec3(req.To)
	if err != nil {
		return 0, err
	}
	clip := extent.Copy(ed, min, max, min)
	cache := transform.NewCache(registry, vec.Identity().RotateY(req.RotateY))
	return transform.Paste(ed, clip, at, cache, registry, transform.PasteOptions{IgnoreAir: true})
}
