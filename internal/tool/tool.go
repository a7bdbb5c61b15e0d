// Package tool - инструменты редактирования поверх обходов в ширину.
package tool

import (
	"errors"

	"github.com/annel0/voxedit/internal/extent"
	"github.com/annel0/voxedit/internal/visitor"
	"github.com/annel0/voxedit/internal/world/block"
)

var (
	// ErrNotTree - стартовый блок не относится к дереву.
	ErrNotTree = errors.New("not a tree")
	// ErrNotFloating - дерево опирается на землю или стену.
	ErrNotFloating = errors.New("not a floating tree")
)

// Editor - extent с реестром блоков (session.EditSession, world.World).
type Editor interface {
	extent.Extent
	Registry() *block.Registry
}

// Traversal - общие настройки обхода для инструментов.
type Traversal struct {
	Bounds     extent.HeightBounds
	Prefetcher extent.ChunkPrefetcher
	Diagonal   bool
	MaxDepth   *int
	MaxBranch  *int
}

func (t Traversal) options() []visitor.Option {
	bounds := t.Bounds
	if bounds == (extent.HeightBounds{}) {
		bounds = extent.DefaultHeightBounds()
	}
	opts := []visitor.Option{visitor.WithHeightBounds(bounds)}
	if t.Prefetcher != nil {
		opts = append(opts, visitor.WithPrefetcher(t.Prefetcher))
	}
	if t.Diagonal {
		opts = append(opts, visitor.WithDirections(visitor.DiagonalDirections))
	}
	if t.MaxDepth != nil {
		opts = append(opts, visitor.WithMaxDepth(*t.MaxDepth))
	}
	if t.MaxBranch != nil {
		opts = append(opts, visitor.WithMaxBranch(*t.MaxBranch))
	}
	return opts
}

// typeSet - множество типов по именам; отсутствующие в реестре имена пропускаются.
type typeSet map[block.TypeID]struct{}

func newTypeSet(registry *block.Registry, names ...string) typeSet {
	set := make(typeSet, len(names))
	for _, name := range names {
		if t, ok := registry.Lookup(name); ok {
			set[t.ID] = struct{}{}
		}
	}
	return set
}

func (s typeSet) has(id block.TypeID) bool {
	_, ok := s[id]
	return ok
}
