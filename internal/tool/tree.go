package tool

import (
	"context"

	"github.com/annel0/voxedit/internal/extent"
	"github.com/annel0/voxedit/internal/vec"
	"github.com/annel0/voxedit/internal/visitor"
	"github.com/annel0/voxedit/internal/world/block"
)

// DefaultTreeRange - радиус поиска дерева от точки клика.
const DefaultTreeRange = 100

// FloatingTreeRemover удаляет «висящие» деревья и грибы: связную группу
// стволов и листвы, которая нигде не касается земли стволом.
type FloatingTreeRemover struct {
	// RangeSq - квадрат радиуса поиска; 0 - DefaultTreeRange².
	RangeSq   int
	Traversal Traversal
}

type treeSets struct {
	artifacts   typeSet // листва, лианы: касание земли допустимо
	tree        typeSet // artifacts + стволы и грибные блоки
	terminating typeSet // пустота, снег: обход просто останавливается
}

func newTreeSets(registry *block.Registry) treeSets {
	artifacts := newTypeSet(registry, "leaves", "leaves2", "vine")
	tree := newTypeSet(registry, "log", "log2", "brown_mushroom_block", "red_mushroom_block")
	for id := range artifacts {
		tree[id] = struct{}{}
	}
	terminating := newTypeSet(registry, "snow_layer")
	terminating[registry.Air().Type] = struct{}{}
	return treeSets{artifacts: artifacts, tree: tree, terminating: terminating}
}

// Act удаляет дерево, содержащее pos. Возвращает число удалённых блоков,
// ErrNotTree для не-дерева и ErrNotFloating, если ствол касается твёрдого блока.
func (r FloatingTreeRemover) Act(ctx context.Context, ed Editor, pos vec.Vec3) (int, error) {
	registry := ed.Registry()
	sets := newTreeSets(registry)
	if !sets.tree.has(ed.GetBlock(pos).Type) {
		return 0, ErrNotTree
	}

	rangeSq := r.RangeSq
	if rangeSq <= 0 {
		rangeSq = DefaultTreeRange * DefaultTreeRange
	}

	grounded := false
	var search *visitor.BreadthFirstSearch
	predicate := func(from, to vec.Vec3) bool {
		next := ed.GetBlock(to).Type
		switch {
		case sets.terminating.has(next):
			return false
		case sets.tree.has(next):
			return true
		}
		// Твёрдый блок: листве можно, стволу нельзя
		if !sets.artifacts.has(ed.GetBlock(from).Type) {
			grounded = true
			search.Cancel()
		}
		return false
	}

	opts := append(r.Traversal.options(), visitor.WithDirections(visitor.DefaultDirections))
	search = visitor.New(visitor.WithinRange(predicate, pos, rangeSq), extent.Noop, opts...)
	search.Visit(pos)
	if err := search.Run(ctx); err != nil {
		return 0, err
	}
	if grounded {
		return 0, ErrNotFloating
	}

	air := registry.Air()
	removed := 0
	for p := range search.Visited() {
		if !sets.tree.has(ed.GetBlock(p).Type) {
			continue
		}
		changed, err := ed.SetBlock(p, air)
		if err != nil {
			return removed, err
		}
		if changed {
			removed++
		}
	}
	return removed, nil
}
