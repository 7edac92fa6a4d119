package topology

import (
	"fmt"
	"sync"

	"github.com/plan-systems/klog"
	"golang.org/x/sync/singleflight"
)

// Catalog generates and caches every series/parallel shape per (range, mode).
//
// A given key is computed exactly once and is read-only thereafter, so a Catalog is safe for concurrent use.
type Catalog struct {
	mu     sync.RWMutex
	shapes map[Key][]*Node
	group  singleflight.Group
}

func NewCatalog() *Catalog {
	return &Catalog{
		shapes: make(map[Key][]*Node),
	}
}

// NumCached returns the number of (range, mode) keys generated so far.
func (cat *Catalog) NumCached() int {
	cat.mu.RLock()
	defer cat.mu.RUnlock()
	return len(cat.shapes)
}

// Enumerate returns every shape over [0, leafCount): series roots followed by parallel roots.
// A single leaf is returned for leafCount == 1.
func (cat *Catalog) Enumerate(leafCount int) []*Node {
	if leafCount < 1 {
		return nil
	}
	series := cat.Shapes(0, leafCount, false)
	if leafCount == 1 {
		return series
	}
	par := cat.Shapes(0, leafCount, true)

	roots := make([]*Node, 0, len(series)+len(par))
	roots = append(roots, series...)
	roots = append(roots, par...)
	return roots
}

// Shapes returns every shape over [iLeft, iRight) whose root has the given mode.
// The returned slice is shared and must not be modified.
func (cat *Catalog) Shapes(iLeft, iRight int, parallel bool) []*Node {
	key := Key{iLeft, iRight, parallel}

	cat.mu.RLock()
	nodes, ok := cat.shapes[key]
	cat.mu.RUnlock()
	if ok {
		return nodes
	}

	val, _, _ := cat.group.Do(fmt.Sprintf("%d:%d:%v", iLeft, iRight, parallel), func() (any, error) {
		cat.mu.RLock()
		nodes, ok := cat.shapes[key]
		cat.mu.RUnlock()
		if ok {
			return nodes, nil
		}

		nodes = cat.generate(key)

		cat.mu.Lock()
		cat.shapes[key] = nodes
		cat.mu.Unlock()

		klog.V(3).Infof("topology [%d,%d) parallel=%v: %d shapes", iLeft, iRight, parallel, len(nodes))
		return nodes, nil
	})
	return val.([]*Node)
}

func (cat *Catalog) generate(key Key) []*Node {
	n := key.IRight - key.ILeft
	if n < 1 {
		return nil
	}
	if n == 1 {
		return []*Node{{
			ILeft:     key.ILeft,
			IRight:    key.IRight,
			Parallel:  key.Parallel,
			NumLeaves: 1,
			Hash:      hashLeaf,
		}}
	}

	var nodes []*Node
	forEachPartition(n, func(parts []int) {
		childLists := make([][]*Node, len(parts))
		pos := key.ILeft
		for i, w := range parts {
			childLists[i] = cat.Shapes(pos, pos+w, !key.Parallel)
			pos += w
		}

		children := make([]*Node, len(parts))
		var emit func(ci int)
		emit = func(ci int) {
			if ci == len(parts) {
				nodes = append(nodes, newNode(key, children, len(nodes)))
				return
			}
			for _, child := range childLists[ci] {

				// Within a run of equally sized parts, emit each multiset of child shapes once
				if ci > 0 && parts[ci] == parts[ci-1] && child.Ordinal < children[ci-1].Ordinal {
					continue
				}
				children[ci] = child
				emit(ci + 1)
			}
		}
		emit(0)
	})

	return nodes
}

func newNode(key Key, children []*Node, ordinal int) *Node {
	node := &Node{
		ILeft:     key.ILeft,
		IRight:    key.IRight,
		Parallel:  key.Parallel,
		Children:  append([]*Node(nil), children...),
		NumLeaves: key.IRight - key.ILeft,
		Ordinal:   ordinal,
	}
	for _, child := range children {
		if child.Depth+1 > node.Depth {
			node.Depth = child.Depth + 1
		}
	}
	node.Hash = foldHash(key.Parallel, node.Children)
	return node
}

// forEachPartition calls fn with every partition of n into at least two non-increasing parts.
// The parts slice is reused between calls.
func forEachPartition(n int, fn func(parts []int)) {
	parts := make([]int, 0, n)

	var divide func(remain, maxPart int)
	divide = func(remain, maxPart int) {
		if remain == 0 {
			fn(parts)
			return
		}
		if maxPart > remain {
			maxPart = remain
		}
		for w := maxPart; w >= 1; w-- {
			parts = append(parts, w)
			divide(remain-w, w)
			parts = parts[:len(parts)-1]
		}
	}
	divide(n, n-1)
}
