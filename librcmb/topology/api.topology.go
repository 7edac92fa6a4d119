package topology

import (
	"strings"
)

const (
	hashPoly       uint32 = 0x80200003
	hashSeedSeries uint32 = 0x55555555
	hashSeedPar    uint32 = 0xAAAAAAAA
	hashLeaf       uint32 = 1
)

// Node is a series/parallel tree shape over the leaf slots [ILeft, IRight).
type Node struct {
	ILeft     int
	IRight    int
	Parallel  bool // meaningless for leaves
	Children  []*Node
	Depth     int    // 0 for a leaf, else 1 + max child depth
	NumLeaves int    // IRight - ILeft
	Hash      uint32 // structural hash, independent of ILeft
	Ordinal   int    // index within the list of shapes sharing this node's range and mode
}

// Key identifies a list of shapes in a Catalog
type Key struct {
	ILeft    int
	IRight   int
	Parallel bool
}

func (n *Node) IsLeaf() bool {
	return n.IRight-n.ILeft == 1
}

// SameShape reports if n and o have the same structure.
// Only meaningful for nodes of the same mode (e.g. siblings).
func (n *Node) SameShape(o *Node) bool {
	return n.Hash == o.Hash && n.NumLeaves == o.NumLeaves && n.Ordinal == o.Ordinal
}

// String renders the shape with 'o' for each leaf, e.g. "o--(o//o)".
func (n *Node) String() string {
	b := strings.Builder{}
	n.writeShape(&b, false)
	return b.String()
}

func (n *Node) writeShape(b *strings.Builder, nested bool) {
	if n.IsLeaf() {
		b.WriteByte('o')
		return
	}
	sep := "--"
	if n.Parallel {
		sep = "//"
	}
	if nested {
		b.WriteByte('(')
	}
	for i, child := range n.Children {
		if i > 0 {
			b.WriteString(sep)
		}
		child.writeShape(b, true)
	}
	if nested {
		b.WriteByte(')')
	}
}

// mix32 is the murmur3 finalizer.  It keeps the child fold from being linear in the child hashes.
func mix32(h uint32) uint32 {
	h ^= h >> 16
	h *= 0x85ebca6b
	h ^= h >> 13
	h *= 0xc2b2ae35
	h ^= h >> 16
	return h
}

// foldHash runs each (mixed) child hash through a 32-bit LFSR seeded by the node mode.
// Parallel children are folded in ascending hash order so the result is independent of child order.
func foldHash(parallel bool, children []*Node) uint32 {
	var hashes [32]uint32
	hx := hashes[:0]
	for _, child := range children {
		hx = append(hx, child.Hash)
	}

	lfsr := hashSeedSeries
	if parallel {
		lfsr = hashSeedPar
		for i := 1; i < len(hx); i++ {
			for j := i; j > 0 && hx[j-1] > hx[j]; j-- {
				hx[j-1], hx[j] = hx[j], hx[j-1]
			}
		}
	}

	for _, h := range hx {
		lfsr ^= mix32(h)
		msb := lfsr & 0x80000000
		lfsr = (lfsr & 0x7FFFFFFF) << 1
		if msb != 0 {
			lfsr ^= hashPoly
		}
	}
	return lfsr
}
