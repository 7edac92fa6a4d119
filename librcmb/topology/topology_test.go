package topology

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// OEIS A000669: series-parallel networks with n unlabeled edges, per root mode
var perModeCounts = []uint64{0, 1, 1, 2, 5, 12, 33, 90, 261, 766, 2312}

func TestEnumerateCounts(t *testing.T) {
	cat := NewCatalog()

	assert.Empty(t, cat.Enumerate(0))
	assert.Len(t, cat.Enumerate(1), 1)
	assert.Len(t, cat.Enumerate(2), 2)
	assert.Len(t, cat.Enumerate(3), 4)
	assert.Len(t, cat.Enumerate(4), 10)

	for n := 2; n <= 9; n++ {
		require.Len(t, cat.Shapes(0, n, false), int(perModeCounts[n]), "series n=%d", n)
		require.Len(t, cat.Shapes(0, n, true), int(perModeCounts[n]), "parallel n=%d", n)
	}
}

func TestCountShapes(t *testing.T) {
	for n := 1; n < len(perModeCounts); n++ {
		assert.Equal(t, perModeCounts[n], CountShapes(n), "n=%d", n)
	}
	assert.Equal(t, uint64(1), ShapeTotal(1))
	assert.Equal(t, uint64(10), ShapeTotal(4))
	assert.Equal(t, uint64(699534), CountShapes(15))
	assert.Equal(t, uint64(0), CountShapes(0))
}

func TestShapeStrings(t *testing.T) {
	cat := NewCatalog()

	var got []string
	for _, root := range cat.Enumerate(3) {
		got = append(got, root.String())
	}
	want := []string{"(o//o)--o", "o--o--o", "(o--o)//o", "o//o//o"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("shapes mismatch (-want +got):\n%s", diff)
	}
}

func TestHashUniqueness(t *testing.T) {
	cat := NewCatalog()

	for n := 1; n <= 8; n++ {
		seen := make(map[uint32]string)
		for _, root := range cat.Enumerate(n) {
			if prev, dupe := seen[root.Hash]; dupe {
				t.Fatalf("n=%d: %s and %s share hash %08x", n, prev, root.String(), root.Hash)
			}
			seen[root.Hash] = root.String()
		}
	}
}

func TestPositionIndependence(t *testing.T) {
	cat := NewCatalog()

	for _, parallel := range []bool{false, true} {
		A := cat.Shapes(0, 5, parallel)
		B := cat.Shapes(3, 8, parallel)
		require.Equal(t, len(A), len(B))
		for i := range A {
			assert.Equal(t, A[i].Hash, B[i].Hash)
			assert.Equal(t, A[i].Ordinal, B[i].Ordinal)
			assert.Equal(t, A[i].String(), B[i].String())
			assert.True(t, A[i].SameShape(B[i]))
			assert.Equal(t, 3, B[i].ILeft)
		}
	}
}

func TestNodeInvariants(t *testing.T) {
	cat := NewCatalog()

	var check func(node *Node) int
	check = func(node *Node) int {
		require.Equal(t, node.IRight-node.ILeft, node.NumLeaves)
		if node.IsLeaf() {
			require.Equal(t, 0, node.Depth)
			require.Equal(t, hashLeaf, node.Hash)
			return 0
		}

		require.GreaterOrEqual(t, len(node.Children), 2)
		pos, depth := node.ILeft, 0
		for i, child := range node.Children {
			require.Equal(t, pos, child.ILeft, "children must partition the range contiguously")
			if !child.IsLeaf() {
				require.NotEqual(t, node.Parallel, child.Parallel)
			}
			if i > 0 {
				require.LessOrEqual(t, child.NumLeaves, node.Children[i-1].NumLeaves)
			}
			if d := check(child) + 1; d > depth {
				depth = d
			}
			pos = child.IRight
		}
		require.Equal(t, node.IRight, pos)
		require.Equal(t, depth, node.Depth)
		return depth
	}

	for n := 1; n <= 7; n++ {
		for _, root := range cat.Enumerate(n) {
			check(root)
		}
	}
}

func TestParallelHashOrderInsensitive(t *testing.T) {
	leaf := &Node{ILeft: 0, IRight: 1, NumLeaves: 1, Hash: hashLeaf}
	pair := newNode(Key{1, 3, false}, []*Node{
		{ILeft: 1, IRight: 2, NumLeaves: 1, Hash: hashLeaf},
		{ILeft: 2, IRight: 3, NumLeaves: 1, Hash: hashLeaf},
	}, 0)

	assert.Equal(t, foldHash(true, []*Node{leaf, pair}), foldHash(true, []*Node{pair, leaf}))
	assert.NotEqual(t, foldHash(false, []*Node{leaf, pair}), foldHash(false, []*Node{pair, leaf}))
}

func TestConcurrentShapes(t *testing.T) {
	cat := NewCatalog()

	const workers = 8
	results := make([][]*Node, workers)
	wg := sync.WaitGroup{}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = cat.Enumerate(7)
		}(i)
	}
	wg.Wait()

	for i := 1; i < workers; i++ {
		require.Equal(t, len(results[0]), len(results[i]))
		for j := range results[0] {
			assert.Same(t, results[0][j], results[i][j])
		}
	}
	assert.Greater(t, cat.NumCached(), 0)
}
