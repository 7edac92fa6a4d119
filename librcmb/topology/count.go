package topology

// MaxCountedLeaves is the largest leaf count CountShapes tabulates.
const MaxCountedLeaves = 24

var shapeCounts = tabulateShapeCounts(MaxCountedLeaves)

// CountShapes returns the number of distinct shapes over leafCount leaves whose root has a given mode
// (the same for either mode), without enumerating them.
func CountShapes(leafCount int) uint64 {
	if leafCount < 1 || leafCount > MaxCountedLeaves {
		return 0
	}
	return shapeCounts[leafCount]
}

// ShapeTotal returns the number of roots Enumerate(leafCount) yields.
func ShapeTotal(leafCount int) uint64 {
	if leafCount == 1 {
		return 1
	}
	return 2 * CountShapes(leafCount)
}

// A shape over n leaves is a multiset of at least two opposite mode shapes whose sizes sum to n.
func tabulateShapeCounts(N int) []uint64 {
	counts := make([]uint64, N+1)
	counts[1] = 1

	for n := 2; n <= N; n++ {
		ways := make([]uint64, n+1)
		ways[0] = 1
		for s := 1; s < n; s++ {
			next := make([]uint64, n+1)
			for m, w := range ways {
				if w == 0 {
					continue
				}
				for k := 0; m+k*s <= n; k++ {
					next[m+k*s] += w * multichoose(counts[s], k)
				}
			}
			ways = next
		}
		counts[n] = ways[n]
	}
	return counts
}

// multichoose returns the number of multisets of size k drawn from x kinds.
func multichoose(x uint64, k int) uint64 {
	r := uint64(1)
	for i := uint64(1); i <= uint64(k); i++ {
		r = r * (x + i - 1) / i
	}
	return r
}
