package librcmb

import (
	"math"
	"testing"

	"github.com/2x3systems/rcmb/gorcmb"
	"github.com/2x3systems/rcmb/librcmb/series"
	"github.com/2x3systems/rcmb/librcmb/topology"
	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T) *Session {
	sess := NewSession(DefaultSessionOpts())
	t.Cleanup(sess.Close)
	return sess
}

// search runs args with the nearest filter unless another non-exact filter is given.
func search(t *testing.T, sess *Session, args CombinationArgs) []*gorcmb.Combination {
	if args.Constraint == 0 {
		args.Constraint = gorcmb.Unconstrained
	}
	if args.Filter == gorcmb.FilterExact {
		args.Filter = gorcmb.FilterNearest
	}
	combs, err := sess.SearchCombinations(args)
	require.NoError(t, err)
	return combs
}

func combStrings(combs []*gorcmb.Combination) []string {
	var strs []string
	for _, comb := range combs {
		strs = append(strs, comb.String())
	}
	return strs
}

func TestSingleLeaf(t *testing.T) {
	sess := newTestSession(t)

	combs := search(t, sess, CombinationArgs{
		Values:      []float64{100, 220, 470},
		Target:      220,
		MinElements: 1,
		MaxElements: 1,
	})
	require.Len(t, combs, 1)
	assert.True(t, combs[0].IsLeaf())
	assert.Equal(t, 220.0, combs[0].Value)
	assert.Equal(t, 1, combs[0].Complexity)
}

func TestSeriesScenario(t *testing.T) {
	sess := newTestSession(t)

	combs := search(t, sess, CombinationArgs{
		Values:      []float64{100, 200},
		Target:      300,
		MinElements: 1,
		MaxElements: 2,
	})
	require.Len(t, combs, 1)
	assert.False(t, combs[0].Parallel)
	assert.Equal(t, 300.0, combs[0].Value)
	assert.Equal(t, "100--200", combs[0].String())
}

func TestParallelScenario(t *testing.T) {
	sess := newTestSession(t)

	combs := search(t, sess, CombinationArgs{
		Values:      []float64{100, 200},
		Target:      66.67,
		MinElements: 1,
		MaxElements: 3,
	})
	require.Len(t, combs, 1)
	assert.True(t, combs[0].Parallel)
	assert.Equal(t, 2, combs[0].Complexity)
	assert.InDelta(t, 200.0/3, combs[0].Value, 1e-9)
	assert.Equal(t, "100//200", combs[0].String())
}

func TestCanonicalization(t *testing.T) {
	sess := newTestSession(t)

	combs := search(t, sess, CombinationArgs{
		Values:      []float64{100},
		Target:      50,
		MinElements: 2,
		MaxElements: 2,
		Constraint:  gorcmb.ParallelOnly,
	})
	require.Len(t, combs, 1)
	assert.Equal(t, 50.0, combs[0].Value)
	assert.True(t, combs[0].Parallel)

	// Every permutation of three distinct values in a flat series network is the same network
	combs = search(t, sess, CombinationArgs{
		Values:      []float64{100, 220, 470},
		Target:      790,
		MinElements: 3,
		MaxElements: 3,
		Constraint:  gorcmb.SeriesOnly,
	})
	require.Len(t, combs, 1)
	assert.Equal(t, "100--220--470", combs[0].String())
}

func TestCapacitors(t *testing.T) {
	sess := newTestSession(t)

	combs := search(t, sess, CombinationArgs{
		Kind:        gorcmb.Capacitor,
		Values:      []float64{1e-6, 2.2e-6},
		Target:      0.5e-6,
		MinElements: 1,
		MaxElements: 2,
	})
	require.Len(t, combs, 1)
	assert.False(t, combs[0].Parallel)
	assert.Equal(t, 2, combs[0].Complexity)
	assert.InDelta(t, 0.5e-6, combs[0].Value, 1e-18)
}

func TestFilters(t *testing.T) {
	sess := newTestSession(t)
	values := []float64{100, 200}

	combs, err := sess.SearchCombinations(CombinationArgs{
		Values:      values,
		Target:      150,
		MaxElements: 2,
		Constraint:  gorcmb.Unconstrained,
		Filter:      gorcmb.FilterExact,
	})
	require.NoError(t, err)
	assert.Empty(t, combs)

	combs, err = sess.SearchCombinations(CombinationArgs{
		Values:      values,
		Target:      150,
		MaxElements: 3,
		Constraint:  gorcmb.Unconstrained,
		Filter:      gorcmb.FilterExact,
	})
	require.NoError(t, err)
	require.Len(t, combs, 1)
	assert.Equal(t, "(100//100)--100", combs[0].String())

	for _, filter := range []gorcmb.Filter{gorcmb.FilterBelow, gorcmb.FilterAbove} {
		combs = search(t, sess, CombinationArgs{
			Values:      []float64{100, 220, 470},
			Target:      333,
			MaxElements: 2,
			Filter:      filter,
		})
		require.NotEmpty(t, combs)
		for _, comb := range combs {
			if filter == gorcmb.FilterBelow {
				assert.LessOrEqual(t, comb.Value, 333.0)
			} else {
				assert.GreaterOrEqual(t, comb.Value, 333.0)
			}
		}
	}
}

func TestMaxDepthAndWindow(t *testing.T) {
	sess := newTestSession(t)

	combs := search(t, sess, CombinationArgs{
		Values:      []float64{100, 200},
		Target:      150,
		MaxElements: 3,
		MaxDepth:    1,
	})
	require.Len(t, combs, 2)
	for _, comb := range combs {
		assert.LessOrEqual(t, comb.Depth(), 1)
		assert.Equal(t, 1, comb.Complexity)
	}

	combs = search(t, sess, CombinationArgs{
		Values:      []float64{100, 200},
		Target:      150,
		TargetMin:   140,
		TargetMax:   160,
		MaxElements: 2,
	})
	assert.Empty(t, combs)
}

func TestBoundaries(t *testing.T) {
	sess := newTestSession(t)

	combs := search(t, sess, CombinationArgs{
		Values:      []float64{100, 200},
		Target:      300,
		MinElements: 3,
		MaxElements: 2,
	})
	assert.Empty(t, combs)

	combs = search(t, sess, CombinationArgs{
		Target:      300,
		MaxElements: 3,
	})
	assert.Empty(t, combs)

	_, err := sess.SearchCombinations(CombinationArgs{
		Values:      []float64{100, 0},
		Target:      300,
		MaxElements: 2,
	})
	assert.True(t, errors.Is(err, gorcmb.ErrInvalidCatalog))

	_, err = sess.SearchCombinations(CombinationArgs{
		Values:      []float64{100},
		Target:      -1,
		MaxElements: 2,
	})
	assert.True(t, errors.Is(err, gorcmb.ErrParameterOutOfRange))

	_, err = sess.SearchCombinations(CombinationArgs{
		Values:      []float64{100},
		Target:      100,
		TargetMin:   200,
		TargetMax:   150,
		MaxElements: 2,
	})
	assert.True(t, errors.Is(err, gorcmb.ErrParameterOutOfRange))
}

func TestSearchSpaceTooLarge(t *testing.T) {
	sess := newTestSession(t)

	values := make([]float64, 50)
	for i := range values {
		values[i] = float64(100 + i)
	}
	_, err := sess.SearchCombinations(CombinationArgs{
		Values:      values,
		Target:      1000,
		MaxElements: 15,
	})
	assert.True(t, errors.Is(err, gorcmb.ErrSearchSpaceTooLarge))
	assert.Equal(t, 0, sess.Topologies().NumCached(), "nothing may be enumerated before the search space is checked")

	_, err = sess.SearchCombinations(CombinationArgs{
		Values:      []float64{100},
		Target:      1000,
		MaxElements: 16,
	})
	assert.True(t, errors.Is(err, gorcmb.ErrSearchSpaceTooLarge))
}

func TestIdempotence(t *testing.T) {
	cat, err := series.Expand("e6", 100, 1000)
	require.NoError(t, err)

	args := CombinationArgs{
		Values:      cat.Values(),
		Target:      1234,
		MaxElements: 3,
	}
	A := combStrings(search(t, newTestSession(t), args))
	B := combStrings(search(t, newTestSession(t), args))
	require.NotEmpty(t, A)
	if diff := cmp.Diff(A, B); diff != "" {
		t.Fatalf("repeated search differs (-first +second):\n%s", diff)
	}
}

func TestMonotonicity(t *testing.T) {
	cat, err := series.Expand("e3", 100, 10000)
	require.NoError(t, err)

	sess := newTestSession(t)
	for _, target := range []float64{123, 777, 3141.59} {
		prevErr := math.Inf(1)
		for maxElems := 1; maxElems <= 4; maxElems++ {
			combs := search(t, sess, CombinationArgs{
				Values:      cat.Values(),
				Target:      target,
				MaxElements: maxElems,
			})
			require.NotEmpty(t, combs)
			e := math.Abs(combs[0].Value - target)
			assert.LessOrEqual(t, e, prevErr+target*1e-9, "target %v, max elements %d", target, maxElems)
			prevErr = e
		}
	}
}

// refValue evaluates a shape without pruning or canonicalization.
func refValue(kind gorcmb.ComponentKind, node *topology.Node, leaves []float64) float64 {
	if node.IsLeaf() {
		return leaves[node.ILeft]
	}
	invSum := node.Parallel == (kind == gorcmb.Resistor)
	accum := 0.0
	for _, child := range node.Children {
		v := refValue(kind, child, leaves)
		if invSum {
			accum += 1 / v
		} else {
			accum += v
		}
	}
	if invSum {
		return 1 / accum
	}
	return accum
}

// refSearch exhaustively finds the best error and the fewest elements reaching it.
func refSearch(kind gorcmb.ComponentKind, values []float64, target float64, maxElems int) (bestErr float64, bestElems int) {
	eps := target * gorcmb.RelativeEpsilon
	topos := topology.NewCatalog()

	bestErr = math.Inf(1)
	for n := 1; n <= maxElems; n++ {
		leaves := make([]float64, n)
		indices := make([]int, n)
		for _, root := range topos.Enumerate(n) {
			for i := range indices {
				indices[i] = 0
			}
			for {
				for i, idx := range indices {
					leaves[i] = values[idx]
				}
				v := refValue(kind, root, leaves)
				if v >= target/2 && v <= target*2 {
					if e := math.Abs(v - target); e < bestErr-eps {
						bestErr, bestElems = e, n
					}
				}
				if !advance(indices, n-1, len(values)) {
					break
				}
			}
		}
		if bestErr <= eps {
			break
		}
	}
	return
}

func TestAgainstExhaustiveSearch(t *testing.T) {
	cat, err := series.Expand("e6", 100, 1000)
	require.NoError(t, err)
	values := cat.Values()

	sess := newTestSession(t)
	for _, kind := range []gorcmb.ComponentKind{gorcmb.Resistor, gorcmb.Capacitor} {
		for _, target := range []float64{123, 456.7, 1000.0 / 3, 1999, 87.65} {
			const maxElems = 3
			refErr, refElems := refSearch(kind, values, target, maxElems)

			combs := search(t, sess, CombinationArgs{
				Kind:        kind,
				Values:      values,
				Target:      target,
				MaxElements: maxElems,
			})
			require.NotEmpty(t, combs, "%v target %v", kind, target)
			for _, comb := range combs {
				require.NoError(t, comb.Verify())
				require.True(t, comb.IsNormalized(), "%s", comb)
				assert.InDelta(t, refErr, math.Abs(comb.Value-target), target*1e-8, "%v target %v: %s", kind, target, comb)
				assert.Equal(t, refElems, comb.Complexity, "%v target %v: %s", kind, target, comb)
			}
		}
	}
}
