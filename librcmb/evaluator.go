package librcmb

import (
	"math"

	"github.com/2x3systems/rcmb/gorcmb"
	"github.com/2x3systems/rcmb/librcmb/topology"
)

// evaluator computes the value of a shape given one catalog index per leaf slot.
type evaluator struct {
	kind     gorcmb.ComponentKind
	values   []float64
	indices  []int
	lastLeaf int // furthest leaf slot read by the most recent eval
}

// eval returns the value of node under the current indices, or false if the node (or any of its children) falls outside [min, max]
// or the assignment is a non-canonical permutation of its siblings.
//
// Leaves are read in ascending slot order, so after a failed eval the outcome depends only on slots [0, lastLeaf].
// If comb is non-nil, the resulting Combination tree is stored there.
func (ev *evaluator) eval(node *topology.Node, min, max float64, comb **gorcmb.Combination) (float64, bool) {
	if node.IsLeaf() {
		ev.lastLeaf = node.ILeft
		val := ev.values[ev.indices[node.ILeft]]
		if val < min || val > max {
			return 0, false
		}
		if comb != nil {
			*comb = gorcmb.NewLeaf(ev.kind, val)
		}
		return val, true
	}

	invSum := node.Parallel == (ev.kind == gorcmb.Resistor)

	var children []*gorcmb.Combination
	if comb != nil {
		children = make([]*gorcmb.Combination, len(node.Children))
	}

	accum := 0.0
	prevVal := 0.0
	last := len(node.Children) - 1
	for i, child := range node.Children {
		childMin, childMax := 0.0, math.Inf(1)
		if invSum {
			if i == last {
				partial := 1 / accum
				if partial <= min {
					return 0, false
				}
				childMin = partial * min / (partial - min)
				if max < partial {
					childMax = partial * max / (partial - max)
				}
			} else {
				childMin = min
			}
		} else {
			if i == last {
				childMin = min - accum
			}
			childMax = max - accum
		}

		var childComb **gorcmb.Combination
		if comb != nil {
			childComb = &children[i]
		}
		val, ok := ev.eval(child, childMin, childMax, childComb)
		if !ok {
			return 0, false
		}

		// Identical adjacent shapes must be assigned non-decreasing values
		if i > 0 && val < prevVal && child.SameShape(node.Children[i-1]) {
			return 0, false
		}
		prevVal = val

		if invSum {
			accum += 1 / val
		} else {
			accum += val
		}
	}

	value := accum
	if invSum {
		value = 1 / accum
	}
	if value < min || value > max {
		return 0, false
	}

	if comb != nil {
		*comb = &gorcmb.Combination{
			Kind:       ev.kind,
			Parallel:   node.Parallel,
			Value:      value,
			Children:   children,
			Complexity: node.NumLeaves,
		}
	}
	return value, true
}

// build returns the Combination for node under the current indices, which are assumed to be canonical.
func (ev *evaluator) build(node *topology.Node) *gorcmb.Combination {
	var comb *gorcmb.Combination
	ev.eval(node, 0, math.Inf(1), &comb)
	return comb
}

// advance steps indices (slot 0 most significant) to the next assignment that differs within slots [0, pos],
// resetting the slots after pos.  Returns false once every assignment has been visited.
func advance(indices []int, pos, radix int) bool {
	for i := pos + 1; i < len(indices); i++ {
		indices[i] = 0
	}
	for i := pos; i >= 0; i-- {
		indices[i]++
		if indices[i] < radix {
			return true
		}
		indices[i] = 0
	}
	return false
}
