package librcmb

import (
	"math"

	"github.com/2x3systems/rcmb/gorcmb"
	"github.com/2x3systems/rcmb/librcmb/series"
	"github.com/pkg/errors"
	"github.com/plan-systems/klog"
)

// CombinationArgs specifies a combination search.
//
// A target window applies when TargetMin or TargetMax is non-zero (a zero TargetMax denotes no upper bound),
// otherwise results are limited to [Target/2, Target*2].
type CombinationArgs struct {
	Kind        gorcmb.ComponentKind
	Values      []float64
	Target      float64
	TargetMin   float64
	TargetMax   float64
	MinElements int
	MaxElements int
	Constraint  gorcmb.TopologyConstraint
	MaxDepth    int // <= 0 means unlimited
	Filter      gorcmb.Filter
}

func (args *CombinationArgs) window() (lo, hi float64) {
	if args.TargetMin == 0 && args.TargetMax == 0 {
		return args.Target / 2, args.Target * 2
	}
	lo, hi = args.TargetMin, args.TargetMax
	if hi == 0 {
		hi = math.Inf(1)
	}
	return
}

func (args *CombinationArgs) validate() error {
	if !isFinitePositive(args.Target) {
		return errors.Wrapf(gorcmb.ErrParameterOutOfRange, "target value %v", args.Target)
	}
	if args.TargetMin < 0 || math.IsNaN(args.TargetMin) || math.IsNaN(args.TargetMax) ||
		(args.TargetMax != 0 && args.TargetMin > args.TargetMax) {
		return errors.Wrapf(gorcmb.ErrParameterOutOfRange, "target window [%v, %v]", args.TargetMin, args.TargetMax)
	}
	return nil
}

// SearchCombinations finds the networks whose value is closest to args.Target, preferring fewer elements on a tie.
//
// Every returned Combination has the same (minimal) complexity.
// An empty catalog or an empty element range yields no results and no error.
func (sess *Session) SearchCombinations(args CombinationArgs) ([]*gorcmb.Combination, error) {
	if sess.isClosed() {
		return nil, gorcmb.ErrSessionClosed
	}

	cat, err := series.NewCatalog(args.Values)
	if err != nil {
		return nil, err
	}
	if err = args.validate(); err != nil {
		return nil, err
	}
	if args.MinElements < 1 {
		args.MinElements = 1
	}
	if cat.Len() == 0 || args.MaxElements < args.MinElements {
		return nil, nil
	}

	space := combinationSpace(cat.Len(), args.MinElements, args.MaxElements)
	if err = sess.checkSearchSpace(args.MaxElements, space); err != nil {
		return nil, err
	}

	args.Values = cat.Values()
	best := sess.searchCombinations(&args)

	for _, comb := range best {
		if err = comb.Verify(); err != nil {
			return nil, err
		}
	}
	return best, nil
}

// searchCombinations assumes args has been validated and args.Values is sorted and unique.
func (sess *Session) searchCombinations(args *CombinationArgs) []*gorcmb.Combination {
	target := args.Target
	eps := target * gorcmb.RelativeEpsilon
	winMin, winMax := args.window()

	ev := evaluator{
		kind:   args.Kind,
		values: args.Values,
	}
	radix := len(args.Values)

	bestErr := math.Inf(1)
	bestElems := math.MaxInt
	var best []*gorcmb.Combination

	for numElems := args.MinElements; numElems <= args.MaxElements; numElems++ {
		indices := make([]int, numElems)
		ev.indices = indices

		for _, root := range sess.topos.Enumerate(numElems) {
			if numElems >= 2 && !args.Constraint.Allows(root.Parallel) {
				continue
			}
			if args.MaxDepth > 0 && root.Depth > args.MaxDepth {
				continue
			}

			for i := range indices {
				indices[i] = 0
			}
			for {
				lo, hi := winMin-eps, winMax+eps
				if bestErr < math.Inf(1) {
					lo = math.Max(lo, target-bestErr-eps)
					hi = math.Min(hi, target+bestErr+eps)
				}

				next := numElems - 1
				value, ok := ev.eval(root, lo, hi, nil)
				if !ok {
					next = ev.lastLeaf
				} else if args.Filter.Admits(value, target, eps) {
					diff := math.Abs(value - target)
					accept := true
					if diff-eps > bestErr {
						accept = false
					} else if diff+eps >= bestErr && numElems > bestElems {
						accept = false
					}
					if accept {
						if diff+eps < bestErr || numElems < bestElems {
							best = best[:0]
						}
						bestErr = diff
						bestElems = numElems

						best = append(best, ev.build(root))
					}
				}

				if !advance(indices, next, radix) {
					break
				}
			}
		}

		klog.V(2).Infof("%d elements: %d results, best error %g", numElems, len(best), bestErr)

		if bestErr <= eps {
			break
		}
	}

	return filterSimplest(best)
}

// filterSimplest keeps only the combinations with the fewest elements.
func filterSimplest(combs []*gorcmb.Combination) []*gorcmb.Combination {
	bestComplexity := math.MaxInt
	for _, comb := range combs {
		if comb.Complexity < bestComplexity {
			bestComplexity = comb.Complexity
		}
	}
	out := combs[:0]
	for _, comb := range combs {
		if comb.Complexity == bestComplexity {
			out = append(out, comb)
		}
	}
	return out
}
