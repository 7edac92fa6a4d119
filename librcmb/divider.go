package librcmb

import (
	"math"

	"github.com/2x3systems/rcmb/gorcmb"
	"github.com/2x3systems/rcmb/librcmb/series"
	"github.com/2x3systems/rcmb/librcmb/topology"
	"github.com/pkg/errors"
	"github.com/plan-systems/klog"
)

// DividerArgs specifies a divider search where ratio = lower / (upper + lower).
//
// A ratio window applies when RatioMin or RatioMax is non-zero (a zero RatioMax denotes 1).
type DividerArgs struct {
	Values      []float64
	TargetRatio float64
	RatioMin    float64
	RatioMax    float64
	TotalMin    float64
	TotalMax    float64
	MinElements int // min element count of the lower arm
	MaxElements int // max element count of both arms together
	Constraint  gorcmb.TopologyConstraint
	MaxDepth    int
	Filter      gorcmb.Filter
}

func (args *DividerArgs) window() (lo, hi float64) {
	lo, hi = args.RatioMin, args.RatioMax
	if hi == 0 {
		hi = 1
	}
	return
}

func (args *DividerArgs) validate() error {
	if !(args.TargetRatio > 0 && args.TargetRatio < 1) {
		return errors.Wrapf(gorcmb.ErrParameterOutOfRange, "target ratio %v must be within (0, 1)", args.TargetRatio)
	}
	lo, hi := args.window()
	if !(lo >= 0 && lo <= hi && hi <= 1) {
		return errors.Wrapf(gorcmb.ErrParameterOutOfRange, "ratio window [%v, %v]", args.RatioMin, args.RatioMax)
	}
	if !isFinitePositive(args.TotalMin) || !isFinitePositive(args.TotalMax) || args.TotalMin > args.TotalMax {
		return errors.Wrapf(gorcmb.ErrParameterOutOfRange, "total range [%v, %v]", args.TotalMin, args.TotalMax)
	}
	return nil
}

// SearchDividers finds the dividers whose ratio is closest to args.TargetRatio, preferring fewer total elements on a tie.
func (sess *Session) SearchDividers(args DividerArgs) ([]*gorcmb.DividerCombination, error) {
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
	if cat.Len() == 0 || args.MaxElements-1 < args.MinElements {
		return nil, nil
	}

	space := dividerSpace(cat.Len(), args.MinElements, args.MaxElements)
	if err = sess.checkSearchSpace(args.MaxElements, space); err != nil {
		return nil, err
	}

	args.Values = cat.Values()
	best := sess.searchDividers(&args)

	for _, div := range best {
		if err = div.Verify(); err != nil {
			return nil, err
		}
	}
	return best, nil
}

func (sess *Session) searchDividers(args *DividerArgs) []*gorcmb.DividerCombination {
	const eps = gorcmb.DividerRatioEpsilon

	ratioMin, ratioMax := args.window()
	lowerMin, lowerMax := args.TotalMin*ratioMin, args.TotalMax*ratioMax

	upperArgs := CombinationArgs{
		Kind:        gorcmb.Resistor,
		Values:      args.Values,
		TargetMin:   args.TotalMin * (1 - ratioMax),
		TargetMax:   args.TotalMax * (1 - ratioMin),
		MinElements: 1,
		Constraint:  args.Constraint,
		MaxDepth:    args.MaxDepth,
		Filter:      args.Filter.Mirror(),
	}

	ev := evaluator{
		kind:   gorcmb.Resistor,
		values: args.Values,
	}
	radix := len(args.Values)

	bestErr := math.Inf(1)
	bestElems := math.MaxInt
	var best []*gorcmb.DividerCombination

	// Dividers found so far, keyed by the quantized value of their lower arm
	memo := make(map[uint32]*gorcmb.DividerCombination)

	for lowerElems := args.MinElements; lowerElems < args.MaxElements; lowerElems++ {
		indices := make([]int, lowerElems)
		ev.indices = indices

		for _, root := range sess.topos.Enumerate(lowerElems) {
			if lowerElems >= 2 && !args.Constraint.Allows(root.Parallel) {
				continue
			}
			if args.MaxDepth > 0 && root.Depth > args.MaxDepth {
				continue
			}

			for i := range indices {
				indices[i] = 0
			}
			for {
				upperMaxElems := args.MaxElements - lowerElems
				if bestErr < eps {
					upperMaxElems = bestElems - lowerElems
					if upperMaxElems <= 0 {
						return finishDividers(best)
					}
				}

				next := lowerElems - 1
				lower, ok := ev.eval(root, lowerMin, lowerMax, nil)
				if !ok {
					next = ev.lastLeaf
				} else {
					div, diff, numElems := sess.tryLower(args, &upperArgs, memo, &ev, root, lower, lowerElems, upperMaxElems, bestElems)
					if div != nil {
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
							best = append(best, div)
							memo[gorcmb.ValueKey(lower)] = div
						}
					}
				}

				if !advance(indices, next, radix) {
					break
				}
			}
		}

		klog.V(2).Infof("divider lower arm %d elements: %d results, best error %g", lowerElems, len(best), bestErr)
	}

	return finishDividers(best)
}

// tryLower completes a divider for the lower arm currently assigned in ev, returning nil if no divider qualifies.
// A lower value already in memo is added as an alternative lower arm of that divider instead.
func (sess *Session) tryLower(
	args *DividerArgs,
	upperArgs *CombinationArgs,
	memo map[uint32]*gorcmb.DividerCombination,
	ev *evaluator,
	root *topology.Node,
	lower float64,
	lowerElems int,
	upperMaxElems int,
	bestElems int,
) (div *gorcmb.DividerCombination, diff float64, numElems int) {
	const eps = gorcmb.DividerRatioEpsilon

	total := lower / args.TargetRatio
	if total < args.TotalMin || total > args.TotalMax {
		return
	}

	if known := memo[gorcmb.ValueKey(lower)]; known != nil {
		memoLowers := known.Lowers[0].Complexity
		if lowerElems <= memoLowers && known.Complexity() <= bestElems {
			known.Lowers = append(known.Lowers, ev.build(root))
			klog.V(3).Infof("divider memo hit: lower %g", lower)
		}
		return
	}

	upperArgs.Target = total - lower
	upperArgs.MaxElements = upperMaxElems
	uppers := sess.searchCombinations(upperArgs)
	if len(uppers) == 0 {
		return
	}

	upper := uppers[0].Value
	ratio := lower / (upper + lower)
	if !args.Filter.Admits(ratio, args.TargetRatio, eps) {
		return
	}
	if lo, hi := args.window(); ratio < lo-eps || ratio > hi+eps {
		return
	}
	if sum := upper + lower; sum < args.TotalMin-eps || sum > args.TotalMax+eps {
		return
	}

	div = &gorcmb.DividerCombination{
		Ratio:  ratio,
		Uppers: uppers,
		Lowers: []*gorcmb.Combination{ev.build(root)},
	}
	return div, math.Abs(ratio - args.TargetRatio), lowerElems + uppers[0].Complexity
}

func finishDividers(best []*gorcmb.DividerCombination) []*gorcmb.DividerCombination {
	for _, div := range best {
		div.Uppers = filterSimplest(div.Uppers)
		div.Lowers = filterSimplest(div.Lowers)
	}
	return best
}
