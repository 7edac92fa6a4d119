package librcmb

import (
	"time"

	"github.com/2x3systems/rcmb/gorcmb"
	"github.com/2x3systems/rcmb/librcmb/topology"
	"github.com/plan-systems/klog"
)

// Backend is the native gorcmb.Backend.  Each request runs in its own Session; topologies are shared across requests.
type Backend struct {
	opts SessionOpts
}

var _ gorcmb.Backend = (*Backend)(nil)

// NewBackend returns a Backend, safe for concurrent use.
func NewBackend(opts SessionOpts) *Backend {
	if opts.Topologies == nil {
		opts.Topologies = topology.NewCatalog()
	}
	return &Backend{
		opts: opts,
	}
}

var defaultBackend = NewBackend(DefaultSessionOpts())

// FindCombinations runs req on the default Backend.
func FindCombinations(req gorcmb.CombinationRequest) gorcmb.CombinationResult {
	return defaultBackend.FindCombinations(req)
}

// FindDividers runs req on the default Backend.
func FindDividers(req gorcmb.DividerRequest) gorcmb.DividerResult {
	return defaultBackend.FindDividers(req)
}

func (be *Backend) FindCombinations(req gorcmb.CombinationRequest) gorcmb.CombinationResult {
	start := time.Now()

	sess := NewSession(be.opts)
	defer sess.Close()

	combs, err := sess.SearchCombinations(CombinationArgs{
		Kind:        req.Kind,
		Values:      req.Values,
		Target:      req.Target,
		TargetMin:   req.TargetMin,
		TargetMax:   req.TargetMax,
		MinElements: req.MinElements,
		MaxElements: req.MaxElements,
		Constraint:  req.Constraint,
		MaxDepth:    req.MaxDepth,
		Filter:      req.Filter,
	})

	res := gorcmb.CombinationResult{
		Results: []*gorcmb.Combination{},
		Meta:    be.meta(start),
	}
	if err != nil {
		klog.Warningf("combination search rejected: %v", err)
		res.Error = err.Error()
	} else if len(combs) > 0 {
		res.Results = combs
	}
	return res
}

func (be *Backend) FindDividers(req gorcmb.DividerRequest) gorcmb.DividerResult {
	start := time.Now()

	sess := NewSession(be.opts)
	defer sess.Close()

	divs, err := sess.SearchDividers(DividerArgs{
		Values:      req.Values,
		TargetRatio: req.Target,
		RatioMin:    req.TargetMin,
		RatioMax:    req.TargetMax,
		TotalMin:    req.TotalMin,
		TotalMax:    req.TotalMax,
		MinElements: req.MinElements,
		MaxElements: req.MaxElements,
		Constraint:  req.Constraint,
		MaxDepth:    req.MaxDepth,
		Filter:      req.Filter,
	})

	res := gorcmb.DividerResult{
		Results: []*gorcmb.DividerCombination{},
		Meta:    be.meta(start),
	}
	if err != nil {
		klog.Warningf("divider search rejected: %v", err)
		res.Error = err.Error()
	} else if len(divs) > 0 {
		res.Results = divs
	}
	return res
}

func (be *Backend) meta(start time.Time) *gorcmb.ResultMeta {
	return &gorcmb.ResultMeta{
		NumTopologies: be.opts.Topologies.NumCached(),
		TimeSpent:     float64(time.Since(start).Microseconds()) / 1000,
	}
}
