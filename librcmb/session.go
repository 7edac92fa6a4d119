package librcmb

import (
	"math"

	"github.com/2x3systems/rcmb/gorcmb"
	"github.com/2x3systems/rcmb/librcmb/topology"
	"github.com/pkg/errors"
)

// SessionOpts configures a Session
type SessionOpts struct {

	// MaxSearchSpace bounds the estimated number of (shape, assignment) candidates of a search.
	MaxSearchSpace float64

	// Topologies is an optional topology catalog shared with other sessions.  If nil, the session creates its own.
	Topologies *topology.Catalog
}

// DefaultSessionOpts{}
func DefaultSessionOpts() SessionOpts {
	return SessionOpts{
		MaxSearchSpace: gorcmb.DefaultMaxSearchSpace,
	}
}

// Session owns the caches a search builds.  A Session must not be used from more than one goroutine at a time.
type Session struct {
	opts  SessionOpts
	topos *topology.Catalog
}

func NewSession(opts SessionOpts) *Session {
	if opts.MaxSearchSpace <= 0 {
		opts.MaxSearchSpace = gorcmb.DefaultMaxSearchSpace
	}
	sess := &Session{
		opts:  opts,
		topos: opts.Topologies,
	}
	if sess.topos == nil {
		sess.topos = topology.NewCatalog()
	}
	return sess
}

// Topologies returns the topology catalog this session enumerates shapes from.
func (sess *Session) Topologies() *topology.Catalog {
	return sess.topos
}

// Close releases this session's caches.
func (sess *Session) Close() {
	sess.topos = nil
}

func (sess *Session) isClosed() bool {
	return sess.topos == nil
}

// combinationSpace estimates the number of candidates a combination search over [minElems, maxElems] visits.
func combinationSpace(numValues, minElems, maxElems int) float64 {
	space := 0.0
	for n := minElems; n <= maxElems; n++ {
		space += float64(topology.ShapeTotal(n)) * math.Pow(float64(numValues), float64(n))
	}
	return space
}

// dividerSpace estimates the number of candidates a divider search visits: each lower arm candidate runs an upper arm search.
func dividerSpace(numValues, minElems, maxElems int) float64 {
	space := 0.0
	for n := minElems; n < maxElems; n++ {
		lowers := float64(topology.ShapeTotal(n)) * math.Pow(float64(numValues), float64(n))
		space += lowers * (1 + combinationSpace(numValues, 1, maxElems-n))
	}
	return space
}

func (sess *Session) checkSearchSpace(maxElems int, space float64) error {
	if maxElems > gorcmb.MaxCombinationElements {
		return errors.Wrapf(gorcmb.ErrSearchSpaceTooLarge, "%d elements requested, max is %d", maxElems, gorcmb.MaxCombinationElements)
	}
	if space > sess.opts.MaxSearchSpace {
		return errors.Wrapf(gorcmb.ErrSearchSpaceTooLarge, "estimated %.3g candidates exceeds limit of %.3g", space, sess.opts.MaxSearchSpace)
	}
	return nil
}

func isFinitePositive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}
