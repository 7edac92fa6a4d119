package gorcmb

import (
	"io"
)

const (

	// MaxCombinationElements is the largest leaf count a single network may have.
	MaxCombinationElements = 15

	// DefaultMaxSearchSpace bounds the number of (shape, assignment) candidates a search may visit.
	DefaultMaxSearchSpace = 1e15

	// DividerRatioEpsilon is the absolute tolerance used when comparing divider ratios.
	DividerRatioEpsilon = 1e-9

	// RelativeEpsilon scales a target value into the tolerance used when comparing combination values.
	RelativeEpsilon = 1e-9
)

// ComponentKind selects how values combine in series and in parallel.
type ComponentKind int32

const (
	Resistor ComponentKind = iota
	Capacitor
)

// TopologyConstraint restricts the mode of a network's root node.
// Single element networks are never rejected.
type TopologyConstraint int32

const (
	SeriesOnly TopologyConstraint = 1 << iota
	ParallelOnly

	Unconstrained = SeriesOnly | ParallelOnly
)

// Filter selects which side of the target a result value may fall on.
type Filter int32

const (
	FilterExact Filter = 0
	FilterBelow Filter = 1 << (iota - 1)
	FilterAbove

	FilterNearest = FilterBelow | FilterAbove
)

// CombinationRequest describes a search for networks approximating Target.
//
// A target window is in effect when TargetMin or TargetMax is non-zero (a zero TargetMax then denotes no upper bound).
// A zero Constraint is treated as Unconstrained and MaxDepth <= 0 means no depth limit.
type CombinationRequest struct {
	Kind        ComponentKind      `json:"kind"`
	Values      []float64          `json:"values"`
	MinElements int                `json:"minElements"`
	MaxElements int                `json:"maxElements"`
	Constraint  TopologyConstraint `json:"topologyConstraint"`
	MaxDepth    int                `json:"maxDepth"`
	Target      float64            `json:"target"`
	TargetMin   float64            `json:"targetMin"`
	TargetMax   float64            `json:"targetMax"`
	Filter      Filter             `json:"filter"`
}

// DividerRequest describes a search for two resistor networks whose ratio lower/(upper+lower) approximates Target.
type DividerRequest struct {
	Values      []float64          `json:"values"`
	MinElements int                `json:"minElements"`
	MaxElements int                `json:"maxElements"`
	Constraint  TopologyConstraint `json:"topologyConstraint"`
	MaxDepth    int                `json:"maxDepth"`
	TotalMin    float64            `json:"totalMin"`
	TotalMax    float64            `json:"totalMax"`
	Target      float64            `json:"target"`
	TargetMin   float64            `json:"targetMin"`
	TargetMax   float64            `json:"targetMax"`
	Filter      Filter             `json:"filter"`
}

// ResultMeta reports on the work done to produce a result.
type ResultMeta struct {
	NumTopologies int     `json:"numTopologies"` // topology cache entries held after the search
	TimeSpent     float64 `json:"timeSpent"`     // milliseconds
}

// CombinationResult is the outcome of a CombinationRequest.
// When Error is set, Results is always empty.
type CombinationResult struct {
	Error   string         `json:"error"`
	Results []*Combination `json:"results"`
	Meta    *ResultMeta    `json:"meta,omitempty"`
}

// DividerResult is the outcome of a DividerRequest.
type DividerResult struct {
	Error   string                `json:"error"`
	Results []*DividerCombination `json:"results"`
	Meta    *ResultMeta           `json:"meta,omitempty"`
}

// Backend runs searches.  Implementations never panic or return Go errors across this boundary;
// failures are reported in a result's Error field.
type Backend interface {
	FindCombinations(req CombinationRequest) CombinationResult
	FindDividers(req DividerRequest) DividerResult
}

// Printer renders a value in human readable form.
type Printer interface {
	WriteAsString(out io.Writer, opts PrintOpts)
}

// PrintOpts specifies how a combination or divider is printed
type PrintOpts struct {
	Label  string // Prefix label
	Indent string // Prepended once per tree level
	Prefix bool   // If set, values are printed with SI prefixes and a unit
}

// DefaultPrintOpts{}
var DefaultPrintOpts = PrintOpts{
	Indent: "    ",
	Prefix: true,
}
