package gorcmb

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/pkg/errors"
)

// Combination is a series/parallel network with a concrete value assigned to every leaf.
type Combination struct {
	Kind       ComponentKind
	Parallel   bool // meaningless for leaves
	Value      float64
	Children   []*Combination
	Complexity int // number of leaves
}

// NewLeaf returns a single element network.
func NewLeaf(kind ComponentKind, value float64) *Combination {
	return &Combination{
		Kind:       kind,
		Value:      value,
		Complexity: 1,
	}
}

func (c *Combination) IsLeaf() bool {
	return len(c.Children) == 0
}

// Depth returns 0 for a leaf, otherwise 1 + the max depth of its children.
func (c *Combination) Depth() int {
	depth := 0
	for _, child := range c.Children {
		if d := child.Depth() + 1; d > depth {
			depth = d
		}
	}
	return depth
}

// Recompute combines leaf values bottom-up, ignoring the stored Value of internal nodes.
func (c *Combination) Recompute() float64 {
	if c.IsLeaf() {
		return c.Value
	}
	invSum := c.Parallel == (c.Kind == Resistor)
	accum := 0.0
	for _, child := range c.Children {
		v := child.Recompute()
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

// Verify checks the tree is well formed and that every stored value agrees with its leaves.
func (c *Combination) Verify() error {
	if c.IsLeaf() {
		if c.Complexity != 1 {
			return errors.Wrapf(ErrBrokenTopology, "leaf complexity is %d", c.Complexity)
		}
		if !(c.Value > 0) || math.IsInf(c.Value, 0) {
			return errors.Wrapf(ErrInaccurateResult, "leaf value %v", c.Value)
		}
		return nil
	}

	if len(c.Children) < 2 {
		return errors.Wrap(ErrBrokenTopology, "internal node with a single child")
	}

	leaves := 0
	for _, child := range c.Children {
		if child.Kind != c.Kind {
			return errors.Wrap(ErrBrokenTopology, "mixed component kinds")
		}
		if !child.IsLeaf() && child.Parallel == c.Parallel {
			return errors.Wrap(ErrBrokenTopology, "child shares its parent's mode")
		}
		if err := child.Verify(); err != nil {
			return err
		}
		leaves += child.Complexity
	}
	if leaves != c.Complexity {
		return errors.Wrapf(ErrBrokenTopology, "complexity %d, but %d leaves", c.Complexity, leaves)
	}

	actual := c.Recompute()
	if math.Abs(actual-c.Value) > c.Value*RelativeEpsilon {
		return errors.Wrapf(ErrInaccurateResult, "%s: stored %v, actual %v", c.String(), c.Value, actual)
	}
	return nil
}

// IsNormalized reports whether adjacent siblings of identical shape appear in non-decreasing value order, recursively.
// Each network found by a search is normalized, so no two results are permutations of one another.
func (c *Combination) IsNormalized() bool {
	epsilon := c.Value * RelativeEpsilon
	for i := 1; i < len(c.Children); i++ {
		prev, curr := c.Children[i-1], c.Children[i]
		if sameShape(prev, curr) && prev.Value > curr.Value+epsilon {
			return false
		}
	}
	for _, child := range c.Children {
		if !child.IsNormalized() {
			return false
		}
	}
	return true
}

func sameShape(a, b *Combination) bool {
	if len(a.Children) != len(b.Children) || a.Complexity != b.Complexity {
		return false
	}
	if a.IsLeaf() {
		return true
	}
	if a.Parallel != b.Parallel {
		return false
	}
	for i := range a.Children {
		if !sameShape(a.Children[i], b.Children[i]) {
			return false
		}
	}
	return true
}

// MarshalJSON renders a leaf as a bare number and an internal node as {parallel, value, children}.
func (c *Combination) MarshalJSON() ([]byte, error) {
	if c.IsLeaf() {
		return json.Marshal(c.Value)
	}
	return json.Marshal(struct {
		Parallel bool           `json:"parallel"`
		Value    float64        `json:"value"`
		Children []*Combination `json:"children"`
	}{
		Parallel: c.Parallel,
		Value:    c.Value,
		Children: c.Children,
	})
}

// String returns a compact one-line form, e.g. "100--(220//470)".
// Series is written "--" and parallel "//".
func (c *Combination) String() string {
	b := strings.Builder{}
	c.writeCompact(&b, false)
	return b.String()
}

func (c *Combination) writeCompact(b *strings.Builder, nested bool) {
	if c.IsLeaf() {
		b.WriteString(FormatValue(c.Value, "", false))
		return
	}
	sep := "--"
	if c.Parallel {
		sep = "//"
	}
	if nested {
		b.WriteByte('(')
	}
	for i, child := range c.Children {
		if i > 0 {
			b.WriteString(sep)
		}
		child.writeCompact(b, true)
	}
	if nested {
		b.WriteByte(')')
	}
}

func (c *Combination) Unit() string {
	if c.Kind == Capacitor {
		return "F"
	}
	return "Ω"
}

// WriteAsString prints the tree one node per line, children indented below their parent.
func (c *Combination) WriteAsString(out io.Writer, opts PrintOpts) {
	c.writeTree(out, opts, opts.Label)
}

func (c *Combination) writeTree(out io.Writer, opts PrintOpts, indent string) {
	unit := ""
	if opts.Prefix {
		unit = c.Unit()
	}
	val := FormatValue(c.Value, unit, opts.Prefix)
	if c.IsLeaf() {
		fmt.Fprintf(out, "%s%s\n", indent, val)
		return
	}
	mode := "Series"
	if c.Parallel {
		mode = "Parallel"
	}
	fmt.Fprintf(out, "%s%s (%s):\n", indent, mode, val)
	for _, child := range c.Children {
		child.writeTree(out, opts, indent+opts.Indent)
	}
}

// DividerCombination is a voltage divider: Uppers and Lowers are equally good alternatives for each arm.
type DividerCombination struct {
	Ratio  float64        `json:"ratio"`
	Uppers []*Combination `json:"uppers"`
	Lowers []*Combination `json:"lowers"`
}

// Total returns the sum of the first upper and lower arm.
func (d *DividerCombination) Total() float64 {
	return d.Uppers[0].Value + d.Lowers[0].Value
}

// Complexity returns the element count of the simplest upper and lower arm.
func (d *DividerCombination) Complexity() int {
	return d.Uppers[0].Complexity + d.Lowers[0].Complexity
}

// RatioRange returns the min, typical and max ratio when every element deviates by up to +/- tol (e.g. 0.01 for 1%).
func (d *DividerCombination) RatioRange(tol float64) (min, typ, max float64) {
	up, lo := d.Uppers[0].Value, d.Lowers[0].Value
	typ = lo / (up + lo)
	loMin, loMax := lo*(1-tol), lo*(1+tol)
	upMin, upMax := up*(1-tol), up*(1+tol)
	min = loMin / (loMin + upMax)
	max = loMax / (loMax + upMin)
	return
}

func (d *DividerCombination) Verify() error {
	if len(d.Uppers) == 0 || len(d.Lowers) == 0 {
		return errors.Wrap(ErrBrokenTopology, "divider arm is missing")
	}
	for _, arm := range [][]*Combination{d.Uppers, d.Lowers} {
		for _, comb := range arm {
			if err := comb.Verify(); err != nil {
				return err
			}
		}
	}
	up, lo := d.Uppers[0].Value, d.Lowers[0].Value
	if actual := lo / (up + lo); math.Abs(actual-d.Ratio) > DividerRatioEpsilon {
		return errors.Wrapf(ErrInaccurateResult, "ratio stored %v, actual %v", d.Ratio, actual)
	}
	return nil
}

func (d *DividerCombination) String() string {
	b := strings.Builder{}
	d.WriteAsString(&b, DefaultPrintOpts)
	return b.String()
}

// WriteAsString prints the ratio, the total and the first upper and lower arm.
func (d *DividerCombination) WriteAsString(out io.Writer, opts PrintOpts) {
	unit := ""
	if opts.Prefix {
		unit = "Ω"
	}
	fmt.Fprintf(out, "%sR2 / (R1 + R2) = %.6f\n", opts.Label, d.Ratio)
	fmt.Fprintf(out, "%sR1 + R2 = %s\n", opts.Label, FormatValue(d.Total(), unit, opts.Prefix))
	fmt.Fprintf(out, "%sR1:\n", opts.Label)
	d.Uppers[0].writeTree(out, opts, opts.Label+opts.Indent)
	fmt.Fprintf(out, "%sR2:\n", opts.Label)
	d.Lowers[0].writeTree(out, opts, opts.Label+opts.Indent)
}
