package series

import (
	"math"

	"github.com/2x3systems/rcmb/gorcmb"
	"github.com/emirpasic/gods/trees/redblacktree"
	"github.com/pkg/errors"
)

// Catalog is an immutable, ascending, duplicate free list of available component values.
type Catalog struct {
	tree   *redblacktree.Tree
	values []float64
}

func compareValues(A, B interface{}) int {
	a, b := A.(float64), B.(float64)
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// NewCatalog validates, sorts and de-duplicates the given values.
// An empty input yields an empty catalog; a non-positive, NaN or infinite value is rejected.
func NewCatalog(values []float64) (*Catalog, error) {
	cat := &Catalog{
		tree: redblacktree.NewWith(compareValues),
	}

	for i, v := range values {
		if !(v > 0) || math.IsInf(v, 0) {
			return nil, errors.Wrapf(gorcmb.ErrInvalidCatalog, "value #%d is %v", i, v)
		}
		cat.tree.Put(v, nil)
	}

	cat.values = make([]float64, 0, cat.tree.Size())
	itr := cat.tree.Iterator()
	for itr.Next() {
		cat.values = append(cat.values, itr.Key().(float64))
	}
	return cat, nil
}

// Values returns the catalog's values in ascending order.  The slice must not be modified.
func (cat *Catalog) Values() []float64 {
	return cat.values
}

func (cat *Catalog) Len() int {
	return len(cat.values)
}

func (cat *Catalog) Contains(v float64) bool {
	_, found := cat.tree.Get(v)
	return found
}

// Nearest returns the catalog value closest to v.
func (cat *Catalog) Nearest(v float64) (float64, bool) {
	floor, hasFloor := cat.tree.Floor(v)
	ceil, hasCeil := cat.tree.Ceiling(v)
	switch {
	case hasFloor && hasCeil:
		lo, hi := floor.Key.(float64), ceil.Key.(float64)
		if v-lo <= hi-v {
			return lo, true
		}
		return hi, true
	case hasFloor:
		return floor.Key.(float64), true
	case hasCeil:
		return ceil.Key.(float64), true
	}
	return 0, false
}

// Range returns the catalog values within [min, max].
func (cat *Catalog) Range(min, max float64) []float64 {
	var out []float64
	for _, v := range cat.values {
		if v > max {
			break
		}
		if v >= min {
			out = append(out, v)
		}
	}
	return out
}
