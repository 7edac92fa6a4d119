package series

import (
	"sort"
	"strings"

	"github.com/2x3systems/rcmb/gorcmb"
	"github.com/pkg/errors"
)

// Each table lists one decade of preferred values, scaled by 100 (e.g. 470 is 4.7).
var tables = map[string][]int{
	"e1":  {100},
	"e3":  {100, 220, 470},
	"e6":  {100, 150, 220, 330, 470, 680},
	"e12": {100, 120, 150, 180, 220, 270, 330, 390, 470, 560, 680, 820},
	"e24": {
		100, 110, 120, 130, 150, 160, 180, 200, 220, 240, 270, 300,
		330, 360, 390, 430, 470, 510, 560, 620, 680, 750, 820, 910,
	},
	"e48": {
		100, 105, 110, 115, 121, 127, 133, 140, 147, 154, 162, 169,
		178, 187, 196, 205, 215, 226, 237, 249, 261, 274, 287, 301,
		316, 332, 348, 365, 383, 402, 422, 442, 464, 487, 511, 536,
		562, 590, 619, 649, 681, 715, 750, 787, 825, 866, 909, 953,
	},
	"e96": {
		100, 102, 105, 107, 110, 113, 115, 118, 121, 124, 127, 130, 133, 137,
		140, 143, 147, 150, 154, 158, 162, 165, 169, 174, 178, 182, 187, 191,
		196, 200, 205, 210, 215, 221, 226, 232, 237, 243, 249, 255, 261, 267,
		274, 280, 287, 294, 301, 309, 316, 324, 332, 340, 348, 357, 365, 374,
		383, 392, 402, 412, 422, 432, 442, 453, 464, 475, 487, 499, 511, 523,
		536, 549, 562, 576, 590, 604, 619, 634, 649, 665, 681, 698, 715, 732,
		750, 768, 787, 806, 825, 845, 866, 887, 909, 931, 953, 976,
	},
	"e192": {
		100, 101, 102, 104, 105, 106, 107, 109, 110, 111, 113, 114, 115, 117, 118,
		120, 121, 123, 124, 126, 127, 129, 130, 132, 133, 135, 137, 138, 140, 142,
		143, 145, 147, 149, 150, 152, 154, 156, 158, 160, 162, 164, 165, 167, 169,
		172, 174, 176, 178, 180, 182, 184, 187, 189, 191, 193, 196, 198, 200, 203,
		205, 208, 210, 213, 215, 218, 221, 223, 226, 229, 232, 234, 237, 240, 243,
		246, 249, 252, 255, 258, 261, 264, 267, 271, 274, 277, 280, 284, 287, 291,
		294, 298, 301, 305, 309, 312, 316, 320, 324, 328, 332, 336, 340, 344, 348,
		352, 357, 361, 365, 370, 374, 379, 383, 388, 392, 397, 402, 407, 412, 417,
		422, 427, 432, 437, 442, 448, 453, 459, 464, 470, 475, 481, 487, 493, 499,
		505, 511, 517, 523, 530, 536, 542, 549, 556, 562, 569, 576, 583, 590, 597,
		604, 612, 619, 626, 634, 642, 649, 657, 665, 673, 681, 690, 698, 706, 715,
		723, 732, 741, 750, 759, 768, 777, 787, 796, 806, 816, 825, 835, 845, 856,
		866, 876, 887, 898, 909, 920, 931, 942, 953, 965, 976, 988,
	},
}

func init() {
	tables["e24_e48"] = union("e24", "e48")
	tables["e24_e96"] = union("e24", "e96")
	tables["e24_e192"] = union("e24", "e192")
}

func union(names ...string) []int {
	seen := make(map[int]struct{})
	var merged []int
	for _, name := range names {
		for _, v := range tables[name] {
			if _, dupe := seen[v]; !dupe {
				seen[v] = struct{}{}
				merged = append(merged, v)
			}
		}
	}
	sort.Ints(merged)
	return merged
}

const (
	minDecade = -12
	maxDecade = 15
)

// Names returns the identifiers Lookup accepts, sorted.
func Names() []string {
	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the single decade [1, 10) of the named series ("E24", "e24_e96", ...).
func Lookup(name string) ([]float64, error) {
	table, ok := tables[normalizeName(name)]
	if !ok {
		return nil, errors.Wrapf(gorcmb.ErrInvalidCatalog, "unknown series %q", name)
	}
	decade := make([]float64, len(table))
	for i, v := range table {
		decade[i] = float64(v) / 100
	}
	return decade, nil
}

// Expand returns every value of the named series within [min, max], over all decades.
// Bounds are matched with a relative slack of 1e-6 so "4.7k" admits 4700.
func Expand(name string, min, max float64) (*Catalog, error) {
	table, ok := tables[normalizeName(name)]
	if !ok {
		return nil, errors.Wrapf(gorcmb.ErrInvalidCatalog, "unknown series %q", name)
	}
	if !(min > 0) || !(max >= min) {
		return nil, errors.Wrapf(gorcmb.ErrParameterOutOfRange, "series range [%v, %v]", min, max)
	}

	var values []float64
	for exp := minDecade; exp <= maxDecade; exp++ {
		scale := exp - 3
		for _, v := range table {
			var val float64
			if scale >= 0 {
				val = float64(v) * gorcmb.Pow10(scale)
			} else {
				val = float64(v) / gorcmb.Pow10(-scale)
			}
			slack := val / 1e6
			if min-slack <= val && val <= max+slack {
				values = append(values, val)
			}
		}
	}

	cat, err := NewCatalog(values)
	if err != nil {
		return nil, errors.Wrapf(err, "series %q in [%v, %v]", name, min, max)
	}
	return cat, nil
}

func normalizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, "+", "_")
	return strings.ReplaceAll(name, "-", "_")
}
