package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/2x3systems/rcmb/gorcmb"
	"github.com/2x3systems/rcmb/librcmb/series"
	"github.com/2x3systems/rcmb/librcmb/valexpr"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
)

// searchFlags are the flags shared by find and divider.
type searchFlags struct {
	target    string
	series    string
	seriesMin string
	seriesMax string
	minElems  int
	maxElems  int
	tolerance float64
	topology  string
	maxDepth  int
	filter    string
}

func (sf *searchFlags) register(flags *pflag.FlagSet, minElems, maxElems int) {
	flags.StringVarP(&sf.target, "target", "t", "", "target value(s), comma separated")
	flags.StringVarP(&sf.series, "series", "s", "e3", "series name (e.g. e24) or a comma separated list of values")
	flags.StringVar(&sf.seriesMin, "series-min", "", "smallest series value used")
	flags.StringVar(&sf.seriesMax, "series-max", "", "largest series value used")
	flags.IntVar(&sf.minElems, "min", minElems, "min number of elements")
	flags.IntVar(&sf.maxElems, "max", maxElems, "max number of elements")
	flags.Float64Var(&sf.tolerance, "tol", 0, "accepted deviation from the target in percent (0 for the default window)")
	flags.StringVar(&sf.topology, "topology", "any", "root connection: series, parallel or any")
	flags.IntVar(&sf.maxDepth, "max-depth", 0, "max nesting depth (0 for no limit)")
	flags.StringVar(&sf.filter, "filter", "nearest", "which side of the target results may fall on: exact, below, above or nearest")
}

func (sf *searchFlags) targets() ([]float64, error) {
	if sf.target == "" {
		return nil, errors.Wrap(gorcmb.ErrParameterOutOfRange, "no --target given")
	}
	return valexpr.EvalList(sf.target)
}

func (sf *searchFlags) parseModes() (gorcmb.TopologyConstraint, gorcmb.Filter, error) {
	constraint, err := gorcmb.ParseConstraint(sf.topology)
	if err != nil {
		return 0, 0, err
	}
	filter, err := gorcmb.ParseFilter(sf.filter)
	if err != nil {
		return 0, 0, err
	}
	return constraint, filter, nil
}

// values resolves --series into the values available to a search.
// A series name is expanded over [--series-min, --series-max], each bound defaulting to the given one.
func (sf *searchFlags) values(defaultMin, defaultMax float64) ([]float64, error) {
	if _, err := series.Lookup(sf.series); err != nil {
		values, listErr := valexpr.EvalList(sf.series)
		if listErr != nil {
			return nil, err
		}
		return values, nil
	}

	min, max := defaultMin, defaultMax
	var err error
	if sf.seriesMin != "" {
		if min, err = valexpr.Eval(sf.seriesMin); err != nil {
			return nil, err
		}
	}
	if sf.seriesMax != "" {
		if max, err = valexpr.Eval(sf.seriesMax); err != nil {
			return nil, err
		}
	}
	cat, err := series.Expand(sf.series, min, max)
	if err != nil {
		return nil, err
	}
	if cat.Len() == 0 {
		return nil, errors.Wrapf(gorcmb.ErrInvalidCatalog, "no %s values in [%v, %v]", sf.series, min, max)
	}
	return cat.Values(), nil
}

func writeJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeTextLine(out io.Writer, value float64, unit string, comb *gorcmb.Combination) {
	line := gorcmb.FormatValue(value, unit, true)
	if !comb.IsLeaf() {
		line += " <-- " + comb.String()
	}
	fmt.Fprintf(out, "  %s\n", line)
}

// firstError returns the first non-empty error message as an error.
func firstError(msgs ...string) error {
	for _, msg := range msgs {
		if msg != "" {
			return errors.New(msg)
		}
	}
	return nil
}
