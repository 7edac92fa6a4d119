package pyrcmb

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/2x3systems/rcmb/gorcmb"
	"github.com/2x3systems/rcmb/librcmb"
	"github.com/2x3systems/rcmb/librcmb/series"
	"github.com/2x3systems/rcmb/librcmb/valexpr"
	"github.com/go-python/gpython/py"
)

var (
	LIB_VERSION = "v1.2026.1"
)

var (
	pyCombinationType = py.NewType("Combination", "a series/parallel network of components")
	pyDividerType     = py.NewType("Divider", "a resistor divider: lower / (upper + lower)")
)

type pyCombination struct {
	*gorcmb.Combination
}

func (X pyCombination) Type() *py.Type {
	return pyCombinationType
}

func (X pyCombination) M__str__() (py.Object, error) {
	return py.String(X.String()), nil
}

func (X pyCombination) M__repr__() (py.Object, error) {
	return X.M__str__()
}

func py_Combination_Value(self py.Object, args py.Tuple) (py.Object, error) {
	X := self.(pyCombination)
	return py.Float(X.Value), nil
}

func py_Combination_Complexity(self py.Object, args py.Tuple) (py.Object, error) {
	X := self.(pyCombination)
	return py.Int(X.Complexity), nil
}

func py_Combination_Parallel(self py.Object, args py.Tuple) (py.Object, error) {
	X := self.(pyCombination)
	return py.Bool(!X.IsLeaf() && X.Parallel), nil
}

func py_Combination_Children(self py.Object, args py.Tuple) (py.Object, error) {
	X := self.(pyCombination)
	return wrapCombinations(X.Children), nil
}

func py_Combination_Print(self py.Object, args py.Tuple, kwargs py.StringDict) (py.Object, error) {
	X := self.(pyCombination)
	return printTo(X.Combination, args, kwargs)
}

type pyDivider struct {
	*gorcmb.DividerCombination
}

func (div pyDivider) Type() *py.Type {
	return pyDividerType
}

func (div pyDivider) M__str__() (py.Object, error) {
	return py.String(div.String()), nil
}

func (div pyDivider) M__repr__() (py.Object, error) {
	return div.M__str__()
}

func py_Divider_Ratio(self py.Object, args py.Tuple) (py.Object, error) {
	div := self.(pyDivider)
	return py.Float(div.Ratio), nil
}

func py_Divider_Uppers(self py.Object, args py.Tuple) (py.Object, error) {
	div := self.(pyDivider)
	return wrapCombinations(div.Uppers), nil
}

func py_Divider_Lowers(self py.Object, args py.Tuple) (py.Object, error) {
	div := self.(pyDivider)
	return wrapCombinations(div.Lowers), nil
}

// Arg 1 (float): element tolerance, e.g. 0.01 for 1%
// Returns (min, typ, max)
func py_Divider_RatioRange(self py.Object, args py.Tuple) (py.Object, error) {
	div := self.(pyDivider)
	var tolObj py.Object
	if err := py.ParseTuple(args, "O", &tolObj); err != nil {
		return nil, err
	}
	tol, err := toFloat(tolObj)
	if err != nil {
		return nil, err
	}
	lo, typ, hi := div.RatioRange(tol)
	return py.Tuple{py.Float(lo), py.Float(typ), py.Float(hi)}, nil
}

func py_Divider_Print(self py.Object, args py.Tuple, kwargs py.StringDict) (py.Object, error) {
	div := self.(pyDivider)
	return printTo(div.DividerCombination, args, kwargs)
}

func wrapCombinations(combs []*gorcmb.Combination) py.Tuple {
	out := make(py.Tuple, len(combs))
	for i, comb := range combs {
		out[i] = pyCombination{comb}
	}
	return out
}

type echoToWriter struct {
	stdout *os.File
	to     io.WriteCloser
}

func (echo *echoToWriter) Write(buf []byte) (int, error) {
	if echo.to == nil {
		return echo.stdout.Write(buf)
	}
	return echo.to.Write(buf)
}

func (echo *echoToWriter) Close() error {
	if echo.to != nil {
		return echo.to.Close()
	}
	return nil
}

// printTo writes the tree form of a result to stdout or to the file named by the "file" kwarg.
func printTo(out gorcmb.Printer, args py.Tuple, kwargs py.StringDict) (py.Object, error) {
	var pathname string

	opts := gorcmb.DefaultPrintOpts
	py.LoadTuple(args, []interface{}{&opts.Label})
	if opts.Label == "" {
		py.LoadAttr(kwargs, "label", &opts.Label)
	}
	py.LoadAttr(kwargs, "prefix", &opts.Prefix)
	py.LoadAttr(kwargs, "file", &pathname)

	writer := &echoToWriter{
		stdout: os.Stdout,
	}
	if len(pathname) > 0 {
		os.MkdirAll(filepath.Dir(pathname), 0700)

		file, err := os.OpenFile(pathname, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0600)
		if err != nil {
			return nil, py.ExceptionNewf(py.FileNotFoundError, "%v", err)
		}
		writer.to = file
	}

	out.WriteAsString(writer, opts)
	if err := writer.Close(); err != nil {
		return nil, py.ExceptionNewf(py.OSError, "%v", err)
	}
	return py.None, nil
}

// toFloat accepts an int, a float, or a value expression string such as "4.7k".
func toFloat(obj py.Object) (float64, error) {
	switch v := obj.(type) {
	case py.Float:
		return float64(v), nil
	case py.Int:
		return float64(v), nil
	case py.String:
		f, err := valexpr.Eval(string(v))
		if err != nil {
			return 0, py.ExceptionNewf(py.ValueError, "%v", err)
		}
		return f, nil
	}
	return 0, py.ExceptionNewf(py.TypeError, "expected a number or value expression (got %v)", obj.Type().Name)
}

func toFloats(obj py.Object) ([]float64, error) {
	var items []py.Object
	switch v := obj.(type) {
	case py.Tuple:
		items = v
	case *py.List:
		items = v.Items
	case py.String:
		values, err := valexpr.EvalList(string(v))
		if err != nil {
			return nil, py.ExceptionNewf(py.ValueError, "%v", err)
		}
		return values, nil
	default:
		return nil, py.ExceptionNewf(py.TypeError, "expected a list of values (got %v)", obj.Type().Name)
	}
	values := make([]float64, len(items))
	for i, item := range items {
		v, err := toFloat(item)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

// searchArgs are the optional keyword args shared by find_combinations and find_dividers.
type searchArgs struct {
	minElements int
	maxElements int
	constraint  gorcmb.TopologyConstraint
	maxDepth    int
	filter      gorcmb.Filter
	targetMin   float64
	targetMax   float64
}

func loadSearchArgs(kwargs py.StringDict, args *searchArgs) error {
	var err error
	for key, dst := range map[string]*int{
		"min_elements": &args.minElements,
		"max_elements": &args.maxElements,
		"max_depth":    &args.maxDepth,
	} {
		if obj, exists := kwargs[key]; exists {
			n, err := py.GetInt(obj)
			if err != nil {
				return err
			}
			*dst = int(n)
		}
	}
	for key, dst := range map[string]*float64{
		"target_min": &args.targetMin,
		"target_max": &args.targetMax,
	} {
		if obj, exists := kwargs[key]; exists {
			if *dst, err = toFloat(obj); err != nil {
				return err
			}
		}
	}

	if s, exists := kwargs["topology"]; exists {
		if args.constraint, err = gorcmb.ParseConstraint(stringArg(s)); err != nil {
			return py.ExceptionNewf(py.ValueError, "%v", err)
		}
	}
	if s, exists := kwargs["filter"]; exists {
		if args.filter, err = gorcmb.ParseFilter(stringArg(s)); err != nil {
			return py.ExceptionNewf(py.ValueError, "%v", err)
		}
	}
	return nil
}

// stringArg returns the str value of obj, or "" if obj is not a str.
func stringArg(obj py.Object) string {
	if s, isStr := obj.(py.String); isStr {
		return string(s)
	}
	return ""
}

// Arg 1 (list): available values
// Arg 2 (float): target value
// kwargs: kind, min_elements, max_elements, topology, max_depth, filter, target_min, target_max
func py_FindCombinations(module py.Object, args py.Tuple, kwargs py.StringDict) (py.Object, error) {
	var valuesObj, targetObj py.Object
	if err := py.ParseTuple(args, "OO", &valuesObj, &targetObj); err != nil {
		return nil, err
	}
	values, err := toFloats(valuesObj)
	if err != nil {
		return nil, err
	}
	target, err := toFloat(targetObj)
	if err != nil {
		return nil, err
	}

	kind := gorcmb.Resistor
	if s, exists := kwargs["kind"]; exists {
		if kind, err = gorcmb.ParseKind(stringArg(s)); err != nil {
			return nil, py.ExceptionNewf(py.ValueError, "%v", err)
		}
	}

	opts := searchArgs{
		minElements: 1,
		maxElements: 3,
		constraint:  gorcmb.Unconstrained,
		filter:      gorcmb.FilterNearest,
	}
	if err = loadSearchArgs(kwargs, &opts); err != nil {
		return nil, err
	}

	res := librcmb.FindCombinations(gorcmb.CombinationRequest{
		Kind:        kind,
		Values:      values,
		MinElements: opts.minElements,
		MaxElements: opts.maxElements,
		Constraint:  opts.constraint,
		MaxDepth:    opts.maxDepth,
		Target:      target,
		TargetMin:   opts.targetMin,
		TargetMax:   opts.targetMax,
		Filter:      opts.filter,
	})
	if res.Error != "" {
		return nil, py.ExceptionNewf(py.ValueError, "%s", res.Error)
	}
	return wrapCombinations(res.Results), nil
}

// Arg 1 (list): available values
// Arg 2 (float): target ratio, lower / (upper + lower)
// Arg 3 (float): min total resistance
// Arg 4 (float): max total resistance
// kwargs: min_elements, max_elements, topology, max_depth, filter, target_min, target_max
func py_FindDividers(module py.Object, args py.Tuple, kwargs py.StringDict) (py.Object, error) {
	var valuesObj, ratioObj, totalMinObj, totalMaxObj py.Object
	if err := py.ParseTuple(args, "OOOO", &valuesObj, &ratioObj, &totalMinObj, &totalMaxObj); err != nil {
		return nil, err
	}
	values, err := toFloats(valuesObj)
	if err != nil {
		return nil, err
	}
	var ratio, totalMin, totalMax float64
	for _, pair := range []struct {
		obj py.Object
		dst *float64
	}{
		{ratioObj, &ratio},
		{totalMinObj, &totalMin},
		{totalMaxObj, &totalMax},
	} {
		if *pair.dst, err = toFloat(pair.obj); err != nil {
			return nil, err
		}
	}

	opts := searchArgs{
		minElements: 1,
		maxElements: 4,
		constraint:  gorcmb.Unconstrained,
		filter:      gorcmb.FilterNearest,
	}
	if err = loadSearchArgs(kwargs, &opts); err != nil {
		return nil, err
	}

	res := librcmb.FindDividers(gorcmb.DividerRequest{
		Values:      values,
		MinElements: opts.minElements,
		MaxElements: opts.maxElements,
		Constraint:  opts.constraint,
		MaxDepth:    opts.maxDepth,
		TotalMin:    totalMin,
		TotalMax:    totalMax,
		Target:      ratio,
		TargetMin:   opts.targetMin,
		TargetMax:   opts.targetMax,
		Filter:      opts.filter,
	})
	if res.Error != "" {
		return nil, py.ExceptionNewf(py.ValueError, "%s", res.Error)
	}

	out := make(py.Tuple, len(res.Results))
	for i, div := range res.Results {
		out[i] = pyDivider{div}
	}
	return out, nil
}

// Arg 1 (str): series name, e.g. "E24"
// Arg 2 (float): min value
// Arg 3 (float): max value
func py_Series(module py.Object, args py.Tuple) (py.Object, error) {
	var nameObj, minObj, maxObj py.Object
	if err := py.ParseTuple(args, "OOO", &nameObj, &minObj, &maxObj); err != nil {
		return nil, err
	}
	name := stringArg(nameObj)
	min, err := toFloat(minObj)
	if err != nil {
		return nil, err
	}
	max, err := toFloat(maxObj)
	if err != nil {
		return nil, err
	}

	cat, err := series.Expand(name, min, max)
	if err != nil {
		return nil, py.ExceptionNewf(py.ValueError, "%v", err)
	}
	values := cat.Values()
	out := make(py.Tuple, len(values))
	for i, v := range values {
		out[i] = py.Float(v)
	}
	return out, nil
}

// Arg 1 (float): value
// Arg 2 (str, optional): unit, e.g. "Ω"
func py_FormatValue(module py.Object, args py.Tuple) (py.Object, error) {
	var valueObj, unitObj py.Object
	if err := py.ParseTuple(args, "O|O", &valueObj, &unitObj); err != nil {
		return nil, err
	}
	value, err := toFloat(valueObj)
	if err != nil {
		return nil, err
	}
	return py.String(gorcmb.FormatValue(value, stringArg(unitObj), true)), nil
}

// Arg 1 (str): value expression, e.g. "(10k+22k)*2"
func py_Eval(module py.Object, args py.Tuple) (py.Object, error) {
	var exprObj py.Object
	if err := py.ParseTuple(args, "O", &exprObj); err != nil {
		return nil, err
	}
	v, err := toFloat(exprObj)
	if err != nil {
		return nil, err
	}
	return py.Float(v), nil
}

func init() {

	/////////////////////////////////
	// Combination
	{
		pyCombinationType.Dict["Value"] = py.MustNewMethod("Value", py_Combination_Value, 0, "the network's combined value")
		pyCombinationType.Dict["Complexity"] = py.MustNewMethod("Complexity", py_Combination_Complexity, 0, "number of elements")
		pyCombinationType.Dict["Parallel"] = py.MustNewMethod("Parallel", py_Combination_Parallel, 0, "")
		pyCombinationType.Dict["Children"] = py.MustNewMethod("Children", py_Combination_Children, 0, "")
		pyCombinationType.Dict["Print"] = py.MustNewMethod("Print", py_Combination_Print, 0, "prints the network as a tree")
	}

	/////////////////////////////////
	// Divider
	{
		pyDividerType.Dict["Ratio"] = py.MustNewMethod("Ratio", py_Divider_Ratio, 0, "")
		pyDividerType.Dict["Uppers"] = py.MustNewMethod("Uppers", py_Divider_Uppers, 0, "")
		pyDividerType.Dict["Lowers"] = py.MustNewMethod("Lowers", py_Divider_Lowers, 0, "")
		pyDividerType.Dict["RatioRange"] = py.MustNewMethod("RatioRange", py_Divider_RatioRange, 0, "ratio spread (min, typ, max) for a given element tolerance")
		pyDividerType.Dict["Print"] = py.MustNewMethod("Print", py_Divider_Print, 0, "prints both arms as trees")
	}

	{
		methods := []*py.Method{
			py.MustNewMethod("find_combinations", py_FindCombinations, 0, "finds the simplest networks closest to a target value"),
			py.MustNewMethod("find_dividers", py_FindDividers, 0, "finds the simplest dividers closest to a target ratio"),
			py.MustNewMethod("series", py_Series, 0, "expands an E-series between two values"),
			py.MustNewMethod("format_value", py_FormatValue, 0, ""),
			py.MustNewMethod("eval", py_Eval, 0, "evaluates a value expression such as '4.7k'"),
		}

		globals := py.StringDict{
			"LIB_VERSION":  py.String(LIB_VERSION),
			"MAX_ELEMENTS": py.Int(gorcmb.MaxCombinationElements),
			"SERIES":       py.String(strings.Join(series.Names(), ",")),
		}

		py.RegisterModule(&py.ModuleImpl{
			Info: py.ModuleInfo{
				Name: "rcmb",
				Doc:  "resistor and capacitor combination search",
			},
			Methods: methods,
			Globals: globals,
		})
	}
}
