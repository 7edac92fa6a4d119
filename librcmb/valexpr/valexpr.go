// Package valexpr evaluates the numeric expressions users type in for component values and targets.
//
// An operand is a decimal number optionally followed by an SI prefix, e.g. "4.7k", "100n", "2.2 M".
// Operands combine with + - * / and parentheses, e.g. "(10k+22k)*2" or "3.3/5".
package valexpr

import (
	"math"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/pkg/errors"
)

var (
	ErrSyntax  = errors.New("invalid value expression")
	ErrNoValue = errors.New("expression has no finite value")
)

var valueLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Number", Pattern: `\d+(\.\d+)?([eE][-+]?\d+)?`},
	{Name: "Prefix", Pattern: `[pnuμmkKMGT]`},
	{Name: "Punct", Pattern: `[-+*/(),]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

// List is one or more comma separated expressions.
type List struct {
	Items []*Expression `@@ ( "," @@ )*`
}

type Expression struct {
	Left  *Term     `@@`
	Right []*OpTerm `@@*`
}

type OpTerm struct {
	Op   string `@( "+" | "-" )`
	Term *Term  `@@`
}

type Term struct {
	Left  *Factor     `@@`
	Right []*OpFactor `@@*`
}

type OpFactor struct {
	Op     string  `@( "*" | "/" )`
	Factor *Factor `@@`
}

type Factor struct {
	Sign   string      `@( "+" | "-" )?`
	Number *Number     `( @@`
	Sub    *Expression `| "(" @@ ")" )`
}

type Number struct {
	Value  float64 `@Number`
	Prefix string  `@Prefix?`
}

func buildParser[G any]() *participle.Parser[G] {
	return participle.MustBuild[G](
		participle.Lexer(valueLexer),
		participle.Elide("Whitespace"),
	)
}

var (
	parseExpression = buildParser[Expression]()
	parseList       = buildParser[List]()
)

// Eval parses and evaluates a single expression.
func Eval(expr string) (float64, error) {
	X, err := parseExpression.ParseString("", expr)
	if err != nil {
		return 0, errors.Wrapf(ErrSyntax, "%q: %v", expr, err)
	}
	return checked(expr, X.Eval())
}

// EvalList parses and evaluates comma separated expressions, e.g. "1k, 2.2k, 4.7k".
func EvalList(exprs string) ([]float64, error) {
	L, err := parseList.ParseString("", exprs)
	if err != nil {
		return nil, errors.Wrapf(ErrSyntax, "%q: %v", exprs, err)
	}
	values := make([]float64, 0, len(L.Items))
	for _, X := range L.Items {
		v, err := checked(exprs, X.Eval())
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}

func checked(expr string, v float64) (float64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.Wrapf(ErrNoValue, "%q", expr)
	}
	return v, nil
}

func (X *Expression) Eval() float64 {
	v := X.Left.Eval()
	for _, r := range X.Right {
		if r.Op == "+" {
			v += r.Term.Eval()
		} else {
			v -= r.Term.Eval()
		}
	}
	return v
}

func (T *Term) Eval() float64 {
	v := T.Left.Eval()
	for _, r := range T.Right {
		if r.Op == "*" {
			v *= r.Factor.Eval()
		} else {
			v /= r.Factor.Eval()
		}
	}
	return v
}

func (F *Factor) Eval() float64 {
	var v float64
	if F.Number != nil {
		v = F.Number.Value * PrefixScale(F.Number.Prefix)
	} else {
		v = F.Sub.Eval()
	}
	if F.Sign == "-" {
		v = -v
	}
	return v
}

// PrefixScale returns the multiplier of an SI prefix, or 1 for an empty or unknown prefix.
func PrefixScale(prefix string) float64 {
	switch prefix {
	case "p":
		return 1e-12
	case "n":
		return 1e-9
	case "u", "μ":
		return 1e-6
	case "m":
		return 1e-3
	case "k", "K":
		return 1e3
	case "M":
		return 1e6
	case "G":
		return 1e9
	case "T":
		return 1e12
	}
	return 1
}
