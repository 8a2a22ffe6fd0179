package agent

import (
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"math"
	"regexp"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// CalculationError is the user-visible sentinel for a failed evaluation.
const CalculationError = "❌ Error in calculation"

var (
	ErrDivisionByZero = errors.New("division by zero")
	ErrUnsupported    = errors.New("unsupported expression")
)

var (
	numberPattern    = regexp.MustCompile(`-?\d+\.?\d*`)
	averagePattern   = regexp.MustCompile(`\b(average|mean)\b`)
	sumPattern       = regexp.MustCompile(`\bsum\b`)
	disallowedInExpr = regexp.MustCompile(`[^0-9+\-*/.() ]`)
	literalPattern   = regexp.MustCompile(`\d+\.?\d*`)
	signRunPattern   = regexp.MustCompile(`[+\-]{2,}`)
)

// Calculate evaluates an arithmetic request and formats the outcome. Requests
// naming an average/mean or a sum aggregate every number they contain; anything
// else is evaluated as a plain expression. Failures yield CalculationError.
func Calculate(expression string) string {
	lower := strings.ToLower(expression)

	if averagePattern.MatchString(lower) {
		if nums := extractNumbers(expression); len(nums) > 0 {
			return fmt.Sprintf("📊 Average of %s = %.2f", formatList(nums), stat.Mean(nums, nil))
		}
	}
	if sumPattern.MatchString(lower) {
		if nums := extractNumbers(expression); len(nums) > 0 {
			return fmt.Sprintf("📊 Sum of %s = %s", formatList(nums), formatNumber(floats.Sum(nums)))
		}
	}

	expr := strings.TrimSpace(disallowedInExpr.ReplaceAllString(expression, ""))
	v, err := Evaluate(expr)
	if err != nil {
		return CalculationError
	}
	return fmt.Sprintf("🧮 %s = %s", expr, formatNumber(v))
}

// Evaluate computes an expression built from decimal literals, + - * /,
// unary signs and parentheses. Anything else is rejected.
func Evaluate(expr string) (float64, error) {
	if strings.TrimSpace(expr) == "" {
		return 0, fmt.Errorf("%w: empty", ErrUnsupported)
	}
	node, err := parser.ParseExpr(normalize(expr))
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", expr, err)
	}
	v, err := evalNode(node)
	if err != nil {
		return 0, err
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, fmt.Errorf("%w: result out of range", ErrUnsupported)
	}
	return v, nil
}

// normalize rewrites expr so the Go scanner reads it as plain decimal
// arithmetic: leading zeros would make octal literals and "--" or "++" would
// scan as a single token.
func normalize(expr string) string {
	expr = literalPattern.ReplaceAllStringFunc(expr, func(lit string) string {
		trimmed := strings.TrimLeft(lit, "0")
		if trimmed == "" || trimmed[0] == '.' {
			trimmed = "0" + trimmed
		}
		return trimmed
	})
	return signRunPattern.ReplaceAllStringFunc(expr, func(run string) string {
		return strings.Join(strings.Split(run, ""), " ")
	})
}

func evalNode(n ast.Expr) (float64, error) {
	switch e := n.(type) {
	case *ast.BasicLit:
		if e.Kind != token.INT && e.Kind != token.FLOAT {
			return 0, fmt.Errorf("%w: literal %s", ErrUnsupported, e.Value)
		}
		return strconv.ParseFloat(e.Value, 64)

	case *ast.ParenExpr:
		return evalNode(e.X)

	case *ast.UnaryExpr:
		x, err := evalNode(e.X)
		if err != nil {
			return 0, err
		}
		switch e.Op {
		case token.ADD:
			return x, nil
		case token.SUB:
			return -x, nil
		}
		return 0, fmt.Errorf("%w: unary %s", ErrUnsupported, e.Op)

	case *ast.BinaryExpr:
		x, err := evalNode(e.X)
		if err != nil {
			return 0, err
		}
		y, err := evalNode(e.Y)
		if err != nil {
			return 0, err
		}
		switch e.Op {
		case token.ADD:
			return x + y, nil
		case token.SUB:
			return x - y, nil
		case token.MUL:
			return x * y, nil
		case token.QUO:
			if y == 0 {
				return 0, ErrDivisionByZero
			}
			return x / y, nil
		}
		return 0, fmt.Errorf("%w: operator %s", ErrUnsupported, e.Op)
	}
	return 0, fmt.Errorf("%w: %T", ErrUnsupported, n)
}

func extractNumbers(s string) []float64 {
	var nums []float64
	for _, m := range numberPattern.FindAllString(s, -1) {
		v, err := strconv.ParseFloat(strings.TrimSuffix(m, "."), 64)
		if err != nil {
			continue
		}
		nums = append(nums, v)
	}
	return nums
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatList(nums []float64) string {
	parts := make([]string, len(nums))
	for i, v := range nums {
		parts[i] = formatNumber(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
