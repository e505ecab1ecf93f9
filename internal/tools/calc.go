package tools

import (
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"math"
	"math/big"
	"strconv"
	"strings"
)

// ErrInvalidExpression is wrapped by every Eval failure.
var ErrInvalidExpression = errors.New("invalid expression")

// maxExprLen bounds the accepted input.
const maxExprLen = 512

// Eval evaluates an arithmetic expression over float64. It accepts number
// literals, the binary operators + - * / %, unary + and -, and parentheses.
// Identifiers, calls, indexing and every other construct are rejected.
//
// % follows the sign of the divisor, matching floored modulo.
func Eval(expr string) (float64, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return 0, fmt.Errorf("tools: %w: empty expression", ErrInvalidExpression)
	}
	if len(expr) > maxExprLen {
		return 0, fmt.Errorf("tools: %w: longer than %d bytes", ErrInvalidExpression, maxExprLen)
	}

	node, err := parser.ParseExpr(expr)
	if err != nil {
		return 0, fmt.Errorf("tools: %w: %v", ErrInvalidExpression, err)
	}
	return eval(node)
}

func eval(n ast.Expr) (float64, error) {
	switch n := n.(type) {
	case *ast.BasicLit:
		return literal(n)

	case *ast.ParenExpr:
		return eval(n.X)

	case *ast.UnaryExpr:
		x, err := eval(n.X)
		if err != nil {
			return 0, err
		}
		switch n.Op {
		case token.ADD:
			return x, nil
		case token.SUB:
			return -x, nil
		}
		return 0, fmt.Errorf("tools: %w: unary operator %s not allowed", ErrInvalidExpression, n.Op)

	case *ast.BinaryExpr:
		x, err := eval(n.X)
		if err != nil {
			return 0, err
		}
		y, err := eval(n.Y)
		if err != nil {
			return 0, err
		}
		return binary(n.Op, x, y)
	}

	return 0, fmt.Errorf("tools: %w: %T not allowed", ErrInvalidExpression, n)
}

func literal(lit *ast.BasicLit) (float64, error) {
	switch lit.Kind {
	case token.INT:
		// Integers beyond int64 are still evaluated in float64 precision.
		i, ok := new(big.Int).SetString(lit.Value, 0)
		if !ok {
			return 0, fmt.Errorf("tools: %w: invalid integer %s", ErrInvalidExpression, lit.Value)
		}
		f, _ := new(big.Float).SetInt(i).Float64()
		if math.IsInf(f, 0) {
			return 0, fmt.Errorf("tools: %w: integer %s out of range", ErrInvalidExpression, lit.Value)
		}
		return f, nil
	case token.FLOAT:
		f, err := strconv.ParseFloat(lit.Value, 64)
		if err != nil {
			return 0, fmt.Errorf("tools: %w: %v", ErrInvalidExpression, err)
		}
		return f, nil
	}
	return 0, fmt.Errorf("tools: %w: literal %s not allowed", ErrInvalidExpression, lit.Value)
}

func binary(op token.Token, x, y float64) (float64, error) {
	switch op {
	case token.ADD:
		return x + y, nil
	case token.SUB:
		return x - y, nil
	case token.MUL:
		return x * y, nil
	case token.QUO:
		if y == 0 {
			return 0, fmt.Errorf("tools: %w: division by zero", ErrInvalidExpression)
		}
		return x / y, nil
	case token.REM:
		if y == 0 {
			return 0, fmt.Errorf("tools: %w: modulo by zero", ErrInvalidExpression)
		}
		r := math.Mod(x, y)
		if r != 0 && (r < 0) != (y < 0) {
			r += y
		}
		return r, nil
	}
	return 0, fmt.Errorf("tools: %w: operator %s not allowed", ErrInvalidExpression, op)
}

// FormatNumber renders integral values without a fractional part.
func FormatNumber(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
