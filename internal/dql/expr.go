package dql

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Expression is a native DQL fragment.
//
// Implementations: FieldExpression, Literal, BooleanExpression,
// AggregateExpression.
type Expression interface {
	Text() string
	expression()
}

// FieldExpression names an attribute, usually alias-qualified.
type FieldExpression struct {
	Name string
}

func (FieldExpression) expression() {}

// Text returns the field name.
func (f FieldExpression) Text() string { return f.Name }

// Literal is a constant value.
type Literal struct {
	Value any
}

func (Literal) expression() {}

// Text renders the literal in DQL syntax.
func (l Literal) Text() string {
	return FormatValue(l.Value)
}

// FormatValue renders a Go value as a DQL literal. Strings are
// single-quoted with embedded quotes doubled.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case string:
		return quote(x)
	case bool:
		if x {
			return "true"
		}
		return "false"
	case int:
		return strconv.Itoa(x)
	case int8:
		return strconv.FormatInt(int64(x), 10)
	case int16:
		return strconv.FormatInt(int64(x), 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint:
		return strconv.FormatUint(uint64(x), 10)
	case uint8:
		return strconv.FormatUint(uint64(x), 10)
	case uint16:
		return strconv.FormatUint(uint64(x), 10)
	case uint32:
		return strconv.FormatUint(uint64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float32:
		return formatFloat(float64(x), 32)
	case float64:
		return formatFloat(x, 64)
	case decimal.Decimal:
		return x.String()
	case time.Time:
		return "DATE(" + quote(x.Format("2006/01/02 15:04:05")) + ",'yyyy/mm/dd hh:mi:ss')"
	case fmt.Stringer:
		return quote(x.String())
	default:
		return quote(fmt.Sprint(x))
	}
}

func formatFloat(f float64, bits int) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatFloat(f, 'f', 1, bits)
	}
	return strconv.FormatFloat(f, 'f', -1, bits)
}

// quote renders s as a DQL string literal. The bytes of s are kept as
// given; only embedded quotes are doubled.
func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// BooleanExpression is a comparison, a logical connective, or a negation.
// For NOT, Left holds the operand and Right is nil.
type BooleanExpression struct {
	Left  Expression
	Op    string
	Right Expression
}

func (BooleanExpression) expression() {}

// Comparison operators and connectives.
const (
	OpEq    = "="
	OpNotEq = "<>"
	OpLt    = "<"
	OpLtEq  = "<="
	OpGt    = ">"
	OpGtEq  = ">="
	OpAnd   = "AND"
	OpOr    = "OR"
	OpNot   = "NOT"
)

// Compare builds field OP value.
func Compare(field FieldExpression, op string, value Literal) BooleanExpression {
	return BooleanExpression{Left: field, Op: op, Right: value}
}

// And joins two conditions.
func And(left, right Expression) BooleanExpression {
	return BooleanExpression{Left: left, Op: OpAnd, Right: right}
}

// Or joins two conditions.
func Or(left, right Expression) BooleanExpression {
	return BooleanExpression{Left: left, Op: OpOr, Right: right}
}

// Not negates a condition.
func Not(e Expression) BooleanExpression {
	return BooleanExpression{Left: e, Op: OpNot}
}

// IsConnective reports whether the expression joins two conditions.
func (b BooleanExpression) IsConnective() bool {
	return b.Op == OpAnd || b.Op == OpOr
}

// Text renders the condition. Nested connectives of a different operator
// are parenthesized.
func (b BooleanExpression) Text() string {
	switch b.Op {
	case OpNot:
		return "NOT (" + b.Left.Text() + ")"
	case OpAnd, OpOr:
		return b.operand(b.Left) + " " + b.Op + " " + b.operand(b.Right)
	default:
		return b.Left.Text() + b.Op + b.Right.Text()
	}
}

func (b BooleanExpression) operand(e Expression) string {
	if inner, ok := e.(BooleanExpression); ok && inner.IsConnective() && inner.Op != b.Op {
		return "(" + inner.Text() + ")"
	}
	return e.Text()
}

// AggregateExpression applies an aggregate function to one field.
type AggregateExpression struct {
	Func string
	Arg  Expression
}

func (AggregateExpression) expression() {}

// Aggregate function names.
const (
	AggMax   = "MAX"
	AggMin   = "MIN"
	AggSum   = "SUM"
	AggAvg   = "AVG"
	AggCount = "COUNT"
)

// LookupAggregate matches a method name against the supported aggregates,
// ignoring case.
func LookupAggregate(method string) (string, bool) {
	switch upper := strings.ToUpper(method); upper {
	case AggMax, AggMin, AggSum, AggAvg, AggCount:
		return upper, true
	}
	return "", false
}

// Text renders FUNC(arg).
func (a AggregateExpression) Text() string {
	return a.Func + "(" + a.Arg.Text() + ")"
}
