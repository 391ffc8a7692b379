package queryexpr

import (
	"math"
	"strings"
)

// Unbounded is the exclusive upper range offset meaning "no upper bound".
const Unbounded int64 = math.MaxInt64

// DefaultAlias is the candidate alias used when a query does not declare one.
const DefaultAlias = "this"

// Expr is a node of the generic expression tree.
//
// This is a sealed interface - only types in this package implement it.
type Expr interface {
	exprNode()
}

// Primary is a field-path reference such as "address.city".
//
// Left is an optional qualifier expression (e.g. the receiver of a method
// chain). Plain member paths leave it nil.
type Primary struct {
	Left   Expr
	Tuples []string
}

func (Primary) exprNode() {}

// ID returns the dotted form of the path.
func (p Primary) ID() string {
	return strings.Join(p.Tuples, ".")
}

// Path builds a Primary from a dotted path.
func Path(dotted string) Primary {
	return Primary{Tuples: strings.Split(dotted, ".")}
}

// Literal is a constant value embedded in the query.
//
// Value holds a Go scalar: any integer or float kind, decimal.Decimal,
// string, Char, bool, time.Time or nil.
type Literal struct {
	Value any
}

func (Literal) exprNode() {}

// Char is a single-character value. It renders as a one-character string.
type Char rune

// Parameter references a value supplied at compile time through Params.
//
// A named parameter (":minAge") is looked up by Name first. Unnamed or
// unmatched parameters fall back to positional lookup.
type Parameter struct {
	Name string
}

func (Parameter) exprNode() {}

// Operator identifies a dyadic operator.
type Operator string

const (
	OpAnd   Operator = "AND"
	OpOr    Operator = "OR"
	OpEq    Operator = "="
	OpNotEq Operator = "<>"
	OpLt    Operator = "<"
	OpLtEq  Operator = "<="
	OpGt    Operator = ">"
	OpGtEq  Operator = ">="
	OpAdd   Operator = "+"
	OpSub   Operator = "-"
	OpMul   Operator = "*"
	OpDiv   Operator = "/"
)

// IsLogical reports whether op combines two boolean operands.
func (op Operator) IsLogical() bool {
	return op == OpAnd || op == OpOr
}

// IsComparison reports whether op compares two scalar operands.
func (op Operator) IsComparison() bool {
	switch op {
	case OpEq, OpNotEq, OpLt, OpLtEq, OpGt, OpGtEq:
		return true
	}
	return false
}

// Mirror returns the operator that keeps a comparison true when its
// operands are swapped: a < b holds exactly when b > a.
func (op Operator) Mirror() Operator {
	switch op {
	case OpLt:
		return OpGt
	case OpGt:
		return OpLt
	case OpLtEq:
		return OpGtEq
	case OpGtEq:
		return OpLtEq
	}
	return op
}

// Dyadic is a binary operator node.
type Dyadic struct {
	Op    Operator
	Left  Expr
	Right Expr
}

func (Dyadic) exprNode() {}

// Not is unary boolean negation.
type Not struct {
	Expr Expr
}

func (Not) exprNode() {}

// Invoke is a method or static function invocation.
//
// Static functions (aggregates such as COUNT) have a nil Left.
type Invoke struct {
	Left   Expr
	Method string
	Args   []Expr
}

func (Invoke) exprNode() {}

// Direction is the sort direction of an ordering entry.
type Direction string

const (
	Ascending  Direction = "ascending"
	Descending Direction = "descending"
)

// Order is one entry of the ordering clause.
type Order struct {
	Expr      Expr
	Direction Direction
}

// IsDescending reports whether the entry sorts descending.
// An empty direction is ascending.
func (o Order) IsDescending() bool {
	return strings.EqualFold(string(o.Direction), string(Descending))
}

// Range carries paging bounds: inclusive lower offset and exclusive upper
// offset. ToExcl == Unbounded means no upper bound. The zero Range selects
// every row, like NoRange.
type Range struct {
	FromIncl int64
	ToExcl   int64
}

// NoRange returns the range that selects every row.
func NoRange() Range {
	return Range{FromIncl: 0, ToExcl: Unbounded}
}

// Query is a compiled object query: candidate class, alias and clauses.
type Query struct {
	Candidate  string  // candidate class name
	Alias      string  // candidate alias (DefaultAlias when empty)
	Subclasses bool    // include instances of subclasses
	Filter     Expr    // nil = no filter
	Result     []Expr  // nil = candidate objects
	Ordering   []Order // nil = unordered
	Range      Range
}

// CandidateAlias returns the declared alias or DefaultAlias.
func (q Query) CandidateAlias() string {
	if q.Alias == "" {
		return DefaultAlias
	}
	return q.Alias
}
