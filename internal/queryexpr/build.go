package queryexpr

// Lit wraps a constant value.
func Lit(v any) Literal { return Literal{Value: v} }

// Param references a named parameter. An empty name is positional.
func Param(name string) Parameter { return Parameter{Name: name} }

// Cmp builds a comparison or arithmetic node.
func Cmp(op Operator, left, right Expr) Dyadic {
	return Dyadic{Op: op, Left: left, Right: right}
}

// And joins conditions left to right: And(a, b, c) is (a AND b) AND c.
func And(first Expr, rest ...Expr) Expr {
	return fold(OpAnd, first, rest)
}

// Or joins conditions left to right.
func Or(first Expr, rest ...Expr) Expr {
	return fold(OpOr, first, rest)
}

func fold(op Operator, first Expr, rest []Expr) Expr {
	out := first
	for _, e := range rest {
		out = Dyadic{Op: op, Left: out, Right: e}
	}
	return out
}

// Negate wraps a condition in NOT.
func Negate(e Expr) Not { return Not{Expr: e} }

// Call builds a static function invocation such as COUNT(id).
func Call(method string, args ...Expr) Invoke {
	return Invoke{Method: method, Args: args}
}

// Asc orders by e ascending.
func Asc(e Expr) Order { return Order{Expr: e, Direction: Ascending} }

// Desc orders by e descending.
func Desc(e Expr) Order { return Order{Expr: e, Direction: Descending} }
