package querydql

import (
	"github.com/roach88/dqlmap/internal/dql"
	"github.com/roach88/dqlmap/internal/queryexpr"
)

// operandStack holds compiled operands during a post-order walk. Every
// fully evaluated node leaves exactly one entry; a node whose path is not
// stored leaves none and marks its clause incomplete.
type operandStack []dql.Expression

func (s operandStack) push(e dql.Expression) operandStack {
	return append(s, e)
}

func (s operandStack) pop() (dql.Expression, operandStack, bool) {
	if len(s) == 0 {
		return nil, s, false
	}
	return s[len(s)-1], s[:len(s)-1], true
}

// pop2 pops the right operand then the left one.
func (s operandStack) pop2() (left, right dql.Expression, rest operandStack, ok bool) {
	right, s, ok = s.pop()
	if !ok {
		return nil, nil, s, false
	}
	left, s, ok = s.pop()
	return left, right, s, ok
}

// evaluate dispatches on the node kind. Operator nodes evaluate their
// operands first so the handlers only combine what is on the stack.
func evaluate(st operandStack, e queryexpr.Expr, cx *clauseContext) (operandStack, error) {
	var err error
	switch n := queryexpr.Deref(e).(type) {
	case queryexpr.Dyadic:
		if st, err = evaluate(st, n.Left, cx); err != nil {
			return st, err
		}
		if st, err = evaluate(st, n.Right, cx); err != nil {
			return st, err
		}
		return evalDyadic(st, n, cx)
	case queryexpr.Not:
		if st, err = evaluate(st, n.Expr, cx); err != nil {
			return st, err
		}
		return evalNot(st, n, cx)
	case queryexpr.Primary:
		return evalPrimary(st, n, cx)
	case queryexpr.Literal:
		return evalLiteral(st, n, cx)
	case queryexpr.Parameter:
		return evalParameter(st, n, cx)
	case queryexpr.Invoke:
		return evalInvoke(st, n, cx)
	case nil:
		return st, translationErr(cx.clause, "missing expression")
	default:
		return st, translationErr(cx.clause, "unsupported expression %T", e)
	}
}

func evalDyadic(st operandStack, n queryexpr.Dyadic, cx *clauseContext) (operandStack, error) {
	left, right, st, ok := st.pop2()
	if !ok {
		return st, translationErr(cx.clause, "operator %s is missing an operand", n.Op)
	}

	switch {
	case n.Op.IsLogical():
		lb, lok := left.(dql.BooleanExpression)
		rb, rok := right.(dql.BooleanExpression)
		if !lok || !rok {
			return st, translationErr(cx.clause, "operator %s needs boolean operands", n.Op)
		}
		return st.push(dql.BooleanExpression{Left: lb, Op: string(n.Op), Right: rb}), nil

	case n.Op.IsComparison():
		if f, ok := left.(dql.FieldExpression); ok {
			if lit, ok := right.(dql.Literal); ok {
				return st.push(dql.Compare(f, string(n.Op), lit)), nil
			}
		}
		if lit, ok := left.(dql.Literal); ok {
			if f, ok := right.(dql.FieldExpression); ok {
				return st.push(dql.Compare(f, string(n.Op.Mirror()), lit)), nil
			}
		}
		return st, translationErr(cx.clause, "comparison %s needs a field and a literal, got %s and %s",
			n.Op, kindOf(left), kindOf(right))
	}

	return st, translationErr(cx.clause, "operator %s not supported in DQL", n.Op)
}

func evalNot(st operandStack, _ queryexpr.Not, cx *clauseContext) (operandStack, error) {
	operand, st, ok := st.pop()
	if !ok {
		return st, translationErr(cx.clause, "negation is missing its operand")
	}
	b, ok := operand.(dql.BooleanExpression)
	if !ok {
		return st, translationErr(cx.clause, "negation needs a boolean operand, got %s", kindOf(operand))
	}
	return st.push(dql.Not(b)), nil
}

func evalPrimary(st operandStack, n queryexpr.Primary, cx *clauseContext) (operandStack, error) {
	if n.Left != nil {
		return st, translationErr(cx.clause, "qualified path %s not supported", n.ID())
	}

	alias := cx.state.alias
	if n.ID() == alias {
		return st.push(dql.FieldExpression{Name: alias}), nil
	}

	res, err := resolvePath(cx, n.Tuples)
	if err != nil {
		return st, err
	}
	if res.notStorable {
		cx.state.log.Debug("primary is not stored in this type, unexecutable in datastore",
			zapClause(cx), zapPath(n.ID()), zapReason(res.reason))
		cx.markIncomplete(n.ID() + ": " + res.reason)
		return st, nil
	}
	return st.push(dql.FieldExpression{Name: alias + "." + res.column}), nil
}

func evalLiteral(st operandStack, n queryexpr.Literal, cx *clauseContext) (operandStack, error) {
	v, err := nativeValue(n.Value, cx)
	if err != nil {
		return st, err
	}
	return st.push(dql.Literal{Value: v}), nil
}

func evalParameter(st operandStack, n queryexpr.Parameter, cx *clauseContext) (operandStack, error) {
	raw, err := bindParameter(n, cx)
	if err != nil {
		return st, err
	}
	cx.state.precompilable = false

	v, err := nativeValue(raw, cx)
	if err != nil {
		return st, err
	}
	return st.push(dql.Literal{Value: v}), nil
}

// evalInvoke handles static aggregate functions over one field path.
func evalInvoke(st operandStack, n queryexpr.Invoke, cx *clauseContext) (operandStack, error) {
	if n.Left != nil {
		return st, translationErr(cx.clause, "method invocation %s not supported", n.Method)
	}
	if len(n.Args) != 1 {
		return st, hardError(CodeAggregateArity, cx.clause, "%s takes exactly one argument, got %d", n.Method, len(n.Args))
	}
	arg, ok := queryexpr.Deref(n.Args[0]).(queryexpr.Primary)
	if !ok {
		return st, hardError(CodeAggregateArgument, cx.clause, "%s argument must be a field path", n.Method)
	}

	depth := len(st)
	st, err := evalPrimary(st, arg, cx)
	if err != nil {
		return st, err
	}
	if len(st) == depth {
		return st, translationErr(cx.clause, "%s argument %s is not stored", n.Method, arg.ID())
	}
	field, st, _ := st.pop()

	fn, ok := dql.LookupAggregate(n.Method)
	if !ok {
		return st, hardError(CodeUnsupportedFunction, cx.clause, "static function %s not supported in DQL", n.Method)
	}
	return st.push(dql.AggregateExpression{Func: fn, Arg: field}), nil
}

func kindOf(e dql.Expression) string {
	switch e.(type) {
	case dql.FieldExpression:
		return "field"
	case dql.Literal:
		return "literal"
	case dql.BooleanExpression:
		return "condition"
	case dql.AggregateExpression:
		return "aggregate"
	}
	return "nothing"
}
