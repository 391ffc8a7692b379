package queryexpr

import (
	"fmt"
	"strings"
)

// ValidationResult contains structural problems found in a query tree.
//
// A structurally valid tree may still fail to translate (for example a
// path that is not stored in the datastore); those outcomes belong to the
// compiler, not to Validate.
type ValidationResult struct {
	// Valid is true when Problems is empty.
	Valid bool

	// Problems lists malformed nodes, each prefixed with its clause.
	Problems []string
}

// Err returns the problems as a single error, or nil when the tree is valid.
func (r ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	return fmt.Errorf("invalid query: %s", strings.Join(r.Problems, "; "))
}

// Validate checks a query tree for structural problems:
//  1. Candidate class must be named
//  2. No nil nodes inside dyadic, negation or invocation nodes
//  3. Field paths must have at least one non-empty segment
//  4. Invocations must name a method
//  5. Range bounds must be non-negative with FromIncl <= ToExcl
//
// Validate is a pure function with no side effects.
func Validate(q Query) ValidationResult {
	v := &validator{problems: []string{}}

	if strings.TrimSpace(q.Candidate) == "" {
		v.addProblem("query", "candidate class is required")
	}

	if q.Filter != nil {
		v.validateExpr("filter", q.Filter)
	}
	for i, e := range q.Result {
		v.validateExpr(fmt.Sprintf("result[%d]", i), e)
	}
	for i, o := range q.Ordering {
		clause := fmt.Sprintf("ordering[%d]", i)
		v.validateExpr(clause, o.Expr)
		if o.Direction != "" && !strings.EqualFold(string(o.Direction), string(Ascending)) && !o.IsDescending() {
			v.addProblem(clause, "unknown direction %q", o.Direction)
		}
	}

	if q.Range.FromIncl < 0 || q.Range.ToExcl < 0 {
		v.addProblem("range", "bounds must be non-negative")
	} else if q.Range.FromIncl > q.Range.ToExcl {
		v.addProblem("range", "from (%d) exceeds to (%d)", q.Range.FromIncl, q.Range.ToExcl)
	}

	return ValidationResult{
		Valid:    len(v.problems) == 0,
		Problems: v.problems,
	}
}

// validator accumulates problems during traversal.
type validator struct {
	problems []string
}

func (v *validator) addProblem(clause, format string, args ...any) {
	v.problems = append(v.problems, clause+": "+fmt.Sprintf(format, args...))
}

// validateExpr recursively validates an expression node.
func (v *validator) validateExpr(clause string, e Expr) {
	e = Deref(e)
	if e == nil {
		v.addProblem(clause, "nil expression")
		return
	}

	switch n := e.(type) {
	case Primary:
		if len(n.Tuples) == 0 {
			v.addProblem(clause, "empty field path")
		}
		for _, t := range n.Tuples {
			if t == "" {
				v.addProblem(clause, "empty segment in path %q", n.ID())
				break
			}
		}
		if n.Left != nil {
			v.validateExpr(clause, n.Left)
		}
	case Literal, Parameter:
		// leaves
	case Dyadic:
		if n.Op == "" {
			v.addProblem(clause, "dyadic node without operator")
		}
		v.validateExpr(clause, n.Left)
		v.validateExpr(clause, n.Right)
	case Not:
		v.validateExpr(clause, n.Expr)
	case Invoke:
		if n.Method == "" {
			v.addProblem(clause, "invocation without method name")
		}
		if n.Left != nil {
			v.validateExpr(clause, n.Left)
		}
		for _, a := range n.Args {
			v.validateExpr(clause, a)
		}
	default:
		v.addProblem(clause, "unknown node type %T", e)
	}
}
