// Package queryexpr provides the generic, datastore-agnostic object-query
// expression tree consumed by the DQL compiler.
//
// The tree is produced upstream (by a query-language parser that is not part
// of this module) and is immutable once built. It carries three independent
// clauses plus paging bounds:
//
//	Query{
//	  Candidate: "Person",
//	  Alias:     "this",
//	  Filter:    Dyadic{Op: OpAnd, Left: ..., Right: ...},
//	  Result:    []Expr{Invoke{Method: "COUNT", Args: []Expr{Path("id")}}},
//	  Ordering:  []Order{{Expr: Path("lastName")}},
//	  Range:     Range{FromIncl: 0, ToExcl: Unbounded},
//	}
//
// SEALED INTERFACE:
//
// Expr is sealed with a marker method so that backends can switch over the
// complete set of node kinds:
//
//	switch n := e.(type) {
//	case Primary, Literal, Parameter, Dyadic, Not, Invoke:
//	}
//
// Parameter values are not part of the tree. They travel separately as
// Params and are bound at compile time.
package queryexpr
