// Package querydql compiles generic query expression trees into DQL.
//
// A Compiler walks each clause of a queryexpr.Query (filter, result,
// ordering, range) with an explicit operand stack, resolving field paths
// against schema metadata and rendering dql expressions. Clauses that
// cannot be expressed in DQL are dropped from the native text and flagged
// incomplete so the caller can evaluate them in memory:
//
//	c := querydql.NewCompiler(reg, querydql.WithLogger(logger))
//	out, err := c.Compile(q, queryexpr.NewParams().Bind("minAge", 30))
//	if err != nil {
//		// hard failure: the query cannot be compiled at all
//	}
//	if !out.FilterComplete {
//		// apply q.Filter to the fetched rows
//	}
//
// CLAUSE-LOCAL FAILURES (unsupported operand shapes, members not stored in
// the mapped type, unsupported projections) only downgrade their clause.
// HARD FAILURES (unbound parameters, malformed aggregates, join traversal,
// unknown members) are returned as *CompileError and no Compilation is
// produced.
//
// A Compiler holds no per-call state and is safe for concurrent use.
package querydql
