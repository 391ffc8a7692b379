package querydql

import (
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/roach88/dqlmap/internal/dql"
	"github.com/roach88/dqlmap/internal/queryexpr"
	"github.com/roach88/dqlmap/internal/schema"
)

// Clause identifies the query clause being compiled.
type Clause int

const (
	ClauseNone Clause = iota
	ClauseFilter
	ClauseResult
	ClauseOrder
)

func (c Clause) String() string {
	switch c {
	case ClauseFilter:
		return "filter"
	case ClauseResult:
		return "result"
	case ClauseOrder:
		return "order"
	}
	return "none"
}

// compileState is owned by one Compile call.
type compileState struct {
	reg           *schema.Registry
	class         *schema.Class
	alias         string
	params        queryexpr.Params
	cursor        int
	precompilable bool
	log           *zap.Logger
}

// clauseContext scopes evaluation to one clause. It is created by a clause
// compiler and passed down explicitly to every evaluator step.
type clauseContext struct {
	clause  Clause
	state   *compileState
	reasons []string
}

func newClauseContext(clause Clause, state *compileState) *clauseContext {
	return &clauseContext{clause: clause, state: state}
}

// markIncomplete records why the clause cannot be fully pushed down.
func (cx *clauseContext) markIncomplete(reason string) {
	cx.reasons = append(cx.reasons, reason)
}

func (cx *clauseContext) complete() bool {
	return len(cx.reasons) == 0
}

func (cx *clauseContext) reason() string {
	return strings.Join(cx.reasons, "; ")
}

// absorb turns a non-hard evaluation error into an incomplete mark and
// passes hard failures through.
func (cx *clauseContext) absorb(err error) error {
	if err == nil {
		return nil
	}
	if IsHardFailure(err) {
		return err
	}
	cx.markIncomplete(err.Error())
	return nil
}

// logPartial reports a clause left for in-memory evaluation.
func (cx *clauseContext) logPartial() {
	cx.state.log.Info("clause not fully translated to DQL, will be evaluated in memory",
		zap.String("clause", cx.clause.String()),
		zap.String("reason", cx.reason()),
	)
}

// compileFilter translates the filter expression. A nil filter is
// trivially complete.
func compileFilter(state *compileState, filter queryexpr.Expr) (*string, bool, error) {
	if filter == nil {
		return nil, true, nil
	}

	cx := newClauseContext(ClauseFilter, state)
	st, err := evaluate(nil, filter, cx)
	if err := cx.absorb(err); err != nil {
		return nil, false, err
	}

	if cx.complete() {
		switch {
		case len(st) != 1:
			cx.markIncomplete("unbalanced operand stack")
		default:
			if _, ok := st[0].(dql.BooleanExpression); !ok {
				cx.markIncomplete("filter is not a boolean condition")
			}
		}
	}

	if !cx.complete() {
		cx.logPartial()
		return nil, false, nil
	}
	text := st[0].Text()
	return &text, true, nil
}

// compileResult translates the projection list. The first unsupported
// projection stops processing; a nil result list is trivially complete.
func compileResult(state *compileState, result []queryexpr.Expr) (*string, bool, error) {
	if result == nil {
		return nil, true, nil
	}

	cx := newClauseContext(ClauseResult, state)
	parts := make([]string, 0, len(result))
	for i, e := range result {
		switch n := queryexpr.Deref(e).(type) {
		case queryexpr.Primary, queryexpr.Literal, queryexpr.Parameter:
		case queryexpr.Invoke:
			if n.Left != nil {
				cx.markIncomplete("result[" + strconv.Itoa(i) + "]: method invocation " + n.Method)
			}
		default:
			cx.markIncomplete("result[" + strconv.Itoa(i) + "]: unsupported projection")
		}
		if !cx.complete() {
			break
		}

		st, err := evaluate(nil, e, cx)
		if err := cx.absorb(err); err != nil {
			return nil, false, err
		}
		if cx.complete() && len(st) != 1 {
			cx.markIncomplete("result[" + strconv.Itoa(i) + "]: no value produced")
		}
		if !cx.complete() {
			break
		}
		parts = append(parts, st[0].Text())
	}

	if !cx.complete() {
		cx.logPartial()
		return nil, false, nil
	}
	text := strings.Join(parts, ",")
	return &text, true, nil
}

// compileOrder translates the ordering list.
func compileOrder(state *compileState, ordering []queryexpr.Order) (*string, bool, error) {
	if ordering == nil {
		return nil, true, nil
	}

	cx := newClauseContext(ClauseOrder, state)
	parts := make([]string, 0, len(ordering))
	for i, o := range ordering {
		st, err := evaluate(nil, o.Expr, cx)
		if err := cx.absorb(err); err != nil {
			return nil, false, err
		}
		if cx.complete() && len(st) != 1 {
			cx.markIncomplete("ordering[" + strconv.Itoa(i) + "]: no value produced")
		}
		if !cx.complete() {
			break
		}

		part := st[0].Text()
		if o.IsDescending() {
			part += " DESC"
		}
		parts = append(parts, part)
	}

	if !cx.complete() {
		cx.logPartial()
		return nil, false, nil
	}
	text := strings.Join(parts, ",")
	return &text, true, nil
}

// compileRange derives paging bounds. Bounds are only pushed down when
// the filter and ordering are fully translated. Empty pages and offsets
// past the last row DQL can address are left to the caller.
func compileRange(r queryexpr.Range, filterComplete, orderComplete bool) (from, to *int64, complete bool) {
	if !filterComplete || !orderComplete {
		return nil, nil, false
	}
	if r == (queryexpr.Range{}) {
		r = queryexpr.NoRange()
	}
	if r.FromIncl >= dql.MaxRangeEnd || r.ToExcl <= r.FromIncl {
		return nil, nil, false
	}
	if r.FromIncl > 0 {
		v := r.FromIncl
		from = &v
	}
	if r.ToExcl != queryexpr.Unbounded {
		v := r.ToExcl
		to = &v
	}
	return from, to, from != nil || to != nil
}
