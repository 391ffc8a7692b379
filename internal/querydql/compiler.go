package querydql

import (
	"go.uber.org/zap"

	"github.com/roach88/dqlmap/internal/dql"
	"github.com/roach88/dqlmap/internal/queryexpr"
	"github.com/roach88/dqlmap/internal/schema"
)

// Assembler renders the final statement from the translated clauses.
type Assembler interface {
	Assemble(stmt dql.Statement) string
}

// AssemblerFunc adapts a function to Assembler.
type AssemblerFunc func(stmt dql.Statement) string

// Assemble calls f(stmt).
func (f AssemblerFunc) Assemble(stmt dql.Statement) string {
	return f(stmt)
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithLogger sets the logger used to report partial pushdown.
func WithLogger(l *zap.Logger) Option {
	return func(c *Compiler) {
		if l != nil {
			c.log = l
		}
	}
}

// WithAssembler replaces the DQL statement assembler.
func WithAssembler(a Assembler) Option {
	return func(c *Compiler) {
		if a != nil {
			c.assembler = a
		}
	}
}

// Compiler translates queries against one schema.
type Compiler struct {
	reg       *schema.Registry
	log       *zap.Logger
	assembler Assembler
}

// NewCompiler creates a compiler over reg.
func NewCompiler(reg *schema.Registry, opts ...Option) *Compiler {
	c := &Compiler{
		reg:       reg,
		log:       zap.NewNop(),
		assembler: AssemblerFunc(dql.Assemble),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Registry returns the schema the compiler resolves against.
func (c *Compiler) Registry() *schema.Registry {
	return c.reg
}

// Compilation is the outcome of compiling one query.
//
// Clause texts are nil when the clause is absent from the query or could
// not be fully translated; the *Complete flags tell the two apart. Range
// bounds are only set when the range was pushed down.
type Compilation struct {
	Filter *string `json:"filter,omitempty"`
	Result *string `json:"result,omitempty"`
	Order  *string `json:"order,omitempty"`

	RangeFrom *int64 `json:"range_from,omitempty"`
	RangeTo   *int64 `json:"range_to,omitempty"`

	FilterComplete bool `json:"filter_complete"`
	ResultComplete bool `json:"result_complete"`
	OrderComplete  bool `json:"order_complete"`
	RangeComplete  bool `json:"range_complete"`
	Precompilable  bool `json:"precompilable"`

	DQL string `json:"dql"`
}

// Clone returns a copy of c that shares no clause text or bound with it.
func (c Compilation) Clone() Compilation {
	out := c
	out.Filter = clonePtr(c.Filter)
	out.Result = clonePtr(c.Result)
	out.Order = clonePtr(c.Order)
	out.RangeFrom = clonePtr(c.RangeFrom)
	out.RangeTo = clonePtr(c.RangeTo)
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Complete reports whether every clause was pushed down, so no in-memory
// evaluation is needed.
func (c *Compilation) Complete() bool {
	return c.FilterComplete && c.ResultComplete && c.OrderComplete
}

// Compile translates q using params. Hard failures return a *CompileError
// and no compilation.
func (c *Compiler) Compile(q queryexpr.Query, params queryexpr.Params) (*Compilation, error) {
	if res := queryexpr.Validate(q); !res.Valid {
		return nil, &CompileError{Code: CodeInvalidQuery, Message: "invalid query", Hard: true, Err: res.Err()}
	}

	class, err := c.reg.Class(q.Candidate)
	if err != nil {
		return nil, &CompileError{Code: CodeUnknownClass, Message: "candidate " + q.Candidate, Hard: true, Err: err}
	}

	state := &compileState{
		reg:           c.reg,
		class:         class,
		alias:         q.CandidateAlias(),
		params:        params,
		precompilable: true,
		log:           c.log,
	}
	out := &Compilation{}

	if out.Filter, out.FilterComplete, err = compileFilter(state, q.Filter); err != nil {
		return nil, err
	}
	if out.Result, out.ResultComplete, err = compileResult(state, q.Result); err != nil {
		return nil, err
	}
	if out.Order, out.OrderComplete, err = compileOrder(state, q.Ordering); err != nil {
		return nil, err
	}
	out.RangeFrom, out.RangeTo, out.RangeComplete = compileRange(q.Range, out.FilterComplete, out.OrderComplete)
	out.Precompilable = state.precompilable

	out.DQL = c.assembler.Assemble(dql.Statement{
		Type:       class.Type,
		Alias:      state.alias,
		Subclasses: q.Subclasses,
		Filter:     out.Filter,
		Result:     out.Result,
		Order:      out.Order,
		RangeFrom:  out.RangeFrom,
		RangeTo:    out.RangeTo,
	})
	return out, nil
}
