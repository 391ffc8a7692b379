package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/dqlmap/internal/querydql"
	"github.com/roach88/dqlmap/internal/queryexpr"
	"github.com/roach88/dqlmap/internal/schema"
	"github.com/roach88/dqlmap/internal/store"
	"github.com/roach88/dqlmap/internal/translate"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Schema string   // schema directory
	Params []string // k=v bindings
	Cache  string   // SQLite cache path
	Alias  string   // candidate alias override
}

// CompileOutput is the JSON payload of a successful compile.
type CompileOutput struct {
	ID          string                `json:"id"`
	Key         string                `json:"key"`
	Source      translate.Source      `json:"source"`
	Compilation *querydql.Compilation `json:"compilation"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <query.yaml>",
		Short: "Compile a query tree to DQL",
		Long: `Compile a YAML query tree against a CUE schema and print the DQL
statement with the per-clause completeness flags.

Parameters are bound with --param name=value, or --param 0=value for
positional parameters. Values are typed: integers, decimals, true/false,
null, dates and otherwise strings. Quote a value to force a string.

With --cache, precompilable results are stored in and served from a
SQLite database.

Exit codes:
  0 - Compiled (possibly with clauses left for in-memory evaluation)
  2 - Hard compile failure or command error

Examples:
  dqlmap compile query.yaml --schema ./schema
  dqlmap compile query.yaml --schema ./schema --param minAge=21
  dqlmap compile query.yaml --schema ./schema --cache dqlmap.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Schema, "schema", "s", "", "schema directory (required)")
	cmd.Flags().StringArrayVarP(&opts.Params, "param", "p", nil, "parameter binding name=value (repeatable)")
	cmd.Flags().StringVar(&opts.Cache, "cache", "", "SQLite compilation cache path")
	cmd.Flags().StringVar(&opts.Alias, "alias", "", "candidate alias override")
	_ = cmd.MarkFlagRequired("schema")

	return cmd
}

func runCompile(opts *CompileOptions, queryPath string, cmd *cobra.Command) error {
	out := newFormatter(opts.RootOptions, cmd.OutOrStdout())
	logger := opts.Logger(cmd.ErrOrStderr())
	defer func() { _ = logger.Sync() }()

	reg, err := loadRegistry(out, opts.Schema)
	if err != nil {
		return err
	}

	q, err := queryexpr.LoadQuery(queryPath)
	if err != nil {
		return out.Fail(ExitCommandError, ErrCodeQuery, err.Error(), nil)
	}
	if opts.Alias != "" {
		q.Alias = opts.Alias
	}

	params, err := ParseParams(opts.Params)
	if err != nil {
		return out.Fail(ExitCommandError, ErrCodeParam, err.Error(), nil)
	}

	topts := []translate.Option{translate.WithLogger(logger)}
	if opts.Cache != "" {
		st, err := store.Open(opts.Cache)
		if err != nil {
			return out.Fail(ExitCommandError, ErrCodeCache, err.Error(), nil)
		}
		defer st.Close()
		topts = append(topts, translate.WithStore(st))
	}

	ctx := cmd.Context()
	compiler := querydql.NewCompiler(reg, querydql.WithLogger(logger))
	tr, err := translate.New(ctx, compiler, topts...)
	if err != nil {
		return out.Fail(ExitCommandError, ErrCodeCache, err.Error(), nil)
	}

	res, err := tr.Translate(ctx, q, params)
	if err != nil {
		var ce *querydql.CompileError
		if errors.As(err, &ce) {
			logger.Debug("hard compile failure", zap.String("code", string(ce.Code)), zap.Error(err))
			return out.Fail(ExitCommandError, ErrCodeCompile, err.Error(), map[string]string{
				"code":   string(ce.Code),
				"clause": ce.Clause.String(),
			})
		}
		return out.Fail(ExitCommandError, ErrCodeCache, err.Error(), nil)
	}

	if out.JSON() {
		return out.Success(CompileOutput{ID: res.ID, Key: res.Key, Source: res.Source, Compilation: &res.Compilation})
	}
	printCompilation(out, res)
	return nil
}

func printCompilation(out *OutputFormatter, res *translate.Result) {
	c := res.Compilation
	out.Printf("%s\n\n", c.DQL)
	out.Printf("  filter: %s\n", clauseStatus(c.Filter, c.FilterComplete))
	out.Printf("  result: %s\n", clauseStatus(c.Result, c.ResultComplete))
	out.Printf("  order:  %s\n", clauseStatus(c.Order, c.OrderComplete))
	if c.RangeComplete {
		out.Printf("  range:  pushed down\n")
	} else {
		out.Printf("  range:  not pushed down\n")
	}
	out.Printf("\nprecompilable: %t, source: %s, id: %s\n", c.Precompilable, res.Source, res.ID)
}

func clauseStatus(text *string, complete bool) string {
	switch {
	case !complete:
		return "in memory"
	case text == nil:
		return "none"
	default:
		return *text
	}
}

// ParseParams converts name=value flags into parameter bindings. Integer
// names bind positions.
func ParseParams(flags []string) (queryexpr.Params, error) {
	params := queryexpr.NewParams()
	for _, f := range flags {
		key, raw, ok := strings.Cut(f, "=")
		if !ok || key == "" {
			return params, fmt.Errorf("invalid parameter %q: expected name=value", f)
		}
		v := queryexpr.ParseValue(raw)
		if name, pos, positional := queryexpr.ParseParamKey(key); positional {
			params.BindPos(pos, v)
		} else {
			params.Bind(name, v)
		}
	}
	return params, nil
}

// loadRegistry loads and validates a schema directory, reporting failures
// through out.
func loadRegistry(out *OutputFormatter, dir string) (*schema.Registry, error) {
	reg, err := schema.LoadDir(dir)
	if err != nil {
		var le *schema.LoadError
		if errors.As(err, &le) {
			var details any
			if le.Pos.IsValid() {
				details = map[string]any{"file": le.Pos.Filename(), "line": le.Pos.Line()}
			}
			return nil, out.Fail(ExitCommandError, le.Code, le.Message, details)
		}
		return nil, out.Fail(ExitCommandError, schema.ErrCodeGeneric, err.Error(), nil)
	}
	if problems := schema.Validate(reg); len(problems) > 0 {
		return nil, out.Fail(ExitCommandError, ErrCodeSchemaCheck,
			fmt.Sprintf("schema has %d problem(s): %v", len(problems), problems[0]), problems)
	}
	return reg, nil
}
