package harness

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"go.uber.org/zap"

	"github.com/roach88/dqlmap/internal/querydql"
	"github.com/roach88/dqlmap/internal/queryexpr"
	"github.com/roach88/dqlmap/internal/schema"
	"github.com/roach88/dqlmap/internal/store"
	"github.com/roach88/dqlmap/internal/testutil"
	"github.com/roach88/dqlmap/internal/translate"
)

// Harness holds the per-scenario compile pipeline.
type Harness struct {
	store      *store.Store
	translator *translate.Translator
	logger     *zap.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs against a fresh in-memory store so cached
// compilations never leak between scenarios.
//
// Execution flow:
// 1. Load and validate the schema directory
// 2. Decode parameter bindings
// 3. Translate the query twice (the second pass checks idempotence)
// 4. Compare the first compilation with the expectations
func Run(scenario *Scenario) (*Result, error) {
	return RunWithLogger(scenario, zap.NewNop())
}

// RunWithLogger is Run with a caller-supplied logger, so partial pushdown
// messages can be observed.
func RunWithLogger(scenario *Scenario, logger *zap.Logger) (*Result, error) {
	reg, err := loadSchema(scenario.Schema)
	if err != nil {
		return nil, err
	}

	params, err := queryexpr.DecodeParams(&scenario.Params)
	if err != nil {
		return nil, fmt.Errorf("failed to decode params: %w", err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()
	compiler := querydql.NewCompiler(reg, querydql.WithLogger(logger))
	tr, err := translate.New(ctx, compiler,
		translate.WithStore(st),
		translate.WithIDGenerator(testutil.NewFixedIDGenerator(scenario.CompilationID)),
		translate.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create translator: %w", err)
	}

	h := &Harness{store: st, translator: tr, logger: logger}
	return h.execute(ctx, scenario, params)
}

func (h *Harness) execute(ctx context.Context, scenario *Scenario, params queryexpr.Params) (*Result, error) {
	result := NewResult()

	first, err := h.translator.Translate(ctx, scenario.Query, params)
	if err != nil {
		var ce *querydql.CompileError
		if !errors.As(err, &ce) {
			return nil, fmt.Errorf("failed to translate: %w", err)
		}
		result.ErrorCode = string(ce.Code)
		checkFailure(result, scenario.Expect, err)
		return result, nil
	}

	result.CompilationID = first.ID
	result.Source = first.Source
	compilation := first.Compilation
	result.Compilation = &compilation

	if scenario.Expect.Error != "" {
		result.AddError(fmt.Sprintf("expected error %s, compile succeeded", scenario.Expect.Error))
		return result, nil
	}

	second, err := h.translator.Translate(ctx, scenario.Query, params)
	if err != nil {
		result.AddError(fmt.Sprintf("second translation failed: %v", err))
		return result, nil
	}
	if !reflect.DeepEqual(first.Compilation, second.Compilation) {
		result.AddError(fmt.Sprintf("translation not idempotent: %+v != %+v", first.Compilation, second.Compilation))
	}

	for _, msg := range CheckExpectation(&compilation, scenario.Expect) {
		result.AddError(msg)
	}

	h.logger.Debug("scenario executed",
		zap.String("compilation_id", result.CompilationID),
		zap.String("source", string(result.Source)),
		zap.Bool("pass", result.Pass),
	)
	return result, nil
}

func loadSchema(dir string) (*schema.Registry, error) {
	reg, err := schema.LoadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load schema: %w", err)
	}
	if problems := schema.Validate(reg); len(problems) > 0 {
		return nil, fmt.Errorf("invalid schema: %w", problems[0])
	}
	return reg, nil
}
