package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/roach88/dqlmap/internal/querydql"
	"github.com/roach88/dqlmap/internal/translate"
)

func loadTestScenario(t *testing.T, name string) *Scenario {
	t.Helper()
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
	require.NoError(t, err)
	return s
}

func TestRun_FilterAnd(t *testing.T) {
	result, err := Run(loadTestScenario(t, "filter_and"))
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Errors)
	assert.Equal(t, "test-compilation-default", result.CompilationID)
	assert.Equal(t, translate.SourceCompiled, result.Source)
	require.NotNil(t, result.Compilation)
	assert.True(t, result.Compilation.Precompilable)
}

func TestRun_ExpectedHardFailure(t *testing.T) {
	result, err := Run(loadTestScenario(t, "unbound_parameter"))
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, string(querydql.CodeUnboundParameter), result.ErrorCode)
	assert.Nil(t, result.Compilation)
	assert.Empty(t, result.CompilationID)
}

func TestRun_UnexpectedHardFailure(t *testing.T) {
	s := loadTestScenario(t, "unbound_parameter")
	s.Expect.Error = ""

	result, err := Run(s)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "unexpected compile error")
}

func TestRun_WrongErrorCode(t *testing.T) {
	s := loadTestScenario(t, "unbound_parameter")
	s.Expect.Error = string(querydql.CodeJoinTraversal)

	result, err := Run(s)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "error: expected JOIN_TRAVERSAL, got UNBOUND_PARAMETER")
}

func TestRun_ExpectedErrorButCompiled(t *testing.T) {
	s := loadTestScenario(t, "filter_and")
	s.Expect.Error = string(querydql.CodeUnboundParameter)

	result, err := Run(s)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "expected error UNBOUND_PARAMETER, compile succeeded")
}

func TestRun_ReportsMismatches(t *testing.T) {
	s := loadTestScenario(t, "filter_and")
	wrongFilter := "this.age>31"
	no := false
	s.Expect.Filter = &wrongFilter
	s.Expect.FilterComplete = &no
	s.Expect.Absent = []string{"filter"}

	result, err := Run(s)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	assert.Len(t, result.Errors, 3)
	assert.Contains(t, result.Errors[0], `filter: expected "this.age>31", got "this.age>30 AND this.active=true"`)
	assert.Contains(t, result.Errors[1], "filter_complete: expected false, got true")
	assert.Contains(t, result.Errors[2], "filter: expected no text")
}

func TestRun_CustomCompilationID(t *testing.T) {
	s := loadTestScenario(t, "count_projection")
	s.CompilationID = "compilation-42"

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, "compilation-42", result.CompilationID)
}

func TestRun_MissingSchema(t *testing.T) {
	s := loadTestScenario(t, "filter_and")
	s.Schema = t.TempDir()

	_, err := Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load schema")
}

func TestRunWithLogger_LogsPartialPushdown(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	result, err := RunWithLogger(loadTestScenario(t, "embedded_collection"), zap.New(core))
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	partial := logs.FilterMessage("clause not fully translated to DQL, will be evaluated in memory").All()
	require.NotEmpty(t, partial)
	assert.Equal(t, "filter", partial[0].ContextMap()["clause"])
}

func TestRun_AllScenarios(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		s, err := LoadScenario(path)
		require.NoError(t, err, path)

		t.Run(s.Name, func(t *testing.T) {
			result, err := RunWithGolden(t, s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}
