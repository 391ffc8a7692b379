package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/dqlmap/internal/translate"
)

const paramQuery = `
candidate: Person
filter:
  gt: [{field: age}, {param: minAge}]
order:
  - field: lastName
`

const plainQuery = `
candidate: Person
filter:
  and:
    - gt: [{field: age}, {lit: 30}]
    - eq: [{field: active}, {lit: true}]
`

type compileResponse struct {
	Status string        `json:"status"`
	Data   CompileOutput `json:"data"`
	Error  *CLIError     `json:"error"`
}

func decodeCompile(t *testing.T, out string) compileResponse {
	t.Helper()
	var resp compileResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	return resp
}

func TestCompileText(t *testing.T) {
	query := writeFile(t, t.TempDir(), "query.yaml", paramQuery)

	out, _, err := execute(t, "compile", query, "--schema", schemaDir, "--param", "minAge=21")
	require.NoError(t, err)

	assert.Contains(t, out, "SELECT this.r_object_id FROM dm_person this WHERE this.age>21 ORDER BY this.last_name\n")
	assert.Contains(t, out, "  filter: this.age>21\n")
	assert.Contains(t, out, "  result: none\n")
	assert.Contains(t, out, "  order:  this.last_name\n")
	assert.Contains(t, out, "  range:  not pushed down\n")
	assert.Contains(t, out, "precompilable: false, source: compiled")
}

func TestCompileJSON(t *testing.T) {
	query := writeFile(t, t.TempDir(), "query.yaml", plainQuery)

	out, _, err := execute(t, "compile", query, "--schema", schemaDir, "--alias", "p", "--format", "json")
	require.NoError(t, err)

	resp := decodeCompile(t, out)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, translate.SourceCompiled, resp.Data.Source)
	assert.NotEmpty(t, resp.Data.ID)
	assert.Len(t, resp.Data.Key, 64)
	require.NotNil(t, resp.Data.Compilation)
	assert.Equal(t, "SELECT p.r_object_id FROM dm_person p WHERE p.age>30 AND p.active=true", resp.Data.Compilation.DQL)
	assert.True(t, resp.Data.Compilation.FilterComplete)
	assert.True(t, resp.Data.Compilation.Precompilable)
}

func TestCompileIncompleteClauseIsNotAnError(t *testing.T) {
	query := writeFile(t, t.TempDir(), "query.yaml", `
candidate: Person
filter:
  eq: [{field: previousAddresses.city}, {lit: Paris}]
`)

	out, _, err := execute(t, "compile", query, "--schema", schemaDir)
	require.NoError(t, err)
	assert.Contains(t, out, "SELECT this.r_object_id FROM dm_person this\n")
	assert.Contains(t, out, "  filter: in memory\n")
}

func TestCompileCacheServesFromStore(t *testing.T) {
	dir := t.TempDir()
	query := writeFile(t, dir, "query.yaml", plainQuery)
	db := filepath.Join(dir, "cache.db")

	out, _, err := execute(t, "compile", query, "--schema", schemaDir, "--cache", db, "--format", "json")
	require.NoError(t, err)
	first := decodeCompile(t, out)
	assert.Equal(t, translate.SourceCompiled, first.Data.Source)

	out, _, err = execute(t, "compile", query, "--schema", schemaDir, "--cache", db, "--format", "json")
	require.NoError(t, err)
	second := decodeCompile(t, out)
	assert.Equal(t, translate.SourceStore, second.Data.Source)
	assert.Equal(t, first.Data.ID, second.Data.ID)
	assert.Equal(t, first.Data.Compilation.DQL, second.Data.Compilation.DQL)
}

func TestCompileHardFailure(t *testing.T) {
	query := writeFile(t, t.TempDir(), "query.yaml", paramQuery)

	out, _, err := execute(t, "compile", query, "--schema", schemaDir, "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	resp := decodeCompile(t, out)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeCompile, resp.Error.Code)
	assert.Equal(t, map[string]any{"code": "UNBOUND_PARAMETER", "clause": "filter"}, resp.Error.Details)
}

func TestCompileErrors(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.yaml", plainQuery)
	bad := writeFile(t, dir, "bad.yaml", "candidate: Person\nfilter: {gt: [{field: age}]}\n")

	tests := []struct {
		name string
		args []string
		code string
	}{
		{"missing schema dir", []string{"compile", good, "--schema", filepath.Join(dir, "nope")}, "E005"},
		{"malformed query", []string{"compile", bad, "--schema", schemaDir}, ErrCodeQuery},
		{"missing query", []string{"compile", filepath.Join(dir, "missing.yaml"), "--schema", schemaDir}, ErrCodeQuery},
		{"bad param", []string{"compile", good, "--schema", schemaDir, "--param", "novalue"}, ErrCodeParam},
		{"unknown candidate", []string{"compile", writeFile(t, dir, "ghost.yaml", "candidate: Ghost\n"), "--schema", schemaDir}, ErrCodeCompile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, out, "Error ["+tt.code+"]")
		})
	}
}

func TestCompileRequiresSchemaFlag(t *testing.T) {
	query := writeFile(t, t.TempDir(), "query.yaml", plainQuery)
	_, _, err := execute(t, "compile", query)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "schema" not set`)
}

func TestParseParams(t *testing.T) {
	params, err := ParseParams([]string{
		"age=30",
		"name=Doe",
		"quoted='12'",
		"ratio=1.5",
		"flag=true",
		"none=null",
		"born=2020-01-02",
		"0=first",
		"expr=a=b",
	})
	require.NoError(t, err)

	lookup := func(name string) any {
		v, ok := params.Lookup(name)
		require.True(t, ok, name)
		return v
	}
	assert.Equal(t, int64(30), lookup("age"))
	assert.Equal(t, "Doe", lookup("name"))
	assert.Equal(t, "12", lookup("quoted"))
	assert.True(t, decimal.RequireFromString("1.5").Equal(lookup("ratio").(decimal.Decimal)))
	assert.Equal(t, true, lookup("flag"))
	assert.Nil(t, lookup("none"))
	assert.IsType(t, time.Time{}, lookup("born"))
	assert.Equal(t, "a=b", lookup("expr"))

	v, ok := params.LookupPos(0)
	require.True(t, ok)
	assert.Equal(t, "first", v)
}

func TestParseParamsInvalid(t *testing.T) {
	for _, flag := range []string{"novalue", "=1"} {
		_, err := ParseParams([]string{flag})
		require.Error(t, err, flag)
		assert.Contains(t, err.Error(), "expected name=value")
	}
}
