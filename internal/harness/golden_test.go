package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/dqlmap/internal/ir"
	"github.com/roach88/dqlmap/internal/querydql"
)

func TestSnapshot_OmitsAbsentFields(t *testing.T) {
	result := &Result{
		CompilationID: "c-1",
		Compilation: &querydql.Compilation{
			Result:         strPtr("COUNT(this.id)"),
			ResultComplete: true,
			FilterComplete: true,
			OrderComplete:  true,
			DQL:            "SELECT COUNT(this.id) FROM dm_person this",
		},
	}

	data, err := ir.MarshalCanonical(Snapshot("count", result))
	require.NoError(t, err)
	assert.Equal(t,
		`{"compilation_id":"c-1","dql":"SELECT COUNT(this.id) FROM dm_person this","filter_complete":true,`+
			`"order_complete":true,"precompilable":false,"range_complete":false,"result":"COUNT(this.id)",`+
			`"result_complete":true,"scenario":"count"}`,
		string(data))
}

func TestSnapshot_Failure(t *testing.T) {
	data, err := ir.MarshalCanonical(Snapshot("broken", &Result{ErrorCode: "JOIN_TRAVERSAL"}))
	require.NoError(t, err)
	assert.Equal(t, `{"error":"JOIN_TRAVERSAL","scenario":"broken"}`, string(data))
}

func TestSnapshot_RangeBounds(t *testing.T) {
	snap := Snapshot("paged", &Result{Compilation: &querydql.Compilation{RangeFrom: intPtr(5), RangeTo: intPtr(15)}})
	assert.Equal(t, ir.IRInt(5), snap["range_from"])
	assert.Equal(t, ir.IRInt(15), snap["range_to"])
}

func TestRunWithGolden_FilterAnd(t *testing.T) {
	result, err := RunWithGolden(t, loadTestScenario(t, "filter_and"))
	require.NoError(t, err)
	assert.True(t, result.Pass)
}
