package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/dqlmap/internal/querydql"
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }
func intPtr(n int64) *int64   { return &n }

func TestCheckExpectation(t *testing.T) {
	got := &querydql.Compilation{
		Filter:         strPtr("this.age>30"),
		Order:          strPtr("this.age"),
		RangeTo:        intPtr(10),
		FilterComplete: true,
		ResultComplete: true,
		OrderComplete:  true,
		RangeComplete:  true,
		Precompilable:  true,
		DQL:            "SELECT this.r_object_id FROM dm_person this WHERE this.age>30 ORDER BY this.age ENABLE (RETURN_TOP 10)",
	}

	tests := []struct {
		name string
		want Expectation
		errs []string
	}{
		{"empty expectation", Expectation{}, nil},
		{"matching", Expectation{
			Filter:        strPtr("this.age>30"),
			RangeTo:       intPtr(10),
			RangeComplete: boolPtr(true),
			Absent:        []string{"result"},
		}, nil},
		{"dql mismatch", Expectation{DQL: strPtr("SELECT 1")}, []string{
			`dql: expected "SELECT 1", got "` + got.DQL + `"`,
		}},
		{"text expected but absent", Expectation{Result: strPtr("this.age")}, []string{
			`result: expected "this.age", got no text`,
		}},
		{"range bound missing", Expectation{RangeFrom: intPtr(5)}, []string{
			"range_from: expected 5, got none",
		}},
		{"flag mismatch", Expectation{Precompilable: boolPtr(false)}, []string{
			"precompilable: expected false, got true",
		}},
		{"present but expected absent", Expectation{Absent: []string{"order"}}, []string{
			`order: expected no text, got "this.age"`,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.errs, CheckExpectation(got, tt.want))
		})
	}
}
