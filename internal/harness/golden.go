package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/dqlmap/internal/ir"
)

// Snapshot converts a scenario result to the IR object stored in golden
// files. Absent clause texts and range bounds are omitted because
// canonical JSON has no null.
func Snapshot(scenarioName string, result *Result) ir.IRObject {
	snap := ir.IRObject{"scenario": ir.IRString(scenarioName)}
	if result.ErrorCode != "" {
		snap["error"] = ir.IRString(result.ErrorCode)
	}

	c := result.Compilation
	if c == nil {
		return snap
	}
	snap["compilation_id"] = ir.IRString(result.CompilationID)
	snap["dql"] = ir.IRString(c.DQL)
	putText(snap, "filter", c.Filter)
	putText(snap, "result", c.Result)
	putText(snap, "order", c.Order)
	putInt(snap, "range_from", c.RangeFrom)
	putInt(snap, "range_to", c.RangeTo)
	snap["filter_complete"] = ir.IRBool(c.FilterComplete)
	snap["result_complete"] = ir.IRBool(c.ResultComplete)
	snap["order_complete"] = ir.IRBool(c.OrderComplete)
	snap["range_complete"] = ir.IRBool(c.RangeComplete)
	snap["precompilable"] = ir.IRBool(c.Precompilable)
	return snap
}

func putText(obj ir.IRObject, key string, s *string) {
	if s != nil {
		obj[key] = ir.IRString(*s)
	}
}

func putInt(obj ir.IRObject, key string, n *int64) {
	if n != nil {
		obj[key] = ir.IRInt(*n)
	}
}

// RunWithGolden executes a scenario and compares its compilation against
// testdata/golden/{scenario.Name}.golden.
//
// Returns error if scenario execution fails. Test failure (via goldie)
// occurs if the compilation doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an already computed result against its golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := ir.MarshalCanonical(Snapshot(scenarioName, result))
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
