package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/dqlmap/internal/querydql"
)

// AssertionError describes one expectation that did not hold.
type AssertionError struct {
	Field    string
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("%s: expected %s, got %s", e.Field, e.Expected, e.Actual)
}

// CheckExpectation compares a compilation with the fields set in want and
// returns one message per mismatch.
func CheckExpectation(got *querydql.Compilation, want Expectation) []string {
	var errs []string
	add := func(err *AssertionError) {
		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	if want.DQL != nil && *want.DQL != got.DQL {
		add(&AssertionError{Field: "dql", Expected: quote(want.DQL), Actual: quote(&got.DQL)})
	}
	add(checkText("filter", want.Filter, got.Filter))
	add(checkText("result", want.Result, got.Result))
	add(checkText("order", want.Order, got.Order))
	add(checkInt("range_from", want.RangeFrom, got.RangeFrom))
	add(checkInt("range_to", want.RangeTo, got.RangeTo))
	add(checkFlag("filter_complete", want.FilterComplete, got.FilterComplete))
	add(checkFlag("result_complete", want.ResultComplete, got.ResultComplete))
	add(checkFlag("order_complete", want.OrderComplete, got.OrderComplete))
	add(checkFlag("range_complete", want.RangeComplete, got.RangeComplete))
	add(checkFlag("precompilable", want.Precompilable, got.Precompilable))

	texts := map[string]*string{"filter": got.Filter, "result": got.Result, "order": got.Order}
	for _, clause := range want.Absent {
		if text := texts[clause]; text != nil {
			add(&AssertionError{Field: clause, Expected: "no text", Actual: quote(text)})
		}
	}
	return errs
}

// checkFailure records whether a hard failure was the expected one.
func checkFailure(result *Result, want Expectation, err error) {
	switch {
	case want.Error == "":
		result.AddError(fmt.Sprintf("unexpected compile error: %v", err))
	case want.Error != result.ErrorCode:
		result.AddError((&AssertionError{
			Field:    "error",
			Expected: want.Error,
			Actual:   result.ErrorCode + " (" + err.Error() + ")",
		}).Error())
	}
}

func checkText(field string, want, got *string) *AssertionError {
	if want == nil {
		return nil
	}
	if got == nil || *got != *want {
		return &AssertionError{Field: field, Expected: quote(want), Actual: quote(got)}
	}
	return nil
}

func checkInt(field string, want, got *int64) *AssertionError {
	if want == nil {
		return nil
	}
	if got == nil || *got != *want {
		actual := "none"
		if got != nil {
			actual = fmt.Sprint(*got)
		}
		return &AssertionError{Field: field, Expected: fmt.Sprint(*want), Actual: actual}
	}
	return nil
}

func checkFlag(field string, want *bool, got bool) *AssertionError {
	if want == nil || *want == got {
		return nil
	}
	return &AssertionError{Field: field, Expected: fmt.Sprint(*want), Actual: fmt.Sprint(got)}
}

func quote(s *string) string {
	if s == nil {
		return "no text"
	}
	return "\"" + strings.ReplaceAll(*s, "\"", "\\\"") + "\""
}
