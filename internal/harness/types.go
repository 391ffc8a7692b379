package harness

import (
	"github.com/roach88/dqlmap/internal/querydql"
	"github.com/roach88/dqlmap/internal/translate"
)

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if all expectations match.
	Pass bool `json:"pass"`

	// CompilationID is the ID the translator gave the compilation.
	CompilationID string `json:"compilation_id,omitempty"`

	// Source tells where the first translation came from.
	Source translate.Source `json:"source,omitempty"`

	// Compilation is nil when the compile failed.
	Compilation *querydql.Compilation `json:"compilation,omitempty"`

	// ErrorCode is the hard failure code, empty on success.
	ErrorCode string `json:"error_code,omitempty"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
