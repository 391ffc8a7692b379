package schema

import (
	"fmt"
	"sort"
	"strings"
)

// Schema validation codes (E200-E299).
const (
	ErrUnknownTarget     = "E201" // relation or embedded target not registered
	ErrEmbeddedCycle     = "E202" // embedded classes contain each other
	ErrDuplicateType     = "E203" // two classes map to the same type
	ErrMissingTarget     = "E204" // embedded member without a target
	ErrUnknownSuperclass = "E205"
	ErrEmptyColumn       = "E206"
)

// ValidationError is one schema problem.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks cross-class consistency. All problems are returned.
func Validate(r *Registry) []ValidationError {
	var errs []ValidationError

	types := make(map[string]string)
	for _, c := range r.Classes() {
		if prev, ok := types[c.Type]; ok && c.Extends == "" {
			errs = append(errs, ValidationError{
				Field:   c.Name,
				Message: fmt.Sprintf("type %s already mapped by %s", c.Type, prev),
				Code:    ErrDuplicateType,
			})
		} else if !ok {
			types[c.Type] = c.Name
		}

		if c.Extends != "" {
			if _, err := r.Class(c.Extends); err != nil {
				errs = append(errs, ValidationError{
					Field:   c.Name,
					Message: fmt.Sprintf("superclass %s is not defined", c.Extends),
					Code:    ErrUnknownSuperclass,
				})
			}
		}

		for _, name := range c.MemberNames() {
			m := c.Members[name]
			field := c.Name + "." + name
			if m.Persistent && m.IsScalar() && strings.TrimSpace(m.Column) == "" {
				errs = append(errs, ValidationError{Field: field, Message: "column must not be empty", Code: ErrEmptyColumn})
			}
			if m.Embedded && m.Target == "" {
				errs = append(errs, ValidationError{Field: field, Message: "embedded member has no target class", Code: ErrMissingTarget})
				continue
			}
			if m.Target != "" {
				if _, err := r.Class(m.Target); err != nil {
					errs = append(errs, ValidationError{
						Field:   field,
						Message: fmt.Sprintf("target class %s is not defined", m.Target),
						Code:    ErrUnknownTarget,
					})
				}
			}
		}
	}

	for _, scc := range embeddedCycles(r) {
		errs = append(errs, ValidationError{
			Field:   scc[0],
			Message: "embedded cycle: " + strings.Join(append(scc, scc[0]), " -> "),
			Code:    ErrEmbeddedCycle,
		})
	}
	return errs
}

type embedGraph map[string][]string

// embeddedCycles returns each strongly connected set of classes that
// embed one another, including classes that embed themselves.
func embeddedCycles(r *Registry) [][]string {
	graph := make(embedGraph)
	for _, c := range r.Classes() {
		graph[c.Name] = []string{}
		for _, name := range c.MemberNames() {
			m := c.Members[name]
			if m.Embedded && m.Target != "" {
				graph[c.Name] = append(graph[c.Name], m.Target)
			}
		}
	}

	var cycles [][]string
	for _, scc := range tarjanSCC(graph) {
		if len(scc) > 1 || hasSelfLoop(scc[0], graph) {
			sort.Strings(scc)
			cycles = append(cycles, scc)
		}
	}
	sort.Slice(cycles, func(i, j int) bool { return cycles[i][0] < cycles[j][0] })
	return cycles
}

func hasSelfLoop(node string, graph embedGraph) bool {
	for _, n := range graph[node] {
		if n == node {
			return true
		}
	}
	return false
}

func tarjanSCC(graph embedGraph) [][]string {
	var (
		index   int
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var connect func(v string)
	connect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, seen := indices[w]; !seen {
				if _, known := graph[w]; !known {
					continue
				}
				connect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	nodes := make([]string, 0, len(graph))
	for n := range graph {
		nodes = append(nodes, n)
	}
	sort.Strings(nodes)
	for _, n := range nodes {
		if _, seen := indices[n]; !seen {
			connect(n)
		}
	}
	return sccs
}
