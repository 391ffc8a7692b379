package querydql

import (
	"errors"
	"strings"

	"github.com/roach88/dqlmap/internal/schema"
)

// resolution is the outcome of resolving a field path: a column or
// attribute name, or a signal that the member is not stored in the mapped
// type.
type resolution struct {
	column      string
	notStorable bool
	reason      string
}

func notStored(reason string) resolution {
	return resolution{notStorable: true, reason: reason}
}

// resolvePath walks tuples from the candidate class. A leading tuple equal
// to the candidate alias is skipped. Embedded single-valued members are
// descended into and accumulated so the leaf column can be resolved
// through the whole chain.
func resolvePath(cx *clauseContext, tuples []string) (resolution, error) {
	st := cx.state
	if len(tuples) > 0 && tuples[0] == st.alias {
		tuples = tuples[1:]
	}
	if len(tuples) == 0 {
		return notStored("empty path"), nil
	}

	class := st.class
	var chain []*schema.Member
	for i, name := range tuples {
		last := i == len(tuples)-1

		m, err := st.reg.Member(class, name)
		if err != nil {
			return resolution{}, &CompileError{
				Code:    CodeUnknownMember,
				Clause:  cx.clause,
				Message: "path " + joinPath(tuples),
				Hard:    true,
				Err:     err,
			}
		}

		if m.IsScalar() {
			if !last {
				return resolution{}, hardError(CodeNonRelationPath, cx.clause,
					"path %s continues past non-relation member %s", joinPath(tuples), name)
			}
			if !m.Persistent {
				return notStored("member " + name + " is not persistent"), nil
			}
			if len(chain) == 0 {
				return resolution{column: m.Column}, nil
			}
			col, err := st.reg.EmbeddedColumn(append(chain, m))
			if err != nil {
				return resolution{}, &CompileError{Code: CodeUnknownMember, Clause: cx.clause, Message: "embedded path " + joinPath(tuples), Hard: true, Err: err}
			}
			return resolution{column: col}, nil
		}

		if m.Embedded {
			if m.Relation.IsMultiValued() {
				return resolution{}, softError(CodeEmbeddedCollection, cx.clause,
					"querying embedded collection %s is not supported", name)
			}
			target, err := st.reg.Related(m)
			if err != nil {
				code := CodeUnknownClass
				if !errors.Is(err, schema.ErrUnknownClass) {
					code = CodeUnknownMember
				}
				return resolution{}, &CompileError{Code: code, Clause: cx.clause, Message: "embedded member " + name, Hard: true, Err: err}
			}
			chain = append(chain, m)
			class = target
			if last {
				return notStored("embedded object " + name + " has no single column"), nil
			}
			continue
		}

		chain = nil
		if m.Relation.IsReference() && m.Persistent {
			if last {
				return resolution{column: name}, nil
			}
			return resolution{}, hardError(CodeJoinTraversal, cx.clause,
				"joining to related object at %s in %s is not supported", name, joinPath(tuples))
		}
		return notStored("relation " + name + " (" + m.Relation.String() + ") is not stored in this type"), nil
	}

	return notStored("path " + joinPath(tuples) + " does not end in a column"), nil
}

func joinPath(tuples []string) string {
	return strings.Join(tuples, ".")
}
