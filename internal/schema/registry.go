package schema

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/roach88/dqlmap/internal/ir"
)

// ErrUnknownClass is returned when a class name is not registered.
var ErrUnknownClass = errors.New("unknown class")

// ErrUnknownMember is returned when a class has no member of a given name.
var ErrUnknownMember = errors.New("unknown member")

// Registry is the class metadata store.
type Registry struct {
	classes    map[string]*Class
	order      []string
	converters map[converterKey]TypeConverter
}

// NewRegistry creates a registry with the default temporal converters.
func NewRegistry() *Registry {
	r := &Registry{
		classes:    make(map[string]*Class),
		converters: make(map[converterKey]TypeConverter),
	}
	r.RegisterConverter(reflect.TypeOf(time.Time{}), TargetString, TimeStringConverter(DefaultDateFormat))
	r.RegisterConverter(reflect.TypeOf(time.Time{}), TargetLong, TimeMillisConverter())
	return r
}

// Add registers a class, replacing any class of the same name.
func (r *Registry) Add(c *Class) *Registry {
	if _, exists := r.classes[c.Name]; !exists {
		r.order = append(r.order, c.Name)
	}
	r.classes[c.Name] = c
	return r
}

// Class returns the class with the given name.
func (r *Registry) Class(name string) (*Class, error) {
	c, ok := r.classes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownClass, name)
	}
	return c, nil
}

// Classes returns all classes in registration order.
func (r *Registry) Classes() []*Class {
	out := make([]*Class, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.classes[name])
	}
	return out
}

// Member looks up a member on a class or its superclasses.
func (r *Registry) Member(c *Class, name string) (*Member, error) {
	seen := make(map[string]bool)
	for cur := c; cur != nil; {
		if m, ok := cur.Members[name]; ok {
			return m, nil
		}
		if cur.Extends == "" || seen[cur.Name] {
			break
		}
		seen[cur.Name] = true
		cur = r.classes[cur.Extends]
	}
	return nil, fmt.Errorf("%w: %s.%s", ErrUnknownMember, c.Name, name)
}

// Related returns the class a relation or embedded member points to.
func (r *Registry) Related(m *Member) (*Class, error) {
	if m.Target == "" {
		return nil, fmt.Errorf("member %s has no target class", m.Name)
	}
	return r.Class(m.Target)
}

// EmbeddedColumn resolves the single physical column of a leaf member
// reached through a chain of embedded members. chain holds the embedded
// owners outermost first followed by the leaf.
//
// The outermost owner that declares an override for the remaining path
// wins. Otherwise the column is the owners' columns and the leaf column
// joined with "_".
func (r *Registry) EmbeddedColumn(chain []*Member) (string, error) {
	if len(chain) == 0 {
		return "", fmt.Errorf("empty embedded chain")
	}
	if len(chain) == 1 {
		return chain[0].Column, nil
	}

	for i := 0; i < len(chain)-1; i++ {
		owner := chain[i]
		if len(owner.EmbeddedColumns) == 0 {
			continue
		}
		names := make([]string, 0, len(chain)-i-1)
		for _, m := range chain[i+1:] {
			names = append(names, m.Name)
		}
		if col, ok := owner.EmbeddedColumns[strings.Join(names, ".")]; ok {
			return col, nil
		}
	}

	cols := make([]string, 0, len(chain))
	for _, m := range chain {
		if m.Column == "" {
			return "", fmt.Errorf("member %s has no column", m.Name)
		}
		cols = append(cols, m.Column)
	}
	return strings.Join(cols, "_"), nil
}

// Canonical returns the schema as an IR object for fingerprinting. The
// registered converters are included since they shape rendered values.
func (r *Registry) Canonical() ir.IRObject {
	classes := make(ir.IRObject, len(r.classes))
	for name, c := range r.classes {
		members := make(ir.IRObject, len(c.Members))
		for mname, m := range c.Members {
			overrides := make(ir.IRObject, len(m.EmbeddedColumns))
			for k, v := range m.EmbeddedColumns {
				overrides[k] = ir.IRString(v)
			}
			members[mname] = ir.IRObject{
				"column":     ir.IRString(m.Column),
				"relation":   ir.IRString(m.Relation.String()),
				"target":     ir.IRString(m.Target),
				"embedded":   ir.IRBool(m.Embedded),
				"persistent": ir.IRBool(m.Persistent),
				"kind":       ir.IRString(m.Kind),
				"columns":    overrides,
			}
		}
		classes[name] = ir.IRObject{
			"type":    ir.IRString(c.Type),
			"extends": ir.IRString(c.Extends),
			"members": members,
		}
	}
	converters := make(ir.IRObject, len(r.converters))
	for k, c := range r.converters {
		converters[k.String()] = ir.IRString(converterName(c))
	}
	return ir.IRObject{"classes": classes, "converters": converters}
}

// Fingerprint returns the content hash of the schema.
func (r *Registry) Fingerprint() (string, error) {
	return ir.SchemaFingerprint(r.Canonical())
}
