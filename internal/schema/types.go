package schema

import (
	"fmt"
	"strings"

	"github.com/gobuffalo/flect"
)

// RelationType classifies how a member relates to another class.
type RelationType int

const (
	RelationNone RelationType = iota
	OneToOneUni
	OneToOneBi
	OneToManyUni
	OneToManyBi
	ManyToOneUni
	ManyToOneBi
	ManyToManyBi
)

var relationNames = map[RelationType]string{
	RelationNone: "none",
	OneToOneUni:  "one_to_one_uni",
	OneToOneBi:   "one_to_one_bi",
	OneToManyUni: "one_to_many_uni",
	OneToManyBi:  "one_to_many_bi",
	ManyToOneUni: "many_to_one_uni",
	ManyToOneBi:  "many_to_one_bi",
	ManyToManyBi: "many_to_many_bi",
}

func (r RelationType) String() string {
	if s, ok := relationNames[r]; ok {
		return s
	}
	return fmt.Sprintf("relation(%d)", int(r))
}

// ParseRelationType converts a snake_case relation name.
func ParseRelationType(s string) (RelationType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for r, name := range relationNames {
		if name == s {
			return r, nil
		}
	}
	return RelationNone, fmt.Errorf("unknown relation type %q", s)
}

// IsSingleValued reports whether the relation refers to at most one object.
func (r RelationType) IsSingleValued() bool {
	switch r {
	case OneToOneUni, OneToOneBi, ManyToOneUni, ManyToOneBi:
		return true
	}
	return false
}

// IsMultiValued reports whether the relation refers to a collection.
func (r RelationType) IsMultiValued() bool {
	switch r {
	case OneToManyUni, OneToManyBi, ManyToManyBi:
		return true
	}
	return false
}

// IsReference reports whether a non-embedded member of this relation can be
// used as an opaque join target in an identity filter.
func (r RelationType) IsReference() bool {
	switch r {
	case OneToManyUni, OneToManyBi, ManyToOneUni, ManyToOneBi:
		return true
	}
	return false
}

// Member describes one field of a class.
type Member struct {
	Name       string
	Column     string
	Relation   RelationType
	Target     string // related or embedded class
	Embedded   bool
	Persistent bool
	Kind       string // scalar kind hint: string, int, float, bool, date

	// EmbeddedColumns overrides flattened column names, keyed by the dotted
	// member path below this member (e.g. "street" or "geo.lat").
	EmbeddedColumns map[string]string
}

// IsScalar reports whether the member holds a plain value.
func (m *Member) IsScalar() bool {
	return m.Relation == RelationNone && !m.Embedded
}

// Class describes a persistent class and the Documentum type it maps to.
type Class struct {
	Name    string
	Type    string
	Extends string
	Members map[string]*Member

	order []string
}

// NewClass creates an empty class.
func NewClass(name, typeName string) *Class {
	return &Class{
		Name:    name,
		Type:    typeName,
		Members: make(map[string]*Member),
	}
}

// AddMember adds a member, defaulting its column to the snake_case name.
func (c *Class) AddMember(m *Member) *Class {
	if m.Column == "" {
		m.Column = DefaultColumn(m.Name)
	}
	if _, exists := c.Members[m.Name]; !exists {
		c.order = append(c.order, m.Name)
	}
	c.Members[m.Name] = m
	return c
}

// MemberNames returns member names in declaration order.
func (c *Class) MemberNames() []string {
	return append([]string(nil), c.order...)
}

// DefaultColumn derives an attribute name from a member name:
// lastName becomes last_name.
func DefaultColumn(member string) string {
	return flect.Underscore(member)
}
