package dql

import (
	"strconv"
	"strings"
)

// MaxRangeEnd is the largest row number RETURN_TOP and RETURN_RANGE
// accept. It also stands in for an open upper bound.
const MaxRangeEnd int64 = 2147483647

// Statement holds the pieces of a SELECT. Nil clause pointers mean the
// clause could not be pushed down and is omitted.
type Statement struct {
	Type       string
	Alias      string
	Subclasses bool
	Filter     *string
	Result     *string
	Order      *string
	RangeFrom  *int64
	RangeTo    *int64
}

// Assemble renders the statement:
//
//	SELECT <result> FROM <type> <alias>
//	  [WHERE <filter>] [ORDER BY <order>]
//	  [ENABLE (RETURN_TOP n | RETURN_RANGE from to 'sort')]
//
// Without a result clause the object id is selected. When subclasses are
// excluded the filter is narrowed to the exact object type.
func Assemble(s Statement) string {
	var b strings.Builder

	b.WriteString("SELECT ")
	if s.Result != nil && *s.Result != "" {
		b.WriteString(*s.Result)
	} else {
		b.WriteString(s.Alias + ".r_object_id")
	}
	b.WriteString(" FROM " + s.Type + " " + s.Alias)

	var where []string
	if s.Filter != nil && *s.Filter != "" {
		where = append(where, *s.Filter)
	}
	if !s.Subclasses {
		where = append(where, s.Alias+".r_object_type="+FormatValue(s.Type))
	}
	switch len(where) {
	case 1:
		b.WriteString(" WHERE " + where[0])
	case 2:
		b.WriteString(" WHERE (" + where[0] + ") AND " + where[1])
	}

	if s.Order != nil && *s.Order != "" {
		b.WriteString(" ORDER BY " + *s.Order)
	}

	switch {
	case s.RangeFrom == nil && s.RangeTo != nil:
		b.WriteString(" ENABLE (RETURN_TOP " + strconv.FormatInt(min(*s.RangeTo, MaxRangeEnd), 10) + ")")
	case s.RangeFrom != nil && *s.RangeFrom < MaxRangeEnd:
		to := MaxRangeEnd
		if s.RangeTo != nil {
			to = min(*s.RangeTo, MaxRangeEnd)
		}
		b.WriteString(" ENABLE (RETURN_RANGE " +
			strconv.FormatInt(*s.RangeFrom+1, 10) + " " +
			strconv.FormatInt(to, 10) + " " +
			FormatValue(sortSpec(s.Alias, s.Order)) + ")")
	}

	return b.String()
}

// sortSpec strips the alias qualifier from the order clause for use inside
// RETURN_RANGE.
func sortSpec(alias string, order *string) string {
	if order == nil || *order == "" {
		return "r_object_id"
	}
	parts := strings.Split(*order, ",")
	for i, p := range parts {
		parts[i] = strings.TrimPrefix(strings.TrimSpace(p), alias+".")
	}
	return strings.Join(parts, ",")
}
