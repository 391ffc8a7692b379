package queryexpr

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/araddon/dateparse"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// ScalarValue converts a YAML scalar into the Go value carried by Literal
// and Params. Floating point scalars become decimal.Decimal so that the
// exact written value survives until the compiler narrows it.
func ScalarValue(n *yaml.Node) (any, error) {
	if n.Kind != yaml.ScalarNode {
		return nil, fmt.Errorf("line %d: expected a scalar value", n.Line)
	}

	switch n.ShortTag() {
	case "!!null":
		return nil, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, err
		}
		return b, nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err != nil {
			return nil, err
		}
		return i, nil
	case "!!float":
		if d, err := decimal.NewFromString(n.Value); err == nil {
			return d, nil
		}
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, err
		}
		return f, nil
	case "!!timestamp":
		return ConvertScalar(n.Value, "date")
	default:
		return n.Value, nil
	}
}

// ConvertScalar converts text to a value of an explicitly named kind:
// string, int, float, decimal, bool, char, date or null.
func ConvertScalar(s, kind string) (any, error) {
	switch strings.ToLower(kind) {
	case "string", "str":
		return s, nil
	case "int", "long":
		return strconv.ParseInt(s, 10, 64)
	case "float", "double":
		return strconv.ParseFloat(s, 64)
	case "decimal":
		return decimal.NewFromString(s)
	case "bool", "boolean":
		return strconv.ParseBool(s)
	case "char":
		if utf8.RuneCountInString(s) != 1 {
			return nil, fmt.Errorf("char value %q must be exactly one character", s)
		}
		r, _ := utf8.DecodeRuneInString(s)
		return Char(r), nil
	case "date", "time", "timestamp":
		t, err := dateparse.ParseAny(s)
		if err != nil {
			return nil, fmt.Errorf("invalid date %q: %w", s, err)
		}
		return t, nil
	case "null":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown value type %q", kind)
	}
}

// ParseValue infers the kind of a free-form textual value such as a
// command-line parameter: null, booleans, integers, decimals, dates
// (when the text starts with a digit and parses as one) and strings.
// Quoted text is always a string.
func ParseValue(s string) any {
	if len(s) >= 2 {
		if (s[0] == '\'' && s[len(s)-1] == '\'') || (s[0] == '"' && s[len(s)-1] == '"') {
			return s[1 : len(s)-1]
		}
	}

	switch s {
	case "null":
		return nil
	case "true":
		return true
	case "false":
		return false
	}

	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if d, err := decimal.NewFromString(s); err == nil {
		return d
	}
	if s != "" && s[0] >= '0' && s[0] <= '9' {
		if t, err := dateparse.ParseAny(s); err == nil {
			return t
		}
	}
	return s
}

// ParseParamKey classifies a binding key: non-negative integers are
// positions, anything else is a name.
func ParseParamKey(key string) (name string, pos int, positional bool) {
	if p, err := strconv.Atoi(key); err == nil && p >= 0 {
		return "", p, true
	}
	return key, 0, false
}

// DecodeParams converts a YAML mapping into Params.
//
// Values are scalars or {value: x, type: kind} mappings for kinds YAML
// cannot express directly (char, date).
func DecodeParams(node *yaml.Node) (Params, error) {
	params := NewParams()
	if node == nil || node.Kind == 0 {
		return params, nil
	}
	if node.Kind == yaml.DocumentNode && len(node.Content) == 1 {
		node = node.Content[0]
	}
	if node.Kind != yaml.MappingNode {
		return params, fmt.Errorf("line %d: params must be a mapping", node.Line)
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i].Value, node.Content[i+1]

		var v any
		var err error
		if val.Kind == yaml.MappingNode {
			var typed struct {
				Value string `yaml:"value"`
				Type  string `yaml:"type"`
			}
			if err = val.Decode(&typed); err == nil {
				v, err = ConvertScalar(typed.Value, typed.Type)
			}
		} else {
			v, err = ScalarValue(val)
		}
		if err != nil {
			return params, fmt.Errorf("param %q: %w", key, err)
		}

		if name, pos, positional := ParseParamKey(key); positional {
			params.BindPos(pos, v)
		} else {
			params.Bind(name, v)
		}
	}
	return params, nil
}
