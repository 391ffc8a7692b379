package queryexpr

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// queryFile is the YAML shape of a query tree.
type queryFile struct {
	Candidate  string      `yaml:"candidate"`
	Alias      string      `yaml:"alias,omitempty"`
	Subclasses *bool       `yaml:"subclasses,omitempty"`
	Filter     yaml.Node   `yaml:"filter,omitempty"`
	Result     []yaml.Node `yaml:"result,omitempty"`
	Order      []yaml.Node `yaml:"order,omitempty"`
	Range      *rangeFile  `yaml:"range,omitempty"`
}

type rangeFile struct {
	From *int64 `yaml:"from,omitempty"`
	To   *int64 `yaml:"to,omitempty"`
}

// LoadQuery reads a query tree from a YAML file.
func LoadQuery(path string) (Query, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Query{}, fmt.Errorf("failed to read query file: %w", err)
	}
	return DecodeQuery(data)
}

// DecodeQuery parses a query tree from YAML and validates its structure.
//
// Unknown top-level keys are rejected. Subclasses defaults to true and an
// absent range selects every row. An explicit "to: 0" is rejected since
// the zero Range already means every row.
func DecodeQuery(data []byte) (Query, error) {
	var f queryFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil {
		return Query{}, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return f.toQuery()
}

// UnmarshalYAML lets a Query be embedded in other YAML documents.
func (q *Query) UnmarshalYAML(node *yaml.Node) error {
	var f queryFile
	if err := node.Decode(&f); err != nil {
		return err
	}
	decoded, err := f.toQuery()
	if err != nil {
		return err
	}
	*q = decoded
	return nil
}

func (f *queryFile) toQuery() (Query, error) {
	q := Query{
		Candidate:  f.Candidate,
		Alias:      f.Alias,
		Subclasses: true,
		Range:      NoRange(),
	}
	if f.Subclasses != nil {
		q.Subclasses = *f.Subclasses
	}

	var err error
	if !isZeroNode(&f.Filter) {
		if q.Filter, err = DecodeExpr(&f.Filter); err != nil {
			return Query{}, fmt.Errorf("filter: %w", err)
		}
	}
	for i := range f.Result {
		e, err := DecodeExpr(&f.Result[i])
		if err != nil {
			return Query{}, fmt.Errorf("result[%d]: %w", i, err)
		}
		q.Result = append(q.Result, e)
	}
	for i := range f.Order {
		o, err := decodeOrder(&f.Order[i])
		if err != nil {
			return Query{}, fmt.Errorf("order[%d]: %w", i, err)
		}
		q.Ordering = append(q.Ordering, o)
	}
	if f.Range != nil {
		if f.Range.From != nil {
			q.Range.FromIncl = *f.Range.From
		}
		if f.Range.To != nil {
			if *f.Range.To == 0 {
				return Query{}, fmt.Errorf("range: to must be greater than 0")
			}
			q.Range.ToExcl = *f.Range.To
		}
	}

	if err := Validate(q).Err(); err != nil {
		return Query{}, err
	}
	return q, nil
}

func isZeroNode(n *yaml.Node) bool {
	return n.Kind == 0 || (n.Kind == yaml.ScalarNode && n.Tag == "!!null")
}

var dyadicKeys = map[string]Operator{
	"and": OpAnd,
	"or":  OpOr,
	"eq":  OpEq,
	"ne":  OpNotEq,
	"lt":  OpLt,
	"le":  OpLtEq,
	"gt":  OpGt,
	"ge":  OpGtEq,
	"add": OpAdd,
	"sub": OpSub,
	"mul": OpMul,
	"div": OpDiv,
}

// DecodeExpr converts a YAML node into an expression tree node.
//
// Accepted forms:
//
//	{field: "a.b"} | {field: [a, b], on: <node>}
//	{lit: 30} | {lit: "x", type: char|date|float|decimal|string}
//	{param: name} | {param: 0}
//	{and|or|eq|ne|lt|le|gt|ge|add|sub|mul|div: [<left>, <right>]}
//	{not: <node>}
//	{call: COUNT, args: [<node>...], on: <node>}
func DecodeExpr(node *yaml.Node) (Expr, error) {
	if node.Kind == yaml.DocumentNode && len(node.Content) == 1 {
		node = node.Content[0]
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: expression must be a mapping", node.Line)
	}

	fields := make(map[string]*yaml.Node, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		fields[node.Content[i].Value] = node.Content[i+1]
	}

	switch {
	case fields["field"] != nil:
		return decodePrimary(fields)
	case fields["lit"] != nil:
		return decodeLiteral(fields["lit"], fields["type"])
	case fields["param"] != nil:
		return Parameter{Name: fields["param"].Value}, nil
	case fields["not"] != nil:
		inner, err := DecodeExpr(fields["not"])
		if err != nil {
			return nil, err
		}
		return Not{Expr: inner}, nil
	case fields["call"] != nil:
		return decodeInvoke(fields)
	}

	for key, op := range dyadicKeys {
		operands := fields[key]
		if operands == nil {
			continue
		}
		if operands.Kind != yaml.SequenceNode || len(operands.Content) != 2 {
			return nil, fmt.Errorf("line %d: %s requires exactly two operands", operands.Line, key)
		}
		left, err := DecodeExpr(operands.Content[0])
		if err != nil {
			return nil, err
		}
		right, err := DecodeExpr(operands.Content[1])
		if err != nil {
			return nil, err
		}
		return Dyadic{Op: op, Left: left, Right: right}, nil
	}

	return nil, fmt.Errorf("line %d: unrecognized expression node", node.Line)
}

func decodePrimary(fields map[string]*yaml.Node) (Expr, error) {
	n := fields["field"]
	var p Primary
	switch n.Kind {
	case yaml.ScalarNode:
		p = Path(n.Value)
	case yaml.SequenceNode:
		if err := n.Decode(&p.Tuples); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("line %d: field must be a string or list", n.Line)
	}
	if on := fields["on"]; on != nil {
		left, err := DecodeExpr(on)
		if err != nil {
			return nil, err
		}
		p.Left = left
	}
	return p, nil
}

func decodeInvoke(fields map[string]*yaml.Node) (Expr, error) {
	inv := Invoke{Method: fields["call"].Value}
	if args := fields["args"]; args != nil {
		if args.Kind != yaml.SequenceNode {
			return nil, fmt.Errorf("line %d: args must be a list", args.Line)
		}
		for _, a := range args.Content {
			e, err := DecodeExpr(a)
			if err != nil {
				return nil, err
			}
			inv.Args = append(inv.Args, e)
		}
	}
	if on := fields["on"]; on != nil {
		left, err := DecodeExpr(on)
		if err != nil {
			return nil, err
		}
		inv.Left = left
	}
	return inv, nil
}

func decodeLiteral(n, typ *yaml.Node) (Expr, error) {
	if typ != nil {
		v, err := ConvertScalar(n.Value, typ.Value)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return Literal{Value: v}, nil
	}
	v, err := ScalarValue(n)
	if err != nil {
		return nil, err
	}
	return Literal{Value: v}, nil
}

// decodeOrder accepts {field: x, desc: true} or {expr: <node>, dir: descending}.
func decodeOrder(node *yaml.Node) (Order, error) {
	if node.Kind != yaml.MappingNode {
		return Order{}, fmt.Errorf("line %d: ordering entry must be a mapping", node.Line)
	}

	var o Order
	var rest []*yaml.Node
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		switch key.Value {
		case "desc":
			desc, err := strconv.ParseBool(val.Value)
			if err != nil {
				return Order{}, fmt.Errorf("line %d: desc: %w", val.Line, err)
			}
			if desc {
				o.Direction = Descending
			} else {
				o.Direction = Ascending
			}
		case "dir":
			o.Direction = Direction(strings.ToLower(val.Value))
		case "expr":
			e, err := DecodeExpr(val)
			if err != nil {
				return Order{}, err
			}
			o.Expr = e
		default:
			rest = append(rest, key, val)
		}
	}

	if o.Expr == nil {
		e, err := DecodeExpr(&yaml.Node{Kind: yaml.MappingNode, Content: rest, Line: node.Line})
		if err != nil {
			return Order{}, err
		}
		o.Expr = e
	}
	if o.Direction == "" {
		o.Direction = Ascending
	}
	return o, nil
}
