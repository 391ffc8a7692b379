package queryexpr

import (
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/roach88/dqlmap/internal/ir"
)

// Canonical encodes a query as an IR object with one stable shape per
// node kind. Two queries with the same tree and clause settings encode
// to byte-identical canonical JSON.
func Canonical(q Query) (ir.IRObject, error) {
	obj := ir.IRObject{
		"candidate":  ir.IRString(q.Candidate),
		"alias":      ir.IRString(q.CandidateAlias()),
		"subclasses": ir.IRBool(q.Subclasses),
		"range": ir.IRObject{
			"from": ir.IRInt(q.Range.FromIncl),
			"to":   ir.IRInt(q.Range.ToExcl),
		},
	}

	if q.Filter != nil {
		f, err := canonicalExpr(q.Filter)
		if err != nil {
			return nil, fmt.Errorf("filter: %w", err)
		}
		obj["filter"] = f
	}

	if q.Result != nil {
		result := make(ir.IRArray, 0, len(q.Result))
		for i, e := range q.Result {
			v, err := canonicalExpr(e)
			if err != nil {
				return nil, fmt.Errorf("result[%d]: %w", i, err)
			}
			result = append(result, v)
		}
		obj["result"] = result
	}

	if q.Ordering != nil {
		ordering := make(ir.IRArray, 0, len(q.Ordering))
		for i, o := range q.Ordering {
			v, err := canonicalExpr(o.Expr)
			if err != nil {
				return nil, fmt.Errorf("ordering[%d]: %w", i, err)
			}
			ordering = append(ordering, ir.IRObject{
				"expr":       v,
				"descending": ir.IRBool(o.IsDescending()),
			})
		}
		obj["ordering"] = ordering
	}

	return obj, nil
}

func canonicalExpr(e Expr) (ir.IRValue, error) {
	switch n := Deref(e).(type) {
	case Primary:
		tuples := make(ir.IRArray, 0, len(n.Tuples))
		for _, t := range n.Tuples {
			tuples = append(tuples, ir.IRString(t))
		}
		obj := ir.IRObject{"node": ir.IRString("primary"), "path": tuples}
		if n.Left != nil {
			left, err := canonicalExpr(n.Left)
			if err != nil {
				return nil, err
			}
			obj["left"] = left
		}
		return obj, nil
	case Literal:
		v, err := canonicalValue(n.Value)
		if err != nil {
			return nil, err
		}
		return ir.IRObject{"node": ir.IRString("literal"), "value": v}, nil
	case Parameter:
		return ir.IRObject{"node": ir.IRString("parameter"), "name": ir.IRString(n.Name)}, nil
	case Dyadic:
		left, err := canonicalExpr(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := canonicalExpr(n.Right)
		if err != nil {
			return nil, err
		}
		return ir.IRObject{
			"node":  ir.IRString("dyadic"),
			"op":    ir.IRString(string(n.Op)),
			"left":  left,
			"right": right,
		}, nil
	case Not:
		inner, err := canonicalExpr(n.Expr)
		if err != nil {
			return nil, err
		}
		return ir.IRObject{"node": ir.IRString("not"), "expr": inner}, nil
	case Invoke:
		args := make(ir.IRArray, 0, len(n.Args))
		for _, a := range n.Args {
			v, err := canonicalExpr(a)
			if err != nil {
				return nil, err
			}
			args = append(args, v)
		}
		obj := ir.IRObject{
			"node":   ir.IRString("invoke"),
			"method": ir.IRString(n.Method),
			"args":   args,
		}
		if n.Left != nil {
			left, err := canonicalExpr(n.Left)
			if err != nil {
				return nil, err
			}
			obj["left"] = left
		}
		return obj, nil
	case nil:
		return nil, fmt.Errorf("nil expression")
	default:
		return nil, fmt.Errorf("unsupported expression %T", e)
	}
}

// canonicalValue tags literal values with their kind. Floats and decimals
// are carried as text since canonical JSON forbids floating point. Times
// keep their zone offset because converters render wall-clock time.
func canonicalValue(v any) (ir.IRValue, error) {
	tagged := func(kind string, value ir.IRValue) ir.IRObject {
		return ir.IRObject{"kind": ir.IRString(kind), "v": value}
	}

	switch x := v.(type) {
	case nil:
		return ir.IRObject{"kind": ir.IRString("null")}, nil
	case string:
		return tagged("string", ir.IRString(x)), nil
	case Char:
		return tagged("char", ir.IRString(string(rune(x)))), nil
	case bool:
		return tagged("bool", ir.IRBool(x)), nil
	case decimal.Decimal:
		return tagged("decimal", ir.IRString(x.String())), nil
	case float32:
		return tagged("float", ir.IRString(strconv.FormatFloat(float64(x), 'g', -1, 32))), nil
	case float64:
		return tagged("float", ir.IRString(strconv.FormatFloat(x, 'g', -1, 64))), nil
	case time.Time:
		return tagged("date", ir.IRString(x.Format(time.RFC3339Nano))), nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return tagged("int", ir.IRInt(rv.Int())), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > 1<<63-1 {
			return tagged("uint", ir.IRString(strconv.FormatUint(u, 10))), nil
		}
		return tagged("int", ir.IRInt(int64(u))), nil
	}
	return nil, fmt.Errorf("unsupported literal value %T", v)
}
