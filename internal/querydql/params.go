package querydql

import (
	"reflect"
	"time"

	"github.com/shopspring/decimal"

	"github.com/roach88/dqlmap/internal/queryexpr"
	"github.com/roach88/dqlmap/internal/schema"
)

var timeType = reflect.TypeOf(time.Time{})

// bindParameter looks the parameter up by its identifier, then by the
// next positional slot. A numeric identifier such as ":1" names the
// position it spells. The positional cursor only advances on a hit of
// the cursor itself.
func bindParameter(p queryexpr.Parameter, cx *clauseContext) (any, error) {
	st := cx.state
	if p.Name != "" {
		if v, ok := st.params.Lookup(p.Name); ok {
			return v, nil
		}
		if _, pos, positional := queryexpr.ParseParamKey(p.Name); positional {
			if v, ok := st.params.LookupPos(pos); ok {
				return v, nil
			}
		}
	}
	if v, ok := st.params.LookupPos(st.cursor); ok {
		st.cursor++
		return v, nil
	}

	st.precompilable = false
	name := p.Name
	if name == "" {
		name = "?"
	}
	return nil, hardError(CodeUnboundParameter, cx.clause, "parameter :%s is not set", name)
}

// nativeValue narrows a literal or bound value to what dql.Literal
// renders. Decimals become float64, characters become one-character
// strings and times go through the registry's converters.
func nativeValue(v any, cx *clauseContext) (any, error) {
	switch x := v.(type) {
	case nil, string, bool:
		return x, nil
	case decimal.Decimal:
		return x.InexactFloat64(), nil
	case *decimal.Decimal:
		if x == nil {
			return nil, nil
		}
		return x.InexactFloat64(), nil
	case queryexpr.Char:
		return string(rune(x)), nil
	case time.Time:
		return temporalValue(x, cx)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint(), nil
	case reflect.Float32:
		return float32(rv.Float()), nil
	case reflect.Float64:
		return rv.Float(), nil
	case reflect.String:
		return rv.String(), nil
	case reflect.Bool:
		return rv.Bool(), nil
	}
	return nil, softError(CodeUnsupportedValue, cx.clause, "values of type %T are not supported", v)
}

func temporalValue(t time.Time, cx *clauseContext) (any, error) {
	reg := cx.state.reg
	conv, ok := reg.Converter(timeType, schema.TargetString)
	if !ok {
		conv, ok = reg.Converter(timeType, schema.TargetLong)
	}
	if ok {
		v, err := conv.ToDatastore(t)
		if err != nil {
			ce := softError(CodeUnsupportedValue, cx.clause, "converting %s", timeType)
			ce.Err = err
			return nil, ce
		}
		return v, nil
	}
	return nil, softError(CodeUnsupportedValue, cx.clause, "no converter registered for %s", timeType)
}
