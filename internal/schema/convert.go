package schema

import (
	"fmt"
	"reflect"
	"time"
)

// DefaultDateFormat is the Documentum default date literal layout.
const DefaultDateFormat = "2006/01/02 15:04:05"

// ConverterTarget is the datastore representation a converter produces.
type ConverterTarget int

const (
	TargetString ConverterTarget = iota
	TargetLong
)

// TypeConverter converts a member value to its datastore representation.
type TypeConverter interface {
	ToDatastore(v any) (any, error)
}

// NamedConverter is a converter that identifies itself in the schema
// fingerprint. Converters without a name are identified by their Go type
// only, so two different TypeConverterFuncs fingerprint alike.
type NamedConverter interface {
	TypeConverter
	ConverterName() string
}

// TypeConverterFunc adapts a function to TypeConverter.
type TypeConverterFunc func(v any) (any, error)

// ToDatastore calls f(v).
func (f TypeConverterFunc) ToDatastore(v any) (any, error) {
	return f(v)
}

func (t ConverterTarget) String() string {
	switch t {
	case TargetString:
		return "string"
	case TargetLong:
		return "long"
	}
	return fmt.Sprintf("target(%d)", int(t))
}

type converterKey struct {
	typ    reflect.Type
	target ConverterTarget
}

func (k converterKey) String() string {
	return k.typ.String() + "/" + k.target.String()
}

func converterName(c TypeConverter) string {
	if n, ok := c.(NamedConverter); ok {
		return n.ConverterName()
	}
	return fmt.Sprintf("%T", c)
}

// RegisterConverter installs a converter for values of type t. A nil
// converter removes the registration.
func (r *Registry) RegisterConverter(t reflect.Type, target ConverterTarget, c TypeConverter) {
	key := converterKey{typ: t, target: target}
	if c == nil {
		delete(r.converters, key)
		return
	}
	r.converters[key] = c
}

// Converter returns the converter for values of type t, if any.
func (r *Registry) Converter(t reflect.Type, target ConverterTarget) (TypeConverter, bool) {
	c, ok := r.converters[converterKey{typ: t, target: target}]
	return c, ok
}

// TimeStringConverter formats time.Time values with layout, in the
// value's own zone.
func TimeStringConverter(layout string) TypeConverter {
	return timeStringConverter{layout: layout}
}

type timeStringConverter struct {
	layout string
}

func (c timeStringConverter) ToDatastore(v any) (any, error) {
	t, ok := v.(time.Time)
	if !ok {
		return nil, fmt.Errorf("expected time.Time, got %T", v)
	}
	return t.Format(c.layout), nil
}

func (c timeStringConverter) ConverterName() string {
	return "time-string:" + c.layout
}

// TimeMillisConverter converts time.Time values to epoch milliseconds.
func TimeMillisConverter() TypeConverter {
	return timeMillisConverter{}
}

type timeMillisConverter struct{}

func (timeMillisConverter) ToDatastore(v any) (any, error) {
	t, ok := v.(time.Time)
	if !ok {
		return nil, fmt.Errorf("expected time.Time, got %T", v)
	}
	return t.UnixMilli(), nil
}

func (timeMillisConverter) ConverterName() string {
	return "time-millis"
}
