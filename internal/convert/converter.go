package convert

import (
	"encoding"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/zclconf/go-cty/cty"
	ctyconvert "github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Context carries information about the field being converted into.
type Context struct {
	// Field is the path of the destination field, used in error messages.
	Field string
}

// Converter parses values into one native Go type and renders them as text.
type Converter interface {
	// Parse converts in, which may be text or a typed value, into the
	// converter's type. A nil input yields the zero value.
	Parse(in any, ctx Context) (any, error)
	// ToText renders v in a form Parse accepts back.
	ToText(v any) string
	// Type is the native type produced by Parse.
	Type() reflect.Type
}

// Error reports a rejected conversion.
type Error struct {
	Field string
	Value any
	Type  reflect.Type
	Err   error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("cannot convert %#v to %s", e.Value, e.Type)
	if e.Field != "" {
		msg = fmt.Sprintf("%s: %s", e.Field, msg)
	}

	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(ctx Context, in any, t reflect.Type, err error) *Error {
	return &Error{Field: ctx.Field, Value: in, Type: t, Err: err}
}

// scalarConverter handles numbers, strings, bools and primitive enums
// through cty.
type scalarConverter struct {
	typ        reflect.Type
	kind       KindEnum
	categories CategoryEnum
}

var textualBools = map[string]bool{
	"yes": true, "on": true, "true": true, "1": true,
	"no": false, "off": false, "false": false, "0": false,
}

func (c *scalarConverter) Type() reflect.Type { return c.typ }

func (c *scalarConverter) Parse(in any, ctx Context) (any, error) {
	if in == nil {
		return reflect.Zero(c.typ).Interface(), nil
	}

	inType := reflect.TypeOf(in)
	if inType == c.typ {
		return in, nil
	}

	from := FromReflectType(inType)
	if !c.categories.Allowed(from, c.kind) {
		return nil, newError(ctx, in, c.typ, fmt.Errorf("conversion from %s to %s is disabled", from, c.kind))
	}

	if c.kind == KindBool {
		if s, ok := in.(string); ok {
			b, known := textualBools[strings.ToLower(strings.TrimSpace(s))]
			if !known {
				return nil, newError(ctx, in, c.typ, nil)
			}

			return reflect.ValueOf(b).Convert(c.typ).Interface(), nil
		}
	}

	if from == KindBool && c.kind.IsInteger() {
		n := 0
		if reflect.ValueOf(in).Bool() {
			n = 1
		}

		return reflect.ValueOf(n).Convert(c.typ).Interface(), nil
	}

	if from.IsInteger() && c.kind == KindBool {
		return reflect.ValueOf(!reflect.ValueOf(in).IsZero()).Convert(c.typ).Interface(), nil
	}

	if s, ok := in.(string); ok && c.kind != KindString && c.kind != KindPrimitiveEnum {
		in = strings.TrimSpace(s)
	}

	src, err := toCty(in)
	if err != nil {
		return nil, newError(ctx, in, c.typ, err)
	}

	val, err := ctyconvert.Convert(src, ctyTypeFor(c.typ))
	if err != nil {
		return nil, newError(ctx, in, c.typ, err)
	}

	out := reflect.New(c.typ)
	if err := gocty.FromCtyValue(val, out.Interface()); err != nil {
		return nil, newError(ctx, in, c.typ, err)
	}

	return out.Elem().Interface(), nil
}

func (c *scalarConverter) ToText(v any) string {
	return scalarText(v)
}

// ctyTypeFor picks the cty type matching a native scalar type. Named enums
// backed by ints are numbers.
func ctyTypeFor(t reflect.Type) cty.Type {
	switch t.Kind() {
	case reflect.Bool:
		return cty.Bool
	case reflect.String:
		return cty.String
	default:
		return cty.Number
	}
}

// toCty lifts a Go value into cty. Named types are reduced to their
// underlying kind first so gocty sees plain scalars.
func toCty(in any) (cty.Value, error) {
	switch v := in.(type) {
	case string:
		return cty.StringVal(v), nil
	case cty.Value:
		return v, nil
	}

	rv := reflect.ValueOf(in)

	switch {
	case rv.CanInt():
		return cty.NumberIntVal(rv.Int()), nil
	case rv.CanUint():
		return cty.NumberUIntVal(rv.Uint()), nil
	case rv.CanFloat():
		return cty.NumberFloatVal(rv.Float()), nil
	case rv.Kind() == reflect.Bool:
		return cty.BoolVal(rv.Bool()), nil
	case rv.Kind() == reflect.String:
		return cty.StringVal(rv.String()), nil
	}

	ty, err := gocty.ImpliedType(in)
	if err != nil {
		return cty.NilVal, err
	}

	return gocty.ToCtyValue(in, ty)
}

func scalarText(v any) string {
	if v == nil {
		return ""
	}

	if m, ok := v.(encoding.TextMarshaler); ok {
		if b, err := m.MarshalText(); err == nil {
			return string(b)
		}
	}

	rv := reflect.ValueOf(v)
	if rv.CanFloat() {
		return strconv.FormatFloat(rv.Float(), 'g', -1, rv.Type().Bits())
	}

	if val, err := toCty(v); err == nil {
		if s, err := ctyconvert.Convert(val, cty.String); err == nil && s.IsKnown() && !s.IsNull() {
			return s.AsString()
		}
	}

	return fmt.Sprint(v)
}

// durationConverter accepts Go duration text, integer nanoseconds and float
// seconds, depending on categories.
type durationConverter struct {
	categories CategoryEnum
}

func (c *durationConverter) Type() reflect.Type { return durationType }

func (c *durationConverter) Parse(in any, ctx Context) (any, error) {
	if in == nil {
		return time.Duration(0), nil
	}

	if d, ok := in.(time.Duration); ok {
		return d, nil
	}

	from := FromReflectType(reflect.TypeOf(in))
	if !c.categories.Allowed(from, KindDuration) {
		return nil, newError(ctx, in, durationType, fmt.Errorf("conversion from %s to Duration is disabled", from))
	}

	rv := reflect.ValueOf(in)

	switch {
	case from == KindString:
		d, err := time.ParseDuration(strings.TrimSpace(rv.String()))
		if err != nil {
			return nil, newError(ctx, in, durationType, err)
		}

		return d, nil
	case rv.CanInt():
		return time.Duration(rv.Int()), nil
	case rv.CanUint():
		return time.Duration(rv.Uint()), nil
	case rv.CanFloat():
		return time.Duration(rv.Float() * float64(time.Second)), nil
	}

	return nil, newError(ctx, in, durationType, nil)
}

func (c *durationConverter) ToText(v any) string {
	if d, ok := v.(time.Duration); ok {
		return d.String()
	}

	return fmt.Sprint(v)
}

// timeConverter accepts RFC3339 text.
type timeConverter struct {
	categories CategoryEnum
}

func (c *timeConverter) Type() reflect.Type { return timeType }

func (c *timeConverter) Parse(in any, ctx Context) (any, error) {
	switch v := in.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return v, nil
	case string:
		if !c.categories.Allowed(KindString, KindTime) {
			return nil, newError(ctx, in, timeType, fmt.Errorf("conversion from String to Time is disabled"))
		}

		t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(v))
		if err != nil {
			return nil, newError(ctx, in, timeType, err)
		}

		return t, nil
	}

	return nil, newError(ctx, in, timeType, nil)
}

func (c *timeConverter) ToText(v any) string {
	if t, ok := v.(time.Time); ok {
		return t.Format(time.RFC3339Nano)
	}

	return fmt.Sprint(v)
}

var (
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
	textMarshalerType   = reflect.TypeFor[encoding.TextMarshaler]()
)

// textConverter handles types whose pointer implements
// encoding.TextUnmarshaler.
type textConverter struct {
	typ reflect.Type
}

func (c *textConverter) Type() reflect.Type { return c.typ }

func (c *textConverter) Parse(in any, ctx Context) (any, error) {
	if in == nil {
		return reflect.Zero(c.typ).Interface(), nil
	}

	if s, ok := in.(string); ok {
		ptr := reflect.New(c.typ)
		if err := ptr.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(s)); err != nil {
			return nil, newError(ctx, in, c.typ, err)
		}

		return ptr.Elem().Interface(), nil
	}

	return assign(in, c.typ, ctx)
}

func (c *textConverter) ToText(v any) string {
	return scalarText(v)
}

// assignConverter accepts values assignable or convertible to its type.
// Component references, structs and collections use it.
type assignConverter struct {
	typ reflect.Type
}

func (c *assignConverter) Type() reflect.Type { return c.typ }

func (c *assignConverter) Parse(in any, ctx Context) (any, error) {
	if in == nil {
		return reflect.Zero(c.typ).Interface(), nil
	}

	return assign(in, c.typ, ctx)
}

func (c *assignConverter) ToText(v any) string {
	return fmt.Sprint(v)
}

func assign(in any, t reflect.Type, ctx Context) (any, error) {
	v := reflect.ValueOf(in)

	switch {
	case v.Type().AssignableTo(t):
		out := reflect.New(t).Elem()
		out.Set(v)

		return out.Interface(), nil
	case v.Type().ConvertibleTo(t) && v.Kind() != reflect.String:
		return v.Convert(t).Interface(), nil
	}

	return nil, newError(ctx, in, t, nil)
}
