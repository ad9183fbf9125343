// Package coerce converts resolved scalar values into destination field
// types: assignability checks, pointer unwrap and wrap, numeric and string
// widening, and case-insensitive string-to-enum lookup through registered
// enum tables. Conversion never fails loudly; a value that cannot be
// converted is returned unchanged for the caller to decide on.
package coerce

import (
	"fmt"
	"reflect"
	"strconv"
)

// Value converts v to type `to` using the scalar coercion rules. The second
// result is false when no conversion applied and the original value was
// returned as-is.
func Value(v reflect.Value, to reflect.Type) (reflect.Value, bool) {
	if !v.IsValid() || to == nil {
		return v, false
	}

	if v.Type() == to || v.Type().AssignableTo(to) {
		return v, true
	}

	// A nullable destination unwraps to its underlying type before
	// conversion, then wraps the converted value back into a pointer.
	if to.Kind() == reflect.Ptr {
		inner, ok := Value(v, to.Elem())
		if !ok {
			return v, false
		}

		ptr := reflect.New(to.Elem())
		ptr.Elem().Set(inner)

		return ptr, true
	}

	// A pointer source converts through its element; nil converts to the
	// destination zero value.
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return reflect.Zero(to), true
		}

		return Value(v.Elem(), to)
	}

	if v.Kind() == reflect.String {
		if enum, ok := enumFromString(v.String(), to); ok {
			return enum, true
		}
	}

	// Numeric-to-string goes through formatting, not reflect conversion:
	// Go's int-to-string conversion produces a rune string, never "42".
	if to.Kind() == reflect.String && v.Kind() != reflect.String {
		if s, ok := stringify(v); ok {
			return reflect.ValueOf(s).Convert(to), true
		}
	}

	if v.Type().ConvertibleTo(to) {
		if converted, ok := safeConvert(v, to); ok {
			return converted, true
		}
	}

	return v, false
}

// safeConvert applies reflect conversion, absorbing conversion panics
// (e.g. unrepresentable constant conversions) into a no-op.
func safeConvert(v reflect.Value, to reflect.Type) (out reflect.Value, ok bool) {
	defer func() {
		if recover() != nil {
			out, ok = v, false
		}
	}()

	return v.Convert(to), true
}

// stringify renders a non-string value as text. A fmt.Stringer wins;
// plain numerics and bools format through strconv.
func stringify(v reflect.Value) (string, bool) {
	if v.CanInterface() {
		if s, ok := v.Interface().(fmt.Stringer); ok {
			return s.String(), true
		}
	}

	if v.CanAddr() && v.Addr().CanInterface() {
		if s, ok := v.Addr().Interface().(fmt.Stringer); ok {
			return s.String(), true
		}
	}

	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10), true
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', -1, 64), true
	case reflect.Bool:
		return strconv.FormatBool(v.Bool()), true
	default:
		return "", false
	}
}

// IsEmpty reports whether v counts as an empty/null resolved value:
// an invalid value, or a nil pointer, interface, slice, map or func.
func IsEmpty(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}

	switch v.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
		return v.IsNil()
	default:
		return false
	}
}
