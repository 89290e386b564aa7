package paths

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

const objectText = "[object Object]"

// Stringify converts a leaf value into the text embedded in a computed path,
// following template interpolation rules: nil is "null", slices are
// comma-joined with nil elements left empty, maps and plain structs are
// "[object Object]" and numbers use their shortest textual form.
func Stringify(value any) string {
	return stringify(reflect.ValueOf(value), false)
}

func stringify(rv reflect.Value, inList bool) string {
	if !rv.IsValid() {
		return nullText(inList)
	}

	if rv.CanInterface() {
		switch typed := rv.Interface().(type) {
		case *Node:
			if typed == nil {
				return nullText(inList)
			}
			return typed.String()
		case json.Number:
			return formatNumberText(string(typed))
		case fmt.Stringer:
			if isNilPointer(rv) {
				return nullText(inList)
			}
			return typed.String()
		case error:
			if isNilPointer(rv) {
				return nullText(inList)
			}
			return typed.Error()
		}
	}

	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32:
		return formatFloat(rv.Float(), 32)
	case reflect.Float64:
		return formatFloat(rv.Float(), 64)
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nullText(inList)
		}
		return stringify(rv.Elem(), inList)
	case reflect.Slice, reflect.Array:
		return joinList(rv)
	case reflect.Map:
		if rv.IsNil() {
			return nullText(inList)
		}
		return objectText
	case reflect.Struct:
		return objectText
	default:
		return fmt.Sprint(rv.Interface())
	}
}

// nullText renders a missing value: "null" on its own, empty inside a list.
func nullText(inList bool) string {
	if inList {
		return ""
	}
	return "null"
}

func joinList(rv reflect.Value) string {
	parts := make([]string, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		parts[i] = stringify(rv.Index(i), true)
	}
	return strings.Join(parts, ",")
}

func isNilPointer(rv reflect.Value) bool {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

func formatNumberText(text string) string {
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return text
	}
	return formatFloat(f, 64)
}

// formatFloat renders f the way template literals print numbers: integral
// values without a fraction, exponent notation outside [1e-6, 1e21).
func formatFloat(f float64, bitSize int) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}

	abs := math.Abs(f)
	if abs >= 1e21 || abs < 1e-6 {
		text := strconv.FormatFloat(f, 'e', -1, bitSize)
		mantissa, exponent, _ := strings.Cut(text, "e")
		sign := exponent[:1]
		digits := strings.TrimLeft(exponent[1:], "0")
		if digits == "" {
			digits = "0"
		}
		return mantissa + "e" + sign + digits
	}
	return strconv.FormatFloat(f, 'f', -1, bitSize)
}
