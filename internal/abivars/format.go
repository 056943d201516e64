// Package abivars renders and reads Abinit input variables in the
// "<name> <value>" text convention of the executable's input file.
package abivars

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// UnsupportedValueError reports a value that has no textual form in the
// input file.
type UnsupportedValueError struct {
	Key    string
	Value  any
	Reason string
}

func (e *UnsupportedValueError) Error() string {
	return fmt.Sprintf("parameter %q: unsupported value of type %T: %s", e.Key, e.Value, e.Reason)
}

// FormatLine renders one variable including the trailing newline. A list is
// written on one line; a list of lists is written one row per line, with
// continuation rows aligned under the first value. Strings are double
// quoted, and a one-element list is written in repeat form ("1*v") so it
// reads back as a list.
func FormatLine(key string, value any) (string, error) {
	if key == "" || strings.ContainsAny(key, " \t\r\n#!") {
		return "", &UnsupportedValueError{Key: key, Value: value, Reason: "invalid variable name"}
	}
	rows, err := formatRows(key, value)
	if err != nil {
		return "", err
	}
	indent := strings.Repeat(" ", len(key)+1)
	var sb strings.Builder
	sb.WriteString(key)
	sb.WriteByte(' ')
	for i, row := range rows {
		if i > 0 {
			sb.WriteString(indent)
		}
		sb.WriteString(row)
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}

func formatRows(key string, value any) ([]string, error) {
	if s, ok, err := formatScalar(key, value); ok || err != nil {
		if err != nil {
			return nil, err
		}
		return []string{s}, nil
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, &UnsupportedValueError{Key: key, Value: value, Reason: "not a number, string or list"}
	}
	if rv.Len() == 0 {
		return nil, &UnsupportedValueError{Key: key, Value: value, Reason: "empty list"}
	}

	if isNested(rv) {
		rows := make([]string, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			row := indirect(rv.Index(i))
			if row.Kind() != reflect.Slice && row.Kind() != reflect.Array {
				return nil, &UnsupportedValueError{Key: key, Value: value, Reason: "mixed scalars and lists"}
			}
			s, err := formatFlat(key, value, row)
			if err != nil {
				return nil, err
			}
			rows = append(rows, s)
		}
		return rows, nil
	}

	s, err := formatFlat(key, value, rv)
	if err != nil {
		return nil, err
	}
	if rv.Len() == 1 {
		s = "1*" + s
	}
	return []string{s}, nil
}

func formatFlat(key string, whole any, rv reflect.Value) (string, error) {
	if rv.Len() == 0 {
		return "", &UnsupportedValueError{Key: key, Value: whole, Reason: "empty list"}
	}
	parts := make([]string, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		elem := indirect(rv.Index(i))
		if !elem.IsValid() {
			return "", &UnsupportedValueError{Key: key, Value: whole, Reason: "nil list element"}
		}
		s, ok, err := formatScalar(key, elem.Interface())
		if err != nil {
			return "", err
		}
		if !ok {
			return "", &UnsupportedValueError{Key: key, Value: whole, Reason: "lists nested deeper than two levels"}
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, " "), nil
}

func isNested(rv reflect.Value) bool {
	first := indirect(rv.Index(0))
	return first.IsValid() && (first.Kind() == reflect.Slice || first.Kind() == reflect.Array)
}

func indirect(v reflect.Value) reflect.Value {
	for v.IsValid() && v.Kind() == reflect.Interface {
		v = v.Elem()
	}
	return v
}

// formatScalar reports ok=false for values that are not scalars.
func formatScalar(key string, value any) (string, bool, error) {
	switch v := value.(type) {
	case nil:
		return "", false, &UnsupportedValueError{Key: key, Value: value, Reason: "nil value"}
	case string:
		return formatString(key, v)
	case bool:
		return "", false, &UnsupportedValueError{Key: key, Value: value, Reason: "booleans have no input file form"}
	case float32:
		return formatFloat(key, float64(v))
	case float64:
		return formatFloat(key, v)
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), true, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), true, nil
	case reflect.Slice, reflect.Array:
		return "", false, nil
	}
	return "", false, &UnsupportedValueError{Key: key, Value: value, Reason: "not a number, string or list"}
}

// formatString quotes s. A string that already carries its own surrounding
// quotes is written as is.
func formatString(key, s string) (string, bool, error) {
	if strings.ContainsAny(s, "\r\n") {
		return "", false, &UnsupportedValueError{Key: key, Value: s, Reason: "string contains a line break"}
	}
	if isQuoted(s) {
		s = s[1 : len(s)-1]
	}
	if strings.Contains(s, `"`) {
		return "", false, &UnsupportedValueError{Key: key, Value: s, Reason: "string contains a double quote"}
	}
	return `"` + s + `"`, true, nil
}

func isQuoted(s string) bool {
	return len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"'
}

// formatFloat always yields a token that reads back as a float.
func formatFloat(key string, f float64) (string, bool, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", false, &UnsupportedValueError{Key: key, Value: f, Reason: "non-finite number"}
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s, true, nil
}
